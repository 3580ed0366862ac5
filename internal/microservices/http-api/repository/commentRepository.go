package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"postboard/internal/microservices/http-api/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	// ErrParentNotFound means the parent comment does not exist or belongs to another post.
	ErrParentNotFound = errors.New("parent comment not found")
)

// DailyCommentStats is one row of the daily breakdown query.
type DailyCommentStats struct {
	Date            string `json:"date"`
	TotalComments   int64  `json:"total_comments"`
	BlockedComments int64  `json:"blocked_comments"`
}

type CommentRepository interface {
	// Insert allocates nested-set coordinates for the comment and persists
	// it, shifting existing intervals in the same transaction. The caller
	// fills PostID, ParentID, AuthorID, Content and IsBlocked; Lft, Rgt and
	// Level are assigned here.
	Insert(ctx context.Context, comment *models.Comment) error
	GetByID(ctx context.Context, commentID int64) (*models.Comment, error)
	// GetByPost returns every comment of the post ordered by lft.
	GetByPost(ctx context.Context, postID int64) ([]models.Comment, error)
	// GetChildren returns the direct children of a comment ordered by lft.
	GetChildren(ctx context.Context, parentID int64) ([]models.Comment, error)
	Update(ctx context.Context, comment *models.Comment) error
	// DeleteSubtree removes the comment and all its descendants and closes
	// the interval gap left behind.
	DeleteSubtree(ctx context.Context, commentID int64) error
	DailyBreakdown(ctx context.Context, from, to time.Time) ([]DailyCommentStats, error)
}

type commentRepository struct {
	db *gorm.DB
}

func NewCommentRepository(db *gorm.DB) CommentRepository {
	return &commentRepository{db: db}
}

// lockPost takes the exclusive per-post lock that serializes all interval
// writers for one post. Every coordinate read feeding a shift must happen
// after this call, inside the same transaction.
func lockPost(tx *gorm.DB, postID int64) (*models.Post, error) {
	q := tx
	if tx.Dialector.Name() == "postgres" {
		q = tx.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	// sqlite (tests) has no FOR UPDATE; its single-writer lock covers us there
	var post models.Post
	if err := q.First(&post, postID).Error; err != nil {
		return nil, err
	}
	return &post, nil
}

// Insert a new comment, allocating its interval under the post lock.
func (r *commentRepository) Insert(ctx context.Context, comment *models.Comment) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := lockPost(tx, comment.PostID); err != nil {
			return err
		}

		if comment.ParentID != nil {
			return r.insertChild(tx, comment)
		}
		return r.insertRoot(tx, comment)
	})
}

// insertChild appends the comment as the last child of its parent: the new
// interval opens immediately before the parent's closing bound.
func (r *commentRepository) insertChild(tx *gorm.DB, comment *models.Comment) error {
	var parent models.Comment
	err := tx.Where("id = ? AND post_id = ?", *comment.ParentID, comment.PostID).
		First(&parent).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrParentNotFound
		}
		return err
	}

	var maxChildRgt sql.NullInt64
	err = tx.Model(&models.Comment{}).
		Where("parent_id = ?", parent.ID).
		Select("MAX(rgt)").
		Scan(&maxChildRgt).Error
	if err != nil {
		return err
	}

	// In a consistent tree the last child's rgt is parent.rgt - 1, so both
	// branches name the same anchor: the slot just inside the parent's
	// closing bound.
	anchor := parent.Rgt
	if maxChildRgt.Valid {
		anchor = int(maxChildRgt.Int64) + 1
	}

	comment.Lft = anchor
	comment.Rgt = anchor + 1
	comment.Level = parent.Level + 1

	// Two separate range updates: a row's lft and rgt may independently
	// cross the insertion threshold.
	err = tx.Model(&models.Comment{}).
		Where("post_id = ? AND lft > ?", comment.PostID, anchor).
		Update("lft", gorm.Expr("lft + 2")).Error
	if err != nil {
		return err
	}
	err = tx.Model(&models.Comment{}).
		Where("post_id = ? AND rgt >= ?", comment.PostID, anchor).
		Update("rgt", gorm.Expr("rgt + 2")).Error
	if err != nil {
		return err
	}

	return tx.Create(comment).Error
}

// insertRoot appends the comment after every existing interval of the post.
func (r *commentRepository) insertRoot(tx *gorm.DB, comment *models.Comment) error {
	var maxRgt sql.NullInt64
	err := tx.Model(&models.Comment{}).
		Where("post_id = ?", comment.PostID).
		Select("MAX(rgt)").
		Scan(&maxRgt).Error
	if err != nil {
		return err
	}

	if !maxRgt.Valid {
		// first comment on the post
		comment.Lft = 1
		comment.Rgt = 2
		comment.Level = 0
		return tx.Create(comment).Error
	}

	// A trailing shift for rows past the end of the numbering; the root is
	// appended there, so this matches nothing and keeps the numbering dense.
	err = tx.Model(&models.Comment{}).
		Where("post_id = ? AND lft > ?", comment.PostID, maxRgt.Int64).
		Update("lft", gorm.Expr("lft + 2")).Error
	if err != nil {
		return err
	}

	comment.Lft = int(maxRgt.Int64) + 1
	comment.Rgt = int(maxRgt.Int64) + 2
	comment.Level = 0
	return tx.Create(comment).Error
}

// GetByID retrieves a comment by its ID
func (r *commentRepository) GetByID(ctx context.Context, commentID int64) (*models.Comment, error) {
	var comment models.Comment
	err := r.db.WithContext(ctx).
		Where("id = ?", commentID).
		Preload("Author").
		First(&comment).Error
	if err != nil {
		return nil, err
	}
	return &comment, nil
}

// GetByPost retrieves all comments for a post ordered by lft, which is
// creation order at every level of the tree.
func (r *commentRepository) GetByPost(ctx context.Context, postID int64) ([]models.Comment, error) {
	var comments []models.Comment
	err := r.db.WithContext(ctx).
		Where("post_id = ?", postID).
		Preload("Author").
		Order("lft ASC").
		Find(&comments).Error
	if err != nil {
		return nil, err
	}
	return comments, nil
}

// GetChildren retrieves the direct children of a comment ordered by lft
func (r *commentRepository) GetChildren(ctx context.Context, parentID int64) ([]models.Comment, error) {
	var comments []models.Comment
	err := r.db.WithContext(ctx).
		Where("parent_id = ?", parentID).
		Preload("Author").
		Order("lft ASC").
		Find(&comments).Error
	if err != nil {
		return nil, err
	}
	return comments, nil
}

// Update persists content/moderation changes. Interval columns are not
// touched here.
func (r *commentRepository) Update(ctx context.Context, comment *models.Comment) error {
	return r.db.WithContext(ctx).Model(comment).
		Select("content", "is_blocked").
		Updates(comment).Error
}

// DeleteSubtree removes the target and its descendants under the post lock
// and shifts the surviving intervals down by the removed width.
func (r *commentRepository) DeleteSubtree(ctx context.Context, commentID int64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var target models.Comment
		if err := tx.First(&target, commentID).Error; err != nil {
			return err
		}

		if _, err := lockPost(tx, target.PostID); err != nil {
			return err
		}

		// Re-read after acquiring the lock: the coordinates may have
		// shifted while we waited for a concurrent writer to commit.
		if err := tx.First(&target, commentID).Error; err != nil {
			return err
		}

		width := target.Width()

		err := tx.Where("post_id = ? AND lft >= ? AND rgt <= ?",
			target.PostID, target.Lft, target.Rgt).
			Delete(&models.Comment{}).Error
		if err != nil {
			return err
		}

		err = tx.Model(&models.Comment{}).
			Where("post_id = ? AND lft > ?", target.PostID, target.Rgt).
			Update("lft", gorm.Expr("lft - ?", width)).Error
		if err != nil {
			return err
		}
		return tx.Model(&models.Comment{}).
			Where("post_id = ? AND rgt > ?", target.PostID, target.Rgt).
			Update("rgt", gorm.Expr("rgt - ?", width)).Error
	})
}

// DailyBreakdown counts total and blocked comments per day in [from, to].
func (r *commentRepository) DailyBreakdown(ctx context.Context, from, to time.Time) ([]DailyCommentStats, error) {
	var stats []DailyCommentStats
	err := r.db.WithContext(ctx).Model(&models.Comment{}).
		Select("DATE(created_at) AS date, COUNT(*) AS total_comments, SUM(CASE WHEN is_blocked THEN 1 ELSE 0 END) AS blocked_comments").
		Where("created_at >= ? AND created_at < ?", from, to.AddDate(0, 0, 1)).
		Group("DATE(created_at)").
		Order("date ASC").
		Scan(&stats).Error
	if err != nil {
		return nil, err
	}
	return stats, nil
}
