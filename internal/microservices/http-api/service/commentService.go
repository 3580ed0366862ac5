package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"postboard/internal/autoreply"
	"postboard/internal/microservices/http-api/dto"
	"postboard/internal/microservices/http-api/models"
	"postboard/internal/microservices/http-api/repository"
	"postboard/internal/moderation"
	"postboard/internal/queue"

	"gorm.io/gorm"
)

// insertRetries bounds the transparent retries after a stale-interval
// conflict. The repository recomputes coordinates on every attempt, so a
// retry never reuses numbers read before the conflict.
const insertRetries = 3

// ReplyScheduler enqueues a delayed auto-reply job.
type ReplyScheduler interface {
	Enqueue(ctx context.Context, job queue.ReplyJob, delay time.Duration) error
}

type CommentService interface {
	Create(ctx context.Context, postID int64, authorID string, req dto.CreateCommentDTO) (*dto.CommentResponse, error)
	// CreateAutoReply is the worker-side entry: it re-enters the ordinary
	// insert path to attach a generated reply under the triggering comment.
	CreateAutoReply(ctx context.Context, job queue.ReplyJob) (*dto.CommentResponse, error)
	GetByID(ctx context.Context, commentID int64) (*dto.CommentResponse, error)
	GetChildren(ctx context.Context, parentID int64) ([]dto.CommentResponse, error)
	GetTree(ctx context.Context, postID int64) ([]*dto.CommentTreeNode, error)
	Update(ctx context.Context, commentID int64, userID string, content string) (*dto.CommentResponse, error)
	Delete(ctx context.Context, commentID int64, userID string) error
	DailyBreakdown(ctx context.Context, dateFrom, dateTo string) ([]repository.DailyCommentStats, error)
}

type commentService struct {
	commentRepo       repository.CommentRepository
	postRepo          repository.PostRepository
	userRepo          repository.UserRepository
	gate              *moderation.Gate
	scheduler         ReplyScheduler
	defaultReplyDelay time.Duration
	logger            *slog.Logger
}

func NewCommentService(
	commentRepo repository.CommentRepository,
	postRepo repository.PostRepository,
	userRepo repository.UserRepository,
	gate *moderation.Gate,
	scheduler ReplyScheduler,
	defaultReplyDelay time.Duration,
	logger *slog.Logger,
) CommentService {
	return &commentService{
		commentRepo:       commentRepo,
		postRepo:          postRepo,
		userRepo:          userRepo,
		gate:              gate,
		scheduler:         scheduler,
		defaultReplyDelay: defaultReplyDelay,
		logger:            logger,
	}
}

// Create moderates the content, inserts the comment into the post's tree
// and schedules an auto-reply if the post owner opted in.
func (s *commentService) Create(ctx context.Context, postID int64, authorID string, req dto.CreateCommentDTO) (*dto.CommentResponse, error) {
	post, err := s.postRepo.GetByID(ctx, postID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPostNotFound
		}
		return nil, err
	}

	// The gate runs before anything is persisted: a classifier failure
	// means no row is written at all.
	blocked, err := s.gate.Check(ctx, req.Content)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrClassifierUnavailable, err)
	}

	comment := &models.Comment{
		PostID:    postID,
		ParentID:  req.ParentID,
		AuthorID:  authorID,
		Content:   req.Content,
		IsBlocked: blocked,
	}

	if err := s.insertWithRetry(ctx, comment); err != nil {
		return nil, err
	}

	s.scheduleAutoReply(ctx, post, comment)

	// Reload with author data
	comment, err = s.commentRepo.GetByID(ctx, comment.ID)
	if err != nil {
		return nil, err
	}
	return dto.FromModelToCommentResponse(comment), nil
}

// CreateAutoReply inserts the generated reply as a child of the triggering
// comment. Replies are not re-moderated and never schedule further
// replies, so a thread cannot feed itself forever.
func (s *commentService) CreateAutoReply(ctx context.Context, job queue.ReplyJob) (*dto.CommentResponse, error) {
	parent, err := s.commentRepo.GetByID(ctx, job.CommentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCommentNotFound
		}
		return nil, err
	}
	if parent.PostID != job.PostID {
		return nil, ErrCommentNotFound
	}

	owner, err := s.userRepo.GetByID(ctx, job.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCommentNotFound
		}
		return nil, err
	}

	comment := &models.Comment{
		PostID:    job.PostID,
		ParentID:  &job.CommentID,
		AuthorID:  owner.ID,
		Content:   autoreply.Generate(parent.Content, owner.Username),
		IsBlocked: false,
	}

	if err := s.insertWithRetry(ctx, comment); err != nil {
		return nil, err
	}

	comment, err = s.commentRepo.GetByID(ctx, comment.ID)
	if err != nil {
		return nil, err
	}
	return dto.FromModelToCommentResponse(comment), nil
}

func (s *commentService) GetByID(ctx context.Context, commentID int64) (*dto.CommentResponse, error) {
	comment, err := s.commentRepo.GetByID(ctx, commentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCommentNotFound
		}
		return nil, err
	}
	return dto.FromModelToCommentResponse(comment), nil
}

func (s *commentService) GetChildren(ctx context.Context, parentID int64) ([]dto.CommentResponse, error) {
	if _, err := s.commentRepo.GetByID(ctx, parentID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCommentNotFound
		}
		return nil, err
	}

	children, err := s.commentRepo.GetChildren(ctx, parentID)
	if err != nil {
		return nil, err
	}

	responses := make([]dto.CommentResponse, 0, len(children))
	for i := range children {
		responses = append(responses, *dto.FromModelToCommentResponse(&children[i]))
	}
	return responses, nil
}

// GetTree materializes the post's whole comment forest, ordered by lft at
// every level.
func (s *commentService) GetTree(ctx context.Context, postID int64) ([]*dto.CommentTreeNode, error) {
	if _, err := s.postRepo.GetByID(ctx, postID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPostNotFound
		}
		return nil, err
	}

	comments, err := s.commentRepo.GetByPost(ctx, postID)
	if err != nil {
		return nil, err
	}
	return dto.NewCommentForest(comments), nil
}

// Update edits the content and re-moderates it.
func (s *commentService) Update(ctx context.Context, commentID int64, userID string, content string) (*dto.CommentResponse, error) {
	comment, err := s.commentRepo.GetByID(ctx, commentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCommentNotFound
		}
		return nil, err
	}

	if comment.AuthorID != userID {
		return nil, ErrNotOwner
	}

	blocked, err := s.gate.Check(ctx, content)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrClassifierUnavailable, err)
	}

	comment.Content = content
	comment.IsBlocked = blocked
	if err := s.commentRepo.Update(ctx, comment); err != nil {
		return nil, err
	}

	comment, err = s.commentRepo.GetByID(ctx, commentID)
	if err != nil {
		return nil, err
	}
	return dto.FromModelToCommentResponse(comment), nil
}

// Delete removes the comment's whole subtree. Allowed for the comment
// author and the post owner.
func (s *commentService) Delete(ctx context.Context, commentID int64, userID string) error {
	comment, err := s.commentRepo.GetByID(ctx, commentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrCommentNotFound
		}
		return err
	}

	if comment.AuthorID != userID {
		post, err := s.postRepo.GetByID(ctx, comment.PostID)
		if err != nil {
			return err
		}
		if post.AuthorID != userID {
			return ErrNotOwner
		}
	}

	for attempt := 0; attempt < insertRetries; attempt++ {
		err = s.commentRepo.DeleteSubtree(ctx, commentID)
		if err == nil {
			return nil
		}
		if !repository.IsStaleIntervalConflict(err) {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrCommentNotFound
			}
			return err
		}
		s.logger.Warn("retrying subtree delete after interval conflict",
			"comment_id", commentID, "attempt", attempt+1)
	}
	return fmt.Errorf("%w: %v", ErrTreeConflict, err)
}

// DailyBreakdown returns per-day total and blocked comment counts.
func (s *commentService) DailyBreakdown(ctx context.Context, dateFrom, dateTo string) ([]repository.DailyCommentStats, error) {
	from, err := time.Parse("2006-01-02", dateFrom)
	if err != nil {
		return nil, ErrInvalidDate
	}
	to, err := time.Parse("2006-01-02", dateTo)
	if err != nil {
		return nil, ErrInvalidDate
	}
	if to.Before(from) {
		return nil, ErrInvalidDate
	}
	return s.commentRepo.DailyBreakdown(ctx, from, to)
}

// insertWithRetry runs the allocator+mutator transaction, retrying on
// stale-interval conflicts with freshly computed coordinates.
func (s *commentService) insertWithRetry(ctx context.Context, comment *models.Comment) error {
	var err error
	for attempt := 0; attempt < insertRetries; attempt++ {
		err = s.commentRepo.Insert(ctx, comment)
		if err == nil {
			return nil
		}
		if errors.Is(err, repository.ErrParentNotFound) {
			return ErrParentNotFound
		}
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrPostNotFound
		}
		if !repository.IsStaleIntervalConflict(err) {
			return err
		}
		s.logger.Warn("retrying comment insert after interval conflict",
			"post_id", comment.PostID, "attempt", attempt+1)
	}
	return fmt.Errorf("%w: %v", ErrTreeConflict, err)
}

// scheduleAutoReply enqueues a delayed reply when the post owner opted in.
// The comment is already committed; an enqueue failure is logged, not
// propagated.
func (s *commentService) scheduleAutoReply(ctx context.Context, post *models.Post, comment *models.Comment) {
	owner, err := s.userRepo.GetByID(ctx, post.AuthorID)
	if err != nil {
		s.logger.Error("auto-reply owner lookup failed", "post_id", post.ID, "error", err)
		return
	}
	if !owner.AutoReplyEnabled {
		return
	}

	delay := owner.AutoReplyDelay
	if delay <= 0 {
		delay = s.defaultReplyDelay
	}

	job := queue.ReplyJob{
		PostID:    post.ID,
		CommentID: comment.ID,
		UserID:    owner.ID,
	}
	if err := s.scheduler.Enqueue(ctx, job, delay); err != nil {
		s.logger.Error("auto-reply enqueue failed",
			"post_id", post.ID, "comment_id", comment.ID, "error", err)
	}
}
