package dto

import (
	"time"

	"postboard/internal/microservices/http-api/models"
)

// CreateCommentDTO for creating a comment; ParentID nil means a new root comment
type CreateCommentDTO struct {
	Content  string `json:"content" binding:"required,min=1,max=5000"`
	ParentID *int64 `json:"parent_id"`
}

// UpdateCommentDTO for editing a comment's content
type UpdateCommentDTO struct {
	Content string `json:"content" binding:"required,min=1,max=5000"`
}

// CommentResponse for returning a single comment
type CommentResponse struct {
	ID        int64     `json:"id"`
	PostID    int64     `json:"post_id"`
	ParentID  *int64    `json:"parent_id,omitempty"`
	AuthorID  string    `json:"author_id"`
	Username  string    `json:"username,omitempty"`
	Content   string    `json:"content"`
	IsBlocked bool      `json:"is_blocked"`
	Level     int       `json:"level"`
	CreatedAt time.Time `json:"created_at"`
}

// FromModelToCommentResponse converts a Comment model to CommentResponse DTO
func FromModelToCommentResponse(comment *models.Comment) *CommentResponse {
	return &CommentResponse{
		ID:        comment.ID,
		PostID:    comment.PostID,
		ParentID:  comment.ParentID,
		AuthorID:  comment.AuthorID,
		Username:  comment.Author.Username,
		Content:   comment.Content,
		IsBlocked: comment.IsBlocked,
		Level:     comment.Level,
		CreatedAt: comment.CreatedAt,
	}
}

// CommentTreeNode is one node of the materialized comment forest.
type CommentTreeNode struct {
	ID        int64              `json:"id"`
	PostID    int64              `json:"post_id"`
	AuthorID  string             `json:"author_id"`
	Username  string             `json:"username,omitempty"`
	Content   string             `json:"content"`
	IsBlocked bool               `json:"is_blocked"`
	Lft       int                `json:"lft"`
	Rgt       int                `json:"rgt"`
	Level     int                `json:"level"`
	CreatedAt time.Time          `json:"created_at"`
	Children  []*CommentTreeNode `json:"children"`
}

// NewCommentForest nests a post's flat comment rows into an ordered
// forest. The input must be sorted by lft ascending; a parent's lft always
// precedes its children's, so a single pass links every node.
func NewCommentForest(comments []models.Comment) []*CommentTreeNode {
	roots := make([]*CommentTreeNode, 0)
	byID := make(map[int64]*CommentTreeNode, len(comments))

	for i := range comments {
		c := &comments[i]
		node := &CommentTreeNode{
			ID:        c.ID,
			PostID:    c.PostID,
			AuthorID:  c.AuthorID,
			Username:  c.Author.Username,
			Content:   c.Content,
			IsBlocked: c.IsBlocked,
			Lft:       c.Lft,
			Rgt:       c.Rgt,
			Level:     c.Level,
			CreatedAt: c.CreatedAt,
			Children:  make([]*CommentTreeNode, 0),
		}
		byID[c.ID] = node

		if c.ParentID == nil {
			roots = append(roots, node)
			continue
		}
		if parent, ok := byID[*c.ParentID]; ok {
			parent.Children = append(parent.Children, node)
		} else {
			// orphaned row; surface it as a root rather than dropping it
			roots = append(roots, node)
		}
	}
	return roots
}
