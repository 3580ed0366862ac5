package service

import (
	"context"
	"errors"
	"fmt"

	"postboard/internal/microservices/http-api/dto"
	"postboard/internal/microservices/http-api/models"
	"postboard/internal/microservices/http-api/repository"
	"postboard/internal/moderation"

	"gorm.io/gorm"
)

type PostService interface {
	Create(ctx context.Context, authorID string, req dto.CreatePostDTO) (*dto.PostResponse, error)
	Update(ctx context.Context, postID int64, userID string, req dto.UpdatePostDTO) (*dto.PostResponse, error)
	Delete(ctx context.Context, postID int64, userID string) error
	GetByID(ctx context.Context, postID int64) (*dto.PostResponse, error)
	List(ctx context.Context, page, pageSize int) (*dto.PaginatedPostResponse, error)
}

type postService struct {
	postRepo repository.PostRepository
	gate     *moderation.Gate
}

func NewPostService(postRepo repository.PostRepository, gate *moderation.Gate) PostService {
	return &postService{
		postRepo: postRepo,
		gate:     gate,
	}
}

// Create moderates the title and content and persists the post. A blocked
// verdict on either field blocks the whole post.
func (s *postService) Create(ctx context.Context, authorID string, req dto.CreatePostDTO) (*dto.PostResponse, error) {
	blocked, err := s.moderate(ctx, req.Title, req.Content)
	if err != nil {
		return nil, err
	}

	post := &models.Post{
		Title:     req.Title,
		Content:   req.Content,
		AuthorID:  authorID,
		IsBlocked: blocked,
	}

	if err := s.postRepo.Create(ctx, post); err != nil {
		return nil, err
	}

	// Reload with author data
	post, err = s.postRepo.GetByID(ctx, post.ID)
	if err != nil {
		return nil, err
	}
	return dto.FromModelToPostResponse(post), nil
}

// Update re-moderates the new title and content before saving.
func (s *postService) Update(ctx context.Context, postID int64, userID string, req dto.UpdatePostDTO) (*dto.PostResponse, error) {
	post, err := s.postRepo.GetByID(ctx, postID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPostNotFound
		}
		return nil, err
	}

	if post.AuthorID != userID {
		return nil, ErrNotOwner
	}

	blocked, err := s.moderate(ctx, req.Title, req.Content)
	if err != nil {
		return nil, err
	}

	post.Title = req.Title
	post.Content = req.Content
	post.IsBlocked = blocked
	if err := s.postRepo.Update(ctx, post); err != nil {
		return nil, err
	}

	post, err = s.postRepo.GetByID(ctx, postID)
	if err != nil {
		return nil, err
	}
	return dto.FromModelToPostResponse(post), nil
}

// Delete removes the post and all its comments.
func (s *postService) Delete(ctx context.Context, postID int64, userID string) error {
	post, err := s.postRepo.GetByID(ctx, postID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrPostNotFound
		}
		return err
	}

	if post.AuthorID != userID {
		return ErrNotOwner
	}

	return s.postRepo.Delete(ctx, postID)
}

func (s *postService) GetByID(ctx context.Context, postID int64) (*dto.PostResponse, error) {
	post, err := s.postRepo.GetByID(ctx, postID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPostNotFound
		}
		return nil, err
	}
	return dto.FromModelToPostResponse(post), nil
}

func (s *postService) List(ctx context.Context, page, pageSize int) (*dto.PaginatedPostResponse, error) {
	posts, total, err := s.postRepo.List(ctx, page, pageSize)
	if err != nil {
		return nil, err
	}

	postResponses := make([]dto.PostResponse, 0, len(posts))
	for i := range posts {
		postResponses = append(postResponses, *dto.FromModelToPostResponse(&posts[i]))
	}
	return dto.NewPaginatedPostResponse(postResponses, int(total), page, pageSize), nil
}

// moderate scores both fields; the post is blocked if either trips the
// threshold. A classifier failure aborts the whole operation.
func (s *postService) moderate(ctx context.Context, title, content string) (bool, error) {
	titleBlocked, err := s.gate.Check(ctx, title)
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrClassifierUnavailable, err)
	}
	contentBlocked, err := s.gate.Check(ctx, content)
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrClassifierUnavailable, err)
	}
	return titleBlocked || contentBlocked, nil
}
