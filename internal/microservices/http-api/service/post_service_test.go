package service

import (
	"context"
	"errors"
	"testing"

	"postboard/internal/microservices/http-api/dto"
	"postboard/internal/microservices/http-api/models"
	"postboard/internal/moderation"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// mapClassifier scores each text individually, unknown text scores zero.
type mapClassifier struct {
	scores map[string]float64
}

func (m *mapClassifier) Score(ctx context.Context, text string) (float64, error) {
	return m.scores[text], nil
}

func newPostServiceFixture(classifier moderation.Classifier) (*MockPostRepository, PostService) {
	postRepo := new(MockPostRepository)
	return postRepo, NewPostService(postRepo, moderation.NewGate(classifier))
}

func TestPostCreateBlockedByToxicTitle(t *testing.T) {
	postRepo, svc := newPostServiceFixture(&mapClassifier{scores: map[string]float64{
		"awful title": 0.9,
	}})
	postRepo.On("Create", mock.Anything, mock.AnythingOfType("*models.Post")).
		Run(func(args mock.Arguments) {
			args.Get(1).(*models.Post).ID = 1
		}).Return(nil)
	postRepo.On("GetByID", mock.Anything, int64(1)).Return(&models.Post{
		ID:        1,
		Title:     "awful title",
		Content:   "fine content",
		IsBlocked: true,
	}, nil)

	resp, err := svc.Create(context.Background(), "author-id", dto.CreatePostDTO{
		Title:   "awful title",
		Content: "fine content",
	})
	require.NoError(t, err)
	assert.True(t, resp.IsBlocked)

	created := postRepo.Calls[0].Arguments.Get(1).(*models.Post)
	assert.True(t, created.IsBlocked)
}

func TestPostCreateCleanContentPasses(t *testing.T) {
	postRepo, svc := newPostServiceFixture(&mapClassifier{scores: map[string]float64{}})
	postRepo.On("Create", mock.Anything, mock.AnythingOfType("*models.Post")).
		Run(func(args mock.Arguments) {
			args.Get(1).(*models.Post).ID = 1
		}).Return(nil)
	postRepo.On("GetByID", mock.Anything, int64(1)).Return(&models.Post{ID: 1}, nil)

	_, err := svc.Create(context.Background(), "author-id", dto.CreatePostDTO{
		Title:   "hi",
		Content: "there",
	})
	require.NoError(t, err)

	created := postRepo.Calls[0].Arguments.Get(1).(*models.Post)
	assert.False(t, created.IsBlocked)
}

func TestPostCreateClassifierFailureAborts(t *testing.T) {
	postRepo, svc := newPostServiceFixture(&stubClassifier{err: errors.New("down")})

	_, err := svc.Create(context.Background(), "author-id", dto.CreatePostDTO{
		Title:   "hi",
		Content: "there",
	})
	assert.ErrorIs(t, err, ErrClassifierUnavailable)
	postRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestPostUpdateRequiresOwnership(t *testing.T) {
	postRepo, svc := newPostServiceFixture(&stubClassifier{})
	postRepo.On("GetByID", mock.Anything, int64(1)).Return(&models.Post{
		ID:       1,
		AuthorID: "owner-id",
	}, nil)

	_, err := svc.Update(context.Background(), 1, "stranger-id", dto.UpdatePostDTO{
		Title:   "t",
		Content: "c",
	})
	assert.ErrorIs(t, err, ErrNotOwner)
}

func TestPostDeleteUnknownPost(t *testing.T) {
	postRepo, svc := newPostServiceFixture(&stubClassifier{})
	postRepo.On("GetByID", mock.Anything, int64(1)).Return(nil, gorm.ErrRecordNotFound)

	err := svc.Delete(context.Background(), 1, "owner-id")
	assert.ErrorIs(t, err, ErrPostNotFound)
}
