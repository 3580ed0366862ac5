package service

import (
	"context"
	"testing"
	"time"

	"postboard/internal/config"
	"postboard/internal/microservices/http-api/middleware/auth"
	"postboard/internal/microservices/http-api/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newAuthServiceFixture() (*MockUserRepository, AuthService) {
	userRepo := new(MockUserRepository)
	cfg := &config.Config{
		JWTSecret: "test-secret-at-least-32-characters!!",
		JWTExpiry: time.Hour,
	}
	return userRepo, NewAuthService(userRepo, cfg)
}

func TestRegisterHashesPassword(t *testing.T) {
	userRepo, svc := newAuthServiceFixture()
	userRepo.On("FindByUsername", mock.Anything, "alice").Return(nil, gorm.ErrRecordNotFound)
	userRepo.On("FindByEmail", mock.Anything, "alice@example.com").Return(nil, gorm.ErrRecordNotFound)
	userRepo.On("Create", mock.Anything, mock.AnythingOfType("*models.User")).Return(nil)

	user, err := svc.Register(context.Background(), "alice", "alice@example.com", "s3cretpass")
	require.NoError(t, err)

	assert.NotEmpty(t, user.ID)
	assert.NotEqual(t, "s3cretpass", user.Password)
	assert.NoError(t, auth.VerifyPassword(user.Password, "s3cretpass"))
}

func TestRegisterDuplicateUsername(t *testing.T) {
	userRepo, svc := newAuthServiceFixture()
	userRepo.On("FindByUsername", mock.Anything, "alice").Return(&models.User{ID: "x"}, nil)

	_, err := svc.Register(context.Background(), "alice", "new@example.com", "s3cretpass")
	assert.ErrorIs(t, err, ErrNameInUse)
	userRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestLoginIssuesValidToken(t *testing.T) {
	userRepo, svc := newAuthServiceFixture()
	hash, err := auth.HashPassword("s3cretpass")
	require.NoError(t, err)
	userRepo.On("FindByUsername", mock.Anything, "alice").Return(&models.User{
		ID:       "user-1",
		Username: "alice",
		Password: hash,
	}, nil)

	token, user, err := svc.Login(context.Background(), "alice", "s3cretpass")
	require.NoError(t, err)
	assert.Equal(t, "user-1", user.ID)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, "alice", claims.Username)
}

func TestLoginWrongPassword(t *testing.T) {
	userRepo, svc := newAuthServiceFixture()
	hash, err := auth.HashPassword("s3cretpass")
	require.NoError(t, err)
	userRepo.On("FindByUsername", mock.Anything, "alice").Return(&models.User{
		ID:       "user-1",
		Password: hash,
	}, nil)

	_, _, err = svc.Login(context.Background(), "alice", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestValidateTokenRejectsGarbage(t *testing.T) {
	_, svc := newAuthServiceFixture()

	_, err := svc.ValidateToken("not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateTokenRejectsForeignSecret(t *testing.T) {
	userRepo := new(MockUserRepository)
	other := NewAuthService(userRepo, &config.Config{
		JWTSecret: "another-secret-also-32-characters!!!",
		JWTExpiry: time.Hour,
	})
	hash, err := auth.HashPassword("s3cretpass")
	require.NoError(t, err)
	userRepo.On("FindByUsername", mock.Anything, "alice").Return(&models.User{
		ID:       "user-1",
		Password: hash,
	}, nil)

	token, _, err := other.Login(context.Background(), "alice", "s3cretpass")
	require.NoError(t, err)

	_, svc := newAuthServiceFixture()
	_, err = svc.ValidateToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestUpdatePreferences(t *testing.T) {
	userRepo, svc := newAuthServiceFixture()
	userRepo.On("GetByID", mock.Anything, "user-1").Return(&models.User{
		ID:               "user-1",
		AutoReplyEnabled: false,
	}, nil)
	userRepo.On("Update", mock.Anything, mock.AnythingOfType("*models.User")).Return(nil)

	enabled := true
	delay := 30 * time.Second
	user, err := svc.UpdatePreferences(context.Background(), "user-1", &enabled, &delay)
	require.NoError(t, err)
	assert.True(t, user.AutoReplyEnabled)
	assert.Equal(t, 30*time.Second, user.AutoReplyDelay)
}

func TestUpdatePreferencesPartial(t *testing.T) {
	userRepo, svc := newAuthServiceFixture()
	userRepo.On("GetByID", mock.Anything, "user-1").Return(&models.User{
		ID:               "user-1",
		AutoReplyEnabled: true,
		AutoReplyDelay:   time.Minute,
	}, nil)
	userRepo.On("Update", mock.Anything, mock.AnythingOfType("*models.User")).Return(nil)

	user, err := svc.UpdatePreferences(context.Background(), "user-1", nil, nil)
	require.NoError(t, err)
	assert.True(t, user.AutoReplyEnabled)
	assert.Equal(t, time.Minute, user.AutoReplyDelay)
}
