package dto

import (
	"time"

	"postboard/internal/microservices/http-api/models"
)

// RegisterDTO for creating a new account
type RegisterDTO struct {
	Username string `json:"username" binding:"required,min=3,max=50"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
}

// LoginDTO for authenticating
type LoginDTO struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// UpdateUserDTO for changing auto-reply preferences
type UpdateUserDTO struct {
	AutoReplyEnabled *bool   `json:"auto_reply_enabled"`
	AutoReplyDelay   *string `json:"auto_reply_delay"` // Go duration string, e.g. "10s"
}

// UserResponse for returning account information
type UserResponse struct {
	ID               string    `json:"id"`
	Username         string    `json:"username"`
	Email            string    `json:"email"`
	AutoReplyEnabled bool      `json:"auto_reply_enabled"`
	AutoReplyDelay   string    `json:"auto_reply_delay"`
	CreatedAt        time.Time `json:"created_at"`
}

// LoginResponse carries the issued token and the account it belongs to
type LoginResponse struct {
	AccessToken string       `json:"access_token"`
	User        UserResponse `json:"user"`
}

// FromModelToUserResponse converts a User model to UserResponse DTO
func FromModelToUserResponse(user *models.User) *UserResponse {
	return &UserResponse{
		ID:               user.ID,
		Username:         user.Username,
		Email:            user.Email,
		AutoReplyEnabled: user.AutoReplyEnabled,
		AutoReplyDelay:   user.AutoReplyDelay.String(),
		CreatedAt:        user.CreatedAt,
	}
}
