package dto

import (
	"time"

	"github.com/noah-isme/qpflow-api/internal/models"
)

// LoginRequest carries the credentials posted to the login endpoint.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse returns the issued token together with the account.
type LoginResponse struct {
	Token string       `json:"token"`
	User  UserResponse `json:"user"`
}

// UserResponse is the public shape of a user account.
type UserResponse struct {
	ID         uint      `json:"id"`
	Name       string    `json:"name"`
	Email      string    `json:"email"`
	Privileges []string  `json:"privileges"`
	CreatedAt  time.Time `json:"created_at"`
}

// NewUserResponse maps a user model into its response shape.
func NewUserResponse(user models.User) UserResponse {
	privileges := user.ActivePrivileges()
	if privileges == nil {
		privileges = []string{}
	}
	return UserResponse{
		ID:         user.ID,
		Name:       user.Name,
		Email:      user.Email,
		Privileges: privileges,
		CreatedAt:  user.CreatedAt,
	}
}

// NewUserResponseSlice maps a slice of users.
func NewUserResponseSlice(users []models.User) []UserResponse {
	responses := make([]UserResponse, 0, len(users))
	for _, user := range users {
		responses = append(responses, NewUserResponse(user))
	}
	return responses
}
