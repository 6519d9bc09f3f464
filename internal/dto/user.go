package dto

import (
	"time"

	"github.com/yukikurage/project-tracker-api/internal/models"
	"github.com/yukikurage/project-tracker-api/internal/services"
	"github.com/yukikurage/project-tracker-api/internal/utils"
)

// UserDTO represents a user in API responses
type UserDTO struct {
	ID        uint64    `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	CreatedAt time.Time `json:"created_at"`
}

// UserListResponse represents a paginated list of users
type UserListResponse struct {
	Users      []UserDTO                `json:"users"`
	Pagination utils.PaginationResponse `json:"pagination"`
}

// LoginResponse carries the bearer token issued at login
type LoginResponse struct {
	User      UserDTO `json:"user"`
	Token     string  `json:"token"`
	TokenType string  `json:"token_type"`
	ExpiresAt int64   `json:"expires_at"`
}

// ToUserDTO converts a User model to UserDTO
func ToUserDTO(user models.User) UserDTO {
	return UserDTO{
		ID:        user.ID,
		Username:  user.Username,
		Email:     user.Email,
		FirstName: user.FirstName,
		LastName:  user.LastName,
		CreatedAt: user.CreatedAt,
	}
}

// ToUserDTOs converts a slice of users
func ToUserDTOs(users []models.User) []UserDTO {
	dtos := make([]UserDTO, len(users))
	for i, u := range users {
		dtos[i] = ToUserDTO(u)
	}
	return dtos
}

// ToUserListResponse wraps a page of users with pagination metadata
func ToUserListResponse(users []models.User, params utils.PaginationParams, total int64) UserListResponse {
	return UserListResponse{
		Users:      ToUserDTOs(users),
		Pagination: utils.NewPaginationResponse(params, total),
	}
}

// ToLoginResponse converts a login or refresh result
func ToLoginResponse(result services.LoginResult) LoginResponse {
	return LoginResponse{
		User:      ToUserDTO(*result.User),
		Token:     result.Token,
		TokenType: "Bearer",
		ExpiresAt: result.ExpiresAt,
	}
}
