package dto

import (
	"time"

	"github.com/noah-isme/gradlink-api/internal/models"
)

// UserResponse is the serialized representation of an account.
type UserResponse struct {
	ID          uint                   `json:"id"`
	Name        string                 `json:"name"`
	Email       string                 `json:"email,omitempty"`
	Role        string                 `json:"role"`
	Bio         string                 `json:"bio"`
	University  string                 `json:"university,omitempty"`
	Company     string                 `json:"company,omitempty"`
	AvatarURL   string                 `json:"avatarUrl,omitempty"`
	SocialLinks map[string]interface{} `json:"socialLinks"`
	IsActive    bool                   `json:"isActive"`
	CreatedAt   time.Time              `json:"createdAt"`
}

// UserUpdateRequest captures profile edits. Nil fields are left untouched.
type UserUpdateRequest struct {
	Name        *string           `json:"name" validate:"omitempty,min=2,max=255"`
	Bio         *string           `json:"bio" validate:"omitempty,max=2000"`
	University  *string           `json:"university" validate:"omitempty,max=255"`
	Company     *string           `json:"company" validate:"omitempty,max=255"`
	SocialLinks map[string]string `json:"socialLinks" validate:"omitempty,max=10,dive,keys,required,max=32,endkeys,url"`
}

// UserListQuery filters the admin user listing.
type UserListQuery struct {
	Role     string `query:"role" validate:"omitempty,oneof=graduate investor admin"`
	Search   string `query:"search" validate:"omitempty,max=255"`
	Page     int    `query:"page" validate:"omitempty,min=1"`
	PageSize int    `query:"pageSize" validate:"omitempty,min=1,max=100"`
}

// UserActiveRequest toggles whether an account may sign in.
type UserActiveRequest struct {
	Active *bool `json:"active" validate:"required"`
}

// UserListResponse wraps a page of users.
type UserListResponse struct {
	Users      []UserResponse `json:"users"`
	Pagination PaginationMeta `json:"pagination"`
}

// NewUserResponse converts a user model into its DTO, including private fields.
func NewUserResponse(user models.User) UserResponse {
	links := map[string]interface{}{}
	for key, value := range user.SocialLinks {
		links[key] = value
	}

	return UserResponse{
		ID:          user.ID,
		Name:        user.Name,
		Email:       user.Email,
		Role:        user.Role,
		Bio:         user.Bio,
		University:  user.University,
		Company:     user.Company,
		AvatarURL:   user.AvatarURL,
		SocialLinks: links,
		IsActive:    user.IsActive,
		CreatedAt:   user.CreatedAt,
	}
}

// NewPublicUserResponse hides contact details for profiles viewed by other users.
func NewPublicUserResponse(user models.User) UserResponse {
	response := NewUserResponse(user)
	response.Email = ""
	return response
}

// NewUserResponseSlice converts users into DTOs.
func NewUserResponseSlice(users []models.User) []UserResponse {
	out := make([]UserResponse, 0, len(users))
	for _, user := range users {
		out = append(out, NewUserResponse(user))
	}
	return out
}
