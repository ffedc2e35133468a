package dto

import "time"

// RegisterRequest is the payload for password sign-up.
type RegisterRequest struct {
	Name     string `json:"name" validate:"required,min=2,max=255"`
	Email    string `json:"email" validate:"required,email,max=255"`
	Password string `json:"password" validate:"required,min=8,max=72"`
	Role     string `json:"role" validate:"required,oneof=graduate investor"`
}

// LoginRequest is the payload for password sign-in.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// GoogleLoginRequest exchanges an OAuth authorization code for a session.
type GoogleLoginRequest struct {
	Code  string `json:"code" validate:"required"`
	State string `json:"state" validate:"omitempty,max=128"`
	Role  string `json:"role" validate:"omitempty,oneof=graduate investor"`
}

// GoogleURLResponse carries the consent screen URL.
type GoogleURLResponse struct {
	URL   string `json:"url"`
	State string `json:"state"`
}

// AuthResponse is returned after a successful sign-in.
type AuthResponse struct {
	User      UserResponse `json:"user"`
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expiresAt"`
}
