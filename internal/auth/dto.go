package auth

import (
	"github.com/rxpos/pharmacare-backend/internal/users"
)

// LoginRequest captures the user credentials sent to the login endpoint.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse contains the token and user produced by a successful login.
type LoginResponse struct {
	AccessToken string         `json:"accessToken"`
	User        *users.UserDTO `json:"user"`
}

// ChangePasswordRequest carries the credential rotation payload.
type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"required,min=8"`
}

// ChangePasswordResponse returns a fresh token minted against the bumped
// token version, so the caller's own session survives the rotation.
type ChangePasswordResponse struct {
	AccessToken string `json:"accessToken"`
}
