package auth

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/rxpos/pharmacare-backend/pkg/enums"
)

// AccessTokenPayload captures the data available when minting a JWT.
type AccessTokenPayload struct {
	UserID       uint
	Email        string
	Role         enums.UserRole
	PharmacyID   *uint
	TokenVersion int
}

// AccessTokenClaims is the typed JWT issued to clients. TokenVersion is
// compared by exact equality against the persisted counter on every request,
// which lets an administrator invalidate all outstanding tokens for a user
// by bumping the counter once.
type AccessTokenClaims struct {
	UserID       uint           `json:"user_id"`
	Email        string         `json:"email"`
	Role         enums.UserRole `json:"role"`
	PharmacyID   *uint          `json:"pharmacy_id,omitempty"`
	TokenVersion int            `json:"token_version"`
	jwt.RegisteredClaims
}
