package users

import (
	"time"

	"github.com/rxpos/pharmacare-backend/pkg/db/models"
	"github.com/rxpos/pharmacare-backend/pkg/enums"
)

// UserDTO is the transport shape that omits sensitive credentials.
type UserDTO struct {
	ID          uint           `json:"id"`
	Email       string         `json:"email"`
	FullName    string         `json:"fullName"`
	Role        enums.UserRole `json:"role"`
	PharmacyID  *uint          `json:"pharmacyId,omitempty"`
	LastLoginAt *time.Time     `json:"lastLoginAt,omitempty"`
	CreatedAt   time.Time      `json:"createdAt"`
	UpdatedAt   time.Time      `json:"updatedAt"`
}

// CreateUserDTO holds the data required by the repo to persist a new user.
type CreateUserDTO struct {
	Email        string
	PasswordHash string
	FullName     string
	Role         enums.UserRole
	PharmacyID   *uint
}

func FromModel(u *models.User) *UserDTO {
	if u == nil {
		return nil
	}

	return &UserDTO{
		ID:          u.ID,
		Email:       u.Email,
		FullName:    u.FullName,
		Role:        u.Role,
		PharmacyID:  u.PharmacyID,
		LastLoginAt: u.LastLoginAt,
		CreatedAt:   u.CreatedAt,
		UpdatedAt:   u.UpdatedAt,
	}
}

func (c CreateUserDTO) ToModel() *models.User {
	return &models.User{
		Email:        c.Email,
		PasswordHash: c.PasswordHash,
		FullName:     c.FullName,
		Role:         c.Role,
		PharmacyID:   c.PharmacyID,
	}
}
