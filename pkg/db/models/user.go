package models

import (
	"time"

	"github.com/rxpos/pharmacare-backend/pkg/enums"
)

// User represents the canonical identity entity. TokenVersion is a
// monotonically incrementing counter bumped whenever credentials change;
// tokens minted before the bump stop validating.
type User struct {
	ID           uint           `gorm:"column:id;primaryKey;autoIncrement"`
	Email        string         `gorm:"column:email;not null;uniqueIndex"`
	PasswordHash string         `gorm:"column:password_hash;not null"`
	FullName     string         `gorm:"column:full_name;not null"`
	Role         enums.UserRole `gorm:"column:role;not null"`
	PharmacyID   *uint          `gorm:"column:pharmacy_id"`
	TokenVersion int            `gorm:"column:token_version;not null;default:0"`
	LastLoginAt  *time.Time     `gorm:"column:last_login_at"`
	CreatedAt    time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time      `gorm:"column:updated_at;autoUpdateTime"`
}

// IsSuperAdmin reports whether the user is an operator exempt from tenant
// licensing.
func (u *User) IsSuperAdmin() bool {
	return u != nil && u.Role == enums.UserRoleSuperAdmin
}
