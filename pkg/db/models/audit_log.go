package models

import (
	"time"

	"github.com/rxpos/pharmacare-backend/pkg/enums"
)

// AuditLog is an append-only trail of operator and staff actions. Rows are
// never updated or deleted.
type AuditLog struct {
	ID         uint              `gorm:"column:id;primaryKey;autoIncrement"`
	PharmacyID *uint             `gorm:"column:pharmacy_id;index"`
	UserID     *uint             `gorm:"column:user_id"`
	Action     enums.AuditAction `gorm:"column:action;not null;index"`
	Entity     string            `gorm:"column:entity;not null"`
	EntityID   *uint             `gorm:"column:entity_id"`
	Details    *string           `gorm:"column:details"`
	CreatedAt  time.Time         `gorm:"column:created_at;autoCreateTime"`
}
