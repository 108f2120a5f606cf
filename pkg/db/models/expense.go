package models

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/rxpos/pharmacare-backend/pkg/enums"
)

// Expense is an operating cost entry.
type Expense struct {
	ID         uint                  `gorm:"column:id;primaryKey;autoIncrement"`
	PharmacyID uint                  `gorm:"column:pharmacy_id;not null;index"`
	UserID     uint                  `gorm:"column:user_id;not null"`
	Category   enums.ExpenseCategory `gorm:"column:category;not null"`
	Amount     decimal.Decimal       `gorm:"column:amount;type:numeric(12,2);not null"`
	Note       *string               `gorm:"column:note"`
	SpentAt    time.Time             `gorm:"column:spent_at;not null"`
	CreatedAt  time.Time             `gorm:"column:created_at;autoCreateTime"`
}
