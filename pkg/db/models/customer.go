package models

import "time"

// Customer is an optional sale counterparty kept for credit tracking and
// purchase history.
type Customer struct {
	ID         uint      `gorm:"column:id;primaryKey;autoIncrement"`
	PharmacyID uint      `gorm:"column:pharmacy_id;not null;index"`
	Name       string    `gorm:"column:name;not null"`
	Phone      *string   `gorm:"column:phone;index"`
	Address    *string   `gorm:"column:address"`
	CreatedAt  time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
