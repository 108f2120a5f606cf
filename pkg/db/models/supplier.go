package models

import "time"

// Supplier is a wholesale source of stock.
type Supplier struct {
	ID         uint      `gorm:"column:id;primaryKey;autoIncrement"`
	PharmacyID uint      `gorm:"column:pharmacy_id;not null;index"`
	Name       string    `gorm:"column:name;not null"`
	Phone      *string   `gorm:"column:phone"`
	Email      *string   `gorm:"column:email"`
	Address    *string   `gorm:"column:address"`
	CreatedAt  time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
