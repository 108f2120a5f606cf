package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Pharmacy is the licensed tenant of an install. A single offline install
// carries exactly one row; the license fields always move together inside
// one transaction (activation, renewal, suspension).
type Pharmacy struct {
	ID               uint            `gorm:"column:id;primaryKey;autoIncrement"`
	Name             string          `gorm:"column:name;not null"`
	Address          *string         `gorm:"column:address"`
	Phone            *string         `gorm:"column:phone"`
	Email            *string         `gorm:"column:email"`
	LicenseNo        *string         `gorm:"column:license_no"`
	LicenseStartedAt *time.Time      `gorm:"column:license_started_at"`
	LicenseExpiresAt *time.Time      `gorm:"column:license_expires_at"`
	IsActive         bool            `gorm:"column:is_active;not null;default:false"`
	SubscriptionFee  decimal.Decimal `gorm:"column:subscription_fee;type:numeric(12,2);not null;default:0"`
	TotalPaid        decimal.Decimal `gorm:"column:total_paid;type:numeric(12,2);not null;default:0"`
	CreatedAt        time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

// LicenseKey returns the stored key text, empty when none is on record.
func (p *Pharmacy) LicenseKey() string {
	if p == nil || p.LicenseNo == nil {
		return ""
	}
	return *p.LicenseNo
}
