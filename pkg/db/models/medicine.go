package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Medicine is a stocked product. Quantities live on batches; the medicine
// row carries pricing defaults and reorder metadata.
type Medicine struct {
	ID           uint            `gorm:"column:id;primaryKey;autoIncrement"`
	PharmacyID   uint            `gorm:"column:pharmacy_id;not null;index"`
	Name         string          `gorm:"column:name;not null;index"`
	GenericName  *string         `gorm:"column:generic_name"`
	Manufacturer *string         `gorm:"column:manufacturer"`
	Category     *string         `gorm:"column:category"`
	Strength     *string         `gorm:"column:strength"`
	UnitPrice    decimal.Decimal `gorm:"column:unit_price;type:numeric(12,2);not null;default:0"`
	ReorderLevel int             `gorm:"column:reorder_level;not null;default:10"`
	SupplierID   *uint           `gorm:"column:supplier_id"`
	Batches      []Batch         `gorm:"foreignKey:MedicineID;constraint:OnDelete:CASCADE"`
	CreatedAt    time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

// Batch is a dated stock lot of a medicine.
type Batch struct {
	ID            uint            `gorm:"column:id;primaryKey;autoIncrement"`
	MedicineID    uint            `gorm:"column:medicine_id;not null;index"`
	BatchNo       string          `gorm:"column:batch_no;not null"`
	ExpiryDate    time.Time       `gorm:"column:expiry_date;not null;index"`
	Quantity      int             `gorm:"column:quantity;not null;default:0"`
	PurchasePrice decimal.Decimal `gorm:"column:purchase_price;type:numeric(12,2);not null;default:0"`
	SellingPrice  decimal.Decimal `gorm:"column:selling_price;type:numeric(12,2);not null;default:0"`
	CreatedAt     time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

// Expired reports whether the batch expiry has passed at the given time.
func (b Batch) Expired(now time.Time) bool {
	return b.ExpiryDate.Before(now)
}
