package models

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/rxpos/pharmacare-backend/pkg/enums"
)

// Sale is a counter transaction. Items deduct stock from specific batches
// inside the same transaction that creates the sale.
type Sale struct {
	ID            uint                `gorm:"column:id;primaryKey;autoIncrement"`
	PharmacyID    uint                `gorm:"column:pharmacy_id;not null;index"`
	InvoiceNo     string              `gorm:"column:invoice_no;not null;uniqueIndex"`
	UserID        uint                `gorm:"column:user_id;not null"`
	CustomerID    *uint               `gorm:"column:customer_id"`
	PaymentMethod enums.PaymentMethod `gorm:"column:payment_method;not null"`
	Subtotal      decimal.Decimal     `gorm:"column:subtotal;type:numeric(12,2);not null;default:0"`
	Discount      decimal.Decimal     `gorm:"column:discount;type:numeric(12,2);not null;default:0"`
	Total         decimal.Decimal     `gorm:"column:total;type:numeric(12,2);not null;default:0"`
	Items         []SaleItem          `gorm:"foreignKey:SaleID;constraint:OnDelete:CASCADE"`
	CreatedAt     time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}

// SaleItem is a single line of a sale, tied to the batch it drew stock from.
type SaleItem struct {
	ID         uint            `gorm:"column:id;primaryKey;autoIncrement"`
	SaleID     uint            `gorm:"column:sale_id;not null;index"`
	MedicineID uint            `gorm:"column:medicine_id;not null"`
	BatchID    uint            `gorm:"column:batch_id;not null"`
	Quantity   int             `gorm:"column:quantity;not null"`
	UnitPrice  decimal.Decimal `gorm:"column:unit_price;type:numeric(12,2);not null"`
	LineTotal  decimal.Decimal `gorm:"column:line_total;type:numeric(12,2);not null"`
	CreatedAt  time.Time       `gorm:"column:created_at;autoCreateTime"`
}
