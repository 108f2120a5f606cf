package sales

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/rxpos/pharmacare-backend/pkg/db/models"
	"github.com/rxpos/pharmacare-backend/pkg/enums"
)

// SaleDTO is the transport shape of a completed sale.
type SaleDTO struct {
	ID            uint                `json:"id"`
	InvoiceNo     string              `json:"invoiceNo"`
	UserID        uint                `json:"userId"`
	CustomerID    *uint               `json:"customerId,omitempty"`
	PaymentMethod enums.PaymentMethod `json:"paymentMethod"`
	Subtotal      decimal.Decimal     `json:"subtotal"`
	Discount      decimal.Decimal     `json:"discount"`
	Total         decimal.Decimal     `json:"total"`
	Items         []SaleItemDTO       `json:"items"`
	CreatedAt     time.Time           `json:"createdAt"`
}

// SaleItemDTO is a single line of a sale.
type SaleItemDTO struct {
	ID         uint            `json:"id"`
	MedicineID uint            `json:"medicineId"`
	BatchID    uint            `json:"batchId"`
	Quantity   int             `json:"quantity"`
	UnitPrice  decimal.Decimal `json:"unitPrice"`
	LineTotal  decimal.Decimal `json:"lineTotal"`
}

// CreateSaleRequest is a counter transaction: each item names the batch the
// stock comes out of.
type CreateSaleRequest struct {
	CustomerID    *uint               `json:"customerId,omitempty"`
	PaymentMethod enums.PaymentMethod `json:"paymentMethod" validate:"required,oneof=CASH CARD MOBILE CREDIT"`
	Discount      decimal.Decimal     `json:"discount"`
	Items         []CreateSaleItem    `json:"items" validate:"required,min=1,dive"`
}

// CreateSaleItem is one requested line.
type CreateSaleItem struct {
	BatchID  uint `json:"batchId" validate:"required"`
	Quantity int  `json:"quantity" validate:"gt=0"`
}

// ListFilter narrows the sales listing.
type ListFilter struct {
	From   *time.Time
	To     *time.Time
	UserID *uint
	Limit  int
	Offset int
}

func FromModel(s *models.Sale) *SaleDTO {
	if s == nil {
		return nil
	}
	dto := &SaleDTO{
		ID:            s.ID,
		InvoiceNo:     s.InvoiceNo,
		UserID:        s.UserID,
		CustomerID:    s.CustomerID,
		PaymentMethod: s.PaymentMethod,
		Subtotal:      s.Subtotal,
		Discount:      s.Discount,
		Total:         s.Total,
		CreatedAt:     s.CreatedAt,
	}
	for i := range s.Items {
		item := s.Items[i]
		dto.Items = append(dto.Items, SaleItemDTO{
			ID:         item.ID,
			MedicineID: item.MedicineID,
			BatchID:    item.BatchID,
			Quantity:   item.Quantity,
			UnitPrice:  item.UnitPrice,
			LineTotal:  item.LineTotal,
		})
	}
	return dto
}
