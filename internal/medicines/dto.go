package medicines

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/rxpos/pharmacare-backend/pkg/db/models"
)

// MedicineDTO is the transport shape of a medicine with its aggregate stock.
type MedicineDTO struct {
	ID           uint            `json:"id"`
	Name         string          `json:"name"`
	GenericName  *string         `json:"genericName,omitempty"`
	Manufacturer *string         `json:"manufacturer,omitempty"`
	Category     *string         `json:"category,omitempty"`
	Strength     *string         `json:"strength,omitempty"`
	UnitPrice    decimal.Decimal `json:"unitPrice"`
	ReorderLevel int             `json:"reorderLevel"`
	SupplierID   *uint           `json:"supplierId,omitempty"`
	TotalStock   int             `json:"totalStock"`
	Batches      []BatchDTO      `json:"batches,omitempty"`
	CreatedAt    time.Time       `json:"createdAt"`
	UpdatedAt    time.Time       `json:"updatedAt"`
}

// BatchDTO is the transport shape of a stock lot.
type BatchDTO struct {
	ID            uint            `json:"id"`
	MedicineID    uint            `json:"medicineId"`
	BatchNo       string          `json:"batchNo"`
	ExpiryDate    time.Time       `json:"expiryDate"`
	Quantity      int             `json:"quantity"`
	PurchasePrice decimal.Decimal `json:"purchasePrice"`
	SellingPrice  decimal.Decimal `json:"sellingPrice"`
}

// CreateMedicineRequest is the payload for adding a medicine to the catalog.
type CreateMedicineRequest struct {
	Name         string          `json:"name" validate:"required"`
	GenericName  *string         `json:"genericName,omitempty"`
	Manufacturer *string         `json:"manufacturer,omitempty"`
	Category     *string         `json:"category,omitempty"`
	Strength     *string         `json:"strength,omitempty"`
	UnitPrice    decimal.Decimal `json:"unitPrice"`
	ReorderLevel int             `json:"reorderLevel" validate:"gte=0"`
	SupplierID   *uint           `json:"supplierId,omitempty"`
}

// UpdateMedicineRequest carries partial catalog edits. Nil fields are left
// untouched.
type UpdateMedicineRequest struct {
	Name         *string          `json:"name,omitempty"`
	GenericName  *string          `json:"genericName,omitempty"`
	Manufacturer *string          `json:"manufacturer,omitempty"`
	Category     *string          `json:"category,omitempty"`
	Strength     *string          `json:"strength,omitempty"`
	UnitPrice    *decimal.Decimal `json:"unitPrice,omitempty"`
	ReorderLevel *int             `json:"reorderLevel,omitempty" validate:"omitempty,gte=0"`
	SupplierID   *uint            `json:"supplierId,omitempty"`
}

// ReceiveBatchRequest records an incoming stock lot.
type ReceiveBatchRequest struct {
	BatchNo       string          `json:"batchNo" validate:"required"`
	ExpiryDate    time.Time       `json:"expiryDate" validate:"required"`
	Quantity      int             `json:"quantity" validate:"gt=0"`
	PurchasePrice decimal.Decimal `json:"purchasePrice"`
	SellingPrice  decimal.Decimal `json:"sellingPrice"`
}

// ListFilter narrows the catalog listing.
type ListFilter struct {
	Search   string
	Category *string
	Limit    int
	Offset   int
}

func FromModel(m *models.Medicine) *MedicineDTO {
	if m == nil {
		return nil
	}
	dto := &MedicineDTO{
		ID:           m.ID,
		Name:         m.Name,
		GenericName:  m.GenericName,
		Manufacturer: m.Manufacturer,
		Category:     m.Category,
		Strength:     m.Strength,
		UnitPrice:    m.UnitPrice,
		ReorderLevel: m.ReorderLevel,
		SupplierID:   m.SupplierID,
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
	for i := range m.Batches {
		dto.TotalStock += m.Batches[i].Quantity
		dto.Batches = append(dto.Batches, BatchFromModel(&m.Batches[i]))
	}
	return dto
}

func BatchFromModel(b *models.Batch) BatchDTO {
	return BatchDTO{
		ID:            b.ID,
		MedicineID:    b.MedicineID,
		BatchNo:       b.BatchNo,
		ExpiryDate:    b.ExpiryDate,
		Quantity:      b.Quantity,
		PurchasePrice: b.PurchasePrice,
		SellingPrice:  b.SellingPrice,
	}
}
