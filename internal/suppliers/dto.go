package suppliers

import (
	"time"

	"github.com/rxpos/pharmacare-backend/pkg/db/models"
)

// SupplierDTO is the transport shape of a supplier.
type SupplierDTO struct {
	ID        uint      `json:"id"`
	Name      string    `json:"name"`
	Phone     *string   `json:"phone,omitempty"`
	Email     *string   `json:"email,omitempty"`
	Address   *string   `json:"address,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// CreateSupplierRequest adds a supplier.
type CreateSupplierRequest struct {
	Name    string  `json:"name" validate:"required"`
	Phone   *string `json:"phone,omitempty"`
	Email   *string `json:"email,omitempty" validate:"omitempty,email"`
	Address *string `json:"address,omitempty"`
}

// UpdateSupplierRequest carries partial edits. Nil fields are left untouched.
type UpdateSupplierRequest struct {
	Name    *string `json:"name,omitempty"`
	Phone   *string `json:"phone,omitempty"`
	Email   *string `json:"email,omitempty" validate:"omitempty,email"`
	Address *string `json:"address,omitempty"`
}

func FromModel(s *models.Supplier) *SupplierDTO {
	if s == nil {
		return nil
	}
	return &SupplierDTO{
		ID:        s.ID,
		Name:      s.Name,
		Phone:     s.Phone,
		Email:     s.Email,
		Address:   s.Address,
		CreatedAt: s.CreatedAt,
		UpdatedAt: s.UpdatedAt,
	}
}
