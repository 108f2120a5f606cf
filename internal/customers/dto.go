package customers

import (
	"time"

	"github.com/rxpos/pharmacare-backend/pkg/db/models"
)

// CustomerDTO is the transport shape of a customer.
type CustomerDTO struct {
	ID        uint      `json:"id"`
	Name      string    `json:"name"`
	Phone     *string   `json:"phone,omitempty"`
	Address   *string   `json:"address,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// CreateCustomerRequest adds a customer to the pharmacy's book.
type CreateCustomerRequest struct {
	Name    string  `json:"name" validate:"required"`
	Phone   *string `json:"phone,omitempty"`
	Address *string `json:"address,omitempty"`
}

// UpdateCustomerRequest carries partial edits. Nil fields are left untouched.
type UpdateCustomerRequest struct {
	Name    *string `json:"name,omitempty"`
	Phone   *string `json:"phone,omitempty"`
	Address *string `json:"address,omitempty"`
}

// ListFilter narrows the customer listing.
type ListFilter struct {
	Search string
	Limit  int
	Offset int
}

func FromModel(c *models.Customer) *CustomerDTO {
	if c == nil {
		return nil
	}
	return &CustomerDTO{
		ID:        c.ID,
		Name:      c.Name,
		Phone:     c.Phone,
		Address:   c.Address,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
}
