package expenses

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/rxpos/pharmacare-backend/pkg/db/models"
	"github.com/rxpos/pharmacare-backend/pkg/enums"
)

// ExpenseDTO is the transport shape of an expense entry.
type ExpenseDTO struct {
	ID        uint                  `json:"id"`
	UserID    uint                  `json:"userId"`
	Category  enums.ExpenseCategory `json:"category"`
	Amount    decimal.Decimal       `json:"amount"`
	Note      *string               `json:"note,omitempty"`
	SpentAt   time.Time             `json:"spentAt"`
	CreatedAt time.Time             `json:"createdAt"`
}

// CreateExpenseRequest records an operating cost.
type CreateExpenseRequest struct {
	Category enums.ExpenseCategory `json:"category" validate:"required,oneof=RENT UTILITIES SALARY PURCHASE MISC"`
	Amount   decimal.Decimal       `json:"amount"`
	Note     *string               `json:"note,omitempty"`
	SpentAt  *time.Time            `json:"spentAt,omitempty"`
}

// ListFilter narrows the expense listing.
type ListFilter struct {
	Category *enums.ExpenseCategory
	From     *time.Time
	To       *time.Time
	Limit    int
	Offset   int
}

func FromModel(e *models.Expense) *ExpenseDTO {
	if e == nil {
		return nil
	}
	return &ExpenseDTO{
		ID:        e.ID,
		UserID:    e.UserID,
		Category:  e.Category,
		Amount:    e.Amount,
		Note:      e.Note,
		SpentAt:   e.SpentAt,
		CreatedAt: e.CreatedAt,
	}
}
