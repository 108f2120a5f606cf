package expenses

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/rxpos/pharmacare-backend/pkg/db/models"
	"github.com/rxpos/pharmacare-backend/pkg/enums"
	pkgerrors "github.com/rxpos/pharmacare-backend/pkg/errors"
)

// Service records operating expenses.
type Service interface {
	Create(ctx context.Context, pharmacyID, userID uint, req CreateExpenseRequest) (*ExpenseDTO, error)
	List(ctx context.Context, pharmacyID uint, filter ListFilter) ([]ExpenseDTO, error)
	Delete(ctx context.Context, pharmacyID, id uint) error
}

type expenseRepository interface {
	Create(ctx context.Context, expense *models.Expense) (*models.Expense, error)
	List(ctx context.Context, pharmacyID uint, filter ListFilter) ([]models.Expense, error)
	Delete(ctx context.Context, pharmacyID, id uint) error
}

type auditRecorder interface {
	Record(ctx context.Context, entry models.AuditLog) error
}

type service struct {
	repo  expenseRepository
	audit auditRecorder
	now   func() time.Time
}

// ServiceParams bundles the dependencies required to build an expenses service.
type ServiceParams struct {
	Repo  expenseRepository
	Audit auditRecorder
	Now   func() time.Time
}

// NewService constructs the expenses service.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("expenses repository is required")
	}
	now := params.Now
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	return &service{repo: params.Repo, audit: params.Audit, now: now}, nil
}

func (s *service) Create(ctx context.Context, pharmacyID, userID uint, req CreateExpenseRequest) (*ExpenseDTO, error) {
	if req.Amount.IsNegative() || req.Amount.IsZero() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "amount must be positive")
	}

	spentAt := s.now()
	if req.SpentAt != nil {
		spentAt = *req.SpentAt
	}
	expense := &models.Expense{
		PharmacyID: pharmacyID,
		UserID:     userID,
		Category:   req.Category,
		Amount:     req.Amount,
		Note:       req.Note,
		SpentAt:    spentAt,
	}
	if _, err := s.repo.Create(ctx, expense); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create expense")
	}

	if s.audit != nil {
		entityID := expense.ID
		_ = s.audit.Record(ctx, models.AuditLog{
			PharmacyID: &pharmacyID,
			UserID:     &userID,
			Action:     enums.AuditActionExpenseCreate,
			Entity:     "expense",
			EntityID:   &entityID,
		})
	}
	return FromModel(expense), nil
}

func (s *service) List(ctx context.Context, pharmacyID uint, filter ListFilter) ([]ExpenseDTO, error) {
	rows, err := s.repo.List(ctx, pharmacyID, filter)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list expenses")
	}
	out := make([]ExpenseDTO, 0, len(rows))
	for i := range rows {
		out = append(out, *FromModel(&rows[i]))
	}
	return out, nil
}

func (s *service) Delete(ctx context.Context, pharmacyID, id uint) error {
	if err := s.repo.Delete(ctx, pharmacyID, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "expense not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete expense")
	}
	return nil
}
