package customers

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/rxpos/pharmacare-backend/pkg/db/models"
	pkgerrors "github.com/rxpos/pharmacare-backend/pkg/errors"
)

// Service manages the pharmacy's customer book.
type Service interface {
	Create(ctx context.Context, pharmacyID uint, req CreateCustomerRequest) (*CustomerDTO, error)
	Get(ctx context.Context, pharmacyID, id uint) (*CustomerDTO, error)
	List(ctx context.Context, pharmacyID uint, filter ListFilter) ([]CustomerDTO, error)
	Update(ctx context.Context, pharmacyID, id uint, req UpdateCustomerRequest) (*CustomerDTO, error)
	Delete(ctx context.Context, pharmacyID, id uint) error
}

type customerRepository interface {
	Create(ctx context.Context, customer *models.Customer) (*models.Customer, error)
	FindByID(ctx context.Context, pharmacyID, id uint) (*models.Customer, error)
	List(ctx context.Context, pharmacyID uint, filter ListFilter) ([]models.Customer, error)
	Update(ctx context.Context, pharmacyID, id uint, updates map[string]any) error
	Delete(ctx context.Context, pharmacyID, id uint) error
}

type service struct {
	repo customerRepository
}

// ServiceParams bundles the dependencies required to build a customers service.
type ServiceParams struct {
	Repo customerRepository
}

// NewService constructs the customers service.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("customers repository is required")
	}
	return &service{repo: params.Repo}, nil
}

func (s *service) Create(ctx context.Context, pharmacyID uint, req CreateCustomerRequest) (*CustomerDTO, error) {
	customer := &models.Customer{
		PharmacyID: pharmacyID,
		Name:       strings.TrimSpace(req.Name),
		Phone:      req.Phone,
		Address:    req.Address,
	}
	if _, err := s.repo.Create(ctx, customer); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create customer")
	}
	return FromModel(customer), nil
}

func (s *service) Get(ctx context.Context, pharmacyID, id uint) (*CustomerDTO, error) {
	customer, err := s.repo.FindByID(ctx, pharmacyID, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "customer not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load customer")
	}
	return FromModel(customer), nil
}

func (s *service) List(ctx context.Context, pharmacyID uint, filter ListFilter) ([]CustomerDTO, error) {
	rows, err := s.repo.List(ctx, pharmacyID, filter)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list customers")
	}
	out := make([]CustomerDTO, 0, len(rows))
	for i := range rows {
		out = append(out, *FromModel(&rows[i]))
	}
	return out, nil
}

func (s *service) Update(ctx context.Context, pharmacyID, id uint, req UpdateCustomerRequest) (*CustomerDTO, error) {
	updates := map[string]any{}
	if req.Name != nil {
		updates["name"] = strings.TrimSpace(*req.Name)
	}
	if req.Phone != nil {
		updates["phone"] = *req.Phone
	}
	if req.Address != nil {
		updates["address"] = *req.Address
	}
	if len(updates) == 0 {
		return s.Get(ctx, pharmacyID, id)
	}

	if err := s.repo.Update(ctx, pharmacyID, id, updates); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "customer not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update customer")
	}
	return s.Get(ctx, pharmacyID, id)
}

func (s *service) Delete(ctx context.Context, pharmacyID, id uint) error {
	if err := s.repo.Delete(ctx, pharmacyID, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "customer not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete customer")
	}
	return nil
}
