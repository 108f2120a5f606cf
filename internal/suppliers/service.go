package suppliers

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/rxpos/pharmacare-backend/pkg/db/models"
	pkgerrors "github.com/rxpos/pharmacare-backend/pkg/errors"
)

// Service manages the pharmacy's supplier list.
type Service interface {
	Create(ctx context.Context, pharmacyID uint, req CreateSupplierRequest) (*SupplierDTO, error)
	Get(ctx context.Context, pharmacyID, id uint) (*SupplierDTO, error)
	List(ctx context.Context, pharmacyID uint) ([]SupplierDTO, error)
	Update(ctx context.Context, pharmacyID, id uint, req UpdateSupplierRequest) (*SupplierDTO, error)
	Delete(ctx context.Context, pharmacyID, id uint) error
}

type supplierRepository interface {
	Create(ctx context.Context, supplier *models.Supplier) (*models.Supplier, error)
	FindByID(ctx context.Context, pharmacyID, id uint) (*models.Supplier, error)
	List(ctx context.Context, pharmacyID uint) ([]models.Supplier, error)
	Update(ctx context.Context, pharmacyID, id uint, updates map[string]any) error
	Delete(ctx context.Context, pharmacyID, id uint) error
}

type service struct {
	repo supplierRepository
}

// ServiceParams bundles the dependencies required to build a suppliers service.
type ServiceParams struct {
	Repo supplierRepository
}

// NewService constructs the suppliers service.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("suppliers repository is required")
	}
	return &service{repo: params.Repo}, nil
}

func (s *service) Create(ctx context.Context, pharmacyID uint, req CreateSupplierRequest) (*SupplierDTO, error) {
	supplier := &models.Supplier{
		PharmacyID: pharmacyID,
		Name:       strings.TrimSpace(req.Name),
		Phone:      req.Phone,
		Email:      req.Email,
		Address:    req.Address,
	}
	if _, err := s.repo.Create(ctx, supplier); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create supplier")
	}
	return FromModel(supplier), nil
}

func (s *service) Get(ctx context.Context, pharmacyID, id uint) (*SupplierDTO, error) {
	supplier, err := s.repo.FindByID(ctx, pharmacyID, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "supplier not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load supplier")
	}
	return FromModel(supplier), nil
}

func (s *service) List(ctx context.Context, pharmacyID uint) ([]SupplierDTO, error) {
	rows, err := s.repo.List(ctx, pharmacyID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list suppliers")
	}
	out := make([]SupplierDTO, 0, len(rows))
	for i := range rows {
		out = append(out, *FromModel(&rows[i]))
	}
	return out, nil
}

func (s *service) Update(ctx context.Context, pharmacyID, id uint, req UpdateSupplierRequest) (*SupplierDTO, error) {
	updates := map[string]any{}
	if req.Name != nil {
		updates["name"] = strings.TrimSpace(*req.Name)
	}
	if req.Phone != nil {
		updates["phone"] = *req.Phone
	}
	if req.Email != nil {
		updates["email"] = *req.Email
	}
	if req.Address != nil {
		updates["address"] = *req.Address
	}
	if len(updates) == 0 {
		return s.Get(ctx, pharmacyID, id)
	}

	if err := s.repo.Update(ctx, pharmacyID, id, updates); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "supplier not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update supplier")
	}
	return s.Get(ctx, pharmacyID, id)
}

func (s *service) Delete(ctx context.Context, pharmacyID, id uint) error {
	if err := s.repo.Delete(ctx, pharmacyID, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "supplier not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete supplier")
	}
	return nil
}
