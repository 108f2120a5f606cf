package medicines

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/rxpos/pharmacare-backend/pkg/db/models"
	"github.com/rxpos/pharmacare-backend/pkg/enums"
	pkgerrors "github.com/rxpos/pharmacare-backend/pkg/errors"
)

// Service manages the medicine catalog and batch stock for one pharmacy per
// call. Every operation is scoped by the caller's pharmacy id.
type Service interface {
	Create(ctx context.Context, pharmacyID, userID uint, req CreateMedicineRequest) (*MedicineDTO, error)
	Get(ctx context.Context, pharmacyID, id uint) (*MedicineDTO, error)
	List(ctx context.Context, pharmacyID uint, filter ListFilter) ([]MedicineDTO, error)
	Update(ctx context.Context, pharmacyID, userID, id uint, req UpdateMedicineRequest) (*MedicineDTO, error)
	Delete(ctx context.Context, pharmacyID, userID, id uint) error
	ReceiveBatch(ctx context.Context, pharmacyID, userID, medicineID uint, req ReceiveBatchRequest) (*BatchDTO, error)
	LowStock(ctx context.Context, pharmacyID uint) ([]MedicineDTO, error)
	ExpiringBatches(ctx context.Context, pharmacyID uint, withinDays int) ([]BatchDTO, error)
}

type medicineRepository interface {
	Create(ctx context.Context, medicine *models.Medicine) (*models.Medicine, error)
	FindByID(ctx context.Context, pharmacyID, id uint) (*models.Medicine, error)
	List(ctx context.Context, pharmacyID uint, filter ListFilter) ([]models.Medicine, error)
	Update(ctx context.Context, pharmacyID, id uint, updates map[string]any) error
	Delete(ctx context.Context, pharmacyID, id uint) error
	CreateBatch(ctx context.Context, batch *models.Batch) (*models.Batch, error)
	LowStock(ctx context.Context, pharmacyID uint) ([]models.Medicine, error)
	ExpiringBatches(ctx context.Context, pharmacyID uint, before time.Time) ([]models.Batch, error)
}

type auditRecorder interface {
	Record(ctx context.Context, entry models.AuditLog) error
}

type service struct {
	repo  medicineRepository
	audit auditRecorder
	now   func() time.Time
}

// ServiceParams bundles the dependencies required to build a medicines service.
type ServiceParams struct {
	Repo  medicineRepository
	Audit auditRecorder
	Now   func() time.Time
}

// NewService constructs the medicines service.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("medicines repository is required")
	}
	now := params.Now
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	return &service{repo: params.Repo, audit: params.Audit, now: now}, nil
}

func (s *service) Create(ctx context.Context, pharmacyID, userID uint, req CreateMedicineRequest) (*MedicineDTO, error) {
	medicine := &models.Medicine{
		PharmacyID:   pharmacyID,
		Name:         strings.TrimSpace(req.Name),
		GenericName:  req.GenericName,
		Manufacturer: req.Manufacturer,
		Category:     req.Category,
		Strength:     req.Strength,
		UnitPrice:    req.UnitPrice,
		ReorderLevel: req.ReorderLevel,
		SupplierID:   req.SupplierID,
	}
	if _, err := s.repo.Create(ctx, medicine); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create medicine")
	}

	s.recordAudit(ctx, pharmacyID, userID, enums.AuditActionMedicineCreate, medicine.ID, medicine.Name)
	return FromModel(medicine), nil
}

func (s *service) Get(ctx context.Context, pharmacyID, id uint) (*MedicineDTO, error) {
	medicine, err := s.loadMedicine(ctx, pharmacyID, id)
	if err != nil {
		return nil, err
	}
	return FromModel(medicine), nil
}

func (s *service) List(ctx context.Context, pharmacyID uint, filter ListFilter) ([]MedicineDTO, error) {
	rows, err := s.repo.List(ctx, pharmacyID, filter)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list medicines")
	}
	return toDTOs(rows), nil
}

func (s *service) Update(ctx context.Context, pharmacyID, userID, id uint, req UpdateMedicineRequest) (*MedicineDTO, error) {
	updates := map[string]any{}
	if req.Name != nil {
		updates["name"] = strings.TrimSpace(*req.Name)
	}
	if req.GenericName != nil {
		updates["generic_name"] = *req.GenericName
	}
	if req.Manufacturer != nil {
		updates["manufacturer"] = *req.Manufacturer
	}
	if req.Category != nil {
		updates["category"] = *req.Category
	}
	if req.Strength != nil {
		updates["strength"] = *req.Strength
	}
	if req.UnitPrice != nil {
		updates["unit_price"] = *req.UnitPrice
	}
	if req.ReorderLevel != nil {
		updates["reorder_level"] = *req.ReorderLevel
	}
	if req.SupplierID != nil {
		updates["supplier_id"] = *req.SupplierID
	}
	if len(updates) == 0 {
		return s.Get(ctx, pharmacyID, id)
	}

	if err := s.repo.Update(ctx, pharmacyID, id, updates); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "medicine not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update medicine")
	}

	s.recordAudit(ctx, pharmacyID, userID, enums.AuditActionMedicineUpdate, id, "")
	return s.Get(ctx, pharmacyID, id)
}

func (s *service) Delete(ctx context.Context, pharmacyID, userID, id uint) error {
	if err := s.repo.Delete(ctx, pharmacyID, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "medicine not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete medicine")
	}
	s.recordAudit(ctx, pharmacyID, userID, enums.AuditActionMedicineDelete, id, "")
	return nil
}

// ReceiveBatch records an incoming stock lot against a medicine the caller's
// pharmacy owns.
func (s *service) ReceiveBatch(ctx context.Context, pharmacyID, userID, medicineID uint, req ReceiveBatchRequest) (*BatchDTO, error) {
	if _, err := s.loadMedicine(ctx, pharmacyID, medicineID); err != nil {
		return nil, err
	}

	batch := &models.Batch{
		MedicineID:    medicineID,
		BatchNo:       strings.TrimSpace(req.BatchNo),
		ExpiryDate:    req.ExpiryDate,
		Quantity:      req.Quantity,
		PurchasePrice: req.PurchasePrice,
		SellingPrice:  req.SellingPrice,
	}
	if _, err := s.repo.CreateBatch(ctx, batch); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create batch")
	}

	s.recordAudit(ctx, pharmacyID, userID, enums.AuditActionBatchReceive, medicineID, batch.BatchNo)
	dto := BatchFromModel(batch)
	return &dto, nil
}

func (s *service) LowStock(ctx context.Context, pharmacyID uint) ([]MedicineDTO, error) {
	rows, err := s.repo.LowStock(ctx, pharmacyID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list low stock")
	}
	return toDTOs(rows), nil
}

func (s *service) ExpiringBatches(ctx context.Context, pharmacyID uint, withinDays int) ([]BatchDTO, error) {
	if withinDays <= 0 {
		withinDays = 30
	}
	cutoff := s.now().AddDate(0, 0, withinDays)
	rows, err := s.repo.ExpiringBatches(ctx, pharmacyID, cutoff)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list expiring batches")
	}
	out := make([]BatchDTO, 0, len(rows))
	for i := range rows {
		out = append(out, BatchFromModel(&rows[i]))
	}
	return out, nil
}

func (s *service) loadMedicine(ctx context.Context, pharmacyID, id uint) (*models.Medicine, error) {
	medicine, err := s.repo.FindByID(ctx, pharmacyID, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "medicine not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load medicine")
	}
	return medicine, nil
}

func (s *service) recordAudit(ctx context.Context, pharmacyID, userID uint, action enums.AuditAction, entityID uint, details string) {
	if s.audit == nil {
		return
	}
	entry := models.AuditLog{
		PharmacyID: &pharmacyID,
		UserID:     &userID,
		Action:     action,
		Entity:     "medicine",
		EntityID:   &entityID,
	}
	if details != "" {
		entry.Details = &details
	}
	_ = s.audit.Record(ctx, entry)
}

func toDTOs(rows []models.Medicine) []MedicineDTO {
	out := make([]MedicineDTO, 0, len(rows))
	for i := range rows {
		out = append(out, *FromModel(&rows[i]))
	}
	return out
}
