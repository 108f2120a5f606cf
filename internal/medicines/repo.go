package medicines

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/rxpos/pharmacare-backend/pkg/db/models"
	"github.com/rxpos/pharmacare-backend/pkg/pagination"
)

// Repository exposes catalog and stock persistence scoped by pharmacy.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a medicines repo bound to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx rebinds the repository to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

// Create inserts a medicine row.
func (r *Repository) Create(ctx context.Context, medicine *models.Medicine) (*models.Medicine, error) {
	if err := r.db.WithContext(ctx).Create(medicine).Error; err != nil {
		return nil, err
	}
	return medicine, nil
}

// FindByID loads a medicine with its batches, scoped by pharmacy.
func (r *Repository) FindByID(ctx context.Context, pharmacyID, id uint) (*models.Medicine, error) {
	var medicine models.Medicine
	err := r.db.WithContext(ctx).
		Preload("Batches").
		Where("pharmacy_id = ?", pharmacyID).
		First(&medicine, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &medicine, nil
}

// List returns the pharmacy's catalog with batches, narrowed by the filter.
func (r *Repository) List(ctx context.Context, pharmacyID uint, filter ListFilter) ([]models.Medicine, error) {
	q := r.db.WithContext(ctx).
		Preload("Batches").
		Where("pharmacy_id = ?", pharmacyID).
		Order("name ASC")
	if filter.Search != "" {
		like := "%" + filter.Search + "%"
		q = q.Where("name LIKE ? OR generic_name LIKE ?", like, like)
	}
	if filter.Category != nil {
		q = q.Where("category = ?", *filter.Category)
	}
	q = q.Limit(pagination.NormalizeLimit(filter.Limit))
	if filter.Offset > 0 {
		q = q.Offset(filter.Offset)
	}

	var rows []models.Medicine
	if err := q.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// Update writes the provided columns on a medicine, scoped by pharmacy.
func (r *Repository) Update(ctx context.Context, pharmacyID, id uint, updates map[string]any) error {
	res := r.db.WithContext(ctx).
		Model(&models.Medicine{}).
		Where("id = ? AND pharmacy_id = ?", id, pharmacyID).
		Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// Delete removes a medicine and, via FK cascade, its batches.
func (r *Repository) Delete(ctx context.Context, pharmacyID, id uint) error {
	res := r.db.WithContext(ctx).
		Where("id = ? AND pharmacy_id = ?", id, pharmacyID).
		Delete(&models.Medicine{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// CreateBatch inserts a stock lot.
func (r *Repository) CreateBatch(ctx context.Context, batch *models.Batch) (*models.Batch, error) {
	if err := r.db.WithContext(ctx).Create(batch).Error; err != nil {
		return nil, err
	}
	return batch, nil
}

// LowStock returns medicines whose summed batch quantity is at or below
// their reorder level.
func (r *Repository) LowStock(ctx context.Context, pharmacyID uint) ([]models.Medicine, error) {
	var rows []models.Medicine
	err := r.db.WithContext(ctx).
		Preload("Batches").
		Where("pharmacy_id = ?", pharmacyID).
		Where("reorder_level >= (SELECT COALESCE(SUM(quantity), 0) FROM batches WHERE batches.medicine_id = medicines.id)").
		Order("name ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// ExpiringBatches returns batches with stock that expire before the cutoff.
func (r *Repository) ExpiringBatches(ctx context.Context, pharmacyID uint, before time.Time) ([]models.Batch, error) {
	var rows []models.Batch
	err := r.db.WithContext(ctx).
		Joins("JOIN medicines ON medicines.id = batches.medicine_id").
		Where("medicines.pharmacy_id = ?", pharmacyID).
		Where("batches.quantity > 0 AND batches.expiry_date < ?", before).
		Order("batches.expiry_date ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}
