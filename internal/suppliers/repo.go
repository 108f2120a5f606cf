package suppliers

import (
	"context"

	"gorm.io/gorm"

	"github.com/rxpos/pharmacare-backend/pkg/db/models"
)

// Repository persists suppliers scoped by pharmacy.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a suppliers repo bound to the provided GORM DB.
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

// Create inserts a supplier row.
func (r *Repository) Create(ctx context.Context, supplier *models.Supplier) (*models.Supplier, error) {
	if err := r.db.WithContext(ctx).Create(supplier).Error; err != nil {
		return nil, err
	}
	return supplier, nil
}

// FindByID loads a supplier, scoped by pharmacy.
func (r *Repository) FindByID(ctx context.Context, pharmacyID, id uint) (*models.Supplier, error) {
	var supplier models.Supplier
	err := r.db.WithContext(ctx).
		Where("pharmacy_id = ?", pharmacyID).
		First(&supplier, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &supplier, nil
}

// List returns the pharmacy's suppliers by name.
func (r *Repository) List(ctx context.Context, pharmacyID uint) ([]models.Supplier, error) {
	var rows []models.Supplier
	err := r.db.WithContext(ctx).
		Where("pharmacy_id = ?", pharmacyID).
		Order("name ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// Update writes the provided columns, scoped by pharmacy.
func (r *Repository) Update(ctx context.Context, pharmacyID, id uint, updates map[string]any) error {
	res := r.db.WithContext(ctx).
		Model(&models.Supplier{}).
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

// Delete removes a supplier, scoped by pharmacy.
func (r *Repository) Delete(ctx context.Context, pharmacyID, id uint) error {
	res := r.db.WithContext(ctx).
		Where("id = ? AND pharmacy_id = ?", id, pharmacyID).
		Delete(&models.Supplier{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
