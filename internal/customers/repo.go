package customers

import (
	"context"

	"gorm.io/gorm"

	"github.com/rxpos/pharmacare-backend/pkg/db/models"
	"github.com/rxpos/pharmacare-backend/pkg/pagination"
)

// Repository persists customers scoped by pharmacy.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a customers repo bound to the provided GORM DB.
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

// Create inserts a customer row.
func (r *Repository) Create(ctx context.Context, customer *models.Customer) (*models.Customer, error) {
	if err := r.db.WithContext(ctx).Create(customer).Error; err != nil {
		return nil, err
	}
	return customer, nil
}

// FindByID loads a customer, scoped by pharmacy.
func (r *Repository) FindByID(ctx context.Context, pharmacyID, id uint) (*models.Customer, error) {
	var customer models.Customer
	err := r.db.WithContext(ctx).
		Where("pharmacy_id = ?", pharmacyID).
		First(&customer, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &customer, nil
}

// List returns the pharmacy's customers, narrowed by the filter.
func (r *Repository) List(ctx context.Context, pharmacyID uint, filter ListFilter) ([]models.Customer, error) {
	q := r.db.WithContext(ctx).
		Where("pharmacy_id = ?", pharmacyID).
		Order("name ASC")
	if filter.Search != "" {
		like := "%" + filter.Search + "%"
		q = q.Where("name LIKE ? OR phone LIKE ?", like, like)
	}
	q = q.Limit(pagination.NormalizeLimit(filter.Limit))
	if filter.Offset > 0 {
		q = q.Offset(filter.Offset)
	}

	var rows []models.Customer
	if err := q.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// Update writes the provided columns, scoped by pharmacy.
func (r *Repository) Update(ctx context.Context, pharmacyID, id uint, updates map[string]any) error {
	res := r.db.WithContext(ctx).
		Model(&models.Customer{}).
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

// Delete removes a customer, scoped by pharmacy.
func (r *Repository) Delete(ctx context.Context, pharmacyID, id uint) error {
	res := r.db.WithContext(ctx).
		Where("id = ? AND pharmacy_id = ?", id, pharmacyID).
		Delete(&models.Customer{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
