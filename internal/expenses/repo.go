package expenses

import (
	"context"

	"gorm.io/gorm"

	"github.com/rxpos/pharmacare-backend/pkg/db/models"
	"github.com/rxpos/pharmacare-backend/pkg/pagination"
)

// Repository persists expenses scoped by pharmacy.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs an expenses repo bound to the provided GORM DB.
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

// Create inserts an expense row.
func (r *Repository) Create(ctx context.Context, expense *models.Expense) (*models.Expense, error) {
	if err := r.db.WithContext(ctx).Create(expense).Error; err != nil {
		return nil, err
	}
	return expense, nil
}

// List returns the pharmacy's expenses newest first, narrowed by the filter.
func (r *Repository) List(ctx context.Context, pharmacyID uint, filter ListFilter) ([]models.Expense, error) {
	q := r.db.WithContext(ctx).
		Where("pharmacy_id = ?", pharmacyID).
		Order("spent_at DESC")
	if filter.Category != nil {
		q = q.Where("category = ?", *filter.Category)
	}
	if filter.From != nil {
		q = q.Where("spent_at >= ?", *filter.From)
	}
	if filter.To != nil {
		q = q.Where("spent_at < ?", *filter.To)
	}
	q = q.Limit(pagination.NormalizeLimit(filter.Limit))
	if filter.Offset > 0 {
		q = q.Offset(filter.Offset)
	}

	var rows []models.Expense
	if err := q.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// Delete removes an expense, scoped by pharmacy.
func (r *Repository) Delete(ctx context.Context, pharmacyID, id uint) error {
	res := r.db.WithContext(ctx).
		Where("id = ? AND pharmacy_id = ?", id, pharmacyID).
		Delete(&models.Expense{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
