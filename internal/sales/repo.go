package sales

import (
	"context"

	"gorm.io/gorm"

	"github.com/rxpos/pharmacare-backend/pkg/db/models"
	"github.com/rxpos/pharmacare-backend/pkg/pagination"
)

// Repository persists sales and deducts batch stock.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a sales repo bound to the provided GORM DB.
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

// Create inserts a sale with its items.
func (r *Repository) Create(ctx context.Context, sale *models.Sale) (*models.Sale, error) {
	if err := r.db.WithContext(ctx).Create(sale).Error; err != nil {
		return nil, err
	}
	return sale, nil
}

// FindBatch loads one batch, scoped to the pharmacy through its medicine.
func (r *Repository) FindBatch(ctx context.Context, pharmacyID, batchID uint) (*models.Batch, error) {
	var batch models.Batch
	err := r.db.WithContext(ctx).
		Joins("JOIN medicines ON medicines.id = batches.medicine_id").
		Where("medicines.pharmacy_id = ?", pharmacyID).
		First(&batch, "batches.id = ?", batchID).Error
	if err != nil {
		return nil, err
	}
	return &batch, nil
}

// DeductStock decrements a batch quantity, failing when the batch holds less
// than requested. The conditional UPDATE keeps concurrent sales from driving
// quantity negative.
func (r *Repository) DeductStock(ctx context.Context, batchID uint, quantity int) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Batch{}).
		Where("id = ? AND quantity >= ?", batchID, quantity).
		UpdateColumn("quantity", gorm.Expr("quantity - ?", quantity))
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// FindByID loads a sale with items, scoped by pharmacy.
func (r *Repository) FindByID(ctx context.Context, pharmacyID, id uint) (*models.Sale, error) {
	var sale models.Sale
	err := r.db.WithContext(ctx).
		Preload("Items").
		Where("pharmacy_id = ?", pharmacyID).
		First(&sale, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &sale, nil
}

// List returns the pharmacy's sales newest first, narrowed by the filter.
func (r *Repository) List(ctx context.Context, pharmacyID uint, filter ListFilter) ([]models.Sale, error) {
	q := r.db.WithContext(ctx).
		Preload("Items").
		Where("pharmacy_id = ?", pharmacyID).
		Order("id DESC")
	if filter.From != nil {
		q = q.Where("created_at >= ?", *filter.From)
	}
	if filter.To != nil {
		q = q.Where("created_at < ?", *filter.To)
	}
	if filter.UserID != nil {
		q = q.Where("user_id = ?", *filter.UserID)
	}
	q = q.Limit(pagination.NormalizeLimit(filter.Limit))
	if filter.Offset > 0 {
		q = q.Offset(filter.Offset)
	}

	var rows []models.Sale
	if err := q.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
