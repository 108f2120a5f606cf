package audit

import (
	"context"

	"gorm.io/gorm"

	"github.com/rxpos/pharmacare-backend/pkg/db/models"
	"github.com/rxpos/pharmacare-backend/pkg/pagination"
)

// Repository persists the append-only audit trail. There are deliberately no
// update or delete operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs an audit repo bound to the provided GORM DB.
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

// Record appends one entry.
func (r *Repository) Record(ctx context.Context, entry models.AuditLog) error {
	return r.db.WithContext(ctx).Create(&entry).Error
}

// List returns entries newest first, narrowed by the filter.
func (r *Repository) List(ctx context.Context, filter ListFilter) ([]models.AuditLog, error) {
	q := r.db.WithContext(ctx).Model(&models.AuditLog{}).Order("id DESC")
	if filter.PharmacyID != nil {
		q = q.Where("pharmacy_id = ?", *filter.PharmacyID)
	}
	if filter.Action != nil {
		q = q.Where("action = ?", *filter.Action)
	}
	if filter.Entity != nil {
		q = q.Where("entity = ?", *filter.Entity)
	}
	q = q.Limit(pagination.NormalizeLimit(filter.Limit))
	if filter.Offset > 0 {
		q = q.Offset(filter.Offset)
	}

	var rows []models.AuditLog
	if err := q.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
