package pharmacies

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/rxpos/pharmacare-backend/pkg/db/models"
)

// Repository exposes pharmacy persistence operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a pharmacies repo bound to the provided GORM DB.
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

// Create inserts a new pharmacy row.
func (r *Repository) Create(ctx context.Context, pharmacy *models.Pharmacy) (*models.Pharmacy, error) {
	if err := r.db.WithContext(ctx).Create(pharmacy).Error; err != nil {
		return nil, err
	}
	return pharmacy, nil
}

// FirstPharmacy loads the install's tenant row, nil when none exists yet.
// The license gate calls this on every request.
func (r *Repository) FirstPharmacy(ctx context.Context) (*models.Pharmacy, error) {
	var pharmacy models.Pharmacy
	err := r.db.WithContext(ctx).Order("id ASC").First(&pharmacy).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &pharmacy, nil
}

// FindByID loads a pharmacy by id.
func (r *Repository) FindByID(ctx context.Context, id uint) (*models.Pharmacy, error) {
	var pharmacy models.Pharmacy
	if err := r.db.WithContext(ctx).First(&pharmacy, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &pharmacy, nil
}

// List returns every pharmacy, oldest first.
func (r *Repository) List(ctx context.Context) ([]models.Pharmacy, error) {
	var rows []models.Pharmacy
	if err := r.db.WithContext(ctx).Order("id ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// UpdateLicense writes all license fields in one UPDATE so activation is
// atomic: either the key, dates, and active flag all land or none do.
func (r *Repository) UpdateLicense(ctx context.Context, id uint, key string, startedAt, expiresAt time.Time, isActive bool) error {
	return r.db.WithContext(ctx).
		Model(&models.Pharmacy{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"license_no":         key,
			"license_started_at": startedAt,
			"license_expires_at": expiresAt,
			"is_active":          isActive,
		}).Error
}

// SetActive flips the suspension flag.
func (r *Repository) SetActive(ctx context.Context, id uint, active bool) error {
	return r.db.WithContext(ctx).
		Model(&models.Pharmacy{}).
		Where("id = ?", id).
		UpdateColumn("is_active", active).Error
}

// AddPayment increments total_paid by the given amount.
func (r *Repository) AddPayment(ctx context.Context, id uint, amount decimal.Decimal) error {
	if amount.IsZero() {
		return nil
	}
	return r.db.WithContext(ctx).
		Model(&models.Pharmacy{}).
		Where("id = ?", id).
		UpdateColumn("total_paid", gorm.Expr("total_paid + ?", amount)).Error
}
