package sales

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/rxpos/pharmacare-backend/pkg/db/models"
	"github.com/rxpos/pharmacare-backend/pkg/enums"
	pkgerrors "github.com/rxpos/pharmacare-backend/pkg/errors"
)

// Service records counter sales. Stock deduction and the sale insert happen
// inside one transaction so a failed line never leaves a partial sale.
type Service interface {
	Create(ctx context.Context, pharmacyID, userID uint, req CreateSaleRequest) (*SaleDTO, error)
	Get(ctx context.Context, pharmacyID, id uint) (*SaleDTO, error)
	List(ctx context.Context, pharmacyID uint, filter ListFilter) ([]SaleDTO, error)
}

type saleRepository interface {
	WithTx(tx *gorm.DB) *Repository
	Create(ctx context.Context, sale *models.Sale) (*models.Sale, error)
	FindBatch(ctx context.Context, pharmacyID, batchID uint) (*models.Batch, error)
	FindByID(ctx context.Context, pharmacyID, id uint) (*models.Sale, error)
	List(ctx context.Context, pharmacyID uint, filter ListFilter) ([]models.Sale, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type auditRecorder interface {
	Record(ctx context.Context, entry models.AuditLog) error
}

type service struct {
	repo  saleRepository
	tx    txRunner
	audit auditRecorder
	now   func() time.Time
}

// ServiceParams bundles the dependencies required to build a sales service.
type ServiceParams struct {
	Repo  saleRepository
	Tx    txRunner
	Audit auditRecorder
	Now   func() time.Time
}

// NewService constructs the sales service.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("sales repository is required")
	}
	if params.Tx == nil {
		return nil, fmt.Errorf("transaction runner is required")
	}
	now := params.Now
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	return &service{repo: params.Repo, tx: params.Tx, audit: params.Audit, now: now}, nil
}

func (s *service) Create(ctx context.Context, pharmacyID, userID uint, req CreateSaleRequest) (*SaleDTO, error) {
	if len(req.Items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "a sale needs at least one item")
	}
	if req.Discount.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "discount cannot be negative")
	}

	sale := &models.Sale{
		PharmacyID:    pharmacyID,
		InvoiceNo:     newInvoiceNo(s.now()),
		UserID:        userID,
		CustomerID:    req.CustomerID,
		PaymentMethod: req.PaymentMethod,
		Discount:      req.Discount,
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		subtotal := decimal.Zero
		for _, item := range req.Items {
			batch, err := repo.FindBatch(ctx, pharmacyID, item.BatchID)
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("batch %d not found", item.BatchID))
				}
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load batch")
			}
			if batch.Expired(s.now()) {
				return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("batch %s is expired", batch.BatchNo))
			}

			ok, err := repo.DeductStock(ctx, batch.ID, item.Quantity)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "deduct stock")
			}
			if !ok {
				return pkgerrors.New(pkgerrors.CodeValidation,
					fmt.Sprintf("insufficient stock in batch %s: %d left", batch.BatchNo, batch.Quantity))
			}

			lineTotal := batch.SellingPrice.Mul(decimal.NewFromInt(int64(item.Quantity)))
			subtotal = subtotal.Add(lineTotal)
			sale.Items = append(sale.Items, models.SaleItem{
				MedicineID: batch.MedicineID,
				BatchID:    batch.ID,
				Quantity:   item.Quantity,
				UnitPrice:  batch.SellingPrice,
				LineTotal:  lineTotal,
			})
		}

		sale.Subtotal = subtotal
		sale.Total = subtotal.Sub(req.Discount)
		if sale.Total.IsNegative() {
			return pkgerrors.New(pkgerrors.CodeValidation, "discount exceeds subtotal")
		}

		if _, err := repo.Create(ctx, sale); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create sale")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.recordAudit(ctx, pharmacyID, userID, sale.ID, sale.InvoiceNo)
	return FromModel(sale), nil
}

func (s *service) Get(ctx context.Context, pharmacyID, id uint) (*SaleDTO, error) {
	sale, err := s.repo.FindByID(ctx, pharmacyID, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "sale not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load sale")
	}
	return FromModel(sale), nil
}

func (s *service) List(ctx context.Context, pharmacyID uint, filter ListFilter) ([]SaleDTO, error) {
	rows, err := s.repo.List(ctx, pharmacyID, filter)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list sales")
	}
	out := make([]SaleDTO, 0, len(rows))
	for i := range rows {
		out = append(out, *FromModel(&rows[i]))
	}
	return out, nil
}

func (s *service) recordAudit(ctx context.Context, pharmacyID, userID, saleID uint, invoiceNo string) {
	if s.audit == nil {
		return
	}
	details := "invoice " + invoiceNo
	_ = s.audit.Record(ctx, models.AuditLog{
		PharmacyID: &pharmacyID,
		UserID:     &userID,
		Action:     enums.AuditActionSaleCreate,
		Entity:     "sale",
		EntityID:   &saleID,
		Details:    &details,
	})
}

// newInvoiceNo builds a short, human-quotable invoice number: date prefix
// plus the first uuid segment.
func newInvoiceNo(now time.Time) string {
	id := uuid.NewString()
	return fmt.Sprintf("INV-%s-%s", now.Format("20060102"), strings.ToUpper(id[:8]))
}
