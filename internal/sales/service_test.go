package sales

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/rxpos/pharmacare-backend/pkg/db/models"
	"github.com/rxpos/pharmacare-backend/pkg/enums"
	pkgerrors "github.com/rxpos/pharmacare-backend/pkg/errors"
)

var testNow = time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

type gormTxRunner struct {
	db *gorm.DB
}

func (g gormTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return g.db.WithContext(ctx).Transaction(fn)
}

type recordingAudit struct {
	entries []models.AuditLog
}

func (r *recordingAudit) Record(_ context.Context, entry models.AuditLog) error {
	r.entries = append(r.entries, entry)
	return nil
}

func newHarness(t *testing.T) (Service, *gorm.DB, *recordingAudit) {
	t.Helper()
	conn, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := conn.AutoMigrate(&models.Medicine{}, &models.Batch{}, &models.Sale{}, &models.SaleItem{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	audit := &recordingAudit{}
	svc, err := NewService(ServiceParams{
		Repo:  NewRepository(conn),
		Tx:    gormTxRunner{db: conn},
		Audit: audit,
		Now:   func() time.Time { return testNow },
	})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc, conn, audit
}

func seedBatch(t *testing.T, conn *gorm.DB, pharmacyID uint, quantity int, price string, expiry time.Time) *models.Batch {
	t.Helper()
	medicine := models.Medicine{PharmacyID: pharmacyID, Name: "Paracetamol"}
	if err := conn.Create(&medicine).Error; err != nil {
		t.Fatalf("seed medicine: %v", err)
	}
	batch := models.Batch{
		MedicineID:   medicine.ID,
		BatchNo:      "LOT-1",
		ExpiryDate:   expiry,
		Quantity:     quantity,
		SellingPrice: decimal.RequireFromString(price),
	}
	if err := conn.Create(&batch).Error; err != nil {
		t.Fatalf("seed batch: %v", err)
	}
	return &batch
}

func batchQuantity(t *testing.T, conn *gorm.DB, id uint) int {
	t.Helper()
	var batch models.Batch
	if err := conn.First(&batch, id).Error; err != nil {
		t.Fatalf("reload batch: %v", err)
	}
	return batch.Quantity
}

func TestCreateSaleDeductsStock(t *testing.T) {
	svc, conn, audit := newHarness(t)
	batch := seedBatch(t, conn, 1, 50, "4.00", testNow.AddDate(1, 0, 0))

	sale, err := svc.Create(context.Background(), 1, 7, CreateSaleRequest{
		PaymentMethod: enums.PaymentMethodCash,
		Discount:      decimal.RequireFromString("1.00"),
		Items:         []CreateSaleItem{{BatchID: batch.ID, Quantity: 3}},
	})
	if err != nil {
		t.Fatalf("create sale: %v", err)
	}

	if !sale.Subtotal.Equal(decimal.RequireFromString("12.00")) {
		t.Fatalf("expected subtotal 12.00, got %s", sale.Subtotal)
	}
	if !sale.Total.Equal(decimal.RequireFromString("11.00")) {
		t.Fatalf("expected total 11.00, got %s", sale.Total)
	}
	if !strings.HasPrefix(sale.InvoiceNo, "INV-20250615-") {
		t.Fatalf("unexpected invoice no %q", sale.InvoiceNo)
	}
	if got := batchQuantity(t, conn, batch.ID); got != 47 {
		t.Fatalf("expected 47 left in batch, got %d", got)
	}
	if len(audit.entries) != 1 || audit.entries[0].Action != enums.AuditActionSaleCreate {
		t.Fatalf("expected one SALE_CREATE entry, got %+v", audit.entries)
	}
}

func TestCreateSaleInsufficientStockRollsBack(t *testing.T) {
	svc, conn, _ := newHarness(t)
	big := seedBatch(t, conn, 1, 50, "4.00", testNow.AddDate(1, 0, 0))
	small := seedBatch(t, conn, 1, 2, "4.00", testNow.AddDate(1, 0, 0))

	_, err := svc.Create(context.Background(), 1, 7, CreateSaleRequest{
		PaymentMethod: enums.PaymentMethodCash,
		Items: []CreateSaleItem{
			{BatchID: big.ID, Quantity: 10},
			{BatchID: small.ID, Quantity: 5},
		},
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}

	// first line's deduction must roll back with the failed sale
	if got := batchQuantity(t, conn, big.ID); got != 50 {
		t.Fatalf("expected rollback to 50, got %d", got)
	}

	var count int64
	conn.Model(&models.Sale{}).Count(&count)
	if count != 0 {
		t.Fatalf("no sale row may survive a failed transaction, got %d", count)
	}
}

func TestCreateSaleRejectsExpiredBatch(t *testing.T) {
	svc, conn, _ := newHarness(t)
	batch := seedBatch(t, conn, 1, 50, "4.00", testNow.AddDate(0, -1, 0))

	_, err := svc.Create(context.Background(), 1, 7, CreateSaleRequest{
		PaymentMethod: enums.PaymentMethodCash,
		Items:         []CreateSaleItem{{BatchID: batch.ID, Quantity: 1}},
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error for expired batch, got %v", err)
	}
}

func TestCreateSaleForeignBatch(t *testing.T) {
	svc, conn, _ := newHarness(t)
	batch := seedBatch(t, conn, 2, 50, "4.00", testNow.AddDate(1, 0, 0))

	_, err := svc.Create(context.Background(), 1, 7, CreateSaleRequest{
		PaymentMethod: enums.PaymentMethodCash,
		Items:         []CreateSaleItem{{BatchID: batch.ID, Quantity: 1}},
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found for foreign batch, got %v", err)
	}
}

func TestCreateSaleDiscountExceedsSubtotal(t *testing.T) {
	svc, conn, _ := newHarness(t)
	batch := seedBatch(t, conn, 1, 50, "4.00", testNow.AddDate(1, 0, 0))

	_, err := svc.Create(context.Background(), 1, 7, CreateSaleRequest{
		PaymentMethod: enums.PaymentMethodCash,
		Discount:      decimal.RequireFromString("100.00"),
		Items:         []CreateSaleItem{{BatchID: batch.ID, Quantity: 1}},
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
	if got := batchQuantity(t, conn, batch.ID); got != 50 {
		t.Fatalf("expected rollback to 50, got %d", got)
	}
}

func TestGetAndList(t *testing.T) {
	svc, conn, _ := newHarness(t)
	batch := seedBatch(t, conn, 1, 50, "4.00", testNow.AddDate(1, 0, 0))

	created, err := svc.Create(context.Background(), 1, 7, CreateSaleRequest{
		PaymentMethod: enums.PaymentMethodCard,
		Items:         []CreateSaleItem{{BatchID: batch.ID, Quantity: 2}},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	got, err := svc.Get(context.Background(), 1, created.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(got.Items) != 1 || got.Items[0].Quantity != 2 {
		t.Fatalf("unexpected items %+v", got.Items)
	}

	if _, err := svc.Get(context.Background(), 2, created.ID); pkgerrors.As(err) == nil {
		t.Fatalf("foreign pharmacy must not see the sale")
	}

	rows, err := svc.List(context.Background(), 1, ListFilter{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected 1 sale, got %d", len(rows))
	}
}
