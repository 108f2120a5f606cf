package medicines

import (
	"context"
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

type recordingAudit struct {
	entries []models.AuditLog
}

func (r *recordingAudit) Record(_ context.Context, entry models.AuditLog) error {
	r.entries = append(r.entries, entry)
	return nil
}

func newHarness(t *testing.T) (Service, *Repository, *recordingAudit) {
	t.Helper()
	conn, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := conn.AutoMigrate(&models.Medicine{}, &models.Batch{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	repo := NewRepository(conn)
	audit := &recordingAudit{}
	svc, err := NewService(ServiceParams{
		Repo:  repo,
		Audit: audit,
		Now:   func() time.Time { return testNow },
	})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc, repo, audit
}

func TestCreateAndGet(t *testing.T) {
	svc, _, audit := newHarness(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, 1, 7, CreateMedicineRequest{
		Name:         "  Paracetamol ",
		UnitPrice:    decimal.RequireFromString("2.50"),
		ReorderLevel: 20,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.Name != "Paracetamol" {
		t.Fatalf("expected trimmed name, got %q", created.Name)
	}

	got, err := svc.Get(ctx, 1, created.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.TotalStock != 0 {
		t.Fatalf("new medicine must report zero stock, got %d", got.TotalStock)
	}

	if len(audit.entries) != 1 || audit.entries[0].Action != enums.AuditActionMedicineCreate {
		t.Fatalf("expected one MEDICINE_CREATE entry, got %+v", audit.entries)
	}
}

func TestGetScopedByPharmacy(t *testing.T) {
	svc, _, _ := newHarness(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, 1, 7, CreateMedicineRequest{Name: "Ibuprofen"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	_, err = svc.Get(ctx, 2, created.ID)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("other pharmacy must not see the medicine, got %v", err)
	}
}

func TestListSearch(t *testing.T) {
	svc, _, _ := newHarness(t)
	ctx := context.Background()

	names := []string{"Amoxicillin", "Azithromycin", "Cetirizine"}
	for _, name := range names {
		if _, err := svc.Create(ctx, 1, 7, CreateMedicineRequest{Name: name}); err != nil {
			t.Fatalf("create %s: %v", name, err)
		}
	}

	rows, err := svc.List(ctx, 1, ListFilter{Search: "cin"})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 matches, got %d", len(rows))
	}
}

func TestUpdatePartial(t *testing.T) {
	svc, _, _ := newHarness(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, 1, 7, CreateMedicineRequest{
		Name:         "Metformin",
		ReorderLevel: 10,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	level := 50
	updated, err := svc.Update(ctx, 1, 7, created.ID, UpdateMedicineRequest{ReorderLevel: &level})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.ReorderLevel != 50 {
		t.Fatalf("expected reorder level 50, got %d", updated.ReorderLevel)
	}
	if updated.Name != "Metformin" {
		t.Fatalf("untouched fields must survive, got %q", updated.Name)
	}
}

func TestDeleteMissing(t *testing.T) {
	svc, _, _ := newHarness(t)
	err := svc.Delete(context.Background(), 1, 7, 99)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestReceiveBatchAddsStock(t *testing.T) {
	svc, _, audit := newHarness(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, 1, 7, CreateMedicineRequest{Name: "Omeprazole"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	batch, err := svc.ReceiveBatch(ctx, 1, 7, created.ID, ReceiveBatchRequest{
		BatchNo:       "LOT-42",
		ExpiryDate:    testNow.AddDate(1, 0, 0),
		Quantity:      100,
		SellingPrice:  decimal.RequireFromString("5.00"),
		PurchasePrice: decimal.RequireFromString("3.20"),
	})
	if err != nil {
		t.Fatalf("receive batch: %v", err)
	}
	if batch.Quantity != 100 {
		t.Fatalf("unexpected quantity %d", batch.Quantity)
	}

	got, err := svc.Get(ctx, 1, created.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.TotalStock != 100 {
		t.Fatalf("expected stock 100, got %d", got.TotalStock)
	}

	last := audit.entries[len(audit.entries)-1]
	if last.Action != enums.AuditActionBatchReceive {
		t.Fatalf("expected BATCH_RECEIVE entry, got %s", last.Action)
	}
}

func TestReceiveBatchForeignMedicine(t *testing.T) {
	svc, _, _ := newHarness(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, 1, 7, CreateMedicineRequest{Name: "Aspirin"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	_, err = svc.ReceiveBatch(ctx, 2, 7, created.ID, ReceiveBatchRequest{
		BatchNo:    "LOT-1",
		ExpiryDate: testNow.AddDate(1, 0, 0),
		Quantity:   10,
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found for foreign pharmacy, got %v", err)
	}
}

func TestLowStock(t *testing.T) {
	svc, _, _ := newHarness(t)
	ctx := context.Background()

	low, err := svc.Create(ctx, 1, 7, CreateMedicineRequest{Name: "Low", ReorderLevel: 10})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	ok, err := svc.Create(ctx, 1, 7, CreateMedicineRequest{Name: "Stocked", ReorderLevel: 10})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if _, err := svc.ReceiveBatch(ctx, 1, 7, low.ID, ReceiveBatchRequest{
		BatchNo: "A", ExpiryDate: testNow.AddDate(1, 0, 0), Quantity: 5,
	}); err != nil {
		t.Fatalf("receive: %v", err)
	}
	if _, err := svc.ReceiveBatch(ctx, 1, 7, ok.ID, ReceiveBatchRequest{
		BatchNo: "B", ExpiryDate: testNow.AddDate(1, 0, 0), Quantity: 500,
	}); err != nil {
		t.Fatalf("receive: %v", err)
	}

	rows, err := svc.LowStock(ctx, 1)
	if err != nil {
		t.Fatalf("low stock: %v", err)
	}
	if len(rows) != 1 || rows[0].ID != low.ID {
		t.Fatalf("expected only the low medicine, got %+v", rows)
	}
}

func TestExpiringBatches(t *testing.T) {
	svc, _, _ := newHarness(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, 1, 7, CreateMedicineRequest{Name: "Insulin"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	soon := testNow.AddDate(0, 0, 10)
	far := testNow.AddDate(1, 0, 0)
	for i, expiry := range []time.Time{soon, far} {
		if _, err := svc.ReceiveBatch(ctx, 1, 7, created.ID, ReceiveBatchRequest{
			BatchNo:    []string{"SOON", "FAR"}[i],
			ExpiryDate: expiry,
			Quantity:   10,
		}); err != nil {
			t.Fatalf("receive: %v", err)
		}
	}

	rows, err := svc.ExpiringBatches(ctx, 1, 30)
	if err != nil {
		t.Fatalf("expiring: %v", err)
	}
	if len(rows) != 1 || rows[0].BatchNo != "SOON" {
		t.Fatalf("expected the soon batch only, got %+v", rows)
	}
}
