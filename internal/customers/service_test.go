package customers

import (
	"context"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/rxpos/pharmacare-backend/pkg/db/models"
	pkgerrors "github.com/rxpos/pharmacare-backend/pkg/errors"
)

func newHarness(t *testing.T) Service {
	t.Helper()
	conn, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := conn.AutoMigrate(&models.Customer{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	svc, err := NewService(ServiceParams{Repo: NewRepository(conn)})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

func strPtr(s string) *string { return &s }

func TestCustomerLifecycle(t *testing.T) {
	svc := newHarness(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, 1, CreateCustomerRequest{
		Name:  " Jordan Smith ",
		Phone: strPtr("0711222333"),
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.Name != "Jordan Smith" {
		t.Fatalf("expected trimmed name, got %q", created.Name)
	}

	updated, err := svc.Update(ctx, 1, created.ID, UpdateCustomerRequest{Address: strPtr("12 Main St")})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Address == nil || *updated.Address != "12 Main St" {
		t.Fatalf("expected updated address, got %+v", updated.Address)
	}
	if updated.Phone == nil || *updated.Phone != "0711222333" {
		t.Fatalf("untouched fields must survive, got %+v", updated.Phone)
	}

	if err := svc.Delete(ctx, 1, created.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	_, err = svc.Get(ctx, 1, created.ID)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found after delete, got %v", err)
	}
}

func TestCustomerScopedByPharmacy(t *testing.T) {
	svc := newHarness(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, 1, CreateCustomerRequest{Name: "Alex"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if _, err := svc.Get(ctx, 2, created.ID); pkgerrors.As(err) == nil {
		t.Fatalf("foreign pharmacy must not see the customer")
	}
	if err := svc.Delete(ctx, 2, created.ID); pkgerrors.As(err) == nil {
		t.Fatalf("foreign pharmacy must not delete the customer")
	}
}

func TestCustomerSearch(t *testing.T) {
	svc := newHarness(t)
	ctx := context.Background()

	for _, name := range []string{"Amina", "Brian", "Aaron"} {
		if _, err := svc.Create(ctx, 1, CreateCustomerRequest{Name: name}); err != nil {
			t.Fatalf("create %s: %v", name, err)
		}
	}

	rows, err := svc.List(ctx, 1, ListFilter{Search: "A"})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(rows) != 3 {
		// sqlite LIKE is case-insensitive for ASCII, so Brian's "a" counts
		t.Fatalf("expected 3 matches, got %d", len(rows))
	}

	rows, err = svc.List(ctx, 1, ListFilter{Search: "Am"})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(rows) != 1 || rows[0].Name != "Amina" {
		t.Fatalf("expected Amina, got %+v", rows)
	}
}
