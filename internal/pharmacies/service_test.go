package pharmacies

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/rxpos/pharmacare-backend/internal/users"
	"github.com/rxpos/pharmacare-backend/pkg/config"
	"github.com/rxpos/pharmacare-backend/pkg/db/models"
	pkgerrors "github.com/rxpos/pharmacare-backend/pkg/errors"
	"github.com/rxpos/pharmacare-backend/pkg/licensing"
)

const testMachineID = "FEDCBA9876543210"

var testNow = time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

type gormTxRunner struct {
	db *gorm.DB
}

func (g gormTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return g.db.WithContext(ctx).Transaction(fn)
}

func newServiceHarness(t *testing.T) (Service, *Repository, *users.Repository, *licensing.Codec) {
	t.Helper()
	conn, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := conn.AutoMigrate(&models.Pharmacy{}, &models.User{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	codec, err := licensing.NewCodec("pharm-test-secret", "pharm-test-salt")
	if err != nil {
		t.Fatalf("new codec: %v", err)
	}

	repo := NewRepository(conn)
	userRepo := users.NewRepository(conn)

	svc, err := NewService(ServiceParams{
		Repo:           repo,
		Users:          userRepo,
		Tx:             gormTxRunner{db: conn},
		Codec:          codec,
		Fingerprint:    func() (string, error) { return testMachineID, nil },
		PasswordConfig: config.PasswordConfig{},
		Now:            func() time.Time { return testNow },
	})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc, repo, userRepo, codec
}

func seedPharmacy(t *testing.T, repo *Repository) *models.Pharmacy {
	t.Helper()
	pharmacy, err := repo.Create(context.Background(), &models.Pharmacy{Name: "City Pharmacy"})
	if err != nil {
		t.Fatalf("seed pharmacy: %v", err)
	}
	return pharmacy
}

func encodeTestKey(t *testing.T, codec *licensing.Codec, expiresAt time.Time, machineID string) string {
	t.Helper()
	return encodeKeyFor(t, codec, 1, expiresAt, machineID)
}

func encodeKeyFor(t *testing.T, codec *licensing.Codec, pharmacyID uint, expiresAt time.Time, machineID string) string {
	t.Helper()
	key, err := codec.Encode(licensing.Payload{PharmacyID: pharmacyID, ExpiresAt: expiresAt, MachineID: machineID})
	if err != nil {
		t.Fatalf("encode key: %v", err)
	}
	return key
}

func TestMachineID(t *testing.T) {
	svc, _, _, _ := newServiceHarness(t)
	resp, err := svc.MachineID(context.Background())
	if err != nil {
		t.Fatalf("machine id: %v", err)
	}
	if resp.MachineID != testMachineID {
		t.Fatalf("unexpected machine id %q", resp.MachineID)
	}
}

func TestActivateBindsOpenKey(t *testing.T) {
	svc, repo, _, codec := newServiceHarness(t)
	pharmacy := seedPharmacy(t, repo)

	expiresAt := testNow.AddDate(1, 0, 0)
	key := encodeTestKey(t, codec, expiresAt, licensing.OpenMachineID)

	resp, err := svc.Activate(context.Background(), ActivateRequest{LicenseKey: key})
	if err != nil {
		t.Fatalf("activate: %v", err)
	}
	if !resp.ExpiresAt.Equal(expiresAt) {
		t.Fatalf("expected expiry %v, got %v", expiresAt, resp.ExpiresAt)
	}

	stored, err := repo.FindByID(context.Background(), pharmacy.ID)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if stored.LicenseKey() != key {
		t.Fatalf("license_no must store the submitted key text verbatim")
	}
	if !stored.IsActive {
		t.Fatalf("activation must set is_active")
	}
	if stored.LicenseExpiresAt == nil || !stored.LicenseExpiresAt.Equal(expiresAt) {
		t.Fatalf("expected persisted expiry %v, got %v", expiresAt, stored.LicenseExpiresAt)
	}
	if stored.LicenseStartedAt == nil || !stored.LicenseStartedAt.Equal(testNow) {
		t.Fatalf("expected started_at %v, got %v", testNow, stored.LicenseStartedAt)
	}
}

func TestActivateAcceptsMachineBoundKey(t *testing.T) {
	svc, repo, _, codec := newServiceHarness(t)
	seedPharmacy(t, repo)

	key := encodeTestKey(t, codec, testNow.AddDate(1, 0, 0), testMachineID)
	if _, err := svc.Activate(context.Background(), ActivateRequest{LicenseKey: key}); err != nil {
		t.Fatalf("activate with matching machine: %v", err)
	}
}

func TestActivateRejectsForeignOrGarbageKeys(t *testing.T) {
	svc, repo, _, codec := newServiceHarness(t)
	seedPharmacy(t, repo)

	foreign := encodeTestKey(t, codec, testNow.AddDate(1, 0, 0), "0000111122223333")

	for name, key := range map[string]string{
		"wrong machine": foreign,
		"garbage":       "not-a-key",
	} {
		_, err := svc.Activate(context.Background(), ActivateRequest{LicenseKey: key})
		typed := pkgerrors.As(err)
		if typed == nil || typed.Code() != pkgerrors.CodeValidation {
			t.Fatalf("%s: expected validation error, got %v", name, err)
		}
		if typed.Message() != invalidKeyMessage {
			t.Fatalf("%s: all decode failures must share one message, got %q", name, typed.Message())
		}
	}
}

func TestActivateRejectsKeyForUnknownPharmacy(t *testing.T) {
	svc, repo, _, codec := newServiceHarness(t)
	pharmacy := seedPharmacy(t, repo)

	key := encodeKeyFor(t, codec, 999, testNow.AddDate(1, 0, 0), licensing.OpenMachineID)

	_, err := svc.Activate(context.Background(), ActivateRequest{LicenseKey: key})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("key for a missing pharmacy must 404, got %v", err)
	}

	stored, err := repo.FindByID(context.Background(), pharmacy.ID)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if stored.IsActive || stored.LicenseKey() != "" {
		t.Fatalf("existing pharmacy must be untouched, got %+v", stored)
	}
}

func TestActivateBindsKeyToItsOwnPharmacy(t *testing.T) {
	svc, repo, _, codec := newServiceHarness(t)
	first := seedPharmacy(t, repo)
	second, err := repo.Create(context.Background(), &models.Pharmacy{Name: "Uptown Pharmacy"})
	if err != nil {
		t.Fatalf("seed second pharmacy: %v", err)
	}

	key := encodeKeyFor(t, codec, second.ID, testNow.AddDate(1, 0, 0), licensing.OpenMachineID)
	if _, err := svc.Activate(context.Background(), ActivateRequest{LicenseKey: key}); err != nil {
		t.Fatalf("activate: %v", err)
	}

	reloadedFirst, err := repo.FindByID(context.Background(), first.ID)
	if err != nil {
		t.Fatalf("reload first: %v", err)
	}
	if reloadedFirst.IsActive {
		t.Fatalf("activation must not touch a pharmacy the key was not minted for")
	}

	reloadedSecond, err := repo.FindByID(context.Background(), second.ID)
	if err != nil {
		t.Fatalf("reload second: %v", err)
	}
	if !reloadedSecond.IsActive || reloadedSecond.LicenseKey() != key {
		t.Fatalf("key must activate the pharmacy it embeds, got %+v", reloadedSecond)
	}
}

func TestActivateWithoutPharmacy(t *testing.T) {
	svc, _, _, codec := newServiceHarness(t)
	key := encodeTestKey(t, codec, testNow.AddDate(1, 0, 0), licensing.OpenMachineID)

	_, err := svc.Activate(context.Background(), ActivateRequest{LicenseKey: key})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestLicenseStatus(t *testing.T) {
	svc, repo, _, codec := newServiceHarness(t)
	seedPharmacy(t, repo)

	status, err := svc.LicenseStatus(context.Background())
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if status.Activated {
		t.Fatalf("fresh pharmacy must not report activated")
	}

	key := encodeTestKey(t, codec, testNow.AddDate(0, 0, 30), licensing.OpenMachineID)
	if _, err := svc.Activate(context.Background(), ActivateRequest{LicenseKey: key}); err != nil {
		t.Fatalf("activate: %v", err)
	}

	status, err = svc.LicenseStatus(context.Background())
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if !status.Activated || !status.IsActive {
		t.Fatalf("expected activated status, got %+v", status)
	}
	if status.DaysLeft < 29 || status.DaysLeft > 30 {
		t.Fatalf("expected about 30 days left, got %d", status.DaysLeft)
	}
}

func TestOnboardCreatesTenantAdminAndKey(t *testing.T) {
	svc, repo, userRepo, codec := newServiceHarness(t)

	resp, err := svc.Onboard(context.Background(), OnboardRequest{
		Name:          "New Pharmacy",
		AdminEmail:    "Owner@Example.COM",
		AdminFullName: "Owner One",
		LicenseMonths: 12,
	})
	if err != nil {
		t.Fatalf("onboard: %v", err)
	}
	if resp.TempPassword == "" {
		t.Fatalf("expected temp password")
	}
	if resp.AdminEmail != "owner@example.com" {
		t.Fatalf("expected normalized email, got %q", resp.AdminEmail)
	}

	// the issued key must be unbound and decodable on any machine
	payload, err := codec.Decode(resp.LicenseKey, "ANYMACHINE")
	if err != nil {
		t.Fatalf("decode issued key: %v", err)
	}
	if payload.PharmacyID != resp.Pharmacy.ID {
		t.Fatalf("key must embed pharmacy id %d, got %d", resp.Pharmacy.ID, payload.PharmacyID)
	}
	if !payload.ExpiresAt.Equal(testNow.AddDate(0, 12, 0)) {
		t.Fatalf("unexpected key expiry %v", payload.ExpiresAt)
	}

	admin, err := userRepo.FindByEmail(context.Background(), "owner@example.com")
	if err != nil {
		t.Fatalf("find admin: %v", err)
	}
	if admin.PharmacyID == nil || *admin.PharmacyID != resp.Pharmacy.ID {
		t.Fatalf("admin must belong to the new pharmacy")
	}

	if _, err := repo.FindByID(context.Background(), resp.Pharmacy.ID); err != nil {
		t.Fatalf("pharmacy row missing: %v", err)
	}
}

func TestRenewStacksOnCurrentExpiry(t *testing.T) {
	svc, repo, _, codec := newServiceHarness(t)
	pharmacy := seedPharmacy(t, repo)

	future := testNow.AddDate(0, 2, 0)
	key := encodeTestKey(t, codec, future, licensing.OpenMachineID)
	if _, err := svc.Activate(context.Background(), ActivateRequest{LicenseKey: key}); err != nil {
		t.Fatalf("activate: %v", err)
	}

	resp, err := svc.Renew(context.Background(), pharmacy.ID, RenewRequest{Months: 3})
	if err != nil {
		t.Fatalf("renew: %v", err)
	}
	want := future.AddDate(0, 3, 0)
	if !resp.ExpiresAt.Equal(want) {
		t.Fatalf("renewal must stack on current expiry: want %v, got %v", want, resp.ExpiresAt)
	}
	if resp.LicenseKey != nil {
		t.Fatalf("key must not regenerate unless asked")
	}
}

func TestRenewLapsedStacksOnStoredExpiry(t *testing.T) {
	svc, repo, _, codec := newServiceHarness(t)
	pharmacy := seedPharmacy(t, repo)

	past := testNow.AddDate(0, -1, 0)
	key := encodeTestKey(t, codec, past, licensing.OpenMachineID)
	if err := repo.UpdateLicense(context.Background(), pharmacy.ID, key, past, past, true); err != nil {
		t.Fatalf("seed lapsed license: %v", err)
	}

	resp, err := svc.Renew(context.Background(), pharmacy.ID, RenewRequest{Months: 6, RegenerateKey: true})
	if err != nil {
		t.Fatalf("renew: %v", err)
	}
	// extensions stack on the stored expiry even after it has passed
	want := past.AddDate(0, 6, 0)
	if !resp.ExpiresAt.Equal(want) {
		t.Fatalf("lapsed renewal must extend the stored expiry: want %v, got %v", want, resp.ExpiresAt)
	}
	if resp.LicenseKey == nil {
		t.Fatalf("expected regenerated key")
	}

	payload, err := codec.Decode(*resp.LicenseKey, "ANYMACHINE")
	if err != nil {
		t.Fatalf("decode regenerated key: %v", err)
	}
	if !payload.ExpiresAt.Equal(want) {
		t.Fatalf("regenerated key must embed the new expiry")
	}
}

func TestRenewBindsKeyToSuppliedMachine(t *testing.T) {
	svc, repo, _, codec := newServiceHarness(t)
	pharmacy := seedPharmacy(t, repo)

	machine := "1122334455667788"
	resp, err := svc.Renew(context.Background(), pharmacy.ID, RenewRequest{Months: 12, MachineID: &machine})
	if err != nil {
		t.Fatalf("renew: %v", err)
	}
	if resp.LicenseKey == nil {
		t.Fatalf("a machine binding must regenerate the key")
	}

	payload, err := codec.Decode(*resp.LicenseKey, machine)
	if err != nil {
		t.Fatalf("decode on bound machine: %v", err)
	}
	if payload.MachineID != machine {
		t.Fatalf("expected binding %q, got %q", machine, payload.MachineID)
	}
	if _, err := codec.Decode(*resp.LicenseKey, "FFFFFFFFFFFFFFFF"); err == nil {
		t.Fatalf("bound key must not decode on another machine")
	}
}

func TestRenewSetsActiveFlagBothWays(t *testing.T) {
	svc, repo, _, _ := newServiceHarness(t)
	pharmacy := seedPharmacy(t, repo)

	active := true
	if _, err := svc.Renew(context.Background(), pharmacy.ID, RenewRequest{Months: 1, IsActive: &active}); err != nil {
		t.Fatalf("renew: %v", err)
	}
	stored, err := repo.FindByID(context.Background(), pharmacy.ID)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if !stored.IsActive {
		t.Fatalf("renewal must be able to activate")
	}

	inactive := false
	if _, err := svc.Renew(context.Background(), pharmacy.ID, RenewRequest{Months: 1, IsActive: &inactive}); err != nil {
		t.Fatalf("renew: %v", err)
	}
	stored, err = repo.FindByID(context.Background(), pharmacy.ID)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if stored.IsActive {
		t.Fatalf("renewal must be able to deactivate")
	}
}

func TestRenewRecordsPayment(t *testing.T) {
	svc, repo, _, _ := newServiceHarness(t)
	pharmacy := seedPharmacy(t, repo)

	amount := decimalFromString(t, "149.99")
	if _, err := svc.Renew(context.Background(), pharmacy.ID, RenewRequest{Months: 1, AmountPaid: amount}); err != nil {
		t.Fatalf("renew: %v", err)
	}

	stored, err := repo.FindByID(context.Background(), pharmacy.ID)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if !stored.TotalPaid.Equal(amount) {
		t.Fatalf("expected total_paid %s, got %s", amount, stored.TotalPaid)
	}
}

func TestSuspendRevokesStaffTokens(t *testing.T) {
	svc, repo, userRepo, _ := newServiceHarness(t)
	pharmacy := seedPharmacy(t, repo)

	pharmacyID := pharmacy.ID
	staff, err := userRepo.Create(context.Background(), users.CreateUserDTO{
		Email:        "staff@pharmacy.test",
		PasswordHash: "hash",
		FullName:     "Staff",
		Role:         "SALESMAN",
		PharmacyID:   &pharmacyID,
	})
	if err != nil {
		t.Fatalf("seed staff: %v", err)
	}

	if err := svc.Suspend(context.Background(), pharmacy.ID); err != nil {
		t.Fatalf("suspend: %v", err)
	}

	stored, err := repo.FindByID(context.Background(), pharmacy.ID)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if stored.IsActive {
		t.Fatalf("suspend must clear is_active")
	}

	reloaded, err := userRepo.FindByID(context.Background(), staff.ID)
	if err != nil {
		t.Fatalf("reload staff: %v", err)
	}
	if reloaded.TokenVersion != staff.TokenVersion+1 {
		t.Fatalf("suspend must bump staff token versions")
	}

	if err := svc.Unsuspend(context.Background(), pharmacy.ID); err != nil {
		t.Fatalf("unsuspend: %v", err)
	}
	stored, _ = repo.FindByID(context.Background(), pharmacy.ID)
	if !stored.IsActive {
		t.Fatalf("unsuspend must restore is_active")
	}
}

func TestSuspendUnknownPharmacy(t *testing.T) {
	svc, _, _, _ := newServiceHarness(t)
	err := svc.Suspend(context.Background(), 404)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

func decimalFromString(t *testing.T, value string) decimal.Decimal {
	t.Helper()
	parsed, err := decimal.NewFromString(value)
	if err != nil {
		t.Fatalf("parse decimal: %v", err)
	}
	return parsed
}
