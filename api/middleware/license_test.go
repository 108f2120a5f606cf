package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	pkgAuth "github.com/rxpos/pharmacare-backend/pkg/auth"
	"github.com/rxpos/pharmacare-backend/pkg/db/models"
	"github.com/rxpos/pharmacare-backend/pkg/enums"
	"github.com/rxpos/pharmacare-backend/pkg/licensing"
	"github.com/rxpos/pharmacare-backend/pkg/types"
)

const testMachineID = "ABCDEF0123456789"

type stubPharmacySource struct {
	pharmacy *models.Pharmacy
	err      error
	calls    int
}

func (s *stubPharmacySource) FirstPharmacy(_ context.Context) (*models.Pharmacy, error) {
	s.calls++
	return s.pharmacy, s.err
}

func testCodec(t *testing.T) *licensing.Codec {
	t.Helper()
	codec, err := licensing.NewCodec("gate-test-secret", "gate-test-salt")
	if err != nil {
		t.Fatalf("new codec: %v", err)
	}
	return codec
}

func encodeKey(t *testing.T, codec *licensing.Codec, expiresAt time.Time, machineID string) string {
	t.Helper()
	key, err := codec.Encode(licensing.Payload{PharmacyID: 1, ExpiresAt: expiresAt, MachineID: machineID})
	if err != nil {
		t.Fatalf("encode key: %v", err)
	}
	return key
}

func licensedPharmacy(key string, active bool) *models.Pharmacy {
	p := &models.Pharmacy{ID: 1, Name: "Test Pharmacy", IsActive: active}
	if key != "" {
		p.LicenseNo = &key
	}
	return p
}

func runGate(t *testing.T, source PharmacySource, codec *licensing.Codec, path, authHeader string) *httptest.ResponseRecorder {
	t.Helper()
	now := func() time.Time { return time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC) }
	fingerprint := func() (string, error) { return testMachineID, nil }

	handler := License(testJWTConfig, source, codec, fingerprint, now, nil, nil)(
		http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusOK)
		}))

	r := httptest.NewRequest("GET", path, nil)
	if authHeader != "" {
		r.Header.Set("Authorization", authHeader)
	}
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, r)
	return w
}

func decodeDeny(t *testing.T, w *httptest.ResponseRecorder) types.LicenseDeny {
	t.Helper()
	if w.Code != http.StatusForbidden {
		t.Fatalf("expected 403 deny, got %d", w.Code)
	}
	var body types.LicenseDeny
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("decode deny body: %v", err)
	}
	return body
}

func TestGateBypassPathsSkipEntirely(t *testing.T) {
	source := &stubPharmacySource{pharmacy: licensedPharmacy("", false)}
	codec := testCodec(t)

	for _, path := range []string{
		"/api/auth/login",
		"/api/pharmacy/license/activate",
		"/api/pharmacy/machine-id",
	} {
		w := runGate(t, source, codec, path, "")
		if w.Code != http.StatusOK {
			t.Fatalf("expected bypass for %s, got %d", path, w.Code)
		}
	}
	if source.calls != 0 {
		t.Fatalf("bypass paths must not load pharmacy, got %d calls", source.calls)
	}
}

func TestGateSuperAdminExempt(t *testing.T) {
	// suspended install, but the operator token bypasses licensing
	source := &stubPharmacySource{pharmacy: licensedPharmacy("", false)}
	token, err := pkgAuth.MintAccessToken(testJWTConfig, time.Now(), pkgAuth.AccessTokenPayload{
		UserID: 1, Email: "op@pharmacare.app", Role: enums.UserRoleSuperAdmin, TokenVersion: 0,
	})
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}

	w := runGate(t, source, testCodec(t), "/api/admin/pharmacies", "Bearer "+token)
	if w.Code != http.StatusOK {
		t.Fatalf("expected super admin exemption, got %d", w.Code)
	}
}

func TestGateFreshInstallAllows(t *testing.T) {
	w := runGate(t, &stubPharmacySource{pharmacy: nil}, testCodec(t), "/api/medicines", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected allow on fresh install, got %d", w.Code)
	}
}

func TestGateSuspendedAccount(t *testing.T) {
	codec := testCodec(t)
	key := encodeKey(t, codec, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), testMachineID)
	source := &stubPharmacySource{pharmacy: licensedPharmacy(key, false)}

	body := decodeDeny(t, runGate(t, source, codec, "/api/medicines", ""))
	if body.Code != "ACCOUNT_SUSPENDED" {
		t.Fatalf("expected ACCOUNT_SUSPENDED, got %s", body.Code)
	}
}

func TestGateMissingLicense(t *testing.T) {
	source := &stubPharmacySource{pharmacy: licensedPharmacy("", true)}
	body := decodeDeny(t, runGate(t, source, testCodec(t), "/api/medicines", ""))
	if body.Code != "LICENSE_MISSING" {
		t.Fatalf("expected LICENSE_MISSING, got %s", body.Code)
	}
}

func TestGateInvalidLicense(t *testing.T) {
	codec := testCodec(t)
	key := encodeKey(t, codec, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), "OTHERMACHINE0000")
	source := &stubPharmacySource{pharmacy: licensedPharmacy(key, true)}

	body := decodeDeny(t, runGate(t, source, codec, "/api/medicines", ""))
	if body.Code != "LICENSE_INVALID" {
		t.Fatalf("expected LICENSE_INVALID for wrong machine, got %s", body.Code)
	}

	source = &stubPharmacySource{pharmacy: licensedPharmacy("garbage-key", true)}
	body = decodeDeny(t, runGate(t, source, codec, "/api/medicines", ""))
	if body.Code != "LICENSE_INVALID" {
		t.Fatalf("expected LICENSE_INVALID for garbage key, got %s", body.Code)
	}
}

func TestGateExpiredLicense(t *testing.T) {
	codec := testCodec(t)
	key := encodeKey(t, codec, time.Date(2025, 1, 31, 0, 0, 0, 0, time.UTC), testMachineID)
	source := &stubPharmacySource{pharmacy: licensedPharmacy(key, true)}

	body := decodeDeny(t, runGate(t, source, codec, "/api/medicines", ""))
	if body.Code != "LICENSE_EXPIRED" {
		t.Fatalf("expected LICENSE_EXPIRED, got %s", body.Code)
	}
	if want := "2025-01-31"; !strings.Contains(body.Message, want) {
		t.Fatalf("expected expiry date %q in message, got %q", want, body.Message)
	}
}

func TestGateValidLicenseAllows(t *testing.T) {
	codec := testCodec(t)
	key := encodeKey(t, codec, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), testMachineID)
	source := &stubPharmacySource{pharmacy: licensedPharmacy(key, true)}

	w := runGate(t, source, codec, "/api/medicines", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected allow for valid license, got %d", w.Code)
	}
}

func TestGateOpenKeyValidAnywhere(t *testing.T) {
	codec := testCodec(t)
	key := encodeKey(t, codec, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), licensing.OpenMachineID)
	source := &stubPharmacySource{pharmacy: licensedPharmacy(key, true)}

	w := runGate(t, source, codec, "/api/medicines", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected allow for open key, got %d", w.Code)
	}
}

func TestGateDeniesRepeatedly(t *testing.T) {
	source := &stubPharmacySource{pharmacy: licensedPharmacy("", true)}
	codec := testCodec(t)

	for i := 0; i < 3; i++ {
		body := decodeDeny(t, runGate(t, source, codec, "/api/medicines", ""))
		if body.Code != "LICENSE_MISSING" {
			t.Fatalf("request %d: expected LICENSE_MISSING, got %s", i, body.Code)
		}
	}
}
