package responses

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	pkgerrors "github.com/rxpos/pharmacare-backend/pkg/errors"
	"github.com/rxpos/pharmacare-backend/pkg/types"
)

func TestWriteSuccess(t *testing.T) {
	w := httptest.NewRecorder()
	WriteSuccess(w, map[string]string{"hello": "world"})

	if got := w.Code; got != http.StatusOK {
		t.Fatalf("expected status 200 but got %d", got)
	}

	var body types.SuccessEnvelope
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode success envelope: %v", err)
	}
	if body.Data.(map[string]any)["hello"] != "world" {
		t.Fatalf("unexpected payload %v", body.Data)
	}
}

func TestWriteErrorMapsTypedError(t *testing.T) {
	w := httptest.NewRecorder()
	err := pkgerrors.New(pkgerrors.CodeValidation, "bad input").
		WithDetails(map[string]string{"field": "demo"})
	WriteError(context.Background(), nil, w, err)

	if got := w.Code; got != http.StatusBadRequest {
		t.Fatalf("expected status 400 but got %d", got)
	}

	var body types.ErrorEnvelope
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode error envelope: %v", err)
	}
	if body.Error.Code != string(pkgerrors.CodeValidation) {
		t.Fatalf("unexpected code %s", body.Error.Code)
	}
	if body.Error.Message != "bad input" {
		t.Fatalf("expected caller message passthrough, got %q", body.Error.Message)
	}
	if body.Error.Details == nil {
		t.Fatalf("expected details in public payload")
	}
}

func TestWriteErrorDefaultsToInternalForUntrustedErrors(t *testing.T) {
	w := httptest.NewRecorder()
	WriteError(context.Background(), nil, w, errors.New("boom"))

	if got := w.Code; got != http.StatusInternalServerError {
		t.Fatalf("expected status 500 but got %d", got)
	}

	var body types.ErrorEnvelope
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode error envelope: %v", err)
	}
	if body.Error.Code != string(pkgerrors.CodeInternal) {
		t.Fatalf("unexpected code %s", body.Error.Code)
	}
	if body.Error.Message != "internal server error" {
		t.Fatalf("internal message should not leak cause, got %q", body.Error.Message)
	}
}

func TestWriteErrorKeepsStaleTokenMessage(t *testing.T) {
	w := httptest.NewRecorder()
	WriteError(context.Background(), nil, w, pkgerrors.New(pkgerrors.CodeTokenStale, "credentials changed, please log in again"))

	if got := w.Code; got != http.StatusUnauthorized {
		t.Fatalf("expected status 401 but got %d", got)
	}

	var body types.ErrorEnvelope
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode error envelope: %v", err)
	}
	if body.Error.Code != string(pkgerrors.CodeTokenStale) {
		t.Fatalf("unexpected code %s", body.Error.Code)
	}
}

func TestWriteLicenseDenyShape(t *testing.T) {
	w := httptest.NewRecorder()
	WriteLicenseDeny(w, pkgerrors.CodeLicenseExpired, "License expired on 2025-01-31. Please renew.")

	if got := w.Code; got != http.StatusForbidden {
		t.Fatalf("expected status 403 but got %d", got)
	}

	var body types.LicenseDeny
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode deny body: %v", err)
	}
	if body.Code != "LICENSE_EXPIRED" {
		t.Fatalf("unexpected code %s", body.Code)
	}
	if body.Error == "" || body.Message == "" {
		t.Fatalf("deny body must carry error and message strings: %+v", body)
	}

	var raw map[string]any
	w2 := httptest.NewRecorder()
	WriteLicenseDeny(w2, pkgerrors.CodeAccountSuspended, "")
	if err := json.NewDecoder(w2.Body).Decode(&raw); err != nil {
		t.Fatalf("decode raw deny: %v", err)
	}
	for _, key := range []string{"error", "code", "message"} {
		if _, ok := raw[key]; !ok {
			t.Fatalf("deny body missing key %q", key)
		}
	}
	if len(raw) != 3 {
		t.Fatalf("deny body must be flat with exactly three keys, got %v", raw)
	}
}
