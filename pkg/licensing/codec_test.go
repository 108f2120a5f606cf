package licensing

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func newTestCodec(t *testing.T) *Codec {
	t.Helper()
	codec, err := NewCodec("test-secret", "test-salt")
	if err != nil {
		t.Fatalf("NewCodec failed: %v", err)
	}
	return codec
}

func TestNewCodec_RequiresMaterial(t *testing.T) {
	if _, err := NewCodec("", "salt"); err == nil {
		t.Fatal("expected error for empty secret")
	}
	if _, err := NewCodec("secret", ""); err == nil {
		t.Fatal("expected error for empty salt")
	}
}

func TestEncodeDecode_RoundTrip(t *testing.T) {
	codec := newTestCodec(t)
	expires := time.Now().Add(365 * 24 * time.Hour).UTC().Truncate(time.Second)

	key, err := codec.Encode(Payload{PharmacyID: 7, ExpiresAt: expires, MachineID: "AB12CD34EF56AB78"})
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}

	ivHex, cipherHex, found := strings.Cut(key, ":")
	if !found {
		t.Fatalf("key %q missing colon separator", key)
	}
	if len(ivHex) != 32 {
		t.Fatalf("expected 32 hex chars of IV, got %d", len(ivHex))
	}
	if len(cipherHex)%2 != 0 {
		t.Fatalf("ciphertext hex has odd length %d", len(cipherHex))
	}

	payload, err := codec.Decode(key, "AB12CD34EF56AB78")
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if payload.PharmacyID != 7 {
		t.Fatalf("pharmacy id mismatch: %d", payload.PharmacyID)
	}
	if !payload.ExpiresAt.Equal(expires) {
		t.Fatalf("expiry mismatch: %v vs %v", payload.ExpiresAt, expires)
	}
	if payload.MachineID != "AB12CD34EF56AB78" {
		t.Fatalf("machine id mismatch: %q", payload.MachineID)
	}
}

func TestEncode_FreshIVPerCall(t *testing.T) {
	codec := newTestCodec(t)
	payload := Payload{PharmacyID: 1, ExpiresAt: time.Now().Add(time.Hour), MachineID: OpenMachineID}

	first, err := codec.Encode(payload)
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	second, err := codec.Encode(payload)
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	if first == second {
		t.Fatal("two encodings of the same payload produced identical keys (IV reuse)")
	}
}

func TestDecode_OpenKeyBindsAnywhere(t *testing.T) {
	codec := newTestCodec(t)
	key, err := codec.Encode(Payload{PharmacyID: 3, ExpiresAt: time.Now().Add(time.Hour), MachineID: OpenMachineID})
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}

	for _, machine := range []string{"AAAA111122223333", "FFFF000011112222", ""} {
		payload, err := codec.Decode(key, machine)
		if err != nil {
			t.Fatalf("open key rejected for machine %q: %v", machine, err)
		}
		if !payload.Open() {
			t.Fatalf("expected open payload, got machine %q", payload.MachineID)
		}
	}
}

func TestDecode_MachineMismatch(t *testing.T) {
	codec := newTestCodec(t)
	key, err := codec.Encode(Payload{PharmacyID: 3, ExpiresAt: time.Now().Add(time.Hour), MachineID: "M1M1M1M1M1M1M1M1"})
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}

	if _, err := codec.Decode(key, "M2M2M2M2M2M2M2M2"); !errors.Is(err, ErrInvalidLicense) {
		t.Fatalf("expected ErrInvalidLicense for wrong machine, got %v", err)
	}
	// Case-sensitive exact match only.
	if _, err := codec.Decode(key, "m1m1m1m1m1m1m1m1"); !errors.Is(err, ErrInvalidLicense) {
		t.Fatalf("expected case-sensitive machine comparison, got %v", err)
	}
	if _, err := codec.Decode(key, "M1M1M1M1M1M1M1M1"); err != nil {
		t.Fatalf("correct machine rejected: %v", err)
	}
}

func TestDecode_ExpiredKeyStillDecodes(t *testing.T) {
	codec := newTestCodec(t)
	expired := time.Now().Add(-48 * time.Hour)
	key, err := codec.Encode(Payload{PharmacyID: 9, ExpiresAt: expired, MachineID: OpenMachineID})
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}

	payload, err := codec.Decode(key, "ANYANYANYANYANY1")
	if err != nil {
		t.Fatalf("expired key should decode (expiry is the caller's concern): %v", err)
	}
	if !payload.ExpiresAt.Before(time.Now()) {
		t.Fatal("expected expiry in the past")
	}
}

func TestDecode_TamperSensitivity(t *testing.T) {
	codec := newTestCodec(t)
	key, err := codec.Encode(Payload{PharmacyID: 5, ExpiresAt: time.Now().Add(time.Hour), MachineID: OpenMachineID})
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}

	ivHex, cipherHex, _ := strings.Cut(key, ":")
	for i := 0; i < len(cipherHex); i++ {
		flipped := []byte(cipherHex)
		if flipped[i] == 'f' {
			flipped[i] = '0'
		} else {
			flipped[i] = 'f'
		}
		if string(flipped) == cipherHex {
			continue
		}
		tampered := ivHex + ":" + string(flipped)
		if _, err := codec.Decode(tampered, "whatever"); !errors.Is(err, ErrInvalidLicense) {
			t.Fatalf("tampering hex char %d did not invalidate the key: %v", i, err)
		}
	}
}

func TestDecode_MalformedKeys(t *testing.T) {
	codec := newTestCodec(t)

	cases := []struct {
		name string
		key  string
	}{
		{"empty", ""},
		{"no colon", "deadbeefdeadbeefdeadbeefdeadbeef"},
		{"empty iv", ":deadbeef"},
		{"empty ciphertext", "deadbeefdeadbeefdeadbeefdeadbeef:"},
		{"odd iv hex", "abc:deadbeef"},
		{"odd cipher hex", "deadbeefdeadbeefdeadbeefdeadbeef:abc"},
		{"non-hex iv", "zzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzz:deadbeef"},
		{"non-hex cipher", "deadbeefdeadbeefdeadbeefdeadbeef:zzzz"},
		{"short iv", "deadbeef:deadbeefdeadbeefdeadbeefdeadbeef"},
		{"cipher not block aligned", "deadbeefdeadbeefdeadbeefdeadbeef:deadbeef"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := codec.Decode(tc.key, "ANY"); !errors.Is(err, ErrInvalidLicense) {
				t.Fatalf("expected ErrInvalidLicense, got %v", err)
			}
		})
	}
}

func TestDecode_WrongSecret(t *testing.T) {
	codec := newTestCodec(t)
	other, err := NewCodec("another-secret", "test-salt")
	if err != nil {
		t.Fatalf("NewCodec failed: %v", err)
	}

	key, err := codec.Encode(Payload{PharmacyID: 2, ExpiresAt: time.Now().Add(time.Hour), MachineID: OpenMachineID})
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}

	if _, err := other.Decode(key, "ANY"); !errors.Is(err, ErrInvalidLicense) {
		t.Fatalf("expected decode under wrong secret to fail, got %v", err)
	}
}

func TestPKCS7_Unpad(t *testing.T) {
	if _, err := pkcs7Unpad([]byte{}, 16); err == nil {
		t.Fatal("empty input should fail unpadding")
	}
	padded := pkcs7Pad([]byte("pharmacy"), 16)
	if len(padded) != 16 {
		t.Fatalf("expected one padded block, got %d bytes", len(padded))
	}
	out, err := pkcs7Unpad(padded, 16)
	if err != nil {
		t.Fatalf("unpad failed: %v", err)
	}
	if string(out) != "pharmacy" {
		t.Fatalf("unexpected unpadded value %q", out)
	}
}
