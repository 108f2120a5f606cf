package security

import (
	"strings"
	"testing"

	"github.com/rxpos/pharmacare-backend/pkg/config"
)

func testPasswordConfig() config.PasswordConfig {
	return config.PasswordConfig{
		ArgonMemoryKB:    8,
		ArgonTime:        1,
		ArgonParallelism: 1,
		ArgonSaltLen:     8,
		ArgonKeyLen:      16,
	}
}

func TestHashAndVerifyPassword(t *testing.T) {
	hash, err := HashPassword("counter-pass-1", testPasswordConfig())
	if err != nil {
		t.Fatalf("HashPassword failed: %v", err)
	}
	if !strings.HasPrefix(hash, "$argon2id$v=19$") {
		t.Fatalf("unexpected hash format %q", hash)
	}

	ok, err := VerifyPassword("counter-pass-1", hash)
	if err != nil {
		t.Fatalf("VerifyPassword failed: %v", err)
	}
	if !ok {
		t.Fatal("correct password rejected")
	}

	ok, err = VerifyPassword("wrong-pass", hash)
	if err != nil {
		t.Fatalf("VerifyPassword failed: %v", err)
	}
	if ok {
		t.Fatal("wrong password accepted")
	}
}

func TestHashPassword_RejectsEmpty(t *testing.T) {
	if _, err := HashPassword("", testPasswordConfig()); err == nil {
		t.Fatal("expected error for empty password")
	}
}

func TestVerifyPassword_MalformedHash(t *testing.T) {
	cases := []string{
		"",
		"plainly-not-a-hash",
		"$argon2i$v=19$m=8,t=1,p=1$c2FsdA$aGFzaA",
		"$argon2id$v=19$m=x,t=1,p=1$c2FsdA$aGFzaA",
		"$argon2id$v=19$m=8,t=1,p=1$!!!$aGFzaA",
	}
	for _, encoded := range cases {
		if _, err := VerifyPassword("whatever", encoded); err == nil {
			t.Fatalf("expected malformed hash %q to error", encoded)
		}
	}
}

func TestGenerateTempPassword(t *testing.T) {
	pass, err := GenerateTempPassword(12)
	if err != nil {
		t.Fatalf("GenerateTempPassword failed: %v", err)
	}
	if len(pass) != 12 {
		t.Fatalf("expected 12 chars, got %d", len(pass))
	}

	if _, err := GenerateTempPassword(0); err == nil {
		t.Fatal("expected error for non-positive length")
	}
}
