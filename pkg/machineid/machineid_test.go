package machineid

import (
	"net"
	"regexp"
	"testing"
)

var fingerprintPattern = regexp.MustCompile(`^[0-9A-F]{16}$`)

func TestFingerprint_ShapeAndDeterminism(t *testing.T) {
	first := Fingerprint()
	if !fingerprintPattern.MatchString(first) {
		t.Fatalf("fingerprint %q is not 16 uppercase hex chars", first)
	}

	second := Fingerprint()
	if first != second {
		t.Fatalf("fingerprint not stable across calls: %q vs %q", first, second)
	}
}

func TestFingerprintFrom_DependsOnInputs(t *testing.T) {
	a := fingerprintFrom([]string{"aa:bb:cc:dd:ee:ff"}, "cpu-1")
	b := fingerprintFrom([]string{"aa:bb:cc:dd:ee:00"}, "cpu-1")
	c := fingerprintFrom([]string{"aa:bb:cc:dd:ee:ff"}, "cpu-2")

	if a == b {
		t.Fatal("different MACs produced the same fingerprint")
	}
	if a == c {
		t.Fatal("different CPU models produced the same fingerprint")
	}
	if !fingerprintPattern.MatchString(a) {
		t.Fatalf("fingerprint %q is not 16 uppercase hex chars", a)
	}
}

func TestFingerprintFrom_EmptyMACListStillHashes(t *testing.T) {
	got := fingerprintFrom(nil, "unknown-cpu")
	if !fingerprintPattern.MatchString(got) {
		t.Fatalf("degenerate fingerprint %q is not 16 uppercase hex chars", got)
	}
}

func TestIsNullAddr(t *testing.T) {
	if !isNullAddr(net.HardwareAddr{0, 0, 0, 0, 0, 0}) {
		t.Fatal("all-zero address should be treated as null")
	}
	if isNullAddr(net.HardwareAddr{0xaa, 0, 0, 0, 0, 1}) {
		t.Fatal("non-zero address misdetected as null")
	}
}
