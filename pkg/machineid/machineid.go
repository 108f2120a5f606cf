// Package machineid derives the node-locked fingerprint licenses are bound
// to. The fingerprint is a pure function of host hardware state: non-loopback
// MAC addresses plus the CPU model, hashed and truncated. MAC-based
// fingerprints change when network hardware is swapped, which is an accepted
// limitation of offline node-locking.
package machineid

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"net"
	"os"
	"strings"
)

const (
	// fingerprintLen is the number of hex characters kept from the digest.
	fingerprintLen = 16

	unknownCPU = "unknown-cpu"

	cpuInfoPath = "/proc/cpuinfo"
)

// Fingerprint returns the 16-character uppercase hex identifier for this
// machine. It never fails: missing CPU info degrades to "unknown-cpu" and a
// host without qualifying interfaces hashes CPU info alone.
func Fingerprint() string {
	return fingerprintFrom(macAddresses(), cpuModel())
}

func fingerprintFrom(macs []string, cpu string) string {
	sum := sha256.Sum256([]byte(strings.Join(macs, "") + cpu))
	return strings.ToUpper(hex.EncodeToString(sum[:])[:fingerprintLen])
}

// macAddresses collects hardware addresses of non-loopback interfaces in
// enumeration order, skipping interfaces without a usable address.
func macAddresses() []string {
	ifaces, err := net.Interfaces()
	if err != nil {
		return nil
	}

	var macs []string
	for _, iface := range ifaces {
		if iface.Flags&net.FlagLoopback != 0 {
			continue
		}
		hw := iface.HardwareAddr
		if len(hw) == 0 || isNullAddr(hw) {
			continue
		}
		macs = append(macs, hw.String())
	}
	return macs
}

func isNullAddr(hw net.HardwareAddr) bool {
	return bytes.Equal(hw, make([]byte, len(hw)))
}

// cpuModel reads the first "model name" entry from /proc/cpuinfo. On hosts
// where that is not available the literal "unknown-cpu" keeps the
// fingerprint deterministic.
func cpuModel() string {
	data, err := os.ReadFile(cpuInfoPath)
	if err != nil {
		return unknownCPU
	}
	for _, line := range strings.Split(string(data), "\n") {
		key, value, found := strings.Cut(line, ":")
		if !found {
			continue
		}
		if strings.TrimSpace(key) == "model name" {
			if model := strings.TrimSpace(value); model != "" {
				return model
			}
		}
	}
	return unknownCPU
}
