// Package licensing implements the offline node-locked license codec. A
// license key is the textual form `hex(iv):hex(ciphertext)` where the
// ciphertext is the JSON payload encrypted with AES-256-CBC under a key
// derived from a server-side secret via scrypt.
package licensing

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/crypto/scrypt"
)

// OpenMachineID is the sentinel for a key not yet bound to any machine. An
// open key decodes successfully against every fingerprint, which is what
// makes first activation possible.
const OpenMachineID = "OPEN"

const (
	ivSize  = 16
	keySize = 32

	scryptN = 16384
	scryptR = 8
	scryptP = 1
)

// ErrInvalidLicense is the single failure mode Decode exposes. Malformed
// framing, tampered ciphertext, and wrong-machine keys all collapse into it
// so callers probing key validity learn nothing structural.
var ErrInvalidLicense = errors.New("invalid license")

// Payload is the plaintext embedded in every license key. Expiry is carried
// but never checked here: a key can be structurally and machine valid yet
// temporally expired, and that distinction belongs to the caller.
type Payload struct {
	PharmacyID uint      `json:"pharmacyId"`
	ExpiresAt  time.Time `json:"expiresAt"`
	MachineID  string    `json:"machineId"`
}

// Open reports whether the payload is not yet bound to a machine.
func (p Payload) Open() bool {
	return p.MachineID == OpenMachineID
}

// Codec encrypts and decrypts license payloads. The secret and salt are
// injected at construction so the codec never reads ambient environment and
// stays testable with fixed key material.
type Codec struct {
	key []byte
}

// NewCodec derives the symmetric key once via scrypt. The same secret/salt
// pair always derives the same key material.
func NewCodec(secret, salt string) (*Codec, error) {
	if secret == "" {
		return nil, fmt.Errorf("license secret is required")
	}
	if salt == "" {
		return nil, fmt.Errorf("license salt is required")
	}
	key, err := scrypt.Key([]byte(secret), []byte(salt), scryptN, scryptR, scryptP, keySize)
	if err != nil {
		return nil, fmt.Errorf("deriving license key: %w", err)
	}
	return &Codec{key: key}, nil
}

// Encode serializes and encrypts the payload into the wire form
// `hex(iv):hex(ciphertext)` with a fresh random IV per call.
func (c *Codec) Encode(payload Payload) (string, error) {
	if payload.MachineID == "" {
		return "", fmt.Errorf("machine id is required (use %q for unbound keys)", OpenMachineID)
	}

	plaintext, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("serializing license payload: %w", err)
	}

	iv := make([]byte, ivSize)
	if _, err := rand.Read(iv); err != nil {
		return "", fmt.Errorf("generating iv: %w", err)
	}

	block, err := aes.NewCipher(c.key)
	if err != nil {
		return "", fmt.Errorf("initializing cipher: %w", err)
	}

	padded := pkcs7Pad(plaintext, block.BlockSize())
	ciphertext := make([]byte, len(padded))
	cipher.NewCBCEncrypter(block, iv).CryptBlocks(ciphertext, padded)

	return hex.EncodeToString(iv) + ":" + hex.EncodeToString(ciphertext), nil
}

// Decode parses, decrypts, and machine-checks a key. Every failure returns
// ErrInvalidLicense. Expiry is deliberately not checked.
func (c *Codec) Decode(key, currentMachineID string) (*Payload, error) {
	ivHex, cipherHex, found := strings.Cut(key, ":")
	if !found || ivHex == "" || cipherHex == "" {
		return nil, ErrInvalidLicense
	}
	if len(ivHex)%2 != 0 || len(cipherHex)%2 != 0 {
		return nil, ErrInvalidLicense
	}

	iv, err := hex.DecodeString(ivHex)
	if err != nil || len(iv) != ivSize {
		return nil, ErrInvalidLicense
	}
	ciphertext, err := hex.DecodeString(cipherHex)
	if err != nil {
		return nil, ErrInvalidLicense
	}

	block, err := aes.NewCipher(c.key)
	if err != nil {
		return nil, ErrInvalidLicense
	}
	if len(ciphertext) == 0 || len(ciphertext)%block.BlockSize() != 0 {
		return nil, ErrInvalidLicense
	}

	plaintext := make([]byte, len(ciphertext))
	cipher.NewCBCDecrypter(block, iv).CryptBlocks(plaintext, ciphertext)

	unpadded, err := pkcs7Unpad(plaintext, block.BlockSize())
	if err != nil {
		return nil, ErrInvalidLicense
	}

	var payload Payload
	if err := json.Unmarshal(unpadded, &payload); err != nil {
		return nil, ErrInvalidLicense
	}
	if payload.PharmacyID == 0 || payload.MachineID == "" || payload.ExpiresAt.IsZero() {
		return nil, ErrInvalidLicense
	}

	if !payload.Open() && payload.MachineID != currentMachineID {
		return nil, ErrInvalidLicense
	}

	return &payload, nil
}

func pkcs7Pad(data []byte, blockSize int) []byte {
	padding := blockSize - len(data)%blockSize
	return append(data, bytes.Repeat([]byte{byte(padding)}, padding)...)
}

func pkcs7Unpad(data []byte, blockSize int) ([]byte, error) {
	if len(data) == 0 || len(data)%blockSize != 0 {
		return nil, ErrInvalidLicense
	}
	padding := int(data[len(data)-1])
	if padding == 0 || padding > blockSize || padding > len(data) {
		return nil, ErrInvalidLicense
	}
	for _, b := range data[len(data)-padding:] {
		if int(b) != padding {
			return nil, ErrInvalidLicense
		}
	}
	return data[:len(data)-padding], nil
}
