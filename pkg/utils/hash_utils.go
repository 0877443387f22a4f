package utils

import (
	"crypto/sha256"
	"encoding/hex"
)

// Hasher produces stable fingerprints for values that must never be logged
// in the clear (API keys, login e-mails, endpoint URLs).
type Hasher struct{}

// NewHasher creates a new hasher instance
func NewHasher() *Hasher {
	return &Hasher{}
}

// Fingerprint returns the hex SHA-256 digest of value, or "" for an empty value.
func (h *Hasher) Fingerprint(value string) string {
	if value == "" {
		return ""
	}
	sum := sha256.Sum256([]byte(value))
	return hex.EncodeToString(sum[:])
}

// ShortFingerprint returns the first 8 hex characters of the fingerprint.
// Useful for logging and display purposes
func (h *Hasher) ShortFingerprint(value string) string {
	full := h.Fingerprint(value)
	if len(full) >= 8 {
		return full[:8]
	}
	return full
}

var globalHasher = NewHasher()

// Fingerprint is a convenience function that uses the global hasher
func Fingerprint(value string) string {
	return globalHasher.Fingerprint(value)
}

// ShortFingerprint is a convenience function that uses the global hasher
func ShortFingerprint(value string) string {
	return globalHasher.ShortFingerprint(value)
}
