package hasher

import (
	"crypto/sha256"
	"encoding/hex"
)

// Hash returns the hex SHA-256 digest of s. Used for storing refresh tokens
// at rest without keeping the token itself.
func Hash(s string) string {
	h := sha256.Sum256([]byte(s))
	return hex.EncodeToString(h[:])
}

// Verify compares s against a previously computed digest.
func Verify(s, digest string) bool {
	return Hash(s) == digest
}

// SumBytes is Hash for raw bytes.
func SumBytes(b []byte) string {
	h := sha256.Sum256(b)
	return hex.EncodeToString(h[:])
}
