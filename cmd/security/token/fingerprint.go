package token

import (
	"crypto/sha256"
	"encoding/hex"
)

const fingerprintLen = 12

// HashSHA256Hex returns a SHA-256 hex digest of s.
func HashSHA256Hex(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}

// Fingerprint returns a short, non-reversible tag for tok that is safe to log.
func Fingerprint(tok string) string {
	if tok == "" {
		return ""
	}
	return HashSHA256Hex(tok)[:fingerprintLen]
}
