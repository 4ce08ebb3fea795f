package signature

import (
	"crypto/sha256"
	"encoding/hex"
)

// Fingerprint returns the hex SHA-256 of the canonical state.
// It returns "" when the state cannot be encoded.
func Fingerprint(state map[string]any) string {
	canonical, err := Canonical(state)
	if err != nil {
		return ""
	}
	sum := sha256.Sum256(canonical)
	return hex.EncodeToString(sum[:])
}
