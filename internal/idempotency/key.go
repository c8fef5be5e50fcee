package idempotency

import (
	"crypto/sha256"
	"encoding/hex"
)

// DeriveKey returns the client-supplied key when present, otherwise a stable
// hex SHA-256 fingerprint of the raw request body.
func DeriveKey(clientKey string, body []byte) string {
	if clientKey != "" {
		return clientKey
	}
	sum := sha256.Sum256(body)
	return hex.EncodeToString(sum[:])
}
