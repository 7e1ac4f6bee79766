// Package fingerprint derives stable event IDs for payloads that arrive
// without one. The hash primitive sits behind a capability interface so the
// pipeline never references a specific crypto API; swap the implementation
// for constrained runtimes without touching pipeline logic.
package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
)

// Hasher produces a stable hex digest for a byte payload.
type Hasher interface {
	Sum(data []byte) string
}

// SHA256 is the default Hasher.
type SHA256 struct{}

// Sum returns the hex-encoded SHA-256 digest of data.
func (SHA256) Sum(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// EventID derives a deterministic event ID from a source kind and raw body.
// Identical deliveries map to the same ID, which is what makes redelivered
// webhooks without upstream IDs idempotent.
func EventID(h Hasher, source string, body []byte) string {
	payload := make([]byte, 0, len(source)+1+len(body))
	payload = append(payload, source...)
	payload = append(payload, ':')
	payload = append(payload, body...)
	return h.Sum(payload)
}
