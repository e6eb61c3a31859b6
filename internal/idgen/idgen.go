// Package idgen provides cryptographically random ID generation.
package idgen

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"
)

// Hex generates a random hex string of the given byte length.
func Hex(numBytes int) string {
	b := make([]byte, numBytes)
	if _, err := rand.Read(b); err != nil {
		panic("crypto/rand failed: " + err.Error())
	}
	return hex.EncodeToString(b)
}

// WithPrefix generates a random ID with a prefix (e.g. "dbi_", "req_").
// Result is prefix + 24 hex chars (12 random bytes).
func WithPrefix(prefix string) string {
	return prefix + Hex(12)
}

// Timestamped generates an ID of the form prefix_<unix>_<hex suffix>.
// The timestamp makes IDs roughly sortable; the random suffix makes
// collisions within a second vanishingly unlikely.
func Timestamped(prefix string) string {
	return fmt.Sprintf("%s_%d_%s", prefix, time.Now().Unix(), Hex(4))
}
