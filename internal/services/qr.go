package services

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"
)

// NewQRToken returns an unpredictable single-purpose verification token,
// e.g. QR-PICKUP-3f9c2a1d77b04e55. 8 random bytes keep collisions across all
// active escrows out of reach; the store's unique index is the backstop.
func NewQRToken(kind string) string {
	buf := make([]byte, 8)
	if _, err := rand.Read(buf); err != nil {
		// crypto/rand failing means the process has bigger problems
		panic(fmt.Sprintf("qr token entropy unavailable: %v", err))
	}
	return fmt.Sprintf("QR-%s-%s", strings.ToUpper(kind), hex.EncodeToString(buf))
}

// NewEscrowID derives an identifier of the form ESC-<12 hex> from the shipper,
// the load reference, the creation instant and fresh entropy.
func NewEscrowID(shipper, loadID string, now time.Time) string {
	buf := make([]byte, 8)
	_, _ = rand.Read(buf)

	h := sha256.New()
	h.Write([]byte(shipper))
	h.Write([]byte(loadID))
	h.Write([]byte(now.UTC().Format(time.RFC3339Nano)))
	h.Write(buf)
	return "ESC-" + hex.EncodeToString(h.Sum(nil))[:12]
}
