package models

import "time"

const (
	VerificationTypePickup   = "pickup"
	VerificationTypeDelivery = "delivery"
)

// QRVerification is the append-only audit record of a successful proof scan.
// At most one row exists per escrow for pickup and one for delivery, enforced
// by a unique index. Rows are never mutated or deleted.
type QRVerification struct {
	ID               int64     `json:"id"`
	EscrowID         string    `json:"escrow_id"`
	QRCode           string    `json:"qr_code"`
	VerificationType string    `json:"verification_type"`
	VerifiedBy       *string   `json:"verified_by,omitempty"` // nil for anonymous scans
	VerifiedAt       time.Time `json:"verified_at"`
	Location         *string   `json:"location,omitempty"`
}
