package services

import "errors"

// Error taxonomy surfaced to callers. Every validation failure is detected
// before any side effect; handlers match with errors.Is.
var (
	ErrNotFound               = errors.New("escrow not found")
	ErrInvalidAmount          = errors.New("amount must be greater than 0")
	ErrInvalidStateTransition = errors.New("invalid state transition")
	ErrQRMismatch             = errors.New("qr code invalid, already used, or not valid in current state")
	ErrTransferFailed         = errors.New("ledger transfer failed")
	ErrInvalidFeeRate         = errors.New("platform fee rate cannot exceed 10000 bps")
	ErrUnauthorized           = errors.New("caller is not authorized for this operation")
)
