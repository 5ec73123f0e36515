package dto

type ErrorResponse struct {
	Error     string `json:"error"`
	RequestID string `json:"request_id,omitempty"`
}

type SuccessResponse struct {
	OK   bool `json:"ok"`
	Data any  `json:"data,omitempty"`
}

// VerifyQRResponse carries both the updated escrow and the best-effort receipt
// outcome so clients can't mistake "state changed" for "receipt issued".
type VerifyQRResponse struct {
	OK      bool `json:"ok"`
	Escrow  any  `json:"escrow"`
	Receipt any  `json:"receipt,omitempty"`
}
