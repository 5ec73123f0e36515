package dto

type CreateEscrowRequest struct {
	LoadID    string  `json:"load_id"`
	Driver    string  `json:"driver"`
	Warehouse *string `json:"warehouse,omitempty"`
	Amount    int64   `json:"amount"`
	Metadata  string  `json:"metadata"`
}

type VerifyQRRequest struct {
	Code     string  `json:"code"`
	Location *string `json:"location,omitempty"`
}

type DisputeEscrowRequest struct {
	Reason string `json:"reason"`
}

type ResolveDisputeRequest struct {
	ReleaseToDriver bool `json:"release_to_driver"`
}

type UpdateConfigRequest struct {
	PlatformFeeBPS int    `json:"platform_fee_bps"`
	Treasury       string `json:"treasury"`
	ReceiptIssuer  string `json:"receipt_issuer"`
}
