package models

import "time"

// ProtocolConfig is the singleton protocol parameter set. It is seeded once at
// bootstrap and afterwards mutated only through the admin update operation,
// which replaces fee rate, treasury and receipt issuer atomically.
type ProtocolConfig struct {
	Admin            string        `json:"admin"`
	Treasury         string        `json:"treasury"`
	CustodyAccount   string        `json:"custody_account"`
	ReceiptIssuer    string        `json:"receipt_issuer"`
	PlatformFeeBPS   int           `json:"platform_fee_bps"` // 10000 = 100%
	AutoReleaseDelay time.Duration `json:"auto_release_delay"`
	UpdatedAt        time.Time     `json:"updated_at"`
}

// FeeFor computes the platform fee for a gross amount at the configured rate,
// flooring like amount*bps/10000 but split so the product cannot overflow
// int64 for any valid amount. Never exceeds amount while PlatformFeeBPS <= 10000.
func (c *ProtocolConfig) FeeFor(amount int64) int64 {
	bps := int64(c.PlatformFeeBPS)
	return amount/10000*bps + amount%10000*bps/10000
}
