package models

import "time"

// EscrowStatus is a closed set: the transitions table below must list every
// member, so adding a state forces each transition site to be revisited.
type EscrowStatus string

const (
	EscrowStatusCreated           EscrowStatus = "created"
	EscrowStatusFunded            EscrowStatus = "funded"
	EscrowStatusPickupConfirmed   EscrowStatus = "pickup_confirmed"
	EscrowStatusInTransit         EscrowStatus = "in_transit"
	EscrowStatusDeliveryConfirmed EscrowStatus = "delivery_confirmed"
	EscrowStatusReleased          EscrowStatus = "released"
	EscrowStatusDisputed          EscrowStatus = "disputed"
	EscrowStatusRefunded          EscrowStatus = "refunded"
	EscrowStatusCancelled         EscrowStatus = "cancelled"
)

// Valid state transitions: from -> []to.
// Cancellation is only legal before funds move; once funded the dispute path
// is the only way out. pickup_confirmed accepts the delivery code directly as
// a re-entry guard for scans arriving before the departure flip lands.
var ValidEscrowTransitions = map[EscrowStatus][]EscrowStatus{
	EscrowStatusCreated:           {EscrowStatusFunded, EscrowStatusCancelled},
	EscrowStatusFunded:            {EscrowStatusPickupConfirmed, EscrowStatusDisputed},
	EscrowStatusPickupConfirmed:   {EscrowStatusInTransit, EscrowStatusDeliveryConfirmed, EscrowStatusDisputed},
	EscrowStatusInTransit:         {EscrowStatusDeliveryConfirmed, EscrowStatusDisputed},
	EscrowStatusDeliveryConfirmed: {EscrowStatusReleased, EscrowStatusDisputed},
	EscrowStatusDisputed:          {EscrowStatusReleased, EscrowStatusRefunded},
	EscrowStatusReleased:          {},
	EscrowStatusRefunded:          {},
	EscrowStatusCancelled:         {},
}

func IsValidTransition(from, to EscrowStatus) bool {
	allowed, ok := ValidEscrowTransitions[from]
	if !ok {
		return false
	}
	for _, s := range allowed {
		if s == to {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transition is permitted from s.
func IsTerminal(s EscrowStatus) bool {
	allowed, ok := ValidEscrowTransitions[s]
	return ok && len(allowed) == 0
}

// Escrow is the custody record for one shipment-payment pair. Amounts are in
// e8s. Everything except status, nft_token_id, the confirmation timestamps
// and updated_at is immutable after creation.
type Escrow struct {
	ID                  string       `json:"id"`
	LoadID              string       `json:"load_id"`
	Shipper             string       `json:"shipper"`
	Driver              string       `json:"driver"`
	Warehouse           *string      `json:"warehouse,omitempty"`
	Amount              int64        `json:"amount"`
	PlatformFee         int64        `json:"platform_fee"`
	Status              EscrowStatus `json:"status"`
	PickupQR            string       `json:"pickup_qr"`
	DeliveryQR          string       `json:"delivery_qr"`
	NFTTokenID          *int64       `json:"nft_token_id,omitempty"`
	Metadata            string       `json:"metadata"`
	PickupConfirmedAt   *time.Time   `json:"pickup_confirmed_at,omitempty"`
	DeliveryConfirmedAt *time.Time   `json:"delivery_confirmed_at,omitempty"`
	CreatedAt           time.Time    `json:"created_at"`
	UpdatedAt           time.Time    `json:"updated_at"`
}

// Participants returns the accounts party to the escrow.
func (e *Escrow) Participants() []string {
	accounts := []string{e.Shipper, e.Driver}
	if e.Warehouse != nil && *e.Warehouse != "" {
		accounts = append(accounts, *e.Warehouse)
	}
	return accounts
}

// IsParticipant reports whether the account is a party to the escrow.
func (e *Escrow) IsParticipant(account string) bool {
	if account == "" {
		return false
	}
	if e.Shipper == account || e.Driver == account {
		return true
	}
	return e.Warehouse != nil && *e.Warehouse == account
}
