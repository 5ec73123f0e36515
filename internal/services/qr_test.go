package services

import (
	"regexp"
	"testing"
	"time"

	"github.com/loadhaul/backend/internal/models"
)

func TestNewQRTokenFormat(t *testing.T) {
	tests := []struct {
		kind string
		want string
	}{
		{models.VerificationTypePickup, `^QR-PICKUP-[0-9a-f]{16}$`},
		{models.VerificationTypeDelivery, `^QR-DELIVERY-[0-9a-f]{16}$`},
	}
	for _, tt := range tests {
		t.Run(tt.kind, func(t *testing.T) {
			token := NewQRToken(tt.kind)
			if !regexp.MustCompile(tt.want).MatchString(token) {
				t.Errorf("token %q does not match %s", token, tt.want)
			}
		})
	}
}

func TestNewQRTokenUnique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		token := NewQRToken(models.VerificationTypePickup)
		if seen[token] {
			t.Fatalf("duplicate token %q after %d draws", token, i)
		}
		seen[token] = true
	}
}

func TestNewEscrowIDFormat(t *testing.T) {
	id := NewEscrowID("acc-shipper", "LOAD-1", time.Now())
	if !regexp.MustCompile(`^ESC-[0-9a-f]{12}$`).MatchString(id) {
		t.Errorf("id %q does not match ESC-<12 hex>", id)
	}
}

func TestNewEscrowIDUniquePerCall(t *testing.T) {
	now := time.Now()
	a := NewEscrowID("acc-shipper", "LOAD-1", now)
	b := NewEscrowID("acc-shipper", "LOAD-1", now)
	if a == b {
		t.Errorf("identical inputs produced identical ids %q", a)
	}
}
