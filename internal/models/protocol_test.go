package models

import (
	"math"
	"testing"
)

func TestFeeFor(t *testing.T) {
	tests := []struct {
		name   string
		bps    int
		amount int64
		want   int64
	}{
		{"typical rate", 250, 1_000_000, 25_000},
		{"zero rate", 0, 1_000_000, 0},
		{"full rate", 10000, 1_000_000, 1_000_000},
		{"floors remainder", 250, 999, 24},
		{"one unit", 250, 1, 0},
		{"full rate on huge amount", 10000, math.MaxInt64 - 9999, math.MaxInt64 - 9999},
		{"half rate on huge amount", 5000, 9_000_000_000_000_000_000, 4_500_000_000_000_000_000},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := ProtocolConfig{PlatformFeeBPS: tt.bps}
			if got := cfg.FeeFor(tt.amount); got != tt.want {
				t.Errorf("FeeFor(%d) at %d bps = %d, want %d", tt.amount, tt.bps, got, tt.want)
			}
		})
	}
}

// The split formula must agree with the naive product wherever the product
// itself fits in 64 bits.
func TestFeeForMatchesNaiveProduct(t *testing.T) {
	for _, bps := range []int{1, 250, 3333, 9999, 10000} {
		for _, amount := range []int64{0, 1, 9999, 10000, 10001, 123_456_789, 1_000_000_000_000} {
			cfg := ProtocolConfig{PlatformFeeBPS: bps}
			want := amount * int64(bps) / 10000
			if got := cfg.FeeFor(amount); got != want {
				t.Errorf("FeeFor(%d) at %d bps = %d, want %d", amount, bps, got, want)
			}
		}
	}
}
