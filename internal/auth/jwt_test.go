package auth

import (
	"testing"
	"time"
)

func TestJWTRoundTrip(t *testing.T) {
	token, err := GenerateJWT("test-secret", "acc-shipper-1", time.Hour)
	if err != nil {
		t.Fatalf("GenerateJWT: %v", err)
	}

	claims, err := ParseJWT("test-secret", token)
	if err != nil {
		t.Fatalf("ParseJWT: %v", err)
	}
	if claims.Account != "acc-shipper-1" {
		t.Errorf("account = %q, want %q", claims.Account, "acc-shipper-1")
	}
}

func TestJWTWrongSecret(t *testing.T) {
	token, err := GenerateJWT("test-secret", "acc-shipper-1", time.Hour)
	if err != nil {
		t.Fatalf("GenerateJWT: %v", err)
	}

	if _, err := ParseJWT("other-secret", token); err == nil {
		t.Error("expected parse failure with wrong secret")
	}
}

func TestJWTExpired(t *testing.T) {
	token, err := GenerateJWT("test-secret", "acc-shipper-1", -time.Minute)
	if err != nil {
		t.Fatalf("GenerateJWT: %v", err)
	}

	if _, err := ParseJWT("test-secret", token); err == nil {
		t.Error("expected parse failure for expired token")
	}
}

func TestJWTEmptyAccount(t *testing.T) {
	token, err := GenerateJWT("test-secret", "", time.Hour)
	if err != nil {
		t.Fatalf("GenerateJWT: %v", err)
	}

	if _, err := ParseJWT("test-secret", token); err == nil {
		t.Error("expected parse failure for token without account claim")
	}
}
