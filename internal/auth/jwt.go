package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims carries the platform account id minted by the identity service.
// This service only verifies; tokens are issued elsewhere with the shared
// secret. GenerateJWT exists for the worker's service tokens and for tests.
type Claims struct {
	Account string `json:"account"`
	jwt.RegisteredClaims
}

// GenerateJWT signs a token expiring after the given duration. The duration is
// taken as-is; a non-positive value mints an already-expired token.
func GenerateJWT(secret, account string, expiration time.Duration) (string, error) {
	claims := Claims{
		Account: account,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(expiration)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			Issuer:    "loadhaul-escrow",
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

func ParseJWT(secret string, tokenStr string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}
	if claims.Account == "" {
		return nil, fmt.Errorf("token has no account claim")
	}
	return claims, nil
}
