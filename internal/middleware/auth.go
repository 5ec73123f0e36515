package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/loadhaul/backend/internal/auth"
	"github.com/loadhaul/backend/internal/config"
	"go.uber.org/zap"
)

const CtxAccount = "account"

func AuthMiddleware(cfg *config.Config, log *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		tokenStr := bearerToken(c)
		if tokenStr == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "missing or malformed authorization header"})
		}

		claims, err := auth.ParseJWT(cfg.JWTSecret, tokenStr)
		if err != nil {
			log.Debug("jwt parse error", zap.Error(err))
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "invalid or expired token"})
		}

		c.Locals(CtxAccount, claims.Account)
		return c.Next()
	}
}

// OptionalAuthMiddleware attaches the caller account when a valid token is
// present but lets anonymous requests through. QR scans use this so field
// devices without a session can still present a code.
func OptionalAuthMiddleware(cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if tokenStr := bearerToken(c); tokenStr != "" {
			if claims, err := auth.ParseJWT(cfg.JWTSecret, tokenStr); err == nil {
				c.Locals(CtxAccount, claims.Account)
			}
		}
		return c.Next()
	}
}

func bearerToken(c *fiber.Ctx) string {
	header := c.Get("Authorization")
	if header == "" {
		return ""
	}
	token := strings.TrimPrefix(header, "Bearer ")
	if token == header {
		return ""
	}
	return token
}

// GetAccount returns the authenticated caller account, or "" for anonymous.
func GetAccount(c *fiber.Ctx) string {
	account, _ := c.Locals(CtxAccount).(string)
	return account
}
