package http

import (
	"time"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/loadhaul/backend/internal/config"
	"github.com/loadhaul/backend/internal/http/handlers"
	"github.com/loadhaul/backend/internal/middleware"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func SetupRouter(
	app *fiber.App,
	cfg *config.Config,
	log *zap.Logger,
	rdb *redis.Client,
	escrowHandler *handlers.EscrowHandler,
	configHandler *handlers.ConfigHandler,
	wsHub *handlers.WSHub,
) {
	// Global middleware
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization, X-Request-ID",
	}))
	app.Use(middleware.RequestIDMiddleware())
	app.Use(middleware.LoggerMiddleware(log))

	// Health check
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	api := app.Group("/api/v1")

	// The limiter runs after auth so it can key on the account.
	rateLimit := middleware.RateLimitMiddleware(rdb, cfg.RateLimitPerMin, time.Minute)

	// QR endpoints take anonymous scans: warehouse scanners and driver phones
	// in the field may not carry a session.
	scan := api.Group("", middleware.OptionalAuthMiddleware(cfg), rateLimit)
	scan.Post("/escrows/:id/verify-qr", escrowHandler.VerifyQR)
	scan.Get("/qr/:code", escrowHandler.LookupQR)

	// Protected endpoints
	protected := api.Group("", middleware.AuthMiddleware(cfg, log), rateLimit)

	// Escrows
	protected.Post("/escrows", escrowHandler.CreateEscrow)
	protected.Get("/escrows", escrowHandler.ListEscrows)
	protected.Get("/escrows/:id", escrowHandler.GetEscrow)
	protected.Get("/escrows/:id/events", escrowHandler.GetEscrowEvents)
	protected.Post("/escrows/:id/fund", escrowHandler.FundEscrow)
	protected.Post("/escrows/:id/release", escrowHandler.ReleasePayment)
	protected.Post("/escrows/:id/dispute", escrowHandler.DisputeEscrow)
	protected.Post("/escrows/:id/cancel", escrowHandler.CancelEscrow)

	// Admin-gated in the service against the config store's admin account
	protected.Post("/escrows/:id/resolve", escrowHandler.ResolveDispute)
	protected.Get("/config", configHandler.GetConfig)
	protected.Put("/config", configHandler.UpdateConfig)

	// WebSocket
	app.Use("/ws", handlers.WSUpgradeMiddleware())
	app.Get("/ws", websocket.New(wsHub.HandleWS))
}
