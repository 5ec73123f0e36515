package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/loadhaul/backend/internal/config"
	"github.com/loadhaul/backend/internal/db"
	"github.com/loadhaul/backend/internal/events"
	apphttp "github.com/loadhaul/backend/internal/http"
	"github.com/loadhaul/backend/internal/http/handlers"
	"github.com/loadhaul/backend/internal/models"
	"github.com/loadhaul/backend/internal/repositories"
	"github.com/loadhaul/backend/internal/services"
	"go.uber.org/zap"
)

func main() {
	log, _ := zap.NewProduction()
	defer log.Sync()

	cfg := config.Load()
	cfg.Validate(log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Database
	pool, err := db.NewPostgresPool(ctx, cfg.PostgresDSN, 20, log)
	if err != nil {
		log.Fatal("failed to connect to postgres", zap.Error(err))
	}
	defer pool.Close()

	// Run migrations
	if err := db.RunMigrations(ctx, pool, "migrations", log); err != nil {
		log.Fatal("failed to run migrations", zap.Error(err))
	}

	// Redis
	rdb, err := db.NewRedisClient(ctx, cfg.RedisURL, log)
	if err != nil {
		log.Fatal("failed to connect to redis", zap.Error(err))
	}
	defer rdb.Close()

	// Repositories
	escrowRepo := repositories.NewEscrowRepo(pool)
	configRepo := repositories.NewConfigRepo(pool)
	auditRepo := repositories.NewAuditRepo(pool)

	// Seed protocol parameters on first start
	if err := configRepo.Seed(ctx, &models.ProtocolConfig{
		Admin:            cfg.AdminAccount,
		Treasury:         cfg.TreasuryAccount,
		CustodyAccount:   cfg.CustodyAccount,
		ReceiptIssuer:    cfg.ReceiptIssuerRef,
		PlatformFeeBPS:   cfg.PlatformFeeBPS,
		AutoReleaseDelay: cfg.AutoReleaseDelay,
	}); err != nil {
		log.Fatal("failed to seed protocol config", zap.Error(err))
	}

	// Events
	publisher := events.NewRedisPublisher(rdb, log)
	subscriber := events.NewRedisSubscriber(rdb, log)

	// Services
	ledger := services.NewLedgerClient(cfg.LedgerInternalURL, log)
	receipts := services.NewReceiptClient(cfg.ReceiptInternalURL, log)
	escrowService := services.NewEscrowService(escrowRepo, configRepo, auditRepo, ledger, receipts, publisher, log)

	// Handlers
	escrowHandler := handlers.NewEscrowHandler(escrowService, log)
	configHandler := handlers.NewConfigHandler(escrowService, log)
	wsHub := handlers.NewWSHub(cfg, subscriber, log)

	// Start WS hub
	wsHub.Start(ctx)

	// Fiber app
	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{"error": err.Error()})
		},
	})

	apphttp.SetupRouter(app, cfg, log, rdb, escrowHandler, configHandler, wsHub)

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Info("shutting down...")
		cancel()
		_ = app.Shutdown()
	}()

	addr := fmt.Sprintf(":%s", cfg.APIPort)
	log.Info("starting API server", zap.String("addr", addr))
	if err := app.Listen(addr); err != nil {
		log.Fatal("server error", zap.Error(err))
	}
}
