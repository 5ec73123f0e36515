package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/loadhaul/backend/internal/config"
	"github.com/loadhaul/backend/internal/db"
	"github.com/loadhaul/backend/internal/events"
	"github.com/loadhaul/backend/internal/repositories"
	"github.com/loadhaul/backend/internal/services"
	"go.uber.org/zap"
)

// The worker drives silent-acceptance auto-release: it periodically scans
// delivery-confirmed escrows whose grace period has elapsed and pushes each
// through the same guarded release path the API uses. Running it alongside a
// manual release, or running two workers, is safe: the transition is a CAS
// and the ledger dedupes the transfer references.
func main() {
	log, _ := zap.NewProduction()
	defer log.Sync()

	cfg := config.Load()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool, err := db.NewPostgresPool(ctx, cfg.PostgresDSN, 4, log)
	if err != nil {
		log.Fatal("failed to connect to postgres", zap.Error(err))
	}
	defer pool.Close()

	rdb, err := db.NewRedisClient(ctx, cfg.RedisURL, log)
	if err != nil {
		log.Fatal("failed to connect to redis", zap.Error(err))
	}
	defer rdb.Close()

	escrowRepo := repositories.NewEscrowRepo(pool)
	configRepo := repositories.NewConfigRepo(pool)
	auditRepo := repositories.NewAuditRepo(pool)

	publisher := events.NewRedisPublisher(rdb, log)
	ledger := services.NewLedgerClient(cfg.LedgerInternalURL, log)
	receipts := services.NewReceiptClient(cfg.ReceiptInternalURL, log)
	escrowService := services.NewEscrowService(escrowRepo, configRepo, auditRepo, ledger, receipts, publisher, log)

	log.Info("worker started", zap.Duration("scan_interval", cfg.ReleaseScanInterval))

	releaseTicker := time.NewTicker(cfg.ReleaseScanInterval)
	defer releaseTicker.Stop()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	for {
		select {
		case <-releaseTicker.C:
			if n := escrowService.ReleaseDue(ctx, cfg.ReleaseScanBatch); n > 0 {
				log.Info("auto-release pass complete", zap.Int("released", n))
			}
		case <-sigCh:
			log.Info("shutting down worker")
			cancel()
			return
		case <-ctx.Done():
			return
		}
	}
}
