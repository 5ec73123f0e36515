package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/loadhaul/backend/internal/models"
)

// ConfigRepo owns the single-row protocol_config table.
type ConfigRepo struct {
	pool *pgxpool.Pool
}

func NewConfigRepo(pool *pgxpool.Pool) *ConfigRepo {
	return &ConfigRepo{pool: pool}
}

func (r *ConfigRepo) Get(ctx context.Context) (*models.ProtocolConfig, error) {
	var c models.ProtocolConfig
	var delaySeconds int64
	err := r.pool.QueryRow(ctx, `
		SELECT admin, treasury, custody_account, receipt_issuer, platform_fee_bps,
		       auto_release_delay_seconds, updated_at
		FROM protocol_config WHERE singleton = true
	`).Scan(&c.Admin, &c.Treasury, &c.CustodyAccount, &c.ReceiptIssuer, &c.PlatformFeeBPS,
		&delaySeconds, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	c.AutoReleaseDelay = time.Duration(delaySeconds) * time.Second
	return &c, nil
}

// Update atomically replaces fee rate, treasury and receipt issuer.
func (r *ConfigRepo) Update(ctx context.Context, feeBPS int, treasury, receiptIssuer string) (*models.ProtocolConfig, error) {
	_, err := r.pool.Exec(ctx, `
		UPDATE protocol_config
		SET platform_fee_bps = $1, treasury = $2, receipt_issuer = $3, updated_at = now()
		WHERE singleton = true
	`, feeBPS, treasury, receiptIssuer)
	if err != nil {
		return nil, err
	}
	return r.Get(ctx)
}

// Seed inserts the bootstrap row if none exists yet. Re-running is a no-op so
// restarts never clobber admin-applied changes.
func (r *ConfigRepo) Seed(ctx context.Context, c *models.ProtocolConfig) error {
	_, err := r.Get(ctx)
	if err == nil {
		return nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return err
	}

	_, err = r.pool.Exec(ctx, `
		INSERT INTO protocol_config (singleton, admin, treasury, custody_account, receipt_issuer,
		                             platform_fee_bps, auto_release_delay_seconds)
		VALUES (true, $1, $2, $3, $4, $5, $6)
		ON CONFLICT (singleton) DO NOTHING
	`, c.Admin, c.Treasury, c.CustodyAccount, c.ReceiptIssuer, c.PlatformFeeBPS,
		int64(c.AutoReleaseDelay.Seconds()))
	return err
}
