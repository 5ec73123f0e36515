package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/loadhaul/backend/internal/models"
	"github.com/loadhaul/backend/internal/services"
)

const escrowColumns = `id, load_id, shipper, driver, warehouse, amount, platform_fee, status,
	       pickup_qr, delivery_qr, nft_token_id, metadata,
	       pickup_confirmed_at, delivery_confirmed_at, created_at, updated_at`

// EscrowRepo owns the escrows and qr_verifications tables. Status flips are
// guarded updates (WHERE status = expected) so concurrent attempts resolve to
// exactly one winner; callers learn via the returned bool.
type EscrowRepo struct {
	pool *pgxpool.Pool
}

func NewEscrowRepo(pool *pgxpool.Pool) *EscrowRepo {
	return &EscrowRepo{pool: pool}
}

func (r *EscrowRepo) Create(ctx context.Context, e *models.Escrow) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO escrows (id, load_id, shipper, driver, warehouse, amount, platform_fee, status,
		                     pickup_qr, delivery_qr, metadata, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $12)
	`, e.ID, e.LoadID, e.Shipper, e.Driver, e.Warehouse, e.Amount, e.PlatformFee, e.Status,
		e.PickupQR, e.DeliveryQR, e.Metadata, e.CreatedAt)
	return err
}

func (r *EscrowRepo) scanEscrow(row pgx.Row) (*models.Escrow, error) {
	var e models.Escrow
	err := row.Scan(&e.ID, &e.LoadID, &e.Shipper, &e.Driver, &e.Warehouse, &e.Amount, &e.PlatformFee, &e.Status,
		&e.PickupQR, &e.DeliveryQR, &e.NFTTokenID, &e.Metadata,
		&e.PickupConfirmedAt, &e.DeliveryConfirmedAt, &e.CreatedAt, &e.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, services.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func (r *EscrowRepo) GetByID(ctx context.Context, id string) (*models.Escrow, error) {
	return r.scanEscrow(r.pool.QueryRow(ctx,
		fmt.Sprintf(`SELECT %s FROM escrows WHERE id = $1`, escrowColumns), id))
}

func (r *EscrowRepo) collect(rows pgx.Rows) ([]models.Escrow, error) {
	defer rows.Close()
	var escrows []models.Escrow
	for rows.Next() {
		var e models.Escrow
		if err := rows.Scan(&e.ID, &e.LoadID, &e.Shipper, &e.Driver, &e.Warehouse, &e.Amount, &e.PlatformFee, &e.Status,
			&e.PickupQR, &e.DeliveryQR, &e.NFTTokenID, &e.Metadata,
			&e.PickupConfirmedAt, &e.DeliveryConfirmedAt, &e.CreatedAt, &e.UpdatedAt); err != nil {
			return nil, err
		}
		escrows = append(escrows, e)
	}
	return escrows, rows.Err()
}

func (r *EscrowRepo) ListByStatus(ctx context.Context, status models.EscrowStatus, limit int) ([]models.Escrow, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	rows, err := r.pool.Query(ctx, fmt.Sprintf(`
		SELECT %s FROM escrows WHERE status = $1 ORDER BY created_at DESC LIMIT $2
	`, escrowColumns), status, limit)
	if err != nil {
		return nil, err
	}
	return r.collect(rows)
}

func (r *EscrowRepo) ListByParticipant(ctx context.Context, account string, limit int) ([]models.Escrow, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	rows, err := r.pool.Query(ctx, fmt.Sprintf(`
		SELECT %s FROM escrows
		WHERE shipper = $1 OR driver = $1 OR warehouse = $1
		ORDER BY created_at DESC LIMIT $2
	`, escrowColumns), account, limit)
	if err != nil {
		return nil, err
	}
	return r.collect(rows)
}

// ListAutoReleasable returns delivery-confirmed escrows whose grace period has
// elapsed. The scheduler re-drives these through the normal release path.
func (r *EscrowRepo) ListAutoReleasable(ctx context.Context, delay time.Duration, limit int) ([]models.Escrow, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	rows, err := r.pool.Query(ctx, fmt.Sprintf(`
		SELECT %s FROM escrows
		WHERE status = $1
		  AND delivery_confirmed_at IS NOT NULL
		  AND delivery_confirmed_at + ($2 || ' seconds')::interval <= now()
		ORDER BY delivery_confirmed_at ASC LIMIT $3
	`, escrowColumns), models.EscrowStatusDeliveryConfirmed, fmt.Sprintf("%d", int(delay.Seconds())), limit)
	if err != nil {
		return nil, err
	}
	return r.collect(rows)
}

// --- guarded transitions ---

func (r *EscrowRepo) cas(ctx context.Context, id string, from, to models.EscrowStatus) (bool, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE escrows SET status = $1, updated_at = now() WHERE id = $2 AND status = $3
	`, to, id, from)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (r *EscrowRepo) MarkFunded(ctx context.Context, id string) (bool, error) {
	return r.cas(ctx, id, models.EscrowStatusCreated, models.EscrowStatusFunded)
}

func (r *EscrowRepo) MarkPickupConfirmed(ctx context.Context, id string, at time.Time) (bool, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE escrows SET status = $1, pickup_confirmed_at = $2, updated_at = now()
		WHERE id = $3 AND status = $4 AND pickup_confirmed_at IS NULL
	`, models.EscrowStatusPickupConfirmed, at, id, models.EscrowStatusFunded)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (r *EscrowRepo) MarkInTransit(ctx context.Context, id string) (bool, error) {
	return r.cas(ctx, id, models.EscrowStatusPickupConfirmed, models.EscrowStatusInTransit)
}

func (r *EscrowRepo) MarkDeliveryConfirmed(ctx context.Context, id string, from models.EscrowStatus, at time.Time) (bool, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE escrows SET status = $1, delivery_confirmed_at = $2, updated_at = now()
		WHERE id = $3 AND status = $4 AND delivery_confirmed_at IS NULL
	`, models.EscrowStatusDeliveryConfirmed, at, id, from)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (r *EscrowRepo) MarkDisputed(ctx context.Context, id string, from models.EscrowStatus) (bool, error) {
	return r.cas(ctx, id, from, models.EscrowStatusDisputed)
}

func (r *EscrowRepo) MarkReleased(ctx context.Context, id string, from models.EscrowStatus) (bool, error) {
	return r.cas(ctx, id, from, models.EscrowStatusReleased)
}

func (r *EscrowRepo) MarkRefunded(ctx context.Context, id string) (bool, error) {
	return r.cas(ctx, id, models.EscrowStatusDisputed, models.EscrowStatusRefunded)
}

func (r *EscrowRepo) MarkCancelled(ctx context.Context, id string) (bool, error) {
	return r.cas(ctx, id, models.EscrowStatusCreated, models.EscrowStatusCancelled)
}

func (r *EscrowRepo) SetReceiptToken(ctx context.Context, id string, tokenID int64) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE escrows SET nft_token_id = $1, updated_at = now()
		WHERE id = $2 AND nft_token_id IS NULL
	`, tokenID, id)
	return err
}

// --- verification log (append-only) ---

func (r *EscrowRepo) AppendVerification(ctx context.Context, v *models.QRVerification) error {
	return r.pool.QueryRow(ctx, `
		INSERT INTO qr_verifications (escrow_id, qr_code, verification_type, verified_by, verified_at, location)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`, v.EscrowID, v.QRCode, v.VerificationType, v.VerifiedBy, v.VerifiedAt, v.Location).Scan(&v.ID)
}

func (r *EscrowRepo) GetVerificationByCode(ctx context.Context, code string) (*models.QRVerification, error) {
	var v models.QRVerification
	err := r.pool.QueryRow(ctx, `
		SELECT id, escrow_id, qr_code, verification_type, verified_by, verified_at, location
		FROM qr_verifications WHERE qr_code = $1
	`, code).Scan(&v.ID, &v.EscrowID, &v.QRCode, &v.VerificationType, &v.VerifiedBy, &v.VerifiedAt, &v.Location)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, services.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &v, nil
}
