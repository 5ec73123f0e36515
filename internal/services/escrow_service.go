package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/loadhaul/backend/internal/events"
	"github.com/loadhaul/backend/internal/models"
	"go.uber.org/zap"
)

// ActorSystem is the caller identity used by the auto-release scheduler. It is
// never a valid account, so it can't collide with a participant.
const ActorSystem = "system"

// EscrowStore is the durable table of escrow records and their verification
// log. All Mark* methods are compare-and-swap transitions: they apply only when
// the record is still in the expected source state and report whether they did.
// Only the EscrowService calls the mutating methods.
type EscrowStore interface {
	Create(ctx context.Context, e *models.Escrow) error
	GetByID(ctx context.Context, id string) (*models.Escrow, error)
	ListByStatus(ctx context.Context, status models.EscrowStatus, limit int) ([]models.Escrow, error)
	ListByParticipant(ctx context.Context, account string, limit int) ([]models.Escrow, error)
	ListAutoReleasable(ctx context.Context, delay time.Duration, limit int) ([]models.Escrow, error)

	MarkFunded(ctx context.Context, id string) (bool, error)
	MarkPickupConfirmed(ctx context.Context, id string, at time.Time) (bool, error)
	MarkInTransit(ctx context.Context, id string) (bool, error)
	MarkDeliveryConfirmed(ctx context.Context, id string, from models.EscrowStatus, at time.Time) (bool, error)
	MarkDisputed(ctx context.Context, id string, from models.EscrowStatus) (bool, error)
	MarkReleased(ctx context.Context, id string, from models.EscrowStatus) (bool, error)
	MarkRefunded(ctx context.Context, id string) (bool, error)
	MarkCancelled(ctx context.Context, id string) (bool, error)
	SetReceiptToken(ctx context.Context, id string, tokenID int64) error

	AppendVerification(ctx context.Context, v *models.QRVerification) error
	GetVerificationByCode(ctx context.Context, code string) (*models.QRVerification, error)
}

// ConfigStore owns the singleton protocol parameter row.
type ConfigStore interface {
	Get(ctx context.Context) (*models.ProtocolConfig, error)
	Update(ctx context.Context, feeBPS int, treasury, receiptIssuer string) (*models.ProtocolConfig, error)
}

// AuditStore is the append-only action log.
type AuditStore interface {
	Log(ctx context.Context, entry models.AuditLog) error
	GetByEntity(ctx context.Context, entityType, entityID string, limit, offset int) ([]models.AuditLog, error)
}

// ReceiptOutcome reports the best-effort receipt issuance side effect of a
// delivery confirmation. It is deliberately separate from the operation's own
// error so a caller can't conflate "state changed" with "receipt issued".
type ReceiptOutcome struct {
	Issued  bool   `json:"issued"`
	TokenID int64  `json:"token_id,omitempty"`
	Error   string `json:"error,omitempty"`
}

// EscrowService is the escrow settlement state machine. It validates and
// applies transitions, computes fees, drives ledger transfers and writes the
// verification log. Mutating calls against one escrow are serialized by a
// per-record lock; every status flip is additionally a store-level CAS, so
// redundant scheduler runs and caller retries converge on a single outcome.
type EscrowService struct {
	store     EscrowStore
	configs   ConfigStore
	audit     AuditStore
	ledger    Ledger
	receipts  ReceiptIssuer
	publisher events.Publisher
	log       *zap.Logger

	now   func() time.Time
	locks sync.Map // escrow id -> *sync.Mutex
}

func NewEscrowService(
	store EscrowStore,
	configs ConfigStore,
	audit AuditStore,
	ledger Ledger,
	receipts ReceiptIssuer,
	publisher events.Publisher,
	log *zap.Logger,
) *EscrowService {
	return &EscrowService{
		store:     store,
		configs:   configs,
		audit:     audit,
		ledger:    ledger,
		receipts:  receipts,
		publisher: publisher,
		log:       log,
		now:       time.Now,
	}
}

// lockEscrow serializes mutating calls for one record. Cross-record calls
// interleave freely since records are independent aggregates.
func (s *EscrowService) lockEscrow(id string) func() {
	v, _ := s.locks.LoadOrStore(id, &sync.Mutex{})
	mu := v.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

// evictLock drops a record's mutex once it reaches a terminal state; no
// further mutation is possible, so the entry would only leak. A racing caller
// that already loaded the old mutex still ends at the store-level CAS, which
// stays authoritative.
func (s *EscrowService) evictLock(id string) {
	s.locks.Delete(id)
}

// publishStatus emits a status-change event. The participant list rides along
// so the websocket hub delivers only to the escrow's parties; escrow events
// carry amounts and must never reach unrelated clients.
func (s *EscrowService) publishStatus(ctx context.Context, escrow *models.Escrow, from, to models.EscrowStatus) {
	_ = s.publisher.Publish(ctx, events.StreamEscrow, events.Event{
		Type: events.EventEscrowStatusChanged,
		Payload: map[string]any{
			"escrow_id":    escrow.ID,
			"old_status":   string(from),
			"new_status":   string(to),
			"participants": escrow.Participants(),
		},
	})
}

func (s *EscrowService) auditTransition(ctx context.Context, id string, from, to models.EscrowStatus, actor *string, actorType string) {
	_ = s.audit.Log(ctx, models.AuditLog{
		Actor:      actor,
		ActorType:  actorType,
		Action:     fmt.Sprintf("escrow_status_%s_to_%s", from, to),
		EntityType: "escrow",
		EntityID:   &id,
		Meta:       map[string]any{"old_status": string(from), "new_status": string(to)},
	})
}

type CreateEscrowInput struct {
	LoadID    string
	Driver    string
	Warehouse *string
	Amount    int64
	Metadata  string
}

// CreateEscrow opens a new escrow in state created. The caller becomes the
// shipper. The platform fee is fixed at creation from the rate in effect at
// that moment.
func (s *EscrowService) CreateEscrow(ctx context.Context, actor string, in CreateEscrowInput) (*models.Escrow, error) {
	if in.Amount <= 0 {
		return nil, ErrInvalidAmount
	}
	if actor == "" || actor == ActorSystem {
		return nil, ErrUnauthorized
	}

	cfg, err := s.configs.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("load protocol config: %w", err)
	}

	now := s.now().UTC()
	escrow := &models.Escrow{
		ID:          NewEscrowID(actor, in.LoadID, now),
		LoadID:      in.LoadID,
		Shipper:     actor,
		Driver:      in.Driver,
		Warehouse:   in.Warehouse,
		Amount:      in.Amount,
		PlatformFee: cfg.FeeFor(in.Amount),
		Status:      models.EscrowStatusCreated,
		PickupQR:    NewQRToken(models.VerificationTypePickup),
		DeliveryQR:  NewQRToken(models.VerificationTypeDelivery),
		Metadata:    in.Metadata,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.store.Create(ctx, escrow); err != nil {
		return nil, err
	}

	_ = s.audit.Log(ctx, models.AuditLog{
		Actor:      &actor,
		ActorType:  "user",
		Action:     "escrow_created",
		EntityType: "escrow",
		EntityID:   &escrow.ID,
		Meta:       map[string]any{"load_id": in.LoadID, "amount": in.Amount, "platform_fee": escrow.PlatformFee},
	})

	return escrow, nil
}

// FundEscrow moves the gross amount from the shipper into custody and flips
// created -> funded. A ledger failure leaves the record in created; the fixed
// transfer reference makes a retry safe even if the first attempt is still
// pending on the ledger side.
func (s *EscrowService) FundEscrow(ctx context.Context, id, actor string) (*models.Escrow, error) {
	unlock := s.lockEscrow(id)
	defer unlock()

	escrow, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if escrow.Shipper != actor {
		return nil, ErrUnauthorized
	}
	if escrow.Status != models.EscrowStatusCreated {
		return nil, fmt.Errorf("%w: cannot fund from %s", ErrInvalidStateTransition, escrow.Status)
	}

	cfg, err := s.configs.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("load protocol config: %w", err)
	}

	ref := fmt.Sprintf("escrow:%s:fund", id)
	if err := s.ledger.Transfer(ctx, ref, escrow.Shipper, cfg.CustodyAccount, escrow.Amount); err != nil {
		s.log.Warn("fund transfer failed", zap.String("escrow_id", id), zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrTransferFailed, err)
	}

	applied, err := s.store.MarkFunded(ctx, id)
	if err != nil {
		return nil, err
	}
	if !applied {
		return nil, ErrInvalidStateTransition
	}

	s.auditTransition(ctx, id, models.EscrowStatusCreated, models.EscrowStatusFunded, &actor, "user")
	s.publishStatus(ctx, escrow, models.EscrowStatusCreated, models.EscrowStatusFunded)

	return s.store.GetByID(ctx, id)
}

// VerifyQR checks a presented code against the escrow's stored tokens and
// advances the record: the pickup code confirms pickup and immediately flips
// to in_transit (pickup implies departure); the delivery code confirms
// delivery and triggers best-effort receipt issuance. Any other combination
// is ErrQRMismatch with no side effects. A token can verify at most once: the
// stored value is never reissued and a consumed token's required source state
// is gone.
func (s *EscrowService) VerifyQR(ctx context.Context, id, code string, location *string, actor *string) (*models.Escrow, *ReceiptOutcome, error) {
	unlock := s.lockEscrow(id)
	defer unlock()

	escrow, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}

	now := s.now().UTC()

	switch {
	case escrow.Status == models.EscrowStatusFunded && code == escrow.PickupQR:
		return s.confirmPickup(ctx, escrow, code, location, actor, now)

	case (escrow.Status == models.EscrowStatusInTransit || escrow.Status == models.EscrowStatusPickupConfirmed) && code == escrow.DeliveryQR:
		return s.confirmDelivery(ctx, escrow, code, location, actor, now)

	default:
		return nil, nil, ErrQRMismatch
	}
}

func (s *EscrowService) confirmPickup(ctx context.Context, escrow *models.Escrow, code string, location, actor *string, now time.Time) (*models.Escrow, *ReceiptOutcome, error) {
	applied, err := s.store.MarkPickupConfirmed(ctx, escrow.ID, now)
	if err != nil {
		return nil, nil, err
	}
	if !applied {
		return nil, nil, ErrQRMismatch
	}

	if err := s.store.AppendVerification(ctx, &models.QRVerification{
		EscrowID:         escrow.ID,
		QRCode:           code,
		VerificationType: models.VerificationTypePickup,
		VerifiedBy:       actor,
		VerifiedAt:       now,
		Location:         location,
	}); err != nil {
		return nil, nil, err
	}

	s.auditTransition(ctx, escrow.ID, models.EscrowStatusFunded, models.EscrowStatusPickupConfirmed, actor, actorType(actor))
	s.publishStatus(ctx, escrow, models.EscrowStatusFunded, models.EscrowStatusPickupConfirmed)

	// Pickup confirmation implies departure.
	if _, err := s.store.MarkInTransit(ctx, escrow.ID); err != nil {
		return nil, nil, err
	}
	s.auditTransition(ctx, escrow.ID, models.EscrowStatusPickupConfirmed, models.EscrowStatusInTransit, nil, "system")
	s.publishStatus(ctx, escrow, models.EscrowStatusPickupConfirmed, models.EscrowStatusInTransit)

	_ = s.publisher.Publish(ctx, events.StreamEscrow, events.Event{
		Type: events.EventQRVerified,
		Payload: map[string]any{
			"escrow_id":         escrow.ID,
			"verification_type": models.VerificationTypePickup,
			"participants":      escrow.Participants(),
		},
	})

	updated, err := s.store.GetByID(ctx, escrow.ID)
	return updated, nil, err
}

func (s *EscrowService) confirmDelivery(ctx context.Context, escrow *models.Escrow, code string, location, actor *string, now time.Time) (*models.Escrow, *ReceiptOutcome, error) {
	applied, err := s.store.MarkDeliveryConfirmed(ctx, escrow.ID, escrow.Status, now)
	if err != nil {
		return nil, nil, err
	}
	if !applied {
		return nil, nil, ErrQRMismatch
	}

	if err := s.store.AppendVerification(ctx, &models.QRVerification{
		EscrowID:         escrow.ID,
		QRCode:           code,
		VerificationType: models.VerificationTypeDelivery,
		VerifiedBy:       actor,
		VerifiedAt:       now,
		Location:         location,
	}); err != nil {
		return nil, nil, err
	}

	s.auditTransition(ctx, escrow.ID, escrow.Status, models.EscrowStatusDeliveryConfirmed, actor, actorType(actor))
	s.publishStatus(ctx, escrow, escrow.Status, models.EscrowStatusDeliveryConfirmed)

	_ = s.publisher.Publish(ctx, events.StreamEscrow, events.Event{
		Type: events.EventQRVerified,
		Payload: map[string]any{
			"escrow_id":         escrow.ID,
			"verification_type": models.VerificationTypeDelivery,
			"participants":      escrow.Participants(),
		},
	})

	outcome := s.issueReceipt(ctx, escrow)

	updated, err := s.store.GetByID(ctx, escrow.ID)
	return updated, outcome, err
}

// issueReceipt requests the proof-of-shipment receipt. Failures are logged and
// reported in the outcome, never in the transition's own error.
func (s *EscrowService) issueReceipt(ctx context.Context, escrow *models.Escrow) *ReceiptOutcome {
	tokenID, err := s.receipts.Issue(ctx, escrow.ID, escrow.LoadID, escrow.Metadata)
	if err != nil {
		s.log.Warn("receipt issuance failed",
			zap.String("escrow_id", escrow.ID),
			zap.Error(err),
		)
		return &ReceiptOutcome{Issued: false, Error: err.Error()}
	}

	if err := s.store.SetReceiptToken(ctx, escrow.ID, tokenID); err != nil {
		s.log.Warn("failed to persist receipt token", zap.String("escrow_id", escrow.ID), zap.Error(err))
		return &ReceiptOutcome{Issued: false, Error: err.Error()}
	}

	_ = s.publisher.Publish(ctx, events.StreamEscrow, events.Event{
		Type: events.EventReceiptIssued,
		Payload: map[string]any{
			"escrow_id":    escrow.ID,
			"token_id":     tokenID,
			"participants": escrow.Participants(),
		},
	})
	return &ReceiptOutcome{Issued: true, TokenID: tokenID}
}

// ReleasePayment pays the driver and the treasury and flips
// delivery_confirmed -> released. Callable by the shipper (early release) or
// by the scheduler once the auto-release delay elapses; both paths are this
// method, whichever fires first wins and the loser fails with
// ErrInvalidStateTransition. The status only flips after both transfers
// settle; a partial failure leaves the record retryable and the fixed
// references prevent double payment on the re-drive.
func (s *EscrowService) ReleasePayment(ctx context.Context, id, actor string) (*models.Escrow, error) {
	unlock := s.lockEscrow(id)
	defer unlock()

	escrow, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if actor != ActorSystem && escrow.Shipper != actor {
		return nil, ErrUnauthorized
	}
	if escrow.Status != models.EscrowStatusDeliveryConfirmed {
		return nil, fmt.Errorf("%w: cannot release from %s", ErrInvalidStateTransition, escrow.Status)
	}

	if err := s.payout(ctx, escrow); err != nil {
		return nil, err
	}

	applied, err := s.store.MarkReleased(ctx, id, models.EscrowStatusDeliveryConfirmed)
	if err != nil {
		return nil, err
	}
	if !applied {
		return nil, ErrInvalidStateTransition
	}
	s.evictLock(id)

	actorLabel := actorTypeFor(actor)
	var actorPtr *string
	if actor != ActorSystem {
		actorPtr = &actor
	}
	s.auditTransition(ctx, id, models.EscrowStatusDeliveryConfirmed, models.EscrowStatusReleased, actorPtr, actorLabel)
	s.publishStatus(ctx, escrow, models.EscrowStatusDeliveryConfirmed, models.EscrowStatusReleased)
	_ = s.publisher.Publish(ctx, events.StreamEscrow, events.Event{
		Type: events.EventPaymentReleased,
		Payload: map[string]any{
			"escrow_id":     id,
			"driver_amount": escrow.Amount - escrow.PlatformFee,
			"platform_fee":  escrow.PlatformFee,
			"participants":  escrow.Participants(),
		},
	})

	return s.store.GetByID(ctx, id)
}

// payout drives the driver and treasury transfers. References are fixed per
// escrow, so a retry after partial success re-sends both and the ledger
// dedupes the one that already settled.
func (s *EscrowService) payout(ctx context.Context, escrow *models.Escrow) error {
	cfg, err := s.configs.Get(ctx)
	if err != nil {
		return fmt.Errorf("load protocol config: %w", err)
	}

	driverAmount := escrow.Amount - escrow.PlatformFee
	payoutRef := fmt.Sprintf("escrow:%s:payout", escrow.ID)
	if err := s.ledger.Transfer(ctx, payoutRef, cfg.CustodyAccount, escrow.Driver, driverAmount); err != nil {
		s.log.Warn("driver payout failed", zap.String("escrow_id", escrow.ID), zap.Error(err))
		return fmt.Errorf("%w: driver payout: %v", ErrTransferFailed, err)
	}

	if escrow.PlatformFee > 0 {
		feeRef := fmt.Sprintf("escrow:%s:fee", escrow.ID)
		if err := s.ledger.Transfer(ctx, feeRef, cfg.CustodyAccount, cfg.Treasury, escrow.PlatformFee); err != nil {
			s.log.Warn("treasury fee transfer failed", zap.String("escrow_id", escrow.ID), zap.Error(err))
			return fmt.Errorf("%w: treasury fee: %v", ErrTransferFailed, err)
		}
	}
	return nil
}

// DisputeEscrow freezes the record pending admin arbitration. No funds move.
func (s *EscrowService) DisputeEscrow(ctx context.Context, id, reason, actor string) (*models.Escrow, error) {
	unlock := s.lockEscrow(id)
	defer unlock()

	escrow, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if escrow.Shipper != actor && escrow.Driver != actor {
		return nil, ErrUnauthorized
	}
	if !models.IsValidTransition(escrow.Status, models.EscrowStatusDisputed) {
		return nil, fmt.Errorf("%w: cannot dispute from %s", ErrInvalidStateTransition, escrow.Status)
	}

	applied, err := s.store.MarkDisputed(ctx, id, escrow.Status)
	if err != nil {
		return nil, err
	}
	if !applied {
		return nil, ErrInvalidStateTransition
	}

	_ = s.audit.Log(ctx, models.AuditLog{
		Actor:      &actor,
		ActorType:  "user",
		Action:     "escrow_disputed",
		EntityType: "escrow",
		EntityID:   &id,
		Meta:       map[string]any{"reason": reason, "from_status": string(escrow.Status)},
	})
	s.publishStatus(ctx, escrow, escrow.Status, models.EscrowStatusDisputed)

	return s.store.GetByID(ctx, id)
}

// ResolveDispute is the admin-only arbitration path and the only way funds
// move after a dispute. releaseToDriver pays out the driver and the treasury
// as a normal release; otherwise the shipper is refunded in full, no fee.
func (s *EscrowService) ResolveDispute(ctx context.Context, id string, releaseToDriver bool, actor string) (*models.Escrow, error) {
	cfg, err := s.configs.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("load protocol config: %w", err)
	}
	if actor != cfg.Admin {
		return nil, ErrUnauthorized
	}

	unlock := s.lockEscrow(id)
	defer unlock()

	escrow, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if escrow.Status != models.EscrowStatusDisputed {
		return nil, fmt.Errorf("%w: escrow is not disputed", ErrInvalidStateTransition)
	}

	var target models.EscrowStatus
	if releaseToDriver {
		if err := s.payout(ctx, escrow); err != nil {
			return nil, err
		}
		applied, err := s.store.MarkReleased(ctx, id, models.EscrowStatusDisputed)
		if err != nil {
			return nil, err
		}
		if !applied {
			return nil, ErrInvalidStateTransition
		}
		target = models.EscrowStatusReleased
	} else {
		ref := fmt.Sprintf("escrow:%s:refund", id)
		if err := s.ledger.Transfer(ctx, ref, cfg.CustodyAccount, escrow.Shipper, escrow.Amount); err != nil {
			s.log.Warn("refund transfer failed", zap.String("escrow_id", id), zap.Error(err))
			return nil, fmt.Errorf("%w: refund: %v", ErrTransferFailed, err)
		}
		applied, err := s.store.MarkRefunded(ctx, id)
		if err != nil {
			return nil, err
		}
		if !applied {
			return nil, ErrInvalidStateTransition
		}
		target = models.EscrowStatusRefunded
	}
	s.evictLock(id)

	s.auditTransition(ctx, id, models.EscrowStatusDisputed, target, &actor, "admin")
	s.publishStatus(ctx, escrow, models.EscrowStatusDisputed, target)

	return s.store.GetByID(ctx, id)
}

// CancelEscrow closes an escrow before any funds move. Once funded,
// cancellation has to go through the dispute path instead.
func (s *EscrowService) CancelEscrow(ctx context.Context, id, actor string) (*models.Escrow, error) {
	unlock := s.lockEscrow(id)
	defer unlock()

	escrow, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if escrow.Shipper != actor {
		return nil, ErrUnauthorized
	}
	if escrow.Status != models.EscrowStatusCreated {
		return nil, fmt.Errorf("%w: cannot cancel from %s", ErrInvalidStateTransition, escrow.Status)
	}

	applied, err := s.store.MarkCancelled(ctx, id)
	if err != nil {
		return nil, err
	}
	if !applied {
		return nil, ErrInvalidStateTransition
	}
	s.evictLock(id)

	s.auditTransition(ctx, id, models.EscrowStatusCreated, models.EscrowStatusCancelled, &actor, "user")
	s.publishStatus(ctx, escrow, models.EscrowStatusCreated, models.EscrowStatusCancelled)

	return s.store.GetByID(ctx, id)
}

// UpdateConfig atomically replaces fee rate, treasury and receipt issuer.
func (s *EscrowService) UpdateConfig(ctx context.Context, feeBPS int, treasury, receiptIssuer, actor string) (*models.ProtocolConfig, error) {
	cfg, err := s.configs.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("load protocol config: %w", err)
	}
	if actor != cfg.Admin {
		return nil, ErrUnauthorized
	}
	if feeBPS < 0 || feeBPS > 10000 {
		return nil, ErrInvalidFeeRate
	}

	updated, err := s.configs.Update(ctx, feeBPS, treasury, receiptIssuer)
	if err != nil {
		return nil, err
	}

	_ = s.audit.Log(ctx, models.AuditLog{
		Actor:      &actor,
		ActorType:  "admin",
		Action:     "config_updated",
		EntityType: "config",
		Meta:       map[string]any{"platform_fee_bps": feeBPS, "treasury": treasury, "receipt_issuer": receiptIssuer},
	})

	return updated, nil
}

// --- queries ---

func (s *EscrowService) GetEscrow(ctx context.Context, id string) (*models.Escrow, error) {
	return s.store.GetByID(ctx, id)
}

// GetMyEscrows lists the caller's escrows, optionally narrowed to one status.
func (s *EscrowService) GetMyEscrows(ctx context.Context, account string, status models.EscrowStatus, limit int) ([]models.Escrow, error) {
	escrows, err := s.store.ListByParticipant(ctx, account, limit)
	if err != nil {
		return nil, err
	}
	if status == "" {
		return escrows, nil
	}
	if _, ok := models.ValidEscrowTransitions[status]; !ok {
		return nil, fmt.Errorf("unknown status %q", status)
	}
	filtered := make([]models.Escrow, 0, len(escrows))
	for _, e := range escrows {
		if e.Status == status {
			filtered = append(filtered, e)
		}
	}
	return filtered, nil
}

func (s *EscrowService) GetEscrowsByStatus(ctx context.Context, status models.EscrowStatus, limit int) ([]models.Escrow, error) {
	if _, ok := models.ValidEscrowTransitions[status]; !ok {
		return nil, fmt.Errorf("unknown status %q", status)
	}
	return s.store.ListByStatus(ctx, status, limit)
}

// LookupQR is a read-only verification lookup; it never consumes a token.
func (s *EscrowService) LookupQR(ctx context.Context, code string) (*models.QRVerification, error) {
	return s.store.GetVerificationByCode(ctx, code)
}

func (s *EscrowService) GetConfig(ctx context.Context) (*models.ProtocolConfig, error) {
	return s.configs.Get(ctx)
}

func (s *EscrowService) GetEscrowEvents(ctx context.Context, id string) ([]models.AuditLog, error) {
	return s.audit.GetByEntity(ctx, "escrow", id, 100, 0)
}

// ReleaseDue scans delivery-confirmed records whose auto-release deadline has
// elapsed and re-drives them through ReleasePayment. Safe to run redundantly.
func (s *EscrowService) ReleaseDue(ctx context.Context, limit int) int {
	cfg, err := s.configs.Get(ctx)
	if err != nil {
		s.log.Error("auto-release: failed to load config", zap.Error(err))
		return 0
	}

	due, err := s.store.ListAutoReleasable(ctx, cfg.AutoReleaseDelay, limit)
	if err != nil {
		s.log.Error("auto-release: scan failed", zap.Error(err))
		return 0
	}

	released := 0
	for _, escrow := range due {
		if _, err := s.ReleasePayment(ctx, escrow.ID, ActorSystem); err != nil {
			// Records that already moved on are expected here.
			s.log.Info("auto-release skipped",
				zap.String("escrow_id", escrow.ID),
				zap.Error(err),
			)
			continue
		}
		released++
		s.log.Info("auto-released escrow", zap.String("escrow_id", escrow.ID))
	}
	return released
}

func actorType(actor *string) string {
	if actor == nil {
		return "anonymous"
	}
	return "user"
}

func actorTypeFor(actor string) string {
	if actor == ActorSystem {
		return "system"
	}
	return "user"
}
