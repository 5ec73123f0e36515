package handlers

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/loadhaul/backend/internal/http/dto"
	"github.com/loadhaul/backend/internal/middleware"
	"github.com/loadhaul/backend/internal/models"
	"github.com/loadhaul/backend/internal/services"
	"go.uber.org/zap"
)

type EscrowHandler struct {
	svc *services.EscrowService
	log *zap.Logger
}

func NewEscrowHandler(svc *services.EscrowService, log *zap.Logger) *EscrowHandler {
	return &EscrowHandler{svc: svc, log: log}
}

// respondError maps the service error taxonomy onto HTTP statuses. Commands
// never return partial results: an error response means nothing changed.
func (h *EscrowHandler) respondError(c *fiber.Ctx, err error) error {
	status := fiber.StatusBadRequest
	switch {
	case errors.Is(err, services.ErrNotFound):
		status = fiber.StatusNotFound
	case errors.Is(err, services.ErrUnauthorized):
		status = fiber.StatusForbidden
	case errors.Is(err, services.ErrTransferFailed):
		status = fiber.StatusBadGateway
	case errors.Is(err, services.ErrInvalidStateTransition),
		errors.Is(err, services.ErrQRMismatch):
		status = fiber.StatusConflict
	}
	return c.Status(status).JSON(dto.ErrorResponse{Error: err.Error()})
}

func (h *EscrowHandler) CreateEscrow(c *fiber.Ctx) error {
	var req dto.CreateEscrowRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid request"})
	}
	if req.LoadID == "" || req.Driver == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "load_id and driver are required"})
	}

	actor := middleware.GetAccount(c)
	escrow, err := h.svc.CreateEscrow(c.Context(), actor, services.CreateEscrowInput{
		LoadID:    req.LoadID,
		Driver:    req.Driver,
		Warehouse: req.Warehouse,
		Amount:    req.Amount,
		Metadata:  req.Metadata,
	})
	if err != nil {
		return h.respondError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(dto.SuccessResponse{OK: true, Data: escrow})
}

func (h *EscrowHandler) GetEscrow(c *fiber.Ctx) error {
	escrow, err := h.svc.GetEscrow(c.Context(), c.Params("id"))
	if err != nil {
		return h.respondError(c, err)
	}

	actor := middleware.GetAccount(c)
	if !escrow.IsParticipant(actor) && !h.isAdmin(c, actor) {
		return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{Error: services.ErrUnauthorized.Error()})
	}

	return c.JSON(dto.SuccessResponse{OK: true, Data: escrow})
}

func (h *EscrowHandler) ListEscrows(c *fiber.Ctx) error {
	actor := middleware.GetAccount(c)

	limit := 50
	if v := c.Query("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			limit = n
		}
	}

	// Admins see the platform-wide view for a status; everyone else gets
	// their own escrows narrowed to it.
	if status := models.EscrowStatus(c.Query("status")); status != "" {
		var escrows []models.Escrow
		var err error
		if h.isAdmin(c, actor) {
			escrows, err = h.svc.GetEscrowsByStatus(c.Context(), status, limit)
		} else {
			escrows, err = h.svc.GetMyEscrows(c.Context(), actor, status, limit)
		}
		if err != nil {
			return h.respondError(c, err)
		}
		return c.JSON(dto.SuccessResponse{OK: true, Data: escrows})
	}

	escrows, err := h.svc.GetMyEscrows(c.Context(), actor, "", limit)
	if err != nil {
		h.log.Error("list escrows failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Error: "internal error"})
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: escrows})
}

func (h *EscrowHandler) FundEscrow(c *fiber.Ctx) error {
	actor := middleware.GetAccount(c)
	escrow, err := h.svc.FundEscrow(c.Context(), c.Params("id"), actor)
	if err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: escrow})
}

func (h *EscrowHandler) VerifyQR(c *fiber.Ctx) error {
	var req dto.VerifyQRRequest
	if err := c.BodyParser(&req); err != nil || req.Code == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "code is required"})
	}

	var actor *string
	if account := middleware.GetAccount(c); account != "" {
		actor = &account
	}

	escrow, receipt, err := h.svc.VerifyQR(c.Context(), c.Params("id"), req.Code, req.Location, actor)
	if err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(dto.VerifyQRResponse{OK: true, Escrow: escrow, Receipt: receipt})
}

func (h *EscrowHandler) ReleasePayment(c *fiber.Ctx) error {
	actor := middleware.GetAccount(c)
	escrow, err := h.svc.ReleasePayment(c.Context(), c.Params("id"), actor)
	if err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: escrow})
}

func (h *EscrowHandler) DisputeEscrow(c *fiber.Ctx) error {
	var req dto.DisputeEscrowRequest
	if err := c.BodyParser(&req); err != nil || req.Reason == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "reason is required"})
	}

	actor := middleware.GetAccount(c)
	escrow, err := h.svc.DisputeEscrow(c.Context(), c.Params("id"), req.Reason, actor)
	if err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: escrow})
}

func (h *EscrowHandler) CancelEscrow(c *fiber.Ctx) error {
	actor := middleware.GetAccount(c)
	escrow, err := h.svc.CancelEscrow(c.Context(), c.Params("id"), actor)
	if err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: escrow})
}

func (h *EscrowHandler) ResolveDispute(c *fiber.Ctx) error {
	var req dto.ResolveDisputeRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid request"})
	}

	actor := middleware.GetAccount(c)
	escrow, err := h.svc.ResolveDispute(c.Context(), c.Params("id"), req.ReleaseToDriver, actor)
	if err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: escrow})
}

func (h *EscrowHandler) GetEscrowEvents(c *fiber.Ctx) error {
	events, err := h.svc.GetEscrowEvents(c.Context(), c.Params("id"))
	if err != nil {
		h.log.Error("get escrow events failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Error: "internal error"})
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: events})
}

// LookupQR is a read-only verification lookup; presenting a code here never
// consumes it.
func (h *EscrowHandler) LookupQR(c *fiber.Ctx) error {
	verification, err := h.svc.LookupQR(c.Context(), c.Params("code"))
	if err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: verification})
}

func (h *EscrowHandler) isAdmin(c *fiber.Ctx, actor string) bool {
	if actor == "" {
		return false
	}
	cfg, err := h.svc.GetConfig(c.Context())
	if err != nil {
		return false
	}
	return cfg.Admin == actor
}
