package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/loadhaul/backend/internal/http/dto"
	"github.com/loadhaul/backend/internal/middleware"
	"github.com/loadhaul/backend/internal/services"
	"go.uber.org/zap"
)

type ConfigHandler struct {
	svc *services.EscrowService
	log *zap.Logger
}

func NewConfigHandler(svc *services.EscrowService, log *zap.Logger) *ConfigHandler {
	return &ConfigHandler{svc: svc, log: log}
}

func (h *ConfigHandler) GetConfig(c *fiber.Ctx) error {
	cfg, err := h.svc.GetConfig(c.Context())
	if err != nil {
		h.log.Error("get config failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Error: "internal error"})
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: cfg})
}

func (h *ConfigHandler) UpdateConfig(c *fiber.Ctx) error {
	var req dto.UpdateConfigRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid request"})
	}
	if req.Treasury == "" || req.ReceiptIssuer == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "treasury and receipt_issuer are required"})
	}

	actor := middleware.GetAccount(c)
	cfg, err := h.svc.UpdateConfig(c.Context(), req.PlatformFeeBPS, req.Treasury, req.ReceiptIssuer, actor)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrUnauthorized):
			return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{Error: err.Error()})
		case errors.Is(err, services.ErrInvalidFeeRate):
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: err.Error()})
		}
		h.log.Error("update config failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Error: "internal error"})
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: cfg})
}
