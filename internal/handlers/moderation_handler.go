package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/laporinpolisi/laporin-backend/internal/dto"
	"github.com/laporinpolisi/laporin-backend/internal/identity"
	"github.com/laporinpolisi/laporin-backend/internal/services"
)

type ModerationHandler struct {
	moderationService *services.ModerationService
}

func NewModerationHandler(moderationService *services.ModerationService) *ModerationHandler {
	return &ModerationHandler{moderationService: moderationService}
}

func (h *ModerationHandler) ListViolations(c *fiber.Ctx) error {
	limit, offset := page(c)
	violations, err := h.moderationService.ListViolations(c.UserContext(), identity.FromCtx(c), c.Query("status"), limit, offset)
	if err != nil {
		return respondError(c, "admin.violations", err)
	}
	return c.JSON(fiber.Map{"violations": violations, "limit": appliedLimit(limit, services.DefaultPageLimit), "offset": offset})
}

func (h *ModerationHandler) ReviewViolation(c *fiber.Ctx) error {
	id, err := paramID(c, "violation")
	if err != nil {
		return respondError(c, "admin.review", err)
	}
	var req dto.ReviewViolationRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}

	violation, err := h.moderationService.ReviewViolation(c.UserContext(), identity.FromCtx(c), id, req.Action)
	if err != nil {
		return respondError(c, "admin.review", err)
	}
	return c.JSON(violation)
}

func (h *ModerationHandler) Stats(c *fiber.Ctx) error {
	stats, err := h.moderationService.Stats(c.UserContext(), identity.FromCtx(c))
	if err != nil {
		return respondError(c, "admin.stats", err)
	}
	return c.JSON(stats)
}

func (h *ModerationHandler) ToggleAdmin(c *fiber.Ctx) error {
	userID, err := paramUUID(c)
	if err != nil {
		return respondError(c, "admin.toggle_admin", err)
	}

	res, err := h.moderationService.ToggleAdmin(c.UserContext(), identity.FromCtx(c), userID)
	if err != nil {
		return respondError(c, "admin.toggle_admin", err)
	}
	return c.JSON(res)
}
