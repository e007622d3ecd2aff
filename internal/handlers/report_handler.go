package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/laporinpolisi/laporin-backend/internal/dto"
	"github.com/laporinpolisi/laporin-backend/internal/identity"
	"github.com/laporinpolisi/laporin-backend/internal/services"
)

type ReportHandler struct {
	reportService *services.ReportService
}

func NewReportHandler(reportService *services.ReportService) *ReportHandler {
	return &ReportHandler{reportService: reportService}
}

func (h *ReportHandler) List(c *fiber.Ctx) error {
	limit, offset := page(c)
	items, err := h.reportService.List(c.UserContext(), identity.FromCtx(c), dto.ListReportsQuery{
		Search:   c.Query("search"),
		Location: c.Query("location"),
		Tags:     splitCSV(c.Query("tags")),
		SortBy:   c.Query("sort_by", services.SortLatest),
		Limit:    limit,
		Offset:   offset,
	})
	if err != nil {
		return respondError(c, "report.list", err)
	}
	return c.JSON(fiber.Map{"reports": items, "limit": appliedLimit(limit, services.DefaultReportLimit), "offset": offset})
}

func (h *ReportHandler) Create(c *fiber.Ctx) error {
	var req dto.CreateReportRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}

	id, err := h.reportService.Create(c.UserContext(), identity.FromCtx(c), &req)
	if err != nil {
		return respondError(c, "report.create", err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.CreatedResponse{ID: id})
}

func (h *ReportHandler) Get(c *fiber.Ctx) error {
	id, err := paramID(c, "report")
	if err != nil {
		return respondError(c, "report.get", err)
	}

	report, err := h.reportService.Get(c.UserContext(), identity.FromCtx(c), id)
	if err != nil {
		return respondError(c, "report.get", err)
	}
	return c.JSON(report)
}

func (h *ReportHandler) ToggleLike(c *fiber.Ctx) error {
	id, err := paramID(c, "report")
	if err != nil {
		return respondError(c, "report.like", err)
	}

	res, err := h.reportService.ToggleLike(c.UserContext(), identity.FromCtx(c), id)
	if err != nil {
		return respondError(c, "report.like", err)
	}
	return c.JSON(res)
}

func (h *ReportHandler) ListComments(c *fiber.Ctx) error {
	id, err := paramID(c, "report")
	if err != nil {
		return respondError(c, "report.comments", err)
	}

	limit, offset := page(c)
	comments, err := h.reportService.ListComments(c.UserContext(), id, limit, offset)
	if err != nil {
		return respondError(c, "report.comments", err)
	}
	return c.JSON(fiber.Map{"comments": comments, "limit": appliedLimit(limit, services.DefaultPageLimit), "offset": offset})
}

func (h *ReportHandler) AddComment(c *fiber.Ctx) error {
	id, err := paramID(c, "report")
	if err != nil {
		return respondError(c, "report.comment", err)
	}
	var req dto.AddCommentRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}

	comment, err := h.reportService.AddComment(c.UserContext(), identity.FromCtx(c), id, req.Content)
	if err != nil {
		return respondError(c, "report.comment", err)
	}
	return c.Status(fiber.StatusCreated).JSON(comment)
}

func (h *ReportHandler) Share(c *fiber.Ctx) error {
	id, err := paramID(c, "report")
	if err != nil {
		return respondError(c, "report.share", err)
	}
	var req dto.ShareRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return badBody(c)
		}
	}

	share, err := h.reportService.Share(c.UserContext(), identity.FromCtx(c), id, req.Platform)
	if err != nil {
		return respondError(c, "report.share", err)
	}
	return c.Status(fiber.StatusCreated).JSON(share)
}

func (h *ReportHandler) ReportViolation(c *fiber.Ctx) error {
	id, err := paramID(c, "report")
	if err != nil {
		return respondError(c, "report.violation", err)
	}
	var req dto.ReportViolationRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}

	violation, err := h.reportService.ReportViolation(c.UserContext(), identity.FromCtx(c), id, req.Reason)
	if err != nil {
		return respondError(c, "report.violation", err)
	}
	return c.Status(fiber.StatusCreated).JSON(violation)
}

func (h *ReportHandler) ListUserReports(c *fiber.Ctx) error {
	userID, err := paramUUID(c)
	if err != nil {
		return respondError(c, "report.user_reports", err)
	}

	limit, offset := page(c)
	items, err := h.reportService.ListUserReports(c.UserContext(), identity.FromCtx(c), userID, limit, offset)
	if err != nil {
		return respondError(c, "report.user_reports", err)
	}
	return c.JSON(fiber.Map{"reports": items, "limit": appliedLimit(limit, services.DefaultPageLimit), "offset": offset})
}
