package handlers

import (
	"errors"
	"log/slog"
	"strconv"
	"strings"

	"github.com/getsentry/sentry-go"
	sentryfiber "github.com/getsentry/sentry-go/fiber"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/laporinpolisi/laporin-backend/internal/apperror"
	"github.com/laporinpolisi/laporin-backend/internal/dto"
	"github.com/laporinpolisi/laporin-backend/internal/identity"
)

func statusFor(err error) int {
	switch {
	case errors.Is(err, apperror.ErrValidation), errors.Is(err, apperror.ErrBadRequest):
		return fiber.StatusBadRequest
	case errors.Is(err, apperror.ErrUnauthorized):
		return fiber.StatusUnauthorized
	case errors.Is(err, apperror.ErrForbidden):
		return fiber.StatusForbidden
	case errors.Is(err, apperror.ErrNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, apperror.ErrConflict):
		return fiber.StatusConflict
	default:
		return fiber.StatusInternalServerError
	}
}

// respondError writes the error body for err. Server errors are logged with the
// request context and sent to Sentry; their cause never reaches the client.
func respondError(c *fiber.Ctx, action string, err error) error {
	status := statusFor(err)
	body := dto.ErrorResponse{Error: true, Code: apperror.Code(err), Message: "Internal server error"}

	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		body.Field = appErr.Field
		if status < fiber.StatusInternalServerError {
			body.Message = appErr.Message
		}
	}

	if status >= fiber.StatusInternalServerError {
		attrs := []any{
			"request_id", requestID(c),
			"action", action,
			"path", c.Path(),
			"error", err.Error(),
		}
		if caller := identity.FromCtx(c); caller.Authenticated() {
			attrs = append(attrs, "user_id", caller.ID.String())
		}
		slog.ErrorContext(c.UserContext(), "request failed", attrs...)

		if hub := sentryfiber.GetHubFromContext(c); hub != nil {
			hub.WithScope(func(scope *sentry.Scope) {
				scope.SetTag("action", action)
				hub.CaptureException(err)
			})
		}
	}

	return c.Status(status).JSON(body)
}

func badBody(c *fiber.Ctx) error {
	return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
		Error: true, Code: "bad_request", Message: "Invalid request body",
	})
}

func requestID(c *fiber.Ctx) string {
	if id, ok := c.Locals("requestid").(string); ok {
		return id
	}
	return ""
}

func paramID(c *fiber.Ctx, resource string) (uint, error) {
	raw := c.Params("id")
	id, err := strconv.ParseUint(raw, 10, 0)
	if err != nil || id == 0 {
		return 0, apperror.Validation("id", "invalid "+resource+" id")
	}
	return uint(id), nil
}

func paramUUID(c *fiber.Ctx) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return uuid.Nil, apperror.Validation("id", "invalid user id")
	}
	return id, nil
}

// page reads limit/offset; zero means the service default.
func page(c *fiber.Ctx) (int, int) {
	return c.QueryInt("limit", 0), c.QueryInt("offset", 0)
}

// appliedLimit is the limit a list call used once the service accepted it.
func appliedLimit(limit, def int) int {
	if limit == 0 {
		return def
	}
	return limit
}

func splitCSV(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
