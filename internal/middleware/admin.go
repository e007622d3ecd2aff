package middleware

import (
	"github.com/gofiber/fiber/v2"
	"github.com/laporinpolisi/laporin-backend/internal/dto"
	"github.com/laporinpolisi/laporin-backend/internal/identity"
)

// AdminRequired must run after JWTProtected.
func AdminRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		caller := identity.FromCtx(c)
		if !caller.Authenticated() {
			return unauthorized(c, "Unauthorized")
		}
		if !caller.IsAdmin {
			return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{
				Error:   true,
				Code:    "forbidden",
				Message: "Admin access required",
			})
		}
		return c.Next()
	}
}
