package middleware

import (
	"context"

	jwtware "github.com/gofiber/contrib/jwt"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/laporinpolisi/laporin-backend/internal/config"
	"github.com/laporinpolisi/laporin-backend/internal/dto"
	"github.com/laporinpolisi/laporin-backend/internal/identity"
)

// CallerResolver loads the current state of the user behind a token subject.
type CallerResolver interface {
	LookupCaller(ctx context.Context, userID uuid.UUID) (identity.Caller, error)
}

// JWTProtected rejects requests without a valid bearer token and stores the
// resolved caller for handlers.
func JWTProtected(cfg *config.Config, users CallerResolver) fiber.Handler {
	return jwtware.New(jwtware.Config{
		SigningKey:     jwtware.SigningKey{Key: []byte(cfg.JWTSecret)},
		SuccessHandler: resolveCaller(users),
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			return unauthorized(c, "Unauthorized: invalid or expired token")
		},
	})
}

// OptionalAuth resolves the caller when an Authorization header is sent and
// leaves the request anonymous otherwise. A bad token is still rejected.
func OptionalAuth(cfg *config.Config, users CallerResolver) fiber.Handler {
	return jwtware.New(jwtware.Config{
		Filter: func(c *fiber.Ctx) bool {
			return c.Get(fiber.HeaderAuthorization) == ""
		},
		SigningKey:     jwtware.SigningKey{Key: []byte(cfg.JWTSecret)},
		SuccessHandler: resolveCaller(users),
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			return unauthorized(c, "Unauthorized: invalid or expired token")
		},
	})
}

func resolveCaller(users CallerResolver) fiber.Handler {
	return func(c *fiber.Ctx) error {
		caller, err := lookup(c, users)
		if err != nil {
			return unauthorized(c, "Unauthorized: unknown user")
		}
		identity.Set(c, caller)
		return c.Next()
	}
}

// lookup reads the admin flag fresh from the database, so a revoked admin loses
// access before their token expires. ADMIN_EMAILS only seeds the flag at registration.
func lookup(c *fiber.Ctx, users CallerResolver) (identity.Caller, error) {
	userID, err := identity.SubjectFromToken(c)
	if err != nil {
		return identity.Anonymous, err
	}
	caller, err := users.LookupCaller(c.UserContext(), userID)
	if err != nil {
		return identity.Anonymous, err
	}
	return caller, nil
}

func unauthorized(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
		Error:   true,
		Code:    "unauthorized",
		Message: message,
	})
}
