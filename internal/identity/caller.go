// Package identity carries the resolved caller of a request as an explicit value.
package identity

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const callerKey = "caller"

// Caller is who is making the request. The zero value is an anonymous caller.
type Caller struct {
	ID      uuid.UUID
	Email   string
	IsAdmin bool
}

var Anonymous = Caller{}

func (c Caller) Authenticated() bool {
	return c.ID != uuid.Nil
}

// FromCtx returns the caller stored by the auth middleware, or Anonymous.
func FromCtx(c *fiber.Ctx) Caller {
	if caller, ok := c.Locals(callerKey).(Caller); ok {
		return caller
	}
	return Anonymous
}

func Set(c *fiber.Ctx, caller Caller) {
	c.Locals(callerKey, caller)
}

// SubjectFromToken extracts the user UUID from the verified JWT in context.
func SubjectFromToken(c *fiber.Ctx) (uuid.UUID, error) {
	token, ok := c.Locals("user").(*jwt.Token)
	if !ok {
		return uuid.Nil, errors.New("invalid token in context")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return uuid.Nil, errors.New("invalid claims")
	}

	sub, ok := claims["sub"].(string)
	if !ok {
		return uuid.Nil, errors.New("missing sub claim")
	}

	return uuid.Parse(sub)
}
