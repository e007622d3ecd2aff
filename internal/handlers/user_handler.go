package handlers

import (
	"encoding/json"

	"github.com/gofiber/fiber/v2"
	"github.com/laporinpolisi/laporin-backend/internal/dto"
	"github.com/laporinpolisi/laporin-backend/internal/identity"
	"github.com/laporinpolisi/laporin-backend/internal/services"
)

type UserHandler struct {
	userService *services.UserService
}

func NewUserHandler(userService *services.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

func (h *UserHandler) Search(c *fiber.Ctx) error {
	users, err := h.userService.Search(c.UserContext(), c.Query("q"), c.QueryInt("limit", 0))
	if err != nil {
		return respondError(c, "user.search", err)
	}
	return c.JSON(fiber.Map{"users": users})
}

func (h *UserHandler) Profile(c *fiber.Ctx) error {
	userID, err := paramUUID(c)
	if err != nil {
		return respondError(c, "user.profile", err)
	}

	profile, err := h.userService.GetProfile(c.UserContext(), userID)
	if err != nil {
		return respondError(c, "user.profile", err)
	}
	return c.JSON(profile)
}

func (h *UserHandler) Me(c *fiber.Ctx) error {
	me, err := h.userService.GetCurrentUser(c.UserContext(), identity.FromCtx(c))
	if err != nil {
		return respondError(c, "user.me", err)
	}
	return c.JSON(me)
}

// UpdateMe decodes with encoding/json directly: the patch needs to tell an
// omitted key from an explicit null.
func (h *UserHandler) UpdateMe(c *fiber.Ctx) error {
	var req dto.UpdateProfileRequest
	if err := json.Unmarshal(c.Body(), &req); err != nil {
		return badBody(c)
	}

	me, err := h.userService.UpdateProfile(c.UserContext(), identity.FromCtx(c), &req)
	if err != nil {
		return respondError(c, "user.update_profile", err)
	}
	return c.JSON(me)
}
