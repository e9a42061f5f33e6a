package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/foxxcyber/bubblegut/internal/database"
	"github.com/foxxcyber/bubblegut/internal/middleware"
	"github.com/foxxcyber/bubblegut/internal/models"
)

// GetProfile returns the caller's profile
func (h *Handler) GetProfile(c *fiber.Ctx) error {
	return h.GetCurrentUser(c)
}

// UpdateProfile sets the caller's display name
func (h *Handler) UpdateProfile(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	if userID == 0 {
		return Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	var req models.UpdateProfileRequest
	if err := c.BodyParser(&req); err != nil {
		return Error(c, fiber.StatusBadRequest, "invalid request body")
	}

	name, ok := normalizeDisplayName(req.DisplayName)
	if !ok || name == "" {
		return Error(c, fiber.StatusBadRequest, "display name must be between 3 and 50 characters")
	}

	user, err := h.db.SetUserDisplayName(c.Context(), userID, &name)
	if err != nil {
		switch {
		case errors.Is(err, database.ErrDisplayNameTaken):
			return Error(c, fiber.StatusConflict, "display name already taken")
		case errors.Is(err, database.ErrUserNotFound):
			return Error(c, fiber.StatusNotFound, "user not found")
		}
		return h.internalError(c, "failed to update profile", err)
	}

	return Success(c, user)
}
