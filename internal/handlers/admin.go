package handlers

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/foxxcyber/bubblegut/internal/database"
	"github.com/foxxcyber/bubblegut/internal/middleware"
	"github.com/foxxcyber/bubblegut/internal/models"
)

// AdminListUsers searches users by display name, email or id
func (h *Handler) AdminListUsers(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", 50)
	offset := c.QueryInt("offset", 0)

	if limit < 1 || limit > 200 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	users, total, err := h.db.SearchUsers(c.Context(), models.UserSearchParams{
		Query:  c.Query("q"),
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		return h.internalError(c, "failed to list users", err)
	}
	if users == nil {
		users = []*models.User{}
	}

	return SuccessWithMeta(c, users, total, limit, offset)
}

func (h *Handler) userResult(c *fiber.Ctx, user *models.User, err error) error {
	if err != nil {
		switch {
		case errors.Is(err, database.ErrUserNotFound):
			return Error(c, fiber.StatusNotFound, "user not found")
		case errors.Is(err, database.ErrInvalidRole):
			return Error(c, fiber.StatusBadRequest, "invalid role")
		case errors.Is(err, database.ErrDisplayNameTaken):
			return Error(c, fiber.StatusConflict, "display name already taken")
		}
		return h.internalError(c, "failed to update user", err)
	}
	return Success(c, user)
}

// AdminSetRole changes a user's role
func (h *Handler) AdminSetRole(c *fiber.Ctx) error {
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return Error(c, fiber.StatusBadRequest, "invalid user id")
	}

	var req models.AdminSetRoleRequest
	if err := c.BodyParser(&req); err != nil {
		return Error(c, fiber.StatusBadRequest, "invalid request body")
	}
	if !req.Role.Valid() {
		return Error(c, fiber.StatusBadRequest, "invalid role")
	}

	// Admins cannot demote themselves and lock everyone out
	if id == middleware.GetUserID(c) && req.Role != models.RoleAdmin {
		return Error(c, fiber.StatusBadRequest, "cannot change your own role")
	}

	user, err := h.db.SetUserRole(c.Context(), id, req.Role)
	if err == nil {
		h.log.Info("User role changed",
			zap.Int("user_id", id),
			zap.String("role", string(req.Role)),
			zap.Int("by", middleware.GetUserID(c)))
	}
	return h.userResult(c, user, err)
}

// AdminSetDisplayName sets or clears a user's display name
func (h *Handler) AdminSetDisplayName(c *fiber.Ctx) error {
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return Error(c, fiber.StatusBadRequest, "invalid user id")
	}

	var req models.AdminSetDisplayNameRequest
	if err := c.BodyParser(&req); err != nil {
		return Error(c, fiber.StatusBadRequest, "invalid request body")
	}

	name, ok := normalizeDisplayName(req.DisplayName)
	if !ok {
		return Error(c, fiber.StatusBadRequest, "display name must be between 3 and 50 characters")
	}

	var displayName *string
	if name != "" {
		displayName = &name
	}

	user, err := h.db.SetUserDisplayName(c.Context(), id, displayName)
	return h.userResult(c, user, err)
}

// AdminSetVerified toggles a user's email verification flag
func (h *Handler) AdminSetVerified(c *fiber.Ctx) error {
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return Error(c, fiber.StatusBadRequest, "invalid user id")
	}

	var req models.AdminSetVerifiedRequest
	if err := c.BodyParser(&req); err != nil {
		return Error(c, fiber.StatusBadRequest, "invalid request body")
	}

	user, err := h.db.SetUserEmailVerified(c.Context(), id, req.EmailVerified)
	return h.userResult(c, user, err)
}

// AdminGetStats returns system-wide statistics
func (h *Handler) AdminGetStats(c *fiber.Ctx) error {
	stats, err := h.db.GetAdminStats(c.Context())
	if err != nil {
		return h.internalError(c, "failed to get stats", err)
	}

	return Success(c, stats)
}
