package handlers

import (
	"errors"
	"regexp"
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/foxxcyber/bubblegut/internal/database"
	"github.com/foxxcyber/bubblegut/internal/middleware"
	"github.com/foxxcyber/bubblegut/internal/models"
)

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

// Register handles user registration
func (h *Handler) Register(c *fiber.Ctx) error {
	var req models.RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return Error(c, fiber.StatusBadRequest, "invalid request body")
	}

	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	if !emailRegex.MatchString(req.Email) {
		return Error(c, fiber.StatusBadRequest, "invalid email format")
	}

	if len(req.Password) < 8 {
		return Error(c, fiber.StatusBadRequest, "password must be at least 8 characters")
	}

	// Display name is optional at signup; forum comments ask for it later
	var displayName *string
	if req.DisplayName != nil {
		name, ok := normalizeDisplayName(*req.DisplayName)
		if !ok {
			return Error(c, fiber.StatusBadRequest, "display name must be between 3 and 50 characters")
		}
		if name != "" {
			displayName = &name
		}
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return h.internalError(c, "failed to process password", err)
	}

	user, err := h.db.CreateUser(c.Context(), req.Email, string(hashedPassword), displayName)
	if err != nil {
		if errors.Is(err, database.ErrEmailExists) {
			return Error(c, fiber.StatusConflict, "email already registered")
		}
		if errors.Is(err, database.ErrDisplayNameTaken) {
			return Error(c, fiber.StatusConflict, "display name already taken")
		}
		return h.internalError(c, "failed to create user", err)
	}

	token, err := middleware.GenerateToken(h.cfg, user)
	if err != nil {
		return h.internalError(c, "failed to generate token", err)
	}

	h.log.Info("User registered", zap.Int("user_id", user.ID))
	return c.Status(fiber.StatusCreated).JSON(models.AuthResponse{
		Token: token,
		User:  user,
	})
}

// Login handles user authentication
func (h *Handler) Login(c *fiber.Ctx) error {
	var req models.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return Error(c, fiber.StatusBadRequest, "invalid request body")
	}

	if req.Email == "" || req.Password == "" {
		return Error(c, fiber.StatusBadRequest, "email and password are required")
	}

	user, err := h.db.GetUserByEmail(c.Context(), strings.TrimSpace(strings.ToLower(req.Email)))
	if err != nil {
		if errors.Is(err, database.ErrUserNotFound) {
			return Error(c, fiber.StatusUnauthorized, "invalid credentials")
		}
		return h.internalError(c, "authentication failed", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return Error(c, fiber.StatusUnauthorized, "invalid credentials")
	}

	if err := h.db.UpdateUserLastLogin(c.Context(), user.ID); err != nil {
		h.log.Warn("Failed to update last login", zap.Int("user_id", user.ID), zap.Error(err))
	}

	token, err := middleware.GenerateToken(h.cfg, user)
	if err != nil {
		return h.internalError(c, "failed to generate token", err)
	}

	return c.JSON(models.AuthResponse{
		Token: token,
		User:  user,
	})
}

// GetCurrentUser returns the currently authenticated user
func (h *Handler) GetCurrentUser(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	if userID == 0 {
		return Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	user, err := h.db.GetUserByID(c.Context(), userID)
	if err != nil {
		if errors.Is(err, database.ErrUserNotFound) {
			return Error(c, fiber.StatusNotFound, "user not found")
		}
		return h.internalError(c, "failed to get user", err)
	}

	return Success(c, user)
}

// RefreshToken generates a new JWT token carrying the user's current role
func (h *Handler) RefreshToken(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	if userID == 0 {
		return Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	user, err := h.db.GetUserByID(c.Context(), userID)
	if err != nil {
		return Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	token, err := middleware.GenerateToken(h.cfg, user)
	if err != nil {
		return h.internalError(c, "failed to generate token", err)
	}

	return c.JSON(fiber.Map{
		"token": token,
	})
}
