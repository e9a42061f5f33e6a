package handlers

import (
	"context"
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/foxxcyber/bubblegut/internal/config"
	"github.com/foxxcyber/bubblegut/internal/database"
	"github.com/foxxcyber/bubblegut/internal/models"
	"github.com/foxxcyber/bubblegut/internal/services"
)

// Store is the persistence used by the handlers. *database.DB implements it.
type Store interface {
	// Users
	CreateUser(ctx context.Context, email, passwordHash string, displayName *string) (*models.User, error)
	GetUserByID(ctx context.Context, id int) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	UpdateUserLastLogin(ctx context.Context, id int) error
	SetUserDisplayName(ctx context.Context, id int, displayName *string) (*models.User, error)
	SetUserRole(ctx context.Context, id int, role models.Role) (*models.User, error)
	SetUserEmailVerified(ctx context.Context, id int, verified bool) (*models.User, error)
	SearchUsers(ctx context.Context, params models.UserSearchParams) ([]*models.User, int, error)
	GetAdminStats(ctx context.Context) (*models.AdminStats, error)

	// Recipes
	CreateRecipe(ctx context.Context, userID int, title string, description *string, servings *int, ingredients, instructions string) (*models.Recipe, error)
	GetVisibleRecipe(ctx context.Context, id, viewerID int) (*models.Recipe, error)
	GetRecipeDetail(ctx context.Context, id, viewerID int) (*models.RecipeDetail, error)
	ListPublishedRecipes(ctx context.Context, params models.RecipeListParams) ([]models.RecipeSummary, error)
	ListDraftsByUser(ctx context.Context, userID int) ([]models.RecipeSummary, error)
	UpdateRecipe(ctx context.Context, recipeID, userID int, fields database.RecipeFields) (*models.Recipe, error)
	AppendRecipeIngredients(ctx context.Context, recipeID, userID int, text string, imageKey *string) (*models.Recipe, error)
	DeleteRecipe(ctx context.Context, recipeID, userID int, isModerator bool) error
	SaveRecipeIngredients(ctx context.Context, recipeID, userID int, rows []models.ParsedIngredient) error
	PublishRecipe(ctx context.Context, recipeID, userID int, rows []models.ParsedIngredient) (*models.Recipe, error)
	ListRecipeIngredients(ctx context.Context, recipeID int) ([]models.ParsedIngredient, error)

	// Tags and favorites
	ListTags(ctx context.Context) ([]models.Tag, error)
	SetRecipeTags(ctx context.Context, recipeID, userID int, tagIDs []int) ([]models.Tag, error)
	AddFavorite(ctx context.Context, userID, recipeID int) error
	RemoveFavorite(ctx context.Context, userID, recipeID int) error
	ListFavorites(ctx context.Context, userID int) ([]models.RecipeSummary, error)

	// Forum
	ListForumPosts(ctx context.Context) ([]models.ForumPost, error)
	CreateForumPost(ctx context.Context, userID int, title, body string) (*models.ForumPost, error)
	GetForumPost(ctx context.Context, postID int) (*models.ForumPostWithComments, error)
	CreateForumComment(ctx context.Context, postID, userID int, body string) (*models.ForumComment, error)

	// Settings
	GetSettingBool(ctx context.Context, key string, defaultValue bool, encryptionKey []byte) bool
	GetSettingsByCategoryAsMap(ctx context.Context, category string, encryptionKey []byte, includeSensitive bool) (database.SettingsMap, error)
	GetAllSettings(ctx context.Context, encryptionKey []byte) (map[string][]database.SystemSetting, error)
	SetSettings(ctx context.Context, settings map[string]string, encryptionKey []byte) error
}

// Handler holds all handler dependencies
type Handler struct {
	db            Store
	cfg           *config.Config
	log           *zap.Logger
	cards         *services.RecipeCardService
	encryptionKey []byte
}

// New creates a new Handler instance. cards may be nil when object storage
// is not configured.
func New(db Store, cfg *config.Config, logger *zap.Logger, cards *services.RecipeCardService) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		db:            db,
		cfg:           cfg,
		log:           logger,
		cards:         cards,
		encryptionKey: services.DeriveEncryptionKey(cfg.JWTSecret),
	}
}

// ScanningEnabled reports whether recipe card routes should be mounted
func (h *Handler) ScanningEnabled() bool {
	return h.cards != nil
}

// ErrorHandler is a custom error handler for Fiber
func ErrorHandler(c *fiber.Ctx, err error) error {
	// Default to 500
	code := fiber.StatusInternalServerError
	message := "Internal Server Error"

	// Check if it's a Fiber error
	var e *fiber.Error
	if errors.As(err, &e) {
		code = e.Code
		message = e.Message
	}

	return c.Status(code).JSON(APIResponse{
		Success: false,
		Error:   message,
	})
}

// APIResponse is a standard API response structure
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
	Meta    *Meta       `json:"meta,omitempty"`
}

// Meta contains pagination metadata
type Meta struct {
	Total  int `json:"total"`
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
}

// Success returns a successful response
func Success(c *fiber.Ctx, data interface{}) error {
	return c.JSON(APIResponse{
		Success: true,
		Data:    data,
	})
}

// Created returns a 201 response
func Created(c *fiber.Ctx, data interface{}) error {
	return c.Status(fiber.StatusCreated).JSON(APIResponse{
		Success: true,
		Data:    data,
	})
}

// SuccessWithMeta returns a successful response with pagination
func SuccessWithMeta(c *fiber.Ctx, data interface{}, total, limit, offset int) error {
	return c.JSON(APIResponse{
		Success: true,
		Data:    data,
		Meta: &Meta{
			Total:  total,
			Limit:  limit,
			Offset: offset,
		},
	})
}

// Error returns an error response
func Error(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(APIResponse{
		Success: false,
		Error:   message,
	})
}

// internalError logs err and answers with a generic 500
func (h *Handler) internalError(c *fiber.Ctx, message string, err error) error {
	h.log.Error(message,
		zap.Error(err),
		zap.String("method", c.Method()),
		zap.String("path", c.Path()))
	return Error(c, fiber.StatusInternalServerError, message)
}

// normalizeDisplayName trims a requested display name and checks its length.
// An empty result means the name is being cleared.
func normalizeDisplayName(name string) (string, bool) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", true
	}
	n := len([]rune(name))
	return name, n >= models.DisplayNameMinLength && n <= models.DisplayNameMaxLength
}

// CreateEmailVerificationChecker creates a function for checking email verification status
// for use with the EmailVerifiedRequiredFunc middleware
func (h *Handler) CreateEmailVerificationChecker() func(c *fiber.Ctx) (required bool, verified bool, isAdmin bool, err error) {
	return func(c *fiber.Ctx) (bool, bool, bool, error) {
		userID, ok := c.Locals("user_id").(int)
		if !ok || userID == 0 {
			return false, false, false, nil
		}

		role, _ := c.Locals("user_role").(models.Role)

		// Admins are always exempt
		if role == models.RoleAdmin {
			return false, true, true, nil
		}

		required := h.db.GetSettingBool(c.Context(), "require_email_verify", false, h.encryptionKey)
		if !required {
			return false, true, false, nil
		}

		user, err := h.db.GetUserByID(c.Context(), userID)
		if err != nil {
			return true, false, false, err
		}

		return true, user.EmailVerified, false, nil
	}
}
