package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/foxxcyber/bubblegut/internal/middleware"
	"github.com/foxxcyber/bubblegut/internal/models"
)

// ListTags returns all recipe tags
func (h *Handler) ListTags(c *fiber.Ctx) error {
	tags, err := h.db.ListTags(c.Context())
	if err != nil {
		return h.internalError(c, "failed to list tags", err)
	}
	return Success(c, tags)
}

// SetRecipeTags replaces the tags on a recipe the caller owns
func (h *Handler) SetRecipeTags(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	id, ok := recipeID(c)
	if !ok {
		return Error(c, fiber.StatusBadRequest, "invalid recipe id")
	}

	var req models.SetRecipeTagsRequest
	if err := c.BodyParser(&req); err != nil {
		return Error(c, fiber.StatusBadRequest, "invalid request body")
	}

	tags, err := h.db.SetRecipeTags(c.Context(), id, userID, req.TagIDs)
	if err != nil {
		return h.recipeError(c, "failed to set tags", err)
	}

	return Success(c, tags)
}

// AddFavorite favorites a published recipe
func (h *Handler) AddFavorite(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	id, ok := recipeID(c)
	if !ok {
		return Error(c, fiber.StatusBadRequest, "invalid recipe id")
	}

	if err := h.db.AddFavorite(c.Context(), userID, id); err != nil {
		return h.recipeError(c, "failed to add favorite", err)
	}

	return Success(c, fiber.Map{"is_favorite": true})
}

// RemoveFavorite removes a recipe from the caller's favorites
func (h *Handler) RemoveFavorite(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	id, ok := recipeID(c)
	if !ok {
		return Error(c, fiber.StatusBadRequest, "invalid recipe id")
	}

	if err := h.db.RemoveFavorite(c.Context(), userID, id); err != nil {
		return h.internalError(c, "failed to remove favorite", err)
	}

	return Success(c, fiber.Map{"is_favorite": false})
}

// ListFavorites returns the caller's favorite recipes
func (h *Handler) ListFavorites(c *fiber.Ctx) error {
	favorites, err := h.db.ListFavorites(c.Context(), middleware.GetUserID(c))
	if err != nil {
		return h.internalError(c, "failed to list favorites", err)
	}
	return Success(c, favorites)
}
