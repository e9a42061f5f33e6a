package handlers

import (
	"errors"
	"io"

	"github.com/gofiber/fiber/v2"

	"github.com/foxxcyber/bubblegut/internal/middleware"
	"github.com/foxxcyber/bubblegut/internal/services"
)

func (h *Handler) scanError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, services.ErrInvalidImageType):
		return Error(c, fiber.StatusBadRequest, err.Error())
	case errors.Is(err, services.ErrImageTooLarge):
		return Error(c, fiber.StatusBadRequest, "file too large")
	case errors.Is(err, services.ErrNoTextRecognized):
		return Error(c, fiber.StatusUnprocessableEntity, err.Error())
	}
	return h.internalError(c, "failed to process recipe card", err)
}

// ScanRecipeCard reads a photographed recipe card, appends the recognized
// text to the recipe's ingredients and returns the parsed rows for review
func (h *Handler) ScanRecipeCard(c *fiber.Ctx) error {
	recipe, err := h.ownedRecipe(c)
	if err != nil {
		return h.recipeError(c, "failed to load recipe", err)
	}

	file, err := c.FormFile("image")
	if err != nil {
		return Error(c, fiber.StatusBadRequest, "image file is required")
	}

	contentType := file.Header.Get("Content-Type")
	if !services.IsValidImageType(contentType) {
		return Error(c, fiber.StatusBadRequest, services.ErrInvalidImageType.Error())
	}
	if file.Size > h.cfg.MaxUploadBytes() {
		return Error(c, fiber.StatusBadRequest, "file too large")
	}

	src, err := file.Open()
	if err != nil {
		return h.internalError(c, "failed to read file", err)
	}
	defer src.Close()

	image, err := io.ReadAll(src)
	if err != nil {
		return h.internalError(c, "failed to read file", err)
	}

	userID := middleware.GetUserID(c)
	previousKey := recipe.ImageKey
	result, err := h.cards.Scan(c.Context(), userID, file.Filename, contentType, image)
	if err != nil {
		return h.scanError(c, err)
	}

	if _, err := h.db.AppendRecipeIngredients(c.Context(), recipe.ID, userID, result.Text, &result.ImageKey); err != nil {
		h.cards.Discard(c.Context(), result.ImageKey)
		return h.recipeError(c, "failed to update recipe", err)
	}

	// The recipe keeps one card image; the new scan replaces the old one
	if previousKey != nil && *previousKey != result.ImageKey {
		h.cards.Discard(c.Context(), *previousKey)
	}

	return Success(c, result)
}

// RescanRecipeCard reads the stored card image of a recipe again without
// changing the recipe
func (h *Handler) RescanRecipeCard(c *fiber.Ctx) error {
	recipe, err := h.ownedRecipe(c)
	if err != nil {
		return h.recipeError(c, "failed to load recipe", err)
	}
	if recipe.ImageKey == nil {
		return Error(c, fiber.StatusNotFound, "recipe has no card image")
	}

	result, err := h.cards.Rescan(c.Context(), *recipe.ImageKey)
	if err != nil {
		return h.scanError(c, err)
	}

	return Success(c, result)
}

// GetRecipeImage returns a temporary download URL for a recipe's card image
func (h *Handler) GetRecipeImage(c *fiber.Ctx) error {
	id, ok := recipeID(c)
	if !ok {
		return Error(c, fiber.StatusBadRequest, "invalid recipe id")
	}

	recipe, err := h.db.GetVisibleRecipe(c.Context(), id, middleware.GetUserID(c))
	if err != nil {
		return h.recipeError(c, "failed to load recipe", err)
	}
	if recipe.ImageKey == nil {
		return Error(c, fiber.StatusNotFound, "recipe has no card image")
	}

	url, err := h.cards.ImageURL(c.Context(), *recipe.ImageKey)
	if err != nil {
		return h.internalError(c, "failed to generate image URL", err)
	}

	return Success(c, fiber.Map{"url": url, "expires_in": 3600})
}
