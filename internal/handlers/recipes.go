package handlers

import (
	"errors"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/foxxcyber/bubblegut/internal/database"
	"github.com/foxxcyber/bubblegut/internal/middleware"
	"github.com/foxxcyber/bubblegut/internal/models"
	"github.com/foxxcyber/bubblegut/internal/services"
)

// recipeError maps repository errors to responses
func (h *Handler) recipeError(c *fiber.Ctx, message string, err error) error {
	switch {
	case errors.Is(err, database.ErrRecipeNotFound):
		return Error(c, fiber.StatusNotFound, "recipe not found")
	case errors.Is(err, database.ErrNotRecipeOwner):
		return Error(c, fiber.StatusForbidden, "only the recipe owner can do this")
	case errors.Is(err, database.ErrNoIngredientRows):
		return Error(c, fiber.StatusBadRequest, err.Error())
	case errors.Is(err, database.ErrInvalidIngredientRow):
		return Error(c, fiber.StatusBadRequest, err.Error())
	case errors.Is(err, database.ErrUnknownTag):
		return Error(c, fiber.StatusBadRequest, "unknown tag")
	}
	return h.internalError(c, message, err)
}

// parseServings accepts a positive whole number; anything else means unknown
func parseServings(s string) *int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n <= 0 {
		return nil
	}
	return &n
}

// parseTagIDs parses a comma separated list of tag ids
func parseTagIDs(s string) ([]int, error) {
	var ids []int
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.Atoi(part)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func recipeID(c *fiber.Ctx) (int, bool) {
	id, err := strconv.Atoi(c.Params("id"))
	return id, err == nil && id > 0
}

// CreateRecipe creates a new recipe draft
func (h *Handler) CreateRecipe(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	if userID == 0 {
		return Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	var req models.CreateRecipeRequest
	if err := c.BodyParser(&req); err != nil {
		return Error(c, fiber.StatusBadRequest, "invalid request body")
	}

	title := strings.TrimSpace(req.Title)
	ingredients := strings.TrimSpace(req.Ingredients)
	instructions := strings.TrimSpace(req.Instructions)
	if title == "" || ingredients == "" || instructions == "" {
		return Error(c, fiber.StatusBadRequest, "title, ingredients and instructions are required")
	}

	var description *string
	if req.Description != nil {
		if d := strings.TrimSpace(*req.Description); d != "" {
			description = &d
		}
	}

	recipe, err := h.db.CreateRecipe(c.Context(), userID, title, description, parseServings(req.Servings), ingredients, instructions)
	if err != nil {
		return h.internalError(c, "failed to create recipe", err)
	}

	h.log.Info("Recipe draft created", zap.Int("recipe_id", recipe.ID), zap.Int("user_id", userID))
	return Created(c, recipe)
}

// ListRecipes returns published recipes, optionally filtered by tags
func (h *Handler) ListRecipes(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", 50)
	offset := c.QueryInt("offset", 0)

	tagIDs, err := parseTagIDs(c.Query("tags"))
	if err != nil {
		return Error(c, fiber.StatusBadRequest, "invalid tag id")
	}

	recipes, err := h.db.ListPublishedRecipes(c.Context(), models.RecipeListParams{
		Limit:  limit,
		Offset: offset,
		TagIDs: tagIDs,
	})
	if err != nil {
		return h.internalError(c, "failed to list recipes", err)
	}

	return Success(c, recipes)
}

// ListMyDrafts returns the caller's unpublished recipes
func (h *Handler) ListMyDrafts(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	if userID == 0 {
		return Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	drafts, err := h.db.ListDraftsByUser(c.Context(), userID)
	if err != nil {
		return h.internalError(c, "failed to list drafts", err)
	}

	return Success(c, drafts)
}

// GetRecipe returns a recipe with tags and the caller's favorite flag
func (h *Handler) GetRecipe(c *fiber.Ctx) error {
	id, ok := recipeID(c)
	if !ok {
		return Error(c, fiber.StatusBadRequest, "invalid recipe id")
	}

	detail, err := h.db.GetRecipeDetail(c.Context(), id, middleware.GetUserID(c))
	if err != nil {
		return h.recipeError(c, "failed to get recipe", err)
	}

	return Success(c, detail)
}

// UpdateRecipe edits a recipe; the recipe returns to draft
func (h *Handler) UpdateRecipe(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	id, ok := recipeID(c)
	if !ok {
		return Error(c, fiber.StatusBadRequest, "invalid recipe id")
	}

	var req models.UpdateRecipeRequest
	if err := c.BodyParser(&req); err != nil {
		return Error(c, fiber.StatusBadRequest, "invalid request body")
	}

	fields := database.RecipeFields{Description: req.Description}
	for _, f := range []struct {
		in  *string
		out **string
	}{
		{req.Title, &fields.Title},
		{req.Ingredients, &fields.Ingredients},
		{req.Instructions, &fields.Instructions},
	} {
		if f.in == nil {
			continue
		}
		v := strings.TrimSpace(*f.in)
		if v == "" {
			return Error(c, fiber.StatusBadRequest, "title, ingredients and instructions cannot be empty")
		}
		*f.out = &v
	}
	if req.Servings != nil {
		fields.ServingsSet = true
		fields.Servings = parseServings(*req.Servings)
	}

	recipe, err := h.db.UpdateRecipe(c.Context(), id, userID, fields)
	if err != nil {
		return h.recipeError(c, "failed to update recipe", err)
	}

	return Success(c, recipe)
}

// DeleteRecipe deletes a recipe. Moderators may delete any recipe.
func (h *Handler) DeleteRecipe(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	id, ok := recipeID(c)
	if !ok {
		return Error(c, fiber.StatusBadRequest, "invalid recipe id")
	}

	if err := h.db.DeleteRecipe(c.Context(), id, userID, middleware.IsModerator(c)); err != nil {
		return h.recipeError(c, "failed to delete recipe", err)
	}

	h.log.Info("Recipe deleted", zap.Int("recipe_id", id), zap.Int("by", userID))
	return Success(c, fiber.Map{"deleted": true})
}

// ownedRecipe loads a recipe the caller owns. Hidden drafts look missing.
func (h *Handler) ownedRecipe(c *fiber.Ctx) (*models.Recipe, error) {
	id, ok := recipeID(c)
	if !ok {
		return nil, database.ErrRecipeNotFound
	}

	userID := middleware.GetUserID(c)
	recipe, err := h.db.GetVisibleRecipe(c.Context(), id, userID)
	if err != nil {
		return nil, err
	}
	if err := database.CheckRecipeOwner(recipe, userID); err != nil {
		return nil, err
	}
	return recipe, nil
}

// ReviewIngredients parses the stored ingredient text for the review step
func (h *Handler) ReviewIngredients(c *fiber.Ctx) error {
	recipe, err := h.ownedRecipe(c)
	if err != nil {
		return h.recipeError(c, "failed to load recipe", err)
	}

	return Success(c, models.IngredientReview{
		Recipe: models.RecipeSummary{
			ID:          recipe.ID,
			Title:       recipe.Title,
			Description: recipe.Description,
			Servings:    recipe.Servings,
			Status:      recipe.Status,
			CreatedBy:   recipe.CreatedBy,
			CreatedAt:   recipe.CreatedAt,
		},
		Rows: services.ParseIngredientsText(recipe.Ingredients),
	})
}

// SaveIngredients stores reviewed ingredient rows without publishing
func (h *Handler) SaveIngredients(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	id, ok := recipeID(c)
	if !ok {
		return Error(c, fiber.StatusBadRequest, "invalid recipe id")
	}

	var req models.SaveIngredientsRequest
	if err := c.BodyParser(&req); err != nil {
		return Error(c, fiber.StatusBadRequest, "invalid request body")
	}
	if err := database.ValidateIngredientRows(req.Rows); err != nil {
		return Error(c, fiber.StatusBadRequest, err.Error())
	}

	if err := h.db.SaveRecipeIngredients(c.Context(), id, userID, req.Rows); err != nil {
		return h.recipeError(c, "failed to save ingredients", err)
	}

	return Success(c, fiber.Map{"saved": len(req.Rows)})
}

// PublishRecipe saves the reviewed rows and publishes the recipe
func (h *Handler) PublishRecipe(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	id, ok := recipeID(c)
	if !ok {
		return Error(c, fiber.StatusBadRequest, "invalid recipe id")
	}

	var req models.SaveIngredientsRequest
	if err := c.BodyParser(&req); err != nil {
		return Error(c, fiber.StatusBadRequest, "invalid request body")
	}
	if len(req.Rows) == 0 {
		return Error(c, fiber.StatusBadRequest, database.ErrNoIngredientRows.Error())
	}
	if err := database.ValidateIngredientRows(req.Rows); err != nil {
		return Error(c, fiber.StatusBadRequest, err.Error())
	}

	recipe, err := h.db.PublishRecipe(c.Context(), id, userID, req.Rows)
	if err != nil {
		return h.recipeError(c, "failed to publish recipe", err)
	}

	h.log.Info("Recipe published", zap.Int("recipe_id", id), zap.Int("rows", len(req.Rows)))
	return Success(c, recipe)
}

// ListIngredients returns the persisted ingredient rows of a visible recipe
func (h *Handler) ListIngredients(c *fiber.Ctx) error {
	id, ok := recipeID(c)
	if !ok {
		return Error(c, fiber.StatusBadRequest, "invalid recipe id")
	}

	if _, err := h.db.GetVisibleRecipe(c.Context(), id, middleware.GetUserID(c)); err != nil {
		return h.recipeError(c, "failed to load recipe", err)
	}

	rows, err := h.db.ListRecipeIngredients(c.Context(), id)
	if err != nil {
		return h.internalError(c, "failed to list ingredients", err)
	}

	return Success(c, rows)
}

// ParseIngredients parses ad-hoc ingredient text without storing anything
func (h *Handler) ParseIngredients(c *fiber.Ctx) error {
	var req models.ParseIngredientsRequest
	if err := c.BodyParser(&req); err != nil {
		return Error(c, fiber.StatusBadRequest, "invalid request body")
	}

	return Success(c, services.ParseIngredientsText(req.Text))
}
