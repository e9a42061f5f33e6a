package models

import (
	"time"
)

// RecipeStatus represents the publication state of a recipe
type RecipeStatus string

const (
	RecipeStatusDraft     RecipeStatus = "draft"
	RecipeStatusPublished RecipeStatus = "published"
)

// Recipe represents a community recipe
type Recipe struct {
	ID           int          `json:"id"`
	CreatedBy    int          `json:"created_by"`
	Title        string       `json:"title"`
	Description  *string      `json:"description,omitempty"`
	Servings     *int         `json:"servings,omitempty"`
	Ingredients  string       `json:"ingredients"`
	Instructions string       `json:"instructions"`
	Status       RecipeStatus `json:"status"`
	IsPublished  bool         `json:"is_published"`
	ImageKey     *string      `json:"image_key,omitempty"`
	CreatedAt    time.Time    `json:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at"`
}

// IsOwnedBy reports whether the recipe was created by the given user
func (r *Recipe) IsOwnedBy(userID int) bool {
	return userID != 0 && r.CreatedBy == userID
}

// IsVisibleTo reports whether a user may read the recipe. Drafts are owner-only.
func (r *Recipe) IsVisibleTo(userID int) bool {
	return r.Status == RecipeStatusPublished || r.IsOwnedBy(userID)
}

// RecipeDetail is a recipe with its tags and the caller's favorite flag
type RecipeDetail struct {
	Recipe
	Tags       []Tag `json:"tags"`
	IsFavorite bool  `json:"is_favorite"`
}

// RecipeSummary is a compact representation for list views
type RecipeSummary struct {
	ID          int          `json:"id"`
	Title       string       `json:"title"`
	Description *string      `json:"description,omitempty"`
	Servings    *int         `json:"servings,omitempty"`
	Status      RecipeStatus `json:"status"`
	CreatedBy   int          `json:"created_by"`
	CreatedAt   time.Time    `json:"created_at"`
}

// Tag is a recipe tag such as "low-fodmap"
type Tag struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// CreateRecipeRequest is the request body for creating a recipe draft
type CreateRecipeRequest struct {
	Title        string  `json:"title"`
	Description  *string `json:"description,omitempty"`
	Servings     string  `json:"servings"`
	Ingredients  string  `json:"ingredients"`
	Instructions string  `json:"instructions"`
}

// UpdateRecipeRequest is the request body for editing a recipe.
// Any edit returns the recipe to draft.
type UpdateRecipeRequest struct {
	Title        *string `json:"title,omitempty"`
	Description  *string `json:"description,omitempty"`
	Servings     *string `json:"servings,omitempty"`
	Ingredients  *string `json:"ingredients,omitempty"`
	Instructions *string `json:"instructions,omitempty"`
}

// SetRecipeTagsRequest replaces the tags of a recipe
type SetRecipeTagsRequest struct {
	TagIDs []int `json:"tag_ids"`
}

// RecipeListParams contains parameters for listing recipes
type RecipeListParams struct {
	Limit  int
	Offset int
	TagIDs []int // Optional - match ANY of these tags
}
