package database

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/jackc/pgx/v5"
	"golang.org/x/sync/errgroup"

	"github.com/foxxcyber/bubblegut/internal/models"
)

var (
	ErrRecipeNotFound       = errors.New("recipe not found")
	ErrNotRecipeOwner       = errors.New("not the owner of this recipe")
	ErrNoIngredientRows     = errors.New("at least one ingredient row is required")
	ErrInvalidIngredientRow = errors.New("invalid ingredient row")
)

const recipeColumns = `id, created_by, title, description, servings, ingredients, instructions, status, is_published, image_key, created_at, updated_at`

// querier is satisfied by both the pool and a transaction
type querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func scanRecipe(row pgx.Row) (*models.Recipe, error) {
	r := &models.Recipe{}
	err := row.Scan(
		&r.ID,
		&r.CreatedBy,
		&r.Title,
		&r.Description,
		&r.Servings,
		&r.Ingredients,
		&r.Instructions,
		&r.Status,
		&r.IsPublished,
		&r.ImageKey,
		&r.CreatedAt,
		&r.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrRecipeNotFound
		}
		return nil, err
	}
	return r, nil
}

// CheckRecipeOwner allows writes by the owner. Drafts the user cannot see
// report ErrRecipeNotFound so their existence is not revealed.
func CheckRecipeOwner(recipe *models.Recipe, userID int) error {
	if !recipe.IsVisibleTo(userID) {
		return ErrRecipeNotFound
	}
	if !recipe.IsOwnedBy(userID) {
		return ErrNotRecipeOwner
	}
	return nil
}

// CheckRecipeDelete allows the owner or a moderator to delete a recipe
func CheckRecipeDelete(recipe *models.Recipe, userID int, isModerator bool) error {
	if isModerator {
		return nil
	}
	return CheckRecipeOwner(recipe, userID)
}

// CheckFavoritable allows favorites on published recipes only
func CheckFavoritable(recipe *models.Recipe) error {
	if recipe.Status != models.RecipeStatusPublished {
		return ErrRecipeNotFound
	}
	return nil
}

// lockOwnedRecipe loads a recipe for update and checks ownership
func lockOwnedRecipe(ctx context.Context, q querier, recipeID, userID int) (*models.Recipe, error) {
	recipe, err := scanRecipe(q.QueryRow(ctx, `SELECT `+recipeColumns+` FROM recipes WHERE id = $1 FOR UPDATE`, recipeID))
	if err != nil {
		return nil, err
	}
	if err := CheckRecipeOwner(recipe, userID); err != nil {
		return nil, err
	}
	return recipe, nil
}

// RecipeFields holds the editable columns of a recipe. Nil pointers leave
// the column untouched; ServingsSet distinguishes clearing from omission.
type RecipeFields struct {
	Title        *string
	Description  *string
	Servings     *int
	ServingsSet  bool
	Ingredients  *string
	Instructions *string
}

// CreateRecipe inserts a new draft recipe
func (db *DB) CreateRecipe(ctx context.Context, userID int, title string, description *string, servings *int, ingredients, instructions string) (*models.Recipe, error) {
	return scanRecipe(db.Pool.QueryRow(ctx, `
		INSERT INTO recipes (created_by, title, description, servings, ingredients, instructions, status, is_published, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, 'draft', false, NOW(), NOW())
		RETURNING `+recipeColumns, userID, title, description, servings, ingredients, instructions))
}

// GetRecipe retrieves a recipe by ID without visibility checks
func (db *DB) GetRecipe(ctx context.Context, id int) (*models.Recipe, error) {
	return scanRecipe(db.Pool.QueryRow(ctx, `SELECT `+recipeColumns+` FROM recipes WHERE id = $1`, id))
}

// GetVisibleRecipe retrieves a recipe the viewer may read. Drafts of other
// users are reported as not found.
func (db *DB) GetVisibleRecipe(ctx context.Context, id, viewerID int) (*models.Recipe, error) {
	recipe, err := db.GetRecipe(ctx, id)
	if err != nil {
		return nil, err
	}
	if !recipe.IsVisibleTo(viewerID) {
		return nil, ErrRecipeNotFound
	}
	return recipe, nil
}

// GetRecipeDetail returns a visible recipe with its tags and favorite flag
func (db *DB) GetRecipeDetail(ctx context.Context, id, viewerID int) (*models.RecipeDetail, error) {
	recipe, err := db.GetVisibleRecipe(ctx, id, viewerID)
	if err != nil {
		return nil, err
	}

	detail := &models.RecipeDetail{Recipe: *recipe}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		detail.Tags, err = db.GetRecipeTags(gctx, id)
		return err
	})
	if viewerID != 0 && recipe.Status == models.RecipeStatusPublished {
		g.Go(func() error {
			var err error
			detail.IsFavorite, err = db.IsFavorite(gctx, viewerID, id)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return detail, nil
}

func scanRecipeSummaries(rows pgx.Rows) ([]models.RecipeSummary, error) {
	defer rows.Close()

	summaries := []models.RecipeSummary{}
	for rows.Next() {
		var s models.RecipeSummary
		if err := rows.Scan(&s.ID, &s.Title, &s.Description, &s.Servings, &s.Status, &s.CreatedBy, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan recipe: %w", err)
		}
		summaries = append(summaries, s)
	}
	return summaries, rows.Err()
}

// ListPublishedRecipes returns published recipes, newest first. When tag IDs
// are given a recipe matches if it carries any of them.
func (db *DB) ListPublishedRecipes(ctx context.Context, params models.RecipeListParams) ([]models.RecipeSummary, error) {
	if params.Limit <= 0 || params.Limit > 100 {
		params.Limit = 50
	}
	if params.Offset < 0 {
		params.Offset = 0
	}

	var (
		rows pgx.Rows
		err  error
	)
	if len(params.TagIDs) > 0 {
		rows, err = db.Pool.Query(ctx, `
			SELECT r.id, r.title, r.description, r.servings, r.status, r.created_by, r.created_at
			FROM recipes r
			WHERE r.status = 'published'
			  AND EXISTS (SELECT 1 FROM recipe_tag_map m WHERE m.recipe_id = r.id AND m.tag_id = ANY($1))
			ORDER BY r.created_at DESC, r.id DESC
			LIMIT $2 OFFSET $3
		`, params.TagIDs, params.Limit, params.Offset)
	} else {
		rows, err = db.Pool.Query(ctx, `
			SELECT id, title, description, servings, status, created_by, created_at
			FROM recipes
			WHERE status = 'published'
			ORDER BY created_at DESC, id DESC
			LIMIT $1 OFFSET $2
		`, params.Limit, params.Offset)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list recipes: %w", err)
	}

	return scanRecipeSummaries(rows)
}

// ListDraftsByUser returns the user's draft recipes, newest first
func (db *DB) ListDraftsByUser(ctx context.Context, userID int) ([]models.RecipeSummary, error) {
	rows, err := db.Pool.Query(ctx, `
		SELECT id, title, description, servings, status, created_by, created_at
		FROM recipes
		WHERE created_by = $1 AND status = 'draft'
		ORDER BY created_at DESC, id DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list drafts: %w", err)
	}

	return scanRecipeSummaries(rows)
}

// UpdateRecipe edits an owned recipe. Any edit returns it to draft.
func (db *DB) UpdateRecipe(ctx context.Context, recipeID, userID int, fields RecipeFields) (*models.Recipe, error) {
	var updated *models.Recipe
	err := db.withTx(ctx, func(tx pgx.Tx) error {
		if _, err := lockOwnedRecipe(ctx, tx, recipeID, userID); err != nil {
			return err
		}

		var err error
		updated, err = scanRecipe(tx.QueryRow(ctx, `
			UPDATE recipes
			SET title = COALESCE($2, title),
			    description = COALESCE($3, description),
			    servings = CASE WHEN $4 THEN $5 ELSE servings END,
			    ingredients = COALESCE($6, ingredients),
			    instructions = COALESCE($7, instructions),
			    status = 'draft',
			    is_published = false,
			    updated_at = NOW()
			WHERE id = $1
			RETURNING `+recipeColumns,
			recipeID, fields.Title, fields.Description, fields.ServingsSet, fields.Servings, fields.Ingredients, fields.Instructions))
		return err
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// AppendRecipeIngredients appends text to the ingredients block of an owned
// recipe, records the source image and returns the recipe to draft
func (db *DB) AppendRecipeIngredients(ctx context.Context, recipeID, userID int, text string, imageKey *string) (*models.Recipe, error) {
	var updated *models.Recipe
	err := db.withTx(ctx, func(tx pgx.Tx) error {
		if _, err := lockOwnedRecipe(ctx, tx, recipeID, userID); err != nil {
			return err
		}

		var err error
		updated, err = scanRecipe(tx.QueryRow(ctx, `
			UPDATE recipes
			SET ingredients = CASE WHEN ingredients = '' THEN $2 ELSE ingredients || E'\n' || $2 END,
			    image_key = COALESCE($3, image_key),
			    status = 'draft',
			    is_published = false,
			    updated_at = NOW()
			WHERE id = $1
			RETURNING `+recipeColumns, recipeID, text, imageKey))
		return err
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// DeleteRecipe deletes a recipe. Owners may delete their own; moderators any.
func (db *DB) DeleteRecipe(ctx context.Context, recipeID, userID int, isModerator bool) error {
	recipe, err := db.GetRecipe(ctx, recipeID)
	if err != nil {
		return err
	}
	if err := CheckRecipeDelete(recipe, userID, isModerator); err != nil {
		return err
	}

	_, err = db.Pool.Exec(ctx, `DELETE FROM recipes WHERE id = $1`, recipeID)
	if err != nil {
		return fmt.Errorf("failed to delete recipe: %w", err)
	}
	return nil
}

// ValidateIngredientRows checks reviewed rows before they are persisted
func ValidateIngredientRows(rows []models.ParsedIngredient) error {
	seen := make(map[int]bool, len(rows))
	for i, row := range rows {
		switch {
		case row.LineNo < 1:
			return fmt.Errorf("%w: row %d: line_no must be at least 1", ErrInvalidIngredientRow, i+1)
		case seen[row.LineNo]:
			return fmt.Errorf("%w: row %d: duplicate line_no %d", ErrInvalidIngredientRow, i+1, row.LineNo)
		case strings.TrimSpace(row.RawLine) == "":
			return fmt.Errorf("%w: row %d: raw_line is required", ErrInvalidIngredientRow, i+1)
		case row.Quantity != nil && (math.IsNaN(*row.Quantity) || math.IsInf(*row.Quantity, 0)):
			return fmt.Errorf("%w: row %d: quantity must be a finite number", ErrInvalidIngredientRow, i+1)
		case row.Confidence < 0 || row.Confidence > 1 || math.IsNaN(row.Confidence):
			return fmt.Errorf("%w: row %d: confidence must be between 0 and 1", ErrInvalidIngredientRow, i+1)
		}
		seen[row.LineNo] = true
	}
	return nil
}

// replaceIngredients swaps all stored rows of a recipe inside tx
func replaceIngredients(ctx context.Context, tx pgx.Tx, recipeID int, rows []models.ParsedIngredient) error {
	if _, err := tx.Exec(ctx, `DELETE FROM recipe_ingredients WHERE recipe_id = $1`, recipeID); err != nil {
		return fmt.Errorf("failed to clear ingredients: %w", err)
	}

	_, err := tx.CopyFrom(ctx,
		pgx.Identifier{"recipe_ingredients"},
		[]string{"recipe_id", "line_no", "raw_line", "quantity", "unit", "item_name", "notes", "category", "confidence"},
		pgx.CopyFromSlice(len(rows), func(i int) ([]any, error) {
			r := rows[i]
			return []any{recipeID, r.LineNo, strings.TrimSpace(r.RawLine), r.Quantity, r.Unit, r.ItemName, r.Notes, r.Category, float32(r.Confidence)}, nil
		}),
	)
	if err != nil {
		return fmt.Errorf("failed to insert ingredients: %w", err)
	}
	return nil
}

// SaveRecipeIngredients replaces the reviewed rows of an owned recipe
func (db *DB) SaveRecipeIngredients(ctx context.Context, recipeID, userID int, rows []models.ParsedIngredient) error {
	if err := ValidateIngredientRows(rows); err != nil {
		return err
	}

	return db.withTx(ctx, func(tx pgx.Tx) error {
		if _, err := lockOwnedRecipe(ctx, tx, recipeID, userID); err != nil {
			return err
		}
		return replaceIngredients(ctx, tx, recipeID, rows)
	})
}

// PublishRecipe saves the reviewed rows and publishes the recipe atomically
func (db *DB) PublishRecipe(ctx context.Context, recipeID, userID int, rows []models.ParsedIngredient) (*models.Recipe, error) {
	if len(rows) == 0 {
		return nil, ErrNoIngredientRows
	}
	if err := ValidateIngredientRows(rows); err != nil {
		return nil, err
	}

	var published *models.Recipe
	err := db.withTx(ctx, func(tx pgx.Tx) error {
		if _, err := lockOwnedRecipe(ctx, tx, recipeID, userID); err != nil {
			return err
		}
		if err := replaceIngredients(ctx, tx, recipeID, rows); err != nil {
			return err
		}

		var err error
		published, err = scanRecipe(tx.QueryRow(ctx, `
			UPDATE recipes
			SET status = 'published', is_published = true, updated_at = NOW()
			WHERE id = $1
			RETURNING `+recipeColumns, recipeID))
		return err
	})
	if err != nil {
		return nil, err
	}
	return published, nil
}

// ListRecipeIngredients returns the persisted rows ordered by line number
func (db *DB) ListRecipeIngredients(ctx context.Context, recipeID int) ([]models.ParsedIngredient, error) {
	rows, err := db.Pool.Query(ctx, `
		SELECT line_no, raw_line, quantity, unit, item_name, notes, category, confidence
		FROM recipe_ingredients
		WHERE recipe_id = $1
		ORDER BY line_no
	`, recipeID)
	if err != nil {
		return nil, fmt.Errorf("failed to list ingredients: %w", err)
	}
	defer rows.Close()

	items := []models.ParsedIngredient{}
	for rows.Next() {
		var item models.ParsedIngredient
		var confidence float32
		if err := rows.Scan(&item.LineNo, &item.RawLine, &item.Quantity, &item.Unit, &item.ItemName, &item.Notes, &item.Category, &confidence); err != nil {
			return nil, fmt.Errorf("failed to scan ingredient: %w", err)
		}
		// REAL column; strip float32 noise
		item.Confidence = math.Round(float64(confidence)*100) / 100
		items = append(items, item)
	}

	return items, rows.Err()
}
