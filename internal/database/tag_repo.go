package database

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/foxxcyber/bubblegut/internal/models"
)

var ErrUnknownTag = errors.New("unknown tag")

// ListTags returns all recipe tags ordered by name
func (db *DB) ListTags(ctx context.Context) ([]models.Tag, error) {
	rows, err := db.Pool.Query(ctx, `SELECT id, name FROM recipe_tags ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list tags: %w", err)
	}
	return scanTags(rows)
}

// GetRecipeTags returns the tags attached to a recipe
func (db *DB) GetRecipeTags(ctx context.Context, recipeID int) ([]models.Tag, error) {
	rows, err := db.Pool.Query(ctx, `
		SELECT t.id, t.name
		FROM recipe_tags t
		JOIN recipe_tag_map m ON m.tag_id = t.id
		WHERE m.recipe_id = $1
		ORDER BY t.name
	`, recipeID)
	if err != nil {
		return nil, fmt.Errorf("failed to get recipe tags: %w", err)
	}
	return scanTags(rows)
}

func scanTags(rows pgx.Rows) ([]models.Tag, error) {
	defer rows.Close()

	tags := []models.Tag{}
	for rows.Next() {
		var t models.Tag
		if err := rows.Scan(&t.ID, &t.Name); err != nil {
			return nil, fmt.Errorf("failed to scan tag: %w", err)
		}
		tags = append(tags, t)
	}
	return tags, rows.Err()
}

// UpsertTag creates a tag if it does not exist and returns it
func (db *DB) UpsertTag(ctx context.Context, name string) (*models.Tag, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	tag := &models.Tag{}
	err := db.Pool.QueryRow(ctx, `
		INSERT INTO recipe_tags (name) VALUES ($1)
		ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name
		RETURNING id, name
	`, name).Scan(&tag.ID, &tag.Name)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert tag %q: %w", name, err)
	}
	return tag, nil
}

// SetRecipeTags replaces the tags of an owned recipe
func (db *DB) SetRecipeTags(ctx context.Context, recipeID, userID int, tagIDs []int) ([]models.Tag, error) {
	err := db.withTx(ctx, func(tx pgx.Tx) error {
		if _, err := lockOwnedRecipe(ctx, tx, recipeID, userID); err != nil {
			return err
		}

		if _, err := tx.Exec(ctx, `DELETE FROM recipe_tag_map WHERE recipe_id = $1`, recipeID); err != nil {
			return fmt.Errorf("failed to clear tags: %w", err)
		}

		if len(tagIDs) == 0 {
			return nil
		}

		result, err := tx.Exec(ctx, `
			INSERT INTO recipe_tag_map (recipe_id, tag_id)
			SELECT $1, id FROM recipe_tags WHERE id = ANY($2)
			ON CONFLICT DO NOTHING
		`, recipeID, tagIDs)
		if err != nil {
			return fmt.Errorf("failed to set tags: %w", err)
		}
		if int(result.RowsAffected()) != countDistinct(tagIDs) {
			return ErrUnknownTag
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return db.GetRecipeTags(ctx, recipeID)
}

func countDistinct(ids []int) int {
	seen := make(map[int]struct{}, len(ids))
	for _, id := range ids {
		seen[id] = struct{}{}
	}
	return len(seen)
}

// AddFavorite marks a published recipe as a favorite of the user
func (db *DB) AddFavorite(ctx context.Context, userID, recipeID int) error {
	recipe, err := db.GetRecipe(ctx, recipeID)
	if err != nil {
		return err
	}
	if err := CheckFavoritable(recipe); err != nil {
		return err
	}

	_, err = db.Pool.Exec(ctx, `
		INSERT INTO recipe_favorites (user_id, recipe_id) VALUES ($1, $2)
		ON CONFLICT DO NOTHING
	`, userID, recipeID)
	if err != nil {
		return fmt.Errorf("failed to add favorite: %w", err)
	}
	return nil
}

// RemoveFavorite removes a favorite; removing a missing favorite is not an error
func (db *DB) RemoveFavorite(ctx context.Context, userID, recipeID int) error {
	_, err := db.Pool.Exec(ctx, `DELETE FROM recipe_favorites WHERE user_id = $1 AND recipe_id = $2`, userID, recipeID)
	if err != nil {
		return fmt.Errorf("failed to remove favorite: %w", err)
	}
	return nil
}

// IsFavorite reports whether the user has favorited the recipe
func (db *DB) IsFavorite(ctx context.Context, userID, recipeID int) (bool, error) {
	var exists bool
	err := db.Pool.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM recipe_favorites WHERE user_id = $1 AND recipe_id = $2)`,
		userID, recipeID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check favorite: %w", err)
	}
	return exists, nil
}

// ListFavorites returns the user's favorite published recipes, most recently favorited first
func (db *DB) ListFavorites(ctx context.Context, userID int) ([]models.RecipeSummary, error) {
	rows, err := db.Pool.Query(ctx, `
		SELECT r.id, r.title, r.description, r.servings, r.status, r.created_by, r.created_at
		FROM recipe_favorites f
		JOIN recipes r ON r.id = f.recipe_id
		WHERE f.user_id = $1 AND r.status = 'published'
		ORDER BY f.created_at DESC, r.id DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list favorites: %w", err)
	}

	return scanRecipeSummaries(rows)
}
