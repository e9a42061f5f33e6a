package database

import (
	"errors"
	"fmt"
	"math"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/foxxcyber/bubblegut/internal/models"
)

func TestMigrationVersionsAreOrdered(t *testing.T) {
	versions := migrationVersions()
	require.Len(t, versions, len(migrations))
	for i, v := range versions {
		assert.Equal(t, i+1, v)
	}
}

func TestIsUniqueViolation(t *testing.T) {
	err := fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23505", ConstraintName: "users_email_key"})

	assert.True(t, isUniqueViolation(err, ""))
	assert.True(t, isUniqueViolation(err, "users_email_key"))
	assert.False(t, isUniqueViolation(err, "users_display_name_lower_key"))
	assert.False(t, isUniqueViolation(&pgconn.PgError{Code: "23503"}, ""))
	assert.False(t, isUniqueViolation(errors.New("boom"), ""))
}

func TestMapUserWriteError(t *testing.T) {
	assert.ErrorIs(t, mapUserWriteError(&pgconn.PgError{Code: "23505", ConstraintName: "users_email_key"}), ErrEmailExists)
	assert.ErrorIs(t, mapUserWriteError(&pgconn.PgError{Code: "23505", ConstraintName: "users_display_name_lower_key"}), ErrDisplayNameTaken)

	other := errors.New("other")
	assert.Equal(t, other, mapUserWriteError(other))
}

func TestValidateIngredientRows(t *testing.T) {
	q := func(v float64) *float64 { return &v }
	valid := models.ParsedIngredient{LineNo: 1, RawLine: "2 cups rice", Quantity: q(2), Confidence: 1}

	tests := []struct {
		name    string
		rows    []models.ParsedIngredient
		wantErr bool
	}{
		{"empty", nil, false},
		{"valid", []models.ParsedIngredient{valid, {LineNo: 2, RawLine: "salt", Confidence: 0.6}}, false},
		{"zero line", []models.ParsedIngredient{{LineNo: 0, RawLine: "x", Confidence: 0.5}}, true},
		{"duplicate line", []models.ParsedIngredient{valid, valid}, true},
		{"blank raw line", []models.ParsedIngredient{{LineNo: 1, RawLine: "   ", Confidence: 0.5}}, true},
		{"nan quantity", []models.ParsedIngredient{{LineNo: 1, RawLine: "x", Quantity: q(math.NaN()), Confidence: 0.5}}, true},
		{"infinite quantity", []models.ParsedIngredient{{LineNo: 1, RawLine: "x", Quantity: q(math.Inf(1)), Confidence: 0.5}}, true},
		{"confidence too high", []models.ParsedIngredient{{LineNo: 1, RawLine: "x", Confidence: 1.1}}, true},
		{"negative confidence", []models.ParsedIngredient{{LineNo: 1, RawLine: "x", Confidence: -0.1}}, true},
		{"gaps allowed", []models.ParsedIngredient{{LineNo: 3, RawLine: "x", Confidence: 0.5}, {LineNo: 1, RawLine: "y", Confidence: 0.5}}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateIngredientRows(tt.rows)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidIngredientRow)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestEncryptDecryptRoundTrip(t *testing.T) {
	key := make([]byte, 32)
	for i := range key {
		key[i] = byte(i)
	}

	ciphertext, err := encrypt("s3-secret", key)
	require.NoError(t, err)
	assert.NotEqual(t, "s3-secret", ciphertext)

	plaintext, err := decrypt(ciphertext, key)
	require.NoError(t, err)
	assert.Equal(t, "s3-secret", plaintext)

	wrongKey := make([]byte, 32)
	_, err = decrypt(ciphertext, wrongKey)
	assert.Error(t, err)
}

func TestConvertSettingValue(t *testing.T) {
	assert.Equal(t, 42, convertSettingValue("42", "int"))
	assert.Equal(t, true, convertSettingValue("true", "bool"))
	assert.Equal(t, false, convertSettingValue("nope", "bool"))
	assert.Equal(t, "plain", convertSettingValue("plain", "string"))
	assert.Equal(t, map[string]interface{}{"a": float64(1)}, convertSettingValue(`{"a":1}`, "json"))
}

func TestStorageConfigConfigured(t *testing.T) {
	cfg := &StorageConfig{Enabled: true, Endpoint: "s3:3900", AccessKey: "a", SecretKey: "b"}
	assert.True(t, cfg.Configured())

	cfg.Enabled = false
	assert.False(t, cfg.Configured())

	cfg = &StorageConfig{Enabled: true, Endpoint: "s3:3900"}
	assert.False(t, cfg.Configured())
}

func TestPlainValue(t *testing.T) {
	key := make([]byte, 32)
	sealed, err := encrypt("access", key)
	require.NoError(t, err)

	assert.Equal(t, "access", plainValue(sealed, "encrypted", key))
	assert.Equal(t, sealed, plainValue(sealed, "encrypted", nil), "no key leaves value sealed")
	assert.Equal(t, "legacy-plain", plainValue("legacy-plain", "encrypted", key), "undecryptable value returned as stored")
	assert.Equal(t, "garage", plainValue("garage", "string", key))
	assert.Equal(t, "", plainValue("", "encrypted", key))
}

func TestRecipeAccessChecks(t *testing.T) {
	draft := &models.Recipe{ID: 1, CreatedBy: 5, Status: models.RecipeStatusDraft}
	published := &models.Recipe{ID: 2, CreatedBy: 5, Status: models.RecipeStatusPublished, IsPublished: true}

	tests := []struct {
		name string
		err  error
		want error
	}{
		{"owner edits draft", CheckRecipeOwner(draft, 5), nil},
		{"other user's draft looks missing", CheckRecipeOwner(draft, 6), ErrRecipeNotFound},
		{"anonymous draft looks missing", CheckRecipeOwner(draft, 0), ErrRecipeNotFound},
		{"other user's published recipe is forbidden", CheckRecipeOwner(published, 6), ErrNotRecipeOwner},
		{"owner deletes", CheckRecipeDelete(published, 5, false), nil},
		{"moderator deletes any draft", CheckRecipeDelete(draft, 6, true), nil},
		{"user cannot delete published", CheckRecipeDelete(published, 6, false), ErrNotRecipeOwner},
		{"user cannot see draft to delete", CheckRecipeDelete(draft, 6, false), ErrRecipeNotFound},
		{"published is favoritable", CheckFavoritable(published), nil},
		{"draft is not favoritable", CheckFavoritable(draft), ErrRecipeNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.want == nil {
				assert.NoError(t, tt.err)
				return
			}
			assert.ErrorIs(t, tt.err, tt.want)
		})
	}
}
