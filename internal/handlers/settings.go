package handlers

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/foxxcyber/bubblegut/internal/config"
	"github.com/foxxcyber/bubblegut/internal/database"
	"github.com/foxxcyber/bubblegut/internal/services"
)

// SettingsHandler handles settings-related API endpoints
type SettingsHandler struct {
	db            Store
	cfg           *config.Config
	encryptionKey []byte
}

// NewSettingsHandler creates a new SettingsHandler instance
func NewSettingsHandler(db Store, cfg *config.Config) *SettingsHandler {
	return &SettingsHandler{
		db:            db,
		cfg:           cfg,
		encryptionKey: services.DeriveEncryptionKey(cfg.JWTSecret),
	}
}

// GetSettingsByCategory returns all settings for a given category
func (h *SettingsHandler) GetSettingsByCategory(c *fiber.Ctx) error {
	category := c.Params("category")
	if category == "" {
		return Error(c, fiber.StatusBadRequest, "category is required")
	}

	settings, err := h.db.GetSettingsByCategoryAsMap(c.Context(), category, h.encryptionKey, false)
	if err != nil {
		return Error(c, fiber.StatusInternalServerError, "failed to get settings")
	}

	return Success(c, settings)
}

// GetAllSettings returns all settings grouped by category
func (h *SettingsHandler) GetAllSettings(c *fiber.Ctx) error {
	settings, err := h.db.GetAllSettings(c.Context(), h.encryptionKey)
	if err != nil {
		return Error(c, fiber.StatusInternalServerError, "failed to get settings")
	}

	return Success(c, settings)
}

// UpdateSettingsRequest is the request body for updating settings
type UpdateSettingsRequest struct {
	Settings map[string]interface{} `json:"settings"`
}

// UpdateSettings updates multiple settings at once
func (h *SettingsHandler) UpdateSettings(c *fiber.Ctx) error {
	var req UpdateSettingsRequest
	if err := c.BodyParser(&req); err != nil {
		return Error(c, fiber.StatusBadRequest, "invalid request body")
	}
	if len(req.Settings) == 0 {
		return Error(c, fiber.StatusBadRequest, "no settings provided")
	}

	if err := h.db.SetSettings(c.Context(), stringifySettings(req.Settings), h.encryptionKey); err != nil {
		if errors.Is(err, database.ErrSettingNotFound) {
			return Error(c, fiber.StatusBadRequest, "unknown setting")
		}
		return Error(c, fiber.StatusInternalServerError, "failed to update settings")
	}

	return Success(c, fiber.Map{"message": "Settings updated successfully"})
}

// UpdateStorageSettingsRequest is the request body for updating object storage settings
type UpdateStorageSettingsRequest struct {
	Enabled   bool   `json:"s3_enabled"`
	Endpoint  string `json:"s3_endpoint"`
	AccessKey string `json:"s3_access_key"`
	SecretKey string `json:"s3_secret_key"`
	Bucket    string `json:"s3_bucket"`
	Region    string `json:"s3_region"`
	UseSSL    bool   `json:"s3_use_ssl"`
}

// UpdateStorageSettings updates recipe card storage settings. They are
// read at startup, so a restart is needed for changes to apply.
func (h *SettingsHandler) UpdateStorageSettings(c *fiber.Ctx) error {
	var req UpdateStorageSettingsRequest
	if err := c.BodyParser(&req); err != nil {
		return Error(c, fiber.StatusBadRequest, "invalid request body")
	}
	if req.Enabled && req.Endpoint == "" {
		return Error(c, fiber.StatusBadRequest, "s3_endpoint is required when storage is enabled")
	}

	settings := map[string]string{
		"s3_enabled":  strconv.FormatBool(req.Enabled),
		"s3_endpoint": req.Endpoint,
		"s3_bucket":   req.Bucket,
		"s3_region":   req.Region,
		"s3_use_ssl":  strconv.FormatBool(req.UseSSL),
	}

	// Only update credentials if new ones are provided (not masked)
	if req.AccessKey != "" && req.AccessKey != database.MaskedValue {
		settings["s3_access_key"] = req.AccessKey
	}
	if req.SecretKey != "" && req.SecretKey != database.MaskedValue {
		settings["s3_secret_key"] = req.SecretKey
	}

	if err := h.db.SetSettings(c.Context(), settings, h.encryptionKey); err != nil {
		return Error(c, fiber.StatusInternalServerError, "failed to update storage settings")
	}

	return Success(c, fiber.Map{
		"message":          "Storage settings updated successfully",
		"restart_required": true,
	})
}

// stringifySettings converts JSON values to their stored string form
func stringifySettings(in map[string]interface{}) map[string]string {
	out := make(map[string]string, len(in))
	for key, value := range in {
		switch v := value.(type) {
		case string:
			out[key] = v
		case float64:
			out[key] = strconv.FormatFloat(v, 'f', -1, 64)
		case bool:
			out[key] = strconv.FormatBool(v)
		case nil:
			out[key] = ""
		default:
			out[key] = fmt.Sprintf("%v", v)
		}
	}
	return out
}
