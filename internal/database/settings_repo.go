package database

import (
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
)

// SystemSetting is a runtime setting editable by admins
type SystemSetting struct {
	Key         string    `json:"key"`
	Value       string    `json:"value"`
	ValueType   string    `json:"value_type"`
	Category    string    `json:"category"`
	Description string    `json:"description"`
	IsSensitive bool      `json:"is_sensitive"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// SettingsMap is a map of setting keys to typed values
type SettingsMap map[string]interface{}

// MaskedValue replaces sensitive values in responses. Submitting it back
// leaves the stored value unchanged.
const MaskedValue = "••••••••"

var ErrSettingNotFound = errors.New("setting not found")

const settingColumns = `key, value, value_type, category, description, is_sensitive, created_at, updated_at`

// encrypt seals plaintext with AES-GCM, prefixing the nonce
func encrypt(plaintext string, key []byte) (string, error) {
	gcm, err := newGCM(key)
	if err != nil {
		return "", err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err = io.ReadFull(rand.Reader, nonce); err != nil {
		return "", err
	}

	return base64.StdEncoding.EncodeToString(gcm.Seal(nonce, nonce, []byte(plaintext), nil)), nil
}

func decrypt(ciphertext string, key []byte) (string, error) {
	data, err := base64.StdEncoding.DecodeString(ciphertext)
	if err != nil {
		return "", err
	}

	gcm, err := newGCM(key)
	if err != nil {
		return "", err
	}

	nonceSize := gcm.NonceSize()
	if len(data) < nonceSize {
		return "", errors.New("ciphertext too short")
	}

	plaintext, err := gcm.Open(nil, data[:nonceSize], data[nonceSize:], nil)
	if err != nil {
		return "", err
	}
	return string(plaintext), nil
}

func newGCM(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}

// plainValue returns the readable form of a stored value. Values that fail
// to decrypt are returned as stored.
func plainValue(value, valueType string, encryptionKey []byte) string {
	if valueType != "encrypted" || value == "" || encryptionKey == nil {
		return value
	}
	if decrypted, err := decrypt(value, encryptionKey); err == nil {
		return decrypted
	}
	return value
}

func scanSetting(row pgx.Row, encryptionKey []byte) (*SystemSetting, error) {
	var s SystemSetting
	if err := row.Scan(&s.Key, &s.Value, &s.ValueType, &s.Category, &s.Description, &s.IsSensitive, &s.CreatedAt, &s.UpdatedAt); err != nil {
		return nil, err
	}
	s.Value = plainValue(s.Value, s.ValueType, encryptionKey)
	return &s, nil
}

// GetSetting retrieves a single setting by key, decrypted
func (db *DB) GetSetting(ctx context.Context, key string, encryptionKey []byte) (*SystemSetting, error) {
	s, err := scanSetting(db.Pool.QueryRow(ctx, `SELECT `+settingColumns+` FROM system_settings WHERE key = $1`, key), encryptionKey)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrSettingNotFound
		}
		return nil, fmt.Errorf("failed to get setting: %w", err)
	}
	return s, nil
}

// GetSettingBool retrieves a setting as a boolean
func (db *DB) GetSettingBool(ctx context.Context, key string, defaultValue bool, encryptionKey []byte) bool {
	setting, err := db.GetSetting(ctx, key, encryptionKey)
	if err != nil {
		return defaultValue
	}
	val, err := strconv.ParseBool(setting.Value)
	if err != nil {
		return defaultValue
	}
	return val
}

// GetSettingsByCategoryAsMap retrieves all settings in a category as typed
// values. Sensitive values are masked unless includeSensitive is set.
func (db *DB) GetSettingsByCategoryAsMap(ctx context.Context, category string, encryptionKey []byte, includeSensitive bool) (SettingsMap, error) {
	rows, err := db.Pool.Query(ctx, `SELECT `+settingColumns+` FROM system_settings WHERE category = $1`, category)
	if err != nil {
		return nil, fmt.Errorf("failed to get settings by category: %w", err)
	}
	defer rows.Close()

	result := make(SettingsMap)
	for rows.Next() {
		s, err := scanSetting(rows, encryptionKey)
		if err != nil {
			return nil, fmt.Errorf("failed to scan setting: %w", err)
		}

		if s.IsSensitive && !includeSensitive && s.Value != "" {
			result[s.Key] = MaskedValue
		} else {
			result[s.Key] = convertSettingValue(s.Value, s.ValueType)
		}
	}

	return result, rows.Err()
}

// GetAllSettings retrieves all settings grouped by category, sensitive values masked
func (db *DB) GetAllSettings(ctx context.Context, encryptionKey []byte) (map[string][]SystemSetting, error) {
	rows, err := db.Pool.Query(ctx, `SELECT `+settingColumns+` FROM system_settings ORDER BY category, key`)
	if err != nil {
		return nil, fmt.Errorf("failed to get all settings: %w", err)
	}
	defer rows.Close()

	result := make(map[string][]SystemSetting)
	for rows.Next() {
		s, err := scanSetting(rows, encryptionKey)
		if err != nil {
			return nil, fmt.Errorf("failed to scan setting: %w", err)
		}
		if s.IsSensitive && s.Value != "" {
			s.Value = MaskedValue
		}
		result[s.Category] = append(result[s.Category], *s)
	}

	return result, rows.Err()
}

// SetSettings updates existing settings in one transaction. Unknown keys
// fail with ErrSettingNotFound and nothing is written.
func (db *DB) SetSettings(ctx context.Context, settings map[string]string, encryptionKey []byte) error {
	return db.withTx(ctx, func(tx pgx.Tx) error {
		for key, value := range settings {
			if err := setSetting(ctx, tx, key, value, encryptionKey); err != nil {
				return fmt.Errorf("failed to set %s: %w", key, err)
			}
		}
		return nil
	})
}

func setSetting(ctx context.Context, tx pgx.Tx, key, value string, encryptionKey []byte) error {
	var valueType string
	err := tx.QueryRow(ctx, `SELECT value_type FROM system_settings WHERE key = $1 FOR UPDATE`, key).Scan(&valueType)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrSettingNotFound
		}
		return err
	}

	if value == MaskedValue {
		return nil
	}

	if valueType == "encrypted" && value != "" && encryptionKey != nil {
		value, err = encrypt(value, encryptionKey)
		if err != nil {
			return fmt.Errorf("failed to encrypt value: %w", err)
		}
	}

	_, err = tx.Exec(ctx, `UPDATE system_settings SET value = $2, updated_at = NOW() WHERE key = $1`, key, value)
	return err
}

// convertSettingValue converts a stored string to its declared type
func convertSettingValue(value, valueType string) interface{} {
	switch valueType {
	case "int":
		if v, err := strconv.Atoi(value); err == nil {
			return v
		}
		return 0
	case "bool":
		if v, err := strconv.ParseBool(value); err == nil {
			return v
		}
		return false
	case "json":
		var v interface{}
		if err := json.Unmarshal([]byte(value), &v); err == nil {
			return v
		}
		return nil
	default:
		return value
	}
}

// StorageConfig holds object storage settings from the database
type StorageConfig struct {
	Enabled   bool
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	Region    string
	UseSSL    bool
}

// Configured reports whether enough settings are present to connect
func (c *StorageConfig) Configured() bool {
	return c.Enabled && c.Endpoint != "" && c.AccessKey != "" && c.SecretKey != ""
}

// GetStorageConfig reads the storage category. Missing settings take their defaults.
func (db *DB) GetStorageConfig(ctx context.Context, encryptionKey []byte) (*StorageConfig, error) {
	settings, err := db.GetSettingsByCategoryAsMap(ctx, "storage", encryptionKey, true)
	if err != nil {
		return nil, err
	}

	str := func(key, def string) string {
		if s, ok := settings[key].(string); ok && s != "" {
			return s
		}
		return def
	}
	flag := func(key string) bool {
		b, _ := settings[key].(bool)
		return b
	}

	return &StorageConfig{
		Enabled:   flag("s3_enabled"),
		Endpoint:  str("s3_endpoint", ""),
		AccessKey: str("s3_access_key", ""),
		SecretKey: str("s3_secret_key", ""),
		Bucket:    str("s3_bucket", "recipe-cards"),
		Region:    str("s3_region", "garage"),
		UseSSL:    flag("s3_use_ssl"),
	}, nil
}
