package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/foxxcyber/bubblegut/internal/models"
)

var (
	ErrInvalidImageType = errors.New("invalid image type. Supported: JPEG, PNG, WebP")
	ErrImageTooLarge    = errors.New("image too large")
	ErrNoTextRecognized = errors.New("no text recognized in image")
)

// OCRResult contains the OCR processing result
type OCRResult struct {
	Text string
}

// ImageStore is the object storage used for recipe card images
type ImageStore interface {
	Upload(ctx context.Context, key string, image []byte, contentType string) error
	Download(ctx context.Context, key string) (io.ReadCloser, error)
	GetPresignedURL(ctx context.Context, key string, expiry time.Duration) (string, error)
	Delete(ctx context.Context, key string) error
}

// TextRecognizer extracts text from an encoded image
type TextRecognizer interface {
	ProcessImage(ctx context.Context, imageBytes []byte) (*OCRResult, error)
}

// RecipeCardService stores photographed recipe cards and turns them into
// parsed ingredient rows
type RecipeCardService struct {
	storage  ImageStore
	ocr      TextRecognizer
	maxBytes int64
	log      *zap.Logger
}

// NewRecipeCardService creates a new recipe card service
func NewRecipeCardService(storage ImageStore, ocr TextRecognizer, maxBytes int64, logger *zap.Logger) *RecipeCardService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RecipeCardService{
		storage:  storage,
		ocr:      ocr,
		maxBytes: maxBytes,
		log:      logger,
	}
}

// Scan uploads the image, reads it and parses the recognized text. The
// uploaded object is removed again when nothing usable was recognized.
func (s *RecipeCardService) Scan(ctx context.Context, userID int, filename, contentType string, image []byte) (*models.ScanResult, error) {
	if !IsValidImageType(contentType) {
		return nil, ErrInvalidImageType
	}
	if s.maxBytes > 0 && int64(len(image)) > s.maxBytes {
		return nil, ErrImageTooLarge
	}

	key := RecipeCardKey(userID, filename, contentType)
	if err := s.storage.Upload(ctx, key, image, contentType); err != nil {
		return nil, fmt.Errorf("failed to upload image: %w", err)
	}

	result, err := s.recognize(ctx, image)
	if err != nil {
		s.Discard(ctx, key)
		return nil, err
	}

	result.ImageKey = key
	s.log.Info("Recipe card scanned",
		zap.Int("user_id", userID),
		zap.String("key", key),
		zap.Int("lines", len(result.Rows)))
	return result, nil
}

// Rescan reads a previously stored image again
func (s *RecipeCardService) Rescan(ctx context.Context, key string) (*models.ScanResult, error) {
	obj, err := s.storage.Download(ctx, key)
	if err != nil {
		return nil, err
	}
	defer obj.Close()

	image, err := io.ReadAll(obj)
	if err != nil {
		return nil, fmt.Errorf("failed to read image: %w", err)
	}

	result, err := s.recognize(ctx, image)
	if err != nil {
		return nil, err
	}
	result.ImageKey = key
	return result, nil
}

// Discard removes a stored image that is no longer referenced. Failures are
// logged only.
func (s *RecipeCardService) Discard(ctx context.Context, key string) {
	if err := s.storage.Delete(ctx, key); err != nil {
		s.log.Warn("Failed to clean up recipe card image", zap.String("key", key), zap.Error(err))
	}
}

// ImageURL returns a time-limited download URL for a stored image
func (s *RecipeCardService) ImageURL(ctx context.Context, key string) (string, error) {
	return s.storage.GetPresignedURL(ctx, key, time.Hour)
}

func (s *RecipeCardService) recognize(ctx context.Context, image []byte) (*models.ScanResult, error) {
	ocrResult, err := s.ocr.ProcessImage(ctx, image)
	if err != nil {
		return nil, fmt.Errorf("OCR processing failed: %w", err)
	}

	text := normalizeScannedText(ocrResult.Text)
	if text == "" {
		return nil, ErrNoTextRecognized
	}

	return &models.ScanResult{
		Text: text,
		Rows: ParseIngredientsText(text),
	}, nil
}

// normalizeScannedText unifies line endings and drops blank lines
func normalizeScannedText(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	return strings.Join(SplitIngredientLines(text), "\n")
}
