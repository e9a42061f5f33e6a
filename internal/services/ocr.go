//go:build !windows

package services

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/otiai10/gosseract/v2"
)

// OCRService reads text from recipe card images.
// The underlying tesseract client is not safe for concurrent use.
type OCRService struct {
	mu     sync.Mutex
	client *gosseract.Client
}

// NewOCRService creates a new OCR service for the given tesseract language
func NewOCRService(language string) (*OCRService, error) {
	client := gosseract.NewClient()

	if language == "" {
		language = "eng"
	}
	if err := client.SetLanguage(strings.Split(language, "+")...); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to set OCR language: %w", err)
	}

	// Recipe cards list one ingredient per line; PSM 4 keeps columns of
	// variable-size text line by line
	if err := client.SetPageSegMode(gosseract.PSM_SINGLE_COLUMN); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to set page segmentation mode: %w", err)
	}

	return &OCRService{
		client: client,
	}, nil
}

// ProcessImage extracts text from an encoded image
func (s *OCRService) ProcessImage(ctx context.Context, imageBytes []byte) (*OCRResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.client.SetImageFromBytes(imageBytes); err != nil {
		return nil, fmt.Errorf("failed to set image: %w", err)
	}

	text, err := s.client.Text()
	if err != nil {
		return nil, fmt.Errorf("failed to extract text: %w", err)
	}

	return &OCRResult{Text: text}, nil
}

// Close releases OCR resources
func (s *OCRService) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.client != nil {
		return s.client.Close()
	}
	return nil
}
