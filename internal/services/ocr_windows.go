//go:build windows

package services

import (
	"context"
	"errors"
)

// OCRService reads text from recipe card images (stub for Windows)
type OCRService struct{}

// NewOCRService creates a new OCR service (not available on Windows)
func NewOCRService(language string) (*OCRService, error) {
	return nil, errors.New("OCR service is not available on Windows - run in Docker container")
}

// ProcessImage extracts text from an encoded image
func (s *OCRService) ProcessImage(ctx context.Context, imageBytes []byte) (*OCRResult, error) {
	return nil, errors.New("OCR service is not available on Windows")
}

// Close releases OCR resources
func (s *OCRService) Close() error {
	return nil
}
