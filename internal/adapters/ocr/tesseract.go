// Package ocr implements text recognition with Tesseract. Recognition is
// CPU-bound; callers are expected to dispatch through the worker pool.
package ocr

import (
	"context"
	"fmt"

	"github.com/otiai10/gosseract/v2"
)

// Recognizer is a ports.TextRecognizer backed by a Tesseract engine. A
// fresh gosseract client is created per call; the client type is not safe
// for concurrent use.
type Recognizer struct {
	languages []string
}

// New creates a recognizer. With no languages given, Tesseract's default
// (eng) applies.
func New(languages ...string) *Recognizer {
	return &Recognizer{languages: languages}
}

// Recognize runs one OCR pass over raw image bytes. Empty output with a nil
// error means nothing usable was recognized.
func (r *Recognizer) Recognize(_ context.Context, image []byte) (string, error) {
	client := gosseract.NewClient()
	defer client.Close()

	if len(r.languages) > 0 {
		if err := client.SetLanguage(r.languages...); err != nil {
			return "", fmt.Errorf("set ocr language: %w", err)
		}
	}
	if err := client.SetImageFromBytes(image); err != nil {
		return "", fmt.Errorf("load image: %w", err)
	}
	text, err := client.Text()
	if err != nil {
		return "", fmt.Errorf("recognize text: %w", err)
	}
	return text, nil
}
