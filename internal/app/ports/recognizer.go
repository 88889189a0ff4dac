package ports

import "context"

// TextRecognizer turns raw image bytes into recognized plain text. Output
// may be noisy or empty; empty string means nothing usable.
type TextRecognizer interface {
	Recognize(ctx context.Context, image []byte) (string, error)
}
