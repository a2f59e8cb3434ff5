package embedding

import (
	"errors"
	"fmt"
)

var (
	// ErrUnsupportedModality is returned when the configured model cannot encode the content kind.
	ErrUnsupportedModality = errors.New("embedding: unsupported modality")

	// ErrEmptyContent is returned for blank text or a nil image.
	ErrEmptyContent = errors.New("embedding: empty content")

	// ErrUnexpectedDimension is returned when a provider returns a vector of the wrong length.
	ErrUnexpectedDimension = errors.New("embedding: unexpected dimension")

	// ErrProviderUnavailable is returned when the inference service cannot be reached
	// or answers with a server error.
	ErrProviderUnavailable = errors.New("embedding: provider unavailable")
)

func checkDimension(v []float32, want int) error {
	if len(v) != want {
		return fmt.Errorf("%w: expected %d, got %d", ErrUnexpectedDimension, want, len(v))
	}
	return nil
}
