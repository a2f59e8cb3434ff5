package embedding

import (
	"context"
	"image"
)

// Modality names the kind of content an embedder encodes.
type Modality string

const (
	ModalityText  Modality = "text"
	ModalityImage Modality = "image"
)

// Content is the input of an embedding call. Exactly one of Text and Image
// is used, selected by Modality.
type Content struct {
	Modality Modality
	Text     string
	Image    image.Image
}

// Text wraps a string as text content.
func Text(s string) Content {
	return Content{Modality: ModalityText, Text: s}
}

// Image wraps decoded pixels as image content.
func Image(img image.Image) Content {
	return Content{Modality: ModalityImage, Image: img}
}

// Embedder maps content to a fixed-length vector.
//
// Implementations are deterministic for a given model and safe for
// concurrent use. Dimension reports the output length for a modality, or 0
// when the modality is not supported.
type Embedder interface {
	Embed(ctx context.Context, content Content) ([]float32, error)
	Dimension(m Modality) int
}
