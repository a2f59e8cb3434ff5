package embedding

import (
	"fmt"
	"time"
)

// Provider names.
const (
	ProviderInference = "inference"
	ProviderHash      = "hash"
)

// Config selects and configures the embedding provider.
//
// ENDPOINT must point to the root of the OpenAI-compatible inference service
// (no /embeddings appended); the provider appends the path itself.
type Config struct {
	// Provider is "inference" (default) or "hash".
	Provider string `yaml:"provider" envconfig:"PROVIDER"`

	// Base URL of the inference API.
	Endpoint string `yaml:"endpoint" envconfig:"ENDPOINT"`

	// Bearer token sent with every request.
	ServiceToken string `yaml:"service_token" envconfig:"SERVICE_TOKEN"`

	// Model used for text content.
	TextModel string `yaml:"text_model" envconfig:"TEXT_MODEL"`

	// Model used for image content. Empty disables images.
	ImageModel string `yaml:"image_model" envconfig:"IMAGE_MODEL"`

	// Dimension is the output length of the configured model(s).
	Dimension int `yaml:"dimension" envconfig:"DIMENSION"`

	// HTTPTimeout bounds a single request (default 30s).
	HTTPTimeout time.Duration `yaml:"http_timeout" envconfig:"HTTP_TIMEOUT"`
}

// DefaultConfig returns the text-only setup: a 384-dimensional sentence model.
func DefaultConfig() *Config {
	return &Config{
		Provider:    ProviderInference,
		TextModel:   "all-MiniLM-L6-v2",
		Dimension:   384,
		HTTPTimeout: 30 * time.Second,
	}
}

// SharedConfig returns the shared text/image setup: a 512-dimensional CLIP model.
func SharedConfig() *Config {
	return &Config{
		Provider:    ProviderInference,
		TextModel:   "clip-ViT-B-32",
		ImageModel:  "clip-ViT-B-32",
		Dimension:   512,
		HTTPTimeout: 30 * time.Second,
	}
}

// Validate ensures required fields are present.
func (c *Config) Validate() error {
	if c.Dimension <= 0 {
		return fmt.Errorf("embedding: dimension must be positive, got %d", c.Dimension)
	}
	switch c.Provider {
	case "", ProviderInference:
		if c.Endpoint == "" {
			return fmt.Errorf("embedding: missing EMBEDDING_ENDPOINT")
		}
		if c.TextModel == "" && c.ImageModel == "" {
			return fmt.Errorf("embedding: at least one of text_model and image_model is required")
		}
	case ProviderHash:
	default:
		return fmt.Errorf("embedding: unknown provider %q", c.Provider)
	}
	return nil
}
