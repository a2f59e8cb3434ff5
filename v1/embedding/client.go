package embedding

import (
	"context"
	"fmt"
	"image"
)

// Client is the public entrypoint for computing embeddings.
//
// It hides provider details (inference endpoints, HTTP, hashing) from the
// application layer and checks that every vector has the advertised length.
// A Client is built once per process and shared; it is safe for concurrent use.
type Client struct {
	provider Embedder
}

var _ Embedder = (*Client)(nil)

// NewClient constructs a Client from Config.
// It validates the config and internally constructs the configured provider.
func NewClient(cfg *Config) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("embedding: invalid config: %w", err)
	}

	var (
		p   Embedder
		err error
	)
	switch cfg.Provider {
	case ProviderHash:
		p, err = NewHashEmbedder(cfg.Dimension)
	default:
		p, err = NewInferenceProvider(cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("embedding: failed to create provider: %w", err)
	}

	return &Client{provider: p}, nil
}

// NewClientWithProvider wraps an existing Embedder.
func NewClientWithProvider(p Embedder) *Client {
	return &Client{provider: p}
}

func (c *Client) Dimension(m Modality) int {
	return c.provider.Dimension(m)
}

// Embed encodes content and verifies the output length.
func (c *Client) Embed(ctx context.Context, content Content) ([]float32, error) {
	want := c.provider.Dimension(content.Modality)
	if want == 0 {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedModality, content.Modality)
	}
	v, err := c.provider.Embed(ctx, content)
	if err != nil {
		return nil, err
	}
	if err := checkDimension(v, want); err != nil {
		return nil, err
	}
	return v, nil
}

// EmbedText is shorthand for Embed(ctx, Text(s)).
func (c *Client) EmbedText(ctx context.Context, s string) ([]float32, error) {
	return c.Embed(ctx, Text(s))
}

// EmbedImage is shorthand for Embed(ctx, Image(img)).
func (c *Client) EmbedImage(ctx context.Context, img image.Image) ([]float32, error) {
	return c.Embed(ctx, Image(img))
}

// Close allows the client to release any internal resources used by the provider.
// Currently this is a no-op unless the provider implements Close().
func (c *Client) Close() error {
	if closer, ok := c.provider.(interface{ Close() error }); ok {
		return closer.Close()
	}
	return nil
}
