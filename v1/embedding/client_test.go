package embedding

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx"
	"go.uber.org/fx/fxtest"
)

type shortEmbedder struct{}

func (shortEmbedder) Embed(context.Context, Content) ([]float32, error) { return []float32{1}, nil }
func (shortEmbedder) Dimension(m Modality) int {
	if m == ModalityText {
		return 2
	}
	return 0
}

func TestConfigValidate(t *testing.T) {
	cfg := DefaultConfig()
	assert.Error(t, cfg.Validate(), "endpoint is required for inference")

	cfg.Endpoint = "http://localhost"
	assert.NoError(t, cfg.Validate())

	cfg.Provider = "magic"
	assert.Error(t, cfg.Validate())

	cfg = &Config{Provider: ProviderHash}
	assert.Error(t, cfg.Validate(), "dimension is required")
	cfg.Dimension = 16
	assert.NoError(t, cfg.Validate())
}

func TestNewClient_Hash(t *testing.T) {
	c, err := NewClient(&Config{Provider: ProviderHash, Dimension: 384})
	require.NoError(t, err)

	v, err := c.EmbedText(context.Background(), "hello world")
	require.NoError(t, err)
	assert.Len(t, v, 384)
	assert.Equal(t, 384, c.Dimension(ModalityImage))
	assert.NoError(t, c.Close())
}

func TestClient_ChecksDimension(t *testing.T) {
	c := NewClientWithProvider(shortEmbedder{})

	_, err := c.EmbedText(context.Background(), "x")
	assert.ErrorIs(t, err, ErrUnexpectedDimension)

	_, err = c.EmbedImage(context.Background(), nil)
	assert.ErrorIs(t, err, ErrUnsupportedModality)
}

func TestFXModule(t *testing.T) {
	var e Embedder
	app := fxtest.New(t,
		fx.Provide(func() *Config { return &Config{Provider: ProviderHash, Dimension: 512} }),
		FXModule,
		fx.Populate(&e),
	)
	app.RequireStart()
	defer app.RequireStop()

	require.NotNil(t, e)
	assert.Equal(t, 512, e.Dimension(ModalityText))
}
