package embedding

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"image/png"
	"net/http"
	"strings"
	"time"
)

// InferenceProvider computes embeddings through an OpenAI-compatible
// /embeddings endpoint. Text is sent as is; images are sent as PNG data URLs.
type InferenceProvider struct {
	baseURL    string
	token      string
	textModel  string
	imageModel string
	dimension  int
	httpClient *http.Client
}

var _ Embedder = (*InferenceProvider)(nil)

// NewInferenceProvider builds a provider from cfg.
func NewInferenceProvider(cfg *Config) (*InferenceProvider, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("inference: missing EMBEDDING_ENDPOINT")
	}

	timeout := cfg.HTTPTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &InferenceProvider{
		// Remove trailing slash if user added it.
		baseURL:    strings.TrimRight(cfg.Endpoint, "/"),
		token:      cfg.ServiceToken,
		textModel:  cfg.TextModel,
		imageModel: cfg.ImageModel,
		dimension:  cfg.Dimension,
		httpClient: &http.Client{Timeout: timeout},
	}, nil
}

func (p *InferenceProvider) Dimension(m Modality) int {
	if p.model(m) == "" {
		return 0
	}
	return p.dimension
}

func (p *InferenceProvider) model(m Modality) string {
	switch m {
	case ModalityText:
		return p.textModel
	case ModalityImage:
		return p.imageModel
	}
	return ""
}

// Embed encodes a single piece of content.
func (p *InferenceProvider) Embed(ctx context.Context, content Content) ([]float32, error) {
	model := p.model(content.Modality)
	if model == "" {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedModality, content.Modality)
	}

	input, err := encodeInput(content)
	if err != nil {
		return nil, err
	}

	out, err := p.create(ctx, model, []string{input})
	if err != nil {
		return nil, err
	}
	return out[0], nil
}

// EmbedTexts encodes several texts in one request. Results are aligned with texts.
func (p *InferenceProvider) EmbedTexts(ctx context.Context, texts ...string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, fmt.Errorf("inference: no texts provided")
	}
	if p.textModel == "" {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedModality, ModalityText)
	}
	for i, t := range texts {
		if strings.TrimSpace(t) == "" {
			return nil, fmt.Errorf("%w: text %d is blank", ErrEmptyContent, i)
		}
	}
	return p.create(ctx, p.textModel, texts)
}

func (p *InferenceProvider) create(ctx context.Context, model string, inputs []string) ([][]float32, error) {
	reqBody := map[string]any{
		"model": model,
		"input": inputs,
	}

	var parsed struct {
		Data []struct {
			Index     int       `json:"index"`
			Embedding []float32 `json:"embedding"`
		} `json:"data"`
	}

	url := fmt.Sprintf("%s/embeddings", p.baseURL)
	if err := p.postJSON(ctx, url, reqBody, &parsed); err != nil {
		return nil, err
	}

	if len(parsed.Data) != len(inputs) {
		return nil, fmt.Errorf("inference: expected %d embeddings, got %d", len(inputs), len(parsed.Data))
	}

	out := make([][]float32, len(inputs))
	for i, d := range parsed.Data {
		idx := d.Index
		if idx < 0 || idx >= len(out) || out[idx] != nil {
			idx = i
		}
		if err := checkDimension(d.Embedding, p.dimension); err != nil {
			return nil, fmt.Errorf("inference: model %s: %w", model, err)
		}
		out[idx] = d.Embedding
	}
	return out, nil
}

// encodeInput renders content as the string the endpoint expects.
func encodeInput(content Content) (string, error) {
	switch content.Modality {
	case ModalityText:
		if strings.TrimSpace(content.Text) == "" {
			return "", ErrEmptyContent
		}
		return content.Text, nil
	case ModalityImage:
		if content.Image == nil {
			return "", ErrEmptyContent
		}
		var buf bytes.Buffer
		if err := png.Encode(&buf, content.Image); err != nil {
			return "", fmt.Errorf("inference: encode image: %w", err)
		}
		return "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes()), nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedModality, content.Modality)
}
