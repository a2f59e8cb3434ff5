package retrieval

import (
	"context"
	"fmt"
	"strings"

	"github.com/Aleph-Alpha/vecsearch/v1/embedding"
	"github.com/Aleph-Alpha/vecsearch/v1/vectordb"
)

const (
	// TextCollection is the default collection of the text index.
	TextCollection = "text_collection"
	// TextDimension is the output size of the sentence model the index is built for.
	TextDimension = 384
	// TextPayloadKey holds the original text of a point.
	TextPayloadKey = "text"
)

// ExampleTexts are the entries inserted by TextIndex.Seed.
var ExampleTexts = []string{
	"The quick brown fox jumps over the lazy dog",
	"Machine learning is a subset of artificial intelligence",
	"Python is a versatile programming language",
	"Neural networks are inspired by biological neurons",
	"Vector databases are useful for similarity search",
}

// TextSchema is the single-slot cosine schema of the text index.
func TextSchema() vectordb.Schema {
	return vectordb.SingleVector(TextDimension, vectordb.DistanceCosine)
}

// TextIndex stores short texts and finds the most similar ones.
type TextIndex struct {
	svc        *vectordb.Service
	embedder   embedding.Embedder
	collection string
	logger     Logger
}

// NewTextIndex builds a text index. The embedder must produce TextDimension
// vectors for text.
func NewTextIndex(svc *vectordb.Service, embedder embedding.Embedder, opts ...Option) (*TextIndex, error) {
	if err := checkEmbedder(embedder, embedding.ModalityText, TextDimension); err != nil {
		return nil, err
	}
	o := buildOptions(TextCollection, opts)
	return &TextIndex{svc: svc, embedder: embedder, collection: o.collection, logger: o.logger}, nil
}

// Collection returns the name of the backing collection.
func (ix *TextIndex) Collection() string { return ix.collection }

// Ensure creates the collection when it does not exist.
func (ix *TextIndex) Ensure(ctx context.Context) error {
	return ix.svc.Ensure(ctx, ix.collection, TextSchema())
}

// Add embeds text and stores it. It returns the generated point ID.
func (ix *TextIndex) Add(ctx context.Context, text string) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", fmt.Errorf("retrieval: %w", embedding.ErrEmptyContent)
	}
	v, err := ix.embedder.Embed(ctx, embedding.Text(text))
	if err != nil {
		return "", fmt.Errorf("retrieval: embed text: %w", err)
	}
	id, err := ix.svc.Upsert(ctx, vectordb.UpsertRequest{
		Collection: ix.collection,
		Vector:     v,
		Payload:    map[string]any{TextPayloadKey: text},
	})
	if err != nil {
		return "", err
	}
	ix.logger.Debug("[Retrieval] Added text", nil, map[string]interface{}{"collection": ix.collection, "id": id})
	return id, nil
}

// Seed adds ExampleTexts and returns how many were stored.
func (ix *TextIndex) Seed(ctx context.Context) (int, error) {
	for i, text := range ExampleTexts {
		if _, err := ix.Add(ctx, text); err != nil {
			return i, err
		}
	}
	ix.logger.Info("[Retrieval] Added example data", nil, map[string]interface{}{
		"collection": ix.collection,
		"count":      len(ExampleTexts),
	})
	return len(ExampleTexts), nil
}

// Search returns up to ClampLimit(k) entries most similar to query.
func (ix *TextIndex) Search(ctx context.Context, query string, k int) ([]Result, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("retrieval: %w", embedding.ErrEmptyContent)
	}
	v, err := ix.embedder.Embed(ctx, embedding.Text(query))
	if err != nil {
		return nil, fmt.Errorf("retrieval: embed query: %w", err)
	}
	matches, err := ix.svc.Search(ctx, vectordb.SearchRequest{
		Collection: ix.collection,
		Vector:     v,
		Limit:      ClampLimit(k),
	})
	if err != nil {
		return nil, err
	}
	return toResults(matches), nil
}

// Count returns the number of stored entries.
func (ix *TextIndex) Count(ctx context.Context) (uint64, error) {
	return ix.svc.Count(ctx, ix.collection)
}

// Clear removes every entry.
func (ix *TextIndex) Clear(ctx context.Context) error {
	return ix.svc.Clear(ctx, ix.collection, TextSchema())
}

// TextOf returns the stored text of a result, or "" when absent.
func TextOf(r Result) string {
	s, _ := r.Payload[TextPayloadKey].(string)
	return s
}
