package retrieval

import (
	"fmt"

	"github.com/Aleph-Alpha/vecsearch/v1/embedding"
	"github.com/Aleph-Alpha/vecsearch/v1/vectordb"
)

// Logger defines the logging operations used by the retrieval package.
type Logger interface {
	Info(msg string, err error, fields ...map[string]interface{})
	Debug(msg string, err error, fields ...map[string]interface{})
	Warn(msg string, err error, fields ...map[string]interface{})
	Error(msg string, err error, fields ...map[string]interface{})
	Fatal(msg string, err error, fields ...map[string]interface{})
}

const (
	// DefaultLimit is the number of results returned when none is requested.
	DefaultLimit = 5
	// MaxLimit is the largest number of results a caller may ask for.
	MaxLimit = 10
)

// ClampLimit bounds a requested result count to 1..MaxLimit. Non-positive
// values select DefaultLimit.
func ClampLimit(k int) int {
	switch {
	case k <= 0:
		return DefaultLimit
	case k > MaxLimit:
		return MaxLimit
	}
	return k
}

// Result is one ranked hit, numbered from 1.
type Result struct {
	Rank    int
	ID      string
	Score   float32
	Payload map[string]any
}

func toResults(matches []vectordb.Match) []Result {
	out := make([]Result, len(matches))
	for i, m := range matches {
		out[i] = Result{Rank: i + 1, ID: m.ID, Score: m.Score, Payload: m.Payload}
	}
	return out
}

// Option configures an index.
type Option func(*options)

type options struct {
	collection string
	logger     Logger
	blobs      BlobStore
}

// WithCollectionName overrides the default collection name.
func WithCollectionName(name string) Option {
	return func(o *options) {
		if name != "" {
			o.collection = name
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

func buildOptions(collection string, opts []Option) options {
	o := options{collection: collection, logger: nopLogger{}}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// checkEmbedder verifies that the embedder produces vectors of the size the
// collection expects for modality m.
func checkEmbedder(e embedding.Embedder, m embedding.Modality, want uint64) error {
	if e == nil {
		return fmt.Errorf("retrieval: embedder is required")
	}
	got := e.Dimension(m)
	if got == 0 {
		return fmt.Errorf("retrieval: %w: embedder does not support %s", embedding.ErrUnsupportedModality, m)
	}
	if uint64(got) != want {
		return fmt.Errorf("retrieval: %w: embedder produces %d-dimensional %s vectors, collection expects %d",
			vectordb.ErrDimensionMismatch, got, m, want)
	}
	return nil
}

type nopLogger struct{}

func (nopLogger) Info(string, error, ...map[string]interface{})  {}
func (nopLogger) Debug(string, error, ...map[string]interface{}) {}
func (nopLogger) Warn(string, error, ...map[string]interface{})  {}
func (nopLogger) Error(string, error, ...map[string]interface{}) {}
func (nopLogger) Fatal(string, error, ...map[string]interface{}) {}
