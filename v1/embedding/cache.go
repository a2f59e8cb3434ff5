package embedding

import (
	"context"
	"encoding/binary"
	"math"
	"strconv"

	"github.com/cespare/xxhash/v2"
)

// Logger defines the logging operations used by the embedding package.
type Logger interface {
	Info(msg string, err error, fields ...map[string]interface{})
	Debug(msg string, err error, fields ...map[string]interface{})
	Warn(msg string, err error, fields ...map[string]interface{})
	Error(msg string, err error, fields ...map[string]interface{})
	Fatal(msg string, err error, fields ...map[string]interface{})
}

// Cache stores encoded vectors by key. redis.Client implements it.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte) error
}

// CachedEmbedder memoizes text embeddings of an inner Embedder in a Cache.
// Image content always goes to the inner embedder. A failing cache is
// logged and bypassed.
type CachedEmbedder struct {
	inner     Embedder
	cache     Cache
	namespace string
	logger    Logger
}

var _ Embedder = (*CachedEmbedder)(nil)

// CacheOption configures a CachedEmbedder.
type CacheOption func(*CachedEmbedder)

// WithNamespace separates the keys of different models sharing one cache.
func WithNamespace(ns string) CacheOption {
	return func(c *CachedEmbedder) { c.namespace = ns }
}

// WithCacheLogger sets the logger that reports cache failures.
func WithCacheLogger(l Logger) CacheOption {
	return func(c *CachedEmbedder) {
		if l != nil {
			c.logger = l
		}
	}
}

// NewCachedEmbedder wraps inner with cache.
func NewCachedEmbedder(inner Embedder, cache Cache, opts ...CacheOption) *CachedEmbedder {
	c := &CachedEmbedder{inner: inner, cache: cache, logger: nopLogger{}}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *CachedEmbedder) Dimension(m Modality) int {
	return c.inner.Dimension(m)
}

// Embed serves text from the cache when possible and stores misses.
func (c *CachedEmbedder) Embed(ctx context.Context, content Content) ([]float32, error) {
	if content.Modality != ModalityText {
		return c.inner.Embed(ctx, content)
	}
	dim := c.inner.Dimension(ModalityText)
	key := c.key(content.Text, dim)

	data, ok, err := c.cache.Get(ctx, key)
	if err != nil {
		c.logger.Warn("[Embedding] Cache read failed", err, map[string]interface{}{"key": key})
	}
	if ok {
		if v, valid := decodeEntry(data, content.Text, dim); valid {
			return v, nil
		}
	}

	v, err := c.inner.Embed(ctx, content)
	if err != nil {
		return nil, err
	}
	if err := c.cache.Set(ctx, key, encodeEntry(content.Text, v)); err != nil {
		c.logger.Warn("[Embedding] Cache write failed", err, map[string]interface{}{"key": key})
	}
	return v, nil
}

// Close closes the inner embedder when it has a Close method.
func (c *CachedEmbedder) Close() error {
	if closer, ok := c.inner.(interface{ Close() error }); ok {
		return closer.Close()
	}
	return nil
}

func (c *CachedEmbedder) key(text string, dim int) string {
	return c.namespace + ":" + strconv.Itoa(dim) + ":" + strconv.FormatUint(xxhash.Sum64String(text), 16)
}

// encodeEntry stores the text ahead of the vector so that a read can tell a
// hash collision from a hit. Layout: uint32 text length, text, little-endian
// float32 components.
func encodeEntry(text string, v []float32) []byte {
	out := make([]byte, 4+len(text)+4*len(v))
	binary.LittleEndian.PutUint32(out, uint32(len(text)))
	copy(out[4:], text)
	body := out[4+len(text):]
	for i, f := range v {
		binary.LittleEndian.PutUint32(body[4*i:], math.Float32bits(f))
	}
	return out
}

// decodeEntry rejects entries written for another text or another dimension.
func decodeEntry(data []byte, text string, dim int) ([]float32, bool) {
	if dim <= 0 || len(data) < 4 {
		return nil, false
	}
	n := int(binary.LittleEndian.Uint32(data))
	if n != len(text) || len(data) != 4+n+4*dim || string(data[4:4+n]) != text {
		return nil, false
	}
	body := data[4+n:]
	v := make([]float32, dim)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(body[4*i:]))
	}
	return v, true
}

type nopLogger struct{}

func (nopLogger) Info(string, error, ...map[string]interface{})  {}
func (nopLogger) Debug(string, error, ...map[string]interface{}) {}
func (nopLogger) Warn(string, error, ...map[string]interface{})  {}
func (nopLogger) Error(string, error, ...map[string]interface{}) {}
func (nopLogger) Fatal(string, error, ...map[string]interface{}) {}
