package embedding

import (
	"context"
	"errors"
	"image"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mapCache struct {
	mu      sync.Mutex
	data    map[string][]byte
	failGet bool
	failSet bool
}

func newMapCache() *mapCache { return &mapCache{data: map[string][]byte{}} }

func (m *mapCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failGet {
		return nil, false, errors.New("down")
	}
	v, ok := m.data[key]
	return v, ok, nil
}

func (m *mapCache) Set(_ context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failSet {
		return errors.New("down")
	}
	m.data[key] = value
	return nil
}

type countingEmbedder struct {
	Embedder
	calls int
}

func (c *countingEmbedder) Embed(ctx context.Context, content Content) ([]float32, error) {
	c.calls++
	return c.Embedder.Embed(ctx, content)
}

func newCounting(t *testing.T) *countingEmbedder {
	t.Helper()
	h, err := NewHashEmbedder(8)
	require.NoError(t, err)
	return &countingEmbedder{Embedder: h}
}

func TestCachedEmbedder_HitsAfterFirstCall(t *testing.T) {
	ctx := context.Background()
	inner := newCounting(t)
	cache := newMapCache()
	e := NewCachedEmbedder(inner, cache, WithNamespace("m"))

	first, err := e.Embed(ctx, Text("hello world"))
	require.NoError(t, err)
	second, err := e.Embed(ctx, Text("hello world"))
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, inner.calls)
	assert.Len(t, cache.data, 1)
	assert.Equal(t, 8, e.Dimension(ModalityText))
}

func TestCachedEmbedder_ImagesBypassCache(t *testing.T) {
	ctx := context.Background()
	inner := newCounting(t)
	cache := newMapCache()
	e := NewCachedEmbedder(inner, cache)

	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	_, err := e.Embed(ctx, Image(img))
	require.NoError(t, err)
	_, err = e.Embed(ctx, Image(img))
	require.NoError(t, err)

	assert.Equal(t, 2, inner.calls)
	assert.Empty(t, cache.data)
}

func TestCachedEmbedder_FailingCacheFallsThrough(t *testing.T) {
	ctx := context.Background()
	inner := newCounting(t)
	cache := newMapCache()
	cache.failGet, cache.failSet = true, true
	e := NewCachedEmbedder(inner, cache)

	v, err := e.Embed(ctx, Text("x"))
	require.NoError(t, err)
	assert.Len(t, v, 8)
	assert.Equal(t, 1, inner.calls)
}

func TestCachedEmbedder_CorruptEntryIsRecomputed(t *testing.T) {
	ctx := context.Background()
	inner := newCounting(t)
	cache := newMapCache()
	e := NewCachedEmbedder(inner, cache)

	cache.data[e.key("x", 8)] = []byte{1, 2, 3}
	v, err := e.Embed(ctx, Text("x"))
	require.NoError(t, err)
	assert.Len(t, v, 8)
	assert.Equal(t, 1, inner.calls)
	assert.Len(t, cache.data[e.key("x", 8)], 4+1+32)
}

func TestCachedEmbedder_EntryForOtherTextIsRecomputed(t *testing.T) {
	ctx := context.Background()
	inner := newCounting(t)
	cache := newMapCache()
	e := NewCachedEmbedder(inner, cache)

	// An entry under the key of "x" that holds the vector of "y", as a hash
	// collision would leave it.
	stale := make([]float32, 8)
	stale[0] = 42
	cache.data[e.key("x", 8)] = encodeEntry("y", stale)

	v, err := e.Embed(ctx, Text("x"))
	require.NoError(t, err)
	assert.NotEqual(t, stale, v)
	assert.Equal(t, 1, inner.calls)

	want, err := inner.Embedder.Embed(ctx, Text("x"))
	require.NoError(t, err)
	assert.Equal(t, want, v)
}

func TestEntryEncoding(t *testing.T) {
	v := []float32{0, -1.5, 3.25}
	got, ok := decodeEntry(encodeEntry("héllo", v), "héllo", 3)
	require.True(t, ok)
	assert.Equal(t, v, got)

	_, ok = decodeEntry(encodeEntry("héllo", v), "héllo", 4)
	assert.False(t, ok)
	_, ok = decodeEntry(encodeEntry("héllo", v), "hello", 3)
	assert.False(t, ok)
	_, ok = decodeEntry([]byte{1}, "x", 3)
	assert.False(t, ok)
}
