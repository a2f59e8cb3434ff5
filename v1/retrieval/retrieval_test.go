package retrieval

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx"
	"go.uber.org/fx/fxtest"

	"github.com/Aleph-Alpha/vecsearch/v1/embedding"
	"github.com/Aleph-Alpha/vecsearch/v1/memstore"
	"github.com/Aleph-Alpha/vecsearch/v1/vectordb"
)

func hashEmbedder(t *testing.T, dim int) embedding.Embedder {
	t.Helper()
	h, err := embedding.NewHashEmbedder(dim)
	require.NoError(t, err)
	return embedding.NewClientWithProvider(h)
}

func encodeSolid(t *testing.T, c color.Color, format string) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, 24, 24))
	for y := 0; y < 24; y++ {
		for x := 0; x < 24; x++ {
			img.Set(x, y, c)
		}
	}
	var buf bytes.Buffer
	switch format {
	case "png":
		require.NoError(t, png.Encode(&buf, img))
	case "jpeg":
		require.NoError(t, jpeg.Encode(&buf, img, nil))
	}
	return buf.Bytes()
}

func TestClampLimit(t *testing.T) {
	tests := []struct{ in, want int }{
		{-3, DefaultLimit},
		{0, DefaultLimit},
		{1, 1},
		{7, 7},
		{10, 10},
		{42, MaxLimit},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ClampLimit(tt.in), "ClampLimit(%d)", tt.in)
	}
}

func TestNewTextIndex_RejectsWrongDimension(t *testing.T) {
	svc := vectordb.NewService(memstore.New())

	_, err := NewTextIndex(svc, hashEmbedder(t, ImageDimension))
	assert.ErrorIs(t, err, vectordb.ErrDimensionMismatch)

	_, err = NewTextIndex(svc, nil)
	assert.Error(t, err)
}

func TestTextIndex_SeedSearchCountClear(t *testing.T) {
	ctx := context.Background()
	ix, err := NewTextIndex(vectordb.NewService(memstore.New()), hashEmbedder(t, TextDimension))
	require.NoError(t, err)
	require.NoError(t, ix.Ensure(ctx))

	n, err := ix.Seed(ctx)
	require.NoError(t, err)
	assert.Equal(t, len(ExampleTexts), n)

	count, err := ix.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(5), count)

	results, err := ix.Search(ctx, "machine learning and artificial intelligence", 3)
	require.NoError(t, err)
	require.Len(t, results, 3)
	assert.Equal(t, 1, results[0].Rank)
	assert.Equal(t, ExampleTexts[1], TextOf(results[0]))
	assert.GreaterOrEqual(t, results[0].Score, results[1].Score)
	assert.GreaterOrEqual(t, results[1].Score, results[2].Score)

	results, err = ix.Search(ctx, "fox", 50)
	require.NoError(t, err)
	assert.Len(t, results, 5)

	require.NoError(t, ix.Clear(ctx))
	count, err = ix.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)

	results, err = ix.Search(ctx, "fox", 5)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestTextIndex_AddReturnsID(t *testing.T) {
	ctx := context.Background()
	ix, err := NewTextIndex(vectordb.NewService(memstore.New()), hashEmbedder(t, TextDimension), WithCollectionName("notes"))
	require.NoError(t, err)
	require.NoError(t, ix.Ensure(ctx))
	assert.Equal(t, "notes", ix.Collection())

	id, err := ix.Add(ctx, "  hello world  ")
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	results, err := ix.Search(ctx, "hello world", 1)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, id, results[0].ID)
	assert.Equal(t, "hello world", TextOf(results[0]))
	assert.InDelta(t, 1.0, results[0].Score, 1e-5)

	_, err = ix.Add(ctx, "   ")
	assert.ErrorIs(t, err, embedding.ErrEmptyContent)
	_, err = ix.Search(ctx, "", 1)
	assert.ErrorIs(t, err, embedding.ErrEmptyContent)
}

func TestImageIndex_AddAndSearch(t *testing.T) {
	ctx := context.Background()
	ix, err := NewImageIndex(vectordb.NewService(memstore.New()), hashEmbedder(t, ImageDimension))
	require.NoError(t, err)
	require.NoError(t, ix.Ensure(ctx))

	red := encodeSolid(t, color.NRGBA{R: 255, A: 255}, "png")
	blue := encodeSolid(t, color.NRGBA{B: 255, A: 255}, "jpeg")

	redID, err := ix.AddImage(ctx, red)
	require.NoError(t, err)
	blueID, err := ix.AddCaptionedImage(ctx, blue, "a blue square")
	require.NoError(t, err)

	count, err := ix.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), count)

	results, err := ix.SearchImages(ctx, "a red square", 10)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.ElementsMatch(t, []string{redID, blueID}, []string{results[0].ID, results[1].ID})

	for _, r := range results {
		data, err := DecodeImage(r)
		require.NoError(t, err)
		if r.ID == redID {
			assert.Equal(t, red, data)
		} else {
			assert.Equal(t, blue, data)
		}
	}

	// Only the captioned image has a populated caption slot.
	results, err = ix.SearchCaptions(ctx, "blue square", 10)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, blueID, results[0].ID)
	assert.Equal(t, "a blue square", CaptionOf(results[0]))

	require.NoError(t, ix.Clear(ctx))
	count, err = ix.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestImageIndex_RejectsInvalidInput(t *testing.T) {
	ctx := context.Background()
	ix, err := NewImageIndex(vectordb.NewService(memstore.New()), hashEmbedder(t, ImageDimension))
	require.NoError(t, err)
	require.NoError(t, ix.Ensure(ctx))

	_, err = ix.AddImage(ctx, []byte("definitely not an image"))
	assert.ErrorIs(t, err, vectordb.ErrInvalidRequest)

	_, err = ix.AddImage(ctx, nil)
	assert.ErrorIs(t, err, embedding.ErrEmptyContent)

	_, err = DecodeImage(Result{ID: "1", Payload: map[string]any{}})
	assert.Error(t, err)

	_, err = NewImageIndex(vectordb.NewService(memstore.New()), hashEmbedder(t, TextDimension))
	assert.ErrorIs(t, err, vectordb.ErrDimensionMismatch)
}

func TestDecodeImageBytes_ConvertsToRGBA(t *testing.T) {
	img, format, err := DecodeImageBytes(encodeSolid(t, color.NRGBA{G: 200, A: 255}, "jpeg"))
	require.NoError(t, err)
	assert.Equal(t, "jpeg", format)
	assert.Equal(t, 24, img.Bounds().Dx())
	assert.Equal(t, 24, img.Bounds().Dy())
}

func TestTextFXModule_CreatesCollectionLazily(t *testing.T) {
	var ix *TextIndex
	app := fxtest.New(t,
		memstore.FXModule,
		vectordb.FXModule,
		fx.Provide(func() embedding.Embedder {
			h, _ := embedding.NewHashEmbedder(TextDimension)
			return h
		}),
		TextFXModule,
		fx.Populate(&ix),
	)
	app.RequireStart()
	defer app.RequireStop()

	ctx := context.Background()
	_, err := ix.Add(ctx, "no explicit ensure needed")
	require.NoError(t, err)

	count, err := ix.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), count)
}

type memBlobs struct {
	mu      sync.Mutex
	objects map[string][]byte
	types   map[string]string
}

func newMemBlobs() *memBlobs {
	return &memBlobs{objects: map[string][]byte{}, types: map[string]string{}}
}

func (m *memBlobs) Put(_ context.Context, key string, data []byte, contentType string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = append([]byte(nil), data...)
	m.types[key] = contentType
	return nil
}

func (m *memBlobs) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.objects[key]
	if !ok {
		return nil, vectordb.ErrNotFound
	}
	return data, nil
}

func (m *memBlobs) Delete(_ context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range keys {
		delete(m.objects, k)
	}
	return nil
}

func (m *memBlobs) DeletePrefix(_ context.Context, prefix string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for k := range m.objects {
		if strings.HasPrefix(k, prefix) {
			delete(m.objects, k)
		}
	}
	return nil
}

func TestImageIndex_BlobStore(t *testing.T) {
	ctx := context.Background()
	blobs := newMemBlobs()
	ix, err := NewImageIndex(vectordb.NewService(memstore.New()), hashEmbedder(t, ImageDimension),
		WithCollectionName("gallery"), WithBlobStore(blobs))
	require.NoError(t, err)
	require.NoError(t, ix.Ensure(ctx))

	red := encodeSolid(t, color.NRGBA{R: 255, A: 255}, "png")
	id, err := ix.AddImage(ctx, red)
	require.NoError(t, err)

	key := "gallery/" + id + ".png"
	assert.Equal(t, "image/png", blobs.types[key])

	results, err := ix.SearchImages(ctx, "red", 1)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, key, results[0].Payload[ImageKeyPayloadKey])
	assert.NotContains(t, results[0].Payload, ImagePayloadKey)

	data, err := ix.ImageBytes(ctx, results[0])
	require.NoError(t, err)
	assert.Equal(t, red, data)

	require.NoError(t, ix.Clear(ctx))
	assert.Empty(t, blobs.objects)
}

func TestImageIndex_ImageBytesInline(t *testing.T) {
	ctx := context.Background()
	ix, err := NewImageIndex(vectordb.NewService(memstore.New()), hashEmbedder(t, ImageDimension))
	require.NoError(t, err)
	require.NoError(t, ix.Ensure(ctx))

	blue := encodeSolid(t, color.NRGBA{B: 255, A: 255}, "jpeg")
	_, err = ix.AddImage(ctx, blue)
	require.NoError(t, err)

	results, err := ix.SearchImages(ctx, "blue", 1)
	require.NoError(t, err)
	require.Len(t, results, 1)
	data, err := ix.ImageBytes(ctx, results[0])
	require.NoError(t, err)
	assert.Equal(t, blue, data)

	// A keyed payload cannot be resolved without a blob store.
	_, err = ix.ImageBytes(ctx, Result{ID: "1", Payload: map[string]any{ImageKeyPayloadKey: "images/1.png"}})
	assert.Error(t, err)
}
