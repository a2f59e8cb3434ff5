package vectordb_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/Aleph-Alpha/vecsearch/v1/memstore"
	"github.com/Aleph-Alpha/vecsearch/v1/vectordb"
)

var textSchema = vectordb.SingleVector(3, vectordb.DistanceCosine)

var imageSchema = vectordb.Schema{
	"image_vector": {Size: 4, Distance: vectordb.DistanceCosine},
	"text_vector":  {Size: 4, Distance: vectordb.DistanceCosine},
}

// stubEmbedder maps words to fixed vectors. "dog" is closer to "cat" than "car".
var stubEmbedder = map[string][]float32{
	"cat": {1, 0, 0},
	"dog": {0.9, 0.1, 0},
	"car": {0, 0, 1},
}

func newService(t *testing.T, opts ...vectordb.Option) (*vectordb.Service, context.Context) {
	t.Helper()
	return vectordb.NewService(memstore.New(), opts...), context.Background()
}

func ids(matches []vectordb.Match) []string {
	out := make([]string, len(matches))
	for i, m := range matches {
		out[i] = m.ID
	}
	return out
}

// ── Collection Manager ───────────────────────────────────────────────────────

func TestEnsure_Idempotent(t *testing.T) {
	svc, ctx := newService(t)

	require.NoError(t, svc.Ensure(ctx, "docs", textSchema))
	_, err := svc.Upsert(ctx, vectordb.UpsertRequest{Collection: "docs", Vector: []float32{1, 0, 0}})
	require.NoError(t, err)

	require.NoError(t, svc.Ensure(ctx, "docs", textSchema))

	info, err := svc.Describe(ctx, "docs")
	require.NoError(t, err)
	assert.True(t, info.Schema.Equal(textSchema))
	assert.Equal(t, uint64(1), info.Points)
}

func TestEnsure_SchemaMismatch(t *testing.T) {
	svc, ctx := newService(t)
	require.NoError(t, svc.Ensure(ctx, "docs", textSchema))

	err := svc.Ensure(ctx, "docs", vectordb.SingleVector(4, vectordb.DistanceCosine))
	require.Error(t, err)
	assert.True(t, vectordb.IsSchemaMismatch(err))

	var mismatch *vectordb.SchemaMismatchError
	require.True(t, errors.As(err, &mismatch))
	assert.Equal(t, "docs", mismatch.Collection)
	assert.Equal(t, uint64(3), mismatch.Actual[vectordb.DefaultSlot].Size)

	// Metric differences count too.
	err = svc.Ensure(ctx, "docs", vectordb.SingleVector(3, vectordb.DistanceDot))
	assert.ErrorIs(t, err, vectordb.ErrSchemaMismatch)

	// The stored schema is untouched.
	info, err := svc.Describe(ctx, "docs")
	require.NoError(t, err)
	assert.True(t, info.Schema.Equal(textSchema))
}

func TestEnsure_InvalidInput(t *testing.T) {
	svc, ctx := newService(t)

	assert.ErrorIs(t, svc.Ensure(ctx, "", textSchema), vectordb.ErrInvalidRequest)
	assert.ErrorIs(t, svc.Ensure(ctx, "bad name", textSchema), vectordb.ErrInvalidRequest)
	assert.ErrorIs(t, svc.Ensure(ctx, "docs", vectordb.Schema{}), vectordb.ErrInvalidRequest)
	assert.ErrorIs(t, svc.Ensure(ctx, "docs", vectordb.SingleVector(0, vectordb.DistanceCosine)), vectordb.ErrInvalidRequest)
}

func TestEnsure_LogsCreation(t *testing.T) {
	ctrl := gomock.NewController(t)
	log := vectordb.NewMockLogger(ctrl)
	log.EXPECT().Info("[VectorDB] Created collection", nil, gomock.Any()).Times(1)

	svc, ctx := newService(t, vectordb.WithLogger(log))
	require.NoError(t, svc.Ensure(ctx, "docs", textSchema))
	require.NoError(t, svc.Ensure(ctx, "docs", textSchema))
}

func TestClear_EmptiesCollection(t *testing.T) {
	svc, ctx := newService(t)
	require.NoError(t, svc.Ensure(ctx, "docs", textSchema))
	for i := 0; i < 5; i++ {
		_, err := svc.Upsert(ctx, vectordb.UpsertRequest{Collection: "docs", Vector: []float32{1, float32(i), 0}})
		require.NoError(t, err)
	}
	n, err := svc.Count(ctx, "docs")
	require.NoError(t, err)
	require.Equal(t, uint64(5), n)

	require.NoError(t, svc.Clear(ctx, "docs", textSchema))

	n, err = svc.Count(ctx, "docs")
	require.NoError(t, err)
	assert.Zero(t, n)

	_, err = svc.Upsert(ctx, vectordb.UpsertRequest{Collection: "docs", Vector: []float32{0, 1, 0}})
	require.NoError(t, err)
	n, err = svc.Count(ctx, "docs")
	require.NoError(t, err)
	assert.Equal(t, uint64(1), n)
}

func TestClear_MissingCollection(t *testing.T) {
	svc, ctx := newService(t)

	require.NoError(t, svc.Reset(ctx, "docs", textSchema))

	info, err := svc.Describe(ctx, "docs")
	require.NoError(t, err)
	assert.Zero(t, info.Points)
}

func TestClear_ChangesSchema(t *testing.T) {
	svc, ctx := newService(t)
	require.NoError(t, svc.Ensure(ctx, "docs", textSchema))

	other := vectordb.SingleVector(2, vectordb.DistanceDot)
	require.NoError(t, svc.Clear(ctx, "docs", other))
	assert.NoError(t, svc.Ensure(ctx, "docs", other))
}

func TestCount_MissingCollection(t *testing.T) {
	svc, ctx := newService(t)
	n, err := svc.Count(ctx, "nope")
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestDescribe_MissingCollection(t *testing.T) {
	svc, ctx := newService(t)
	_, err := svc.Describe(ctx, "nope")
	assert.True(t, vectordb.IsNotFound(err))
}

// ── Point Store ──────────────────────────────────────────────────────────────

func TestUpsert_GeneratesID(t *testing.T) {
	svc, ctx := newService(t)
	require.NoError(t, svc.Ensure(ctx, "docs", textSchema))

	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		id, err := svc.Upsert(ctx, vectordb.UpsertRequest{Collection: "docs", Vector: []float32{1, 0, 0}})
		require.NoError(t, err)
		require.False(t, seen[id], "duplicate id %s", id)
		seen[id] = true
	}
	n, err := svc.Count(ctx, "docs")
	require.NoError(t, err)
	assert.Equal(t, uint64(50), n)
}

func TestUpsert_ReplacesByID(t *testing.T) {
	svc, ctx := newService(t)
	require.NoError(t, svc.Ensure(ctx, "docs", textSchema))

	_, err := svc.Upsert(ctx, vectordb.UpsertRequest{
		Collection: "docs", ID: "7", Vector: []float32{1, 0, 0}, Payload: map[string]any{"text": "first"},
	})
	require.NoError(t, err)
	id, err := svc.Upsert(ctx, vectordb.UpsertRequest{
		Collection: "docs", ID: "7", Vector: []float32{0, 1, 0}, Payload: map[string]any{"text": "second"},
	})
	require.NoError(t, err)
	assert.Equal(t, "7", id)

	n, err := svc.Count(ctx, "docs")
	require.NoError(t, err)
	assert.Equal(t, uint64(1), n)

	matches, err := svc.Search(ctx, vectordb.SearchRequest{Collection: "docs", Vector: []float32{0, 1, 0}, Limit: 5})
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, "second", matches[0].Payload["text"])
	assert.InDelta(t, 1.0, matches[0].Score, 1e-6)
}

func TestUpsert_CanonicalizesUUID(t *testing.T) {
	svc, ctx := newService(t)
	require.NoError(t, svc.Ensure(ctx, "docs", textSchema))

	id, err := svc.Upsert(ctx, vectordb.UpsertRequest{
		Collection: "docs", ID: "6F9619FF-8B86-D011-B42D-00C04FC964FF", Vector: []float32{1, 0, 0},
	})
	require.NoError(t, err)
	assert.Equal(t, "6f9619ff-8b86-d011-b42d-00c04fc964ff", id)

	_, err = svc.Upsert(ctx, vectordb.UpsertRequest{Collection: "docs", ID: "not-an-id", Vector: []float32{1, 0, 0}})
	assert.ErrorIs(t, err, vectordb.ErrInvalidRequest)
}

func TestUpsert_DimensionMismatchHasNoSideEffect(t *testing.T) {
	svc, ctx := newService(t)
	require.NoError(t, svc.Ensure(ctx, "docs", textSchema))

	_, err := svc.Upsert(ctx, vectordb.UpsertRequest{Collection: "docs", Vector: []float32{1, 0}})
	require.Error(t, err)
	assert.True(t, vectordb.IsDimensionMismatch(err))

	var dim *vectordb.DimensionMismatchError
	require.True(t, errors.As(err, &dim))
	assert.Equal(t, "docs", dim.Collection)
	assert.Equal(t, uint64(3), dim.Expected)
	assert.Equal(t, 2, dim.Actual)

	n, err := svc.Count(ctx, "docs")
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestUpsert_MissingCollection(t *testing.T) {
	svc, ctx := newService(t)
	_, err := svc.Upsert(ctx, vectordb.UpsertRequest{Collection: "docs", Vector: []float32{1, 0, 0}})
	assert.ErrorIs(t, err, vectordb.ErrNotFound)
}

func TestUpsert_DeclaredCollectionIsCreatedLazily(t *testing.T) {
	svc, ctx := newService(t, vectordb.WithCollection("docs", textSchema))

	_, err := svc.Upsert(ctx, vectordb.UpsertRequest{Collection: "docs", Vector: []float32{1, 0, 0}})
	require.NoError(t, err)

	info, err := svc.Describe(ctx, "docs")
	require.NoError(t, err)
	assert.True(t, info.Schema.Equal(textSchema))
	assert.Equal(t, uint64(1), info.Points)
}

func TestUpsert_RejectsReservedPayloadKeys(t *testing.T) {
	svc, ctx := newService(t)
	require.NoError(t, svc.Ensure(ctx, "docs", textSchema))

	_, err := svc.Upsert(ctx, vectordb.UpsertRequest{
		Collection: "docs",
		Vector:     []float32{1, 0, 0},
		Payload:    map[string]any{vectordb.ReservedPayloadPrefix + "_slots": []string{}},
	})
	assert.ErrorIs(t, err, vectordb.ErrInvalidRequest)
}

func TestUpsert_NamedSlots(t *testing.T) {
	svc, ctx := newService(t)
	require.NoError(t, svc.Ensure(ctx, "images", imageSchema))

	// Vector shorthand is ambiguous for two slots.
	_, err := svc.Upsert(ctx, vectordb.UpsertRequest{Collection: "images", Vector: []float32{1, 0, 0, 0}})
	assert.ErrorIs(t, err, vectordb.ErrInvalidRequest)

	_, err = svc.Upsert(ctx, vectordb.UpsertRequest{
		Collection: "images",
		Vectors:    map[string][]float32{"audio_vector": {1, 0, 0, 0}},
	})
	assert.ErrorIs(t, err, vectordb.ErrInvalidRequest)

	_, err = svc.Upsert(ctx, vectordb.UpsertRequest{Collection: "images"})
	assert.ErrorIs(t, err, vectordb.ErrInvalidRequest)

	_, err = svc.Upsert(ctx, vectordb.UpsertRequest{
		Collection: "images",
		Vectors:    map[string][]float32{"text_vector": {1, 0}},
	})
	var dim *vectordb.DimensionMismatchError
	require.True(t, errors.As(err, &dim))
	assert.Equal(t, "text_vector", dim.Slot)
}

func TestDelete(t *testing.T) {
	svc, ctx := newService(t)
	require.NoError(t, svc.Ensure(ctx, "docs", textSchema))
	id, err := svc.Upsert(ctx, vectordb.UpsertRequest{Collection: "docs", Vector: []float32{1, 0, 0}})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, "docs", id, "42"))

	n, err := svc.Count(ctx, "docs")
	require.NoError(t, err)
	assert.Zero(t, n)
}

// ── Similarity Query ─────────────────────────────────────────────────────────

func TestSearch_RoundTrip(t *testing.T) {
	svc, ctx := newService(t)
	require.NoError(t, svc.Ensure(ctx, "docs", textSchema))

	payload := map[string]any{"text": "hello", "n": 3}
	id, err := svc.Upsert(ctx, vectordb.UpsertRequest{Collection: "docs", Vector: []float32{0.3, 0.4, 0.5}, Payload: payload})
	require.NoError(t, err)

	matches, err := svc.Search(ctx, vectordb.SearchRequest{Collection: "docs", Vector: []float32{0.3, 0.4, 0.5}, Limit: 1})
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, id, matches[0].ID)
	assert.Equal(t, payload, matches[0].Payload)
	assert.InDelta(t, 1.0, matches[0].Score, 1e-6)
}

func TestSearch_EmptyCollection(t *testing.T) {
	svc, ctx := newService(t)
	require.NoError(t, svc.Ensure(ctx, "docs", textSchema))

	matches, err := svc.Search(ctx, vectordb.SearchRequest{Collection: "docs", Vector: []float32{1, 0, 0}, Limit: 3})
	require.NoError(t, err)
	assert.NotNil(t, matches)
	assert.Empty(t, matches)
}

func TestSearch_MissingCollection(t *testing.T) {
	svc, ctx := newService(t)

	matches, err := svc.Search(ctx, vectordb.SearchRequest{Collection: "docs", Vector: []float32{1, 0, 0}, Limit: 3})
	require.NoError(t, err)
	assert.Empty(t, matches)
}

func TestSearch_RankingOrder(t *testing.T) {
	svc, ctx := newService(t)
	require.NoError(t, svc.Ensure(ctx, "docs", textSchema))

	for id, v := range map[string][]float32{
		"1": {-1, 0, 0}, // opposite
		"2": {0, 1, 0},  // orthogonal
		"3": {1, 0, 0},  // identical
	} {
		_, err := svc.Upsert(ctx, vectordb.UpsertRequest{Collection: "docs", ID: id, Vector: v})
		require.NoError(t, err)
	}

	matches, err := svc.Search(ctx, vectordb.SearchRequest{Collection: "docs", Vector: []float32{1, 0, 0}, Limit: 3})
	require.NoError(t, err)
	require.Len(t, matches, 3)
	assert.Equal(t, []string{"3", "2", "1"}, ids(matches))
	assert.InDelta(t, 1.0, matches[0].Score, 1e-6)
	assert.InDelta(t, 0.0, matches[1].Score, 1e-6)
	assert.InDelta(t, -1.0, matches[2].Score, 1e-6)
}

func TestSearch_CatDogCar(t *testing.T) {
	svc, ctx := newService(t)
	require.NoError(t, svc.Ensure(ctx, "words", textSchema))

	for _, word := range []string{"cat", "dog", "car"} {
		_, err := svc.Upsert(ctx, vectordb.UpsertRequest{
			Collection: "words",
			Vector:     stubEmbedder[word],
			Payload:    map[string]any{"text": word},
		})
		require.NoError(t, err)
	}

	matches, err := svc.Search(ctx, vectordb.SearchRequest{Collection: "words", Vector: stubEmbedder["cat"], Limit: 3})
	require.NoError(t, err)
	require.Len(t, matches, 3)
	assert.Equal(t, "cat", matches[0].Payload["text"])
	assert.InDelta(t, 1.0, matches[0].Score, 1e-6)
	assert.Equal(t, "dog", matches[1].Payload["text"])
	assert.Equal(t, "car", matches[2].Payload["text"])
}

func TestSearch_LimitBoundsResults(t *testing.T) {
	svc, ctx := newService(t)
	require.NoError(t, svc.Ensure(ctx, "docs", textSchema))
	for i := 0; i < 4; i++ {
		_, err := svc.Upsert(ctx, vectordb.UpsertRequest{Collection: "docs", Vector: []float32{1, float32(i), 0}})
		require.NoError(t, err)
	}

	matches, err := svc.Search(ctx, vectordb.SearchRequest{Collection: "docs", Vector: []float32{1, 0, 0}, Limit: 2})
	require.NoError(t, err)
	require.Len(t, matches, 2)
	assert.GreaterOrEqual(t, matches[0].Score, matches[1].Score)

	_, err = svc.Search(ctx, vectordb.SearchRequest{Collection: "docs", Vector: []float32{1, 0, 0}, Limit: 0})
	assert.ErrorIs(t, err, vectordb.ErrInvalidRequest)
}

func TestSearch_DimensionMismatch(t *testing.T) {
	svc, ctx := newService(t)
	require.NoError(t, svc.Ensure(ctx, "docs", textSchema))

	_, err := svc.Search(ctx, vectordb.SearchRequest{Collection: "docs", Vector: []float32{1, 0}, Limit: 1})
	assert.True(t, vectordb.IsDimensionMismatch(err))
}

func TestSearch_NamedSlots(t *testing.T) {
	svc, ctx := newService(t)
	require.NoError(t, svc.Ensure(ctx, "images", imageSchema))

	imageID, err := svc.Upsert(ctx, vectordb.UpsertRequest{
		Collection: "images",
		Vectors:    map[string][]float32{"image_vector": {1, 0, 0, 0}},
		Payload:    map[string]any{"image_data": "aGVsbG8="},
	})
	require.NoError(t, err)
	textID, err := svc.Upsert(ctx, vectordb.UpsertRequest{
		Collection: "images",
		Vectors:    map[string][]float32{"text_vector": {1, 0, 0, 0}},
		Payload:    map[string]any{"text": "a caption"},
	})
	require.NoError(t, err)

	matches, err := svc.Search(ctx, vectordb.SearchRequest{Collection: "images", Slot: "image_vector", Vector: []float32{1, 0, 0, 0}, Limit: 5})
	require.NoError(t, err)
	assert.Equal(t, []string{imageID}, ids(matches))

	matches, err = svc.Search(ctx, vectordb.SearchRequest{Collection: "images", Slot: "text_vector", Vector: []float32{1, 0, 0, 0}, Limit: 5})
	require.NoError(t, err)
	assert.Equal(t, []string{textID}, ids(matches))

	// Placeholders rank with score 0 when requested.
	matches, err = svc.Search(ctx, vectordb.SearchRequest{
		Collection: "images", Slot: "text_vector", Vector: []float32{1, 0, 0, 0}, Limit: 5, IncludePlaceholders: true,
	})
	require.NoError(t, err)
	require.Len(t, matches, 2)
	assert.Equal(t, []string{textID, imageID}, ids(matches))
	assert.Equal(t, float32(0), matches[1].Score)

	_, err = svc.Search(ctx, vectordb.SearchRequest{Collection: "images", Vector: []float32{1, 0, 0, 0}, Limit: 5})
	assert.ErrorIs(t, err, vectordb.ErrInvalidRequest)

	_, err = svc.Search(ctx, vectordb.SearchRequest{Collection: "images", Slot: "nope", Vector: []float32{1, 0, 0, 0}, Limit: 5})
	assert.ErrorIs(t, err, vectordb.ErrInvalidRequest)
}

func TestSearch_Filter(t *testing.T) {
	svc, ctx := newService(t)
	require.NoError(t, svc.Ensure(ctx, "docs", textSchema))
	for i, source := range []string{"upload", "seed", "upload"} {
		_, err := svc.Upsert(ctx, vectordb.UpsertRequest{
			Collection: "docs",
			ID:         fmt.Sprint(i + 1),
			Vector:     []float32{1, float32(i), 0},
			Payload:    map[string]any{"source": source},
		})
		require.NoError(t, err)
	}

	matches, err := svc.Search(ctx, vectordb.SearchRequest{
		Collection: "docs",
		Vector:     []float32{1, 0, 0},
		Limit:      5,
		Filter:     vectordb.NewFilterSet(vectordb.Must(vectordb.NewMatch("source", "upload"))),
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "3"}, ids(matches))

	_, err = svc.Search(ctx, vectordb.SearchRequest{
		Collection: "docs",
		Vector:     []float32{1, 0, 0},
		Limit:      5,
		Filter:     vectordb.NewFilterSet(vectordb.Must(vectordb.NewMatchAny("source", "upload", 3))),
	})
	assert.ErrorIs(t, err, vectordb.ErrInvalidRequest)
}

func TestSearchBatch(t *testing.T) {
	svc, ctx := newService(t)
	require.NoError(t, svc.Ensure(ctx, "words", textSchema))
	for _, word := range []string{"cat", "dog", "car"} {
		_, err := svc.Upsert(ctx, vectordb.UpsertRequest{Collection: "words", Vector: stubEmbedder[word], Payload: map[string]any{"text": word}})
		require.NoError(t, err)
	}

	reqs := make([]vectordb.SearchRequest, 0, 30)
	for i := 0; i < 30; i++ {
		word := []string{"cat", "dog", "car"}[i%3]
		reqs = append(reqs, vectordb.SearchRequest{Collection: "words", Vector: stubEmbedder[word], Limit: 1})
	}
	results, err := svc.SearchBatch(ctx, reqs...)
	require.NoError(t, err)
	require.Len(t, results, 30)
	for i, r := range results {
		require.Len(t, r, 1)
		assert.Equal(t, []string{"cat", "dog", "car"}[i%3], r[0].Payload["text"])
	}

	_, err = svc.SearchBatch(ctx, reqs[0], vectordb.SearchRequest{Collection: "words", Vector: []float32{1}, Limit: 1})
	assert.ErrorIs(t, err, vectordb.ErrDimensionMismatch)
}

func TestConcurrentUpserts(t *testing.T) {
	svc, ctx := newService(t)
	require.NoError(t, svc.Ensure(ctx, "docs", textSchema))

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Upsert(ctx, vectordb.UpsertRequest{Collection: "docs", Vector: []float32{1, float32(i), 0}})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	n, err := svc.Count(ctx, "docs")
	require.NoError(t, err)
	assert.Equal(t, uint64(20), n)
}

// ── Observability ────────────────────────────────────────────────────────────

type recordedOp struct {
	operation, collection, kind string
}

type fakeRecorder struct {
	mu     sync.Mutex
	ops    []recordedOp
	counts map[string]uint64
}

func (r *fakeRecorder) ObserveOperation(operation, collection string, _ time.Time, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ops = append(r.ops, recordedOp{operation, collection, vectordb.ErrorKind(err)})
}

func (r *fakeRecorder) SetPointCount(collection string, n uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.counts == nil {
		r.counts = make(map[string]uint64)
	}
	r.counts[collection] = n
}

func TestRecorder(t *testing.T) {
	rec := &fakeRecorder{}
	svc, ctx := newService(t, vectordb.WithRecorder(rec))

	require.NoError(t, svc.Ensure(ctx, "docs", textSchema))
	_, err := svc.Upsert(ctx, vectordb.UpsertRequest{Collection: "docs", Vector: []float32{1, 0}})
	require.Error(t, err)
	_, err = svc.Count(ctx, "docs")
	require.NoError(t, err)

	assert.Equal(t, []recordedOp{
		{"ensure", "docs", "ok"},
		{"upsert", "docs", "dimension_mismatch"},
		{"count", "docs", "ok"},
	}, rec.ops)
	assert.Equal(t, uint64(0), rec.counts["docs"])
}
