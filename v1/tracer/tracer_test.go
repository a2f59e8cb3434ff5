package tracer

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.uber.org/fx"
	"go.uber.org/fx/fxtest"

	"github.com/Aleph-Alpha/vecsearch/v1/memstore"
	"github.com/Aleph-Alpha/vecsearch/v1/vectordb"
)

func newRecordingTracer(t *testing.T) (*Tracer, *tracetest.SpanRecorder) {
	t.Helper()
	rec := tracetest.NewSpanRecorder()
	tr, err := NewClient(Config{ServiceName: "test", AppEnv: "test"}, nil, sdktrace.WithSpanProcessor(rec))
	require.NoError(t, err)
	t.Cleanup(func() { _ = tr.Shutdown(context.Background()) })
	return tr, rec
}

func attrMap(kvs []attribute.KeyValue) map[string]attribute.Value {
	m := make(map[string]attribute.Value, len(kvs))
	for _, kv := range kvs {
		m[string(kv.Key)] = kv.Value
	}
	return m
}

func TestStartSpanAndAttributes(t *testing.T) {
	tr, rec := newRecordingTracer(t)

	_, span := tr.StartSpan(context.Background(), "work")
	tr.SetAttributes(span, map[string]interface{}{
		"s":     "x",
		"i":     3,
		"u":     uint64(7),
		"f":     float32(0.5),
		"b":     true,
		"slots": []string{"a", "b"},
		"other": struct{ A int }{1},
	})
	span.End()

	ended := rec.Ended()
	require.Len(t, ended, 1)
	assert.Equal(t, "work", ended[0].Name())

	attrs := attrMap(ended[0].Attributes())
	assert.Equal(t, "x", attrs["s"].AsString())
	assert.Equal(t, int64(3), attrs["i"].AsInt64())
	assert.Equal(t, int64(7), attrs["u"].AsInt64())
	assert.Equal(t, 0.5, attrs["f"].AsFloat64())
	assert.True(t, attrs["b"].AsBool())
	assert.Equal(t, []string{"a", "b"}, attrs["slots"].AsStringSlice())
	assert.Equal(t, "{1}", attrs["other"].AsString())
}

func TestRecordErrorOnSpan(t *testing.T) {
	tr, rec := newRecordingTracer(t)

	_, span := tr.StartSpan(context.Background(), "fail")
	tr.RecordErrorOnSpan(span, errors.New("boom"))
	span.End()

	_, ok := tr.StartSpan(context.Background(), "ok")
	tr.RecordErrorOnSpan(ok, nil)
	ok.End()

	ended := rec.Ended()
	require.Len(t, ended, 2)
	assert.Equal(t, codes.Error, ended[0].Status().Code)
	assert.Equal(t, "boom", ended[0].Status().Description)
	require.Len(t, ended[0].Events(), 1)
	assert.Equal(t, codes.Unset, ended[1].Status().Code)
}

func TestCarrierRoundTrip(t *testing.T) {
	tr, _ := newRecordingTracer(t)

	ctx, span := tr.StartSpan(context.Background(), "parent")
	defer span.End()

	carrier := tr.GetCarrier(ctx)
	require.Contains(t, carrier, "traceparent")

	remote := tr.SetCarrierOnContext(context.Background(), carrier)
	_, child := tr.StartSpan(remote, "child")
	defer child.End()
	assert.Equal(t, span.SpanContext().TraceID(), child.SpanContext().TraceID())
}

func TestServiceOperationsAreTraced(t *testing.T) {
	tr, rec := newRecordingTracer(t)
	svc := vectordb.NewService(memstore.New(), vectordb.WithTracer(tr))

	ctx := context.Background()
	_, err := svc.Describe(ctx, "missing")
	require.ErrorIs(t, err, vectordb.ErrNotFound)

	ended := rec.Ended()
	require.NotEmpty(t, ended)
	last := ended[len(ended)-1]
	assert.Equal(t, "vectordb.describe", last.Name())
	assert.Equal(t, "missing", attrMap(last.Attributes())["vectordb.collection"].AsString())
	assert.Equal(t, codes.Error, last.Status().Code)
}

func TestFXModule(t *testing.T) {
	var vt vectordb.Tracer
	app := fxtest.New(t,
		fx.Provide(func() Config { return Config{ServiceName: "test"} }),
		FXModule,
		fx.Populate(&vt),
	)
	app.RequireStart()
	require.NotNil(t, vt)
	app.RequireStop()
}
