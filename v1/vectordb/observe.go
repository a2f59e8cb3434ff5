package vectordb

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/trace"
)

// Recorder receives one observation per Service operation.
// metrics.Metrics implements it.
type Recorder interface {
	ObserveOperation(operation, collection string, start time.Time, err error)
	SetPointCount(collection string, count uint64)
}

// Tracer opens spans around Service operations. tracer.Tracer implements it.
type Tracer interface {
	StartSpan(ctx context.Context, name string) (context.Context, trace.Span)
	SetAttributes(span trace.Span, attrs map[string]interface{})
	RecordErrorOnSpan(span trace.Span, err error)
}

// observe starts a span and returns the function that closes it, records the
// operation and logs failures.
func (s *Service) observe(ctx context.Context, operation, collection string) (context.Context, func(error)) {
	start := time.Now()
	ctx, span := s.tracer.StartSpan(ctx, "vectordb."+operation)
	s.tracer.SetAttributes(span, map[string]interface{}{
		"vectordb.collection": collection,
	})
	return ctx, func(err error) {
		defer span.End()
		s.recorder.ObserveOperation(operation, collection, start, err)
		if err != nil {
			s.tracer.RecordErrorOnSpan(span, err)
			s.logger.Debug("[VectorDB] Operation failed", err, map[string]interface{}{
				"operation":  operation,
				"collection": collection,
				"kind":       ErrorKind(err),
			})
		}
	}
}

type nopRecorder struct{}

func (nopRecorder) ObserveOperation(string, string, time.Time, error) {}
func (nopRecorder) SetPointCount(string, uint64)                     {}

type nopTracer struct {
	tracer trace.Tracer
}

func (t nopTracer) StartSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, name)
}

func (nopTracer) SetAttributes(trace.Span, map[string]interface{}) {}

func (nopTracer) RecordErrorOnSpan(trace.Span, error) {}
