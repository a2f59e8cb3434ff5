package vectordb

import (
	"sync"

	"go.opentelemetry.io/otel/trace/noop"
)

// Logger defines the logging operations used by the vectordb package.
//
//go:generate mockgen -source=setup.go -destination=mock_logger.go -package=vectordb
type Logger interface {
	Info(msg string, err error, fields ...map[string]interface{})
	Debug(msg string, err error, fields ...map[string]interface{})
	Warn(msg string, err error, fields ...map[string]interface{})
	Error(msg string, err error, fields ...map[string]interface{})
	Fatal(msg string, err error, fields ...map[string]interface{})
}

// Service implements collection management, point upserts and similarity
// search on top of a Store.
//
// The Service is safe for concurrent use. Its only in-process state is a cache
// of collection schemas it has verified against the store. The cache lives for
// the whole process: if another process drops and recreates a collection with a
// different schema, this Service keeps validating against the old one until the
// store reports the collection missing or Clear/Drop is called here.
// Concurrent upserts to the same point ID race; the store keeps whichever
// write it applies last.
type Service struct {
	store    Store
	logger   Logger
	recorder Recorder
	tracer   Tracer

	mu       sync.RWMutex
	known    map[string]Schema
	declared map[string]Schema
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the logger. Without one the Service does not log.
func WithLogger(l Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithRecorder sets the metrics recorder.
func WithRecorder(r Recorder) Option {
	return func(s *Service) {
		if r != nil {
			s.recorder = r
		}
	}
}

// WithTracer sets the tracer.
func WithTracer(t Tracer) Option {
	return func(s *Service) {
		if t != nil {
			s.tracer = t
		}
	}
}

// WithCollection declares the schema of a collection so the first upsert
// creates it when it is missing.
func WithCollection(name string, schema Schema) Option {
	return func(s *Service) {
		s.declared[name] = schema
	}
}

// NewService builds a Service over store.
func NewService(store Store, opts ...Option) *Service {
	s := &Service{
		store:    store,
		logger:   nopLogger{},
		recorder: nopRecorder{},
		tracer:   nopTracer{tracer: noop.NewTracerProvider().Tracer("vectordb")},
		known:    make(map[string]Schema),
		declared: make(map[string]Schema),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Store returns the underlying store.
func (s *Service) Store() Store {
	return s.store
}

func (s *Service) cached(name string) (Schema, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	schema, ok := s.known[name]
	return schema, ok
}

func (s *Service) remember(name string, schema Schema) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.known[name] = schema
}

func (s *Service) forget(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.known, name)
}

func (s *Service) declaredSchema(name string) (Schema, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	schema, ok := s.declared[name]
	return schema, ok
}

type nopLogger struct{}

func (nopLogger) Info(string, error, ...map[string]interface{})  {}
func (nopLogger) Debug(string, error, ...map[string]interface{}) {}
func (nopLogger) Warn(string, error, ...map[string]interface{})  {}
func (nopLogger) Error(string, error, ...map[string]interface{}) {}
func (nopLogger) Fatal(string, error, ...map[string]interface{}) {}
