package vectordb

import (
	"go.uber.org/fx"
)

// FXModule provides a *Service over whatever Store the application supplies.
//
// Usage:
//
//	app := fx.New(
//	    logger.FXModule,
//	    qdrant.FXModule, // or pgvector.FXModule, memstore.FXModule
//	    vectordb.FXModule,
//	)
var FXModule = fx.Module("vectordb",
	fx.Provide(NewServiceWithDI),
)

// ServiceParams groups the dependencies of a Service.
type ServiceParams struct {
	fx.In

	Store    Store
	Logger   Logger   `optional:"true"`
	Recorder Recorder `optional:"true"`
	Tracer   Tracer   `optional:"true"`

	// Collections are declared schemas, created lazily on first upsert.
	Collections []CollectionSpec `group:"vectordb_collections"`
}

// CollectionSpec declares a collection for lazy creation.
type CollectionSpec struct {
	Name   string
	Schema Schema
}

// NewServiceWithDI builds a Service from injected dependencies.
func NewServiceWithDI(params ServiceParams) *Service {
	opts := []Option{
		WithLogger(params.Logger),
		WithRecorder(params.Recorder),
		WithTracer(params.Tracer),
	}
	for _, c := range params.Collections {
		opts = append(opts, WithCollection(c.Name, c.Schema))
	}
	return NewService(params.Store, opts...)
}

// ProvideCollection registers a CollectionSpec in the vectordb_collections group.
func ProvideCollection(name string, schema Schema) fx.Option {
	return fx.Provide(fx.Annotate(
		func() CollectionSpec { return CollectionSpec{Name: name, Schema: schema} },
		fx.ResultTags(`group:"vectordb_collections"`),
	))
}
