package tracer

import (
	"context"

	"go.uber.org/fx"

	"github.com/Aleph-Alpha/vecsearch/v1/vectordb"
)

// FXModule provides the *Tracer, exposes it as the vectordb.Tracer and shuts
// the provider down when the application stops.
//
// Usage:
//
//	app := fx.New(
//	    fx.Provide(func() tracer.Config { return cfg.Tracer }),
//	    tracer.FXModule,
//	    vectordb.FXModule,
//	)
var FXModule = fx.Module("tracer",
	fx.Provide(
		NewClientWithDI,
		func(t *Tracer) vectordb.Tracer { return t },
	),
	fx.Invoke(RegisterTracerLifecycle),
)

// TracerParams groups the dependencies of NewClientWithDI.
type TracerParams struct {
	fx.In

	Config Config
	Logger Logger `optional:"true"`
}

// NewClientWithDI creates a Tracer from injected dependencies.
func NewClientWithDI(p TracerParams) (*Tracer, error) {
	return NewClient(p.Config, p.Logger)
}

// RegisterTracerLifecycle flushes and shuts down the provider on stop.
func RegisterTracerLifecycle(lc fx.Lifecycle, tracer *Tracer) {
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			tracer.logger.Info("[Tracer] Shutting down tracer", nil, nil)
			return tracer.Shutdown(ctx)
		},
	})
}
