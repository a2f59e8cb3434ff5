package cli

import (
	"context"
	"fmt"

	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap/zapcore"

	"github.com/Aleph-Alpha/vecsearch/v1/config"
	"github.com/Aleph-Alpha/vecsearch/v1/embedding"
	"github.com/Aleph-Alpha/vecsearch/v1/logger"
	"github.com/Aleph-Alpha/vecsearch/v1/memstore"
	"github.com/Aleph-Alpha/vecsearch/v1/metrics"
	"github.com/Aleph-Alpha/vecsearch/v1/minio"
	"github.com/Aleph-Alpha/vecsearch/v1/pgvector"
	"github.com/Aleph-Alpha/vecsearch/v1/qdrant"
	"github.com/Aleph-Alpha/vecsearch/v1/redis"
	"github.com/Aleph-Alpha/vecsearch/v1/retrieval"
	"github.com/Aleph-Alpha/vecsearch/v1/tracer"
	"github.com/Aleph-Alpha/vecsearch/v1/vectordb"
)

// indexKind selects which retrieval deployment an application carries.
type indexKind int

const (
	textIndex indexKind = iota
	imageIndex
)

type runner struct {
	flags *globalFlags
	extra []fx.Option
}

// loadConfig reads the config file and environment and applies flag overrides.
func (r *runner) loadConfig() (*config.Config, error) {
	cfg, err := config.Load(r.flags.configPath)
	if err != nil {
		return nil, err
	}
	if r.flags.backend != "" {
		cfg.Store.Backend = r.flags.backend
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

// run starts an application for kind, hands the populated targets to fn and
// stops the application afterwards.
func (r *runner) run(ctx context.Context, kind indexKind, fn func() error, targets ...interface{}) (err error) {
	cfg, err := r.loadConfig()
	if err != nil {
		return err
	}

	opts, err := appOptions(cfg, kind)
	if err != nil {
		return err
	}
	opts = append(opts, r.extra...)
	opts = append(opts, fx.Populate(targets...))

	app := fx.New(opts...)
	if err := app.Err(); err != nil {
		return err
	}
	if err := app.Start(ctx); err != nil {
		return err
	}
	defer func() {
		if stopErr := app.Stop(context.WithoutCancel(ctx)); err == nil {
			err = stopErr
		}
	}()
	return fn()
}

// appOptions assembles the fx graph: ambient modules, the configured store
// backend, the embedder of the index kind and the index itself.
func appOptions(cfg *config.Config, kind indexKind) ([]fx.Option, error) {
	opts := []fx.Option{
		fx.WithLogger(func(l *logger.Logger) fxevent.Logger {
			zl := &fxevent.ZapLogger{Logger: l.Zap}
			zl.UseLogLevel(zapcore.DebugLevel)
			return zl
		}),

		fx.Supply(cfg.Logger),
		logger.FXModule,
		fx.Provide(
			func(l *logger.Logger) vectordb.Logger { return l },
			func(l *logger.Logger) retrieval.Logger { return l },
			func(l *logger.Logger) qdrant.Logger { return l },
			func(l *logger.Logger) pgvector.Logger { return l },
			func(l *logger.Logger) metrics.Logger { return l },
			func(l *logger.Logger) tracer.Logger { return l },
			func(l *logger.Logger) embedding.Logger { return l },
			func(l *logger.Logger) redis.Logger { return l },
			func(l *logger.Logger) minio.Logger { return l },
		),

		fx.Supply(cfg.Metrics),
		metrics.FXModule,
		fx.Supply(cfg.Tracer),
		tracer.FXModule,

		vectordb.FXModule,
		embedding.FXModule,
	}

	switch cfg.Store.Backend {
	case config.BackendQdrant:
		opts = append(opts, fx.Supply(cfg.Store.Qdrant), qdrant.FXModule)
	case config.BackendPgVector:
		opts = append(opts, fx.Supply(cfg.Store.Postgres), pgvector.FXModule)
	case config.BackendMemory:
		opts = append(opts, memstore.FXModule)
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
	}

	embedCfg := cfg.Embedding.Text
	switch kind {
	case textIndex:
		opts = append(opts, retrieval.TextFXModule)
	case imageIndex:
		embedCfg = cfg.Embedding.Image
		opts = append(opts, retrieval.ImageFXModule)
		if cfg.Store.ImagesEnabled() {
			opts = append(opts,
				fx.Supply(cfg.Store.Images),
				minio.FXModule,
				fx.Provide(func(c *minio.Client) retrieval.BlobStore { return c }),
			)
		}
	}
	opts = append(opts, fx.Supply(embedCfg))

	if cfg.Embedding.CacheEnabled() {
		opts = append(opts,
			fx.Supply(*cfg.Embedding.Cache),
			redis.FXModule,
			fx.Decorate(func(e embedding.Embedder, c *redis.Client, l embedding.Logger) embedding.Embedder {
				return embedding.NewCachedEmbedder(e, c,
					embedding.WithNamespace(cacheNamespace(embedCfg)),
					embedding.WithCacheLogger(l))
			}),
		)
	}
	return opts, nil
}

// cacheNamespace keys cached vectors by provider and model so that switching
// models never serves stale vectors.
func cacheNamespace(c *embedding.Config) string {
	return fmt.Sprintf("%s:%s", c.Provider, c.TextModel)
}
