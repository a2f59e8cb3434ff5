// Package logger provides structured logging for the vecsearch services.
//
// It wraps Uber's zap with a small method set, Info, Debug, Warn, Error and
// Fatal, each taking a message, an optional error and optional field maps.
// Every other package in this module declares a Logger interface with the
// same methods, so a single *Logger satisfies all of them.
//
// # Direct Usage (Without FX)
//
//	log := logger.NewLoggerClient(logger.Config{
//		Level:         logger.Info,
//		ServiceName:   "vecsearch",
//		EnableTracing: true,
//	})
//
//	log.Info("Collection ready", nil, map[string]interface{}{
//		"collection": "text_collection",
//	})
//
//	// Adds trace_id and span_id when ctx carries a span.
//	log.InfoWithContext(ctx, "Search served", nil, map[string]interface{}{
//		"limit": 5,
//	})
//
// # FX Module Integration
//
//	app := fx.New(
//		logger.FXModule,
//		fx.Provide(func() logger.Config {
//			return logger.Config{Level: logger.Debug}
//		}),
//		fx.Provide(func(l *logger.Logger) vectordb.Logger { return l }),
//	)
//
// # Configuration
//
//	VECSEARCH_LOGGER_LEVEL=debug          # debug, info, warning, error
//	VECSEARCH_LOGGER_SERVICE_NAME=search  # "service" field on every entry
//	VECSEARCH_LOGGER_ENABLE_TRACING=true  # trace correlation fields
//
// Output is JSON on stderr with ISO8601 timestamps, the process ID and the
// caller. All methods are safe for concurrent use.
package logger
