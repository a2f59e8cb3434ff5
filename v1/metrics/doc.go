// Package metrics provides Prometheus-based instrumentation for the vector
// store service.
//
// *Metrics implements vectordb.Recorder: every vectordb.Service operation
// increments vector_operations_total with its operation, collection and
// error kind ("ok", "not_found", "store_unavailable", ...), records its
// latency in vector_operation_duration_seconds, and Count refreshes the
// collection_points gauge.
//
// Each Metrics owns an isolated registry wrapped with a constant "service"
// label, so several services can live in one process.
//
// # Direct Usage (Without FX)
//
//	m := metrics.NewMetrics(metrics.Config{
//		Address:                 ":9090",
//		EnableDefaultCollectors: true,
//		Namespace:               "vecsearch",
//		ServiceName:             "text-search",
//	})
//	go m.Server.ListenAndServe()
//
//	svc := vectordb.NewService(store, vectordb.WithRecorder(m))
//
// # FX Module Integration
//
//	app := fx.New(
//		fx.Provide(func() metrics.Config { return cfg.Metrics }),
//		metrics.FXModule, // provides *Metrics and vectordb.Recorder
//		vectordb.FXModule,
//	)
//
// FXModule serves /metrics between OnStart and OnStop when Address is set.
//
// # Configuration
//
//	VECSEARCH_METRICS_ADDRESS=:9090
//	VECSEARCH_METRICS_ENABLE_DEFAULT_COLLECTORS=true
//	VECSEARCH_METRICS_NAMESPACE=vecsearch
//	VECSEARCH_METRICS_SERVICE_NAME=text-search
package metrics
