package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Aleph-Alpha/vecsearch/v1/vectordb"
)

// Metrics encapsulates the Prometheus registry and HTTP server responsible
// for exposing vector store metrics.
type Metrics struct {
	// Server serves /metrics. It is nil when Config.Address is empty.
	Server *http.Server

	// Registry is the Prometheus registry where all metrics are registered.
	// Each service maintains its own isolated registry to prevent metric name collisions.
	Registry *prometheus.Registry

	registerer prometheus.Registerer
	namespace  string

	operationsTotal   *prometheus.CounterVec
	operationDuration *prometheus.HistogramVec
	collectionPoints  *prometheus.GaugeVec
}

var (
	_ vectordb.Recorder = (*Metrics)(nil)
	_ MetricsCollector  = (*Metrics)(nil)
)

// operationBuckets covers in-process stores (sub-millisecond) up to slow
// remote upserts.
var operationBuckets = []float64{0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5}

// NewMetrics initializes and returns a new instance of the Metrics struct.
// It sets up a dedicated Prometheus registry, wraps all metrics with a
// constant `service` label and registers:
//
//   - vector_operations_total{operation,collection,status}
//   - vector_operation_duration_seconds{operation}
//   - collection_points{collection}
//
// Example:
//
//	m := metrics.NewMetrics(metrics.Config{
//	    Address:     ":9090",
//	    Namespace:   "vecsearch",
//	    ServiceName: "text-search",
//	})
//	svc := vectordb.NewService(store, vectordb.WithRecorder(m))
func NewMetrics(cfg Config) *Metrics {
	registry := prometheus.NewRegistry()

	// All metrics emitted by this service carry service="<cfg.ServiceName>".
	wrappedRegistry := prometheus.WrapRegistererWith(
		prometheus.Labels{"service": cfg.ServiceName},
		registry,
	)

	m := &Metrics{
		Registry:   registry,
		registerer: wrappedRegistry,
		namespace:  cfg.Namespace,
	}

	m.operationsTotal = createCounterVec(cfg.Namespace, "vector_operations_total",
		"Total number of vector store operations", []string{"operation", "collection", "status"})
	m.operationDuration = createHistogramVec(cfg.Namespace, "vector_operation_duration_seconds",
		"Duration of vector store operations in seconds", []string{"operation"}, operationBuckets)
	m.collectionPoints = createGaugeVec(cfg.Namespace, "collection_points",
		"Number of points stored per collection", []string{"collection"})

	wrappedRegistry.MustRegister(
		m.operationsTotal,
		m.operationDuration,
		m.collectionPoints,
	)

	if cfg.EnableDefaultCollectors {
		wrappedRegistry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
			collectors.NewBuildInfoCollector(),
		)
	}

	if cfg.Address != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
		m.Server = &http.Server{
			Addr:    cfg.Address,
			Handler: mux,
		}
	}
	return m
}
