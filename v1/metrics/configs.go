package metrics

// Config defines the configuration for the Prometheus metrics server.
type Config struct {
	// Address is the listen address of the /metrics endpoint, e.g. ":9090".
	// Leave it empty to collect metrics without serving them.
	Address string `yaml:"address" envconfig:"ADDRESS"`

	// EnableDefaultCollectors registers the Go, process and build info collectors.
	EnableDefaultCollectors bool `yaml:"enable_default_collectors" envconfig:"ENABLE_DEFAULT_COLLECTORS"`

	// Namespace prefixes every metric name, e.g. "vecsearch".
	Namespace string `yaml:"namespace" envconfig:"NAMESPACE"`

	// ServiceName is attached to every metric as the constant "service" label.
	ServiceName string `yaml:"service_name" envconfig:"SERVICE_NAME"`
}
