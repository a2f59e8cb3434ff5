package tracer

// Config defines the tracer's resource attributes and export settings.
type Config struct {
	// ServiceName is the service.name resource attribute.
	ServiceName string `yaml:"service_name" envconfig:"SERVICE_NAME"`

	// AppEnv is the deployment environment, e.g. "production".
	AppEnv string `yaml:"app_env" envconfig:"APP_ENV"`

	// EnableExport ships spans over OTLP/HTTP. When false spans are created
	// and propagated but never leave the process.
	EnableExport bool `yaml:"enable_export" envconfig:"ENABLE_EXPORT"`

	// Endpoint overrides the collector URL, e.g. "http://otel:4318".
	// Empty falls back to the standard OTEL_EXPORTER_OTLP_* variables.
	Endpoint string `yaml:"endpoint" envconfig:"ENDPOINT"`
}
