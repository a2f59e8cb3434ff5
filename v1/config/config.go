package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"

	"github.com/Aleph-Alpha/vecsearch/v1/embedding"
	"github.com/Aleph-Alpha/vecsearch/v1/logger"
	"github.com/Aleph-Alpha/vecsearch/v1/metrics"
	"github.com/Aleph-Alpha/vecsearch/v1/minio"
	"github.com/Aleph-Alpha/vecsearch/v1/pgvector"
	"github.com/Aleph-Alpha/vecsearch/v1/qdrant"
	"github.com/Aleph-Alpha/vecsearch/v1/redis"
	"github.com/Aleph-Alpha/vecsearch/v1/tracer"
)

// EnvPrefix prefixes every environment variable read by Load.
const EnvPrefix = "VECSEARCH"

// Store backends.
const (
	BackendQdrant   = "qdrant"
	BackendPgVector = "pgvector"
	BackendMemory   = "memory"
)

// Config is the root configuration of a vecsearch process.
type Config struct {
	Service   Service         `yaml:"service" envconfig:"SERVICE"`
	Logger    logger.Config   `yaml:"logger" envconfig:"LOGGER"`
	Metrics   metrics.Config  `yaml:"metrics" envconfig:"METRICS"`
	Tracer    tracer.Config   `yaml:"tracer" envconfig:"TRACER"`
	Store     Store           `yaml:"store" envconfig:"STORE"`
	Embedding EmbeddingConfig `yaml:"embedding" envconfig:"EMBEDDING"`
}

// Service names the running process.
type Service struct {
	Name string `yaml:"name" envconfig:"NAME"`
	Env  string `yaml:"env" envconfig:"ENV"`
}

// Store selects the vector engine.
type Store struct {
	// Backend is qdrant, pgvector or memory.
	Backend  string           `yaml:"backend" envconfig:"BACKEND"`
	Qdrant   *qdrant.Config   `yaml:"qdrant" envconfig:"QDRANT"`
	Postgres *pgvector.Config `yaml:"postgres" envconfig:"POSTGRES"`

	// Images moves image files out of the point payload into a bucket.
	// Disabled while Images.Endpoint is empty.
	Images *minio.Config `yaml:"images" envconfig:"IMAGES"`
}

// ImagesEnabled reports whether an image object store is configured.
func (s Store) ImagesEnabled() bool {
	return s.Images != nil && s.Images.Endpoint != ""
}

// EmbeddingConfig holds one embedder per index kind.
type EmbeddingConfig struct {
	// Text feeds the 384-dimensional text index.
	Text  *embedding.Config `yaml:"text" envconfig:"TEXT"`
	// Image feeds the 512-dimensional shared image/text index.
	Image *embedding.Config `yaml:"image" envconfig:"IMAGE"`
	// Cache memoizes text embeddings in Redis. Disabled while Cache.Host
	// is empty.
	Cache *redis.Config     `yaml:"cache" envconfig:"CACHE"`
}

// CacheEnabled reports whether an embedding cache is configured.
func (e EmbeddingConfig) CacheEnabled() bool {
	return e.Cache != nil && e.Cache.Host != ""
}

// Default returns a configuration for a local Qdrant and inference service.
func Default() *Config {
	return &Config{
		Service: Service{Name: "vecsearch", Env: "development"},
		Logger:  logger.Config{Level: logger.Info},
		Metrics: metrics.Config{Namespace: "vecsearch"},
		Store: Store{
			Backend:  BackendQdrant,
			Qdrant:   qdrant.DefaultConfig(),
			Postgres: pgvector.DefaultConfig(),
			Images:   disabledImages(),
		},
		Embedding: EmbeddingConfig{
			Text:  embedding.DefaultConfig(),
			Image: embedding.SharedConfig(),
			Cache: &redis.Config{},
		},
	}
}

func disabledImages() *minio.Config {
	c := minio.DefaultConfig()
	c.Endpoint = ""
	return c
}

// Load builds a Config from defaults, then the YAML file at path (skipped
// when path is empty), then VECSEARCH_* environment variables.
//
// Example:
//
//	VECSEARCH_STORE_BACKEND=pgvector
//	VECSEARCH_STORE_POSTGRES_HOST=db
//	VECSEARCH_EMBEDDING_TEXT_ENDPOINT=http://inference:8080
//	VECSEARCH_EMBEDDING_CACHE_HOST=redis
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}

	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, fmt.Errorf("config: environment: %w", err)
	}

	cfg.applyServiceDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyServiceDefaults copies the service identity into sub-configs that
// left it empty.
func (c *Config) applyServiceDefaults() {
	if c.Logger.ServiceName == "" {
		c.Logger.ServiceName = c.Service.Name
	}
	if c.Metrics.ServiceName == "" {
		c.Metrics.ServiceName = c.Service.Name
	}
	if c.Tracer.ServiceName == "" {
		c.Tracer.ServiceName = c.Service.Name
	}
	if c.Tracer.AppEnv == "" {
		c.Tracer.AppEnv = c.Service.Env
	}
}

// Validate checks the store selection. Embedder configs are validated when
// an index needs them, so a text-only process does not need image settings.
func (c *Config) Validate() error {
	switch c.Store.Backend {
	case BackendQdrant:
		if c.Store.Qdrant == nil || c.Store.Qdrant.Endpoint == "" {
			return errors.New("config: store.qdrant.endpoint is required")
		}
	case BackendPgVector:
		if c.Store.Postgres == nil || c.Store.Postgres.Host == "" {
			return errors.New("config: store.postgres.host is required")
		}
	case BackendMemory:
	default:
		return fmt.Errorf("config: unknown store backend %q", c.Store.Backend)
	}
	if c.Store.ImagesEnabled() && c.Store.Images.BucketName == "" {
		return errors.New("config: store.images.bucket_name is required")
	}
	return nil
}
