package qdrant

import (
	"context"
	"fmt"
	"time"

	qdrant "github.com/qdrant/go-client/qdrant"
)

//
// ──────────────────────────────────────────────────────────────
//   QDRANT CLIENT WRAPPER
// ──────────────────────────────────────────────────────────────
//
// Client owns the gRPC connection to Qdrant. It is created once per
// process and shared by every Store built on it.
//

// Logger defines the logging operations used by the qdrant package.
//
//go:generate mockgen -source=client.go -destination=mock_logger.go -package=qdrant
type Logger interface {
	Info(msg string, err error, fields ...map[string]interface{})
	Debug(msg string, err error, fields ...map[string]interface{})
	Warn(msg string, err error, fields ...map[string]interface{})
	Error(msg string, err error, fields ...map[string]interface{})
	Fatal(msg string, err error, fields ...map[string]interface{})
}

// Client wraps the official Qdrant Go client.
type Client struct {
	api    *qdrant.Client
	cfg    *Config
	logger Logger
}

// NewClient ──────────────────────────────────────────────────────────────
// NewClient
// ──────────────────────────────────────────────────────────────
//
// NewClient connects to Qdrant and validates connectivity via a health check,
// so a misconfigured endpoint fails at startup rather than on first use.
//
// Example:
//
//	client, err := qdrant.NewClient(qdrant.DefaultConfig(), log)
func NewClient(cfg *Config, logger Logger) (*Client, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if logger == nil {
		logger = nopLogger{}
	}

	port := cfg.Port
	if port == 0 {
		port = 6334
	}
	logger.Info("[Qdrant] Connecting", nil, map[string]interface{}{
		"endpoint": cfg.Endpoint,
		"port":     port,
	})

	api, err := qdrant.NewClient(&qdrant.Config{
		Host:                   cfg.Endpoint,
		Port:                   port,
		APIKey:                 cfg.ApiKey,
		UseTLS:                 cfg.UseTLS,
		SkipCompatibilityCheck: !cfg.CheckCompatibility,
	})
	if err != nil {
		return nil, fmt.Errorf("[Qdrant] failed to initialize client: %w", translateError(err))
	}

	c := &Client{api: api, cfg: cfg, logger: logger}
	if err := c.HealthCheck(context.Background()); err != nil {
		_ = api.Close()
		return nil, err
	}
	return c, nil
}

// HealthCheck verifies the availability of the Qdrant service.
func (c *Client) HealthCheck(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	resp, err := c.api.HealthCheck(ctx)
	if err != nil {
		return fmt.Errorf("[Qdrant] health check failed: %w", translateError(err))
	}

	c.logger.Info("[Qdrant] Health check passed", nil, map[string]interface{}{
		"title":    resp.GetTitle(),
		"version":  resp.GetVersion(),
		"endpoint": c.cfg.Endpoint,
	})
	return nil
}

// API returns the underlying Qdrant SDK client.
func (c *Client) API() *qdrant.Client {
	return c.api
}

// Close closes the gRPC connection.
func (c *Client) Close() error {
	c.logger.Info("[Qdrant] Closing client", nil)
	return c.api.Close()
}

// withTimeout bounds ctx by the configured request timeout.
func (c *Client) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.cfg.Timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, c.cfg.Timeout)
}

type nopLogger struct{}

func (nopLogger) Info(string, error, ...map[string]interface{})  {}
func (nopLogger) Debug(string, error, ...map[string]interface{}) {}
func (nopLogger) Warn(string, error, ...map[string]interface{})  {}
func (nopLogger) Error(string, error, ...map[string]interface{}) {}
func (nopLogger) Fatal(string, error, ...map[string]interface{}) {}
