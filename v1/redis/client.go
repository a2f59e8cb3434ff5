package redis

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Logger defines the logging operations used by the redis package.
//
//go:generate mockgen -source=client.go -destination=mock_logger.go -package=redis
type Logger interface {
	Info(msg string, err error, fields ...map[string]interface{})
	Debug(msg string, err error, fields ...map[string]interface{})
	Warn(msg string, err error, fields ...map[string]interface{})
	Error(msg string, err error, fields ...map[string]interface{})
	Fatal(msg string, err error, fields ...map[string]interface{})
}

// Client is a Redis-backed key/value cache for byte values.
// It implements embedding.Cache.
type Client struct {
	client *redis.Client
	cfg    Config
	logger Logger

	closeOnce sync.Once
}

// NewClient connects to Redis and verifies the connection with PING.
//
// Example:
//
//	cache, err := redis.NewClient(redis.Config{Host: "localhost"}, log)
//	if err != nil {
//		return err
//	}
//	defer cache.Close()
//	embedder := embedding.NewCachedEmbedder(client, cache)
func NewClient(cfg Config, logger Logger) (*Client, error) {
	cfg = cfg.withDefaults()
	if logger == nil {
		logger = nopLogger{}
	}

	c := &Client{
		client: redis.NewClient(&redis.Options{
			Addr:         fmt.Sprintf("%s:%s", cfg.Host, strconv.Itoa(cfg.Port)),
			Username:     cfg.Username,
			Password:     cfg.Password,
			DB:           cfg.DB,
			PoolSize:     cfg.PoolSize,
			DialTimeout:  cfg.DialTimeout,
			ReadTimeout:  cfg.ReadTimeout,
			WriteTimeout: cfg.WriteTimeout,
		}),
		cfg:    cfg,
		logger: logger,
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.DialTimeout)
	defer cancel()
	if err := c.Ping(ctx); err != nil {
		_ = c.client.Close()
		logger.Error("[Redis] Failed to connect", err, map[string]interface{}{
			"host": cfg.Host,
			"port": cfg.Port,
		})
		return nil, fmt.Errorf("[Redis] connect %s:%d: %w", cfg.Host, cfg.Port, err)
	}

	logger.Info("[Redis] Connected", nil, map[string]interface{}{
		"host": cfg.Host,
		"port": cfg.Port,
		"db":   cfg.DB,
	})
	return c, nil
}

// Ping checks if the Redis server is reachable and responsive.
func (c *Client) Ping(ctx context.Context) error {
	return translateError(c.client.Ping(ctx).Err())
}

// TTL returns the expiry applied to cached values. Zero means none.
func (c *Client) TTL() time.Duration { return c.cfg.TTL }

// Close releases the connection pool. It is safe to call more than once.
func (c *Client) Close() error {
	var err error
	c.closeOnce.Do(func() {
		c.logger.Info("[Redis] Closing client", nil, nil)
		err = c.client.Close()
	})
	return err
}

type nopLogger struct{}

func (nopLogger) Info(string, error, ...map[string]interface{})  {}
func (nopLogger) Debug(string, error, ...map[string]interface{}) {}
func (nopLogger) Warn(string, error, ...map[string]interface{})  {}
func (nopLogger) Error(string, error, ...map[string]interface{}) {}
func (nopLogger) Fatal(string, error, ...map[string]interface{}) {}
