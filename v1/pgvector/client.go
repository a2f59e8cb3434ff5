package pgvector

//go:generate mockgen -source=client.go -destination=mock_logger.go -package=pgvector

import (
	"context"
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Logger is the logging contract of this package. It matches the shared
// logger so the zap-backed implementation can be injected directly.
type Logger interface {
	Info(msg string, err error, fields ...map[string]interface{})
	Debug(msg string, err error, fields ...map[string]interface{})
	Warn(msg string, err error, fields ...map[string]interface{})
	Error(msg string, err error, fields ...map[string]interface{})
	Fatal(msg string, err error, fields ...map[string]interface{})
}

// Client owns the GORM connection pool and applies the bootstrap DDL.
type Client struct {
	db     *gorm.DB
	cfg    *Config
	logger Logger
}

// NewClient opens the pool, verifies connectivity and makes sure the vector
// extension and the collection registry exist.
func NewClient(cfg *Config, logger Logger) (*Client, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if logger == nil {
		logger = nopLogger{}
	}

	logger.Info("[PgVector] Connecting", nil, map[string]interface{}{
		"host":   cfg.Host,
		"port":   cfg.Port,
		"dbname": cfg.DbName,
	})

	db, err := gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("[PgVector] failed to connect: %w", translateError(err))
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("[PgVector] failed to get database instance: %w", err)
	}

	maxOpen := cfg.MaxOpenConns
	if maxOpen == 0 {
		maxOpen = 20
	}
	maxIdle := cfg.MaxIdleConns
	if maxIdle == 0 {
		maxIdle = 10
	}
	maxLifetime := cfg.ConnMaxLifetime
	if maxLifetime == 0 {
		maxLifetime = 5 * time.Minute
	}
	sqlDB.SetMaxOpenConns(maxOpen)
	sqlDB.SetMaxIdleConns(maxIdle)
	sqlDB.SetConnMaxLifetime(maxLifetime)

	c := &Client{db: db, cfg: cfg, logger: logger}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := c.HealthCheck(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, err
	}
	if err := c.migrate(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, err
	}

	logger.Info("[PgVector] Connected", nil, map[string]interface{}{"host": cfg.Host})
	return c, nil
}

// migrate installs the extension and the registry table.
func (c *Client) migrate(ctx context.Context) error {
	db := c.db.WithContext(ctx)
	if err := db.Exec("CREATE EXTENSION IF NOT EXISTS vector").Error; err != nil {
		return fmt.Errorf("[PgVector] failed to enable vector extension: %w", translateError(err))
	}
	if err := db.AutoMigrate(&collectionRecord{}); err != nil {
		return fmt.Errorf("[PgVector] failed to migrate collection registry: %w", translateError(err))
	}
	return nil
}

// HealthCheck pings the database with a short deadline.
func (c *Client) HealthCheck(ctx context.Context) error {
	sqlDB, err := c.db.DB()
	if err != nil {
		return fmt.Errorf("[PgVector] failed to get database instance: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	if err := sqlDB.PingContext(ctx); err != nil {
		return fmt.Errorf("[PgVector] health check failed: %w", translateError(err))
	}
	return nil
}

// DB exposes the underlying *gorm.DB for advanced use.
func (c *Client) DB() *gorm.DB {
	return c.db
}

// Close releases every pooled connection.
func (c *Client) Close() error {
	sqlDB, err := c.db.DB()
	if err != nil {
		return err
	}
	c.logger.Info("[PgVector] Closing connection pool", nil)
	return sqlDB.Close()
}

// session returns a context-bound handle honouring Config.Timeout.
func (c *Client) session(ctx context.Context) (*gorm.DB, context.CancelFunc) {
	if c.cfg.Timeout > 0 {
		ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
		return c.db.WithContext(ctx), cancel
	}
	return c.db.WithContext(ctx), func() {}
}

type nopLogger struct{}

func (nopLogger) Info(string, error, ...map[string]interface{})  {}
func (nopLogger) Debug(string, error, ...map[string]interface{}) {}
func (nopLogger) Warn(string, error, ...map[string]interface{})  {}
func (nopLogger) Error(string, error, ...map[string]interface{}) {}
func (nopLogger) Fatal(string, error, ...map[string]interface{}) {}
