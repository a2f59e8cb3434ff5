package minio

import (
	"context"
	"fmt"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// Logger defines the logging operations used by the minio package.
//
//go:generate mockgen -source=client.go -destination=mock_logger.go -package=minio
type Logger interface {
	Info(msg string, err error, fields ...map[string]interface{})
	Debug(msg string, err error, fields ...map[string]interface{})
	Warn(msg string, err error, fields ...map[string]interface{})
	Error(msg string, err error, fields ...map[string]interface{})
	Fatal(msg string, err error, fields ...map[string]interface{})
}

// Client stores image files in one bucket.
// It implements retrieval.BlobStore.
type Client struct {
	api    *minio.Client
	cfg    Config
	logger Logger
}

// NewClient connects, validates the credentials and creates the bucket
// when it does not exist.
func NewClient(cfg *Config, logger Logger) (*Client, error) {
	if logger == nil {
		logger = nopLogger{}
	}
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("[MinIO] endpoint cannot be empty")
	}
	if cfg.BucketName == "" {
		return nil, fmt.Errorf("[MinIO] bucket name cannot be empty")
	}

	logger.Info("[MinIO] Connecting", nil, map[string]interface{}{
		"endpoint": cfg.Endpoint,
		"bucket":   cfg.BucketName,
		"secure":   cfg.UseSSL,
	})
	api, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("[MinIO] create client: %w", err)
	}

	c := &Client{api: api, cfg: *cfg, logger: logger}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := c.ensureBucketExists(ctx); err != nil {
		logger.Error("[MinIO] Failed to verify bucket", err, map[string]interface{}{
			"endpoint": cfg.Endpoint,
			"bucket":   cfg.BucketName,
		})
		return nil, err
	}
	return c, nil
}

// ensureBucketExists checks if the configured bucket exists and creates it if necessary.
func (c *Client) ensureBucketExists(ctx context.Context) error {
	bucket := c.cfg.BucketName
	exists, err := c.api.BucketExists(ctx, bucket)
	if err != nil {
		return fmt.Errorf("[MinIO] check bucket %q: %w", bucket, translateError(err))
	}
	if exists {
		return nil
	}

	c.logger.Info("[MinIO] Bucket does not exist, creating it", nil, map[string]interface{}{
		"bucket": bucket,
		"region": c.cfg.Region,
	})
	if err := c.api.MakeBucket(ctx, bucket, minio.MakeBucketOptions{Region: c.cfg.Region}); err != nil {
		resp := minio.ToErrorResponse(err)
		if resp.Code == "BucketAlreadyOwnedByYou" || resp.Code == "BucketAlreadyExists" {
			return nil
		}
		return fmt.Errorf("[MinIO] create bucket %q: %w", bucket, translateError(err))
	}
	return nil
}

// Bucket returns the configured bucket name.
func (c *Client) Bucket() string { return c.cfg.BucketName }

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
