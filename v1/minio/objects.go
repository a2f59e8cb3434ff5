package minio

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/minio/minio-go/v7"
)

// Put uploads data under key.
func (c *Client) Put(ctx context.Context, key string, data []byte, contentType string) error {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	_, err := c.api.PutObject(ctx, c.cfg.BucketName, key, bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return fmt.Errorf("[MinIO] put %q: %w", key, translateError(err))
	}
	c.logger.Debug("[MinIO] Stored object", nil, map[string]interface{}{
		"key":   key,
		"bytes": len(data),
	})
	return nil
}

// Get downloads the object stored under key. A missing key wraps
// vectordb.ErrNotFound.
func (c *Client) Get(ctx context.Context, key string) ([]byte, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	obj, err := c.api.GetObject(ctx, c.cfg.BucketName, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("[MinIO] get %q: %w", key, translateError(err))
	}
	defer func() {
		if err := obj.Close(); err != nil {
			c.logger.Warn("[MinIO] Failed to close object reader", err, map[string]interface{}{"key": key})
		}
	}()

	// GetObject is lazy; errors such as NoSuchKey surface on the first read.
	data, err := io.ReadAll(obj)
	if err != nil {
		return nil, fmt.Errorf("[MinIO] read %q: %w", key, translateError(err))
	}
	return data, nil
}

// Delete removes the objects stored under keys. Missing keys are ignored.
func (c *Client) Delete(ctx context.Context, keys ...string) error {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	for _, key := range keys {
		if err := c.api.RemoveObject(ctx, c.cfg.BucketName, key, minio.RemoveObjectOptions{}); err != nil {
			return fmt.Errorf("[MinIO] delete %q: %w", key, translateError(err))
		}
	}
	return nil
}

// DeletePrefix removes every object whose key starts with prefix.
func (c *Client) DeletePrefix(ctx context.Context, prefix string) error {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	objects := c.api.ListObjects(ctx, c.cfg.BucketName, minio.ListObjectsOptions{
		Prefix:    prefix,
		Recursive: true,
	})
	var errs []error
	for res := range c.api.RemoveObjects(ctx, c.cfg.BucketName, objects, minio.RemoveObjectsOptions{}) {
		errs = append(errs, fmt.Errorf("%s: %w", res.ObjectName, translateError(res.Err)))
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("[MinIO] delete prefix %q: %w", prefix, err)
	}
	c.logger.Debug("[MinIO] Deleted prefix", nil, map[string]interface{}{"prefix": prefix})
	return nil
}
