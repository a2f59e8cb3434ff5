package redis

import (
	"context"
	"fmt"
)

// Get returns the value stored under key. A missing key reports ok=false
// and no error.
func (c *Client) Get(ctx context.Context, key string) ([]byte, bool, error) {
	data, err := c.client.Get(ctx, c.cfg.KeyPrefix+key).Bytes()
	if IsNilError(err) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("[Redis] get %q: %w", key, translateError(err))
	}
	return data, true, nil
}

// Set stores value under key with the configured TTL.
func (c *Client) Set(ctx context.Context, key string, value []byte) error {
	if err := c.client.Set(ctx, c.cfg.KeyPrefix+key, value, c.cfg.TTL).Err(); err != nil {
		return fmt.Errorf("[Redis] set %q: %w", key, translateError(err))
	}
	return nil
}

// Delete removes keys and returns how many existed.
func (c *Client) Delete(ctx context.Context, keys ...string) (int64, error) {
	if len(keys) == 0 {
		return 0, nil
	}
	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = c.cfg.KeyPrefix + k
	}
	n, err := c.client.Del(ctx, full...).Result()
	if err != nil {
		return 0, fmt.Errorf("[Redis] delete: %w", translateError(err))
	}
	return n, nil
}
