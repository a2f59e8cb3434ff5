package redis

import (
	"context"
	"errors"
	"fmt"
	"net"

	"github.com/redis/go-redis/v9"

	"github.com/Aleph-Alpha/vecsearch/v1/vectordb"
)

// IsNilError checks if the error is a "key does not exist" error.
func IsNilError(err error) bool {
	return errors.Is(err, redis.Nil)
}

// IsClosedError checks if the error is due to a closed client.
func IsClosedError(err error) bool {
	return errors.Is(err, redis.ErrClosed)
}

// translateError wraps connection failures, timeouts and closed clients in vectordb.ErrStoreUnavailable.
func translateError(err error) error {
	if err == nil {
		return nil
	}
	var netErr net.Error
	switch {
	case IsClosedError(err), errors.Is(err, context.DeadlineExceeded), errors.As(err, &netErr):
		return fmt.Errorf("%w: %w", vectordb.ErrStoreUnavailable, err)
	}
	return err
}
