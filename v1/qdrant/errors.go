package qdrant

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/Aleph-Alpha/vecsearch/v1/vectordb"
)

// translateError maps gRPC status codes onto the vectordb error kinds.
// The original error stays in the chain.
func translateError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %w", vectordb.ErrStoreUnavailable, err)
	}
	switch status.Code(err) {
	case codes.Unavailable, codes.DeadlineExceeded:
		return fmt.Errorf("%w: %w", vectordb.ErrStoreUnavailable, err)
	case codes.NotFound:
		return fmt.Errorf("%w: %w", vectordb.ErrNotFound, err)
	case codes.AlreadyExists:
		return fmt.Errorf("%w: %w", vectordb.ErrAlreadyExists, err)
	case codes.InvalidArgument:
		return fmt.Errorf("%w: %w", vectordb.ErrInvalidRequest, err)
	}
	return err
}
