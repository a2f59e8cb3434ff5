package minio

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"

	"github.com/minio/minio-go/v7"

	"github.com/Aleph-Alpha/vecsearch/v1/vectordb"
)

// translateError maps S3 error responses and transport failures onto the
// vectordb error kinds.
func translateError(err error) error {
	if err == nil {
		return nil
	}
	resp := minio.ToErrorResponse(err)
	switch {
	case resp.Code == "NoSuchKey", resp.Code == "NoSuchBucket":
		return fmt.Errorf("%w: %w", vectordb.ErrNotFound, err)
	case resp.StatusCode >= http.StatusInternalServerError:
		return fmt.Errorf("%w: %w", vectordb.ErrStoreUnavailable, err)
	}
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || errors.As(err, &netErr) {
		return fmt.Errorf("%w: %w", vectordb.ErrStoreUnavailable, err)
	}
	return err
}
