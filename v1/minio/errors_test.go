package minio

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"

	"github.com/Aleph-Alpha/vecsearch/v1/vectordb"
)

func TestTranslateError(t *testing.T) {
	assert.Nil(t, translateError(nil))

	missing := minio.ErrorResponse{Code: "NoSuchKey", StatusCode: http.StatusNotFound}
	assert.ErrorIs(t, translateError(missing), vectordb.ErrNotFound)

	noBucket := minio.ErrorResponse{Code: "NoSuchBucket", StatusCode: http.StatusNotFound}
	assert.ErrorIs(t, translateError(noBucket), vectordb.ErrNotFound)

	down := minio.ErrorResponse{Code: "ServiceUnavailable", StatusCode: http.StatusServiceUnavailable}
	assert.ErrorIs(t, translateError(down), vectordb.ErrStoreUnavailable)

	timeout := fmt.Errorf("put: %w", context.DeadlineExceeded)
	assert.ErrorIs(t, translateError(timeout), vectordb.ErrStoreUnavailable)

	plain := errors.New("boom")
	assert.Equal(t, plain, translateError(plain))
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, "localhost:9000", cfg.Endpoint)
	assert.Equal(t, "vecsearch-images", cfg.BucketName)
	assert.False(t, cfg.UseSSL)
}
