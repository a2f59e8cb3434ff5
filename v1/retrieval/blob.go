package retrieval

import (
	"context"
	"fmt"
)

// ImageKeyPayloadKey holds the object key of an image kept in a BlobStore.
const ImageKeyPayloadKey = "image_key"

// BlobStore keeps original image files outside the vector store.
// *minio.Client implements it.
type BlobStore interface {
	Put(ctx context.Context, key string, data []byte, contentType string) error
	Get(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, keys ...string) error
	DeletePrefix(ctx context.Context, prefix string) error
}

// WithBlobStore stores image files in b. Points then carry ImageKeyPayloadKey
// instead of the base64 file.
func WithBlobStore(b BlobStore) Option {
	return func(o *options) {
		o.blobs = b
	}
}

func blobPrefix(collection string) string { return collection + "/" }

func blobKey(collection, id, format string) string {
	return fmt.Sprintf("%s%s.%s", blobPrefix(collection), id, format)
}
