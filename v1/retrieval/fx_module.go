package retrieval

import (
	"go.uber.org/fx"

	"github.com/Aleph-Alpha/vecsearch/v1/embedding"
	"github.com/Aleph-Alpha/vecsearch/v1/vectordb"
)

// TextFXModule provides a *TextIndex and declares its collection so the
// first Add creates it.
//
// Requires a *vectordb.Service and an embedding.Embedder producing
// TextDimension vectors.
var TextFXModule = fx.Module("retrieval_text",
	vectordb.ProvideCollection(TextCollection, TextSchema()),
	fx.Provide(NewTextIndexWithDI),
)

// ImageFXModule provides an *ImageIndex and declares its collection. When a
// BlobStore is in the container, image files are kept there instead of in
// the payload.
var ImageFXModule = fx.Module("retrieval_image",
	vectordb.ProvideCollection(ImageCollection, ImageSchema()),
	fx.Provide(NewImageIndexWithDI),
)

// IndexParams groups the dependencies of the index constructors.
type IndexParams struct {
	fx.In

	Service  *vectordb.Service
	Embedder embedding.Embedder
	Logger   Logger    `optional:"true"`
	Blobs    BlobStore `optional:"true"`
}

// NewTextIndexWithDI builds a TextIndex from injected dependencies.
func NewTextIndexWithDI(p IndexParams) (*TextIndex, error) {
	return NewTextIndex(p.Service, p.Embedder, WithLogger(p.Logger))
}

// NewImageIndexWithDI builds an ImageIndex from injected dependencies.
func NewImageIndexWithDI(p IndexParams) (*ImageIndex, error) {
	opts := []Option{WithLogger(p.Logger)}
	if p.Blobs != nil {
		opts = append(opts, WithBlobStore(p.Blobs))
	}
	return NewImageIndex(p.Service, p.Embedder, opts...)
}
