package retrieval

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"image"
	"image/draw"
	_ "image/jpeg"
	_ "image/png"
	"strings"

	"github.com/Aleph-Alpha/vecsearch/v1/embedding"
	"github.com/Aleph-Alpha/vecsearch/v1/vectordb"
)

const (
	// ImageCollection is the default collection of the image index.
	ImageCollection = "images"
	// ImageDimension is the output size of the shared text/image model.
	ImageDimension = 512
	// ImageSlot holds image embeddings.
	ImageSlot = "image_vector"
	// CaptionSlot holds caption embeddings.
	CaptionSlot = "text_vector"
	// ImagePayloadKey holds the base64 encoded original file.
	ImagePayloadKey = "image_data"
	// CaptionPayloadKey holds the caption text, when one was given.
	CaptionPayloadKey = "caption"
)

// ImageSchema is the two-slot cosine schema of the image index.
func ImageSchema() vectordb.Schema {
	return vectordb.Schema{
		ImageSlot:   {Size: ImageDimension, Distance: vectordb.DistanceCosine},
		CaptionSlot: {Size: ImageDimension, Distance: vectordb.DistanceCosine},
	}
}

// ImageIndex stores images and finds them by free text through a shared
// text/image embedding space. A point always populates ImageSlot; CaptionSlot
// is populated only when a caption is supplied and otherwise holds a
// placeholder.
type ImageIndex struct {
	svc        *vectordb.Service
	embedder   embedding.Embedder
	collection string
	logger     Logger
	blobs      BlobStore
}

// NewImageIndex builds an image index. The embedder must encode both text and
// images into ImageDimension vectors.
func NewImageIndex(svc *vectordb.Service, embedder embedding.Embedder, opts ...Option) (*ImageIndex, error) {
	if err := checkEmbedder(embedder, embedding.ModalityImage, ImageDimension); err != nil {
		return nil, err
	}
	if err := checkEmbedder(embedder, embedding.ModalityText, ImageDimension); err != nil {
		return nil, err
	}
	o := buildOptions(ImageCollection, opts)
	return &ImageIndex{svc: svc, embedder: embedder, collection: o.collection, logger: o.logger, blobs: o.blobs}, nil
}

// Collection returns the name of the backing collection.
func (ix *ImageIndex) Collection() string { return ix.collection }

// Ensure creates the collection when it does not exist.
func (ix *ImageIndex) Ensure(ctx context.Context) error {
	return ix.svc.Ensure(ctx, ix.collection, ImageSchema())
}

// AddImage decodes a JPEG or PNG file, embeds it on ImageSlot and stores the
// original bytes, inline or in the BlobStore. It returns the generated point ID.
func (ix *ImageIndex) AddImage(ctx context.Context, data []byte) (string, error) {
	return ix.AddCaptionedImage(ctx, data, "")
}

// AddCaptionedImage is AddImage that also embeds caption on CaptionSlot.
// An empty caption leaves CaptionSlot as a placeholder.
func (ix *ImageIndex) AddCaptionedImage(ctx context.Context, data []byte, caption string) (string, error) {
	img, format, err := DecodeImageBytes(data)
	if err != nil {
		return "", err
	}

	imageVector, err := ix.embedder.Embed(ctx, embedding.Image(img))
	if err != nil {
		return "", fmt.Errorf("retrieval: embed image: %w", err)
	}

	id := vectordb.NewID()
	vectors := map[string][]float32{ImageSlot: imageVector}
	payload := map[string]any{}
	if ix.blobs != nil {
		key := blobKey(ix.collection, id, format)
		if err := ix.blobs.Put(ctx, key, data, "image/"+format); err != nil {
			return "", fmt.Errorf("retrieval: store image: %w", err)
		}
		payload[ImageKeyPayloadKey] = key
	} else {
		payload[ImagePayloadKey] = base64.StdEncoding.EncodeToString(data)
	}

	if caption = strings.TrimSpace(caption); caption != "" {
		textVector, err := ix.embedder.Embed(ctx, embedding.Text(caption))
		if err != nil {
			return "", fmt.Errorf("retrieval: embed caption: %w", err)
		}
		vectors[CaptionSlot] = textVector
		payload[CaptionPayloadKey] = caption
	}

	_, err = ix.svc.Upsert(ctx, vectordb.UpsertRequest{
		Collection: ix.collection,
		ID:         id,
		Vectors:    vectors,
		Payload:    payload,
	})
	if err != nil {
		if key, ok := payload[ImageKeyPayloadKey].(string); ok {
			if derr := ix.blobs.Delete(ctx, key); derr != nil {
				ix.logger.Warn("[Retrieval] Failed to remove orphaned image", derr, map[string]interface{}{"key": key})
			}
		}
		return "", err
	}

	ix.logger.Debug("[Retrieval] Added image", nil, map[string]interface{}{
		"collection": ix.collection,
		"id":         id,
		"format":     format,
		"bytes":      len(data),
	})
	return id, nil
}

// SearchImages embeds a text query and ranks stored images by ImageSlot.
func (ix *ImageIndex) SearchImages(ctx context.Context, query string, k int) ([]Result, error) {
	return ix.search(ctx, ImageSlot, query, k)
}

// SearchCaptions ranks images by the similarity of their captions to query.
// Images without a caption are not candidates.
func (ix *ImageIndex) SearchCaptions(ctx context.Context, query string, k int) ([]Result, error) {
	return ix.search(ctx, CaptionSlot, query, k)
}

func (ix *ImageIndex) search(ctx context.Context, slot, query string, k int) ([]Result, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("retrieval: %w", embedding.ErrEmptyContent)
	}
	v, err := ix.embedder.Embed(ctx, embedding.Text(query))
	if err != nil {
		return nil, fmt.Errorf("retrieval: embed query: %w", err)
	}
	matches, err := ix.svc.Search(ctx, vectordb.SearchRequest{
		Collection: ix.collection,
		Slot:       slot,
		Vector:     v,
		Limit:      ClampLimit(k),
	})
	if err != nil {
		return nil, err
	}
	return toResults(matches), nil
}

// Count returns the number of stored images.
func (ix *ImageIndex) Count(ctx context.Context) (uint64, error) {
	return ix.svc.Count(ctx, ix.collection)
}

// Clear removes every image.
func (ix *ImageIndex) Clear(ctx context.Context) error {
	if err := ix.svc.Clear(ctx, ix.collection, ImageSchema()); err != nil {
		return err
	}
	if ix.blobs != nil {
		if err := ix.blobs.DeletePrefix(ctx, blobPrefix(ix.collection)); err != nil {
			return fmt.Errorf("retrieval: clear images: %w", err)
		}
	}
	return nil
}

// ImageBytes returns the original file of a result, reading it from the
// BlobStore when the payload only carries its key.
func (ix *ImageIndex) ImageBytes(ctx context.Context, r Result) ([]byte, error) {
	key, ok := r.Payload[ImageKeyPayloadKey].(string)
	if !ok {
		return DecodeImage(r)
	}
	if ix.blobs == nil {
		return nil, fmt.Errorf("retrieval: result %s references %s but no blob store is configured", r.ID, key)
	}
	data, err := ix.blobs.Get(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("retrieval: result %s: %w", r.ID, err)
	}
	return data, nil
}

// DecodeImage returns the original file bytes stored inline with a result.
func DecodeImage(r Result) ([]byte, error) {
	s, ok := r.Payload[ImagePayloadKey].(string)
	if !ok {
		return nil, fmt.Errorf("retrieval: result %s has no %s", r.ID, ImagePayloadKey)
	}
	data, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("retrieval: result %s: %w", r.ID, err)
	}
	return data, nil
}

// CaptionOf returns the caption stored with a result, or "".
func CaptionOf(r Result) string {
	s, _ := r.Payload[CaptionPayloadKey].(string)
	return s
}

// DecodeImageBytes decodes a JPEG or PNG file and converts it to RGBA.
func DecodeImageBytes(data []byte) (*image.RGBA, string, error) {
	if len(data) == 0 {
		return nil, "", fmt.Errorf("retrieval: %w", embedding.ErrEmptyContent)
	}
	src, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, "", fmt.Errorf("retrieval: %w: decode image: %w", vectordb.ErrInvalidRequest, err)
	}
	if rgba, ok := src.(*image.RGBA); ok {
		return rgba, format, nil
	}
	b := src.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), src, b.Min, draw.Src)
	return dst, format, nil
}
