package embedding

import (
	"context"
	"fmt"
	"image"
	"strconv"
	"strings"
	"unicode"

	"github.com/cespare/xxhash/v2"
	"github.com/viant/vec/search"
)

// imageGrid is the number of cells per side an image is averaged into.
const imageGrid = 8

// HashEmbedder is a deterministic, model-free embedder based on feature
// hashing. Text is encoded from lower-cased word unigrams and bigrams, images
// from the mean colour of an imageGrid x imageGrid cell layout. Output vectors
// are L2-normalized.
//
// It needs no network and no model download, which makes it suitable for
// tests and offline demos. Similarity reflects shared words or similar colour
// layouts, not meaning.
type HashEmbedder struct {
	dimension int
}

var _ Embedder = (*HashEmbedder)(nil)

// NewHashEmbedder returns an embedder producing vectors of the given length.
func NewHashEmbedder(dimension int) (*HashEmbedder, error) {
	if dimension <= 0 {
		return nil, fmt.Errorf("embedding: dimension must be positive, got %d", dimension)
	}
	return &HashEmbedder{dimension: dimension}, nil
}

func (h *HashEmbedder) Dimension(m Modality) int {
	switch m {
	case ModalityText, ModalityImage:
		return h.dimension
	}
	return 0
}

func (h *HashEmbedder) Embed(ctx context.Context, content Content) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	v := make([]float32, h.dimension)
	switch content.Modality {
	case ModalityText:
		tokens := tokenize(content.Text)
		if len(tokens) == 0 {
			return nil, ErrEmptyContent
		}
		for i, tok := range tokens {
			h.add(v, "w:"+tok, 1)
			if i > 0 {
				h.add(v, "b:"+tokens[i-1]+" "+tok, 0.5)
			}
		}
	case ModalityImage:
		if content.Image == nil || content.Image.Bounds().Empty() {
			return nil, ErrEmptyContent
		}
		for i, c := range gridColours(content.Image) {
			h.add(v, "c:"+strconv.Itoa(i), c)
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedModality, content.Modality)
	}

	normalize(v)
	return v, nil
}

// add folds a weighted feature into v. The top hash bit picks the sign so
// collisions tend to cancel rather than accumulate.
func (h *HashEmbedder) add(v []float32, feature string, weight float32) {
	sum := xxhash.Sum64String(feature)
	idx := sum % uint64(h.dimension)
	if sum>>63 == 1 {
		weight = -weight
	}
	v[idx] += weight
}

func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// gridColours returns the mean R, G and B of every grid cell in [0,1].
func gridColours(img image.Image) []float32 {
	b := img.Bounds()
	out := make([]float32, 0, imageGrid*imageGrid*3)
	for gy := 0; gy < imageGrid; gy++ {
		y0 := b.Min.Y + gy*b.Dy()/imageGrid
		y1 := max(b.Min.Y+(gy+1)*b.Dy()/imageGrid, y0+1)
		for gx := 0; gx < imageGrid; gx++ {
			x0 := b.Min.X + gx*b.Dx()/imageGrid
			x1 := max(b.Min.X+(gx+1)*b.Dx()/imageGrid, x0+1)

			var r, g, bl, n float64
			for y := y0; y < y1 && y < b.Max.Y; y++ {
				for x := x0; x < x1 && x < b.Max.X; x++ {
					cr, cg, cb, _ := img.At(x, y).RGBA()
					r += float64(cr)
					g += float64(cg)
					bl += float64(cb)
					n++
				}
			}
			if n == 0 {
				out = append(out, 0, 0, 0)
				continue
			}
			const full = 0xffff
			out = append(out, float32(r/n/full), float32(g/n/full), float32(bl/n/full))
		}
	}
	return out
}

func normalize(v []float32) {
	m := search.Float32s(v).Magnitude()
	if m == 0 {
		return
	}
	for i := range v {
		v[i] /= m
	}
}
