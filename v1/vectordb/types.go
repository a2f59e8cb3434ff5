package vectordb

import (
	"fmt"
	"sort"
	"strings"
)

// Distance is the similarity metric a vector slot is indexed with.
type Distance string

const (
	// DistanceCosine scores by cosine similarity in [-1, 1]; 1 means identical direction.
	DistanceCosine Distance = "cosine"
	// DistanceEuclidean scores by 1/(1+d) where d is the L2 distance; 1 means identical.
	DistanceEuclidean Distance = "euclidean"
	// DistanceDot scores by the raw inner product.
	DistanceDot Distance = "dot"
)

// DefaultSlot is the name of the single unnamed slot of a single-vector collection.
const DefaultSlot = ""

// ParseDistance accepts the metric names used by this package and by the
// common vector engines ("Cosine", "Euclid", "Dot", "dot-product", ...).
func ParseDistance(s string) (Distance, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "cosine", "cos":
		return DistanceCosine, nil
	case "euclidean", "euclid", "l2":
		return DistanceEuclidean, nil
	case "dot", "dot-product", "dot_product", "inner_product", "ip":
		return DistanceDot, nil
	}
	return "", fmt.Errorf("%w: unknown distance metric %q", ErrInvalidRequest, s)
}

// Valid reports whether d is one of the supported metrics.
func (d Distance) Valid() bool {
	switch d {
	case DistanceCosine, DistanceEuclidean, DistanceDot:
		return true
	}
	return false
}

// VectorParams describes one vector slot. Both fields are fixed at creation.
type VectorParams struct {
	// Size is the dimensionality every vector in the slot must have.
	Size uint64 `json:"size" yaml:"size"`

	// Distance is the metric used to rank the slot.
	Distance Distance `json:"distance" yaml:"distance"`
}

// Schema maps slot names to their parameters.
//
// A single-vector collection uses exactly one entry keyed by DefaultSlot.
// Multi-vector collections use named slots only.
type Schema map[string]VectorParams

// SingleVector returns the schema of a collection with one unnamed slot.
func SingleVector(size uint64, distance Distance) Schema {
	return Schema{DefaultSlot: {Size: size, Distance: distance}}
}

// Validate checks that the schema can be used to create a collection.
func (s Schema) Validate() error {
	if len(s) == 0 {
		return fmt.Errorf("%w: schema must declare at least one slot", ErrInvalidRequest)
	}
	if _, unnamed := s[DefaultSlot]; unnamed && len(s) > 1 {
		return fmt.Errorf("%w: unnamed slot cannot be combined with named slots", ErrInvalidRequest)
	}
	for name, p := range s {
		if p.Size == 0 {
			return fmt.Errorf("%w: slot %q must have a positive size", ErrInvalidRequest, name)
		}
		if !p.Distance.Valid() {
			return fmt.Errorf("%w: slot %q has unsupported distance %q", ErrInvalidRequest, name, p.Distance)
		}
	}
	return nil
}

// Named reports whether the schema uses named slots.
func (s Schema) Named() bool {
	_, unnamed := s[DefaultSlot]
	return !unnamed
}

// Slots returns the slot names in sorted order.
func (s Schema) Slots() []string {
	names := make([]string, 0, len(s))
	for name := range s {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Equal reports whether both schemas declare the same slots with the same parameters.
func (s Schema) Equal(other Schema) bool {
	if len(s) != len(other) {
		return false
	}
	for name, p := range s {
		o, ok := other[name]
		if !ok || o != p {
			return false
		}
	}
	return true
}

// Resolve returns the slot a request addresses. An empty name selects the
// only slot of a single-slot schema; any name is ignored for an unnamed schema.
func (s Schema) Resolve(slot string) (string, VectorParams, error) {
	if !s.Named() {
		return DefaultSlot, s[DefaultSlot], nil
	}
	if slot == "" {
		if len(s) == 1 {
			for name, p := range s {
				return name, p, nil
			}
		}
		return "", VectorParams{}, fmt.Errorf("%w: slot name is required, collection declares %v", ErrInvalidRequest, s.Slots())
	}
	p, ok := s[slot]
	if !ok {
		return "", VectorParams{}, fmt.Errorf("%w: unknown slot %q, collection declares %v", ErrInvalidRequest, slot, s.Slots())
	}
	return slot, p, nil
}

// String renders the schema for log and error messages.
func (s Schema) String() string {
	parts := make([]string, 0, len(s))
	for _, name := range s.Slots() {
		label := name
		if label == DefaultSlot {
			label = "<default>"
		}
		p := s[name]
		parts = append(parts, fmt.Sprintf("%s:%d/%s", label, p.Size, p.Distance))
	}
	return "{" + strings.Join(parts, " ") + "}"
}

// Point is a stored vector record as handed to a Store.
type Point struct {
	// ID is a canonical unsigned integer or UUID string.
	ID string

	// Vectors holds one vector per schema slot, placeholders included.
	Vectors map[string][]float32

	// Populated lists the slots the caller actually supplied. Nil means
	// every slot present in Vectors.
	Populated []string

	// Payload is arbitrary metadata stored with the point.
	Payload map[string]any
}

// Query is a similarity request handed to a Store, already validated
// against the collection schema.
type Query struct {
	// Slot is the resolved slot name (DefaultSlot for unnamed schemas).
	Slot string

	// Distance is the metric of Slot, used to normalize scores.
	Distance Distance

	// Vector is the query embedding.
	Vector []float32

	// Limit is the maximum number of matches.
	Limit int

	// Filter optionally restricts the candidate points by payload.
	Filter *FilterSet

	// IncludePlaceholders makes points whose Slot holds only a placeholder eligible.
	IncludePlaceholders bool
}

// Match is one ranked search result.
type Match struct {
	// ID is the identifier of the matched point.
	ID string `json:"id"`

	// Score is the normalized similarity; higher is always better.
	Score float32 `json:"score"`

	// Payload is the metadata stored with the point.
	Payload map[string]any `json:"payload"`
}

// UpsertRequest writes one point.
type UpsertRequest struct {
	// Collection is the target collection.
	Collection string

	// ID is optional; a UUID is generated when empty.
	ID string

	// Vector is a shorthand for collections with a single slot.
	Vector []float32

	// Vectors maps slot names to vectors. Missing slots get a zero placeholder.
	Vectors map[string][]float32

	// Payload is stored verbatim with the point.
	Payload map[string]any
}

// SearchRequest ranks stored points against a query vector.
type SearchRequest struct {
	// Collection is the collection to search.
	Collection string `json:"collectionName"`

	// Slot names the vector slot; required for multi-slot collections.
	Slot string `json:"slot,omitempty"`

	// Vector is the query embedding.
	Vector []float32 `json:"vector"`

	// Limit is the maximum number of results, must be positive.
	Limit int `json:"maxResults"`

	// Filter optionally restricts results by payload.
	Filter *FilterSet `json:"-"`

	// IncludePlaceholders ranks points whose slot is only a placeholder too.
	IncludePlaceholders bool `json:"includePlaceholders,omitempty"`
}

// CollectionInfo describes an existing collection.
type CollectionInfo struct {
	Name   string `json:"name"`
	Schema Schema `json:"schema"`
	Points uint64 `json:"pointCount"`
}
