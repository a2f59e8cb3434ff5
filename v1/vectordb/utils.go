package vectordb

import (
	"fmt"
	"maps"
	"regexp"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// ReservedPayloadPrefix marks payload keys owned by the store adapters.
// Callers may not write keys with this prefix.
const ReservedPayloadPrefix = "_vecsearch"

var collectionNamePattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_-]{0,62}$`)

// NewID returns a random 128-bit identifier in canonical UUID form.
func NewID() string {
	return uuid.NewString()
}

// CanonicalID validates a caller-supplied identifier and returns its canonical
// form. Accepted forms are unsigned integers and UUIDs; UUIDs are lower-cased
// and hyphenated.
func CanonicalID(id string) (string, error) {
	if id == "" {
		return "", fmt.Errorf("%w: point id is empty", ErrInvalidRequest)
	}
	if n, err := strconv.ParseUint(id, 10, 64); err == nil {
		return strconv.FormatUint(n, 10), nil
	}
	if u, err := uuid.Parse(id); err == nil {
		return u.String(), nil
	}
	return "", fmt.Errorf("%w: point id %q must be an unsigned integer or a UUID", ErrInvalidRequest, id)
}

// ValidateCollectionName checks a collection name. Names are restricted to
// characters every backend accepts as an identifier.
func ValidateCollectionName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: collection name cannot be empty", ErrInvalidRequest)
	}
	if !collectionNamePattern.MatchString(name) {
		return fmt.Errorf("%w: collection name %q may only contain letters, digits, '_' and '-'", ErrInvalidRequest, name)
	}
	return nil
}

// ZeroVector returns the placeholder stored for an unsupplied slot.
func ZeroVector(size uint64) []float32 {
	return make([]float32, size)
}

// ClonePayload returns a shallow copy so stored payloads cannot be mutated
// through the caller's map.
func ClonePayload(payload map[string]any) map[string]any {
	if payload == nil {
		return map[string]any{}
	}
	return maps.Clone(payload)
}

// CloneVector returns a copy of v.
func CloneVector(v []float32) []float32 {
	out := make([]float32, len(v))
	copy(out, v)
	return out
}

func validatePayload(payload map[string]any) error {
	for k := range payload {
		if strings.HasPrefix(k, ReservedPayloadPrefix) {
			return fmt.Errorf("%w: payload key %q uses the reserved prefix %q", ErrInvalidRequest, k, ReservedPayloadPrefix)
		}
	}
	return nil
}
