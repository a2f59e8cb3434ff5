package vectordb

import (
	"errors"
	"fmt"
)

// Error kinds returned by the Service and by Store implementations.
var (
	// ErrStoreUnavailable is returned when the vector engine cannot be reached.
	ErrStoreUnavailable = errors.New("vectordb: store unavailable")

	// ErrSchemaMismatch is returned when an existing collection disagrees with the expected schema.
	ErrSchemaMismatch = errors.New("vectordb: schema mismatch")

	// ErrDimensionMismatch is returned when a vector length differs from its slot size.
	ErrDimensionMismatch = errors.New("vectordb: dimension mismatch")

	// ErrNotFound is returned when a collection does not exist.
	ErrNotFound = errors.New("vectordb: not found")

	// ErrAlreadyExists is returned by Store.CreateCollection when the name is taken.
	ErrAlreadyExists = errors.New("vectordb: already exists")

	// ErrInvalidRequest is returned for malformed input such as an empty
	// collection name, a non-positive limit or an unknown slot.
	ErrInvalidRequest = errors.New("vectordb: invalid request")
)

// DimensionMismatchError carries the context of a rejected vector.
type DimensionMismatchError struct {
	Collection string
	Slot       string
	Expected   uint64
	Actual     int
}

func (e *DimensionMismatchError) Error() string {
	slot := e.Slot
	if slot == DefaultSlot {
		slot = "<default>"
	}
	return fmt.Sprintf("vectordb: dimension mismatch in collection %q slot %s: expected %d, got %d",
		e.Collection, slot, e.Expected, e.Actual)
}

// Is makes errors.Is(err, ErrDimensionMismatch) succeed.
func (e *DimensionMismatchError) Is(target error) bool {
	return target == ErrDimensionMismatch
}

// SchemaMismatchError carries both the expected and the stored schema.
type SchemaMismatchError struct {
	Collection string
	Expected   Schema
	Actual     Schema
}

func (e *SchemaMismatchError) Error() string {
	return fmt.Sprintf("vectordb: schema mismatch for collection %q: expected %s, found %s",
		e.Collection, e.Expected, e.Actual)
}

// Is makes errors.Is(err, ErrSchemaMismatch) succeed.
func (e *SchemaMismatchError) Is(target error) bool {
	return target == ErrSchemaMismatch
}

// IsStoreUnavailable checks if the error is a connectivity failure.
func IsStoreUnavailable(err error) bool {
	return errors.Is(err, ErrStoreUnavailable)
}

// IsSchemaMismatch checks if the error is a schema conflict.
func IsSchemaMismatch(err error) bool {
	return errors.Is(err, ErrSchemaMismatch)
}

// IsDimensionMismatch checks if the error is a vector length violation.
func IsDimensionMismatch(err error) bool {
	return errors.Is(err, ErrDimensionMismatch)
}

// IsNotFound checks if the error reports a missing collection.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// ErrorKind returns a short stable label for err, suitable for metric labels.
func ErrorKind(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrStoreUnavailable):
		return "store_unavailable"
	case errors.Is(err, ErrSchemaMismatch):
		return "schema_mismatch"
	case errors.Is(err, ErrDimensionMismatch):
		return "dimension_mismatch"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrAlreadyExists):
		return "already_exists"
	case errors.Is(err, ErrInvalidRequest):
		return "invalid_request"
	}
	return "error"
}
