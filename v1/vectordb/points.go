package vectordb

import (
	"context"
	"fmt"
)

// ── Point Store ──────────────────────────────────────────────────────────────

// Upsert writes one point and returns the identifier used.
//
// An empty req.ID gets a generated UUID. Slots of a multi-slot collection that
// are not supplied are stored as zero placeholders. Every supplied vector is
// checked against its slot size before anything is written.
//
// A missing collection is created when its schema was declared with
// WithCollection; otherwise the call fails with ErrNotFound.
func (s *Service) Upsert(ctx context.Context, req UpsertRequest) (id string, err error) {
	ctx, done := s.observe(ctx, "upsert", req.Collection)
	defer func() { done(err) }()

	if err := ValidateCollectionName(req.Collection); err != nil {
		return "", err
	}
	if err := validatePayload(req.Payload); err != nil {
		return "", err
	}

	if req.ID == "" {
		id = NewID()
	} else if id, err = CanonicalID(req.ID); err != nil {
		return "", err
	}

	schema, err := s.schemaOf(ctx, req.Collection, true)
	if err != nil {
		return "", err
	}
	point, err := buildPoint(req, id, schema)
	if err != nil {
		return "", err
	}

	if err := s.store.UpsertPoints(ctx, req.Collection, point); err != nil {
		return "", fmt.Errorf("upsert point %s into %q: %w", id, req.Collection, err)
	}
	return id, nil
}

// Delete removes points by identifier. Unknown identifiers are ignored.
func (s *Service) Delete(ctx context.Context, collection string, ids ...string) (err error) {
	ctx, done := s.observe(ctx, "delete", collection)
	defer func() { done(err) }()

	if err := ValidateCollectionName(collection); err != nil {
		return err
	}
	if len(ids) == 0 {
		return nil
	}
	canonical := make([]string, 0, len(ids))
	for _, raw := range ids {
		id, err := CanonicalID(raw)
		if err != nil {
			return err
		}
		canonical = append(canonical, id)
	}
	if err := s.store.DeletePoints(ctx, collection, canonical...); err != nil {
		return fmt.Errorf("delete points from %q: %w", collection, err)
	}
	return nil
}

func buildPoint(req UpsertRequest, id string, schema Schema) (Point, error) {
	supplied := make(map[string][]float32, len(req.Vectors)+1)
	for slot, v := range req.Vectors {
		supplied[slot] = v
	}
	if req.Vector != nil {
		if len(schema) != 1 {
			return Point{}, fmt.Errorf("%w: collection %q declares %v, name the slot for each vector",
				ErrInvalidRequest, req.Collection, schema.Slots())
		}
		slot := schema.Slots()[0]
		if _, dup := supplied[slot]; dup {
			return Point{}, fmt.Errorf("%w: vector for slot %q given twice", ErrInvalidRequest, slot)
		}
		supplied[slot] = req.Vector
	}
	if !schema.Named() {
		// Unnamed schemas accept one vector under any key.
		if len(supplied) > 1 {
			return Point{}, fmt.Errorf("%w: collection %q has a single slot", ErrInvalidRequest, req.Collection)
		}
		for _, v := range supplied {
			supplied = map[string][]float32{DefaultSlot: v}
		}
	}
	if len(supplied) == 0 {
		return Point{}, fmt.Errorf("%w: point needs at least one vector", ErrInvalidRequest)
	}

	point := Point{
		ID:      id,
		Vectors: make(map[string][]float32, len(schema)),
		Payload: ClonePayload(req.Payload),
	}
	for slot, v := range supplied {
		params, ok := schema[slot]
		if !ok {
			return Point{}, fmt.Errorf("%w: unknown slot %q, collection %q declares %v",
				ErrInvalidRequest, slot, req.Collection, schema.Slots())
		}
		if uint64(len(v)) != params.Size {
			return Point{}, &DimensionMismatchError{
				Collection: req.Collection, Slot: slot, Expected: params.Size, Actual: len(v),
			}
		}
	}
	for _, slot := range schema.Slots() {
		if v, ok := supplied[slot]; ok {
			point.Vectors[slot] = CloneVector(v)
			point.Populated = append(point.Populated, slot)
			continue
		}
		point.Vectors[slot] = ZeroVector(schema[slot].Size)
	}
	return point, nil
}
