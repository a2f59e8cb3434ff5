package vectordb

import (
	"context"
	"errors"
	"fmt"
)

// ── Collection Manager ───────────────────────────────────────────────────────

// Ensure creates the collection with the given schema unless it exists.
// An existing collection whose schema differs is reported as a
// *SchemaMismatchError and left untouched.
func (s *Service) Ensure(ctx context.Context, name string, schema Schema) (err error) {
	ctx, done := s.observe(ctx, "ensure", name)
	defer func() { done(err) }()

	if err := ValidateCollectionName(name); err != nil {
		return err
	}
	if err := schema.Validate(); err != nil {
		return err
	}
	return s.ensure(ctx, name, schema)
}

func (s *Service) ensure(ctx context.Context, name string, schema Schema) error {
	info, err := s.store.DescribeCollection(ctx, name)
	switch {
	case err == nil:
		if err := compareSchema(name, schema, info.Schema); err != nil {
			return err
		}
		s.remember(name, info.Schema)
		return nil
	case !errors.Is(err, ErrNotFound):
		return fmt.Errorf("describe collection %q: %w", name, err)
	}

	if err := s.store.CreateCollection(ctx, name, schema); err != nil {
		if !errors.Is(err, ErrAlreadyExists) {
			return fmt.Errorf("create collection %q: %w", name, err)
		}
		// Lost a creation race; the winner's schema decides.
		info, err := s.store.DescribeCollection(ctx, name)
		if err != nil {
			return fmt.Errorf("describe collection %q: %w", name, err)
		}
		if err := compareSchema(name, schema, info.Schema); err != nil {
			return err
		}
	} else {
		s.logger.Info("[VectorDB] Created collection", nil, map[string]interface{}{
			"collection": name,
			"schema":     schema.String(),
		})
	}
	s.remember(name, schema)
	return nil
}

// Clear drops the collection if present and recreates it empty with schema.
func (s *Service) Clear(ctx context.Context, name string, schema Schema) (err error) {
	ctx, done := s.observe(ctx, "clear", name)
	defer func() { done(err) }()

	if err := ValidateCollectionName(name); err != nil {
		return err
	}
	if err := schema.Validate(); err != nil {
		return err
	}

	s.forget(name)
	if err := s.store.DeleteCollection(ctx, name); err != nil {
		return fmt.Errorf("delete collection %q: %w", name, err)
	}
	if err := s.store.CreateCollection(ctx, name, schema); err != nil {
		return fmt.Errorf("recreate collection %q: %w", name, err)
	}
	s.remember(name, schema)
	s.recorder.SetPointCount(name, 0)
	s.logger.Info("[VectorDB] Cleared collection", nil, map[string]interface{}{
		"collection": name,
	})
	return nil
}

// Reset is identical to Clear.
func (s *Service) Reset(ctx context.Context, name string, schema Schema) error {
	return s.Clear(ctx, name, schema)
}

// Count returns the exact number of points in the collection. A missing
// collection holds zero points.
func (s *Service) Count(ctx context.Context, name string) (n uint64, err error) {
	ctx, done := s.observe(ctx, "count", name)
	defer func() { done(err) }()

	if err := ValidateCollectionName(name); err != nil {
		return 0, err
	}
	n, err = s.store.Count(ctx, name)
	if errors.Is(err, ErrNotFound) {
		s.forget(name)
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("count collection %q: %w", name, err)
	}
	s.recorder.SetPointCount(name, n)
	return n, nil
}

// Describe returns the schema and point count of an existing collection.
func (s *Service) Describe(ctx context.Context, name string) (info *CollectionInfo, err error) {
	ctx, done := s.observe(ctx, "describe", name)
	defer func() { done(err) }()

	if err := ValidateCollectionName(name); err != nil {
		return nil, err
	}
	info, err = s.store.DescribeCollection(ctx, name)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			s.forget(name)
		}
		return nil, fmt.Errorf("describe collection %q: %w", name, err)
	}
	s.remember(name, info.Schema)
	s.recorder.SetPointCount(name, info.Points)
	return info, nil
}

// Drop deletes the collection and all of its points.
func (s *Service) Drop(ctx context.Context, name string) (err error) {
	ctx, done := s.observe(ctx, "drop", name)
	defer func() { done(err) }()

	if err := ValidateCollectionName(name); err != nil {
		return err
	}
	s.forget(name)
	if err := s.store.DeleteCollection(ctx, name); err != nil {
		return fmt.Errorf("delete collection %q: %w", name, err)
	}
	return nil
}

// schemaOf returns the schema a write or read should validate against.
// When create is set and the collection is missing, the declared schema is
// used to create it.
func (s *Service) schemaOf(ctx context.Context, name string, create bool) (Schema, error) {
	if schema, ok := s.cached(name); ok {
		return schema, nil
	}
	info, err := s.store.DescribeCollection(ctx, name)
	if err == nil {
		s.remember(name, info.Schema)
		return info.Schema, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("describe collection %q: %w", name, err)
	}
	declared, ok := s.declaredSchema(name)
	if !create || !ok {
		return nil, fmt.Errorf("collection %q: %w", name, ErrNotFound)
	}
	if err := s.ensure(ctx, name, declared); err != nil {
		return nil, err
	}
	return declared, nil
}

func compareSchema(name string, expected, actual Schema) error {
	if expected.Equal(actual) {
		return nil
	}
	return &SchemaMismatchError{Collection: name, Expected: expected, Actual: actual}
}
