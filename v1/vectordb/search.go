package vectordb

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// maxConcurrentSearches bounds SearchBatch fan-out.
const maxConcurrentSearches = 10

// ── Similarity Query ─────────────────────────────────────────────────────────

// Search returns at most req.Limit points ranked by similarity to req.Vector,
// highest score first. Scores are normalized so higher is better for every
// metric: cosine similarity, raw dot product, or 1/(1+d) for euclidean.
//
// A collection that does not exist yet, or holds no populated vectors in the
// slot, yields an empty result. Points whose slot only holds the zero
// placeholder are skipped unless req.IncludePlaceholders is set.
func (s *Service) Search(ctx context.Context, req SearchRequest) (matches []Match, err error) {
	ctx, done := s.observe(ctx, "search", req.Collection)
	defer func() { done(err) }()

	if err := ValidateCollectionName(req.Collection); err != nil {
		return nil, err
	}
	if req.Limit <= 0 {
		return nil, fmt.Errorf("%w: limit must be positive, got %d", ErrInvalidRequest, req.Limit)
	}
	if err := req.Filter.Validate(); err != nil {
		return nil, err
	}

	schema, err := s.schemaOf(ctx, req.Collection, false)
	if errors.Is(err, ErrNotFound) {
		return []Match{}, nil
	}
	if err != nil {
		return nil, err
	}
	slot, params, err := schema.Resolve(req.Slot)
	if err != nil {
		return nil, err
	}
	if uint64(len(req.Vector)) != params.Size {
		return nil, &DimensionMismatchError{
			Collection: req.Collection, Slot: slot, Expected: params.Size, Actual: len(req.Vector),
		}
	}

	matches, err = s.store.Search(ctx, req.Collection, Query{
		Slot:                slot,
		Distance:            params.Distance,
		Vector:              req.Vector,
		Limit:               req.Limit,
		Filter:              req.Filter,
		IncludePlaceholders: req.IncludePlaceholders,
	})
	if errors.Is(err, ErrNotFound) {
		// Dropped behind our back.
		s.forget(req.Collection)
		return []Match{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("search %q: %w", req.Collection, err)
	}
	if matches == nil {
		matches = []Match{}
	}
	return matches, nil
}

// SearchBatch runs the requests concurrently. Results are aligned with reqs;
// the first failure cancels the remaining searches and is returned.
func (s *Service) SearchBatch(ctx context.Context, reqs ...SearchRequest) ([][]Match, error) {
	results := make([][]Match, len(reqs))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentSearches)
	for i, req := range reqs {
		g.Go(func() error {
			matches, err := s.Search(ctx, req)
			if err != nil {
				return fmt.Errorf("search %d: %w", i, err)
			}
			results[i] = matches
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
