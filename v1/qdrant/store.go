package qdrant

import (
	"context"
	"errors"
	"fmt"

	qdrant "github.com/qdrant/go-client/qdrant"

	"github.com/Aleph-Alpha/vecsearch/v1/vectordb"
)

// defaultBatchSize is the chunk size for multi-point upserts.
const defaultBatchSize = 200

// Store implements vectordb.Store on a Qdrant instance.
//
// Upserts, deletes and counts wait for Qdrant to apply them, so a successful
// return is visible to the next search. Qdrant orders equal scores by its own
// internal rules; insertion order is not guaranteed for ties.
type Store struct {
	client *Client
}

var _ vectordb.Store = (*Store)(nil)

// NewStore builds a Store on an already connected client.
func NewStore(client *Client) *Store {
	return &Store{client: client}
}

// CollectionExists ──────────────────────────────────────────────────────────────
// CollectionExists
// ──────────────────────────────────────────────────────────────
func (s *Store) CollectionExists(ctx context.Context, name string) (bool, error) {
	ctx, cancel := s.client.withTimeout(ctx)
	defer cancel()

	ok, err := s.client.api.CollectionExists(ctx, name)
	if err != nil {
		return false, fmt.Errorf("[Qdrant] failed to check collection '%s': %w", name, translateError(err))
	}
	return ok, nil
}

// CreateCollection ──────────────────────────────────────────────────────────────
// CreateCollection
// ──────────────────────────────────────────────────────────────
//
// CreateCollection creates a collection with one vectors config per slot.
// Qdrant reports an existing name as an invalid argument, so existence is
// checked on both sides of the call to return vectordb.ErrAlreadyExists.
func (s *Store) CreateCollection(ctx context.Context, name string, schema vectordb.Schema) error {
	cfg, err := toVectorsConfig(schema)
	if err != nil {
		return err
	}

	exists, err := s.CollectionExists(ctx, name)
	if err != nil {
		return err
	}
	if exists {
		return fmt.Errorf("[Qdrant] collection '%s': %w", name, vectordb.ErrAlreadyExists)
	}

	cctx, cancel := s.client.withTimeout(ctx)
	defer cancel()
	err = s.client.api.CreateCollection(cctx, &qdrant.CreateCollection{
		CollectionName: name,
		VectorsConfig:  cfg,
	})
	if err != nil {
		if exists, _ := s.CollectionExists(ctx, name); exists {
			return fmt.Errorf("[Qdrant] collection '%s': %w", name, vectordb.ErrAlreadyExists)
		}
		return fmt.Errorf("[Qdrant] failed to create collection '%s': %w", name, translateError(err))
	}

	s.client.logger.Info("[Qdrant] Created collection", nil, map[string]interface{}{
		"collection": name,
		"schema":     schema.String(),
	})
	return nil
}

// DeleteCollection ──────────────────────────────────────────────────────────────
// DeleteCollection
// ──────────────────────────────────────────────────────────────
func (s *Store) DeleteCollection(ctx context.Context, name string) error {
	ctx, cancel := s.client.withTimeout(ctx)
	defer cancel()

	err := translateError(s.client.api.DeleteCollection(ctx, name))
	if err != nil && !errors.Is(err, vectordb.ErrNotFound) {
		return fmt.Errorf("[Qdrant] failed to delete collection '%s': %w", name, err)
	}
	return nil
}

// DescribeCollection ──────────────────────────────────────────────────────────────
// DescribeCollection
// ──────────────────────────────────────────────────────────────
//
// DescribeCollection reads the vectors config back into a vectordb.Schema.
// The point count comes from an exact count, since CollectionInfo only
// carries an estimate.
func (s *Store) DescribeCollection(ctx context.Context, name string) (*vectordb.CollectionInfo, error) {
	cctx, cancel := s.client.withTimeout(ctx)
	defer cancel()

	info, err := s.client.api.GetCollectionInfo(cctx, name)
	if err != nil {
		return nil, fmt.Errorf("[Qdrant] failed to get collection '%s': %w", name, translateError(err))
	}
	schema, err := schemaFromInfo(info)
	if err != nil {
		return nil, fmt.Errorf("[Qdrant] collection '%s': %w", name, err)
	}
	count, err := s.Count(ctx, name)
	if err != nil {
		return nil, err
	}
	return &vectordb.CollectionInfo{Name: name, Schema: schema, Points: count}, nil
}

// UpsertPoints ──────────────────────────────────────────────────────────────
// UpsertPoints
// ──────────────────────────────────────────────────────────────
//
// UpsertPoints splits large inputs into chunks of defaultBatchSize and
// triggers a blocking upsert (Wait=true) for each.
func (s *Store) UpsertPoints(ctx context.Context, collection string, points ...vectordb.Point) error {
	if len(points) == 0 {
		return nil
	}

	structs := make([]*qdrant.PointStruct, len(points))
	for i, p := range points {
		ps, err := toPointStruct(p)
		if err != nil {
			return err
		}
		structs[i] = ps
	}

	for start := 0; start < len(structs); start += defaultBatchSize {
		end := min(start+defaultBatchSize, len(structs))
		if err := s.upsertBatch(ctx, collection, structs[start:end]); err != nil {
			return fmt.Errorf("[Qdrant] batch upsert failed at [%d:%d]: %w", start, end, err)
		}
		s.client.logger.Debug("[Qdrant] Upserted batch", nil, map[string]interface{}{
			"collection": collection,
			"start":      start,
			"end":        end,
		})
	}
	return nil
}

func (s *Store) upsertBatch(ctx context.Context, collection string, batch []*qdrant.PointStruct) error {
	ctx, cancel := s.client.withTimeout(ctx)
	defer cancel()

	wait := true
	_, err := s.client.api.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: collection,
		Points:         batch,
		Wait:           &wait,
	})
	return translateError(err)
}

// DeletePoints ──────────────────────────────────────────────────────────────
// DeletePoints
// ──────────────────────────────────────────────────────────────
func (s *Store) DeletePoints(ctx context.Context, collection string, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	ctx, cancel := s.client.withTimeout(ctx)
	defer cancel()

	pointIDs := make([]*qdrant.PointId, 0, len(ids))
	for _, id := range ids {
		pointIDs = append(pointIDs, toPointID(id))
	}

	wait := true
	_, err := s.client.api.Delete(ctx, &qdrant.DeletePoints{
		CollectionName: collection,
		Points: &qdrant.PointsSelector{
			PointsSelectorOneOf: &qdrant.PointsSelector_Points{
				Points: &qdrant.PointsIdsList{Ids: pointIDs},
			},
		},
		Wait: &wait,
	})
	if err != nil {
		return fmt.Errorf("[Qdrant] delete failed: %w", translateError(err))
	}
	return nil
}

// Search ──────────────────────────────────────────────────────────────
// Search
// ──────────────────────────────────────────────────────────────
//
// Search runs a nearest-neighbour query. Named slots are addressed with
// Using; placeholder exclusion is a payload filter on the populated slots.
func (s *Store) Search(ctx context.Context, collection string, q vectordb.Query) ([]vectordb.Match, error) {
	filter, err := buildFilter(q.Filter, q.Slot, q.IncludePlaceholders)
	if err != nil {
		return nil, err
	}

	ctx, cancel := s.client.withTimeout(ctx)
	defer cancel()

	limit := uint64(q.Limit)
	req := &qdrant.QueryPoints{
		CollectionName: collection,
		Query:          qdrant.NewQuery(q.Vector...),
		Limit:          &limit,
		Filter:         filter,
		WithPayload:    qdrant.NewWithPayload(true),
	}
	if q.Slot != vectordb.DefaultSlot {
		using := q.Slot
		req.Using = &using
	}

	resp, err := s.client.api.Query(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("[Qdrant] search failed: %w", translateError(err))
	}

	matches := make([]vectordb.Match, 0, len(resp))
	for _, r := range resp {
		m, err := fromScoredPoint(r, q.Distance)
		if err != nil {
			return nil, fmt.Errorf("[Qdrant] %w", err)
		}
		matches = append(matches, m)
	}
	return matches, nil
}

// Count ──────────────────────────────────────────────────────────────
// Count
// ──────────────────────────────────────────────────────────────
func (s *Store) Count(ctx context.Context, collection string) (uint64, error) {
	ctx, cancel := s.client.withTimeout(ctx)
	defer cancel()

	exact := true
	n, err := s.client.api.Count(ctx, &qdrant.CountPoints{
		CollectionName: collection,
		Exact:          &exact,
	})
	if err != nil {
		return 0, fmt.Errorf("[Qdrant] failed to count '%s': %w", collection, translateError(err))
	}
	return n, nil
}
