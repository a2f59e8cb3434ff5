// Package memstore provides an in-process vectordb.Store using exact
// brute-force search. It is the reference engine for tests and offline use.
package memstore

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/viant/vec/search"

	"github.com/Aleph-Alpha/vecsearch/v1/vectordb"
)

// Store keeps every collection in memory behind a single RWMutex.
type Store struct {
	mu          sync.RWMutex
	collections map[string]*collection
}

type collection struct {
	schema  vectordb.Schema
	nextSeq uint64
	points  map[string]*entry
}

type entry struct {
	seq       uint64
	vectors   map[string][]float32
	norms     map[string]float64
	populated map[string]struct{}
	payload   map[string]any
}

var _ vectordb.Store = (*Store)(nil)

// New creates an empty Store.
func New() *Store {
	return &Store{collections: make(map[string]*collection)}
}

func (s *Store) CollectionExists(_ context.Context, name string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.collections[name]
	return ok, nil
}

func (s *Store) CreateCollection(_ context.Context, name string, schema vectordb.Schema) error {
	if err := schema.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.collections[name]; ok {
		return fmt.Errorf("collection %q: %w", name, vectordb.ErrAlreadyExists)
	}
	stored := make(vectordb.Schema, len(schema))
	for k, v := range schema {
		stored[k] = v
	}
	s.collections[name] = &collection{schema: stored, points: make(map[string]*entry)}
	return nil
}

func (s *Store) DeleteCollection(_ context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.collections, name)
	return nil
}

func (s *Store) DescribeCollection(_ context.Context, name string) (*vectordb.CollectionInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, err := s.get(name)
	if err != nil {
		return nil, err
	}
	schema := make(vectordb.Schema, len(c.schema))
	for k, v := range c.schema {
		schema[k] = v
	}
	return &vectordb.CollectionInfo{Name: name, Schema: schema, Points: uint64(len(c.points))}, nil
}

// UpsertPoints applies all points under one lock, so a batch is visible
// atomically. A replaced point keeps its original insertion position.
func (s *Store) UpsertPoints(_ context.Context, name string, points ...vectordb.Point) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, err := s.get(name)
	if err != nil {
		return err
	}

	entries := make([]*entry, len(points))
	for i, p := range points {
		e, err := newEntry(name, c.schema, p)
		if err != nil {
			return err
		}
		entries[i] = e
	}
	for i, p := range points {
		e := entries[i]
		if old, ok := c.points[p.ID]; ok {
			e.seq = old.seq
		} else {
			e.seq = c.nextSeq
			c.nextSeq++
		}
		c.points[p.ID] = e
	}
	return nil
}

func (s *Store) DeletePoints(_ context.Context, name string, ids ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, err := s.get(name)
	if err != nil {
		return err
	}
	for _, id := range ids {
		delete(c.points, id)
	}
	return nil
}

func (s *Store) Search(_ context.Context, name string, q vectordb.Query) ([]vectordb.Match, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, err := s.get(name)
	if err != nil {
		return nil, err
	}
	params, ok := c.schema[q.Slot]
	if !ok {
		return nil, fmt.Errorf("%w: unknown slot %q", vectordb.ErrInvalidRequest, q.Slot)
	}
	if uint64(len(q.Vector)) != params.Size {
		return nil, &vectordb.DimensionMismatchError{
			Collection: name, Slot: q.Slot, Expected: params.Size, Actual: len(q.Vector),
		}
	}

	type candidate struct {
		id    string
		seq   uint64
		score float32
		e     *entry
	}
	query := search.Float32s(q.Vector)
	queryNorm := squaredNorm(q.Vector)

	candidates := make([]candidate, 0, len(c.points))
	for id, e := range c.points {
		if _, populated := e.populated[q.Slot]; !populated && !q.IncludePlaceholders {
			continue
		}
		if !q.Filter.Matches(e.payload) {
			continue
		}
		candidates = append(candidates, candidate{
			id:    id,
			seq:   e.seq,
			score: score(params.Distance, query, queryNorm, e.vectors[q.Slot], e.norms[q.Slot]),
			e:     e,
		})
	}
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].score != candidates[j].score {
			return candidates[i].score > candidates[j].score
		}
		return candidates[i].seq < candidates[j].seq
	})
	if len(candidates) > q.Limit {
		candidates = candidates[:q.Limit]
	}

	matches := make([]vectordb.Match, len(candidates))
	for i, cand := range candidates {
		matches[i] = vectordb.Match{
			ID:      cand.id,
			Score:   cand.score,
			Payload: vectordb.ClonePayload(cand.e.payload),
		}
	}
	return matches, nil
}

func (s *Store) Count(_ context.Context, name string) (uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, err := s.get(name)
	if err != nil {
		return 0, err
	}
	return uint64(len(c.points)), nil
}

// get must be called with s.mu held.
func (s *Store) get(name string) (*collection, error) {
	c, ok := s.collections[name]
	if !ok {
		return nil, fmt.Errorf("collection %q: %w", name, vectordb.ErrNotFound)
	}
	return c, nil
}

func newEntry(name string, schema vectordb.Schema, p vectordb.Point) (*entry, error) {
	e := &entry{
		vectors:   make(map[string][]float32, len(schema)),
		norms:     make(map[string]float64, len(schema)),
		populated: make(map[string]struct{}, len(p.Populated)),
		payload:   vectordb.ClonePayload(p.Payload),
	}
	for slot, params := range schema {
		v, ok := p.Vectors[slot]
		if !ok {
			v = vectordb.ZeroVector(params.Size)
		}
		if uint64(len(v)) != params.Size {
			return nil, &vectordb.DimensionMismatchError{
				Collection: name, Slot: slot, Expected: params.Size, Actual: len(v),
			}
		}
		v = vectordb.CloneVector(v)
		e.vectors[slot] = v
		e.norms[slot] = squaredNorm(v)
	}
	populated := p.Populated
	if populated == nil {
		for slot := range p.Vectors {
			populated = append(populated, slot)
		}
	}
	for _, slot := range populated {
		e.populated[slot] = struct{}{}
	}
	return e, nil
}
