package pgvector

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Aleph-Alpha/vecsearch/v1/vectordb"
)

// collectionRecord is a row of the registry that maps collection names to
// their tables and schemas.
type collectionRecord struct {
	Name      string    `gorm:"primaryKey"`
	Relation  string    `gorm:"not null;uniqueIndex"`
	Schema    string    `gorm:"type:text;not null"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
}

func (collectionRecord) TableName() string { return "vecsearch_collections" }

func (r *collectionRecord) schema() (vectordb.Schema, error) {
	var s vectordb.Schema
	if err := json.Unmarshal([]byte(r.Schema), &s); err != nil {
		return nil, fmt.Errorf("[PgVector] corrupt schema for collection '%s': %w", r.Name, err)
	}
	return s, nil
}

type searchRow struct {
	ID       string
	Payload  string
	Distance float64
}

// Store implements vectordb.Store on PostgreSQL with pgvector.
//
// Every collection is a table with one vector column per slot. Search is an
// exact scan ordered by the pgvector distance operator and then by insertion
// sequence, so ties keep insertion order.
type Store struct {
	client *Client
}

var _ vectordb.Store = (*Store)(nil)

// NewStore builds a Store on a connected client.
func NewStore(client *Client) *Store {
	return &Store{client: client}
}

func (s *Store) record(db *gorm.DB, name string) (*collectionRecord, error) {
	var rec collectionRecord
	err := db.Where("name = ?", name).Take(&rec).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("[PgVector] collection '%s': %w", name, vectordb.ErrNotFound)
		}
		return nil, fmt.Errorf("[PgVector] failed to load collection '%s': %w", name, translateError(err))
	}
	return &rec, nil
}

func (s *Store) CollectionExists(ctx context.Context, name string) (bool, error) {
	db, cancel := s.client.session(ctx)
	defer cancel()

	var n int64
	if err := db.Model(&collectionRecord{}).Where("name = ?", name).Count(&n).Error; err != nil {
		return false, fmt.Errorf("[PgVector] failed to check collection '%s': %w", name, translateError(err))
	}
	return n > 0, nil
}

// CreateCollection registers the collection and creates its table in one
// transaction. A concurrent create of the same name blocks on the registry
// row and then reports vectordb.ErrAlreadyExists.
func (s *Store) CreateCollection(ctx context.Context, name string, schema vectordb.Schema) error {
	if err := schema.Validate(); err != nil {
		return err
	}
	raw, err := json.Marshal(schema)
	if err != nil {
		return err
	}
	rec := collectionRecord{Name: name, Relation: relationName(name), Schema: string(raw)}

	db, cancel := s.client.session(ctx)
	defer cancel()

	err = db.Transaction(func(tx *gorm.DB) error {
		res := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&rec)
		if res.Error != nil {
			return translateError(res.Error)
		}
		if res.RowsAffected == 0 {
			return vectordb.ErrAlreadyExists
		}
		return translateError(tx.Exec(createTableSQL(rec.Relation, schema)).Error)
	})
	if err != nil {
		if errors.Is(err, vectordb.ErrAlreadyExists) {
			return fmt.Errorf("[PgVector] collection '%s': %w", name, err)
		}
		return fmt.Errorf("[PgVector] failed to create collection '%s': %w", name, err)
	}

	s.client.logger.Info("[PgVector] Created collection", nil, map[string]interface{}{
		"collection": name,
		"table":      rec.Relation,
		"schema":     schema.String(),
	})
	return nil
}

func (s *Store) DeleteCollection(ctx context.Context, name string) error {
	db, cancel := s.client.session(ctx)
	defer cancel()

	err := db.Transaction(func(tx *gorm.DB) error {
		rec, err := s.record(tx.Clauses(clause.Locking{Strength: "UPDATE"}), name)
		if err != nil {
			return err
		}
		if err := tx.Exec("DROP TABLE IF EXISTS " + quoteIdent(rec.Relation)).Error; err != nil {
			return translateError(err)
		}
		return translateError(tx.Delete(rec).Error)
	})
	if err != nil && !errors.Is(err, vectordb.ErrNotFound) {
		return fmt.Errorf("[PgVector] failed to delete collection '%s': %w", name, err)
	}
	return nil
}

func (s *Store) DescribeCollection(ctx context.Context, name string) (*vectordb.CollectionInfo, error) {
	db, cancel := s.client.session(ctx)
	defer cancel()

	rec, err := s.record(db, name)
	if err != nil {
		return nil, err
	}
	schema, err := rec.schema()
	if err != nil {
		return nil, err
	}
	n, err := s.count(db, rec)
	if err != nil {
		return nil, err
	}
	return &vectordb.CollectionInfo{Name: name, Schema: schema, Points: n}, nil
}

// UpsertPoints writes all points in one transaction; either every point is
// stored or none is.
func (s *Store) UpsertPoints(ctx context.Context, collection string, points ...vectordb.Point) error {
	if len(points) == 0 {
		return nil
	}
	db, cancel := s.client.session(ctx)
	defer cancel()

	rec, err := s.record(db, collection)
	if err != nil {
		return err
	}
	schema, err := rec.schema()
	if err != nil {
		return err
	}
	stmt := upsertSQL(rec.Relation, schema)

	err = db.Transaction(func(tx *gorm.DB) error {
		for _, p := range points {
			args, err := upsertArgs(schema, p)
			if err != nil {
				return err
			}
			if err := tx.Exec(stmt, args...).Error; err != nil {
				return fmt.Errorf("point %s: %w", p.ID, translateError(err))
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("[PgVector] upsert into '%s' failed: %w", collection, err)
	}

	s.client.logger.Debug("[PgVector] Upserted points", nil, map[string]interface{}{
		"collection": collection,
		"count":      len(points),
	})
	return nil
}

func (s *Store) DeletePoints(ctx context.Context, collection string, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	db, cancel := s.client.session(ctx)
	defer cancel()

	rec, err := s.record(db, collection)
	if err != nil {
		return err
	}
	if err := db.Exec("DELETE FROM "+quoteIdent(rec.Relation)+" WHERE id IN ?", ids).Error; err != nil {
		return fmt.Errorf("[PgVector] delete failed: %w", translateError(err))
	}
	return nil
}

func (s *Store) Search(ctx context.Context, collection string, q vectordb.Query) ([]vectordb.Match, error) {
	db, cancel := s.client.session(ctx)
	defer cancel()

	rec, err := s.record(db, collection)
	if err != nil {
		return nil, err
	}
	schema, err := rec.schema()
	if err != nil {
		return nil, err
	}
	query, args, err := searchSQL(rec.Relation, schema, q)
	if err != nil {
		return nil, err
	}

	var rows []searchRow
	if err := db.Raw(query, args...).Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("[PgVector] search failed: %w", translateError(err))
	}

	matches := make([]vectordb.Match, 0, len(rows))
	for _, r := range rows {
		payload, err := decodePayload(r.Payload)
		if err != nil {
			return nil, fmt.Errorf("[PgVector] point %s: %w", r.ID, err)
		}
		matches = append(matches, vectordb.Match{
			ID:      r.ID,
			Score:   scoreFromDistance(r.Distance, q.Distance),
			Payload: payload,
		})
	}
	return matches, nil
}

func (s *Store) Count(ctx context.Context, collection string) (uint64, error) {
	db, cancel := s.client.session(ctx)
	defer cancel()

	rec, err := s.record(db, collection)
	if err != nil {
		return 0, err
	}
	return s.count(db, rec)
}

func (s *Store) count(db *gorm.DB, rec *collectionRecord) (uint64, error) {
	var n int64
	if err := db.Table(rec.Relation).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("[PgVector] failed to count '%s': %w", rec.Name, translateError(err))
	}
	return uint64(n), nil
}
