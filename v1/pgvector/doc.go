// Package pgvector implements vectordb.Store on PostgreSQL with the pgvector
// extension, using GORM over the pgx driver.
//
// On start the client runs CREATE EXTENSION IF NOT EXISTS vector and migrates
// a registry table, vecsearch_collections, that records each collection's
// schema and backing table. Each collection gets its own table:
//
//	id        text PRIMARY KEY   canonical point id
//	seq       bigserial          insertion order, kept on replacement
//	payload   jsonb
//	populated jsonb              slots the caller supplied
//	vec_N     vector(size)       one column per slot, in sorted slot order
//
// Searches are exact scans ordered by the pgvector operator of the slot
// metric (<=> cosine, <-> euclidean, <#> negative inner product) and then by
// seq. Distances are converted so that higher scores are better: cosine
// becomes 1-d, euclidean 1/(1+d) and dot the inner product itself.
//
// Payload filters are rendered as jsonb path expressions; nested fields use
// dotted paths such as "meta.source".
//
// Connection failures wrap vectordb.ErrStoreUnavailable, a missing
// collection wraps vectordb.ErrNotFound.
package pgvector
