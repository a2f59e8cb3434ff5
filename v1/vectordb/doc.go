// Package vectordb provides engine-agnostic vector indexing and similarity search.
//
// # Overview
//
// The package defines the [Store] contract a vector engine adapter fulfils and
// the [Service] that applications talk to. The Service owns every invariant of
// the data model: collection schemas are immutable, vector lengths match their
// slot, identifiers are unique per collection and scores are higher-is-better
// regardless of the metric.
//
// # Architecture
//
//	┌─────────────────────────────────────────────────────────────┐
//	│                    Application Layer                        │
//	│        (retrieval.TextIndex, retrieval.ImageIndex)          │
//	└──────────────────────────┬──────────────────────────────────┘
//	                           │
//	                           ▼
//	┌─────────────────────────────────────────────────────────────┐
//	│                     vectordb.Service                        │
//	│  Ensure/Clear/Count · Upsert/Delete · Search/SearchBatch    │
//	└──────────────────────────┬──────────────────────────────────┘
//	                           │ vectordb.Store
//	        ┌──────────────────┼──────────────────┐
//	        ▼                  ▼                  ▼
//	┌───────────────┐  ┌───────────────┐  ┌───────────────┐
//	│ memstore.Store│  │ qdrant.Store  │  │pgvector.Store │
//	└───────────────┘  └───────────────┘  └───────────────┘
//
// # Collections and slots
//
// A collection has one or more vector slots. A single-vector collection uses
// one unnamed slot:
//
//	schema := vectordb.SingleVector(384, vectordb.DistanceCosine)
//
// A multi-vector collection names its slots:
//
//	schema := vectordb.Schema{
//	    "image_vector": {Size: 512, Distance: vectordb.DistanceCosine},
//	    "text_vector":  {Size: 512, Distance: vectordb.DistanceCosine},
//	}
//
// Slots a point does not supply are stored as zero vectors. Those placeholders
// are skipped when searching their slot unless SearchRequest.IncludePlaceholders
// is set, in which case they take part with whatever score the metric yields
// (0 for cosine).
//
// # Usage
//
//	svc := vectordb.NewService(memstore.New(), vectordb.WithLogger(log))
//
//	if err := svc.Ensure(ctx, "documents", schema); err != nil {
//	    return err
//	}
//
//	id, err := svc.Upsert(ctx, vectordb.UpsertRequest{
//	    Collection: "documents",
//	    Vector:     embedding,
//	    Payload:    map[string]any{"text": text},
//	})
//
//	matches, err := svc.Search(ctx, vectordb.SearchRequest{
//	    Collection: "documents",
//	    Vector:     query,
//	    Limit:      5,
//	    Filter: vectordb.NewFilterSet(
//	        vectordb.Must(vectordb.NewMatch("source", "upload")),
//	    ),
//	})
//
// # Scores
//
//   - cosine: cosine similarity in [-1, 1]
//   - dot: raw inner product
//   - euclidean: 1/(1+d), in (0, 1]
//
// Ties are broken by insertion order where the engine allows it.
//
// # Errors
//
// All errors match one of the sentinels through errors.Is: ErrStoreUnavailable,
// ErrSchemaMismatch, ErrDimensionMismatch, ErrNotFound, ErrAlreadyExists and
// ErrInvalidRequest. Searching a collection that does not exist returns an
// empty result rather than ErrNotFound.
//
// # Concurrency
//
// Service and every Store in this module are safe for concurrent use.
// Concurrent upserts to the same identifier race and the last write the
// engine applies wins.
package vectordb
