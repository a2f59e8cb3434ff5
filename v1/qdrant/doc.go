// Package qdrant implements vectordb.Store on the Qdrant vector database.
//
// The package wraps the official gRPC client, manages its lifecycle through
// fx and translates the vectordb data model onto Qdrant collections.
//
// # Core Features
//
//   - Managed client lifecycle with Fx integration
//   - Config struct supporting environment and YAML loading
//   - Automatic health check on client initialization
//   - Single unnamed vectors and named multi-vectors per collection
//   - Batched, blocking upserts so writes are visible to the next search
//   - Payload filters translated to native Qdrant conditions
//   - gRPC status codes mapped onto the vectordb error kinds
//
// # Basic Usage
//
//	client, err := qdrant.NewClient(&qdrant.Config{
//	    Endpoint: "localhost",
//	    Port:     6334,
//	}, log)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	svc := vectordb.NewService(qdrant.NewStore(client))
//
// # FX Module Integration
//
//	app := fx.New(
//	    logger.FXModule,
//	    fx.Provide(func() *qdrant.Config { return cfg }),
//	    qdrant.FXModule,
//	    vectordb.FXModule,
//	)
//
// # Storage layout
//
// Single-vector collections use Qdrant's unnamed vector config. Collections
// with named slots use a params map keyed by slot name, and each point keeps
// the list of slots it actually populates under the reserved payload key
// "_vecsearch_slots". Searches on a named slot filter on that key unless
// placeholders are requested. The key is stripped from returned payloads.
//
// Point identifiers that parse as unsigned integers are stored as numeric
// Qdrant IDs; all others must be UUIDs.
//
// # Scores
//
// Qdrant returns cosine similarity and dot product as-is. For euclidean
// collections it returns the distance, which this package converts to
// 1/(1+d) so that higher is better for every metric.
//
// # Error Handling
//
// gRPC Unavailable and DeadlineExceeded wrap vectordb.ErrStoreUnavailable,
// NotFound wraps vectordb.ErrNotFound and InvalidArgument wraps
// vectordb.ErrInvalidRequest. Check them with errors.Is.
package qdrant
