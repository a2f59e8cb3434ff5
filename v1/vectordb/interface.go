package vectordb

import "context"

// Store is the contract a vector engine adapter fulfils. The Service layers
// validation, placeholder handling and ID generation on top of it, so a Store
// can assume its input is already consistent with the collection schema.
//
// Implementations must be safe for concurrent use. Each method is expected to
// be a single round trip that is atomic at the engine boundary.
//
// Implementations in this module:
//   - memstore.New()          in-process exact search
//   - qdrant.NewStore(client) Qdrant over gRPC
//   - pgvector.NewStore(db)   PostgreSQL with the pgvector extension
type Store interface {
	// CollectionExists reports whether a collection with the given name exists.
	CollectionExists(ctx context.Context, name string) (bool, error)

	// CreateCollection creates a collection. Returns ErrAlreadyExists if taken.
	CreateCollection(ctx context.Context, name string, schema Schema) error

	// DeleteCollection drops a collection and all of its points.
	// Deleting a missing collection is not an error.
	DeleteCollection(ctx context.Context, name string) error

	// DescribeCollection returns the schema and point count. Returns ErrNotFound if missing.
	DescribeCollection(ctx context.Context, name string) (*CollectionInfo, error)

	// UpsertPoints inserts or fully replaces points by ID.
	// A successful return means the points are visible to Search.
	UpsertPoints(ctx context.Context, collection string, points ...Point) error

	// DeletePoints removes points by ID. Unknown IDs are ignored.
	DeletePoints(ctx context.Context, collection string, ids ...string) error

	// Search returns at most q.Limit matches, highest score first.
	Search(ctx context.Context, collection string, q Query) ([]Match, error)

	// Count returns the exact number of points in the collection.
	Count(ctx context.Context, collection string) (uint64, error)
}
