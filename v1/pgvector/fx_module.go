package pgvector

import (
	"context"
	"sync"

	"go.uber.org/fx"

	"github.com/Aleph-Alpha/vecsearch/v1/vectordb"
)

// FXModule provides the pgvector *Client, the *Store and the Store as a
// vectordb.Store, and closes the pool on shutdown.
//
// A *pgvector.Config must be available in the container.
var FXModule = fx.Module("pgvector",
	fx.Provide(
		NewClientWithDI,
		NewStore,
		func(s *Store) vectordb.Store { return s },
	),
	fx.Invoke(RegisterPgVectorLifecycle),
)

// PgVectorParams groups the dependencies of the client constructor.
type PgVectorParams struct {
	fx.In

	Config *Config
	Logger Logger `optional:"true"`
}

// NewClientWithDI creates a Client from injected dependencies.
func NewClientWithDI(p PgVectorParams) (*Client, error) {
	return NewClient(p.Config, p.Logger)
}

// RegisterPgVectorLifecycle closes the pool when the application stops.
func RegisterPgVectorLifecycle(lc fx.Lifecycle, client *Client) {
	var once sync.Once

	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			var err error
			once.Do(func() {
				err = client.Close()
			})
			return err
		},
	})
}
