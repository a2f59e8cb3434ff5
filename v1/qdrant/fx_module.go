package qdrant

import (
	"context"
	"sync"

	"go.uber.org/fx"

	"github.com/Aleph-Alpha/vecsearch/v1/vectordb"
)

// FXModule defines the Fx module for the Qdrant store.
//
// The module:
//  1. Provides the connected *Client.
//  2. Provides the *Store and exposes it as the vectordb.Store.
//  3. Invokes RegisterQdrantLifecycle to close the connection on shutdown.
//
// Dependencies required by this module:
// - A *qdrant.Config instance must be available in the dependency injection container.
var FXModule = fx.Module("qdrant",
	fx.Provide(
		NewClientWithDI,
		NewStore,
		func(s *Store) vectordb.Store { return s },
	),
	fx.Invoke(RegisterQdrantLifecycle),
)

// QdrantParams defines dependencies needed to construct the Qdrant client.
type QdrantParams struct {
	fx.In

	Config *Config
	Logger Logger `optional:"true"`
}

// NewClientWithDI creates a Client from injected dependencies.
func NewClientWithDI(p QdrantParams) (*Client, error) {
	return NewClient(p.Config, p.Logger)
}

// RegisterQdrantLifecycle closes the client when the application stops.
func RegisterQdrantLifecycle(lc fx.Lifecycle, client *Client) {
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
