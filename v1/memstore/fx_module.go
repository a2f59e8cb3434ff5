package memstore

import (
	"go.uber.org/fx"

	"github.com/Aleph-Alpha/vecsearch/v1/vectordb"
)

// FXModule provides a *Store and exposes it as the vectordb.Store.
var FXModule = fx.Module("memstore",
	fx.Provide(
		New,
		func(s *Store) vectordb.Store { return s },
	),
)
