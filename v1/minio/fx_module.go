package minio

import (
	"go.uber.org/fx"
)

// FXModule provides the connected *Client.
//
// Dependencies required by this module:
// - A *minio.Config instance must be available in the dependency injection container
var FXModule = fx.Module("minio",
	fx.Provide(NewClientWithDI),
)

// MinioParams groups the dependencies of NewClientWithDI.
type MinioParams struct {
	fx.In

	Config *Config
	Logger Logger `optional:"true"`
}

// NewClientWithDI creates a Client from injected dependencies.
func NewClientWithDI(p MinioParams) (*Client, error) {
	return NewClient(p.Config, p.Logger)
}
