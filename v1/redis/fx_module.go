package redis

import (
	"context"

	"go.uber.org/fx"
)

// FXModule provides the connected *Client and closes it on shutdown.
//
// Dependencies required by this module:
// - A redis.Config instance must be available in the dependency injection container
var FXModule = fx.Module("redis",
	fx.Provide(NewClientWithDI),
	fx.Invoke(RegisterRedisLifecycle),
)

// RedisParams groups the dependencies of NewClientWithDI.
type RedisParams struct {
	fx.In

	Config Config
	Logger Logger `optional:"true"`
}

// NewClientWithDI creates a Client from injected dependencies.
func NewClientWithDI(p RedisParams) (*Client, error) {
	return NewClient(p.Config, p.Logger)
}

// RegisterRedisLifecycle closes the client when the application stops.
func RegisterRedisLifecycle(lc fx.Lifecycle, client *Client) {
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return client.Close()
		},
	})
}
