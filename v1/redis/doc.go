// Package redis provides a Redis-backed cache for computed embeddings.
//
// *Client satisfies embedding.Cache: values are raw bytes stored under
// KeyPrefix+key with a fixed TTL. embedding.NewCachedEmbedder decides what
// the keys and values are.
//
//	cache, err := redis.NewClient(redis.Config{Host: "localhost"}, log)
//	embedder := embedding.NewCachedEmbedder(inner, cache)
//
// Connection failures, timeouts and closed clients wrap
// vectordb.ErrStoreUnavailable.
package redis
