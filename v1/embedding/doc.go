// Package embedding turns text and images into fixed-length vectors.
//
// # Overview
//
// Embedder is the contract the rest of the module depends on:
//
//	type Embedder interface {
//	    Embed(ctx context.Context, content Content) ([]float32, error)
//	    Dimension(m Modality) int
//	}
//
// Dimension is a property of the configured model, not a tunable: 384 for
// the text-only sentence model, 512 for the shared CLIP model that encodes
// both text and images into one space.
//
// # Providers
//
//   - InferenceProvider calls an OpenAI-compatible /embeddings endpoint.
//     Images are sent as PNG data URLs to the image model.
//   - HashEmbedder is a deterministic feature-hashing embedder that needs no
//     model. Useful for tests and offline runs.
//
// Client wraps either provider, is built once per process and verifies that
// every returned vector has the advertised length:
//
//	client, err := embedding.NewClient(embedding.DefaultConfig())
//	v, err := client.EmbedText(ctx, "a cat sits on the mat")
//
// # Caching
//
// CachedEmbedder memoizes text vectors in any Cache (redis.Client in
// production). Keys combine the namespace, the dimension and an xxhash of
// the text; each entry also keeps the text and is only served when it
// matches. Image content is never cached, and cache failures only cost a
// recomputation:
//
//	cached := embedding.NewCachedEmbedder(client, redisClient,
//	    embedding.WithNamespace("inference:all-MiniLM-L6-v2"))
//
// # Configuration
//
// Config carries yaml and envconfig tags. Under the EMBEDDING prefix the
// variables are EMBEDDING_PROVIDER, EMBEDDING_ENDPOINT,
// EMBEDDING_SERVICE_TOKEN, EMBEDDING_TEXT_MODEL, EMBEDDING_IMAGE_MODEL,
// EMBEDDING_DIMENSION and EMBEDDING_HTTP_TIMEOUT.
//
// # Dependency Injection (Fx)
//
//	app := fx.New(
//	    fx.Provide(func() *embedding.Config { return cfg }),
//	    embedding.FXModule,
//	)
//
// provides *embedding.Client and embedding.Embedder.
//
// # Errors
//
// ErrUnsupportedModality, ErrEmptyContent, ErrUnexpectedDimension and
// ErrProviderUnavailable can be checked with errors.Is.
package embedding
