package driven

import "context"

// EmbeddingService generates vector embeddings from text by calling a
// remote provider. Implementations make one provider call per method call
// and do not retry.
//
// Implementations may include:
//   - OpenAI (text-embedding-3-small, text-embedding-3-large)
//   - Ollama (nomic-embed-text, all-minilm)
type EmbeddingService interface {
	// Embed generates a vector embedding for the given text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch generates embeddings for multiple texts.
	// The result has one vector per input, in input order.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions returns the embedding vector size (e.g., 768, 1536).
	Dimensions() int

	// ModelName returns the name of the embedding model being used.
	ModelName() string

	// Ping validates the service is reachable by making a lightweight test request.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}

// EmbedItem is one text to embed together with the unit identifier that is
// reported if its batch fails.
type EmbedItem struct {
	ID   string
	Text string
}

// EmbeddingClient is the pipeline's view of embedding: ordered output,
// internal batching and bounded retries. Exhausted retries fail with a
// *domain.ProviderError carrying the failed batch's IDs.
type EmbeddingClient interface {
	// EmbedItems returns one vector per item, in item order.
	EmbedItems(ctx context.Context, items []EmbedItem) ([][]float32, error)

	// EmbedQuery embeds a single query text.
	EmbedQuery(ctx context.Context, text string) ([]float32, error)

	// Dimensions returns the vector size every result is checked against.
	Dimensions() int
}
