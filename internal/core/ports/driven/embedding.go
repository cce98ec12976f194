package driven

import "context"

// EmbeddingService turns text into vectors. A knowledge base must be
// indexed and queried with the same model; the index records the model
// name and dimensions to detect a switch.
type EmbeddingService interface {
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch returns exactly one vector per text, in input order.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions is the vector length, or 0 before the first call when
	// the model's size is not known in advance.
	Dimensions() int

	ModelName() string

	// Ping checks reachability without embedding anything billable.
	Ping(ctx context.Context) error

	Close() error
}
