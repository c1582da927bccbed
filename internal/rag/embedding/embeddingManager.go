package embedding

import "context"

// Embedder maps text to fixed-size vectors. BatchEmbedding returns one vector
// per input, in input order.
type Embedder interface {
	GetEmbedding(ctx context.Context, query string) ([]float32, error)
	BatchEmbedding(ctx context.Context, texts []string) ([][]float32, error)
}
