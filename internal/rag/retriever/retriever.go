package retriever

import (
	"context"
	"time"

	"github.com/akolanti/GoDocQA/internal/domain/commonModels"
	"github.com/akolanti/GoDocQA/internal/domain/docErrors"
	"github.com/akolanti/GoDocQA/internal/metrics"
	"github.com/akolanti/GoDocQA/internal/rag/embedding"
	"github.com/akolanti/GoDocQA/internal/rag/retry"
	"github.com/akolanti/GoDocQA/internal/rag/vectorDB"
)

type Retriever struct {
	embedder embedding.Embedder
	policy   retry.Policy
}

func New(embedder embedding.Embedder, policy retry.Policy) *Retriever {
	return &Retriever{embedder: embedder, policy: policy}
}

// Retrieve embeds the question exactly once, retries aside, and returns the top k chunks of index.
func (r *Retriever) Retrieve(ctx context.Context, question string, index vectorDB.Index, k int) (commonModels.RetrievalResult, error) {
	if k <= 0 {
		return commonModels.RetrievalResult{}, docErrors.NewConfigError("top_k", "must be positive, got %d", k)
	}

	start := time.Now()
	vector, retries, err := retry.Do(ctx, r.policy, "embedding", "embed_query", func(ctx context.Context) ([]float32, error) {
		return r.embedder.GetEmbedding(ctx, question)
	})
	metrics.CaptureExecutionMetrics("embedding", time.Since(start))
	if err != nil {
		return commonModels.RetrievalResult{Retries: retries}, err
	}

	start = time.Now()
	result, err := index.Query(ctx, vector, k)
	metrics.CaptureExecutionMetrics("vector_search", time.Since(start))
	result.Retries = retries
	return result, err
}
