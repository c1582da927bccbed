package openaiEmbedding

import (
	"context"
	"fmt"
	"sort"

	"github.com/akolanti/GoDocQA/internal/rag/embedding"
	"github.com/akolanti/GoDocQA/internal/rag/retry"
	"github.com/akolanti/GoDocQA/pkg/logger_i"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

const serviceName = "openai_embedding"

type client struct {
	api       openai.Client
	model     string
	dimension int64
	logger    *logger_i.Logger
}

// New builds an embedder on the OpenAI embeddings endpoint. The SDK's own
// retries are disabled since callers wrap every call in retry.Do.
func New(apiKey string, model string, dimension int, opts ...option.RequestOption) embedding.Embedder {
	base := []option.RequestOption{option.WithAPIKey(apiKey), option.WithMaxRetries(0)}
	return &client{
		api:       openai.NewClient(append(base, opts...)...),
		model:     model,
		dimension: int64(dimension),
		logger:    logger_i.NewLogger("openai_embedding"),
	}
}

func (c *client) GetEmbedding(ctx context.Context, query string) ([]float32, error) {
	vectors, err := c.embed(ctx, []string{query}, "embed_query")
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

func (c *client) BatchEmbedding(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	return c.embed(ctx, texts, "embed_batch")
}

func (c *client) embed(ctx context.Context, texts []string, op string) ([][]float32, error) {
	log := c.logger.FromContext(ctx)

	params := openai.EmbeddingNewParams{
		Input: openai.EmbeddingNewParamsInputUnion{OfArrayOfStrings: texts},
		Model: openai.EmbeddingModel(c.model),
	}
	if c.dimension > 0 {
		params.Dimensions = openai.Int(c.dimension)
	}

	resp, err := c.api.Embeddings.New(ctx, params)
	if err != nil {
		log.Error("Error getting embeddings from OpenAI", "op", op, "error", err)
		return nil, retry.FromOpenAI(serviceName, op, err)
	}
	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("%s returned %d embeddings for %d texts", serviceName, len(resp.Data), len(texts))
	}

	data := resp.Data
	sort.SliceStable(data, func(a, b int) bool { return data[a].Index < data[b].Index })

	vectors := make([][]float32, len(data))
	for i, d := range data {
		v := make([]float32, len(d.Embedding))
		for j, x := range d.Embedding {
			v[j] = float32(x)
		}
		vectors[i] = v
	}
	log.Debug("embedded texts", "count", len(vectors))
	return vectors, nil
}
