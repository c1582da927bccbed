package app

import (
	"context"
	"errors"

	"github.com/akolanti/GoDocQA/internal/config"
	"github.com/akolanti/GoDocQA/internal/customHttpClient"
	"github.com/akolanti/GoDocQA/internal/data/store"
	"github.com/akolanti/GoDocQA/internal/domain/docErrors"
	"github.com/akolanti/GoDocQA/internal/domain/jobModel"
	"github.com/akolanti/GoDocQA/internal/rag"
	"github.com/akolanti/GoDocQA/internal/rag/embedding"
	"github.com/akolanti/GoDocQA/internal/rag/embedding/googleEmbedding"
	"github.com/akolanti/GoDocQA/internal/rag/embedding/openaiEmbedding"
	"github.com/akolanti/GoDocQA/internal/rag/ingest"
	"github.com/akolanti/GoDocQA/internal/rag/llm"
	"github.com/akolanti/GoDocQA/internal/rag/llm/gemini"
	"github.com/akolanti/GoDocQA/internal/rag/llm/openaiLLM"
	"github.com/akolanti/GoDocQA/internal/rag/policy"
	"github.com/akolanti/GoDocQA/internal/rag/retriever"
	"github.com/akolanti/GoDocQA/internal/rag/retry"
	"github.com/akolanti/GoDocQA/internal/rag/vectorDB"
	"github.com/akolanti/GoDocQA/internal/rag/vectorDB/qdrantDB"
	"github.com/akolanti/GoDocQA/internal/session"
	"github.com/akolanti/GoDocQA/pkg/logger_i"
	"github.com/openai/openai-go/option"
)

var logger = logger_i.NewLogger("bootstrap")

// App is everything the HTTP server, the CLI and the MCP server share.
type App struct {
	Options  config.Options
	Pipeline *ingest.Pipeline
	Rag      rag.Service
}

// Providers lets tests and alternative entrypoints bypass the network clients.
type Providers struct {
	Embedder embedding.Embedder
	LLM      llm.Provider
}

// Build wires the service from opts. ctx bounds the lifetime of the external
// clients; they are closed when it is cancelled.
func Build(ctx context.Context, opts config.Options) (*App, error) {
	providers, err := NewProviders(ctx, opts)
	if err != nil {
		return nil, err
	}
	return BuildWith(ctx, opts, providers)
}

// NewProviders creates the embedding and completion clients of the configured provider.
func NewProviders(ctx context.Context, opts config.Options) (Providers, error) {
	if opts.APIKey() == "" {
		return Providers{}, docErrors.NewConfigError("api_key", "no API key set for provider %q", opts.Provider)
	}
	httpClient := customHttpClient.GetClient()

	var p Providers
	switch opts.Provider {
	case config.ProviderOpenAI:
		p.Embedder = openaiEmbedding.New(opts.OpenAIAPIKey, opts.EmbeddingModel, opts.EmbeddingDimensions, option.WithHTTPClient(httpClient))
		p.LLM = openaiLLM.New(opts.OpenAIAPIKey, opts.Model, option.WithHTTPClient(httpClient))
	default:
		p.Embedder = googleEmbedding.GetGoogleEmbeddingClient(ctx, opts.EmbeddingModel, opts.GoogleAPIKey, opts.EmbeddingDimensions, httpClient)
		p.LLM = gemini.GetGeminiClient(ctx, opts.GoogleAPIKey, opts.Model, httpClient)
	}

	if p.Embedder == nil || p.LLM == nil {
		logger.Debug("Available services", "EmbeddingService", p.Embedder != nil, "LLMProvider", p.LLM != nil)
		return Providers{}, errors.New("one or more external services failed to initialize")
	}
	return p, nil
}

func BuildWith(ctx context.Context, opts config.Options, providers Providers) (*App, error) {
	factory, err := vectorFactory(ctx, opts)
	if err != nil {
		return nil, err
	}
	history, persistence := sessionStores(ctx, opts)

	policyRetry := retry.PolicyFrom(opts)
	pipeline := ingest.NewPipeline(ingest.NewFileExtractor(), providers.Embedder, factory, pipelineSettings(opts))

	service := rag.NewService(rag.Dependencies{
		Pipeline:  pipeline,
		Sessions:  session.NewRegistry(factory, persistence),
		Retriever: retriever.New(providers.Embedder, policyRetry),
		LLM:       providers.LLM,
		History:   history,
		Options:   opts,
		Retry:     policyRetry,
	})

	return &App{Options: opts, Pipeline: pipeline, Rag: service}, nil
}

// NewInspector returns a pipeline that can only measure documents. It needs
// no API key and never embeds.
func NewInspector(opts config.Options) *ingest.Pipeline {
	return ingest.NewPipeline(ingest.NewFileExtractor(), nil, nil, pipelineSettings(opts))
}

func pipelineSettings(opts config.Options) ingest.Settings {
	return ingest.Settings{
		Thresholds:   policy.ThresholdsFrom(opts),
		ChunkSize:    opts.ChunkSize,
		ChunkOverlap: opts.ChunkOverlap,
		BatchSize:    opts.EmbedBatchSize,
		Concurrency:  opts.EmbedConcurrency,
		Retry:        retry.PolicyFrom(opts),
	}
}

func vectorFactory(ctx context.Context, opts config.Options) (vectorDB.Factory, error) {
	if opts.VectorBackend != config.VectorBackendQdrant {
		return vectorDB.MemoryFactory(), nil
	}
	holder := qdrantDB.GetQuadrantClient(ctx, opts.QdrantHost, opts.QdrantPort)
	if holder == nil {
		return nil, errors.New("qdrant vector backend is offline")
	}
	return holder.Factory(), nil
}

// sessionStores returns redis backed history and document persistence when
// persist is on and redis answers, in-memory history and no persistence otherwise.
func sessionStores(ctx context.Context, opts config.Options) (jobModel.MessageStore, session.Persistence) {
	if !opts.Persist {
		return store.InitMessageStore(), nil
	}

	messages := store.GetRedisMessageStore(ctx, opts.RedisAddr, opts.RedisPassword)
	documents := store.GetRedisDocumentStore(ctx, opts.RedisAddr, opts.RedisPassword)
	if messages == nil || documents == nil {
		logger.Error("Redis stores are offline, sessions will not survive a restart")
		return store.InitMessageStore(), nil
	}
	return messages, documents
}

// JobStore returns the redis job store, falling back to memory when redis is down.
func JobStore(ctx context.Context, opts config.Options) jobModel.JobStore {
	if s := store.GetRedisJobStore(ctx, opts.RedisAddr, opts.RedisPassword); s != nil {
		return s
	}
	if !config.FALLBACK_REDIS_TO_INTERNALSTORE {
		return nil
	}
	logger.Error("Redis job store is offline, using the in-memory store")
	return store.InitInMemoryJobStore()
}
