package config

import (
	"log/slog"
	"time"
)

const (
	IS_PROD                         = false
	LOG_LEVEL_PROD                  = slog.LevelInfo
	FALLBACK_REDIS_TO_INTERNALSTORE = true //if redis init fails, it falls back to an internal in-memory store
	TRACE_ID_KEY                    = "traceId"
	RATE_LIMIT_PER_SECOND           = 2
	BURST_RATE_LIMIT_PER_SECOND     = 5
	RateLimiterIdleTTL              = 10 * time.Minute

	RequestsPerNewWorkerCount int64 = 10
	MaxWorkerCount            int64 = 10
	MinWorkerCount            int64 = 1
	IdleWorkerTimeout               = 1 * time.Minute

	//ingestion of a large pdf can take minutes of embedding calls
	QueryJobTimeout  = 2 * time.Minute
	IngestJobTimeout = 15 * time.Minute

	//serverTimeouts
	ReadTimeout            = 30 * time.Second
	WriteTimeout           = 30 * time.Second
	IdleTimeout            = 120 * time.Second
	ShutdownContextTimeout = 10 * time.Second

	//server listening port
	ServerListenAddr = ":3000"

	//job requests buffer limit
	BufferLimit = 100

	//uploads
	MaxUploadSize   = 32 << 20
	UploadDirectory = "temporary_data"

	//vectorDB
	QdrantHost             = "localhost"
	QdrantGrpcPort         = 6334
	QdrantUseTLS           = false
	QdrantPoolSize         = 1
	QdrantCollectionPrefix = "docqa-"
	//equal scores are re-sorted by ordinal, so fetch a few more than asked
	QdrantOverFetch = 8
	//grpc receive limit, 1536-dim vectors with payloads add up
	QdrantMaxRecvMsgSize = 64 << 20

	//extraction
	PdfPageExtractTimeout = 10 * time.Second
	CharsPerPage          = 2500 //plain-text page estimate
	BoundaryLookback      = 100

	//llm
	ModelTemperature float32 = 0.2
	MaxOutputTokens          = 2000

	//defaults for runtime options
	DefaultThresholdPages   = 80
	DefaultChunkSize        = 1000
	DefaultChunkOverlap     = 200
	DefaultTopK             = 3
	DefaultMaxPromptBudget  = 120000
	DefaultProvider         = ProviderGemini
	DefaultGeminiModel      = "gemini-2.5-flash"
	DefaultOpenAIModel      = "gpt-4o"
	GoogleEmbeddingModel    = "gemini-embedding-001"
	OpenAIEmbeddingModel    = "text-embedding-3-small"
	EmbeddingDimensionality = 1536
	DefaultCallTimeout      = 60 * time.Second
	DefaultRetryAttempts    = 3
	DefaultRetryBaseDelay   = 500 * time.Millisecond
	DefaultRetryMaxDelay    = 8 * time.Second
	DefaultEmbedBatchSize   = 100
	DefaultEmbedConcurrency = 4

	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"

	VectorBackendMemory = "memory"
	VectorBackendQdrant = "qdrant"

	MaxIdleConns        = 50
	MaxIdleConnsPerHost = 25
	IdleConnTimeout     = 60 * time.Second

	//redis
	redisHost = "127.0.0.1"
	redisPort = "6379"
	RedisAddr = redisHost + ":" + redisPort

	//redis has 16 DB we can use
	RedisJobStore      = 0
	RedisMessageStore  = 1
	RedisDocumentStore = 2

	//redis timeouts
	RedisPingTimeout      = 3 * time.Second
	RedisIOTimeout        = 30 * time.Second
	RedisJobStoreTTL      = 24 * time.Hour
	RedisMessageStoreTTL  = 24 * time.Hour
	RedisDocumentStoreTTL = 7 * 24 * time.Hour
)
