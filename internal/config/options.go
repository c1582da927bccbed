package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/akolanti/GoDocQA/internal/domain/docErrors"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Options are the runtime knobs of the service. Load resolves them as
// defaults, then the yaml file, then .env and the process environment.
type Options struct {
	ThresholdPages  int    `yaml:"threshold_pages"`
	ThresholdChars  int    `yaml:"threshold_chars"`
	ChunkSize       int    `yaml:"chunk_size"`
	ChunkOverlap    int    `yaml:"chunk_overlap"`
	TopK            int    `yaml:"top_k"`
	Model           string `yaml:"model"`
	MaxPromptBudget int    `yaml:"max_prompt_budget"`

	Provider            string `yaml:"provider"`
	EmbeddingModel      string `yaml:"embedding_model"`
	EmbeddingDimensions int    `yaml:"embedding_dimensions"`
	GoogleAPIKey        string `yaml:"-"`
	OpenAIAPIKey        string `yaml:"-"`

	CallTimeout      time.Duration `yaml:"call_timeout"`
	RetryAttempts    int           `yaml:"retry_attempts"`
	RetryBaseDelay   time.Duration `yaml:"retry_base_delay"`
	RetryMaxDelay    time.Duration `yaml:"retry_max_delay"`
	EmbedBatchSize   int           `yaml:"embed_batch_size"`
	EmbedConcurrency int           `yaml:"embed_concurrency"`

	VectorBackend string `yaml:"vector_backend"`
	QdrantHost    string `yaml:"qdrant_host"`
	QdrantPort    int    `yaml:"qdrant_port"`
	RedisAddr     string `yaml:"redis_addr"`
	RedisPassword string `yaml:"-"`
	Persist       bool   `yaml:"persist"`
	LogLevel      string `yaml:"log_level"`
}

func DefaultOptions() Options {
	return Options{
		ThresholdPages:   DefaultThresholdPages,
		ChunkSize:        DefaultChunkSize,
		ChunkOverlap:     DefaultChunkOverlap,
		TopK:             DefaultTopK,
		Model:            DefaultGeminiModel,
		MaxPromptBudget:  DefaultMaxPromptBudget,
		Provider:         DefaultProvider,
		CallTimeout:      DefaultCallTimeout,
		RetryAttempts:    DefaultRetryAttempts,
		RetryBaseDelay:   DefaultRetryBaseDelay,
		RetryMaxDelay:    DefaultRetryMaxDelay,
		EmbedBatchSize:   DefaultEmbedBatchSize,
		EmbedConcurrency: DefaultEmbedConcurrency,
		VectorBackend:    VectorBackendMemory,
		QdrantHost:       QdrantHost,
		QdrantPort:       QdrantGrpcPort,
		RedisAddr:        RedisAddr,
		LogLevel:         "debug",
	}
}

// Load builds Options from the optional yaml file at path and the environment.
// A missing file is not an error; an unreadable or malformed one is.
func Load(path string) (Options, error) {
	opts := DefaultOptions()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return opts, err
		}
		if err == nil {
			if err := yaml.Unmarshal(data, &opts); err != nil {
				return opts, docErrors.NewConfigError("file", "%s: %v", path, err)
			}
		}
	}

	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(".env"); err != nil {
			return opts, docErrors.NewConfigError("env", "loading .env: %v", err)
		}
	}

	if err := applyEnv(&opts); err != nil {
		return opts, err
	}
	opts.applyDerived()
	return opts, opts.Validate()
}

func applyEnv(opts *Options) error {
	var errs []error
	intVar := func(key string, dst *int) {
		if v, ok := os.LookupEnv(key); ok {
			n, err := strconv.Atoi(strings.TrimSpace(v))
			if err != nil {
				errs = append(errs, docErrors.NewConfigError(key, "not an integer: %q", v))
				return
			}
			*dst = n
		}
	}
	strVar := func(key string, dst *string) {
		if v, ok := os.LookupEnv(key); ok && v != "" {
			*dst = v
		}
	}
	durVar := func(key string, dst *time.Duration) {
		if v, ok := os.LookupEnv(key); ok {
			d, err := time.ParseDuration(v)
			if err != nil {
				errs = append(errs, docErrors.NewConfigError(key, "not a duration: %q", v))
				return
			}
			*dst = d
		}
	}

	intVar("DOCQA_THRESHOLD_PAGES", &opts.ThresholdPages)
	intVar("DOCQA_THRESHOLD_CHARS", &opts.ThresholdChars)
	intVar("DOCQA_CHUNK_SIZE", &opts.ChunkSize)
	intVar("DOCQA_CHUNK_OVERLAP", &opts.ChunkOverlap)
	intVar("DOCQA_TOP_K", &opts.TopK)
	intVar("DOCQA_MAX_PROMPT_BUDGET", &opts.MaxPromptBudget)
	intVar("DOCQA_RETRY_ATTEMPTS", &opts.RetryAttempts)
	intVar("DOCQA_EMBED_BATCH_SIZE", &opts.EmbedBatchSize)
	intVar("DOCQA_EMBED_CONCURRENCY", &opts.EmbedConcurrency)
	intVar("DOCQA_EMBEDDING_DIMENSIONS", &opts.EmbeddingDimensions)
	intVar("QDRANT_PORT", &opts.QdrantPort)
	strVar("DOCQA_MODEL", &opts.Model)
	strVar("DOCQA_PROVIDER", &opts.Provider)
	strVar("DOCQA_EMBEDDING_MODEL", &opts.EmbeddingModel)
	strVar("DOCQA_VECTOR_BACKEND", &opts.VectorBackend)
	strVar("DOCQA_LOG_LEVEL", &opts.LogLevel)
	strVar("QDRANT_HOST", &opts.QdrantHost)
	strVar("REDIS_ADDR", &opts.RedisAddr)
	strVar("REDIS_PASSWORD", &opts.RedisPassword)
	strVar("GOOGLE_API_KEY", &opts.GoogleAPIKey)
	strVar("GEMINI_API_KEY", &opts.GoogleAPIKey)
	strVar("OPENAI_API_KEY", &opts.OpenAIAPIKey)
	durVar("DOCQA_CALL_TIMEOUT", &opts.CallTimeout)
	durVar("DOCQA_RETRY_BASE_DELAY", &opts.RetryBaseDelay)
	durVar("DOCQA_RETRY_MAX_DELAY", &opts.RetryMaxDelay)

	if v, ok := os.LookupEnv("DOCQA_PERSIST"); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			errs = append(errs, docErrors.NewConfigError("DOCQA_PERSIST", "not a boolean: %q", v))
		}
		opts.Persist = b
	}
	return errors.Join(errs...)
}

// applyDerived fills values that default relative to others.
// threshold_chars falls back to threshold_pages times the plain-text page estimate.
func (o *Options) applyDerived() {
	if o.ThresholdChars == 0 {
		o.ThresholdChars = o.ThresholdPages * CharsPerPage
	}
	if o.EmbeddingModel == "" {
		if o.Provider == ProviderOpenAI {
			o.EmbeddingModel = OpenAIEmbeddingModel
		} else {
			o.EmbeddingModel = GoogleEmbeddingModel
		}
	}
	if o.EmbeddingDimensions == 0 {
		o.EmbeddingDimensions = EmbeddingDimensionality
	}
	if o.Provider == ProviderOpenAI && o.Model == DefaultGeminiModel {
		o.Model = DefaultOpenAIModel
	}
}

// Validate reports every invalid field as a *docErrors.ConfigError joined into one error.
func (o Options) Validate() error {
	var errs []error
	if o.ThresholdPages < 0 {
		errs = append(errs, docErrors.NewConfigError("threshold_pages", "must not be negative, got %d", o.ThresholdPages))
	}
	if o.ThresholdChars < 0 {
		errs = append(errs, docErrors.NewConfigError("threshold_chars", "must not be negative, got %d", o.ThresholdChars))
	}
	if o.ChunkSize <= 0 {
		errs = append(errs, docErrors.NewConfigError("chunk_size", "must be positive, got %d", o.ChunkSize))
	}
	if o.ChunkOverlap < 0 || (o.ChunkSize > 0 && o.ChunkOverlap >= o.ChunkSize) {
		errs = append(errs, docErrors.NewConfigError("chunk_overlap", "must be in [0, chunk_size), got %d", o.ChunkOverlap))
	}
	if o.TopK <= 0 {
		errs = append(errs, docErrors.NewConfigError("top_k", "must be positive, got %d", o.TopK))
	}
	if o.MaxPromptBudget <= 0 {
		errs = append(errs, docErrors.NewConfigError("max_prompt_budget", "must be positive, got %d", o.MaxPromptBudget))
	}
	if o.Model == "" {
		errs = append(errs, docErrors.NewConfigError("model", "must not be empty"))
	}
	if o.Provider != ProviderGemini && o.Provider != ProviderOpenAI {
		errs = append(errs, docErrors.NewConfigError("provider", "unknown provider %q", o.Provider))
	}
	if o.VectorBackend != VectorBackendMemory && o.VectorBackend != VectorBackendQdrant {
		errs = append(errs, docErrors.NewConfigError("vector_backend", "unknown backend %q", o.VectorBackend))
	}
	if o.RetryAttempts < 1 {
		errs = append(errs, docErrors.NewConfigError("retry_attempts", "must be at least 1, got %d", o.RetryAttempts))
	}
	if o.CallTimeout <= 0 {
		errs = append(errs, docErrors.NewConfigError("call_timeout", "must be positive"))
	}
	if o.EmbedBatchSize <= 0 {
		errs = append(errs, docErrors.NewConfigError("embed_batch_size", "must be positive, got %d", o.EmbedBatchSize))
	}
	if o.EmbedConcurrency <= 0 {
		errs = append(errs, docErrors.NewConfigError("embed_concurrency", "must be positive, got %d", o.EmbedConcurrency))
	}
	return errors.Join(errs...)
}

// APIKey returns the key of the configured provider.
func (o Options) APIKey() string {
	if o.Provider == ProviderOpenAI {
		return o.OpenAIAPIKey
	}
	return o.GoogleAPIKey
}
