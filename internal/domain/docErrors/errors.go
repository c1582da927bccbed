package docErrors

import (
	"errors"
	"fmt"
)

var (
	ErrUnsupportedFormat = errors.New("unsupported document format")
	ErrNoText            = errors.New("no text could be extracted")
	ErrSessionNotFound   = errors.New("session not found")
)

// ConfigError is raised for invalid parameters before any external call is made.
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid config %s: %s", e.Field, e.Message)
}

func NewConfigError(field string, format string, args ...any) *ConfigError {
	return &ConfigError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// ExtractionError means the document could not be turned into text. Never retried.
type ExtractionError struct {
	Format string
	Cause  error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extracting %s document: %v", e.Format, e.Cause)
}

func (e *ExtractionError) Unwrap() error { return e.Cause }

// ApiError wraps a failed call to the embedding or completion API.
type ApiError struct {
	Service    string
	Op         string
	StatusCode int
	Retryable  bool
	Attempts   int
	Cause      error
}

func (e *ApiError) Error() string {
	msg := fmt.Sprintf("%s %s failed", e.Service, e.Op)
	if e.StatusCode != 0 {
		msg = fmt.Sprintf("%s (status %d)", msg, e.StatusCode)
	}
	if e.Attempts > 1 {
		msg = fmt.Sprintf("%s after %d attempts", msg, e.Attempts)
	}
	return fmt.Sprintf("%s: %v", msg, e.Cause)
}

func (e *ApiError) Unwrap() error { return e.Cause }

// EmptyIndexError is a programming fault: the index was queried before it was built.
type EmptyIndexError struct {
	DocumentId string
}

func (e *EmptyIndexError) Error() string {
	return fmt.Sprintf("vector index for document %q queried before build", e.DocumentId)
}

// ContextTooLargeWarning is non-fatal. It is attached to an answer whose prompt had to be cut.
type ContextTooLargeWarning struct {
	Kept      int
	Dropped   int
	Truncated bool
	Budget    int
}

func (w *ContextTooLargeWarning) Error() string {
	if w.Truncated {
		return fmt.Sprintf("document text truncated to fit prompt budget of %d characters", w.Budget)
	}
	return fmt.Sprintf("dropped %d of %d retrieved chunks to fit prompt budget of %d characters", w.Dropped, w.Kept+w.Dropped, w.Budget)
}

func IsConfig(err error) bool {
	var ce *ConfigError
	return errors.As(err, &ce)
}

func IsExtraction(err error) bool {
	var ee *ExtractionError
	return errors.As(err, &ee)
}

func IsApi(err error) bool {
	var ae *ApiError
	return errors.As(err, &ae)
}
