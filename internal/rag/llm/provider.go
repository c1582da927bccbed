package llm

import (
	"context"

	"github.com/akolanti/GoDocQA/internal/rag/prompt"
)

// Provider sends an assembled prompt to a chat-completion API.
// An empty model means the provider's configured default.
type Provider interface {
	Complete(ctx context.Context, p prompt.Prompt, model string) (string, error)
}
