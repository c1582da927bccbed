package openaiLLM

import (
	"context"
	"errors"

	"github.com/akolanti/GoDocQA/internal/config"
	"github.com/akolanti/GoDocQA/internal/rag/llm"
	"github.com/akolanti/GoDocQA/internal/rag/prompt"
	"github.com/akolanti/GoDocQA/internal/rag/retry"
	"github.com/akolanti/GoDocQA/pkg/logger_i"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

const serviceName = "openai"

type client struct {
	api       openai.Client
	modelName string
	logger    *logger_i.Logger
}

func New(apiKey string, modelName string, opts ...option.RequestOption) llm.Provider {
	base := []option.RequestOption{option.WithAPIKey(apiKey), option.WithMaxRetries(0)}
	return &client{
		api:       openai.NewClient(append(base, opts...)...),
		modelName: modelName,
		logger:    logger_i.NewLogger("llm_openai"),
	}
}

func (c *client) Complete(ctx context.Context, p prompt.Prompt, model string) (string, error) {
	log := c.logger.FromContext(ctx)
	if model == "" {
		model = c.modelName
	}

	resp, err := c.api.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(p.System),
			openai.UserMessage(p.User),
		},
		Temperature: openai.Float(float64(config.ModelTemperature)),
		MaxTokens:   openai.Int(config.MaxOutputTokens),
	})
	if err != nil {
		log.Error("OpenAI completion failed", "model", model, "error", err)
		return "", retry.FromOpenAI(serviceName, "complete", err)
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return "", retry.FromOpenAI(serviceName, "complete", errors.New("response has no content"))
	}
	log.Debug("OpenAI answered", "model", model, "finish_reason", resp.Choices[0].FinishReason)
	return resp.Choices[0].Message.Content, nil
}
