package gemini

import (
	"context"
	"errors"
	"net/http"
	"sync"

	"github.com/akolanti/GoDocQA/internal/config"
	"github.com/akolanti/GoDocQA/internal/rag/llm"
	"github.com/akolanti/GoDocQA/internal/rag/prompt"
	"github.com/akolanti/GoDocQA/internal/rag/retry"
	"github.com/akolanti/GoDocQA/pkg/logger_i"
	"google.golang.org/genai"
)

const serviceName = "gemini"

type llmClient struct {
	client    *genai.Client
	modelName string
}

var logger *logger_i.Logger
var geminiClient *llmClient
var once sync.Once

func GetGeminiClient(ctx context.Context, apikey string, modelName string, httpClient *http.Client) llm.Provider {
	once.Do(func() {
		logger = logger_i.NewLogger("llm_gemini")
		newGeminiClient(ctx, apikey, modelName, httpClient)
	})

	if geminiClient == nil {
		return nil
	}
	return &llmClient{client: geminiClient.client, modelName: geminiClient.modelName}
}

func newGeminiClient(ctx context.Context, apikey string, modelName string, httpClient *http.Client) {
	c, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: apikey, Backend: genai.BackendGeminiAPI, HTTPClient: httpClient})
	if err != nil {
		logger.Error("Error creating Gemini client:", "error", err)
	}
	if c != nil {
		geminiClient = &llmClient{client: c, modelName: modelName}
		logger.Info("Gemini client created", "model", modelName)
		go closeClient(ctx)
	}
}

func (c *llmClient) Complete(ctx context.Context, p prompt.Prompt, model string) (string, error) {
	log := logger.FromContext(ctx)
	if model == "" {
		model = c.modelName
	}

	contentConfig := &genai.GenerateContentConfig{
		SystemInstruction: &genai.Content{
			Parts: []*genai.Part{{Text: p.System}},
		},
		Temperature:     genai.Ptr(config.ModelTemperature),
		MaxOutputTokens: config.MaxOutputTokens,
	}

	result, err := c.client.Models.GenerateContent(ctx, model, genai.Text(p.User), contentConfig)
	if err != nil {
		log.Error("Gemini generation failed", "model", model, "error", err)
		return "", retry.FromGenAI(serviceName, "complete", err)
	}
	if result == nil {
		return "", retry.FromGenAI(serviceName, "complete", errors.New("empty response"))
	}
	text := result.Text()
	if text == "" {
		return "", retry.FromGenAI(serviceName, "complete", errors.New("response has no text"))
	}
	log.Debug("Gemini answered", "model", model, "chars", len(text))
	return text, nil
}

func closeClient(ctx context.Context) {
	<-ctx.Done()
	logger.Info("Closing Gemini client")
}
