package rag_test

import (
	"context"
	"strings"
	"sync"

	"github.com/akolanti/GoDocQA/internal/domain/commonModels"
	"github.com/akolanti/GoDocQA/internal/rag/ingest"
	"github.com/akolanti/GoDocQA/internal/rag/prompt"
)

// MockExtractor implements ingest.Extractor
type MockExtractor struct {
	OnExtract func(ctx context.Context, path string, format commonModels.DocType) (ingest.Extraction, error)
}

func (m *MockExtractor) Extract(ctx context.Context, path string, format commonModels.DocType, progress ingest.ProgressFunc) (ingest.Extraction, error) {
	if m.OnExtract != nil {
		return m.OnExtract(ctx, path, format)
	}
	return pages(1), nil
}

func pages(n int) ingest.Extraction {
	text := strings.Repeat("The quick brown fox jumps over the lazy dog. ", n*30)
	return ingest.Extraction{Text: text, Measure: commonModels.LengthMeasure{Pages: n, HasPages: true, Chars: len(text)}}
}

// MockEmbedder implements embedding.Embedder
type MockEmbedder struct {
	mu               sync.Mutex
	QueryCalls       int
	BatchCalls       int
	OnGetEmbedding   func(ctx context.Context, text string, call int) ([]float32, error)
	OnBatchEmbedding func(ctx context.Context, chunks []string) ([][]float32, error)
}

func (m *MockEmbedder) BatchEmbedding(ctx context.Context, chunks []string) ([][]float32, error) {
	m.mu.Lock()
	m.BatchCalls++
	m.mu.Unlock()
	if m.OnBatchEmbedding != nil {
		return m.OnBatchEmbedding(ctx, chunks)
	}
	vectors := make([][]float32, len(chunks))
	for i := range chunks {
		vectors[i] = []float32{1, 0.5}
	}
	return vectors, nil
}

func (m *MockEmbedder) GetEmbedding(ctx context.Context, query string) ([]float32, error) {
	m.mu.Lock()
	m.QueryCalls++
	call := m.QueryCalls
	m.mu.Unlock()
	if m.OnGetEmbedding != nil {
		return m.OnGetEmbedding(ctx, query, call)
	}
	return []float32{1, 0.5}, nil
}

// MockLLM implements llm.Provider
type MockLLM struct {
	Calls      int
	LastPrompt prompt.Prompt
	LastModel  string
	OnComplete func(ctx context.Context, p prompt.Prompt, model string) (string, error)
}

func (m *MockLLM) Complete(ctx context.Context, p prompt.Prompt, model string) (string, error) {
	m.Calls++
	m.LastPrompt = p
	m.LastModel = model
	if m.OnComplete != nil {
		return m.OnComplete(ctx, p, model)
	}
	return "mocked llm response", nil
}

// MockHistory implements jobModel.MessageStore
type MockHistory struct {
	mu        sync.Mutex
	turns     map[string][]commonModels.ConversationTurn
	AppendErr error
}

func NewMockHistory() *MockHistory {
	return &MockHistory{turns: map[string][]commonModels.ConversationTurn{}}
}

func (m *MockHistory) AppendTurn(ctx context.Context, id string, turn commonModels.ConversationTurn) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.AppendErr != nil {
		return m.AppendErr
	}
	m.turns[id] = append(m.turns[id], turn)
	return nil
}

func (m *MockHistory) GetHistory(ctx context.Context, id string) ([]commonModels.ConversationTurn, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]commonModels.ConversationTurn(nil), m.turns[id]...), nil
}

func (m *MockHistory) ClearHistory(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.turns, id)
	return nil
}
