package openaiLLM

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/akolanti/GoDocQA/internal/domain/docErrors"
	"github.com/akolanti/GoDocQA/internal/rag/prompt"
	"github.com/openai/openai-go/option"
)

type chatRequest struct {
	Model    string `json:"model"`
	Messages []struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"messages"`
	Temperature float64 `json:"temperature"`
}

func TestComplete_SendsSystemAndUser(t *testing.T) {
	var got chatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("bad request body: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"c1","object":"chat.completion","created":1,"model":"gpt-4o",
			"choices":[{"index":0,"finish_reason":"stop","message":{"role":"assistant","content":"42"}}]}`))
	}))
	defer srv.Close()

	p := New("key", "gpt-4o", option.WithBaseURL(srv.URL+"/"))
	answer, err := p.Complete(context.Background(), prompt.Prompt{System: "sys", User: "question"}, "")
	if err != nil {
		t.Fatalf("Complete failed: %v", err)
	}
	if answer != "42" {
		t.Errorf("answer = %q", answer)
	}
	if got.Model != "gpt-4o" || len(got.Messages) != 2 {
		t.Fatalf("unexpected request %+v", got)
	}
	if got.Messages[0].Role != "system" || got.Messages[0].Content != "sys" || got.Messages[1].Content != "question" {
		t.Errorf("messages = %+v", got.Messages)
	}
	if got.Temperature < 0.19 || got.Temperature > 0.21 {
		t.Errorf("temperature = %v", got.Temperature)
	}
}

func TestComplete_ModelOverride(t *testing.T) {
	var got chatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&got)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"c1","object":"chat.completion","created":1,"model":"gpt-4o-mini",
			"choices":[{"index":0,"finish_reason":"stop","message":{"role":"assistant","content":"ok"}}]}`))
	}))
	defer srv.Close()

	p := New("key", "gpt-4o", option.WithBaseURL(srv.URL+"/"))
	if _, err := p.Complete(context.Background(), prompt.Prompt{System: "s", User: "u"}, "gpt-4o-mini"); err != nil {
		t.Fatal(err)
	}
	if got.Model != "gpt-4o-mini" {
		t.Errorf("model = %q", got.Model)
	}
}

func TestComplete_ServerErrorIsRetryable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`{"error":{"message":"overloaded","type":"server_error"}}`))
	}))
	defer srv.Close()

	p := New("key", "gpt-4o", option.WithBaseURL(srv.URL+"/"))
	_, err := p.Complete(context.Background(), prompt.Prompt{System: "s", User: "u"}, "")

	apiErr, ok := err.(*docErrors.ApiError)
	if !ok || !apiErr.Retryable || apiErr.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("expected retryable 503 ApiError, got %v", err)
	}
}
