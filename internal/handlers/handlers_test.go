package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/akolanti/GoDocQA/internal/api"
	"github.com/akolanti/GoDocQA/internal/data/store"
	"github.com/akolanti/GoDocQA/internal/domain/commonModels"
	"github.com/akolanti/GoDocQA/internal/domain/docErrors"
	"github.com/akolanti/GoDocQA/internal/domain/jobModel"
	"github.com/akolanti/GoDocQA/internal/job"
	"github.com/akolanti/GoDocQA/internal/rag/ingest"
	"github.com/akolanti/GoDocQA/internal/session"
	"github.com/go-chi/chi/v5"
)

type fakeRag struct {
	sessions map[string]bool
	history  map[string][]commonModels.ConversationTurn
}

func (f *fakeRag) Ingest(ctx context.Context, req ingest.Request) (*session.Session, error) {
	return nil, nil
}
func (f *fakeRag) Ask(ctx context.Context, sessionId, question, model string) (commonModels.Answer, error) {
	return commonModels.Answer{}, nil
}
func (f *fakeRag) HasSession(ctx context.Context, sessionId string) bool { return f.sessions[sessionId] }
func (f *fakeRag) History(ctx context.Context, sessionId string) ([]commonModels.ConversationTurn, error) {
	return f.history[sessionId], nil
}
func (f *fakeRag) ClearHistory(ctx context.Context, sessionId string) error {
	delete(f.history, sessionId)
	return nil
}
func (f *fakeRag) CloseSession(ctx context.Context, sessionId string) error {
	if !f.sessions[sessionId] {
		return docErrors.ErrSessionNotFound
	}
	delete(f.sessions, sessionId)
	delete(f.history, sessionId)
	return nil
}
func (f *fakeRag) ProcessRequest(ctx context.Context, j jobModel.Job) jobModel.Job { return j }
func (f *fakeRag) IngestDocument(ctx context.Context, j jobModel.Job) jobModel.Job { return j }

func setup(t *testing.T) (*job.Service, *fakeRag, http.Handler) {
	t.Helper()
	rag := &fakeRag{
		sessions: map[string]bool{"known": true},
		history: map[string][]commonModels.ConversationTurn{
			"known": {{Question: "q1", Answer: "a1", Mode: commonModels.ModeFull}},
		},
	}
	svc := job.InitJobService(job.ServiceConfig{
		JobChannel:        make(chan jobModel.Job, 10),
		DispatcherChannel: make(chan bool, 1),
		JobStore:          store.InitInMemoryJobStore(),
		Rag:               rag,
	})
	handlerInstance = &JobHandler{service: svc}
	uploadDirectory = t.TempDir()

	r := chi.NewRouter()
	r.Get("/health", GetHandler)
	r.Post("/chat", ChatHandler)
	r.Get("/status/{id}", GetStatusHandler)
	r.Post("/ingest", PostIngestHandler)
	r.Get("/history/{session_id}", GetHistoryHandler)
	r.Delete("/history/{session_id}", DeleteHistoryHandler)
	r.Delete("/sessions/{session_id}", DeleteSessionHandler)
	return svc, rag, r
}

func TestHealth(t *testing.T) {
	_, _, r := setup(t)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var body api.HealthResponse
	_ = json.NewDecoder(rec.Body).Decode(&body)
	if body.Status != "ok" {
		t.Errorf("body = %+v", body)
	}
}

func TestChatHandler(t *testing.T) {
	tests := []struct {
		name         string
		body         string
		expectedCode int
	}{
		{"Valid", `{"message":"what?","session_id":"known","model":"gpt-4o"}`, http.StatusAccepted},
		{"Unknown_Session", `{"message":"what?","session_id":"nope"}`, http.StatusBadRequest},
		{"Missing_Session", `{"message":"what?"}`, http.StatusBadRequest},
		{"Empty_Message", `{"message":"","session_id":"known"}`, http.StatusBadRequest},
		{"Bad_JSON", `{"message":`, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _, r := setup(t)
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/chat", bytes.NewBufferString(tt.body)))

			if rec.Code != tt.expectedCode {
				t.Fatalf("status = %d; want %d", rec.Code, tt.expectedCode)
			}
			if tt.expectedCode != http.StatusAccepted {
				return
			}

			var res api.InitJobResponse
			if err := json.NewDecoder(rec.Body).Decode(&res); err != nil {
				t.Fatal(err)
			}
			queued := <-svc.JobChannel
			if queued.Id != res.Id || queued.ChatId != "known" || queued.JobPayload.Model != "gpt-4o" {
				t.Errorf("unexpected queued job %+v", queued)
			}
			if queued.JobType != jobModel.JobTypeQuery || queued.JobPayload.Question != "what?" {
				t.Errorf("unexpected queued job %+v", queued)
			}
			if _, found := svc.JobStore.GetJob(context.Background(), res.Id); !found {
				t.Error("queued job should be visible to the status endpoint")
			}
		})
	}
}

func TestGetStatusHandler(t *testing.T) {
	svc, _, r := setup(t)
	_ = svc.JobStore.SaveJob(context.Background(), jobModel.Job{
		Id:         "job-1",
		ChatId:     "known",
		JobType:    jobModel.JobTypeQuery,
		Status:     jobModel.JobStatusComplete,
		JobPayload: jobModel.JobPayload{Question: "q", Answer: "a", Mode: commonModels.ModeRag},
	})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/status/job-1", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var res api.JobResponse
	_ = json.NewDecoder(rec.Body).Decode(&res)
	if res.Result.RAGExternalResponse == nil || res.Result.RAGExternalResponse.Answer != "a" || res.Result.RAGExternalResponse.Mode != "rag" {
		t.Errorf("unexpected response %+v", res)
	}

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/status/missing", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("missing job status = %d", rec.Code)
	}
}

func multipartUpload(t *testing.T, fileName string, content string) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	part, err := w.CreateFormFile("document", fileName)
	if err != nil {
		t.Fatal(err)
	}
	_, _ = part.Write([]byte(content))
	_ = w.Close()
	return body, w.FormDataContentType()
}

func TestPostIngestHandler(t *testing.T) {
	svc, _, r := setup(t)
	body, contentType := multipartUpload(t, "notes.txt", "hello document")

	req := httptest.NewRequest(http.MethodPost, "/ingest", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusAccepted {
		t.Fatalf("status = %d body=%s", rec.Code, rec.Body.String())
	}
	var res api.InitJobResponse
	_ = json.NewDecoder(rec.Body).Decode(&res)
	if res.SessionId == "" {
		t.Error("ingest should return the session id the document will belong to")
	}

	queued := <-svc.JobChannel
	if queued.JobType != jobModel.JobTypeIngest || queued.ChatId != res.SessionId {
		t.Errorf("unexpected queued job %+v", queued)
	}
	if queued.JobPayload.IngestFileName != "notes.txt" {
		t.Errorf("document name should default to the file name, got %q", queued.JobPayload.IngestFileName)
	}
	data, err := os.ReadFile(queued.JobPayload.IngestURL)
	if err != nil || string(data) != "hello document" {
		t.Errorf("upload not stored: %v", err)
	}
	select {
	case <-svc.DispatcherChannel:
	default:
		t.Error("ingestion should signal the dispatcher")
	}
}

func TestPostIngestHandler_RejectsUnsupportedFormat(t *testing.T) {
	svc, _, r := setup(t)
	body, contentType := multipartUpload(t, "photo.png", "not text")

	req := httptest.NewRequest(http.MethodPost, "/ingest", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d", rec.Code)
	}
	if len(svc.JobChannel) != 0 {
		t.Error("no job should be queued")
	}
}

func TestHistoryHandlers(t *testing.T) {
	_, rag, r := setup(t)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/history/known", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var res api.HistoryResponse
	_ = json.NewDecoder(rec.Body).Decode(&res)
	if len(res.Turns) != 1 || res.Turns[0].Answer != "a1" {
		t.Errorf("unexpected history %+v", res)
	}

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/history/known", nil))
	if rec.Code != http.StatusNoContent {
		t.Fatalf("delete status = %d", rec.Code)
	}
	if len(rag.history["known"]) != 0 {
		t.Error("history should be cleared")
	}

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/history/unknown", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("unknown session status = %d", rec.Code)
	}
}

func TestDeleteSessionHandler(t *testing.T) {
	_, rag, r := setup(t)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/sessions/known", nil))
	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d", rec.Code)
	}
	if rag.sessions["known"] || len(rag.history["known"]) != 0 {
		t.Error("session and history should be discarded")
	}

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/history/known", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("closed session history status = %d; want 404", rec.Code)
	}

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/sessions/known", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("second delete status = %d; want 404", rec.Code)
	}
}
