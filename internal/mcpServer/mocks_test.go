package mcpServer

import (
	"context"

	"github.com/akolanti/GoDocQA/internal/domain/commonModels"
	"github.com/akolanti/GoDocQA/internal/domain/jobModel"
	"github.com/akolanti/GoDocQA/internal/rag/ingest"
	"github.com/akolanti/GoDocQA/internal/session"
)

type mockRagService struct {
	ingested []ingest.Request
	asked    []string
	closed   []string
	session  *session.Session
	answer   commonModels.Answer
	err      error
}

func (m *mockRagService) Ingest(ctx context.Context, req ingest.Request) (*session.Session, error) {
	m.ingested = append(m.ingested, req)
	return m.session, m.err
}

func (m *mockRagService) Ask(ctx context.Context, sessionId, question, model string) (commonModels.Answer, error) {
	m.asked = append(m.asked, sessionId+"|"+question+"|"+model)
	return m.answer, m.err
}

func (m *mockRagService) HasSession(ctx context.Context, sessionId string) bool {
	return m.session != nil && m.session.Id == sessionId
}

func (m *mockRagService) History(ctx context.Context, sessionId string) ([]commonModels.ConversationTurn, error) {
	return nil, nil
}

func (m *mockRagService) ClearHistory(ctx context.Context, sessionId string) error { return nil }

func (m *mockRagService) CloseSession(ctx context.Context, sessionId string) error {
	m.closed = append(m.closed, sessionId)
	return m.err
}

func (m *mockRagService) ProcessRequest(ctx context.Context, job jobModel.Job) jobModel.Job {
	return job
}

func (m *mockRagService) IngestDocument(ctx context.Context, job jobModel.Job) jobModel.Job {
	return job
}
