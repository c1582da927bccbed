package rag

import (
	"context"
	"errors"
	"os"
	"strings"
	"time"

	"github.com/akolanti/GoDocQA/internal/config"
	"github.com/akolanti/GoDocQA/internal/domain/commonModels"
	"github.com/akolanti/GoDocQA/internal/domain/docErrors"
	"github.com/akolanti/GoDocQA/internal/domain/jobModel"
	"github.com/akolanti/GoDocQA/internal/metrics"
	"github.com/akolanti/GoDocQA/internal/rag/ingest"
	"github.com/akolanti/GoDocQA/internal/rag/llm"
	"github.com/akolanti/GoDocQA/internal/rag/retriever"
	"github.com/akolanti/GoDocQA/internal/rag/retry"
	"github.com/akolanti/GoDocQA/internal/session"
	"github.com/akolanti/GoDocQA/pkg/logger_i"
	"github.com/google/uuid"
)

/*
Service is the only thing the worker, the CLI and the MCP server talk to.
The private service struct holds the pipeline, the session registry and the
LLM client; callers never reach those directly, so tests can swap the whole
service for a mock.

Ingest and Ask are synchronous. ProcessRequest and IngestDocument wrap them
for the job queue and record progress on the job as each step starts.
*/
type Service interface {
	Ingest(ctx context.Context, req ingest.Request) (*session.Session, error)
	Ask(ctx context.Context, sessionId string, question string, model string) (commonModels.Answer, error)
	HasSession(ctx context.Context, sessionId string) bool
	History(ctx context.Context, sessionId string) ([]commonModels.ConversationTurn, error)
	ClearHistory(ctx context.Context, sessionId string) error
	CloseSession(ctx context.Context, sessionId string) error

	ProcessRequest(ctx context.Context, job jobModel.Job) jobModel.Job
	IngestDocument(ctx context.Context, job jobModel.Job) jobModel.Job
}

type Dependencies struct {
	Pipeline  *ingest.Pipeline
	Sessions  *session.Registry
	Retriever *retriever.Retriever
	LLM       llm.Provider
	History   jobModel.MessageStore
	Options   config.Options
	Retry     retry.Policy
}

type service struct {
	pipeline  *ingest.Pipeline
	sessions  *session.Registry
	retriever *retriever.Retriever
	llm       llm.Provider
	history   jobModel.MessageStore
	options   config.Options
	retry     retry.Policy
	logger    *logger_i.Logger
}

func NewService(deps Dependencies) Service {
	return &service{
		pipeline:  deps.Pipeline,
		sessions:  deps.Sessions,
		retriever: deps.Retriever,
		llm:       deps.LLM,
		history:   deps.History,
		options:   deps.Options,
		retry:     deps.Retry,
		logger:    logger_i.NewLogger("RAG Service"),
	}
}

func (s *service) Ingest(ctx context.Context, req ingest.Request) (*session.Session, error) {
	if req.DocumentId == "" {
		req.DocumentId = uuid.New().String()
	}
	log := s.logger.FromContext(ctx).With("sessionId", req.DocumentId)

	start := time.Now()
	defer func() { metrics.CaptureExecutionMetrics("document_ingestion", time.Since(start)) }()

	res, err := s.pipeline.Run(ctx, req)
	if err != nil {
		log.Error("ingestion failed", "error", err)
		return nil, err
	}

	sess := &session.Session{
		Id:       req.DocumentId,
		Document: res.Document,
		Index:    res.Index,
	}
	if err := s.sessions.Add(ctx, sess); err != nil {
		return nil, err
	}
	log.Info("document ingested", "mode", res.Document.Mode, "chunks", res.Document.ChunkCount, "embeddingRetries", res.EmbeddingRetries)
	return sess, nil
}

func (s *service) Ask(ctx context.Context, sessionId string, question string, model string) (commonModels.Answer, error) {
	return s.ask(ctx, sessionId, question, model, func(jobModel.InternalStatus) {})
}

// ask answers one question. onStep is told about every step as it starts.
func (s *service) ask(ctx context.Context, sessionId string, question string, model string, onStep func(jobModel.InternalStatus)) (commonModels.Answer, error) {
	log := s.logger.FromContext(ctx).With("sessionId", sessionId)

	if strings.TrimSpace(question) == "" {
		return commonModels.Answer{}, docErrors.NewConfigError("question", "must not be empty")
	}
	if model == "" {
		model = s.options.Model
	}

	onStep(jobModel.SessionLookup)
	sess, err := s.sessions.Get(ctx, sessionId)
	if err != nil {
		return commonModels.Answer{}, err
	}
	mode := sess.Document.Mode

	var result commonModels.RetrievalResult
	if mode == commonModels.ModeRag {
		onStep(jobModel.VectorDBCall)
		result, err = s.executeRetrievalStep(ctx, sess, question)
		if err != nil {
			return commonModels.Answer{Mode: mode, EmbeddingRetries: result.Retries}, err
		}
	}

	onStep(jobModel.PromptAssembly)
	p, err := s.executePromptStep(ctx, log, sess, question, result)
	if err != nil {
		return commonModels.Answer{Mode: mode, EmbeddingRetries: result.Retries}, err
	}

	onStep(jobModel.LLMCall)
	text, completionRetries, err := s.executeLLMStep(ctx, p, model)
	answer := commonModels.Answer{
		Text:              text,
		Mode:              mode,
		Sources:           sources(sess.Document, result, p),
		EmbeddingRetries:  result.Retries,
		CompletionRetries: completionRetries,
	}
	if p.Warning != nil {
		answer.Warning = p.Warning.Error()
	}
	if err != nil {
		log.Error("completion failed", "error", err, "retries", completionRetries)
		return answer, err
	}

	onStep(jobModel.RedisCall)
	if err := s.appendHistory(ctx, log, sessionId, question, answer); err != nil {
		addWarning(&answer, "answer was not saved to history: "+err.Error())
	}
	return answer, nil
}

func (s *service) HasSession(ctx context.Context, sessionId string) bool {
	return s.sessions.Has(ctx, sessionId)
}

func (s *service) History(ctx context.Context, sessionId string) ([]commonModels.ConversationTurn, error) {
	if s.history == nil {
		return nil, nil
	}
	return s.history.GetHistory(ctx, sessionId)
}

func (s *service) ClearHistory(ctx context.Context, sessionId string) error {
	if s.history == nil {
		return nil
	}
	return s.history.ClearHistory(ctx, sessionId)
}

// CloseSession discards the session together with its index and history.
// History is cleared even when the index could not be dropped.
func (s *service) CloseSession(ctx context.Context, sessionId string) error {
	log := s.logger.FromContext(ctx).With("sessionId", sessionId)
	removeErr := s.sessions.Remove(ctx, sessionId)
	if errors.Is(removeErr, docErrors.ErrSessionNotFound) {
		return removeErr
	}
	err := errors.Join(removeErr, s.ClearHistory(ctx, sessionId))
	if err != nil {
		log.Error("session was not fully closed", "error", err)
		return err
	}
	log.Info("session closed")
	return nil
}

func (s *service) ProcessRequest(ctx context.Context, jobt jobModel.Job) jobModel.Job {
	log := s.logger.FromContext(ctx).With("JobId", jobt.Id)

	processContext, cancel := context.WithTimeout(ctx, config.QueryJobTimeout)
	defer cancel()

	jobt.CurrentStep = jobModel.RAGCall
	answer, err := s.ask(processContext, jobt.ChatId, jobt.JobPayload.Question, jobt.JobPayload.Model, func(step jobModel.InternalStatus) {
		jobt = logOutput(jobt, step, log)
	})
	if err != nil {
		return s.jobError(ctx, jobt, err, "QUERY_FAILURE")
	}
	return returnOutput(jobt, answer)
}

// IngestDocument ingests the uploaded file at IngestURL into the session
// named by the job's ChatId. The upload is removed afterwards either way.
func (s *service) IngestDocument(ctx context.Context, jobt jobModel.Job) jobModel.Job {
	log := s.logger.FromContext(ctx).With("JobId", jobt.Id)
	defer func() {
		if err := os.Remove(jobt.JobPayload.IngestURL); err != nil && !os.IsNotExist(err) {
			log.Warn("could not remove uploaded file", "path", jobt.JobPayload.IngestURL, "error", err)
		}
	}()

	ingestContext, cancel := context.WithTimeout(ctx, config.IngestJobTimeout)
	defer cancel()

	jobt = logOutput(jobt, jobModel.IngestExtracting, log)
	sess, err := s.Ingest(ingestContext, ingest.Request{
		DocumentId: jobt.ChatId,
		Name:       jobt.JobPayload.IngestFileName,
		Path:       jobt.JobPayload.IngestURL,
	})
	if err != nil {
		return s.jobError(ctx, jobt, err, "INGESTION_FAILURE")
	}

	doc := sess.Document
	jobt.ChatId = sess.Id
	jobt.JobPayload.Mode = doc.Mode
	jobt.JobPayload.Pages = doc.Measure.Pages
	jobt.JobPayload.Chars = doc.Measure.Chars
	jobt.JobPayload.ChunkCount = doc.ChunkCount
	jobt.CurrentStep = jobModel.Complete
	return jobt
}
