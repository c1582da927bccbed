package rag

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/akolanti/GoDocQA/internal/domain/commonModels"
	"github.com/akolanti/GoDocQA/internal/domain/docErrors"
	"github.com/akolanti/GoDocQA/internal/domain/jobModel"
	"github.com/akolanti/GoDocQA/internal/metrics"
	"github.com/akolanti/GoDocQA/internal/rag/prompt"
	"github.com/akolanti/GoDocQA/internal/rag/retry"
	"github.com/akolanti/GoDocQA/internal/session"
	"github.com/akolanti/GoDocQA/pkg/logger_i"
)

func returnOutput(job jobModel.Job, ans commonModels.Answer) jobModel.Job {
	job.JobPayload.Answer = ans.Text
	job.JobPayload.Sources = ans.Sources
	job.JobPayload.Mode = ans.Mode
	job.JobPayload.Warning = ans.Warning
	job.CurrentStep = jobModel.Complete
	return job
}

func logOutput(job jobModel.Job, status jobModel.InternalStatus, log *logger_i.Logger) jobModel.Job {
	job.CurrentStep = status
	log.Debug("ProcessRequest", "Current Status", job.CurrentStep)
	return job
}

// jobError records err on the job. Caller mistakes are reported verbatim,
// everything else gets a generic message.
func (s *service) jobError(ctx context.Context, job jobModel.Job, err error, message string) jobModel.Job {
	s.logger.FromContext(ctx).Error(message, "jobId", job.Id, "step", job.CurrentStep, "error", err)

	jobErr := jobModel.JobError{Code: http.StatusInternalServerError, Message: "Internal Server Error", Retry: true}
	var apiErr *docErrors.ApiError
	switch {
	case errors.Is(err, docErrors.ErrSessionNotFound):
		jobErr = jobModel.JobError{Code: http.StatusNotFound, Message: err.Error()}
	case docErrors.IsConfig(err), docErrors.IsExtraction(err):
		jobErr = jobModel.JobError{Code: http.StatusBadRequest, Message: err.Error()}
	case errors.As(err, &apiErr):
		jobErr = jobModel.JobError{
			Code:    http.StatusBadGateway,
			Message: fmt.Sprintf("%s service failed after %d attempt(s)", apiErr.Service, apiErr.Attempts),
			Retry:   apiErr.Retryable,
		}
	}

	job.Error = jobErr
	job.Status = jobModel.JobStatusError
	return job
}

func (s *service) executeRetrievalStep(ctx context.Context, sess *session.Session, question string) (commonModels.RetrievalResult, error) {
	if sess.Index == nil {
		return commonModels.RetrievalResult{}, &docErrors.EmptyIndexError{DocumentId: sess.Document.Id}
	}
	return s.retriever.Retrieve(ctx, question, sess.Index, s.options.TopK)
}

func (s *service) executePromptStep(ctx context.Context, log *logger_i.Logger, sess *session.Session, question string, result commonModels.RetrievalResult) (prompt.Prompt, error) {
	p, err := prompt.Assemble(question, sess.Document.Mode, sess.Document.Text, result, s.options.MaxPromptBudget)
	if err != nil {
		return p, err
	}
	if p.Warning != nil {
		metrics.IncrementPromptTruncations()
		log.Warn("prompt truncated to fit budget", "kept", p.Warning.Kept, "dropped", p.Warning.Dropped, "budget", p.Warning.Budget)
	}
	return p, nil
}

func (s *service) executeLLMStep(ctx context.Context, p prompt.Prompt, model string) (string, int, error) {
	start := time.Now()
	defer func() { metrics.CaptureExecutionMetrics("llm_generation", time.Since(start)) }()

	return retry.Do(ctx, s.retry, "llm", "complete", func(ctx context.Context) (string, error) {
		return s.llm.Complete(ctx, p, model)
	})
}

func (s *service) appendHistory(ctx context.Context, log *logger_i.Logger, sessionId string, question string, answer commonModels.Answer) error {
	if s.history == nil {
		return nil
	}
	turn := commonModels.ConversationTurn{
		Question:  question,
		Answer:    answer.Text,
		Mode:      answer.Mode,
		Sources:   answer.Sources,
		Timestamp: time.Now(),
	}
	if err := s.history.AppendTurn(ctx, sessionId, turn); err != nil {
		log.Error("Failed to save chat history", "err", err)
		return err
	}
	return nil
}

func addWarning(answer *commonModels.Answer, warning string) {
	if answer.Warning == "" {
		answer.Warning = warning
		return
	}
	answer.Warning += "; " + warning
}

// sources cites what the prompt actually carried: the whole document, or the
// excerpts that survived the budget.
func sources(doc commonModels.Document, result commonModels.RetrievalResult, p prompt.Prompt) []string {
	if doc.Mode == commonModels.ModeFull {
		return []string{doc.Name}
	}
	kept := result.Matches[:min(p.Kept, len(result.Matches))]
	out := make([]string, len(kept))
	for i, m := range kept {
		out[i] = fmt.Sprintf("%s#chunk-%d (%.3f)", doc.Name, m.Chunk.Ordinal, m.Score)
	}
	return out
}
