package adapter

import (
	"fmt"
	"time"

	"github.com/akolanti/GoDocQA/internal/api"
	"github.com/akolanti/GoDocQA/internal/domain/commonModels"
	"github.com/akolanti/GoDocQA/internal/domain/jobModel"
)

func ToInitJobResponse(id string, sessionId string) api.InitJobResponse {
	return api.InitJobResponse{
		Id:        id,
		StatusURL: fmt.Sprintf("status/%s", id),
		SessionId: sessionId,
	}
}

func ToAPIResponse(job jobModel.Job) api.JobResponse {

	var errorPtr *api.JobOutgoingError
	if job.Error.Message != "" || job.Error.Code != 0 {
		errorPtr = &api.JobOutgoingError{
			Code:    job.Error.Code,
			Message: job.Error.Message,
			Retry:   job.Error.Retry,
		}
	}

	result := api.Result{
		Status:      string(job.Status),
		CurrentStep: string(job.CurrentStep),
	}
	if job.JobType == jobModel.JobTypeIngest {
		result.IngestResponse = ToIngestResponse(job.JobPayload)
	} else {
		result.RAGExternalResponse = ToRAGExternalStatus(job.JobPayload)
	}

	return api.JobResponse{
		Id:        job.Id,
		ChatId:    job.ChatId,
		StartTime: job.CreatedTime,
		EndTime:   job.EndTime,
		Error:     errorPtr,
		Result:    result,
	}
}

func ToRAGExternalStatus(ragData jobModel.JobPayload) *api.RAGResponse {
	if ragData.Answer == "" && len(ragData.Sources) == 0 {
		return nil
	}

	return &api.RAGResponse{
		Question: ragData.Question,
		Answer:   ragData.Answer,
		Sources:  ragData.Sources,
		Mode:     string(ragData.Mode),
		Warning:  ragData.Warning,
	}
}

// ToIngestResponse is nil until the document has been measured.
func ToIngestResponse(payload jobModel.JobPayload) *api.IngestResponse {
	if payload.Mode == "" {
		return nil
	}
	return &api.IngestResponse{
		DocumentName: payload.IngestFileName,
		Mode:         string(payload.Mode),
		Pages:        payload.Pages,
		Chars:        payload.Chars,
		ChunkCount:   payload.ChunkCount,
	}
}

func ToHistoryResponse(sessionId string, turns []commonModels.ConversationTurn) api.HistoryResponse {
	out := make([]api.TurnResponse, len(turns))
	for i, t := range turns {
		out[i] = api.TurnResponse{
			Question:  t.Question,
			Answer:    t.Answer,
			Mode:      string(t.Mode),
			Sources:   t.Sources,
			Timestamp: t.Timestamp,
		}
	}
	return api.HistoryResponse{SessionId: sessionId, Turns: out}
}

func BadRequest(id string, error string, code int) api.JobResponse {
	return api.JobResponse{
		Id:        id,
		ChatId:    "",
		StartTime: time.Time{},
		EndTime:   time.Time{},
		Result: api.Result{
			Status: string(api.JobStatusError),
		},
		Error: &api.JobOutgoingError{
			Code:    code,
			Message: error,
			Retry:   false,
		},
	}
}
