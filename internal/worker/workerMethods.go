package worker

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/akolanti/GoDocQA/internal/config"
	jobmodel "github.com/akolanti/GoDocQA/internal/domain/jobModel"
	"github.com/akolanti/GoDocQA/internal/metrics"
)

// executeJob runs a job and stores its final state. The rag service applies
// the per-type timeout.
func executeJob(job jobmodel.Job) {
	start := time.Now()
	ctx := context.WithValue(context.Background(), config.TRACE_ID_KEY, job.TraceId)
	log := logger.FromContext(ctx)
	log.Debug("Processing job", "jobId", job.Id, "type", job.JobType)

	saveJobState(ctx, job, jobmodel.JobStatusRunning)

	switch job.JobType {
	case jobmodel.JobTypeIngest:
		job.CurrentStep = jobmodel.IngestProcessing
		job = _ragService.IngestDocument(ctx, job)
	default:
		job.CurrentStep = jobmodel.RAGCall
		job = _ragService.ProcessRequest(ctx, job)
	}

	job.EndTime = time.Now()
	finalStatus := jobmodel.JobStatusComplete
	if job.Status == jobmodel.JobStatusError {
		finalStatus = jobmodel.JobStatusError
		log.Warn("Job failed", "jobId", job.Id, "code", job.Error.Code, "step", job.CurrentStep)
	}
	saveJobState(ctx, job, finalStatus)
	metrics.CaptureJobMetrics(string(finalStatus), time.Since(start))
}

func removeWorker(reason string) {
	remaining := atomic.AddInt64(&currentWorkerCount, -1)
	metrics.DecrementActiveWorkerCount()
	logger.Info("Removed worker", "reason", reason, "workerCount", remaining)
	workerWaitGroup.Done()
}

func saveJobState(ctx context.Context, job jobmodel.Job, jobStatus jobmodel.JobStatus) {
	job.Status = jobStatus
	if err := _jobService.JobStore.SaveJob(ctx, job); err != nil {
		logger.FromContext(ctx).Error("Failed to update job status", "jobId", job.Id, "err", err)
	}
}
