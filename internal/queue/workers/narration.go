// Package workers contains asynq task handlers for the narration queue.
package workers

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	"github.com/nikhilbhutani/pdfnarrator/internal/cache"
	"github.com/nikhilbhutani/pdfnarrator/internal/jobs"
	"github.com/nikhilbhutani/pdfnarrator/internal/models"
	"github.com/nikhilbhutani/pdfnarrator/internal/pipeline"
	"github.com/nikhilbhutani/pdfnarrator/internal/queue"
)

type jobStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.NarrationJob, error)
	MarkProcessing(ctx context.Context, id uuid.UUID) error
	MarkDone(ctx context.Context, id uuid.UUID, audioFiles []string, combined, timingFile string) error
	MarkFailed(ctx context.Context, id uuid.UUID, message string) error
}

type jobProcessor interface {
	Process(ctx context.Context, req models.ProcessingRequest) pipeline.ProcessingResult
}

type statusCache interface {
	SetJobStatus(ctx context.Context, jobID string, snapshot interface{}) error
	AcquireJobLock(ctx context.Context, jobID string) (bool, error)
	ReleaseJobLock(ctx context.Context, jobID string) error
}

// NarrationWorker runs one narration job per task: load the stored job, run
// the pipeline, persist the outcome. Pipeline failures are recorded on the
// job; only failures marked retryable bounce back to asynq for another
// attempt.
type NarrationWorker struct {
	store jobStore
	pipe  jobProcessor
	cache statusCache
}

func NewNarrationWorker(store *jobs.Store, pipe *pipeline.Pipeline, c *cache.Cache) *NarrationWorker {
	w := &NarrationWorker{store: store, pipe: pipe}
	if c != nil {
		w.cache = c
	}
	return w
}

func (w *NarrationWorker) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var payload queue.NarrationProcessPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("unmarshal payload: %v: %w", err, asynq.SkipRetry)
	}
	jobID, err := uuid.Parse(payload.JobID)
	if err != nil {
		return fmt.Errorf("parse job ID: %v: %w", err, asynq.SkipRetry)
	}

	job, err := w.store.GetByID(ctx, jobID)
	if err != nil {
		return fmt.Errorf("load job %s: %w", jobID, err)
	}
	if job.Status == models.JobStatusDone {
		slog.Info("job already done, skipping", "job_id", jobID)
		return nil
	}

	if w.cache != nil {
		locked, err := w.cache.AcquireJobLock(ctx, jobID.String())
		if err == nil && !locked {
			slog.Info("job locked by another worker, skipping duplicate delivery", "job_id", jobID)
			return nil
		}
		// Release with a fresh context: the task context may already be
		// canceled by the time the pipeline returns.
		defer w.cache.ReleaseJobLock(context.Background(), jobID.String())
	}

	slog.Info("processing narration job", "job_id", jobID, "pdf", job.PDFPath, "read_along", job.ReadAlong)

	if err := w.store.MarkProcessing(ctx, jobID); err != nil {
		return fmt.Errorf("mark processing: %w", err)
	}
	w.cacheStatus(ctx, job, models.JobStatusProcessing, "")

	result := w.pipe.Process(ctx, job.Request())
	if !result.Success {
		msg := result.Failure.Error()
		slog.Error("narration job failed", "job_id", jobID, "failure", msg, "retryable", result.Failure.Retryable)
		if err := w.store.MarkFailed(ctx, jobID, msg); err != nil {
			return fmt.Errorf("mark failed: %w", err)
		}
		w.cacheStatus(ctx, job, models.JobStatusFailed, msg)
		if result.Failure.Retryable {
			return fmt.Errorf("retryable failure: %s", msg)
		}
		return nil
	}

	if err := w.store.MarkDone(ctx, jobID, result.AudioFiles, result.CombinedMP3, result.TimingFile); err != nil {
		return fmt.Errorf("mark done: %w", err)
	}
	job.Status = models.JobStatusDone
	job.AudioFiles = result.AudioFiles
	job.CombinedFile = result.CombinedMP3
	job.TimingFile = result.TimingFile
	w.cacheStatus(ctx, job, models.JobStatusDone, "")

	slog.Info("narration job done", "job_id", jobID,
		"files", len(result.AudioFiles), "combined", result.CombinedMP3, "timing", result.TimingFile)
	return nil
}

// cacheStatus refreshes the Redis snapshot; cache failures are logged, never
// fatal, since Postgres stays authoritative.
func (w *NarrationWorker) cacheStatus(ctx context.Context, job *models.NarrationJob, status, errMsg string) {
	if w.cache == nil {
		return
	}
	snapshot := *job
	snapshot.Status = status
	snapshot.Error = errMsg
	if err := w.cache.SetJobStatus(ctx, job.ID.String(), snapshot); err != nil {
		slog.Warn("caching job status failed", "job_id", job.ID, "error", err)
	}
}
