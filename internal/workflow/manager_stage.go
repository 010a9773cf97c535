package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"shrinkray/internal/logging"
	"shrinkray/internal/queue"
)

// Stage progress maps into one job-level fraction so a job's persisted
// percent never moves backwards as it advances through the pipeline:
// probing covers 0-10, resolving 10-20 and encoding the remaining 20-100.
const (
	probeBandEnd   = 10.0
	resolveBandEnd = 20.0
)

func (m *Manager) processJob(ctx context.Context, job *queue.Job) error {
	pipeline, ok := m.stages[job.Status]
	if !ok {
		m.logger.Warn("no stage configured for status", logging.String("status", string(job.Status)))
		return nil
	}

	requestID := uuid.NewString()
	stageLogger := m.logger.With(
		logging.String(logging.FieldStage, pipeline.name),
		logging.Int64(logging.FieldItemID, job.ID),
		logging.String(logging.FieldRequestID, requestID),
	)

	if err := m.transitionToProcessing(ctx, pipeline, job); err != nil {
		stageLogger.Error("failed to transition job to processing", logging.Error(err))
		m.setLastError(err)
		return err
	}
	return m.executeStage(ctx, stageLogger, pipeline, job)
}

func (m *Manager) executeStage(ctx context.Context, stageLogger *slog.Logger, pipeline pipelineStage, job *queue.Job) error {
	stageStart := time.Now()
	stageLogger.Info("stage started",
		logging.String(logging.FieldEventType, "stage_start"),
		logging.String("source_file", job.SourcePath))

	if err := pipeline.handler.Prepare(ctx, job); err != nil {
		m.handleStageFailure(ctx, stageLogger, pipeline.name, job, err)
		return err
	}
	if err := m.store.Update(ctx, job); err != nil {
		wrapped := fmt.Errorf("persist stage preparation: %w", err)
		stageLogger.Error("failed to persist stage preparation", logging.Error(wrapped))
		m.setLastError(wrapped)
		return wrapped
	}

	if err := pipeline.handler.Execute(ctx, job); err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			stageLogger.Debug("stage interrupted by shutdown")
			return err
		}
		m.handleStageFailure(ctx, stageLogger, pipeline.name, job, err)
		return err
	}

	if job.Status == pipeline.processingStatus || job.Status == "" {
		job.Status = pipeline.doneStatus
	}
	if job.Status == queue.StatusCompleted && job.ProgressPercent < 100 {
		job.ProgressPercent = 100
	}
	// A stage that finished its work owns the job's terminal state even when
	// shutdown raced it. Persist on a detached context so the cancellation
	// cannot discard an already-earned result.
	persistCtx := ctx
	if ctx.Err() != nil {
		persistCtx = context.WithoutCancel(ctx)
	}
	if err := m.store.Update(persistCtx, job); err != nil {
		wrapped := fmt.Errorf("persist stage result: %w", err)
		stageLogger.Error("failed to persist stage result", logging.Error(wrapped))
		m.setLastError(wrapped)
		return wrapped
	}
	stageLogger.Info("stage completed",
		logging.String(logging.FieldEventType, "stage_complete"),
		logging.String("next_status", string(job.Status)),
		logging.Duration("stage_duration", time.Since(stageStart)))
	return nil
}

func (m *Manager) transitionToProcessing(ctx context.Context, pipeline pipelineStage, job *queue.Job) error {
	job.Status = pipeline.processingStatus
	job.SetProgress(deriveStageLabel(pipeline.processingStatus),
		fmt.Sprintf("%s started", strings.ToLower(deriveStageLabel(pipeline.processingStatus))),
		job.ProgressPercent)
	job.ErrorMessage = ""
	if err := m.store.Update(ctx, job); err != nil {
		return fmt.Errorf("persist processing transition: %w", err)
	}
	return nil
}

func (m *Manager) handleStageFailure(ctx context.Context, stageLogger *slog.Logger, stageName string, job *queue.Job, stageErr error) {
	message := strings.TrimSpace(stageErr.Error())
	if message == "" {
		message = fmt.Sprintf("%s failed", stageName)
	}
	job.SetFailed(message)

	stageLogger.Error("stage failed",
		logging.String(logging.FieldEventType, "stage_failure"),
		logging.String("error_message", message),
		logging.Error(stageErr))

	if err := m.store.Update(ctx, job); err != nil {
		if errors.Is(err, context.Canceled) {
			stageLogger.Debug("shutting down, could not persist stage failure")
		} else {
			stageLogger.Error("failed to persist stage failure", logging.Error(err))
		}
	}
	m.setLastError(stageErr)
}

func deriveStageLabel(status queue.Status) string {
	switch status {
	case queue.StatusProbing:
		return "Probing"
	case queue.StatusResolving:
		return "Resolving"
	case queue.StatusEncoding:
		return "Encoding"
	case queue.StatusCompleted:
		return "Completed"
	case queue.StatusFailed:
		return "Failed"
	default:
		if status == "" {
			return ""
		}
		return strings.ToUpper(string(status)[:1]) + string(status)[1:]
	}
}
