package workflow

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"shrinkray/internal/logging"
	"shrinkray/internal/queue"
)

// ErrAlreadyRunning is returned when a second batch is started while one is
// still in flight.
var ErrAlreadyRunning = errors.New("workflow already running")

// RunAll processes every actionable job in the queue sequentially until it
// drains or the context is cancelled. Job failures are recorded and do not
// stop the batch. The batch callback fires exactly once per call, with the
// summary as of the moment the run ended.
func (m *Manager) RunAll(ctx context.Context) (Summary, error) {
	m.mu.Lock()
	if m.running {
		m.mu.Unlock()
		return Summary{}, ErrAlreadyRunning
	}
	m.running = true
	m.mu.Unlock()
	defer func() {
		m.mu.Lock()
		m.running = false
		m.mu.Unlock()
	}()

	var (
		summary Summary
		once    sync.Once
	)
	finish := func() {
		once.Do(func() {
			if m.onBatchDone != nil {
				m.onBatchDone(summary)
			}
		})
	}
	defer finish()

	for {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		job, err := m.store.NextForStatuses(ctx, m.actionableStatuses()...)
		if err != nil {
			return summary, fmt.Errorf("next job: %w", err)
		}
		if job == nil {
			break
		}

		// Stage failures are persisted on the job; only cancellation
		// stops the batch.
		_ = m.processJob(ctx, job)
		if ctx.Err() != nil {
			return summary, ctx.Err()
		}

		refreshed, err := m.store.GetByID(ctx, job.ID)
		if err != nil {
			return summary, fmt.Errorf("refresh job: %w", err)
		}
		if refreshed == nil {
			continue
		}
		switch refreshed.Status {
		case queue.StatusCompleted:
			summary.Completed++
			summary.SavedBytes += refreshed.SavedBytes()
		case queue.StatusFailed:
			summary.Failed++
		}
	}
	return summary, nil
}

// Run processes the queue continuously, polling for new jobs until the
// context is cancelled. Store errors back off instead of terminating the
// daemon.
func (m *Manager) Run(ctx context.Context) error {
	m.logger.Info("workflow started",
		logging.String(logging.FieldEventType, "workflow_start"),
		logging.Duration("poll_interval", m.pollInterval))

	for {
		summary, err := m.RunAll(ctx)
		switch {
		case err == nil:
			if summary.Processed() > 0 {
				m.logBatch(summary)
			}
		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			m.logger.Info("workflow stopped",
				logging.String(logging.FieldEventType, "workflow_stop"))
			return ctx.Err()
		default:
			m.setLastError(err)
			m.logger.Error("queue processing error, backing off",
				logging.Error(err),
				logging.Duration("retry_in", m.retryBackoff))
			select {
			case <-time.After(m.retryBackoff):
			case <-ctx.Done():
				return ctx.Err()
			}
			continue
		}

		select {
		case <-time.After(m.pollInterval):
		case <-ctx.Done():
			m.logger.Info("workflow stopped",
				logging.String(logging.FieldEventType, "workflow_stop"))
			return ctx.Err()
		}
	}
}

func (m *Manager) logBatch(summary Summary) {
	m.logger.Info("batch complete",
		logging.String(logging.FieldEventType, "batch_complete"),
		logging.Int("completed", summary.Completed),
		logging.Int("failed", summary.Failed),
		logging.Int64("saved_bytes", summary.SavedBytes))
}
