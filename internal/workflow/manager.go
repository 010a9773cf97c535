package workflow

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"shrinkray/internal/config"
	"shrinkray/internal/encoding"
	"shrinkray/internal/logging"
	"shrinkray/internal/queue"
	"shrinkray/internal/stage"
)

// Summary aggregates the results of one batch run.
type Summary struct {
	Completed  int
	Failed     int
	SavedBytes int64
}

// Processed reports how many jobs reached a terminal status.
func (s Summary) Processed() int {
	return s.Completed + s.Failed
}

type pipelineStage struct {
	name             string
	processingStatus queue.Status
	doneStatus       queue.Status
	handler          stage.Handler
}

// Manager coordinates queue processing using registered stage handlers.
type Manager struct {
	cfg          *config.Config
	store        *queue.Store
	logger       *slog.Logger
	stages       map[queue.Status]pipelineStage
	stageOrder   []queue.Status
	pollInterval time.Duration
	retryBackoff time.Duration

	onBatchDone func(Summary)

	mu      sync.Mutex
	running bool
	lastErr error
}

// ManagerOption configures optional Manager behavior.
type ManagerOption func(*Manager)

// WithBatchCallback registers a callback fired exactly once per batch run,
// whether the batch drains naturally or is cancelled partway.
func WithBatchCallback(fn func(Summary)) ManagerOption {
	return func(m *Manager) {
		m.onBatchDone = fn
	}
}

// NewManager constructs a workflow manager with the standard stage wiring.
func NewManager(cfg *config.Config, store *queue.Store, encoder encoding.Encoder, logger *slog.Logger, opts ...ManagerOption) *Manager {
	if logger == nil {
		logger = logging.NewNop()
	}
	m := &Manager{
		cfg:          cfg,
		store:        store,
		logger:       logging.WithComponent(logger, "workflow"),
		stages:       make(map[queue.Status]pipelineStage),
		pollInterval: time.Duration(cfg.Workflow.QueuePollInterval) * time.Second,
		retryBackoff: time.Duration(cfg.Workflow.ErrorRetryInterval) * time.Second,
	}
	m.register(pipelineStage{
		name:             "probe",
		processingStatus: queue.StatusProbing,
		doneStatus:       queue.StatusProbed,
		handler:          newProbeStage(cfg, logger),
	}, queue.StatusPending)
	m.register(pipelineStage{
		name:             "resolve",
		processingStatus: queue.StatusResolving,
		doneStatus:       queue.StatusResolved,
		handler:          newResolveStage(cfg, logger),
	}, queue.StatusProbed)
	m.register(pipelineStage{
		name:             "encode",
		processingStatus: queue.StatusEncoding,
		doneStatus:       queue.StatusCompleted,
		handler:          newEncodeStage(cfg, store, encoder, logger),
	}, queue.StatusResolved)

	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *Manager) register(s pipelineStage, from queue.Status) {
	m.stages[from] = s
	m.stageOrder = append(m.stageOrder, from)
}

// actionableStatuses returns the statuses the manager picks jobs up from.
func (m *Manager) actionableStatuses() []queue.Status {
	cp := make([]queue.Status, len(m.stageOrder))
	copy(cp, m.stageOrder)
	return cp
}

// StageHealth reports the readiness of every registered stage.
func (m *Manager) StageHealth(ctx context.Context) []stage.Health {
	healths := make([]stage.Health, 0, len(m.stageOrder))
	for _, status := range m.stageOrder {
		healths = append(healths, m.stages[status].handler.HealthCheck(ctx))
	}
	return healths
}

// LastError returns the most recent stage error, for status reporting.
func (m *Manager) LastError() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastErr
}

func (m *Manager) setLastError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastErr = err
}
