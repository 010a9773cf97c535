package queue

import (
	"strings"
	"time"
)

// Status represents the lifecycle of a media job.
type Status string

const (
	StatusPending   Status = "pending"
	StatusProbing   Status = "probing"
	StatusProbed    Status = "probed"
	StatusResolving Status = "resolving"
	StatusResolved  Status = "resolved"
	StatusEncoding  Status = "encoding"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// Outcome records which artifact the size gate delivered for a completed job.
type Outcome string

const (
	OutcomeKeptCompressed Outcome = "kept_compressed"
	OutcomeKeptOriginal   Outcome = "kept_original"
)

// StopReason is the error message set when jobs are failed due to a
// requested shutdown.
const StopReason = "Stopped by user"

var allStatuses = []Status{
	StatusPending,
	StatusProbing,
	StatusProbed,
	StatusResolving,
	StatusResolved,
	StatusEncoding,
	StatusCompleted,
	StatusFailed,
}

var statusSet = func() map[Status]struct{} {
	set := make(map[Status]struct{}, len(allStatuses))
	for _, status := range allStatuses {
		set[status] = struct{}{}
	}
	return set
}()

var processingStatuses = map[Status]struct{}{
	StatusProbing:   {},
	StatusResolving: {},
	StatusEncoding:  {},
}

// HealthSummary describes aggregated queue counts per key lifecycle states.
type HealthSummary struct {
	Total      int
	Pending    int
	Processing int
	Failed     int
	Completed  int
}

// Job represents a media job persisted in SQLite.
type Job struct {
	ID            int64
	SourcePath    string
	Kind          string
	Status        Status
	SettingsJSON  string
	ProbeJSON     string
	ParamsJSON    string
	StagedFile    string
	FinalFile     string
	Outcome       Outcome
	OriginalBytes int64
	FinalBytes    int64
	ErrorMessage  string
	CreatedAt     time.Time
	UpdatedAt     time.Time

	ProgressStage   string
	ProgressPercent float64
	ProgressMessage string
}

// AllStatuses returns the ordered list of known statuses.
func AllStatuses() []Status {
	cp := make([]Status, len(allStatuses))
	copy(cp, allStatuses)
	return cp
}

// ParseStatus converts a string into a known Status.
func ParseStatus(value string) (Status, bool) {
	normalized := Status(strings.ToLower(strings.TrimSpace(value)))
	if normalized == "" {
		return "", false
	}
	_, ok := statusSet[normalized]
	return normalized, ok
}

// IsProcessing returns true when the status reflects an in-flight operation.
func (j Job) IsProcessing() bool {
	return IsProcessingStatus(j.Status)
}

// IsProcessingStatus reports whether a status reflects an in-flight operation.
func IsProcessingStatus(status Status) bool {
	_, ok := processingStatuses[status]
	return ok
}

// SavedBytes reports how many bytes the job saved. Zero until completed, and
// zero when the original was kept.
func (j Job) SavedBytes() int64 {
	if j.Outcome != OutcomeKeptCompressed {
		return 0
	}
	if saved := j.OriginalBytes - j.FinalBytes; saved > 0 {
		return saved
	}
	return 0
}

// SetProgress updates all three progress fields together.
func (j *Job) SetProgress(stage, message string, percent float64) {
	j.ProgressStage = stage
	j.ProgressMessage = message
	j.ProgressPercent = percent
}

// SetFailed marks the job as failed with the given error message.
func (j *Job) SetFailed(message string) {
	j.Status = StatusFailed
	j.ErrorMessage = message
	j.ProgressStage = "Failed"
	j.ProgressPercent = 0
	j.ProgressMessage = message
}
