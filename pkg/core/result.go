package core

import "time"

// RunStatus is the overall status of a replay run.
type RunStatus string

const (
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
	RunStatusCancelled RunStatus = "cancelled"
)

// ReplayRun records one replay invocation.
type ReplayRun struct {
	ID          string
	Status      RunStatus
	StartedAt   time.Time
	CompletedAt *time.Time
	Error       string
}

// ResultStatus is the outcome for a single (file, channel) target.
type ResultStatus string

const (
	ResultSucceeded ResultStatus = "succeeded"
	ResultFailed    ResultStatus = "failed"
	ResultSkipped   ResultStatus = "skipped"
)

// ChannelResult is the per-channel outcome of a batch action. Failures are
// isolated: one channel failing never changes its neighbors' results.
type ChannelResult struct {
	File         string
	Channel      string
	Status       ResultStatus
	StepsApplied int
	Err          error
}

// ErrString returns the failure reason or "".
func (r ChannelResult) ErrString() string {
	if r.Err == nil {
		return ""
	}
	return r.Err.Error()
}

// SaveResult is the per-target outcome of a save batch.
type SaveResult struct {
	Path     string
	Channels int
	// Renamed lists channels that were renamed on merge collisions,
	// as "old -> new".
	Renamed []string
	Err     error
}
