package domain

import "time"

type RunStatus string

const (
	RunRunning   RunStatus = "running"
	RunSucceeded RunStatus = "succeeded"
	RunFailed    RunStatus = "failed"
)

// SyncRun is the history entry of one sync invocation.
type SyncRun struct {
	ID         string    `json:"id"`
	StartedAt  time.Time `json:"startedAt"`
	FinishedAt time.Time `json:"finishedAt,omitempty"`
	Status     RunStatus `json:"status"`
	Records    int64     `json:"records"`
	Error      string    `json:"error,omitempty"`
}

// Checkpoint is one persisted STATE message.
type Checkpoint struct {
	ID        string    `json:"id"`
	RunID     string    `json:"runId"`
	CreatedAt time.Time `json:"createdAt"`
	State     *State    `json:"state"`
}
