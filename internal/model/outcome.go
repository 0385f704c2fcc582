package model

import "time"

type OutcomeStatus string

const (
	StatusSuccess OutcomeStatus = "success"
	StatusWarning OutcomeStatus = "warning"
	StatusError   OutcomeStatus = "error"
	// StatusBusy is returned to a manual trigger that arrives while another
	// execution of the same job is still in flight. It is never recorded as
	// a last result.
	StatusBusy OutcomeStatus = "busy"
)

// IngestionOutcome is produced exactly once per ingestion execution.
type IngestionOutcome struct {
	Status        OutcomeStatus `json:"status"`
	Message       string        `json:"message"`
	InsertedCount int           `json:"inserted_count,omitempty"`
}

// RunResult is the most recent execution record for a scheduled job. Only
// the latest result is retained, and only in process memory; a restart
// loses last-run history.
type RunResult struct {
	Time    time.Time        `json:"time"`
	Outcome IngestionOutcome `json:"outcome"`
}

// ScheduledTaskInfo describes one registered job as seen by introspection.
// NextRun is nil while the trigger is not armed; LastRun is nil before the
// first completed execution.
type ScheduledTaskInfo struct {
	ID      string     `json:"id"`
	Name    string     `json:"name"`
	NextRun *time.Time `json:"next_run,omitempty"`
	LastRun *RunResult `json:"last_result,omitempty"`
}
