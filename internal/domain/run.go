package domain

import "time"

// RunStatus is the outcome of a cleaning run
type RunStatus string

const (
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
)

// Run describes one cleaning pass over an input file, as kept in run history
type Run struct {
	ID           string            `json:"id"`
	StartedAt    time.Time         `json:"started_at"`
	FinishedAt   time.Time         `json:"finished_at"`
	Status       RunStatus         `json:"status"`
	Error        string            `json:"error,omitempty"`
	InputPath    string            `json:"input_path"`
	InputFormat  string            `json:"input_format"`
	OverridePath string            `json:"override_path,omitempty"`
	Rows         int               `json:"rows"`
	RowsFlagged  int               `json:"rows_flagged"`
	Anomalies    int               `json:"anomalies"`
	Overrides    int               `json:"overrides_applied"`
	ByKind       map[IssueKind]int `json:"by_kind,omitempty"`
}

// Duration returns how long the run took
func (r *Run) Duration() time.Duration {
	if r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}
