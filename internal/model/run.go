package model

type Mode string

const (
	ModeDryRun Mode = "dry-run"
	ModeApply  Mode = "apply"
)

type RunStatus string

const (
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusPartial   RunStatus = "partial"
	RunStatusFailed    RunStatus = "failed"
)

// AuditRun summarizes one pass over an inventory export.
type AuditRun struct {
	RunID          string    `json:"run_id"`
	Source         string    `json:"source"`
	Mode           Mode      `json:"mode"`
	Status         RunStatus `json:"status"`
	Rows           int       `json:"rows"`
	Findings       int       `json:"findings"`
	Warnings       int       `json:"warnings"`
	Errors         int       `json:"errors"`
	Intents        int       `json:"intents"`
	Excluded       int       `json:"excluded"`
	RenamesOK      int       `json:"renames_ok"`
	RenamesFailed  int       `json:"renames_failed"`
	StartedAt      string    `json:"started_at"`
	FinishedAt     string    `json:"finished_at,omitempty"`
	FailureMessage string    `json:"failure_message,omitempty"`
}

type RunQuery struct {
	Status string
	Page   int
	Limit  int
}

type RunListData struct {
	Items []AuditRun `json:"items"`
}
