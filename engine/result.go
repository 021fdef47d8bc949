package engine

import "time"

// RunStatus is the terminal state of a workflow run.
type RunStatus string

const (
	StatusSuccess RunStatus = "success"
	StatusFailed  RunStatus = "failed"
)

// StepOutcome records how one step of the sequence went.
type StepOutcome struct {
	Name     string        `json:"name"`
	Skipped  bool          `json:"skipped,omitempty"`
	Error    string        `json:"error,omitempty"`
	Duration time.Duration `json:"duration"`
}

// WorkflowResult is the run's final record. Status is success only when an
// artifact was actually captured; a run that walked every step but exported
// nothing still failed.
type WorkflowResult struct {
	Status               RunStatus     `json:"status"`
	ExportedArtifactPath string        `json:"exportedGlbPath,omitempty"`
	OriginalFilename     string        `json:"originalFilename"`
	ResultLocation       string        `json:"resultUrl,omitempty"`
	Steps                []StepOutcome `json:"steps,omitempty"`
}
