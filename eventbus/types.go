package eventbus

import (
	"crypto/rand"
	"encoding/hex"
	"time"
)

// Run event types.
const (
	TypeRunStarted   = "run.started"
	TypeRunCompleted = "run.completed"
	TypeRunFailed    = "run.failed"
)

// RunEvent is the envelope published for every workflow run transition.
type RunEvent struct {
	EventID   string    `json:"event_id"`
	Source    string    `json:"source"`
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`

	RunID            string `json:"run_id"`
	Status           string `json:"status,omitempty"`
	ArtifactPath     string `json:"artifact_path,omitempty"`
	OriginalFilename string `json:"original_filename,omitempty"`
	ResultLocation   string `json:"result_location,omitempty"`
	Error            string `json:"error,omitempty"`
}

// NewEventID generates a compact unique event id with a date prefix.
func NewEventID(prefix string, t time.Time) string {
	// 8 random bytes -> 16 hex chars
	b := make([]byte, 8)
	_, _ = rand.Read(b)
	return prefix + t.UTC().Format("20060102") + "_" + hex.EncodeToString(b)
}

// MinimalValidate checks required fields.
func (e *RunEvent) MinimalValidate() bool {
	return e.EventID != "" && e.Source != "" && e.Type != "" && e.RunID != "" && !e.Timestamp.IsZero()
}
