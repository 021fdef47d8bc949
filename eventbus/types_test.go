package eventbus

import (
	"strings"
	"testing"
	"time"
)

func TestNewEventIDFormat(t *testing.T) {
	ts := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	id := NewEventID("run_", ts)
	if !strings.HasPrefix(id, "run_20260830_") {
		t.Fatalf("unexpected id %q", id)
	}
	if id == NewEventID("run_", ts) {
		t.Fatal("ids must be unique")
	}
}

func TestMinimalValidate(t *testing.T) {
	evt := RunEvent{
		EventID:   NewEventID("run_", time.Now()),
		Source:    "vizactor",
		Type:      TypeRunCompleted,
		Timestamp: time.Now(),
		RunID:     "abc",
	}
	if !evt.MinimalValidate() {
		t.Fatal("complete event must validate")
	}
	evt.RunID = ""
	if evt.MinimalValidate() {
		t.Fatal("an event without a run id is invalid")
	}
}
