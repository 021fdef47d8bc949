package artifacts

import (
	"context"
	"testing"
	"time"

	"vizactor/engine"
)

func TestDisabledStoreIsNilSafe(t *testing.T) {
	s, err := NewStore("", 0)
	if err != nil {
		t.Fatalf("NewStore with empty URL: %v", err)
	}
	if s.Enabled() {
		t.Fatal("empty URL must yield a disabled store")
	}

	ctx := context.Background()
	loc, err := s.PutArtifact(ctx, "run-1", []byte("glTF"))
	if err != nil || loc != "" {
		t.Fatalf("disabled PutArtifact = (%q, %v), want no-op", loc, err)
	}
	if err := s.PutRecord(ctx, "run-1", &engine.WorkflowResult{Status: engine.StatusSuccess}); err != nil {
		t.Fatalf("disabled PutRecord: %v", err)
	}
	rec, err := s.GetRecord(ctx, "run-1")
	if err != nil || rec != nil {
		t.Fatalf("disabled GetRecord = (%v, %v), want (nil, nil)", rec, err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("disabled Close: %v", err)
	}
}

// Integration test; needs a local Redis.
func TestStoreRoundTrip(t *testing.T) {
	s, err := NewStore("redis://localhost:6379", time.Minute)
	if err != nil {
		t.Skipf("Redis not available: %v", err)
	}
	defer s.Close()

	ctx := context.Background()
	runID := "test-" + time.Now().Format("150405.000")

	loc, err := s.PutArtifact(ctx, runID, []byte("glTF binary"))
	if err != nil {
		t.Fatalf("PutArtifact: %v", err)
	}
	if loc != "redis://"+artifactKeyPrefix+runID {
		t.Fatalf("unexpected location %q", loc)
	}

	want := &engine.WorkflowResult{
		Status:               engine.StatusSuccess,
		ExportedArtifactPath: "out/exported.glb",
		OriginalFilename:     "leg.png",
		ResultLocation:       loc,
	}
	if err := s.PutRecord(ctx, runID, want); err != nil {
		t.Fatalf("PutRecord: %v", err)
	}
	got, err := s.GetRecord(ctx, runID)
	if err != nil {
		t.Fatalf("GetRecord: %v", err)
	}
	if got == nil || got.Status != want.Status || got.ResultLocation != want.ResultLocation {
		t.Fatalf("round trip mismatch: %+v", got)
	}
}
