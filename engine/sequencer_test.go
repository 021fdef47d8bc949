package engine

import (
	"context"
	"testing"
	"time"

	"vizactor/dom"
)

func newTestRuntime(page *fakePage, t *testing.T) *Runtime {
	rt := NewRuntime(page, DefaultSelectors(), quietLogger{})
	rt.Activator.Settle = 0
	rt.Watcher.Interval = time.Millisecond
	rt.Exporter.Backoff = 0
	rt.Exporter.OutputDir = t.TempDir()
	rt.Diag = NewDiagnostics(page, t.TempDir(), quietLogger{})
	return rt
}

func TestSequencerSkipsFailedStepAndContinues(t *testing.T) {
	page := newFakePage()
	page.add(textTags, newFakeElement("Present"))

	rt := newTestRuntime(page, t)
	s := NewSequencer(rt)
	s.IdleWait = 0

	steps := []Step{
		{Name: "Missing", Kind: StepGeneric},
		{Name: "Present", Kind: StepGeneric},
	}
	result, err := s.Run(context.Background(), steps)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(result.Steps) != 2 {
		t.Fatalf("recorded %d steps, want 2", len(result.Steps))
	}
	if !result.Steps[0].Skipped {
		t.Fatal("the failed step must be recorded as skipped")
	}
	if result.Steps[1].Skipped || result.Steps[1].Error != "" {
		t.Fatalf("the later step must still run: %+v", result.Steps[1])
	}
	if result.Status != StatusFailed {
		t.Fatal("a run with no captured artifact never reports success")
	}
}

func TestSequencerAbortsOnTransportFault(t *testing.T) {
	page := newFakePage()
	page.queryErr = errTransportClosed()

	rt := newTestRuntime(page, t)
	s := NewSequencer(rt)
	s.IdleWait = 0

	result, err := s.Run(context.Background(), []Step{
		{Name: "New file", Kind: StepGeneric},
		{Name: "Start in Studio", Kind: StepStartInStudio},
	})
	if !dom.IsTransport(err) {
		t.Fatalf("want a transport abort, got %v", err)
	}
	if len(result.Steps) != 1 {
		t.Fatalf("ran %d steps after the session died, want 1", len(result.Steps))
	}
	if result.Status != StatusFailed {
		t.Fatal("an aborted run is a failed run")
	}
}

func TestCompileStepsShape(t *testing.T) {
	plain := CompileSteps(false)
	if len(plain) != 4 {
		t.Fatalf("plain sequence has %d steps, want 4", len(plain))
	}
	if plain[len(plain)-1].Kind != StepOptionsMenu {
		t.Fatal("the sequence must end with the generation step")
	}
	withPrompt := CompileSteps(true)
	if len(withPrompt) != 5 {
		t.Fatalf("prompt sequence has %d steps, want 5", len(withPrompt))
	}
	if withPrompt[3].Kind != StepPromptGenerate {
		t.Fatal("the prompt stage belongs between upload and generation")
	}
	if !withPrompt[1].MaximizeAfter {
		t.Fatal("entering the editor must maximize the window")
	}
}

// TestWorkflowEndToEnd walks the full sequence against a scripted page:
// upload, 3-D generation, readiness, export.
func TestWorkflowEndToEnd(t *testing.T) {
	sel := DefaultSelectors()
	page := newFakePage()
	page.download = &fakeDownload{name: "design.glb", payload: []byte("glTF")}

	page.add(textTags,
		newFakeElement("New file"),
		newFakeElement("Start in Studio"),
		newFakeElement("Upload an image"),
	)

	trigger := newFakeElement("")
	page.add(sel.MenuTriggers[0], trigger)
	page.set(sel.MenuItem,
		newFakeElement("Generate 3D"),
		newFakeElement("Export"),
		newFakeElement("GLB"),
	)

	row0 := newFakeElement("sample.png")
	row1 := newFakeElement("sample - 3D")
	row1.children = map[string][]dom.Element{sel.MenuTriggers[0]: {trigger}}
	page.set(sel.LayerRow, row0, row1)
	page.states = []PageState{
		{Rows: []LayerRow{{Index: 0, Label: "sample.png"}}},
		{Rows: []LayerRow{
			{Index: 0, Label: "sample.png"},
			{Index: 1, Label: "sample - 3D", Pending: true},
		}},
		{Rows: []LayerRow{
			{Index: 0, Label: "sample.png"},
			{Index: 1, Label: "sample - 3D", Ready: true},
		}},
	}

	rt := newTestRuntime(page, t)
	rt.UploadPath = "/tmp/sample.png"
	rt.OriginalFilename = "sample.png"

	s := NewSequencer(rt)
	s.IdleWait = 0

	steps := []Step{
		{Name: "New file", Kind: StepGeneric},
		{Name: "Start in Studio", Kind: StepStartInStudio},
		{Name: "Upload an image", Kind: StepUploadImage},
		{Name: "Layer options", Kind: StepOptionsMenu},
	}
	result, err := s.Run(context.Background(), steps)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.Status != StatusSuccess {
		t.Fatalf("run failed: %+v", result.Steps)
	}
	if result.ExportedArtifactPath == "" {
		t.Fatal("success requires a captured artifact path")
	}
	if len(page.uploads) != 1 || page.uploads[0] != "/tmp/sample.png" {
		t.Fatalf("uploaded %v, want the prepared image", page.uploads)
	}
	for _, step := range result.Steps {
		if step.Skipped {
			t.Fatalf("step %q was skipped", step.Name)
		}
	}
}
