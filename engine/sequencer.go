package engine

import (
	"context"
	"time"

	"vizactor/dom"
)

// Runtime bundles the collaborators every step handler works against.
type Runtime struct {
	Page      dom.Page
	Window    *Window
	Resolver  *Resolver
	Activator *Activator
	Watcher   *Watcher
	Exporter  *Exporter
	Diag      *Diagnostics
	Log       Logger

	// UploadPath is the image fed to the file chooser.
	UploadPath string
	// OriginalFilename distinguishes the uploaded layer from generated
	// ones.
	OriginalFilename string
	// Prompt, when set, drives the optional prompt-generation stage.
	Prompt string
	// ExportAttempts bounds the export retry loop; zero means the
	// exporter's default.
	ExportAttempts int

	// Result accumulates as the run progresses.
	Result *WorkflowResult
}

// NewRuntime wires the standard collaborators over one page.
func NewRuntime(page dom.Page, sel Selectors, logger Logger) *Runtime {
	if logger == nil {
		logger = &SimpleLogger{}
	}
	watcher := NewWatcher(page, sel, logger)
	activator := NewActivator(page, logger)
	return &Runtime{
		Page:      page,
		Window:    NewWindow(page, logger),
		Resolver:  NewResolver(page, logger),
		Activator: activator,
		Watcher:   watcher,
		Exporter:  NewExporter(page, watcher, activator, sel, logger),
		Diag:      NewDiagnostics(page, "failed_runs", logger),
		Log:       logger,
	}
}

// Sequencer walks the compiled steps. A failed step is recorded and skipped;
// only session-level transport faults abort the run. The sequencer never
// re-enters: one Run per instance.
type Sequencer struct {
	rt       *Runtime
	handlers map[StepKind]StepHandler

	// IdleWait is the best-effort network-idle pause before each step.
	IdleWait time.Duration
}

func NewSequencer(rt *Runtime) *Sequencer {
	return &Sequencer{
		rt:       rt,
		handlers: defaultHandlers(),
		IdleWait: 5 * time.Second,
	}
}

// Run executes the sequence and returns the run's record. The returned error
// is non-nil only for aborts (transport fault or cancellation); per-step
// failures live in the result.
func (s *Sequencer) Run(ctx context.Context, steps []Step) (*WorkflowResult, error) {
	rt := s.rt
	rt.Result = &WorkflowResult{
		Status:           StatusFailed,
		OriginalFilename: rt.OriginalFilename,
	}

	for i, step := range steps {
		if err := ctx.Err(); err != nil {
			return rt.Result, err
		}
		rt.Log.Printf("▶️  Step %d/%d: %s", i+1, len(steps), step.Name)

		rt.Window.Activate()
		_ = rt.Page.WaitIdle(s.IdleWait)

		handler, ok := s.handlers[step.Kind]
		if !ok {
			rt.Log.Errorf("no handler for step %q, skipping", step.Name)
			rt.Result.Steps = append(rt.Result.Steps, StepOutcome{Name: step.Name, Skipped: true, Error: "no handler"})
			continue
		}

		start := time.Now()
		err := handler.Run(ctx, rt, step)
		outcome := StepOutcome{Name: step.Name, Duration: time.Since(start)}

		if err != nil {
			outcome.Error = err.Error()
			if dom.IsTransport(err) || ctx.Err() != nil {
				outcome.Skipped = false
				rt.Result.Steps = append(rt.Result.Steps, outcome)
				rt.Log.Errorf("step %q aborted the run: %v", step.Name, err)
				return rt.Result, err
			}
			outcome.Skipped = true
			rt.Result.Steps = append(rt.Result.Steps, outcome)
			rt.Log.Printf("⚠️  Step %q failed (%v), continuing with the sequence", step.Name, err)
			rt.Diag.Capture(step.Name)
			continue
		}

		rt.Result.Steps = append(rt.Result.Steps, outcome)
		if step.MaximizeAfter {
			rt.Window.Maximize()
		}
		if step.Delay > 0 {
			select {
			case <-ctx.Done():
				return rt.Result, ctx.Err()
			case <-time.After(step.Delay):
			}
		}
	}

	if rt.Result.ExportedArtifactPath != "" {
		rt.Result.Status = StatusSuccess
	}
	return rt.Result, nil
}
