// Package actor runs the full workflow once: prepare the upload image, drive
// the app through to a GLB export, persist the artifact and publish the run's
// outcome.
package actor

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"vizactor/artifacts"
	"vizactor/browser"
	"vizactor/config"
	"vizactor/engine"
	"vizactor/eventbus"
	"vizactor/imageprep"
)

// Deps are the optional side-channels of a run. Nil fields disable the
// corresponding concern.
type Deps struct {
	Store *artifacts.Store
	Bus   *eventbus.NATSBus
	Log   engine.Logger
}

// Run executes one workflow run end to end and returns its record. The
// returned error reports aborts; a completed-but-unsuccessful run comes back
// with a nil error and Status failed.
func Run(ctx context.Context, runID string, cfg *config.Config, deps Deps) (*engine.WorkflowResult, error) {
	log := deps.Log
	if log == nil {
		log = &engine.SimpleLogger{}
	}
	if cfg.Debug {
		log.Printf("🐛 DEBUG: run %s: target=%s image=%q image-url=%q prompt=%q headed=%v export-attempts=%d",
			runID, cfg.TargetURL, cfg.ImagePath, cfg.ImageURL, cfg.Prompt, cfg.Headed, cfg.ExportAttempts)
	}

	publish(ctx, deps.Bus, runID, eventbus.TypeRunStarted, nil, "")

	prep, err := imageprep.Prepare(ctx, cfg.OutputDir, cfg.ImagePath, cfg.ImageURL, log)
	if err != nil {
		publish(ctx, deps.Bus, runID, eventbus.TypeRunFailed, nil, err.Error())
		return nil, fmt.Errorf("prepare image: %w", err)
	}

	sess, err := browser.Launch(browser.Options{
		Headless:    !cfg.Headed,
		SkipInstall: cfg.SkipInstall,
	}, log)
	if err != nil {
		publish(ctx, deps.Bus, runID, eventbus.TypeRunFailed, nil, err.Error())
		return nil, fmt.Errorf("launch browser: %w", err)
	}
	defer sess.Close()

	if err := sess.Goto(cfg.TargetURL); err != nil {
		publish(ctx, deps.Bus, runID, eventbus.TypeRunFailed, nil, err.Error())
		return nil, fmt.Errorf("open %s: %w", cfg.TargetURL, err)
	}

	page := sess.Page()
	if !engine.Login(page, engine.Credentials{Email: cfg.Email, Password: cfg.Password}, cfg.Headed, log) {
		log.Printf("⚠️  Proceeding unauthenticated; the first steps will likely miss")
	}

	rt := engine.NewRuntime(page, engine.DefaultSelectors(), log)
	rt.UploadPath = prep.Path
	rt.OriginalFilename = prep.OriginalFilename
	rt.Prompt = cfg.Prompt
	rt.ExportAttempts = cfg.ExportAttempts
	rt.Exporter.OutputDir = cfg.OutputDir

	steps := engine.CompileSteps(cfg.Prompt != "")
	if cfg.Debug {
		for i, step := range steps {
			log.Printf("🐛 DEBUG: step %d/%d: %s (delay %s)", i+1, len(steps), step.Name, step.Delay)
		}
	}
	seq := engine.NewSequencer(rt)
	result, runErr := seq.Run(ctx, steps)

	finish(ctx, runID, cfg, deps, result, log)

	if runErr != nil {
		publish(ctx, deps.Bus, runID, eventbus.TypeRunFailed, result, runErr.Error())
		return result, runErr
	}
	if result.Status == engine.StatusSuccess {
		publish(ctx, deps.Bus, runID, eventbus.TypeRunCompleted, result, "")
	} else {
		publish(ctx, deps.Bus, runID, eventbus.TypeRunFailed, result, "no artifact captured")
	}
	return result, nil
}

// finish persists whatever the run produced: the artifact bytes, the run
// record, and a local output.json for consumers without Redis.
func finish(ctx context.Context, runID string, cfg *config.Config, deps Deps, result *engine.WorkflowResult, log engine.Logger) {
	if result == nil {
		return
	}
	if result.ExportedArtifactPath != "" && deps.Store.Enabled() {
		data, err := os.ReadFile(result.ExportedArtifactPath)
		if err != nil {
			log.Errorf("read artifact for persistence: %v", err)
		} else if loc, err := deps.Store.PutArtifact(ctx, runID, data); err != nil {
			log.Errorf("persist artifact: %v", err)
		} else {
			result.ResultLocation = loc
			log.Printf("🗄️  Artifact stored at %s", loc)
		}
	}
	if err := deps.Store.PutRecord(ctx, runID, result); err != nil {
		log.Errorf("persist run record: %v", err)
	}

	record, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return
	}
	path := filepath.Join(cfg.OutputDir, "output.json")
	if err := os.WriteFile(path, record, 0o644); err != nil {
		log.Errorf("write %s: %v", path, err)
	}
}

func publish(ctx context.Context, bus *eventbus.NATSBus, runID, evtType string, result *engine.WorkflowResult, errMsg string) {
	evt := eventbus.RunEvent{
		EventID:   eventbus.NewEventID("run_", time.Now()),
		Source:    "vizactor",
		Type:      evtType,
		Timestamp: time.Now().UTC(),
		RunID:     runID,
		Error:     errMsg,
	}
	if result != nil {
		evt.Status = string(result.Status)
		evt.ArtifactPath = result.ExportedArtifactPath
		evt.OriginalFilename = result.OriginalFilename
		evt.ResultLocation = result.ResultLocation
	}
	_ = bus.Publish(ctx, evt)
}
