package engine

import (
	"context"
	"fmt"
	"time"
)

// StepKind tags which handler drives a step.
type StepKind int

const (
	// StepGeneric resolves the step's label and clicks it.
	StepGeneric StepKind = iota
	// StepStartInStudio enters the editor, with structural fallbacks for
	// the project card.
	StepStartInStudio
	// StepUploadImage opens the file chooser and feeds it the prepared
	// image.
	StepUploadImage
	// StepPromptGenerate drives the prompt-to-image modal.
	StepPromptGenerate
	// StepOptionsMenu triggers 3-D generation and runs the export loop.
	StepOptionsMenu
)

// Step is one stage of the workflow sequence.
type Step struct {
	Name string
	Kind StepKind
	// Delay is the settle pause after the step succeeds. The app animates
	// between screens and acting mid-transition misses targets.
	Delay time.Duration
	// MaximizeAfter grows the window once the step lands.
	MaximizeAfter bool
	// FlashRefresh shakes the layout loose before the step runs.
	FlashRefresh bool
}

// CompileSteps builds the workflow sequence. withPrompt inserts the
// prompt-driven image generation stage between upload and 3-D generation.
func CompileSteps(withPrompt bool) []Step {
	steps := []Step{
		{Name: "New file", Kind: StepGeneric, Delay: 4 * time.Second},
		{Name: "Start in Studio", Kind: StepStartInStudio, Delay: 4 * time.Second, MaximizeAfter: true, FlashRefresh: true},
		{Name: "Upload an image", Kind: StepUploadImage, Delay: 4 * time.Second},
	}
	if withPrompt {
		steps = append(steps, Step{Name: "Generate from prompt", Kind: StepPromptGenerate, Delay: 3 * time.Second})
	}
	steps = append(steps, Step{Name: "Layer options", Kind: StepOptionsMenu, Delay: 6 * time.Second})
	return steps
}

// StepHandler drives one kind of step against the shared runtime.
type StepHandler interface {
	Run(ctx context.Context, rt *Runtime, step Step) error
}

func defaultHandlers() map[StepKind]StepHandler {
	return map[StepKind]StepHandler{
		StepGeneric:        genericStep{},
		StepStartInStudio:  studioStep{},
		StepUploadImage:    uploadStep{},
		StepPromptGenerate: promptStep{},
		StepOptionsMenu:    optionsStep{},
	}
}

type genericStep struct{}

func (genericStep) Run(ctx context.Context, rt *Runtime, step Step) error {
	el, err := rt.Resolver.Resolve(Description{Label: step.Name})
	if err != nil {
		return err
	}
	if !rt.Activator.Activate(el, 0) {
		return fmt.Errorf("%s: %w", step.Name, ErrActivationFailed)
	}
	return nil
}

// studioCardScript tags the first project card's primary action. The card
// markup carries no stable class, so the fallback walks for a card shape.
const studioCardScript = `
() => {
	const cards = document.querySelectorAll('[class*="card"], [class*="Card"], [class*="tile"], [class*="Tile"]');
	for (const card of cards) {
		const btn = card.querySelector('button, a');
		if (btn) {
			btn.setAttribute('data-vz-hit', '1');
			return true;
		}
	}
	return false;
}`

type studioStep struct{}

func (studioStep) Run(ctx context.Context, rt *Runtime, step Step) error {
	if step.FlashRefresh {
		rt.Window.FlashRefresh()
	}
	el, err := rt.Resolver.Resolve(Description{
		Label:      step.Name,
		Structural: true,
		Script:     studioCardScript,
	})
	if err != nil {
		return err
	}
	if !rt.Activator.Activate(el, 0) {
		return fmt.Errorf("%s: %w", step.Name, ErrActivationFailed)
	}
	// The card sometimes eats the first click while its hover animation
	// runs; a second one after a beat is harmless when the first landed.
	time.Sleep(time.Second)
	rt.Activator.Activate(el, 1)
	return nil
}

type uploadStep struct{}

func (uploadStep) Run(ctx context.Context, rt *Runtime, step Step) error {
	el, err := rt.Resolver.Resolve(Description{
		Label: step.Name,
		Hints: []string{
			`button:has-text("Upload an image")`,
			`button:has-text("Upload")`,
			`[data-testid*="upload"]`,
		},
	})
	if err != nil {
		return err
	}
	if err := rt.Page.UploadViaChooser(func() error {
		if !rt.Activator.Activate(el, 0) {
			return fmt.Errorf("%s: %w", step.Name, ErrActivationFailed)
		}
		return nil
	}, rt.UploadPath); err != nil {
		return fmt.Errorf("upload %s: %w", rt.UploadPath, err)
	}
	rt.Log.Printf("📤 Uploaded %s", rt.UploadPath)

	_ = rt.Page.WaitIdle(10 * time.Second)
	// The upload dialog must be gone before the next step pokes the
	// canvas behind it.
	_ = rt.Page.WaitForCondition(
		`() => !document.querySelector('div[role="dialog"]')`, nil, 15*time.Second)
	return nil
}

type promptStep struct{}

func (promptStep) Run(ctx context.Context, rt *Runtime, step Step) error {
	if rt.Prompt == "" {
		return nil
	}
	field, err := rt.Page.WaitFor(`textarea, input[placeholder*="rompt"], [contenteditable="true"]`, 10*time.Second)
	if err != nil {
		return err
	}
	if field == nil {
		return fmt.Errorf("prompt field: %w", ErrElementNotFound)
	}
	if err := field.Fill(rt.Prompt); err != nil {
		return err
	}

	gen, err := rt.Resolver.Resolve(Description{
		Label: "Generate",
		Hints: []string{`button:has-text("Generate")`},
	})
	if err != nil {
		return err
	}
	if !rt.Activator.Activate(gen, 0) {
		return fmt.Errorf("generate: %w", ErrActivationFailed)
	}
	rt.Log.Printf("🎨 Prompt submitted, waiting for the generated image")

	// Generation renders an Add button when a candidate image is ready.
	add, err := rt.Page.WaitFor(`button:has-text("Add")`, 3*time.Minute)
	if err != nil {
		return err
	}
	if add == nil {
		return fmt.Errorf("generated image: %w", ErrReadinessTimeout)
	}
	if !rt.Activator.Activate(add, 0) {
		return fmt.Errorf("add generated image: %w", ErrActivationFailed)
	}

	// Close the modal so the layer panel is reachable again.
	for _, sel := range []string{`button[aria-label="Close"]`, `button:has-text("Close")`, `[data-state="open"] button svg`} {
		closeBtn, err := rt.Page.Query(sel)
		if err != nil || closeBtn == nil {
			continue
		}
		if rt.Activator.Activate(closeBtn, 2) {
			break
		}
	}
	_ = rt.Page.PressKey("Escape")
	_ = rt.Page.WaitForCondition(
		`() => !document.querySelector('div[role="dialog"]')`, nil, 10*time.Second)
	return nil
}

type optionsStep struct{}

func (optionsStep) Run(ctx context.Context, rt *Runtime, step Step) error {
	trigger, err := rt.Resolver.Resolve(Description{
		Hints: rt.Watcher.sel.MenuTriggers,
	})
	if err != nil {
		return err
	}
	_ = trigger.Hover()
	if !rt.Activator.Activate(trigger, 0) {
		return fmt.Errorf("layer menu: %w", ErrActivationFailed)
	}
	if item, err := rt.Page.WaitFor(rt.Watcher.sel.MenuItem, 3*time.Second); err != nil {
		return err
	} else if item == nil {
		return fmt.Errorf("layer menu did not open")
	}

	gen3d, err := rt.Exporter.menuEntry("Generate 3D")
	if err != nil {
		return err
	}
	if gen3d == nil {
		gen3d, err = rt.Exporter.menuEntry("3D")
		if err != nil {
			return err
		}
	}
	if gen3d == nil {
		return fmt.Errorf("generate-3D entry: %w", ErrElementNotFound)
	}
	if !rt.Activator.Activate(gen3d, 0) {
		return fmt.Errorf("generate-3D entry: %w", ErrActivationFailed)
	}
	rt.Log.Printf("🧊 3-D generation triggered, watching the layer panel")

	if err := rt.Watcher.WaitUntil(ctx, NewLayerAppeared(rt.OriginalFilename), 5*time.Minute); err != nil {
		return fmt.Errorf("new layer: %w", err)
	}
	rt.Log.Printf("🆕 Generated layer appeared")

	path, err := rt.Exporter.ExportArtifact(ctx, rt.OriginalFilename, rt.ExportAttempts)
	if err != nil {
		return err
	}
	rt.Result.ExportedArtifactPath = path
	return nil
}
