package engine

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"vizactor/dom"
)

// ExportedFileName is the fixed name the captured artifact is saved under.
// Downstream consumers key off it, so the browser's suggested name is
// deliberately ignored.
const ExportedFileName = "exported.glb"

// Exporter drives the layer context menu through to a GLB download. Every
// attempt starts from a fresh snapshot and fresh element handles; the menu is
// rebuilt by the app on each open and yesterday's handles are dead.
type Exporter struct {
	page      dom.Page
	watcher   *Watcher
	activator *Activator
	sel       Selectors
	log       Logger

	// OutputDir receives the saved artifact.
	OutputDir string
	// Backoff between attempts.
	Backoff time.Duration
	// DownloadTimeout bounds the wait for the browser download to start.
	DownloadTimeout time.Duration
}

func NewExporter(page dom.Page, watcher *Watcher, activator *Activator, sel Selectors, logger Logger) *Exporter {
	if logger == nil {
		logger = &SimpleLogger{}
	}
	return &Exporter{
		page:            page,
		watcher:         watcher,
		activator:       activator,
		sel:             sel,
		log:             logger,
		OutputDir:       ".",
		Backoff:         5 * time.Second,
		DownloadTimeout: 30 * time.Second,
	}
}

// ExportArtifact runs the bounded retry loop. Each pass counts as one attempt
// whether it stalled on readiness or failed mid-menu; only session-fatal
// faults abort early. Returns the saved artifact path.
func (e *Exporter) ExportArtifact(ctx context.Context, originalName string, maxAttempts int) (string, error) {
	if maxAttempts <= 0 {
		maxAttempts = 60
	}
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		default:
		}

		state, err := e.watcher.Snapshot()
		if err != nil {
			if dom.IsTransport(err) {
				return "", err
			}
			e.log.Printf("⚠️  Export attempt %d/%d: snapshot failed: %v", attempt, maxAttempts, err)
			e.pause(ctx)
			continue
		}

		row, ready := FirstReadyRow(state, originalName)
		if !ready {
			e.log.Printf("⏳ Export attempt %d/%d: layer still processing", attempt, maxAttempts)
			e.pause(ctx)
			continue
		}

		path, err := e.tryExport(row)
		if err == nil {
			e.log.Printf("✅ Export succeeded on attempt %d/%d: %s", attempt, maxAttempts, path)
			return path, nil
		}
		if dom.IsTransport(err) {
			return "", err
		}
		e.log.Printf("⚠️  Export attempt %d/%d failed: %v", attempt, maxAttempts, err)
		// Escape collapses any half-open menu so the next attempt starts
		// from a neutral page.
		_ = e.page.PressKey("Escape")
		e.pause(ctx)
	}
	return "", fmt.Errorf("after %d attempts: %w", maxAttempts, ErrExportExhausted)
}

func (e *Exporter) pause(ctx context.Context) {
	if e.Backoff <= 0 {
		return
	}
	select {
	case <-ctx.Done():
	case <-time.After(e.Backoff):
	}
}

// tryExport performs one pass: re-resolve the ready row, open its menu, walk
// Export → GLB, and capture the download.
func (e *Exporter) tryExport(row LayerRow) (string, error) {
	rows, err := e.page.QueryAll(e.sel.LayerRow)
	if err != nil {
		return "", err
	}
	if row.Index >= len(rows) {
		return "", fmt.Errorf("ready row %d vanished (panel has %d rows)", row.Index, len(rows))
	}
	el := rows[row.Index]

	// Hover reveals the row's three-dots button.
	if err := el.Hover(); err != nil && dom.IsTransport(err) {
		return "", err
	}
	if box, visible, err := el.BoundingBox(); err == nil && visible {
		x, y := box.Center()
		_ = e.page.MouseMove(x, y)
	}
	time.Sleep(200 * time.Millisecond)

	trigger, err := e.menuTrigger(el)
	if err != nil {
		return "", err
	}
	if trigger == nil {
		return "", fmt.Errorf("menu trigger not found on ready row")
	}
	if !e.activator.Activate(trigger, 0) {
		return "", fmt.Errorf("menu trigger: %w", ErrActivationFailed)
	}
	opened, err := e.page.WaitFor(e.sel.MenuItem, 2*time.Second)
	if err != nil {
		return "", err
	}
	if opened == nil {
		return "", fmt.Errorf("context menu did not open")
	}

	// Some builds nest GLB under an Export submenu, others list it
	// directly.
	if exportItem, err := e.menuEntry("Export"); err != nil {
		return "", err
	} else if exportItem != nil {
		if !e.activator.Activate(exportItem, 0) {
			return "", fmt.Errorf("export entry: %w", ErrActivationFailed)
		}
		time.Sleep(300 * time.Millisecond)
	}

	glb, err := e.menuEntry("GLB")
	if err != nil {
		return "", err
	}
	if glb == nil {
		return "", fmt.Errorf("GLB entry not found in export menu")
	}

	dl, err := e.page.AwaitDownload(func() error {
		if !e.activator.Activate(glb, 0) {
			return fmt.Errorf("GLB entry: %w", ErrActivationFailed)
		}
		return nil
	}, e.DownloadTimeout)
	if err != nil {
		return "", err
	}

	path := filepath.Join(e.OutputDir, ExportedFileName)
	if err := dl.SaveAs(path); err != nil {
		return "", err
	}
	e.log.Printf("💾 Saved %s as %s", dl.SuggestedFilename(), path)
	return path, nil
}

// menuTrigger tries the trigger selectors scoped to the row first, then
// page-wide; the three-dots button is sometimes rendered as the row's portal
// sibling rather than its child.
func (e *Exporter) menuTrigger(row dom.Element) (dom.Element, error) {
	for _, sel := range e.sel.MenuTriggers {
		el, err := row.Query(sel)
		if err != nil {
			if dom.IsTransport(err) {
				return nil, err
			}
			continue
		}
		if el != nil {
			return el, nil
		}
	}
	for _, sel := range e.sel.MenuTriggers {
		el, err := e.page.Query(sel)
		if err != nil {
			if dom.IsTransport(err) {
				return nil, err
			}
			continue
		}
		if el != nil {
			return el, nil
		}
	}
	return nil, nil
}

// menuEntry finds an open-menu item whose text contains label.
func (e *Exporter) menuEntry(label string) (dom.Element, error) {
	items, err := e.page.QueryAll(e.sel.MenuItem)
	if err != nil {
		return nil, err
	}
	needle := strings.ToLower(label)
	for _, item := range items {
		text, err := item.Text()
		if err != nil {
			if dom.IsTransport(err) {
				return nil, err
			}
			continue
		}
		if strings.Contains(strings.ToLower(text), needle) {
			return item, nil
		}
	}
	return nil, nil
}
