package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"vizactor/dom"
)

// Selectors names the DOM anchors the watcher and exporter key off. The
// target app ships obfuscated class names that churn between deploys, so
// everything is overridable; the defaults track the current build.
type Selectors struct {
	// LayerRow matches one entry in the editor's layer panel.
	LayerRow string
	// PendingSpinner matches the in-progress animation inside a row.
	PendingSpinner string
	// ReadyIcon matches the mesh or checkmark glyph of a finished row.
	ReadyIcon string
	// LoadingBannerText, when present anywhere on the page, overrides all
	// per-row readiness.
	LoadingBannerText string
	// MenuTriggers locate a row's three-dots button, tried in order.
	MenuTriggers []string
	// MenuItem matches entries of an open context menu.
	MenuItem string
}

func DefaultSelectors() Selectors {
	return Selectors{
		LayerRow:          `li .sc-KxFZn.hoverable`,
		PendingSpinner:    `svg[style*="animation"], svg.animate-spin`,
		ReadyIcon:         `svg path[d*="8.127"], svg path[d*="M13.5"], svg path[d*="l.475"]`,
		LoadingBannerText: "Loading 3D model",
		MenuTriggers: []string{
			`button.ddzEaA`,
			`button:has(svg path[d^="M12.528 8"])`,
			`button[data-state="closed"]:not(.hynoDj)`,
		},
		MenuItem: `button[role="menuitem"], div[role="menuitem"], li[role="menuitem"]`,
	}
}

// LayerRow is one layer-panel entry as seen in a snapshot.
type LayerRow struct {
	Index   int    `json:"index"`
	Label   string `json:"label"`
	Pending bool   `json:"pending"`
	Ready   bool   `json:"ready"`
}

// PageState is a single consistent observation of the editor. All fields are
// read in one page-side pass so a predicate never mixes two moments in time.
type PageState struct {
	GlobalLoading bool       `json:"globalLoading"`
	Rows          []LayerRow `json:"rows"`
}

// Predicate decides whether a snapshot satisfies a wait.
type Predicate func(PageState) bool

// Watcher polls the editor for generation progress.
type Watcher struct {
	page dom.Page
	sel  Selectors
	log  Logger

	// Interval between snapshots while waiting.
	Interval time.Duration
}

func NewWatcher(page dom.Page, sel Selectors, logger Logger) *Watcher {
	if logger == nil {
		logger = &SimpleLogger{}
	}
	return &Watcher{page: page, sel: sel, log: logger, Interval: 500 * time.Millisecond}
}

func (w *Watcher) snapshotScript() string {
	return fmt.Sprintf(`() => {
		const state = { globalLoading: false, rows: [] };
		const banner = %q;
		if (banner && document.body && document.body.innerText.includes(banner)) {
			state.globalLoading = true;
		}
		const rows = document.querySelectorAll(%q);
		rows.forEach((row, i) => {
			state.rows.push({
				index: i,
				label: (row.innerText || '').trim(),
				pending: !!row.querySelector(%q),
				ready: !!row.querySelector(%q),
			});
		});
		return state;
	}`, w.sel.LoadingBannerText, w.sel.LayerRow, w.sel.PendingSpinner, w.sel.ReadyIcon)
}

// Snapshot reads the whole layer panel in one page-side pass.
func (w *Watcher) Snapshot() (PageState, error) {
	raw, err := w.page.Evaluate(w.snapshotScript())
	if err != nil {
		return PageState{}, err
	}
	var state PageState
	b, err := json.Marshal(raw)
	if err != nil {
		return PageState{}, fmt.Errorf("decode page state: %w", err)
	}
	if err := json.Unmarshal(b, &state); err != nil {
		return PageState{}, fmt.Errorf("decode page state: %w", err)
	}
	return state, nil
}

// WaitUntil polls snapshots until pred holds or timeout elapses. Snapshot
// errors that are not session-fatal are logged and the wait keeps going.
func (w *Watcher) WaitUntil(ctx context.Context, pred Predicate, timeout time.Duration) error {
	interval := w.Interval
	if interval <= 0 {
		interval = 500 * time.Millisecond
	}
	deadline := time.Now().Add(timeout)
	for {
		state, err := w.Snapshot()
		if err != nil {
			if dom.IsTransport(err) {
				return err
			}
			w.log.Printf("⚠️  snapshot failed, retrying: %v", err)
		} else if pred(state) {
			return nil
		}
		if time.Now().After(deadline) {
			return ErrReadinessTimeout
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(interval):
		}
	}
}

// FirstReadyRow returns the first generated layer that is fully ready: marked
// as a 3-D result, no spinner, ready glyph present, and no global loading
// banner.
func FirstReadyRow(state PageState, originalName string) (LayerRow, bool) {
	if state.GlobalLoading {
		return LayerRow{}, false
	}
	for _, row := range state.Rows {
		if !isGeneratedLabel(row.Label, originalName) {
			continue
		}
		if row.Pending || !row.Ready {
			continue
		}
		return row, true
	}
	return LayerRow{}, false
}

// isGeneratedLabel recognises the label the app gives a generated layer. The
// suffix convention ("name - 3d") has survived several redeploys; anything
// that is not the uploaded file's own row also counts.
func isGeneratedLabel(label, originalName string) bool {
	l := strings.ToLower(strings.TrimSpace(label))
	if l == "" {
		return false
	}
	if strings.Contains(l, "- 3d") || strings.Contains(l, " 3d") {
		return true
	}
	base := strings.ToLower(strings.TrimSpace(originalName))
	return base != "" && !strings.Contains(l, base)
}

// NewLayerAppeared holds once the panel has grown a generated row beside the
// uploaded one.
func NewLayerAppeared(originalName string) Predicate {
	return func(s PageState) bool {
		if len(s.Rows) < 2 {
			return false
		}
		for _, row := range s.Rows {
			if isGeneratedLabel(row.Label, originalName) {
				return true
			}
		}
		return false
	}
}

// LayerReady holds once some generated row is exportable.
func LayerReady(originalName string) Predicate {
	return func(s PageState) bool {
		_, ok := FirstReadyRow(s, originalName)
		return ok
	}
}
