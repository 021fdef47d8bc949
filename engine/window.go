package engine

import (
	"time"

	"vizactor/dom"
)

// Window nudges the browser window into the foreground. Headed browsers on a
// busy desktop lose focus, and the target app throttles rendering for
// background tabs, so every interaction round begins with an activation.
type Window struct {
	page dom.Page
	log  Logger
}

func NewWindow(page dom.Page, logger Logger) *Window {
	if logger == nil {
		logger = &SimpleLogger{}
	}
	return &Window{page: page, log: logger}
}

// Activate raises the window and wiggles the virtual mouse so the page sees
// real input. Best effort: a failure here must never sink a run.
func (w *Window) Activate() {
	if _, err := w.page.Evaluate(`() => { window.focus(); document.body && document.body.focus && document.body.focus(); }`); err != nil {
		w.log.Printf("⚠️  window focus failed: %v", err)
	}
	_ = w.page.MouseMove(100, 100)
	_ = w.page.MouseMove(200, 200)
}

// Maximize grows the window to the available screen. Some of the editor's
// controls only render above a width threshold.
func (w *Window) Maximize() {
	_, err := w.page.Evaluate(`() => {
		window.moveTo(0, 0);
		window.resizeTo(screen.availWidth, screen.availHeight);
	}`)
	if err != nil {
		w.log.Printf("⚠️  maximize failed: %v", err)
	}
}

// FlashRefresh shrinks and restores the window to force a relayout. The
// editor occasionally renders a stale canvas after navigation and a resize
// event is the reliable way to shake it loose.
func (w *Window) FlashRefresh() {
	_, err := w.page.Evaluate(`() => {
		const width = window.outerWidth, height = window.outerHeight;
		window.resizeTo(Math.max(400, width - 100), Math.max(300, height - 100));
		setTimeout(() => window.resizeTo(width, height), 300);
	}`)
	if err != nil {
		w.log.Printf("⚠️  flash refresh failed: %v", err)
		return
	}
	time.Sleep(500 * time.Millisecond)
}
