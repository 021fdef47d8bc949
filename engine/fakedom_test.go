package engine

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"vizactor/dom"
)

// fakeElement is a scriptable dom.Element for exercising the engine without a
// browser.
type fakeElement struct {
	text    string
	box     dom.Box
	hasBox  bool
	visible bool

	clickErr    error
	forceErr    error
	dispatchErr error

	nativeCalls   int
	forceCalls    int
	dispatchCalls int
	hoverCalls    int
	filled        []string
	pressed       []string

	children map[string][]dom.Element
}

func newFakeElement(text string) *fakeElement {
	return &fakeElement{
		text:    text,
		box:     dom.Box{X: 10, Y: 20, Width: 100, Height: 40},
		hasBox:  true,
		visible: true,
	}
}

func (e *fakeElement) Text() (string, error) { return e.text, nil }

func (e *fakeElement) Click() error {
	e.nativeCalls++
	return e.clickErr
}

func (e *fakeElement) ForceClick() error {
	e.forceCalls++
	return e.forceErr
}

func (e *fakeElement) DispatchClick() error {
	e.dispatchCalls++
	return e.dispatchErr
}

func (e *fakeElement) BoundingBox() (dom.Box, bool, error) {
	return e.box, e.hasBox, nil
}

func (e *fakeElement) Query(selector string) (dom.Element, error) {
	if els := e.children[selector]; len(els) > 0 {
		return els[0], nil
	}
	return nil, nil
}

func (e *fakeElement) Hover() error { e.hoverCalls++; return nil }

func (e *fakeElement) Fill(value string) error {
	e.filled = append(e.filled, value)
	return nil
}

func (e *fakeElement) Press(key string) error {
	e.pressed = append(e.pressed, key)
	return nil
}

func (e *fakeElement) IsVisible() (bool, error) { return e.visible, nil }

type fakeDownload struct {
	name    string
	payload []byte
}

func (d *fakeDownload) SuggestedFilename() string { return d.name }

func (d *fakeDownload) SaveAs(path string) error {
	return os.WriteFile(path, d.payload, 0o644)
}

// fakePage serves elements from a selector map and watcher snapshots from a
// queue. The last queued snapshot repeats once the queue drains.
type fakePage struct {
	mu sync.Mutex

	elements map[string][]dom.Element

	states    []PageState
	stateIdx  int
	snapshots int
	// onSnapshot is invoked with the 1-based serve count before each
	// snapshot, so tests can mutate the page mid-wait.
	onSnapshot func(n int)

	queryErr error
	evalErr  error
	// scriptResult is returned for scripts that are not watcher snapshots.
	scriptResult interface{}

	download    *fakeDownload
	downloadErr error

	uploads     []string
	keysPressed []string
	mouseClicks [][2]float64
	url         string
}

func newFakePage() *fakePage {
	return &fakePage{
		elements: map[string][]dom.Element{},
		url:      "https://app.example.com/files",
	}
}

func (p *fakePage) add(selector string, els ...dom.Element) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.elements[selector] = append(p.elements[selector], els...)
}

func (p *fakePage) set(selector string, els ...dom.Element) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.elements[selector] = els
}

func (p *fakePage) Query(selector string) (dom.Element, error) {
	if p.queryErr != nil {
		return nil, p.queryErr
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if els := p.elements[selector]; len(els) > 0 {
		return els[0], nil
	}
	return nil, nil
}

func (p *fakePage) QueryAll(selector string) ([]dom.Element, error) {
	if p.queryErr != nil {
		return nil, p.queryErr
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.elements[selector], nil
}

func (p *fakePage) Evaluate(script string, args ...interface{}) (interface{}, error) {
	if p.evalErr != nil {
		return nil, p.evalErr
	}
	if strings.Contains(script, "globalLoading") {
		p.mu.Lock()
		p.snapshots++
		n := p.snapshots
		hook := p.onSnapshot
		p.mu.Unlock()
		if hook != nil {
			hook(n)
		}
		p.mu.Lock()
		defer p.mu.Unlock()
		if len(p.states) == 0 {
			return PageState{}, nil
		}
		state := p.states[p.stateIdx]
		if p.stateIdx < len(p.states)-1 {
			p.stateIdx++
		}
		return state, nil
	}
	return p.scriptResult, nil
}

func (p *fakePage) WaitForCondition(script string, arg interface{}, timeout time.Duration) error {
	return nil
}

func (p *fakePage) WaitFor(selector string, timeout time.Duration) (dom.Element, error) {
	return p.Query(selector)
}

func (p *fakePage) WaitIdle(timeout time.Duration) error { return nil }

func (p *fakePage) UploadViaChooser(trigger func() error, filePath string) error {
	if err := trigger(); err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.uploads = append(p.uploads, filePath)
	return nil
}

func (p *fakePage) AwaitDownload(trigger func() error, timeout time.Duration) (dom.Download, error) {
	if err := trigger(); err != nil {
		return nil, err
	}
	if p.downloadErr != nil {
		return nil, p.downloadErr
	}
	if p.download == nil {
		return nil, fmt.Errorf("no download started")
	}
	return p.download, nil
}

func (p *fakePage) Content() (string, error) { return "<html></html>", nil }

func (p *fakePage) Screenshot() ([]byte, error) { return []byte("png"), nil }

func (p *fakePage) MouseMove(x, y float64) error { return nil }

func (p *fakePage) MouseClick(x, y float64) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.mouseClicks = append(p.mouseClicks, [2]float64{x, y})
	return nil
}

func (p *fakePage) PressKey(key string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.keysPressed = append(p.keysPressed, key)
	return nil
}

func (p *fakePage) URL() string { return p.url }

func errTransportClosed() error {
	return dom.Transport("query", errors.New("target closed"))
}

type quietLogger struct{}

func (quietLogger) Printf(format string, v ...interface{}) {}
func (quietLogger) Errorf(format string, v ...interface{}) {}
