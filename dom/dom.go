// Package dom defines the narrow browser capability surface the automation
// engine is written against. The production implementation wraps a Playwright
// page; tests substitute an in-memory fake so the resilience logic can be
// exercised without a real browser.
package dom

import (
	"time"
)

// Box is an element bounding box in page coordinates.
type Box struct {
	X      float64
	Y      float64
	Width  float64
	Height float64
}

// Center returns the midpoint of the box.
func (b Box) Center() (float64, float64) {
	return b.X + b.Width/2, b.Y + b.Height/2
}

// Element is a handle to a live DOM node. Handles are only valid until the
// next re-render; callers re-resolve instead of caching across waits.
type Element interface {
	// Text returns the node's visible inner text.
	Text() (string, error)

	// Click performs a native pointer click with interactability checks.
	Click() error

	// ForceClick clicks ignoring occlusion and viewport checks.
	ForceClick() error

	// DispatchClick invokes el.click() directly in the page, bypassing
	// pointer semantics entirely.
	DispatchClick() error

	// BoundingBox returns the box and whether the node currently has one.
	BoundingBox() (Box, bool, error)

	// Query finds a descendant. A nil Element with nil error means absent.
	Query(selector string) (Element, error)

	Hover() error
	Fill(value string) error
	Press(key string) error
	IsVisible() (bool, error)
}

// Download is a captured browser-initiated file transfer.
type Download interface {
	SuggestedFilename() string
	SaveAs(path string) error
}

// Page is the read/write surface over one browser page. Absence of content is
// never an error here: Query returns (nil, nil) when the selector matches
// nothing, and only session-level faults surface as *TransportError.
type Page interface {
	// Query finds the first match. A nil Element with nil error means absent.
	Query(selector string) (Element, error)

	// QueryAll finds every match; an empty slice means absent.
	QueryAll(selector string) ([]Element, error)

	// Evaluate runs a script in the page context and returns its
	// JSON-serializable result.
	Evaluate(script string, args ...interface{}) (interface{}, error)

	// WaitForCondition blocks until the page-side predicate script returns
	// truthy or the timeout elapses. A timeout is reported as an error the
	// caller is expected to treat as ordinary.
	WaitForCondition(script string, arg interface{}, timeout time.Duration) error

	// WaitFor waits for a selector to become visible. Returns (nil, nil)
	// when the deadline passes without a match.
	WaitFor(selector string, timeout time.Duration) (Element, error)

	// WaitIdle waits for the network to go quiet, bounded by timeout.
	// Best-effort: a timeout is returned but routinely ignored by callers.
	WaitIdle(timeout time.Duration) error

	// UploadViaChooser arms a file-chooser interception, runs trigger (which
	// should open the chooser), and feeds it filePath.
	UploadViaChooser(trigger func() error, filePath string) error

	// AwaitDownload arms a download listener, runs trigger, and waits up to
	// timeout for the browser to start a file transfer.
	AwaitDownload(trigger func() error, timeout time.Duration) (Download, error)

	Content() (string, error)
	Screenshot() ([]byte, error)
	MouseMove(x, y float64) error
	MouseClick(x, y float64) error
	PressKey(key string) error
	URL() string
}
