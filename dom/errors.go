package dom

import (
	"errors"
	"fmt"
	"strings"
)

// TransportError means the page or browser session itself became unusable, as
// opposed to a failure to find or interact with page content. It optionally
// carries an HTML snapshot captured before the session degraded.
type TransportError struct {
	Op   string
	Err  error
	HTML string
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport fault during %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// Snapshot returns the captured page HTML, if any.
func (e *TransportError) Snapshot() string { return e.HTML }

// Transport wraps err as a session-level fault.
func Transport(op string, err error) error {
	return &TransportError{Op: op, Err: err}
}

// IsTransport reports whether err is (or wraps) a session-level fault.
func IsTransport(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}

// fatalDriverMarkers are substrings of driver errors that indicate the target
// page or browser is gone rather than a mere content-level miss.
var fatalDriverMarkers = []string{
	"target closed",
	"browser has been closed",
	"context or browser has been closed",
	"page closed",
	"connection closed",
	"websocket",
	"execution context was destroyed",
}

// ClassifyDriverError converts driver errors into transport faults when they
// indicate a dead session; other errors pass through unchanged.
func ClassifyDriverError(op string, err error) error {
	if err == nil {
		return nil
	}
	msg := strings.ToLower(err.Error())
	for _, marker := range fatalDriverMarkers {
		if strings.Contains(msg, marker) {
			return Transport(op, err)
		}
	}
	return err
}
