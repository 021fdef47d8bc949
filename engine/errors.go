package engine

import "errors"

// Recoverable failure kinds. Each is caught at the step boundary and turned
// into a skip-and-continue decision; none of them aborts a run. Only a
// dom.TransportError terminates the workflow early.
var (
	// ErrElementNotFound means every resolution strategy was exhausted.
	ErrElementNotFound = errors.New("element not found")

	// ErrActivationFailed means every activation technique was exhausted.
	ErrActivationFailed = errors.New("activation failed")

	// ErrReadinessTimeout means a polled predicate never held before its
	// deadline. Routine for long-running backend jobs.
	ErrReadinessTimeout = errors.New("readiness timeout")

	// ErrExportExhausted means the export loop used its whole attempt
	// budget without capturing a download.
	ErrExportExhausted = errors.New("export attempts exhausted")
)
