package domain

import (
	"errors"
	"fmt"
	"strings"
)

// FailureKind is the closed classification of extraction engine failures.
// The adapter boundary maps whatever the engine reports into exactly one of
// these; the orchestrator reacts to nothing else.
type FailureKind string

const (
	// FailureFormatUnavailable: the requested representation does not exist
	// or the engine rejected the selector. Advance to the next selector.
	FailureFormatUnavailable FailureKind = "format-unavailable"
	// FailureTransient: network/timeout-class trouble. Retry the same
	// selector up to the configured bound.
	FailureTransient FailureKind = "transient"
	// FailureFatal: authentication required, content removed, disk or
	// permission failure. No selector can succeed; abort the chain.
	FailureFatal FailureKind = "fatal"
)

// EngineError is a classified failure returned by the extraction engine
// adapter's download operation.
type EngineError struct {
	Kind   FailureKind
	Detail string
	// Unclassified marks errors the pattern rules did not recognize. The
	// kind is then a best-effort default, and reports surface the marker so
	// new engine vocabulary gets flagged instead of silently absorbed.
	Unclassified bool
}

func (e *EngineError) Error() string {
	if e.Unclassified {
		return fmt.Sprintf("engine failure (%s, unclassified): %s", e.Kind, e.Detail)
	}
	return fmt.Sprintf("engine failure (%s): %s", e.Kind, e.Detail)
}

// NewEngineError creates a classified engine failure.
func NewEngineError(kind FailureKind, detail string) *EngineError {
	return &EngineError{Kind: kind, Detail: detail}
}

// ClassifyEngineError extracts the EngineError from an error chain. Errors
// that carry no classification are treated as unclassified transient
// failures, so they stay bounded by the transient retry budget rather than
// killing the chain or looping forever.
func ClassifyEngineError(err error) *EngineError {
	var engErr *EngineError
	if errors.As(err, &engErr) {
		return engErr
	}
	return &EngineError{Kind: FailureTransient, Detail: err.Error(), Unclassified: true}
}

// ProbeFailureError means the catalog could not be obtained at all: bad URL,
// unreachable host, engine refusing to talk.
type ProbeFailureError struct {
	URL    string
	Detail string
}

func (e *ProbeFailureError) Error() string {
	return fmt.Sprintf("probe failed for %s: %s", e.URL, e.Detail)
}

// ChainExhaustedError means every selector in the chain was tried and none
// succeeded. Distinct from a fatal failure: the source might succeed later or
// under different preferences. The message always lists what was tried and
// why each attempt failed.
type ChainExhaustedError struct {
	Report *SessionReport
}

func (e *ChainExhaustedError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "selector chain exhausted for %s after %d attempt(s):", e.Report.URL, len(e.Report.Attempts))
	for _, a := range e.Report.Attempts {
		fmt.Fprintf(&b, " [%s: %s %s]", a.Selector, a.Outcome, a.Detail)
	}
	return b.String()
}

// FatalChainError means one selector hit a fatal failure and the chain was
// aborted. Reported distinctly from exhaustion.
type FatalChainError struct {
	Report *SessionReport
	Cause  *EngineError
}

func (e *FatalChainError) Error() string {
	return fmt.Sprintf("chain aborted for %s: %s (selectors tried: %s)",
		e.Report.URL, e.Cause.Detail, strings.Join(e.Report.SelectorsTried(), ", "))
}

func (e *FatalChainError) Unwrap() error {
	return e.Cause
}

// CancelledError means the caller's cancellation signal fired between
// attempts. Records gathered so far are preserved on the report.
type CancelledError struct {
	Report *SessionReport
}

func (e *CancelledError) Error() string {
	return fmt.Sprintf("operation cancelled for %s after %d attempt(s)", e.Report.URL, len(e.Report.Attempts))
}
