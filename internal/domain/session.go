package domain

import (
	"time"

	"github.com/google/uuid"
)

// AttemptOutcome classifies a single orchestrator trial
type AttemptOutcome string

const (
	AttemptSuccess           AttemptOutcome = "success"
	AttemptFormatUnavailable AttemptOutcome = "format-unavailable"
	AttemptTransientFailure  AttemptOutcome = "transient-failure"
	AttemptFatal             AttemptOutcome = "fatal"
)

// SessionOutcome is the terminal state of one download operation
type SessionOutcome string

const (
	SessionPending   SessionOutcome = "pending"
	SessionSucceeded SessionOutcome = "succeeded"
	SessionExhausted SessionOutcome = "exhausted"
	SessionFatal     SessionOutcome = "fatal"
	SessionCancelled SessionOutcome = "cancelled"
)

// AttemptRecord captures one trial of one selector. Records are appended to
// the session report and never mutated afterward.
type AttemptRecord struct {
	Selector  string         `json:"selector"`
	Rationale string         `json:"rationale"`
	Outcome   AttemptOutcome `json:"outcome"`
	Detail    string         `json:"detail,omitempty"` // classified engine error text, empty on success
	StartedAt time.Time      `json:"started_at"`
	Duration  time.Duration  `json:"duration"`
}

// SessionReport aggregates everything one download operation tried. It is
// owned exclusively by the orchestrator while the operation runs, frozen at
// termination, and handed to the caller read-only afterward.
type SessionReport struct {
	ID             string          `json:"id"`
	URL            string          `json:"url"`
	Outcome        SessionOutcome  `json:"outcome"`
	ChosenSelector string          `json:"chosen_selector,omitempty"`
	Attempts       []AttemptRecord `json:"attempts"`
	StartedAt      time.Time       `json:"started_at"`
	FinishedAt     time.Time       `json:"finished_at,omitempty"`
	Warnings       []string        `json:"warnings,omitempty"` // advisory only, e.g. post-processing trouble

	frozen bool
}

// NewSessionReport creates a report for one download operation.
func NewSessionReport(url string) *SessionReport {
	return &SessionReport{
		ID:        uuid.New().String(),
		URL:       url,
		Outcome:   SessionPending,
		StartedAt: time.Now(),
	}
}

// Append adds an attempt record. Appending to a frozen report is ignored.
func (r *SessionReport) Append(rec AttemptRecord) {
	if r.frozen {
		return
	}
	r.Attempts = append(r.Attempts, rec)
}

// Finalize freezes the report with its terminal outcome. chosen is the
// selector that succeeded, empty otherwise. Only the first call has effect.
func (r *SessionReport) Finalize(outcome SessionOutcome, chosen string) {
	if r.frozen {
		return
	}
	r.Outcome = outcome
	r.ChosenSelector = chosen
	r.FinishedAt = time.Now()
	r.frozen = true
}

// Frozen reports whether the report reached a terminal state.
func (r *SessionReport) Frozen() bool {
	return r.frozen
}

// AddWarning attaches an advisory warning. Warnings do not change the
// outcome and may be added after the report is frozen; the post-processing
// collaborator only runs once the outcome is already decided.
func (r *SessionReport) AddWarning(msg string) {
	r.Warnings = append(r.Warnings, msg)
}

// SelectorsTried lists every distinct selector that was attempted, in order.
func (r *SessionReport) SelectorsTried() []string {
	var out []string
	seen := make(map[string]struct{}, len(r.Attempts))
	for _, a := range r.Attempts {
		if _, dup := seen[a.Selector]; dup {
			continue
		}
		seen[a.Selector] = struct{}{}
		out = append(out, a.Selector)
	}
	return out
}

// AttemptCount returns the number of attempts recorded for a selector.
func (r *SessionReport) AttemptCount(selector string) int {
	n := 0
	for _, a := range r.Attempts {
		if a.Selector == selector {
			n++
		}
	}
	return n
}
