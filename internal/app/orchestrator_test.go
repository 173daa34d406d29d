package app

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/yourusername/vidfetch-go/internal/domain"
)

func newTestOrchestrator(transientBound int) *Orchestrator {
	return NewOrchestrator(domain.DownloadConfig{
		TransientRetries: transientBound,
		RetryDelay:       0,
	}, zap.NewNop(), nil)
}

func chainOf(exprs ...string) domain.SelectorChain {
	var chain domain.SelectorChain
	for _, e := range exprs {
		chain = append(chain, domain.Selector{Expr: e, Rationale: "test"})
	}
	return chain
}

// scriptedEngine returns one scripted error per call for a selector, then
// repeats the last entry.
type scriptedEngine struct {
	script map[string][]error
	calls  map[string]int
	order  []string
}

func newScriptedEngine() *scriptedEngine {
	return &scriptedEngine{
		script: make(map[string][]error),
		calls:  make(map[string]int),
	}
}

func (s *scriptedEngine) on(selector string, results ...error) {
	s.script[selector] = results
}

func (s *scriptedEngine) attempt(_ context.Context, selector string) error {
	s.order = append(s.order, selector)
	n := s.calls[selector]
	s.calls[selector]++
	results := s.script[selector]
	if len(results) == 0 {
		return nil
	}
	if n >= len(results) {
		n = len(results) - 1
	}
	return results[n]
}

func TestRun_FirstSelectorSucceeds(t *testing.T) {
	eng := newScriptedEngine()
	orch := newTestOrchestrator(5)

	report, err := orch.Run(context.Background(), "https://example.com/v", chainOf("137+140", "best"), eng.attempt)
	require.NoError(t, err)

	assert.Equal(t, domain.SessionSucceeded, report.Outcome)
	assert.Equal(t, "137+140", report.ChosenSelector)
	assert.True(t, report.Frozen())
	assert.Len(t, report.Attempts, 1)
	assert.Equal(t, domain.AttemptSuccess, report.Attempts[0].Outcome)
	assert.Zero(t, eng.calls["best"])
}

func TestRun_UnavailableAdvancesTransientRetries(t *testing.T) {
	eng := newScriptedEngine()
	transient := domain.NewEngineError(domain.FailureTransient, "timed out")
	eng.on("s1", domain.NewEngineError(domain.FailureFormatUnavailable, "requested format is not available"))
	eng.on("s2", transient, transient, transient, transient, nil)

	orch := newTestOrchestrator(5)
	report, err := orch.Run(context.Background(), "https://example.com/v", chainOf("s1", "s2", "s3"), eng.attempt)
	require.NoError(t, err)

	assert.Equal(t, domain.SessionSucceeded, report.Outcome)
	assert.Equal(t, "s2", report.ChosenSelector)
	assert.Equal(t, 1, report.AttemptCount("s1"))
	assert.Equal(t, 5, report.AttemptCount("s2"))
	assert.Equal(t, 0, report.AttemptCount("s3"))
	assert.Zero(t, eng.calls["s3"])

	// The winning attempt is the last record; everything before it failed.
	last := report.Attempts[len(report.Attempts)-1]
	assert.Equal(t, domain.AttemptSuccess, last.Outcome)
}

func TestRun_TransientBoundExhaustsSelectorOnly(t *testing.T) {
	eng := newScriptedEngine()
	transient := domain.NewEngineError(domain.FailureTransient, "connection reset")
	eng.on("s1", transient)
	// s2 succeeds immediately

	orch := newTestOrchestrator(3)
	report, err := orch.Run(context.Background(), "https://example.com/v", chainOf("s1", "s2"), eng.attempt)
	require.NoError(t, err)

	assert.Equal(t, domain.SessionSucceeded, report.Outcome)
	assert.Equal(t, "s2", report.ChosenSelector)
	assert.Equal(t, 3, report.AttemptCount("s1"))
	assert.Equal(t, 1, report.AttemptCount("s2"))
}

func TestRun_Exhausted(t *testing.T) {
	eng := newScriptedEngine()
	unavailable := domain.NewEngineError(domain.FailureFormatUnavailable, "no such format")
	eng.on("s1", unavailable)
	eng.on("s2", unavailable)

	orch := newTestOrchestrator(5)
	report, err := orch.Run(context.Background(), "https://example.com/v", chainOf("s1", "s2"), eng.attempt)

	var exhausted *domain.ChainExhaustedError
	require.ErrorAs(t, err, &exhausted)
	assert.Equal(t, domain.SessionExhausted, report.Outcome)
	assert.True(t, report.Frozen())
	assert.Empty(t, report.ChosenSelector)

	// The failure text names every selector tried and why it failed.
	assert.Contains(t, err.Error(), "s1")
	assert.Contains(t, err.Error(), "s2")
	assert.Contains(t, err.Error(), "format-unavailable")
	assert.Equal(t, []string{"s1", "s2"}, report.SelectorsTried())
}

func TestRun_FatalAbortsImmediately(t *testing.T) {
	eng := newScriptedEngine()
	eng.on("s1", domain.NewEngineError(domain.FailureFormatUnavailable, "no such format"))
	eng.on("s2", domain.NewEngineError(domain.FailureFatal, "sign in to confirm your age"))

	orch := newTestOrchestrator(5)
	report, err := orch.Run(context.Background(), "https://example.com/v", chainOf("s1", "s2", "s3", "s4"), eng.attempt)

	var fatal *domain.FatalChainError
	require.ErrorAs(t, err, &fatal)
	assert.Equal(t, domain.SessionFatal, report.Outcome)
	assert.Len(t, report.Attempts, 2)
	assert.Equal(t, domain.AttemptFatal, report.Attempts[1].Outcome)
	assert.Zero(t, eng.calls["s3"])
	assert.Zero(t, eng.calls["s4"])

	// The classified cause stays reachable through the error chain.
	var engErr *domain.EngineError
	require.ErrorAs(t, err, &engErr)
	assert.Equal(t, domain.FailureFatal, engErr.Kind)
}

func TestRun_CancelledBetweenAttempts(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	calls := 0
	attempt := func(c context.Context, selector string) error {
		calls++
		cancel() // fires after the first attempt returns
		return domain.NewEngineError(domain.FailureTransient, "timed out")
	}

	orch := newTestOrchestrator(5)
	report, err := orch.Run(ctx, "https://example.com/v", chainOf("s1", "s2"), attempt)

	var cancelled *domain.CancelledError
	require.ErrorAs(t, err, &cancelled)
	assert.Equal(t, domain.SessionCancelled, report.Outcome)
	assert.True(t, report.Frozen())
	assert.Len(t, report.Attempts, 1)
	assert.Equal(t, 1, calls)
}

func TestRun_CancelledBeforeFirstAttempt(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	orch := newTestOrchestrator(5)
	report, err := orch.Run(ctx, "https://example.com/v", chainOf("s1"), func(context.Context, string) error {
		t.Fatal("attempt must not run after cancellation")
		return nil
	})

	var cancelled *domain.CancelledError
	require.ErrorAs(t, err, &cancelled)
	assert.Empty(t, report.Attempts)
	assert.Equal(t, domain.SessionCancelled, report.Outcome)
}

func TestRun_UnclassifiedErrorBoundedAsTransient(t *testing.T) {
	eng := newScriptedEngine()
	eng.on("s1", errors.New("some brand new engine message"))
	// s2 succeeds

	orch := newTestOrchestrator(2)
	report, err := orch.Run(context.Background(), "https://example.com/v", chainOf("s1", "s2"), eng.attempt)
	require.NoError(t, err)

	// The unknown error never loops forever or kills the chain: it burns
	// the transient budget and the run moves on.
	assert.Equal(t, 2, report.AttemptCount("s1"))
	assert.Equal(t, "s2", report.ChosenSelector)
	require.NotEmpty(t, report.Warnings)
	assert.Contains(t, report.Warnings[0], "unclassified")
}

func TestRun_FrozenReportIgnoresLateAppends(t *testing.T) {
	eng := newScriptedEngine()
	orch := newTestOrchestrator(5)

	report, err := orch.Run(context.Background(), "https://example.com/v", chainOf("s1"), eng.attempt)
	require.NoError(t, err)
	require.True(t, report.Frozen())

	before := len(report.Attempts)
	report.Append(domain.AttemptRecord{Selector: "late"})
	assert.Len(t, report.Attempts, before)

	// Advisory warnings are still allowed after the freeze.
	report.AddWarning("remux produced a second file")
	assert.NotEmpty(t, report.Warnings)
}
