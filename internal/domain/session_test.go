package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionReport_Lifecycle(t *testing.T) {
	report := NewSessionReport("https://example.com/watch?v=abc")

	assert.NotEmpty(t, report.ID)
	assert.Equal(t, SessionPending, report.Outcome)
	assert.False(t, report.Frozen())

	report.Append(AttemptRecord{Selector: "137+140", Outcome: AttemptTransientFailure, Detail: "timed out"})
	report.Append(AttemptRecord{Selector: "137+140", Outcome: AttemptSuccess})
	report.Finalize(SessionSucceeded, "137+140")

	require.True(t, report.Frozen())
	assert.Equal(t, SessionSucceeded, report.Outcome)
	assert.Equal(t, "137+140", report.ChosenSelector)
	assert.False(t, report.FinishedAt.IsZero())
	assert.Len(t, report.Attempts, 2)
}

func TestSessionReport_FrozenRejectsAppendsAndRefinalize(t *testing.T) {
	report := NewSessionReport("https://example.com/1")
	report.Finalize(SessionExhausted, "")

	report.Append(AttemptRecord{Selector: "best"})
	assert.Empty(t, report.Attempts)

	finished := report.FinishedAt
	time.Sleep(time.Millisecond)
	report.Finalize(SessionSucceeded, "best")
	assert.Equal(t, SessionExhausted, report.Outcome)
	assert.Equal(t, finished, report.FinishedAt)
}

func TestSessionReport_WarningsAllowedAfterFreeze(t *testing.T) {
	report := NewSessionReport("https://example.com/2")
	report.Finalize(SessionSucceeded, "best")

	report.AddWarning("remux failed: ffmpeg exit 1")

	assert.Equal(t, SessionSucceeded, report.Outcome)
	require.Len(t, report.Warnings, 1)
}

func TestSessionReport_SelectorsTriedAndAttemptCount(t *testing.T) {
	report := NewSessionReport("https://example.com/3")
	report.Append(AttemptRecord{Selector: "s1", Outcome: AttemptFormatUnavailable})
	report.Append(AttemptRecord{Selector: "s2", Outcome: AttemptTransientFailure})
	report.Append(AttemptRecord{Selector: "s2", Outcome: AttemptTransientFailure})
	report.Append(AttemptRecord{Selector: "s2", Outcome: AttemptSuccess})

	assert.Equal(t, []string{"s1", "s2"}, report.SelectorsTried())
	assert.Equal(t, 1, report.AttemptCount("s1"))
	assert.Equal(t, 3, report.AttemptCount("s2"))
	assert.Equal(t, 0, report.AttemptCount("s3"))
}
