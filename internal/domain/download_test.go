package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDownload(t *testing.T) {
	d := NewDownload("https://example.com/watch?v=abc", QualityPreference{TierMedium, TierLow})

	assert.NotEmpty(t, d.ID)
	assert.Equal(t, StatusQueued, d.Status)
	assert.Equal(t, TierMedium, d.Quality)
	assert.Equal(t, TierLow, d.Size)
	assert.Equal(t, QualityPreference{TierMedium, TierLow}, d.Preference())
	assert.True(t, d.IsPending())
}

func TestDownload_StatusTransitions(t *testing.T) {
	d := NewDownload("https://example.com/1", QualityPreference{TierHigh, TierHigh})

	d.MarkProcessing()
	assert.Equal(t, StatusProcessing, d.Status)
	assert.True(t, d.IsProcessing())
	require.NotNil(t, d.StartedAt)

	d.MarkCompleted("/downloads/video.mp4")
	assert.Equal(t, StatusCompleted, d.Status)
	assert.Equal(t, "/downloads/video.mp4", d.FilePath)
	assert.True(t, d.IsTerminal())
	require.NotNil(t, d.CompletedAt)
}

func TestDownload_MarkFailed(t *testing.T) {
	d := NewDownload("https://example.com/2", QualityPreference{TierHigh, TierHigh})

	d.MarkFailed(errors.New("chain exhausted"))

	assert.Equal(t, StatusFailed, d.Status)
	assert.Equal(t, "chain exhausted", d.ErrorMessage)
	// Terminal until retried; keeps cancel from rewriting a failure.
	assert.True(t, d.IsTerminal())
}

func TestDownload_MarkCancelled(t *testing.T) {
	d := NewDownload("https://example.com/3", QualityPreference{TierHigh, TierHigh})

	d.MarkCancelled()

	assert.Equal(t, StatusCancelled, d.Status)
	assert.True(t, d.IsTerminal())
}

func TestDownload_ReportRoundTrip(t *testing.T) {
	d := NewDownload("https://example.com/4", QualityPreference{TierHigh, TierHigh})

	report := NewSessionReport(d.URL)
	report.Append(AttemptRecord{Selector: "best", Outcome: AttemptSuccess})
	report.Finalize(SessionSucceeded, "best")
	d.AttachReport(report)

	decoded := d.SessionReport()
	require.NotNil(t, decoded)
	assert.Equal(t, report.ID, decoded.ID)
	assert.Equal(t, SessionSucceeded, decoded.Outcome)
	assert.Equal(t, "best", decoded.ChosenSelector)
	require.Len(t, decoded.Attempts, 1)
}

func TestDownload_SessionReportAbsent(t *testing.T) {
	d := NewDownload("https://example.com/5", QualityPreference{TierHigh, TierHigh})
	assert.Nil(t, d.SessionReport())
}
