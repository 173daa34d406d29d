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

// mockEngine implements domain.ExtractionEngine with canned responses
type mockEngine struct {
	probeResult *domain.ProbeResult
	probeErr    error
}

func (m *mockEngine) Probe(_ context.Context, _ string) (*domain.ProbeResult, error) {
	if m.probeErr != nil {
		return nil, m.probeErr
	}
	return m.probeResult, nil
}

func (m *mockEngine) Download(_ context.Context, _, _ string) (string, error) {
	return "", errors.New("not implemented")
}

func TestProbe_InaccessibleURL(t *testing.T) {
	eng := &mockEngine{probeErr: &domain.ProbeFailureError{URL: "https://bad.example", Detail: "name resolution failed"}}
	prober := NewProber(eng, zap.NewNop(), nil)

	report := prober.Probe(context.Background(), "https://bad.example")

	assert.False(t, report.Accessible)
	assert.Empty(t, report.Catalog)
	assert.Nil(t, report.RecommendedEntry)
	assert.False(t, report.AdaptiveStreamDetected)
	require.NotEmpty(t, report.Issues)
	assert.Contains(t, report.Issues[0], "probe failed")
}

func TestProbe_RecommendsBestCombined(t *testing.T) {
	eng := &mockEngine{probeResult: &domain.ProbeResult{
		Metadata: domain.SourceMetadata{Title: "clip", Uploader: "someone"},
		Catalog: domain.FormatCatalog{
			{ID: "18", Kind: domain.KindCombined, Transport: domain.TransportProgressive, Height: 360},
			{ID: "22", Kind: domain.KindCombined, Transport: domain.TransportProgressive, Height: 720},
			{ID: "137", Kind: domain.KindVideoOnly, Transport: domain.TransportProgressive, Height: 1080},
		},
	}}
	prober := NewProber(eng, zap.NewNop(), nil)

	report := prober.Probe(context.Background(), "https://example.com/v")

	assert.True(t, report.Accessible)
	assert.True(t, report.MetadataExtracted)
	require.NotNil(t, report.RecommendedEntry)
	assert.Equal(t, "22", report.RecommendedEntry.ID)
	assert.Equal(t, 2, report.CombinedCount())
	assert.Equal(t, 1, report.VideoOnlyCount())
}

func TestProbe_AdaptiveFallbackRecommendation(t *testing.T) {
	eng := &mockEngine{probeResult: &domain.ProbeResult{
		Metadata: domain.SourceMetadata{Title: "stream"},
		Catalog: domain.FormatCatalog{
			{ID: "hls-720", Kind: domain.KindVideoOnly, Transport: domain.TransportAdaptive, Height: 720, Container: "mp4", VideoCodec: "avc1"},
			{ID: "hls-1080", Kind: domain.KindVideoOnly, Transport: domain.TransportAdaptive, Height: 1080, Container: "mp4", VideoCodec: "avc1"},
		},
	}}
	prober := NewProber(eng, zap.NewNop(), nil)

	report := prober.Probe(context.Background(), "https://example.com/live")

	assert.True(t, report.AdaptiveStreamDetected)
	require.NotNil(t, report.RecommendedEntry)
	assert.Equal(t, "hls-1080", report.RecommendedEntry.ID)

	// No combined representation is worth flagging for the caller.
	assert.Contains(t, report.Issues[0], "no combined audio+video format")
}

func TestProbe_EmptyCatalogIsNotAnError(t *testing.T) {
	eng := &mockEngine{probeResult: &domain.ProbeResult{
		Metadata: domain.SourceMetadata{Title: "placeholder"},
		Catalog:  domain.FormatCatalog{},
	}}
	prober := NewProber(eng, zap.NewNop(), nil)

	report := prober.Probe(context.Background(), "https://example.com/v")

	assert.True(t, report.Accessible)
	assert.Nil(t, report.RecommendedEntry)
	assert.Contains(t, report.Issues[0], "no formats")
}

func TestProbe_MissingTitleFlagged(t *testing.T) {
	eng := &mockEngine{probeResult: &domain.ProbeResult{
		Catalog: domain.FormatCatalog{
			{ID: "22", Kind: domain.KindCombined, Transport: domain.TransportProgressive, Height: 720},
		},
	}}
	prober := NewProber(eng, zap.NewNop(), nil)

	report := prober.Probe(context.Background(), "https://example.com/v")

	assert.True(t, report.Accessible)
	assert.False(t, report.MetadataExtracted)
	require.NotEmpty(t, report.Issues)
	assert.Contains(t, report.Issues[0], "metadata extraction incomplete")
}
