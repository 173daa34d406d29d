package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleCatalog() FormatCatalog {
	return FormatCatalog{
		{ID: "A", Kind: KindCombined, Transport: TransportProgressive, Height: 1080, Container: "mp4"},
		{ID: "B", Kind: KindCombined, Transport: TransportProgressive, Height: 480, Container: "mp4"},
		{ID: "C", Kind: KindVideoOnly, Transport: TransportAdaptive, Height: 720, Container: "mp4", VideoCodec: "avc1"},
		{ID: "D", Kind: KindAudioOnly, Transport: TransportAdaptive, Container: "m4a", AudioCodec: "mp4a"},
	}
}

func TestClassify_PartitionsByKind(t *testing.T) {
	cc := Classify(sampleCatalog())

	require.Len(t, cc.Combined, 2)
	require.Len(t, cc.VideoOnly, 1)
	require.Len(t, cc.AudioOnly, 1)

	assert.Equal(t, "A", cc.Combined[0].ID)
	assert.Equal(t, "B", cc.Combined[1].ID)
	assert.Equal(t, "C", cc.VideoOnly[0].ID)
	assert.Equal(t, "D", cc.AudioOnly[0].ID)
}

func TestClassify_SortsDescendingByHeight(t *testing.T) {
	catalog := FormatCatalog{
		{ID: "low", Kind: KindCombined, Height: 360},
		{ID: "high", Kind: KindCombined, Height: 1080},
		{ID: "mid", Kind: KindCombined, Height: 720},
	}

	cc := Classify(catalog)

	require.Len(t, cc.Combined, 3)
	assert.Equal(t, []string{"high", "mid", "low"}, ids(cc.Combined))
}

func TestClassify_UnknownHeightSortsLast(t *testing.T) {
	catalog := FormatCatalog{
		{ID: "unknown", Kind: KindCombined},
		{ID: "known", Kind: KindCombined, Height: 240},
	}

	cc := Classify(catalog)

	assert.Equal(t, []string{"known", "unknown"}, ids(cc.Combined))
}

func TestClassify_TieBrokenByBitrateThenCatalogOrder(t *testing.T) {
	catalog := FormatCatalog{
		{ID: "first", Kind: KindCombined, Height: 720, Bitrate: 900},
		{ID: "fatter", Kind: KindCombined, Height: 720, Bitrate: 2500},
		{ID: "second", Kind: KindCombined, Height: 720, Bitrate: 900},
	}

	cc := Classify(catalog)

	// Higher bitrate wins the tie; equal bitrates keep catalog order.
	assert.Equal(t, []string{"fatter", "first", "second"}, ids(cc.Combined))
}

func TestClassify_AdaptiveGroupedByContainerAndCodec(t *testing.T) {
	catalog := FormatCatalog{
		{ID: "h1", Kind: KindCombined, Transport: TransportAdaptive, Height: 720, Container: "mp4", VideoCodec: "avc1"},
		{ID: "h2", Kind: KindCombined, Transport: TransportAdaptive, Height: 720, Container: "webm", VideoCodec: "vp9"},
		{ID: "h3", Kind: KindCombined, Transport: TransportAdaptive, Height: 1080, Container: "mp4", VideoCodec: "avc1"},
		{ID: "p1", Kind: KindCombined, Transport: TransportProgressive, Height: 480, Container: "mp4"},
	}

	cc := Classify(catalog)

	require.Len(t, cc.AdaptiveGroups, 2)
	assert.Equal(t, "mp4/avc1", cc.AdaptiveGroups[0].Key)
	assert.Equal(t, []string{"h3", "h1"}, ids(cc.AdaptiveGroups[0].Entries))
	assert.Equal(t, "webm/vp9", cc.AdaptiveGroups[1].Key)
	assert.True(t, cc.AdaptiveDetected())
}

func TestClassify_Idempotent(t *testing.T) {
	once := Classify(sampleCatalog())

	// Flatten the classified view back into a catalog and classify again:
	// the ordering must not change.
	var flattened FormatCatalog
	flattened = append(flattened, once.Combined...)
	flattened = append(flattened, once.VideoOnly...)
	flattened = append(flattened, once.AudioOnly...)

	twice := Classify(flattened)

	assert.Equal(t, ids(once.Combined), ids(twice.Combined))
	assert.Equal(t, ids(once.VideoOnly), ids(twice.VideoOnly))
	assert.Equal(t, ids(once.AudioOnly), ids(twice.AudioOnly))
}

func TestClassify_EmptyCatalog(t *testing.T) {
	cc := Classify(nil)

	assert.Empty(t, cc.Combined)
	assert.Empty(t, cc.VideoOnly)
	assert.Empty(t, cc.AudioOnly)
	assert.False(t, cc.AdaptiveDetected())
	assert.Nil(t, cc.BestAdaptive())
}

func TestClassify_BestAdaptive(t *testing.T) {
	catalog := FormatCatalog{
		{ID: "a720", Kind: KindVideoOnly, Transport: TransportAdaptive, Height: 720, Container: "mp4"},
		{ID: "a1080", Kind: KindVideoOnly, Transport: TransportAdaptive, Height: 1080, Container: "mp4"},
	}

	cc := Classify(catalog)

	best := cc.BestAdaptive()
	require.NotNil(t, best)
	assert.Equal(t, "a1080", best.ID)
}

func TestClassify_DoesNotMutateInput(t *testing.T) {
	catalog := FormatCatalog{
		{ID: "x", Kind: KindCombined, Height: 360},
		{ID: "y", Kind: KindCombined, Height: 1080},
	}

	_ = Classify(catalog)

	assert.Equal(t, "x", catalog[0].ID)
	assert.Equal(t, "y", catalog[1].ID)
}

func ids(entries []FormatEntry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.ID
	}
	return out
}
