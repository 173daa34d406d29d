package domain

import "encoding/json"

// FormatKind describes what a format carries
type FormatKind string

const (
	KindCombined  FormatKind = "combined"   // video and audio already multiplexed
	KindVideoOnly FormatKind = "video-only" // no audio track
	KindAudioOnly FormatKind = "audio-only" // no video track
)

// Transport describes how a format is delivered
type Transport string

const (
	TransportProgressive Transport = "progressive"      // single downloadable file
	TransportAdaptive    Transport = "adaptive-segment" // manifest-described segments (HLS etc.)
)

// FormatEntry is one representation reported by the extraction engine,
// normalized from the engine's own field names.
type FormatEntry struct {
	ID         string          `json:"id"`
	Kind       FormatKind      `json:"kind"`
	Transport  Transport       `json:"transport"`
	Height     int             `json:"height,omitempty"` // 0 means unknown; meaningless for audio-only
	Container  string          `json:"container,omitempty"`
	VideoCodec string          `json:"vcodec,omitempty"`
	AudioCodec string          `json:"acodec,omitempty"`
	Bitrate    float64         `json:"bitrate,omitempty"` // tbr in kbit/s, 0 when unreported
	Extra      json.RawMessage `json:"extra,omitempty"`   // engine's raw format row, passed back verbatim
}

// HasHeight reports whether the entry carries a usable height.
func (e FormatEntry) HasHeight() bool {
	return e.Height > 0
}

// IsAdaptive reports whether the entry is delivered as an adaptive-segment stream.
func (e FormatEntry) IsAdaptive() bool {
	return e.Transport == TransportAdaptive
}

// FormatCatalog is the ordered set of formats one probe reported for a single
// source URL. A catalog is a snapshot: a new probe yields a new catalog, never
// an in-place mutation. An empty catalog is a valid terminal state meaning
// "no formats discoverable", not an error.
type FormatCatalog []FormatEntry

// Empty reports whether the catalog holds no entries.
func (c FormatCatalog) Empty() bool {
	return len(c) == 0
}

// ValidateFormatKind checks if a format kind is valid
func ValidateFormatKind(kind FormatKind) bool {
	return kind == KindCombined || kind == KindVideoOnly || kind == KindAudioOnly
}

// ValidateTransport checks if a transport is valid
func ValidateTransport(transport Transport) bool {
	return transport == TransportProgressive || transport == TransportAdaptive
}
