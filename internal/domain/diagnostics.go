package domain

// DiagnosticsReport is the structured result of a read-only probe pass.
// Every failure mode is encoded in the fields so callers branch on booleans
// instead of catching errors.
type DiagnosticsReport struct {
	URL                    string        `json:"url"`
	Accessible             bool          `json:"accessible"`
	MetadataExtracted      bool          `json:"metadata_extracted"`
	Catalog                FormatCatalog `json:"catalog"`
	AdaptiveStreamDetected bool          `json:"adaptive_stream_detected"`
	// RecommendedEntry is advisory input to the chain builder, not a
	// guarantee: the best combined entry, else the best adaptive entry,
	// else nil.
	RecommendedEntry *FormatEntry   `json:"recommended_entry,omitempty"`
	Metadata         SourceMetadata `json:"metadata"`
	Issues           []string       `json:"issues,omitempty"`
}

// CombinedCount returns the number of combined entries in the catalog.
func (d DiagnosticsReport) CombinedCount() int {
	return d.countKind(KindCombined)
}

// VideoOnlyCount returns the number of video-only entries in the catalog.
func (d DiagnosticsReport) VideoOnlyCount() int {
	return d.countKind(KindVideoOnly)
}

// AudioOnlyCount returns the number of audio-only entries in the catalog.
func (d DiagnosticsReport) AudioOnlyCount() int {
	return d.countKind(KindAudioOnly)
}

func (d DiagnosticsReport) countKind(kind FormatKind) int {
	n := 0
	for _, e := range d.Catalog {
		if e.Kind == kind {
			n++
		}
	}
	return n
}
