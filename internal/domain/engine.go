package domain

import "context"

// SourceMetadata is the descriptive part of a probe result.
type SourceMetadata struct {
	Title    string  `json:"title,omitempty"`
	Uploader string  `json:"uploader,omitempty"`
	Duration float64 `json:"duration,omitempty"` // seconds
}

// ProbeResult is what the extraction engine reports for one source URL.
type ProbeResult struct {
	Metadata SourceMetadata
	Catalog  FormatCatalog
}

// ExtractionEngine is the narrow contract to the external engine. Only the
// contract matters: the engine owns byte-level transfer, manifest parsing and
// muxing, while this core owns what to ask for and how to recover.
type ExtractionEngine interface {
	// Probe asks the engine for the formats a URL exposes, without
	// downloading. The returned error means "catalog unobtainable"; a
	// reachable URL with zero formats is a valid empty catalog, not an error.
	Probe(ctx context.Context, url string) (*ProbeResult, error)

	// Download fetches one representation chosen by the selector expression.
	// It returns the produced file path on success, or an error whose chain
	// carries an *EngineError classification.
	Download(ctx context.Context, url, selector string) (string, error)
}

// PostProcessor is invoked only after a successful download, with the
// produced file path. Its failures are advisory and never change an already
// frozen session outcome.
type PostProcessor interface {
	Process(ctx context.Context, filePath string) (string, error)
}
