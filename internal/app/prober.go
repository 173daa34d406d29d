package app

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/yourusername/vidfetch-go/internal/domain"
	"github.com/yourusername/vidfetch-go/pkg/logger"
)

// Prober runs the read-only diagnostics pass over a source URL. It never
// returns an error: every failure mode is folded into the report's fields so
// callers and API consumers branch on data, not exceptions.
type Prober struct {
	engine      domain.ExtractionEngine
	logger      *zap.Logger
	multiLogger *logger.MultiLogger
}

// NewProber creates a diagnostics prober backed by an extraction engine.
func NewProber(engine domain.ExtractionEngine, log *zap.Logger, multiLog *logger.MultiLogger) *Prober {
	return &Prober{
		engine:      engine,
		logger:      log,
		multiLogger: multiLog,
	}
}

// Probe inspects a URL without downloading. An unreachable URL yields
// accessible=false with an empty catalog and no recommendation.
func (p *Prober) Probe(ctx context.Context, url string) domain.DiagnosticsReport {
	report := domain.DiagnosticsReport{URL: url}

	result, err := p.engine.Probe(ctx, url)
	if err != nil {
		report.Accessible = false
		report.Catalog = domain.FormatCatalog{}
		report.Issues = append(report.Issues, fmt.Sprintf("probe failed: %v", err))
		p.logger.Warn("Diagnostics probe failed",
			zap.String("url", url),
			zap.Error(err),
		)
		p.logEvent("probe_failed", report)
		return report
	}

	report.Accessible = true
	report.Metadata = result.Metadata
	report.MetadataExtracted = result.Metadata.Title != ""
	report.Catalog = result.Catalog

	classified := domain.Classify(result.Catalog)
	report.AdaptiveStreamDetected = classified.AdaptiveDetected()

	// Best combined entry wins the recommendation; adaptive best is the
	// fallback when no combined representation exists.
	if len(classified.Combined) > 0 {
		best := classified.Combined[0]
		report.RecommendedEntry = &best
	} else if adaptive := classified.BestAdaptive(); adaptive != nil {
		report.RecommendedEntry = adaptive
	}

	if result.Catalog.Empty() {
		report.Issues = append(report.Issues, "no formats reported for this URL")
	}
	if !report.MetadataExtracted {
		report.Issues = append(report.Issues, "metadata extraction incomplete: no title reported")
	}
	if len(classified.Combined) == 0 && len(classified.VideoOnly) > 0 {
		report.Issues = append(report.Issues, "no combined audio+video format: merge or degraded video-only required")
	}

	p.logger.Info("Diagnostics probe completed",
		zap.String("url", url),
		zap.Int("formats", len(result.Catalog)),
		zap.Bool("adaptive", report.AdaptiveStreamDetected),
	)
	p.logEvent("probe_completed", report)
	return report
}

func (p *Prober) logEvent(event string, report domain.DiagnosticsReport) {
	if p.multiLogger == nil {
		return
	}
	p.multiLogger.LogAttemptEvent(event,
		zap.String("url", report.URL),
		zap.Bool("accessible", report.Accessible),
		zap.Int("formats", len(report.Catalog)),
		zap.Bool("adaptive", report.AdaptiveStreamDetected),
		zap.Strings("issues", report.Issues),
	)
}
