package app

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/yourusername/vidfetch-go/internal/domain"
	"github.com/yourusername/vidfetch-go/pkg/logger"
)

// DownloadFunc performs one download attempt with the given selector
// expression. Implementations return nil on success or an error whose chain
// carries a *domain.EngineError classification.
type DownloadFunc func(ctx context.Context, selector string) error

// Orchestrator walks a selector chain for one URL, retrying and advancing
// according to the failure classification of each attempt. One orchestrator
// run equals one download operation; it never downloads the same URL twice
// concurrently because callers hold the per-URL slot while Run executes.
type Orchestrator struct {
	transientBound int
	retryDelay     time.Duration
	logger         *zap.Logger
	multiLogger    *logger.MultiLogger
}

// NewOrchestrator creates an orchestrator with the configured retry policy.
func NewOrchestrator(cfg domain.DownloadConfig, log *zap.Logger, multiLog *logger.MultiLogger) *Orchestrator {
	bound := cfg.TransientRetries
	if bound <= 0 {
		bound = 5
	}
	return &Orchestrator{
		transientBound: bound,
		retryDelay:     cfg.RetryDelay,
		logger:         log,
		multiLogger:    multiLog,
	}
}

// Run walks the chain in order. Each selector is tried up to the transient
// bound; format-unavailable advances to the next selector immediately, a
// fatal failure aborts the whole chain, and the first success terminates the
// run. The returned report is always frozen, including on error.
func (o *Orchestrator) Run(ctx context.Context, url string, chain domain.SelectorChain, attempt DownloadFunc) (*domain.SessionReport, error) {
	report := domain.NewSessionReport(url)

	o.logger.Info("Starting selector chain",
		zap.String("url", url),
		zap.Strings("chain", chain.Expressions()),
	)

	for _, selector := range chain {
		advance := false

		for try := 1; try <= o.transientBound && !advance; try++ {
			if err := ctx.Err(); err != nil {
				report.Finalize(domain.SessionCancelled, "")
				o.logEvent("attempt_cancelled", report, zap.String("selector", selector.Expr))
				return report, &domain.CancelledError{Report: report}
			}

			rec := domain.AttemptRecord{
				Selector:  selector.Expr,
				Rationale: selector.Rationale,
				StartedAt: time.Now(),
			}

			err := attempt(ctx, selector.Expr)
			rec.Duration = time.Since(rec.StartedAt)

			if err == nil {
				rec.Outcome = domain.AttemptSuccess
				report.Append(rec)
				report.Finalize(domain.SessionSucceeded, selector.Expr)
				o.logEvent("attempt_succeeded", report,
					zap.String("selector", selector.Expr),
					zap.String("rationale", selector.Rationale),
					zap.Duration("duration", rec.Duration),
				)
				return report, nil
			}

			// Cancellation during an attempt terminates the run the same
			// way as cancellation between attempts.
			if ctx.Err() != nil {
				rec.Outcome = domain.AttemptTransientFailure
				rec.Detail = err.Error()
				report.Append(rec)
				report.Finalize(domain.SessionCancelled, "")
				o.logEvent("attempt_cancelled", report, zap.String("selector", selector.Expr))
				return report, &domain.CancelledError{Report: report}
			}

			engErr := domain.ClassifyEngineError(err)
			rec.Detail = engErr.Detail
			if engErr.Unclassified {
				report.AddWarning("unclassified engine failure treated as transient: " + engErr.Detail)
			}

			switch engErr.Kind {
			case domain.FailureFormatUnavailable:
				rec.Outcome = domain.AttemptFormatUnavailable
				report.Append(rec)
				o.logEvent("attempt_format_unavailable", report,
					zap.String("selector", selector.Expr),
					zap.String("detail", engErr.Detail),
				)
				advance = true

			case domain.FailureFatal:
				rec.Outcome = domain.AttemptFatal
				report.Append(rec)
				report.Finalize(domain.SessionFatal, "")
				o.logEvent("attempt_fatal", report,
					zap.String("selector", selector.Expr),
					zap.String("detail", engErr.Detail),
				)
				return report, &domain.FatalChainError{Report: report, Cause: engErr}

			default:
				rec.Outcome = domain.AttemptTransientFailure
				report.Append(rec)
				o.logEvent("attempt_transient_failure", report,
					zap.String("selector", selector.Expr),
					zap.String("detail", engErr.Detail),
					zap.Int("try", try),
					zap.Int("bound", o.transientBound),
				)
				// The engine owns its own backoff mid-transfer; this delay
				// only spaces out whole-attempt restarts.
				if try < o.transientBound && o.retryDelay > 0 {
					select {
					case <-ctx.Done():
					case <-time.After(o.retryDelay):
					}
				}
			}
		}
	}

	report.Finalize(domain.SessionExhausted, "")
	o.logger.Warn("Selector chain exhausted",
		zap.String("url", url),
		zap.Int("attempts", len(report.Attempts)),
		zap.Strings("selectors_tried", report.SelectorsTried()),
	)
	o.logEvent("chain_exhausted", report)
	return report, &domain.ChainExhaustedError{Report: report}
}

// logEvent emits a structured attempt event to the attempt log category when
// a multi-logger is attached.
func (o *Orchestrator) logEvent(event string, report *domain.SessionReport, fields ...zap.Field) {
	if o.multiLogger == nil {
		return
	}
	base := []zap.Field{
		zap.String("session_id", report.ID),
		zap.String("url", report.URL),
	}
	o.multiLogger.LogAttemptEvent(event, append(base, fields...)...)
}
