package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/yourusername/vidfetch-go/internal/domain"
	"github.com/yourusername/vidfetch-go/internal/infrastructure"
)

// DownloadManager drives one download operation end to end: probe, chain
// construction, orchestrated attempts, post-processing, persistence and
// notification.
type DownloadManager struct {
	repo          domain.DownloadRepository
	engine        domain.ExtractionEngine
	postProcessor domain.PostProcessor
	prober        *Prober
	orchestrator  *Orchestrator
	notifier      *infrastructure.NotificationService
	config        *domain.Config
	logger        *zap.Logger

	// globalSem bounds how many URLs download in parallel; urlSlots
	// serialize operations on the same URL so one source is never fetched
	// twice concurrently.
	globalSem chan struct{}
	urlSlots  map[string]chan struct{}
	cancels   map[string]context.CancelFunc
	mu        sync.Mutex
}

// NewDownloadManager creates a new download manager
func NewDownloadManager(
	repo domain.DownloadRepository,
	engine domain.ExtractionEngine,
	postProcessor domain.PostProcessor,
	prober *Prober,
	orchestrator *Orchestrator,
	notifier *infrastructure.NotificationService,
	config *domain.Config,
	logger *zap.Logger,
) *DownloadManager {
	limit := config.Download.ConcurrentLimit
	if limit <= 0 {
		limit = 1
	}
	return &DownloadManager{
		repo:          repo,
		engine:        engine,
		postProcessor: postProcessor,
		prober:        prober,
		orchestrator:  orchestrator,
		notifier:      notifier,
		config:        config,
		logger:        logger,
		globalSem:     make(chan struct{}, limit),
		urlSlots:      make(map[string]chan struct{}),
		cancels:       make(map[string]context.CancelFunc),
	}
}

// urlSlot returns the serialization slot for a URL, creating it on first use.
func (dm *DownloadManager) urlSlot(url string) chan struct{} {
	dm.mu.Lock()
	defer dm.mu.Unlock()
	slot, ok := dm.urlSlots[url]
	if !ok {
		slot = make(chan struct{}, 1)
		dm.urlSlots[url] = slot
	}
	return slot
}

// ProcessDownload processes a single download operation
func (dm *DownloadManager) ProcessDownload(ctx context.Context, download *domain.Download) error {
	opCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Register before waiting on any slot: queue scans must see the download
	// as in flight while it is blocked behind the concurrency limit, and
	// cancellation must reach it there too.
	dm.mu.Lock()
	if _, active := dm.cancels[download.ID]; active {
		dm.mu.Unlock()
		return fmt.Errorf("download %s is already in flight", download.ID)
	}
	dm.cancels[download.ID] = cancel
	dm.mu.Unlock()
	defer func() {
		dm.mu.Lock()
		delete(dm.cancels, download.ID)
		dm.mu.Unlock()
	}()

	slot := dm.urlSlot(download.URL)
	select {
	case slot <- struct{}{}:
		defer func() { <-slot }()
	case <-opCtx.Done():
		return dm.abortWaiting(ctx, download)
	}

	select {
	case dm.globalSem <- struct{}{}:
		defer func() { <-dm.globalSem }()
	case <-opCtx.Done():
		return dm.abortWaiting(ctx, download)
	}

	// The record can change while waiting for a slot: it may have been
	// cancelled, or an earlier dispatch may have finished it. Proceed only
	// for a still-queued record, from its current state.
	current, err := dm.repo.FindByID(download.ID)
	if err != nil {
		return fmt.Errorf("failed to reload download: %w", err)
	}
	if !current.IsPending() {
		dm.logger.Info("Skipping download no longer queued",
			zap.String("id", download.ID),
			zap.String("status", string(current.Status)))
		return nil
	}
	*download = *current

	dm.logger.Info("Processing download",
		zap.String("id", download.ID),
		zap.String("url", download.URL),
		zap.String("quality", string(download.Quality)),
		zap.String("size", string(download.Size)))

	download.MarkProcessing()
	if err := dm.repo.Update(download); err != nil {
		return fmt.Errorf("failed to update download status: %w", err)
	}

	dm.notifier.NotifyDownloadStarted(download.URL)

	// Read-only probe first: catalog plus diagnostics for post-mortems.
	diag := dm.prober.Probe(opCtx, download.URL)
	download.AttachDiagnostics(&diag)
	if !diag.Accessible {
		err := &domain.ProbeFailureError{URL: download.URL, Detail: firstIssue(diag.Issues)}
		return dm.failDownload(download, err)
	}

	classified := domain.Classify(diag.Catalog)
	chain := domain.BuildChain(classified, download.Preference())

	var filePath string
	attempt := func(ctx context.Context, selector string) error {
		path, err := dm.engine.Download(ctx, download.URL, selector)
		if err != nil {
			return err
		}
		filePath = path
		return nil
	}

	report, runErr := dm.orchestrator.Run(opCtx, download.URL, chain, attempt)
	download.AttachReport(report)

	if runErr != nil {
		var cancelled *domain.CancelledError
		if errors.As(runErr, &cancelled) {
			download.MarkCancelled()
			if err := dm.repo.Update(download); err != nil {
				dm.logger.Error("Failed to update download status", zap.Error(err))
			}
			dm.logger.Info("Download cancelled mid-operation",
				zap.String("id", download.ID),
				zap.String("url", download.URL))
			return runErr
		}
		return dm.failDownload(download, runErr)
	}

	// Post-processing runs only after success; its failures never change
	// the frozen outcome and surface as advisory warnings instead.
	if dm.postProcessor != nil && dm.config.Engine.RemuxAfterSuccess {
		processed, err := dm.postProcessor.Process(opCtx, filePath)
		if err != nil {
			report.AddWarning(fmt.Sprintf("post-processing failed: %v", err))
			download.AttachReport(report)
			dm.logger.Warn("Post-processing failed",
				zap.String("id", download.ID),
				zap.String("file", filePath),
				zap.Error(err))
		} else if processed != "" {
			filePath = processed
		}
	}

	download.MarkCompleted(filePath)
	if err := dm.repo.Update(download); err != nil {
		dm.logger.Error("Failed to update download status", zap.Error(err))
	}

	dm.logger.Info("Download completed",
		zap.String("id", download.ID),
		zap.String("url", download.URL),
		zap.String("selector", report.ChosenSelector),
		zap.Int("attempts", len(report.Attempts)),
		zap.String("file", filePath))

	dm.notifier.NotifyDownloadCompleted(download.URL, filePath)
	return nil
}

// abortWaiting resolves a cancellation that fired while the download was
// still waiting for a slot. An explicit cancel marks the record; a dying
// parent context leaves it queued for the next run.
func (dm *DownloadManager) abortWaiting(ctx context.Context, download *domain.Download) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	download.MarkCancelled()
	if err := dm.repo.Update(download); err != nil {
		dm.logger.Error("Failed to update download status", zap.Error(err))
	}
	dm.logger.Info("Download cancelled while waiting for a slot",
		zap.String("id", download.ID),
		zap.String("url", download.URL))
	return context.Canceled
}

// IsActive reports whether a download is currently in flight, either waiting
// for a slot or downloading.
func (dm *DownloadManager) IsActive(id string) bool {
	dm.mu.Lock()
	defer dm.mu.Unlock()
	_, active := dm.cancels[id]
	return active
}

// failDownload records a terminal failure and notifies.
func (dm *DownloadManager) failDownload(download *domain.Download, cause error) error {
	download.MarkFailed(cause)
	if err := dm.repo.Update(download); err != nil {
		dm.logger.Error("Failed to update download status", zap.Error(err))
	}

	dm.logger.Error("Download failed",
		zap.String("id", download.ID),
		zap.String("url", download.URL),
		zap.Error(cause))

	dm.notifier.NotifyDownloadFailed(download.URL, cause)
	return cause
}

// CancelDownload cancels a download. A queued download is marked cancelled
// directly; an in-flight one, waiting for a slot or already downloading, gets
// its operation context cancelled and the orchestrator freezes the report at
// the next attempt boundary.
func (dm *DownloadManager) CancelDownload(id string) error {
	download, err := dm.repo.FindByID(id)
	if err != nil {
		return fmt.Errorf("download not found: %w", err)
	}

	if download.IsTerminal() {
		return fmt.Errorf("download already in terminal state: %s", download.Status)
	}

	dm.mu.Lock()
	cancel, running := dm.cancels[id]
	dm.mu.Unlock()
	if running {
		cancel()
		dm.logger.Info("Cancellation requested for running download", zap.String("id", id))
		return nil
	}

	download.MarkCancelled()
	if err := dm.repo.Update(download); err != nil {
		return fmt.Errorf("failed to update download: %w", err)
	}

	dm.logger.Info("Download cancelled", zap.String("id", id))
	return nil
}

// DeleteDownload removes a download record. Running downloads must be
// cancelled first.
func (dm *DownloadManager) DeleteDownload(id string) error {
	dm.mu.Lock()
	_, running := dm.cancels[id]
	dm.mu.Unlock()
	if running {
		return fmt.Errorf("download is processing, cancel it first")
	}
	return dm.repo.Delete(id)
}

// RetryDownload re-queues a failed download with a clean slate.
func (dm *DownloadManager) RetryDownload(ctx context.Context, id string) error {
	download, err := dm.repo.FindByID(id)
	if err != nil {
		return fmt.Errorf("download not found: %w", err)
	}

	if download.Status != domain.StatusFailed {
		return fmt.Errorf("download is not in failed state: %s", download.Status)
	}

	download.Status = domain.StatusQueued
	download.ErrorMessage = ""
	download.Report = ""
	download.Diagnostics = ""
	download.UpdatedAt = time.Now()

	if err := dm.repo.Update(download); err != nil {
		return fmt.Errorf("failed to update download: %w", err)
	}

	dm.logger.Info("Download queued for retry", zap.String("id", id))
	return nil
}

func firstIssue(issues []string) string {
	if len(issues) == 0 {
		return "source inaccessible"
	}
	return issues[0]
}
