package app

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/yourusername/vidfetch-go/internal/domain"
	"github.com/yourusername/vidfetch-go/pkg/logger"
)

// QueueManager manages the download queue
type QueueManager struct {
	repo        domain.DownloadRepository
	downloadMgr *DownloadManager
	config      *domain.QueueConfig
	multiLogger *logger.MultiLogger
	mu          sync.RWMutex
	running     bool
	stopChan    chan struct{}
	exitChan    chan struct{}
	workerWg    sync.WaitGroup
}

// NewQueueManager creates a new queue manager
func NewQueueManager(
	repo domain.DownloadRepository,
	downloadMgr *DownloadManager,
	config *domain.QueueConfig,
	multiLogger *logger.MultiLogger,
) *QueueManager {
	return &QueueManager{
		repo:        repo,
		downloadMgr: downloadMgr,
		config:      config,
		multiLogger: multiLogger,
		stopChan:    make(chan struct{}),
		exitChan:    make(chan struct{}),
	}
}

// Start starts the queue processor
func (qm *QueueManager) Start(ctx context.Context) error {
	qm.mu.Lock()
	if qm.running {
		qm.mu.Unlock()
		return fmt.Errorf("queue manager already running")
	}
	qm.running = true
	qm.mu.Unlock()

	if qm.multiLogger != nil {
		qm.multiLogger.LogQueueEvent("queue_started")
	}

	qm.workerWg.Add(1)
	go qm.processQueue(ctx)

	return nil
}

// Stop stops the queue processor
func (qm *QueueManager) Stop() error {
	qm.mu.Lock()
	if !qm.running {
		qm.mu.Unlock()
		return fmt.Errorf("queue manager not running")
	}
	qm.running = false
	qm.mu.Unlock()

	if qm.multiLogger != nil {
		qm.multiLogger.LogQueueEvent("queue_stopped")
	}
	close(qm.stopChan)
	qm.workerWg.Wait()

	return nil
}

// IsRunning returns whether the queue manager is running
func (qm *QueueManager) IsRunning() bool {
	qm.mu.RLock()
	defer qm.mu.RUnlock()
	return qm.running
}

// WaitForExit returns a channel that closes when the queue processor exits
// on its own, e.g. via the auto-exit-on-empty timer.
func (qm *QueueManager) WaitForExit() <-chan struct{} {
	return qm.exitChan
}

// AddDownload adds a download to the queue
func (qm *QueueManager) AddDownload(url string, pref domain.QualityPreference) (*domain.Download, error) {
	if url == "" {
		return nil, fmt.Errorf("url must not be empty")
	}
	if !pref.Validate() {
		return nil, fmt.Errorf("invalid preference: quality=%s size=%s", pref.Quality, pref.Size)
	}

	download := domain.NewDownload(url, pref)

	if err := qm.repo.Create(download); err != nil {
		return nil, fmt.Errorf("failed to create download: %w", err)
	}

	if qm.multiLogger != nil {
		qm.multiLogger.LogQueueEvent("download_added",
			zap.String("id", download.ID),
			zap.String("url", url),
			zap.String("quality", string(pref.Quality)),
			zap.String("size", string(pref.Size)))
	}

	return download, nil
}

// GetDownload retrieves a download by ID
func (qm *QueueManager) GetDownload(id string) (*domain.Download, error) {
	return qm.repo.FindByID(id)
}

// ListDownloads lists all downloads with optional filters
func (qm *QueueManager) ListDownloads(filters map[string]interface{}) ([]*domain.Download, error) {
	return qm.repo.FindAll(filters)
}

// GetStats returns queue statistics
func (qm *QueueManager) GetStats() (*domain.DownloadStats, error) {
	return qm.repo.GetStats()
}

// processQueue processes the download queue
func (qm *QueueManager) processQueue(ctx context.Context) {
	defer qm.workerWg.Done()
	defer close(qm.exitChan)

	interval := qm.config.CheckInterval
	if interval <= 0 {
		interval = 10 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	emptyStartTime := time.Time{}

	for {
		select {
		case <-ctx.Done():
			if qm.multiLogger != nil {
				qm.multiLogger.LogQueueEvent("queue_processor_stopped",
					zap.String("reason", "context_cancelled"))
			}
			return
		case <-qm.stopChan:
			if qm.multiLogger != nil {
				qm.multiLogger.LogQueueEvent("queue_processor_stopped",
					zap.String("reason", "stop_signal"))
			}
			return
		case <-ticker.C:
			pending, err := qm.repo.FindPending()
			if err != nil {
				if qm.multiLogger != nil {
					qm.multiLogger.LogAppError("Failed to fetch pending downloads", zap.Error(err))
				}
				continue
			}

			if len(pending) == 0 {
				if emptyStartTime.IsZero() {
					emptyStartTime = time.Now()
					if qm.multiLogger != nil {
						qm.multiLogger.LogQueueEvent("queue_empty")
					}
				} else if qm.config.AutoExitOnEmpty && time.Since(emptyStartTime) > qm.config.EmptyWaitTime {
					if qm.multiLogger != nil {
						qm.multiLogger.LogQueueEvent("queue_auto_exit",
							zap.String("reason", "empty_timeout"))
					}
					return
				}
				continue
			}

			emptyStartTime = time.Time{}

			// One goroutine per download; the manager's semaphores control
			// actual concurrency and per-URL serialization. A download still
			// waiting for a slot stays queued in the repository, so skip
			// anything the manager already has in flight instead of
			// dispatching it again.
			for _, download := range pending {
				dl := download
				if qm.downloadMgr.IsActive(dl.ID) {
					continue
				}

				if qm.multiLogger != nil {
					qm.multiLogger.LogQueueEvent("download_started",
						zap.String("id", dl.ID),
						zap.String("url", dl.URL),
						zap.String("quality", string(dl.Quality)),
						zap.String("size", string(dl.Size)))
				}

				qm.workerWg.Add(1)
				go func(download *domain.Download) {
					defer qm.workerWg.Done()

					if err := qm.downloadMgr.ProcessDownload(ctx, download); err != nil {
						if qm.multiLogger != nil {
							qm.multiLogger.LogQueueEvent("download_failed",
								zap.String("id", download.ID),
								zap.Error(err))
							qm.multiLogger.LogAppError("Failed to process download",
								zap.String("id", download.ID),
								zap.Error(err))
						}
					} else {
						if qm.multiLogger != nil {
							qm.multiLogger.LogQueueEvent("download_completed",
								zap.String("id", download.ID),
								zap.String("status", string(download.Status)),
								zap.String("file_path", download.FilePath))
						}
					}
				}(dl)
			}
		}
	}
}
