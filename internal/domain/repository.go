package domain

// DownloadRepository persists download records along with their attached
// session reports and diagnostics. The core treats it as a plain store:
// concurrency decisions (who downloads what, when) live in the managers,
// never in queries.
type DownloadRepository interface {
	Create(download *Download) error
	Update(download *Download) error
	Delete(id string) error
	FindByID(id string) (*Download, error)
	FindByStatus(status DownloadStatus) ([]*Download, error)

	// FindPending returns queued downloads ordered by priority, then
	// creation time. The queue processor dispatches in this order.
	FindPending() ([]*Download, error)

	// FindAll lists downloads, optionally narrowed by column filters
	// (status, quality).
	FindAll(filters map[string]interface{}) ([]*Download, error)

	Count() (int64, error)
	CountByStatus(status DownloadStatus) (int64, error)
	GetStats() (*DownloadStats, error)
}

// DownloadStats is the per-status breakdown served by the stats endpoint.
type DownloadStats struct {
	Total      int64 `json:"total"`
	Queued     int64 `json:"queued"`
	Processing int64 `json:"processing"`
	Completed  int64 `json:"completed"`
	Failed     int64 `json:"failed"`
	Cancelled  int64 `json:"cancelled"`
}
