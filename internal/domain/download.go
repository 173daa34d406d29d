package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// DownloadStatus represents the current status of a download
type DownloadStatus string

const (
	StatusQueued     DownloadStatus = "queued"
	StatusProcessing DownloadStatus = "processing"
	StatusCompleted  DownloadStatus = "completed"
	StatusFailed     DownloadStatus = "failed"
	StatusCancelled  DownloadStatus = "cancelled"
)

// Download represents a download task
type Download struct {
	ID           string         `json:"id" gorm:"primaryKey"`
	URL          string         `json:"url" gorm:"not null"`
	Status       DownloadStatus `json:"status" gorm:"not null;index"`
	Quality      Tier           `json:"quality" gorm:"default:high"`
	Size         Tier           `json:"size" gorm:"default:high"`
	Priority     int            `json:"priority" gorm:"default:0;index"`
	ErrorMessage string         `json:"error_message,omitempty"`
	FilePath     string         `json:"file_path,omitempty"`
	Report       string         `json:"report,omitempty" gorm:"type:text"`      // frozen SessionReport as JSON
	Diagnostics  string         `json:"diagnostics,omitempty" gorm:"type:text"` // DiagnosticsReport as JSON
	CreatedAt    time.Time      `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt    time.Time      `json:"updated_at" gorm:"autoUpdateTime"`
	StartedAt    *time.Time     `json:"started_at,omitempty"`
	CompletedAt  *time.Time     `json:"completed_at,omitempty"`
}

// NewDownload creates a new download task
func NewDownload(url string, pref QualityPreference) *Download {
	return &Download{
		ID:        uuid.New().String(),
		URL:       url,
		Status:    StatusQueued,
		Quality:   pref.Quality,
		Size:      pref.Size,
		Priority:  0,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
}

// Preference returns the download's quality/size preference pair.
func (d *Download) Preference() QualityPreference {
	return QualityPreference{Quality: d.Quality, Size: d.Size}
}

// MarkProcessing marks the download as processing
func (d *Download) MarkProcessing() {
	d.Status = StatusProcessing
	now := time.Now()
	d.StartedAt = &now
	d.UpdatedAt = now
}

// MarkCompleted marks the download as completed
func (d *Download) MarkCompleted(filePath string) {
	d.Status = StatusCompleted
	d.FilePath = filePath
	now := time.Now()
	d.CompletedAt = &now
	d.UpdatedAt = now
}

// MarkFailed marks the download as failed
func (d *Download) MarkFailed(err error) {
	d.Status = StatusFailed
	d.ErrorMessage = err.Error()
	d.UpdatedAt = time.Now()
}

// MarkCancelled marks the download as cancelled
func (d *Download) MarkCancelled() {
	d.Status = StatusCancelled
	d.UpdatedAt = time.Now()
}

// AttachReport stores the frozen session report on the download record.
func (d *Download) AttachReport(report *SessionReport) {
	data, err := json.Marshal(report)
	if err != nil {
		return
	}
	d.Report = string(data)
	d.UpdatedAt = time.Now()
}

// AttachDiagnostics stores the probe diagnostics on the download record.
func (d *Download) AttachDiagnostics(diag *DiagnosticsReport) {
	data, err := json.Marshal(diag)
	if err != nil {
		return
	}
	d.Diagnostics = string(data)
	d.UpdatedAt = time.Now()
}

// SessionReport decodes the stored session report, nil when absent.
func (d *Download) SessionReport() *SessionReport {
	if d.Report == "" {
		return nil
	}
	var report SessionReport
	if err := json.Unmarshal([]byte(d.Report), &report); err != nil {
		return nil
	}
	return &report
}

// IsTerminal checks if the download is in a terminal state. Failed counts:
// a failed download only leaves that state through an explicit retry, so
// cancelling it would just erase the failed/cancelled distinction.
func (d *Download) IsTerminal() bool {
	return d.Status == StatusCompleted || d.Status == StatusCancelled || d.Status == StatusFailed
}

// IsPending checks if the download is pending
func (d *Download) IsPending() bool {
	return d.Status == StatusQueued
}

// IsProcessing checks if the download is currently processing
func (d *Download) IsProcessing() bool {
	return d.Status == StatusProcessing
}
