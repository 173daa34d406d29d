package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/yourusername/vidfetch-go/internal/app"
	"github.com/yourusername/vidfetch-go/internal/domain"
)

// DownloadHandler handles download-related HTTP requests
type DownloadHandler struct {
	queueMgr    *app.QueueManager
	downloadMgr *app.DownloadManager
	defaultPref domain.QualityPreference
	logger      *zap.Logger
}

// NewDownloadHandler creates a new download handler
func NewDownloadHandler(queueMgr *app.QueueManager, downloadMgr *app.DownloadManager, defaultPref domain.QualityPreference, logger *zap.Logger) *DownloadHandler {
	return &DownloadHandler{
		queueMgr:    queueMgr,
		downloadMgr: downloadMgr,
		defaultPref: defaultPref,
		logger:      logger,
	}
}

// AddDownloadRequest represents a request to add a download
type AddDownloadRequest struct {
	URL     string `json:"url" binding:"required"`
	Quality string `json:"quality,omitempty"`
	Size    string `json:"size,omitempty"`
}

// AddDownload handles POST /api/v1/downloads
func (h *DownloadHandler) AddDownload(c *gin.Context) {
	var req AddDownloadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	// Configured preference applies unless the request overrides it
	pref := h.defaultPref
	if req.Quality != "" {
		pref.Quality = domain.Tier(req.Quality)
	}
	if req.Size != "" {
		pref.Size = domain.Tier(req.Size)
	}
	if !pref.Validate() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "quality and size must be one of: low, medium, high"})
		return
	}

	download, err := h.queueMgr.AddDownload(req.URL, pref)
	if err != nil {
		h.logger.Error("Failed to add download", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, download)
}

// GetDownload handles GET /api/v1/downloads/:id
func (h *DownloadHandler) GetDownload(c *gin.Context) {
	id := c.Param("id")

	download, err := h.queueMgr.GetDownload(id)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "download not found"})
		return
	}

	c.JSON(http.StatusOK, download)
}

// GetReport handles GET /api/v1/downloads/:id/report. It returns the frozen
// session report plus the probe diagnostics for post-mortem inspection.
func (h *DownloadHandler) GetReport(c *gin.Context) {
	id := c.Param("id")

	download, err := h.queueMgr.GetDownload(id)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "download not found"})
		return
	}

	report := download.SessionReport()
	if report == nil && download.Diagnostics == "" {
		c.JSON(http.StatusNotFound, gin.H{"error": "no report recorded yet"})
		return
	}

	var diagnostics *domain.DiagnosticsReport
	if download.Diagnostics != "" {
		var d domain.DiagnosticsReport
		if json.Unmarshal([]byte(download.Diagnostics), &d) == nil {
			diagnostics = &d
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"id":          download.ID,
		"url":         download.URL,
		"status":      download.Status,
		"report":      report,
		"diagnostics": diagnostics,
	})
}

// ListDownloads handles GET /api/v1/downloads
func (h *DownloadHandler) ListDownloads(c *gin.Context) {
	filters := make(map[string]interface{})

	if status := c.Query("status"); status != "" {
		filters["status"] = status
	}
	if quality := c.Query("quality"); quality != "" {
		filters["quality"] = quality
	}

	downloads, err := h.queueMgr.ListDownloads(filters)
	if err != nil {
		h.logger.Error("Failed to list downloads", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, downloads)
}

// GetStats handles GET /api/v1/downloads/stats
func (h *DownloadHandler) GetStats(c *gin.Context) {
	stats, err := h.queueMgr.GetStats()
	if err != nil {
		h.logger.Error("Failed to get stats", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, stats)
}

// CancelDownload handles POST /api/v1/downloads/:id/cancel
func (h *DownloadHandler) CancelDownload(c *gin.Context) {
	id := c.Param("id")

	if err := h.downloadMgr.CancelDownload(id); err != nil {
		h.logger.Error("Failed to cancel download", zap.String("id", id), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "download cancelled"})
}

// RetryDownload handles POST /api/v1/downloads/:id/retry
func (h *DownloadHandler) RetryDownload(c *gin.Context) {
	id := c.Param("id")

	if err := h.downloadMgr.RetryDownload(c.Request.Context(), id); err != nil {
		h.logger.Error("Failed to retry download", zap.String("id", id), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "download queued for retry"})
}

// DeleteDownload handles DELETE /api/v1/downloads/:id
func (h *DownloadHandler) DeleteDownload(c *gin.Context) {
	id := c.Param("id")

	download, err := h.queueMgr.GetDownload(id)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "download not found"})
		return
	}

	if download.IsProcessing() {
		c.JSON(http.StatusConflict, gin.H{"error": "cannot delete a processing download, cancel it first"})
		return
	}

	if err := h.downloadMgr.DeleteDownload(id); err != nil {
		h.logger.Error("Failed to delete download", zap.String("id", id), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "download deleted"})
}
