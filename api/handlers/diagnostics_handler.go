package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/yourusername/vidfetch-go/internal/app"
)

// DiagnosticsHandler exposes the read-only probe over HTTP
type DiagnosticsHandler struct {
	prober *app.Prober
	logger *zap.Logger
}

// NewDiagnosticsHandler creates a new diagnostics handler
func NewDiagnosticsHandler(prober *app.Prober, logger *zap.Logger) *DiagnosticsHandler {
	return &DiagnosticsHandler{
		prober: prober,
		logger: logger,
	}
}

// DiagnoseRequest represents a request to probe a URL
type DiagnoseRequest struct {
	URL string `json:"url" binding:"required"`
}

// Diagnose handles POST /api/v1/diagnostics. The probe never fails as an
// operation: an unreachable URL comes back 200 with accessible=false.
func (h *DiagnosticsHandler) Diagnose(c *gin.Context) {
	var req DiagnoseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	report := h.prober.Probe(c.Request.Context(), req.URL)
	c.JSON(http.StatusOK, report)
}
