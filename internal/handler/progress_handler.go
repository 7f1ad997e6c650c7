package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/fleveque/company-summarizer/internal/progress"
)

// SnapshotSource is satisfied by *progress.Tracker.
type SnapshotSource interface {
	Snapshot() progress.Snapshot
}

// ProgressHandler exposes the live state of the current run.
type ProgressHandler struct {
	source SnapshotSource
	logger *zap.Logger
}

// NewProgressHandler creates a new ProgressHandler.
func NewProgressHandler(source SnapshotSource, logger *zap.Logger) *ProgressHandler {
	return &ProgressHandler{
		source: source,
		logger: logger,
	}
}

// Progress returns the whole run snapshot.
// Route: GET /api/v1/progress
func (h *ProgressHandler) Progress(c *gin.Context) {
	c.JSON(http.StatusOK, h.source.Snapshot())
}

// Company returns the latest state of one company.
// Route: GET /api/v1/progress/companies/:name
func (h *ProgressHandler) Company(c *gin.Context) {
	name := c.Param("name")

	for _, cs := range h.source.Snapshot().Companies {
		if cs.Name == name {
			c.JSON(http.StatusOK, cs)
			return
		}
	}

	h.logger.Debug("company not in current run", zap.String("company", name))
	c.JSON(http.StatusNotFound, gin.H{
		"error": "company not found in current run",
	})
}
