package handler

import (
	"net/http"

	"propchat/internal/ingest"
	"propchat/internal/model"

	"github.com/gin-gonic/gin"
)

// IngestHandler handles manual ingestion triggers
type IngestHandler struct {
	pipeline *ingest.Pipeline
}

// NewIngestHandler creates a new ingest handler
func NewIngestHandler(pipeline *ingest.Pipeline) *IngestHandler {
	return &IngestHandler{pipeline: pipeline}
}

// Trigger handles POST /api/v1/ingest. The body mirrors the
// object-created notification payload so operators can replay objects.
func (h *IngestHandler) Trigger(c *gin.Context) {
	var req model.IngestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	summary, err := h.pipeline.ProcessObject(c.Request.Context(), req.Bucket, req.Key)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, summary)
}
