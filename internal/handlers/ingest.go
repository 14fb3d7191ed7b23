package handlers

import (
	"net/http"
	"strconv"

	"social-pulse/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// RunTrigger starts an ingestion run in the background and returns its ID.
type RunTrigger interface {
	TriggerRun() (uuid.UUID, error)
}

// IngestHandler exposes ingestion runs and their reports
type IngestHandler struct {
	db      *gorm.DB
	trigger RunTrigger
}

// NewIngestHandler creates a new ingest handler
func NewIngestHandler(db *gorm.DB, trigger RunTrigger) *IngestHandler {
	return &IngestHandler{db: db, trigger: trigger}
}

// TriggerRun starts a new ingestion run
func (h *IngestHandler) TriggerRun(c *gin.Context) {
	if h.trigger == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Ingestion is not configured"})
		return
	}

	runID, err := h.trigger.TriggerRun()
	if err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"run_id": runID,
		"status": models.RunStatusRunning,
	})
}

// GetRun returns one run with its per-pipeline results
func (h *IngestHandler) GetRun(c *gin.Context) {
	runID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid run ID"})
		return
	}

	var run models.IngestRun
	err = h.db.Preload("Pipelines").First(&run, "id = ?", runID).Error
	if err == gorm.ErrRecordNotFound {
		c.JSON(http.StatusNotFound, gin.H{"error": "Run not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch run"})
		return
	}

	c.JSON(http.StatusOK, run)
}

// ListRuns returns recent runs, newest first
func (h *IngestHandler) ListRuns(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if limit < 1 || limit > 100 {
		limit = 20
	}

	var runs []models.IngestRun
	err := h.db.Order("started_at DESC").Limit(limit).Find(&runs).Error
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch runs"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"runs": runs})
}
