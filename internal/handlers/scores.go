package handlers

import (
	"net/http"

	"social-pulse/internal/scoring"

	"github.com/gin-gonic/gin"
)

// ScoresHandler serves engagement scores and their aggregates
type ScoresHandler struct {
	scoring *scoring.Service
}

// NewScoresHandler creates a new scores handler
func NewScoresHandler(scoringService *scoring.Service) *ScoresHandler {
	return &ScoresHandler{scoring: scoringService}
}

// GetScores returns per-record KPI scores, optionally for one platform
func (h *ScoresHandler) GetScores(c *gin.Context) {
	scores, err := h.scoring.Scores(c.Query("platform"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to compute scores"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"scores": scores})
}

// GetAggregates returns platform and platform-year KPI aggregates
func (h *ScoresHandler) GetAggregates(c *gin.Context) {
	platformAggs, yearlyAggs, err := h.scoring.Aggregates()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to compute aggregates"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"platforms":      platformAggs,
		"platform_years": yearlyAggs,
	})
}
