package handlers

import (
	"fmt"
	"net/http"
	"os"
	"strings"

	"social-pulse/internal/models"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// AdminHandler handles the operator dashboard
type AdminHandler struct {
	db *gorm.DB
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(db *gorm.DB) *AdminHandler {
	return &AdminHandler{db: db}
}

// AdminAuth middleware for basic password protection
func (h *AdminHandler) AdminAuth() gin.HandlerFunc {
	return gin.BasicAuth(gin.Accounts{
		"admin": getAdminPassword(),
	})
}

// getAdminPassword returns the admin password from environment or default
func getAdminPassword() string {
	password := os.Getenv("ADMIN_PASSWORD")
	if password == "" {
		password = "admin123" // Default password for development
	}
	return password
}

type platformCount struct {
	Platform string
	Count    int64
}

// ServeAdminDashboard serves the main admin dashboard
func (h *AdminHandler) ServeAdminDashboard(c *gin.Context) {
	var recordCount, commentCount, runCount int64
	h.db.Model(&models.Record{}).Count(&recordCount)
	h.db.Model(&models.RecordComment{}).Count(&commentCount)
	h.db.Model(&models.IngestRun{}).Count(&runCount)

	var platformCounts []platformCount
	h.db.Model(&models.Record{}).
		Select("platform, COUNT(*) as count").
		Group("platform").
		Order("platform ASC").
		Scan(&platformCounts)

	var recentRuns []models.IngestRun
	h.db.Order("started_at DESC").Limit(5).Find(&recentRuns)

	html := h.generateDashboardHTML(recordCount, commentCount, runCount, platformCounts, recentRuns)
	c.Header("Content-Type", "text/html; charset=utf-8")
	c.String(http.StatusOK, html)
}

// generateDashboardHTML generates the main admin dashboard
func (h *AdminHandler) generateDashboardHTML(recordCount, commentCount, runCount int64, platformCounts []platformCount, recentRuns []models.IngestRun) string {
	var platformRows strings.Builder
	for _, pc := range platformCounts {
		platformRows.WriteString(fmt.Sprintf(
			"<tr><td>%s</td><td>%d</td></tr>\n", pc.Platform, pc.Count))
	}

	var runRows strings.Builder
	for _, run := range recentRuns {
		runRows.WriteString(fmt.Sprintf(
			"<tr><td>%s</td><td>%s</td><td>%s</td><td>%d</td><td>%d</td></tr>\n",
			run.ID, run.Status, run.StartedAt.Format("2006-01-02 15:04"),
			run.RecordsStored, run.Rejected))
	}

	return fmt.Sprintf(`<!DOCTYPE html>
<html>
<head>
    <title>Social Pulse Admin</title>
    <style>
        body { font-family: -apple-system, sans-serif; margin: 40px; color: #222; }
        h1 { border-bottom: 2px solid #0066cc; padding-bottom: 8px; }
        .stats { display: flex; gap: 24px; margin: 24px 0; }
        .stat { background: #f5f7fa; border-radius: 8px; padding: 16px 24px; }
        .stat .num { font-size: 28px; font-weight: 600; color: #0066cc; }
        table { border-collapse: collapse; margin: 16px 0; }
        td, th { border: 1px solid #ddd; padding: 6px 12px; text-align: left; }
        th { background: #f5f7fa; }
    </style>
</head>
<body>
    <h1>Social Pulse Admin</h1>
    <div class="stats">
        <div class="stat"><div class="num">%d</div>Records</div>
        <div class="stat"><div class="num">%d</div>Comments</div>
        <div class="stat"><div class="num">%d</div>Ingestion Runs</div>
    </div>
    <h2>Records by Platform</h2>
    <table>
        <tr><th>Platform</th><th>Records</th></tr>
        %s
    </table>
    <h2>Recent Runs</h2>
    <table>
        <tr><th>ID</th><th>Status</th><th>Started</th><th>Stored</th><th>Rejected</th></tr>
        %s
    </table>
</body>
</html>`, recordCount, commentCount, runCount, platformRows.String(), runRows.String())
}
