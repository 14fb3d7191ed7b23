package handlers

import (
	"net/http"

	"social-pulse/internal/export"

	"github.com/gin-gonic/gin"
)

// ExportHandler streams the corpus in interchange formats
type ExportHandler struct {
	export *export.Service
}

// NewExportHandler creates a new export handler
func NewExportHandler(exportService *export.Service) *ExportHandler {
	return &ExportHandler{export: exportService}
}

// ExportCSV streams the flat CSV form
func (h *ExportHandler) ExportCSV(c *gin.Context) {
	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Header("Content-Disposition", `attachment; filename="records.csv"`)
	c.Status(http.StatusOK)

	if err := h.export.WriteCSV(c.Writer, c.Query("platform")); err != nil {
		// Headers are already sent; all we can do is abort the stream.
		c.Abort()
	}
}

// ExportJSON streams the hierarchical JSON form with nested comments
func (h *ExportHandler) ExportJSON(c *gin.Context) {
	c.Header("Content-Type", "application/json; charset=utf-8")
	c.Header("Content-Disposition", `attachment; filename="records.json"`)
	c.Status(http.StatusOK)

	if err := h.export.WriteJSON(c.Writer, c.Query("platform")); err != nil {
		c.Abort()
	}
}
