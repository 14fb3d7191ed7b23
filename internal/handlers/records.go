package handlers

import (
	"net/http"
	"strconv"
	"time"

	"social-pulse/internal/models"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// RecordsHandler serves the stored record corpus
type RecordsHandler struct {
	db *gorm.DB
}

// NewRecordsHandler creates a new records handler
func NewRecordsHandler(db *gorm.DB) *RecordsHandler {
	return &RecordsHandler{db: db}
}

// ListRecords returns records filtered by platform, keyword and time window
func (h *RecordsHandler) ListRecords(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if limit < 1 || limit > 500 {
		limit = 50
	}
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	if offset < 0 {
		offset = 0
	}

	query := h.db.Model(&models.Record{}).Order("created_at DESC, doc_id ASC")

	if platform := c.Query("platform"); platform != "" {
		query = query.Where("platform = ?", platform)
	}
	if keyword := c.Query("keyword"); keyword != "" {
		query = query.Where("keyword = ?", keyword)
	}
	if since := c.Query("since"); since != "" {
		t, err := parseTimeParam(since)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid since parameter"})
			return
		}
		query = query.Where("created_at >= ?", t)
	}
	if until := c.Query("until"); until != "" {
		t, err := parseTimeParam(until)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid until parameter"})
			return
		}
		query = query.Where("created_at <= ?", t)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to count records"})
		return
	}

	var records []models.Record
	if err := query.Limit(limit).Offset(offset).Find(&records).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch records"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"records": records,
		"total":   total,
		"limit":   limit,
		"offset":  offset,
	})
}

// GetRecord returns one record with its comment detail
func (h *RecordsHandler) GetRecord(c *gin.Context) {
	docID := c.Param("doc_id")

	var record models.Record
	err := h.db.Preload("CommentsDetail", func(db *gorm.DB) *gorm.DB {
		return db.Order("position ASC")
	}).First(&record, "doc_id = ?", docID).Error
	if err == gorm.ErrRecordNotFound {
		c.JSON(http.StatusNotFound, gin.H{"error": "Record not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch record"})
		return
	}

	c.JSON(http.StatusOK, record)
}

func parseTimeParam(s string) (time.Time, error) {
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t.UTC(), nil
	}
	return time.Parse(time.RFC3339, s)
}
