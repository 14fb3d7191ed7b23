// Package export writes stored records to the two supported interchange
// formats: a flat CSV with one row per record and a hierarchical JSON
// document that nests comment detail.
package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"gorm.io/gorm"

	"social-pulse/internal/models"
)

var csvHeader = []string{
	"doc_id", "platform", "created_at", "text", "hashtags",
	"likes", "comments", "views", "url",
}

// Service loads records and streams them to a writer.
type Service struct {
	db *gorm.DB
}

func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// load fetches records, optionally restricted to one platform, ordered by
// creation time so exports are stable.
func (s *Service) load(platform string, withComments bool) ([]models.Record, error) {
	query := s.db.Order("created_at ASC, doc_id ASC")
	if platform != "" {
		query = query.Where("platform = ?", platform)
	}
	if withComments {
		query = query.Preload("CommentsDetail", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		})
	}

	var records []models.Record
	if err := query.Find(&records).Error; err != nil {
		return nil, fmt.Errorf("failed to load records for export: %w", err)
	}
	return records, nil
}

// WriteCSV writes the flat form. Hashtags are joined with spaces; comment
// detail is summarized by its count, which is already a top-level column.
func (s *Service) WriteCSV(w io.Writer, platform string) error {
	records, err := s.load(platform, false)
	if err != nil {
		return err
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	for _, rec := range records {
		row := []string{
			rec.DocID,
			rec.Platform,
			rec.CreatedAt.UTC().Format(time.RFC3339),
			rec.Text,
			strings.Join(rec.Hashtags, " "),
			strconv.Itoa(rec.Likes),
			strconv.Itoa(rec.Comments),
			strconv.Itoa(rec.Views),
			rec.URL,
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("failed to write CSV row: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// WriteJSON writes the hierarchical form with nested comments.
func (s *Service) WriteJSON(w io.Writer, platform string) error {
	records, err := s.load(platform, true)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(records); err != nil {
		return fmt.Errorf("failed to encode records: %w", err)
	}
	return nil
}
