package scoring

import (
	"fmt"

	"social-pulse/internal/models"

	"gorm.io/gorm"
)

// Service computes engagement scores over the persisted corpus.
type Service struct {
	db *gorm.DB
}

// NewService creates a new scoring service
func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// Scores recomputes per-post scores for the whole corpus, optionally
// restricted to one platform.
func (s *Service) Scores(platform string) ([]Score, error) {
	records, err := s.loadRecords(platform)
	if err != nil {
		return nil, err
	}
	return ComputeScores(records), nil
}

// Aggregates recomputes the platform-level and platform-year KPI means.
func (s *Service) Aggregates() ([]PlatformAggregate, []PlatformYearAggregate, error) {
	records, err := s.loadRecords("")
	if err != nil {
		return nil, nil, err
	}
	scores := ComputeScores(records)
	return PlatformAggregates(scores), YearlyAggregates(records), nil
}

func (s *Service) loadRecords(platform string) ([]models.Record, error) {
	query := s.db.Model(&models.Record{})
	if platform != "" {
		query = query.Where("platform = ?", platform)
	}
	var records []models.Record
	if err := query.Find(&records).Error; err != nil {
		return nil, fmt.Errorf("failed to load records for scoring: %w", err)
	}
	return records, nil
}
