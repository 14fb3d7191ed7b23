package models

import (
	"time"

	"github.com/google/uuid"
)

// IngestRun statuses.
const (
	RunStatusRunning   = "running"
	RunStatusCompleted = "completed"
	RunStatusCancelled = "cancelled"
)

// Pipeline terminal states. A failed pipeline still contributes whatever
// records it accumulated before the failure.
const (
	PipelineStateDone   = "done"
	PipelineStateFailed = "failed"
)

// IngestRun is the persisted report of one batch ingestion: every
// (platform, keyword) pipeline it drove plus aggregate counters. Partial
// success is the expected outcome under platform instability, never treated
// as total failure.
type IngestRun struct {
	ID         uuid.UUID  `json:"id" gorm:"primaryKey;type:uuid"`
	Status     string     `json:"status" gorm:"index"`
	StartedAt  time.Time  `json:"started_at"`
	FinishedAt *time.Time `json:"finished_at"`

	RecordsFetched int `json:"records_fetched" gorm:"default:0"`
	RecordsStored  int `json:"records_stored" gorm:"default:0"` // final corpus delta
	Rejected       int `json:"rejected" gorm:"default:0"`
	Deduplicated   int `json:"deduplicated" gorm:"default:0"`

	Pipelines []PipelineResult `json:"pipelines,omitempty" gorm:"foreignKey:RunID"`
}

// TableName sets the table name for the IngestRun model
func (IngestRun) TableName() string {
	return "ingest_runs"
}

// PipelineResult is the per-(platform, keyword) slice of a run report.
type PipelineResult struct {
	ID       uint      `json:"-" gorm:"primaryKey;autoIncrement"`
	RunID    uuid.UUID `json:"-" gorm:"type:uuid;index;not null"`
	Platform string    `json:"platform" gorm:"index"`
	Keyword  string    `json:"keyword"`
	State    string    `json:"state"`
	Error    string    `json:"error,omitempty"`

	PagesFetched   int `json:"pages_fetched" gorm:"default:0"`
	RecordsFetched int `json:"records_fetched" gorm:"default:0"`
	RecordsStored  int `json:"records_stored" gorm:"default:0"`

	// Rejections by reason. DuplicateRejected is expected filtering, not an
	// error, and is counted separately from the rejection reasons.
	RejectedDateParse   int `json:"rejected_date_parse" gorm:"default:0"`
	RejectedMissing     int `json:"rejected_missing_fields" gorm:"default:0"`
	RejectedOutOfWindow int `json:"rejected_out_of_window" gorm:"default:0"`
	RejectedFetch       int `json:"rejected_fetch" gorm:"default:0"`
	DuplicateURL        int `json:"duplicate_url" gorm:"default:0"`
	NearDuplicate       int `json:"near_duplicate" gorm:"default:0"`
}

// TableName sets the table name for the PipelineResult model
func (PipelineResult) TableName() string {
	return "pipeline_results"
}

// Rejected sums the rejection counters (duplicates excluded).
func (p PipelineResult) Rejected() int {
	return p.RejectedDateParse + p.RejectedMissing + p.RejectedOutOfWindow + p.RejectedFetch
}

// Deduplicated sums both dedup stages.
func (p PipelineResult) Deduplicated() int {
	return p.DuplicateURL + p.NearDuplicate
}
