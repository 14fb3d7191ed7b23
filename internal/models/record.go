package models

import (
	"time"

	"github.com/lib/pq"
)

// Record is the canonical, platform-agnostic representation of one piece of
// ingested content. It is created once per unique canonical URL and never
// mutated in place; a re-ingestion pass replaces the whole row by DocID.
type Record struct {
	DocID     string         `json:"doc_id" db:"doc_id" gorm:"primaryKey;size:64"`
	Platform  string         `json:"platform" db:"platform" gorm:"index;not null"`
	CreatedAt time.Time      `json:"created_at" db:"created_at" gorm:"index;not null"`
	Text      string         `json:"text" db:"text" gorm:"type:text"`
	Hashtags  pq.StringArray `json:"hashtags" db:"hashtags" gorm:"type:text[]"`

	// Engagement counts; missing values are stored as 0, never NULL, so
	// scoring stays well-defined.
	Likes    int `json:"likes" db:"likes" gorm:"default:0"`
	Comments int `json:"comments" db:"comments" gorm:"default:0"`
	Views    int `json:"views" db:"views" gorm:"default:0"`

	// Canonical URL (lowercased scheme/host, tracking params stripped,
	// no trailing slash). This is the dedup and identity key.
	URL string `json:"url" db:"url" gorm:"uniqueIndex;not null"`

	// Keyword that matched this record during ingestion.
	Keyword string `json:"-" db:"keyword" gorm:"index"`

	// Simhash fingerprint over normalized text, used by the near-duplicate
	// stage. Stored as int64 for portability; reinterpret the bits as uint64.
	Fingerprint int64 `json:"-" db:"fingerprint"`

	IngestedAt time.Time `json:"-" db:"ingested_at" gorm:"autoCreateTime"`

	CommentsDetail []RecordComment `json:"comments_detail,omitempty" gorm:"foreignKey:RecordDocID;references:DocID"`
}

// TableName sets the table name for the Record model
func (Record) TableName() string {
	return "records"
}

// Year returns the calendar year of the record's creation timestamp (UTC).
func (r Record) Year() int {
	return r.CreatedAt.UTC().Year()
}

// RecordComment is one collected comment on a record. Only a one-way hash of
// the commenter identity is ever stored; raw user identifiers must not reach
// this table.
type RecordComment struct {
	ID          uint      `json:"-" gorm:"primaryKey;autoIncrement"`
	RecordDocID string    `json:"-" db:"record_doc_id" gorm:"index;size:64;not null"`
	Position    int       `json:"-" db:"position"` // order within the post's comment list
	AuthorHash  string    `json:"author_hash" db:"author_hash" gorm:"size:32"`
	Content     string    `json:"content" db:"content" gorm:"type:text"`
	Date        time.Time `json:"date" db:"date"`
}

// TableName sets the table name for the RecordComment model
func (RecordComment) TableName() string {
	return "record_comments"
}
