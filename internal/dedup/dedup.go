package dedup

import (
	"context"
	"fmt"
	"sync"

	"social-pulse/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Outcomes of an insert attempt. Duplicates are expected filtering, not
// errors.
const (
	OutcomeStored        = "stored"
	OutcomeDuplicateURL  = "duplicate_url"
	OutcomeNearDuplicate = "near_duplicate"
)

// Config tunes the near-duplicate stage.
type Config struct {
	// SimilarityThreshold is the simhash similarity at or above which a
	// record is suppressed as a near duplicate. Borderline matches are a
	// tunable, not a hardcoded constant.
	SimilarityThreshold float64
}

// DefaultConfig returns the stock dedup settings.
func DefaultConfig() Config {
	return Config{SimilarityThreshold: 0.85}
}

type fingerprint struct {
	docID string
	hash  uint64
}

// Deduplicator applies both suppression stages and persists surviving
// records. Inserts are serialized so that concurrent pipelines ingesting the
// same URL cannot both pass the exact stage.
type Deduplicator struct {
	db        *gorm.DB
	threshold float64

	mu    sync.Mutex
	index []fingerprint
}

// New builds a Deduplicator over the existing corpus, loading the stored
// fingerprints for the near-duplicate index.
func New(db *gorm.DB, cfg Config) (*Deduplicator, error) {
	if cfg.SimilarityThreshold <= 0 || cfg.SimilarityThreshold > 1 {
		cfg.SimilarityThreshold = DefaultConfig().SimilarityThreshold
	}

	d := &Deduplicator{db: db, threshold: cfg.SimilarityThreshold}

	var rows []models.Record
	if err := db.Select("doc_id", "fingerprint").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to load dedup index: %w", err)
	}
	d.index = make([]fingerprint, 0, len(rows))
	for _, r := range rows {
		d.index = append(d.index, fingerprint{docID: r.DocID, hash: uint64(r.Fingerprint)})
	}

	return d, nil
}

// Insert runs a canonical record through both dedup stages and, if it
// survives, persists it together with its comments in one transaction. The
// returned outcome is one of OutcomeStored, OutcomeDuplicateURL or
// OutcomeNearDuplicate. Re-running ingestion over an unchanged source never
// grows the corpus; a re-crawl of a known URL supersedes the stored row so
// engagement counts track the latest snapshot.
func (d *Deduplicator) Insert(ctx context.Context, rec *models.Record) (string, error) {
	fp := Simhash(NormalizeText(rec.Text))
	rec.Fingerprint = int64(fp)

	d.mu.Lock()
	defer d.mu.Unlock()

	// Exact stage. A known canonical URL is the same document crawled again,
	// so the stored row is replaced with the fresher snapshot instead of
	// being left stale.
	for i := range d.index {
		if d.index[i].docID == rec.DocID {
			if err := d.supersede(ctx, rec); err != nil {
				return "", err
			}
			d.index[i].hash = fp
			return OutcomeDuplicateURL, nil
		}
	}

	for _, known := range d.index {
		if Similarity(known.hash, fp) >= d.threshold {
			return OutcomeNearDuplicate, nil
		}
	}

	stored := false
	err := d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		comments := rec.CommentsDetail
		rec.CommentsDetail = nil

		res := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(rec)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return nil // lost the race on doc_id/url to another writer
		}
		stored = true

		for i := range comments {
			comments[i].RecordDocID = rec.DocID
			comments[i].Position = i
		}
		if len(comments) > 0 {
			if err := tx.Create(&comments).Error; err != nil {
				return err
			}
		}
		rec.CommentsDetail = comments
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("failed to persist record %s: %w", rec.DocID, err)
	}

	if !stored {
		// Another writer got the row in first; ours is the fresher crawl, so
		// it supersedes theirs just like a re-crawl would.
		if err := d.supersede(ctx, rec); err != nil {
			return "", err
		}
		d.index = append(d.index, fingerprint{docID: rec.DocID, hash: fp})
		return OutcomeDuplicateURL, nil
	}

	d.index = append(d.index, fingerprint{docID: rec.DocID, hash: fp})
	return OutcomeStored, nil
}

// supersede replaces the stored row and its comments with a freshly crawled
// snapshot of the same document. The DocID stays, so scores and API links
// keyed on it survive the refresh.
func (d *Deduplicator) supersede(ctx context.Context, rec *models.Record) error {
	err := d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		comments := rec.CommentsDetail
		rec.CommentsDetail = nil

		if err := tx.Model(&models.Record{}).Where("doc_id = ?", rec.DocID).
			Updates(map[string]interface{}{
				"text":        rec.Text,
				"hashtags":    rec.Hashtags,
				"likes":       rec.Likes,
				"comments":    rec.Comments,
				"views":       rec.Views,
				"keyword":     rec.Keyword,
				"fingerprint": rec.Fingerprint,
			}).Error; err != nil {
			return err
		}

		if err := tx.Where("record_doc_id = ?", rec.DocID).Delete(&models.RecordComment{}).Error; err != nil {
			return err
		}
		for i := range comments {
			comments[i].RecordDocID = rec.DocID
			comments[i].Position = i
		}
		if len(comments) > 0 {
			if err := tx.Create(&comments).Error; err != nil {
				return err
			}
		}
		rec.CommentsDetail = comments
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to supersede record %s: %w", rec.DocID, err)
	}
	return nil
}
