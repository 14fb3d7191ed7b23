package ingest

import (
	"context"
	"testing"
	"time"

	"social-pulse/internal/dedup"
	"social-pulse/internal/models"

	"github.com/stretchr/testify/assert"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}

	err = db.AutoMigrate(models.AllModels()...)
	if err != nil {
		t.Fatalf("Failed to migrate test database: %v", err)
	}

	return db
}

func newTestService(t *testing.T, db *gorm.DB, adapter *fakeAdapter) *Service {
	dd, err := dedup.New(db, dedup.DefaultConfig())
	if err != nil {
		t.Fatalf("Failed to create deduplicator: %v", err)
	}
	return NewService(db, dd, []PlatformSetup{
		{Adapter: adapter, Limiter: testLimiter(), Workers: 1},
	})
}

func TestServiceRunStoresRecords(t *testing.T) {
	db := setupTestDB(t)
	adapter := &fakeAdapter{
		pages: [][]fakePost{
			{{id: "1", created: day(3)}, {id: "2", created: day(2)}},
			{{id: "3", created: day(1)}},
		},
	}
	service := newTestService(t, db, adapter)

	run, err := service.Run(context.Background(), Plan{Keywords: []string{"go"}})
	assert.NoError(t, err)
	assert.Equal(t, models.RunStatusCompleted, run.Status)
	assert.Equal(t, 3, run.RecordsStored)
	assert.Equal(t, 0, run.Deduplicated)
	assert.NotNil(t, run.FinishedAt)

	var count int64
	db.Model(&models.Record{}).Count(&count)
	assert.Equal(t, int64(3), count)

	// The run report is persisted with its pipeline results.
	var stored models.IngestRun
	err = db.Preload("Pipelines").First(&stored, "id = ?", run.ID).Error
	assert.NoError(t, err)
	assert.Equal(t, models.RunStatusCompleted, stored.Status)
	assert.Len(t, stored.Pipelines, 1)
	assert.Equal(t, models.PipelineStateDone, stored.Pipelines[0].State)
}

func TestServiceRunIsIdempotent(t *testing.T) {
	db := setupTestDB(t)
	adapter := &fakeAdapter{
		pages: [][]fakePost{{{id: "1", created: day(1)}, {id: "2", created: day(2)}}},
	}
	service := newTestService(t, db, adapter)

	first, err := service.Run(context.Background(), Plan{Keywords: []string{"go"}})
	assert.NoError(t, err)
	assert.Equal(t, 2, first.RecordsStored)

	second, err := service.Run(context.Background(), Plan{Keywords: []string{"go"}})
	assert.NoError(t, err)
	assert.Equal(t, 0, second.RecordsStored)
	assert.Equal(t, 2, second.Deduplicated)

	var count int64
	db.Model(&models.Record{}).Count(&count)
	assert.Equal(t, int64(2), count)
}

func TestServiceRunDateFilterBeforeDedup(t *testing.T) {
	db := setupTestDB(t)
	adapter := &fakeAdapter{
		pages: [][]fakePost{
			{{id: "1", created: day(5)}, {id: "2", created: day(25)}},
		},
	}
	service := newTestService(t, db, adapter)

	start := day(10)
	end := day(20)
	run, err := service.Run(context.Background(), Plan{
		Keywords: []string{"go"},
		Window:   Window{Start: &start, End: &end},
	})
	assert.NoError(t, err)
	assert.Equal(t, 0, run.RecordsStored)
	assert.Equal(t, 2, run.Rejected)

	var results []models.PipelineResult
	db.Find(&results)
	assert.Len(t, results, 1)
	assert.Equal(t, 2, results[0].RejectedOutOfWindow)
}

func TestServiceRunKeywordsShareCorpus(t *testing.T) {
	db := setupTestDB(t)
	// The fake adapter returns the same posts for every keyword, so the
	// second keyword's pipeline must reject them all as duplicates.
	adapter := &fakeAdapter{
		pages: [][]fakePost{{{id: "1", created: day(1)}}},
	}
	service := newTestService(t, db, adapter)

	run, err := service.Run(context.Background(), Plan{Keywords: []string{"alpha", "beta"}})
	assert.NoError(t, err)
	assert.Equal(t, 1, run.RecordsStored)
	assert.Equal(t, 1, run.Deduplicated)
}

func TestServiceRunCancelledStatus(t *testing.T) {
	db := setupTestDB(t)
	ctx, cancel := context.WithCancel(context.Background())
	adapter := &fakeAdapter{
		pages:   [][]fakePost{{{id: "1", created: day(1)}}},
		onFetch: cancel, // cancellation lands while the run is in flight
	}
	service := newTestService(t, db, adapter)

	run, err := service.Run(ctx, Plan{Keywords: []string{"go"}})
	assert.NoError(t, err)
	assert.Equal(t, models.RunStatusCancelled, run.Status)
	assert.Equal(t, 0, run.RecordsStored)

	// The report survives the cancellation.
	var stored models.IngestRun
	err = db.First(&stored, "id = ?", run.ID).Error
	assert.NoError(t, err)
	assert.Equal(t, models.RunStatusCancelled, stored.Status)
	assert.NotNil(t, stored.FinishedAt)
}

func TestStoreLiveDerivesIdentity(t *testing.T) {
	db := setupTestDB(t)
	adapter := &fakeAdapter{}
	service := newTestService(t, db, adapter)

	rec := &models.Record{
		Platform:  "x",
		CreatedAt: time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC),
		Text:      "live post content",
		URL:       "http://x.com/i/status/42?utm_source=stream",
	}
	err := service.StoreLive(context.Background(), Window{}, rec)
	assert.NoError(t, err)
	assert.Equal(t, "https://x.com/i/status/42", rec.URL)
	assert.Len(t, rec.DocID, 32)

	var count int64
	db.Model(&models.Record{}).Count(&count)
	assert.Equal(t, int64(1), count)
}

func TestStoreLiveFiltersOutOfWindow(t *testing.T) {
	db := setupTestDB(t)
	adapter := &fakeAdapter{}
	service := newTestService(t, db, adapter)

	start := day(10)
	window := Window{Start: &start}

	stale := &models.Record{
		Platform:  "x",
		CreatedAt: day(5),
		Text:      "a post from before the collection window opened",
		URL:       "http://x.com/i/status/7",
	}
	assert.NoError(t, service.StoreLive(context.Background(), window, stale))

	fresh := &models.Record{
		Platform:  "x",
		CreatedAt: day(15),
		Text:      "a post from inside the collection window",
		URL:       "http://x.com/i/status/8",
	}
	assert.NoError(t, service.StoreLive(context.Background(), window, fresh))

	var count int64
	db.Model(&models.Record{}).Count(&count)
	assert.Equal(t, int64(1), count)

	var stored models.Record
	assert.NoError(t, db.First(&stored).Error)
	assert.Equal(t, "https://x.com/i/status/8", stored.URL)
}
