package worker

import (
	"testing"
	"time"

	"social-pulse/internal/dedup"
	"social-pulse/internal/ingest"
	"social-pulse/internal/models"
	"social-pulse/internal/scoring"

	"github.com/stretchr/testify/assert"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func newTestWorkerService(t *testing.T) (*WorkerService, *gorm.DB) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}
	if err := db.AutoMigrate(models.AllModels()...); err != nil {
		t.Fatalf("Failed to migrate test database: %v", err)
	}

	dd, err := dedup.New(db, dedup.DefaultConfig())
	if err != nil {
		t.Fatalf("Failed to create deduplicator: %v", err)
	}

	ingestService := ingest.NewService(db, dd, nil)
	scoringService := scoring.NewService(db)
	ws := NewWorkerService(ingestService, scoringService, nil,
		func() ingest.Plan { return ingest.Plan{Keywords: []string{"go"}} },
		time.Hour, time.Hour)
	return ws, db
}

func TestTriggerRunPersistsRunReport(t *testing.T) {
	ws, db := newTestWorkerService(t)
	assert.NoError(t, ws.Start())
	defer ws.Stop()

	runID, err := ws.TriggerRun()
	assert.NoError(t, err)
	assert.NotEqual(t, "", runID.String())

	assert.Eventually(t, func() bool {
		var count int64
		db.Model(&models.IngestRun{}).Where("id = ?", runID).Count(&count)
		return count == 1
	}, 2*time.Second, 10*time.Millisecond)
}

func TestTriggerRunRefusedDuringShutdown(t *testing.T) {
	ws, _ := newTestWorkerService(t)
	assert.NoError(t, ws.Start())
	ws.Stop()

	_, err := ws.TriggerRun()
	assert.Error(t, err)
	assert.False(t, ws.IsRunning())
}
