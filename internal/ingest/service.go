package ingest

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"social-pulse/internal/dedup"
	"social-pulse/internal/models"
	"social-pulse/internal/platforms"
	"social-pulse/internal/ratelimit"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// PlatformSetup binds an adapter to its rate limiter and paging limits.
type PlatformSetup struct {
	Adapter  platforms.Adapter
	Limiter  *ratelimit.Limiter
	MaxPages int
	// Workers bounds concurrent keyword pipelines on this platform. The
	// shared limiter keeps the platform's rate limit honest regardless.
	Workers int
}

// Plan describes one batch run: which keywords, over which date window.
type Plan struct {
	Keywords    []string
	Window      Window
	PageSize    int
	MaxComments int

	// RunID pre-assigns the run's identity so callers that launch the run
	// in the background can hand out the ID immediately. Zero means a
	// fresh ID is generated.
	RunID uuid.UUID
}

// Service runs ingestion plans across all configured platforms and persists
// run reports. Each platform runs independently and concurrently; within a
// platform, keyword pipelines share the platform's limiter.
type Service struct {
	db        *gorm.DB
	dedup     *dedup.Deduplicator
	platforms []PlatformSetup
}

// NewService creates an ingestion service.
func NewService(db *gorm.DB, dd *dedup.Deduplicator, setups []PlatformSetup) *Service {
	return &Service{db: db, dedup: dd, platforms: setups}
}

// Run executes the plan and returns the persisted run report. Cancellation
// leaves the corpus consistent: records not yet past the deduplicator are
// dropped, never half-written.
func (s *Service) Run(ctx context.Context, plan Plan) (*models.IngestRun, error) {
	if len(plan.Keywords) == 0 {
		return nil, fmt.Errorf("ingest plan has no keywords")
	}

	runID := plan.RunID
	if runID == uuid.Nil {
		runID = uuid.New()
	}
	run := &models.IngestRun{
		ID:        runID,
		Status:    models.RunStatusRunning,
		StartedAt: time.Now().UTC(),
	}
	if err := s.db.WithContext(ctx).Create(run).Error; err != nil {
		return nil, fmt.Errorf("failed to create ingest run: %w", err)
	}

	log.Printf("ingest: run %s started: %d keywords across %d platforms",
		run.ID, len(plan.Keywords), len(s.platforms))

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		results []models.PipelineResult
	)

	for _, setup := range s.platforms {
		wg.Add(1)
		go func(setup PlatformSetup) {
			defer wg.Done()
			for _, res := range s.runPlatform(ctx, setup, plan, run.ID) {
				mu.Lock()
				results = append(results, res)
				mu.Unlock()
			}
		}(setup)
	}
	wg.Wait()

	for _, res := range results {
		run.RecordsFetched += res.RecordsFetched
		run.RecordsStored += res.RecordsStored
		run.Rejected += res.Rejected()
		run.Deduplicated += res.Deduplicated()
	}

	run.Status = models.RunStatusCompleted
	if ctx.Err() != nil {
		run.Status = models.RunStatusCancelled
	}
	now := time.Now().UTC()
	run.FinishedAt = &now
	run.Pipelines = results

	// The report must survive even a cancelled run, so persist it without
	// the run's context.
	if len(results) > 0 {
		for i := range results {
			results[i].RunID = run.ID
		}
		if err := s.db.Create(&results).Error; err != nil {
			return nil, fmt.Errorf("failed to persist pipeline results: %w", err)
		}
	}
	if err := s.db.Model(&models.IngestRun{}).Where("id = ?", run.ID).
		Updates(map[string]interface{}{
			"status":          run.Status,
			"finished_at":     run.FinishedAt,
			"records_fetched": run.RecordsFetched,
			"records_stored":  run.RecordsStored,
			"rejected":        run.Rejected,
			"deduplicated":    run.Deduplicated,
		}).Error; err != nil {
		return nil, fmt.Errorf("failed to finalize ingest run: %w", err)
	}

	log.Printf("ingest: run %s finished: fetched=%d stored=%d rejected=%d deduplicated=%d",
		run.ID, run.RecordsFetched, run.RecordsStored, run.Rejected, run.Deduplicated)

	return run, nil
}

// runPlatform works through the keyword list on one platform with a bounded
// worker pool. An auth failure stops the platform's remaining keywords; the
// other platforms are unaffected.
func (s *Service) runPlatform(ctx context.Context, setup PlatformSetup, plan Plan, runID uuid.UUID) []models.PipelineResult {
	workers := setup.Workers
	if workers <= 0 {
		workers = 1
	}

	keywords := make(chan string)
	platformCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		results []models.PipelineResult
	)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for kw := range keywords {
				res := s.runPipeline(platformCtx, setup, plan, kw, runID)
				mu.Lock()
				results = append(results, res.PipelineResult)
				mu.Unlock()
				if res.authAbort {
					// Auth failure is fatal for this platform only; the
					// producer loop below stops feeding keywords.
					cancel()
				}
			}
		}()
	}

	for _, kw := range plan.Keywords {
		select {
		case keywords <- kw:
		case <-platformCtx.Done():
		}
		if platformCtx.Err() != nil {
			break
		}
	}
	close(keywords)
	wg.Wait()

	return results
}

type pipelineResult struct {
	models.PipelineResult
	authAbort bool
}

// runPipeline drives one (platform, keyword) pipeline and pushes survivors
// through the deduplicator.
func (s *Service) runPipeline(ctx context.Context, setup PlatformSetup, plan Plan, keyword string, runID uuid.UUID) pipelineResult {
	p := &Pipeline{
		Adapter: setup.Adapter,
		Limiter: setup.Limiter,
		Query: platforms.Query{
			Keyword:     keyword,
			Since:       plan.Window.Start,
			Until:       plan.Window.End,
			PageSize:    plan.PageSize,
			MaxComments: plan.MaxComments,
		},
		Window:   plan.Window,
		MaxPages: setup.MaxPages,
	}

	out := p.Run(ctx)

	res := pipelineResult{
		PipelineResult: models.PipelineResult{
			RunID:               runID,
			Platform:            string(setup.Adapter.Platform()),
			Keyword:             keyword,
			PagesFetched:        out.PagesFetched,
			RecordsFetched:      len(out.Records) + out.OutOfWindow + totalRejections(out),
			RejectedDateParse:   out.Rejections[platforms.RejectDateParse],
			RejectedMissing:     out.Rejections[platforms.RejectMissingFields],
			RejectedOutOfWindow: out.OutOfWindow,
			RejectedFetch:       out.FetchSkipped,
		},
		authAbort: out.AuthFailed(),
	}

	switch out.State {
	case StateDone:
		res.State = models.PipelineStateDone
	default:
		res.State = models.PipelineStateFailed
		if out.Err != nil {
			res.Error = out.Err.Error()
		}
	}

	for _, rec := range out.Records {
		if ctx.Err() != nil {
			// Cancelled: anything not yet past the deduplicator is dropped.
			res.State = models.PipelineStateFailed
			if res.Error == "" {
				res.Error = ctx.Err().Error()
			}
			break
		}
		outcome, err := s.dedup.Insert(ctx, rec)
		if err != nil {
			log.Printf("ingest: %s/%q: failed to store %s: %v",
				setup.Adapter.Platform(), keyword, rec.DocID, err)
			continue
		}
		switch outcome {
		case dedup.OutcomeStored:
			res.RecordsStored++
		case dedup.OutcomeDuplicateURL:
			res.DuplicateURL++
		case dedup.OutcomeNearDuplicate:
			res.NearDuplicate++
		}
	}

	return res
}

// StoreLive pushes a single record from a live stream through the same
// filter, identity and dedup path as batch ingestion. Records outside the
// window are dropped before they reach the deduplicator.
func (s *Service) StoreLive(ctx context.Context, window Window, rec *models.Record) error {
	if !window.Contains(rec.CreatedAt) {
		return nil
	}

	rec.URL = dedup.CanonicalizeURL(rec.URL)
	rec.DocID = dedup.DocID(rec.URL)

	outcome, err := s.dedup.Insert(ctx, rec)
	if err != nil {
		return fmt.Errorf("failed to store live record: %w", err)
	}
	if outcome == dedup.OutcomeStored {
		log.Printf("ingest: stored live record %s (%s)", rec.DocID, rec.Platform)
	}
	return nil
}

func totalRejections(out *Outcome) int {
	n := out.FetchSkipped
	for _, c := range out.Rejections {
		n += c
	}
	return n
}
