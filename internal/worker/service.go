package worker

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"social-pulse/internal/ingest"
	"social-pulse/internal/platforms/xfeed"
	"social-pulse/internal/scoring"

	"github.com/google/uuid"
)

// WorkerService manages background workers for the application
type WorkerService struct {
	ingestService  *ingest.Service
	scoringService *scoring.Service
	streamConsumer *xfeed.StreamConsumer

	plan           func() ingest.Plan
	ingestInterval time.Duration
	scoreInterval  time.Duration

	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	running bool
	mu      sync.RWMutex

	// runMu also guards wg.Add against Stop's wg.Wait: once stopping is
	// set no new run goroutine may be added.
	runMu       sync.Mutex
	runInFlight bool
	stopping    bool
}

// NewWorkerService creates a new worker service. streamConsumer may be nil
// when live sampling is disabled; plan is called at the start of each
// scheduled run so window bounds stay fresh.
func NewWorkerService(ingestService *ingest.Service, scoringService *scoring.Service, streamConsumer *xfeed.StreamConsumer, plan func() ingest.Plan, ingestInterval, scoreInterval time.Duration) *WorkerService {
	ctx, cancel := context.WithCancel(context.Background())

	return &WorkerService{
		ingestService:  ingestService,
		scoringService: scoringService,
		streamConsumer: streamConsumer,
		plan:           plan,
		ingestInterval: ingestInterval,
		scoreInterval:  scoreInterval,
		ctx:            ctx,
		cancel:         cancel,
	}
}

// Start starts all background workers
func (ws *WorkerService) Start() error {
	ws.mu.Lock()
	defer ws.mu.Unlock()

	if ws.running {
		return nil // Already running
	}

	log.Println("Starting background workers...")

	if ws.streamConsumer != nil {
		ws.wg.Add(1)
		go func() {
			defer ws.wg.Done()
			ws.runStreamConsumer()
		}()
	}

	ws.wg.Add(1)
	go func() {
		defer ws.wg.Done()
		ws.runPeriodicTasks()
	}()

	ws.running = true
	log.Println("Background workers started successfully")

	return nil
}

// Stop stops all background workers
func (ws *WorkerService) Stop() {
	ws.mu.Lock()
	defer ws.mu.Unlock()

	if !ws.running {
		return // Not running
	}

	log.Println("Stopping background workers...")

	ws.cancel()

	ws.runMu.Lock()
	ws.stopping = true
	ws.runMu.Unlock()

	ws.wg.Wait()

	ws.running = false
	log.Println("Background workers stopped")
}

// IsRunning returns whether the worker service is currently running
func (ws *WorkerService) IsRunning() bool {
	ws.mu.RLock()
	defer ws.mu.RUnlock()
	return ws.running
}

// TriggerRun starts an ingestion run in the background. Only one run may be
// in flight at a time.
func (ws *WorkerService) TriggerRun() (uuid.UUID, error) {
	ws.runMu.Lock()
	defer ws.runMu.Unlock()

	if ws.stopping {
		return uuid.Nil, fmt.Errorf("worker service is shutting down")
	}
	if ws.runInFlight {
		return uuid.Nil, fmt.Errorf("an ingestion run is already in progress")
	}

	plan := ws.plan()
	plan.RunID = uuid.New()
	ws.runInFlight = true

	ws.wg.Add(1)
	go func() {
		defer ws.wg.Done()
		defer func() {
			ws.runMu.Lock()
			ws.runInFlight = false
			ws.runMu.Unlock()
		}()

		if _, err := ws.ingestService.Run(ws.ctx, plan); err != nil {
			log.Printf("Ingestion run %s failed: %v", plan.RunID, err)
		}
	}()

	return plan.RunID, nil
}

// runStreamConsumer runs the live sampled-stream consumer with retry logic
func (ws *WorkerService) runStreamConsumer() {
	log.Println("Starting live stream consumer...")

	for {
		select {
		case <-ws.ctx.Done():
			log.Println("Stream consumer stopped")
			return
		default:
			if err := ws.streamConsumer.StartConsuming(ws.ctx); err != nil {
				if ws.ctx.Err() != nil {
					return
				}

				log.Printf("Stream consumer error: %v. Restarting in 30 seconds...", err)

				select {
				case <-time.After(30 * time.Second):
					continue
				case <-ws.ctx.Done():
					return
				}
			}
		}
	}
}

// runPeriodicTasks runs the scheduled ingestion and scoring tasks
func (ws *WorkerService) runPeriodicTasks() {
	log.Println("Starting periodic tasks worker...")

	ingestTicker := time.NewTicker(ws.ingestInterval)
	scoreTicker := time.NewTicker(ws.scoreInterval)
	defer ingestTicker.Stop()
	defer scoreTicker.Stop()

	for {
		select {
		case <-ws.ctx.Done():
			log.Println("Periodic tasks worker stopped")
			return

		case <-ingestTicker.C:
			ws.runScheduledIngest()

		case <-scoreTicker.C:
			ws.recomputeScores()
		}
	}
}

// runScheduledIngest triggers the recurring ingestion run
func (ws *WorkerService) runScheduledIngest() {
	log.Println("Running scheduled ingestion...")

	runID, err := ws.TriggerRun()
	if err != nil {
		log.Printf("Skipping scheduled ingestion: %v", err)
		return
	}

	log.Printf("Scheduled ingestion started as run %s", runID)
}

// recomputeScores refreshes the engagement aggregates
func (ws *WorkerService) recomputeScores() {
	log.Println("Recomputing engagement scores...")

	platformAggs, yearlyAggs, err := ws.scoringService.Aggregates()
	if err != nil {
		log.Printf("Score recomputation failed: %v", err)
		return
	}

	for _, agg := range platformAggs {
		log.Printf("Platform %s: mean KPI %.4f over %d records",
			agg.Platform, agg.MeanKPI, agg.SampleSize)
	}
	log.Printf("Score recomputation completed: %d platform-year buckets", len(yearlyAggs))
}
