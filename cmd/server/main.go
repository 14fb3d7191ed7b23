package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"social-pulse/internal/config"
	"social-pulse/internal/database"
	"social-pulse/internal/dedup"
	"social-pulse/internal/export"
	"social-pulse/internal/handlers"
	"social-pulse/internal/ingest"
	"social-pulse/internal/models"
	"social-pulse/internal/platforms/xfeed"
	"social-pulse/internal/scoring"
	"social-pulse/internal/worker"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := config.Load()

	// Connect to database
	if err := database.Connect(); err != nil {
		log.Fatal("Failed to connect to database:", err)
	}
	defer database.Close()

	// Run migrations
	if err := database.Migrate(); err != nil {
		log.Fatal("Failed to run migrations:", err)
	}

	dedupConfig := dedup.DefaultConfig()
	if cfg.Dedup.SimilarityThreshold > 0 {
		dedupConfig.SimilarityThreshold = cfg.Dedup.SimilarityThreshold
	}
	deduplicator, err := dedup.New(database.DB, dedupConfig)
	if err != nil {
		log.Fatal("Failed to initialize deduplicator:", err)
	}

	ingestService := ingest.NewService(database.DB, deduplicator, ingest.BuildPlatformSetups(cfg))
	scoringService := scoring.NewService(database.DB)
	exportService := export.NewService(database.DB)

	var streamConsumer *xfeed.StreamConsumer
	if cfg.Stream.Enabled && cfg.Credentials.XBearerToken != "" {
		adapter := xfeed.NewAdapter(xfeed.NewClient(cfg.Credentials.XBearerToken, ""))
		streamConsumer = xfeed.NewStreamConsumer(cfg.Stream.URL, cfg.Crawl.Keywords, adapter,
			func(ctx context.Context, rec *models.Record) error {
				return ingestService.StoreLive(ctx, ingest.PlanFromConfig(cfg).Window, rec)
			})
	}

	// Initialize and start background workers
	workerService := worker.NewWorkerService(ingestService, scoringService, streamConsumer,
		func() ingest.Plan { return ingest.PlanFromConfig(cfg) },
		cfg.Worker.IngestInterval.Std(), cfg.Worker.ScoreInterval.Std())
	if err := workerService.Start(); err != nil {
		log.Fatal("Failed to start background workers:", err)
	}

	setupGracefulShutdown(workerService)
	setupServer(workerService, scoringService, exportService)
}

func setupGracefulShutdown(workerService *worker.WorkerService) {
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-c
		log.Println("Received shutdown signal, gracefully shutting down...")

		workerService.Stop()
		database.Close()

		log.Println("Shutdown complete")
		os.Exit(0)
	}()
}

func setupServer(workerService *worker.WorkerService, scoringService *scoring.Service, exportService *export.Service) {
	if os.Getenv("GIN_MODE") == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.Default()

	// CORS middleware
	r.Use(func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	// Initialize handlers
	recordsHandler := handlers.NewRecordsHandler(database.DB)
	ingestHandler := handlers.NewIngestHandler(database.DB, workerService)
	scoresHandler := handlers.NewScoresHandler(scoringService)
	exportHandler := handlers.NewExportHandler(exportService)
	adminHandler := handlers.NewAdminHandler(database.DB)
	docsHandler := handlers.NewDocsHandler()

	// Health check
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "ok",
			"workers": workerService.IsRunning(),
		})
	})

	// Serve Markdown documentation as HTML
	r.GET("/doc/:doc", docsHandler.ServeMarkdownAsHTML)

	// API routes
	api := r.Group("/api")
	{
		records := api.Group("/records")
		{
			records.GET("", recordsHandler.ListRecords)
			records.GET("/:doc_id", recordsHandler.GetRecord)
		}

		runs := api.Group("/runs")
		{
			runs.GET("", ingestHandler.ListRuns)
			runs.GET("/:id", ingestHandler.GetRun)
		}

		scores := api.Group("/scores")
		{
			scores.GET("", scoresHandler.GetScores)
			scores.GET("/aggregates", scoresHandler.GetAggregates)
		}

		exports := api.Group("/export")
		{
			exports.GET("/csv", exportHandler.ExportCSV)
			exports.GET("/json", exportHandler.ExportJSON)
		}
	}

	// Admin routes (password protected)
	admin := r.Group("/admin", adminHandler.AdminAuth())
	{
		admin.GET("/", adminHandler.ServeAdminDashboard)
		admin.POST("/ingest", ingestHandler.TriggerRun)
	}

	// Get port from environment or default to 8080
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	log.Printf("Server starting on port %s", port)
	if err := r.Run(":" + port); err != nil {
		log.Fatal("Failed to start server:", err)
	}
}
