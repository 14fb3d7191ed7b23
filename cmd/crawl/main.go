package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"social-pulse/internal/config"
	"social-pulse/internal/database"
	"social-pulse/internal/dedup"
	"social-pulse/internal/export"
	"social-pulse/internal/ingest"

	"github.com/joho/godotenv"
)

// crawl runs one ingestion pass over the configured keywords and optionally
// exports the corpus afterwards.
func main() {
	keywords := flag.String("keywords", "", "comma-separated keywords (overrides config)")
	exportPath := flag.String("export", "", "write the corpus to this file after the run")
	exportFormat := flag.String("format", "csv", "export format: csv or json")
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := config.Load()

	if err := database.Connect(); err != nil {
		log.Fatal("Failed to connect to database:", err)
	}
	defer database.Close()

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

	setups := ingest.BuildPlatformSetups(cfg)
	if len(setups) == 0 {
		log.Fatal("No platforms configured; set credentials and enable at least one platform")
	}

	plan := ingest.PlanFromConfig(cfg)
	if *keywords != "" {
		plan.Keywords = splitKeywords(*keywords)
	}
	if len(plan.Keywords) == 0 {
		log.Fatal("No keywords configured; use -keywords or the crawl config")
	}

	// Ctrl-C cancels the run; partial results stay persisted.
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	service := ingest.NewService(database.DB, deduplicator, setups)
	run, err := service.Run(ctx, plan)
	if err != nil {
		log.Fatal("Ingestion run failed:", err)
	}

	log.Printf("Run %s: stored=%d rejected=%d deduplicated=%d",
		run.ID, run.RecordsStored, run.Rejected, run.Deduplicated)

	if *exportPath != "" {
		writeExport(*exportPath, *exportFormat)
	}
}

func splitKeywords(s string) []string {
	var out []string
	for _, kw := range strings.Split(s, ",") {
		if kw = strings.TrimSpace(kw); kw != "" {
			out = append(out, kw)
		}
	}
	return out
}

func writeExport(path, format string) {
	f, err := os.Create(path)
	if err != nil {
		log.Fatal("Failed to create export file:", err)
	}
	defer f.Close()

	svc := export.NewService(database.DB)
	switch format {
	case "json":
		err = svc.WriteJSON(f, "")
	default:
		err = svc.WriteCSV(f, "")
	}
	if err != nil {
		log.Fatal("Export failed:", err)
	}

	log.Printf("Exported corpus to %s", path)
}
