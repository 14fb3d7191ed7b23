package ingest

import (
	"log"

	"social-pulse/internal/config"
	"social-pulse/internal/platforms"
	"social-pulse/internal/platforms/blogsearch"
	"social-pulse/internal/platforms/instagram"
	"social-pulse/internal/platforms/xfeed"
	"social-pulse/internal/platforms/youtube"
	"social-pulse/internal/ratelimit"
)

// BuildPlatformSetups wires the enabled platform adapters from
// configuration. Platforms with missing credentials are skipped with a log
// line rather than failing the whole run.
func BuildPlatformSetups(cfg config.Config) []PlatformSetup {
	var setups []PlatformSetup

	add := func(name string, adapter platforms.Adapter) {
		pc, ok := cfg.Platforms[name]
		if !ok || !pc.Enabled {
			return
		}
		rlCfg := ratelimit.DefaultConfig()
		if pc.MinDelay > 0 {
			rlCfg.MinDelay = pc.MinDelay.Std()
		}
		if pc.MaxRetries > 0 {
			rlCfg.MaxRetries = pc.MaxRetries
		}
		setups = append(setups, PlatformSetup{
			Adapter:  adapter,
			Limiter:  ratelimit.New(rlCfg),
			MaxPages: pc.MaxPages,
			Workers:  pc.Workers,
		})
	}

	if cfg.Credentials.XBearerToken != "" {
		add("x", xfeed.NewAdapter(xfeed.NewClient(cfg.Credentials.XBearerToken, "")))
	} else if pc, ok := cfg.Platforms["x"]; ok && pc.Enabled {
		log.Println("ingest: x enabled but no bearer token configured, skipping")
	}

	add("instagram", instagram.NewAdapter(instagram.NewClient(cfg.Credentials.InstagramSession, "")))

	if cfg.Credentials.YouTubeAPIKey != "" {
		add("youtube", youtube.NewAdapter(youtube.NewClient(cfg.Credentials.YouTubeAPIKey, "")))
	} else if pc, ok := cfg.Platforms["youtube"]; ok && pc.Enabled {
		log.Println("ingest: youtube enabled but no API key configured, skipping")
	}

	if cfg.Credentials.BlogClientID != "" {
		add("blog", blogsearch.NewAdapter(blogsearch.NewClient(
			cfg.Credentials.BlogClientID, cfg.Credentials.BlogClientSecret, "")))
	} else if pc, ok := cfg.Platforms["blog"]; ok && pc.Enabled {
		log.Println("ingest: blog enabled but no client credentials configured, skipping")
	}

	return setups
}

// PlanFromConfig builds the recurring ingestion plan.
func PlanFromConfig(cfg config.Config) Plan {
	since, until := cfg.Crawl.Window()

	// Page size and comment caps vary per platform in config; the plan
	// carries the most permissive values and adapters clamp to their API
	// limits.
	pageSize, maxComments := 0, 0
	for _, pc := range cfg.Platforms {
		if pc.PageSize > pageSize {
			pageSize = pc.PageSize
		}
		if pc.MaxComments > maxComments {
			maxComments = pc.MaxComments
		}
	}

	return Plan{
		Keywords:    cfg.Crawl.Keywords,
		Window:      Window{Start: since, End: until},
		PageSize:    pageSize,
		MaxComments: maxComments,
	}
}
