// Package ingest drives source adapters through their result pages,
// assembles canonical records, filters them by date, and hands survivors to
// the deduplicator. Adapter failures become state transitions or skip
// decisions here; they never propagate out of a pipeline as uncaught errors.
package ingest

import (
	"context"
	"errors"
	"log"

	"social-pulse/internal/dedup"
	"social-pulse/internal/models"
	"social-pulse/internal/platforms"
	"social-pulse/internal/ratelimit"
)

// State is the pagination state machine for one (platform, keyword)
// pipeline.
type State int

const (
	StateInit State = iota
	StateFetching
	StateDone
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateInit:
		return "init"
	case StateFetching:
		return "fetching"
	case StateDone:
		return "done"
	default:
		return "failed"
	}
}

// Pipeline pages one adapter through one keyword search until exhaustion,
// the page cap, or the lower date boundary.
type Pipeline struct {
	Adapter  platforms.Adapter
	Limiter  *ratelimit.Limiter
	Query    platforms.Query
	Window   Window
	MaxPages int
}

// Outcome is what a pipeline accumulated by the time it reached a terminal
// state. A failed pipeline still carries every record gathered before the
// failure; partial results are the contract, not an accident.
type Outcome struct {
	State        State
	Err          error
	PagesFetched int
	Records      []*models.Record
	Rejections   map[platforms.RejectReason]int
	OutOfWindow  int
	FetchSkipped int
}

// AuthFailed reports whether the pipeline died on an authentication error,
// which aborts the remaining pipelines for the same platform.
func (o *Outcome) AuthFailed() bool {
	return o.Err != nil && platforms.IsAuth(o.Err)
}

// Run drives the state machine to a terminal state.
func (p *Pipeline) Run(ctx context.Context) *Outcome {
	out := &Outcome{
		State:      StateInit,
		Rejections: make(map[platforms.RejectReason]int),
	}

	platform := p.Adapter.Platform()
	cursor := ""

	for {
		if p.MaxPages > 0 && out.PagesFetched >= p.MaxPages {
			out.State = StateDone
			return out
		}

		out.State = StateFetching

		var page *platforms.Page
		err := p.Limiter.Do(ctx, func(ctx context.Context) error {
			var ferr error
			page, ferr = p.Adapter.FetchPage(ctx, p.Query, cursor)
			return ferr
		})
		if err != nil {
			return p.finishOnError(out, err)
		}
		out.PagesFetched++

		crossedBoundary := false
		for _, raw := range page.Posts {
			rec, ok := p.assemble(ctx, platform, raw, out)
			if !ok {
				continue
			}

			if p.Window.BeforeStart(rec.CreatedAt) && p.Adapter.NewestFirst() {
				crossedBoundary = true
			}
			if !p.Window.Contains(rec.CreatedAt) {
				out.OutOfWindow++
				continue
			}

			out.Records = append(out.Records, rec)
		}

		switch {
		case crossedBoundary:
			// Results are ordered newest-first and have passed below the
			// window; further pages would only waste requests.
			out.State = StateDone
			return out
		case page.NextCursor == "":
			out.State = StateDone
			return out
		default:
			cursor = page.NextCursor
		}
	}
}

// assemble enriches and maps one raw result. Returns false when the record
// was skipped, with the outcome counters already updated.
func (p *Pipeline) assemble(ctx context.Context, platform platforms.Platform, raw platforms.RawPost, out *Outcome) (*models.Record, bool) {
	if enricher, ok := p.Adapter.(platforms.Enricher); ok {
		var enriched platforms.RawPost
		err := p.Limiter.Do(ctx, func(ctx context.Context) error {
			var eerr error
			enriched, eerr = enricher.Enrich(ctx, raw)
			return eerr
		})
		switch {
		case err == nil:
			raw = enriched
		case platforms.IsAuth(err) || ctx.Err() != nil:
			// Surfaced by the caller through the next FetchPage; skip the
			// record here and let the page loop terminate.
			out.FetchSkipped++
			return nil, false
		default:
			// Transient exhaustion or a permanent detail failure skips only
			// this record.
			log.Printf("ingest: %s/%q: skipping record after detail fetch failure: %v",
				platform, p.Query.Keyword, err)
			out.FetchSkipped++
			return nil, false
		}
	}

	rec, rej := p.Adapter.ToCanonical(raw)
	if rej != nil {
		out.Rejections[rej.Reason]++
		return nil, false
	}

	// Identity is derived here, not in adapters, so the invariant holds for
	// every platform: canonical URL first, doc_id from it.
	rec.Platform = string(platform)
	rec.Keyword = p.Query.Keyword
	rec.URL = dedup.CanonicalizeURL(rec.URL)
	rec.DocID = dedup.DocID(rec.URL)

	return rec, true
}

func (p *Pipeline) finishOnError(out *Outcome, err error) *Outcome {
	switch {
	case errors.Is(err, ratelimit.ErrRetriesExhausted):
		log.Printf("ingest: %s/%q: page %d failed after retries, keeping %d records: %v",
			p.Adapter.Platform(), p.Query.Keyword, out.PagesFetched+1, len(out.Records), err)
		out.State = StateFailed
		out.Err = err
	case platforms.IsAuth(err):
		log.Printf("ingest: %s/%q: authentication failed, aborting platform: %v",
			p.Adapter.Platform(), p.Query.Keyword, err)
		out.State = StateFailed
		out.Err = err
	case platforms.IsPermanent(err):
		// A permanently failing page (bad query, gone resource) ends the
		// pipeline cleanly with whatever was gathered.
		log.Printf("ingest: %s/%q: permanent page failure, stopping: %v",
			p.Adapter.Platform(), p.Query.Keyword, err)
		out.State = StateDone
	default:
		// Context cancellation or an unclassified failure.
		out.State = StateFailed
		out.Err = err
	}
	return out
}
