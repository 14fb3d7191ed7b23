package ingest

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"testing"
	"time"

	"social-pulse/internal/models"
	"social-pulse/internal/platforms"
	"social-pulse/internal/ratelimit"
)

type fakePost struct {
	id      string
	created time.Time
	badDate bool
}

// fakeAdapter serves a fixed page sequence and can be told to fail one page
// with a chosen error.
type fakeAdapter struct {
	pages       [][]fakePost
	failPage    int // 1-based; 0 means never fail
	failErr     error
	newestFirst bool
	fetchCalls  int
	onFetch     func()
}

func (a *fakeAdapter) Platform() platforms.Platform { return platforms.PlatformBlog }
func (a *fakeAdapter) NewestFirst() bool            { return a.newestFirst }

func (a *fakeAdapter) FetchPage(_ context.Context, _ platforms.Query, cursor string) (*platforms.Page, error) {
	a.fetchCalls++
	if a.onFetch != nil {
		a.onFetch()
	}

	idx := 0
	if cursor != "" {
		idx, _ = strconv.Atoi(cursor)
	}
	if a.failPage > 0 && idx+1 == a.failPage {
		return nil, a.failErr
	}
	if idx >= len(a.pages) {
		return &platforms.Page{}, nil
	}

	page := &platforms.Page{}
	for i := range a.pages[idx] {
		page.Posts = append(page.Posts, &a.pages[idx][i])
	}
	if idx+1 < len(a.pages) {
		page.NextCursor = strconv.Itoa(idx + 1)
	}
	return page, nil
}

// fakeTexts gives each post id a body distinct enough that the
// near-duplicate stage never collapses two fake posts into one.
var fakeTexts = map[string]string{
	"1": "morning roundup of transit delays across the east side lines",
	"2": "new bakery opening downtown draws a long weekend queue",
	"3": "city council votes to extend the riverfront trail next year",
}

func (a *fakeAdapter) ToCanonical(raw platforms.RawPost) (*models.Record, *platforms.Rejection) {
	p := raw.(*fakePost)
	if p.badDate {
		return nil, &platforms.Rejection{Reason: platforms.RejectDateParse, Detail: "unparseable date"}
	}
	text := fakeTexts[p.id]
	if text == "" {
		text = "post " + p.id
	}
	return &models.Record{
		CreatedAt: p.created,
		Text:      text,
		URL:       "http://fake.test/p/" + p.id,
	}, nil
}

func testLimiter() *ratelimit.Limiter {
	return ratelimit.New(ratelimit.Config{
		MaxRetries:  2,
		BaseBackoff: time.Millisecond,
		MaxBackoff:  time.Millisecond,
	})
}

func day(d int) time.Time {
	return time.Date(2024, 3, d, 12, 0, 0, 0, time.UTC)
}

func TestPipelineCollectsAllPages(t *testing.T) {
	adapter := &fakeAdapter{
		pages: [][]fakePost{
			{{id: "1", created: day(3)}, {id: "2", created: day(2)}},
			{{id: "3", created: day(1)}},
		},
	}
	p := &Pipeline{Adapter: adapter, Limiter: testLimiter(), Query: platforms.Query{Keyword: "go"}}

	out := p.Run(context.Background())

	if out.State != StateDone {
		t.Fatalf("state = %v, want done", out.State)
	}
	if out.PagesFetched != 2 {
		t.Errorf("pages fetched = %d, want 2", out.PagesFetched)
	}
	if len(out.Records) != 3 {
		t.Fatalf("records = %d, want 3", len(out.Records))
	}

	// Identity must be derived from the canonicalized URL.
	rec := out.Records[0]
	if rec.URL != "https://fake.test/p/1" {
		t.Errorf("record URL = %q, want canonicalized https form", rec.URL)
	}
	if len(rec.DocID) != 32 {
		t.Errorf("doc_id = %q, want 32 hex chars", rec.DocID)
	}
	if rec.Platform != "blog" || rec.Keyword != "go" {
		t.Errorf("platform/keyword = %q/%q, want blog/go", rec.Platform, rec.Keyword)
	}
}

func TestPipelineKeepsPartialOnRetryExhaustion(t *testing.T) {
	adapter := &fakeAdapter{
		pages: [][]fakePost{
			{{id: "1", created: day(3)}},
			{{id: "2", created: day(2)}},
			{{id: "3", created: day(1)}},
		},
		failPage: 3,
		failErr:  &platforms.TransientError{Status: 503, Err: errors.New("unavailable")},
	}
	p := &Pipeline{Adapter: adapter, Limiter: testLimiter(), Query: platforms.Query{Keyword: "go"}}

	out := p.Run(context.Background())

	if out.State != StateFailed {
		t.Fatalf("state = %v, want failed", out.State)
	}
	if !errors.Is(out.Err, ratelimit.ErrRetriesExhausted) {
		t.Errorf("err = %v, want ErrRetriesExhausted", out.Err)
	}
	if len(out.Records) != 2 {
		t.Errorf("records = %d, want the 2 gathered before the failure", len(out.Records))
	}
	if out.PagesFetched != 2 {
		t.Errorf("pages fetched = %d, want 2", out.PagesFetched)
	}
}

func TestPipelineStopsAtPageCap(t *testing.T) {
	var pages [][]fakePost
	for i := 1; i <= 5; i++ {
		pages = append(pages, []fakePost{{id: fmt.Sprint(i), created: day(i)}})
	}
	adapter := &fakeAdapter{pages: pages}
	p := &Pipeline{Adapter: adapter, Limiter: testLimiter(), MaxPages: 2}

	out := p.Run(context.Background())

	if out.State != StateDone {
		t.Fatalf("state = %v, want done", out.State)
	}
	if out.PagesFetched != 2 {
		t.Errorf("pages fetched = %d, want 2", out.PagesFetched)
	}
	if adapter.fetchCalls != 2 {
		t.Errorf("fetch calls = %d, want 2", adapter.fetchCalls)
	}
}

func TestPipelineEarlyStopBelowWindow(t *testing.T) {
	adapter := &fakeAdapter{
		newestFirst: true,
		pages: [][]fakePost{
			{{id: "1", created: day(20)}, {id: "2", created: day(5)}},
			{{id: "3", created: day(4)}},
		},
	}
	start := day(10)
	p := &Pipeline{
		Adapter: adapter,
		Limiter: testLimiter(),
		Window:  Window{Start: &start},
	}

	out := p.Run(context.Background())

	if out.State != StateDone {
		t.Fatalf("state = %v, want done", out.State)
	}
	if adapter.fetchCalls != 1 {
		t.Errorf("fetch calls = %d, want 1 (crossed the lower boundary)", adapter.fetchCalls)
	}
	if len(out.Records) != 1 {
		t.Errorf("records = %d, want 1 inside the window", len(out.Records))
	}
	if out.OutOfWindow != 1 {
		t.Errorf("out-of-window count = %d, want 1", out.OutOfWindow)
	}
}

func TestPipelineCountsRejections(t *testing.T) {
	adapter := &fakeAdapter{
		pages: [][]fakePost{
			{{id: "1", created: day(1)}, {id: "2", badDate: true}},
		},
	}
	p := &Pipeline{Adapter: adapter, Limiter: testLimiter()}

	out := p.Run(context.Background())

	if out.State != StateDone {
		t.Fatalf("state = %v, want done", out.State)
	}
	if out.Rejections[platforms.RejectDateParse] != 1 {
		t.Errorf("date parse rejections = %d, want 1", out.Rejections[platforms.RejectDateParse])
	}
	if len(out.Records) != 1 {
		t.Errorf("records = %d, want 1", len(out.Records))
	}
}

func TestPipelineAuthFailure(t *testing.T) {
	adapter := &fakeAdapter{
		pages:    [][]fakePost{{{id: "1", created: day(1)}}},
		failPage: 1,
		failErr:  &platforms.AuthError{Err: errors.New("invalid token")},
	}
	p := &Pipeline{Adapter: adapter, Limiter: testLimiter()}

	out := p.Run(context.Background())

	if out.State != StateFailed {
		t.Fatalf("state = %v, want failed", out.State)
	}
	if !out.AuthFailed() {
		t.Error("outcome should report an auth failure")
	}
}

func TestPipelinePermanentFailureEndsCleanly(t *testing.T) {
	adapter := &fakeAdapter{
		pages: [][]fakePost{
			{{id: "1", created: day(2)}},
			{{id: "2", created: day(1)}},
		},
		failPage: 2,
		failErr:  &platforms.PermanentError{Status: 400, Err: errors.New("bad request")},
	}
	p := &Pipeline{Adapter: adapter, Limiter: testLimiter()}

	out := p.Run(context.Background())

	if out.State != StateDone {
		t.Fatalf("state = %v, want done (permanent failures end the pipeline cleanly)", out.State)
	}
	if out.Err != nil {
		t.Errorf("err = %v, want nil", out.Err)
	}
	if len(out.Records) != 1 {
		t.Errorf("records = %d, want 1 from the first page", len(out.Records))
	}
}
