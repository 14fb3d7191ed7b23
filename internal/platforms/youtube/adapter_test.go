package youtube

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"social-pulse/internal/platforms"
)

func TestFetchPagePassesCursorAndLimits(t *testing.T) {
	var gotQuery map[string]string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = map[string]string{
			"q":          r.URL.Query().Get("q"),
			"order":      r.URL.Query().Get("order"),
			"pageToken":  r.URL.Query().Get("pageToken"),
			"maxResults": r.URL.Query().Get("maxResults"),
		}
		w.Write([]byte(`{
			"nextPageToken": "page2",
			"items": [
				{"id": {"videoId": "vid1"}, "snippet": {"publishedAt": "2024-03-01T10:00:00Z", "title": "First"}},
				{"id": {"videoId": ""}, "snippet": {}}
			]
		}`))
	}))
	defer server.Close()

	adapter := NewAdapter(NewClient("test-key", server.URL))
	page, err := adapter.FetchPage(context.Background(), platforms.Query{Keyword: "golang", PageSize: 25}, "page1")
	if err != nil {
		t.Fatalf("FetchPage failed: %v", err)
	}

	if gotQuery["q"] != "golang" || gotQuery["order"] != "date" {
		t.Errorf("query params = %v", gotQuery)
	}
	if gotQuery["pageToken"] != "page1" {
		t.Errorf("pageToken = %q, want page1", gotQuery["pageToken"])
	}
	if gotQuery["maxResults"] != "25" {
		t.Errorf("maxResults = %q, want 25", gotQuery["maxResults"])
	}
	if page.NextCursor != "page2" {
		t.Errorf("next cursor = %q, want page2", page.NextCursor)
	}
	// The item without a video ID is dropped.
	if len(page.Posts) != 1 {
		t.Fatalf("posts = %d, want 1", len(page.Posts))
	}
}

func TestQuotaExceededIsTransient(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`{"error": {"code": 403, "message": "quota", "errors": [{"reason": "quotaExceeded"}]}}`))
	}))
	defer server.Close()

	adapter := NewAdapter(NewClient("test-key", server.URL))
	_, err := adapter.FetchPage(context.Background(), platforms.Query{Keyword: "x"}, "")
	if !platforms.IsTransient(err) {
		t.Errorf("quotaExceeded should be transient, got %v", err)
	}
}

func TestKeyInvalidIsAuth(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error": {"code": 400, "message": "bad key", "errors": [{"reason": "keyInvalid"}]}}`))
	}))
	defer server.Close()

	adapter := NewAdapter(NewClient("bad-key", server.URL))
	_, err := adapter.FetchPage(context.Background(), platforms.Query{Keyword: "x"}, "")
	if !platforms.IsAuth(err) {
		t.Errorf("keyInvalid should be an auth error, got %v", err)
	}
}

func TestEnrichFillsStatsAndComments(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/videos":
			w.Write([]byte(`{"items": [{
				"snippet": {"tags": ["Go", "tutorial"]},
				"statistics": {"viewCount": "1000", "likeCount": "50", "commentCount": "2"}
			}]}`))
		case "/commentThreads":
			w.Write([]byte(`{"items": [
				{"snippet": {"topLevelComment": {"snippet": {"textDisplay": "great video", "publishedAt": "2024-03-02T08:00:00Z", "authorChannelId": {"value": "UCabc"}}}}}
			]}`))
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	}))
	defer server.Close()

	adapter := NewAdapter(NewClient("test-key", server.URL))
	raw, err := adapter.Enrich(context.Background(), &Video{
		ID:           "vid1",
		PublishedAt:  "2024-03-01T10:00:00Z",
		Title:        "Go video #golang",
		wantComments: 10,
	})
	if err != nil {
		t.Fatalf("Enrich failed: %v", err)
	}

	video := raw.(*Video)
	if video.Views != 1000 || video.Likes != 50 || video.Comments != 2 {
		t.Errorf("stats = %d/%d/%d, want 1000/50/2", video.Views, video.Likes, video.Comments)
	}
	if len(video.CommentList) != 1 {
		t.Fatalf("comments = %d, want 1", len(video.CommentList))
	}

	rec, rej := adapter.ToCanonical(video)
	if rej != nil {
		t.Fatalf("ToCanonical rejected: %+v", rej)
	}
	if rec.URL != "https://www.youtube.com/watch?v=vid1" {
		t.Errorf("url = %q", rec.URL)
	}
	// Hashtags merge the text tags and the (lowercased) video tags.
	want := map[string]bool{"golang": true, "go": true, "tutorial": true}
	for _, tag := range rec.Hashtags {
		if !want[tag] {
			t.Errorf("unexpected hashtag %q", tag)
		}
		delete(want, tag)
	}
	if len(want) != 0 {
		t.Errorf("missing hashtags: %v", want)
	}
	if len(rec.CommentsDetail) != 1 || rec.CommentsDetail[0].Content != "great video" {
		t.Errorf("comments detail = %+v", rec.CommentsDetail)
	}
	if rec.CommentsDetail[0].AuthorHash == "" || rec.CommentsDetail[0].AuthorHash == "UCabc" {
		t.Error("author identity must be stored as a hash")
	}
}

func TestToCanonicalRejectsBadDate(t *testing.T) {
	adapter := NewAdapter(NewClient("test-key", ""))
	_, rej := adapter.ToCanonical(&Video{ID: "vid1", PublishedAt: "03-01-2024"})
	if rej == nil || rej.Reason != platforms.RejectDateParse {
		t.Errorf("rejection = %+v, want date parse", rej)
	}
}
