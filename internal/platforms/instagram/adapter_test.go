package instagram

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"social-pulse/internal/platforms"
)

func TestParseCount(t *testing.T) {
	tests := []struct {
		in   string
		want int
	}{
		{"42", 42},
		{"1,234", 1234},
		{"1.2K", 1200},
		{"3.4M", 3400000},
		{"2B", 2000000000},
		{"1.2k", 1200},
		{"", 0},
		{"n/a", 0},
		{"-5", 0},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := ParseCount(tt.in); got != tt.want {
				t.Errorf("ParseCount(%q) = %d, want %d", tt.in, got, tt.want)
			}
		})
	}
}

const hashtagPayload = `{
	"graphql": {
		"hashtag": {
			"edge_hashtag_to_media": {
				"page_info": {"has_next_page": true, "end_cursor": "cursor2"},
				"edges": [
					{"node": {
						"id": "111",
						"shortcode": "Cabc",
						"taken_at_timestamp": 1709290800,
						"edge_media_to_caption": {"edges": [{"node": {"text": "spring launch #launch #GoLive"}}]},
						"edge_liked_by": {"count": "1.2K"},
						"edge_media_to_comment": {"count": 3},
						"video_view_count": 5000,
						"edge_media_to_parent_comment": {"edges": [
							{"node": {"id": "c1", "text": "love it", "created_at": 1709291000, "owner": {"id": "user9"}}},
							{"node": {"id": "c2", "text": "when is it out", "created_at": 1709291100, "owner": {"id": "user8"}}}
						]}
					}}
				]
			}
		}
	}
}`

func TestFetchPageAndToCanonical(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("max_id"); got != "cursor1" {
			t.Errorf("max_id = %q, want cursor1", got)
		}
		w.Write([]byte(hashtagPayload))
	}))
	defer server.Close()

	adapter := NewAdapter(NewClient("", server.URL))
	page, err := adapter.FetchPage(context.Background(), platforms.Query{Keyword: "launch", MaxComments: 1}, "cursor1")
	if err != nil {
		t.Fatalf("FetchPage failed: %v", err)
	}
	if page.NextCursor != "cursor2" {
		t.Errorf("next cursor = %q, want cursor2", page.NextCursor)
	}
	if len(page.Posts) != 1 {
		t.Fatalf("posts = %d, want 1", len(page.Posts))
	}

	rec, rej := adapter.ToCanonical(page.Posts[0])
	if rej != nil {
		t.Fatalf("ToCanonical rejected: %+v", rej)
	}
	if rec.URL != "https://www.instagram.com/p/Cabc/" {
		t.Errorf("url = %q", rec.URL)
	}
	if rec.Likes != 1200 || rec.Comments != 3 || rec.Views != 5000 {
		t.Errorf("counts = %d/%d/%d, want 1200/3/5000", rec.Likes, rec.Comments, rec.Views)
	}
	if rec.CreatedAt.Year() != 2024 {
		t.Errorf("created at = %v", rec.CreatedAt)
	}
	if len(rec.Hashtags) != 2 || rec.Hashtags[0] != "launch" || rec.Hashtags[1] != "golive" {
		t.Errorf("hashtags = %v", rec.Hashtags)
	}
	// MaxComments capped collection to one comment.
	if len(rec.CommentsDetail) != 1 {
		t.Fatalf("comments = %d, want 1", len(rec.CommentsDetail))
	}
	if rec.CommentsDetail[0].AuthorHash == "user9" || rec.CommentsDetail[0].AuthorHash == "" {
		t.Error("author identity must be stored as a hash")
	}
}

func TestFetchPageRateLimited(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	adapter := NewAdapter(NewClient("", server.URL))
	_, err := adapter.FetchPage(context.Background(), platforms.Query{Keyword: "launch"}, "")
	if !platforms.IsTransient(err) {
		t.Errorf("429 should be transient, got %v", err)
	}
}

func TestToCanonicalRejectsMissingTimestamp(t *testing.T) {
	adapter := NewAdapter(NewClient("", ""))
	_, rej := adapter.ToCanonical(&Media{Shortcode: "Cabc"})
	if rej == nil || rej.Reason != platforms.RejectDateParse {
		t.Errorf("rejection = %+v, want date parse", rej)
	}
}
