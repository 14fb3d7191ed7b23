// Package blogsearch implements the deep-archive blog platform adapter. A
// JSON search API yields post summaries with offset based pagination; a
// second HTML round trip per post collects sympathy and comment detail.
package blogsearch

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"social-pulse/internal/platforms"
)

const maxDisplay = 100

// Client talks to the blog search API and the post pages themselves.
type Client struct {
	searchURL    string
	clientID     string
	clientSecret string
	httpClient   *http.Client
}

// NewClient creates a blog search client. searchURL is overridable for
// tests.
func NewClient(clientID, clientSecret, searchURL string) *Client {
	if searchURL == "" {
		searchURL = "https://openapi.naver.com/v1/search/blog.json"
	}
	return &Client{
		searchURL:    searchURL,
		clientID:     clientID,
		clientSecret: clientSecret,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Post is the adapter-native raw result. Sympathy and CommentList are
// filled by enrichment, not by search.
type Post struct {
	Title       string
	Link        string
	Description string
	PostDate    string

	Sympathy    int
	Comments    int
	CommentList []Comment

	enriched     bool
	wantComments int
}

// Comment is one collected blog comment.
type Comment struct {
	Author string
	Text   string
	Date   time.Time
}

type searchResponse struct {
	Total   int          `json:"total"`
	Start   int          `json:"start"`
	Display int          `json:"display"`
	Items   []searchItem `json:"items"`
}

type searchItem struct {
	Title       string `json:"title"`
	Link        string `json:"link"`
	Description string `json:"description"`
	PostDate    string `json:"postdate"`
}

// Search performs one search round trip. start is 1-based; the next offset
// is returned, or 0 when the result set is exhausted.
func (c *Client) Search(ctx context.Context, keyword string, start, display int) ([]*Post, int, error) {
	if start < 1 {
		start = 1
	}
	if display < 1 || display > maxDisplay {
		display = maxDisplay
	}

	params := url.Values{}
	params.Set("query", keyword)
	params.Set("start", strconv.Itoa(start))
	params.Set("display", strconv.Itoa(display))
	params.Set("sort", "date")

	req, err := http.NewRequestWithContext(ctx, "GET", c.searchURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, 0, &platforms.PermanentError{Err: err}
	}
	req.Header.Set("X-Naver-Client-Id", c.clientID)
	req.Header.Set("X-Naver-Client-Secret", c.clientSecret)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, &platforms.TransientError{Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, &platforms.TransientError{Err: err}
	}

	if resp.StatusCode != http.StatusOK {
		return nil, 0, platforms.ErrorFromStatus(resp.StatusCode,
			fmt.Errorf("blog search failed: %s", http.StatusText(resp.StatusCode)))
	}

	var parsed searchResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, 0, &platforms.PermanentError{Err: fmt.Errorf("failed to decode search response: %w", err)}
	}

	posts := make([]*Post, 0, len(parsed.Items))
	for _, item := range parsed.Items {
		posts = append(posts, &Post{
			Title:       stripTags(item.Title),
			Link:        item.Link,
			Description: stripTags(item.Description),
			PostDate:    item.PostDate,
		})
	}

	next := 0
	if len(parsed.Items) == display && start+display <= parsed.Total {
		next = start + display
	}
	return posts, next, nil
}

// fetchPostPage downloads the post HTML for enrichment.
func (c *Client) fetchPostPage(ctx context.Context, link string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", link, nil)
	if err != nil {
		return nil, &platforms.PermanentError{Err: err}
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (compatible; social-pulse/1.0)")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &platforms.TransientError{Err: err}
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, platforms.ErrorFromStatus(resp.StatusCode,
			fmt.Errorf("post fetch failed: %s", http.StatusText(resp.StatusCode)))
	}
	return resp.Body, nil
}
