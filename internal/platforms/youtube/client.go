// Package youtube implements the deep-archive video platform adapter on top
// of the Data API v3: keyword search with pageToken pagination, per-video
// statistics, and top-level comment collection.
package youtube

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

const (
	defaultBaseURL = "https://www.googleapis.com/youtube/v3"
	maxPageSize    = 50 // API ceiling per search call
)

// Client is a minimal YouTube Data API v3 client.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewClient creates a YouTube client. baseURL is overridable for tests.
func NewClient(apiKey, baseURL string) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Video is the adapter-native raw result. Search fills the snippet fields;
// Enrich fills statistics and comments.
type Video struct {
	ID          string
	PublishedAt string
	Title       string
	Description string
	Tags        []string

	Likes    int
	Comments int
	Views    int

	CommentList []Comment

	wantComments int
}

// Comment is one collected top-level comment.
type Comment struct {
	AuthorChannelID string
	Text            string
	PublishedAt     time.Time
}

type searchResponse struct {
	NextPageToken string `json:"nextPageToken"`
	Items         []struct {
		ID struct {
			VideoID string `json:"videoId"`
		} `json:"id"`
		Snippet struct {
			PublishedAt string `json:"publishedAt"`
			Title       string `json:"title"`
			Description string `json:"description"`
		} `json:"snippet"`
	} `json:"items"`
}

type videosResponse struct {
	Items []struct {
		Snippet struct {
			Tags []string `json:"tags"`
		} `json:"snippet"`
		Statistics struct {
			ViewCount    string `json:"viewCount"`
			LikeCount    string `json:"likeCount"`
			CommentCount string `json:"commentCount"`
		} `json:"statistics"`
	} `json:"items"`
}

type commentThreadsResponse struct {
	Items []struct {
		Snippet struct {
			TopLevelComment struct {
				Snippet struct {
					TextDisplay     string    `json:"textDisplay"`
					PublishedAt     time.Time `json:"publishedAt"`
					AuthorChannelID struct {
						Value string `json:"value"`
					} `json:"authorChannelId"`
				} `json:"snippet"`
			} `json:"topLevelComment"`
		} `json:"snippet"`
	} `json:"items"`
}

type apiError struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Errors  []struct {
			Reason string `json:"reason"`
		} `json:"errors"`
	} `json:"error"`
}

// get performs one API round trip and classifies failures.
func (c *Client) get(ctx context.Context, endpoint string, params url.Values, out interface{}) error {
	params.Set("key", c.apiKey)

	req, err := http.NewRequestWithContext(ctx, "GET", c.baseURL+"/"+endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return &platforms.PermanentError{Err: err}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &platforms.TransientError{Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return &platforms.TransientError{Err: err}
	}

	if resp.StatusCode != http.StatusOK {
		return classifyError(resp.StatusCode, body)
	}

	if err := json.Unmarshal(body, out); err != nil {
		return &platforms.PermanentError{Err: fmt.Errorf("failed to decode %s response: %w", endpoint, err)}
	}
	return nil
}

// classifyError maps Data API error bodies onto the adapter taxonomy. Quota
// throttling arrives as 403 with a dedicated reason and must retry, unlike a
// real credential failure.
func classifyError(status int, body []byte) error {
	var ae apiError
	reason := ""
	if json.Unmarshal(body, &ae) == nil && len(ae.Error.Errors) > 0 {
		reason = ae.Error.Errors[0].Reason
	}

	switch reason {
	case "quotaExceeded", "rateLimitExceeded", "userRateLimitExceeded":
		return &platforms.TransientError{Status: status, Err: fmt.Errorf("%s", reason)}
	case "commentsDisabled":
		return &platforms.PermanentError{Status: status, Err: fmt.Errorf("%s", reason)}
	case "keyInvalid", "forbidden":
		return &platforms.AuthError{Err: fmt.Errorf("HTTP %d: %s", status, reason)}
	}

	msg := ae.Error.Message
	if msg == "" {
		msg = http.StatusText(status)
	}
	return platforms.ErrorFromStatus(status, fmt.Errorf("%s", msg))
}

// search performs one search.list round trip.
func (c *Client) search(ctx context.Context, q platforms.Query, pageToken string) (*searchResponse, error) {
	size := q.PageSize
	if size <= 0 || size > maxPageSize {
		size = maxPageSize
	}

	params := url.Values{}
	params.Set("part", "id,snippet")
	params.Set("type", "video")
	params.Set("q", q.Keyword)
	params.Set("order", "date")
	params.Set("maxResults", strconv.Itoa(size))
	if q.Since != nil {
		params.Set("publishedAfter", q.Since.UTC().Format(time.RFC3339))
	}
	if q.Until != nil {
		params.Set("publishedBefore", q.Until.UTC().Format(time.RFC3339))
	}
	if pageToken != "" {
		params.Set("pageToken", pageToken)
	}

	var resp searchResponse
	if err := c.get(ctx, "search", params, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// videoDetails fetches statistics and tags for one video.
func (c *Client) videoDetails(ctx context.Context, id string) (*videosResponse, error) {
	params := url.Values{}
	params.Set("part", "snippet,statistics")
	params.Set("id", id)

	var resp videosResponse
	if err := c.get(ctx, "videos", params, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// commentThreads fetches up to max top-level comments for one video.
func (c *Client) commentThreads(ctx context.Context, videoID string, max int) ([]Comment, error) {
	if max > 100 {
		max = 100
	}
	params := url.Values{}
	params.Set("part", "snippet")
	params.Set("videoId", videoID)
	params.Set("maxResults", strconv.Itoa(max))
	params.Set("order", "relevance")

	var resp commentThreadsResponse
	if err := c.get(ctx, "commentThreads", params, &resp); err != nil {
		return nil, err
	}

	comments := make([]Comment, 0, len(resp.Items))
	for _, item := range resp.Items {
		s := item.Snippet.TopLevelComment.Snippet
		comments = append(comments, Comment{
			AuthorChannelID: s.AuthorChannelID.Value,
			Text:            s.TextDisplay,
			PublishedAt:     s.PublishedAt,
		})
	}
	return comments, nil
}

func parseCount(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0
	}
	return n
}
