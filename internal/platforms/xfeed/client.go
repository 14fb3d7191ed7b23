// Package xfeed implements the immediate-reactive short-text platform
// adapter: bearer-token recent search with next_token pagination, plus an
// optional live sampled-stream consumer.
package xfeed

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"social-pulse/internal/models"
	"social-pulse/internal/platforms"
)

const (
	defaultBaseURL = "https://api.x.com/2"
	maxPageSize    = 100
	postTimeLayout = time.RFC3339
)

// Client is a minimal X API v2 client.
type Client struct {
	baseURL     string
	bearerToken string
	httpClient  *http.Client
}

// NewClient creates an X client. baseURL is overridable for tests.
func NewClient(bearerToken, baseURL string) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Client{
		baseURL:     baseURL,
		bearerToken: bearerToken,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Post represents one post from the search or stream surface.
type Post struct {
	ID            string `json:"id"`
	Text          string `json:"text"`
	CreatedAt     string `json:"created_at"`
	AuthorID      string `json:"author_id"`
	PublicMetrics struct {
		LikeCount       int `json:"like_count"`
		ReplyCount      int `json:"reply_count"`
		ImpressionCount int `json:"impression_count"`
	} `json:"public_metrics"`
	Entities struct {
		Hashtags []struct {
			Tag string `json:"tag"`
		} `json:"hashtags"`
	} `json:"entities"`
}

type searchResponse struct {
	Data []Post `json:"data"`
	Meta struct {
		NextToken   string `json:"next_token"`
		ResultCount int    `json:"result_count"`
	} `json:"meta"`
}

// SearchRecent performs one recent-search round trip.
func (c *Client) SearchRecent(ctx context.Context, q platforms.Query, nextToken string) (*searchResponse, error) {
	size := q.PageSize
	if size <= 0 || size > maxPageSize {
		size = maxPageSize
	}

	params := url.Values{}
	params.Set("query", q.Keyword)
	params.Set("max_results", strconv.Itoa(size))
	params.Set("tweet.fields", "created_at,public_metrics,entities,author_id")
	if q.Since != nil {
		params.Set("start_time", q.Since.UTC().Format(time.RFC3339))
	}
	if q.Until != nil {
		params.Set("end_time", q.Until.UTC().Format(time.RFC3339))
	}
	if nextToken != "" {
		params.Set("next_token", nextToken)
	}

	req, err := http.NewRequestWithContext(ctx, "GET", c.baseURL+"/tweets/search/recent?"+params.Encode(), nil)
	if err != nil {
		return nil, &platforms.PermanentError{Err: err}
	}
	req.Header.Set("Authorization", "Bearer "+c.bearerToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &platforms.TransientError{Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &platforms.TransientError{Err: err}
	}

	if resp.StatusCode != http.StatusOK {
		return nil, platforms.ErrorFromStatus(resp.StatusCode,
			fmt.Errorf("search failed: %s", http.StatusText(resp.StatusCode)))
	}

	var parsed searchResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, &platforms.PermanentError{Err: fmt.Errorf("failed to decode search response: %w", err)}
	}
	return &parsed, nil
}

// Adapter implements the platform capability over the search client.
type Adapter struct {
	client *Client
}

// NewAdapter creates the X adapter.
func NewAdapter(client *Client) *Adapter {
	return &Adapter{client: client}
}

// Platform returns the platform identifier.
func (a *Adapter) Platform() platforms.Platform { return platforms.PlatformX }

// NewestFirst reports result ordering; recent search returns newest first.
func (a *Adapter) NewestFirst() bool { return true }

// FetchPage performs one search round trip.
func (a *Adapter) FetchPage(ctx context.Context, q platforms.Query, cursor string) (*platforms.Page, error) {
	resp, err := a.client.SearchRecent(ctx, q, cursor)
	if err != nil {
		return nil, err
	}

	page := &platforms.Page{NextCursor: resp.Meta.NextToken}
	for i := range resp.Data {
		page.Posts = append(page.Posts, &resp.Data[i])
	}
	return page, nil
}

// ToCanonical maps a post into the unified schema. Replies to the post are
// not fetched on this platform; the comment count comes from public metrics
// and comments_detail stays empty.
func (a *Adapter) ToCanonical(raw platforms.RawPost) (*models.Record, *platforms.Rejection) {
	post, ok := raw.(*Post)
	if !ok {
		return nil, &platforms.Rejection{
			Reason: platforms.RejectMissingFields,
			Detail: fmt.Sprintf("unexpected raw type %T", raw),
		}
	}
	if post.ID == "" || post.Text == "" {
		return nil, &platforms.Rejection{Reason: platforms.RejectMissingFields, Detail: "missing id or text"}
	}

	createdAt, err := time.Parse(postTimeLayout, post.CreatedAt)
	if err != nil {
		return nil, &platforms.Rejection{
			Reason: platforms.RejectDateParse,
			Detail: fmt.Sprintf("created_at %q: %v", post.CreatedAt, err),
		}
	}

	hashtags := make([]string, 0, len(post.Entities.Hashtags))
	for _, h := range post.Entities.Hashtags {
		hashtags = appendUnique(hashtags, strings.ToLower(h.Tag))
	}
	if len(hashtags) == 0 {
		hashtags = platforms.ExtractHashtags(post.Text)
	}

	return &models.Record{
		CreatedAt: createdAt.UTC(),
		Text:      post.Text,
		Hashtags:  hashtags,
		Likes:     post.PublicMetrics.LikeCount,
		Comments:  post.PublicMetrics.ReplyCount,
		Views:     post.PublicMetrics.ImpressionCount,
		URL:       "https://x.com/i/status/" + post.ID,
	}, nil
}

func appendUnique(tags []string, tag string) []string {
	for _, t := range tags {
		if t == tag {
			return tags
		}
	}
	return append(tags, tag)
}
