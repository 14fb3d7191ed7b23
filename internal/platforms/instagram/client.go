// Package instagram implements the immediate-reactive image platform
// adapter: hashtag media search with end_cursor pagination. Counts arrive
// either as plain numbers or abbreviated display text ("1.2K"), depending on
// which surface served the payload.
package instagram

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

	"social-pulse/internal/platforms"
)

const defaultBaseURL = "https://www.instagram.com"

// Client fetches hashtag media pages.
type Client struct {
	baseURL    string
	sessionID  string
	httpClient *http.Client
}

// NewClient creates an Instagram client. sessionID is optional; anonymous
// access is rate limited harder. baseURL is overridable for tests.
func NewClient(sessionID, baseURL string) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Client{
		baseURL:   baseURL,
		sessionID: sessionID,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Count is an engagement count as the platform serves it: a plain JSON
// number on some surfaces, abbreviated display text ("1.2K") on others.
type Count string

func (c *Count) UnmarshalJSON(b []byte) error {
	*c = Count(strings.Trim(string(b), `"`))
	return nil
}

// Int resolves the count to an integer.
func (c Count) Int() int { return ParseCount(string(c)) }

// Media is the adapter-native raw result.
type Media struct {
	ID        string
	Shortcode string
	TakenAt   int64
	Caption   string
	Likes     Count
	Comments  Count
	Views     Count

	CommentList []Comment
}

// Comment is one collected comment.
type Comment struct {
	OwnerID   string
	Text      string
	CreatedAt int64
}

type hashtagResponse struct {
	GraphQL struct {
		Hashtag struct {
			Media struct {
				PageInfo struct {
					HasNextPage bool   `json:"has_next_page"`
					EndCursor   string `json:"end_cursor"`
				} `json:"page_info"`
				Edges []struct {
					Node mediaNode `json:"node"`
				} `json:"edges"`
			} `json:"edge_hashtag_to_media"`
		} `json:"hashtag"`
	} `json:"graphql"`
}

type mediaNode struct {
	ID        string `json:"id"`
	Shortcode string `json:"shortcode"`
	TakenAt   int64  `json:"taken_at_timestamp"`
	Caption   struct {
		Edges []struct {
			Node struct {
				Text string `json:"text"`
			} `json:"node"`
		} `json:"edges"`
	} `json:"edge_media_to_caption"`
	Likes struct {
		Count Count `json:"count"`
	} `json:"edge_liked_by"`
	CommentCount struct {
		Count Count `json:"count"`
	} `json:"edge_media_to_comment"`
	VideoViews Count `json:"video_view_count"`
	Comments   struct {
		Edges []struct {
			Node struct {
				ID        string `json:"id"`
				Text      string `json:"text"`
				CreatedAt int64  `json:"created_at"`
				Owner     struct {
					ID string `json:"id"`
				} `json:"owner"`
			} `json:"node"`
		} `json:"edges"`
	} `json:"edge_media_to_parent_comment"`
}

// FetchHashtagPage performs one hashtag media round trip.
func (c *Client) FetchHashtagPage(ctx context.Context, tag string, maxComments int, cursor string) ([]*Media, string, error) {
	params := url.Values{}
	params.Set("__a", "1")
	params.Set("__d", "dis")
	if cursor != "" {
		params.Set("max_id", cursor)
	}

	endpoint := fmt.Sprintf("%s/explore/tags/%s/?%s", c.baseURL, url.PathEscape(tag), params.Encode())
	req, err := http.NewRequestWithContext(ctx, "GET", endpoint, nil)
	if err != nil {
		return nil, "", &platforms.PermanentError{Err: err}
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (compatible; social-pulse/1.0)")
	if c.sessionID != "" {
		req.AddCookie(&http.Cookie{Name: "sessionid", Value: c.sessionID})
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, "", &platforms.TransientError{Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", &platforms.TransientError{Err: err}
	}

	if resp.StatusCode != http.StatusOK {
		return nil, "", platforms.ErrorFromStatus(resp.StatusCode,
			fmt.Errorf("hashtag fetch failed: %s", http.StatusText(resp.StatusCode)))
	}

	var parsed hashtagResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, "", &platforms.PermanentError{Err: fmt.Errorf("failed to decode hashtag response: %w", err)}
	}

	media := parsed.GraphQL.Hashtag.Media
	items := make([]*Media, 0, len(media.Edges))
	for _, edge := range media.Edges {
		node := edge.Node
		m := &Media{
			ID:        node.ID,
			Shortcode: node.Shortcode,
			TakenAt:   node.TakenAt,
			Likes:     node.Likes.Count,
			Comments:  node.CommentCount.Count,
			Views:     node.VideoViews,
		}
		if len(node.Caption.Edges) > 0 {
			m.Caption = node.Caption.Edges[0].Node.Text
		}
		for _, ce := range node.Comments.Edges {
			if maxComments > 0 && len(m.CommentList) >= maxComments {
				break
			}
			m.CommentList = append(m.CommentList, Comment{
				OwnerID:   ce.Node.Owner.ID,
				Text:      ce.Node.Text,
				CreatedAt: ce.Node.CreatedAt,
			})
		}
		items = append(items, m)
	}

	next := ""
	if media.PageInfo.HasNextPage {
		next = media.PageInfo.EndCursor
	}
	return items, next, nil
}

// ParseCount converts a count that may be numeric or abbreviated display
// text ("1.2K", "3.4M", "1,234") into an integer. Unparseable input counts
// as 0 so scoring stays well-defined.
func ParseCount(s string) int {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	if v, err := strconv.Atoi(s); err == nil {
		if v < 0 {
			return 0
		}
		return v
	}

	s = strings.ReplaceAll(strings.ToUpper(s), ",", "")
	mult := 1.0
	switch {
	case strings.HasSuffix(s, "K"):
		mult, s = 1e3, strings.TrimSuffix(s, "K")
	case strings.HasSuffix(s, "M"):
		mult, s = 1e6, strings.TrimSuffix(s, "M")
	case strings.HasSuffix(s, "B"):
		mult, s = 1e9, strings.TrimSuffix(s, "B")
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || f < 0 {
		return 0
	}
	return int(f * mult)
}
