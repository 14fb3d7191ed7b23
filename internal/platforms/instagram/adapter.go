package instagram

import (
	"context"
	"fmt"
	"time"

	"social-pulse/internal/models"
	"social-pulse/internal/platforms"
)

// Adapter implements platforms.Adapter for Instagram hashtag media.
type Adapter struct {
	client *Client
}

func NewAdapter(client *Client) *Adapter {
	return &Adapter{client: client}
}

func (a *Adapter) Platform() platforms.Platform {
	return platforms.PlatformInstagram
}

// NewestFirst reports that hashtag pages arrive newest first, so crossing
// below the window start ends pagination.
func (a *Adapter) NewestFirst() bool {
	return true
}

func (a *Adapter) FetchPage(ctx context.Context, q platforms.Query, cursor string) (*platforms.Page, error) {
	items, next, err := a.client.FetchHashtagPage(ctx, q.Keyword, q.MaxComments, cursor)
	if err != nil {
		return nil, err
	}

	page := &platforms.Page{NextCursor: next}
	for _, m := range items {
		page.Posts = append(page.Posts, m)
	}
	return page, nil
}

func (a *Adapter) ToCanonical(raw platforms.RawPost) (*models.Record, *platforms.Rejection) {
	m, ok := raw.(*Media)
	if !ok {
		return nil, &platforms.Rejection{
			Reason: platforms.RejectMissingFields,
			Detail: "unexpected raw post type",
		}
	}
	if m.Shortcode == "" {
		return nil, &platforms.Rejection{
			Reason: platforms.RejectMissingFields,
			Detail: "media has no shortcode",
		}
	}
	if m.TakenAt <= 0 {
		return nil, &platforms.Rejection{
			Reason: platforms.RejectDateParse,
			Detail: fmt.Sprintf("invalid taken_at timestamp %d", m.TakenAt),
		}
	}

	rec := &models.Record{
		CreatedAt: time.Unix(m.TakenAt, 0).UTC(),
		Text:      m.Caption,
		Hashtags:  platforms.ExtractHashtags(m.Caption),
		Likes:     m.Likes.Int(),
		Comments:  m.Comments.Int(),
		Views:     m.Views.Int(),
		URL:       "https://www.instagram.com/p/" + m.Shortcode + "/",
	}

	for i, c := range m.CommentList {
		rec.CommentsDetail = append(rec.CommentsDetail, models.RecordComment{
			Position:   i,
			AuthorHash: platforms.HashAuthor(platforms.PlatformInstagram, c.OwnerID),
			Content:    c.Text,
			Date:       time.Unix(c.CreatedAt, 0).UTC(),
		})
	}

	return rec, nil
}
