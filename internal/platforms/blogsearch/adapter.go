package blogsearch

import (
	"context"
	"fmt"
	"strconv"

	"social-pulse/internal/models"
	"social-pulse/internal/platforms"
)

// Adapter implements platforms.Adapter and platforms.Enricher for blog
// search. The pagination cursor is the 1-based search offset.
type Adapter struct {
	client *Client
}

func NewAdapter(client *Client) *Adapter {
	return &Adapter{client: client}
}

func (a *Adapter) Platform() platforms.Platform {
	return platforms.PlatformBlog
}

// NewestFirst reports that date-sorted search results arrive newest first.
func (a *Adapter) NewestFirst() bool {
	return true
}

func (a *Adapter) FetchPage(ctx context.Context, q platforms.Query, cursor string) (*platforms.Page, error) {
	start := 1
	if cursor != "" {
		n, err := strconv.Atoi(cursor)
		if err != nil {
			return nil, &platforms.PermanentError{Err: fmt.Errorf("malformed cursor %q: %w", cursor, err)}
		}
		start = n
	}

	posts, next, err := a.client.Search(ctx, q.Keyword, start, q.PageSize)
	if err != nil {
		return nil, err
	}

	page := &platforms.Page{}
	if next > 0 {
		page.NextCursor = strconv.Itoa(next)
	}
	for _, p := range posts {
		p.wantComments = q.MaxComments
		page.Posts = append(page.Posts, p)
	}
	return page, nil
}

// Enrich fetches the post page for sympathy and comment detail.
func (a *Adapter) Enrich(ctx context.Context, raw platforms.RawPost) (platforms.RawPost, error) {
	p, ok := raw.(*Post)
	if !ok {
		return raw, nil
	}
	if err := a.client.EnrichPost(ctx, p, p.wantComments); err != nil {
		return nil, err
	}
	return p, nil
}

func (a *Adapter) ToCanonical(raw platforms.RawPost) (*models.Record, *platforms.Rejection) {
	p, ok := raw.(*Post)
	if !ok {
		return nil, &platforms.Rejection{
			Reason: platforms.RejectMissingFields,
			Detail: "unexpected raw post type",
		}
	}
	if p.Link == "" {
		return nil, &platforms.Rejection{
			Reason: platforms.RejectMissingFields,
			Detail: "post has no link",
		}
	}

	created, err := ParsePostDate(p.PostDate)
	if err != nil {
		return nil, &platforms.Rejection{
			Reason: platforms.RejectDateParse,
			Detail: err.Error(),
		}
	}

	text := p.Title
	if p.Description != "" {
		text += "\n" + p.Description
	}

	rec := &models.Record{
		CreatedAt: created,
		Text:      text,
		Hashtags:  platforms.ExtractHashtags(text),
		Likes:     p.Sympathy, // sympathy is the platform's like analogue
		Comments:  p.Comments,
		URL:       p.Link,
	}

	for i, c := range p.CommentList {
		date := c.Date
		if date.IsZero() {
			date = created
		}
		rec.CommentsDetail = append(rec.CommentsDetail, models.RecordComment{
			Position:   i,
			AuthorHash: platforms.HashAuthor(platforms.PlatformBlog, c.Author),
			Content:    c.Text,
			Date:       date,
		})
	}

	return rec, nil
}
