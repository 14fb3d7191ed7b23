package youtube

import (
	"context"
	"fmt"
	"strings"
	"time"

	"social-pulse/internal/models"
	"social-pulse/internal/platforms"
)

// Adapter implements the platform capability over the Data API client.
type Adapter struct {
	client *Client
}

// NewAdapter creates the YouTube adapter.
func NewAdapter(client *Client) *Adapter {
	return &Adapter{client: client}
}

// Platform returns the platform identifier.
func (a *Adapter) Platform() platforms.Platform { return platforms.PlatformYouTube }

// NewestFirst reports result ordering; search runs with order=date.
func (a *Adapter) NewestFirst() bool { return true }

// FetchPage performs one search round trip.
func (a *Adapter) FetchPage(ctx context.Context, q platforms.Query, cursor string) (*platforms.Page, error) {
	resp, err := a.client.search(ctx, q, cursor)
	if err != nil {
		return nil, err
	}

	page := &platforms.Page{NextCursor: resp.NextPageToken}
	for _, item := range resp.Items {
		if item.ID.VideoID == "" {
			continue
		}
		page.Posts = append(page.Posts, &Video{
			ID:           item.ID.VideoID,
			PublishedAt:  item.Snippet.PublishedAt,
			Title:        item.Snippet.Title,
			Description:  item.Snippet.Description,
			wantComments: q.MaxComments,
		})
	}
	return page, nil
}

// Enrich fills statistics and, when requested, top-level comments. Videos
// with comments disabled keep an empty comment list instead of failing.
func (a *Adapter) Enrich(ctx context.Context, raw platforms.RawPost) (platforms.RawPost, error) {
	video, ok := raw.(*Video)
	if !ok {
		return nil, &platforms.PermanentError{Err: fmt.Errorf("unexpected raw type %T", raw)}
	}

	details, err := a.client.videoDetails(ctx, video.ID)
	if err != nil {
		return nil, err
	}
	if len(details.Items) == 0 {
		return nil, &platforms.PermanentError{Err: fmt.Errorf("video %s no longer available", video.ID)}
	}

	item := details.Items[0]
	video.Tags = item.Snippet.Tags
	video.Views = parseCount(item.Statistics.ViewCount)
	video.Likes = parseCount(item.Statistics.LikeCount)
	video.Comments = parseCount(item.Statistics.CommentCount)

	if video.wantComments > 0 && video.Comments > 0 {
		comments, err := a.client.commentThreads(ctx, video.ID, video.wantComments)
		switch {
		case err == nil:
			video.CommentList = comments
		case platforms.IsPermanent(err):
			// Comments disabled or removed since the stats call.
			video.CommentList = nil
		default:
			return nil, err
		}
	}

	return video, nil
}

// ToCanonical maps a video into the unified schema.
func (a *Adapter) ToCanonical(raw platforms.RawPost) (*models.Record, *platforms.Rejection) {
	video, ok := raw.(*Video)
	if !ok {
		return nil, &platforms.Rejection{
			Reason: platforms.RejectMissingFields,
			Detail: fmt.Sprintf("unexpected raw type %T", raw),
		}
	}
	if video.ID == "" {
		return nil, &platforms.Rejection{Reason: platforms.RejectMissingFields, Detail: "missing video id"}
	}

	createdAt, err := time.Parse(time.RFC3339, video.PublishedAt)
	if err != nil {
		return nil, &platforms.Rejection{
			Reason: platforms.RejectDateParse,
			Detail: fmt.Sprintf("publishedAt %q: %v", video.PublishedAt, err),
		}
	}

	text := video.Title
	if video.Description != "" {
		text += "\n" + video.Description
	}

	hashtags := platforms.ExtractHashtags(text)
	for _, tag := range video.Tags {
		hashtags = appendUnique(hashtags, strings.ToLower(tag))
	}

	rec := &models.Record{
		CreatedAt: createdAt.UTC(),
		Text:      text,
		Hashtags:  hashtags,
		Likes:     video.Likes,
		Comments:  video.Comments,
		Views:     video.Views,
		URL:       "https://www.youtube.com/watch?v=" + video.ID,
	}

	for _, c := range video.CommentList {
		rec.CommentsDetail = append(rec.CommentsDetail, models.RecordComment{
			AuthorHash: platforms.HashAuthor(platforms.PlatformYouTube, c.AuthorChannelID),
			Content:    c.Text,
			Date:       c.PublishedAt.UTC(),
		})
	}

	return rec, nil
}

func appendUnique(tags []string, tag string) []string {
	for _, t := range tags {
		if t == tag {
			return tags
		}
	}
	return append(tags, tag)
}
