// Package platforms defines the capability contract every source platform
// implements: fetch one page of keyword-matched content, map each raw result
// into a canonical record, and report whether more pages exist via an opaque
// cursor. New platforms are added by implementing Adapter, not by branching
// inside the crawler.
package platforms

import (
	"context"
	"time"

	"social-pulse/internal/models"
)

// Platform identifies a content source.
type Platform string

const (
	PlatformX         Platform = "x"
	PlatformInstagram Platform = "instagram"
	PlatformYouTube   Platform = "youtube"
	PlatformBlog      Platform = "blog"
)

// Class groups platforms by content velocity.
type Class string

const (
	// ClassImmediateReactive covers short-form, high-velocity platforms.
	ClassImmediateReactive Class = "immediate-reactive"
	// ClassDeepArchive covers long-form, durable-content platforms.
	ClassDeepArchive Class = "deep-archive"
)

// Class returns the velocity class of the platform.
func (p Platform) Class() Class {
	switch p {
	case PlatformX, PlatformInstagram:
		return ClassImmediateReactive
	default:
		return ClassDeepArchive
	}
}

// Query describes one keyword search against a platform.
type Query struct {
	Keyword string

	// Optional date bounds, passed to platforms whose search API accepts
	// them. The pipeline applies the authoritative date filter regardless.
	Since *time.Time
	Until *time.Time

	// PageSize is the requested number of results per page; adapters clamp
	// it to their platform's maximum.
	PageSize int

	// MaxComments caps how many comments are collected per post. 0 disables
	// comment collection.
	MaxComments int
}

// RawPost is an adapter-owned, platform-native result. It is opaque to the
// pipeline: only the adapter that produced it may interpret it, and it is
// discarded after ToCanonical.
type RawPost interface{}

// Page is the result of one fetch round trip.
type Page struct {
	Posts []RawPost

	// NextCursor is the opaque continuation token for the following page;
	// empty means the result window is exhausted.
	NextCursor string
}

// Adapter is the per-platform capability. FetchPage performs exactly one
// search round trip and never retries internally; retry and pacing belong to
// the rate controller.
type Adapter interface {
	Platform() Platform

	// FetchPage fetches one page of results. cursor is empty for the first
	// page. Errors are classified per the taxonomy in errors.go.
	FetchPage(ctx context.Context, q Query, cursor string) (*Page, error)

	// ToCanonical maps a raw result into a canonical record, or returns a
	// rejection reason. A bad record never aborts its page.
	ToCanonical(raw RawPost) (*models.Record, *Rejection)

	// NewestFirst reports whether FetchPage returns results ordered
	// newest-first, which lets the pipeline stop paging once results cross
	// the lower date boundary.
	NewestFirst() bool
}

// Enricher is implemented by adapters whose search surface omits engagement
// counts or comments. Enrich performs the per-record detail round trips; the
// pipeline runs it under the same rate controller as FetchPage.
type Enricher interface {
	Enrich(ctx context.Context, raw RawPost) (RawPost, error)
}

// RejectReason classifies why a raw result could not become a canonical
// record.
type RejectReason string

const (
	RejectDateParse     RejectReason = "date_parse"
	RejectMissingFields RejectReason = "missing_fields"
)

// Rejection is a non-fatal per-record mapping failure.
type Rejection struct {
	Reason RejectReason
	Detail string
}
