package entity

import (
	"strings"
	"time"
)

// PostStatus represents the current status of a scheduled post
type PostStatus string

const (
	PostStatusPending   PostStatus = "pending"
	PostStatusPublished PostStatus = "published"
	PostStatusError     PostStatus = "error"
)

// ScheduledPost represents one listing URL queued for automatic publishing.
// The pipeline fields (ImageURLs, Caption, ShortSummary, MarketingImageURL)
// are populated step by step and never cleared once set, so a retried post
// resumes from the first incomplete step.
type ScheduledPost struct {
	ID        string `json:"id"`
	AccountID string `json:"account_id"`
	URL       string `json:"url"`

	// Position is assigned per account at enqueue time, strictly increasing.
	// Gaps after deletion are fine; ordering is always by position ascending.
	Position int `json:"position"`

	// ScheduledTimeSnapshot is the account's publish time captured at enqueue.
	// Informational only: the sweep reads the live profile setting.
	ScheduledTimeSnapshot string `json:"scheduled_time"`

	Status PostStatus `json:"status"`

	ImageURLs         []string `json:"image_urls,omitempty"`
	Caption           string   `json:"caption,omitempty"`
	ShortSummary      string   `json:"short_summary,omitempty"`
	MarketingImageURL string   `json:"marketing_image_url,omitempty"`

	PublishedAt   *time.Time `json:"published_at,omitempty"`
	LastAttemptAt *time.Time `json:"last_attempt_at,omitempty"`
	LastError     string     `json:"last_error,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NeedsExtraction reports whether the image-extraction step still has to run.
func (p *ScheduledPost) NeedsExtraction() bool {
	return len(p.ImageURLs) == 0
}

// NeedsContent reports whether caption/summary generation still has to run.
func (p *ScheduledPost) NeedsContent() bool {
	return p.Caption == ""
}

// NeedsMarketingImage reports whether the composite render still has to run.
func (p *ScheduledPost) NeedsMarketingImage() bool {
	return p.MarketingImageURL == ""
}

// PublishedOn reports whether the post was published on the calendar day
// starting at dayStart (local midnight of the owner's timezone).
func (p *ScheduledPost) PublishedOn(dayStart time.Time) bool {
	return p.PublishedAt != nil && !p.PublishedAt.Before(dayStart)
}

// Validate checks the fields set at enqueue time.
func (p *ScheduledPost) Validate() error {
	if p.AccountID == "" {
		return ErrEmptyAccountID
	}
	if strings.TrimSpace(p.URL) == "" {
		return ErrEmptyURL
	}
	if p.Position < 1 {
		return ErrInvalidPosition
	}
	return nil
}
