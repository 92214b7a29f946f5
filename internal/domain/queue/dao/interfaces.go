package dao

import (
	"context"
	"time"

	"github.com/vadim/villapost/internal/domain/queue/entity"
)

// ScheduledPostRepository defines the interface for scheduled post data access
type ScheduledPostRepository interface {
	// CreateBatch inserts a batch of posts atomically: either the whole batch
	// becomes visible or none of it does.
	CreateBatch(ctx context.Context, posts []*entity.ScheduledPost) error

	// MaxPosition returns the highest position used by an account, 0 if none.
	MaxPosition(ctx context.Context, accountID string) (int, error)

	// GetByID retrieves a post by its ID
	GetByID(ctx context.Context, id string) (*entity.ScheduledPost, error)

	// NextDue returns the pending post with the smallest position that has not
	// been published on or after dayStart, or nil if there is none.
	NextDue(ctx context.Context, accountID string, dayStart time.Time) (*entity.ScheduledPost, error)

	// ListByAccount retrieves all posts for an account ordered by position ascending
	ListByAccount(ctx context.Context, accountID string) ([]entity.ScheduledPost, error)

	// CountByStatus returns aggregate queue counts for an account
	CountByStatus(ctx context.Context, accountID string) (*entity.QueueStats, error)

	// Delete removes one post scoped to its owner
	Delete(ctx context.Context, accountID, id string) error

	// DeletePublished removes all published posts for an account, returning the count
	DeletePublished(ctx context.Context, accountID string) (int64, error)

	// RequeueErrors flips an account's error posts back to pending, returning the count
	RequeueErrors(ctx context.Context, accountID string) (int64, error)

	// MarkAttempt stamps last_attempt_at at the start of a processing attempt
	MarkAttempt(ctx context.Context, id string, at time.Time) error

	// SaveImages persists the extracted source image URLs
	SaveImages(ctx context.Context, id string, urls []string) error

	// SaveContent persists the generated caption and short summary
	SaveContent(ctx context.Context, id string, caption, summary string) error

	// SaveMarketingImage persists the rendered composite image URL
	SaveMarketingImage(ctx context.Context, id string, url string) error

	// MarkPublished sets status=published, published_at and clears last_error
	MarkPublished(ctx context.Context, id string, at time.Time) error

	// MarkError sets status=error and records the failure message
	MarkError(ctx context.Context, id string, message string) error
}
