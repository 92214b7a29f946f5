package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/vadim/villapost/internal/domain/queue/dao"
	"github.com/vadim/villapost/internal/domain/queue/entity"
)

// Service handles business logic for the scheduled post queue
type Service struct {
	posts dao.ScheduledPostRepository
}

// New creates a new queue service
func New(posts dao.ScheduledPostRepository) *Service {
	return &Service{posts: posts}
}

// EnqueueInput represents input for enqueueing listing URLs
type EnqueueInput struct {
	AccountID     string
	URLs          []string
	ScheduledTime string // owner's configured publish time, snapshotted per entry
}

// EnqueueOutput represents output from enqueueing
type EnqueueOutput struct {
	StartPosition int
	Queued        int
}

// Enqueue creates one pending post per URL, continuing the account's position
// sequence from max(position)+1. The batch is inserted atomically.
func (s *Service) Enqueue(ctx context.Context, in EnqueueInput) (*EnqueueOutput, error) {
	if in.AccountID == "" {
		return nil, entity.ErrEmptyAccountID
	}
	if len(in.URLs) == 0 {
		return nil, entity.ErrNoURLs
	}

	maxPos, err := s.posts.MaxPosition(ctx, in.AccountID)
	if err != nil {
		return nil, err
	}
	startPosition := maxPos + 1

	now := time.Now()
	posts := make([]*entity.ScheduledPost, 0, len(in.URLs))
	for i, url := range in.URLs {
		post := &entity.ScheduledPost{
			ID:                    uuid.New().String(),
			AccountID:             in.AccountID,
			URL:                   strings.TrimSpace(url),
			Position:              startPosition + i,
			ScheduledTimeSnapshot: in.ScheduledTime,
			Status:                entity.PostStatusPending,
			CreatedAt:             now,
			UpdatedAt:             now,
		}
		if err := post.Validate(); err != nil {
			return nil, err
		}
		posts = append(posts, post)
	}

	if err := s.posts.CreateBatch(ctx, posts); err != nil {
		return nil, err
	}

	return &EnqueueOutput{
		StartPosition: startPosition,
		Queued:        len(posts),
	}, nil
}

// QueueOutput represents an account's queue with aggregate counts
type QueueOutput struct {
	Posts []entity.ScheduledPost
	Stats entity.QueueStats
}

// Queue retrieves an account's posts by ascending position plus status counts
func (s *Service) Queue(ctx context.Context, accountID string) (*QueueOutput, error) {
	posts, err := s.posts.ListByAccount(ctx, accountID)
	if err != nil {
		return nil, err
	}

	stats, err := s.posts.CountByStatus(ctx, accountID)
	if err != nil {
		return nil, err
	}

	return &QueueOutput{Posts: posts, Stats: *stats}, nil
}

// Delete removes one post scoped to its owner
func (s *Service) Delete(ctx context.Context, accountID, postID string) error {
	return s.posts.Delete(ctx, accountID, postID)
}

// CleanupPublished removes all of an account's published posts
func (s *Service) CleanupPublished(ctx context.Context, accountID string) (int64, error) {
	return s.posts.DeletePublished(ctx, accountID)
}

// NextDue returns the account's next processable post for the given day, or nil
func (s *Service) NextDue(ctx context.Context, accountID string, dayStart time.Time) (*entity.ScheduledPost, error) {
	return s.posts.NextDue(ctx, accountID, dayStart)
}

// RequeueErrors makes an account's failed posts eligible for the next pick
func (s *Service) RequeueErrors(ctx context.Context, accountID string) (int64, error) {
	return s.posts.RequeueErrors(ctx, accountID)
}

// MarkAttempt stamps the start of a processing attempt
func (s *Service) MarkAttempt(ctx context.Context, postID string, at time.Time) error {
	return s.posts.MarkAttempt(ctx, postID, at)
}

// SaveImages persists the extracted image URLs for resume
func (s *Service) SaveImages(ctx context.Context, postID string, urls []string) error {
	return s.posts.SaveImages(ctx, postID, urls)
}

// SaveContent persists the generated caption and short summary for resume
func (s *Service) SaveContent(ctx context.Context, postID, caption, summary string) error {
	return s.posts.SaveContent(ctx, postID, caption, summary)
}

// SaveMarketingImage persists the rendered composite URL for resume
func (s *Service) SaveMarketingImage(ctx context.Context, postID, url string) error {
	return s.posts.SaveMarketingImage(ctx, postID, url)
}

// MarkPublished records a successful publish
func (s *Service) MarkPublished(ctx context.Context, postID string, at time.Time) error {
	return s.posts.MarkPublished(ctx, postID, at)
}

// MarkFailed records a failed attempt without touching pipeline fields
func (s *Service) MarkFailed(ctx context.Context, postID, message string) error {
	return s.posts.MarkError(ctx, postID, message)
}
