package policy

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	accountentity "github.com/vadim/villapost/internal/domain/account/entity"
	"github.com/vadim/villapost/internal/domain/queue/entity"
	"github.com/vadim/villapost/internal/domain/queue/service"
)

// ProfileProvider supplies the accounts the sweep considers. Profiles are
// read-only from the queue core's perspective.
type ProfileProvider interface {
	GetByID(ctx context.Context, id string) (*accountentity.Profile, error)
	ListAutoPublish(ctx context.Context) ([]accountentity.Profile, error)
}

// Policy orchestrates queue use-cases and the scheduled publishing sweep
type Policy struct {
	svc      *service.Service
	profiles ProfileProvider

	fetcher    PageFetcher
	extractor  ImageExtractor
	generator  ContentGenerator
	compositor ImageCompositor
	publisher  SocialPublisher
	imageHost  ImageHost

	logger *slog.Logger
	now    func() time.Time

	// Per-account guards: the trigger may fire again before a slow pipeline
	// finishes, and overlapping sweeps for one account could double-publish.
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// New creates a new queue policy
func New(
	svc *service.Service,
	profiles ProfileProvider,
	fetcher PageFetcher,
	extractor ImageExtractor,
	generator ContentGenerator,
	compositor ImageCompositor,
	publisher SocialPublisher,
	imageHost ImageHost,
	logger *slog.Logger,
) *Policy {
	return &Policy{
		svc:        svc,
		profiles:   profiles,
		fetcher:    fetcher,
		extractor:  extractor,
		generator:  generator,
		compositor: compositor,
		publisher:  publisher,
		imageHost:  imageHost,
		logger:     logger,
		now:        time.Now,
		locks:      make(map[string]*sync.Mutex),
	}
}

// EnqueueInput represents input for enqueueing listing URLs
type EnqueueInput struct {
	AccountID string
	URLs      []string
}

// EnqueueOutput represents output from enqueueing
type EnqueueOutput struct {
	StartPosition int
	Queued        int
}

// Enqueue adds listing URLs to an account's queue, snapshotting the account's
// current publish time on each entry.
func (p *Policy) Enqueue(ctx context.Context, in EnqueueInput) (*EnqueueOutput, error) {
	if len(in.URLs) == 0 {
		return nil, entity.ErrNoURLs
	}

	profile, err := p.profiles.GetByID(ctx, in.AccountID)
	if err != nil {
		return nil, err
	}

	out, err := p.svc.Enqueue(ctx, service.EnqueueInput{
		AccountID:     in.AccountID,
		URLs:          in.URLs,
		ScheduledTime: profile.ScheduledTime,
	})
	if err != nil {
		return nil, err
	}

	return &EnqueueOutput{
		StartPosition: out.StartPosition,
		Queued:        out.Queued,
	}, nil
}

// QueueOutput represents an account's queue listing
type QueueOutput struct {
	Posts []entity.ScheduledPost
	Stats entity.QueueStats
}

// Queue retrieves an account's posts by position plus status counts
func (p *Policy) Queue(ctx context.Context, accountID string) (*QueueOutput, error) {
	out, err := p.svc.Queue(ctx, accountID)
	if err != nil {
		return nil, err
	}
	return &QueueOutput{Posts: out.Posts, Stats: out.Stats}, nil
}

// Delete removes one post scoped to its owner
func (p *Policy) Delete(ctx context.Context, accountID, postID string) error {
	return p.svc.Delete(ctx, accountID, postID)
}

// CleanupPublished removes all published posts for an account
func (p *Policy) CleanupPublished(ctx context.Context, accountID string) (int64, error) {
	return p.svc.CleanupPublished(ctx, accountID)
}

// AccountResult is the per-account outcome of one sweep
type AccountResult struct {
	AccountID string `json:"account_id"`
	PostID    string `json:"post_id,omitempty"`
	Position  int    `json:"position,omitempty"`
	URL       string `json:"url,omitempty"`
	Success   bool   `json:"success"`
	Skipped   bool   `json:"skipped,omitempty"`
	Error     string `json:"error,omitempty"`
}

// SweepOutput represents the outcome of one sweep over all eligible accounts
type SweepOutput struct {
	Processed int             `json:"processed"`
	Results   []AccountResult `json:"results"`
}

// ProcessDuePosts runs one sweep: for every auto-publish account whose local
// publish time has passed, process its next due entry through the pipeline.
// At most one entry per account per sweep; one account's failure never stops
// the others.
func (p *Policy) ProcessDuePosts(ctx context.Context) (*SweepOutput, error) {
	profiles, err := p.profiles.ListAutoPublish(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading auto-publish profiles: %w", err)
	}

	now := p.now()
	p.logger.Info("sweep started", "accounts", len(profiles), "at", now.Format(time.RFC3339))

	out := &SweepOutput{}
	for i := range profiles {
		profile := &profiles[i]

		result, processed := p.processAccount(ctx, profile, now)
		if result != nil {
			out.Results = append(out.Results, *result)
		}
		if processed {
			out.Processed++
		}
	}

	p.logger.Info("sweep finished", "processed", out.Processed, "results", len(out.Results))
	return out, nil
}

// processAccount handles one account within a sweep. The returned result is
// nil when the account was silently skipped (not due, queue exhausted); the
// bool reports whether a pipeline attempt ran.
func (p *Policy) processAccount(ctx context.Context, profile *accountentity.Profile, now time.Time) (*AccountResult, bool) {
	log := p.logger.With("account_id", profile.ID)

	if !profile.HasPageCredentials() {
		return &AccountResult{
			AccountID: profile.ID,
			Error:     entity.ErrMissingPageAccess.Error(),
		}, false
	}

	lock := p.accountLock(profile.ID)
	if !lock.TryLock() {
		log.Warn("previous sweep still running, skipping account")
		return &AccountResult{
			AccountID: profile.ID,
			Skipped:   true,
			Error:     entity.ErrSweepInProgress.Error(),
		}, false
	}
	defer lock.Unlock()

	// Zone rules are resolved every sweep so DST changes take effect
	loc, err := time.LoadLocation(profile.Timezone)
	if err != nil {
		log.Error("invalid timezone", "timezone", profile.Timezone, "error", err)
		return &AccountResult{AccountID: profile.ID, Error: fmt.Sprintf("invalid timezone: %v", err)}, false
	}

	due, err := dueAt(now, profile.ScheduledTime, loc)
	if err != nil {
		log.Error("invalid scheduled time", "scheduled_time", profile.ScheduledTime, "error", err)
		return &AccountResult{AccountID: profile.ID, Error: fmt.Sprintf("invalid scheduled time: %v", err)}, false
	}

	if !isDue(now, due) {
		log.Debug("not due yet", "due_at", due.Format(time.RFC3339))
		return nil, false
	}

	// Failed entries become eligible again before selection, so an error post
	// is retried on the next sweep and resumes from its first incomplete step.
	if n, err := p.svc.RequeueErrors(ctx, profile.ID); err != nil {
		log.Error("requeueing error posts", "error", err)
	} else if n > 0 {
		log.Info("requeued error posts", "count", n)
	}

	post, err := p.svc.NextDue(ctx, profile.ID, dayStart(now, loc))
	if err != nil {
		log.Error("selecting next due post", "error", err)
		return &AccountResult{AccountID: profile.ID, Error: err.Error()}, false
	}
	if post == nil {
		log.Debug("queue exhausted or already published today")
		return nil, false
	}

	log.Info("processing post", "post_id", post.ID, "position", post.Position, "url", post.URL)

	if err := p.svc.MarkAttempt(ctx, post.ID, now); err != nil {
		log.Error("marking attempt", "error", err)
		return &AccountResult{AccountID: profile.ID, PostID: post.ID, Error: err.Error()}, false
	}

	if err := p.processPost(ctx, post, profile); err != nil {
		log.Error("pipeline failed", "post_id", post.ID, "error", err)
		return &AccountResult{
			AccountID: profile.ID,
			PostID:    post.ID,
			Position:  post.Position,
			URL:       post.URL,
			Error:     err.Error(),
		}, true
	}

	log.Info("post published", "post_id", post.ID, "position", post.Position)
	return &AccountResult{
		AccountID: profile.ID,
		PostID:    post.ID,
		Position:  post.Position,
		URL:       post.URL,
		Success:   true,
	}, true
}

// accountLock returns the per-account mutex, creating it on first use
func (p *Policy) accountLock(accountID string) *sync.Mutex {
	p.mu.Lock()
	defer p.mu.Unlock()

	lock, ok := p.locks[accountID]
	if !ok {
		lock = &sync.Mutex{}
		p.locks[accountID] = lock
	}
	return lock
}
