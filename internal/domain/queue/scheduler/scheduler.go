package scheduler

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/vadim/villapost/internal/domain/queue/policy"
)

// DuePostProcessor defines the interface for running one publishing sweep
type DuePostProcessor interface {
	ProcessDuePosts(ctx context.Context) (*policy.SweepOutput, error)
}

// Scheduler triggers the publishing sweep on a fixed interval. It is an
// optional in-process alternative to an external cron hitting the trigger
// endpoint; both paths run the same sweep.
type Scheduler struct {
	processor DuePostProcessor
	interval  time.Duration
	logger    *slog.Logger
	stopCh    chan struct{}
	wg        sync.WaitGroup
	running   bool
	mu        sync.Mutex
}

// New creates a new scheduler
func New(processor DuePostProcessor, interval time.Duration, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		processor: processor,
		interval:  interval,
		logger:    logger,
		stopCh:    make(chan struct{}),
	}
}

// Start starts the scheduler
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return
	}
	s.running = true
	s.mu.Unlock()

	s.logger.Info("publish scheduler started", "interval", s.interval)

	s.wg.Add(1)
	go s.run(ctx)
}

// Stop stops the scheduler
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	s.mu.Unlock()

	close(s.stopCh)
	s.wg.Wait()
	s.logger.Info("publish scheduler stopped")
}

// run is the main scheduler loop
func (s *Scheduler) run(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	// Run immediately on start
	s.sweep(ctx)

	for {
		select {
		case <-ticker.C:
			s.sweep(ctx)
		case <-s.stopCh:
			return
		case <-ctx.Done():
			return
		}
	}
}

// sweep runs one pass over all eligible accounts
func (s *Scheduler) sweep(ctx context.Context) {
	out, err := s.processor.ProcessDuePosts(ctx)
	if err != nil {
		s.logger.Error("scheduled sweep failed", "error", err)
		return
	}
	if out.Processed > 0 {
		s.logger.Info("scheduled sweep done", "processed", out.Processed)
	}
}
