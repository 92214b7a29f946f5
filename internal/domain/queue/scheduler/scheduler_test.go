package scheduler

import (
	"context"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/vadim/villapost/internal/domain/queue/policy"
)

type countingProcessor struct {
	calls atomic.Int32
}

func (p *countingProcessor) ProcessDuePosts(ctx context.Context) (*policy.SweepOutput, error) {
	p.calls.Add(1)
	return &policy.SweepOutput{}, nil
}

func TestSchedulerRunsImmediatelyAndOnTick(t *testing.T) {
	proc := &countingProcessor{}
	s := New(proc, 20*time.Millisecond, slog.New(slog.NewTextHandler(io.Discard, nil)))

	s.Start(context.Background())
	time.Sleep(70 * time.Millisecond)
	s.Stop()

	// One immediate run plus at least one tick
	assert.GreaterOrEqual(t, proc.calls.Load(), int32(2))
}

func TestSchedulerStopIsIdempotent(t *testing.T) {
	proc := &countingProcessor{}
	s := New(proc, time.Hour, slog.New(slog.NewTextHandler(io.Discard, nil)))

	s.Start(context.Background())
	s.Stop()
	s.Stop() // must not panic or block

	calls := proc.calls.Load()
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, calls, proc.calls.Load())
}
