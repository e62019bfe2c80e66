package scheduler

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"ridematch/internal/dispatch"
	"ridematch/internal/match"
	"ridematch/internal/model"
)

type fakeSolver struct {
	calls  atomic.Int32
	source atomic.Value
	err    error
}

func (f *fakeSolver) SolveStored(ctx context.Context, source string) (model.MatchResponse, error) {
	f.calls.Add(1)
	f.source.Store(source)
	return model.MatchResponse{Status: model.StatusSuccess}, f.err
}

func TestNewAutoMatcherRejectsBadSpec(t *testing.T) {
	if _, err := NewAutoMatcher(&fakeSolver{}, "not a schedule", time.Second); err == nil {
		t.Fatal("expected error for invalid spec")
	}
}

func TestRunOnceUsesScheduleSource(t *testing.T) {
	f := &fakeSolver{err: match.ErrInvalidInput}
	a, err := NewAutoMatcher(f, "@every 1h", time.Second)
	if err != nil {
		t.Fatal(err)
	}
	a.RunOnce(context.Background())
	if f.calls.Load() != 1 || f.source.Load() != dispatch.SourceSchedule {
		t.Fatalf("calls=%d source=%v", f.calls.Load(), f.source.Load())
	}
}

func TestScheduleFires(t *testing.T) {
	f := &fakeSolver{}
	a, err := NewAutoMatcher(f, "@every 1s", time.Second)
	if err != nil {
		t.Fatal(err)
	}
	if err := a.Start(); err != nil {
		t.Fatal(err)
	}
	deadline := time.Now().Add(3 * time.Second)
	for f.calls.Load() == 0 && time.Now().Before(deadline) {
		time.Sleep(50 * time.Millisecond)
	}
	a.Stop()
	if f.calls.Load() == 0 {
		t.Fatal("schedule never fired")
	}
}
