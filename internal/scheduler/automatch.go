// Package scheduler runs store-backed matching on a cron schedule.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"

	"ridematch/internal/dispatch"
	"ridematch/internal/match"
	"ridematch/internal/model"
)

// Solver is the part of the dispatch service the scheduler needs.
type Solver interface {
	SolveStored(ctx context.Context, source string) (model.MatchResponse, error)
}

// AutoMatcher triggers a store-backed solve on every tick of a cron spec.
// Ticks never overlap; a tick that fires while a solve is running is skipped.
type AutoMatcher struct {
	cron    *cron.Cron
	solver  Solver
	spec    string
	timeout time.Duration
}

// NewAutoMatcher validates spec (standard five-field cron or a descriptor
// such as "@every 30s").
func NewAutoMatcher(solver Solver, spec string, timeout time.Duration) (*AutoMatcher, error) {
	if _, err := cron.ParseStandard(spec); err != nil {
		return nil, fmt.Errorf("scheduler: invalid AUTO_MATCH_SCHEDULE %q: %w", spec, err)
	}
	if timeout <= 0 {
		timeout = time.Minute
	}
	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
	return &AutoMatcher{cron: c, solver: solver, spec: spec, timeout: timeout}, nil
}

func (a *AutoMatcher) Start() error {
	if _, err := a.cron.AddFunc(a.spec, a.tick); err != nil {
		return err
	}
	a.cron.Start()
	log.Info().Str("schedule", a.spec).Msg("auto-match scheduler started")
	return nil
}

// Stop halts the schedule and waits for a running solve to finish.
func (a *AutoMatcher) Stop() {
	<-a.cron.Stop().Done()
	log.Info().Msg("auto-match scheduler stopped")
}

func (a *AutoMatcher) tick() {
	ctx, cancel := context.WithTimeout(context.Background(), a.timeout)
	defer cancel()
	a.RunOnce(ctx)
}

// RunOnce performs one scheduled solve. An empty store is normal between
// bursts of demand and is logged at debug level.
func (a *AutoMatcher) RunOnce(ctx context.Context) {
	resp, err := a.solver.SolveStored(ctx, dispatch.SourceSchedule)
	switch {
	case errors.Is(err, match.ErrInvalidInput):
		log.Debug().Err(err).Msg("auto-match skipped")
	case err != nil:
		log.Error().Err(err).Msg("auto-match failed")
	default:
		log.Info().Str("run_id", resp.RunID).Str("status", resp.Status).Int("matched", len(resp.Matches)).Msg("auto-match finished")
	}
}
