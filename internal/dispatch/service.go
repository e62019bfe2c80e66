// Package dispatch runs the matching engine for the service: it loads inputs,
// solves, records the run and announces the outcome.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"ridematch/internal/events"
	"ridematch/internal/match"
	"ridematch/internal/metrics"
	"ridematch/internal/model"
	"ridematch/internal/store"
	"ridematch/internal/webhooks"
)

// Run sources.
const (
	SourceStore    = "store"
	SourceInline   = "inline"
	SourceSchedule = "schedule"
)

type Service struct {
	Store   store.Store
	Broker  events.Broker
	Pub     *webhooks.Publisher
	Timeout time.Duration

	now func() time.Time
}

func NewService(s store.Store, b events.Broker, pub *webhooks.Publisher, timeout time.Duration) *Service {
	return &Service{Store: s, Broker: b, Pub: pub, Timeout: timeout, now: time.Now}
}

// SolveStored matches available drivers to requested riders using every cost
// in the store.
func (s *Service) SolveStored(ctx context.Context, source string) (model.MatchResponse, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	drivers, err := s.Store.ListDrivers(ctx, true)
	if err != nil {
		return model.MatchResponse{}, fmt.Errorf("dispatch: load drivers: %w", err)
	}
	riders, err := s.Store.ListRiders(ctx, true)
	if err != nil {
		return model.MatchResponse{}, fmt.Errorf("dispatch: load riders: %w", err)
	}
	costs, err := s.Store.ListCosts(ctx)
	if err != nil {
		return model.MatchResponse{}, fmt.Errorf("dispatch: load costs: %w", err)
	}

	in := match.Input{
		Drivers: make([]match.Driver, len(drivers)),
		Riders:  make([]match.Rider, len(riders)),
		Costs:   toEdges(costs),
	}
	for i, d := range drivers {
		in.Drivers[i] = match.Driver{ID: d.ID, LocationID: d.LocationID}
	}
	for i, r := range riders {
		in.Riders[i] = match.Rider{ID: r.ID, PickupLocationID: r.PickupLocationID, DropLocationID: r.DropLocationID}
	}
	return s.solve(ctx, source, in)
}

// SolveInline matches the drivers, riders and costs carried by req without
// reading the store.
func (s *Service) SolveInline(ctx context.Context, req model.MatchRequest) (model.MatchResponse, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	in := match.Input{
		Drivers: make([]match.Driver, len(req.Drivers)),
		Riders:  make([]match.Rider, len(req.Riders)),
		Costs:   toEdges(req.Costs),
	}
	for i, d := range req.Drivers {
		in.Drivers[i] = match.Driver{ID: d.ID, LocationID: d.LocationID}
	}
	for i, r := range req.Riders {
		in.Riders[i] = match.Rider{ID: r.ID, PickupLocationID: r.PickupLocationID, DropLocationID: r.DropLocationID}
	}
	return s.solve(ctx, SourceInline, in)
}

func (s *Service) solve(ctx context.Context, source string, in match.Input) (model.MatchResponse, error) {
	if err := ctx.Err(); err != nil {
		return model.MatchResponse{}, err
	}

	start := s.now()
	res, err := match.Run(in)
	elapsed := s.now().Sub(start)
	metrics.MatchDuration.WithLabelValues(source).Observe(elapsed.Seconds())

	if err != nil {
		status := StatusOf(err)
		metrics.MatchRuns.WithLabelValues(source, status).Inc()
		ev := log.Warn()
		if status == model.StatusInternalError {
			ev = log.Error()
			s.announceFailure(ctx, source, err)
		}
		ev.Err(err).Str("source", source).Int("drivers", len(in.Drivers)).Int("riders", len(in.Riders)).Msg("match run rejected")
		return model.MatchResponse{}, err
	}
	if err := ctx.Err(); err != nil {
		return model.MatchResponse{}, fmt.Errorf("dispatch: solve exceeded deadline after %s: %w", elapsed, err)
	}

	resp := ToResponse(res)
	resp.RunID = uuid.New().String()
	run := model.MatchRun{
		ID:         resp.RunID,
		Source:     source,
		Status:     resp.Status,
		TotalCost:  resp.TotalCost,
		Matched:    len(resp.Matches),
		Drivers:    resp.DriversConsidered,
		Riders:     resp.RidersConsidered,
		DurationMs: elapsed.Milliseconds(),
		CreatedAt:  start.UTC(),
		Result:     resp,
	}

	metrics.MatchRuns.WithLabelValues(source, resp.Status).Inc()
	metrics.MatchProblemSize.Observe(float64(max(len(in.Drivers), len(in.Riders))))
	metrics.MatchedPairs.Add(float64(len(resp.Matches)))

	log.Info().
		Str("run_id", run.ID).
		Str("source", source).
		Int("drivers", run.Drivers).
		Int("riders", run.Riders).
		Int("matched", run.Matched).
		Int64("total_cost", run.TotalCost).
		Str("status", run.Status).
		Dur("duration", elapsed).
		Msg("match run completed")

	if err := s.Store.SaveMatchRun(ctx, run); err != nil {
		log.Error().Err(err).Str("run_id", run.ID).Msg("save match run")
	}
	s.announce(ctx, run)
	return resp, nil
}

func (s *Service) announce(ctx context.Context, run model.MatchRun) {
	data := map[string]any{
		"runId":     run.ID,
		"source":    run.Source,
		"status":    run.Status,
		"totalCost": run.TotalCost,
		"matched":   run.Matched,
		"drivers":   run.Drivers,
		"riders":    run.Riders,
	}
	if s.Broker != nil {
		evt := events.Event{ID: run.ID, Type: model.EventMatchCompleted, Data: data}
		if err := s.Broker.Publish(ctx, events.TopicMatching, evt); err != nil {
			log.Error().Err(err).Str("run_id", run.ID).Msg("publish match event")
		}
	}
	if s.Pub != nil {
		if _, err := s.Pub.Emit(ctx, model.EventMatchCompleted, run.ID, run.Result); err != nil {
			log.Error().Err(err).Str("run_id", run.ID).Msg("emit match webhook")
		}
	}
}

func (s *Service) announceFailure(ctx context.Context, source string, cause error) {
	id := uuid.New().String()
	// internal details stay in the log
	data := map[string]any{"source": source, "status": model.StatusInternalError}
	if s.Broker != nil {
		_ = s.Broker.Publish(ctx, events.TopicMatching, events.Event{ID: id, Type: model.EventMatchFailed, Data: data})
	}
	if s.Pub != nil {
		if _, err := s.Pub.Emit(ctx, model.EventMatchFailed, id, data); err != nil {
			log.Error().Err(err).AnErr("cause", cause).Msg("emit match failure webhook")
		}
	}
}

func (s *Service) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.Timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.Timeout)
}

// StatusOf maps an engine error to the status reported to clients.
func StatusOf(err error) string {
	switch {
	case err == nil:
		return model.StatusSuccess
	case errors.Is(err, match.ErrInvalidInput):
		return model.StatusInvalidInput
	case errors.Is(err, match.ErrNoFeasibleMatch):
		return model.StatusNoFeasibleMatch
	default:
		return model.StatusInternalError
	}
}

// ToResponse converts an engine result to its wire form.
func ToResponse(res match.Result) model.MatchResponse {
	out := model.MatchResponse{
		Matches:            make([]model.MatchOut, len(res.Matches)),
		TotalCost:          res.TotalCost,
		Status:             string(res.Status),
		Message:            res.Message,
		DriversConsidered:  res.DriversConsidered,
		RidersConsidered:   res.RidersConsidered,
		UnmatchedDriverIDs: res.UnmatchedDriverIDs,
		UnmatchedRiderIDs:  res.UnmatchedRiderIDs,
	}
	for i, a := range res.Matches {
		out.Matches[i] = model.MatchOut{
			DriverID:       a.Driver.ID,
			DriverLocation: a.Driver.LocationID,
			RiderID:        a.Rider.ID,
			PickupLocation: a.Rider.PickupLocationID,
			DropLocation:   a.Rider.DropLocationID,
			PickupCost:     a.PickupCost,
			TripCost:       a.TripCost,
			Cost:           a.Cost,
			Description:    a.Description,
		}
	}
	return out
}

func toEdges(costs []model.Cost) []match.CostEdge {
	out := make([]match.CostEdge, len(costs))
	for i, c := range costs {
		out[i] = match.CostEdge{From: c.FromLocation, To: c.ToLocation, Cost: c.Cost}
	}
	return out
}
