package dispatch

import (
	"context"
	"errors"
	"testing"
	"time"

	"ridematch/internal/events"
	"ridematch/internal/match"
	"ridematch/internal/model"
	"ridematch/internal/store"
	"ridematch/internal/webhooks"
)

func newTestService(t *testing.T) (*Service, *store.Memory, *events.Memory) {
	t.Helper()
	st := store.NewMemory()
	b := events.NewMemory()
	return NewService(st, b, webhooks.NewPublisher(st), time.Second), st, b
}

func seed(t *testing.T, st *store.Memory) {
	t.Helper()
	ctx := context.Background()
	off := false
	for _, d := range []model.DriverIn{{ID: 1, LocationID: 10}, {ID: 2, LocationID: 11}, {ID: 3, LocationID: 12, Available: &off}} {
		if _, err := st.UpsertDriver(ctx, d); err != nil {
			t.Fatal(err)
		}
	}
	if _, err := st.UpsertRider(ctx, model.RiderIn{ID: 7, PickupLocationID: 20, DropLocationID: 30}); err != nil {
		t.Fatal(err)
	}
	_, err := st.UpsertCosts(ctx, []model.Cost{
		{FromLocation: 10, ToLocation: 20, Cost: 9},
		{FromLocation: 11, ToLocation: 20, Cost: 3},
		{FromLocation: 12, ToLocation: 20, Cost: 1}, // unavailable driver
		{FromLocation: 20, ToLocation: 30, Cost: 4},
	})
	if err != nil {
		t.Fatal(err)
	}
}

func TestSolveStored(t *testing.T) {
	svc, st, b := newTestService(t)
	seed(t, st)
	ctx := context.Background()
	_, _ = st.CreateSubscription(ctx, model.SubscriptionRequest{URL: "http://hook", Events: []string{model.EventMatchCompleted}})
	ch := b.Subscribe(events.TopicMatching)
	defer b.Unsubscribe(events.TopicMatching, ch)

	resp, err := svc.SolveStored(ctx, SourceStore)
	if err != nil {
		t.Fatalf("SolveStored: %v", err)
	}
	if resp.Status != model.StatusSuccess || len(resp.Matches) != 1 {
		t.Fatalf("unexpected response %+v", resp)
	}
	if m := resp.Matches[0]; m.DriverID != 2 || m.Cost != 7 || m.PickupCost != 3 || m.TripCost != 4 {
		t.Fatalf("unexpected match %+v", m)
	}
	if resp.DriversConsidered != 2 {
		t.Fatalf("unavailable driver should not be considered, got %d", resp.DriversConsidered)
	}

	run, err := st.GetMatchRun(ctx, resp.RunID)
	if err != nil || run.TotalCost != 7 || run.Source != SourceStore {
		t.Fatalf("run not recorded: %+v %v", run, err)
	}

	select {
	case evt := <-ch:
		if evt.Type != model.EventMatchCompleted || evt.ID != resp.RunID {
			t.Fatalf("unexpected event %+v", evt)
		}
	case <-time.After(time.Second):
		t.Fatal("no match event published")
	}

	due, _ := st.FetchDueWebhookDeliveries(ctx, 10)
	if len(due) != 1 || due[0].EventType != model.EventMatchCompleted {
		t.Fatalf("expected one queued webhook, got %+v", due)
	}
}

func TestSolveStoredEmptyStore(t *testing.T) {
	svc, _, _ := newTestService(t)
	_, err := svc.SolveStored(context.Background(), SourceStore)
	if !errors.Is(err, match.ErrInvalidInput) {
		t.Fatalf("want ErrInvalidInput, got %v", err)
	}
	if StatusOf(err) != model.StatusInvalidInput {
		t.Fatalf("want INVALID_INPUT, got %s", StatusOf(err))
	}
}

func TestSolveInlineNoFeasibleMatch(t *testing.T) {
	svc, st, _ := newTestService(t)
	resp, err := svc.SolveInline(context.Background(), model.MatchRequest{
		Drivers: []model.DriverIn{{ID: 1, LocationID: 10}},
		Riders:  []model.RiderIn{{ID: 1, PickupLocationID: 20, DropLocationID: 30}},
		Costs:   []model.Cost{{FromLocation: 20, ToLocation: 30, Cost: 7}},
	})
	if err != nil {
		t.Fatalf("SolveInline: %v", err)
	}
	if resp.Status != model.StatusNoFeasibleMatch || len(resp.Matches) != 0 || resp.TotalCost != 0 {
		t.Fatalf("unexpected response %+v", resp)
	}
	runs, _, _ := st.ListMatchRuns(context.Background(), "", 10)
	if len(runs) != 1 || runs[0].Status != model.StatusNoFeasibleMatch || runs[0].Source != SourceInline {
		t.Fatalf("unexpected runs %+v", runs)
	}
}

func TestSolveCancelledContext(t *testing.T) {
	svc, st, _ := newTestService(t)
	seed(t, st)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := svc.SolveStored(ctx, SourceStore); err == nil {
		t.Fatal("expected error for cancelled context")
	}
}

func TestStatusOf(t *testing.T) {
	cases := map[error]string{
		nil:                      model.StatusSuccess,
		match.ErrInvalidInput:    model.StatusInvalidInput,
		match.ErrNoFeasibleMatch: model.StatusNoFeasibleMatch,
		match.ErrInternal:        model.StatusInternalError,
		errors.New("db down"):    model.StatusInternalError,
	}
	for err, want := range cases {
		if got := StatusOf(err); got != want {
			t.Fatalf("StatusOf(%v) = %s, want %s", err, got, want)
		}
	}
}
