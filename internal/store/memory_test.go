package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"ridematch/internal/model"
)

func TestMemoryDriversAndRiders(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	off := false

	for _, in := range []model.DriverIn{{ID: 3, LocationID: 30}, {ID: 1, LocationID: 10}, {ID: 2, LocationID: 20, Available: &off}} {
		if _, err := m.UpsertDriver(ctx, in); err != nil {
			t.Fatalf("UpsertDriver: %v", err)
		}
	}
	all, _ := m.ListDrivers(ctx, false)
	if len(all) != 3 || all[0].ID != 1 || all[2].ID != 3 {
		t.Fatalf("want drivers sorted by id, got %+v", all)
	}
	avail, _ := m.ListDrivers(ctx, true)
	if len(avail) != 2 {
		t.Fatalf("want 2 available drivers, got %d", len(avail))
	}

	// replace moves the driver
	if _, err := m.UpsertDriver(ctx, model.DriverIn{ID: 1, LocationID: 11}); err != nil {
		t.Fatal(err)
	}
	all, _ = m.ListDrivers(ctx, false)
	if all[0].LocationID != 11 {
		t.Fatalf("want location 11, got %d", all[0].LocationID)
	}

	if _, err := m.UpsertRider(ctx, model.RiderIn{ID: 5, PickupLocationID: 20, DropLocationID: 30, Requested: &off}); err != nil {
		t.Fatal(err)
	}
	if _, err := m.UpsertRider(ctx, model.RiderIn{ID: 4, PickupLocationID: 21, DropLocationID: 31}); err != nil {
		t.Fatal(err)
	}
	req, _ := m.ListRiders(ctx, true)
	if len(req) != 1 || req[0].ID != 4 || !req[0].Requested {
		t.Fatalf("want only rider 4 requested, got %+v", req)
	}
}

func TestMemoryCostsLastWins(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	n, err := m.UpsertCosts(ctx, []model.Cost{
		{FromLocation: 2, ToLocation: 1, Cost: 9},
		{FromLocation: 1, ToLocation: 2, Cost: 5},
		{FromLocation: 1, ToLocation: 2, Cost: 7},
	})
	if err != nil || n != 3 {
		t.Fatalf("UpsertCosts: n=%d err=%v", n, err)
	}
	costs, _ := m.ListCosts(ctx)
	if len(costs) != 2 {
		t.Fatalf("want 2 distinct pairs, got %d", len(costs))
	}
	if costs[0] != (model.Cost{FromLocation: 1, ToLocation: 2, Cost: 7}) {
		t.Fatalf("unexpected first cost %+v", costs[0])
	}
}

func TestMemoryMatchRunsNewestFirst(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	for _, id := range []string{"a", "b", "c"} {
		if err := m.SaveMatchRun(ctx, model.MatchRun{ID: id, CreatedAt: time.Now()}); err != nil {
			t.Fatal(err)
		}
	}
	page, next, _ := m.ListMatchRuns(ctx, "", 2)
	if len(page) != 2 || page[0].ID != "c" || page[1].ID != "b" || next != "b" {
		t.Fatalf("first page: %+v next=%q", page, next)
	}
	page, next, _ = m.ListMatchRuns(ctx, next, 2)
	if len(page) != 1 || page[0].ID != "a" || next != "" {
		t.Fatalf("second page: %+v next=%q", page, next)
	}
	if _, err := m.GetMatchRun(ctx, "zzz"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
}

func TestMemorySubscriptions(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	s, _ := m.CreateSubscription(ctx, model.SubscriptionRequest{URL: "http://x", Events: []string{model.EventMatchCompleted}})
	_, _ = m.CreateSubscription(ctx, model.SubscriptionRequest{URL: "http://y", Events: []string{model.EventMatchFailed}})

	subs, _ := m.GetSubscriptionsForEvent(ctx, model.EventMatchCompleted)
	if len(subs) != 1 || subs[0].ID != s.ID {
		t.Fatalf("unexpected subs %+v", subs)
	}
	if err := m.DeleteSubscription(ctx, s.ID); err != nil {
		t.Fatal(err)
	}
	if err := m.DeleteSubscription(ctx, s.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("want ErrNotFound on second delete, got %v", err)
	}
}

func TestMemoryWebhookLifecycle(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	id, _ := m.EnqueueWebhook(ctx, "sub", model.EventMatchCompleted, "http://x", "s", []byte(`{}`))

	due, _ := m.FetchDueWebhookDeliveries(ctx, 10)
	if len(due) != 1 || due[0].ID != id {
		t.Fatalf("want 1 due delivery, got %+v", due)
	}

	later := time.Now().Add(time.Hour)
	if err := m.MarkWebhookDelivery(ctx, id, false, &later, "boom", 500, 3); err != nil {
		t.Fatal(err)
	}
	if due, _ = m.FetchDueWebhookDeliveries(ctx, 10); len(due) != 0 {
		t.Fatalf("retry scheduled in the future should not be due")
	}
	if err := m.RetryWebhookDelivery(ctx, id); err != nil {
		t.Fatal(err)
	}
	if due, _ = m.FetchDueWebhookDeliveries(ctx, 10); len(due) != 1 {
		t.Fatalf("manual retry should make delivery due")
	}
	if err := m.FailWebhookDelivery(ctx, id, "gone", 410, 1); err != nil {
		t.Fatal(err)
	}
	list, _, _ := m.ListWebhookDeliveries(ctx, DeliveryFailed, "", 10)
	if len(list) != 1 || list[0].Attempts != 2 || list[0].NextAttemptAt != nil {
		t.Fatalf("unexpected failed list %+v", list)
	}
}
