package store

import (
	"cmp"
	"context"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"ridematch/internal/model"
)

// Memory is a simple in-memory store used when no DATABASE_URL is set.
type Memory struct {
	mu         sync.Mutex
	drivers    map[int64]model.Driver
	riders     map[int64]model.Rider
	locations  map[int64]model.Location
	costs      map[[2]int64]int64
	runs       []model.MatchRun // oldest first
	subs       []model.Subscription
	deliveries map[string]*memDelivery
	order      []string // delivery ids in enqueue order
	dlq        []memDelivery
}

func NewMemory() *Memory {
	return &Memory{
		drivers:    map[int64]model.Driver{},
		riders:     map[int64]model.Rider{},
		locations:  map[int64]model.Location{},
		costs:      map[[2]int64]int64{},
		deliveries: map[string]*memDelivery{},
	}
}

// memDelivery augments WebhookDelivery with scheduling state
type memDelivery struct {
	WebhookDelivery
	NextAttemptAt time.Time
	LastError     string
	ResponseCode  int
	LatencyMs     int
	DeliveredAt   *time.Time
}

func (m *Memory) UpsertDriver(ctx context.Context, in model.DriverIn) (model.Driver, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d := model.Driver{ID: in.ID, LocationID: in.LocationID, Available: true, UpdatedAt: time.Now().UTC()}
	if in.Available != nil {
		d.Available = *in.Available
	}
	m.drivers[d.ID] = d
	return d, nil
}

func (m *Memory) ListDrivers(ctx context.Context, availableOnly bool) ([]model.Driver, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []model.Driver{}
	for _, d := range m.drivers {
		if availableOnly && !d.Available {
			continue
		}
		out = append(out, d)
	}
	slices.SortFunc(out, func(a, b model.Driver) int { return cmp.Compare(a.ID, b.ID) })
	return out, nil
}

func (m *Memory) UpsertRider(ctx context.Context, in model.RiderIn) (model.Rider, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r := model.Rider{ID: in.ID, PickupLocationID: in.PickupLocationID, DropLocationID: in.DropLocationID, Requested: true, UpdatedAt: time.Now().UTC()}
	if in.Requested != nil {
		r.Requested = *in.Requested
	}
	m.riders[r.ID] = r
	return r, nil
}

func (m *Memory) ListRiders(ctx context.Context, requestedOnly bool) ([]model.Rider, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []model.Rider{}
	for _, r := range m.riders {
		if requestedOnly && !r.Requested {
			continue
		}
		out = append(out, r)
	}
	slices.SortFunc(out, func(a, b model.Rider) int { return cmp.Compare(a.ID, b.ID) })
	return out, nil
}

func (m *Memory) UpsertLocation(ctx context.Context, loc model.Location) (model.Location, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.locations[loc.ID] = loc
	return loc, nil
}

func (m *Memory) ListLocations(ctx context.Context) ([]model.Location, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]model.Location, 0, len(m.locations))
	for _, l := range m.locations {
		out = append(out, l)
	}
	slices.SortFunc(out, func(a, b model.Location) int { return cmp.Compare(a.ID, b.ID) })
	return out, nil
}

// UpsertCosts stores costs in order; a later cost for the same pair wins.
func (m *Memory) UpsertCosts(ctx context.Context, costs []model.Cost) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range costs {
		m.costs[[2]int64{c.FromLocation, c.ToLocation}] = c.Cost
	}
	return len(costs), nil
}

func (m *Memory) ListCosts(ctx context.Context) ([]model.Cost, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]model.Cost, 0, len(m.costs))
	for k, v := range m.costs {
		out = append(out, model.Cost{FromLocation: k[0], ToLocation: k[1], Cost: v})
	}
	slices.SortFunc(out, func(a, b model.Cost) int {
		if c := cmp.Compare(a.FromLocation, b.FromLocation); c != 0 {
			return c
		}
		return cmp.Compare(a.ToLocation, b.ToLocation)
	})
	return out, nil
}

func (m *Memory) SaveMatchRun(ctx context.Context, run model.MatchRun) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.runs = append(m.runs, run)
	return nil
}

func (m *Memory) GetMatchRun(ctx context.Context, id string) (model.MatchRun, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.runs {
		if r.ID == id {
			return r, nil
		}
	}
	return model.MatchRun{}, ErrNotFound
}

// ListMatchRuns returns runs newest first. The cursor is the id of the last
// run of the previous page.
func (m *Memory) ListMatchRuns(ctx context.Context, cursor string, limit int) ([]model.MatchRun, string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	limit = clampLimit(limit)
	start := len(m.runs) - 1
	if cursor != "" {
		for i := len(m.runs) - 1; i >= 0; i-- {
			if m.runs[i].ID == cursor {
				start = i - 1
				break
			}
		}
	}
	out := []model.MatchRun{}
	for i := start; i >= 0 && len(out) < limit; i-- {
		out = append(out, m.runs[i])
	}
	next := ""
	if len(out) == limit && start-limit >= 0 {
		next = out[len(out)-1].ID
	}
	return out, next, nil
}

func (m *Memory) CreateSubscription(ctx context.Context, req model.SubscriptionRequest) (model.Subscription, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := model.Subscription{ID: uuid.New().String(), URL: req.URL, Events: req.Events, Secret: req.Secret}
	m.subs = append(m.subs, s)
	return s, nil
}

func (m *Memory) GetSubscriptionsForEvent(ctx context.Context, eventType string) ([]model.Subscription, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Subscription
	for _, s := range m.subs {
		if slices.Contains(s.Events, eventType) {
			out = append(out, s)
		}
	}
	return out, nil
}

func (m *Memory) ListSubscriptions(ctx context.Context, cursor string, limit int) ([]model.Subscription, string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	limit = clampLimit(limit)
	start := 0
	if cursor != "" {
		for i := range m.subs {
			if m.subs[i].ID == cursor {
				start = i + 1
				break
			}
		}
	}
	end := min(start+limit, len(m.subs))
	items := append([]model.Subscription{}, m.subs[start:end]...)
	next := ""
	if end < len(m.subs) {
		next = m.subs[end-1].ID
	}
	return items, next, nil
}

func (m *Memory) DeleteSubscription(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := len(m.subs)
	m.subs = slices.DeleteFunc(m.subs, func(s model.Subscription) bool { return s.ID == id })
	if len(m.subs) == n {
		return ErrNotFound
	}
	return nil
}

func (m *Memory) EnqueueWebhook(ctx context.Context, subscriptionID, eventType, url, secret string, payload []byte) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := uuid.New().String()
	m.deliveries[id] = &memDelivery{
		WebhookDelivery: WebhookDelivery{ID: id, SubscriptionID: subscriptionID, EventType: eventType, URL: url, Secret: secret, Payload: payload, Status: DeliveryPending},
		NextAttemptAt:   time.Now(),
	}
	m.order = append(m.order, id)
	return id, nil
}

func (m *Memory) FetchDueWebhookDeliveries(ctx context.Context, limit int) ([]WebhookDelivery, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now()
	out := []WebhookDelivery{}
	for _, id := range m.order {
		d := m.deliveries[id]
		if (d.Status == DeliveryPending || d.Status == DeliveryRetry) && !d.NextAttemptAt.After(now) {
			out = append(out, d.WebhookDelivery)
			if limit > 0 && len(out) >= limit {
				break
			}
		}
	}
	return out, nil
}

func (m *Memory) MarkWebhookDelivery(ctx context.Context, id string, success bool, nextAttemptAt *time.Time, lastError string, responseCode int, latencyMs int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	d := m.deliveries[id]
	if d == nil {
		return ErrNotFound
	}
	d.Attempts++
	d.ResponseCode = responseCode
	d.LatencyMs = latencyMs
	if success {
		d.Status = DeliveryDelivered
		now := time.Now()
		d.DeliveredAt = &now
		return nil
	}
	d.Status = DeliveryRetry
	d.LastError = lastError
	if nextAttemptAt != nil {
		d.NextAttemptAt = *nextAttemptAt
	} else {
		d.NextAttemptAt = time.Now().Add(time.Minute)
	}
	return nil
}

func (m *Memory) FailWebhookDelivery(ctx context.Context, id string, lastError string, responseCode int, latencyMs int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	d := m.deliveries[id]
	if d == nil {
		return ErrNotFound
	}
	d.Attempts++
	d.Status = DeliveryFailed
	d.LastError = lastError
	d.ResponseCode = responseCode
	d.LatencyMs = latencyMs
	m.dlq = append(m.dlq, *d)
	return nil
}

func (m *Memory) ListWebhookDeliveries(ctx context.Context, status, cursor string, limit int) ([]model.WebhookDeliveryOut, string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	limit = clampLimit(limit)
	out := []model.WebhookDeliveryOut{}
	skipping := cursor != ""
	next := ""
	for _, id := range m.order {
		if skipping {
			skipping = id != cursor
			continue
		}
		d := m.deliveries[id]
		if status != "" && d.Status != status {
			continue
		}
		if len(out) == limit {
			next = out[len(out)-1].ID
			break
		}
		out = append(out, deliveryOut(d))
	}
	return out, next, nil
}

func (m *Memory) RetryWebhookDelivery(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	d := m.deliveries[id]
	if d == nil {
		return ErrNotFound
	}
	d.Status = DeliveryPending
	d.NextAttemptAt = time.Now()
	return nil
}

func deliveryOut(d *memDelivery) model.WebhookDeliveryOut {
	o := model.WebhookDeliveryOut{
		ID:           d.ID,
		EventType:    d.EventType,
		Status:       d.Status,
		Attempts:     d.Attempts,
		URL:          d.URL,
		LastError:    d.LastError,
		ResponseCode: d.ResponseCode,
	}
	if d.Status == DeliveryPending || d.Status == DeliveryRetry {
		t := d.NextAttemptAt
		o.NextAttemptAt = &t
	}
	return o
}
