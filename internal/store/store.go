package store

import (
	"context"
	"errors"
	"time"

	"ridematch/internal/model"
)

// Store is the persistence interface used by the API server and the
// dispatch service.
type Store interface {
	// Drivers and riders
	UpsertDriver(ctx context.Context, in model.DriverIn) (model.Driver, error)
	ListDrivers(ctx context.Context, availableOnly bool) ([]model.Driver, error)
	UpsertRider(ctx context.Context, in model.RiderIn) (model.Rider, error)
	ListRiders(ctx context.Context, requestedOnly bool) ([]model.Rider, error)

	// Locations and directed costs
	UpsertLocation(ctx context.Context, loc model.Location) (model.Location, error)
	ListLocations(ctx context.Context) ([]model.Location, error)
	UpsertCosts(ctx context.Context, costs []model.Cost) (int, error)
	ListCosts(ctx context.Context) ([]model.Cost, error)

	// Match runs
	SaveMatchRun(ctx context.Context, run model.MatchRun) error
	GetMatchRun(ctx context.Context, id string) (model.MatchRun, error)
	ListMatchRuns(ctx context.Context, cursor string, limit int) ([]model.MatchRun, string, error)

	// Subscriptions
	CreateSubscription(ctx context.Context, req model.SubscriptionRequest) (model.Subscription, error)
	GetSubscriptionsForEvent(ctx context.Context, eventType string) ([]model.Subscription, error)
	ListSubscriptions(ctx context.Context, cursor string, limit int) ([]model.Subscription, string, error)
	DeleteSubscription(ctx context.Context, id string) error

	// Webhook deliveries
	EnqueueWebhook(ctx context.Context, subscriptionID, eventType, url, secret string, payload []byte) (string, error)
	FetchDueWebhookDeliveries(ctx context.Context, limit int) ([]WebhookDelivery, error)
	MarkWebhookDelivery(ctx context.Context, id string, success bool, nextAttemptAt *time.Time, lastError string, responseCode int, latencyMs int) error
	FailWebhookDelivery(ctx context.Context, id string, lastError string, responseCode int, latencyMs int) error
	ListWebhookDeliveries(ctx context.Context, status, cursor string, limit int) ([]model.WebhookDeliveryOut, string, error)
	RetryWebhookDelivery(ctx context.Context, id string) error
}

var ErrNotFound = errors.New("not found")

const (
	defaultLimit = 100
	maxLimit     = 500
)

func clampLimit(limit int) int {
	if limit <= 0 || limit > maxLimit {
		return defaultLimit
	}
	return limit
}
