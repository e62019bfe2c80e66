package webhooks

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"ridematch/internal/store"
)

type Publisher struct {
	Store store.Store
}

func NewPublisher(s store.Store) *Publisher {
	return &Publisher{Store: s}
}

// Event is the JSON body posted to subscribers.
type Event struct {
	ID   string    `json:"id"`
	Type string    `json:"type"`
	TS   time.Time `json:"ts"`
	Data any       `json:"data"`
}

// Emit queues one delivery per subscription to eventType. eventID doubles as
// the dedup key, so emitting the same event twice delivers it once.
func (p *Publisher) Emit(ctx context.Context, eventType, eventID string, data any) (int, error) {
	subs, err := p.Store.GetSubscriptionsForEvent(ctx, eventType)
	if err != nil {
		return 0, fmt.Errorf("webhooks: subscriptions for %s: %w", eventType, err)
	}
	if len(subs) == 0 {
		return 0, nil
	}
	body, err := json.Marshal(Event{ID: eventID, Type: eventType, TS: time.Now().UTC(), Data: data})
	if err != nil {
		return 0, fmt.Errorf("webhooks: encode %s: %w", eventType, err)
	}
	queued := 0
	for _, s := range subs {
		if _, err := p.Store.EnqueueWebhook(ctx, s.ID, eventType, s.URL, s.Secret, body); err != nil {
			log.Error().Err(err).Str("subscription_id", s.ID).Str("event_type", eventType).Msg("enqueue webhook")
			continue
		}
		queued++
	}
	return queued, nil
}
