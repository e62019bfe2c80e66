package integrations

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
)

// Import pulls one batch from feed and writes it to sink. Costs are written
// in feed order, so a later edge for the same pair wins.
func Import(ctx context.Context, feed Feed, sink Sink) (ImportSummary, error) {
	sum := ImportSummary{Source: feed.Name()}
	b, err := feed.Fetch(ctx)
	if err != nil {
		return sum, fmt.Errorf("integrations: fetch %s: %w", feed.Name(), err)
	}
	for _, l := range b.Locations {
		if _, err := sink.UpsertLocation(ctx, l); err != nil {
			return sum, fmt.Errorf("integrations: location %d: %w", l.ID, err)
		}
		sum.Locations++
	}
	for _, d := range b.Drivers {
		if _, err := sink.UpsertDriver(ctx, d); err != nil {
			return sum, fmt.Errorf("integrations: driver %d: %w", d.ID, err)
		}
		sum.Drivers++
	}
	for _, r := range b.Riders {
		if _, err := sink.UpsertRider(ctx, r); err != nil {
			return sum, fmt.Errorf("integrations: rider %d: %w", r.ID, err)
		}
		sum.Riders++
	}
	if len(b.Costs) > 0 {
		n, err := sink.UpsertCosts(ctx, b.Costs)
		if err != nil {
			return sum, fmt.Errorf("integrations: costs: %w", err)
		}
		sum.Costs = n
	}
	log.Info().
		Str("source", sum.Source).
		Int("drivers", sum.Drivers).
		Int("riders", sum.Riders).
		Int("locations", sum.Locations).
		Int("costs", sum.Costs).
		Msg("import finished")
	return sum, nil
}
