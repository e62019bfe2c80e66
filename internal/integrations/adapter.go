// Package integrations loads matching data from external sources into the
// store.
package integrations

import (
	"context"

	"ridematch/internal/model"
)

// Feed is an external source of drivers, riders and cost edges.
type Feed interface {
	Name() string
	Fetch(ctx context.Context) (Batch, error)
}

// Batch is one pull from a Feed.
type Batch struct {
	Drivers   []model.DriverIn
	Riders    []model.RiderIn
	Locations []model.Location
	Costs     []model.Cost
}

// Empty reports whether the batch carries nothing.
func (b Batch) Empty() bool {
	return len(b.Drivers) == 0 && len(b.Riders) == 0 && len(b.Locations) == 0 && len(b.Costs) == 0
}

// ImportSummary counts what an import wrote.
type ImportSummary struct {
	Source    string `json:"source"`
	Drivers   int    `json:"drivers"`
	Riders    int    `json:"riders"`
	Locations int    `json:"locations"`
	Costs     int    `json:"costs"`
}

// Sink is the part of the store an import writes to.
type Sink interface {
	UpsertDriver(ctx context.Context, in model.DriverIn) (model.Driver, error)
	UpsertRider(ctx context.Context, in model.RiderIn) (model.Rider, error)
	UpsertLocation(ctx context.Context, loc model.Location) (model.Location, error)
	UpsertCosts(ctx context.Context, costs []model.Cost) (int, error)
}
