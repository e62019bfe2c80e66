// Package csvfeed reads drivers, riders, locations and costs from a CSV
// document with one record per line, keyed by the first column:
//
//	driver,<id>,<locationId>[,<available>]
//	rider,<id>,<pickupLocationId>,<dropLocationId>[,<requested>]
//	location,<id>,<name>
//	cost,<fromLocation>,<toLocation>,<cost>
//
// Blank lines and lines starting with '#' are skipped.
package csvfeed

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"ridematch/internal/integrations"
	"ridematch/internal/model"
)

// ErrMalformed wraps every parse failure.
var ErrMalformed = errors.New("csvfeed: malformed record")

// Feed parses a CSV document. It is single-use: Fetch consumes the reader.
type Feed struct {
	name string
	r    io.Reader
}

func New(name string, r io.Reader) *Feed { return &Feed{name: name, r: r} }

func (f *Feed) Name() string { return f.name }

func (f *Feed) Fetch(ctx context.Context) (integrations.Batch, error) {
	var b integrations.Batch
	cr := csv.NewReader(f.r)
	cr.FieldsPerRecord = -1
	cr.Comment = '#'
	cr.TrimLeadingSpace = true

	for {
		if err := ctx.Err(); err != nil {
			return b, err
		}
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return b, nil
		}
		if err != nil {
			return b, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		if len(rec) == 0 || (len(rec) == 1 && strings.TrimSpace(rec[0]) == "") {
			continue
		}
		if err := parseRecord(&b, rec); err != nil {
			line, _ := cr.FieldPos(0)
			return b, fmt.Errorf("%w: line %d: %v", ErrMalformed, line, err)
		}
	}
}

func parseRecord(b *integrations.Batch, rec []string) error {
	kind := strings.ToLower(strings.TrimSpace(rec[0]))
	switch kind {
	case "driver":
		n, err := ints(rec, 3, 4, 2)
		if err != nil {
			return err
		}
		if n[0] <= 0 || n[1] < 0 {
			return errors.New("driver id must be positive and location non-negative")
		}
		d := model.DriverIn{ID: n[0], LocationID: n[1]}
		if len(rec) == 4 {
			v, err := strconv.ParseBool(strings.TrimSpace(rec[3]))
			if err != nil {
				return fmt.Errorf("driver available: %v", err)
			}
			d.Available = &v
		}
		b.Drivers = append(b.Drivers, d)
	case "rider":
		n, err := ints(rec, 4, 5, 3)
		if err != nil {
			return err
		}
		if n[0] <= 0 || n[1] < 0 || n[2] < 0 {
			return errors.New("rider id must be positive and locations non-negative")
		}
		r := model.RiderIn{ID: n[0], PickupLocationID: n[1], DropLocationID: n[2]}
		if len(rec) == 5 {
			v, err := strconv.ParseBool(strings.TrimSpace(rec[4]))
			if err != nil {
				return fmt.Errorf("rider requested: %v", err)
			}
			r.Requested = &v
		}
		b.Riders = append(b.Riders, r)
	case "location":
		if len(rec) != 3 {
			return fmt.Errorf("location wants 3 fields, got %d", len(rec))
		}
		n, err := ints(rec[:2], 2, 2, 1)
		if err != nil {
			return err
		}
		b.Locations = append(b.Locations, model.Location{ID: n[0], Name: strings.TrimSpace(rec[2])})
	case "cost":
		n, err := ints(rec, 4, 4, 3)
		if err != nil {
			return err
		}
		b.Costs = append(b.Costs, model.Cost{FromLocation: n[0], ToLocation: n[1], Cost: n[2]})
	default:
		return fmt.Errorf("unknown record type %q", rec[0])
	}
	return nil
}

// ints checks the field count is within [minFields, maxFields] and parses the
// count integers following the record type.
func ints(rec []string, minFields, maxFields, count int) ([]int64, error) {
	if len(rec) < minFields || len(rec) > maxFields {
		return nil, fmt.Errorf("%s wants %d-%d fields, got %d", rec[0], minFields, maxFields, len(rec))
	}
	out := make([]int64, count)
	for i := range count {
		v, err := strconv.ParseInt(strings.TrimSpace(rec[i+1]), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("field %d: %v", i+2, err)
		}
		out[i] = v
	}
	return out, nil
}
