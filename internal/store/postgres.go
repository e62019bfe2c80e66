package store

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"

	"ridematch/internal/model"
)

type Postgres struct {
	db *sql.DB
}

func NewPostgres(dsn string) (*Postgres, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Postgres{db: db}, nil
}

func (p *Postgres) Ping(ctx context.Context) error { return p.db.PingContext(ctx) }

func (p *Postgres) Close() error { return p.db.Close() }

func (p *Postgres) UpsertDriver(ctx context.Context, in model.DriverIn) (model.Driver, error) {
	available := in.Available == nil || *in.Available
	var d model.Driver
	err := p.db.QueryRowContext(ctx, `INSERT INTO drivers (id, location_id, available, updated_at) VALUES ($1,$2,$3,now())
        ON CONFLICT (id) DO UPDATE SET location_id=EXCLUDED.location_id, available=EXCLUDED.available, updated_at=now()
        RETURNING id, location_id, available, updated_at`, in.ID, in.LocationID, available).
		Scan(&d.ID, &d.LocationID, &d.Available, &d.UpdatedAt)
	if err != nil {
		return model.Driver{}, fmt.Errorf("upsert driver %d: %w", in.ID, err)
	}
	return d, nil
}

func (p *Postgres) ListDrivers(ctx context.Context, availableOnly bool) ([]model.Driver, error) {
	rows, err := p.db.QueryContext(ctx, `SELECT id, location_id, available, updated_at FROM drivers WHERE available OR NOT $1 ORDER BY id`, availableOnly)
	if err != nil {
		return nil, fmt.Errorf("list drivers: %w", err)
	}
	defer rows.Close()
	out := []model.Driver{}
	for rows.Next() {
		var d model.Driver
		if err := rows.Scan(&d.ID, &d.LocationID, &d.Available, &d.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (p *Postgres) UpsertRider(ctx context.Context, in model.RiderIn) (model.Rider, error) {
	requested := in.Requested == nil || *in.Requested
	var r model.Rider
	err := p.db.QueryRowContext(ctx, `INSERT INTO riders (id, pickup_location_id, drop_location_id, requested, updated_at) VALUES ($1,$2,$3,$4,now())
        ON CONFLICT (id) DO UPDATE SET pickup_location_id=EXCLUDED.pickup_location_id, drop_location_id=EXCLUDED.drop_location_id,
            requested=EXCLUDED.requested, updated_at=now()
        RETURNING id, pickup_location_id, drop_location_id, requested, updated_at`, in.ID, in.PickupLocationID, in.DropLocationID, requested).
		Scan(&r.ID, &r.PickupLocationID, &r.DropLocationID, &r.Requested, &r.UpdatedAt)
	if err != nil {
		return model.Rider{}, fmt.Errorf("upsert rider %d: %w", in.ID, err)
	}
	return r, nil
}

func (p *Postgres) ListRiders(ctx context.Context, requestedOnly bool) ([]model.Rider, error) {
	rows, err := p.db.QueryContext(ctx, `SELECT id, pickup_location_id, drop_location_id, requested, updated_at FROM riders WHERE requested OR NOT $1 ORDER BY id`, requestedOnly)
	if err != nil {
		return nil, fmt.Errorf("list riders: %w", err)
	}
	defer rows.Close()
	out := []model.Rider{}
	for rows.Next() {
		var r model.Rider
		if err := rows.Scan(&r.ID, &r.PickupLocationID, &r.DropLocationID, &r.Requested, &r.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (p *Postgres) UpsertLocation(ctx context.Context, loc model.Location) (model.Location, error) {
	_, err := p.db.ExecContext(ctx, `INSERT INTO locations (id, name) VALUES ($1,$2) ON CONFLICT (id) DO UPDATE SET name=EXCLUDED.name`, loc.ID, loc.Name)
	if err != nil {
		return model.Location{}, fmt.Errorf("upsert location %d: %w", loc.ID, err)
	}
	return loc, nil
}

func (p *Postgres) ListLocations(ctx context.Context) ([]model.Location, error) {
	rows, err := p.db.QueryContext(ctx, `SELECT id, name FROM locations ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list locations: %w", err)
	}
	defer rows.Close()
	out := []model.Location{}
	for rows.Next() {
		var l model.Location
		if err := rows.Scan(&l.ID, &l.Name); err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

// UpsertCosts writes costs in order inside one transaction, so a later cost
// for the same pair wins.
func (p *Postgres) UpsertCosts(ctx context.Context, costs []model.Cost) (int, error) {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO costs (from_location, to_location, cost) VALUES ($1,$2,$3)
        ON CONFLICT (from_location, to_location) DO UPDATE SET cost=EXCLUDED.cost`)
	if err != nil {
		return 0, err
	}
	defer stmt.Close()
	for _, c := range costs {
		if _, err := stmt.ExecContext(ctx, c.FromLocation, c.ToLocation, c.Cost); err != nil {
			return 0, fmt.Errorf("upsert cost %d->%d: %w", c.FromLocation, c.ToLocation, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return len(costs), nil
}

func (p *Postgres) ListCosts(ctx context.Context) ([]model.Cost, error) {
	rows, err := p.db.QueryContext(ctx, `SELECT from_location, to_location, cost FROM costs ORDER BY from_location, to_location`)
	if err != nil {
		return nil, fmt.Errorf("list costs: %w", err)
	}
	defer rows.Close()
	out := []model.Cost{}
	for rows.Next() {
		var c model.Cost
		if err := rows.Scan(&c.FromLocation, &c.ToLocation, &c.Cost); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (p *Postgres) SaveMatchRun(ctx context.Context, run model.MatchRun) error {
	result, err := json.Marshal(run.Result)
	if err != nil {
		return err
	}
	_, err = p.db.ExecContext(ctx, `INSERT INTO match_runs (id, source, status, total_cost, matched, drivers, riders, duration_ms, created_at, result)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`,
		run.ID, run.Source, run.Status, run.TotalCost, run.Matched, run.Drivers, run.Riders, run.DurationMs, run.CreatedAt, result)
	if err != nil {
		return fmt.Errorf("save match run %s: %w", run.ID, err)
	}
	return nil
}

const matchRunCols = `id::text, source, status, total_cost, matched, drivers, riders, duration_ms, created_at, result`

func scanMatchRun(row interface{ Scan(...any) error }) (model.MatchRun, error) {
	var r model.MatchRun
	var result []byte
	if err := row.Scan(&r.ID, &r.Source, &r.Status, &r.TotalCost, &r.Matched, &r.Drivers, &r.Riders, &r.DurationMs, &r.CreatedAt, &result); err != nil {
		return model.MatchRun{}, err
	}
	if err := json.Unmarshal(result, &r.Result); err != nil {
		return model.MatchRun{}, fmt.Errorf("decode match run %s: %w", r.ID, err)
	}
	return r, nil
}

func (p *Postgres) GetMatchRun(ctx context.Context, id string) (model.MatchRun, error) {
	if _, err := uuid.Parse(id); err != nil {
		return model.MatchRun{}, ErrNotFound
	}
	r, err := scanMatchRun(p.db.QueryRowContext(ctx, `SELECT `+matchRunCols+` FROM match_runs WHERE id=$1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return model.MatchRun{}, ErrNotFound
	}
	return r, err
}

func (p *Postgres) ListMatchRuns(ctx context.Context, cursor string, limit int) ([]model.MatchRun, string, error) {
	limit = clampLimit(limit)
	var rows *sql.Rows
	var err error
	if cursor != "" {
		rows, err = p.db.QueryContext(ctx, `SELECT `+matchRunCols+` FROM match_runs
            WHERE (created_at, id) < (SELECT created_at, id FROM match_runs WHERE id::text=$1)
            ORDER BY created_at DESC, id DESC LIMIT $2`, cursor, limit)
	} else {
		rows, err = p.db.QueryContext(ctx, `SELECT `+matchRunCols+` FROM match_runs ORDER BY created_at DESC, id DESC LIMIT $1`, limit)
	}
	if err != nil {
		return nil, "", fmt.Errorf("list match runs: %w", err)
	}
	defer rows.Close()
	out := []model.MatchRun{}
	for rows.Next() {
		r, err := scanMatchRun(rows)
		if err != nil {
			return nil, "", err
		}
		out = append(out, r)
	}
	next := ""
	if len(out) == limit {
		next = out[len(out)-1].ID
	}
	return out, next, rows.Err()
}

func (p *Postgres) CreateSubscription(ctx context.Context, req model.SubscriptionRequest) (model.Subscription, error) {
	id := uuid.New().String()
	ev, _ := json.Marshal(req.Events)
	_, err := p.db.ExecContext(ctx, `INSERT INTO subscriptions (id, url, events, secret) VALUES ($1,$2,$3,$4)`, id, req.URL, ev, req.Secret)
	if err != nil {
		return model.Subscription{}, err
	}
	return model.Subscription{ID: id, URL: req.URL, Events: req.Events, Secret: req.Secret}, nil
}

func (p *Postgres) GetSubscriptionsForEvent(ctx context.Context, eventType string) ([]model.Subscription, error) {
	filter, _ := json.Marshal([]string{eventType})
	rows, err := p.db.QueryContext(ctx, `SELECT id::text, url, secret, events FROM subscriptions WHERE events @> $1::jsonb`, filter)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanSubscriptions(rows)
}

func (p *Postgres) ListSubscriptions(ctx context.Context, cursor string, limit int) ([]model.Subscription, string, error) {
	limit = clampLimit(limit)
	rows, err := p.db.QueryContext(ctx, `SELECT id::text, url, secret, events FROM subscriptions WHERE id::text > $1 ORDER BY id LIMIT $2`, cursor, limit)
	if err != nil {
		return nil, "", err
	}
	defer rows.Close()
	out, err := scanSubscriptions(rows)
	if err != nil {
		return nil, "", err
	}
	next := ""
	if len(out) == limit {
		next = out[len(out)-1].ID
	}
	return out, next, nil
}

func scanSubscriptions(rows *sql.Rows) ([]model.Subscription, error) {
	out := []model.Subscription{}
	for rows.Next() {
		var s model.Subscription
		var ev []byte
		if err := rows.Scan(&s.ID, &s.URL, &s.Secret, &ev); err != nil {
			return nil, err
		}
		_ = json.Unmarshal(ev, &s.Events)
		out = append(out, s)
	}
	return out, rows.Err()
}

func (p *Postgres) DeleteSubscription(ctx context.Context, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return ErrNotFound
	}
	res, err := p.db.ExecContext(ctx, `DELETE FROM subscriptions WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// Webhook deliveries
func (p *Postgres) EnqueueWebhook(ctx context.Context, subscriptionID, eventType, url, secret string, payload []byte) (string, error) {
	id := uuid.New().String()
	_, err := p.db.ExecContext(ctx, `INSERT INTO webhook_deliveries (id, subscription_id, event_type, url, secret, payload, status, attempts, next_attempt_at, dedup_key)
        VALUES ($1,$2,$3,$4,$5,$6,'pending',0,now(),$7)
        ON CONFLICT (event_type, url, dedup_key) DO NOTHING`, id, nullIfEmpty(subscriptionID), eventType, url, nullIfEmpty(secret), payload, computeDedupKey(payload))
	if err != nil {
		return "", err
	}
	return id, nil
}

func (p *Postgres) FetchDueWebhookDeliveries(ctx context.Context, limit int) ([]WebhookDelivery, error) {
	rows, err := p.db.QueryContext(ctx, `SELECT id::text, COALESCE(subscription_id::text,''), event_type, url, COALESCE(secret,''), payload, status, attempts
        FROM webhook_deliveries WHERE status IN ('pending','retry') AND next_attempt_at <= now() ORDER BY next_attempt_at ASC LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []WebhookDelivery{}
	for rows.Next() {
		var d WebhookDelivery
		if err := rows.Scan(&d.ID, &d.SubscriptionID, &d.EventType, &d.URL, &d.Secret, &d.Payload, &d.Status, &d.Attempts); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (p *Postgres) MarkWebhookDelivery(ctx context.Context, id string, success bool, nextAttemptAt *time.Time, lastError string, responseCode int, latencyMs int) error {
	if success {
		_, err := p.db.ExecContext(ctx, `UPDATE webhook_deliveries SET attempts=attempts+1, status='delivered', delivered_at=now(), updated_at=now(), response_code=$2, latency_ms=$3 WHERE id=$1`, id, responseCode, latencyMs)
		return err
	}
	if nextAttemptAt == nil {
		t := time.Now().Add(time.Minute)
		nextAttemptAt = &t
	}
	_, err := p.db.ExecContext(ctx, `UPDATE webhook_deliveries SET attempts=attempts+1, status='retry', last_error=$2, next_attempt_at=$3, updated_at=now(), response_code=$4, latency_ms=$5 WHERE id=$1`,
		id, nullIfEmpty(lastError), *nextAttemptAt, responseCode, latencyMs)
	return err
}

func (p *Postgres) FailWebhookDelivery(ctx context.Context, id string, lastError string, responseCode int, latencyMs int) error {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()
	_, err = tx.ExecContext(ctx, `UPDATE webhook_deliveries SET attempts=attempts+1, status='failed', last_error=$2, updated_at=now(), response_code=$3, latency_ms=$4 WHERE id=$1`,
		id, nullIfEmpty(lastError), responseCode, latencyMs)
	if err != nil {
		return err
	}
	_, err = tx.ExecContext(ctx, `INSERT INTO webhook_dlq (id, delivery_id, event_type, url, payload, attempts, last_error)
        SELECT gen_random_uuid(), id, event_type, url, payload, attempts, $2 FROM webhook_deliveries WHERE id=$1`, id, nullIfEmpty(lastError))
	if err != nil {
		return err
	}
	return tx.Commit()
}

func (p *Postgres) ListWebhookDeliveries(ctx context.Context, status, cursor string, limit int) ([]model.WebhookDeliveryOut, string, error) {
	limit = clampLimit(limit)
	rows, err := p.db.QueryContext(ctx, `SELECT id::text, event_type, status, attempts, url, next_attempt_at, COALESCE(last_error,''), COALESCE(response_code,0)
        FROM webhook_deliveries WHERE ($1 = '' OR status = $1) AND id::text > $2 ORDER BY id LIMIT $3`, status, cursor, limit)
	if err != nil {
		return nil, "", err
	}
	defer rows.Close()
	out := []model.WebhookDeliveryOut{}
	for rows.Next() {
		var d model.WebhookDeliveryOut
		var nextAt sql.NullTime
		if err := rows.Scan(&d.ID, &d.EventType, &d.Status, &d.Attempts, &d.URL, &nextAt, &d.LastError, &d.ResponseCode); err != nil {
			return nil, "", err
		}
		if nextAt.Valid && (d.Status == DeliveryPending || d.Status == DeliveryRetry) {
			d.NextAttemptAt = &nextAt.Time
		}
		out = append(out, d)
	}
	next := ""
	if len(out) == limit {
		next = out[len(out)-1].ID
	}
	return out, next, rows.Err()
}

func (p *Postgres) RetryWebhookDelivery(ctx context.Context, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return ErrNotFound
	}
	res, err := p.db.ExecContext(ctx, `UPDATE webhook_deliveries SET status='pending', next_attempt_at=now(), updated_at=now() WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// computeDedupKey uses the event id when the payload carries one, otherwise a
// short content hash.
func computeDedupKey(payload []byte) string {
	var m map[string]any
	if json.Unmarshal(payload, &m) == nil {
		if v, ok := m["id"].(string); ok && v != "" {
			return v
		}
	}
	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:8])
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}
