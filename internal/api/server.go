package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"

	"ridematch/internal/config"
	"ridematch/internal/dispatch"
	"ridematch/internal/events"
	"ridematch/internal/store"
	"ridematch/internal/webhooks"
)

type Server struct {
	Config   config.Config
	Store    store.Store
	Pub      *webhooks.Publisher
	Broker   events.Broker
	Dispatch *dispatch.Service

	validate *validator.Validate
}

// NewServer wires a Server from cfg. If DATABASE_URL is unset, uses the
// in-memory store; if REDIS_URL is unset or unreachable, uses the in-memory broker.
func NewServer(cfg config.Config) (*Server, error) {
	var s store.Store
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		s = store.NewMemory()
	} else {
		if cfg.DBMigrate {
			if err := store.Migrate(cfg.MigrationURL, cfg.DatabaseURL); err != nil {
				return nil, err
			}
		}
		sp, err := store.NewPostgres(cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		s = sp
	}

	var broker events.Broker = events.NewMemory()
	if cfg.RedisURL != "" {
		rb, err := events.NewRedis(cfg.RedisURL)
		if err != nil {
			log.Warn().Err(err).Msg("redis broker unavailable, using in-memory broker")
		} else {
			broker = rb
		}
	}

	pub := webhooks.NewPublisher(s)
	return &Server{
		Config:   cfg,
		Store:    s,
		Pub:      pub,
		Broker:   broker,
		Dispatch: dispatch.NewService(s, broker, pub, cfg.SolveTimeout),
		validate: newValidator(),
	}, nil
}

// NewWebhookWorker creates a background worker for webhook deliveries.
func (s *Server) NewWebhookWorker() *webhooks.Worker {
	return webhooks.NewWorker(s.Store, s.Config.WebhookMaxAttempts, s.Config.WebhookPollInterval)
}

// Close releases the store and broker connections.
func (s *Server) Close() error {
	var errs []error
	if c, ok := s.Store.(interface{ Close() error }); ok {
		errs = append(errs, c.Close())
	}
	if c, ok := s.Broker.(interface{ Close() error }); ok {
		errs = append(errs, c.Close())
	}
	return errors.Join(errs...)
}

// Routes returns the full HTTP handler with middleware applied.
func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()

	// Drivers, riders, locations, costs
	mux.HandleFunc("/v1/drivers", s.DriversHandler)
	mux.HandleFunc("/v1/riders", s.RidersHandler)
	mux.HandleFunc("/v1/locations", s.LocationsHandler)
	mux.HandleFunc("/v1/costs", s.CostsHandler)
	mux.HandleFunc("/v1/imports", s.ImportsHandler)

	// Matching
	mux.HandleFunc("/v1/matching/solve", s.SolveHandler)
	mux.HandleFunc("/v1/matching/status", s.StatusHandler)
	mux.HandleFunc("/v1/matching/info", s.InfoHandler)
	mux.HandleFunc("/v1/matching/runs", s.RunsHandler)
	mux.HandleFunc("/v1/matching/runs/", s.RunByIDHandler)
	mux.HandleFunc("/v1/matching/events/stream", s.EventsStreamHandler)
	mux.HandleFunc("/v1/matching/ws", s.EventsWSHandler)

	// Subscriptions and webhook deliveries
	mux.HandleFunc("/v1/subscriptions", s.SubscriptionsHandler)
	mux.HandleFunc("/v1/subscriptions/", s.SubscriptionByIDHandler)
	mux.HandleFunc("/v1/admin/webhook-deliveries", s.WebhookDeliveriesHandler)
	mux.HandleFunc("/v1/admin/webhook-deliveries/", s.WebhookDeliveryRetryHandler)

	// Health, metrics, docs
	mux.HandleFunc("/healthz", s.HealthHandler)
	mux.HandleFunc("/readyz", s.ReadyHandler)
	mux.Handle("/metrics", s.MetricsHandler())
	mux.HandleFunc("/debug/info", s.DebugJSON)
	mux.HandleFunc("/openapi.yaml", s.OpenAPIHandler)
	mux.HandleFunc("/openapi.json", s.OpenAPIJSONHandler)
	mux.HandleFunc("/docs", s.DocsHandler)
	mux.HandleFunc("/swagger", s.SwaggerHandler)

	var h http.Handler = mux
	h = rateLimitMiddleware(s.Config.RateRPS, s.Config.RateBurst, h)
	h = corsMiddleware(s.Config.Origins(), h)
	h = logMiddleware(h)
	h = recoverMiddleware(h)
	return h
}
