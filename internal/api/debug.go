package api

import (
	"net/http"
	"time"

	"ridematch/internal/buildinfo"
)

// DebugJSON reports build info and the effective non-secret configuration.
func (s *Server) DebugJSON(w http.ResponseWriter, r *http.Request) {
	c := s.Config
	writeJSON(w, http.StatusOK, map[string]any{
		"build": buildinfo.Info(),
		"time":  time.Now().UTC().Format(time.RFC3339),
		"config": map[string]any{
			"ENVIRONMENT":          c.Environment,
			"PORT":                 c.Port,
			"ALLOW_ORIGINS":        c.AllowOrigins,
			"RATE_RPS":             c.RateRPS,
			"RATE_BURST":           c.RateBurst,
			"WEBHOOK_MAX_ATTEMPTS": c.WebhookMaxAttempts,
			"AUTO_MATCH_SCHEDULE":  c.AutoMatchSchedule,
			"SOLVE_TIMEOUT":        c.SolveTimeout.String(),
			"HAS_DATABASE_URL":     c.DatabaseURL != "",
			"HAS_REDIS_URL":        c.RedisURL != "",
		},
	})
}
