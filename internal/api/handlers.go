package api

import (
	"context"
	"net/http"
	"time"

	"ridematch/internal/metrics"
	"ridematch/internal/model"
)

// DriversHandler handles POST/GET /v1/drivers
func (s *Server) DriversHandler(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		var in model.DriverIn
		if !s.bind(w, r, &in) {
			return
		}
		d, err := s.Store.UpsertDriver(r.Context(), in)
		if err != nil {
			writeProblem(w, http.StatusInternalServerError, "Save driver failed", err.Error(), r.URL.Path)
			return
		}
		writeJSON(w, http.StatusCreated, d)
	case http.MethodGet:
		items, err := s.Store.ListDrivers(r.Context(), r.URL.Query().Get("available") == "true")
		if err != nil {
			writeProblem(w, http.StatusInternalServerError, "List drivers failed", err.Error(), r.URL.Path)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"items": items})
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

// RidersHandler handles POST/GET /v1/riders
func (s *Server) RidersHandler(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		var in model.RiderIn
		if !s.bind(w, r, &in) {
			return
		}
		rd, err := s.Store.UpsertRider(r.Context(), in)
		if err != nil {
			writeProblem(w, http.StatusInternalServerError, "Save rider failed", err.Error(), r.URL.Path)
			return
		}
		writeJSON(w, http.StatusCreated, rd)
	case http.MethodGet:
		items, err := s.Store.ListRiders(r.Context(), r.URL.Query().Get("requested") == "true")
		if err != nil {
			writeProblem(w, http.StatusInternalServerError, "List riders failed", err.Error(), r.URL.Path)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"items": items})
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

// LocationsHandler handles POST/GET /v1/locations
func (s *Server) LocationsHandler(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		var in model.Location
		if !s.bind(w, r, &in) {
			return
		}
		loc, err := s.Store.UpsertLocation(r.Context(), in)
		if err != nil {
			writeProblem(w, http.StatusInternalServerError, "Save location failed", err.Error(), r.URL.Path)
			return
		}
		writeJSON(w, http.StatusCreated, loc)
	case http.MethodGet:
		items, err := s.Store.ListLocations(r.Context())
		if err != nil {
			writeProblem(w, http.StatusInternalServerError, "List locations failed", err.Error(), r.URL.Path)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"items": items})
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

// CostsHandler handles PUT/GET /v1/costs. A later entry for the same
// (from, to) pair replaces an earlier one.
func (s *Server) CostsHandler(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPut:
		var req model.CostsRequest
		if !s.bind(w, r, &req) {
			return
		}
		n, err := s.Store.UpsertCosts(r.Context(), req.Costs)
		if err != nil {
			writeProblem(w, http.StatusInternalServerError, "Save costs failed", err.Error(), r.URL.Path)
			return
		}
		writeJSON(w, http.StatusOK, map[string]int{"upserted": n})
	case http.MethodGet:
		items, err := s.Store.ListCosts(r.Context())
		if err != nil {
			writeProblem(w, http.StatusInternalServerError, "List costs failed", err.Error(), r.URL.Path)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"items": items})
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

// Health
func (s *Server) HealthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, 200, map[string]string{"status": "ok"})
}

func (s *Server) ReadyHandler(w http.ResponseWriter, r *http.Request) {
	// Check Postgres and Redis connectivity when configured
	type pinger interface{ Ping(ctx context.Context) error }
	for name, dep := range map[string]any{"store": s.Store, "broker": s.Broker} {
		p, ok := dep.(pinger)
		if !ok {
			continue
		}
		ctx, cancel := context.WithTimeout(r.Context(), 500*time.Millisecond)
		err := p.Ping(ctx)
		cancel()
		if err != nil {
			writeProblem(w, 503, "Not Ready", name+": "+err.Error(), r.URL.Path)
			return
		}
	}
	writeJSON(w, 200, map[string]string{"status": "ready"})
}

func (s *Server) MetricsHandler() http.Handler {
	return metrics.Handler()
}
