package api

import (
	"errors"
	"net/http"
	"strings"

	"ridematch/internal/buildinfo"
	"ridematch/internal/dispatch"
	"ridematch/internal/model"
	"ridematch/internal/store"
)

const statusText = "Driver-Rider Matching Service is running. Uses Hungarian Algorithm for optimal assignments."

// SolveHandler handles /v1/matching/solve. GET solves over the stored
// drivers, riders and costs; POST solves the problem carried in the body.
func (s *Server) SolveHandler(w http.ResponseWriter, r *http.Request) {
	var (
		resp model.MatchResponse
		err  error
	)
	switch r.Method {
	case http.MethodGet:
		resp, err = s.Dispatch.SolveStored(r.Context(), dispatch.SourceStore)
	case http.MethodPost:
		var req model.MatchRequest
		if !s.bind(w, r, &req) {
			return
		}
		resp, err = s.Dispatch.SolveInline(r.Context(), req)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if err != nil {
		writeMatchError(w, r, err)
		return
	}
	// NO_FEASIBLE_MATCH is a normal outcome and is reported with 200
	writeJSON(w, http.StatusOK, resp)
}

// StatusHandler handles GET /v1/matching/status
func (s *Server) StatusHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte(statusText))
}

// InfoHandler handles GET /v1/matching/info
func (s *Server) InfoHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, model.ServiceInfo{
		APIName:     buildinfo.Name,
		Version:     buildinfo.Version,
		Description: "Matches drivers to riders with minimum total pickup and trip cost using the Hungarian algorithm",
		Endpoints: []string{
			"GET /v1/matching/solve - solve over stored drivers, riders and costs",
			"POST /v1/matching/solve - solve the drivers, riders and costs in the request body",
			"GET /v1/matching/status - service status",
			"GET /v1/matching/info - this document",
			"GET /v1/matching/runs - recent match runs",
			"GET /v1/matching/runs/{id} - one match run",
			"GET /v1/matching/events/stream - match events (SSE)",
			"GET /v1/matching/ws - match events (WebSocket)",
		},
	})
}

// RunsHandler handles GET /v1/matching/runs
func (s *Server) RunsHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	cursor, limit, err := pageParams(r)
	if err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid query", err.Error(), r.URL.Path)
		return
	}
	items, next, err := s.Store.ListMatchRuns(r.Context(), cursor, limit)
	if err != nil {
		writeProblem(w, http.StatusInternalServerError, "List runs failed", err.Error(), r.URL.Path)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items, "nextCursor": next})
}

// RunByIDHandler handles GET /v1/matching/runs/{id}
func (s *Server) RunByIDHandler(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/v1/matching/runs/")
	if id == "" || strings.Contains(id, "/") {
		writeProblem(w, http.StatusNotFound, "Not Found", "", r.URL.Path)
		return
	}
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	run, err := s.Store.GetMatchRun(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		writeProblem(w, http.StatusNotFound, "Run not found", id, r.URL.Path)
		return
	}
	if err != nil {
		writeProblem(w, http.StatusInternalServerError, "Get run failed", err.Error(), r.URL.Path)
		return
	}
	writeJSON(w, http.StatusOK, run)
}
