package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/rs/zerolog/log"

	"ridematch/internal/dispatch"
	"ridematch/internal/model"
)

// maxBodyBytes bounds request bodies; cost tables are the largest payloads.
const maxBodyBytes = 8 << 20

// Problem represents an RFC7807 problem details response body.
type Problem struct {
	Type     string `json:"type"`
	Title    string `json:"title"`
	Status   int    `json:"status"`
	Detail   string `json:"detail,omitempty"`
	Instance string `json:"instance,omitempty"`
	// MatchStatus carries the matching status for failed solves.
	MatchStatus string `json:"matchStatus,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeProblem(w http.ResponseWriter, status int, title, detail, instance string) {
	writeJSON(w, status, Problem{
		Type:     "about:blank",
		Title:    title,
		Status:   status,
		Detail:   detail,
		Instance: instance,
	})
}

// decodeJSON reads a single JSON document from the request body into v.
func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("request body is empty")
		}
		return err
	}
	return nil
}

// writeMatchError reports a rejected solve. Invalid input is the caller's
// fault; anything else is logged and hidden behind a generic message.
func writeMatchError(w http.ResponseWriter, r *http.Request, err error) {
	p := Problem{Type: "about:blank", Instance: r.URL.Path, MatchStatus: dispatch.StatusOf(err)}
	switch p.MatchStatus {
	case model.StatusInvalidInput:
		p.Status, p.Title, p.Detail = http.StatusBadRequest, "Invalid matching input", err.Error()
	case model.StatusInternalError:
		if errors.Is(err, context.DeadlineExceeded) {
			log.Warn().Err(err).Str("path", r.URL.Path).Msg("solve timed out")
			p.Status, p.Title, p.Detail = http.StatusGatewayTimeout, "Matching timed out", "the solve did not finish within the configured timeout"
			break
		}
		fallthrough
	default:
		log.Error().Err(err).Str("path", r.URL.Path).Msg("solve failed")
		p.Status, p.Title, p.Detail = http.StatusInternalServerError, "Matching failed", "an internal error occurred while computing matches"
		p.MatchStatus = model.StatusInternalError
	}
	writeJSON(w, p.Status, p)
}

// pageParams reads the cursor and limit query parameters.
func pageParams(r *http.Request) (string, int, error) {
	q := r.URL.Query()
	limit := 100
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return "", 0, fmt.Errorf("limit must be a positive integer, got %q", v)
		}
		limit = n
	}
	return q.Get("cursor"), limit, nil
}
