package api

import (
	"errors"
	"io"
	"mime"
	"net/http"

	"ridematch/internal/integrations"
	"ridematch/internal/integrations/csvfeed"
)

// ImportsHandler handles POST /v1/imports with a text/csv body of driver,
// rider, location and cost records.
func (s *Server) ImportsHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if mt, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type")); mt != "text/csv" {
		writeProblem(w, http.StatusUnsupportedMediaType, "Unsupported media type", "expected text/csv", r.URL.Path)
		return
	}
	name := r.URL.Query().Get("source")
	if name == "" {
		name = "csv"
	}
	feed := csvfeed.New(name, io.LimitReader(r.Body, maxBodyBytes))
	sum, err := integrations.Import(r.Context(), feed, s.Store)
	if errors.Is(err, csvfeed.ErrMalformed) {
		writeValidationProblem(w, r, "Invalid CSV", err.Error())
		return
	}
	if err != nil {
		writeProblem(w, http.StatusInternalServerError, "Import failed", err.Error(), r.URL.Path)
		return
	}
	writeJSON(w, http.StatusOK, sum)
}
