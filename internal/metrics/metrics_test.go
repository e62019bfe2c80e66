package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestHandlerExposesMatchMetrics(t *testing.T) {
	RegisterDefault()
	RegisterDefault()
	MatchRuns.WithLabelValues("inline", "SUCCESS").Inc()

	rr := httptest.NewRecorder()
	Handler().ServeHTTP(rr, httptest.NewRequest("GET", "/metrics", nil))
	if rr.Code != 200 {
		t.Fatalf("metrics status %d", rr.Code)
	}
	body, _ := io.ReadAll(rr.Body)
	if !strings.Contains(string(body), `match_runs_total{source="inline",status="SUCCESS"}`) {
		t.Fatalf("match_runs_total missing from exposition")
	}
}
