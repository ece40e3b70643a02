package graph

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestMetricsEndpointServesCollectors(t *testing.T) {
	edgesCreated.Inc()

	req := httptest.NewRequest("GET", "/metrics", nil)
	rec := httptest.NewRecorder()
	metricsMux().ServeHTTP(rec, req)

	if rec.Code != 200 {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	body, err := io.ReadAll(rec.Result().Body)
	if err != nil {
		t.Fatalf("failed to read body: %v", err)
	}
	for _, name := range []string{
		"meterboard_edges_created_total",
		"meterboard_positions_saved_total",
		"meterboard_sync_failures_total",
	} {
		if !strings.Contains(string(body), name) {
			t.Errorf("metric %s missing from /metrics output", name)
		}
	}
}
