package graph

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// diagramPositions tracks how many nodes are placed on a diagram
	diagramPositions = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "meterboard_diagram_positions",
			Help: "Number of node placements on a diagram",
		},
		[]string{"diagram_id"},
	)

	// diagramEdges tracks how many connections a diagram's project has
	diagramEdges = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "meterboard_diagram_edges",
			Help: "Number of meter connections visible from a diagram",
		},
		[]string{"diagram_id"},
	)

	// edgesCreated counts completed connection gestures
	edgesCreated = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "meterboard_edges_created_total",
			Help: "Total connections created by completed drawing gestures",
		},
	)

	// edgesDeleted counts explicit connection deletions
	edgesDeleted = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "meterboard_edges_deleted_total",
			Help: "Total connections deleted",
		},
	)

	// positionsSaved counts node placement writes
	positionsSaved = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "meterboard_positions_saved_total",
			Help: "Total node position upserts",
		},
	)

	// syncFailures counts remote writes that failed and were surfaced as
	// notifications
	syncFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "meterboard_sync_failures_total",
			Help: "Total remote writes that failed",
		},
	)
)

func init() {
	// Register metrics with the default registry
	prometheus.MustRegister(diagramPositions)
	prometheus.MustRegister(diagramEdges)
	prometheus.MustRegister(edgesCreated)
	prometheus.MustRegister(edgesDeleted)
	prometheus.MustRegister(positionsSaved)
	prometheus.MustRegister(syncFailures)
}

// ServeMetrics exposes the collectors over HTTP at /metrics. Blocks; callers
// run it on its own goroutine. Long-running commands enable it through their
// metrics addr config.
func ServeMetrics(addr string) error {
	return http.ListenAndServe(addr, metricsMux())
}

func metricsMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	return mux
}

func updateCollectionGauges(diagramID string, positions, edges int) {
	diagramPositions.WithLabelValues(diagramID).Set(float64(positions))
	diagramEdges.WithLabelValues(diagramID).Set(float64(edges))
}
