package status

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/reedharmon/pubpulse/internal/engine"
)

const unmatched = "unmatched"

var (
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pubpulse_http_requests_total",
			Help: "Total number of HTTP requests to the status server.",
		},
		[]string{"method", "path", "status"},
	)

	operationsGauge = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "pubpulse_operations",
			Help: "Operations in the current run by lifecycle state.",
		},
		[]string{"state"},
	)

	nodesGauge = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "pubpulse_nodes",
			Help: "Nodes currently tracked in the registry.",
		},
	)

	inFlightGauge = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "pubpulse_nodes_in_flight",
			Help: "Nodes with an operation currently in flight.",
		},
	)

	checksGauge = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "pubpulse_checks",
			Help: "Unconverged content checks across all operations.",
		},
	)

	publishLatency = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "pubpulse_publish_latency_seconds",
			Help:    "Publish latency of converged operations.",
			Buckets: prometheus.DefBuckets,
		},
	)
)

func init() {
	prometheus.MustRegister(httpRequestsTotal)
	prometheus.MustRegister(operationsGauge)
	prometheus.MustRegister(nodesGauge)
	prometheus.MustRegister(inFlightGauge)
	prometheus.MustRegister(checksGauge)
	prometheus.MustRegister(publishLatency)
}

// metricsMiddleware records a request count for every HTTP request.
// Uses the chi route pattern (not the raw path) to avoid unbounded cardinality.
func metricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		httpRequestsTotal.WithLabelValues(r.Method, routePattern(r), strconv.Itoa(status)).Inc()
	})
}

// routePattern extracts the matched chi route pattern, falling back to "unmatched".
func routePattern(r *http.Request) string {
	rctx := chi.RouteContext(r.Context())
	if rctx != nil && rctx.RoutePattern() != "" {
		return rctx.RoutePattern()
	}
	return unmatched
}

// metricsHandler returns the Prometheus metrics handler.
func metricsHandler() http.Handler {
	return promhttp.Handler()
}

// Collector folds engine snapshots into the Prometheus collectors.
//
// Not safe for concurrent use; run it from a single watch goroutine.
type Collector struct {
	seen map[string]struct{}
}

// NewCollector creates a snapshot collector.
func NewCollector() *Collector {
	return &Collector{seen: make(map[string]struct{})}
}

// Observe updates the run gauges from a snapshot and records the latency
// of every operation that has completed since the last call.
func (c *Collector) Observe(snap engine.Snapshot) {
	counts := map[engine.OperationState]float64{}
	var checks int64

	for _, op := range snap.Operations {
		counts[op.State]++
		checks += op.CheckCount

		if op.State != engine.OpStateCompleted {
			continue
		}
		if _, ok := c.seen[op.ID]; ok {
			continue
		}
		c.seen[op.ID] = struct{}{}
		publishLatency.Observe(op.Latency.Seconds())
	}

	for _, st := range []engine.OperationState{
		engine.OpStateRunning,
		engine.OpStateChecking,
		engine.OpStateCompleted,
		engine.OpStateFailure,
	} {
		operationsGauge.WithLabelValues(st.String()).Set(counts[st])
	}
	var inFlight int
	for _, n := range snap.Nodes {
		if n.InFlight {
			inFlight++
		}
	}
	nodesGauge.Set(float64(len(snap.Nodes)))
	inFlightGauge.Set(float64(inFlight))
	checksGauge.Set(float64(checks))
}
