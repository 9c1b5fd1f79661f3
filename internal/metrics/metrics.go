package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "elevplot_http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"path", "method", "code"},
	)

	httpDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "elevplot_http_duration_seconds",
			Help:    "HTTP request duration in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"path", "method"},
	)

	resolveTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "elevplot_resolve_attempts_total",
			Help: "Coordinate resolution attempts by source and outcome.",
		},
		[]string{"source", "outcome"},
	)

	seriesComputedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "elevplot_series_computed_total",
			Help: "Elevation series computed.",
		},
	)

	computeDurationSeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "elevplot_compute_duration_seconds",
			Help:    "Wall time to compute all series of one plot request.",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12),
		},
	)

	plotRenderSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "elevplot_plot_render_seconds",
			Help:    "Chart render duration in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"format"},
	)

	activeSessions = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "elevplot_active_sessions",
			Help: "Sessions currently holding a target list.",
		},
	)
)

func init() {
	prometheus.MustRegister(httpRequestsTotal)
	prometheus.MustRegister(httpDurationSeconds)
	prometheus.MustRegister(resolveTotal)
	prometheus.MustRegister(seriesComputedTotal)
	prometheus.MustRegister(computeDurationSeconds)
	prometheus.MustRegister(plotRenderSeconds)
	prometheus.MustRegister(activeSessions)
}

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// RecordResolve counts one resolution attempt. outcome is "resolved",
// "unresolved" or "error".
func RecordResolve(source, outcome string) {
	resolveTotal.WithLabelValues(source, outcome).Inc()
}

// IncSeriesComputed counts one computed elevation series.
func IncSeriesComputed() {
	seriesComputedTotal.Inc()
}

// ObserveComputeDuration records the time spent on one plot request.
func ObserveComputeDuration(seconds float64) {
	computeDurationSeconds.Observe(seconds)
}

// ObservePlotRender records one chart render.
func ObservePlotRender(format string, seconds float64) {
	plotRenderSeconds.WithLabelValues(format).Observe(seconds)
}

// SetActiveSessions updates the session gauge.
func SetActiveSessions(n int) {
	activeSessions.Set(float64(n))
}

// knownRoutes are exposed as their own label; everything else is "other" so
// scanners can't blow up label cardinality.
var knownRoutes = map[string]bool{
	"/":                 true,
	"/healthz":          true,
	"/readyz":           true,
	"/metrics":          true,
	"/app.js":           true,
	"/styles.css":       true,
	"/api/v1/resolve":   true,
	"/api/v1/targets":   true,
	"/api/v1/elevation": true,
	"/api/v1/plot":      true,
}

func normalizeRoute(path string) string {
	if knownRoutes[path] {
		return path
	}
	return "other"
}

// responseWriter wraps http.ResponseWriter to capture the status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// Middleware records request count and duration for each request.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(rw, r)

		duration := time.Since(start).Seconds()
		code := strconv.Itoa(rw.statusCode)
		route := normalizeRoute(r.URL.Path)

		httpRequestsTotal.WithLabelValues(route, r.Method, code).Inc()
		httpDurationSeconds.WithLabelValues(route, r.Method).Observe(duration)
	})
}
