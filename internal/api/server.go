package api

import (
	"context"
	"io/fs"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/star/elevplot/internal/coord"
	"github.com/star/elevplot/internal/elevation"
	"github.com/star/elevplot/internal/health"
	"github.com/star/elevplot/internal/httputil"
	"github.com/star/elevplot/internal/metrics"
	"github.com/star/elevplot/internal/resolver"
	"github.com/star/elevplot/internal/session"
)

// Resolver maps a target name to a coordinate.
type Resolver interface {
	Resolve(ctx context.Context, name string) (coord.Coordinate, resolver.Source, error)
}

// Config holds server settings.
type Config struct {
	Addr       string
	TrustProxy bool
	Zone       *time.Location // local zone for dates and hours; nil uses the +09:00 default
}

// Server holds the HTTP server and its dependencies.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
}

// NewServer creates a configured HTTP server.
func NewServer(cfg Config, logger *slog.Logger, res Resolver, sessions *session.Manager, webContent fs.FS) *Server {
	if cfg.Zone == nil {
		cfg.Zone = elevation.DefaultZone
	}
	h := &handlers{
		logger:   logger.With("component", "api"),
		resolver: res,
		sessions: sessions,
		zone:     cfg.Zone,
	}

	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", health.Healthz)
	mux.HandleFunc("GET /readyz", health.Readyz)
	mux.Handle("GET /metrics", metrics.Handler())

	mux.HandleFunc("GET /api/v1/resolve", h.resolve)
	mux.HandleFunc("GET /api/v1/targets", h.listTargets)
	mux.HandleFunc("POST /api/v1/targets", h.addTarget)
	mux.HandleFunc("POST /api/v1/elevation", h.computeElevation)
	mux.HandleFunc("GET /api/v1/plot", h.plotImage)

	if webContent != nil {
		mux.Handle("GET /", http.FileServerFS(webContent))
	}

	// Build middleware chain: metrics -> logging -> mux.
	var handler http.Handler = mux
	handler = loggingMiddleware(logger, cfg.TrustProxy)(handler)
	handler = metrics.Middleware(handler)

	return &Server{
		httpServer: &http.Server{
			Addr:              cfg.Addr,
			Handler:           handler,
			ReadTimeout:       10 * time.Second,
			ReadHeaderTimeout: 5 * time.Second,
			WriteTimeout:      60 * time.Second,
			IdleTimeout:       120 * time.Second,
		},
		logger: logger,
	}
}

// Handler returns the root handler with all middleware applied.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// HTTPServer returns the underlying *http.Server for external control (e.g. shutdown).
func (s *Server) HTTPServer() *http.Server {
	return s.httpServer
}

// ListenAndServe starts the HTTP server.
func (s *Server) ListenAndServe() error {
	return s.httpServer.ListenAndServe()
}

// probePath returns true for health/readiness probe paths that should not log at INFO.
func probePath(path string) bool {
	return path == "/healthz" || path == "/readyz" || path == "/metrics"
}

type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (sr *statusRecorder) WriteHeader(code int) {
	sr.statusCode = code
	sr.ResponseWriter.WriteHeader(code)
}

func loggingMiddleware(logger *slog.Logger, trustProxy bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			sr := &statusRecorder{ResponseWriter: w, statusCode: http.StatusOK}

			next.ServeHTTP(sr, r)

			duration := time.Since(start)
			level := slog.LevelInfo
			if probePath(r.URL.Path) {
				level = slog.LevelDebug
			}

			logger.Log(r.Context(), level, "request",
				"component", "api",
				"method", r.Method,
				"path", r.URL.Path,
				"status", strconv.Itoa(sr.statusCode),
				"duration_ms", duration.Milliseconds(),
				"remote_ip", httputil.ClientIP(r, trustProxy),
			)
		})
	}
}
