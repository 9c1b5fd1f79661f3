package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/star/elevplot/internal/api"
	"github.com/star/elevplot/internal/elevation"
	"github.com/star/elevplot/internal/health"
	"github.com/star/elevplot/internal/resolver"
	"github.com/star/elevplot/internal/session"
	"github.com/star/elevplot/internal/targets"
	"github.com/star/elevplot/internal/tracing"
	"github.com/star/elevplot/web"
)

func main() {
	// A missing .env is normal outside development.
	envErr := godotenv.Load()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: loadLogLevel(),
	}))
	if envErr != nil && !errors.Is(envErr, os.ErrNotExist) {
		logger.Warn("failed to load .env file", "error", envErr)
	}

	addr := os.Getenv("ELEVPLOT_HTTP_ADDR")
	if addr == "" {
		addr = ":8080"
	}
	trustProxy := loadBool(logger, "ELEVPLOT_TRUST_PROXY", false)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := tracing.Init(ctx, tracing.ConfigFromEnv(logger), logger)
	if err != nil {
		logger.Error("tracing init failed", "error", err)
		os.Exit(1)
	}
	defer tracing.ShutdownWithTimeout(context.Background(), shutdownTracing, logger)

	defaults, err := loadDefaultTargets(logger)
	if err != nil {
		logger.Error("invalid targets file", "error", err)
		os.Exit(1)
	}

	res := resolver.New(loadResolverConfig(logger), logger.With("component", "resolver"))
	sessions := session.NewManager(session.Config{
		Defaults:     defaults,
		TrustProxy:   trustProxy,
		MaxSessions:  loadInt(logger, "ELEVPLOT_MAX_SESSIONS", session.DefaultMaxSessions),
		EmptyMaxIdle: loadDuration(logger, "ELEVPLOT_SESSION_EMPTY_MAX_IDLE", session.DefaultEmptyMaxIdle),
	}, logger.With("component", "session"))
	maxIdle := loadDuration(logger, "ELEVPLOT_SESSION_MAX_IDLE", 12*time.Hour)

	srv := api.NewServer(api.Config{
		Addr:       addr,
		TrustProxy: trustProxy,
		Zone:       loadZone(logger),
	}, logger, res, sessions, web.Content)

	// Idle session sweeper.
	go sessions.Run(ctx, time.Minute, maxIdle)

	go func() {
		logger.Info("starting server", "addr", addr, "resolver_sources", res.Sources(), "session_max_idle", maxIdle.String())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server listen error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down server...")
	health.SetDraining(true)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.HTTPServer().Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
}

func loadLogLevel() slog.Level {
	level := slog.LevelInfo
	if v := os.Getenv("ELEVPLOT_LOG_LEVEL"); v != "" {
		if err := level.UnmarshalText([]byte(v)); err != nil {
			level = slog.LevelInfo
		}
	}
	return level
}

func loadBool(logger *slog.Logger, key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		logger.Warn("invalid boolean, using default", "key", key, "value", v, "default", def)
		return def
	}
	return b
}

func loadInt(logger *slog.Logger, key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		logger.Warn("invalid integer, using default", "key", key, "value", v, "default", def)
		return def
	}
	return n
}

// loadDuration accepts Go durations ("90s", "12h") or plain seconds.
func loadDuration(logger *slog.Logger, key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	if d, err := time.ParseDuration(v); err == nil && d > 0 {
		return d
	}
	if n, err := strconv.Atoi(v); err == nil && n > 0 {
		return time.Duration(n) * time.Second
	}
	logger.Warn("invalid duration, using default", "key", key, "value", v, "default", def.String())
	return def
}

// urlOrDefault distinguishes unset (default endpoint) from set-but-empty
// or "off" (step disabled).
func urlOrDefault(key, def string) string {
	v, ok := os.LookupEnv(key)
	if !ok {
		return def
	}
	v = strings.TrimSpace(v)
	if strings.EqualFold(v, "off") {
		return ""
	}
	return v
}

func loadResolverConfig(logger *slog.Logger) resolver.Config {
	cfg := resolver.Config{
		SesameURL: urlOrDefault("ELEVPLOT_SESAME_URL", resolver.DefaultSesameURL),
		VSXURL:    urlOrDefault("ELEVPLOT_VSX_URL", resolver.DefaultVSXURL),
		Timeout:   loadDuration(logger, "ELEVPLOT_RESOLVE_TIMEOUT", resolver.DefaultTimeout),
	}

	logger.Info("resolver config",
		"sesame_url", cfg.SesameURL,
		"vsx_url", cfg.VSXURL,
		"timeout_seconds", cfg.Timeout.Seconds(),
	)
	return cfg
}

func loadZone(logger *slog.Logger) *time.Location {
	offset := float64(elevation.DefaultUTCOffsetHours)
	if v := os.Getenv("ELEVPLOT_UTC_OFFSET_HOURS"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil || f < elevation.MinUTCOffsetHours || f > elevation.MaxUTCOffsetHours {
			logger.Warn("invalid ELEVPLOT_UTC_OFFSET_HOURS value, using default", "value", v, "default", offset)
		} else {
			offset = f
		}
	}
	zone := elevation.FixedZone(offset)
	logger.Info("local time zone", "zone", zone.String(), "utc_offset_hours", offset)
	return zone
}

func loadDefaultTargets(logger *slog.Logger) ([]targets.Target, error) {
	path := os.Getenv("ELEVPLOT_TARGETS_FILE")
	if path == "" {
		return targets.Defaults(), nil
	}
	ts, err := targets.LoadFile(path)
	if err != nil {
		return nil, err
	}
	logger.Info("loaded targets file", "path", path, "count", len(ts))
	return ts, nil
}
