// Package session gives each browser its own target store, keyed by a
// random cookie. Nothing is persisted; an idle session is dropped by Sweep.
package session

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/star/elevplot/internal/httputil"
	"github.com/star/elevplot/internal/metrics"
	"github.com/star/elevplot/internal/targets"
)

// CookieName is the session cookie.
const CookieName = "elevplot_session"

const (
	DefaultMaxSessions  = 10000
	DefaultEmptyMaxIdle = 30 * time.Minute
)

type entry struct {
	store    *targets.Store
	lastSeen time.Time
}

// Config controls session creation.
type Config struct {
	Defaults   []targets.Target // seed for new stores; nil uses targets.Defaults()
	TrustProxy bool             // honour forwarding headers for client IP and scheme

	// MaxSessions caps live sessions; creating one past the cap evicts the
	// least recently seen. Zero uses DefaultMaxSessions.
	MaxSessions int
	// EmptyMaxIdle is the idle limit for sessions without custom targets.
	// Zero uses DefaultEmptyMaxIdle.
	EmptyMaxIdle time.Duration
}

// Manager maps session IDs to target stores.
type Manager struct {
	mu       sync.Mutex
	sessions map[string]*entry
	cfg      Config
	logger   *slog.Logger
	now      func() time.Time
}

// NewManager creates an empty Manager.
func NewManager(cfg Config, logger *slog.Logger) *Manager {
	if cfg.MaxSessions <= 0 {
		cfg.MaxSessions = DefaultMaxSessions
	}
	if cfg.EmptyMaxIdle <= 0 {
		cfg.EmptyMaxIdle = DefaultEmptyMaxIdle
	}
	return &Manager{
		sessions: make(map[string]*entry),
		cfg:      cfg,
		logger:   logger,
		now:      time.Now,
	}
}

// Get returns the caller's store, creating a session and setting the
// cookie when the request carries none or an unknown one.
func (m *Manager) Get(w http.ResponseWriter, r *http.Request) *targets.Store {
	now := m.now()

	if c, err := r.Cookie(CookieName); err == nil {
		if _, err := uuid.Parse(c.Value); err == nil {
			m.mu.Lock()
			e, ok := m.sessions[c.Value]
			if ok {
				e.lastSeen = now
			}
			m.mu.Unlock()
			if ok {
				return e.store
			}
		}
	}

	id := uuid.NewString()
	e := &entry{store: targets.NewStore(m.cfg.Defaults), lastSeen: now}

	m.mu.Lock()
	evicted := m.evictLocked()
	m.sessions[id] = e
	n := len(m.sessions)
	m.mu.Unlock()
	metrics.SetActiveSessions(n)
	if evicted > 0 {
		m.logger.Warn("session cap reached, evicted least recently seen", "evicted", evicted, "max_sessions", m.cfg.MaxSessions)
	}

	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		Secure:   httputil.IsHTTPS(r, m.cfg.TrustProxy),
		SameSite: http.SameSiteLaxMode,
	})
	m.logger.Debug("session created", "client_ip", httputil.ClientIP(r, m.cfg.TrustProxy), "active", n)
	return e.store
}

// evictLocked makes room for one more session. Callers hold m.mu.
func (m *Manager) evictLocked() int {
	evicted := 0
	for len(m.sessions) >= m.cfg.MaxSessions {
		var oldestID string
		var oldest time.Time
		for id, e := range m.sessions {
			if oldestID == "" || e.lastSeen.Before(oldest) {
				oldestID, oldest = id, e.lastSeen
			}
		}
		delete(m.sessions, oldestID)
		evicted++
	}
	return evicted
}

// Len reports the number of live sessions.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// Sweep drops sessions idle for longer than maxIdle, or longer than
// EmptyMaxIdle when no custom target was ever added, and returns how many
// were removed.
func (m *Manager) Sweep(maxIdle time.Duration) int {
	now := m.now()
	cutoff := now.Add(-maxIdle)
	emptyCutoff := now.Add(-min(maxIdle, m.cfg.EmptyMaxIdle))

	m.mu.Lock()
	removed := 0
	for id, e := range m.sessions {
		limit := cutoff
		if e.store.CustomLen() == 0 {
			limit = emptyCutoff
		}
		if e.lastSeen.Before(limit) {
			delete(m.sessions, id)
			removed++
		}
	}
	n := len(m.sessions)
	m.mu.Unlock()

	metrics.SetActiveSessions(n)
	return removed
}

// Run sweeps every interval until ctx is done.
func (m *Manager) Run(ctx context.Context, interval, maxIdle time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if n := m.Sweep(maxIdle); n > 0 {
				m.logger.Info("expired idle sessions", "removed", n, "active", m.Len())
			}
		case <-ctx.Done():
			return
		}
	}
}
