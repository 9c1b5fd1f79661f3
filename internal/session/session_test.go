package session

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/star/elevplot/internal/targets"
)

var testLogger = slog.New(slog.NewJSONHandler(io.Discard, nil))

func sessionCookie(t *testing.T, rec *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range rec.Result().Cookies() {
		if c.Name == CookieName {
			return c
		}
	}
	t.Fatal("no session cookie set")
	return nil
}

func TestGetCreatesSessionAndCookie(t *testing.T) {
	m := NewManager(Config{}, testLogger)

	rec := httptest.NewRecorder()
	store := m.Get(rec, httptest.NewRequest("GET", "/", nil))
	require.NotNil(t, store)

	c := sessionCookie(t, rec)
	_, err := uuid.Parse(c.Value)
	assert.NoError(t, err)
	assert.True(t, c.HttpOnly)
	assert.Equal(t, "/", c.Path)
	assert.Equal(t, 1, m.Len())
	assert.Len(t, store.List(), 4)
}

func TestGetReusesSession(t *testing.T) {
	m := NewManager(Config{}, testLogger)

	rec := httptest.NewRecorder()
	first := m.Get(rec, httptest.NewRequest("GET", "/", nil))
	_, err := first.Add("T CrB", "15 59 30.16", "+25 55 12.6")
	require.NoError(t, err)

	req := httptest.NewRequest("GET", "/", nil)
	req.AddCookie(sessionCookie(t, rec))
	rec2 := httptest.NewRecorder()
	second := m.Get(rec2, req)

	assert.Same(t, first, second)
	assert.Empty(t, rec2.Result().Cookies(), "existing session must not reset the cookie")
	assert.Equal(t, 1, m.Len())
}

func TestSessionsAreIsolated(t *testing.T) {
	m := NewManager(Config{}, testLogger)

	a := m.Get(httptest.NewRecorder(), httptest.NewRequest("GET", "/", nil))
	b := m.Get(httptest.NewRecorder(), httptest.NewRequest("GET", "/", nil))
	_, err := a.Add("T CrB", "15 59 30.16", "+25 55 12.6")
	require.NoError(t, err)

	_, ok := b.Get("T CrB")
	assert.False(t, ok)
	assert.Equal(t, 2, m.Len())
}

func TestGetIgnoresForgedCookie(t *testing.T) {
	m := NewManager(Config{}, testLogger)

	for _, v := range []string{"not-a-uuid", uuid.NewString()} {
		req := httptest.NewRequest("GET", "/", nil)
		req.AddCookie(&http.Cookie{Name: CookieName, Value: v})
		rec := httptest.NewRecorder()
		m.Get(rec, req)
		assert.NotEqual(t, v, sessionCookie(t, rec).Value)
	}
	assert.Equal(t, 2, m.Len())
}

func TestCustomDefaults(t *testing.T) {
	tcrb, err := targets.New("T CrB", "15 59 30.16", "+25 55 12.6")
	require.NoError(t, err)

	m := NewManager(Config{Defaults: []targets.Target{tcrb}}, testLogger)
	store := m.Get(httptest.NewRecorder(), httptest.NewRequest("GET", "/", nil))
	assert.Equal(t, []string{"T CrB"}, store.DefaultSelection())
}

func TestSweep(t *testing.T) {
	now := time.Date(2025, 9, 26, 12, 0, 0, 0, time.UTC)
	m := NewManager(Config{}, testLogger)
	m.now = func() time.Time { return now }

	rec := httptest.NewRecorder()
	m.Get(rec, httptest.NewRequest("GET", "/", nil))
	keep := sessionCookie(t, rec)
	m.Get(httptest.NewRecorder(), httptest.NewRequest("GET", "/", nil))

	// Touch only the first session an hour later.
	now = now.Add(time.Hour)
	req := httptest.NewRequest("GET", "/", nil)
	req.AddCookie(keep)
	m.Get(httptest.NewRecorder(), req)

	now = now.Add(10 * time.Minute)
	assert.Equal(t, 1, m.Sweep(30*time.Minute))
	assert.Equal(t, 1, m.Len())

	req = httptest.NewRequest("GET", "/", nil)
	req.AddCookie(keep)
	rec = httptest.NewRecorder()
	m.Get(rec, req)
	assert.Empty(t, rec.Result().Cookies(), "touched session should survive the sweep")
}

func TestRunStopsOnCancel(t *testing.T) {
	m := NewManager(Config{}, testLogger)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		m.Run(ctx, time.Millisecond, time.Hour)
		close(done)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestCookieSecureBehindTLSProxy(t *testing.T) {
	m := NewManager(Config{TrustProxy: true}, testLogger)

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("X-Forwarded-Proto", "https")
	rec := httptest.NewRecorder()
	m.Get(rec, req)
	assert.True(t, sessionCookie(t, rec).Secure)

	rec = httptest.NewRecorder()
	m.Get(rec, httptest.NewRequest("GET", "/", nil))
	assert.False(t, sessionCookie(t, rec).Secure)
}

func TestSweepExpiresEmptySessionsSooner(t *testing.T) {
	now := time.Date(2025, 9, 26, 12, 0, 0, 0, time.UTC)
	m := NewManager(Config{EmptyMaxIdle: 15 * time.Minute}, testLogger)
	m.now = func() time.Time { return now }

	rec := httptest.NewRecorder()
	store := m.Get(rec, httptest.NewRequest("GET", "/", nil))
	_, err := store.Add("T CrB", "15 59 30.16", "+25 55 12.6")
	require.NoError(t, err)
	custom := sessionCookie(t, rec)
	m.Get(httptest.NewRecorder(), httptest.NewRequest("GET", "/", nil))

	now = now.Add(20 * time.Minute)
	assert.Equal(t, 1, m.Sweep(12*time.Hour), "session without custom targets should expire")
	assert.Equal(t, 1, m.Len())

	req := httptest.NewRequest("GET", "/", nil)
	req.AddCookie(custom)
	rec = httptest.NewRecorder()
	_, ok := m.Get(rec, req).Get("T CrB")
	assert.True(t, ok)
	assert.Empty(t, rec.Result().Cookies(), "session with custom targets should survive")
}

func TestGetEvictsLeastRecentlySeenAtCap(t *testing.T) {
	now := time.Date(2025, 9, 26, 12, 0, 0, 0, time.UTC)
	m := NewManager(Config{MaxSessions: 2}, testLogger)
	m.now = func() time.Time { return now }

	cookies := make([]*http.Cookie, 0, 3)
	for i := 0; i < 3; i++ {
		rec := httptest.NewRecorder()
		m.Get(rec, httptest.NewRequest("GET", "/", nil))
		cookies = append(cookies, sessionCookie(t, rec))
		now = now.Add(time.Minute)
	}
	assert.Equal(t, 2, m.Len())

	// A surviving session is reused without a new cookie. The evicted one
	// is checked last since replacing it creates a session.
	for _, tc := range []struct {
		idx   int
		alive bool
	}{{2, true}, {1, true}, {0, false}} {
		req := httptest.NewRequest("GET", "/", nil)
		req.AddCookie(cookies[tc.idx])
		rec := httptest.NewRecorder()
		m.Get(rec, req)
		assert.Equal(t, tc.alive, len(rec.Result().Cookies()) == 0, "session %d", tc.idx)
	}
	assert.Equal(t, 2, m.Len())
}
