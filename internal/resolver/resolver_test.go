package resolver

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/star/elevplot/internal/coord"
)

var testLogger = slog.New(slog.NewJSONHandler(io.Discard, nil))

const sesameM1 = `# M 1	#Q21985736
#=Sc=Simbad (CDS, via client/server):    1    7ms
%@ 6244
%I.0 M   1
%C.0 SNR
%J 083.63308 +22.01450 = 05:34:31.93 +22:00:52.2
%V v 1.000 [3] D 2000AJ....119.1381A
#====Done (2025-Sep-26,04:12:11z)====
`

const sesameMiss = `# Foo Bar	#Q21985737
#! *** Nothing found ***
#====Done (2025-Sep-26,04:12:11z)====
`

const vsxTCrB = `Name;T CrB
AUID;000-BBW-825
RA;15.9908
DEC;25.9204
VarType;NR
MaxMag;2.0 V
MinMag;10.8 V
`

func sesameServer(t *testing.T, status int, body string, hits *int32) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits != nil {
			atomic.AddInt32(hits, 1)
		}
		assert.Equal(t, "/-oI/SNV", r.URL.Path)
		w.WriteHeader(status)
		io.WriteString(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func vsxServer(t *testing.T, status int, body string, hits *int32) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits != nil {
			atomic.AddInt32(hits, 1)
		}
		q := r.URL.Query()
		assert.Equal(t, "api.delim", q.Get("view"))
		assert.Equal(t, ";", q.Get("delimiter"))
		assert.NotEmpty(t, q.Get("ident"))
		w.WriteHeader(status)
		io.WriteString(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestResolveSesameFirst(t *testing.T) {
	var vsxHits int32
	ses := sesameServer(t, http.StatusOK, sesameM1, nil)
	vsx := vsxServer(t, http.StatusOK, vsxTCrB, &vsxHits)

	r := New(Config{SesameURL: ses.URL, VSXURL: vsx.URL, Timeout: time.Second}, testLogger)
	c, src, err := r.Resolve(context.Background(), "M 1")
	require.NoError(t, err)

	assert.Equal(t, SourceSesame, src)
	assert.InDelta(t, 83.63308/15, c.RAHours, 1e-9)
	assert.InDelta(t, 22.01450, c.DecDeg, 1e-9)
	assert.Zero(t, atomic.LoadInt32(&vsxHits), "fallback must not run when the first step resolves")
}

func TestResolveFallsBackToVSX(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"nothing found", http.StatusOK, sesameMiss},
		{"server error", http.StatusInternalServerError, "oops"},
		{"short line", http.StatusOK, "%J 083.63308\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ses := sesameServer(t, tt.status, tt.body, nil)
			vsx := vsxServer(t, http.StatusOK, vsxTCrB, nil)

			r := New(Config{SesameURL: ses.URL, VSXURL: vsx.URL, Timeout: time.Second}, testLogger)
			c, src, err := r.Resolve(context.Background(), "T CrB")
			require.NoError(t, err)

			assert.Equal(t, SourceVSX, src)
			assert.InDelta(t, 15.9908, c.RAHours, 1e-12)
			assert.InDelta(t, 25.9204, c.DecDeg, 1e-12)
		})
	}
}

func TestResolveUnresolved(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"not found status", http.StatusNotFound, vsxTCrB},
		{"no RA marker", http.StatusOK, "Name;Nothing\n"},
		{"missing dec", http.StatusOK, "Name;X\nRA;1.5\n"},
		{"unparsable ra", http.StatusOK, "RA;abc\nDEC;10\n"},
		{"ra out of range", http.StatusOK, "RA;327.5\nDEC;10\n"},
		{"empty body", http.StatusOK, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ses := sesameServer(t, http.StatusOK, sesameMiss, nil)
			vsx := vsxServer(t, tt.status, tt.body, nil)

			r := New(Config{SesameURL: ses.URL, VSXURL: vsx.URL, Timeout: time.Second}, testLogger)
			_, src, err := r.Resolve(context.Background(), "Nowhere Star")

			var re *ResolutionError
			require.True(t, errors.As(err, &re), "expected *ResolutionError, got %v", err)
			assert.Equal(t, "Nowhere Star", re.Name)
			assert.Empty(t, src)
			assert.Contains(t, err.Error(), "Nowhere Star")
		})
	}
}

func TestResolveEscapesName(t *testing.T) {
	var gotSesame, gotIdent string
	ses := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotSesame = r.URL.RawQuery
		io.WriteString(w, sesameMiss)
	}))
	defer ses.Close()
	vsx := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotIdent = r.URL.Query().Get("ident")
		io.WriteString(w, vsxTCrB)
	}))
	defer vsx.Close()

	r := New(Config{SesameURL: ses.URL + "/", VSXURL: vsx.URL, Timeout: time.Second}, testLogger)
	_, _, err := r.Resolve(context.Background(), "  V* T CrB&x=1 ")
	require.NoError(t, err)

	assert.Equal(t, "V%2A%20T%20CrB%26x%3D1", gotSesame)
	assert.Equal(t, "V* T CrB&x=1", gotIdent)
}

func TestResolveEmptyName(t *testing.T) {
	r := New(Config{VSXURL: "http://127.0.0.1:1"}, testLogger)
	_, _, err := r.Resolve(context.Background(), "   ")
	var re *ResolutionError
	require.True(t, errors.As(err, &re))
}

func TestResolveDisabledSteps(t *testing.T) {
	r := New(Config{}, testLogger)
	assert.Empty(t, r.Sources())

	_, _, err := r.Resolve(context.Background(), "AG Peg")
	var re *ResolutionError
	require.True(t, errors.As(err, &re))

	vsx := vsxServer(t, http.StatusOK, vsxTCrB, nil)
	r = New(Config{VSXURL: vsx.URL}, testLogger)
	assert.Equal(t, []Source{SourceVSX}, r.Sources())
	_, src, err := r.Resolve(context.Background(), "T CrB")
	require.NoError(t, err)
	assert.Equal(t, SourceVSX, src)
}

func TestResolveTimeout(t *testing.T) {
	slow := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer slow.Close()

	r := New(Config{SesameURL: slow.URL, VSXURL: slow.URL, Timeout: 50 * time.Millisecond}, testLogger)
	start := time.Now()
	_, _, err := r.Resolve(context.Background(), "AG Peg")

	var re *ResolutionError
	require.True(t, errors.As(err, &re))
	assert.False(t, errors.Is(err, errNotFound), "a timeout is a transport failure, not a miss")
	assert.Less(t, time.Since(start), time.Second)
}

func TestResolveCancelledContext(t *testing.T) {
	ses := sesameServer(t, http.StatusOK, sesameM1, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r := New(Config{SesameURL: ses.URL}, testLogger)
	_, _, err := r.Resolve(ctx, "M 1")
	assert.True(t, errors.Is(err, context.Canceled), "got %v", err)
}

func TestFetchBodyLimit(t *testing.T) {
	big := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		chunk := strings.Repeat("A", 64*1024)
		for i := 0; i < 40; i++ {
			if _, err := io.WriteString(w, chunk); err != nil {
				return
			}
		}
	}))
	defer big.Close()

	_, err := NewVSX(big.URL, time.Second).Lookup(context.Background(), "T CrB")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "byte limit")
}

type staticLookup struct{ err error }

func (s staticLookup) Lookup(context.Context, string) (coord.Coordinate, error) {
	return coord.Coordinate{}, s.err
}

func TestResolutionErrorCarriesCause(t *testing.T) {
	cause := errors.New("dns failure")
	r := New(Config{}, testLogger).WithStep("local", staticLookup{err: cause})

	_, _, err := r.Resolve(context.Background(), "AG Peg")
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "dns failure")
}
