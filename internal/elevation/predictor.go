package elevation

import (
	"context"
	"runtime"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/star/elevplot/internal/coord"
	"github.com/star/elevplot/internal/metrics"
	"github.com/star/elevplot/internal/transform"
)

const tracerName = "github.com/star/elevplot/internal/elevation"

// Target is a named coordinate to plot.
type Target struct {
	Name  string
	Coord coord.Coordinate
}

// Request holds the parameters for a multi-target, multi-date plot.
type Request struct {
	Targets     []Target
	Dates       []string
	Location    transform.Location
	Window      Window
	Zone        *time.Location
	MinAltitude float64 // degrees, for summaries
}

// DateResult holds every target's series for one date. Error is set when the
// date itself is invalid; the other dates are unaffected.
type DateResult struct {
	Date      string    `json:"date"`
	Series    []Series  `json:"series,omitempty"`
	Summaries []Summary `json:"summaries,omitempty"`
	Error     string    `json:"error,omitempty"`
}

// SplitDates splits a comma-separated date list, dropping blanks.
func SplitDates(s string) []string {
	var out []string
	for _, d := range strings.Split(s, ",") {
		if d = strings.TrimSpace(d); d != "" {
			out = append(out, d)
		}
	}
	return out
}

// ComputeAll computes series for every (date, target) pair.
// Each pair is processed in its own goroutine, bounded by a semaphore.
// Request-wide problems (no targets, bad location or window) fail the whole
// call; a bad date only fails its own DateResult.
func ComputeAll(ctx context.Context, req Request) ([]DateResult, error) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "elevation.ComputeAll")
	defer span.End()
	span.SetAttributes(
		attribute.Int("targets", len(req.Targets)),
		attribute.Int("dates", len(req.Dates)),
	)

	if len(req.Targets) == 0 {
		return nil, coord.NewInputError("targets", "", "select at least one target")
	}
	if len(req.Dates) == 0 {
		return nil, coord.NewInputError("dates", "", "enter at least one date")
	}
	if err := req.Location.Validate(); err != nil {
		return nil, coord.NewInputError("location", "", err.Error())
	}
	if err := req.Window.Validate(); err != nil {
		return nil, err
	}
	for _, t := range req.Targets {
		if err := t.Coord.Validate(); err != nil {
			return nil, err
		}
	}

	start := time.Now()
	results := make([]DateResult, len(req.Dates))
	for i, d := range req.Dates {
		results[i] = DateResult{
			Date:   strings.TrimSpace(d),
			Series: make([]Series, len(req.Targets)),
		}
		if _, err := ParseDate(d, zoneOrDefault(req.Zone)); err != nil {
			results[i] = DateResult{Date: d, Error: err.Error()}
		}
	}

	sem := make(chan struct{}, runtime.NumCPU())
	var wg sync.WaitGroup
	var mu sync.Mutex
	var firstErr error

	for di := range results {
		if results[di].Error != "" {
			continue
		}
		for ti, target := range req.Targets {
			wg.Add(1)
			go func(di, ti int, target Target) {
				defer wg.Done()

				select {
				case sem <- struct{}{}:
					defer func() { <-sem }()
				case <-ctx.Done():
					return
				}

				s, err := Compute(target.Coord, req.Location, results[di].Date, req.Window, req.Zone)
				if err != nil {
					mu.Lock()
					if firstErr == nil {
						firstErr = err
					}
					mu.Unlock()
					return
				}
				s.Target = target.Name
				results[di].Series[ti] = s
			}(di, ti, target)
		}
	}

	wg.Wait()
	if err := ctx.Err(); err != nil {
		span.RecordError(err)
		return nil, err
	}
	if firstErr != nil {
		span.RecordError(firstErr)
		return nil, firstErr
	}

	for i := range results {
		if results[i].Error != "" {
			continue
		}
		results[i].Summaries = make([]Summary, len(results[i].Series))
		for j, s := range results[i].Series {
			results[i].Summaries[j] = Summarize(s, req.MinAltitude)
		}
	}

	metrics.ObserveComputeDuration(time.Since(start).Seconds())
	return results, nil
}

func zoneOrDefault(z *time.Location) *time.Location {
	if z == nil {
		return DefaultZone
	}
	return z
}
