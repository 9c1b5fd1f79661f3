// Package resolver turns a target name into an ICRS coordinate. It asks a
// general name resolver first and falls back to the AAVSO variable-star
// catalog, which knows many faint variables the general services miss.
package resolver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/star/elevplot/internal/coord"
	"github.com/star/elevplot/internal/metrics"
)

const tracerName = "github.com/star/elevplot/internal/resolver"

// Source names the service that produced a coordinate.
type Source string

const (
	SourceSesame Source = "sesame"
	SourceVSX    Source = "vsx"
)

// Lookup is one resolution step.
type Lookup interface {
	Lookup(ctx context.Context, name string) (coord.Coordinate, error)
}

// ResolutionError reports that no step produced a coordinate for Name.
// Err is the last underlying cause, if any step failed rather than
// simply finding nothing.
type ResolutionError struct {
	Name string
	Err  error
}

func (e *ResolutionError) Error() string {
	if e.Err == nil || errors.Is(e.Err, errNotFound) {
		return fmt.Sprintf("coordinates for %q not found", e.Name)
	}
	return fmt.Sprintf("coordinates for %q not found: %v", e.Name, e.Err)
}

func (e *ResolutionError) Unwrap() error { return e.Err }

type step struct {
	source Source
	lookup Lookup
}

// Resolver tries its steps in order and returns the first coordinate found.
type Resolver struct {
	steps  []step
	logger *slog.Logger
}

// Config selects the endpoints. An empty URL disables that step.
type Config struct {
	SesameURL string
	VSXURL    string
	Timeout   time.Duration
}

// New builds a Resolver with Sesame first and VSX as the fallback.
func New(cfg Config, logger *slog.Logger) *Resolver {
	r := &Resolver{logger: logger}
	if cfg.SesameURL != "" {
		r.steps = append(r.steps, step{SourceSesame, NewSesame(cfg.SesameURL, cfg.Timeout)})
	}
	if cfg.VSXURL != "" {
		r.steps = append(r.steps, step{SourceVSX, NewVSX(cfg.VSXURL, cfg.Timeout)})
	}
	return r
}

// WithStep appends a custom step. Used by tests and by callers that add
// a local catalog ahead of the network.
func (r *Resolver) WithStep(source Source, l Lookup) *Resolver {
	r.steps = append(r.steps, step{source, l})
	return r
}

// Sources lists the enabled steps in order.
func (r *Resolver) Sources() []Source {
	out := make([]Source, len(r.steps))
	for i, s := range r.steps {
		out[i] = s.source
	}
	return out
}

// Resolve returns the coordinate of name and the source that produced it.
// Every failure is a *ResolutionError so callers can offer manual entry.
func (r *Resolver) Resolve(ctx context.Context, name string) (coord.Coordinate, Source, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return coord.Coordinate{}, "", &ResolutionError{Name: name, Err: coord.NewInputError("name", "", "must not be empty")}
	}

	ctx, span := otel.Tracer(tracerName).Start(ctx, "resolver.Resolve")
	defer span.End()
	span.SetAttributes(attribute.String("target.name", name))

	var lastErr error
	for _, s := range r.steps {
		c, err := r.try(ctx, s, name)
		if err == nil {
			span.SetAttributes(attribute.String("resolver.source", string(s.source)))
			return c, s.source, nil
		}
		if ctx.Err() != nil {
			span.SetStatus(codes.Error, ctx.Err().Error())
			return coord.Coordinate{}, "", &ResolutionError{Name: name, Err: ctx.Err()}
		}
		lastErr = err
	}

	span.SetStatus(codes.Error, "unresolved")
	return coord.Coordinate{}, "", &ResolutionError{Name: name, Err: lastErr}
}

func (r *Resolver) try(ctx context.Context, s step, name string) (coord.Coordinate, error) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "resolver."+string(s.source))
	defer span.End()

	start := time.Now()
	c, err := s.lookup.Lookup(ctx, name)
	elapsed := time.Since(start)

	switch {
	case err == nil:
		metrics.RecordResolve(string(s.source), "resolved")
		r.logger.Info("target resolved",
			"name", name,
			"source", s.source,
			"ra", coord.FormatRA(c.RAHours),
			"dec", coord.FormatDec(c.DecDeg),
			"duration_ms", elapsed.Milliseconds(),
		)
	case errors.Is(err, errNotFound):
		metrics.RecordResolve(string(s.source), "unresolved")
		r.logger.Debug("target not found", "name", name, "source", s.source, "reason", err)
	default:
		metrics.RecordResolve(string(s.source), "error")
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		r.logger.Warn("resolver lookup failed", "name", name, "source", s.source, "error", err)
	}
	return c, err
}
