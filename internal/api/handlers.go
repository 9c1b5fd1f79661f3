package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/star/elevplot/internal/coord"
	"github.com/star/elevplot/internal/elevation"
	"github.com/star/elevplot/internal/plot"
	"github.com/star/elevplot/internal/resolver"
	"github.com/star/elevplot/internal/session"
	"github.com/star/elevplot/internal/targets"
	"github.com/star/elevplot/internal/transform"
)

// Observer defaults used when a request leaves a field out.
const (
	DefaultLat       = 34.655
	DefaultLon       = 133.583
	DefaultHeight    = 500.0
	DefaultStartHour = 23.0
	DefaultEndHour   = 28.0

	maxBodyBytes = 64 << 10
	maxDates     = 31
)

type handlers struct {
	logger   *slog.Logger
	resolver Resolver
	sessions *session.Manager
	zone     *time.Location
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError maps domain errors to status codes: *coord.InputError is 400,
// *resolver.ResolutionError is 404, anything else is 500.
func (h *handlers) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var ie *coord.InputError
	var re *resolver.ResolutionError
	switch {
	case errors.As(err, &ie):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": ie.Error(), "field": ie.Field})
	case errors.As(err, &re):
		writeJSON(w, http.StatusNotFound, map[string]string{
			"error": re.Error(),
			"name":  re.Name,
			"hint":  "enter RA and Dec manually",
		})
	default:
		h.logger.Error("request failed", "path", r.URL.Path, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}
}

type targetView struct {
	Name    string  `json:"name"`
	RA      string  `json:"ra"`
	Dec     string  `json:"dec"`
	RAHours float64 `json:"ra_hours"`
	DecDeg  float64 `json:"dec_deg"`
}

func viewOf(t targets.Target) targetView {
	return targetView{Name: t.Name, RA: t.RA, Dec: t.Dec, RAHours: t.Coord.RAHours, DecDeg: t.Coord.DecDeg}
}

// GET /api/v1/resolve?name=T+CrB
func (h *handlers) resolve(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimSpace(r.URL.Query().Get("name"))
	if name == "" {
		h.writeError(w, r, coord.NewInputError("name", "", "must not be empty"))
		return
	}

	c, src, err := h.resolver.Resolve(r.Context(), name)
	if err != nil {
		h.logger.Warn("target not resolved", "name", name, "error", err)
		h.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"name":     name,
		"ra":       coord.FormatRA(c.RAHours),
		"dec":      coord.FormatDec(c.DecDeg),
		"ra_hours": c.RAHours,
		"dec_deg":  c.DecDeg,
		"source":   src,
	})
}

// GET /api/v1/targets
func (h *handlers) listTargets(w http.ResponseWriter, r *http.Request) {
	store := h.sessions.Get(w, r)
	list := store.List()
	views := make([]targetView, len(list))
	for i, t := range list {
		views[i] = viewOf(t)
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"targets":           views,
		"default_selection": store.DefaultSelection(),
	})
}

type addTargetRequest struct {
	Name string `json:"name"`
	RA   string `json:"ra"`
	Dec  string `json:"dec"`
}

// POST /api/v1/targets
func (h *handlers) addTarget(w http.ResponseWriter, r *http.Request) {
	var req addTargetRequest
	if err := decodeBody(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	store := h.sessions.Get(w, r)
	t, err := store.Add(req.Name, req.RA, req.Dec)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.logger.Info("target added", "name", t.Name, "ra", t.RA, "dec", t.Dec)
	writeJSON(w, http.StatusCreated, viewOf(t))
}

type elevationRequest struct {
	Targets     []string `json:"targets"`
	Dates       string   `json:"dates"`
	Lat         *float64 `json:"lat"`
	Lon         *float64 `json:"lon"`
	Height      *float64 `json:"height"`
	StartHour   *float64 `json:"start_hour"`
	EndHour     *float64 `json:"end_hour"`
	MinAltitude float64  `json:"min_altitude"`
	PressureHPa float64  `json:"pressure_hpa"`
	TempC       float64  `json:"temperature_c"`
}

func orDefault(p *float64, def float64) float64 {
	if p == nil {
		return def
	}
	return *p
}

type elevationResponse struct {
	Zone     string                 `json:"zone"`
	Location transform.Location     `json:"location"`
	Window   elevation.Window       `json:"window"`
	Results  []elevation.DateResult `json:"results"`
}

// POST /api/v1/elevation
func (h *handlers) computeElevation(w http.ResponseWriter, r *http.Request) {
	var req elevationRequest
	if err := decodeBody(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	store := h.sessions.Get(w, r)
	names := req.Targets
	if len(names) == 0 {
		names = store.DefaultSelection()
	}
	ts, err := store.Lookup(names)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	dates := elevation.SplitDates(req.Dates)
	if len(dates) > maxDates {
		h.writeError(w, r, coord.NewInputError("dates", "", fmt.Sprintf("at most %d dates per request", maxDates)))
		return
	}

	er := elevation.Request{
		Targets: targets.ForElevation(ts),
		Dates:   dates,
		Location: transform.Location{
			LatDeg:      orDefault(req.Lat, DefaultLat),
			LonDeg:      orDefault(req.Lon, DefaultLon),
			HeightM:     orDefault(req.Height, DefaultHeight),
			PressureHPa: req.PressureHPa,
			TempC:       req.TempC,
		},
		Window: elevation.Window{
			Start: orDefault(req.StartHour, DefaultStartHour),
			End:   orDefault(req.EndHour, DefaultEndHour),
		},
		Zone:        h.zone,
		MinAltitude: req.MinAltitude,
	}

	results, err := elevation.ComputeAll(r.Context(), er)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	zoneName, _ := time.Now().In(h.zone).Zone()
	writeJSON(w, http.StatusOK, elevationResponse{
		Zone:     zoneName,
		Location: er.Location,
		Window:   er.Window,
		Results:  results,
	})
}

// GET /api/v1/plot?date=2025-09-26&targets=AG+Peg,SS+Lep&format=svg
func (h *handlers) plotImage(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	date := strings.TrimSpace(q.Get("date"))
	if date == "" {
		h.writeError(w, r, coord.NewInputError("date", "", "must not be empty"))
		return
	}
	format, err := plot.ParseFormat(q.Get("format"))
	if err != nil {
		h.writeError(w, r, coord.NewInputError("format", q.Get("format"), "want png or svg"))
		return
	}

	var floats [5]float64
	for i, p := range []struct {
		key string
		def float64
	}{
		{"lat", DefaultLat},
		{"lon", DefaultLon},
		{"height", DefaultHeight},
		{"start", DefaultStartHour},
		{"end", DefaultEndHour},
	} {
		v, err := queryFloat(q.Get(p.key), p.key, p.def)
		if err != nil {
			h.writeError(w, r, err)
			return
		}
		floats[i] = v
	}

	store := h.sessions.Get(w, r)
	names := targetNames(store, q["targets"])
	if len(names) == 0 {
		names = store.DefaultSelection()
	}
	ts, err := store.Lookup(names)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	win := elevation.Window{Start: floats[3], End: floats[4]}
	results, err := elevation.ComputeAll(r.Context(), elevation.Request{
		Targets:  targets.ForElevation(ts),
		Dates:    []string{date},
		Location: transform.Location{LatDeg: floats[0], LonDeg: floats[1], HeightM: floats[2]},
		Window:   win,
		Zone:     h.zone,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if results[0].Error != "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": results[0].Error, "field": "date"})
		return
	}

	var buf bytes.Buffer
	if err := plot.Render(&buf, plot.FromSeries(date, results[0].Series, win, h.zone), format); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		return coord.NewInputError("body", "", fmt.Sprintf("malformed JSON: %v", err))
	}
	return nil
}

func queryFloat(raw, field string, def float64) (float64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, coord.NewInputError(field, raw, "not a number")
	}
	return v, nil
}

// targetNames reads the targets query parameter. Repeated parameters carry
// one name each, so names may contain commas. A single value is also read as
// a comma-separated list unless it names a stored target as a whole.
func targetNames(store *targets.Store, values []string) []string {
	if len(values) == 1 {
		if name := strings.TrimSpace(values[0]); name != "" {
			if _, ok := store.Get(name); ok {
				return []string{name}
			}
		}
		return splitList(values[0])
	}
	var out []string
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
