// Command plotcli computes elevation curves without the web server and
// writes one chart per date.
//
//	plotcli -dates 2025-09-26,2025-10-03 -targets "AG Peg,SS Lep" -out charts
//	plotcli -name "T CrB" -resolve -dates 2025-09-26 -format svg
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/joho/godotenv"

	"github.com/star/elevplot/internal/coord"
	"github.com/star/elevplot/internal/elevation"
	"github.com/star/elevplot/internal/plot"
	"github.com/star/elevplot/internal/resolver"
	"github.com/star/elevplot/internal/targets"
	"github.com/star/elevplot/internal/transform"
)

type options struct {
	targets     string
	targetsFile string
	dates       string
	lat, lon    float64
	height      float64
	start, end  float64
	minAlt      float64
	utcOffset   float64
	format      string
	out         string
	name        string
	ra, dec     string
	resolve     bool
	timeout     time.Duration
}

func parseFlags(args []string, stderr io.Writer) (options, error) {
	var o options
	fs := flag.NewFlagSet("plotcli", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&o.targets, "targets", "", "comma-separated target names (default: all defaults)")
	fs.StringVar(&o.targetsFile, "targets-file", "", "YAML target list replacing the built-in defaults")
	fs.StringVar(&o.dates, "dates", "2025-09-26,2025-10-03", "comma-separated dates (YYYY-MM-DD)")
	fs.Float64Var(&o.lat, "lat", 34.655, "observer latitude [deg]")
	fs.Float64Var(&o.lon, "lon", 133.583, "observer longitude [deg, east positive]")
	fs.Float64Var(&o.height, "height", 500, "observer height [m]")
	fs.Float64Var(&o.start, "start", 23, "window start, local hour")
	fs.Float64Var(&o.end, "end", 28, "window end, local hour (may exceed 24)")
	fs.Float64Var(&o.minAlt, "min-alt", 0, "altitude threshold for the summary [deg]")
	fs.Float64Var(&o.utcOffset, "utc-offset", elevation.DefaultUTCOffsetHours, "local zone offset from UTC [hours]")
	fs.StringVar(&o.format, "format", "png", "image format: png or svg")
	fs.StringVar(&o.out, "out", ".", "output directory")
	fs.StringVar(&o.name, "name", "", "custom target name")
	fs.StringVar(&o.ra, "ra", "", "custom target RA (\"HH MM SS.s\")")
	fs.StringVar(&o.dec, "dec", "", "custom target Dec (\"+DD MM SS\")")
	fs.BoolVar(&o.resolve, "resolve", false, "look up -name via Sesame, then VSX")
	fs.DurationVar(&o.timeout, "timeout", resolver.DefaultTimeout, "resolver timeout")
	if err := fs.Parse(args); err != nil {
		return o, err
	}
	if o.utcOffset < elevation.MinUTCOffsetHours || o.utcOffset > elevation.MaxUTCOffsetHours || math.IsNaN(o.utcOffset) {
		err := fmt.Errorf("-utc-offset %v out of range [%d, %d]", o.utcOffset, elevation.MinUTCOffsetHours, elevation.MaxUTCOffsetHours)
		fmt.Fprintln(stderr, err)
		return o, err
	}
	if o.resolve && strings.TrimSpace(o.name) == "" {
		err := errors.New("-resolve needs -name")
		fmt.Fprintln(stderr, err)
		return o, err
	}
	return o, nil
}

func main() {
	godotenv.Load()
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))

	o, err := parseFlags(os.Args[1:], os.Stderr)
	if err != nil {
		os.Exit(2)
	}
	if err := run(context.Background(), o, os.Stdout, logger); err != nil {
		fmt.Fprintln(os.Stderr, "ERROR:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, o options, stdout io.Writer, logger *slog.Logger) error {
	format, err := plot.ParseFormat(o.format)
	if err != nil {
		return err
	}

	defaults := targets.Defaults()
	if o.targetsFile != "" {
		if defaults, err = targets.LoadFile(o.targetsFile); err != nil {
			return err
		}
	}
	store := targets.NewStore(defaults)

	names := splitList(o.targets)
	if o.name != "" {
		if err := addCustom(ctx, store, o, stdout, logger); err != nil {
			return err
		}
		names = append(names, strings.TrimSpace(o.name))
	}
	if len(names) == 0 {
		names = store.DefaultSelection()
	}
	ts, err := store.Lookup(names)
	if err != nil {
		return err
	}

	zone := elevation.FixedZone(o.utcOffset)
	win := elevation.Window{Start: o.start, End: o.end}
	results, err := elevation.ComputeAll(ctx, elevation.Request{
		Targets:     targets.ForElevation(ts),
		Dates:       elevation.SplitDates(o.dates),
		Location:    transform.Location{LatDeg: o.lat, LonDeg: o.lon, HeightM: o.height},
		Window:      win,
		Zone:        zone,
		MinAltitude: o.minAlt,
	})
	if err != nil {
		return err
	}

	if err := os.MkdirAll(o.out, 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	failed := 0
	for _, r := range results {
		if r.Error != "" {
			fmt.Fprintf(stdout, "%s: %s\n", r.Date, r.Error)
			failed++
			continue
		}
		path := filepath.Join(o.out, fmt.Sprintf("elevation_%s.%s", r.Date, format))
		if err := writeChart(path, plot.FromSeries(r.Date, r.Series, win, zone), format); err != nil {
			return err
		}
		fmt.Fprintf(stdout, "\n%s -> %s\n", r.Date, path)
		printSummaries(stdout, r.Summaries)
	}
	if failed == len(results) {
		return fmt.Errorf("no valid dates")
	}
	return nil
}

// addCustom adds the -name target, resolving it first when -resolve is set
// and falling back to -ra/-dec when the lookup fails.
func addCustom(ctx context.Context, store *targets.Store, o options, stdout io.Writer, logger *slog.Logger) error {
	ra, dec := o.ra, o.dec
	if o.resolve {
		res := resolver.New(resolver.Config{
			SesameURL: resolver.DefaultSesameURL,
			VSXURL:    resolver.DefaultVSXURL,
			Timeout:   o.timeout,
		}, logger)
		c, src, err := res.Resolve(ctx, o.name)
		switch {
		case err == nil:
			ra, dec = coord.FormatRA(c.RAHours), coord.FormatDec(c.DecDeg)
			fmt.Fprintf(stdout, "%s resolved via %s: %s %s\n", o.name, src, ra, dec)
		case ra != "" && dec != "":
			fmt.Fprintf(stdout, "%s not resolved (%v), using -ra/-dec\n", o.name, err)
		default:
			return fmt.Errorf("%w; pass -ra and -dec to enter coordinates manually", err)
		}
	}
	_, err := store.Add(o.name, ra, dec)
	return err
}

func writeChart(path string, c plot.Chart, format plot.Format) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := plot.Render(f, c, format); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func hourString(h *float64) string {
	if h == nil {
		return "-"
	}
	m := int(*h*60 + 0.5)
	return fmt.Sprintf("%02d:%02d", m/60, m%60)
}

func printSummaries(w io.Writer, sums []elevation.Summary) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "TARGET\tMAX ALT\tAT\tRISE\tSET\tMINUTES UP")
	for _, s := range sums {
		at := s.MaxAltitudeAt
		fmt.Fprintf(tw, "%s\t%.1f\t%s\t%s\t%s\t%d\n",
			s.Target, s.MaxAltitude, hourString(&at), hourString(s.RiseHour), hourString(s.SetHour), s.MinutesVisible)
	}
	tw.Flush()
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
