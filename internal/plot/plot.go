// Package plot renders elevation charts, one per observing date.
package plot

import (
	"fmt"
	"io"
	"strings"
	"time"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"

	"github.com/star/elevplot/internal/elevation"
	"github.com/star/elevplot/internal/metrics"
)

// Format is an output image format.
type Format string

const (
	PNG Format = "png"
	SVG Format = "svg"
)

const (
	width  = 10 * vg.Inch
	height = 6 * vg.Inch
)

// ParseFormat accepts "png" or "svg", case-insensitively. Empty means PNG.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case "", PNG:
		return PNG, nil
	case SVG:
		return SVG, nil
	}
	return "", fmt.Errorf("unsupported image format %q (want png or svg)", s)
}

// ContentType returns the MIME type for f.
func (f Format) ContentType() string {
	if f == SVG {
		return "image/svg+xml"
	}
	return "image/png"
}

// Line is one target's altitude curve.
type Line struct {
	Name      string
	Hours     []float64
	Altitudes []float64
}

// Chart is everything needed to draw one date.
type Chart struct {
	Title      string
	Date       string
	Start, End float64 // x range in local hours
	Lines      []Line
}

// FromSeries builds a chart for one date. zone is only used for the title.
func FromSeries(date string, series []elevation.Series, w elevation.Window, zone *time.Location) Chart {
	zoneName := "UTC"
	if zone != nil {
		zoneName, _ = time.Date(2000, 1, 1, 0, 0, 0, 0, zone).Zone()
	}
	c := Chart{
		Title: fmt.Sprintf("Elevation on %s [%s]", date, zoneName),
		Date:  date,
		Start: w.Start,
		End:   w.End,
		Lines: make([]Line, 0, len(series)),
	}
	for _, s := range series {
		l := Line{
			Name:      s.Target,
			Hours:     make([]float64, len(s.Samples)),
			Altitudes: make([]float64, len(s.Samples)),
		}
		for i, p := range s.Samples {
			l.Hours[i] = p.Hour
			l.Altitudes[i] = p.AltitudeDeg
		}
		c.Lines = append(c.Lines, l)
	}
	return c
}

// Render draws the chart in the given format. The y axis is fixed to
// 0..90 degrees so curves below the horizon are clipped.
func Render(w io.Writer, c Chart, format Format) error {
	start := time.Now()

	p := plot.New()
	p.Title.Text = c.Title
	p.X.Label.Text = "Time [hour]"
	p.Y.Label.Text = "Elevation [deg]"
	p.Add(plotter.NewGrid())
	p.Legend.Top = true

	for i, l := range c.Lines {
		if len(l.Hours) != len(l.Altitudes) {
			return fmt.Errorf("line %q: %d hours but %d altitudes", l.Name, len(l.Hours), len(l.Altitudes))
		}
		if len(l.Hours) == 0 {
			continue
		}
		xys := make(plotter.XYs, len(l.Hours))
		for j := range l.Hours {
			xys[j].X = l.Hours[j]
			xys[j].Y = l.Altitudes[j]
		}
		line, err := plotter.NewLine(xys)
		if err != nil {
			return fmt.Errorf("line %q: %w", l.Name, err)
		}
		line.Color = plotutil.Color(i)
		line.Width = vg.Points(1.5)
		p.Add(line)
		p.Legend.Add(l.Name, line)
	}

	// Set after Add, which widens the ranges to the data.
	p.X.Min, p.X.Max = c.Start, c.End
	p.Y.Min, p.Y.Max = 0, 90

	wt, err := p.WriterTo(width, height, string(format))
	if err != nil {
		return fmt.Errorf("create %s canvas: %w", format, err)
	}
	if _, err := wt.WriteTo(w); err != nil {
		return fmt.Errorf("write %s: %w", format, err)
	}

	metrics.ObservePlotRender(string(format), time.Since(start).Seconds())
	return nil
}
