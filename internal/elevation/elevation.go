// Package elevation samples a star's altitude over a night for an observing
// site. A night is a date in the local zone plus a window of clock hours
// (the end may run past 24 to mean "after midnight"); samples are one minute
// apart.
package elevation

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/star/elevplot/internal/coord"
	"github.com/star/elevplot/internal/metrics"
	"github.com/star/elevplot/internal/transform"
)

// Step is the sampling granularity.
const Step = time.Minute

// MaxWindowHours bounds a single window.
const MaxWindowHours = 48

// DateLayout is the accepted calendar date format.
const DateLayout = "2006-01-02"

// DefaultUTCOffsetHours is the fixed local zone the tool was built for (JST).
const DefaultUTCOffsetHours = 9

// Accepted range for a configured UTC offset, in hours.
const (
	MinUTCOffsetHours = -12
	MaxUTCOffsetHours = 14
)

// DefaultZone is the fixed +09:00 zone.
var DefaultZone = FixedZone(DefaultUTCOffsetHours)

// FixedZone builds a fixed-offset zone. +9 is named JST to match the charts
// observers are used to; other offsets are named "UTC+hh:mm".
func FixedZone(offsetHours float64) *time.Location {
	sec := int(math.Round(offsetHours * 3600))
	if sec == 9*3600 {
		return time.FixedZone("JST", sec)
	}
	sign := "+"
	abs := sec
	if sec < 0 {
		sign = "-"
		abs = -sec
	}
	return time.FixedZone(fmt.Sprintf("UTC%s%02d:%02d", sign, abs/3600, (abs%3600)/60), sec)
}

// Window is a span of local clock hours.
type Window struct {
	Start float64 `json:"start_hour"`
	End   float64 `json:"end_hour"`
}

// Validate enforces End > Start, both non-negative, and the length bound.
func (w Window) Validate() error {
	if math.IsNaN(w.Start) || math.IsNaN(w.End) || math.IsInf(w.Start, 0) || math.IsInf(w.End, 0) {
		return coord.NewInputError("window", fmt.Sprintf("%g-%g", w.Start, w.End), "hours must be finite")
	}
	if w.Start < 0 {
		return coord.NewInputError("start_hour", fmt.Sprintf("%g", w.Start), "must not be negative")
	}
	if w.End <= w.Start {
		return coord.NewInputError("end_hour", fmt.Sprintf("%g", w.End), "must be after start hour")
	}
	if w.End-w.Start > MaxWindowHours {
		return coord.NewInputError("end_hour", fmt.Sprintf("%g", w.End), fmt.Sprintf("window longer than %d hours", MaxWindowHours))
	}
	return nil
}

// minuteOffsets returns the minute offsets from local midnight covered by
// the window: start*60, start*60+1, ... while < end*60.
func (w Window) minuteOffsets() []float64 {
	first := w.Start * 60
	last := w.End * 60
	n := int(math.Ceil(last - first - 1e-9))
	out := make([]float64, n)
	for i := range out {
		out[i] = first + float64(i)
	}
	return out
}

// Sample is a single altitude reading.
type Sample struct {
	Hour        float64   `json:"hour"` // local clock hours since midnight of the date
	Time        time.Time `json:"time"` // UTC
	AltitudeDeg float64   `json:"altitude"`
	AzimuthDeg  float64   `json:"azimuth"`
}

// Series is one target's altitude curve for one date.
type Series struct {
	Target  string   `json:"target"`
	Date    string   `json:"date"`
	Samples []Sample `json:"samples"`
}

// ParseDate interprets an ISO date as local midnight in zone.
func ParseDate(date string, zone *time.Location) (time.Time, error) {
	s := strings.TrimSpace(date)
	midnight, err := time.ParseInLocation(DateLayout, s, zone)
	if err != nil {
		return time.Time{}, coord.NewInputError("date", date, "expected YYYY-MM-DD")
	}
	return midnight, nil
}

// SampleTimes returns the UTC instants of every sample in the window for the
// given date, in chronological order, paired with their local clock hour.
func SampleTimes(date string, w Window, zone *time.Location) ([]time.Time, []float64, error) {
	if err := w.Validate(); err != nil {
		return nil, nil, err
	}
	if zone == nil {
		zone = DefaultZone
	}
	midnight, err := ParseDate(date, zone)
	if err != nil {
		return nil, nil, err
	}

	offsets := w.minuteOffsets()
	times := make([]time.Time, len(offsets))
	hours := make([]float64, len(offsets))
	for i, m := range offsets {
		times[i] = midnight.Add(time.Duration(m * float64(time.Minute))).UTC()
		hours[i] = m / 60
	}
	return times, hours, nil
}

// Compute samples the altitude of c from loc over window w on date.
// Bad input is reported as *coord.InputError before any sample is produced.
func Compute(c coord.Coordinate, loc transform.Location, date string, w Window, zone *time.Location) (Series, error) {
	if err := c.Validate(); err != nil {
		return Series{}, err
	}
	if err := loc.Validate(); err != nil {
		return Series{}, coord.NewInputError("location", "", err.Error())
	}
	times, hours, err := SampleTimes(date, w, zone)
	if err != nil {
		return Series{}, err
	}

	ra := c.RARadians()
	dec := c.DecRadians()

	samples := make([]Sample, len(times))
	for i, t := range times {
		h := transform.ICRSToHorizontal(ra, dec, loc, t)
		samples[i] = Sample{
			Hour:        hours[i],
			Time:        t,
			AltitudeDeg: h.AltitudeDeg,
			AzimuthDeg:  h.AzimuthDeg,
		}
	}

	metrics.IncSeriesComputed()
	return Series{Date: strings.TrimSpace(date), Samples: samples}, nil
}
