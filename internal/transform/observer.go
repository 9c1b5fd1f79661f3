package transform

import (
	"fmt"
	"math"
)

// WGS-84 ellipsoid parameters.
const (
	wgs84A  = 6378137.0             // semi-major axis (meters)
	wgs84F  = 1.0 / 298.257223563   // flattening
	wgs84E2 = wgs84F * (2 - wgs84F) // first eccentricity squared
)

// Location bounds.
const (
	MinHeightM = -500.0
	MaxHeightM = 10000.0
)

// Location is a ground observing site. Pressure and temperature feed the
// refraction model; a zero pressure disables refraction.
type Location struct {
	LatDeg      float64 `json:"lat"`    // geodetic, -90..90
	LonDeg      float64 `json:"lon"`    // east positive, -180..180
	HeightM     float64 `json:"height"` // above the WGS-84 ellipsoid
	PressureHPa float64 `json:"pressure_hpa,omitempty"`
	TempC       float64 `json:"temperature_c,omitempty"`
}

// LocationError reports an out-of-range site parameter.
type LocationError struct {
	Field string
	Value float64
	Range string
}

func (e *LocationError) Error() string {
	return fmt.Sprintf("observer %s %g out of range %s", e.Field, e.Value, e.Range)
}

// Validate checks that the site is physically meaningful.
func (l Location) Validate() error {
	if !finite(l.LatDeg) || l.LatDeg < -90 || l.LatDeg > 90 {
		return &LocationError{Field: "latitude", Value: l.LatDeg, Range: "[-90, 90]"}
	}
	if !finite(l.LonDeg) || l.LonDeg < -180 || l.LonDeg > 180 {
		return &LocationError{Field: "longitude", Value: l.LonDeg, Range: "[-180, 180]"}
	}
	if !finite(l.HeightM) || l.HeightM < MinHeightM || l.HeightM > MaxHeightM {
		return &LocationError{Field: "height", Value: l.HeightM, Range: fmt.Sprintf("[%g, %g] m", MinHeightM, MaxHeightM)}
	}
	if !finite(l.PressureHPa) || l.PressureHPa < 0 || l.PressureHPa > 1200 {
		return &LocationError{Field: "pressure", Value: l.PressureHPa, Range: "[0, 1200] hPa"}
	}
	if !finite(l.TempC) || l.TempC < -90 || l.TempC > 60 {
		return &LocationError{Field: "temperature", Value: l.TempC, Range: "[-90, 60] C"}
	}
	return nil
}

// ECEF returns the site position in Earth-centered Earth-fixed meters.
func (l Location) ECEF() (x, y, z float64) {
	lat := l.LatDeg * deg2rad
	lon := l.LonDeg * deg2rad

	sinLat := math.Sin(lat)
	cosLat := math.Cos(lat)

	// Radius of curvature in the prime vertical.
	N := wgs84A / math.Sqrt(1-wgs84E2*sinLat*sinLat)

	x = (N + l.HeightM) * cosLat * math.Cos(lon)
	y = (N + l.HeightM) * cosLat * math.Sin(lon)
	z = (N*(1-wgs84E2) + l.HeightM) * sinLat
	return x, y, z
}

// RhoCosPhi returns the distance from Earth's rotation axis in equatorial
// radii (ρ cos φ' in Meeus' notation).
func (l Location) RhoCosPhi() float64 {
	x, y, _ := l.ECEF()
	return math.Hypot(x, y) / wgs84A
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
