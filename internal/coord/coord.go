// Package coord holds the celestial coordinate type shared by the resolver, the
// target store and the elevation computer, together with sexagesimal parsing
// and formatting.
//
// Coordinates are ICRS right ascension in hours and declination in degrees.
// Accepted input forms:
//
//	"21 51 01.9"   "21:51:01.9"   "21h51m01.9s"   "21.8505"
//	"+12 37 32"    "-07:44:08.1"  "+12d37m32s"    "-7.7356"
package coord

import (
	"fmt"
	"math"
)

// InputError reports a malformed user-supplied value (coordinate, date,
// location or time window). Computation is aborted for the request that
// carried it.
type InputError struct {
	Field  string
	Value  string
	Reason string
}

func (e *InputError) Error() string {
	if e.Value == "" {
		return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
	}
	return fmt.Sprintf("invalid %s %q: %s", e.Field, e.Value, e.Reason)
}

// NewInputError is a shorthand for building an *InputError.
func NewInputError(field, value, reason string) *InputError {
	return &InputError{Field: field, Value: value, Reason: reason}
}

// Coordinate is an ICRS position.
type Coordinate struct {
	RAHours float64 // [0, 24)
	DecDeg  float64 // [-90, 90]
}

// Validate checks that both components are finite and in range.
func (c Coordinate) Validate() error {
	if math.IsNaN(c.RAHours) || math.IsInf(c.RAHours, 0) || c.RAHours < 0 || c.RAHours >= 24 {
		return NewInputError("ra", fmt.Sprintf("%g", c.RAHours), "must be in [0, 24) hours")
	}
	if math.IsNaN(c.DecDeg) || math.IsInf(c.DecDeg, 0) || c.DecDeg < -90 || c.DecDeg > 90 {
		return NewInputError("dec", fmt.Sprintf("%g", c.DecDeg), "must be in [-90, 90] degrees")
	}
	return nil
}

// RARadians returns right ascension in radians.
func (c Coordinate) RARadians() float64 {
	return c.RAHours * 15 * math.Pi / 180
}

// DecRadians returns declination in radians.
func (c Coordinate) DecRadians() float64 {
	return c.DecDeg * math.Pi / 180
}

// String formats the coordinate as "HH:MM:SS.ss ±DD:MM:SS.s".
func (c Coordinate) String() string {
	return FormatRA(c.RAHours) + " " + FormatDec(c.DecDeg)
}

// Parse builds a Coordinate from raw RA and Dec strings.
func Parse(ra, dec string) (Coordinate, error) {
	h, err := ParseRA(ra)
	if err != nil {
		return Coordinate{}, err
	}
	d, err := ParseDec(dec)
	if err != nil {
		return Coordinate{}, err
	}
	return Coordinate{RAHours: h, DecDeg: d}, nil
}
