package coord

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ParseRA parses a right ascension in hours. Sexagesimal input may be
// separated by spaces, colons or h/m/s markers; a single number is taken as
// decimal hours.
func ParseRA(s string) (float64, error) {
	raw := s
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, NewInputError("ra", raw, "empty")
	}
	if strings.HasPrefix(s, "-") || strings.HasPrefix(s, "+") {
		return 0, NewInputError("ra", raw, "right ascension takes no sign")
	}

	parts, err := splitFields(s, "hms")
	if err != nil {
		return 0, NewInputError("ra", raw, err.Error())
	}
	h, err := combine(parts, 24)
	if err != nil {
		return 0, NewInputError("ra", raw, err.Error())
	}
	if h >= 24 {
		return 0, NewInputError("ra", raw, "must be less than 24 hours")
	}
	return h, nil
}

// ParseDec parses a declination in degrees. The sign applies to the whole
// value, so "-00 30 00" is -0.5.
func ParseDec(s string) (float64, error) {
	raw := s
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, NewInputError("dec", raw, "empty")
	}

	sign := 1.0
	switch s[0] {
	case '-':
		sign = -1
		s = strings.TrimSpace(s[1:])
	case '+':
		s = strings.TrimSpace(s[1:])
	}
	if s == "" {
		return 0, NewInputError("dec", raw, "missing value after sign")
	}

	parts, err := splitFields(s, "dms")
	if err != nil {
		return 0, NewInputError("dec", raw, err.Error())
	}
	d, err := combine(parts, 90)
	if err != nil {
		return 0, NewInputError("dec", raw, err.Error())
	}
	if d > 90 {
		return 0, NewInputError("dec", raw, "must be within ±90 degrees")
	}
	return sign * d, nil
}

// splitFields breaks a sexagesimal string into at most three numeric fields.
// units holds the three marker letters accepted as separators (e.g. "hms").
func splitFields(s, units string) ([]float64, error) {
	s = strings.ToLower(s)
	s = strings.Map(func(r rune) rune {
		switch {
		case r == ':' || r == '\t':
			return ' '
		case r == '°' || r == '\'' || r == '"':
			return ' '
		case strings.ContainsRune(units, r):
			return ' '
		}
		return r
	}, s)

	fields := strings.Fields(s)
	if len(fields) == 0 {
		return nil, fmt.Errorf("no numeric fields")
	}
	if len(fields) > 3 {
		return nil, fmt.Errorf("expected at most 3 fields, got %d", len(fields))
	}

	out := make([]float64, len(fields))
	for i, f := range fields {
		if strings.HasPrefix(f, "-") || strings.HasPrefix(f, "+") {
			return nil, fmt.Errorf("sign only allowed at the start")
		}
		v, err := strconv.ParseFloat(f, 64)
		if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, fmt.Errorf("field %q is not a number", f)
		}
		out[i] = v
	}
	return out, nil
}

// combine folds [major, minutes, seconds] into a decimal value. Only the last
// field may carry a fraction.
func combine(parts []float64, majorMax float64) (float64, error) {
	for i, v := range parts[:len(parts)-1] {
		if v != math.Trunc(v) {
			return 0, fmt.Errorf("field %d must be an integer when followed by more fields", i+1)
		}
	}
	if parts[0] > majorMax {
		return 0, fmt.Errorf("value %g out of range", parts[0])
	}
	v := parts[0]
	if len(parts) > 1 {
		if parts[1] >= 60 {
			return 0, fmt.Errorf("minutes %g must be less than 60", parts[1])
		}
		v += parts[1] / 60
	}
	if len(parts) > 2 {
		if parts[2] >= 60 {
			return 0, fmt.Errorf("seconds %g must be less than 60", parts[2])
		}
		v += parts[2] / 3600
	}
	return v, nil
}

// FormatRA renders hours as "HH:MM:SS.ss" (two decimals on seconds).
func FormatRA(hours float64) string {
	hours = math.Mod(hours, 24)
	if hours < 0 {
		hours += 24
	}
	// centiseconds of time; rounding may carry into 24h.
	cs := int64(math.Round(hours * 3600 * 100))
	cs %= 24 * 3600 * 100
	h := cs / (3600 * 100)
	cs -= h * 3600 * 100
	m := cs / (60 * 100)
	cs -= m * 60 * 100
	return fmt.Sprintf("%02d:%02d:%02d.%02d", h, m, cs/100, cs%100)
}

// FormatDec renders degrees as "±DD:MM:SS.s" (one decimal on seconds, sign
// always present).
func FormatDec(deg float64) string {
	sign := "+"
	if deg < 0 {
		sign = "-"
		deg = -deg
	}
	ds := int64(math.Round(deg * 3600 * 10))
	d := ds / (3600 * 10)
	ds -= d * 3600 * 10
	m := ds / (60 * 10)
	ds -= m * 60 * 10
	if d == 0 && m == 0 && ds == 0 {
		sign = "+"
	}
	return fmt.Sprintf("%s%02d:%02d:%02d.%d", sign, d, m, ds/10, ds%10)
}
