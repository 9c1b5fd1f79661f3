package transform

import "math"

// Nutation holds the nutation in longitude and obliquity together with the
// mean obliquity of the ecliptic, all in radians.
type Nutation struct {
	DeltaPsi     float64
	DeltaEpsilon float64
	MeanEpsilon  float64
}

// TrueEpsilon returns the true obliquity ε = ε0 + Δε.
func (n Nutation) TrueEpsilon() float64 {
	return n.MeanEpsilon + n.DeltaEpsilon
}

// EquationOfEquinoxes returns Δψ·cos ε in radians (GAST - GMST).
func (n Nutation) EquationOfEquinoxes() float64 {
	return n.DeltaPsi * math.Cos(n.TrueEpsilon())
}

// NutationAt evaluates the four-term series for nutation, accurate to about
// 0.5" in Δψ and 0.1" in Δε, and the IAU mean obliquity.
//
// Reference: Meeus ch. 22.
func NutationAt(jd float64) Nutation {
	T := julianCenturies(jd)

	omega := (125.04452 - 1934.136261*T) * deg2rad // Moon's ascending node
	L := (280.4665 + 36000.7698*T) * deg2rad       // Sun mean longitude
	Lm := (218.3165 + 481267.8813*T) * deg2rad     // Moon mean longitude

	dpsi := -17.20*math.Sin(omega) - 1.32*math.Sin(2*L) - 0.23*math.Sin(2*Lm) + 0.21*math.Sin(2*omega)
	deps := 9.20*math.Cos(omega) + 0.57*math.Cos(2*L) + 0.10*math.Cos(2*Lm) - 0.09*math.Cos(2*omega)

	// 23°26'21.448"
	eps0 := 84381.448 - 46.8150*T - 0.00059*T*T + 0.001813*T*T*T

	return Nutation{
		DeltaPsi:     dpsi * arcsec2rad,
		DeltaEpsilon: deps * arcsec2rad,
		MeanEpsilon:  eps0 * arcsec2rad,
	}
}

// Nutate applies nutation to a mean-of-date position (Meeus Eq. 23.1).
func (n Nutation) Nutate(raRad, decRad float64) (float64, float64) {
	eps := n.TrueEpsilon()
	sinRA, cosRA := math.Sincos(raRad)
	cosDec := math.Cos(decRad)
	if math.Abs(cosDec) < 1e-12 {
		return raRad, decRad
	}
	tanDec := math.Tan(decRad)

	dRA := (math.Cos(eps)+math.Sin(eps)*sinRA*tanDec)*n.DeltaPsi - cosRA*tanDec*n.DeltaEpsilon
	dDec := math.Sin(eps)*cosRA*n.DeltaPsi + sinRA*n.DeltaEpsilon

	return normalizeRad(raRad + dRA), clampDec(decRad + dDec)
}

func clampDec(d float64) float64 {
	return math.Max(-math.Pi/2, math.Min(math.Pi/2, d))
}
