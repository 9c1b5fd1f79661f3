package transform

import "math"

// Precess moves a J2000 (ICRS) equatorial position to the mean equator and
// equinox of date using the IAU 1976 angles ζ, z, θ.
//
// Reference: Meeus, "Astronomical Algorithms", 2nd ed., Eq. 21.3 and 21.4.
func Precess(raRad, decRad, jd float64) (float64, float64) {
	T := julianCenturies(jd)

	zeta := (2306.2181*T + 0.30188*T*T + 0.017998*T*T*T) * arcsec2rad
	z := (2306.2181*T + 1.09468*T*T + 0.018203*T*T*T) * arcsec2rad
	theta := (2004.3109*T - 0.42665*T*T - 0.041833*T*T*T) * arcsec2rad

	cosDec := math.Cos(decRad)
	sinDec := math.Sin(decRad)
	cosTheta := math.Cos(theta)
	sinTheta := math.Sin(theta)
	a := raRad + zeta

	A := cosDec * math.Sin(a)
	B := cosTheta*cosDec*math.Cos(a) - sinTheta*sinDec
	C := sinTheta*cosDec*math.Cos(a) + cosTheta*sinDec

	// asin loses precision near the poles; use the A, B, C norm instead.
	dec := math.Atan2(C, math.Sqrt(A*A+B*B))
	ra := normalizeRad(math.Atan2(A, B) + z)
	return ra, dec
}
