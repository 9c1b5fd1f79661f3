package transform

import "math"

// kappa is the constant of aberration, 20.49552".
const kappa = 20.49552 * arcsec2rad

// diurnalK is the amplitude of diurnal aberration at the equator, 0.3200".
const diurnalK = 0.3200 * arcsec2rad

// sunTrueLongitude returns the geometric true longitude of the Sun (radians),
// good to about 0.01° (Meeus ch. 25, low accuracy).
func sunTrueLongitude(T float64) float64 {
	L0 := 280.46646 + 36000.76983*T + 0.0003032*T*T
	M := (357.52911 + 35999.05029*T - 0.0001537*T*T) * deg2rad
	C := (1.914602-0.004817*T-0.000014*T*T)*math.Sin(M) +
		(0.019993-0.000101*T)*math.Sin(2*M) +
		0.000289*math.Sin(3*M)
	return normalizeRad((L0 + C) * deg2rad)
}

// AnnualAberration shifts a position of date for the Earth's orbital
// velocity, including the eccentricity terms (Meeus Eq. 23.3).
func AnnualAberration(raRad, decRad, jd float64, n Nutation) (float64, float64) {
	cosDec := math.Cos(decRad)
	if math.Abs(cosDec) < 1e-12 {
		return raRad, decRad
	}

	T := julianCenturies(jd)
	eps := n.TrueEpsilon()
	e := 0.016708634 - 0.000042037*T - 0.0000001267*T*T
	pi := (102.93735 + 1.71946*T + 0.00046*T*T) * deg2rad
	sun := sunTrueLongitude(T)

	sinRA, cosRA := math.Sincos(raRad)
	sinDec := math.Sin(decRad)
	cosEps := math.Cos(eps)
	tanEps := math.Tan(eps)

	dRA := -kappa*(cosRA*math.Cos(sun)*cosEps+sinRA*math.Sin(sun))/cosDec +
		e*kappa*(cosRA*math.Cos(pi)*cosEps+sinRA*math.Sin(pi))/cosDec

	dDec := -kappa*(math.Cos(sun)*cosEps*(tanEps*cosDec-sinRA*sinDec)+cosRA*sinDec*math.Sin(sun)) +
		e*kappa*(math.Cos(pi)*cosEps*(tanEps*cosDec-sinRA*sinDec)+cosRA*sinDec*math.Sin(pi))

	return normalizeRad(raRad + dRA), clampDec(decRad + dDec)
}

// DiurnalAberration shifts an apparent position for the observer's velocity
// due to Earth rotation. rhoCosPhi is the observer's distance from the
// rotation axis in Earth equatorial radii; haRad is the local hour angle.
func DiurnalAberration(raRad, decRad, haRad, rhoCosPhi float64) (float64, float64) {
	cosDec := math.Cos(decRad)
	if math.Abs(cosDec) < 1e-12 {
		return raRad, decRad
	}
	k := diurnalK * rhoCosPhi
	dRA := k * math.Cos(haRad) / cosDec
	dDec := k * math.Sin(haRad) * math.Sin(decRad)
	return normalizeRad(raRad + dRA), clampDec(decRad + dDec)
}
