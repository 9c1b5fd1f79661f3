// Package transform converts ICRS star positions into an observer's local
// horizontal frame (altitude/azimuth).
//
// Chain: ICRS (J2000) → precession to mean of date → nutation → annual
// aberration → hour angle from apparent sidereal time → diurnal aberration →
// altitude/azimuth on the geodetic horizon → optional refraction.
//
// Method: classical Meeus/Vallado series. Proper motion, parallax, light
// deflection and polar motion are ignored; the combined error for a star is a
// few arcseconds, well below what an elevation plot can show.
//
// Reference: Meeus, "Astronomical Algorithms", 2nd ed., chapters 12-23.
package transform

import (
	"math"
	"time"
)

// Horizontal holds a position in the observer's horizontal frame.
type Horizontal struct {
	AltitudeDeg float64 // 0 = horizon, 90 = zenith
	AzimuthDeg  float64 // 0 = North, clockwise
}

// EquatorialToHorizontal converts an hour angle and declination to altitude
// and azimuth for an observer at geodetic latitude latRad. No refraction.
func EquatorialToHorizontal(haRad, decRad, latRad float64) Horizontal {
	sinLat, cosLat := math.Sincos(latRad)
	sinDec, cosDec := math.Sincos(decRad)
	sinHA, cosHA := math.Sincos(haRad)

	sinAlt := sinLat*sinDec + cosLat*cosDec*cosHA
	sinAlt = math.Max(-1, math.Min(1, sinAlt))
	alt := math.Asin(sinAlt)

	// Azimuth measured clockwise from North.
	az := math.Atan2(-cosDec*sinHA, sinDec*cosLat-cosDec*cosHA*sinLat)
	az = normalizeRad(az)

	return Horizontal{
		AltitudeDeg: alt * rad2deg,
		AzimuthDeg:  az * rad2deg,
	}
}

// Apparent carries a star's apparent place of date; reused across observers
// at the same instant.
type Apparent struct {
	RARad  float64
	DecRad float64
	GAST   float64 // radians
}

// ApparentPlace applies precession, nutation and annual aberration to an ICRS
// position at time t.
func ApparentPlace(raRad, decRad float64, t time.Time) Apparent {
	jd := JulianDate(t)
	n := NutationAt(jd)

	ra, dec := Precess(raRad, decRad, jd)
	ra, dec = n.Nutate(ra, dec)
	ra, dec = AnnualAberration(ra, dec, jd, n)

	return Apparent{
		RARad:  ra,
		DecRad: dec,
		GAST:   normalizeRad(gmstJD(jd) + n.EquationOfEquinoxes()),
	}
}

// Observe projects an apparent place onto the horizon of loc.
func (a Apparent) Observe(loc Location) Horizontal {
	lon := loc.LonDeg * deg2rad
	ha := a.GAST + lon - a.RARad

	ra, dec := DiurnalAberration(a.RARad, a.DecRad, ha, loc.RhoCosPhi())
	ha = a.GAST + lon - ra

	h := EquatorialToHorizontal(ha, dec, loc.LatDeg*deg2rad)
	h.AltitudeDeg += Refraction(h.AltitudeDeg, loc.PressureHPa, loc.TempC)
	if h.AltitudeDeg > 90 {
		h.AltitudeDeg = 90
	}
	return h
}

// ICRSToHorizontal is the full transform for one star, one site, one instant.
func ICRSToHorizontal(raRad, decRad float64, loc Location, t time.Time) Horizontal {
	return ApparentPlace(raRad, decRad, t).Observe(loc)
}
