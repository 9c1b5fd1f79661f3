package transform

import "math"

// Refraction returns the atmospheric refraction in degrees to add to a true
// (airless) altitude, using Saemundsson's formula scaled for pressure and
// temperature. Returns 0 when pressure is 0 or the body is well below the
// horizon, where the formula is not meaningful.
//
// Reference: Meeus Eq. 16.4 and the pressure/temperature factor below it.
func Refraction(trueAltDeg, pressureHPa, tempC float64) float64 {
	if pressureHPa <= 0 || trueAltDeg < -1 {
		return 0
	}
	h := trueAltDeg
	// arcminutes
	R := 1.02 / math.Tan((h+10.3/(h+5.11))*deg2rad)
	// Zero at the zenith (Meeus' correction term).
	R += 0.0019279
	R *= (pressureHPa / 1010.0) * (283.0 / (273.0 + tempC))
	if R < 0 {
		return 0
	}
	return R / 60.0
}
