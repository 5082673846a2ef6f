package vertical

import "math"

// Physical constants shared by the vertical-axis conversions.
const (
	stdTemperature  = 288.15   // [K]
	stdPressure     = 1013.25  // [hPa]
	molarGas        = 8.314472 // [J mol-1 K-1]
	meanMolarMass   = 28.9644  // mean molar mass of air [g/mol]
	gravAccel45     = 9.80665  // gravitational acceleration at 45 deg latitude [m s-2]
	toaAltitude     = 120000.0 // top of atmosphere [m]
	degreesToRadian = math.Pi / 180.0
)

// gravityAtSurface returns the WGS84 gravitational acceleration [m s-2] at
// sea level for the given latitude [degree_north] (Somigliana equation).
func gravityAtSurface(latitude float64) float64 {
	sin2 := math.Sin(latitude * degreesToRadian)
	sin2 *= sin2
	return 9.7803253359 * (1 + 0.00193185265241*sin2) / math.Sqrt(1-0.00669437999013*sin2)
}

// curvatureRadius returns the local curvature radius [m] of the WGS84
// ellipsoid at the given latitude [degree_north].
func curvatureRadius(latitude float64) float64 {
	sin2 := math.Sin(latitude * degreesToRadian)
	sin2 *= sin2
	return 6378137.0 / (1.006803 - 0.006706*sin2)
}

// gravityAtHeight returns the gravitational acceleration [m s-2] at the
// given latitude [degree_north] and height above the surface [m].
func gravityAtHeight(latitude, height float64) float64 {
	r := curvatureRadius(latitude)
	f := r / (r + height)
	return gravityAtSurface(latitude) * f * f
}

// altitudeFromGPH converts geopotential height [m] to geometric altitude [m]
// at the given latitude [degree_north].
func altitudeFromGPH(gph, latitude float64) float64 {
	gsurf := gravityAtSurface(latitude)
	rsurf := curvatureRadius(latitude)
	return gravAccel45 * rsurf * gph / (gsurf*rsurf - gravAccel45*gph)
}

// gphFromAltitude converts geometric altitude [m] to geopotential height [m]
// at the given latitude [degree_north].
func gphFromAltitude(altitude, latitude float64) float64 {
	gsurf := gravityAtSurface(latitude)
	rsurf := curvatureRadius(latitude)
	return gsurf / gravAccel45 * rsurf * altitude / (altitude + rsurf)
}

// gphFromPressure estimates geopotential height [m] from pressure [hPa]
// using constant model-atmosphere values. Rather inaccurate; only used when
// no temperature information is available.
func gphFromPressure(pressure float64) float64 {
	return ((stdTemperature * molarGas) / (meanMolarMass * gravAccel45)) *
		math.Log(stdPressure/pressure) * 1.0e3
}

// altitudeFromPressureTemperature integrates the hypsometric equation to
// convert a pressure profile [hPa] with its temperature profile [K] into an
// altitude profile [m], assuming a standard surface pressure and a surface
// height of zero. The profile may run surface-up or top-down.
func altitudeFromPressureTemperature(pressure, temperature []float64, latitude float64, altitude []float64) {
	numLevels := len(pressure)
	var z, prevZ, prevP, prevT float64

	for i := 0; i < numLevels; i++ {
		k := i
		if pressure[0] < pressure[numLevels-1] {
			// vertical axis is from TOA to surface -> invert the loop index
			k = numLevels - 1 - i
		}

		p := pressure[k]
		t := temperature[k]
		if i == 0 {
			z = ((t * molarGas) / (meanMolarMass * gravityAtSurface(latitude))) *
				math.Log(stdPressure/p)
		} else {
			z = prevZ + ((prevT+t)/(2*meanMolarMass))*
				(molarGas/gravityAtHeight(latitude, prevZ*1.0e3))*
				math.Log(prevP/p)
		}

		altitude[k] = z * 1.0e3 // [km] -> [m]

		prevP = p
		prevT = t
		prevZ = z
	}
}

// pressureFromAltitudeTemperature inverts the hypsometric integration:
// an altitude profile [m] with its temperature profile [K] becomes a
// pressure profile [hPa], assuming a standard surface pressure and a surface
// height of zero.
func pressureFromAltitudeTemperature(altitude, temperature []float64, latitude float64, pressure []float64) {
	numLevels := len(altitude)
	var p, prevZ, prevP, prevT, prevG float64

	for i := 0; i < numLevels; i++ {
		k := i
		if altitude[0] > altitude[numLevels-1] {
			// vertical axis is from TOA to surface -> invert the loop index
			k = numLevels - 1 - i
		}

		z := altitude[k]
		t := temperature[k]
		g := gravityAtHeight(latitude, z)
		if i == 0 {
			prevG = gravityAtSurface(latitude)
			p = stdPressure * math.Exp(-((g+prevG)*meanMolarMass*1e-3*z)/(2*t*molarGas))
		} else {
			p = prevP * math.Exp(-((g+prevG)*2*meanMolarMass*1e-3*(z-prevZ))/(2*(t+prevT)*molarGas))
		}

		pressure[k] = p

		prevG = g
		prevP = p
		prevT = t
		prevZ = z
	}
}

// altitudeBoundsFromAltitude derives per-level [lower,upper] altitude
// boundaries [m] from a profile of level midpoints, clamping against the
// surface and the top of the atmosphere.
func altitudeBoundsFromAltitude(altitude, bounds []float64) error {
	numLevels := len(altitude)
	if numLevels < 2 {
		return errProfileTooShort
	}

	// Signed differences keep the outer boundaries on the outside for both
	// ascending and descending profiles.
	bounds[0] = altitude[0] - 0.5*(altitude[1]-altitude[0])
	for k := 0; k < numLevels-1; k++ {
		average := 0.5 * (altitude[k] + altitude[k+1])
		bounds[2*k+1] = average
		bounds[2*(k+1)] = average
	}
	bounds[2*(numLevels-1)+1] = altitude[numLevels-1] +
		0.5*(altitude[numLevels-1]-altitude[numLevels-2])

	// Keep the lower boundary non-negative and the upper boundary below the
	// top of the atmosphere, unless the profile itself already exceeds them.
	if altitude[0] < altitude[numLevels-1] {
		// ascending
		if bounds[0] < 0 && altitude[0] >= 0 {
			bounds[0] = 0
		}
		if bounds[2*numLevels-1] > toaAltitude && altitude[numLevels-1] < toaAltitude {
			bounds[2*numLevels-1] = toaAltitude
		}
	} else {
		// descending
		if bounds[2*numLevels-1] < 0 && altitude[numLevels-1] >= 0 {
			bounds[2*numLevels-1] = 0
		}
		if bounds[0] > toaAltitude && altitude[0] < toaAltitude {
			bounds[0] = toaAltitude
		}
	}

	return nil
}
