/*
Copyright © 2020 the InMAP authors.
This file is part of InMAP.

InMAP is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

InMAP is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with InMAP.  If not, see <http://www.gnu.org/licenses/>.
*/

package vertprof

import "math"

// levelOrder returns a function that maps the i-th step of a surface-outward
// walk to a storage index, and the number of levels to walk. Trailing NaN
// values of axis are padding and are not walked. descending tells
// whether the vertical coordinate decreases away from the surface (true
// for pressure, false for altitude or geopotential height). The decision
// is made once from the first and last valid values of axis.
func levelOrder(axis []float64, descending bool) (func(i int) int, int) {
	n := unpaddedLength(axis)
	if n == 0 {
		return func(i int) int { return i }, 0
	}
	topFirst := axis[0] > axis[n-1]
	if descending {
		topFirst = axis[0] < axis[n-1]
	}
	if topFirst {
		return func(i int) int { return n - 1 - i }, n
	}
	return func(i int) int { return i }, n
}

// padLevels sets the levels of out from n onward to NaN.
func padLevels(out []float64, n int) {
	for i := n; i < len(out); i++ {
		out[i] = math.NaN()
	}
}

// ProfileAltitudeFromPressure converts a pressure profile [Pa] to an
// altitude profile [m] by integrating the hydrostatic equation upward
// from the surface. temperature is in [K], molarMassAir in [g/mol],
// surfacePressure in [Pa], surfaceHeight in [m] and latitude in
// [degree_north]. The result is written to altitude in the storage order of
// pressure, which may run from the surface to the top of the atmosphere
// or the other way around. Trailing NaN levels of pressure are padding
// and give NaN altitudes.
func ProfileAltitudeFromPressure(pressure, temperature, molarMassAir []float64, surfacePressure, surfaceHeight, latitude float64, altitude []float64) {
	var prevZ, prevP, prevT, prevM float64
	k, n := levelOrder(pressure, true)
	for i := 0; i < n; i++ {
		ki := k(i)
		p, T, M := pressure[ki], temperature[ki], molarMassAir[ki]
		var z float64
		if i == 0 {
			g := NormalGravityFromLatitude(latitude)
			z = surfaceHeight + 1e3*(T/M)*(rMolar/g)*math.Log(surfacePressure/p)
		} else {
			g := GravityFromLatitudeAndAltitude(latitude, prevZ)
			z = prevZ + 1e3*((prevT+T)/(prevM+M))*(rMolar/g)*math.Log(prevP/p)
		}
		altitude[ki] = z
		prevP, prevT, prevM, prevZ = p, T, M, z
	}
	padLevels(altitude, n)
}

// ProfilePressureFromAltitude converts an altitude profile [m] to a
// pressure profile [Pa]. It is the counterpart of
// ProfileAltitudeFromPressure, with gravity evaluated at the middle of
// each layer.
func ProfilePressureFromAltitude(altitude, temperature, molarMassAir []float64, surfacePressure, surfaceHeight, latitude float64, pressure []float64) {
	var prevZ, prevP, prevT, prevM float64
	k, n := levelOrder(altitude, false)
	for i := 0; i < n; i++ {
		ki := k(i)
		z, T, M := altitude[ki], temperature[ki], molarMassAir[ki]
		var p float64
		if i == 0 {
			g := GravityFromLatitudeAndAltitude(latitude, (z+surfaceHeight)/2)
			p = surfacePressure * math.Exp(-1e-3*(M/T)*(g/rMolar)*(z-surfaceHeight))
		} else {
			g := GravityFromLatitudeAndAltitude(latitude, (prevZ+z)/2)
			p = prevP * math.Exp(-1e-3*((prevM+M)/(prevT+T))*(g/rMolar)*(z-prevZ))
		}
		pressure[ki] = p
		prevP, prevT, prevM, prevZ = p, T, M, z
	}
	padLevels(pressure, n)
}

// ProfileGPHFromPressure converts a pressure profile [Pa] to a
// geopotential height profile [m]. Unlike ProfileAltitudeFromPressure,
// standard gravity is used throughout so no latitude is needed.
func ProfileGPHFromPressure(pressure, temperature, molarMassAir []float64, surfacePressure, surfaceHeight float64, gph []float64) {
	var prevZ, prevP, prevT, prevM float64
	k, n := levelOrder(pressure, true)
	for i := 0; i < n; i++ {
		ki := k(i)
		p, T, M := pressure[ki], temperature[ki], molarMassAir[ki]
		var z float64
		if i == 0 {
			z = surfaceHeight + 1e3*(T/M)*(rMolar/g0)*math.Log(surfacePressure/p)
		} else {
			z = prevZ + 1e3*((prevT+T)/(prevM+M))*(rMolar/g0)*math.Log(prevP/p)
		}
		gph[ki] = z
		prevP, prevT, prevM, prevZ = p, T, M, z
	}
	padLevels(gph, n)
}

// ProfilePressureFromGPH converts a geopotential height profile [m] to a
// pressure profile [Pa] using standard gravity.
func ProfilePressureFromGPH(gph, temperature, molarMassAir []float64, surfacePressure, surfaceHeight float64, pressure []float64) {
	var prevZ, prevP, prevT, prevM float64
	k, n := levelOrder(gph, false)
	for i := 0; i < n; i++ {
		ki := k(i)
		z, T, M := gph[ki], temperature[ki], molarMassAir[ki]
		var p float64
		if i == 0 {
			p = surfacePressure * math.Exp(-1e-3*(M/T)*(g0/rMolar)*(z-surfaceHeight))
		} else {
			p = prevP * math.Exp(-1e-3*((prevM+M)/(prevT+T))*(g0/rMolar)*(z-prevZ))
		}
		pressure[ki] = p
		prevP, prevT, prevM, prevZ = p, T, M, z
	}
	padLevels(pressure, n)
}

// ColumnMassDensityFromSurfacePressureAndProfile returns the total column
// mass density of air [kg/m2], dividing surfacePressure [Pa] by the
// pressure-thickness weighted mean gravity of the profile. pressureBounds
// holds the lower and upper pressure [Pa] of each level (2 values per
// level, decreasing) and altitude [m] the level altitudes.
func ColumnMassDensityFromSurfacePressureAndProfile(surfacePressure float64, pressureBounds, altitude []float64, latitude float64) float64 {
	var sum1, sum2 float64
	for i, z := range altitude {
		g := GravityFromLatitudeAndAltitude(latitude, z)
		dp := pressureBounds[2*i] - pressureBounds[2*i+1]
		sum1 += dp
		sum2 += dp / g
	}
	return surfacePressure * sum2 / sum1
}
