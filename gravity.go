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

// NormalGravityFromLatitude returns the WGS84 normal gravity at sea level
// [m/s2] at the given latitude [degree_north] (Somigliana formula).
func NormalGravityFromLatitude(latitude float64) float64 {
	sinφ := math.Sin(latitude * deg2rad)
	sinφ2 := sinφ * sinφ
	return gEquator * (1 + somiglianaK*sinφ2) / math.Sqrt(1-eccentricity2*sinφ2)
}

// GravityFromLatitudeAndAltitude returns the gravitational acceleration
// [m/s2] at the given latitude [degree_north] and altitude [m] above the
// ellipsoid, using the second order expansion of normal gravity with
// height.
func GravityFromLatitudeAndAltitude(latitude, altitude float64) float64 {
	sinφ := math.Sin(latitude * deg2rad)
	g := NormalGravityFromLatitude(latitude)
	a := semiMajorAxis
	return g * (1 - 2/a*(1+flattening+gravityRatio-2*flattening*sinφ*sinφ)*altitude +
		3/(a*a)*altitude*altitude)
}

// LocalCurvatureRadiusAtSurfaceFromLatitude returns the radius [m] of the
// WGS84 ellipsoid at the given latitude [degree_north].
func LocalCurvatureRadiusAtSurfaceFromLatitude(latitude float64) float64 {
	sinφ := math.Sin(latitude * deg2rad)
	cosφ := math.Cos(latitude * deg2rad)
	a2 := semiMajorAxis * semiMajorAxis
	b2 := semiMinorAxis * semiMinorAxis
	return 1 / math.Sqrt(cosφ*cosφ/a2+sinφ*sinφ/b2)
}

// AltitudeFromGPHAndLatitude converts geopotential height [m] to
// geometric height (altitude) [m] at the given latitude [degree_north].
func AltitudeFromGPHAndLatitude(gph, latitude float64) float64 {
	g := NormalGravityFromLatitude(latitude)
	R := LocalCurvatureRadiusAtSurfaceFromLatitude(latitude)
	return g0 * R * gph / (g*R - g0*gph)
}

// GPHFromAltitudeAndLatitude converts altitude [m] to geopotential
// height [m] at the given latitude [degree_north].
func GPHFromAltitudeAndLatitude(altitude, latitude float64) float64 {
	g := NormalGravityFromLatitude(latitude)
	R := LocalCurvatureRadiusAtSurfaceFromLatitude(latitude)
	return (g / g0) * R * altitude / (altitude + R)
}

// GeopotentialFromGPH converts geopotential height [m] to
// geopotential [m2/s2].
func GeopotentialFromGPH(gph float64) float64 { return g0 * gph }

// GPHFromGeopotential converts geopotential [m2/s2] to geopotential
// height [m].
func GPHFromGeopotential(geopotential float64) float64 { return geopotential / g0 }
