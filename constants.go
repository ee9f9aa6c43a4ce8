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

// Package vertprof holds the vertical profile physics used to compare
// atmospheric profiles with satellite retrievals. Profiles can be moved
// between pressure and height coordinates and smoothed with the averaging
// kernels of a collocated retrieval product.
package vertprof

import "math"

// Version gives the version number.
const Version = "0.3.0"

// physical constants
const (
	g0        = 9.80665      // m/s2, standard gravity (45° latitude, WGS84 sphere)
	gEquator  = 9.7803253359 // m/s2, normal gravity at the equator (WGS84)
	rMolar    = 8.3144598    // J/(mol K), molar gas constant
	boltzmann = 1.380649e-23 // J/K, Boltzmann constant

	// WGS84 ellipsoid
	semiMajorAxis = 6378137.0      // m
	semiMinorAxis = 6356752.314245 // m
	flattening    = 1 / 298.257223563
	// gravity ratio ω²a²b/GM
	gravityRatio = 0.00344978650684

	// Somigliana normal gravity coefficients
	somiglianaK   = 0.001931852652458
	eccentricity2 = 0.006694379990141

	deg2rad = math.Pi / 180

	// epsilon is the magnitude below which a layer thickness or a
	// weight is treated as zero.
	epsilon = 1e-10

	// lapseRateThreshold is the WMO tropopause lapse rate criterion
	// (2 K/km) [K/m].
	lapseRateThreshold = 0.002
	// tropopause scan window [Pa] and look-ahead depth [m].
	tropopauseMaxPressure = 50000
	tropopauseMinPressure = 5000
	tropopauseLookAhead   = 2000
)
