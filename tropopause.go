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

// TropopauseIndexFromAltitudeAndTemperature returns the index of the
// tropopause level using the WMO definition: the lowest level at which the
// lapse rate decreases to 2 K/km or less, provided that the average lapse
// rate between this level and all higher levels within 2 km does not
// exceed 2 K/km. Only levels with pressures in (50000, 5000] Pa are
// considered.
//
// altitude [m] must be increasing and pressure [Pa] decreasing; temperature
// is in [K]. -1 is returned if altitude is found to decrease or no level
// qualifies.
func TropopauseIndexFromAltitudeAndTemperature(altitude, pressure, temperature []float64) int {
	n := len(altitude)
	i := 1
	for i < n-1 && pressure[i] > tropopauseMaxPressure {
		i++
	}
	if i >= n-1 {
		return -1
	}

	height := altitude[i] - altitude[i-1]
	if height < 0 {
		return -1
	}
	lapseBelow := math.NaN()
	if height >= epsilon {
		lapseBelow = (temperature[i-1] - temperature[i]) / height
	}
	for i < n-1 && pressure[i] > tropopauseMinPressure {
		height = altitude[i+1] - altitude[i]
		if height < 0 {
			return -1
		}
		lapseAbove := lapseBelow // layers that are too thin keep the previous rate
		if height >= epsilon {
			lapseAbove = (temperature[i] - temperature[i+1]) / height
		}
		if lapseBelow > lapseRateThreshold && lapseAbove <= lapseRateThreshold {
			var lapseSum float64
			var count int
			for k := i + 2; k < n && altitude[k] <= altitude[i]+tropopauseLookAhead; k++ {
				h := altitude[k] - altitude[k-1]
				if h >= epsilon {
					lapseSum += (temperature[k-1] - temperature[k]) / h
					count++
				}
			}
			if count == 0 || lapseSum/float64(count) <= lapseRateThreshold {
				return i
			}
		}
		lapseBelow = lapseAbove
		i++
	}
	return -1
}

// ProductTropopauseAltitude derives a {time} variable named
// "tropopause_altitude" [m] from the {time,vertical} altitude [m],
// pressure [Pa] and temperature [K] profiles of p. Rows where no
// tropopause can be found are set to NaN.
func ProductTropopauseAltitude(p *Product) (*Variable, error) {
	return p.DerivedVariable("tropopause_altitude", Double, "m", Time)
}

// tropopauseAltitudes applies the tropopause locator to every row of the
// {time,vertical} profiles and stores the result in the {time} variable
// out.
func tropopauseAltitudes(altitude, pressure, temperature, out *Variable) {
	for t := 0; t < altitude.Shape()[0]; t++ {
		z := block(altitude.Data, t)
		if k := TropopauseIndexFromAltitudeAndTemperature(z, block(pressure.Data, t), block(temperature.Data, t)); k < 0 {
			out.Data.Set(math.NaN(), t)
		} else {
			out.Data.Set(z[k], t)
		}
	}
}
