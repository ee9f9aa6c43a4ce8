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

// columnSum accumulates partial columns while tracking whether any
// level contributed. A column to which nothing contributed is NaN.
type columnSum struct {
	sum   float64
	empty bool
}

func newColumnSum() columnSum { return columnSum{empty: true} }

func (c *columnSum) add(v float64) {
	c.sum += v
	c.empty = false
}

func (c columnSum) value() float64 {
	if c.empty {
		return math.NaN()
	}
	return c.sum
}

// ProfileColumnFromPartialColumn integrates a partial column profile
// [molec/m2] into a total column, ignoring NaN levels.
func ProfileColumnFromPartialColumn(partialColumn []float64) float64 {
	c := newColumnSum()
	for _, v := range partialColumn {
		if !math.IsNaN(v) {
			c.add(v)
		}
	}
	return c.value()
}

// ProfileTropoColumnFromPartialColumnAndAltitude integrates the part of
// the partial column profile that lies below tropopauseAltitude [m].
// altitudeBounds holds the lower and upper altitude of each level. The
// level containing the tropopause contributes the linear fraction of its
// thickness that is below the tropopause.
func ProfileTropoColumnFromPartialColumnAndAltitude(partialColumn, altitudeBounds []float64, tropopauseAltitude float64) float64 {
	c := newColumnSum()
	for k, v := range partialColumn {
		if math.IsNaN(v) {
			continue
		}
		lower, upper := altitudeBounds[2*k], altitudeBounds[2*k+1]
		if lower >= tropopauseAltitude {
			continue
		}
		if upper <= tropopauseAltitude {
			c.add(v)
		} else {
			c.add(v * (tropopauseAltitude - lower) / (upper - lower))
		}
	}
	return c.value()
}

// ProfileStratoColumnFromPartialColumnAndAltitude integrates the part of
// the partial column profile that lies above tropopauseAltitude [m].
func ProfileStratoColumnFromPartialColumnAndAltitude(partialColumn, altitudeBounds []float64, tropopauseAltitude float64) float64 {
	c := newColumnSum()
	for k, v := range partialColumn {
		if math.IsNaN(v) {
			continue
		}
		lower, upper := altitudeBounds[2*k], altitudeBounds[2*k+1]
		if upper <= tropopauseAltitude {
			continue
		}
		if lower >= tropopauseAltitude {
			c.add(v)
		} else {
			c.add(v * (upper - tropopauseAltitude) / (upper - lower))
		}
	}
	return c.value()
}

// ProfileTropoColumnFromPartialColumnAndPressure integrates the part of
// the partial column profile that lies below (at higher pressure than)
// tropopausePressure [Pa]. pressureBounds holds the lower (surface side)
// and upper pressure of each level. Pressure is taken to decay
// log-linearly within the level that contains the tropopause.
func ProfileTropoColumnFromPartialColumnAndPressure(partialColumn, pressureBounds []float64, tropopausePressure float64) float64 {
	c := newColumnSum()
	for k, v := range partialColumn {
		if math.IsNaN(v) {
			continue
		}
		lower, upper := pressureBounds[2*k], pressureBounds[2*k+1]
		if lower <= tropopausePressure {
			continue
		}
		if upper >= tropopausePressure {
			c.add(v)
		} else {
			c.add(v * math.Log(tropopausePressure/lower) / math.Log(upper/lower))
		}
	}
	return c.value()
}

// ProfileStratoColumnFromPartialColumnAndPressure integrates the part of
// the partial column profile that lies above (at lower pressure than)
// tropopausePressure [Pa].
func ProfileStratoColumnFromPartialColumnAndPressure(partialColumn, pressureBounds []float64, tropopausePressure float64) float64 {
	c := newColumnSum()
	for k, v := range partialColumn {
		if math.IsNaN(v) {
			continue
		}
		lower, upper := pressureBounds[2*k], pressureBounds[2*k+1]
		if upper >= tropopausePressure {
			continue
		}
		if lower <= tropopausePressure {
			c.add(v)
		} else {
			c.add(v * math.Log(upper/tropopausePressure) / math.Log(upper/lower))
		}
	}
	return c.value()
}
