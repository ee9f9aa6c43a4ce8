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

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// scaleRows multiplies row i of m by w[i]. If divide is true the row is
// divided by w[i] instead, and rows whose weight is smaller than epsilon
// in magnitude are set to zero.
func scaleRows(m *mat.Dense, w []float64, divide bool) {
	_, c := m.Dims()
	for i, wi := range w {
		r := m.RawRowView(i)
		switch {
		case !divide:
			for j := 0; j < c; j++ {
				r[j] *= wi
			}
		case math.Abs(wi) < epsilon:
			for j := 0; j < c; j++ {
				r[j] = 0
			}
		default:
			for j := 0; j < c; j++ {
				r[j] /= wi
			}
		}
	}
}

// scaleColumns is the column-wise equivalent of scaleRows.
func scaleColumns(m *mat.Dense, w []float64, divide bool) {
	r, _ := m.Dims()
	for j, wj := range w {
		for i := 0; i < r; i++ {
			switch {
			case !divide:
				m.Set(i, j, m.At(i, j)*wj)
			case math.Abs(wj) < epsilon:
				m.Set(i, j, 0)
			default:
				m.Set(i, j, m.At(i, j)/wj)
			}
		}
	}
}

// layerThickness returns the absolute thickness of each level described by
// the {vertical,2} bounds array.
func layerThickness(bounds []float64) []float64 {
	h := make([]float64, len(bounds)/2)
	for i := range h {
		h[i] = math.Abs(bounds[2*i+1] - bounds[2*i])
	}
	return h
}

// DensityAVKFromPartialColumnAVKAndAltitudeBounds converts a
// {vertical,vertical} partial column averaging kernel into a density
// averaging kernel by dividing each row by the thickness of its level and
// multiplying each column by the thickness of its level. altitudeBounds
// holds the lower and upper altitude [m] of each level. Rows of levels
// thinner than epsilon are set to zero.
func DensityAVKFromPartialColumnAVKAndAltitudeBounds(partialColumnAVK mat.Matrix, altitudeBounds []float64) *mat.Dense {
	h := layerThickness(altitudeBounds)
	out := mat.DenseCopyOf(partialColumnAVK)
	scaleRows(out, h, true)
	scaleColumns(out, h, false)
	return out
}

// PartialColumnAVKFromDensityAVKAndAltitudeBounds is the inverse of
// DensityAVKFromPartialColumnAVKAndAltitudeBounds. Columns of levels
// thinner than epsilon are set to zero.
func PartialColumnAVKFromDensityAVKAndAltitudeBounds(densityAVK mat.Matrix, altitudeBounds []float64) *mat.Dense {
	h := layerThickness(altitudeBounds)
	out := mat.DenseCopyOf(densityAVK)
	scaleRows(out, h, false)
	scaleColumns(out, h, true)
	return out
}

// NumberDensityAVKFromVolumeMixingRatioAVK converts a volume mixing ratio
// averaging kernel into a number density averaging kernel using the number
// density of air at each level. Any number density unit gives the same
// result.
func NumberDensityAVKFromVolumeMixingRatioAVK(vmrAVK mat.Matrix, numberDensityAir []float64) *mat.Dense {
	out := mat.DenseCopyOf(vmrAVK)
	scaleRows(out, numberDensityAir, false)
	scaleColumns(out, numberDensityAir, true)
	return out
}

// VolumeMixingRatioAVKFromNumberDensityAVK is the inverse of
// NumberDensityAVKFromVolumeMixingRatioAVK.
func VolumeMixingRatioAVKFromNumberDensityAVK(numberDensityAVK mat.Matrix, numberDensityAir []float64) *mat.Dense {
	out := mat.DenseCopyOf(numberDensityAVK)
	scaleRows(out, numberDensityAir, true)
	scaleColumns(out, numberDensityAir, false)
	return out
}

// ColumnAVKFromPartialColumnAVK sums the rows of a {vertical,vertical}
// partial column number density averaging kernel to get the
// corresponding {vertical} column averaging kernel.
func ColumnAVKFromPartialColumnAVK(partialColumnAVK mat.Matrix) []float64 {
	r, c := partialColumnAVK.Dims()
	ones := make([]float64, r)
	for i := range ones {
		ones[i] = 1
	}
	out := mat.NewVecDense(c, nil)
	out.MulVec(partialColumnAVK.T(), mat.NewVecDense(r, ones))
	return out.RawVector().Data
}

// TroposphericColumnAVKFromColumnAVK returns a copy of columnAVK in which
// every level whose lower altitude bound is at or above
// tropopauseAltitude [m] is set to zero.
func TroposphericColumnAVKFromColumnAVK(columnAVK, altitudeBounds []float64, tropopauseAltitude float64) []float64 {
	out := make([]float64, len(columnAVK))
	for i, v := range columnAVK {
		if altitudeBounds[2*i] < tropopauseAltitude {
			out[i] = v
		}
	}
	return out
}

// StratosphericColumnAVKFromColumnAVK returns a copy of columnAVK in which
// every level whose upper altitude bound is at or below
// tropopauseAltitude [m] is set to zero.
func StratosphericColumnAVKFromColumnAVK(columnAVK, altitudeBounds []float64, tropopauseAltitude float64) []float64 {
	out := make([]float64, len(columnAVK))
	for i, v := range columnAVK {
		if altitudeBounds[2*i+1] > tropopauseAltitude {
			out[i] = v
		}
	}
	return out
}
