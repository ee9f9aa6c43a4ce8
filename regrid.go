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
	"errors"
	"math"
	"sort"
	"strings"

	"gonum.org/v1/gonum/floats"
)

// RegridWithAxisVariable regrids every variable of p that has a single
// vertical dimension, which must be its last one, onto the vertical grid
// given by grid ({vertical} or {time,vertical}). The source grid is the
// variable of p with the same name as grid, converted to the unit of
// grid. Variables are interpolated linearly (in log space for pressure
// grids) except for partial column variables, which are regridded by
// overlap when bounds ({...,vertical,2}) is given. Target levels outside
// the source grid become NaN. Variables with more than one vertical
// dimension, or an integer data type, cannot be regridded and are
// removed. On return p holds grid and, if given, bounds as its vertical
// axis. p is left unchanged if an error occurs.
func (p *Product) RegridWithAxisVariable(grid, bounds *Variable) error {
	if p.dims[Vertical] == 0 {
		return invalidArgument("product has no vertical dimension")
	}
	if grid.DataType != Double {
		return invalidArgument("invalid data type for axis variable")
	}
	timeDependent := grid.HasDimensionTypes(Time, Vertical)
	if !timeDependent && !grid.HasDimensionTypes(Vertical) {
		return invalidArgument("axis variable should have dimensions {vertical} or {time,vertical}")
	}
	gridShape := grid.Shape()
	if timeDependent && p.hasDimension(Time) && gridShape[0] != p.dims[Time] {
		return invalidArgument("axis variable has %d time samples; product has %d", gridShape[0], p.dims[Time])
	}
	nzOut := gridShape[len(gridShape)-1]
	if nzOut == 0 {
		return invalidArgument("axis variable has no levels")
	}
	if bounds != nil {
		want := append(append([]DimensionType{}, grid.DimTypes...), Independent)
		if bounds.DataType != Double || !bounds.HasDimensionTypes(want...) {
			return invalidArgument("axis bounds variable should have dimensions %s", formatDimensions(want))
		}
		boundsShape := bounds.Shape()
		for i, n := range gridShape {
			if boundsShape[i] != n {
				return invalidArgument("axis variable and axis bounds variable have inconsistent dimensions")
			}
		}
		if boundsShape[len(boundsShape)-1] != 2 {
			return invalidArgument("axis bounds variable should have an independent dimension of length 2")
		}
	}

	srcGrid, err := p.DerivedVariable(grid.Name, Double, grid.Unit, Vertical)
	if err != nil {
		if srcGrid, err = p.DerivedVariable(grid.Name, Double, grid.Unit, Time, Vertical); err != nil {
			return err
		}
	}
	boundsName := BoundsName(grid.Name)
	srcBounds, err := p.DerivedVariable(boundsName, Double, grid.Unit,
		append(append([]DimensionType{}, srcGrid.DimTypes...), Independent)...)
	if err != nil {
		srcBounds = nil
	}
	logAxis := isPressureUnit(grid.Unit)
	srcShape := srcGrid.Shape()
	nzIn := srcShape[len(srcShape)-1]
	// gridRow returns the axis (or axis bounds) of time t.
	gridRow := func(g *Variable, t int) []float64 {
		if g.DimTypes[0] != Time {
			return g.Data.Elements
		}
		return block(g.Data, t)
	}

	var vars []*Variable
	for _, v := range p.vars {
		if v.Name == grid.Name || v.Name == boundsName {
			continue
		}
		nv := v.numDimensionsOfType(Vertical)
		if nv == 0 {
			vars = append(vars, v)
			continue
		}
		if nv > 1 || v.DimTypes[len(v.DimTypes)-1] != Vertical || v.DataType.IsInteger() {
			Log.WithField("variable", v.Name).Debug("vertprof: removing variable that cannot be regridded")
			continue
		}
		src := v
		if v.DimTypes[0] != Time && p.hasDimension(Time) && (timeDependent || len(srcShape) == 2) {
			src = v.broadcastTime(p.dims[Time])
		}
		if src.Shape()[len(src.DimTypes)-1] != nzIn {
			return invalidArgument("variable '%s' has %d levels; vertical axis '%s' has %d",
				v.Name, src.Shape()[len(src.DimTypes)-1], grid.Name, nzIn)
		}
		dims := append([]int{}, src.Shape()...)
		dims[len(dims)-1] = nzOut
		out, err := NewVariable(src.Name, Double, src.DimTypes, dims)
		if err != nil {
			return err
		}
		out.Unit, out.Description = src.Unit, src.Description
		intervals := strings.Contains(v.Name, "column") && bounds != nil && srcBounds != nil
		outRows := profiles(out.Data)
		for r, y := range profiles(src.Data) {
			var t int
			if src.DimTypes[0] == Time {
				t = src.Data.IndexNd(r * nzIn)[0]
			}
			yOut := outRows[r]
			if intervals {
				regridIntervals(gridRow(srcBounds, t), y, gridRow(bounds, t), yOut,
					unpaddedLength(gridRow(srcGrid, t)), unpaddedLength(gridRow(grid, t)), logAxis)
				continue
			}
			if err := regridLinear(gridRow(srcGrid, t), y, gridRow(grid, t), yOut, logAxis); err != nil {
				return invalidArgument("cannot regrid '%s' on vertical axis '%s': %v", v.Name, grid.Name, err)
			}
		}
		vars = append(vars, out)
	}
	vars = append(vars, grid.Copy())
	if bounds != nil {
		vars = append(vars, bounds.Copy())
	}
	p.vars = vars
	p.updateDimensions()
	return nil
}

// regridLinear interpolates the profile y given on levels x to the
// levels xOut. Trailing NaN levels of x and xOut are padding. Target
// levels outside the range of x are NaN.
func regridLinear(x, y, xOut, yOut []float64, logAxis bool) error {
	for i := range yOut {
		yOut[i] = math.NaN()
	}
	m := unpaddedLength(x)
	if m == 0 {
		return nil
	}
	xs, ys := axisValues(x[:m], logAxis), append([]float64{}, y[:m]...)
	if xs[0] > xs[m-1] {
		reverse(xs)
		reverse(ys)
	}
	if !sort.Float64sAreSorted(xs) {
		return errors.New("axis is not monotonic")
	}
	mOut := unpaddedLength(xOut)
	for i, v := range axisValues(xOut[:mOut], logAxis) {
		switch {
		case v == xs[m-1]:
			yOut[i] = ys[m-1]
		case m < 2:
		default:
			if k := floats.Within(xs, v); k >= 0 {
				w := (v - xs[k]) / (xs[k+1] - xs[k])
				yOut[i] = (1-w)*ys[k] + w*ys[k+1]
			}
		}
	}
	return nil
}

// regridIntervals redistributes the partial column profile y, given for
// the first m intervals of bounds, over the first mOut intervals of
// boundsOut in proportion to the overlap of the intervals. Target
// intervals that no valid source interval overlaps are NaN.
func regridIntervals(bounds, y, boundsOut, yOut []float64, m, mOut int, logAxis bool) {
	for i := range yOut {
		yOut[i] = math.NaN()
	}
	b := axisValues(bounds[:2*m], logAxis)
	bOut := axisValues(boundsOut[:2*mOut], logAxis)
	for k := 0; k < mOut; k++ {
		lo, hi := math.Min(bOut[2*k], bOut[2*k+1]), math.Max(bOut[2*k], bOut[2*k+1])
		c := newColumnSum()
		for j := 0; j < m; j++ {
			if math.IsNaN(y[j]) {
				continue
			}
			slo, shi := math.Min(b[2*j], b[2*j+1]), math.Max(b[2*j], b[2*j+1])
			if shi-slo < epsilon {
				continue
			}
			if overlap := math.Min(hi, shi) - math.Max(lo, slo); overlap > 0 {
				c.add(y[j] * overlap / (shi - slo))
			}
		}
		yOut[k] = c.value()
	}
}

// axisValues returns a copy of x, transformed to log space if logAxis is
// set.
func axisValues(x []float64, logAxis bool) []float64 {
	out := make([]float64, len(x))
	for i, v := range x {
		if logAxis {
			v = math.Log(v)
		}
		out[i] = v
	}
	return out
}

func reverse(x []float64) {
	for i, j := 0, len(x)-1; i < j; i, j = i+1, j-1 {
		x[i], x[j] = x[j], x[i]
	}
}
