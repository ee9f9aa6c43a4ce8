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

// VariableSmoothVertical applies the {time,vertical,vertical} averaging
// kernel avk to the {time,...,vertical} variable, which must already be
// on the vertical grid of the kernel. If the {time,vertical} apriori is
// given it is subtracted before and added back after applying the
// kernel. If the {time,vertical} verticalAxis is given, trailing NaN
// levels of the axis mark levels that are padding for that time.
// verticalAxis and apriori may be nil. All variables must be of type
// Double. variable is modified in place; levels whose value is NaN stay
// NaN.
func VariableSmoothVertical(variable, verticalAxis, avk, apriori *Variable) error {
	if variable == nil {
		return invalidArgument("variable is nil")
	}
	if avk == nil {
		return invalidArgument("avk is nil")
	}
	if variable.DataType != Double {
		return invalidArgument("invalid data type for variable")
	}
	nd := len(variable.DimTypes)
	if nd < 2 || variable.DimTypes[0] != Time || variable.DimTypes[nd-1] != Vertical {
		return invalidArgument("variable should have dimensions {time,...,vertical}")
	}
	if avk.DataType != Double {
		return invalidArgument("invalid data type for averaging kernel")
	}
	if !avk.HasDimensionTypes(Time, Vertical, Vertical) {
		return invalidArgument("averaging kernel should have dimensions {time,vertical,vertical}")
	}
	shape := avk.Shape()
	if shape[1] != shape[2] {
		return invalidArgument("vertical dimensions of averaging kernel do not match")
	}
	if vs := variable.Shape(); vs[0] != shape[0] || vs[nd-1] != shape[1] {
		return invalidArgument("variable and avk have inconsistent dimensions")
	}
	nt, nz := shape[0], shape[1]
	if apriori != nil {
		if apriori.DataType != Double {
			return invalidArgument("invalid data type for apriori")
		}
		if !apriori.HasDimensionTypes(Time, Vertical) {
			return invalidArgument("apriori should have dimensions {time,vertical}")
		}
		if s := apriori.Shape(); s[0] != nt || s[1] != nz {
			return invalidArgument("apriori and avk have inconsistent dimensions")
		}
	}
	if verticalAxis != nil {
		if verticalAxis.DataType != Double {
			return invalidArgument("invalid data type for axis variable")
		}
		if !verticalAxis.HasDimensionTypes(Time, Vertical) {
			return invalidArgument("axis variable should have dimensions {time,vertical}")
		}
		if s := verticalAxis.Shape(); s[0] != nt || s[1] != nz {
			return invalidArgument("axis variable and avk have inconsistent dimensions")
		}
	}
	if nt == 0 || nz == 0 {
		return nil
	}

	x := make([]float64, nz)
	for r, profile := range profiles(variable.Data) {
		t := variable.Data.IndexNd(r * nz)[0]
		n := nz
		if verticalAxis != nil {
			n = unpaddedLength(block(verticalAxis.Data, t))
		}
		var xa []float64
		if apriori != nil {
			xa = block(apriori.Data, t)
		}
		copy(x, profile[:n])
		if xa != nil {
			for i := 0; i < n; i++ {
				x[i] -= xa[i]
			}
		}
		for i := 0; i < n; i++ {
			if math.IsNaN(x[i]) {
				continue
			}
			kernel := block(avk.Data, t, i)
			var sum float64
			var valid int
			for j := 0; j < n; j++ {
				if !math.IsNaN(x[j]) {
					sum += kernel[j] * x[j]
					valid++
				}
			}
			switch {
			case xa != nil:
				sum += xa[i]
			case valid == 0:
				sum = math.NaN()
			}
			profile[i] = sum
		}
	}
	return nil
}
