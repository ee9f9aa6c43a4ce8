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
	"fmt"
	"math"

	"github.com/ctessum/sparse"
)

// DataType is the storage type of the values of a Variable.
type DataType int

// Data types. Integer variables are held in a *sparse.DenseArrayInt and
// floating point variables in a *sparse.DenseArray.
const (
	Int8 DataType = iota
	Int16
	Int32
	Float
	Double
)

func (t DataType) String() string {
	switch t {
	case Int8:
		return "int8"
	case Int16:
		return "int16"
	case Int32:
		return "int32"
	case Float:
		return "float"
	case Double:
		return "double"
	default:
		return fmt.Sprintf("DataType(%d)", int(t))
	}
}

// IsInteger returns whether t is one of the integer types.
func (t DataType) IsInteger() bool { return t == Int8 || t == Int16 || t == Int32 }

// DimensionType is the kind of a Variable dimension.
type DimensionType int

// Dimension types. All dimensions of a kind other than Independent must
// have the same length within a Product.
const (
	Independent DimensionType = iota
	Time
	Latitude
	Longitude
	Vertical
	Spectral
	numDimensionTypes
)

func (d DimensionType) String() string {
	switch d {
	case Independent:
		return "independent"
	case Time:
		return "time"
	case Latitude:
		return "latitude"
	case Longitude:
		return "longitude"
	case Vertical:
		return "vertical"
	case Spectral:
		return "spectral"
	default:
		return fmt.Sprintf("DimensionType(%d)", int(d))
	}
}

// ParseDimensionType converts the name of a dimension type back into
// its value.
func ParseDimensionType(s string) (DimensionType, error) {
	for d := Independent; d < numDimensionTypes; d++ {
		if d.String() == s {
			return d, nil
		}
	}
	return 0, invalidArgument("unknown dimension type '%s'", s)
}

func formatDimensions(dimTypes []DimensionType) string {
	s := "{"
	for i, d := range dimTypes {
		if i > 0 {
			s += ","
		}
		s += d.String()
	}
	return s + "}"
}

// Variable is a named n-dimensional array of values.
type Variable struct {
	Name        string
	Description string
	Unit        string
	DataType    DataType

	// DimTypes holds the kind of each dimension of the data.
	DimTypes []DimensionType

	// Data holds the values of floating point variables and IntData the
	// values of integer variables. Their shape gives the length of each
	// dimension.
	Data    *sparse.DenseArray
	IntData *sparse.DenseArrayInt
}

// Shape returns the length of each dimension of v. The returned slice
// must not be modified.
func (v *Variable) Shape() []int {
	switch {
	case v.Data != nil:
		return v.Data.Shape
	case v.IntData != nil:
		return v.IntData.Shape
	default:
		return nil
	}
}

// newData replaces the values of v with zeros of the given shape,
// keeping the storage type.
func (v *Variable) newData(shape []int) {
	shape = append([]int{}, shape...)
	if v.DataType.IsInteger() {
		v.IntData = sparse.ZerosDenseInt(shape...)
	} else {
		v.Data = sparse.ZerosDense(shape...)
	}
}

// NewVariable creates a zero-valued variable. dimTypes and dims must have
// the same length; Time, if present, must be the first dimension.
func NewVariable(name string, dt DataType, dimTypes []DimensionType, dims []int) (*Variable, error) {
	if name == "" {
		return nil, invalidArgument("variable name is empty")
	}
	if len(dimTypes) != len(dims) {
		return nil, invalidArgument("variable '%s': %d dimension types for %d dimensions", name, len(dimTypes), len(dims))
	}
	for i, d := range dimTypes {
		if d < Independent || d >= numDimensionTypes {
			return nil, invalidArgument("variable '%s': invalid dimension type %d", name, int(d))
		}
		if d == Time && i != 0 {
			return nil, invalidArgument("variable '%s': time can only be the first dimension", name)
		}
		if dims[i] < 0 {
			return nil, invalidArgument("variable '%s': negative length for dimension %d", name, i)
		}
	}
	if dt < Int8 || dt > Double {
		return nil, invalidArgument("variable '%s': invalid data type %d", name, int(dt))
	}
	v := &Variable{
		Name:     name,
		DataType: dt,
		DimTypes: append([]DimensionType{}, dimTypes...),
	}
	v.newData(dims)
	return v, nil
}

// NewIntVariable creates a one dimensional int32 variable holding data.
func NewIntVariable(name string, dimType DimensionType, data []int) (*Variable, error) {
	v, err := NewVariable(name, Int32, []DimensionType{dimType}, []int{len(data)})
	if err != nil {
		return nil, err
	}
	copy(v.IntData.Elements, data)
	return v, nil
}

// NumElements returns the total number of values held by v.
func (v *Variable) NumElements() int {
	return size(v.Shape())
}

// HasDimensionTypes returns whether v has exactly the given dimension
// types.
func (v *Variable) HasDimensionTypes(dimTypes ...DimensionType) bool {
	if len(dimTypes) != len(v.DimTypes) {
		return false
	}
	for i, d := range dimTypes {
		if v.DimTypes[i] != d {
			return false
		}
	}
	return true
}

// numDimensionsOfType returns how many dimensions of v are of type d.
func (v *Variable) numDimensionsOfType(d DimensionType) int {
	var n int
	for _, vd := range v.DimTypes {
		if vd == d {
			n++
		}
	}
	return n
}

// Copy returns a deep copy of v.
func (v *Variable) Copy() *Variable {
	o := *v
	o.DimTypes = append([]DimensionType{}, v.DimTypes...)
	if v.Data != nil {
		o.Data = v.Data.Copy()
	}
	if v.IntData != nil {
		o.IntData = sparse.ZerosDenseInt(append([]int{}, v.IntData.Shape...)...)
		copy(o.IntData.Elements, v.IntData.Elements)
	}
	return &o
}

// Ints returns the values of v as integers, truncating floating point
// values. For integer variables the returned slice shares storage
// with v.
func (v *Variable) Ints() []int {
	if v.IntData != nil {
		return v.IntData.Elements
	}
	out := make([]int, len(v.Data.Elements))
	for i, x := range v.Data.Elements {
		out[i] = int(x)
	}
	return out
}

// ConvertDataType changes the storage type of v in place. Conversions
// to an integer type truncate, and NaN becomes zero.
func (v *Variable) ConvertDataType(dt DataType) error {
	if dt < Int8 || dt > Double {
		return invalidArgument("variable '%s': invalid data type %d", v.Name, int(dt))
	}
	switch {
	case dt.IsInteger() && v.Data != nil:
		v.IntData = sparse.ZerosDenseInt(append([]int{}, v.Data.Shape...)...)
		for i, x := range v.Data.Elements {
			if !math.IsNaN(x) {
				v.IntData.Elements[i] = int(x)
			}
		}
		v.Data = nil
	case !dt.IsInteger() && v.IntData != nil:
		v.Data = sparse.ZerosDense(append([]int{}, v.IntData.Shape...)...)
		for i, x := range v.IntData.Elements {
			v.Data.Elements[i] = float64(x)
		}
		v.IntData = nil
	}
	if dt == Float && v.Data != nil {
		for i, x := range v.Data.Elements {
			v.Data.Elements[i] = float64(float32(x))
		}
	}
	v.DataType = dt
	return nil
}

// ConvertUnit converts the values of v to the given unit in place.
// Integer variables are converted to Double first unless no scaling is
// needed.
func (v *Variable) ConvertUnit(to string) error {
	f, err := unitConversionFactor(v.Unit, to)
	if err != nil {
		return err
	}
	if f != 1 {
		if v.DataType.IsInteger() {
			if err := v.ConvertDataType(Double); err != nil {
				return err
			}
		}
		for i := range v.Data.Elements {
			v.Data.Elements[i] *= f
		}
	}
	v.Unit = to
	return nil
}

// resizeDimension changes the length of dimension i to n, truncating or
// padding with fill values (NaN for floating point, zero for integers).
func (v *Variable) resizeDimension(i, n int) {
	shape := v.Shape()
	if shape[i] == n {
		return
	}
	dims := append([]int{}, shape...)
	dims[i] = n
	keep := dims
	if shape[i] < n {
		keep = shape
	}
	o := &Variable{DataType: v.DataType}
	o.newData(dims)
	if v.Data != nil {
		for j := range o.Data.Elements {
			o.Data.Elements[j] = math.NaN()
		}
		forEachIndex(keep, func(index []int) {
			o.Data.Elements[o.Data.Index1d(index...)] = v.Data.Get(index...)
		})
	} else {
		forEachIndex(keep, func(index []int) {
			o.IntData.Elements[o.IntData.Index1d(index...)] = v.IntData.Get(index...)
		})
	}
	v.Data, v.IntData = o.Data, o.IntData
}

// selectRows returns a copy of the time dependent variable v holding
// only the given rows of its first dimension, in the given order.
func (v *Variable) selectRows(rows []int) *Variable {
	o := &Variable{Name: v.Name, Description: v.Description, Unit: v.Unit, DataType: v.DataType,
		DimTypes: append([]DimensionType{}, v.DimTypes...)}
	shape := append([]int{}, v.Shape()...)
	shape[0] = len(rows)
	o.newData(shape)
	for i, r := range rows {
		if v.Data != nil {
			copy(block(o.Data, i), block(v.Data, r))
		} else {
			copy(blockInt(o.IntData, i), blockInt(v.IntData, r))
		}
	}
	return o
}

// broadcastTime returns a copy of the time independent variable v with a
// leading time dimension of length n, repeating the values of v for
// every time.
func (v *Variable) broadcastTime(n int) *Variable {
	o := &Variable{Name: v.Name, Description: v.Description, Unit: v.Unit, DataType: v.DataType,
		DimTypes: append([]DimensionType{Time}, v.DimTypes...)}
	o.newData(append([]int{n}, v.Shape()...))
	for t := 0; t < n; t++ {
		if v.Data != nil {
			copy(block(o.Data, t), v.Data.Elements)
		} else {
			copy(blockInt(o.IntData, t), v.IntData.Elements)
		}
	}
	return o
}

// joinTime returns a copy of a with the rows of b appended along the
// leading time dimension. The other dimensions must match.
func joinTime(a, b *Variable) *Variable {
	na := a.Shape()[0]
	o := &Variable{Name: a.Name, Description: a.Description, Unit: a.Unit, DataType: a.DataType,
		DimTypes: append([]DimensionType{}, a.DimTypes...)}
	shape := append([]int{}, a.Shape()...)
	shape[0] += b.Shape()[0]
	o.newData(shape)
	for t := 0; t < shape[0]; t++ {
		src, r := a, t
		if t >= na {
			src, r = b, t-na
		}
		if o.Data != nil {
			copy(block(o.Data, t), block(src.Data, r))
		} else {
			copy(blockInt(o.IntData, t), blockInt(src.IntData, r))
		}
	}
	return o
}
