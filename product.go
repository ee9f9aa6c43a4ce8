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

// Product is an ordered collection of uniquely named variables whose
// dimensions of the same kind (other than Independent) all have the same
// length.
type Product struct {
	// SourceProduct is the name of the file or granule the product was
	// read from. It is how collocation results refer to products.
	SourceProduct string

	dims [numDimensionTypes]int
	vars []*Variable
}

// NewProduct returns an empty product.
func NewProduct() *Product {
	return new(Product)
}

// Dimension returns the length of dimension type d in p, which is zero
// if no variable of p has such a dimension.
func (p *Product) Dimension(d DimensionType) int {
	return p.dims[d]
}

// hasDimension returns whether any variable of p has a dimension of
// type d.
func (p *Product) hasDimension(d DimensionType) bool {
	for _, v := range p.vars {
		if v.numDimensionsOfType(d) > 0 {
			return true
		}
	}
	return false
}

// IsEmpty returns whether p has no variables or a time dimension of
// length zero.
func (p *Product) IsEmpty() bool {
	return len(p.vars) == 0 || (p.hasDimension(Time) && p.dims[Time] == 0)
}

// Variables returns the variables of p in order. The returned slice may
// be modified but the variables are shared with p.
func (p *Product) Variables() []*Variable {
	return append([]*Variable{}, p.vars...)
}

// HasVariable returns whether p contains a variable with the given name.
func (p *Product) HasVariable(name string) bool {
	return p.index(name) >= 0
}

func (p *Product) index(name string) int {
	for i, v := range p.vars {
		if v.Name == name {
			return i
		}
	}
	return -1
}

// Variable returns the variable of p with the given name.
func (p *Product) Variable(name string) (*Variable, error) {
	i := p.index(name)
	if i < 0 {
		return nil, invalidArgument("product has no variable named '%s'", name)
	}
	return p.vars[i], nil
}

// checkDimensions returns an error if the dimensions of v are
// inconsistent with each other or with those of p. The variable named
// skip is ignored, which allows a variable to be replaced by one of a
// different shape.
func (p *Product) checkDimensions(v *Variable, skip string) error {
	shape := v.Shape()
	if len(v.DimTypes) != len(shape) {
		return invalidArgument("variable '%s' has inconsistent dimensions", v.Name)
	}
	var dims [numDimensionTypes]int
	for _, o := range p.vars {
		if o.Name == skip {
			continue
		}
		for i, d := range o.DimTypes {
			dims[d] = o.Shape()[i]
		}
	}
	seen := make(map[DimensionType]int)
	for i, d := range v.DimTypes {
		if d == Independent {
			continue
		}
		if n, ok := seen[d]; ok && n != shape[i] {
			return invalidArgument("variable '%s' has %s dimensions of different lengths", v.Name, d)
		}
		seen[d] = shape[i]
		if p.hasOtherDimension(d, skip) && dims[d] != shape[i] {
			return invalidArgument("variable '%s' has %s dimension of length %d; product has %d",
				v.Name, d, shape[i], dims[d])
		}
	}
	return nil
}

func (p *Product) hasOtherDimension(d DimensionType, skip string) bool {
	for _, o := range p.vars {
		if o.Name != skip && o.numDimensionsOfType(d) > 0 {
			return true
		}
	}
	return false
}

// AddVariable adds v to p. p takes ownership of v.
func (p *Product) AddVariable(v *Variable) error {
	if p.HasVariable(v.Name) {
		return invalidArgument("product already contains a variable named '%s'", v.Name)
	}
	if err := p.checkDimensions(v, ""); err != nil {
		return err
	}
	p.vars = append(p.vars, v)
	p.updateDimensions()
	return nil
}

// ReplaceVariable replaces the variable with the same name as v, or adds
// v if there is no such variable. The new variable may have a different
// shape only if no other variable shares the changed dimensions.
func (p *Product) ReplaceVariable(v *Variable) error {
	i := p.index(v.Name)
	if i < 0 {
		return p.AddVariable(v)
	}
	if err := p.checkDimensions(v, v.Name); err != nil {
		return err
	}
	p.vars[i] = v
	p.updateDimensions()
	return nil
}

// RemoveVariable removes the named variable from p.
func (p *Product) RemoveVariable(name string) error {
	i := p.index(name)
	if i < 0 {
		return invalidArgument("product has no variable named '%s'", name)
	}
	p.vars = append(p.vars[:i], p.vars[i+1:]...)
	p.updateDimensions()
	return nil
}

func (p *Product) updateDimensions() {
	p.dims = [numDimensionTypes]int{}
	for _, v := range p.vars {
		for i, d := range v.DimTypes {
			if d != Independent {
				p.dims[d] = v.Shape()[i]
			}
		}
	}
}

// Copy returns a deep copy of p.
func (p *Product) Copy() *Product {
	o := &Product{SourceProduct: p.SourceProduct, dims: p.dims}
	o.vars = make([]*Variable, len(p.vars))
	for i, v := range p.vars {
		o.vars[i] = v.Copy()
	}
	return o
}

// selectRows keeps only the given rows of the time dimension of p, in
// the given order. Rows may be repeated.
func (p *Product) selectRows(rows []int) {
	for i, v := range p.vars {
		if len(v.DimTypes) > 0 && v.DimTypes[0] == Time {
			p.vars[i] = v.selectRows(rows)
		}
	}
	p.updateDimensions()
}

// resizeDimension pads (with NaN or zero) or truncates every dimension of
// type d in p to length n.
func (p *Product) resizeDimension(d DimensionType, n int) {
	for _, v := range p.vars {
		for i, vd := range v.DimTypes {
			if vd == d {
				v.resizeDimension(i, n)
			}
		}
	}
	p.updateDimensions()
}

// Append concatenates the rows of o to p along the time dimension. Both
// products must contain the same variables with the same dimension types.
// Dimensions other than time that differ in length are padded to the
// longest one. Variables without a time dimension must be equal in both
// products. o is not modified.
func (p *Product) Append(o *Product) error {
	if len(p.vars) == 0 {
		c := o.Copy()
		p.vars, p.dims = c.vars, c.dims
		return nil
	}
	if len(o.vars) != len(p.vars) {
		return invalidArgument("cannot append product with %d variables to product with %d variables",
			len(o.vars), len(p.vars))
	}
	o = o.Copy()
	for _, v := range p.vars {
		ov, err := o.Variable(v.Name)
		if err != nil {
			return invalidArgument("cannot append products: variable '%s' is missing", v.Name)
		}
		if !ov.HasDimensionTypes(v.DimTypes...) {
			return invalidArgument("cannot append products: variable '%s' has dimensions %s and %s",
				v.Name, formatDimensions(v.DimTypes), formatDimensions(ov.DimTypes))
		}
		if ov.Unit != v.Unit {
			if err := ov.ConvertUnit(v.Unit); err != nil {
				return err
			}
		}
		if ov.DataType != v.DataType {
			if err := ov.ConvertDataType(v.DataType); err != nil {
				return err
			}
		}
	}
	for d := Latitude; d < numDimensionTypes; d++ {
		n := p.dims[d]
		if o.dims[d] > n {
			n = o.dims[d]
		}
		if p.dims[d] != n {
			p.resizeDimension(d, n)
		}
		if o.dims[d] != n {
			o.resizeDimension(d, n)
		}
	}
	for i, v := range p.vars {
		ov, _ := o.Variable(v.Name)
		if len(v.DimTypes) == 0 || v.DimTypes[0] != Time {
			if !equalValues(v, ov) {
				return invalidArgument("cannot append products: time independent variable '%s' differs", v.Name)
			}
			continue
		}
		shape, oshape := v.Shape(), ov.Shape()
		for k := 1; k < len(shape); k++ {
			if shape[k] != oshape[k] {
				return invalidArgument("cannot append products: variable '%s' has incompatible dimensions", v.Name)
			}
		}
		p.vars[i] = joinTime(v, ov)
	}
	p.updateDimensions()
	return nil
}

func equalValues(a, b *Variable) bool {
	sa, sb := a.Shape(), b.Shape()
	if len(sa) != len(sb) {
		return false
	}
	for i := range sa {
		if sa[i] != sb[i] {
			return false
		}
	}
	if a.Data != nil {
		for i, x := range a.Data.Elements {
			y := b.Data.Elements[i]
			if x != y && !(math.IsNaN(x) && math.IsNaN(y)) {
				return false
			}
		}
		return true
	}
	for i, x := range a.IntData.Elements {
		if x != b.IntData.Elements[i] {
			return false
		}
	}
	return true
}

// FilterByIndex reorders and filters the rows of p so that the values of
// the {time} integer variable indexName match index, in order. It is an
// error if a value of index does not occur in indexName.
func (p *Product) FilterByIndex(indexName string, index []int) error {
	iv, err := p.Variable(indexName)
	if err != nil {
		return err
	}
	if !iv.HasDimensionTypes(Time) || !iv.DataType.IsInteger() {
		return invalidArgument("index variable '%s' should be an integer variable with dimensions {time}", indexName)
	}
	rowOf := make(map[int]int, len(iv.IntData.Elements))
	for r, x := range iv.IntData.Elements {
		if _, ok := rowOf[x]; !ok {
			rowOf[x] = r
		}
	}
	rows := make([]int, len(index))
	for i, x := range index {
		r, ok := rowOf[x]
		if !ok {
			return newError(KindInconsistentCollocation, "product has no sample with %s %d", indexName, x)
		}
		rows[i] = r
	}
	p.selectRows(rows)
	return nil
}
