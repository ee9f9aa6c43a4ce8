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

package vertprofutil

import (
	"math"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/kr/pretty"
	"github.com/spatialmodel/vertprof"
	"gonum.org/v1/gonum/floats"
)

func newVariable(t *testing.T, name, unit string, dt vertprof.DataType, dimTypes []vertprof.DimensionType, dims []int, data []float64) *vertprof.Variable {
	v, err := vertprof.NewVariable(name, dt, dimTypes, dims)
	if err != nil {
		t.Fatal(err)
	}
	v.Unit = unit
	if dt.IsInteger() {
		for i, x := range data {
			v.IntData.Elements[i] = int(x)
		}
	} else {
		copy(v.Data.Elements, data)
	}
	return v
}

// profile returns a {time,vertical} variable with one row per sample.
func profile(t *testing.T, name, unit string, rows ...[]float64) *vertprof.Variable {
	var data []float64
	for _, r := range rows {
		data = append(data, r...)
	}
	return newVariable(t, name, unit, vertprof.Double, []vertprof.DimensionType{vertprof.Time, vertprof.Vertical},
		[]int{len(rows), len(rows[0])}, data)
}

// kernels returns a {time,vertical,vertical} averaging kernel variable.
func kernels(t *testing.T, name string, nz int, k ...[]float64) *vertprof.Variable {
	var data []float64
	for _, r := range k {
		data = append(data, r...)
	}
	return newVariable(t, name, "", vertprof.Double,
		[]vertprof.DimensionType{vertprof.Time, vertprof.Vertical, vertprof.Vertical}, []int{len(k), nz, nz}, data)
}

func collocationIndex(t *testing.T, index ...int) *vertprof.Variable {
	v, err := vertprof.NewIntVariable(vertprof.CollocationIndexName, vertprof.Time, index)
	if err != nil {
		t.Fatal(err)
	}
	return v
}

func product(t *testing.T, sourceProduct string, vars ...*vertprof.Variable) *vertprof.Product {
	p := vertprof.NewProduct()
	p.SourceProduct = sourceProduct
	for _, v := range vars {
		if err := p.AddVariable(v); err != nil {
			t.Fatal(err)
		}
	}
	return p
}

func writeProduct(t *testing.T, path string, p *vertprof.Product) {
	if err := WriteProduct(path, p); err != nil {
		t.Fatal(err)
	}
}

func TestProductRoundTrip(t *testing.T) {
	nan := math.NaN()
	altitude := profile(t, "altitude", "m", []float64{0, 1000, nan}, []float64{0, 1000, 2000})
	altitude.Description = "altitude of the level centers"
	want := product(t, "s5p_20200101.nc",
		collocationIndex(t, 7, 3),
		altitude,
		newVariable(t, "altitude_bounds", "m", vertprof.Double,
			[]vertprof.DimensionType{vertprof.Time, vertprof.Vertical, vertprof.Independent}, []int{2, 3, 2},
			[]float64{-500, 500, 500, 1500, nan, nan, -500, 500, 500, 1500, 1500, 2500}),
		kernels(t, "O3_avk", 3, []float64{1, 0, 0, 0, 1, 0, 0, 0, 1}, []float64{0.5, 0.5, 0, 0, 1, 0, 0, 0, 1}),
		newVariable(t, "cloud_fraction", "", vertprof.Float, []vertprof.DimensionType{vertprof.Time}, []int{2},
			[]float64{0.25, 0.5}),
		newVariable(t, "quality_flag", "", vertprof.Int8, []vertprof.DimensionType{vertprof.Time}, []int{2},
			[]float64{-3, 100}),
		newVariable(t, "orbit", "", vertprof.Int16, []vertprof.DimensionType{vertprof.Time}, []int{2},
			[]float64{11456, 11457}),
	)

	path := filepath.Join(t.TempDir(), "product.nc")
	writeProduct(t, path, want)
	have, err := ReadProduct(path)
	if err != nil {
		t.Fatal(err)
	}
	if have.SourceProduct != want.SourceProduct {
		t.Errorf("source product: have %s, want %s", have.SourceProduct, want.SourceProduct)
	}
	if len(have.Variables()) != len(want.Variables()) {
		t.Fatalf("have %d variables, want %d", len(have.Variables()), len(want.Variables()))
	}
	for i, w := range want.Variables() {
		h := have.Variables()[i]
		if h.Name != w.Name || h.Unit != w.Unit || h.Description != w.Description || h.DataType != w.DataType {
			t.Errorf("variable %d: %v", i, pretty.Diff(
				[]interface{}{w.Name, w.Unit, w.Description, w.DataType},
				[]interface{}{h.Name, h.Unit, h.Description, h.DataType}))
		}
		if !reflect.DeepEqual(h.DimTypes, w.DimTypes) || !reflect.DeepEqual(h.Shape(), w.Shape()) {
			t.Errorf("%s dimensions: have %v %v, want %v %v", w.Name, h.DimTypes, h.Shape(), w.DimTypes, w.Shape())
		}
		if w.DataType.IsInteger() {
			if !reflect.DeepEqual(h.Ints(), w.Ints()) {
				t.Errorf("%s: have %v, want %v", w.Name, h.Ints(), w.Ints())
			}
		} else if !floats.Same(h.Data.Elements, w.Data.Elements) {
			t.Errorf("%s: have %v, want %v", w.Name, h.Data.Elements, w.Data.Elements)
		}
	}
}

func TestReadProductDefaultSourceProduct(t *testing.T) {
	path := filepath.Join(t.TempDir(), "b1.nc")
	writeProduct(t, path, product(t, "", collocationIndex(t, 1)))
	p, err := ReadProduct(path)
	if err != nil {
		t.Fatal(err)
	}
	if p.SourceProduct != "b1.nc" {
		t.Errorf("source product should default to the file name but is '%s'", p.SourceProduct)
	}
}

func TestWriteEmptyProduct(t *testing.T) {
	if err := WriteProduct(filepath.Join(t.TempDir(), "empty.nc"), vertprof.NewProduct()); err == nil {
		t.Error("writing an empty product should fail")
	}
}
