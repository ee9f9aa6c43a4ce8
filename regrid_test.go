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
	"testing"

	"github.com/kr/pretty"
	"gonum.org/v1/gonum/floats"
)

func equalWithNaN(a, b []float64, tolerance float64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if math.IsNaN(a[i]) != math.IsNaN(b[i]) {
			return false
		}
		if !math.IsNaN(a[i]) && !floats.EqualWithinAbsOrRel(a[i], b[i], tolerance, tolerance) {
			return false
		}
	}
	return true
}

func TestRegridLinearAltitude(t *testing.T) {
	p := NewProduct()
	mustAdd(t, p,
		profileVariable(t, "altitude", "m", []float64{0, 1000, 2000}, []float64{2000, 1000, 0}),
		profileVariable(t, "temperature", "K", []float64{290, 280, 270}, []float64{270, 280, 290}),
		avkVariable(t, 3, identity(3), identity(3)),
	)
	grid := profileVariable(t, "altitude", "km", []float64{0.5, 1.5, 2.5, math.NaN()}, []float64{0.5, 1.5, 2.5, math.NaN()})
	if err := p.RegridWithAxisVariable(grid, nil); err != nil {
		t.Fatal(err)
	}
	if p.Dimension(Vertical) != 4 {
		t.Errorf("vertical dimension: want 4, got %d", p.Dimension(Vertical))
	}
	if p.HasVariable("x_avk") {
		t.Error("averaging kernel should have been removed")
	}
	temp, _ := p.Variable("temperature")
	nan := math.NaN()
	want := []float64{285, 275, nan, nan, 285, 275, nan, nan}
	if !equalWithNaN(temp.Data.Elements, want, 1e-12) {
		t.Errorf("temperature: %v", pretty.Diff(want, temp.Data.Elements))
	}
	z, _ := p.Variable("altitude")
	if z.Unit != "km" || z.Data.Elements[1] != 1.5 {
		t.Errorf("the product should hold the target grid, got %# v", pretty.Formatter(z))
	}
}

func TestRegridLogPressure(t *testing.T) {
	p := NewProduct()
	mustAdd(t, p,
		profileVariable(t, "pressure", "Pa", []float64{100000, 50000, 25000}),
		profileVariable(t, "x", "ppv", []float64{1, 2, 3}),
	)
	grid := profileVariable(t, "pressure", "hPa", []float64{math.Sqrt(1000 * 500.), 250})
	if err := p.RegridWithAxisVariable(grid, nil); err != nil {
		t.Fatal(err)
	}
	x, _ := p.Variable("x")
	if want := []float64{1.5, 3}; !floats.EqualApprox(x.Data.Elements, want, 1e-9) {
		t.Errorf("x: %v", pretty.Diff(want, x.Data.Elements))
	}
}

func TestRegridPartialColumn(t *testing.T) {
	p := NewProduct()
	mustAdd(t, p,
		profileVariable(t, "altitude", "m", []float64{500, 1500, 2500}),
		profileVariable(t, "O3_column_number_density", "molec/m2", []float64{1, 2, 4}),
	)
	grid := profileVariable(t, "altitude", "m", []float64{1000, 2500})
	bounds, err := NewVariable(BoundsName("altitude"), Double, []DimensionType{Time, Vertical, Independent}, []int{1, 2, 2})
	if err != nil {
		t.Fatal(err)
	}
	bounds.Unit = "m"
	copy(bounds.Data.Elements, []float64{0, 2000, 2000, 3000})
	if err := p.RegridWithAxisVariable(grid, bounds); err != nil {
		t.Fatal(err)
	}
	pc, _ := p.Variable("O3_column_number_density")
	if want := []float64{3, 4}; !floats.EqualApprox(pc.Data.Elements, want, 1e-12) {
		t.Errorf("partial column: %v", pretty.Diff(want, pc.Data.Elements))
	}
	if !p.HasVariable(BoundsName("altitude")) {
		t.Error("the product should hold the target bounds")
	}
}

func TestRegridInvalid(t *testing.T) {
	p := NewProduct()
	mustAdd(t, p,
		profileVariable(t, "altitude", "m", []float64{0, 2000, 1000}),
		profileVariable(t, "x", "ppv", []float64{1, 2, 3}),
	)
	grid := profileVariable(t, "altitude", "m", []float64{500})
	err := p.RegridWithAxisVariable(grid, nil)
	if !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("non-monotonic axis: want invalid argument, got %v", err)
	}
	if p.Dimension(Vertical) != 3 {
		t.Error("product should be unchanged after an error")
	}
	twoRows := profileVariable(t, "altitude", "m", []float64{500}, []float64{500})
	if err := p.RegridWithAxisVariable(twoRows, nil); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("time mismatch: want invalid argument, got %v", err)
	}
	if err := NewProduct().RegridWithAxisVariable(grid, nil); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("no vertical dimension: want invalid argument, got %v", err)
	}
}
