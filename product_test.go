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

func mustAdd(t *testing.T, p *Product, vars ...*Variable) {
	for _, v := range vars {
		if err := p.AddVariable(v); err != nil {
			t.Fatal(err)
		}
	}
}

func intVariable(t *testing.T, name string, data ...int) *Variable {
	v, err := NewIntVariable(name, Time, data)
	if err != nil {
		t.Fatal(err)
	}
	return v
}

func TestProductDimensions(t *testing.T) {
	p := NewProduct()
	if !p.IsEmpty() {
		t.Error("new product should be empty")
	}
	mustAdd(t, p, profileVariable(t, "x", "ppv", []float64{1, 2, 3}, []float64{4, 5, 6}))
	if p.Dimension(Time) != 2 || p.Dimension(Vertical) != 3 {
		t.Errorf("dimensions: time %d, vertical %d", p.Dimension(Time), p.Dimension(Vertical))
	}
	err := p.AddVariable(profileVariable(t, "y", "ppv", []float64{1, 2}, []float64{4, 5}))
	if !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("vertical length mismatch: want invalid argument, got %v", err)
	}
	if err := p.AddVariable(profileVariable(t, "x", "ppv", []float64{1, 2, 3}, []float64{4, 5, 6})); err == nil {
		t.Error("duplicate name should fail")
	}
	if err := p.RemoveVariable("x"); err != nil {
		t.Fatal(err)
	}
	if p.Dimension(Vertical) != 0 || !p.IsEmpty() {
		t.Error("dimensions should be reset when the last variable is removed")
	}
	if err := p.RemoveVariable("x"); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("want invalid argument, got %v", err)
	}
}

func TestProductFilterByIndex(t *testing.T) {
	p := NewProduct()
	mustAdd(t, p,
		intVariable(t, CollocationIndexName, 10, 11, 12),
		profileVariable(t, "x", "ppv", []float64{1, 1}, []float64{2, 2}, []float64{3, 3}),
	)
	if err := p.FilterByIndex(CollocationIndexName, []int{12, 10, 12}); err != nil {
		t.Fatal(err)
	}
	x, _ := p.Variable("x")
	if want := []float64{3, 3, 1, 1, 3, 3}; !floats.Equal(x.Data.Elements, want) {
		t.Errorf("x: %v", pretty.Diff(want, x.Data.Elements))
	}
	ci, _ := p.Variable(CollocationIndexName)
	if want := []int{12, 10, 12}; pretty.Sprint(ci.IntData.Elements) != pretty.Sprint(want) {
		t.Errorf("collocation index: %v", pretty.Diff(want, ci.IntData.Elements))
	}
	err := p.FilterByIndex(CollocationIndexName, []int{11})
	if !errors.Is(err, ErrInconsistentCollocation) {
		t.Errorf("want inconsistent collocation, got %v", err)
	}
}

func TestProductAppend(t *testing.T) {
	a := NewProduct()
	mustAdd(t, a,
		intVariable(t, CollocationIndexName, 1),
		profileVariable(t, "altitude", "m", []float64{0, 1000}),
	)
	b := NewProduct()
	mustAdd(t, b,
		intVariable(t, CollocationIndexName, 2, 3),
		profileVariable(t, "altitude", "km", []float64{0, 1, 2}, []float64{0.5, 1.5, 2.5}),
	)
	if err := a.Append(b); err != nil {
		t.Fatal(err)
	}
	if a.Dimension(Time) != 3 || a.Dimension(Vertical) != 3 {
		t.Fatalf("dimensions: time %d, vertical %d", a.Dimension(Time), a.Dimension(Vertical))
	}
	z, _ := a.Variable("altitude")
	want := []float64{0, 1000, math.NaN(), 0, 1000, 2000, 500, 1500, 2500}
	for i, w := range want {
		got := z.Data.Elements[i]
		if math.IsNaN(w) != math.IsNaN(got) || (!math.IsNaN(w) && different(got, w, 1e-12)) {
			t.Errorf("element %d: want %g, got %g", i, w, got)
		}
	}
	if zb, _ := b.Variable("altitude"); zb.Unit != "km" {
		t.Error("appended product should not be modified")
	}

	c := NewProduct()
	mustAdd(t, c, intVariable(t, CollocationIndexName, 4))
	if err := a.Append(c); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("different variables: want invalid argument, got %v", err)
	}
}

func TestDerivedVariable(t *testing.T) {
	p := NewProduct()
	grid, err := NewVariable("pressure", Double, []DimensionType{Vertical}, []int{3})
	if err != nil {
		t.Fatal(err)
	}
	grid.Unit = "hPa"
	copy(grid.Data.Elements, []float64{1000, 500, 250})
	mustAdd(t, p, grid, intVariable(t, CollocationIndexName, 0, 1))

	t.Run("unit", func(t *testing.T) {
		v, err := p.DerivedVariable("pressure", Double, "Pa", Vertical)
		if err != nil {
			t.Fatal(err)
		}
		if want := []float64{100000, 50000, 25000}; !floats.EqualApprox(v.Data.Elements, want, 1e-9) {
			t.Errorf("%v", pretty.Diff(want, v.Data.Elements))
		}
		if grid.Unit != "hPa" || grid.Data.Elements[0] != 1000 {
			t.Error("product should not be modified")
		}
	})
	t.Run("time broadcast", func(t *testing.T) {
		v, err := p.DerivedVariable("pressure", Double, "hPa", Time, Vertical)
		if err != nil {
			t.Fatal(err)
		}
		if want := []float64{1000, 500, 250, 1000, 500, 250}; !floats.Equal(v.Data.Elements, want) {
			t.Errorf("%v", pretty.Diff(want, v.Data.Elements))
		}
	})
	t.Run("bounds", func(t *testing.T) {
		v, err := p.DerivedVariable(BoundsName("pressure"), Double, "hPa", Vertical, Independent)
		if err != nil {
			t.Fatal(err)
		}
		m01, m12 := math.Sqrt(1000*500.), math.Sqrt(500*250.)
		want := []float64{1000 * 1000 / m01, m01, m01, m12, m12, 250 * 250 / m12}
		if !floats.EqualApprox(v.Data.Elements, want, 1e-9) {
			t.Errorf("%v", pretty.Diff(want, v.Data.Elements))
		}
	})
	t.Run("data type", func(t *testing.T) {
		v, err := p.DerivedVariable(CollocationIndexName, Double, "", Time)
		if err != nil {
			t.Fatal(err)
		}
		if v.Data == nil || v.IntData != nil || v.Data.Elements[1] != 1 {
			t.Errorf("wrong conversion: %# v", pretty.Formatter(v))
		}
	})
	t.Run("not derivable", func(t *testing.T) {
		_, err := p.DerivedVariable("temperature", Double, "K", Time, Vertical)
		if !errors.Is(err, ErrNotDerivable) {
			t.Errorf("want not derivable, got %v", err)
		}
		if _, err = p.DerivedVariable("pressure", Double, "m", Vertical); !errors.Is(err, ErrInvalidArgument) {
			t.Errorf("incompatible unit: want invalid argument, got %v", err)
		}
	})
}

func TestDerivedAltitude(t *testing.T) {
	z, pres, T := standardAtmosphere()
	p := NewProduct()
	lat, err := NewVariable("latitude", Double, []DimensionType{Time}, []int{1})
	if err != nil {
		t.Fatal(err)
	}
	lat.Unit = "degree_north"
	lat.Data.Elements[0] = 45
	ps, _ := NewVariable("surface_pressure", Double, []DimensionType{Time}, []int{1})
	ps.Unit = "Pa"
	ps.Data.Elements[0] = 101325
	zs, _ := NewVariable("surface_altitude", Double, []DimensionType{Time}, []int{1})
	zs.Unit = "m"
	mustAdd(t, p, lat, ps, zs,
		profileVariable(t, "geopotential_height", "m", z),
		profileVariable(t, "pressure", "Pa", pres),
		profileVariable(t, "temperature", "K", T),
		profileVariable(t, "molar_mass", "g/mol", constant(len(z), 28.9644)),
	)

	// With geopotential height present the direct conversion is used.
	alt, err := p.DerivedVariable("altitude", Double, "m", Time, Vertical)
	if err != nil {
		t.Fatal(err)
	}
	for i, h := range z {
		if want := AltitudeFromGPHAndLatitude(h, 45); different(alt.Data.Elements[i], want, 1e-12) {
			t.Errorf("level %d: want %g, got %g", i, want, alt.Data.Elements[i])
		}
	}

	// Without it the hydrostatic integration is used.
	if err := p.RemoveVariable("geopotential_height"); err != nil {
		t.Fatal(err)
	}
	alt2, err := p.DerivedVariable("altitude", Double, "km", Time, Vertical)
	if err != nil {
		t.Fatal(err)
	}
	for i := range z {
		if math.Abs(alt2.Data.Elements[i]*1000-alt.Data.Elements[i]) > 10 {
			t.Errorf("level %d: hydrostatic altitude %g km, want about %g m", i, alt2.Data.Elements[i],
				alt.Data.Elements[i])
		}
	}
}
