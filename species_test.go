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
	"testing"

	"github.com/kr/pretty"
	"gonum.org/v1/gonum/floats"
)

// speciesProduct returns a product with two samples of three 1 km thick
// levels. The top level of the second sample is padding.
func speciesProduct(t *testing.T) *Product {
	p := NewProduct()
	nan := math.NaN()
	avk := avkVariable(t, 3,
		[]float64{1, 0.5, 0, 0.2, 1, 0.1, 0, 0.3, 0.8},
		[]float64{0.9, 0.1, nan, 0.1, 0.7, nan, nan, nan, nan},
	)
	avk.Name = AVKName("O3_volume_mixing_ratio")
	trop, err := NewVariable("tropopause_altitude", Double, []DimensionType{Time}, []int{2})
	if err != nil {
		t.Fatal(err)
	}
	trop.Unit = "km"
	copy(trop.Data.Elements, []float64{1.5, 1.5})
	mustAdd(t, p,
		profileVariable(t, "altitude", "m", []float64{500, 1500, 2500}, []float64{500, 1500, 2500}),
		profileVariable(t, "pressure", "hPa", []float64{900, 800, 700}, []float64{900, 800, nan}),
		profileVariable(t, "temperature", "K", []float64{280, 270, 260}, []float64{280, 270, nan}),
		profileVariable(t, "O3_volume_mixing_ratio", "ppmv", []float64{1, 2, 3}, []float64{4, 5, nan}),
		avk, trop,
	)
	return p
}

func derived(t *testing.T, p *Product, name, unit string, dims ...DimensionType) []float64 {
	v, err := p.DerivedVariable(name, Double, unit, dims...)
	if err != nil {
		t.Fatal(err)
	}
	return v.Data.Elements
}

func equalPadded(a, b []float64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if math.IsNaN(a[i]) != math.IsNaN(b[i]) {
			return false
		}
		if !math.IsNaN(a[i]) && !floats.EqualWithinAbsOrRel(a[i], b[i], 1e-12, 1e-9) {
			return false
		}
	}
	return true
}

func TestDerivedSpeciesProfiles(t *testing.T) {
	p := speciesProduct(t)
	nan := math.NaN()
	nd := derived(t, p, "number_density", "molec/m3", Time, Vertical)
	wantND := []float64{
		90000 / (boltzmann * 280), 80000 / (boltzmann * 270), 70000 / (boltzmann * 260),
		90000 / (boltzmann * 280), 80000 / (boltzmann * 270), nan,
	}
	if !equalPadded(nd, wantND) {
		t.Errorf("number density: %v", pretty.Diff(wantND, nd))
	}
	if cm3 := derived(t, p, "number_density", "molec/cm3", Time, Vertical); different(cm3[0], nd[0]*1e-6, 1e-12) {
		t.Errorf("molec/cm3: want %g, got %g", nd[0]*1e-6, cm3[0])
	}

	o3 := derived(t, p, "O3_number_density", "molec/m3", Time, Vertical)
	pc := derived(t, p, "O3_column_number_density", "molec/m2", Time, Vertical)
	wantO3 := make([]float64, 6)
	wantPC := make([]float64, 6)
	for i, x := range []float64{1, 2, 3, 4, 5, nan} {
		wantO3[i] = x * 1e-6 * nd[i]
		wantPC[i] = wantO3[i] * 1000
	}
	if !equalPadded(o3, wantO3) {
		t.Errorf("O3 number density: %v", pretty.Diff(wantO3, o3))
	}
	if !equalPadded(pc, wantPC) {
		t.Errorf("O3 partial column: %v", pretty.Diff(wantPC, pc))
	}

	column := derived(t, p, "O3_column_number_density", "molec/m2", Time)
	tropo := derived(t, p, "tropospheric_O3_column_number_density", "molec/m2", Time)
	strato := derived(t, p, "stratospheric_O3_column_number_density", "molec/m2", Time)
	wantColumn := []float64{pc[0] + pc[1] + pc[2], pc[3] + pc[4]}
	wantTropo := []float64{pc[0] + pc[1]/2, pc[3] + pc[4]/2}
	wantStrato := []float64{pc[1]/2 + pc[2], pc[4] / 2}
	for _, c := range []struct {
		name       string
		have, want []float64
	}{
		{"total", column, wantColumn},
		{"tropospheric", tropo, wantTropo},
		{"stratospheric", strato, wantStrato},
	} {
		if !floats.EqualApprox(c.have, c.want, 1e-6) {
			t.Errorf("%s column: %v", c.name, pretty.Diff(c.want, c.have))
		}
	}

	// The mixing ratio is recovered from the number density alone.
	if err := p.AddVariable(profileVariable(t, "O3_number_density", "molec/m3", o3[:3], o3[3:])); err != nil {
		t.Fatal(err)
	}
	if err := p.RemoveVariable("O3_volume_mixing_ratio"); err != nil {
		t.Fatal(err)
	}
	vmr := derived(t, p, "O3_volume_mixing_ratio", "ppmv", Time, Vertical)
	if want := []float64{1, 2, 3, 4, 5, nan}; !equalPadded(vmr, want) {
		t.Errorf("mixing ratio: %v", pretty.Diff(want, vmr))
	}
}

func TestDerivedSpeciesKernels(t *testing.T) {
	p := speciesProduct(t)
	nan := math.NaN()
	nd := derived(t, p, "number_density", "molec/m3", Time, Vertical)
	vmrAVK := derived(t, p, AVKName("O3_volume_mixing_ratio"), "", Time, Vertical, Vertical)

	ndAVK := derived(t, p, AVKName("O3_number_density"), "", Time, Vertical, Vertical)
	want := make([]float64, 18)
	for k := 0; k < 2; k++ {
		for i := 0; i < 3; i++ {
			for j := 0; j < 3; j++ {
				x := k*9 + i*3 + j
				want[x] = nd[k*3+i] * vmrAVK[x] / nd[k*3+j]
			}
		}
	}
	if !equalPadded(ndAVK, want) {
		t.Fatalf("number density kernel: %v", pretty.Diff(want, ndAVK))
	}

	// Equal level thicknesses make the column kernel the column sums of
	// the number density kernel.
	columnAVK := derived(t, p, AVKName("O3_column_number_density"), "", Time, Vertical)
	wantColumn := []float64{
		ndAVK[0] + ndAVK[3] + ndAVK[6], ndAVK[1] + ndAVK[4] + ndAVK[7], ndAVK[2] + ndAVK[5] + ndAVK[8],
		ndAVK[9] + ndAVK[12], ndAVK[10] + ndAVK[13], nan,
	}
	if !equalPadded(columnAVK, wantColumn) {
		t.Errorf("column kernel: %v", pretty.Diff(wantColumn, columnAVK))
	}

	tropo := derived(t, p, AVKName("tropospheric_O3_column_number_density"), "", Time, Vertical)
	if want := []float64{columnAVK[0], columnAVK[1], 0, columnAVK[3], columnAVK[4], 0}; !equalPadded(tropo, want) {
		t.Errorf("tropospheric column kernel: %v", pretty.Diff(want, tropo))
	}
	strato := derived(t, p, AVKName("stratospheric_O3_column_number_density"), "", Time, Vertical)
	if want := []float64{0, columnAVK[1], columnAVK[2], 0, columnAVK[4], nan}; !equalPadded(strato, want) {
		t.Errorf("stratospheric column kernel: %v", pretty.Diff(want, strato))
	}

	// The mixing ratio kernel is recovered from the number density kernel.
	if err := p.AddDerivedVariable(AVKName("O3_number_density"), Double, "", Time, Vertical, Vertical); err != nil {
		t.Fatal(err)
	}
	if err := p.RemoveVariable(AVKName("O3_volume_mixing_ratio")); err != nil {
		t.Fatal(err)
	}
	back := derived(t, p, AVKName("O3_volume_mixing_ratio"), "", Time, Vertical, Vertical)
	if !equalPadded(back, vmrAVK) {
		t.Errorf("mixing ratio kernel: %v", pretty.Diff(vmrAVK, back))
	}
}
