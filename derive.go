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
	"strings"
)

// derivation describes how a variable can be computed from other
// variables of a product.
type derivation struct {
	dims    []DimensionType
	unit    string
	sources []derivationSource
	// compute fills out, which has the dimensions of the first
	// len(dims) dimensions of src[0], from the derived sources.
	compute func(out *Variable, src []*Variable)
}

type derivationSource struct {
	name string
	unit string
	dims []DimensionType
}

var (
	profileDims = []DimensionType{Time, Vertical}
	timeDims    = []DimensionType{Time}
	kernelDims  = []DimensionType{Time, Vertical, Vertical}
)

func profileSource(name, unit string) derivationSource {
	return derivationSource{name: name, unit: unit, dims: profileDims}
}

func timeSource(name, unit string) derivationSource {
	return derivationSource{name: name, unit: unit, dims: timeDims}
}

// altitudeBounds is the {time,vertical,2} layer boundary source that
// partial column conversions integrate over.
var altitudeBounds = derivationSource{name: BoundsName("altitude"), unit: "m", dims: []DimensionType{Time, Vertical, Independent}}

// derivations holds the conversions that are tried, in order, when a
// variable is not present in a product with the requested dimensions.
// Species quantities are handled by speciesDerivations.
var derivations map[string][]derivation

func init() {
	hydrostatic := func(withLatitude bool, f func(z, T, M []float64, ps, sh, lat float64, out []float64)) func(out *Variable, src []*Variable) {
		return func(out *Variable, src []*Variable) {
			for t := 0; t < out.Shape()[0]; t++ {
				var lat float64
				if withLatitude {
					lat = src[5].Data.Get(t)
				}
				f(block(src[0].Data, t), block(src[1].Data, t), block(src[2].Data, t),
					src[3].Data.Get(t), src[4].Data.Get(t), lat, block(out.Data, t))
			}
		}
	}
	profile, scalar := profileSource, timeSource
	hydrostaticSources := func(axis, axisUnit, surface string, withLatitude bool) []derivationSource {
		s := []derivationSource{
			profile(axis, axisUnit),
			profile("temperature", "K"),
			profile("molar_mass", "g/mol"),
			scalar("surface_pressure", "Pa"),
			scalar(surface, "m"),
		}
		if withLatitude {
			s = append(s, scalar("latitude", "degree_north"))
		}
		return s
	}
	perLevel := func(f func(x, lat float64) float64) func(out *Variable, src []*Variable) {
		return func(out *Variable, src []*Variable) {
			for t := 0; t < out.Shape()[0]; t++ {
				lat, o := src[1].Data.Get(t), block(out.Data, t)
				for i, x := range block(src[0].Data, t) {
					o[i] = f(x, lat)
				}
			}
		}
	}

	derivations = map[string][]derivation{
		"altitude": {
			{
				dims:    profileDims,
				unit:    "m",
				sources: []derivationSource{profile("geopotential_height", "m"), scalar("latitude", "degree_north")},
				compute: perLevel(AltitudeFromGPHAndLatitude),
			},
			{
				dims:    profileDims,
				unit:    "m",
				sources: hydrostaticSources("pressure", "Pa", "surface_altitude", true),
				compute: hydrostatic(true, ProfileAltitudeFromPressure),
			},
		},
		"geopotential_height": {
			{
				dims:    profileDims,
				unit:    "m",
				sources: []derivationSource{profile("geopotential", "m2/s2")},
				compute: func(out *Variable, src []*Variable) {
					for i, x := range src[0].Data.Elements {
						out.Data.Elements[i] = GPHFromGeopotential(x)
					}
				},
			},
			{
				dims:    profileDims,
				unit:    "m",
				sources: []derivationSource{profile("altitude", "m"), scalar("latitude", "degree_north")},
				compute: perLevel(GPHFromAltitudeAndLatitude),
			},
			{
				dims:    profileDims,
				unit:    "m",
				sources: hydrostaticSources("pressure", "Pa", "surface_geopotential_height", false),
				compute: hydrostatic(false, func(p, T, M []float64, ps, sh, _ float64, out []float64) {
					ProfileGPHFromPressure(p, T, M, ps, sh, out)
				}),
			},
		},
		"geopotential": {
			{
				dims:    profileDims,
				unit:    "m2/s2",
				sources: []derivationSource{profile("geopotential_height", "m")},
				compute: func(out *Variable, src []*Variable) {
					for i, x := range src[0].Data.Elements {
						out.Data.Elements[i] = GeopotentialFromGPH(x)
					}
				},
			},
		},
		"pressure": {
			{
				dims:    profileDims,
				unit:    "Pa",
				sources: hydrostaticSources("altitude", "m", "surface_altitude", true),
				compute: hydrostatic(true, ProfilePressureFromAltitude),
			},
			{
				dims:    profileDims,
				unit:    "Pa",
				sources: hydrostaticSources("geopotential_height", "m", "surface_geopotential_height", false),
				compute: hydrostatic(false, func(z, T, M []float64, ps, sh, _ float64, out []float64) {
					ProfilePressureFromGPH(z, T, M, ps, sh, out)
				}),
			},
		},
		"number_density": {
			{
				dims:    profileDims,
				unit:    "molec/m3",
				sources: []derivationSource{profile("pressure", "Pa"), profile("temperature", "K")},
				compute: func(out *Variable, src []*Variable) {
					for i, p := range src[0].Data.Elements {
						out.Data.Elements[i] = p / (boltzmann * src[1].Data.Elements[i])
					}
				},
			},
		},
		"tropopause_altitude": {
			{
				dims:    timeDims,
				unit:    "m",
				sources: []derivationSource{profile("altitude", "m"), profile("pressure", "Pa"), profile("temperature", "K")},
				compute: func(out *Variable, src []*Variable) {
					tropopauseAltitudes(src[0], src[1], src[2], out)
				},
			},
		},
	}
}

// DerivedVariable returns a new variable with the given name, data type,
// unit and dimension types, computed from the variables in p. p is not
// modified. An empty unit means the unit of the source is kept.
//
// A variable is derived, in order of preference, by
//   - converting the unit and data type of the variable with that name;
//   - repeating a time independent variable with that name for every time;
//   - computing the <grid>_bounds variable from the <grid> variable;
//   - one of the conversions between altitude, geopotential height,
//     geopotential and pressure, the air number density, or the
//     tropopause locator;
//   - one of the species conversions between volume mixing ratio, number
//     density and partial or total columns, and between the matching
//     averaging kernels.
//
// An error of kind KindNotDerivable is returned if none of these apply.
func (p *Product) DerivedVariable(name string, dt DataType, unit string, dimTypes ...DimensionType) (*Variable, error) {
	return p.derive(name, dt, unit, dimTypes, make(map[string]bool))
}

// AddDerivedVariable derives a variable as DerivedVariable does and adds
// it to p, replacing any variable with the same name.
func (p *Product) AddDerivedVariable(name string, dt DataType, unit string, dimTypes ...DimensionType) error {
	v, err := p.DerivedVariable(name, dt, unit, dimTypes...)
	if err != nil {
		return err
	}
	return p.ReplaceVariable(v)
}

func (p *Product) derive(name string, dt DataType, unit string, dimTypes []DimensionType, visiting map[string]bool) (*Variable, error) {
	key := name + " " + formatDimensions(dimTypes)
	if visiting[key] {
		return nil, notDerivable("could not derive variable '%s'", key)
	}
	visiting[key] = true
	defer delete(visiting, key)

	v, err := p.deriveUnconverted(name, unit, dimTypes, visiting)
	if err != nil {
		return nil, err
	}
	if unit != "" && v.Unit != unit {
		if err := v.ConvertUnit(unit); err != nil {
			return nil, err
		}
	}
	if v.DataType != dt {
		if err := v.ConvertDataType(dt); err != nil {
			return nil, err
		}
	}
	return v, nil
}

func (p *Product) deriveUnconverted(name, unit string, dimTypes []DimensionType, visiting map[string]bool) (*Variable, error) {
	if v, err := p.Variable(name); err == nil {
		if v.HasDimensionTypes(dimTypes...) {
			return v.Copy(), nil
		}
		if len(dimTypes) > 0 && dimTypes[0] == Time && v.HasDimensionTypes(dimTypes[1:]...) {
			return v.broadcastTime(p.dims[Time]), nil
		}
	}

	n := len(dimTypes)
	if strings.HasSuffix(name, "_bounds") && n >= 2 && dimTypes[n-1] == Independent && dimTypes[n-2] == Vertical {
		grid, err := p.derive(strings.TrimSuffix(name, "_bounds"), Double, unit, dimTypes[:n-1], visiting)
		if err == nil {
			return boundsFromGrid(name, grid)
		}
	}

	for _, d := range append(derivations[name], speciesDerivations(name)...) {
		if !sameDimensionTypes(d.dims, dimTypes) {
			continue
		}
		src := make([]*Variable, len(d.sources))
		ok := true
		for i, s := range d.sources {
			v, err := p.derive(s.name, Double, s.unit, s.dims, visiting)
			if err != nil {
				ok = false
				break
			}
			src[i] = v
		}
		if !ok {
			continue
		}
		out, err := NewVariable(name, Double, d.dims, src[0].Shape()[:len(d.dims)])
		if err != nil {
			return nil, err
		}
		out.Unit = d.unit
		d.compute(out, src)
		return out, nil
	}
	return nil, notDerivable("could not derive variable '%s %s'", name, formatDimensions(dimTypes))
}

func sameDimensionTypes(a, b []DimensionType) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// boundsFromGrid returns a {...,vertical,2} variable holding the lower
// and upper boundary of every level of the {...,vertical} grid. Interior
// boundaries are the midpoints between levels and the outer boundaries
// are extrapolated. Pressure grids are treated in log space.
func boundsFromGrid(name string, grid *Variable) (*Variable, error) {
	shape := grid.Shape()
	dimTypes := append(append([]DimensionType{}, grid.DimTypes...), Independent)
	b, err := NewVariable(name, Double, dimTypes, append(append([]int{}, shape...), 2))
	if err != nil {
		return nil, err
	}
	b.Unit = grid.Unit
	logAxis := isPressureUnit(grid.Unit)
	forEachIndex(shape[:len(shape)-1], func(index []int) {
		levelBounds(block(grid.Data, index...), block(b.Data, index...), logAxis)
	})
	return b, nil
}

// levelBounds fills bounds (two values per level) from the level
// values in g, which may be padded with trailing NaN.
func levelBounds(g, bounds []float64, logAxis bool) {
	to, from := func(x float64) float64 { return x }, func(x float64) float64 { return x }
	if logAxis {
		to, from = math.Log, math.Exp
	}
	for i := range bounds {
		bounds[i] = math.NaN()
	}
	m := unpaddedLength(g)
	if m == 1 {
		bounds[0], bounds[1] = g[0], g[0]
	}
	if m < 2 {
		return
	}
	for k := 1; k < m; k++ {
		mid := from((to(g[k-1]) + to(g[k])) / 2)
		bounds[2*k-1] = mid
		bounds[2*k] = mid
	}
	bounds[0] = from(2*to(g[0]) - to(bounds[1]))
	bounds[2*m-1] = from(2*to(g[m-1]) - to(bounds[2*m-2]))
}

// unpaddedLength returns the length of v without its trailing NaN
// values.
func unpaddedLength(v []float64) int {
	for i := len(v) - 1; i >= 0; i-- {
		if !math.IsNaN(v[i]) {
			return i + 1
		}
	}
	return 0
}

func isPressureUnit(u string) bool {
	pu, err := parseUnit(u)
	if err != nil {
		return false
	}
	return pu.Dimensions().Matches(pascal)
}
