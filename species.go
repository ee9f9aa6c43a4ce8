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

	"gonum.org/v1/gonum/mat"
)

// speciesDerivations returns the conversions for a species quantity,
// whose name is a species name followed by a quantity suffix, such as
// "O3_number_density" or "tropospheric_O3_column_number_density_avk".
// Partial column profiles are named "<species>_column_number_density"
// with dimensions {time,vertical}; the same name with dimensions {time}
// is the total column.
func speciesDerivations(name string) []derivation {
	var d []derivation
	if x := strings.TrimPrefix(name, "tropospheric_"); x != name {
		d = append(d, columnSplit(x, ProfileTropoColumnFromPartialColumnAndAltitude,
			TroposphericColumnAVKFromColumnAVK)...)
	}
	if x := strings.TrimPrefix(name, "stratospheric_"); x != name {
		d = append(d, columnSplit(x, ProfileStratoColumnFromPartialColumnAndAltitude,
			StratosphericColumnAVKFromColumnAVK)...)
	}
	if x := species(name, "_column_number_density_avk"); x != "" {
		d = append(d, derivation{
			dims:    profileDims,
			sources: []derivationSource{{name: x + "_number_density_avk", dims: kernelDims}, altitudeBounds},
			compute: func(out *Variable, src []*Variable) {
				for t := 0; t < out.Shape()[0]; t++ {
					bounds := block(src[1].Data, t)
					m := unpaddedLength(bounds) / 2
					if k := kernelLength(src[0], t); k < m {
						m = k
					}
					o := block(out.Data, t)
					padLevels(o, 0)
					if m == 0 {
						continue
					}
					pc := PartialColumnAVKFromDensityAVKAndAltitudeBounds(kernelMatrix(src[0], t, m), bounds[:2*m])
					copy(o, ColumnAVKFromPartialColumnAVK(pc))
				}
			},
		})
	}
	if x := species(name, "_number_density_avk"); x != "" && !strings.HasSuffix(x, "_column") {
		d = append(d, derivation{
			dims:    kernelDims,
			sources: []derivationSource{{name: x + "_volume_mixing_ratio_avk", dims: kernelDims}, profileSource("number_density", "molec/m3")},
			compute: convertKernels(NumberDensityAVKFromVolumeMixingRatioAVK),
		})
	}
	if x := species(name, "_volume_mixing_ratio_avk"); x != "" {
		d = append(d, derivation{
			dims:    kernelDims,
			sources: []derivationSource{{name: x + "_number_density_avk", dims: kernelDims}, profileSource("number_density", "molec/m3")},
			compute: convertKernels(VolumeMixingRatioAVKFromNumberDensityAVK),
		})
	}
	if x := species(name, "_column_number_density"); x != "" {
		d = append(d,
			derivation{
				dims:    profileDims,
				unit:    "molec/m2",
				sources: []derivationSource{profileSource(x+"_number_density", "molec/m3"), altitudeBounds},
				compute: func(out *Variable, src []*Variable) {
					for t := 0; t < out.Shape()[0]; t++ {
						o := block(out.Data, t)
						h := layerThickness(block(src[1].Data, t))
						for i, n := range block(src[0].Data, t) {
							o[i] = n * h[i]
						}
					}
				},
			},
			derivation{
				dims:    timeDims,
				unit:    "molec/m2",
				sources: []derivationSource{profileSource(name, "molec/m2")},
				compute: func(out *Variable, src []*Variable) {
					for t := 0; t < out.Shape()[0]; t++ {
						out.Data.Set(ProfileColumnFromPartialColumn(block(src[0].Data, t)), t)
					}
				},
			},
		)
	}
	if x := species(name, "_number_density"); x != "" && !strings.HasSuffix(x, "_column") {
		d = append(d, derivation{
			dims:    profileDims,
			unit:    "molec/m3",
			sources: []derivationSource{profileSource(x+"_volume_mixing_ratio", "ppv"), profileSource("number_density", "molec/m3")},
			compute: func(out *Variable, src []*Variable) {
				for i, v := range src[0].Data.Elements {
					out.Data.Elements[i] = v * src[1].Data.Elements[i]
				}
			},
		})
	}
	if x := species(name, "_volume_mixing_ratio"); x != "" {
		d = append(d, derivation{
			dims:    profileDims,
			unit:    "ppv",
			sources: []derivationSource{profileSource(x+"_number_density", "molec/m3"), profileSource("number_density", "molec/m3")},
			compute: func(out *Variable, src []*Variable) {
				for i, n := range src[0].Data.Elements {
					out.Data.Elements[i] = n / src[1].Data.Elements[i]
				}
			},
		})
	}
	return d
}

// species returns the species part of name if name ends in suffix.
func species(name, suffix string) string {
	if !strings.HasSuffix(name, suffix) {
		return ""
	}
	return strings.TrimSuffix(name, suffix)
}

// columnSplit returns the conversions from the partial column profile
// and column averaging kernel of species quantity x to their part below
// or above the tropopause.
func columnSplit(x string, column func(partialColumn, altitudeBounds []float64, tropopauseAltitude float64) float64,
	kernel func(columnAVK, altitudeBounds []float64, tropopauseAltitude float64) []float64) []derivation {
	tropopause := timeSource("tropopause_altitude", "m")
	var d []derivation
	if y := species(x, "_column_number_density"); y != "" {
		d = append(d, derivation{
			dims:    timeDims,
			unit:    "molec/m2",
			sources: []derivationSource{profileSource(x, "molec/m2"), altitudeBounds, tropopause},
			compute: func(out *Variable, src []*Variable) {
				for t := 0; t < out.Shape()[0]; t++ {
					out.Data.Set(column(block(src[0].Data, t), block(src[1].Data, t), src[2].Data.Get(t)), t)
				}
			},
		})
	}
	if y := species(x, "_column_number_density_avk"); y != "" {
		d = append(d, derivation{
			dims:    profileDims,
			sources: []derivationSource{profileSource(x, ""), altitudeBounds, tropopause},
			compute: func(out *Variable, src []*Variable) {
				for t := 0; t < out.Shape()[0]; t++ {
					copy(block(out.Data, t), kernel(block(src[0].Data, t), block(src[1].Data, t), src[2].Data.Get(t)))
				}
			},
		})
	}
	return d
}

// convertKernels applies the averaging kernel conversion f, which scales
// the kernel with a per level air number density, to every time of a
// {time,vertical,vertical} kernel. Padding levels of the number density
// profile stay NaN.
func convertKernels(f func(avk mat.Matrix, numberDensityAir []float64) *mat.Dense) func(out *Variable, src []*Variable) {
	return func(out *Variable, src []*Variable) {
		for t := 0; t < out.Shape()[0]; t++ {
			n := block(src[1].Data, t)
			m := unpaddedLength(n)
			var a *mat.Dense
			if m > 0 {
				a = f(kernelMatrix(src[0], t, m), n[:m])
			}
			setKernelMatrix(out, t, a, m)
		}
	}
}

// kernelMatrix returns a copy of the upper left m×m part of the kernel
// of time t of the {time,vertical,vertical} variable avk.
func kernelMatrix(avk *Variable, t, m int) *mat.Dense {
	nz := avk.Shape()[1]
	return mat.DenseCopyOf(mat.NewDense(nz, nz, block(avk.Data, t)).Slice(0, m, 0, m))
}

// kernelLength returns the number of levels of the kernel of time t of
// the {time,vertical,vertical} variable avk that are not padding, from
// the trailing NaN values on its diagonal.
func kernelLength(avk *Variable, t int) int {
	nz := avk.Shape()[1]
	diag := make([]float64, nz)
	for i := range diag {
		diag[i] = avk.Data.Get(t, i, i)
	}
	return unpaddedLength(diag)
}

// setKernelMatrix stores the m×m matrix a as the kernel of time t of
// the {time,vertical,vertical} variable out. The remaining levels are
// set to NaN.
func setKernelMatrix(out *Variable, t int, a *mat.Dense, m int) {
	nz := out.Shape()[1]
	for i := 0; i < nz; i++ {
		for j := 0; j < nz; j++ {
			x := math.NaN()
			if i < m && j < m {
				x = a.At(i, j)
			}
			out.Data.Elements[out.Data.Index1d(t, i, j)] = x
		}
	}
}
