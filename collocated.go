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

	"github.com/sirupsen/logrus"
)

// kernelRequest names a variable that has to be taken from a collocated
// product along with its vertical grid.
type kernelRequest struct {
	name     string
	unit     string
	dims     []DimensionType
	optional bool
}

// profileKernels returns the averaging kernels and a priori profiles
// needed to smooth the given variables of product.
func profileKernels(product *Product, smoothVariables []string) []kernelRequest {
	var k []kernelRequest
	for _, name := range smoothVariables {
		v, _ := product.Variable(name)
		k = append(k,
			kernelRequest{name: AVKName(name), dims: []DimensionType{Time, Vertical, Vertical}},
			kernelRequest{name: AprioriName(name), unit: v.Unit, dims: profileDims, optional: true},
		)
	}
	return k
}

// columnKernels returns the column averaging kernel and a priori profile
// needed to compute a smoothed column with the given dimensions.
func columnKernels(name, unit string, dimTypes []DimensionType) []kernelRequest {
	dims := append(append([]DimensionType{}, dimTypes...), Vertical)
	return []kernelRequest{
		{name: AVKName(name), dims: dims},
		{name: AprioriName(name), unit: unit, dims: dims, optional: true},
	}
}

// kernelProduct returns a new product holding the collocation index,
// the vertical axis and its bounds, and the requested kernels, all
// derived from src.
func kernelProduct(src *Product, verticalAxis, verticalUnit string, kernels []kernelRequest) (*Product, error) {
	kp := NewProduct()
	kp.SourceProduct = src.SourceProduct
	add := func(name string, dt DataType, unit string, dims ...DimensionType) error {
		v, err := src.DerivedVariable(name, dt, unit, dims...)
		if err != nil {
			return err
		}
		return kp.AddVariable(v)
	}
	if err := add(CollocationIndexName, Int32, "", Time); err != nil {
		return nil, err
	}
	if err := add(verticalAxis, Double, verticalUnit, Time, Vertical); err != nil {
		return nil, err
	}
	if err := add(BoundsName(verticalAxis), Double, verticalUnit, Time, Vertical, Independent); err != nil {
		return nil, err
	}
	for _, k := range kernels {
		err := add(k.name, Double, k.unit, k.dims...)
		if err != nil && k.optional && KindOf(err) == KindNotDerivable {
			Log.WithFields(logrus.Fields{
				"source_product": src.SourceProduct,
				"variable":       k.name,
			}).Debug("vertprof: optional variable not available")
			continue
		}
		if err != nil {
			return nil, err
		}
	}
	return kp, nil
}

// collocationIndex returns the collocation indices of product.
func collocationIndex(product *Product) ([]int, error) {
	v, err := product.Variable(CollocationIndexName)
	if err != nil {
		return nil, err
	}
	if !v.HasDimensionTypes(Time) {
		return nil, invalidArgument("variable '%s' should have dimensions {time}", CollocationIndexName)
	}
	return v.Ints(), nil
}

// mergeCollocatedDataset reads, for every source product of dataset B
// of result, the samples that are collocated with product and merges the
// kernels derived from them into a single product.
func mergeCollocatedDataset(product *Product, result *CollocationResult, verticalAxis, verticalUnit string,
	kernels []kernelRequest) (*Product, error) {
	index, err := collocationIndex(product)
	if err != nil {
		return nil, err
	}
	if result.DatasetB == nil {
		return nil, invalidArgument("collocation result has no dataset B")
	}
	filtered := result.ShallowCopy()
	filtered.FilterForCollocationIndices(index)
	if filtered.Len() != len(index) {
		return nil, newError(KindInconsistentCollocation, "product and collocation result are inconsistent")
	}

	var merged *Product
	for _, sourceProduct := range filtered.DatasetB.SourceProducts {
		cp, err := filtered.FilteredProductB(sourceProduct)
		if err != nil {
			return nil, err
		}
		if cp == nil || cp.IsEmpty() {
			continue
		}
		kp, err := kernelProduct(cp, verticalAxis, verticalUnit, kernels)
		if err != nil {
			return nil, err
		}
		Log.WithFields(logrus.Fields{
			"source_product": sourceProduct,
			"samples":        kp.Dimension(Time),
		}).Debug("vertprof: merging collocated product")
		if merged == nil {
			merged = kp
		} else if err := merged.Append(kp); err != nil {
			return nil, err
		}
	}
	if merged == nil {
		return nil, newError(KindInconsistentCollocation, "collocated dataset does not contain any matching pairs")
	}
	return merged, nil
}

// checkSmoothArguments validates the arguments common to the profile
// smoothing functions.
func checkSmoothArguments(product *Product, smoothVariables []string) error {
	if product.Dimension(Vertical) == 0 {
		return invalidArgument("product has no vertical dimension")
	}
	for _, name := range smoothVariables {
		if !product.HasVariable(name) {
			return invalidArgument("product has no variable named '%s'", name)
		}
	}
	return nil
}

// smoothWithKernels sorts the samples of kp to match product, regrids
// product onto the vertical grid of kp and applies the kernels of kp to
// the variables.
func smoothWithKernels(product, kp *Product, smoothVariables []string, verticalAxis string) error {
	index, err := collocationIndex(product)
	if err != nil {
		return err
	}
	if err := kp.FilterByIndex(CollocationIndexName, index); err != nil {
		return err
	}
	grid, err := kp.Variable(verticalAxis)
	if err != nil {
		return err
	}
	bounds, err := kp.Variable(BoundsName(verticalAxis))
	if err != nil {
		return err
	}
	if err := product.RegridWithAxisVariable(grid, bounds); err != nil {
		return err
	}
	for _, name := range smoothVariables {
		v, err := product.Variable(name)
		if err != nil {
			return err
		}
		avk, err := kp.Variable(AVKName(name))
		if err != nil {
			return err
		}
		var apriori *Variable
		if kp.HasVariable(AprioriName(name)) {
			apriori, _ = kp.Variable(AprioriName(name))
		}
		if err := VariableSmoothVertical(v, grid, avk, apriori); err != nil {
			return err
		}
	}
	return nil
}

// ProductSmoothVerticalWithCollocatedProduct smooths the named variables
// of product with the averaging kernels ("<variable>_avk") and, where
// available, a priori profiles ("<variable>_apriori") of the collocated
// product. Both products must have a collocation_index variable. product
// is first regridded onto the verticalAxis grid of the collocated
// product, in verticalUnit. collocated is not modified.
func ProductSmoothVerticalWithCollocatedProduct(product *Product, smoothVariables []string, verticalAxis,
	verticalUnit string, collocated *Product) error {
	if err := checkSmoothArguments(product, smoothVariables); err != nil {
		return err
	}
	kp, err := kernelProduct(collocated, verticalAxis, verticalUnit, profileKernels(product, smoothVariables))
	if err != nil {
		return err
	}
	return smoothWithKernels(product, kp, smoothVariables, verticalAxis)
}

// ProductSmoothVerticalWithCollocatedDataset is like
// ProductSmoothVerticalWithCollocatedProduct, but takes the kernels from
// the dataset B products of result that are collocated with product, a
// dataset A product.
func ProductSmoothVerticalWithCollocatedDataset(product *Product, smoothVariables []string, verticalAxis,
	verticalUnit string, result *CollocationResult) error {
	if err := checkSmoothArguments(product, smoothVariables); err != nil {
		return err
	}
	merged, err := mergeCollocatedDataset(product, result, verticalAxis, verticalUnit,
		profileKernels(product, smoothVariables))
	if err != nil {
		return err
	}
	return smoothWithKernels(product, merged, smoothVariables, verticalAxis)
}

// ProductGetSmoothedColumn derives the partial column profile name from
// product, regrids it onto verticalGrid and integrates it with the
// column averaging kernel columnAVK, whose last dimension is vertical:
//
//	column = Σ avk·(partial column - apriori) + Σ apriori
//
// The returned variable has the dimensions of columnAVK without the
// vertical dimension. verticalBounds and apriori may be nil. A column
// for which no level is valid is NaN.
func ProductGetSmoothedColumn(product *Product, name, unit string, verticalGrid, verticalBounds, columnAVK,
	apriori *Variable) (*Variable, error) {
	if product.Dimension(Vertical) == 0 {
		return nil, invalidArgument("product has no vertical dimension")
	}
	ng := len(verticalGrid.DimTypes)
	if ng < 1 || verticalGrid.DimTypes[ng-1] != Vertical {
		return nil, invalidArgument("vertical grid has invalid dimensions")
	}
	if verticalGrid.DataType != Double {
		return nil, invalidArgument("invalid data type for vertical grid")
	}
	na := len(columnAVK.DimTypes)
	if na < 1 || columnAVK.DimTypes[na-1] != Vertical {
		return nil, invalidArgument("column avk has invalid dimensions")
	}
	avkShape := columnAVK.Shape()
	nz := verticalGrid.Shape()[ng-1]
	if avkShape[na-1] != nz {
		return nil, invalidArgument("column avk and vertical grid have inconsistent dimensions")
	}
	if columnAVK.DataType != Double {
		return nil, invalidArgument("invalid data type for column avk")
	}
	for i, d := range columnAVK.DimTypes[:na-1] {
		if d == Independent {
			continue
		}
		if n := product.Dimension(d); n != avkShape[i] {
			return nil, invalidArgument("column avk has %s dimension of length %d; product has %d", d, avkShape[i], n)
		}
	}
	if verticalGrid.DimTypes[0] == Time && verticalGrid.Shape()[0] != product.Dimension(Time) {
		return nil, invalidArgument("vertical grid has %d time samples; product has %d",
			verticalGrid.Shape()[0], product.Dimension(Time))
	}
	if apriori != nil {
		if apriori.DataType != Double {
			return nil, invalidArgument("invalid data type for apriori")
		}
		if !apriori.HasDimensionTypes(columnAVK.DimTypes...) {
			return nil, invalidArgument("apriori profile and column avk have inconsistent dimensions")
		}
		for i, n := range avkShape {
			if apriori.Shape()[i] != n {
				return nil, invalidArgument("apriori profile and column avk have inconsistent dimensions")
			}
		}
	}

	rp := NewProduct()
	partialColumn, err := product.DerivedVariable(name, Double, unit, columnAVK.DimTypes...)
	if err != nil {
		return nil, err
	}
	if err := rp.AddVariable(partialColumn); err != nil {
		return nil, err
	}
	sourceGrid, err := product.DerivedVariable(verticalGrid.Name, verticalGrid.DataType, verticalGrid.Unit, Vertical)
	if err != nil {
		sourceGrid, err = product.DerivedVariable(verticalGrid.Name, verticalGrid.DataType, verticalGrid.Unit,
			Time, Vertical)
		if err != nil {
			return nil, err
		}
	}
	if err := rp.AddVariable(sourceGrid); err != nil {
		return nil, err
	}
	sourceBounds, err := product.DerivedVariable(BoundsName(verticalGrid.Name), Double, verticalGrid.Unit,
		append(append([]DimensionType{}, sourceGrid.DimTypes...), Independent)...)
	if err != nil {
		return nil, err
	}
	if err := rp.AddVariable(sourceBounds); err != nil {
		return nil, err
	}
	if err := rp.RegridWithAxisVariable(verticalGrid, verticalBounds); err != nil {
		return nil, err
	}
	if partialColumn, err = rp.Variable(name); err != nil {
		return nil, err
	}

	column, err := NewVariable(name, Double, columnAVK.DimTypes[:na-1], avkShape[:na-1])
	if err != nil {
		return nil, err
	}
	column.Unit = partialColumn.Unit
	if partialColumn.NumElements() != column.NumElements()*nz {
		return nil, invalidArgument("partial column '%s' and column avk have inconsistent dimensions", name)
	}
	forEachIndex(avkShape[:na-1], func(index []int) {
		pc, avk := block(partialColumn.Data, index...), block(columnAVK.Data, index...)
		var xa []float64
		if apriori != nil {
			xa = block(apriori.Data, index...)
		}
		var sum float64
		valid := false
		for j := range avk {
			aprioriValid := xa != nil && !math.IsNaN(xa[j])
			if !math.IsNaN(pc[j]) {
				sum += pc[j] * avk[j]
				valid = true
				if aprioriValid {
					sum -= avk[j] * xa[j]
				}
			}
			if aprioriValid {
				sum += xa[j]
				valid = true
			}
		}
		if !valid {
			sum = math.NaN()
		}
		column.Data.Set(sum, index...)
	})
	return column, nil
}

// checkColumnArguments validates the arguments common to the collocated
// smoothed column functions.
func checkColumnArguments(product *Product, dimTypes []DimensionType) error {
	if len(dimTypes) == 0 || dimTypes[0] != Time {
		return invalidArgument("first dimension of requested smoothed vertical column should be the time dimension")
	}
	if len(dimTypes) >= int(numDimensionTypes) {
		return invalidArgument("number of dimensions (%d) too large", len(dimTypes))
	}
	if product.Dimension(Vertical) == 0 {
		return invalidArgument("product has no vertical dimension")
	}
	return nil
}

// smoothedColumnWithKernels sorts the samples of kp to match product and
// computes the smoothed column with the kernel of kp.
func smoothedColumnWithKernels(product, kp *Product, name, unit, verticalAxis string) (*Variable, error) {
	index, err := collocationIndex(product)
	if err != nil {
		return nil, err
	}
	if err := kp.FilterByIndex(CollocationIndexName, index); err != nil {
		return nil, err
	}
	grid, err := kp.Variable(verticalAxis)
	if err != nil {
		return nil, err
	}
	bounds, err := kp.Variable(BoundsName(verticalAxis))
	if err != nil {
		return nil, err
	}
	avk, err := kp.Variable(AVKName(name))
	if err != nil {
		return nil, err
	}
	var apriori *Variable
	if kp.HasVariable(AprioriName(name)) {
		apriori, _ = kp.Variable(AprioriName(name))
	}
	return ProductGetSmoothedColumn(product, name, unit, grid, bounds, avk, apriori)
}

// ProductGetSmoothedColumnUsingCollocatedProduct computes the smoothed
// column name, with dimensions dimTypes (the first of which must be
// time), using the column averaging kernel ("<name>_avk") and, if
// available, the a priori profile ("<name>_apriori") of the collocated
// product. verticalAxis in verticalUnit is the vertical grid of the
// kernel.
func ProductGetSmoothedColumnUsingCollocatedProduct(product *Product, name, unit string, dimTypes []DimensionType,
	verticalAxis, verticalUnit string, collocated *Product) (*Variable, error) {
	if err := checkColumnArguments(product, dimTypes); err != nil {
		return nil, err
	}
	kp, err := kernelProduct(collocated, verticalAxis, verticalUnit, columnKernels(name, unit, dimTypes))
	if err != nil {
		return nil, err
	}
	return smoothedColumnWithKernels(product, kp, name, unit, verticalAxis)
}

// ProductGetSmoothedColumnUsingCollocatedDataset is like
// ProductGetSmoothedColumnUsingCollocatedProduct, but takes the kernels
// from the dataset B products of result that are collocated with
// product.
func ProductGetSmoothedColumnUsingCollocatedDataset(product *Product, name, unit string, dimTypes []DimensionType,
	verticalAxis, verticalUnit string, result *CollocationResult) (*Variable, error) {
	if err := checkColumnArguments(product, dimTypes); err != nil {
		return nil, err
	}
	merged, err := mergeCollocatedDataset(product, result, verticalAxis, verticalUnit,
		columnKernels(name, unit, dimTypes))
	if err != nil {
		return nil, err
	}
	return smoothedColumnWithKernels(product, merged, name, unit, verticalAxis)
}
