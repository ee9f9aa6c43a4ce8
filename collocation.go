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

import "sort"

// CollocationPair is a match between sample IndexA of source product
// ProductA of dataset A and sample IndexB of source product ProductB of
// dataset B.
type CollocationPair struct {
	CollocationIndex int
	ProductA         string
	IndexA           int
	ProductB         string
	IndexB           int
}

// A ProductSource reads products by their source product name.
// Each call must return a product that is not shared with the caller's
// other products.
type ProductSource interface {
	Product(sourceProduct string) (*Product, error)
}

// Dataset is a set of source products.
type Dataset struct {
	SourceProducts []string

	// Source loads the products of the dataset. It is only needed for
	// datasets whose products are read through a collocation result.
	Source ProductSource
}

// CollocationResult lists the pairs of samples of dataset A and dataset B
// that match.
type CollocationResult struct {
	DatasetA, DatasetB *Dataset
	Pairs              []CollocationPair
}

// Len returns the number of pairs in r.
func (r *CollocationResult) Len() int { return len(r.Pairs) }

// ShallowCopy returns a copy of r that has its own list of pairs but
// shares the datasets with r.
func (r *CollocationResult) ShallowCopy() *CollocationResult {
	return &CollocationResult{
		DatasetA: r.DatasetA,
		DatasetB: r.DatasetB,
		Pairs:    append([]CollocationPair{}, r.Pairs...),
	}
}

// FilterForCollocationIndices removes every pair whose collocation index
// is not in indices. The remaining pairs are sorted by collocation index.
func (r *CollocationResult) FilterForCollocationIndices(indices []int) {
	keep := make(map[int]bool, len(indices))
	for _, i := range indices {
		keep[i] = true
	}
	pairs := r.Pairs[:0]
	for _, p := range r.Pairs {
		if keep[p.CollocationIndex] {
			pairs = append(pairs, p)
		}
	}
	r.Pairs = pairs
	sort.SliceStable(r.Pairs, func(i, j int) bool {
		return r.Pairs[i].CollocationIndex < r.Pairs[j].CollocationIndex
	})
}

// FilteredProductB reads the dataset B product named sourceProduct and
// keeps only the samples that occur in the pairs of r, in pair order, with
// a CollocationIndexName variable holding the collocation index of each
// sample. Samples are identified by the {time} "index" variable of the
// product if it has one and by their position otherwise. nil is returned
// if no pair refers to sourceProduct.
func (r *CollocationResult) FilteredProductB(sourceProduct string) (*Product, error) {
	var pairs []CollocationPair
	for _, p := range r.Pairs {
		if p.ProductB == sourceProduct {
			pairs = append(pairs, p)
		}
	}
	if len(pairs) == 0 {
		return nil, nil
	}
	if r.DatasetB == nil || r.DatasetB.Source == nil {
		return nil, invalidArgument("collocation result has no source for the products of dataset B")
	}
	p, err := r.DatasetB.Source.Product(sourceProduct)
	if err != nil {
		return nil, err
	}
	n := p.dims[Time]
	rowOf := make(map[int]int, n)
	if iv, err := p.Variable("index"); err == nil && iv.HasDimensionTypes(Time) {
		for i, x := range iv.Ints() {
			rowOf[x] = i
		}
	} else {
		for i := 0; i < n; i++ {
			rowOf[i] = i
		}
	}
	rows := make([]int, len(pairs))
	ci := make([]int, len(pairs))
	for i, pair := range pairs {
		row, ok := rowOf[pair.IndexB]
		if !ok {
			return nil, newError(KindInconsistentCollocation, "product '%s' has no sample with index %d",
				sourceProduct, pair.IndexB)
		}
		rows[i] = row
		ci[i] = pair.CollocationIndex
	}
	p.selectRows(rows)
	civ, err := NewIntVariable(CollocationIndexName, Time, ci)
	if err != nil {
		return nil, err
	}
	if err := p.ReplaceVariable(civ); err != nil {
		return nil, err
	}
	return p, nil
}

// MemoryDataset is a ProductSource that hands out copies of products
// held in memory.
type MemoryDataset map[string]*Product

// Product returns a copy of the product named sourceProduct.
func (m MemoryDataset) Product(sourceProduct string) (*Product, error) {
	p, ok := m[sourceProduct]
	if !ok {
		return nil, invalidArgument("dataset has no product '%s'", sourceProduct)
	}
	return p.Copy(), nil
}
