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

import "github.com/ctessum/sparse"

// leadingIndex pads index with zeros to the rank of shape.
func leadingIndex(shape []int, index []int) []int {
	full := make([]int, len(shape))
	copy(full, index)
	return full
}

func size(shape []int) int {
	n := 1
	for _, d := range shape {
		n *= d
	}
	return n
}

// block returns the contiguous elements of a whose leading indices are
// index, i.e. a[index..., :, ..., :]. The returned slice shares storage
// with a.
func block(a *sparse.DenseArray, index ...int) []float64 {
	n := size(a.Shape[len(index):])
	if n == 0 {
		return nil
	}
	i := a.Index1d(leadingIndex(a.Shape, index)...)
	return a.Elements[i : i+n]
}

// blockInt is the integer equivalent of block.
func blockInt(a *sparse.DenseArrayInt, index ...int) []int {
	n := size(a.Shape[len(index):])
	if n == 0 {
		return nil
	}
	i := a.Index1d(leadingIndex(a.Shape, index)...)
	return a.Elements[i : i+n]
}

// profiles splits a into its rows along the last dimension. The rows
// share storage with a.
func profiles(a *sparse.DenseArray) [][]float64 {
	nd := len(a.Shape)
	if nd == 0 || len(a.Elements) == 0 {
		return nil
	}
	rows := make([][]float64, 0, len(a.Elements)/a.Shape[nd-1])
	forEachIndex(a.Shape[:nd-1], func(index []int) {
		rows = append(rows, block(a, index...))
	})
	return rows
}

// forEachIndex calls f with every index of an array of the given shape,
// in row-major order. f must not keep index.
func forEachIndex(shape []int, f func(index []int)) {
	if size(shape) == 0 {
		return
	}
	index := make([]int, len(shape))
	for {
		f(index)
		i := len(shape) - 1
		for ; i >= 0; i-- {
			index[i]++
			if index[i] < shape[i] {
				break
			}
			index[i] = 0
		}
		if i < 0 {
			return
		}
	}
}
