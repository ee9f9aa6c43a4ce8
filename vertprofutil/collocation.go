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
	"encoding/csv"
	"fmt"
	"io"
	"io/ioutil"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/spatialmodel/vertprof"
)

// collocationColumns are the leading columns of a collocation result
// file. Any further columns hold collocation criteria differences and
// are ignored.
var collocationColumns = []string{"collocation_index", "source_product_a", "index_a", "source_product_b", "index_b"}

// ReadCollocationResult reads the collocation result CSV file at path.
// The products of dataset B are read from the directory datasetB, which
// may be empty if only the pairs are needed.
func ReadCollocationResult(path, datasetB string) (*vertprof.CollocationResult, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("vertprofutil: opening collocation result: %v", err)
	}
	defer f.Close()
	r, err := LoadCollocationResult(f)
	if err != nil {
		return nil, fmt.Errorf("%v (%s)", err, path)
	}
	if datasetB != "" {
		d, err := NewDirectoryDataset(datasetB)
		if err != nil {
			return nil, err
		}
		r.DatasetB = d.Dataset()
	}
	return r, nil
}

// LoadCollocationResult parses collocation pairs from CSV data. The
// source products of both datasets are set to the products named in
// the pairs, in order of first occurrence.
func LoadCollocationResult(r io.Reader) (*vertprof.CollocationResult, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("vertprofutil: reading collocation header: %v", err)
	}
	if len(header) < len(collocationColumns) {
		return nil, fmt.Errorf("vertprofutil: collocation result has %d columns; it should have at least %d",
			len(header), len(collocationColumns))
	}
	for i, c := range collocationColumns {
		if strings.TrimSpace(header[i]) != c {
			return nil, fmt.Errorf("vertprofutil: collocation result column %d is '%s'; it should be '%s'",
				i, header[i], c)
		}
	}

	result := &vertprof.CollocationResult{
		DatasetA: new(vertprof.Dataset),
		DatasetB: new(vertprof.Dataset),
	}
	seenA, seenB := make(map[string]bool), make(map[string]bool)
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("vertprofutil: reading collocation result: %v", err)
		}
		if len(rec) < len(collocationColumns) {
			return nil, fmt.Errorf("vertprofutil: collocation result line %d has too few columns", line)
		}
		var ints [3]int
		for i, col := range []int{0, 2, 4} {
			if ints[i], err = strconv.Atoi(strings.TrimSpace(rec[col])); err != nil {
				return nil, fmt.Errorf("vertprofutil: collocation result line %d, column %s: %v",
					line, collocationColumns[col], err)
			}
		}
		pair := vertprof.CollocationPair{
			CollocationIndex: ints[0],
			ProductA:         strings.TrimSpace(rec[1]),
			IndexA:           ints[1],
			ProductB:         strings.TrimSpace(rec[3]),
			IndexB:           ints[2],
		}
		result.Pairs = append(result.Pairs, pair)
		if !seenA[pair.ProductA] {
			seenA[pair.ProductA] = true
			result.DatasetA.SourceProducts = append(result.DatasetA.SourceProducts, pair.ProductA)
		}
		if !seenB[pair.ProductB] {
			seenB[pair.ProductB] = true
			result.DatasetB.SourceProducts = append(result.DatasetB.SourceProducts, pair.ProductB)
		}
	}
	return result, nil
}

// DirectoryDataset is a ProductSource whose products are the NetCDF
// files in a directory, identified by file name.
type DirectoryDataset struct {
	Dir   string
	files map[string]string
}

// NewDirectoryDataset indexes the files in dir, which can include
// environment variables.
func NewDirectoryDataset(dir string) (*DirectoryDataset, error) {
	dir = os.ExpandEnv(dir)
	infos, err := ioutil.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("vertprofutil: reading dataset directory: %v", err)
	}
	d := &DirectoryDataset{Dir: dir, files: make(map[string]string)}
	for _, fi := range infos {
		if fi.IsDir() {
			continue
		}
		d.files[fi.Name()] = filepath.Join(dir, fi.Name())
	}
	return d, nil
}

// Dataset returns a dataset holding every product in d.
func (d *DirectoryDataset) Dataset() *vertprof.Dataset {
	names := make([]string, 0, len(d.files))
	for n := range d.files {
		names = append(names, n)
	}
	sort.Strings(names)
	return &vertprof.Dataset{SourceProducts: names, Source: d}
}

// Product reads the product named sourceProduct.
func (d *DirectoryDataset) Product(sourceProduct string) (*vertprof.Product, error) {
	path, ok := d.files[sourceProduct]
	if !ok {
		path = filepath.Join(d.Dir, sourceProduct)
	}
	return ReadProduct(path)
}
