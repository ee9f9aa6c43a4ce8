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
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/ctessum/cdf"
	"github.com/sirupsen/logrus"
	"github.com/spatialmodel/vertprof"
)

// independentPrefix starts the name of every NetCDF dimension that holds
// an independent vertprof dimension. The length is appended to the
// prefix because independent dimensions of different lengths may occur
// in the same product.
const independentPrefix = "independent_"

// ReadProduct reads the product stored in the NetCDF file at path.
// If the file has no "source_product" attribute, the base name of path
// is used as the source product name.
func ReadProduct(path string) (*vertprof.Product, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("vertprofutil: opening product: %v", err)
	}
	defer f.Close()
	p, err := LoadProduct(f)
	if err != nil {
		return nil, fmt.Errorf("%v (%s)", err, path)
	}
	if p.SourceProduct == "" {
		p.SourceProduct = filepath.Base(path)
	}
	return p, nil
}

// LoadProduct reads a product from NetCDF data. Every numeric variable
// in the file becomes a product variable; character variables are
// skipped.
func LoadProduct(rw cdf.ReaderWriterAt) (*vertprof.Product, error) {
	f, err := cdf.Open(rw)
	if err != nil {
		return nil, fmt.Errorf("vertprofutil.LoadProduct: %v", err)
	}
	p := vertprof.NewProduct()
	if sp, ok := f.Header.GetAttribute("", "source_product").(string); ok {
		p.SourceProduct = sp
	}
	for _, name := range f.Header.Variables() {
		v, err := readVariable(f, name)
		if err != nil {
			return nil, fmt.Errorf("vertprofutil.LoadProduct: variable %s: %v", name, err)
		}
		if v == nil {
			logrus.WithField("variable", name).Debug("vertprofutil: skipping character variable")
			continue
		}
		if err := p.AddVariable(v); err != nil {
			return nil, fmt.Errorf("vertprofutil.LoadProduct: %v", err)
		}
	}
	return p, nil
}

func dimensionType(name string) (vertprof.DimensionType, error) {
	if strings.HasPrefix(name, independentPrefix) {
		return vertprof.Independent, nil
	}
	return vertprof.ParseDimensionType(name)
}

func dimensionName(d vertprof.DimensionType, n int) string {
	if d == vertprof.Independent {
		return independentPrefix + strconv.Itoa(n)
	}
	return d.String()
}

// readVariable returns nil if the variable holds characters.
func readVariable(f *cdf.File, name string) (*vertprof.Variable, error) {
	dimNames := f.Header.Dimensions(name)
	dims := append([]int{}, f.Header.Lengths(name)...)
	dimTypes := make([]vertprof.DimensionType, len(dimNames))
	n := 1
	for i, dn := range dimNames {
		d, err := dimensionType(dn)
		if err != nil {
			return nil, err
		}
		dimTypes[i] = d
		n *= dims[i]
	}

	r := f.Reader(name, nil, nil)
	buf := r.Zero(n)
	var dt vertprof.DataType
	switch buf.(type) {
	case []uint8:
		dt = vertprof.Int8
	case []int16:
		dt = vertprof.Int16
	case []int32:
		dt = vertprof.Int32
	case []float32:
		dt = vertprof.Float
	case []float64:
		dt = vertprof.Double
	default:
		return nil, nil
	}
	v, err := vertprof.NewVariable(name, dt, dimTypes, dims)
	if err != nil {
		return nil, err
	}
	if n > 0 {
		if _, err := r.Read(buf); err != nil {
			return nil, err
		}
	}
	switch data := buf.(type) {
	case []uint8:
		for i, x := range data {
			v.IntData.Elements[i] = int(int8(x))
		}
	case []int16:
		for i, x := range data {
			v.IntData.Elements[i] = int(x)
		}
	case []int32:
		for i, x := range data {
			v.IntData.Elements[i] = int(x)
		}
	case []float32:
		for i, x := range data {
			v.Data.Elements[i] = float64(x)
		}
	case []float64:
		copy(v.Data.Elements, data)
	}
	if s, ok := f.Header.GetAttribute(name, "units").(string); ok {
		v.Unit = s
	}
	if s, ok := f.Header.GetAttribute(name, "description").(string); ok {
		v.Description = s
	}
	return v, nil
}

// WriteProduct writes p to a new NetCDF file at path.
func WriteProduct(path string, p *vertprof.Product) error {
	w, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("vertprofutil: creating product file: %v", err)
	}
	if err := SaveProduct(w, p); err != nil {
		w.Close()
		return err
	}
	return w.Close()
}

// SaveProduct writes p to w in NetCDF format. Empty products cannot be
// written.
func SaveProduct(w *os.File, p *vertprof.Product) error {
	if p.IsEmpty() {
		return fmt.Errorf("vertprofutil: cannot write an empty product")
	}
	lengths := make(map[string]int)
	for _, v := range p.Variables() {
		for i, d := range v.DimTypes {
			lengths[dimensionName(d, v.Shape()[i])] = v.Shape()[i]
		}
	}
	// Sort the names so they write in the same order every time.
	dimNames := make([]string, 0, len(lengths))
	for n := range lengths {
		dimNames = append(dimNames, n)
	}
	sort.Strings(dimNames)
	dimLengths := make([]int, len(dimNames))
	for i, n := range dimNames {
		if lengths[n] == 0 {
			return fmt.Errorf("vertprofutil: dimension %s has length zero", n)
		}
		dimLengths[i] = lengths[n]
	}

	h := cdf.NewHeader(dimNames, dimLengths)
	h.AddAttribute("", "comment", "vertprof product file")
	if p.SourceProduct != "" {
		h.AddAttribute("", "source_product", p.SourceProduct)
	}
	h.AddAttribute("", "vertprof_version", vertprof.Version)
	for _, v := range p.Variables() {
		names := make([]string, len(v.DimTypes))
		for i, d := range v.DimTypes {
			names[i] = dimensionName(d, v.Shape()[i])
		}
		h.AddVariable(v.Name, names, zeroValue(v.DataType))
		if v.Unit != "" {
			h.AddAttribute(v.Name, "units", v.Unit)
		}
		if v.Description != "" {
			h.AddAttribute(v.Name, "description", v.Description)
		}
	}
	h.Define()

	f, err := cdf.Create(w, h) // writes the header to w
	if err != nil {
		return fmt.Errorf("vertprofutil: writing product header: %v", err)
	}
	for _, v := range p.Variables() {
		if err := writeVariable(f, v); err != nil {
			return fmt.Errorf("vertprofutil: writing variable %s to netcdf file: %v", v.Name, err)
		}
	}
	return nil
}

func zeroValue(dt vertprof.DataType) interface{} {
	switch dt {
	case vertprof.Int8:
		return []uint8{0}
	case vertprof.Int16:
		return []int16{0}
	case vertprof.Int32:
		return []int32{0}
	case vertprof.Float:
		return []float32{0}
	default:
		return []float64{0}
	}
}

func writeVariable(f *cdf.File, v *vertprof.Variable) error {
	if v.NumElements() == 0 {
		return nil
	}
	var data interface{}
	switch v.DataType {
	case vertprof.Int8:
		d := make([]uint8, v.NumElements())
		for i, x := range v.IntData.Elements {
			d[i] = uint8(int8(x))
		}
		data = d
	case vertprof.Int16:
		d := make([]int16, v.NumElements())
		for i, x := range v.IntData.Elements {
			d[i] = int16(x)
		}
		data = d
	case vertprof.Int32:
		d := make([]int32, v.NumElements())
		for i, x := range v.IntData.Elements {
			d[i] = int32(x)
		}
		data = d
	case vertprof.Float:
		d := make([]float32, v.NumElements())
		for i, x := range v.Data.Elements {
			d[i] = float32(x)
		}
		data = d
	default:
		data = v.Data.Elements
	}
	end := f.Header.Lengths(v.Name)
	start := make([]int, len(end))
	_, err := f.Writer(v.Name, start, end).Write(data)
	return err
}
