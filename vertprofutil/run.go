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
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spatialmodel/vertprof"
)

// KernelSource specifies where averaging kernels and a priori profiles
// come from: either a single CollocatedProduct file, or a
// CollocationResult file together with the DatasetB directory holding the
// collocated products.
type KernelSource struct {
	CollocatedProduct string
	CollocationResult string
	DatasetB          string
}

func (k KernelSource) check() error {
	switch {
	case k.CollocatedProduct != "" && k.CollocationResult != "":
		return fmt.Errorf("vertprofutil: only one of CollocatedProduct and CollocationResult can be specified")
	case k.CollocatedProduct == "" && k.CollocationResult == "":
		return fmt.Errorf("vertprofutil: either CollocatedProduct or CollocationResult needs to be specified")
	case k.CollocationResult != "" && k.DatasetB == "":
		return fmt.Errorf("vertprofutil: DatasetB needs to be specified along with CollocationResult")
	}
	return nil
}

func (k KernelSource) collocatedProduct() (*vertprof.Product, error) {
	return ReadProduct(os.ExpandEnv(k.CollocatedProduct))
}

func (k KernelSource) collocationResult() (*vertprof.CollocationResult, error) {
	return ReadCollocationResult(os.ExpandEnv(k.CollocationResult), k.DatasetB)
}

// Smooth reads the product in productFile, smooths the given variables
// with the averaging kernels of ks on their verticalAxis grid in
// verticalUnit, and writes the resulting product to outputFile.
func Smooth(productFile, outputFile string, variables []string, verticalAxis, verticalUnit string, ks KernelSource) error {
	startTime := time.Now()
	if err := ks.check(); err != nil {
		return err
	}
	if len(variables) == 0 {
		return fmt.Errorf("vertprofutil: there are no variables specified for smoothing")
	}
	p, err := ReadProduct(productFile)
	if err != nil {
		return err
	}
	if ks.CollocatedProduct != "" {
		c, err := ks.collocatedProduct()
		if err != nil {
			return err
		}
		err = vertprof.ProductSmoothVerticalWithCollocatedProduct(p, variables, verticalAxis, verticalUnit, c)
		if err != nil {
			return fmt.Errorf("vertprofutil: smoothing %s: %v", productFile, err)
		}
	} else {
		r, err := ks.collocationResult()
		if err != nil {
			return err
		}
		err = vertprof.ProductSmoothVerticalWithCollocatedDataset(p, variables, verticalAxis, verticalUnit, r)
		if err != nil {
			return fmt.Errorf("vertprofutil: smoothing %s: %v", productFile, err)
		}
	}
	if err := WriteProduct(outputFile, p); err != nil {
		return err
	}
	logrus.WithFields(logrus.Fields{
		"product":   p.SourceProduct,
		"variables": variables,
		"samples":   p.Dimension(vertprof.Time),
		"duration":  time.Since(startTime),
	}).Info("vertprofutil: smoothed product")
	return nil
}

// parseDimensions converts dimension type names into their values.
func parseDimensions(names []string) ([]vertprof.DimensionType, error) {
	dims := make([]vertprof.DimensionType, len(names))
	for i, n := range names {
		d, err := vertprof.ParseDimensionType(n)
		if err != nil {
			return nil, err
		}
		dims[i] = d
	}
	return dims, nil
}

// Column reads the product in productFile, computes the smoothed column
// name in unit with the given dimensions using the column averaging
// kernel of ks, and writes it to outputFile together with the
// collocation index of the product.
func Column(productFile, outputFile, name, unit string, dimensions []string, verticalAxis, verticalUnit string,
	ks KernelSource) error {
	startTime := time.Now()
	if err := ks.check(); err != nil {
		return err
	}
	dims, err := parseDimensions(dimensions)
	if err != nil {
		return err
	}
	p, err := ReadProduct(productFile)
	if err != nil {
		return err
	}
	var column *vertprof.Variable
	if ks.CollocatedProduct != "" {
		c, err := ks.collocatedProduct()
		if err != nil {
			return err
		}
		column, err = vertprof.ProductGetSmoothedColumnUsingCollocatedProduct(p, name, unit, dims, verticalAxis,
			verticalUnit, c)
		if err != nil {
			return fmt.Errorf("vertprofutil: column for %s: %v", productFile, err)
		}
	} else {
		r, err := ks.collocationResult()
		if err != nil {
			return err
		}
		column, err = vertprof.ProductGetSmoothedColumnUsingCollocatedDataset(p, name, unit, dims, verticalAxis,
			verticalUnit, r)
		if err != nil {
			return fmt.Errorf("vertprofutil: column for %s: %v", productFile, err)
		}
	}

	out := vertprof.NewProduct()
	out.SourceProduct = p.SourceProduct
	if ci, err := p.Variable(vertprof.CollocationIndexName); err == nil {
		if err := out.AddVariable(ci); err != nil {
			return err
		}
	}
	if err := out.AddVariable(column); err != nil {
		return err
	}
	if err := WriteProduct(outputFile, out); err != nil {
		return err
	}
	logrus.WithFields(logrus.Fields{
		"product":  p.SourceProduct,
		"column":   name,
		"samples":  out.Dimension(vertprof.Time),
		"duration": time.Since(startTime),
	}).Info("vertprofutil: computed smoothed column")
	return nil
}

// Tropopause reads the product in productFile, adds the
// tropopause_altitude variable to it and writes it to outputFile.
func Tropopause(productFile, outputFile string) error {
	p, err := ReadProduct(productFile)
	if err != nil {
		return err
	}
	if err := p.AddDerivedVariable("tropopause_altitude", vertprof.Double, "m", vertprof.Time); err != nil {
		return fmt.Errorf("vertprofutil: tropopause for %s: %v", productFile, err)
	}
	return WriteProduct(outputFile, p)
}

// checkOutputFile makes sure that the output file is specified and its
// directory exists, and expands any environment variables.
func checkOutputFile(f string) (string, error) {
	if f == "" {
		return "", fmt.Errorf(`vertprofutil: you need to specify an output file configuration variable (for example: OutputFile="output.nc")`)
	}
	f = os.ExpandEnv(f)
	outdir := filepath.Dir(f)
	if _, err := os.Stat(outdir); err != nil {
		return f, fmt.Errorf("vertprofutil: the OutputFile directory doesn't exist: %v", err)
	}
	return f, nil
}
