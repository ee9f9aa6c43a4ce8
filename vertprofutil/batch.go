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
	"context"
	"fmt"
	"io"
	"os"

	"github.com/BurntSushi/toml"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// BatchConfig holds the contents of a batch file.
type BatchConfig struct {
	Batch struct {
		// Parallel is the maximum number of jobs that run at the same
		// time. Values smaller than one mean one job at a time.
		Parallel int
	}
	Job []Job
}

// Job is one unit of work in a batch file. Command is one of "smooth",
// "column" and "tropopause"; the other fields have the same meaning as
// the configuration options of the command. Paths can include
// environment variables.
type Job struct {
	Command      string
	Product      string
	OutputFile   string
	Variables    []string
	Name         string
	Unit         string
	Dimensions   []string
	VerticalAxis string
	VerticalUnit string
	KernelSource
}

// LoadBatchConfig reads a batch file in TOML format. Jobs without a
// vertical axis smooth on the altitude grid in meters.
func LoadBatchConfig(r io.Reader) (*BatchConfig, error) {
	c := new(BatchConfig)
	if _, err := toml.DecodeReader(r, c); err != nil {
		return nil, fmt.Errorf("vertprofutil: reading batch file: %v", err)
	}
	for i := range c.Job {
		j := &c.Job[i]
		if j.VerticalAxis == "" {
			j.VerticalAxis = "altitude"
		}
		if j.VerticalUnit == "" {
			j.VerticalUnit = "m"
		}
		if len(j.Dimensions) == 0 {
			j.Dimensions = []string{"time"}
		}
	}
	return c, nil
}

// Run runs j.
func (j *Job) Run() error {
	outputFile, err := checkOutputFile(j.OutputFile)
	if err != nil {
		return err
	}
	product := os.ExpandEnv(j.Product)
	ks := KernelSource{
		CollocatedProduct: os.ExpandEnv(j.CollocatedProduct),
		CollocationResult: os.ExpandEnv(j.CollocationResult),
		DatasetB:          os.ExpandEnv(j.DatasetB),
	}
	switch j.Command {
	case "smooth":
		return Smooth(product, outputFile, j.Variables, j.VerticalAxis, j.VerticalUnit, ks)
	case "column":
		return Column(product, outputFile, j.Name, j.Unit, j.Dimensions, j.VerticalAxis, j.VerticalUnit, ks)
	case "tropopause":
		return Tropopause(product, outputFile)
	default:
		return fmt.Errorf("vertprofutil: invalid batch command '%s'", j.Command)
	}
}

// Batch runs the jobs in the batch file at path, Batch.Parallel at a
// time unless parallel is larger than zero. The first error cancels the
// jobs that have not started yet.
func Batch(ctx context.Context, path string, parallel int) error {
	f, err := os.Open(os.ExpandEnv(path))
	if err != nil {
		return fmt.Errorf("vertprofutil: opening batch file: %v", err)
	}
	c, err := LoadBatchConfig(f)
	f.Close()
	if err != nil {
		return err
	}
	if parallel > 0 {
		c.Batch.Parallel = parallel
	}
	return c.Run(ctx)
}

// Run runs the jobs in c.
func (c *BatchConfig) Run(ctx context.Context) error {
	parallel := c.Batch.Parallel
	if parallel < 1 {
		parallel = 1
	}
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(parallel)
	for i := range c.Job {
		i, j := i, &c.Job[i]
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			log := logrus.WithFields(logrus.Fields{"job": i, "command": j.Command, "product": j.Product})
			log.Debug("vertprofutil: starting job")
			if err := j.Run(); err != nil {
				log.WithError(err).Error("vertprofutil: job failed")
				return fmt.Errorf("vertprofutil: batch job %d: %v", i, err)
			}
			return nil
		})
	}
	return g.Wait()
}
