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

// Package vertprofutil contains the vertprof command-line interface and
// the NetCDF, collocation CSV and batch file readers it is built on.
package vertprofutil

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/lnashier/viper"
	"github.com/sirupsen/logrus"
	"github.com/spatialmodel/vertprof"
	"github.com/spf13/cast"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// Cfg holds configuration information.
var Cfg *viper.Viper

var options []struct {
	name, usage, shorthand string
	defaultVal             interface{}
	flagsets               []*pflag.FlagSet
}

// logFile is the currently open log file, if any.
var logFile *os.File

func init() {
	// Options are the configuration options available to vertprof.
	options = []struct {
		name, usage, shorthand string
		defaultVal             interface{}
		flagsets               []*pflag.FlagSet
	}{
		{
			name: "config",
			usage: `
              config specifies the configuration file location.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
		},
		{
			name: "LogLevel",
			usage: `
              LogLevel is the minimum level of log messages that are printed.
              Valid options are "debug", "info", "warning" and "error".`,
			defaultVal: "info",
			flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
		},
		{
			name: "LogFile",
			usage: `
              LogFile is the path to the desired logfile location. It can include
              environment variables. If LogFile is left blank, log messages are only
              printed to standard error.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
		},
		{
			name: "Product",
			usage: `
              Product is the path to the NetCDF file holding the product to be processed.
              It can include environment variables.`,
			shorthand:  "p",
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{smoothCmd.Flags(), columnCmd.Flags(), tropopauseCmd.Flags()},
		},
		{
			name: "OutputFile",
			usage: `
              OutputFile is the path to the desired output NetCDF file location. It can
              include environment variables.`,
			shorthand:  "o",
			defaultVal: "vertprof_output.nc",
			flagsets:   []*pflag.FlagSet{smoothCmd.Flags(), columnCmd.Flags(), tropopauseCmd.Flags()},
		},
		{
			name: "Variables",
			usage: `
              Variables are the names of the product variables to be smoothed
              with the averaging kernels of the collocated product. The averaging kernel
              of each variable is named "<variable>_avk" and its optional a priori profile
              "<variable>_apriori".`,
			defaultVal: []string{},
			flagsets:   []*pflag.FlagSet{smoothCmd.Flags()},
		},
		{
			name: "Name",
			usage: `
              Name is the name of the partial column profile that should be integrated
              into a smoothed column.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{columnCmd.Flags()},
		},
		{
			name: "Unit",
			usage: `
              Unit is the unit of the smoothed column, for example "molec/cm2".`,
			defaultVal: "molec/cm2",
			flagsets:   []*pflag.FlagSet{columnCmd.Flags()},
		},
		{
			name: "Dimensions",
			usage: `
              Dimensions are the dimension types of the smoothed column. The first
              one has to be "time".`,
			defaultVal: []string{"time"},
			flagsets:   []*pflag.FlagSet{columnCmd.Flags()},
		},
		{
			name: "VerticalAxis",
			usage: `
              VerticalAxis is the name of the variable holding the vertical grid of the
              averaging kernels, for example "altitude" or "pressure".`,
			defaultVal: "altitude",
			flagsets:   []*pflag.FlagSet{smoothCmd.Flags(), columnCmd.Flags()},
		},
		{
			name: "VerticalUnit",
			usage: `
              VerticalUnit is the unit that the vertical grid is converted to before
              regridding.`,
			defaultVal: "m",
			flagsets:   []*pflag.FlagSet{smoothCmd.Flags(), columnCmd.Flags()},
		},
		{
			name: "CollocatedProduct",
			usage: `
              CollocatedProduct is the path to a NetCDF product holding the averaging kernels,
              with one sample per sample of Product, linked by their collocation_index
              variables. It cannot be used together with CollocationResult.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{smoothCmd.Flags(), columnCmd.Flags()},
		},
		{
			name: "CollocationResult",
			usage: `
              CollocationResult is the path to a CSV file with the collocation pairs between
              the dataset of Product and DatasetB.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{smoothCmd.Flags(), columnCmd.Flags()},
		},
		{
			name: "DatasetB",
			usage: `
              DatasetB is the directory holding the NetCDF products of the collocated
              dataset. It can include environment variables.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{smoothCmd.Flags(), columnCmd.Flags()},
		},
		{
			name: "BatchFile",
			usage: `
              BatchFile is the path to a TOML file with a [[Job]] table for each
              smooth, column or tropopause job to run.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{batchCmd.Flags()},
		},
		{
			name: "Parallel",
			usage: `
              Parallel overrides the number of batch jobs that run at the same time.
              Values smaller than one keep the Batch.Parallel setting of the batch file.`,
			defaultVal: 0,
			flagsets:   []*pflag.FlagSet{batchCmd.Flags()},
		},
	}

	Cfg = viper.New()

	// Set the prefix for configuration environment variables.
	Cfg.SetEnvPrefix("VERTPROF")

	for _, option := range options {
		for i, set := range option.flagsets {
			if i != 0 { // We don't want to create the same flag twice.
				set.AddFlag(option.flagsets[0].Lookup(option.name))
				continue
			}
			switch option.defaultVal.(type) {
			case string:
				if option.shorthand == "" {
					set.String(option.name, option.defaultVal.(string), option.usage)
				} else {
					set.StringP(option.name, option.shorthand, option.defaultVal.(string), option.usage)
				}
			case []string:
				if option.shorthand == "" {
					set.StringSlice(option.name, option.defaultVal.([]string), option.usage)
				} else {
					set.StringSliceP(option.name, option.shorthand, option.defaultVal.([]string), option.usage)
				}
			case int:
				if option.shorthand == "" {
					set.Int(option.name, option.defaultVal.(int), option.usage)
				} else {
					set.IntP(option.name, option.shorthand, option.defaultVal.(int), option.usage)
				}
			default:
				panic("invalid argument type")
			}
			Cfg.BindPFlag(option.name, set.Lookup(option.name))
		}
	}
}

func init() {
	// Link the commands together.
	Root.AddCommand(versionCmd)
	Root.AddCommand(smoothCmd)
	Root.AddCommand(columnCmd)
	Root.AddCommand(tropopauseCmd)
	Root.AddCommand(batchCmd)
}

// setConfig finds and reads in the configuration file, if there is one,
// and sets up logging.
func setConfig() error {
	if cfgpath := Cfg.GetString("config"); cfgpath != "" {
		Cfg.SetConfigFile(os.ExpandEnv(cfgpath))
		if err := Cfg.ReadInConfig(); err != nil {
			return fmt.Errorf("vertprof: problem reading configuration file: %v", err)
		}
	}
	return setLogging(Cfg.GetString("LogLevel"), os.ExpandEnv(Cfg.GetString("LogFile")))
}

// setLogging configures the standard logger, which is also used by the
// vertprof package.
func setLogging(level, file string) error {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("vertprof: invalid LogLevel: %v", err)
	}
	logrus.SetLevel(lvl)
	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	if logFile != nil {
		logFile.Close()
		logFile = nil
	}
	if file == "" {
		logrus.SetOutput(os.Stderr)
		return nil
	}
	f, err := os.Create(file)
	if err != nil {
		return fmt.Errorf("vertprof: problem creating log file: %v", err)
	}
	logFile = f
	logrus.SetOutput(io.MultiWriter(os.Stderr, f))
	return nil
}

// kernelSource returns the kernel source configuration options.
func kernelSource() KernelSource {
	return KernelSource{
		CollocatedProduct: os.ExpandEnv(Cfg.GetString("CollocatedProduct")),
		CollocationResult: os.ExpandEnv(Cfg.GetString("CollocationResult")),
		DatasetB:          os.ExpandEnv(Cfg.GetString("DatasetB")),
	}
}

// Root is the main command.
var Root = &cobra.Command{
	Use:   "vertprof",
	Short: "Vertical profile conversion and averaging kernel smoothing.",
	Long: `vertprof converts atmospheric profiles between vertical coordinate systems and
smooths them with the averaging kernels of collocated remote sensing retrievals
so that they can be compared with the retrieved profiles and columns.
Use the subcommands specified below to access the functionality.

Refer to the subcommand documentation for configuration options and default settings.
Configuration can be changed by using a configuration file (and providing the
path to the file using the --config flag), by using command-line arguments,
or by setting environment variables in the format 'VERTPROF_var' where 'var' is the
name of the variable to be set. Many configuration variables are additionally
allowed to contain environment variables within them.
Refer to https://github.com/spf13/viper for additional configuration information.`,
	DisableAutoGenTag: true,
	PersistentPreRunE: func(*cobra.Command, []string) error { return setConfig() },
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Long:  "version prints the version number of this version of vertprof.",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Printf("vertprof v%s\n", vertprof.Version)
	},
	DisableAutoGenTag: true,
}

// smoothCmd smooths product profiles with collocated averaging kernels.
var smoothCmd = &cobra.Command{
	Use:   "smooth",
	Short: "Smooth profiles with averaging kernels",
	Long: `smooth regrids the product in the Product file onto the vertical grid of
the averaging kernels of a collocated product, applies the averaging kernels
and a priori profiles to the profiles listed in Variables and writes the
result to OutputFile. The kernels are taken either from CollocatedProduct or
from the products of DatasetB that are paired with the product in
CollocationResult.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		outputFile, err := checkOutputFile(Cfg.GetString("OutputFile"))
		if err != nil {
			return err
		}
		variables, err := cast.ToStringSliceE(Cfg.Get("Variables"))
		if err != nil {
			return fmt.Errorf("vertprof: reading 'Variables': %v", err)
		}
		return Smooth(
			os.ExpandEnv(Cfg.GetString("Product")),
			outputFile,
			variables,
			Cfg.GetString("VerticalAxis"),
			Cfg.GetString("VerticalUnit"),
			kernelSource(),
		)
	},
	DisableAutoGenTag: true,
}

// columnCmd computes smoothed columns.
var columnCmd = &cobra.Command{
	Use:   "column",
	Short: "Compute smoothed columns",
	Long: `column regrids the partial column profile Name of the product in the Product
file onto the vertical grid of the column averaging kernel of a collocated
product and integrates it into a smoothed column in Unit, which is written
to OutputFile. The kernels are taken either from CollocatedProduct or from the
products of DatasetB that are paired with the product in CollocationResult.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		outputFile, err := checkOutputFile(Cfg.GetString("OutputFile"))
		if err != nil {
			return err
		}
		dims, err := cast.ToStringSliceE(Cfg.Get("Dimensions"))
		if err != nil {
			return fmt.Errorf("vertprof: reading 'Dimensions': %v", err)
		}
		return Column(
			os.ExpandEnv(Cfg.GetString("Product")),
			outputFile,
			Cfg.GetString("Name"),
			Cfg.GetString("Unit"),
			dims,
			Cfg.GetString("VerticalAxis"),
			Cfg.GetString("VerticalUnit"),
			kernelSource(),
		)
	},
	DisableAutoGenTag: true,
}

// tropopauseCmd adds the tropopause altitude to a product.
var tropopauseCmd = &cobra.Command{
	Use:   "tropopause",
	Short: "Locate the tropopause",
	Long: `tropopause locates the WMO tropopause in every altitude, pressure and
temperature profile of the product in the Product file and writes the product
with an added tropopause_altitude variable to OutputFile.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		outputFile, err := checkOutputFile(Cfg.GetString("OutputFile"))
		if err != nil {
			return err
		}
		return Tropopause(os.ExpandEnv(Cfg.GetString("Product")), outputFile)
	},
	DisableAutoGenTag: true,
}

// batchCmd runs the jobs in a batch file.
var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Run a batch of jobs",
	Long: `batch runs the smooth, column and tropopause jobs listed in BatchFile,
several at a time if the file or the Parallel option asks for it.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		path := Cfg.GetString("BatchFile")
		if path == "" {
			return fmt.Errorf("vertprof: you need to specify a BatchFile")
		}
		return Batch(context.Background(), path, Cfg.GetInt("Parallel"))
	},
	DisableAutoGenTag: true,
}
