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
	"strconv"
	"strings"

	"github.com/ctessum/unit"
)

// moleculeDim counts molecules. "mol" is reserved by the unit package, so
// amounts of substance are expressed as multiples of this dimension.
var moleculeDim = unit.NewDimension("molec")

const avogadro = 6.02214076e23 // molec/mol

// unitSymbols holds the value in SI (and molec) base units of every unit
// symbol that can appear in a unit string.
var unitSymbols = map[string]*unit.Unit{
	"m":     unit.New(1, unit.Meter),
	"km":    unit.New(1000, unit.Meter),
	"cm":    unit.New(0.01, unit.Meter),
	"mm":    unit.New(0.001, unit.Meter),
	"s":     unit.New(1, unit.Dimensions{unit.TimeDim: 1}),
	"g":     unit.New(0.001, unit.Dimensions{unit.MassDim: 1}),
	"kg":    unit.New(1, unit.Dimensions{unit.MassDim: 1}),
	"K":     unit.New(1, unit.Kelvin),
	"Pa":    unit.New(1, pascal),
	"hPa":   unit.New(100, pascal),
	"kPa":   unit.New(1000, pascal),
	"mbar":  unit.New(100, pascal),
	"bar":   unit.New(1e5, pascal),
	"atm":   unit.New(101325, pascal),
	"molec": unit.New(1, unit.Dimensions{moleculeDim: 1}),
	"mol":   unit.New(avogadro, unit.Dimensions{moleculeDim: 1}),
	"DU":    unit.New(2.6867e20, unit.Dimensions{moleculeDim: 1, unit.LengthDim: -2}),
	"1":     unit.New(1, unit.Dimless),

	"rad":          unit.New(1, unit.Dimensions{unit.AngleDim: 1}),
	"degree":       unit.New(deg2rad, unit.Dimensions{unit.AngleDim: 1}),
	"degree_north": unit.New(deg2rad, unit.Dimensions{unit.AngleDim: 1}),
	"degree_east":  unit.New(deg2rad, unit.Dimensions{unit.AngleDim: 1}),

	"ppv":  unit.New(1, unit.Dimless),
	"ppmv": unit.New(1e-6, unit.Dimless),
	"ppbv": unit.New(1e-9, unit.Dimless),
	"pptv": unit.New(1e-12, unit.Dimless),
	"%":    unit.New(0.01, unit.Dimless),
}

var pascal = unit.Dimensions{unit.MassDim: 1, unit.LengthDim: -1, unit.TimeDim: -2}

// parseUnit parses a unit string such as "hPa", "molec/cm2",
// "molec cm-2" or "g/mol". Factors are separated by spaces; every factor
// after a '/' is in the denominator. A factor may carry an integer
// exponent, optionally preceded by '^'. The empty string is
// dimensionless.
func parseUnit(s string) (*unit.Unit, error) {
	u := unit.New(1, unit.Dimless)
	for i, part := range strings.Split(s, "/") {
		fields := strings.Fields(part)
		if i > 0 && len(fields) == 0 {
			return nil, invalidArgument("invalid unit '%s'", s)
		}
		for _, f := range fields {
			symbol, exp, err := splitExponent(f)
			if err != nil {
				return nil, invalidArgument("invalid unit '%s': %v", s, err)
			}
			base, ok := unitSymbols[symbol]
			if !ok {
				return nil, invalidArgument("invalid unit '%s': unknown symbol '%s'", s, symbol)
			}
			if i > 0 {
				exp = -exp
			}
			for ; exp > 0; exp-- {
				u.Mul(base)
			}
			for ; exp < 0; exp++ {
				u.Div(base)
			}
		}
	}
	return u, nil
}

// splitExponent splits a unit factor such as "cm-2" or "m^3" into its
// symbol and exponent.
func splitExponent(f string) (string, int, error) {
	if _, ok := unitSymbols[f]; ok {
		return f, 1, nil
	}
	i := len(f)
	for i > 0 && f[i-1] >= '0' && f[i-1] <= '9' {
		i--
	}
	if i > 0 && f[i-1] == '-' {
		i--
	}
	if i == len(f) || i == 0 {
		return f, 1, nil
	}
	exp, err := strconv.Atoi(f[i:])
	if err != nil {
		return "", 0, err
	}
	return strings.TrimSuffix(f[:i], "^"), exp, nil
}

// unitConversionFactor returns the factor by which values in unit from
// must be multiplied to express them in unit to.
func unitConversionFactor(from, to string) (float64, error) {
	if from == to {
		return 1, nil
	}
	uf, err := parseUnit(from)
	if err != nil {
		return 0, err
	}
	ut, err := parseUnit(to)
	if err != nil {
		return 0, err
	}
	if !uf.Dimensions().Matches(ut.Dimensions()) {
		return 0, invalidArgument("cannot convert unit '%s' to '%s'", from, to)
	}
	return uf.Value() / ut.Value(), nil
}
