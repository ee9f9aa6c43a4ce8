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

// CollocationIndexName is the name of the {time} int32 variable that
// links the samples of a product to the pairs of a collocation result.
const CollocationIndexName = "collocation_index"

// AVKName returns the name of the averaging kernel of variable.
func AVKName(variable string) string { return variable + "_avk" }

// AprioriName returns the name of the a priori profile of variable.
func AprioriName(variable string) string { return variable + "_apriori" }

// BoundsName returns the name of the variable that holds the boundaries
// of the levels of the vertical axis named axis.
func BoundsName(axis string) string { return axis + "_bounds" }
