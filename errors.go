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
	"errors"
	"fmt"
)

// ErrorKind classifies the failures that can be returned by this package.
type ErrorKind int

const (
	// KindInvalidArgument indicates wrong dimension kinds or counts,
	// mismatched extents, or an otherwise unusable argument.
	KindInvalidArgument ErrorKind = iota + 1
	// KindNotDerivable indicates that a requested variable could not be
	// produced from a product.
	KindNotDerivable
	// KindInconsistentCollocation indicates that a product and a
	// collocation result do not describe the same set of pairs.
	KindInconsistentCollocation
)

func (k ErrorKind) String() string {
	switch k {
	case KindInvalidArgument:
		return "invalid argument"
	case KindNotDerivable:
		return "variable not derivable"
	case KindInconsistentCollocation:
		return "inconsistent collocation"
	default:
		return fmt.Sprintf("unknown error kind %d", int(k))
	}
}

// Error is the error type returned by the functions in this package.
type Error struct {
	Kind ErrorKind
	Msg  string
}

func (e *Error) Error() string {
	return "vertprof: " + e.Msg
}

// Is reports whether target is an *Error of the same kind, which allows
// errors.Is(err, ErrNotDerivable) and similar checks.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Msg == "" && t.Kind == e.Kind
}

// Sentinel values for use with errors.Is.
var (
	ErrInvalidArgument         = &Error{Kind: KindInvalidArgument}
	ErrNotDerivable            = &Error{Kind: KindNotDerivable}
	ErrInconsistentCollocation = &Error{Kind: KindInconsistentCollocation}
)

func newError(kind ErrorKind, format string, args ...interface{}) error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

func invalidArgument(format string, args ...interface{}) error {
	return newError(KindInvalidArgument, format, args...)
}

func notDerivable(format string, args ...interface{}) error {
	return newError(KindNotDerivable, format, args...)
}

// KindOf returns the kind of the first *Error in err's chain, or zero
// if there is none.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}
