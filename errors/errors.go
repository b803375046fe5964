// Copyright 2020 CUE Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package errors provides the error type the fixture loader returns
// (and the CLI reports). The core expansion algorithm itself never
// returns an error (see adt.None and adt.Nil for its error taxonomy);
// this package only serves the surrounding tooling that has to report
// failures about malformed input.
package errors

import (
	"strings"

	"golang.org/x/xerrors"
)

// Error is a single positioned error. Pos is a freeform location hint
// (e.g. "line 3" or a fixture path) rather than a token.Pos, since specs
// reach this module already split out of their originating source file.
type Error struct {
	Pos     string
	Message string
	Wrapped error
}

func (e *Error) Error() string {
	if e.Pos == "" {
		return e.Message
	}
	return e.Pos + ": " + e.Message
}

func (e *Error) Unwrap() error { return e.Wrapped }

// Newf creates a new positioned error.
func Newf(pos string, format string, args ...interface{}) *Error {
	return &Error{Pos: pos, Message: xerrors.Errorf(format, args...).Error()}
}

// Wrapf creates a new positioned error that wraps err.
func Wrapf(err error, pos string, format string, args ...interface{}) *Error {
	msg := xerrors.Errorf(format, args...).Error()
	return &Error{Pos: pos, Message: msg, Wrapped: err}
}

// List is a non-empty list of errors, itself an error.
type List []*Error

func (l List) Error() string {
	var b strings.Builder
	for i, e := range l {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(e.Error())
	}
	return b.String()
}

// Append adds err to a as one element; a nil err leaves a unchanged.
func Append(a List, err *Error) List {
	if err == nil {
		return a
	}
	return append(a, err)
}
