// © 2023 Microglot LLC
//
// SPDX-License-Identifier: Apache-2.0

package exc

import (
	"fmt"

	"gopkg.bondrewd.org/pegen.go/internal/pegen"
)

type Exception interface {
	error
	Code() string
	Message() string
	Location() Location
}

// Location identifies where an exception was raised. Rule is set for
// failures found while analysing a specific grammar rule.
type Location struct {
	pegen.Location
	URI  string
	Rule string
}

func (l Location) String() string {
	s := l.URI
	if l.Line > 0 {
		s = fmt.Sprintf("%s:%d:%d", s, l.Line, l.Column)
	}
	if l.Rule != "" {
		s = fmt.Sprintf("%s (rule %s)", s, l.Rule)
	}
	return s
}

type exc struct {
	code     string
	message  string
	location Location
}

func (e *exc) Error() string {
	return fmt.Sprintf("%s -- %s: %s", e.location, e.code, e.message)
}

func (e *exc) Code() string {
	return e.code
}

func (e *exc) Message() string {
	return e.message
}

func (e *exc) Location() Location {
	return e.location
}

type excUnwrap struct {
	Exception
	cause error
}

func (e *excUnwrap) Unwrap() error {
	return e.cause
}

func New(location Location, code string, message string) Exception {
	return &exc{
		location: location,
		message:  message,
		code:     code,
	}
}

// Newf is New with a formatted message.
func Newf(location Location, code string, format string, args ...interface{}) Exception {
	return New(location, code, fmt.Sprintf(format, args...))
}

func Wrap(location Location, code string, err error) Exception {
	if err == nil {
		return nil
	}
	if e, ok := err.(Exception); ok {
		return &excUnwrap{
			Exception: New(location, code, e.Message()),
			cause:     e,
		}
	}
	return &excUnwrap{
		cause:     err,
		Exception: New(location, code, err.Error()),
	}
}

func WrapUnknown(location Location, err error) Exception {
	return Wrap(location, CodeUnknownFatal, err)
}
