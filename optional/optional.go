// © 2023 Microglot LLC
//
// SPDX-License-Identifier: Apache-2.0

// Package optional provides an absence-capable value. Generated parsers
// return every rule result as an Optional so that a failed match is an
// ordinary value rather than an error.
package optional

import "fmt"

type Optional[T any] struct {
	present bool
	value   T
}

func (self Optional[T]) IsPresent() bool {
	return self.present
}

func (self Optional[T]) Value() T {
	return self.value
}

// ValueOr returns the contained value or def when absent.
func (self Optional[T]) ValueOr(def T) T {
	if !self.present {
		return def
	}
	return self.value
}

func (self Optional[T]) String() string {
	if !self.present {
		return "None"
	}
	return fmt.Sprintf("Some(%v)", self.value)
}

func Some[T any](v T) Optional[T] {
	return Optional[T]{
		present: true,
		value:   v,
	}
}

func None[T any]() Optional[T] {
	return Optional[T]{}
}

// Of builds an Optional from the common (value, ok) return pair.
func Of[T any](v T, ok bool) Optional[T] {
	if !ok {
		return None[T]()
	}
	return Some(v)
}

// Map applies f to the contained value, if any.
func Map[T any, U any](o Optional[T], f func(T) U) Optional[U] {
	if !o.present {
		return None[U]()
	}
	return Some(f(o.value))
}
