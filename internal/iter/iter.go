// © 2023 Microglot LLC
//
// SPDX-License-Identifier: Apache-2.0

package iter

import (
	"context"

	"gopkg.bondrewd.org/pegen.go/internal/pegen"
	"gopkg.bondrewd.org/pegen.go/optional"
)

// NewIteratorFilter wraps an iterator with a filter so that only values that
// pass the filter are returned.
func NewIteratorFilter[T any](it pegen.Iterator[T], f pegen.Filter[T]) pegen.Iterator[T] {
	return &iteratorFilter[T]{
		iter:   it,
		filter: f,
	}
}

type iteratorFilter[T any] struct {
	iter   pegen.Iterator[T]
	filter pegen.Filter[T]
}

func (it *iteratorFilter[T]) Next(ctx context.Context) optional.Optional[T] {
	for {
		v := it.iter.Next(ctx)
		if !v.IsPresent() {
			return v
		}
		if it.filter.Keep(ctx, v.Value()) {
			return v
		}
	}
}

func (it *iteratorFilter[T]) Close(ctx context.Context) error {
	return it.iter.Close(ctx)
}

// Collect drains the iterator into a slice and closes it.
func Collect[T any](ctx context.Context, it pegen.Iterator[T]) ([]T, error) {
	var out []T
	for {
		v := it.Next(ctx)
		if !v.IsPresent() {
			break
		}
		out = append(out, v.Value())
	}
	return out, it.Close(ctx)
}

// FilterFunc is an adaptor for simple filter functions that makes them
// compatible with the Filter interface. Use like:
//
//	FilterFunc[T](func(ctx context.Context, val T) bool { return true })
//
// Note that this type should never be referenced directly in any signature.
// Always use Filter as an input or output type.
type FilterFunc[T any] func(ctx context.Context, val T) bool

func (f FilterFunc[T]) Keep(ctx context.Context, val T) bool {
	return f(ctx, val)
}
