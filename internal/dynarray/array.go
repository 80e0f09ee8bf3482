// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package dynarray

import (
	"fmt"
	"iter"

	"github.com/AleutianAI/growbench/internal/growth"
)

// Array is a contiguous growable array whose reallocation sizes come from a
// growth.Policy.
//
// Description:
//
//	The backing slice is always fully allocated (len(data) == Cap()); only the
//	first n slots hold live values. Reallocation is the only operation that
//	replaces the backing slice. Slots vacated by removals are zeroed.
//
// Thread Safety: Not safe for concurrent use.
type Array[T any] struct {
	policy growth.Policy
	data   []T
	n      int
	limit  int
	stats  Stats
}

// New creates an empty array with capacity 0.
//
// A nil policy selects growth.Doubling.
func New[T any](policy growth.Policy, opts ...Option) *Array[T] {
	if policy == nil {
		policy = growth.NewDoubling()
	}
	o := buildOptions(opts)
	return &Array[T]{policy: policy, limit: o.limit}
}

// WithCapacity creates an empty array with capacity of at least n.
//
// Inputs:
//   - policy: Growth policy for later reallocations. Nil selects doubling.
//   - n: Initial capacity. Must be non-negative.
//   - opts: Construction options.
//
// Outputs:
//   - *Array[T]: The array.
//   - error: ErrInvalidCapacity for n < 0, ErrAllocationFailure if n exceeds
//     the capacity limit or cannot be allocated.
func WithCapacity[T any](policy growth.Policy, n int, opts ...Option) (*Array[T], error) {
	if n < 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidCapacity, n)
	}
	a := New[T](policy, opts...)
	if a.limit > 0 && n > a.limit {
		return nil, fmt.Errorf("%w: capacity %d exceeds limit %d", ErrAllocationFailure, n, a.limit)
	}
	data, err := allocate[T](n)
	if err != nil {
		return nil, err
	}
	a.data = data
	return a, nil
}

// Policy returns the growth policy the array was built with.
func (a *Array[T]) Policy() growth.Policy {
	return a.policy
}

// Len returns the number of live elements.
func (a *Array[T]) Len() int {
	return a.n
}

// Cap returns the allocated capacity.
func (a *Array[T]) Cap() int {
	return len(a.data)
}

// Stats returns the work counters.
func (a *Array[T]) Stats() Stats {
	return a.stats
}

// Append adds v at the end.
//
// Outputs:
//   - error: ErrAllocationFailure if growth was required and refused. The array
//     is unchanged in that case.
func (a *Array[T]) Append(v T) error {
	if a.n == len(a.data) {
		if err := a.grow(a.n + 1); err != nil {
			return err
		}
	}
	a.data[a.n] = v
	a.n++
	return nil
}

// Get returns the element at i.
func (a *Array[T]) Get(i int) (T, error) {
	if i < 0 || i >= a.n {
		var zero T
		return zero, indexError(i, a.n)
	}
	return a.data[i], nil
}

// Set replaces the element at i.
func (a *Array[T]) Set(i int, v T) error {
	if i < 0 || i >= a.n {
		return indexError(i, a.n)
	}
	a.data[i] = v
	return nil
}

// InsertFront stores v at index 0 after shifting every element right by one.
//
// Description:
//
//	Costs O(Len()) element moves, counted in Stats().Shifts. Grows first when
//	full.
func (a *Array[T]) InsertFront(v T) error {
	if a.n == len(a.data) {
		if err := a.grow(a.n + 1); err != nil {
			return err
		}
	}
	copy(a.data[1:a.n+1], a.data[:a.n])
	a.stats.Shifts += a.n
	a.data[0] = v
	a.n++
	return nil
}

// RemoveFront removes and returns the element at index 0.
//
// Outputs:
//   - T: The removed element.
//   - error: ErrEmptyContainer if the array is empty.
func (a *Array[T]) RemoveFront() (T, error) {
	var zero T
	if a.n == 0 {
		return zero, ErrEmptyContainer
	}
	v := a.data[0]
	copy(a.data[:a.n-1], a.data[1:a.n])
	a.stats.Shifts += a.n - 1
	a.n--
	a.data[a.n] = zero
	return v, nil
}

// RemoveBack removes and returns the last element.
func (a *Array[T]) RemoveBack() (T, error) {
	var zero T
	if a.n == 0 {
		return zero, ErrEmptyContainer
	}
	a.n--
	v := a.data[a.n]
	a.data[a.n] = zero
	return v, nil
}

// All yields every live element in index order.
func (a *Array[T]) All() iter.Seq2[int, T] {
	return func(yield func(int, T) bool) {
		for i := 0; i < a.n; i++ {
			if !yield(i, a.data[i]) {
				return
			}
		}
	}
}

// grow reallocates so at least required elements fit.
//
// Panics if the policy returns less than required.
func (a *Array[T]) grow(required int) error {
	if a.limit > 0 && required > a.limit {
		return fmt.Errorf("%w: %d elements exceeds limit %d", ErrAllocationFailure, required, a.limit)
	}

	next, err := growth.Check(a.policy, len(a.data), required)
	if err != nil {
		panic(fmt.Errorf("dynarray: %w", err))
	}
	if a.limit > 0 && next > a.limit {
		next = a.limit
	}

	data, err := allocate[T](next)
	if err != nil {
		return err
	}
	copy(data, a.data[:a.n])
	a.stats.Growths++
	a.stats.Copied += a.n
	a.data = data
	return nil
}

// Verify interface compliance at compile time.
var _ Container[int] = (*Array[int])(nil)
