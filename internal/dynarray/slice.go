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
	"slices"
)

// SliceArray is a Container backed by a plain Go slice.
//
// Description:
//
//	Growth is left to the runtime's append, so this is the reference point
//	the policy-driven arrays are compared against. Reallocations are detected
//	by watching cap() change and are counted the same way Array counts them.
//	With a capacity limit set, growth near the limit is trimmed so Cap never
//	exceeds it.
//
// Thread Safety: Not safe for concurrent use.
type SliceArray[T any] struct {
	data  []T
	limit int
	stats Stats
}

// NewSlice creates an empty slice-backed array with an initial capacity.
//
// Outputs:
//   - *SliceArray[T]: The array.
//   - error: ErrInvalidCapacity for capacity < 0, ErrAllocationFailure if the
//     capacity exceeds the limit or cannot be allocated.
func NewSlice[T any](capacity int, opts ...Option) (*SliceArray[T], error) {
	if capacity < 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidCapacity, capacity)
	}
	o := buildOptions(opts)
	if o.limit > 0 && capacity > o.limit {
		return nil, fmt.Errorf("%w: capacity %d exceeds limit %d", ErrAllocationFailure, capacity, o.limit)
	}
	data, err := allocate[T](capacity)
	if err != nil {
		return nil, err
	}
	return &SliceArray[T]{data: data[:0], limit: o.limit}, nil
}

// Len returns the number of elements.
func (s *SliceArray[T]) Len() int { return len(s.data) }

// Cap returns the slice capacity.
func (s *SliceArray[T]) Cap() int { return cap(s.data) }

// Stats returns the work counters.
func (s *SliceArray[T]) Stats() Stats { return s.stats }

// reserve makes room for required elements without letting cap exceed the
// limit. Without a limit growth is left to append.
func (s *SliceArray[T]) reserve(required int) error {
	if s.limit == 0 {
		return nil
	}
	if required > s.limit {
		return fmt.Errorf("%w: %d elements exceeds limit %d", ErrAllocationFailure, required, s.limit)
	}
	if required <= cap(s.data) {
		return nil
	}
	n := len(s.data)
	s.data = slices.Grow(s.data, required-n)
	if cap(s.data) > s.limit {
		s.data = s.data[:n:s.limit]
	}
	return nil
}

func (s *SliceArray[T]) observe(oldCap, oldLen int) {
	if cap(s.data) != oldCap {
		s.stats.Growths++
		s.stats.Copied += oldLen
	}
}

// Append adds v at the end using the built-in append.
func (s *SliceArray[T]) Append(v T) error {
	n, c := len(s.data), cap(s.data)
	if err := s.reserve(n + 1); err != nil {
		return err
	}
	s.data = append(s.data, v)
	s.observe(c, n)
	return nil
}

// Get returns the element at i.
func (s *SliceArray[T]) Get(i int) (T, error) {
	if i < 0 || i >= len(s.data) {
		var zero T
		return zero, indexError(i, len(s.data))
	}
	return s.data[i], nil
}

// Set replaces the element at i.
func (s *SliceArray[T]) Set(i int, v T) error {
	if i < 0 || i >= len(s.data) {
		return indexError(i, len(s.data))
	}
	s.data[i] = v
	return nil
}

// InsertFront stores v at index 0 via slices.Insert.
func (s *SliceArray[T]) InsertFront(v T) error {
	n, c := len(s.data), cap(s.data)
	if err := s.reserve(n + 1); err != nil {
		return err
	}
	s.data = slices.Insert(s.data, 0, v)
	s.observe(c, n)
	s.stats.Shifts += n
	return nil
}

// RemoveFront removes and returns the first element. slices.Delete zeroes the
// vacated tail slot.
func (s *SliceArray[T]) RemoveFront() (T, error) {
	if len(s.data) == 0 {
		var zero T
		return zero, ErrEmptyContainer
	}
	v := s.data[0]
	s.data = slices.Delete(s.data, 0, 1)
	s.stats.Shifts += len(s.data)
	return v, nil
}

// RemoveBack removes and returns the last element.
func (s *SliceArray[T]) RemoveBack() (T, error) {
	var zero T
	n := len(s.data)
	if n == 0 {
		return zero, ErrEmptyContainer
	}
	v := s.data[n-1]
	s.data[n-1] = zero
	s.data = s.data[:n-1]
	return v, nil
}

// All yields every element in index order.
func (s *SliceArray[T]) All() iter.Seq2[int, T] {
	return slices.All(s.data)
}

var _ Container[int] = (*SliceArray[int])(nil)
