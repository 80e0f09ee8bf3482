// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package dynarray provides growable contiguous arrays for benchmarking.
//
// Array grows through a pluggable growth.Policy. SliceArray wraps the built-in
// slice and its runtime append strategy and serves as the baseline. Both satisfy
// Container, which is the contract the benchmark operations are written
// against.
//
// Arrays are not safe for concurrent use. Each benchmark trial owns its array
// exclusively.
package dynarray

import (
	"errors"
	"fmt"
	"iter"
)

// -----------------------------------------------------------------------------
// Errors
// -----------------------------------------------------------------------------

var (
	// ErrIndexOutOfRange indicates an index outside [0, Len()).
	ErrIndexOutOfRange = errors.New("index out of range")

	// ErrEmptyContainer indicates a removal from an empty container.
	ErrEmptyContainer = errors.New("container is empty")

	// ErrAllocationFailure indicates a growth the allocator or the configured
	// capacity limit refused. The container is left unchanged.
	ErrAllocationFailure = errors.New("allocation failure")

	// ErrInvalidCapacity indicates a negative initial capacity.
	ErrInvalidCapacity = errors.New("invalid capacity")
)

func indexError(i, n int) error {
	return fmt.Errorf("%w: index %d, length %d", ErrIndexOutOfRange, i, n)
}

// -----------------------------------------------------------------------------
// Contract
// -----------------------------------------------------------------------------

// Container is the resizable-array contract exercised by the benchmark suite.
//
// Description:
//
//	Len() <= Cap() holds after every operation and capacity never decreases.
//	Values keep their relative order across reallocation.
type Container[T any] interface {
	// Append adds v at the end, growing first when full.
	Append(v T) error

	// Get returns the element at i or ErrIndexOutOfRange.
	Get(i int) (T, error)

	// Set replaces the element at i or returns ErrIndexOutOfRange.
	Set(i int, v T) error

	// InsertFront shifts every element right by one and stores v at index 0.
	InsertFront(v T) error

	// RemoveFront removes and returns the element at index 0.
	RemoveFront() (T, error)

	// RemoveBack removes and returns the last element.
	RemoveBack() (T, error)

	Len() int
	Cap() int

	// All yields (index, value) pairs in index order.
	All() iter.Seq2[int, T]

	// Stats reports the growth and shift work performed so far.
	Stats() Stats
}

// Stats counts the structural work an array has performed.
type Stats struct {
	// Growths is the number of reallocations.
	Growths int `json:"growths"`

	// Copied is the number of elements moved by reallocations.
	Copied int `json:"copied"`

	// Shifts is the number of elements moved by front insertion and removal.
	Shifts int `json:"shifts"`
}

// -----------------------------------------------------------------------------
// Options
// -----------------------------------------------------------------------------

type options struct {
	limit int
}

// Option configures an array at construction.
type Option func(*options)

// WithCapacityLimit caps the capacity an array may grow to.
//
// Description:
//
//	Growth that would need more than n slots fails with ErrAllocationFailure.
//	A policy asking for more than n while the requirement still fits is clamped
//	to n. Non-positive values are ignored.
func WithCapacityLimit(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.limit = n
		}
	}
}

func buildOptions(opts []Option) options {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// allocate returns a slice of n zero values, converting a runtime refusal into
// ErrAllocationFailure.
func allocate[T any](n int) (s []T, err error) {
	defer func() {
		if r := recover(); r != nil {
			s = nil
			err = fmt.Errorf("%w: %d elements: %v", ErrAllocationFailure, n, r)
		}
	}()
	return make([]T, n), nil
}

// Sub returns the work done between an earlier snapshot o and s.
func (s Stats) Sub(o Stats) Stats {
	return Stats{
		Growths: s.Growths - o.Growths,
		Copied:  s.Copied - o.Copied,
		Shifts:  s.Shifts - o.Shifts,
	}
}
