// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package suite defines the operation sequences timed by the benchmark runner.
//
// Every operation has two phases. Prepare builds the container and any input
// data (prefilled elements, random indices) and is never timed. The returned
// Run closure is the only code inside the measured interval.
//
// Operations are deterministic given Sizes and a trial seed. Random indices come
// from a PCG source seeded per trial, so every implementation sees the same
// index sequence within a trial.
package suite

import (
	"errors"
	"fmt"
	"math/rand/v2"

	"github.com/AleutianAI/growbench/internal/dynarray"
)

// -----------------------------------------------------------------------------
// Errors
// -----------------------------------------------------------------------------

var (
	// ErrUnknownOperation indicates an operation name not in the suite.
	ErrUnknownOperation = errors.New("unknown operation")

	// ErrInvalidSize indicates a negative size or an impossible combination.
	ErrInvalidSize = errors.New("invalid workload size")

	// ErrOrderViolation indicates an element was found at the wrong position.
	ErrOrderViolation = errors.New("element out of order")
)

// -----------------------------------------------------------------------------
// Types
// -----------------------------------------------------------------------------

// Sizes holds the element counts for each operation.
type Sizes struct {
	// Append is n for sequential_append.
	Append int `json:"append" yaml:"append"`

	// RandomAccess is the prefilled length for random_access_read.
	RandomAccess int `json:"random_access" yaml:"random_access"`

	// Reads is the number of random reads in random_access_read.
	Reads int `json:"reads" yaml:"reads"`

	// FrontInsertion is n for front_insertion.
	FrontInsertion int `json:"front_insertion" yaml:"front_insertion"`

	// Ordered is the prefilled length for ordered_read.
	Ordered int `json:"ordered" yaml:"ordered"`

	// Pop is the prefilled length for pop_all and front_removal.
	Pop int `json:"pop" yaml:"pop"`
}

// DefaultSizes returns sizes that complete in seconds on a laptop.
//
// Front insertion is quadratic, so its default is far smaller.
func DefaultSizes() Sizes {
	return Sizes{
		Append:         1_000_000,
		RandomAccess:   1_000_000,
		Reads:          1_000_000,
		FrontInsertion: 20_000,
		Ordered:        1_000_000,
		Pop:            1_000_000,
	}
}

// Validate checks every size is non-negative and that reads have something to
// read from.
func (s Sizes) Validate() error {
	var errs []error
	check := func(name string, v int) {
		if v < 0 {
			errs = append(errs, fmt.Errorf("%w: %s = %d", ErrInvalidSize, name, v))
		}
	}
	check("append", s.Append)
	check("random_access", s.RandomAccess)
	check("reads", s.Reads)
	check("front_insertion", s.FrontInsertion)
	check("ordered", s.Ordered)
	check("pop", s.Pop)
	if s.RandomAccess == 0 && s.Reads > 0 {
		errs = append(errs, fmt.Errorf("%w: %d reads from an empty array", ErrInvalidSize, s.Reads))
	}
	return errors.Join(errs...)
}

// Builder constructs an empty container for one trial.
type Builder func() (dynarray.Container[int], error)

// Instance is one prepared trial of an operation.
type Instance struct {
	// Container is the array under test. Its Stats are read after Run.
	Container dynarray.Container[int]

	// Run is the timed body.
	Run func() error
}

// Operation is a named, timed sequence of container calls.
type Operation struct {
	// Name identifies the operation in selections and reports.
	Name string

	// Description is a one-line summary for listings.
	Description string

	size    func(Sizes) int
	prepare func(c dynarray.Container[int], s Sizes, seed uint64) (func() error, error)
}

// Size returns the element count the operation works on.
func (op Operation) Size(s Sizes) int {
	return op.size(s)
}

// Prepare builds the container and input data for one trial.
//
// Description:
//
//	Everything done here is outside the timed interval: container
//	construction, prefill, index generation.
//
// Inputs:
//   - build: Constructs an empty container of the implementation under test.
//   - s: Workload sizes.
//   - seed: Trial seed. Equal for every implementation within a trial.
//
// Outputs:
//   - *Instance: The container and timed body.
//   - error: Construction or prefill failure.
func (op Operation) Prepare(build Builder, s Sizes, seed uint64) (*Instance, error) {
	c, err := build()
	if err != nil {
		return nil, fmt.Errorf("build container: %w", err)
	}
	run, err := op.prepare(c, s, seed)
	if err != nil {
		return nil, fmt.Errorf("prepare %s: %w", op.Name, err)
	}
	return &Instance{Container: c, Run: run}, nil
}

// -----------------------------------------------------------------------------
// Suite
// -----------------------------------------------------------------------------

// Suite is an ordered set of operations.
type Suite struct {
	ops []Operation
}

// Default returns every operation in reporting order.
func Default() *Suite {
	return &Suite{ops: []Operation{
		SequentialAppend(),
		RandomAccessRead(),
		FrontInsertion(),
		OrderedRead(),
		PopAll(),
		FrontRemoval(),
	}}
}

// Names returns operation names in suite order.
func (s *Suite) Names() []string {
	names := make([]string, len(s.ops))
	for i, op := range s.ops {
		names[i] = op.Name
	}
	return names
}

// Operations returns a copy of the operations in suite order.
func (s *Suite) Operations() []Operation {
	out := make([]Operation, len(s.ops))
	copy(out, s.ops)
	return out
}

// Get returns the operation with the given name.
func (s *Suite) Get(name string) (Operation, error) {
	for _, op := range s.ops {
		if op.Name == name {
			return op, nil
		}
	}
	return Operation{}, fmt.Errorf("%w: %s", ErrUnknownOperation, name)
}

// Select resolves names to operations.
//
// An empty names slice selects the whole suite. Unknown names are all reported
// in one joined error.
func (s *Suite) Select(names []string) ([]Operation, error) {
	if len(names) == 0 {
		return s.Operations(), nil
	}
	ops := make([]Operation, 0, len(names))
	var errs []error
	for _, name := range names {
		op, err := s.Get(name)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		ops = append(ops, op)
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return ops, nil
}

// -----------------------------------------------------------------------------
// Helpers
// -----------------------------------------------------------------------------

// sink receives read results so the compiler cannot drop the reads.
var sink int

// fill appends 0..n-1.
func fill(c dynarray.Container[int], n int) error {
	for i := 0; i < n; i++ {
		if err := c.Append(i); err != nil {
			return fmt.Errorf("prefill at %d: %w", i, err)
		}
	}
	return nil
}

// Indices returns r indices in [0, n) drawn from a PCG source seeded with seed.
func Indices(seed uint64, n, r int) []int {
	if n <= 0 || r <= 0 {
		return nil
	}
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	idx := make([]int, r)
	for i := range idx {
		idx[i] = rng.IntN(n)
	}
	return idx
}
