// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package suite

import (
	"fmt"

	"github.com/AleutianAI/growbench/internal/dynarray"
)

// Operation names.
const (
	OpSequentialAppend = "sequential_append"
	OpRandomAccessRead = "random_access_read"
	OpFrontInsertion   = "front_insertion"
	OpOrderedRead      = "ordered_read"
	OpPopAll           = "pop_all"
	OpFrontRemoval     = "front_removal"
)

// SequentialAppend appends 0..n-1 to an empty container.
func SequentialAppend() Operation {
	return Operation{
		Name:        OpSequentialAppend,
		Description: "append n values to an empty array",
		size:        func(s Sizes) int { return s.Append },
		prepare: func(c dynarray.Container[int], s Sizes, _ uint64) (func() error, error) {
			n := s.Append
			return func() error {
				for i := 0; i < n; i++ {
					if err := c.Append(i); err != nil {
						return fmt.Errorf("append %d: %w", i, err)
					}
				}
				return nil
			}, nil
		},
	}
}

// RandomAccessRead reads r seeded random positions from a prefilled container.
func RandomAccessRead() Operation {
	return Operation{
		Name:        OpRandomAccessRead,
		Description: "read r random indices from an array of n",
		size:        func(s Sizes) int { return s.RandomAccess },
		prepare: func(c dynarray.Container[int], s Sizes, seed uint64) (func() error, error) {
			if s.RandomAccess == 0 && s.Reads > 0 {
				return nil, fmt.Errorf("%w: %d reads from an empty array", ErrInvalidSize, s.Reads)
			}
			if err := fill(c, s.RandomAccess); err != nil {
				return nil, err
			}
			idx := Indices(seed, s.RandomAccess, s.Reads)
			return func() error {
				sum := 0
				for _, i := range idx {
					v, err := c.Get(i)
					if err != nil {
						return fmt.Errorf("get %d: %w", i, err)
					}
					sum += v
				}
				sink = sum
				return nil
			}, nil
		},
	}
}

// FrontInsertion inserts 0..n-1 at the front of an empty container.
func FrontInsertion() Operation {
	return Operation{
		Name:        OpFrontInsertion,
		Description: "insert n values at the front of an empty array",
		size:        func(s Sizes) int { return s.FrontInsertion },
		prepare: func(c dynarray.Container[int], s Sizes, _ uint64) (func() error, error) {
			n := s.FrontInsertion
			return func() error {
				for i := 0; i < n; i++ {
					if err := c.InsertFront(i); err != nil {
						return fmt.Errorf("insert front %d: %w", i, err)
					}
				}
				return nil
			}, nil
		},
	}
}

// OrderedRead walks a prefilled container in order and checks value == index.
func OrderedRead() Operation {
	return Operation{
		Name:        OpOrderedRead,
		Description: "iterate an array of n in order, checking each value",
		size:        func(s Sizes) int { return s.Ordered },
		prepare: func(c dynarray.Container[int], s Sizes, _ uint64) (func() error, error) {
			if err := fill(c, s.Ordered); err != nil {
				return nil, err
			}
			n := s.Ordered
			return func() error {
				seen := 0
				for i, v := range c.All() {
					if v != i {
						return fmt.Errorf("%w: index %d holds %d", ErrOrderViolation, i, v)
					}
					seen++
				}
				if seen != n {
					return fmt.Errorf("%w: iterated %d of %d elements", ErrOrderViolation, seen, n)
				}
				sink = seen
				return nil
			}, nil
		},
	}
}

// PopAll removes every element of a prefilled container from the back.
func PopAll() Operation {
	return Operation{
		Name:        OpPopAll,
		Description: "remove every element of an array of n from the back",
		size:        func(s Sizes) int { return s.Pop },
		prepare: func(c dynarray.Container[int], s Sizes, _ uint64) (func() error, error) {
			if err := fill(c, s.Pop); err != nil {
				return nil, err
			}
			return func() error {
				for c.Len() > 0 {
					want := c.Len() - 1
					v, err := c.RemoveBack()
					if err != nil {
						return fmt.Errorf("remove back: %w", err)
					}
					if v != want {
						return fmt.Errorf("%w: popped %d, want %d", ErrOrderViolation, v, want)
					}
				}
				return nil
			}, nil
		},
	}
}

// FrontRemoval removes every element of a prefilled container from the front.
//
// Shares Sizes.Pop with PopAll so the two ends are compared on equal n.
func FrontRemoval() Operation {
	return Operation{
		Name:        OpFrontRemoval,
		Description: "remove every element of an array of n from the front",
		size:        func(s Sizes) int { return s.Pop },
		prepare: func(c dynarray.Container[int], s Sizes, _ uint64) (func() error, error) {
			if err := fill(c, s.Pop); err != nil {
				return nil, err
			}
			return func() error {
				for want := 0; c.Len() > 0; want++ {
					v, err := c.RemoveFront()
					if err != nil {
						return fmt.Errorf("remove front: %w", err)
					}
					if v != want {
						return fmt.Errorf("%w: removed %d, want %d", ErrOrderViolation, v, want)
					}
				}
				return nil
			}, nil
		},
	}
}
