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
	"errors"
	"math"
	"math/rand/v2"
	"testing"

	"github.com/AleutianAI/growbench/internal/growth"
)

// containers returns one fresh instance of every Container implementation.
func containers(t *testing.T) map[string]Container[int] {
	t.Helper()
	ratio, err := growth.NewRatio(1.5)
	if err != nil {
		t.Fatal(err)
	}
	fixed, err := growth.NewFixedIncrement(3)
	if err != nil {
		t.Fatal(err)
	}
	slice, err := NewSlice[int](0)
	if err != nil {
		t.Fatal(err)
	}
	return map[string]Container[int]{
		"doubling":  New[int](growth.NewDoubling()),
		"ratio-1.5": New[int](ratio),
		"fixed-3":   New[int](fixed),
		"go-slice":  slice,
	}
}

func TestNew_Empty(t *testing.T) {
	a := New[int](nil)
	if a.Len() != 0 || a.Cap() != 0 {
		t.Errorf("New() Len=%d Cap=%d, want 0 0", a.Len(), a.Cap())
	}
	if a.Policy().Name() != "doubling" {
		t.Errorf("nil policy resolved to %q, want doubling", a.Policy().Name())
	}
}

func TestWithCapacity(t *testing.T) {
	a, err := WithCapacity[string](growth.NewDoubling(), 16)
	if err != nil {
		t.Fatalf("WithCapacity() error = %v", err)
	}
	if a.Cap() < 16 || a.Len() != 0 {
		t.Errorf("Len=%d Cap=%d, want 0 and >=16", a.Len(), a.Cap())
	}
	for i := 0; i < 16; i++ {
		if err := a.Append("x"); err != nil {
			t.Fatal(err)
		}
	}
	if a.Stats().Growths != 0 {
		t.Errorf("Growths = %d, want 0 within preallocated capacity", a.Stats().Growths)
	}

	if _, err := WithCapacity[int](nil, -1); !errors.Is(err, ErrInvalidCapacity) {
		t.Errorf("negative capacity error = %v, want ErrInvalidCapacity", err)
	}
	if _, err := WithCapacity[int](nil, 10, WithCapacityLimit(5)); !errors.Is(err, ErrAllocationFailure) {
		t.Errorf("capacity above limit error = %v, want ErrAllocationFailure", err)
	}
}

func TestArray_DoublingCapacitySequence(t *testing.T) {
	a := New[int](growth.NewDoubling())
	want := []int{1, 2, 4, 4, 8}
	for i, w := range want {
		if err := a.Append(i); err != nil {
			t.Fatal(err)
		}
		if a.Cap() != w {
			t.Errorf("after %d appends Cap = %d, want %d", i+1, a.Cap(), w)
		}
	}
	if got := a.Stats().Growths; got != 4 {
		t.Errorf("Growths = %d, want 4", got)
	}
	// 0 + 1 + 2 + 4 elements copied by the four reallocations.
	if got := a.Stats().Copied; got != 7 {
		t.Errorf("Copied = %d, want 7", got)
	}
}

func TestContainers_AppendGetRoundTrip(t *testing.T) {
	for name, c := range containers(t) {
		t.Run(name, func(t *testing.T) {
			const n = 1000
			for i := 0; i < n; i++ {
				if err := c.Append(i * 3); err != nil {
					t.Fatalf("Append(%d) error = %v", i, err)
				}
			}
			if c.Len() != n {
				t.Fatalf("Len = %d, want %d", c.Len(), n)
			}
			for i := 0; i < n; i++ {
				got, err := c.Get(i)
				if err != nil {
					t.Fatalf("Get(%d) error = %v", i, err)
				}
				if got != i*3 {
					t.Fatalf("Get(%d) = %d, want %d", i, got, i*3)
				}
			}
		})
	}
}

func TestContainers_IndexOutOfRange(t *testing.T) {
	for name, c := range containers(t) {
		t.Run(name, func(t *testing.T) {
			for i := 0; i < 3; i++ {
				_ = c.Append(i)
			}
			for _, idx := range []int{-1, 3, 100} {
				if _, err := c.Get(idx); !errors.Is(err, ErrIndexOutOfRange) {
					t.Errorf("Get(%d) error = %v, want ErrIndexOutOfRange", idx, err)
				}
				if err := c.Set(idx, 0); !errors.Is(err, ErrIndexOutOfRange) {
					t.Errorf("Set(%d) error = %v, want ErrIndexOutOfRange", idx, err)
				}
			}
			if err := c.Set(1, 42); err != nil {
				t.Fatalf("Set(1) error = %v", err)
			}
			if v, _ := c.Get(1); v != 42 {
				t.Errorf("Get(1) after Set = %d, want 42", v)
			}
		})
	}
}

func TestContainers_EmptyRemoval(t *testing.T) {
	for name, c := range containers(t) {
		t.Run(name, func(t *testing.T) {
			if _, err := c.RemoveFront(); !errors.Is(err, ErrEmptyContainer) {
				t.Errorf("RemoveFront() error = %v, want ErrEmptyContainer", err)
			}
			if _, err := c.RemoveBack(); !errors.Is(err, ErrEmptyContainer) {
				t.Errorf("RemoveBack() error = %v, want ErrEmptyContainer", err)
			}
		})
	}
}

func TestContainers_FrontInsertionShiftCount(t *testing.T) {
	for name, c := range containers(t) {
		t.Run(name, func(t *testing.T) {
			const n = 200
			for i := 0; i < n; i++ {
				if err := c.InsertFront(i); err != nil {
					t.Fatalf("InsertFront(%d) error = %v", i, err)
				}
			}
			if got, want := c.Stats().Shifts, n*(n-1)/2; got != want {
				t.Errorf("Shifts = %d, want %d", got, want)
			}
			for i := 0; i < n; i++ {
				got, _ := c.Get(i)
				if want := n - 1 - i; got != want {
					t.Fatalf("Get(%d) = %d, want %d", i, got, want)
				}
			}
		})
	}
}

func TestContainers_RemoveOrder(t *testing.T) {
	for name, c := range containers(t) {
		t.Run(name, func(t *testing.T) {
			for i := 0; i < 10; i++ {
				_ = c.Append(i)
			}
			capBefore := c.Cap()

			front, err := c.RemoveFront()
			if err != nil || front != 0 {
				t.Fatalf("RemoveFront() = %d, %v; want 0, nil", front, err)
			}
			back, err := c.RemoveBack()
			if err != nil || back != 9 {
				t.Fatalf("RemoveBack() = %d, %v; want 9, nil", back, err)
			}
			if c.Len() != 8 {
				t.Errorf("Len = %d, want 8", c.Len())
			}
			if c.Cap() != capBefore {
				t.Errorf("Cap changed on removal: %d -> %d", capBefore, c.Cap())
			}
			for i, v := range c.All() {
				if v != i+1 {
					t.Errorf("All() index %d = %d, want %d", i, v, i+1)
				}
			}
		})
	}
}

func TestArray_RemovalZeroesVacatedSlots(t *testing.T) {
	a := New[*int](nil)
	vals := []int{1, 2, 3}
	for i := range vals {
		_ = a.Append(&vals[i])
	}

	_, _ = a.RemoveFront()
	_, _ = a.RemoveBack()

	// The survivor moved to slot 0; trailing slots must not retain pointers.
	for i := a.Len(); i < a.Cap(); i++ {
		if a.data[i] != nil {
			t.Errorf("slot %d retains %v after removal", i, *a.data[i])
		}
	}
}

func TestArray_AllStopsEarly(t *testing.T) {
	a := New[int](nil)
	for i := 0; i < 10; i++ {
		_ = a.Append(i)
	}
	seen := 0
	for i := range a.All() {
		if i == 3 {
			break
		}
		seen++
	}
	if seen != 3 {
		t.Errorf("iterated %d elements before break, want 3", seen)
	}
}

func TestContainers_LenNeverExceedsCap(t *testing.T) {
	for name, c := range containers(t) {
		t.Run(name, func(t *testing.T) {
			rng := rand.New(rand.NewPCG(42, 7))
			maxCap := 0
			for step := 0; step < 5000; step++ {
				switch rng.IntN(6) {
				case 0, 1:
					_ = c.Append(step)
				case 2:
					_ = c.InsertFront(step)
				case 3:
					_, _ = c.RemoveFront()
				case 4:
					_, _ = c.RemoveBack()
				case 5:
					if c.Len() > 0 {
						_ = c.Set(rng.IntN(c.Len()), step)
					}
				}
				if c.Len() > c.Cap() {
					t.Fatalf("step %d: Len %d > Cap %d", step, c.Len(), c.Cap())
				}
				if c.Cap() < maxCap {
					t.Fatalf("step %d: capacity shrank from %d to %d", step, maxCap, c.Cap())
				}
				maxCap = c.Cap()
			}
		})
	}
}

func TestArray_CapacityLimit(t *testing.T) {
	a := New[int](growth.NewDoubling(), WithCapacityLimit(5))
	for i := 0; i < 5; i++ {
		if err := a.Append(i); err != nil {
			t.Fatalf("Append(%d) error = %v", i, err)
		}
	}
	if a.Cap() != 5 {
		t.Errorf("Cap = %d, want growth clamped to limit 5", a.Cap())
	}

	before := a.Stats()
	if err := a.Append(5); !errors.Is(err, ErrAllocationFailure) {
		t.Fatalf("Append beyond limit error = %v, want ErrAllocationFailure", err)
	}
	if err := a.InsertFront(5); !errors.Is(err, ErrAllocationFailure) {
		t.Fatalf("InsertFront beyond limit error = %v, want ErrAllocationFailure", err)
	}
	if a.Len() != 5 || a.Cap() != 5 || a.Stats() != before {
		t.Errorf("array changed after refused growth: Len=%d Cap=%d Stats=%+v", a.Len(), a.Cap(), a.Stats())
	}
	for i := 0; i < 5; i++ {
		if v, _ := a.Get(i); v != i {
			t.Errorf("Get(%d) = %d after refused growth, want %d", i, v, i)
		}
	}
}

// hugePolicy asks for more memory than the runtime will hand out.
type hugePolicy struct{}

func (hugePolicy) Name() string              { return "huge" }
func (hugePolicy) NextCapacity(_, _ int) int { return math.MaxInt }

func TestArray_AllocationRefused(t *testing.T) {
	a := New[int64](hugePolicy{})
	err := a.Append(1)
	if !errors.Is(err, ErrAllocationFailure) {
		t.Fatalf("Append() error = %v, want ErrAllocationFailure", err)
	}
	if a.Len() != 0 || a.Cap() != 0 {
		t.Errorf("array changed after refused allocation: Len=%d Cap=%d", a.Len(), a.Cap())
	}
}

type stingyPolicy struct{}

func (stingyPolicy) Name() string                    { return "stingy" }
func (stingyPolicy) NextCapacity(current, _ int) int { return current }

func TestArray_ContractViolationPanics(t *testing.T) {
	a := New[int](stingyPolicy{})
	defer func() {
		r := recover()
		if r == nil {
			t.Fatal("Append with a shrinking policy did not panic")
		}
		err, ok := r.(error)
		if !ok || !errors.Is(err, growth.ErrContractViolation) {
			t.Errorf("panic value = %v, want ErrContractViolation", r)
		}
	}()
	_ = a.Append(1)
}

func TestSliceArray_CapacityLimit(t *testing.T) {
	s, err := NewSlice[int](0, WithCapacityLimit(2))
	if err != nil {
		t.Fatal(err)
	}
	_ = s.Append(1)
	_ = s.Append(2)
	if err := s.Append(3); !errors.Is(err, ErrAllocationFailure) {
		t.Errorf("Append beyond limit error = %v, want ErrAllocationFailure", err)
	}
	if _, err := NewSlice[int](-1); !errors.Is(err, ErrInvalidCapacity) {
		t.Errorf("NewSlice(-1) error = %v, want ErrInvalidCapacity", err)
	}
}

func TestSliceArray_CapacityNeverExceedsLimit(t *testing.T) {
	const limit = 10
	s, err := NewSlice[int](0, WithCapacityLimit(limit))
	if err != nil {
		t.Fatal(err)
	}
	a := New[int](growth.NewDoubling(), WithCapacityLimit(limit))

	for i := 0; i < limit; i++ {
		if err := s.Append(i); err != nil {
			t.Fatalf("slice Append(%d) error = %v", i, err)
		}
		if err := a.Append(i); err != nil {
			t.Fatalf("array Append(%d) error = %v", i, err)
		}
		if s.Cap() > limit {
			t.Fatalf("slice Cap() = %d after %d appends, exceeds limit %d", s.Cap(), i+1, limit)
		}
	}
	if s.Cap() != a.Cap() {
		t.Errorf("slice Cap() = %d, array Cap() = %d; want equal at the limit", s.Cap(), a.Cap())
	}
	if err := s.Append(limit); !errors.Is(err, ErrAllocationFailure) {
		t.Errorf("Append beyond limit error = %v, want ErrAllocationFailure", err)
	}
	for i := range limit {
		if v, _ := s.Get(i); v != i {
			t.Errorf("Get(%d) = %d, want %d", i, v, i)
		}
	}

	front, err := NewSlice[int](0, WithCapacityLimit(3))
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 3; i++ {
		if err := front.InsertFront(i); err != nil {
			t.Fatalf("InsertFront(%d) error = %v", i, err)
		}
	}
	if front.Cap() > 3 {
		t.Errorf("InsertFront Cap() = %d, exceeds limit 3", front.Cap())
	}
}

func TestSliceArray_CountsGrowths(t *testing.T) {
	s, err := NewSlice[int](0)
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 1000; i++ {
		_ = s.Append(i)
	}
	if s.Stats().Growths == 0 {
		t.Error("Growths = 0 after 1000 appends from empty")
	}
	if s.Stats().Copied >= 1000*1000 {
		t.Errorf("Copied = %d, not amortized", s.Stats().Copied)
	}
}
