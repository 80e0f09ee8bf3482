// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package growth defines the capacity growth policies used by dynamic arrays.
//
// A policy is a pure function from (current capacity, required length) to a new
// capacity. Policies carry no state between calls, so the same inputs always
// produce the same capacity and growth is reproducible across trials.
//
// Three families are provided:
//
//	doubling      new = max(required, current*2), current 0 gives at least 1
//	ratio-<r>     new = max(required, ceil(current*r)), r > 1
//	fixed-<k>     new = max(required, current+k), k >= 1
//
// Every policy must return a capacity of at least the required length. Returning
// less is a contract violation: callers treat it as a programming error and
// panic with ErrContractViolation.
package growth

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// -----------------------------------------------------------------------------
// Errors
// -----------------------------------------------------------------------------

var (
	// ErrContractViolation indicates a policy returned a capacity below the
	// required length.
	ErrContractViolation = errors.New("growth policy returned capacity below required length")

	// ErrInvalidRatio indicates a ratio policy was configured with r <= 1.
	ErrInvalidRatio = errors.New("growth ratio must be greater than 1")

	// ErrInvalidIncrement indicates a fixed-increment policy was configured with k < 1.
	ErrInvalidIncrement = errors.New("growth increment must be at least 1")

	// ErrUnknownPolicy indicates Parse could not recognise a policy name.
	ErrUnknownPolicy = errors.New("unknown growth policy")
)

// -----------------------------------------------------------------------------
// Interface
// -----------------------------------------------------------------------------

// Policy computes the next capacity of a growable array.
//
// Description:
//
//	NextCapacity is called only when an array is full and must hold
//	required elements. Implementations must be pure: no hidden state and no
//	side effects.
//
// Thread Safety: Implementations must be safe for concurrent use.
type Policy interface {
	// Name returns a stable identifier such as "doubling" or "ratio-1.5".
	Name() string

	// NextCapacity returns a capacity >= required.
	//
	// Inputs:
	//   - current: The current capacity. Non-negative.
	//   - required: The length that must fit. Positive.
	NextCapacity(current, required int) int
}

// -----------------------------------------------------------------------------
// Doubling
// -----------------------------------------------------------------------------

// Doubling doubles the capacity on every growth event.
type Doubling struct{}

// NewDoubling returns the doubling policy.
func NewDoubling() Doubling {
	return Doubling{}
}

// Name returns "doubling".
func (Doubling) Name() string {
	return "doubling"
}

// NextCapacity returns max(required, current*2), with an empty array growing to
// at least one slot.
func (Doubling) NextCapacity(current, required int) int {
	if current == 0 {
		return max(required, 1)
	}
	return max(required, saturatingMul(current, 2))
}

// -----------------------------------------------------------------------------
// Ratio
// -----------------------------------------------------------------------------

// Ratio grows the capacity geometrically by a configurable factor.
//
// Description:
//
//	Any factor above 1 gives amortized O(1) appends. Smaller factors trade
//	more frequent reallocation for less slack memory; 1.5 and 2 are the common
//	choices in production containers.
type Ratio struct {
	r float64
}

// NewRatio creates a ratio policy.
//
// Inputs:
//   - r: Growth factor. Must be greater than 1 and finite.
//
// Outputs:
//   - Ratio: The policy.
//   - error: ErrInvalidRatio if r is not a finite value above 1.
func NewRatio(r float64) (Ratio, error) {
	if math.IsNaN(r) || math.IsInf(r, 0) || r <= 1 {
		return Ratio{}, fmt.Errorf("%w: got %v", ErrInvalidRatio, r)
	}
	return Ratio{r: r}, nil
}

// Factor returns the configured growth factor.
func (p Ratio) Factor() float64 {
	return p.r
}

// Name returns "ratio-<r>", for example "ratio-1.5".
func (p Ratio) Name() string {
	return "ratio-" + strconv.FormatFloat(p.r, 'f', -1, 64)
}

// NextCapacity returns max(required, ceil(current*r)).
func (p Ratio) NextCapacity(current, required int) int {
	if current == 0 {
		return max(required, 1)
	}
	grown := math.Ceil(float64(current) * p.r)
	if grown >= math.MaxInt {
		return math.MaxInt
	}
	return max(required, int(grown))
}

// -----------------------------------------------------------------------------
// Fixed increment
// -----------------------------------------------------------------------------

// FixedIncrement adds a constant number of slots on every growth event.
//
// Description:
//
//	Appends cost O(n) amortized under this policy. It is included as the
//	contrast case that makes the benefit of geometric growth visible.
type FixedIncrement struct {
	k int
}

// NewFixedIncrement creates a fixed-increment policy.
//
// Inputs:
//   - k: Slots added per growth event. Must be at least 1.
//
// Outputs:
//   - FixedIncrement: The policy.
//   - error: ErrInvalidIncrement if k < 1.
func NewFixedIncrement(k int) (FixedIncrement, error) {
	if k < 1 {
		return FixedIncrement{}, fmt.Errorf("%w: got %d", ErrInvalidIncrement, k)
	}
	return FixedIncrement{k: k}, nil
}

// Increment returns the configured step.
func (p FixedIncrement) Increment() int {
	return p.k
}

// Name returns "fixed-<k>".
func (p FixedIncrement) Name() string {
	return "fixed-" + strconv.Itoa(p.k)
}

// NextCapacity returns max(required, current+k).
func (p FixedIncrement) NextCapacity(current, required int) int {
	return max(required, saturatingAdd(current, p.k))
}

// -----------------------------------------------------------------------------
// Helpers
// -----------------------------------------------------------------------------

// Check calls p.NextCapacity and verifies the result.
//
// Outputs:
//   - int: The new capacity.
//   - error: ErrContractViolation if the policy returned less than required.
func Check(p Policy, current, required int) (int, error) {
	next := p.NextCapacity(current, required)
	if next < required {
		return next, fmt.Errorf("%w: %s(%d, %d) = %d", ErrContractViolation, p.Name(), current, required, next)
	}
	return next, nil
}

// Parse resolves a policy from its name.
//
// Description:
//
//	Accepts the forms produced by Name(): "doubling", "ratio-<r>" and
//	"fixed-<k>". Matching is case-insensitive and ignores surrounding space.
//
// Inputs:
//   - name: Policy name.
//
// Outputs:
//   - Policy: The resolved policy.
//   - error: ErrUnknownPolicy for unrecognised names, or the constructor error
//     for out-of-range parameters.
//
// Example:
//
//	p, err := growth.Parse("ratio-1.5")
func Parse(name string) (Policy, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	switch {
	case n == "doubling":
		return NewDoubling(), nil
	case strings.HasPrefix(n, "ratio-"):
		r, err := strconv.ParseFloat(strings.TrimPrefix(n, "ratio-"), 64)
		if err != nil {
			return nil, fmt.Errorf("%w: %q: %v", ErrUnknownPolicy, name, err)
		}
		p, err := NewRatio(r)
		if err != nil {
			return nil, err
		}
		return p, nil
	case strings.HasPrefix(n, "fixed-"):
		k, err := strconv.Atoi(strings.TrimPrefix(n, "fixed-"))
		if err != nil {
			return nil, fmt.Errorf("%w: %q: %v", ErrUnknownPolicy, name, err)
		}
		p, err := NewFixedIncrement(k)
		if err != nil {
			return nil, err
		}
		return p, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownPolicy, name)
	}
}

func saturatingMul(a, b int) int {
	if a > math.MaxInt/b {
		return math.MaxInt
	}
	return a * b
}

func saturatingAdd(a, b int) int {
	if a > math.MaxInt-b {
		return math.MaxInt
	}
	return a + b
}

// Verify interface compliance at compile time.
var (
	_ Policy = Doubling{}
	_ Policy = Ratio{}
	_ Policy = FixedIncrement{}
)
