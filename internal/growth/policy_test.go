// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package growth

import (
	"errors"
	"math"
	"testing"
)

func mustRatio(t *testing.T, r float64) Ratio {
	t.Helper()
	p, err := NewRatio(r)
	if err != nil {
		t.Fatalf("NewRatio(%v) error = %v", r, err)
	}
	return p
}

func mustFixed(t *testing.T, k int) FixedIncrement {
	t.Helper()
	p, err := NewFixedIncrement(k)
	if err != nil {
		t.Fatalf("NewFixedIncrement(%d) error = %v", k, err)
	}
	return p
}

func TestDoubling_NextCapacity(t *testing.T) {
	tests := []struct {
		name     string
		current  int
		required int
		want     int
	}{
		{"empty grows to one", 0, 1, 1},
		{"empty honours larger requirement", 0, 5, 5},
		{"doubles", 4, 5, 8},
		{"requirement beyond double", 4, 20, 20},
		{"saturates", math.MaxInt/2 + 1, math.MaxInt/2 + 2, math.MaxInt},
	}

	p := NewDoubling()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := p.NextCapacity(tt.current, tt.required); got != tt.want {
				t.Errorf("NextCapacity(%d, %d) = %d, want %d", tt.current, tt.required, got, tt.want)
			}
		})
	}
}

func TestRatio_NextCapacity(t *testing.T) {
	tests := []struct {
		name     string
		r        float64
		current  int
		required int
		want     int
	}{
		{"1.5 rounds up", 1.5, 3, 4, 5},
		{"1.5 exact", 1.5, 4, 5, 6},
		{"small ratio still progresses", 1.01, 1, 2, 2},
		{"empty", 3, 0, 1, 1},
		{"triples", 3, 4, 5, 12},
		{"saturates", 2, math.MaxInt - 1, math.MaxInt, math.MaxInt},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := mustRatio(t, tt.r)
			if got := p.NextCapacity(tt.current, tt.required); got != tt.want {
				t.Errorf("NextCapacity(%d, %d) = %d, want %d", tt.current, tt.required, got, tt.want)
			}
		})
	}
}

func TestFixedIncrement_NextCapacity(t *testing.T) {
	p := mustFixed(t, 10)

	if got := p.NextCapacity(0, 1); got != 10 {
		t.Errorf("NextCapacity(0, 1) = %d, want 10", got)
	}
	if got := p.NextCapacity(10, 11); got != 20 {
		t.Errorf("NextCapacity(10, 11) = %d, want 20", got)
	}
	if got := p.NextCapacity(10, 50); got != 50 {
		t.Errorf("NextCapacity(10, 50) = %d, want 50", got)
	}
	if got := p.NextCapacity(math.MaxInt-3, math.MaxInt-2); got != math.MaxInt {
		t.Errorf("NextCapacity near MaxInt = %d, want MaxInt", got)
	}
}

func TestPolicies_NeverBelowRequired(t *testing.T) {
	policies := []Policy{
		NewDoubling(),
		mustRatio(t, 1.5),
		mustRatio(t, 1.0001),
		mustRatio(t, 4),
		mustFixed(t, 1),
		mustFixed(t, 1024),
	}

	for _, p := range policies {
		t.Run(p.Name(), func(t *testing.T) {
			for current := 0; current <= 2000; current++ {
				for _, extra := range []int{1, 2, 7, 3000} {
					required := current + extra
					got, err := Check(p, current, required)
					if err != nil {
						t.Fatalf("Check(%d, %d) error = %v", current, required, err)
					}
					if got < required {
						t.Fatalf("NextCapacity(%d, %d) = %d, below required", current, required, got)
					}
				}
			}
		})
	}
}

func TestDoubling_CapacitySequence(t *testing.T) {
	// Capacity after each of five appends starting from empty.
	want := []int{1, 2, 4, 4, 8}

	p := NewDoubling()
	capacity := 0
	for i, w := range want {
		length := i + 1
		if length > capacity {
			capacity = p.NextCapacity(capacity, length)
		}
		if capacity != w {
			t.Errorf("after append %d: capacity = %d, want %d", length, capacity, w)
		}
	}
}

type shortPolicy struct{}

func (shortPolicy) Name() string                    { return "short" }
func (shortPolicy) NextCapacity(current, _ int) int { return current }

func TestCheck_ContractViolation(t *testing.T) {
	_, err := Check(shortPolicy{}, 4, 5)
	if !errors.Is(err, ErrContractViolation) {
		t.Errorf("Check() error = %v, want ErrContractViolation", err)
	}
}

func TestNewRatio_Invalid(t *testing.T) {
	for _, r := range []float64{1, 0.5, 0, -2, math.NaN(), math.Inf(1)} {
		if _, err := NewRatio(r); !errors.Is(err, ErrInvalidRatio) {
			t.Errorf("NewRatio(%v) error = %v, want ErrInvalidRatio", r, err)
		}
	}
}

func TestNewFixedIncrement_Invalid(t *testing.T) {
	for _, k := range []int{0, -1} {
		if _, err := NewFixedIncrement(k); !errors.Is(err, ErrInvalidIncrement) {
			t.Errorf("NewFixedIncrement(%d) error = %v, want ErrInvalidIncrement", k, err)
		}
	}
}

func TestParse(t *testing.T) {
	tests := []struct {
		input   string
		want    string
		wantErr error
	}{
		{"doubling", "doubling", nil},
		{"  Doubling ", "doubling", nil},
		{"ratio-1.5", "ratio-1.5", nil},
		{"ratio-3", "ratio-3", nil},
		{"fixed-1024", "fixed-1024", nil},
		{"ratio-1", "", ErrInvalidRatio},
		{"ratio-abc", "", ErrUnknownPolicy},
		{"fixed-0", "", ErrInvalidIncrement},
		{"fixed-x", "", ErrUnknownPolicy},
		{"tripling", "", ErrUnknownPolicy},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			p, err := Parse(tt.input)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Parse(%q) error = %v, want %v", tt.input, err, tt.wantErr)
				}
				if p != nil {
					t.Errorf("Parse(%q) returned policy %v on error", tt.input, p)
				}
				return
			}
			if err != nil {
				t.Fatalf("Parse(%q) error = %v", tt.input, err)
			}
			if p.Name() != tt.want {
				t.Errorf("Parse(%q).Name() = %q, want %q", tt.input, p.Name(), tt.want)
			}
		})
	}
}
