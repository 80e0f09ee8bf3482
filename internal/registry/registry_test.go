// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package registry

import (
	"errors"
	"slices"
	"strings"
	"testing"

	"github.com/AleutianAI/growbench/internal/dynarray"
	"github.com/AleutianAI/growbench/internal/growth"
)

func TestRegistry_Register(t *testing.T) {
	r := New()

	if err := r.Register(ForPolicy(growth.NewDoubling())); err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if r.Count() != 1 {
		t.Errorf("Count() = %d, want 1", r.Count())
	}

	err := r.Register(ForPolicy(growth.NewDoubling()))
	if !errors.Is(err, ErrAlreadyRegistered) {
		t.Errorf("duplicate Register() error = %v, want ErrAlreadyRegistered", err)
	}

	if err := r.Register(Implementation{Name: "no-ctor"}); !errors.Is(err, ErrInvalidImplementation) {
		t.Errorf("Register() without constructor error = %v, want ErrInvalidImplementation", err)
	}
	if err := r.Register(Implementation{New: Baseline().New}); !errors.Is(err, ErrInvalidImplementation) {
		t.Errorf("Register() without name error = %v, want ErrInvalidImplementation", err)
	}
}

func TestRegistry_MustRegisterPanics(t *testing.T) {
	r := New()
	r.MustRegister(Baseline())

	defer func() {
		if recover() == nil {
			t.Error("MustRegister() of a duplicate did not panic")
		}
	}()
	r.MustRegister(Baseline())
}

func TestRegistry_LookupAndSelect(t *testing.T) {
	r := New()
	r.MustRegister(Baseline())
	r.MustRegister(ForPolicy(growth.NewDoubling()))

	if _, err := r.Lookup("doubling"); err != nil {
		t.Errorf("Lookup(doubling) error = %v", err)
	}
	if _, err := r.Lookup("nope"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Lookup(nope) error = %v, want ErrNotFound", err)
	}
	if _, ok := r.Get("nope"); ok {
		t.Error("Get(nope) reported found")
	}

	all, err := r.Select(nil)
	if err != nil {
		t.Fatalf("Select(nil) error = %v", err)
	}
	if len(all) != 2 || all[0].Name != BaselineName || all[1].Name != "doubling" {
		t.Errorf("Select(nil) = %v, want registration order", names(all))
	}

	picked, err := r.Select([]string{"doubling", BaselineName})
	if err != nil {
		t.Fatalf("Select() error = %v", err)
	}
	if got := names(picked); !slices.Equal(got, []string{"doubling", BaselineName}) {
		t.Errorf("Select() order = %v, want requested order", got)
	}

	_, err = r.Select([]string{"doubling", "tripling", "halving"})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("Select() with unknown names error = %v, want ErrNotFound", err)
	}
	if msg := err.Error(); !strings.Contains(msg, "tripling") || !strings.Contains(msg, "halving") {
		t.Errorf("Select() error %q should mention every unknown name", msg)
	}
}

func TestRegistry_ResolveParsesPolicyNames(t *testing.T) {
	r := New()
	r.MustRegister(Baseline())

	impl, err := r.Resolve("ratio-2.0")
	if err != nil {
		t.Fatalf("Resolve(ratio-2.0) error = %v", err)
	}
	if impl.Name != "ratio-2" || impl.Policy == nil {
		t.Errorf("Resolve(ratio-2.0) = %q, want policy-backed ratio-2", impl.Name)
	}
	if _, err := r.Resolve("ratio-2"); err != nil {
		t.Errorf("Resolve(ratio-2) after registration error = %v", err)
	}
	if got := r.List(); !slices.Equal(got, []string{BaselineName, "ratio-2"}) {
		t.Errorf("List() = %v, want ratio-2 registered once after the baseline", got)
	}

	picked, err := r.Select([]string{"fixed-64", BaselineName})
	if err != nil {
		t.Fatalf("Select(fixed-64) error = %v", err)
	}
	if got := names(picked); !slices.Equal(got, []string{"fixed-64", BaselineName}) {
		t.Errorf("Select() = %v", got)
	}
	c, err := picked[0].New()
	if err != nil {
		t.Fatal(err)
	}
	if err := c.Append(1); err != nil || c.Cap() != 64 {
		t.Errorf("fixed-64 first growth: cap = %d, err = %v; want 64, nil", c.Cap(), err)
	}

	_, err = r.Resolve("ratio-1")
	if !errors.Is(err, ErrNotFound) || !errors.Is(err, growth.ErrInvalidRatio) {
		t.Errorf("Resolve(ratio-1) error = %v, want ErrNotFound and ErrInvalidRatio", err)
	}
	if r.Count() != 3 {
		t.Errorf("Count() = %d, want 3", r.Count())
	}
}

func TestRegistry_ListIsCopy(t *testing.T) {
	r := New()
	r.MustRegister(Baseline())
	list := r.List()
	list[0] = "mutated"
	if r.List()[0] != BaselineName {
		t.Error("List() exposed internal state")
	}
}

func TestNewDefault(t *testing.T) {
	r, err := NewDefault(DefaultPolicySet())
	if err != nil {
		t.Fatalf("NewDefault() error = %v", err)
	}
	want := []string{"go-slice", "doubling", "ratio-1.5", "ratio-3", "fixed-1024"}
	if got := r.List(); !slices.Equal(got, want) {
		t.Errorf("List() = %v, want %v", got, want)
	}

	for _, impl := range r.All() {
		c, err := impl.New()
		if err != nil {
			t.Fatalf("%s: New() error = %v", impl.Name, err)
		}
		if c.Len() != 0 {
			t.Errorf("%s: new container Len = %d, want 0", impl.Name, c.Len())
		}
		if impl.Name != BaselineName && impl.Policy == nil {
			t.Errorf("%s: Policy is nil", impl.Name)
		}
	}
}

func TestNewDefault_ConstructorOptions(t *testing.T) {
	r, err := NewDefault(PolicySet{})
	if err != nil {
		t.Fatal(err)
	}
	for _, impl := range r.All() {
		c, err := impl.New(dynarray.WithCapacityLimit(1))
		if err != nil {
			t.Fatalf("%s: New() error = %v", impl.Name, err)
		}
		_ = c.Append(1)
		if err := c.Append(2); !errors.Is(err, dynarray.ErrAllocationFailure) {
			t.Errorf("%s: Append beyond limit error = %v, want ErrAllocationFailure", impl.Name, err)
		}
	}
}

func TestNewDefault_InvalidPolicies(t *testing.T) {
	_, err := NewDefault(PolicySet{Ratios: []float64{0.5, 1.5, 1.5}, FixedIncrements: []int{0}})
	if !errors.Is(err, growth.ErrInvalidRatio) {
		t.Errorf("error = %v, want ErrInvalidRatio", err)
	}
	if !errors.Is(err, growth.ErrInvalidIncrement) {
		t.Errorf("error = %v, want ErrInvalidIncrement", err)
	}
	if !errors.Is(err, ErrAlreadyRegistered) {
		t.Errorf("error = %v, want ErrAlreadyRegistered", err)
	}
}

func names(impls []Implementation) []string {
	out := make([]string, len(impls))
	for i, impl := range impls {
		out[i] = impl.Name
	}
	return out
}
