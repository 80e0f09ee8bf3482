// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package registry maps implementation names to array constructors.
//
// The benchmark runner iterates the registry in registration order, so the
// order implementations are registered in is the order they appear in reports.
package registry

import (
	"errors"
	"fmt"
	"sync"

	"github.com/AleutianAI/growbench/internal/dynarray"
	"github.com/AleutianAI/growbench/internal/growth"
)

// -----------------------------------------------------------------------------
// Errors
// -----------------------------------------------------------------------------

var (
	// ErrNotFound indicates no implementation is registered under a name.
	ErrNotFound = errors.New("implementation not found")

	// ErrAlreadyRegistered indicates a name is already taken.
	ErrAlreadyRegistered = errors.New("implementation already registered")

	// ErrInvalidImplementation indicates an implementation without a name or
	// constructor.
	ErrInvalidImplementation = errors.New("invalid implementation")
)

// -----------------------------------------------------------------------------
// Types
// -----------------------------------------------------------------------------

// Constructor builds a fresh, empty container.
type Constructor func(opts ...dynarray.Option) (dynarray.Container[int], error)

// Implementation is a named array variant under test.
type Implementation struct {
	// Name identifies the implementation in selections and reports.
	Name string

	// Policy is the growth policy, or nil when growth is left to the runtime.
	Policy growth.Policy

	// New builds an empty container.
	New Constructor
}

// ForPolicy returns an implementation backed by dynarray.Array with policy p.
// It is registered under p.Name().
func ForPolicy(p growth.Policy) Implementation {
	return Implementation{
		Name:   p.Name(),
		Policy: p,
		New: func(opts ...dynarray.Option) (dynarray.Container[int], error) {
			return dynarray.New[int](p, opts...), nil
		},
	}
}

// Baseline returns the "go-slice" implementation backed by a plain slice.
func Baseline() Implementation {
	return Implementation{
		Name: BaselineName,
		New: func(opts ...dynarray.Option) (dynarray.Container[int], error) {
			return dynarray.NewSlice[int](0, opts...)
		},
	}
}

// BaselineName is the registered name of Baseline().
const BaselineName = "go-slice"

// -----------------------------------------------------------------------------
// Registry
// -----------------------------------------------------------------------------

// Registry holds the implementations available to a benchmark run.
//
// Description:
//
//	Names are unique. List and All preserve registration order.
//
// Thread Safety: Safe for concurrent use via read-write mutex.
type Registry struct {
	mu    sync.RWMutex
	impls map[string]Implementation
	order []string
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{
		impls: make(map[string]Implementation),
	}
}

// Register adds an implementation.
//
// Inputs:
//   - impl: The implementation. Name and New must be set.
//
// Outputs:
//   - error: ErrInvalidImplementation if Name or New is missing,
//     ErrAlreadyRegistered if the name is taken.
//
// Thread Safety: Safe for concurrent use.
func (r *Registry) Register(impl Implementation) error {
	if impl.Name == "" || impl.New == nil {
		return fmt.Errorf("%w: %q", ErrInvalidImplementation, impl.Name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.impls[impl.Name]; exists {
		return fmt.Errorf("%w: %s", ErrAlreadyRegistered, impl.Name)
	}
	r.impls[impl.Name] = impl
	r.order = append(r.order, impl.Name)
	return nil
}

// MustRegister registers an implementation and panics on error.
//
// Should only be used while assembling a registry at startup.
func (r *Registry) MustRegister(impl Implementation) {
	if err := r.Register(impl); err != nil {
		panic(fmt.Sprintf("registry: failed to register %s: %v", impl.Name, err))
	}
}

// Get retrieves an implementation by name.
//
// Outputs:
//   - Implementation: The implementation, zero value if not found.
//   - bool: true if found.
func (r *Registry) Get(name string) (Implementation, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	impl, ok := r.impls[name]
	return impl, ok
}

// Lookup retrieves an implementation by name or returns ErrNotFound.
func (r *Registry) Lookup(name string) (Implementation, error) {
	impl, ok := r.Get(name)
	if !ok {
		return Implementation{}, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	return impl, nil
}

// Resolve looks up name, registering a policy-backed implementation on demand.
//
// Description:
//
//	A name that is not registered but parses as a growth policy ("ratio-2",
//	"fixed-64") is registered as ForPolicy under the policy's canonical name,
//	so "ratio-2.0" and "ratio-2" resolve to the same entry.
//
// Outputs:
//   - Implementation: The registered implementation.
//   - error: ErrNotFound for names that are neither registered nor a valid
//     policy. Out-of-range parameters are wrapped alongside it.
//
// Thread Safety: Safe for concurrent use.
func (r *Registry) Resolve(name string) (Implementation, error) {
	if impl, ok := r.Get(name); ok {
		return impl, nil
	}
	p, err := growth.Parse(name)
	if errors.Is(err, growth.ErrUnknownPolicy) {
		return Implementation{}, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	if err != nil {
		return Implementation{}, fmt.Errorf("%w: %s: %w", ErrNotFound, name, err)
	}

	impl := ForPolicy(p)
	if err := r.Register(impl); err != nil && !errors.Is(err, ErrAlreadyRegistered) {
		return Implementation{}, err
	}
	return r.Lookup(impl.Name)
}

// Select resolves names to implementations.
//
// Description:
//
//	An empty names slice selects every implementation in registration order.
//	Otherwise the result follows the order of names, and each name goes
//	through Resolve. Every unknown name is reported, not only the first.
//
// Outputs:
//   - []Implementation: The selection.
//   - error: Joined ErrNotFound errors for unknown names, nil otherwise.
func (r *Registry) Select(names []string) ([]Implementation, error) {
	if len(names) == 0 {
		return r.All(), nil
	}

	selected := make([]Implementation, 0, len(names))
	var errs []error
	for _, name := range names {
		impl, err := r.Resolve(name)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		selected = append(selected, impl)
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return selected, nil
}

// List returns registered names in registration order.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, len(r.order))
	copy(names, r.order)
	return names
}

// All returns every implementation in registration order.
func (r *Registry) All() []Implementation {
	r.mu.RLock()
	defer r.mu.RUnlock()

	impls := make([]Implementation, 0, len(r.order))
	for _, name := range r.order {
		impls = append(impls, r.impls[name])
	}
	return impls
}

// Count returns the number of registered implementations.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.order)
}
