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
	"fmt"

	"github.com/AleutianAI/growbench/internal/growth"
)

// PolicySet lists the parameterised policy variants to register.
type PolicySet struct {
	// Ratios registers one ratio-<r> implementation per entry.
	Ratios []float64

	// FixedIncrements registers one fixed-<k> implementation per entry.
	FixedIncrements []int
}

// DefaultPolicySet returns ratio 1.5 and 3 plus a fixed step of 1024.
func DefaultPolicySet() PolicySet {
	return PolicySet{
		Ratios:          []float64{1.5, 3},
		FixedIncrements: []int{1024},
	}
}

// NewDefault builds the standard registry.
//
// Description:
//
//	Registers, in order: the go-slice baseline, doubling, every ratio in
//	set.Ratios, then every step in set.FixedIncrements. Entries that resolve
//	to an already registered name are rejected with ErrAlreadyRegistered.
//
// Outputs:
//   - *Registry: The populated registry.
//   - error: Joined constructor and registration errors.
func NewDefault(set PolicySet) (*Registry, error) {
	r := New()
	var errs []error

	add := func(impl Implementation) {
		if err := r.Register(impl); err != nil {
			errs = append(errs, err)
		}
	}

	add(Baseline())
	add(ForPolicy(growth.NewDoubling()))

	for _, ratio := range set.Ratios {
		p, err := growth.NewRatio(ratio)
		if err != nil {
			errs = append(errs, fmt.Errorf("ratio %v: %w", ratio, err))
			continue
		}
		add(ForPolicy(p))
	}
	for _, k := range set.FixedIncrements {
		p, err := growth.NewFixedIncrement(k)
		if err != nil {
			errs = append(errs, fmt.Errorf("fixed increment %d: %w", k, err))
			continue
		}
		add(ForPolicy(p))
	}

	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return r, nil
}
