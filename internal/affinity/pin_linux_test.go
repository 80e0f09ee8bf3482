// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

//go:build linux

package affinity

import (
	"errors"
	"slices"
	"testing"
)

func TestPin_RestoresPreviousMask(t *testing.T) {
	before, err := Current()
	if err != nil {
		t.Fatalf("Current() error = %v", err)
	}
	if len(before) == 0 {
		t.Fatal("Current() returned no CPUs")
	}

	release, err := Pin(before[0])
	if err != nil {
		t.Skipf("sched_setaffinity not permitted here: %v", err)
	}

	pinned, err := Current()
	if err != nil {
		t.Fatal(err)
	}
	if !slices.Equal(pinned, []int{before[0]}) {
		t.Errorf("Current() while pinned = %v, want [%d]", pinned, before[0])
	}

	release()
	release()

	after, err := Current()
	if err != nil {
		t.Fatal(err)
	}
	if !slices.Equal(after, before) {
		t.Errorf("Current() after release = %v, want %v", after, before)
	}
}

func TestPin_InvalidCPU(t *testing.T) {
	for _, cpu := range []int{-1, 1 << 16} {
		if _, err := Pin(cpu); !errors.Is(err, ErrInvalidCPU) {
			t.Errorf("Pin(%d) error = %v, want ErrInvalidCPU", cpu, err)
		}
	}
}
