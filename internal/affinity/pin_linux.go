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
	"fmt"
	"runtime"
	"sync"

	"golang.org/x/sys/unix"
)

// Pin locks the calling goroutine to its OS thread and restricts that thread
// to cpu.
//
// Description:
//
//	The previous affinity mask is restored by the returned Release, which
//	also unlocks the thread. Release must be called from the same goroutine.
//
// Inputs:
//   - cpu: Zero-based CPU index present in the current affinity mask.
//
// Outputs:
//   - Release: Restores the previous mask. Never nil on success.
//   - error: ErrInvalidCPU, or the sched_setaffinity error.
func Pin(cpu int) (Release, error) {
	if cpu < 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidCPU, cpu)
	}

	runtime.LockOSThread()

	var previous unix.CPUSet
	if err := unix.SchedGetaffinity(0, &previous); err != nil {
		runtime.UnlockOSThread()
		return nil, fmt.Errorf("read affinity: %w", err)
	}
	if !previous.IsSet(cpu) {
		runtime.UnlockOSThread()
		return nil, fmt.Errorf("%w: cpu %d not in allowed set of %d", ErrInvalidCPU, cpu, previous.Count())
	}

	var want unix.CPUSet
	want.Set(cpu)
	if err := unix.SchedSetaffinity(0, &want); err != nil {
		runtime.UnlockOSThread()
		return nil, fmt.Errorf("set affinity to cpu %d: %w", cpu, err)
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			_ = unix.SchedSetaffinity(0, &previous)
			runtime.UnlockOSThread()
		})
	}, nil
}

// Current returns the CPUs the calling thread may run on.
func Current() ([]int, error) {
	var set unix.CPUSet
	if err := unix.SchedGetaffinity(0, &set); err != nil {
		return nil, fmt.Errorf("read affinity: %w", err)
	}
	cpus := make([]int, 0, set.Count())
	for i := 0; i < len(set)*64; i++ {
		if set.IsSet(i) {
			cpus = append(cpus, i)
		}
	}
	return cpus, nil
}
