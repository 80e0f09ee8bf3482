// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package affinity pins the calling goroutine's OS thread to one CPU.
//
// Pinning removes cross-core migration from timed intervals. It is supported on
// Linux; elsewhere Pin returns ErrUnsupported and the benchmark runs unpinned.
package affinity

import "errors"

var (
	// ErrUnsupported indicates the platform cannot pin threads.
	ErrUnsupported = errors.New("cpu pinning not supported on this platform")

	// ErrInvalidCPU indicates a negative or out-of-range CPU index.
	ErrInvalidCPU = errors.New("invalid cpu index")
)

// Release undoes a Pin. Safe to call more than once.
type Release func()
