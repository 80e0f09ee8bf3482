// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package benchmark

import "time"

// Clock returns the current time. time.Now carries a monotonic reading, so
// differences between two calls are immune to wall-clock adjustments.
type Clock func() time.Time

// Timer measures the wall time of a single call.
//
// Thread Safety: Safe for concurrent use if the clock is.
type Timer struct {
	now Clock
}

// NewTimer creates a timer on the monotonic clock.
func NewTimer() *Timer {
	return &Timer{now: time.Now}
}

// NewTimerWithClock creates a timer on an arbitrary clock. A nil clock selects
// time.Now.
func NewTimerWithClock(now Clock) *Timer {
	if now == nil {
		now = time.Now
	}
	return &Timer{now: now}
}

// Measure invokes fn exactly once and returns its elapsed time.
//
// Outputs:
//   - time.Duration: Elapsed time, also returned when fn fails.
//   - error: The error returned by fn.
func (t *Timer) Measure(fn func() error) (time.Duration, error) {
	start := t.now()
	err := fn()
	elapsed := t.now().Sub(start)
	return elapsed, err
}
