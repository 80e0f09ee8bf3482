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

import (
	"fmt"
	"slices"
	"time"
)

// Trimmed is the result of TrimmedMean.
type Trimmed struct {
	// Mean is the average of the samples left after trimming.
	Mean time.Duration

	// ExcludedMin is the smallest sample, dropped from the mean.
	ExcludedMin time.Duration

	// ExcludedMax is the largest sample, dropped from the mean.
	ExcludedMax time.Duration

	// Excluded is the number of dropped samples. Always 2.
	Excluded int

	// Kept is the number of samples averaged.
	Kept int
}

// TrimmedMean averages samples after dropping one minimum and one maximum.
//
// Description:
//
//	Sorts a copy ascending, drops the first and last element and averages the
//	K-2 remaining. Exactly one min and one max are dropped even when they tie
//	with other samples, so [2,2,2,2] averages to 2. The input is not modified.
//	The mean is rounded to the nearest nanosecond.
//
// Inputs:
//   - samples: Trial durations. At least MinTrials.
//
// Outputs:
//   - Trimmed: Mean plus the excluded extremes.
//   - error: ErrInsufficientTrials if len(samples) < MinTrials.
//
// Example:
//
//	t, _ := TrimmedMean([]time.Duration{5, 1, 9})
//	// t.Mean == 5, t.ExcludedMin == 1, t.ExcludedMax == 9
func TrimmedMean(samples []time.Duration) (Trimmed, error) {
	if len(samples) < MinTrials {
		return Trimmed{}, fmt.Errorf("%w: got %d samples", ErrInsufficientTrials, len(samples))
	}

	sorted := slices.Clone(samples)
	slices.Sort(sorted)

	kept := sorted[1 : len(sorted)-1]
	var sum time.Duration
	for _, s := range kept {
		sum += s
	}
	n := time.Duration(len(kept))

	return Trimmed{
		Mean:        (sum + n/2) / n,
		ExcludedMin: sorted[0],
		ExcludedMax: sorted[len(sorted)-1],
		Excluded:    2,
		Kept:        len(kept),
	}, nil
}
