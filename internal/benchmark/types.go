// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package benchmark times suite operations across registered implementations.
//
// The Runner walks every (implementation, operation) pair in order, runs K
// trials of each, and reduces the trial durations with TrimmedMean. One
// ResultRecord is produced per pair and handed to the configured Reporters.
//
// Execution is strictly sequential. Nothing the runner does for bookkeeping
// (GC, logging, tracing, reporting) happens inside a timed interval.
package benchmark

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/AleutianAI/growbench/internal/dynarray"
	"github.com/AleutianAI/growbench/internal/suite"
)

// -----------------------------------------------------------------------------
// Errors
// -----------------------------------------------------------------------------

var (
	// ErrInsufficientTrials indicates fewer than MinTrials samples or a
	// configured trial count below MinTrials.
	ErrInsufficientTrials = errors.New("insufficient trials: at least 3 required")

	// ErrInvalidConfig indicates an invalid benchmark configuration.
	ErrInvalidConfig = errors.New("invalid benchmark configuration")

	// ErrTrialPanicked indicates a trial panicked. The panic value is wrapped.
	ErrTrialPanicked = errors.New("trial panicked")
)

// MinTrials is the smallest trial count for which a trimmed mean exists.
const MinTrials = 3

// -----------------------------------------------------------------------------
// Configuration
// -----------------------------------------------------------------------------

// Config holds benchmark run configuration.
//
// Description:
//
//	Use DefaultConfig() and RunOption values to build one. The zero value is
//	not valid.
type Config struct {
	// Trials is K, the number of timed repetitions per pair.
	// Default: 7
	Trials int

	// Seed is the base seed. Trial i uses Seed+i.
	// Default: 1
	Seed uint64

	// Sizes are the per-operation element counts.
	Sizes suite.Sizes

	// GCBetweenTrials forces a collection before each timed body.
	// Default: true
	GCBetweenTrials bool

	// CapacityLimit caps every container's capacity. 0 means no limit.
	CapacityLimit int

	// Implementations selects implementations by name. Empty selects all.
	Implementations []string

	// Operations selects operations by name. Empty selects all.
	Operations []string
}

// DefaultConfig returns a configuration with default values.
func DefaultConfig() *Config {
	return &Config{
		Trials:          7,
		Seed:            1,
		Sizes:           suite.DefaultSizes(),
		GCBetweenTrials: true,
	}
}

// Validate checks that the configuration is valid.
//
// Outputs:
//   - error: ErrInsufficientTrials if Trials < MinTrials, ErrInvalidConfig
//     wrapping the cause for anything else. Nil if valid.
func (c *Config) Validate() error {
	if c.Trials < MinTrials {
		return fmt.Errorf("%w: trials = %d", ErrInsufficientTrials, c.Trials)
	}
	if c.CapacityLimit < 0 {
		return fmt.Errorf("%w: capacity limit %d is negative", ErrInvalidConfig, c.CapacityLimit)
	}
	if err := c.Sizes.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return nil
}

// TrialSeed returns the seed of trial i.
func (c *Config) TrialSeed(i int) uint64 {
	return c.Seed + uint64(i)
}

// -----------------------------------------------------------------------------
// Records
// -----------------------------------------------------------------------------

// TrialRecord is the measurement of one trial.
type TrialRecord struct {
	Implementation string
	Operation      string
	Trial          int
	Seed           uint64
	Duration       time.Duration

	// Work is the structural work done inside the timed body.
	Work dynarray.Stats

	// FinalCapacity is the container capacity after the timed body.
	FinalCapacity int
}

// ResultRecord is the reduced outcome of one (implementation, operation) pair.
//
// Description:
//
//	Immutable once produced. When Err is set the pair stopped at the failing
//	trial and the timing fields are zero.
type ResultRecord struct {
	RunID          string        `json:"run_id"`
	Implementation string        `json:"implementation"`
	Policy         string        `json:"policy,omitempty"`
	Operation      string        `json:"operation"`
	Size           int           `json:"size"`
	Trials         int           `json:"trials"`
	TrimmedMean    time.Duration `json:"trimmed_mean_ns"`
	ExcludedMin    time.Duration `json:"excluded_min_ns"`
	ExcludedMax    time.Duration `json:"excluded_max_ns"`
	Excluded       int           `json:"excluded"`

	// Samples are the raw trial durations in trial order.
	Samples []time.Duration `json:"samples_ns,omitempty"`

	// Work is the structural work of the last trial's timed body. Trials are
	// deterministic, so every trial does the same work.
	Work dynarray.Stats `json:"work"`

	FinalCapacity int `json:"final_capacity"`

	Err error `json:"-"`
}

// Failed reports whether the pair ended in an error.
func (r ResultRecord) Failed() bool {
	return r.Err != nil
}

// Key returns "implementation/operation".
func (r ResultRecord) Key() string {
	return r.Implementation + "/" + r.Operation
}

// -----------------------------------------------------------------------------
// Reporting
// -----------------------------------------------------------------------------

// Reporter receives each finished ResultRecord.
//
// Reporters run after a pair completes, never during a timed interval. A
// reporter error is logged and does not stop the run.
type Reporter interface {
	Report(ctx context.Context, rec ResultRecord) error
}

// ReporterFunc adapts a function to Reporter.
type ReporterFunc func(ctx context.Context, rec ResultRecord) error

// Report calls f.
func (f ReporterFunc) Report(ctx context.Context, rec ResultRecord) error {
	return f(ctx, rec)
}
