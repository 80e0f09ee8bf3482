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
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/AleutianAI/growbench/internal/dynarray"
	"github.com/AleutianAI/growbench/internal/registry"
	"github.com/AleutianAI/growbench/internal/suite"
)

const tracerName = "growbench.benchmark"

// -----------------------------------------------------------------------------
// Runner Options
// -----------------------------------------------------------------------------

// RunOption configures a benchmark run.
//
// Description:
//
//	RunOption functions modify the run Config. They are applied in order, so
//	later options override earlier ones.
type RunOption func(*Config)

// WithTrials sets K, the number of trials per pair.
//
// Inputs:
//   - k: Trial count. Values below MinTrials are kept so that Plan rejects
//     them with ErrInsufficientTrials instead of silently using the default.
func WithTrials(k int) RunOption {
	return func(c *Config) {
		c.Trials = k
	}
}

// WithSeed sets the base seed.
func WithSeed(seed uint64) RunOption {
	return func(c *Config) {
		c.Seed = seed
	}
}

// WithSizes replaces the workload sizes.
func WithSizes(s suite.Sizes) RunOption {
	return func(c *Config) {
		c.Sizes = s
	}
}

// WithGC enables or disables the forced collection before each timed body.
func WithGC(enabled bool) RunOption {
	return func(c *Config) {
		c.GCBetweenTrials = enabled
	}
}

// WithCapacityLimit caps every container's capacity. Non-positive values
// remove the limit.
func WithCapacityLimit(n int) RunOption {
	return func(c *Config) {
		c.CapacityLimit = max(n, 0)
	}
}

// WithImplementations restricts the run to the named implementations.
//
// Example:
//
//	runner.RunAll(ctx, benchmark.WithImplementations("go-slice", "doubling"))
func WithImplementations(names ...string) RunOption {
	return func(c *Config) {
		c.Implementations = names
	}
}

// WithOperations restricts the run to the named operations.
func WithOperations(names ...string) RunOption {
	return func(c *Config) {
		c.Operations = names
	}
}

// -----------------------------------------------------------------------------
// Runner
// -----------------------------------------------------------------------------

// Runner times suite operations against registered implementations.
//
// Description:
//
//	A run is the cross product of selected implementations (registry order)
//	and selected operations (suite order). Each pair gets K trials. A trial
//	builds its container in Prepare, optionally forces a GC, then times the
//	operation body once.
//
// Thread Safety: Not safe for concurrent RunAll calls. Timings from
// concurrent runs would interfere with each other anyway.
type Runner struct {
	registry  *registry.Registry
	suite     *suite.Suite
	logger    *slog.Logger
	timer     *Timer
	reporters []Reporter
	gc        func()
	newRunID  func() string
}

// NewRunner creates a runner over a registry and suite.
//
// Description:
//
//	The runner logs with slog.Default() and times with NewTimer(); use
//	SetLogger and SetTimer to override.
//
// Inputs:
//   - reg: Implementations. Must not be nil.
//   - s: Operations. Must not be nil.
//
// Outputs:
//   - *Runner: The new runner. Never nil.
func NewRunner(reg *registry.Registry, s *suite.Suite) *Runner {
	return &Runner{
		registry: reg,
		suite:    s,
		logger:   slog.Default(),
		timer:    NewTimer(),
		gc:       runtime.GC,
		newRunID: uuid.NewString,
	}
}

// SetLogger replaces the logger. Nil values are ignored.
func (r *Runner) SetLogger(logger *slog.Logger) {
	if logger != nil {
		r.logger = logger
	}
}

// SetTimer replaces the timer. Nil values are ignored.
func (r *Runner) SetTimer(t *Timer) {
	if t != nil {
		r.timer = t
	}
}

// AddReporter registers a reporter for finished results. Nil values are
// ignored.
func (r *Runner) AddReporter(rep Reporter) {
	if rep != nil {
		r.reporters = append(r.reporters, rep)
	}
}

// Plan resolves and validates a run without executing it.
//
// Description:
//
//	Applies opts to DefaultConfig, validates it, and resolves the selected
//	implementations and operations. Every unknown name is reported.
//
// Outputs:
//   - *Config: The effective configuration.
//   - []registry.Implementation: Selected implementations in run order.
//   - []suite.Operation: Selected operations in run order.
//   - error: ErrInsufficientTrials, ErrInvalidConfig, registry.ErrNotFound or
//     suite.ErrUnknownOperation.
func (r *Runner) Plan(opts ...RunOption) (*Config, []registry.Implementation, []suite.Operation, error) {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, nil, err
	}

	impls, implErr := r.registry.Select(cfg.Implementations)
	ops, opErr := r.suite.Select(cfg.Operations)
	if err := errors.Join(implErr, opErr); err != nil {
		return nil, nil, nil, err
	}
	return cfg, impls, ops, nil
}

// RunAll runs every selected pair and returns one ResultRecord per pair.
//
// Description:
//
//	Configuration errors are returned before any trial runs. A failure inside
//	a pair is recorded on that pair's ResultRecord and the run continues. The
//	context is checked between pairs; cancellation returns the records
//	completed so far together with the context error.
//
// Inputs:
//   - ctx: Context for cancellation. Must not be nil.
//   - opts: Run options.
//
// Outputs:
//   - []ResultRecord: One per completed pair, in run order.
//   - error: Non-nil for invalid configuration or cancellation.
//
// Example:
//
//	results, err := runner.RunAll(ctx,
//	    benchmark.WithTrials(7),
//	    benchmark.WithOperations("sequential_append"),
//	)
func (r *Runner) RunAll(ctx context.Context, opts ...RunOption) ([]ResultRecord, error) {
	if ctx == nil {
		return nil, errors.New("context must not be nil")
	}

	cfg, impls, ops, err := r.Plan(opts...)
	if err != nil {
		return nil, err
	}

	runID := r.newRunID()
	logger := r.logger.With(slog.String("run_id", runID))

	tracer := otel.Tracer(tracerName)
	ctx, span := tracer.Start(ctx, "benchmark.Runner.RunAll",
		trace.WithAttributes(
			attribute.String("benchmark.run_id", runID),
			attribute.Int("benchmark.trials", cfg.Trials),
			attribute.Int("benchmark.implementations", len(impls)),
			attribute.Int("benchmark.operations", len(ops)),
		),
	)
	defer span.End()

	logger.Info("benchmark run starting",
		slog.Int("trials", cfg.Trials),
		slog.Uint64("seed", cfg.Seed),
		slog.Int("implementations", len(impls)),
		slog.Int("operations", len(ops)),
	)

	results := make([]ResultRecord, 0, len(impls)*len(ops))
	failed := 0
	for _, impl := range impls {
		for _, op := range ops {
			if err := ctx.Err(); err != nil {
				span.SetStatus(codes.Error, "cancelled")
				logger.Warn("benchmark run cancelled", slog.Int("completed", len(results)))
				return results, fmt.Errorf("run cancelled: %w", err)
			}

			rec := r.runPair(ctx, logger, runID, cfg, impl, op)
			if rec.Failed() {
				failed++
			}
			results = append(results, rec)
			r.report(ctx, logger, rec)
		}
	}

	span.SetAttributes(attribute.Int("benchmark.failed_pairs", failed))
	span.SetStatus(codes.Ok, "benchmark completed")
	logger.Info("benchmark run finished",
		slog.Int("pairs", len(results)),
		slog.Int("failed", failed),
	)
	return results, nil
}

// runPair runs K trials of one pair and reduces them.
func (r *Runner) runPair(ctx context.Context, logger *slog.Logger, runID string, cfg *Config, impl registry.Implementation, op suite.Operation) ResultRecord {
	_, span := otel.Tracer(tracerName).Start(ctx, "benchmark.Runner.runPair",
		trace.WithAttributes(
			attribute.String("benchmark.implementation", impl.Name),
			attribute.String("benchmark.operation", op.Name),
		),
	)
	defer span.End()

	rec := ResultRecord{
		RunID:          runID,
		Implementation: impl.Name,
		Operation:      op.Name,
		Size:           op.Size(cfg.Sizes),
		Trials:         cfg.Trials,
	}
	if impl.Policy != nil {
		rec.Policy = impl.Policy.Name()
	}

	samples := make([]time.Duration, 0, cfg.Trials)
	for i := 0; i < cfg.Trials; i++ {
		tr, err := r.runTrial(cfg, impl, op, i)
		if err != nil {
			rec.Err = fmt.Errorf("%s trial %d: %w", rec.Key(), i, err)
			span.RecordError(rec.Err)
			span.SetStatus(codes.Error, "trial failed")
			logger.Warn("benchmark pair failed",
				slog.String("implementation", impl.Name),
				slog.String("operation", op.Name),
				slog.Int("trial", i),
				slog.String("error", err.Error()),
			)
			return rec
		}
		samples = append(samples, tr.Duration)
		rec.Work = tr.Work
		rec.FinalCapacity = tr.FinalCapacity
	}

	trimmed, err := TrimmedMean(samples)
	if err != nil {
		rec.Err = err
		span.RecordError(err)
		span.SetStatus(codes.Error, "reduction failed")
		return rec
	}
	rec.TrimmedMean = trimmed.Mean
	rec.ExcludedMin = trimmed.ExcludedMin
	rec.ExcludedMax = trimmed.ExcludedMax
	rec.Excluded = trimmed.Excluded
	rec.Samples = samples

	span.SetAttributes(
		attribute.Int64("benchmark.result.trimmed_mean_ns", int64(rec.TrimmedMean)),
		attribute.Int("benchmark.result.growths", rec.Work.Growths),
	)
	logger.Debug("benchmark pair finished",
		slog.String("implementation", impl.Name),
		slog.String("operation", op.Name),
		slog.Duration("trimmed_mean", rec.TrimmedMean),
		slog.Int("growths", rec.Work.Growths),
	)
	return rec
}

// runTrial prepares and times one trial. Panics inside the trial become
// ErrTrialPanicked.
func (r *Runner) runTrial(cfg *Config, impl registry.Implementation, op suite.Operation, trial int) (rec TrialRecord, err error) {
	defer func() {
		if p := recover(); p != nil {
			if pe, ok := p.(error); ok {
				err = fmt.Errorf("%w: %w", ErrTrialPanicked, pe)
			} else {
				err = fmt.Errorf("%w: %v", ErrTrialPanicked, p)
			}
		}
	}()

	var opts []dynarray.Option
	if cfg.CapacityLimit > 0 {
		opts = append(opts, dynarray.WithCapacityLimit(cfg.CapacityLimit))
	}
	build := func() (dynarray.Container[int], error) {
		return impl.New(opts...)
	}

	seed := cfg.TrialSeed(trial)
	inst, err := op.Prepare(build, cfg.Sizes, seed)
	if err != nil {
		return TrialRecord{}, err
	}
	if cfg.GCBetweenTrials {
		r.gc()
	}

	before := inst.Container.Stats()
	d, err := r.timer.Measure(inst.Run)
	if err != nil {
		return TrialRecord{}, err
	}

	return TrialRecord{
		Implementation: impl.Name,
		Operation:      op.Name,
		Trial:          trial,
		Seed:           seed,
		Duration:       d,
		Work:           inst.Container.Stats().Sub(before),
		FinalCapacity:  inst.Container.Cap(),
	}, nil
}

// report hands rec to every reporter, logging failures.
func (r *Runner) report(ctx context.Context, logger *slog.Logger, rec ResultRecord) {
	for _, rep := range r.reporters {
		if err := rep.Report(ctx, rec); err != nil {
			logger.Warn("reporter failed",
				slog.String("pair", rec.Key()),
				slog.String("error", err.Error()),
			)
		}
	}
}
