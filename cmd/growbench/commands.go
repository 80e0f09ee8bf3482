// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/growbench/cmd/growbench/config"
	"github.com/AleutianAI/growbench/internal/affinity"
	"github.com/AleutianAI/growbench/internal/benchmark"
	"github.com/AleutianAI/growbench/internal/registry"
	"github.com/AleutianAI/growbench/internal/suite"
	"github.com/AleutianAI/growbench/internal/telemetry"
	"github.com/AleutianAI/growbench/pkg/logging"
	"github.com/AleutianAI/growbench/pkg/ux"
)

// errPairsFailed makes the process exit non-zero when any pair failed, after
// the results have been printed.
var errPairsFailed = errors.New("benchmark pairs failed")

// runFlags holds the values bound to the command-line flags. Only flags the
// user actually set override the config file.
type runFlags struct {
	configPath string

	trials        int
	seed          uint64
	noGC          bool
	capacityLimit int
	pinCPU        int

	appendSize  int
	readSize    int
	reads       int
	frontSize   int
	orderedSize int
	popSize     int

	impls []string
	ops   []string

	format      string
	metricsFile string
	trace       bool

	logLevel string
	logJSON  bool
	logDir   string
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	flags := &runFlags{}

	root := &cobra.Command{
		Use:   "growbench",
		Short: "Compare resizable-array growth policies",
		Long: `growbench times a fixed suite of operations against several resizable-array
implementations and reports a trimmed mean per pair: the fastest and slowest
of K trials are dropped and the rest averaged.

Running growbench with no subcommand is the same as "growbench run".`,
		SilenceUsage: true,
		Args:         cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCommand(cmd, flags)
		},
	}
	root.SetOut(stdout)
	root.SetErr(stderr)
	bindFlags(root, flags)

	root.AddCommand(
		&cobra.Command{
			Use:   "run",
			Short: "Run every selected implementation against every selected operation",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return runCommand(cmd, flags)
			},
		},
		&cobra.Command{
			Use:   "list",
			Short: "List registered implementations and operations",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return listCommand(cmd, flags)
			},
		},
		newConfigCmd(flags),
	)
	return root
}

func newConfigCmd(flags *runFlags) *cobra.Command {
	var initPath string
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration as YAML",
		Long: `Print the effective configuration: defaults, then the config file, then
any flags that were set.

With --init, write the default configuration to a new file instead.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if initPath != "" {
				if err := config.WriteDefault(initPath); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "wrote default config to %s\n", initPath)
				return nil
			}
			cfg, err := loadConfig(cmd, flags)
			if err != nil {
				return err
			}
			data, err := config.Marshal(cfg)
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}
	cmd.Flags().StringVar(&initPath, "init", "", "write the default config to this path (must not exist)")
	return cmd
}

func bindFlags(root *cobra.Command, f *runFlags) {
	pf := root.PersistentFlags()
	def := config.DefaultConfig()

	pf.StringVar(&f.configPath, "config", "", "YAML config file")

	pf.IntVar(&f.trials, "trials", def.Trials, "trials per pair (at least 3)")
	pf.Uint64Var(&f.seed, "seed", def.Seed, "base seed; trial i uses seed+i")
	pf.BoolVar(&f.noGC, "no-gc", false, "skip the forced GC before each timed body")
	pf.IntVar(&f.capacityLimit, "capacity-limit", def.CapacityLimit, "cap every container's capacity (0 = unlimited)")
	pf.IntVar(&f.pinCPU, "pin-cpu", def.PinCPU, "pin the benchmark thread to this CPU (-1 = off)")

	pf.IntVar(&f.appendSize, "append-size", def.Sizes.Append, "elements appended by sequential_append")
	pf.IntVar(&f.readSize, "read-size", def.Sizes.RandomAccess, "array size for random_access_read")
	pf.IntVar(&f.reads, "reads", def.Sizes.Reads, "reads performed by random_access_read")
	pf.IntVar(&f.frontSize, "front-size", def.Sizes.FrontInsertion, "elements inserted by front_insertion")
	pf.IntVar(&f.orderedSize, "ordered-size", def.Sizes.Ordered, "array size for ordered_read")
	pf.IntVar(&f.popSize, "pop-size", def.Sizes.Pop, "array size for pop_all and front_removal")

	pf.StringArrayVar(&f.impls, "impl", nil, "implementation to run (repeatable; default all)")
	pf.StringArrayVar(&f.ops, "op", nil, "operation to run (repeatable; default all)")

	pf.StringVar(&f.format, "format", def.Report.Format, "output format: auto, table, json, plain")
	pf.StringVar(&f.metricsFile, "metrics-file", "", "write Prometheus metrics to this textfile after the run")
	pf.BoolVar(&f.trace, "trace", false, "write OpenTelemetry spans to stderr")

	pf.StringVar(&f.logLevel, "log-level", def.Log.Level, "debug, info, warn, or error")
	pf.BoolVar(&f.logJSON, "log-json", false, "log as JSON")
	pf.StringVar(&f.logDir, "log-dir", "", "also write JSON logs to this directory")
}

// loadConfig reads the config file and applies every flag that was set.
func loadConfig(cmd *cobra.Command, f *runFlags) (config.Config, error) {
	cfg, err := config.Load(f.configPath)
	if err != nil {
		return config.Config{}, err
	}

	set := cmd.Flags().Changed
	if set("trials") {
		cfg.Trials = f.trials
	}
	if set("seed") {
		cfg.Seed = f.seed
	}
	if set("no-gc") {
		cfg.GCBetweenTrials = !f.noGC
	}
	if set("capacity-limit") {
		cfg.CapacityLimit = f.capacityLimit
	}
	if set("pin-cpu") {
		cfg.PinCPU = f.pinCPU
	}
	if set("append-size") {
		cfg.Sizes.Append = f.appendSize
	}
	if set("read-size") {
		cfg.Sizes.RandomAccess = f.readSize
	}
	if set("reads") {
		cfg.Sizes.Reads = f.reads
	}
	if set("front-size") {
		cfg.Sizes.FrontInsertion = f.frontSize
	}
	if set("ordered-size") {
		cfg.Sizes.Ordered = f.orderedSize
	}
	if set("pop-size") {
		cfg.Sizes.Pop = f.popSize
	}
	if set("impl") {
		cfg.Implementations = f.impls
	}
	if set("op") {
		cfg.Operations = f.ops
	}
	if set("format") {
		cfg.Report.Format = f.format
	}
	if set("metrics-file") {
		cfg.Report.MetricsFile = f.metricsFile
	}
	if set("trace") {
		cfg.Report.Trace = f.trace
	}
	if set("log-level") {
		cfg.Log.Level = f.logLevel
	}
	if set("log-json") {
		cfg.Log.JSON = f.logJSON
	}
	if set("log-dir") {
		cfg.Log.Dir = f.logDir
	}

	if err := config.Validate(cfg); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

func runCommand(cmd *cobra.Command, f *runFlags) error {
	cfg, err := loadConfig(cmd, f)
	if err != nil {
		return err
	}
	return runBenchmark(cmd.Context(), cfg, cmd.OutOrStdout(), cmd.ErrOrStderr())
}

// runBenchmark wires logging, telemetry and pinning around one Runner.RunAll.
//
// Results go to stdout, logs and spans to stderr.
func runBenchmark(ctx context.Context, cfg config.Config, stdout, stderr io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}

	level, err := logging.ParseLevel(cfg.Log.Level)
	if err != nil {
		return err
	}
	logger, err := logging.New(logging.Config{
		Level:   level,
		LogDir:  cfg.Log.Dir,
		Service: "growbench",
		JSON:    cfg.Log.JSON,
		Output:  stderr,
	})
	if err != nil {
		return fmt.Errorf("init logging: %w", err)
	}
	defer logger.Close()
	if path := logger.Path(); path != "" {
		logger.Debug("writing logs to file", "path", path)
	}

	format, err := ux.ParseFormat(cfg.Report.Format)
	if err != nil {
		return err
	}
	format = format.Resolve(stdout)

	if cfg.Report.Trace {
		tc := telemetry.DefaultTraceConfig()
		tc.Exporter = "stdout"
		tc.Writer = stderr
		shutdown, err := telemetry.InitTracing(ctx, tc)
		if err != nil {
			return fmt.Errorf("init tracing: %w", err)
		}
		defer func() {
			if err := shutdown(context.WithoutCancel(ctx)); err != nil {
				logger.Warn("tracer shutdown failed", "error", err)
			}
		}()
	}

	reg, err := registry.NewDefault(cfg.Policies.PolicySet())
	if err != nil {
		return err
	}
	logger.Debug("implementations registered", "count", reg.Count())
	runner := benchmark.NewRunner(reg, suite.Default())
	runner.SetLogger(logger.Slog())

	var sink telemetry.Sink
	if cfg.Report.MetricsFile != "" {
		pc := telemetry.DefaultPrometheusConfig()
		pc.TextfilePath = cfg.Report.MetricsFile
		sink, err = telemetry.NewPrometheusSink(pc)
		if err != nil {
			return fmt.Errorf("init metrics: %w", err)
		}
		defer sink.Close()
		runner.AddReporter(sink)
	}
	if format == ux.FormatPlain {
		runner.AddReporter(ux.NewLineReporter(stdout))
	}

	if cfg.PinCPU >= 0 {
		release, err := affinity.Pin(cfg.PinCPU)
		switch {
		case errors.Is(err, affinity.ErrUnsupported):
			logger.Warn("cpu pinning unavailable, running unpinned", "cpu", cfg.PinCPU)
		case err != nil:
			return fmt.Errorf("pin cpu %d: %w", cfg.PinCPU, err)
		default:
			defer release()
			allowed, err := affinity.Current()
			if err != nil {
				logger.Warn("cannot read cpu affinity", "error", err)
			}
			logger.Debug("benchmark thread pinned", "cpu", cfg.PinCPU, "allowed", allowed)
		}
	}

	records, runErr := runner.RunAll(ctx, cfg.RunOptions()...)
	if records == nil && runErr != nil {
		return runErr
	}

	if format != ux.FormatPlain {
		if err := ux.RenderResults(stdout, records, format); err != nil {
			return fmt.Errorf("render results: %w", err)
		}
	}
	if sink != nil {
		if err := sink.Flush(context.WithoutCancel(ctx)); err != nil {
			return fmt.Errorf("write metrics: %w", err)
		}
		logger.Info("metrics written", "path", cfg.Report.MetricsFile)
	}

	if runErr != nil {
		return runErr
	}
	failed := 0
	for _, rec := range records {
		if rec.Failed() {
			failed++
		}
	}
	if failed > 0 {
		return fmt.Errorf("%w: %d of %d", errPairsFailed, failed, len(records))
	}
	return nil
}

func listCommand(cmd *cobra.Command, f *runFlags) error {
	cfg, err := loadConfig(cmd, f)
	if err != nil {
		return err
	}
	reg, err := registry.NewDefault(cfg.Policies.PolicySet())
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "IMPLEMENTATION\tPOLICY")
	for _, impl := range reg.All() {
		policy := "runtime append"
		if impl.Policy != nil {
			policy = impl.Policy.Name()
		}
		fmt.Fprintf(tw, "%s\t%s\n", impl.Name, policy)
	}
	fmt.Fprintln(tw)
	fmt.Fprintln(tw, "OPERATION\tDESCRIPTION")
	for _, op := range suite.Default().Operations() {
		fmt.Fprintf(tw, "%s\t%s\n", op.Name, op.Description)
	}
	return tw.Flush()
}
