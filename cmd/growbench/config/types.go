// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package config loads growbench run configuration from YAML.
package config

import (
	"github.com/AleutianAI/growbench/internal/benchmark"
	"github.com/AleutianAI/growbench/internal/registry"
	"github.com/AleutianAI/growbench/internal/suite"
)

// Config is the file form of a benchmark run. Command-line flags override it.
type Config struct {
	Trials          int    `yaml:"trials"`
	Seed            uint64 `yaml:"seed"`
	GCBetweenTrials bool   `yaml:"gc_between_trials"`

	// CapacityLimit caps every container's capacity. 0 means unlimited.
	CapacityLimit int `yaml:"capacity_limit" validate:"gte=0"`

	// PinCPU pins the benchmark thread to one CPU. -1 disables pinning.
	PinCPU int `yaml:"pin_cpu" validate:"gte=-1"`

	Sizes    SizesConfig  `yaml:"sizes"`
	Policies PolicyConfig `yaml:"policies"`

	// Implementations and Operations restrict the run. Empty means all.
	Implementations []string `yaml:"implementations,omitempty" validate:"dive,required"`
	Operations      []string `yaml:"operations,omitempty" validate:"dive,operation"`

	Log    LogConfig    `yaml:"log"`
	Report ReportConfig `yaml:"report"`
}

// SizesConfig holds the element counts per operation.
type SizesConfig struct {
	Append         int `yaml:"append" validate:"gte=0"`
	RandomAccess   int `yaml:"random_access" validate:"gte=0"`
	Reads          int `yaml:"reads" validate:"gte=0"`
	FrontInsertion int `yaml:"front_insertion" validate:"gte=0"`
	Ordered        int `yaml:"ordered" validate:"gte=0"`
	Pop            int `yaml:"pop" validate:"gte=0"`
}

// PolicyConfig lists the parameterised growth policies to register next to
// the go-slice baseline and doubling.
type PolicyConfig struct {
	Ratios          []float64 `yaml:"ratios" validate:"dive,gt=1"`
	FixedIncrements []int     `yaml:"fixed_increments" validate:"dive,gte=1"`
}

type LogConfig struct {
	Level string `yaml:"level" validate:"omitempty,oneof=debug info warn warning error"`
	JSON  bool   `yaml:"json"`
	Dir   string `yaml:"dir"`
}

type ReportConfig struct {
	Format      string `yaml:"format" validate:"omitempty,oneof=auto table json plain"`
	MetricsFile string `yaml:"metrics_file"`
	Trace       bool   `yaml:"trace"`
}

// DefaultConfig mirrors benchmark.DefaultConfig and the default policy set.
func DefaultConfig() Config {
	bc := benchmark.DefaultConfig()
	ps := registry.DefaultPolicySet()
	return Config{
		Trials:          bc.Trials,
		Seed:            bc.Seed,
		GCBetweenTrials: bc.GCBetweenTrials,
		PinCPU:          -1,
		Sizes:           sizesFromSuite(bc.Sizes),
		Policies: PolicyConfig{
			Ratios:          ps.Ratios,
			FixedIncrements: ps.FixedIncrements,
		},
		Log:    LogConfig{Level: "info"},
		Report: ReportConfig{Format: "auto"},
	}
}

// Suite converts the sizes to suite.Sizes.
func (s SizesConfig) Suite() suite.Sizes {
	return suite.Sizes{
		Append:         s.Append,
		RandomAccess:   s.RandomAccess,
		Reads:          s.Reads,
		FrontInsertion: s.FrontInsertion,
		Ordered:        s.Ordered,
		Pop:            s.Pop,
	}
}

// PolicySet converts the policy lists to a registry.PolicySet.
func (p PolicyConfig) PolicySet() registry.PolicySet {
	return registry.PolicySet{Ratios: p.Ratios, FixedIncrements: p.FixedIncrements}
}

// RunOptions translates the run section into benchmark options.
func (c Config) RunOptions() []benchmark.RunOption {
	return []benchmark.RunOption{
		benchmark.WithTrials(c.Trials),
		benchmark.WithSeed(c.Seed),
		benchmark.WithSizes(c.Sizes.Suite()),
		benchmark.WithGC(c.GCBetweenTrials),
		benchmark.WithCapacityLimit(c.CapacityLimit),
		benchmark.WithImplementations(c.Implementations...),
		benchmark.WithOperations(c.Operations...),
	}
}

func sizesFromSuite(s suite.Sizes) SizesConfig {
	return SizesConfig{
		Append:         s.Append,
		RandomAccess:   s.RandomAccess,
		Reads:          s.Reads,
		FrontInsertion: s.FrontInsertion,
		Ordered:        s.Ordered,
		Pop:            s.Pop,
	}
}
