// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package telemetry

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/AleutianAI/growbench/internal/benchmark"
)

// -----------------------------------------------------------------------------
// Configuration
// -----------------------------------------------------------------------------

// PrometheusConfig configures the Prometheus sink.
type PrometheusConfig struct {
	// Namespace is the metrics namespace. Required.
	Namespace string

	// Subsystem is the metrics subsystem. Required.
	Subsystem string

	// Registry is the registry metrics are registered on. If nil, the sink
	// creates a private registry so runs never touch the process default.
	Registry *prometheus.Registry

	// MaxLabelCardinality caps distinct values per label. Further values are
	// reported as "_other".
	// Default: 256
	MaxLabelCardinality int

	// TextfilePath is where Flush writes the node-exporter textfile. Empty
	// makes Flush a no-op.
	TextfilePath string
}

// DefaultPrometheusConfig returns the growbench namespace and a private
// registry.
func DefaultPrometheusConfig() *PrometheusConfig {
	return &PrometheusConfig{
		Namespace:           "growbench",
		Subsystem:           "array",
		MaxLabelCardinality: 256,
	}
}

// Validate checks that required fields are set.
func (c *PrometheusConfig) Validate() error {
	if c.Namespace == "" {
		return errors.New("namespace is required")
	}
	if c.Subsystem == "" {
		return errors.New("subsystem is required")
	}
	return nil
}

// -----------------------------------------------------------------------------
// Prometheus Sink
// -----------------------------------------------------------------------------

// PrometheusSink exposes benchmark results as Prometheus metrics.
//
// Description:
//
//	Every pair sets gauges labelled by implementation and operation: trimmed
//	mean, excluded extremes, growth and shift counts. Failed pairs increment a
//	failure counter instead. Flush writes them to a node-exporter textfile
//	when TextfilePath is set.
//
// Thread Safety: Safe for concurrent use.
//
// Example:
//
//	sink, err := telemetry.NewPrometheusSink(telemetry.DefaultPrometheusConfig())
//	if err != nil {
//	    return fmt.Errorf("create prometheus sink: %w", err)
//	}
//	defer sink.Close()
//	runner.AddReporter(sink)
type PrometheusSink struct {
	config   PrometheusConfig
	registry *prometheus.Registry

	trimmedMean   *prometheus.GaugeVec
	excludedMin   *prometheus.GaugeVec
	excludedMax   *prometheus.GaugeVec
	growths       *prometheus.GaugeVec
	shifts        *prometheus.GaugeVec
	finalCapacity *prometheus.GaugeVec
	failures      *prometheus.CounterVec
	pairs         *prometheus.CounterVec

	mu     sync.RWMutex
	closed bool

	collectors []prometheus.Collector

	labelMu    sync.Mutex
	seenLabels map[string]map[string]struct{}
}

// NewPrometheusSink creates and registers the benchmark metrics.
//
// Inputs:
//   - config: Sink configuration. Must not be nil.
//
// Outputs:
//   - *PrometheusSink: The sink. Never nil on success.
//   - error: ErrInvalidConfig or ErrRegistrationFailed.
func NewPrometheusSink(config *PrometheusConfig) (*PrometheusSink, error) {
	if config == nil {
		return nil, ErrInvalidConfig
	}
	if err := config.Validate(); err != nil {
		return nil, errors.Join(ErrInvalidConfig, err)
	}

	cfg := *config
	if cfg.Registry == nil {
		cfg.Registry = prometheus.NewRegistry()
	}
	if cfg.MaxLabelCardinality <= 0 {
		cfg.MaxLabelCardinality = DefaultPrometheusConfig().MaxLabelCardinality
	}

	s := &PrometheusSink{
		config:     cfg,
		registry:   cfg.Registry,
		seenLabels: make(map[string]map[string]struct{}),
	}

	pairLabels := []string{"implementation", "operation"}
	gauge := func(name, help string) *prometheus.GaugeVec {
		return prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      name,
			Help:      help,
		}, pairLabels)
	}

	s.trimmedMean = gauge("trimmed_mean_seconds", "Trimmed mean trial duration in seconds")
	s.excludedMin = gauge("excluded_min_seconds", "Fastest trial, excluded from the trimmed mean")
	s.excludedMax = gauge("excluded_max_seconds", "Slowest trial, excluded from the trimmed mean")
	s.growths = gauge("growths", "Reallocations performed by one timed trial")
	s.shifts = gauge("shifts", "Elements shifted by one timed trial")
	s.finalCapacity = gauge("final_capacity", "Container capacity after one timed trial")

	s.failures = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: cfg.Namespace,
		Subsystem: cfg.Subsystem,
		Name:      "pair_failures_total",
		Help:      "Pairs that stopped on a failing trial",
	}, pairLabels)

	s.pairs = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: cfg.Namespace,
		Subsystem: cfg.Subsystem,
		Name:      "pairs_total",
		Help:      "Pairs reported, by outcome",
	}, []string{"status"})

	s.collectors = []prometheus.Collector{
		s.trimmedMean,
		s.excludedMin,
		s.excludedMax,
		s.growths,
		s.shifts,
		s.finalCapacity,
		s.failures,
		s.pairs,
	}

	for _, c := range s.collectors {
		if err := s.registry.Register(c); err != nil {
			var alreadyErr prometheus.AlreadyRegisteredError
			if !errors.As(err, &alreadyErr) {
				return nil, errors.Join(ErrRegistrationFailed, err)
			}
		}
	}

	return s, nil
}

// Report records one pair.
//
// Outputs:
//   - error: ErrNilContext or ErrSinkClosed.
//
// Thread Safety: Safe for concurrent use.
func (s *PrometheusSink) Report(ctx context.Context, rec benchmark.ResultRecord) error {
	if ctx == nil {
		return ErrNilContext
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return ErrSinkClosed
	}

	impl := s.sanitizeLabel("implementation", orUnknown(rec.Implementation))
	op := s.sanitizeLabel("operation", orUnknown(rec.Operation))

	if rec.Failed() {
		s.failures.WithLabelValues(impl, op).Inc()
		s.pairs.WithLabelValues("failed").Inc()
		return nil
	}

	s.trimmedMean.WithLabelValues(impl, op).Set(rec.TrimmedMean.Seconds())
	s.excludedMin.WithLabelValues(impl, op).Set(rec.ExcludedMin.Seconds())
	s.excludedMax.WithLabelValues(impl, op).Set(rec.ExcludedMax.Seconds())
	s.growths.WithLabelValues(impl, op).Set(float64(rec.Work.Growths))
	s.shifts.WithLabelValues(impl, op).Set(float64(rec.Work.Shifts))
	s.finalCapacity.WithLabelValues(impl, op).Set(float64(rec.FinalCapacity))
	s.pairs.WithLabelValues("ok").Inc()
	return nil
}

// Flush writes every metric to TextfilePath in the node-exporter textfile
// format.
//
// Description:
//
//	The write is atomic: prometheus.WriteToTextfile writes a temporary file
//	and renames it over the path. Without a TextfilePath nothing is written.
//
// Outputs:
//   - error: ErrNilContext, ErrSinkClosed or the write error.
func (s *PrometheusSink) Flush(ctx context.Context) error {
	if ctx == nil {
		return ErrNilContext
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return ErrSinkClosed
	}
	path := s.config.TextfilePath
	if path == "" {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, s.registry); err != nil {
		return fmt.Errorf("write metrics textfile %s: %w", path, err)
	}
	return nil
}

// Close unregisters every collector. Idempotent.
func (s *PrometheusSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	for _, c := range s.collectors {
		s.registry.Unregister(c)
	}
	return nil
}

// sanitizeLabel maps values beyond MaxLabelCardinality to "_other".
func (s *PrometheusSink) sanitizeLabel(label, value string) string {
	s.labelMu.Lock()
	defer s.labelMu.Unlock()

	seen := s.seenLabels[label]
	if seen == nil {
		seen = make(map[string]struct{})
		s.seenLabels[label] = seen
	}
	if _, ok := seen[value]; ok {
		return value
	}
	if len(seen) >= s.config.MaxLabelCardinality {
		return "_other"
	}
	seen[value] = struct{}{}
	return value
}

func orUnknown(v string) string {
	if v == "" {
		return "unknown"
	}
	return v
}

// Verify interface compliance at compile time.
var _ Sink = (*PrometheusSink)(nil)
