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
	"fmt"
	"io"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// TraceConfig controls span export.
type TraceConfig struct {
	// ServiceName identifies this process in exported spans.
	ServiceName string

	// ServiceVersion is the version string attached to spans.
	ServiceVersion string

	// Exporter is "stdout" or "none".
	Exporter string

	// Writer receives stdout spans. Nil means the exporter's default (stdout).
	Writer io.Writer

	// Pretty indents exported JSON.
	Pretty bool
}

// DefaultTraceConfig returns tracing disabled.
func DefaultTraceConfig() TraceConfig {
	return TraceConfig{
		ServiceName:    "growbench",
		ServiceVersion: "dev",
		Exporter:       "none",
	}
}

// InitTracing installs a global TracerProvider.
//
// Description:
//
//	With Exporter "stdout" every span is written synchronously as JSON when
//	it ends. The runner ends spans only between pairs. With Exporter "none"
//	the global no-op provider is left in place.
//
// Inputs:
//   - ctx: Context. Must not be nil.
//   - cfg: Trace configuration.
//
// Outputs:
//   - shutdown: Flushes and stops the provider. Always non-nil on success.
//   - error: ErrUnknownExporter or the exporter construction error.
//
// Example:
//
//	shutdown, err := telemetry.InitTracing(ctx, cfg)
//	if err != nil {
//	    return err
//	}
//	defer shutdown(context.Background())
func InitTracing(ctx context.Context, cfg TraceConfig) (shutdown func(context.Context) error, err error) {
	if ctx == nil {
		return nil, ErrNilContext
	}

	noop := func(context.Context) error { return nil }

	switch cfg.Exporter {
	case "", "none":
		return noop, nil
	case "stdout":
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownExporter, cfg.Exporter)
	}

	tp, err := NewTracerProvider(cfg)
	if err != nil {
		return nil, err
	}
	otel.SetTracerProvider(tp)
	return tp.Shutdown, nil
}

// NewTracerProvider builds a provider exporting to cfg.Writer via stdouttrace.
func NewTracerProvider(cfg TraceConfig) (*sdktrace.TracerProvider, error) {
	var opts []stdouttrace.Option
	if cfg.Writer != nil {
		opts = append(opts, stdouttrace.WithWriter(cfg.Writer))
	}
	if cfg.Pretty {
		opts = append(opts, stdouttrace.WithPrettyPrint())
	}

	exporter, err := stdouttrace.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("create exporter: %w", err)
	}

	res := resource.NewWithAttributes(
		"",
		attribute.String("service.name", cfg.ServiceName),
		attribute.String("service.version", cfg.ServiceVersion),
	)

	return sdktrace.NewTracerProvider(
		sdktrace.WithSyncer(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
	), nil
}
