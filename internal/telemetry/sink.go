// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package telemetry exports benchmark results as Prometheus metrics and
// benchmark spans through OpenTelemetry.
//
// Sinks consume finished benchmark.ResultRecord values only. They are invoked
// between pairs and never observe a running trial.
package telemetry

import (
	"context"
	"errors"

	"github.com/AleutianAI/growbench/internal/benchmark"
)

// -----------------------------------------------------------------------------
// Errors
// -----------------------------------------------------------------------------

var (
	// ErrNilContext is returned when a nil context is provided.
	ErrNilContext = errors.New("context must not be nil")

	// ErrSinkClosed is returned when attempting to use a closed sink.
	ErrSinkClosed = errors.New("sink has been closed")

	// ErrInvalidConfig is returned when a sink configuration is invalid.
	ErrInvalidConfig = errors.New("invalid telemetry configuration")

	// ErrRegistrationFailed is returned when metric registration fails.
	ErrRegistrationFailed = errors.New("metric registration failed")

	// ErrUnknownExporter is returned for an unrecognised trace exporter name.
	ErrUnknownExporter = errors.New("unknown exporter")
)

// -----------------------------------------------------------------------------
// Interface
// -----------------------------------------------------------------------------

// Sink records finished benchmark results.
//
// Description:
//
//	A Sink is a benchmark.Reporter with a lifecycle. After Close, Report
//	returns ErrSinkClosed.
//
// Thread Safety: All implementations must be safe for concurrent use.
type Sink interface {
	benchmark.Reporter

	// Flush exports any buffered data.
	Flush(ctx context.Context) error

	// Close releases resources. Idempotent.
	Close() error
}
