// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package ux

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/AleutianAI/growbench/internal/benchmark"
	"github.com/AleutianAI/growbench/internal/registry"
)

// RenderResults writes records to w in the given format.
//
// Inputs:
//   - w: Destination. Color is used only if w is a color-capable terminal.
//   - records: Results in run order.
//   - format: Output format. FormatAuto is resolved against w.
//
// Outputs:
//   - error: ErrUnknownFormat, or a write error.
func RenderResults(w io.Writer, records []benchmark.ResultRecord, format Format) error {
	switch format.Resolve(w) {
	case FormatTable:
		return renderTable(w, records)
	case FormatJSON:
		return renderJSON(w, records)
	case FormatPlain:
		baselines := Baselines(records)
		for _, rec := range records {
			if _, err := io.WriteString(w, PlainLine(rec, baselines)+"\n"); err != nil {
				return err
			}
		}
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}

// Baselines maps each operation to the trimmed mean of the baseline
// implementation. Failed baseline pairs are left out.
func Baselines(records []benchmark.ResultRecord) map[string]time.Duration {
	out := make(map[string]time.Duration)
	for _, rec := range records {
		if rec.Implementation == registry.BaselineName && !rec.Failed() {
			out[rec.Operation] = rec.TrimmedMean
		}
	}
	return out
}

// Relative returns rec's trimmed mean divided by the baseline for its
// operation. ok is false when no usable baseline exists.
func Relative(rec benchmark.ResultRecord, baselines map[string]time.Duration) (ratio float64, ok bool) {
	base, found := baselines[rec.Operation]
	if !found || base <= 0 || rec.Failed() {
		return 0, false
	}
	return float64(rec.TrimmedMean) / float64(base), true
}

// FormatDuration prints d with three decimals in the largest fitting unit.
func FormatDuration(d time.Duration) string {
	switch {
	case d >= time.Second:
		return fmt.Sprintf("%.3fs", d.Seconds())
	case d >= time.Millisecond:
		return fmt.Sprintf("%.3fms", float64(d)/float64(time.Millisecond))
	case d >= time.Microsecond:
		return fmt.Sprintf("%.3fµs", float64(d)/float64(time.Microsecond))
	default:
		return fmt.Sprintf("%dns", d.Nanoseconds())
	}
}

// PlainLine formats one record as key=value pairs.
func PlainLine(rec benchmark.ResultRecord, baselines map[string]time.Duration) string {
	var b strings.Builder
	fmt.Fprintf(&b, "implementation=%s operation=%s size=%d trials=%d",
		rec.Implementation, rec.Operation, rec.Size, rec.Trials)
	if rec.Failed() {
		fmt.Fprintf(&b, " status=error error=%q", rec.Err.Error())
		return b.String()
	}
	fmt.Fprintf(&b, " trimmed_mean_ns=%d excluded_min_ns=%d excluded_max_ns=%d",
		rec.TrimmedMean.Nanoseconds(), rec.ExcludedMin.Nanoseconds(), rec.ExcludedMax.Nanoseconds())
	fmt.Fprintf(&b, " growths=%d copied=%d shifts=%d final_capacity=%d",
		rec.Work.Growths, rec.Work.Copied, rec.Work.Shifts, rec.FinalCapacity)
	if ratio, ok := Relative(rec, baselines); ok {
		b.WriteString(" vs_baseline=" + strconv.FormatFloat(ratio, 'f', 2, 64))
	}
	b.WriteString(" status=ok")
	return b.String()
}

// -----------------------------------------------------------------------------
// Streaming
// -----------------------------------------------------------------------------

// LineReporter writes each record as a plain line as soon as it is reported.
//
// Baselines are learned from records already seen, so vs_baseline appears
// when the baseline implementation runs first.
type LineReporter struct {
	mu        sync.Mutex
	w         io.Writer
	baselines map[string]time.Duration
}

// NewLineReporter creates a LineReporter writing to w.
func NewLineReporter(w io.Writer) *LineReporter {
	return &LineReporter{w: w, baselines: make(map[string]time.Duration)}
}

// Report implements benchmark.Reporter.
func (l *LineReporter) Report(_ context.Context, rec benchmark.ResultRecord) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if rec.Implementation == registry.BaselineName && !rec.Failed() {
		l.baselines[rec.Operation] = rec.TrimmedMean
	}
	_, err := io.WriteString(l.w, PlainLine(rec, l.baselines)+"\n")
	return err
}

var _ benchmark.Reporter = (*LineReporter)(nil)

// -----------------------------------------------------------------------------
// JSON
// -----------------------------------------------------------------------------

type jsonRecord struct {
	benchmark.ResultRecord
	VsBaseline *float64 `json:"vs_baseline,omitempty"`
	Error      string   `json:"error,omitempty"`
}

func renderJSON(w io.Writer, records []benchmark.ResultRecord) error {
	baselines := Baselines(records)
	out := make([]jsonRecord, 0, len(records))
	for _, rec := range records {
		jr := jsonRecord{ResultRecord: rec}
		if rec.Failed() {
			jr.Error = rec.Err.Error()
		}
		if ratio, ok := Relative(rec, baselines); ok {
			jr.VsBaseline = &ratio
		}
		out = append(out, jr)
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

// -----------------------------------------------------------------------------
// Table
// -----------------------------------------------------------------------------

var tableHeaders = []string{
	"IMPLEMENTATION", "OPERATION", "SIZE", "TRIMMED MEAN", "VS BASELINE",
	"DROPPED MIN", "DROPPED MAX", "GROWTHS", "SHIFTS", "STATUS",
}

const (
	colName   = 0
	colMean   = 3
	colStatus = 9
)

func renderTable(w io.Writer, records []benchmark.ResultRecord) error {
	st := newStyles(w)
	baselines := Baselines(records)
	fastest := fastestPerOperation(records)

	rows := make([][]string, 0, len(records))
	for _, rec := range records {
		rows = append(rows, tableRow(rec, baselines))
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(st.border).
		Headers(tableHeaders...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return st.header
			}
			if row < 0 || row >= len(records) {
				return st.cell
			}
			rec := records[row]
			switch {
			case rec.Failed() && col == colStatus:
				return st.failure
			case rec.Failed() && col > colName:
				return st.muted
			case col == colName:
				return st.name
			case col == colMean && fastest[rec.Operation] == rec.Implementation:
				return st.best
			default:
				return st.cell
			}
		})

	if _, err := fmt.Fprintln(w, t.Render()); err != nil {
		return err
	}
	_, err := fmt.Fprintln(w, summaryLine(st, records))
	return err
}

func tableRow(rec benchmark.ResultRecord, baselines map[string]time.Duration) []string {
	if rec.Failed() {
		return []string{
			rec.Implementation, rec.Operation, strconv.Itoa(rec.Size),
			"-", "-", "-", "-", "-", "-",
			string(IconError) + " " + rec.Err.Error(),
		}
	}
	vs := "-"
	if ratio, ok := Relative(rec, baselines); ok {
		vs = strconv.FormatFloat(ratio, 'f', 2, 64) + "x"
	}
	return []string{
		rec.Implementation,
		rec.Operation,
		strconv.Itoa(rec.Size),
		FormatDuration(rec.TrimmedMean),
		vs,
		FormatDuration(rec.ExcludedMin),
		FormatDuration(rec.ExcludedMax),
		strconv.Itoa(rec.Work.Growths),
		strconv.Itoa(rec.Work.Shifts),
		string(IconSuccess),
	}
}

// fastestPerOperation returns, per operation, the implementation with the
// lowest trimmed mean among successful pairs.
func fastestPerOperation(records []benchmark.ResultRecord) map[string]string {
	best := make(map[string]benchmark.ResultRecord)
	for _, rec := range records {
		if rec.Failed() {
			continue
		}
		cur, ok := best[rec.Operation]
		if !ok || rec.TrimmedMean < cur.TrimmedMean {
			best[rec.Operation] = rec
		}
	}
	out := make(map[string]string, len(best))
	for op, rec := range best {
		out[op] = rec.Implementation
	}
	return out
}

func summaryLine(st styles, records []benchmark.ResultRecord) string {
	failed := 0
	for _, rec := range records {
		if rec.Failed() {
			failed++
		}
	}
	ok := len(records) - failed
	line := st.success.Render(fmt.Sprintf("%s %d ok", IconSuccess, ok))
	if failed > 0 {
		line += "  " + st.warning.Render(fmt.Sprintf("%s %d failed", IconWarning, failed))
	}
	return line
}
