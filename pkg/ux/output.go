// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package ux renders benchmark results for the terminal and for scripts.
package ux

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
)

// Color palette - deep ocean teals
var (
	ColorTealBright  = lipgloss.Color("#2CD7C7") // headers, fastest result
	ColorTealPrimary = lipgloss.Color("#20B9B4") // implementation names
	ColorTealDeep    = lipgloss.Color("#16858E") // borders
	ColorSlate       = lipgloss.Color("#2C4A54") // muted text

	ColorSuccess = lipgloss.Color("#2CD7C7")
	ColorWarning = lipgloss.Color("#F4D03F")
	ColorError   = lipgloss.Color("#E74C3C")
)

// Icon provides status icons
type Icon string

const (
	IconSuccess Icon = "✓"
	IconWarning Icon = "⚠"
	IconError   Icon = "✗"
)

// Format selects how results are written.
type Format string

const (
	// FormatAuto picks FormatTable on a terminal and FormatPlain otherwise.
	FormatAuto Format = "auto"

	// FormatTable is a bordered, colored table for humans.
	FormatTable Format = "table"

	// FormatJSON is an indented JSON array of result records.
	FormatJSON Format = "json"

	// FormatPlain is one space-separated key=value line per result.
	FormatPlain Format = "plain"
)

// ErrUnknownFormat is returned by ParseFormat.
var ErrUnknownFormat = errors.New("unknown output format")

// ParseFormat converts a flag or config value to a Format. "" means auto.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "", FormatAuto:
		return FormatAuto, nil
	case FormatTable, FormatJSON, FormatPlain:
		return f, nil
	default:
		return "", fmt.Errorf("%w: %q (want table, json, or plain)", ErrUnknownFormat, s)
	}
}

// Resolve replaces FormatAuto with a concrete format for w.
func (f Format) Resolve(w io.Writer) Format {
	if f != FormatAuto && f != "" {
		return f
	}
	if IsTerminal(w) {
		return FormatTable
	}
	return FormatPlain
}

// IsTerminal reports whether w is a terminal.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// styles holds styles bound to one output's renderer, so color is only
// emitted when that output supports it.
type styles struct {
	header  lipgloss.Style
	name    lipgloss.Style
	cell    lipgloss.Style
	muted   lipgloss.Style
	best    lipgloss.Style
	success lipgloss.Style
	warning lipgloss.Style
	failure lipgloss.Style
	border  lipgloss.Style
}

func newStyles(w io.Writer) styles {
	r := lipgloss.NewRenderer(w)
	return styles{
		header:  r.NewStyle().Bold(true).Foreground(ColorTealBright).Padding(0, 1),
		name:    r.NewStyle().Foreground(ColorTealPrimary).Padding(0, 1),
		cell:    r.NewStyle().Padding(0, 1),
		muted:   r.NewStyle().Foreground(ColorSlate).Padding(0, 1),
		best:    r.NewStyle().Bold(true).Foreground(ColorTealBright).Padding(0, 1),
		success: r.NewStyle().Foreground(ColorSuccess),
		warning: r.NewStyle().Foreground(ColorWarning),
		failure: r.NewStyle().Foreground(ColorError).Padding(0, 1),
		border:  r.NewStyle().Foreground(ColorTealDeep),
	}
}
