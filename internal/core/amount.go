// Package core provides the finguard domain model and numeric helpers.
//
// This file contains parsing and rounding utilities for monetary amounts.
// Amounts are plain float64 values; minor-unit precision is deliberately
// not enforced at entry.
package core

import (
	"math"
	"strconv"
	"strings"
	"unicode"
)

// ParseAmount converts a decimal string to a positive amount.
//
// It accepts both dot (12.34) and comma (12,34) decimal separators.
// Returns ErrInvalidAmount for empty input, malformed numbers, signs,
// zero, or negative values.
func ParseAmount(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, ErrInvalidAmount
	}
	// Normalize decimal comma to dot
	s = strings.ReplaceAll(s, ",", ".")
	if strings.HasPrefix(s, "+") || strings.HasPrefix(s, "-") {
		// Only positive values allowed
		return 0, ErrInvalidAmount
	}
	for _, r := range s {
		if !unicode.IsDigit(r) && r != '.' {
			return 0, ErrInvalidAmount
		}
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, ErrInvalidAmount
	}
	if v <= 0 || math.IsInf(v, 0) || math.IsNaN(v) {
		return 0, ErrInvalidAmount
	}
	return v, nil
}

// ParseOptionalAmount is ParseAmount with an empty-field escape hatch:
// blank input returns (0, false, nil) so callers can tell "left empty"
// apart from "entered zero". Zero itself is accepted here because
// optional fields (budget spent, goal saved) allow it.
func ParseOptionalAmount(s string) (float64, bool, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false, nil
	}
	s = strings.ReplaceAll(s, ",", ".")
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || v < 0 || math.IsInf(v, 0) || math.IsNaN(v) {
		return 0, false, ErrInvalidAmount
	}
	return v, true, nil
}

// RoundHalfUp rounds to the nearest integer, halves away from zero for
// positive input. Every monetary rounding in the engine goes through here.
func RoundHalfUp(v float64) int64 {
	return int64(math.Floor(v + 0.5))
}
