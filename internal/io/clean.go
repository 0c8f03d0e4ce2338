package io

import (
	"math"
	"strconv"
	"strings"
)

var thousandsSeparators = strings.NewReplacer(",", "", "，", "", " ", "")

// ParseNumber parses a count that may carry thousands separators. ok is
// false when the cell was empty or unusable and the zero default was taken.
// The result is never negative, NaN or infinite.
func ParseNumber(s string) (v float64, ok bool) {
	s = thousandsSeparators.Replace(strings.TrimSpace(s))
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0, false
	}
	return v, true
}

// CleanNumber is ParseNumber without the flag: "1,234,567" → 1234567,
// "" → 0, "n/a" → 0.
func CleanNumber(s string) float64 {
	v, _ := ParseNumber(s)
	return v
}

// ParseMonth accepts "4", "04", "4.0" and "4월". Anything that is not a
// whole number in 1..12 is rejected.
func ParseMonth(s string) (int, bool) {
	s = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), "월"))
	if s == "" {
		return 0, false
	}
	if n, err := strconv.Atoi(s); err == nil {
		if n < 1 || n > 12 {
			return 0, false
		}
		return n, true
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f != math.Trunc(f) || f < 1 || f > 12 {
		return 0, false
	}
	return int(f), true
}
