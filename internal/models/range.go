package models

import (
	"fmt"
	"strings"
)

// Range is the aggregation window the endpoint sums hours over.
type Range string

const (
	RangeWeek  Range = "week"
	RangeMonth Range = "month"
	RangeYear  Range = "year"
)

// Ranges returns the selectable windows in display order.
func Ranges() []Range {
	return []Range{RangeWeek, RangeMonth, RangeYear}
}

func (r Range) Valid() bool {
	switch r {
	case RangeWeek, RangeMonth, RangeYear:
		return true
	}
	return false
}

// Title returns the label used for selector tabs.
func (r Range) Title() string {
	switch r {
	case RangeWeek:
		return "Week"
	case RangeMonth:
		return "Month"
	case RangeYear:
		return "Year"
	default:
		return string(r)
	}
}

func (r Range) String() string {
	return string(r)
}

// ParseRange accepts week, month or year (case-insensitive).
func ParseRange(s string) (Range, error) {
	r := Range(strings.ToLower(strings.TrimSpace(s)))
	if !r.Valid() {
		return "", fmt.Errorf("invalid range: %q (expected week, month or year)", s)
	}
	return r, nil
}
