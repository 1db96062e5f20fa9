package core

import (
	"fmt"
	"strings"
	"time"
)

// Month is a calendar month in YYYY-MM form.
type Month string

const monthLayout = "2006-01"

// ParseMonth validates and normalizes a YYYY-MM string.
func ParseMonth(s string) (Month, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", ErrEmptyMonth
	}
	t, err := time.Parse(monthLayout, s)
	if err != nil {
		return "", fmt.Errorf("%w: %q", ErrInvalidMonth, s)
	}
	return MonthOf(t), nil
}

// MonthOf returns the month containing t.
func MonthOf(t time.Time) Month {
	return Month(t.Format(monthLayout))
}

// AddMonths moves n calendar months forward (negative n moves back).
// Arithmetic is on year/month pairs, not day counts, so it is exact
// across year boundaries.
func (m Month) AddMonths(n int) Month {
	t, err := time.Parse(monthLayout, string(m))
	if err != nil {
		return m
	}
	return MonthOf(time.Date(t.Year(), t.Month()+time.Month(n), 1, 0, 0, 0, 0, time.UTC))
}

func (m Month) String() string {
	return string(m)
}

// Label renders the month as MM/YY for chart axes.
func (m Month) Label() string {
	s := string(m)
	if len(s) != 7 {
		return s
	}
	return s[5:7] + "/" + s[2:4]
}

// Contains reports whether the ISO date falls within the month.
func (m Month) Contains(date string) bool {
	return m != "" && strings.HasPrefix(date, string(m))
}
