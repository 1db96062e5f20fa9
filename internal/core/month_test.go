package core

import (
	"testing"
	"time"
)

func TestMonthAddMonths(t *testing.T) {
	cases := []struct {
		m    Month
		n    int
		want Month
	}{
		{"2024-01", -1, "2023-12"},
		{"2024-01", -5, "2023-08"},
		{"2024-03", 0, "2024-03"},
		{"2023-12", 1, "2024-01"},
		{"2024-06", -18, "2022-12"},
	}
	for _, tc := range cases {
		if got := tc.m.AddMonths(tc.n); got != tc.want {
			t.Fatalf("%s%+d: expected %s, got %s", tc.m, tc.n, tc.want, got)
		}
	}
}

func TestMonthOfEndOfMonth(t *testing.T) {
	// Day-count subtraction from the 31st would skip February.
	ref := MonthOf(time.Date(2024, 3, 31, 12, 0, 0, 0, time.UTC))
	if got := ref.AddMonths(-1); got != "2024-02" {
		t.Fatalf("expected 2024-02, got %s", got)
	}
}

func TestParseMonth(t *testing.T) {
	if m, err := ParseMonth(" 2024-03 "); err != nil || m != "2024-03" {
		t.Fatalf("got %q, %v", m, err)
	}
	for _, s := range []string{"", "2024", "2024-13", "03-2024"} {
		if _, err := ParseMonth(s); err == nil {
			t.Fatalf("%q expected error", s)
		}
	}
}

func TestMonthLabelAndContains(t *testing.T) {
	m := Month("2024-03")
	if m.Label() != "03/24" {
		t.Fatalf("unexpected label %q", m.Label())
	}
	if !m.Contains("2024-03-15") || m.Contains("2024-04-01") {
		t.Fatalf("unexpected Contains result")
	}
}
