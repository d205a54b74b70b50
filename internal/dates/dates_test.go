package dates

import (
	"testing"
	"time"
)

func refAt(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 10, 0, 0, 0, time.UTC)
}

func TestFindInTextAbsoluteForms(t *testing.T) {
	ref := refAt(2025, time.June, 1)

	tests := []struct {
		name string
		text string
		want string
	}{
		{"iso", "ceremony on 2025-08-15 at the hall", "2025-08-15"},
		{"uk slashed", "we're getting married 15/08/2025", "2025-08-15"},
		{"ambiguous day first", "save the date 03/04/2025", "2025-04-03"},
		{"month day with year", "party on August 19 2026", "2026-08-19"},
		{"day month", "19th of August 2025 please", "2025-08-19"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := FindInText(tt.text, ref)
			if !ok {
				t.Fatalf("expected a date in %q", tt.text)
			}
			if got.String() != tt.want {
				t.Errorf("got %s, want %s", got, tt.want)
			}
		})
	}
}

func TestFindInTextYearRollover(t *testing.T) {
	// August 19 has passed by September: roll to next year.
	got, ok := FindInText("meeting on August 19", refAt(2025, time.September, 1))
	if !ok {
		t.Fatal("expected a date")
	}
	if got.String() != "2026-08-19" {
		t.Errorf("expected 2026-08-19, got %s", got)
	}

	// Still ahead in June: stay in the current year.
	got, ok = FindInText("meeting on August 19", refAt(2025, time.June, 1))
	if !ok {
		t.Fatal("expected a date")
	}
	if got.String() != "2025-08-19" {
		t.Errorf("expected 2025-08-19, got %s", got)
	}
}

func TestFindInTextSameDayDoesNotRoll(t *testing.T) {
	got, ok := FindInText("gig on August 19", refAt(2025, time.August, 19))
	if !ok {
		t.Fatal("expected a date")
	}
	if got.String() != "2025-08-19" {
		t.Errorf("today's month-day should stay this year, got %s", got)
	}
}

func TestFindInTextRejectsNonsense(t *testing.T) {
	cases := []string{
		"no dates here at all",
		"call me on 31/02/2025", // not a real day
		"version 13/13/2025",    // no 13th month
	}
	for _, text := range cases {
		if d, ok := FindInText(text, refAt(2025, time.June, 1)); ok {
			t.Errorf("expected no date in %q, got %s", text, d)
		}
	}
}

func TestNewValidates(t *testing.T) {
	if _, ok := New(2025, time.February, 30); ok {
		t.Error("Feb 30 should be rejected")
	}
	if d, ok := New(2024, time.February, 29); !ok || d.String() != "2024-02-29" {
		t.Errorf("leap day should be accepted, got %v %v", d, ok)
	}
}

func TestParseAndString(t *testing.T) {
	d, err := Parse("2025-08-15")
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if d.String() != "2025-08-15" {
		t.Errorf("round trip mismatch: %s", d)
	}
	if _, err := Parse("15/08/2025"); err == nil {
		t.Error("Parse should only accept ISO input")
	}
}

func TestOrdering(t *testing.T) {
	a, _ := New(2025, time.August, 15)
	b, _ := New(2025, time.August, 16)
	if !a.Before(b) || b.Before(a) {
		t.Error("ordering broken")
	}
	if !a.Equal(a) || a.Equal(b) {
		t.Error("equality broken")
	}
}
