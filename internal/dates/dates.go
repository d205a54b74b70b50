// Package dates is the single place calendar dates are parsed and formatted.
// Enquiry emails arrive with UK day-first conventions, so every ambiguous
// numeric date is read as day/month/year; keeping that rule here stops the
// parse/format disagreements that produce off-by-one bookings.
package dates

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Date is a calendar date with no time or zone component.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// New builds a Date, returning ok=false when the combination is not a real
// calendar day (e.g. 31/02).
func New(year int, month time.Month, day int) (Date, bool) {
	t := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	if t.Year() != year || t.Month() != month || t.Day() != day {
		return Date{}, false
	}
	return Date{Year: year, Month: month, Day: day}, true
}

// FromTime truncates a time to its calendar date in UTC.
func FromTime(t time.Time) Date {
	u := t.UTC()
	return Date{Year: u.Year(), Month: u.Month(), Day: u.Day()}
}

// Parse reads an ISO date string ("2006-01-02").
func Parse(s string) (Date, error) {
	t, err := time.Parse("2006-01-02", strings.TrimSpace(s))
	if err != nil {
		return Date{}, fmt.Errorf("dates: parse %q: %w", s, err)
	}
	return FromTime(t), nil
}

// IsZero reports whether the date is unset.
func (d Date) IsZero() bool {
	return d.Year == 0 && d.Month == 0 && d.Day == 0
}

// String formats the date as ISO "2006-01-02".
func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Day)
}

// Time returns the date at UTC midnight.
func (d Date) Time() time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC)
}

// Equal reports whether two dates name the same day.
func (d Date) Equal(o Date) bool {
	return d.Year == o.Year && d.Month == o.Month && d.Day == o.Day
}

// Before reports whether d is strictly earlier than o.
func (d Date) Before(o Date) bool {
	return d.Time().Before(o.Time())
}

var (
	isoPattern     = regexp.MustCompile(`\b(\d{4})-(\d{2})-(\d{2})\b`)
	slashedPattern = regexp.MustCompile(`\b(\d{1,2})/(\d{1,2})/(\d{4})\b`)

	monthNames = `jan(?:uary)?|feb(?:ruary)?|mar(?:ch)?|apr(?:il)?|may|jun(?:e)?|jul(?:y)?|aug(?:ust)?|sep(?:tember)?|oct(?:ober)?|nov(?:ember)?|dec(?:ember)?`

	// "August 19" / "August 19th"
	monthDayPattern = regexp.MustCompile(`(?i)\b(` + monthNames + `)\s+(\d{1,2})(?:st|nd|rd|th)?\b(?:[,\s]+(\d{4}))?`)
	// "19th August" / "19 of August"
	dayMonthPattern = regexp.MustCompile(`(?i)\b(\d{1,2})(?:st|nd|rd|th)?\s+(?:of\s+)?(` + monthNames + `)\b(?:[,\s]+(\d{4}))?`)
)

var monthAbbrev = map[string]time.Month{
	"jan": time.January, "feb": time.February, "mar": time.March,
	"apr": time.April, "may": time.May, "jun": time.June,
	"jul": time.July, "aug": time.August, "sep": time.September,
	"oct": time.October, "nov": time.November, "dec": time.December,
}

// FindInText scans free text for the first recognizable date. Absolute forms
// (ISO, then UK day/month/year) win over month-name phrases. A month-name
// phrase with no year is resolved against ref: if that month/day has already
// passed in ref's year the date rolls forward to next year.
func FindInText(text string, ref time.Time) (Date, bool) {
	if m := isoPattern.FindStringSubmatch(text); m != nil {
		if d, ok := newFromStrings(m[1], m[2], m[3]); ok {
			return d, true
		}
	}
	if m := slashedPattern.FindStringSubmatch(text); m != nil {
		// UK convention: day before month.
		if d, ok := newFromStrings(m[3], m[2], m[1]); ok {
			return d, true
		}
	}
	if m := monthDayPattern.FindStringSubmatch(text); m != nil {
		if d, ok := resolveMonthDay(m[1], m[2], m[3], ref); ok {
			return d, true
		}
	}
	if m := dayMonthPattern.FindStringSubmatch(text); m != nil {
		if d, ok := resolveMonthDay(m[2], m[1], m[3], ref); ok {
			return d, true
		}
	}
	return Date{}, false
}

func newFromStrings(year, month, day string) (Date, bool) {
	y, _ := strconv.Atoi(year)
	m, _ := strconv.Atoi(month)
	d, _ := strconv.Atoi(day)
	if m < 1 || m > 12 {
		return Date{}, false
	}
	return New(y, time.Month(m), d)
}

func resolveMonthDay(monthName, dayStr, yearStr string, ref time.Time) (Date, bool) {
	month, ok := monthAbbrev[strings.ToLower(monthName)[:3]]
	if !ok {
		return Date{}, false
	}
	day, _ := strconv.Atoi(dayStr)

	if yearStr != "" {
		year, _ := strconv.Atoi(yearStr)
		return New(year, month, day)
	}

	refDate := FromTime(ref)
	candidate, ok := New(refDate.Year, month, day)
	if !ok {
		return Date{}, false
	}
	if candidate.Before(refDate) {
		return New(refDate.Year+1, month, day)
	}
	return candidate, true
}
