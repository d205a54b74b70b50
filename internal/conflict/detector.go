// Package conflict classifies same-date double-booking risk between
// enquiries. Classification is pure; applying the bidirectional updates is
// the persister's job so it can happen inside the same transaction as the
// insert.
package conflict

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/musohq/muso-ai-platform/internal/dates"
)

// Kind distinguishes overlapping-time conflicts from same-day-only risk.
type Kind string

const (
	// KindHard means both time ranges overlap (or occupy the whole day).
	KindHard Kind = "hard"
	// KindSoft means same date but no determinable time overlap.
	KindSoft Kind = "soft"
)

// Record is the slice of an enquiry the detector needs.
type Record struct {
	ID         int64
	ClientName string
	EventTime  string
	EventDate  dates.Date
}

const minutesPerDay = 24 * 60

// span is a half-open minute range within one day.
type span struct {
	start, end int
}

var wholeDay = span{0, minutesPerDay}

var clockPattern = regexp.MustCompile(`(?i)^(\d{1,2})(?::(\d{2}))?\s?(?:([ap])\.?m\.?)?$`)

// parseSpan reads an eventTime string into a minute range. A single start
// time with no end occupies the whole day, as does anything unparseable:
// the conservative default avoids false negatives.
func parseSpan(eventTime string) span {
	eventTime = strings.TrimSpace(eventTime)
	if eventTime == "" {
		return wholeDay
	}

	parts := splitRange(eventTime)
	if len(parts) == 2 {
		start, okStart := parseClock(parts[0], parts[1])
		end, okEnd := parseClock(parts[1], "")
		if okStart && okEnd {
			if end <= start {
				// "9pm-1am" wraps past midnight; clamp to end of day.
				end = minutesPerDay
			}
			return span{start, end}
		}
	}
	return wholeDay
}

var rangeSep = regexp.MustCompile(`\s?(?:-|–|to)\s?`)

func splitRange(s string) []string {
	parts := rangeSep.Split(s, 2)
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}

// parseClock reads one clock term. A term like "7" in "7-9pm" borrows the
// meridiem from its sibling term.
func parseClock(s, sibling string) (int, bool) {
	m := clockPattern.FindStringSubmatch(s)
	if m == nil {
		return 0, false
	}
	hour, _ := strconv.Atoi(m[1])
	minute := 0
	if m[2] != "" {
		minute, _ = strconv.Atoi(m[2])
	}
	meridiem := strings.ToLower(m[3])
	if meridiem == "" && sibling != "" {
		if sm := clockPattern.FindStringSubmatch(sibling); sm != nil {
			meridiem = strings.ToLower(sm[3])
		}
	}

	switch meridiem {
	case "p":
		if hour < 12 {
			hour += 12
		}
	case "a":
		if hour == 12 {
			hour = 0
		}
	default:
		// 24-hour clock; reject impossible hours.
		if hour > 23 {
			return 0, false
		}
	}
	if hour > 23 || minute > 59 {
		return 0, false
	}
	return hour*60 + minute, true
}

// Classify compares two same-date enquiries' time strings. Hard requires a
// resolved time on both sides; a time with no known duration occupies the
// whole day.
func Classify(timeA, timeB string) Kind {
	if strings.TrimSpace(timeA) == "" || strings.TrimSpace(timeB) == "" {
		return KindSoft
	}
	a, b := parseSpan(timeA), parseSpan(timeB)
	if a.start < b.end && b.start < a.end {
		return KindHard
	}
	return KindSoft
}

// DetailLine renders the human-readable cross-reference appended to an
// enquiry's conflict details, describing the other side of the pair.
func DetailLine(kind Kind, other Record) string {
	who := other.ClientName
	if who == "" {
		who = "unknown"
	}
	when := other.EventTime
	if when == "" {
		when = "no time given"
	}
	label := "Same-day enquiry"
	if kind == KindHard {
		label = "Time clash with enquiry"
	}
	return fmt.Sprintf("%s #%d (%s, %s) on %s", label, other.ID, who, when, other.EventDate)
}
