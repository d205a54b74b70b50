package extract

import (
	"github.com/musohq/muso-ai-platform/internal/dates"
)

// Source records where an extracted attribute value came from, so support
// tooling can audit provenance after the fact.
type Source string

const (
	SourceHeuristic Source = "heuristic"
	SourceAI        Source = "ai"
	SourceSentinel  Source = "fallback-sentinel"
)

// Documented sentinels. An incomplete enquiry is strictly preferred over a
// dropped one, so extraction never leaves an attribute unset.
const (
	SentinelName  = "unknown"
	SentinelEmail = "unknown@example.com"
)

// Attribute keys used in the provenance map and the persisted audit column.
const (
	AttrClientName     = "clientName"
	AttrClientEmail    = "clientEmail"
	AttrClientPhone    = "clientPhone"
	AttrEventDate      = "eventDate"
	AttrEventTime      = "eventTime"
	AttrVenue          = "venue"
	AttrEventType      = "eventType"
	AttrGigType        = "gigType"
	AttrEstimatedValue = "estimatedValue"
)

// ExtractedEnquiry is the per-request draft of a structured enquiry. Every
// attribute is always populated: string attributes use "" for null, EventDate
// uses the zero Date, and the two client identity fields fall back to their
// documented sentinels. Sources maps attribute keys to provenance.
type ExtractedEnquiry struct {
	ClientName     string
	ClientEmail    string
	ClientPhone    string
	EventDate      dates.Date
	EventTime      string
	Venue          string
	EventType      string
	GigType        string
	EstimatedValue string
	Sources        map[string]Source
}

// NeedsAIFallback reports whether the heuristic pass left the minimum viable
// enquiry unresolved: date, venue and a real client name must all be present.
func (e *ExtractedEnquiry) NeedsAIFallback() bool {
	if e.EventDate.IsZero() {
		return true
	}
	if e.Venue == "" {
		return true
	}
	if e.ClientName == SentinelName || e.Sources[AttrClientName] == SourceSentinel {
		return true
	}
	return false
}

func (e *ExtractedEnquiry) setSource(attr string, src Source) {
	if e.Sources == nil {
		e.Sources = make(map[string]Source)
	}
	e.Sources[attr] = src
}
