package extract

import (
	"regexp"
	"strings"
	"time"

	"github.com/musohq/muso-ai-platform/internal/dates"
	"github.com/musohq/muso-ai-platform/internal/mailparse"
)

// HeuristicExtractor turns a normalized inbound message into a draft enquiry
// using deterministic rules only. The reference time is injected so the
// year-rollover rule in date resolution stays testable.
type HeuristicExtractor struct {
	now func() time.Time
}

func NewHeuristicExtractor(now func() time.Time) *HeuristicExtractor {
	if now == nil {
		now = time.Now
	}
	return &HeuristicExtractor{now: now}
}

var (
	// UK-style numbers: leading 0 or +44, 10-11 digits, optional spacing.
	phonePattern = regexp.MustCompile(`(?:\+44(?:[\s-]?\d){9,10}|\b0(?:[\s-]?\d){9,10})\b`)

	// Time ranges first ("7pm-9:30pm"), then single am/pm, then 24-hour.
	timeRangePattern = regexp.MustCompile(`(?i)\b\d{1,2}(?::\d{2})?\s?(?:[ap]\.?m\.?)?\s?(?:-|–|to)\s?\d{1,2}(?::\d{2})?\s?[ap]\.?m\.?\b`)
	timeAmPmPattern  = regexp.MustCompile(`(?i)\b\d{1,2}(?::\d{2})?\s?[ap]\.?m\.?\b`)
	time24hPattern   = regexp.MustCompile(`\b(?:[01]?\d|2[0-3]):[0-5]\d\b`)

	// Currency-prefixed values, optionally a range ("£250-£400").
	valuePattern = regexp.MustCompile(`£\s?\d[\d,]*(?:\s?-\s?£?\s?\d[\d,]*)?`)

	localPartSplit = regexp.MustCompile(`[._\-+]+`)
)

// venueNouns are the gazetteer of venue-indicating nouns. A capitalized
// phrase ending in one of these wins; a bare lowercase mention is the
// fallback.
var venueNouns = []string{
	"Hotel", "Hall", "Barn", "Manor", "Castle", "Club", "Church", "Chapel",
	"Farm", "Garden", "Gardens", "House", "Inn", "Pavilion", "Marquee",
	"Pub", "Venue", "Centre", "Vineyard", "Abbey", "Priory",
}

var venuePhrasePattern = regexp.MustCompile(
	`\b((?:(?:[A-Z][A-Za-z']+|of|the|&)\s+){1,4}(?:` + strings.Join(venueNouns, "|") + `))\b`)

var venueNounPattern = regexp.MustCompile(
	`(?i)\b(` + strings.Join(venueNouns, "|") + `)\b`)

// eventTypes maps trigger keywords onto the canonical event type label.
var eventTypes = []struct{ keyword, label string }{
	{"wedding", "wedding"},
	{"birthday", "birthday"},
	{"corporate", "corporate"},
	{"anniversary", "anniversary"},
	{"engagement", "engagement"},
	{"christening", "christening"},
	{"funeral", "funeral"},
	{"charity", "charity"},
	{"festival", "festival"},
	{"christmas party", "christmas party"},
	{"party", "party"},
}

// gigTypes maps instrument/performance keywords onto the canonical gig type.
var gigTypes = []struct{ keyword, label string }{
	{"saxophone", "saxophone"},
	{"sax", "saxophone"},
	{"dj set", "dj"},
	{"dj", "dj"},
	{"jazz band", "jazz band"},
	{"jazz", "jazz"},
	{"acoustic", "acoustic"},
	{"singer", "singer"},
	{"vocalist", "singer"},
	{"guitarist", "guitar"},
	{"guitar", "guitar"},
	{"pianist", "piano"},
	{"piano", "piano"},
	{"ceilidh", "ceilidh"},
	{"string quartet", "string quartet"},
	{"quartet", "quartet"},
	{"trio", "trio"},
	{"duo", "duo"},
	{"band", "band"},
}

// Extract applies the heuristic rules in order. Every attribute of the result
// is populated, with sentinels where nothing matched.
func (h *HeuristicExtractor) Extract(msg mailparse.InboundMessage) ExtractedEnquiry {
	e := ExtractedEnquiry{Sources: make(map[string]Source)}
	searchable := msg.Subject + "\n" + msg.BodyText

	h.extractIdentity(&e, msg)

	if m := phonePattern.FindString(msg.BodyText); m != "" {
		e.ClientPhone = strings.TrimSpace(m)
		e.setSource(AttrClientPhone, SourceHeuristic)
	} else {
		e.setSource(AttrClientPhone, SourceSentinel)
	}

	if d, ok := dates.FindInText(searchable, h.now()); ok {
		e.EventDate = d
		e.setSource(AttrEventDate, SourceHeuristic)
	} else {
		e.setSource(AttrEventDate, SourceSentinel)
	}

	if m := findTime(searchable); m != "" {
		e.EventTime = m
		e.setSource(AttrEventTime, SourceHeuristic)
	} else {
		e.setSource(AttrEventTime, SourceSentinel)
	}

	if v := findVenue(searchable); v != "" {
		e.Venue = v
		e.setSource(AttrVenue, SourceHeuristic)
	} else {
		e.setSource(AttrVenue, SourceSentinel)
	}

	lower := strings.ToLower(searchable)
	if label := firstKeyword(lower, eventTypes); label != "" {
		e.EventType = label
		e.setSource(AttrEventType, SourceHeuristic)
	} else {
		e.setSource(AttrEventType, SourceSentinel)
	}
	if label := firstKeyword(lower, gigTypes); label != "" {
		e.GigType = label
		e.setSource(AttrGigType, SourceHeuristic)
	} else {
		e.setSource(AttrGigType, SourceSentinel)
	}

	if m := valuePattern.FindString(searchable); m != "" {
		e.EstimatedValue = strings.TrimSpace(m)
		e.setSource(AttrEstimatedValue, SourceHeuristic)
	} else {
		e.setSource(AttrEstimatedValue, SourceSentinel)
	}

	return e
}

func (h *HeuristicExtractor) extractIdentity(e *ExtractedEnquiry, msg mailparse.InboundMessage) {
	switch {
	case msg.SenderDisplayName != "":
		e.ClientName = msg.SenderDisplayName
		e.setSource(AttrClientName, SourceHeuristic)
	case validEmail(msg.SenderEmail):
		e.ClientName = nameFromLocalPart(msg.SenderEmail)
		e.setSource(AttrClientName, SourceHeuristic)
	default:
		e.ClientName = SentinelName
		e.setSource(AttrClientName, SourceSentinel)
	}

	if validEmail(msg.SenderEmail) {
		e.ClientEmail = msg.SenderEmail
		e.setSource(AttrClientEmail, SourceHeuristic)
	} else {
		e.ClientEmail = SentinelEmail
		e.setSource(AttrClientEmail, SourceSentinel)
	}
}

func validEmail(s string) bool {
	at := strings.Index(s, "@")
	return at > 0 && at < len(s)-1
}

// nameFromLocalPart title-cases the text before the @, treating dots,
// underscores and hyphens as word breaks ("tim.fulker" -> "Tim Fulker").
func nameFromLocalPart(email string) string {
	local := email[:strings.Index(email, "@")]
	words := localPartSplit.Split(local, -1)
	out := make([]string, 0, len(words))
	for _, w := range words {
		if w == "" {
			continue
		}
		out = append(out, strings.ToUpper(w[:1])+w[1:])
	}
	if len(out) == 0 {
		return SentinelName
	}
	return strings.Join(out, " ")
}

func findTime(text string) string {
	if m := timeRangePattern.FindString(text); m != "" {
		return strings.ToLower(strings.TrimSpace(m))
	}
	if m := timeAmPmPattern.FindString(text); m != "" {
		return strings.ToLower(strings.TrimSpace(m))
	}
	return time24hPattern.FindString(text)
}

func findVenue(text string) string {
	if m := venuePhrasePattern.FindStringSubmatch(text); m != nil {
		return strings.TrimSpace(m[1])
	}
	if m := venueNounPattern.FindStringSubmatch(text); m != nil {
		return strings.ToLower(m[1])
	}
	return ""
}

func firstKeyword(lowerText string, table []struct{ keyword, label string }) string {
	for _, entry := range table {
		if strings.Contains(lowerText, entry.keyword) {
			return entry.label
		}
	}
	return ""
}
