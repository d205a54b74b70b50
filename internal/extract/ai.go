package extract

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/musohq/muso-ai-platform/internal/dates"
)

// AIExtractor is the narrow capability behind the fallback extraction path.
// Implementations must honor ctx cancellation; the caller owns the timeout.
type AIExtractor interface {
	Extract(ctx context.Context, input ExtractionInput) (*AIResult, error)
}

// ExtractionInput carries the text handed to the model plus the reference
// date used to resolve relative phrases ("next Saturday").
type ExtractionInput struct {
	Subject     string
	Body        string
	CurrentDate dates.Date
}

// AIResult is the model's structured draft. Empty strings mean the model
// could not determine the attribute; they never overwrite heuristic values.
type AIResult struct {
	ClientName     string `json:"clientName"`
	ClientEmail    string `json:"clientEmail"`
	ClientPhone    string `json:"clientPhone"`
	EventDate      string `json:"eventDate"`
	EventTime      string `json:"eventTime"`
	Venue          string `json:"venue"`
	EventType      string `json:"eventType"`
	GigType        string `json:"gigType"`
	EstimatedValue string `json:"estimatedValue"`
}

const extractionPrompt = `You extract booking enquiry details from inbound emails to a musician.
Today's date is %s. Reply with ONLY a JSON object using exactly these keys:
clientName, clientEmail, clientPhone, eventDate, eventTime, venue, eventType, gigType, estimatedValue.
Use "" for anything the email does not state. eventDate must be YYYY-MM-DD.

Subject: %s

%s`

// BuildPrompt renders the fixed extraction prompt for a given input.
func BuildPrompt(input ExtractionInput) string {
	return fmt.Sprintf(extractionPrompt, input.CurrentDate, input.Subject, input.Body)
}

var errNotAnObject = errors.New("extract: model reply is not a JSON object")

// ParseAIReply validates a raw model reply into an AIResult. Models love to
// wrap JSON in markdown fences, so those are stripped first. Unknown keys are
// rejected to catch schema drift early.
func ParseAIReply(raw string) (*AIResult, error) {
	cleaned := stripCodeFences(raw)
	if !strings.HasPrefix(strings.TrimSpace(cleaned), "{") {
		return nil, errNotAnObject
	}

	dec := json.NewDecoder(strings.NewReader(cleaned))
	dec.DisallowUnknownFields()
	var result AIResult
	if err := dec.Decode(&result); err != nil {
		return nil, fmt.Errorf("extract: decode model reply: %w", err)
	}

	if result.EventDate != "" {
		if _, err := dates.Parse(result.EventDate); err != nil {
			// A malformed date invalidates only that field, not the reply.
			result.EventDate = ""
		}
	}
	return &result, nil
}

func stripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		if idx := strings.Index(s, "\n"); idx >= 0 {
			s = s[idx+1:]
		}
		s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	}
	return strings.TrimSpace(s)
}

// Merge fills unresolved attributes of the heuristic draft from the AI
// result, tagging anything it supplies with SourceAI. It is a pure function
// and never fails: a nil result returns the draft untouched.
func Merge(draft ExtractedEnquiry, ai *AIResult) ExtractedEnquiry {
	if ai == nil {
		return draft
	}
	if draft.Sources == nil {
		draft.Sources = make(map[string]Source)
	}

	if draft.Sources[AttrClientName] != SourceHeuristic && strings.TrimSpace(ai.ClientName) != "" {
		draft.ClientName = strings.TrimSpace(ai.ClientName)
		draft.setSource(AttrClientName, SourceAI)
	}
	if draft.Sources[AttrClientEmail] != SourceHeuristic && validEmail(ai.ClientEmail) {
		draft.ClientEmail = strings.ToLower(strings.TrimSpace(ai.ClientEmail))
		draft.setSource(AttrClientEmail, SourceAI)
	}
	if draft.ClientPhone == "" && strings.TrimSpace(ai.ClientPhone) != "" {
		draft.ClientPhone = strings.TrimSpace(ai.ClientPhone)
		draft.setSource(AttrClientPhone, SourceAI)
	}
	if draft.EventDate.IsZero() && ai.EventDate != "" {
		if d, err := dates.Parse(ai.EventDate); err == nil {
			draft.EventDate = d
			draft.setSource(AttrEventDate, SourceAI)
		}
	}
	if draft.EventTime == "" && strings.TrimSpace(ai.EventTime) != "" {
		draft.EventTime = strings.TrimSpace(ai.EventTime)
		draft.setSource(AttrEventTime, SourceAI)
	}
	if draft.Venue == "" && strings.TrimSpace(ai.Venue) != "" {
		draft.Venue = strings.TrimSpace(ai.Venue)
		draft.setSource(AttrVenue, SourceAI)
	}
	if draft.EventType == "" && strings.TrimSpace(ai.EventType) != "" {
		draft.EventType = strings.TrimSpace(ai.EventType)
		draft.setSource(AttrEventType, SourceAI)
	}
	if draft.GigType == "" && strings.TrimSpace(ai.GigType) != "" {
		draft.GigType = strings.TrimSpace(ai.GigType)
		draft.setSource(AttrGigType, SourceAI)
	}
	if draft.EstimatedValue == "" && strings.TrimSpace(ai.EstimatedValue) != "" {
		draft.EstimatedValue = strings.TrimSpace(ai.EstimatedValue)
		draft.setSource(AttrEstimatedValue, SourceAI)
	}
	return draft
}
