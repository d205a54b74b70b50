package enquiry

import (
	"strings"
	"time"

	"github.com/musohq/muso-ai-platform/internal/dates"
)

// Status is the enquiry lifecycle state. The happy path is linear
// (new -> quoted -> confirmed -> completed); cancelling is allowed from any
// non-terminal state and is the only backward move.
type Status string

const (
	StatusNew       Status = "new"
	StatusQuoted    Status = "quoted"
	StatusConfirmed Status = "confirmed"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

var statusOrder = map[Status]int{
	StatusNew:       0,
	StatusQuoted:    1,
	StatusConfirmed: 2,
	StatusCompleted: 3,
}

// Valid reports whether s names a known lifecycle state.
func (s Status) Valid() bool {
	_, ok := statusOrder[s]
	return ok || s == StatusCancelled
}

// CanTransitionTo enforces the lifecycle: one step forward at a time, cancel
// from anything that isn't already terminal.
func (s Status) CanTransitionTo(next Status) bool {
	if !s.Valid() || !next.Valid() {
		return false
	}
	if next == StatusCancelled {
		return s != StatusCompleted && s != StatusCancelled
	}
	cur, ok := statusOrder[s]
	if !ok {
		return false // cancelled is terminal
	}
	return statusOrder[next] == cur+1
}

// Enquiry is a persisted inbound lead, owned by an org. String fields use ""
// for unknown; EventDate is nil when no date was resolved.
type Enquiry struct {
	ID              int64             `json:"id"`
	OrgID           string            `json:"org_id"`
	ClientName      string            `json:"client_name"`
	ClientEmail     string            `json:"client_email"`
	ClientPhone     string            `json:"client_phone,omitempty"`
	EventDate       *dates.Date       `json:"event_date,omitempty"`
	EventTime       string            `json:"event_time,omitempty"`
	Venue           string            `json:"venue,omitempty"`
	EventType       string            `json:"event_type,omitempty"`
	GigType         string            `json:"gig_type,omitempty"`
	EstimatedValue  string            `json:"estimated_value,omitempty"`
	Status          Status            `json:"status"`
	HasConflicts    bool              `json:"has_conflicts"`
	ConflictCount   int               `json:"conflict_count"`
	ConflictDetails string            `json:"conflict_details,omitempty"`
	OriginalMessage string            `json:"original_message_content"`
	Sources         map[string]string `json:"attribute_sources,omitempty"`
	CreatedAt       time.Time         `json:"created_at"`
}

// CreateEnquiryRequest carries everything the persister needs for one row.
type CreateEnquiryRequest struct {
	OrgID           string
	ClientName      string
	ClientEmail     string
	ClientPhone     string
	EventDate       *dates.Date
	EventTime       string
	Venue           string
	EventType       string
	GigType         string
	EstimatedValue  string
	OriginalMessage string
	Sources         map[string]string
}

// Validate checks the invariants the schema relies on. Extraction guarantees
// name and email are at least sentinels, so empties here mean a caller bug.
func (r *CreateEnquiryRequest) Validate() error {
	if strings.TrimSpace(r.OrgID) == "" {
		return ErrMissingOrgID
	}
	if strings.TrimSpace(r.ClientName) == "" {
		return ErrMissingClientName
	}
	if strings.TrimSpace(r.ClientEmail) == "" {
		return ErrMissingClientEmail
	}
	return nil
}
