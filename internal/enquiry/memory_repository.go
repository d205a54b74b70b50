package enquiry

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/musohq/muso-ai-platform/internal/conflict"
)

// InMemoryRepository is a map-backed Repository for tests and local
// development without Postgres. Conflict semantics match the SQL repo.
type InMemoryRepository struct {
	mu     sync.Mutex
	nextID int64
	rows   map[int64]*Enquiry
}

func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{nextID: 1, rows: make(map[int64]*Enquiry)}
}

func (r *InMemoryRepository) Create(_ context.Context, req *CreateEnquiryRequest) (*Enquiry, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	e := &Enquiry{
		ID:              r.nextID,
		OrgID:           req.OrgID,
		ClientName:      req.ClientName,
		ClientEmail:     req.ClientEmail,
		ClientPhone:     req.ClientPhone,
		EventDate:       req.EventDate,
		EventTime:       req.EventTime,
		Venue:           req.Venue,
		EventType:       req.EventType,
		GigType:         req.GigType,
		EstimatedValue:  req.EstimatedValue,
		Status:          StatusNew,
		OriginalMessage: req.OriginalMessage,
		Sources:         req.Sources,
		CreatedAt:       time.Now().UTC(),
	}
	r.nextID++

	if req.EventDate != nil {
		self := conflict.Record{ID: e.ID, ClientName: e.ClientName, EventTime: e.EventTime, EventDate: *req.EventDate}
		var lines []string
		for _, other := range r.sameDate(e) {
			kind := conflict.Classify(e.EventTime, other.EventTime)
			lines = append(lines, conflict.DetailLine(kind, conflict.Record{
				ID: other.ID, ClientName: other.ClientName, EventTime: other.EventTime, EventDate: *req.EventDate,
			}))

			other.HasConflicts = true
			other.ConflictCount++
			line := conflict.DetailLine(kind, self)
			if other.ConflictDetails == "" {
				other.ConflictDetails = line
			} else {
				other.ConflictDetails += "\n" + line
			}
		}
		if len(lines) > 0 {
			e.HasConflicts = true
			e.ConflictCount = len(lines)
			e.ConflictDetails = strings.Join(lines, "\n")
		}
	}

	r.rows[e.ID] = e
	cp := *e
	return &cp, nil
}

func (r *InMemoryRepository) sameDate(e *Enquiry) []*Enquiry {
	var out []*Enquiry
	for _, other := range r.rows {
		if other.OrgID != e.OrgID || other.ID == e.ID || other.Status == StatusCancelled {
			continue
		}
		if other.EventDate == nil || !other.EventDate.Equal(*e.EventDate) {
			continue
		}
		out = append(out, other)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (r *InMemoryRepository) GetByID(_ context.Context, orgID string, id int64) (*Enquiry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.rows[id]
	if !ok || e.OrgID != orgID {
		return nil, ErrNotFound
	}
	cp := *e
	return &cp, nil
}

func (r *InMemoryRepository) ListByOrg(_ context.Context, orgID string, filter ListFilter) ([]*Enquiry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []*Enquiry
	for _, e := range r.rows {
		if e.OrgID != orgID {
			continue
		}
		if filter.Date != nil && (e.EventDate == nil || !e.EventDate.Equal(*filter.Date)) {
			continue
		}
		if filter.Status != "" && e.Status != filter.Status {
			continue
		}
		cp := *e
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if filter.Offset > 0 {
		if filter.Offset >= len(out) {
			return nil, nil
		}
		out = out[filter.Offset:]
	}
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

func (r *InMemoryRepository) UpdateStatus(_ context.Context, orgID string, id int64, next Status) (*Enquiry, error) {
	if !next.Valid() {
		return nil, ErrInvalidTransition
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.rows[id]
	if !ok || e.OrgID != orgID {
		return nil, ErrNotFound
	}
	if !e.Status.CanTransitionTo(next) {
		return nil, ErrInvalidTransition
	}
	e.Status = next
	cp := *e
	return &cp, nil
}
