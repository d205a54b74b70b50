package enquiry

import (
	"context"

	"github.com/musohq/muso-ai-platform/internal/dates"
)

// ListFilter narrows ListByOrg results.
type ListFilter struct {
	Date   *dates.Date
	Status Status
	Limit  int
	Offset int
}

// Repository is the durable store for enquiries. Create runs the conflict
// scan in the same transaction as the insert so two concurrent enquiries for
// one date each observe the other (see the advisory lock in the postgres
// implementation).
type Repository interface {
	Create(ctx context.Context, req *CreateEnquiryRequest) (*Enquiry, error)
	GetByID(ctx context.Context, orgID string, id int64) (*Enquiry, error)
	ListByOrg(ctx context.Context, orgID string, filter ListFilter) ([]*Enquiry, error)
	UpdateStatus(ctx context.Context, orgID string, id int64, next Status) (*Enquiry, error)
}
