package enquiry

import (
	"context"
	"strings"
	"testing"

	"github.com/musohq/muso-ai-platform/internal/dates"
)

func TestInMemoryConflictsAreBidirectional(t *testing.T) {
	repo := NewInMemoryRepository()
	ctx := context.Background()
	date := dates.Date{Year: 2025, Month: 8, Day: 15}

	first, err := repo.Create(ctx, &CreateEnquiryRequest{
		OrgID:       "org-1",
		ClientName:  "Sarah Jones",
		ClientEmail: "sarah@example.com",
		EventDate:   &date,
		EventTime:   "7pm-9pm",
	})
	if err != nil {
		t.Fatalf("create first: %v", err)
	}
	if first.HasConflicts {
		t.Fatal("first enquiry has nothing to conflict with")
	}

	second, err := repo.Create(ctx, &CreateEnquiryRequest{
		OrgID:       "org-1",
		ClientName:  "Tim Fulker",
		ClientEmail: "tim@example.com",
		EventDate:   &date,
		EventTime:   "8pm-10pm",
	})
	if err != nil {
		t.Fatalf("create second: %v", err)
	}
	if !second.HasConflicts || second.ConflictCount != 1 {
		t.Fatalf("second conflicts = %v/%d, want true/1", second.HasConflicts, second.ConflictCount)
	}
	if !strings.Contains(second.ConflictDetails, "Sarah Jones") {
		t.Fatalf("second details = %q", second.ConflictDetails)
	}

	// The pre-existing record must be flagged too.
	first, err = repo.GetByID(ctx, "org-1", first.ID)
	if err != nil {
		t.Fatalf("reload first: %v", err)
	}
	if !first.HasConflicts || first.ConflictCount != 1 {
		t.Fatalf("first conflicts = %v/%d, want true/1", first.HasConflicts, first.ConflictCount)
	}
	if !strings.Contains(first.ConflictDetails, "Tim Fulker") {
		t.Fatalf("first details = %q", first.ConflictDetails)
	}
}

func TestInMemoryCancelledRecordsExcludedFromScan(t *testing.T) {
	repo := NewInMemoryRepository()
	ctx := context.Background()
	date := dates.Date{Year: 2025, Month: 8, Day: 15}

	first, err := repo.Create(ctx, &CreateEnquiryRequest{
		OrgID:       "org-1",
		ClientName:  "Sarah Jones",
		ClientEmail: "sarah@example.com",
		EventDate:   &date,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := repo.UpdateStatus(ctx, "org-1", first.ID, StatusCancelled); err != nil {
		t.Fatalf("cancel: %v", err)
	}

	second, err := repo.Create(ctx, &CreateEnquiryRequest{
		OrgID:       "org-1",
		ClientName:  "Tim Fulker",
		ClientEmail: "tim@example.com",
		EventDate:   &date,
	})
	if err != nil {
		t.Fatalf("create second: %v", err)
	}
	if second.HasConflicts {
		t.Fatal("cancelled enquiry should not trigger a conflict")
	}
}

func TestInMemoryOrgIsolation(t *testing.T) {
	repo := NewInMemoryRepository()
	ctx := context.Background()
	date := dates.Date{Year: 2025, Month: 8, Day: 15}

	if _, err := repo.Create(ctx, &CreateEnquiryRequest{
		OrgID: "org-1", ClientName: "A", ClientEmail: "a@example.com", EventDate: &date,
	}); err != nil {
		t.Fatalf("create org-1: %v", err)
	}
	e, err := repo.Create(ctx, &CreateEnquiryRequest{
		OrgID: "org-2", ClientName: "B", ClientEmail: "b@example.com", EventDate: &date,
	})
	if err != nil {
		t.Fatalf("create org-2: %v", err)
	}
	if e.HasConflicts {
		t.Fatal("same date across orgs must not conflict")
	}

	if _, err := repo.GetByID(ctx, "org-2", 1); err != ErrNotFound {
		t.Fatalf("cross-org get = %v, want ErrNotFound", err)
	}
}

func TestInMemoryListFilters(t *testing.T) {
	repo := NewInMemoryRepository()
	ctx := context.Background()
	d1 := dates.Date{Year: 2025, Month: 8, Day: 15}
	d2 := dates.Date{Year: 2025, Month: 8, Day: 16}

	for _, d := range []*dates.Date{&d1, &d1, &d2, nil} {
		if _, err := repo.Create(ctx, &CreateEnquiryRequest{
			OrgID: "org-1", ClientName: "X", ClientEmail: "x@example.com", EventDate: d,
		}); err != nil {
			t.Fatalf("create: %v", err)
		}
	}

	byDate, err := repo.ListByOrg(ctx, "org-1", ListFilter{Date: &d1})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(byDate) != 2 {
		t.Fatalf("date filter returned %d, want 2", len(byDate))
	}

	limited, err := repo.ListByOrg(ctx, "org-1", ListFilter{Limit: 1, Offset: 1})
	if err != nil {
		t.Fatalf("list paged: %v", err)
	}
	if len(limited) != 1 {
		t.Fatalf("paged list returned %d, want 1", len(limited))
	}
}

func TestStatusLifecycle(t *testing.T) {
	repo := NewInMemoryRepository()
	ctx := context.Background()

	e, err := repo.Create(ctx, &CreateEnquiryRequest{
		OrgID: "org-1", ClientName: "X", ClientEmail: "x@example.com",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	for _, next := range []Status{StatusQuoted, StatusConfirmed, StatusCompleted} {
		e, err = repo.UpdateStatus(ctx, "org-1", e.ID, next)
		if err != nil {
			t.Fatalf("advance to %s: %v", next, err)
		}
	}
	if _, err := repo.UpdateStatus(ctx, "org-1", e.ID, StatusCancelled); err != ErrInvalidTransition {
		t.Fatalf("cancel after completed = %v, want ErrInvalidTransition", err)
	}

	e2, _ := repo.Create(ctx, &CreateEnquiryRequest{
		OrgID: "org-1", ClientName: "Y", ClientEmail: "y@example.com",
	})
	if _, err := repo.UpdateStatus(ctx, "org-1", e2.ID, StatusConfirmed); err != ErrInvalidTransition {
		t.Fatalf("skip ahead = %v, want ErrInvalidTransition", err)
	}
	if _, err := repo.UpdateStatus(ctx, "org-1", e2.ID, StatusCancelled); err != nil {
		t.Fatalf("cancel from new: %v", err)
	}
}
