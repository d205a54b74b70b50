package tenancy

import (
	"context"
	"testing"
)

func TestOrgIDRoundTrip(t *testing.T) {
	ctx := WithOrgID(context.Background(), "org-123")
	got, ok := OrgIDFromContext(ctx)
	if !ok {
		t.Fatal("expected org id present")
	}
	if got != "org-123" {
		t.Errorf("expected org-123, got %s", got)
	}
}

func TestOrgIDMissing(t *testing.T) {
	if _, ok := OrgIDFromContext(context.Background()); ok {
		t.Error("expected no org id on empty context")
	}
}

func TestOrgIDEmptyString(t *testing.T) {
	ctx := WithOrgID(context.Background(), "")
	if _, ok := OrgIDFromContext(ctx); ok {
		t.Error("empty org id should not count as present")
	}
}
