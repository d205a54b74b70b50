package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/musohq/muso-ai-platform/internal/dates"
	"github.com/musohq/muso-ai-platform/internal/enquiry"
	"github.com/musohq/muso-ai-platform/internal/tenancy"
)

func seedRepo(t *testing.T) *enquiry.InMemoryRepository {
	t.Helper()
	repo := enquiry.NewInMemoryRepository()
	d1 := dates.Date{Year: 2025, Month: 8, Day: 15}
	d2 := dates.Date{Year: 2025, Month: 8, Day: 16}
	for _, req := range []*enquiry.CreateEnquiryRequest{
		{OrgID: "org-1", ClientName: "Sarah Jones", ClientEmail: "sarah@example.com", EventDate: &d1},
		{OrgID: "org-1", ClientName: "Tim Fulker", ClientEmail: "tim@example.com", EventDate: &d2},
		{OrgID: "org-2", ClientName: "Someone Else", ClientEmail: "x@example.com", EventDate: &d1},
	} {
		if _, err := repo.Create(context.Background(), req); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}
	return repo
}

func enquiriesRouter(h *EnquiriesHandler) http.Handler {
	r := chi.NewRouter()
	r.Route("/api/enquiries", func(api chi.Router) {
		api.Use(func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
				orgID := req.Header.Get("X-Org-Id")
				if orgID != "" {
					req = req.WithContext(tenancy.WithOrgID(req.Context(), orgID))
				}
				next.ServeHTTP(w, req)
			})
		})
		api.Get("/", h.List)
		api.Get("/{id}", h.Get)
	})
	r.Patch("/admin/enquiries/{id}/status", h.UpdateStatus)
	return r
}

func TestEnquiriesListScopedToOrg(t *testing.T) {
	h := NewEnquiriesHandler(seedRepo(t), nil)
	srv := enquiriesRouter(h)

	req := httptest.NewRequest(http.MethodGet, "/api/enquiries/", nil)
	req.Header.Set("X-Org-Id", "org-1")
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	var out struct {
		Enquiries []*enquiry.Enquiry `json:"enquiries"`
		Count     int                `json:"count"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.Count != 2 {
		t.Fatalf("count = %d, want 2", out.Count)
	}
	for _, e := range out.Enquiries {
		if e.OrgID != "org-1" {
			t.Fatalf("leaked enquiry from %q", e.OrgID)
		}
	}
}

func TestEnquiriesListDateFilter(t *testing.T) {
	h := NewEnquiriesHandler(seedRepo(t), nil)
	srv := enquiriesRouter(h)

	req := httptest.NewRequest(http.MethodGet, "/api/enquiries/?date=2025-08-15", nil)
	req.Header.Set("X-Org-Id", "org-1")
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	var out struct {
		Count int `json:"count"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.Count != 1 {
		t.Fatalf("count = %d, want 1", out.Count)
	}
}

func TestEnquiriesListRejectsBadDate(t *testing.T) {
	h := NewEnquiriesHandler(seedRepo(t), nil)
	srv := enquiriesRouter(h)

	req := httptest.NewRequest(http.MethodGet, "/api/enquiries/?date=15/08/2025", nil)
	req.Header.Set("X-Org-Id", "org-1")
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestEnquiriesGetCrossOrgIsNotFound(t *testing.T) {
	h := NewEnquiriesHandler(seedRepo(t), nil)
	srv := enquiriesRouter(h)

	req := httptest.NewRequest(http.MethodGet, "/api/enquiries/3", nil)
	req.Header.Set("X-Org-Id", "org-1")
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestEnquiriesUpdateStatus(t *testing.T) {
	h := NewEnquiriesHandler(seedRepo(t), nil)
	srv := enquiriesRouter(h)

	body := strings.NewReader(`{"orgId":"org-1","status":"quoted"}`)
	req := httptest.NewRequest(http.MethodPatch, "/admin/enquiries/1/status", body)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	var e enquiry.Enquiry
	if err := json.Unmarshal(rec.Body.Bytes(), &e); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if e.Status != enquiry.StatusQuoted {
		t.Fatalf("status = %q, want quoted", e.Status)
	}
}

func TestEnquiriesUpdateStatusRejectsSkip(t *testing.T) {
	h := NewEnquiriesHandler(seedRepo(t), nil)
	srv := enquiriesRouter(h)

	body := strings.NewReader(`{"orgId":"org-1","status":"completed"}`)
	req := httptest.NewRequest(http.MethodPatch, "/admin/enquiries/1/status", body)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	if rec.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409", rec.Code)
	}
}
