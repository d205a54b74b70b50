package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/musohq/muso-ai-platform/internal/dates"
	"github.com/musohq/muso-ai-platform/internal/enquiry"
	"github.com/musohq/muso-ai-platform/internal/tenancy"
	"github.com/musohq/muso-ai-platform/pkg/logging"
)

// EnquiriesHandler serves the tenant-facing read API and the admin status
// endpoint for persisted enquiries.
type EnquiriesHandler struct {
	repo   enquiry.Repository
	logger *logging.Logger
}

func NewEnquiriesHandler(repo enquiry.Repository, logger *logging.Logger) *EnquiriesHandler {
	if repo == nil {
		panic("handlers: enquiry repository required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &EnquiriesHandler{repo: repo, logger: logger}
}

// List returns the org's enquiries, optionally filtered by event date and
// status, newest first.
func (h *EnquiriesHandler) List(w http.ResponseWriter, r *http.Request) {
	orgID, ok := tenancy.OrgIDFromContext(r.Context())
	if !ok {
		http.Error(w, "missing org context", http.StatusBadRequest)
		return
	}

	filter := enquiry.ListFilter{Limit: 50}
	q := r.URL.Query()
	if raw := strings.TrimSpace(q.Get("date")); raw != "" {
		d, err := dates.Parse(raw)
		if err != nil {
			http.Error(w, "invalid date, want YYYY-MM-DD", http.StatusBadRequest)
			return
		}
		filter.Date = &d
	}
	if raw := strings.TrimSpace(q.Get("status")); raw != "" {
		status := enquiry.Status(raw)
		if !status.Valid() {
			http.Error(w, "invalid status", http.StatusBadRequest)
			return
		}
		filter.Status = status
	}
	if raw := q.Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 && n <= 200 {
			filter.Limit = n
		}
	}
	if raw := q.Get("offset"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n >= 0 {
			filter.Offset = n
		}
	}

	items, err := h.repo.ListByOrg(r.Context(), orgID, filter)
	if err != nil {
		h.logger.Error("enquiry list failed", "error", err, "org_id", orgID)
		http.Error(w, "server error", http.StatusInternalServerError)
		return
	}
	if items == nil {
		items = []*enquiry.Enquiry{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"enquiries": items, "count": len(items)})
}

// Get returns one enquiry scoped to the org.
func (h *EnquiriesHandler) Get(w http.ResponseWriter, r *http.Request) {
	orgID, ok := tenancy.OrgIDFromContext(r.Context())
	if !ok {
		http.Error(w, "missing org context", http.StatusBadRequest)
		return
	}
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		http.Error(w, "invalid enquiry id", http.StatusBadRequest)
		return
	}

	e, err := h.repo.GetByID(r.Context(), orgID, id)
	if err != nil {
		if errors.Is(err, enquiry.ErrNotFound) {
			http.Error(w, "enquiry not found", http.StatusNotFound)
			return
		}
		h.logger.Error("enquiry get failed", "error", err, "org_id", orgID, "enquiry_id", id)
		http.Error(w, "server error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, e)
}

type updateStatusRequest struct {
	OrgID  string `json:"orgId"`
	Status string `json:"status"`
}

// UpdateStatus moves an enquiry one step through its lifecycle. Admin-only;
// the org comes from the request body since admin tokens are not org-scoped.
func (h *EnquiriesHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		http.Error(w, "invalid enquiry id", http.StatusBadRequest)
		return
	}

	var req updateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.OrgID) == "" {
		http.Error(w, "orgId required", http.StatusBadRequest)
		return
	}
	next := enquiry.Status(strings.TrimSpace(req.Status))
	if !next.Valid() {
		http.Error(w, "invalid status", http.StatusBadRequest)
		return
	}

	e, err := h.repo.UpdateStatus(r.Context(), req.OrgID, id, next)
	if err != nil {
		switch {
		case errors.Is(err, enquiry.ErrNotFound):
			http.Error(w, "enquiry not found", http.StatusNotFound)
		case errors.Is(err, enquiry.ErrInvalidTransition):
			http.Error(w, "invalid status transition", http.StatusConflict)
		default:
			h.logger.Error("status update failed", "error", err, "enquiry_id", id)
			http.Error(w, "server error", http.StatusInternalServerError)
		}
		return
	}
	writeJSON(w, http.StatusOK, e)
}
