package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/musohq/muso-ai-platform/internal/archive"
	"github.com/musohq/muso-ai-platform/internal/dates"
	"github.com/musohq/muso-ai-platform/internal/dedup"
	"github.com/musohq/muso-ai-platform/internal/enquiry"
	"github.com/musohq/muso-ai-platform/internal/extract"
	"github.com/musohq/muso-ai-platform/internal/mailparse"
	observemetrics "github.com/musohq/muso-ai-platform/internal/observability/metrics"
	"github.com/musohq/muso-ai-platform/pkg/logging"
)

const (
	processingHeuristic  = "heuristic"
	processingAIAssisted = "ai-assisted"
	processingDuplicate  = "duplicate-skipped"

	maxInboundBodyBytes = 10 << 20
	archiveTimeout      = 10 * time.Second
)

type enquiryPersister interface {
	Persist(ctx context.Context, req *enquiry.CreateEnquiryRequest) (*enquiry.Enquiry, error)
}

// InboundEmailHandler turns provider email webhooks into persisted enquiries.
// The provider retries on any non-2xx, and a retry of a payload we already
// handled would duplicate the enquiry, so every outcome past body parsing is
// reported as HTTP 200 with success true or false in the JSON envelope.
type InboundEmailHandler struct {
	persister enquiryPersister
	guard     *dedup.Guard
	heuristic *extract.HeuristicExtractor
	ai        extract.AIExtractor
	aiTimeout time.Duration
	archiver  *archive.Store
	metrics   *observemetrics.IngestMetrics
	logger    *logging.Logger
	now       func() time.Time
}

type InboundEmailConfig struct {
	Persister enquiryPersister
	Guard     *dedup.Guard
	Heuristic *extract.HeuristicExtractor
	AI        extract.AIExtractor
	AITimeout time.Duration
	Archiver  *archive.Store
	Metrics   *observemetrics.IngestMetrics
	Logger    *logging.Logger
	Now       func() time.Time
}

func NewInboundEmailHandler(cfg InboundEmailConfig) *InboundEmailHandler {
	if cfg.Persister == nil {
		panic("handlers: persister required")
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.Default()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Heuristic == nil {
		cfg.Heuristic = extract.NewHeuristicExtractor(cfg.Now)
	}
	if cfg.AITimeout <= 0 {
		cfg.AITimeout = 2500 * time.Millisecond
	}
	return &InboundEmailHandler{
		persister: cfg.Persister,
		guard:     cfg.Guard,
		heuristic: cfg.Heuristic,
		ai:        cfg.AI,
		aiTimeout: cfg.AITimeout,
		archiver:  cfg.Archiver,
		metrics:   cfg.Metrics,
		logger:    cfg.Logger,
		now:       cfg.Now,
	}
}

type inboundDebug struct {
	ExtractedEmail   string `json:"extractedEmail"`
	ExtractedSubject string `json:"extractedSubject"`
	BodyLength       int    `json:"bodyLength"`
}

type inboundEmailResponse struct {
	Success    bool          `json:"success"`
	EnquiryID  int64         `json:"enquiryId,omitempty"`
	ClientName string        `json:"clientName,omitempty"`
	Processing string        `json:"processing"`
	Debug      *inboundDebug `json:"debug,omitempty"`
	Error      string        `json:"error,omitempty"`
}

var webhookTracer = otel.Tracer("muso.internal.webhook")

// HandleInboundEmail processes one provider webhook. Only an unparseable
// body earns a 4xx; anything after that responds 200 so the provider does
// not redeliver.
func (h *InboundEmailHandler) HandleInboundEmail(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	orgID := chi.URLParam(r, "orgID")
	if orgID == "" {
		orgID = "default"
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxInboundBodyBytes)
	if err := parseWebhookForm(r); err != nil {
		h.logger.Warn("unparseable inbound email payload", "error", err, "org_id", orgID)
		http.Error(w, "invalid payload", http.StatusBadRequest)
		return
	}

	ctx, span := webhookTracer.Start(r.Context(), "webhook.inbound_email")
	defer span.End()
	span.SetAttributes(attribute.String("org.id", orgID))

	resp := h.process(ctx, orgID, r.Form)

	if h.metrics != nil {
		h.metrics.ObserveWebhookLatency(resp.Processing, time.Since(start).Seconds())
		status := "created"
		if !resp.Success {
			status = "failed"
		} else if resp.Processing == processingDuplicate {
			status = "skipped"
		}
		h.metrics.ObserveProcessed(resp.Processing, status)
	}

	writeJSON(w, http.StatusOK, resp)
}

// process runs normalization, extraction, dedup and persistence. A panic
// anywhere inside still produces a well-formed failure response.
func (h *InboundEmailHandler) process(ctx context.Context, orgID string, form map[string][]string) (resp inboundEmailResponse) {
	resp = inboundEmailResponse{Processing: processingHeuristic}

	defer func() {
		if rec := recover(); rec != nil {
			h.logger.Error("inbound email processing panicked", "panic", rec, "org_id", orgID)
			resp = inboundEmailResponse{
				Processing: resp.Processing,
				Error:      "internal processing error",
			}
		}
	}()

	msg := mailparse.Normalize(form)

	draft := h.heuristic.Extract(msg)
	if draft.NeedsAIFallback() && h.ai != nil {
		resp.Processing = processingAIAssisted
		draft = h.runAIFallback(ctx, msg, draft, orgID)
	}

	fingerprint := h.guard.Fingerprint(msg.SenderEmail, msg.Subject, msg.ProviderTimestamp, h.now())
	if priorID, found, err := h.guard.Check(ctx, fingerprint); err != nil {
		h.logger.Error("dedup lookup failed", "error", err, "org_id", orgID)
	} else if found {
		h.logger.Info("duplicate enquiry skipped",
			"org_id", orgID,
			"prior_enquiry_id", priorID,
			"sender", msg.SenderEmail,
		)
		return inboundEmailResponse{
			Success:    true,
			EnquiryID:  priorID,
			Processing: processingDuplicate,
			Debug:      debugFor(msg),
		}
	}

	req := createRequest(orgID, msg, draft)
	created, err := h.persister.Persist(ctx, req)
	if err != nil {
		h.logger.Error("enquiry persist failed", "error", err, "org_id", orgID, "sender", msg.SenderEmail)
		resp.Error = "failed to store enquiry"
		resp.Debug = debugFor(msg)
		return resp
	}

	if err := h.guard.Remember(ctx, fingerprint, created.ID); err != nil {
		h.logger.Warn("dedup remember failed", "error", err, "enquiry_id", created.ID)
	}

	if created.HasConflicts && h.metrics != nil {
		kind := "soft"
		if strings.Contains(created.ConflictDetails, "Time clash") {
			kind = "hard"
		}
		h.metrics.ObserveConflict(kind)
	}

	h.archivePayload(orgID, msg, created, resp.Processing)

	h.logger.Info("enquiry created",
		"org_id", orgID,
		"enquiry_id", created.ID,
		"client_name", created.ClientName,
		"processing", resp.Processing,
		"has_conflicts", created.HasConflicts,
	)

	resp.Success = true
	resp.EnquiryID = created.ID
	resp.ClientName = created.ClientName
	resp.Debug = debugFor(msg)
	return resp
}

// runAIFallback asks the model to fill gaps the heuristics left. The call is
// strictly best-effort: on timeout or error the heuristic draft stands.
func (h *InboundEmailHandler) runAIFallback(ctx context.Context, msg mailparse.InboundMessage, draft extract.ExtractedEnquiry, orgID string) extract.ExtractedEnquiry {
	aiCtx, cancel := context.WithTimeout(ctx, h.aiTimeout)
	defer cancel()

	result, err := h.ai.Extract(aiCtx, extract.ExtractionInput{
		Subject:     msg.Subject,
		Body:        msg.BodyText,
		CurrentDate: dates.FromTime(h.now()),
	})
	if err != nil {
		h.logger.Warn("ai extraction unavailable, proceeding with heuristics",
			"error", err,
			"org_id", orgID,
			"sender", msg.SenderEmail,
		)
		return draft
	}
	return extract.Merge(draft, result)
}

// archivePayload ships the raw payload to S3 off the request path.
func (h *InboundEmailHandler) archivePayload(orgID string, msg mailparse.InboundMessage, created *enquiry.Enquiry, processing string) {
	if !h.archiver.Enabled() {
		return
	}
	record := &archive.EnquiryRecord{
		OrgID:       orgID,
		EnquiryID:   created.ID,
		Sender:      msg.SenderRaw,
		SenderEmail: msg.SenderEmail,
		Subject:     msg.Subject,
		Body:        msg.BodyText,
		Extracted: map[string]string{
			"clientName":     created.ClientName,
			"clientEmail":    created.ClientEmail,
			"eventTime":      created.EventTime,
			"venue":          created.Venue,
			"eventType":      created.EventType,
			"gigType":        created.GigType,
			"estimatedValue": created.EstimatedValue,
		},
		Sources: created.Sources,
	}
	if created.EventDate != nil {
		record.Extracted["eventDate"] = created.EventDate.String()
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), archiveTimeout)
		defer cancel()
		if err := h.archiver.ArchiveEnquiry(ctx, record); err != nil {
			h.logger.Warn("payload archival failed", "error", err, "enquiry_id", created.ID)
		}
	}()
}

func createRequest(orgID string, msg mailparse.InboundMessage, draft extract.ExtractedEnquiry) *enquiry.CreateEnquiryRequest {
	req := &enquiry.CreateEnquiryRequest{
		OrgID:           orgID,
		ClientName:      draft.ClientName,
		ClientEmail:     draft.ClientEmail,
		ClientPhone:     draft.ClientPhone,
		EventTime:       draft.EventTime,
		Venue:           draft.Venue,
		EventType:       draft.EventType,
		GigType:         draft.GigType,
		EstimatedValue:  draft.EstimatedValue,
		OriginalMessage: originalMessage(msg),
		Sources:         sourceStrings(draft.Sources),
	}
	if !draft.EventDate.IsZero() {
		d := draft.EventDate
		req.EventDate = &d
	}
	return req
}

// originalMessage preserves what the enquirer actually wrote, for display
// alongside the structured fields.
func originalMessage(msg mailparse.InboundMessage) string {
	var b strings.Builder
	if msg.Subject != "" {
		b.WriteString("Subject: ")
		b.WriteString(msg.Subject)
		b.WriteString("\n\n")
	}
	b.WriteString(msg.BodyText)
	return b.String()
}

func sourceStrings(in map[string]extract.Source) map[string]string {
	if len(in) == 0 {
		return nil
	}
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = string(v)
	}
	return out
}

func debugFor(msg mailparse.InboundMessage) *inboundDebug {
	return &inboundDebug{
		ExtractedEmail:   msg.SenderEmail,
		ExtractedSubject: msg.Subject,
		BodyLength:       len(msg.BodyText),
	}
}

// parseWebhookForm accepts both url-encoded and multipart payloads, merging
// everything into r.Form.
func parseWebhookForm(r *http.Request) error {
	ct := r.Header.Get("Content-Type")
	if strings.HasPrefix(ct, "multipart/form-data") {
		return r.ParseMultipartForm(maxInboundBodyBytes)
	}
	return r.ParseForm()
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
