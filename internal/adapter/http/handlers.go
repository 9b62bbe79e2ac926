package http

import (
	"context"
	"net/http"
	"strconv"

	"github.com/kbforge/kbforge/internal/adapter/engine"
	"github.com/kbforge/kbforge/internal/domain/assessment"
	"github.com/kbforge/kbforge/internal/domain/document"
	"github.com/kbforge/kbforge/internal/domain/review"
	"github.com/kbforge/kbforge/internal/domain/signal"
	"github.com/kbforge/kbforge/internal/service"
)

// Ingestor is the ingest service surface the handlers call.
type Ingestor interface {
	Upload(ctx context.Context, req document.CreateRequest) (*service.UploadResult, error)
	RetryPending(ctx context.Context) (int, error)
	GetDocument(ctx context.Context, id string) (*document.Document, error)
	ListByStatus(ctx context.Context, status document.Status) ([]document.Document, error)
	Assessments(ctx context.Context, documentID string) ([]assessment.RelevanceAssessment, error)
}

// Reviewer is the review service surface the handlers call.
type Reviewer interface {
	Submit(ctx context.Context, workflowID string, req review.SubmitRequest) error
	Status(ctx context.Context, workflowID string) (map[string]any, error)
	Decisions(ctx context.Context, workflowID string) ([]review.Decision, error)
}

// Inboxer is the inbox service surface the handlers call.
type Inboxer interface {
	List(ctx context.Context, userID string, limit int) ([]signal.Signal, error)
	MarkRead(ctx context.Context, id, userID string) error
}

// EngineStatus exposes the connection manager to the operational endpoints.
type EngineStatus interface {
	Status() engine.State
	Reset()
}

// Pinger reports primary store reachability.
type Pinger interface {
	Ping(ctx context.Context) error
}

// ScoringHealth reports whether the scoring circuit is open.
type ScoringHealth interface {
	Tripped() bool
}

// Handlers bundles the HTTP handlers and their service dependencies.
type Handlers struct {
	Ingest  Ingestor
	Review  Reviewer
	Inbox   Inboxer
	Engine  EngineStatus
	Store   Pinger
	Scoring ScoringHealth
}

// Health reports overall service health. A dead database is unhealthy; a
// dead engine or an open scoring circuit only degrades, because uploads
// still land in pending.
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	type healthResponse struct {
		Status   string `json:"status"`
		Database string `json:"database"`
		Scoring  string `json:"scoring"`
		Engine   struct {
			Available bool   `json:"available"`
			Attempts  int    `json:"attempts,omitempty"`
			LastError string `json:"last_error,omitempty"`
		} `json:"engine"`
	}

	var resp healthResponse
	resp.Status = "healthy"
	resp.Database = "ok"
	resp.Scoring = "ok"
	code := http.StatusOK

	if err := h.Store.Ping(r.Context()); err != nil {
		resp.Status = "unhealthy"
		resp.Database = "unreachable"
		code = http.StatusServiceUnavailable
	}

	st := h.Engine.Status()
	resp.Engine.Available = st.Available
	resp.Engine.Attempts = st.Attempts
	if st.LastError != nil {
		resp.Engine.LastError = st.LastError.Error()
	}
	if !st.Available && resp.Status == "healthy" {
		resp.Status = "degraded"
	}

	if h.Scoring != nil && h.Scoring.Tripped() {
		resp.Scoring = "tripped"
		if resp.Status == "healthy" {
			resp.Status = "degraded"
		}
	}

	writeJSON(w, code, resp)
}

// CreateDocument accepts a document and starts its review workflow.
// Responds 202: processing continues asynchronously either way.
func (h *Handlers) CreateDocument(w http.ResponseWriter, r *http.Request) {
	req, ok := readJSON[document.CreateRequest](w, r)
	if !ok {
		return
	}

	res, err := h.Ingest.Upload(r.Context(), req)
	if err != nil {
		writeDomainError(w, err, "topic not found")
		return
	}
	writeJSON(w, http.StatusAccepted, res)
}

// GetDocument returns one document by ID.
func (h *Handlers) GetDocument(w http.ResponseWriter, r *http.Request) {
	id := urlParam(r, "id")
	if !requireField(w, id, "document id") {
		return
	}
	doc, err := h.Ingest.GetDocument(r.Context(), id)
	if err != nil {
		writeDomainError(w, err, "document not found")
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

// ListDocumentAssessments returns every assessment attempt for a document,
// retries included.
func (h *Handlers) ListDocumentAssessments(w http.ResponseWriter, r *http.Request) {
	id := urlParam(r, "id")
	if !requireField(w, id, "document id") {
		return
	}
	items, err := h.Ingest.Assessments(r.Context(), id)
	if err != nil {
		writeDomainError(w, err, "document not found")
		return
	}
	if items == nil {
		items = []assessment.RelevanceAssessment{}
	}
	writeJSON(w, http.StatusOK, items)
}

// ListDocuments returns documents filtered by the required status query.
func (h *Handlers) ListDocuments(w http.ResponseWriter, r *http.Request) {
	status := document.Status(r.URL.Query().Get("status"))
	if !requireField(w, string(status), "status") {
		return
	}
	docs, err := h.Ingest.ListByStatus(r.Context(), status)
	if err != nil {
		writeDomainError(w, err, "documents not found")
		return
	}
	if docs == nil {
		docs = []document.Document{}
	}
	writeJSON(w, http.StatusOK, docs)
}

// RetryPending relaunches workflows for documents parked while the engine
// was unreachable.
func (h *Handlers) RetryPending(w http.ResponseWriter, r *http.Request) {
	started, err := h.Ingest.RetryPending(r.Context())
	if err != nil {
		writeDomainError(w, err, "retry failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"started": started})
}

// SubmitReview delivers a reviewer verdict to a waiting workflow.
func (h *Handlers) SubmitReview(w http.ResponseWriter, r *http.Request) {
	workflowID := urlParam(r, "workflowID")
	if !requireField(w, workflowID, "workflow id") {
		return
	}
	req, ok := readJSON[review.SubmitRequest](w, r)
	if !ok {
		return
	}

	if err := h.Review.Submit(r.Context(), workflowID, req); err != nil {
		writeDomainError(w, err, "workflow not found")
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"workflow_id": workflowID})
}

// GetReviewStatus queries a running workflow's live phase.
func (h *Handlers) GetReviewStatus(w http.ResponseWriter, r *http.Request) {
	workflowID := urlParam(r, "workflowID")
	if !requireField(w, workflowID, "workflow id") {
		return
	}
	status, err := h.Review.Status(r.Context(), workflowID)
	if err != nil {
		writeDomainError(w, err, "workflow not found")
		return
	}
	writeJSON(w, http.StatusOK, status)
}

// ListReviewDecisions returns the verdict history recorded for a workflow.
func (h *Handlers) ListReviewDecisions(w http.ResponseWriter, r *http.Request) {
	workflowID := urlParam(r, "workflowID")
	if !requireField(w, workflowID, "workflow id") {
		return
	}
	decisions, err := h.Review.Decisions(r.Context(), workflowID)
	if err != nil {
		writeDomainError(w, err, "workflow not found")
		return
	}
	if decisions == nil {
		decisions = []review.Decision{}
	}
	writeJSON(w, http.StatusOK, decisions)
}

// ListInbox returns a user's signal inbox.
func (h *Handlers) ListInbox(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("user_id")
	if !requireField(w, userID, "user_id") {
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	signals, err := h.Inbox.List(r.Context(), userID, limit)
	if err != nil {
		writeDomainError(w, err, "inbox not found")
		return
	}
	if signals == nil {
		signals = []signal.Signal{}
	}
	writeJSON(w, http.StatusOK, signals)
}

// MarkInboxRead marks one signal read for its owning user.
func (h *Handlers) MarkInboxRead(w http.ResponseWriter, r *http.Request) {
	id := urlParam(r, "id")
	if !requireField(w, id, "signal id") {
		return
	}
	req, ok := readJSON[struct {
		UserID string `json:"user_id"`
	}](w, r)
	if !ok {
		return
	}
	if !requireField(w, req.UserID, "user_id") {
		return
	}

	if err := h.Inbox.MarkRead(r.Context(), id, req.UserID); err != nil {
		writeDomainError(w, err, "signal not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetEngineStatus reports the connection manager snapshot.
func (h *Handlers) GetEngineStatus(w http.ResponseWriter, _ *http.Request) {
	st := h.Engine.Status()
	resp := map[string]any{
		"available":  st.Available,
		"attempts":   st.Attempts,
		"has_client": st.HasClient,
	}
	if st.LastError != nil {
		resp["last_error"] = st.LastError.Error()
	}
	writeJSON(w, http.StatusOK, resp)
}

// ResetEngine clears the connection manager so the next call re-dials.
func (h *Handlers) ResetEngine(w http.ResponseWriter, _ *http.Request) {
	h.Engine.Reset()
	writeJSON(w, http.StatusOK, map[string]string{"status": "reset"})
}
