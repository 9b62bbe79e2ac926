package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/kbforge/kbforge/internal/adapter/engine"
	"github.com/kbforge/kbforge/internal/domain"
	"github.com/kbforge/kbforge/internal/domain/assessment"
	"github.com/kbforge/kbforge/internal/domain/document"
	"github.com/kbforge/kbforge/internal/domain/review"
	"github.com/kbforge/kbforge/internal/domain/signal"
	"github.com/kbforge/kbforge/internal/service"
)

type fakeIngest struct {
	uploadRes   *service.UploadResult
	uploadErr   error
	doc         *document.Document
	docErr      error
	started     int
	retryErr    error
	assessments []assessment.RelevanceAssessment
}

func (f *fakeIngest) Upload(_ context.Context, req document.CreateRequest) (*service.UploadResult, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("validate document: %w", err)
	}
	return f.uploadRes, f.uploadErr
}

func (f *fakeIngest) RetryPending(context.Context) (int, error) {
	return f.started, f.retryErr
}

func (f *fakeIngest) GetDocument(context.Context, string) (*document.Document, error) {
	return f.doc, f.docErr
}

func (f *fakeIngest) ListByStatus(context.Context, document.Status) ([]document.Document, error) {
	if f.doc == nil {
		return nil, nil
	}
	return []document.Document{*f.doc}, nil
}

func (f *fakeIngest) Assessments(context.Context, string) ([]assessment.RelevanceAssessment, error) {
	return f.assessments, nil
}

type fakeReview struct {
	submitErr error
	status    map[string]any
	statusErr error
	decisions []review.Decision
	submitted []review.SubmitRequest
}

func (f *fakeReview) Submit(_ context.Context, _ string, req review.SubmitRequest) error {
	if f.submitErr != nil {
		return f.submitErr
	}
	f.submitted = append(f.submitted, req)
	return nil
}

func (f *fakeReview) Status(context.Context, string) (map[string]any, error) {
	return f.status, f.statusErr
}

func (f *fakeReview) Decisions(context.Context, string) ([]review.Decision, error) {
	return f.decisions, nil
}

type fakeInbox struct {
	signals []signal.Signal
	readIDs []string
	readErr error
}

func (f *fakeInbox) List(context.Context, string, int) ([]signal.Signal, error) {
	return f.signals, nil
}

func (f *fakeInbox) MarkRead(_ context.Context, id, _ string) error {
	if f.readErr != nil {
		return f.readErr
	}
	f.readIDs = append(f.readIDs, id)
	return nil
}

type fakeEngineStatus struct {
	state  engine.State
	resets int
}

func (f *fakeEngineStatus) Status() engine.State { return f.state }
func (f *fakeEngineStatus) Reset()               { f.resets++ }

type fakePinger struct{ err error }

func (f *fakePinger) Ping(context.Context) error { return f.err }

type fakeBreaker struct{ tripped bool }

func (f *fakeBreaker) Tripped() bool { return f.tripped }

func testRouter(h *Handlers) http.Handler {
	r := chi.NewRouter()
	MountRoutes(r, h)
	return r
}

func defaultHandlers() (*Handlers, *fakeIngest, *fakeReview, *fakeInbox, *fakeEngineStatus) {
	ing := &fakeIngest{}
	rev := &fakeReview{}
	inb := &fakeInbox{}
	eng := &fakeEngineStatus{state: engine.State{Available: true, HasClient: true}}
	h := &Handlers{Ingest: ing, Review: rev, Inbox: inb, Engine: eng, Store: &fakePinger{}, Scoring: &fakeBreaker{}}
	return h, ing, rev, inb, eng
}

func doRequest(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHealthHealthy(t *testing.T) {
	h, _, _, _, _ := defaultHandlers()
	rec := doRequest(t, testRouter(h), http.MethodGet, "/health", nil)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var resp map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp["status"] != "healthy" {
		t.Fatalf("health = %v, want healthy", resp["status"])
	}
}

func TestHealthDegradedWhenEngineDown(t *testing.T) {
	h, _, _, _, eng := defaultHandlers()
	eng.state = engine.State{Available: false, Attempts: 3, LastError: errors.New("dial refused")}

	rec := doRequest(t, testRouter(h), http.MethodGet, "/health", nil)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 for degraded", rec.Code)
	}
	var resp map[string]any
	_ = json.Unmarshal(rec.Body.Bytes(), &resp)
	if resp["status"] != "degraded" {
		t.Fatalf("health = %v, want degraded", resp["status"])
	}
}

func TestHealthDegradedWhenScoringTripped(t *testing.T) {
	h, _, _, _, _ := defaultHandlers()
	h.Scoring = &fakeBreaker{tripped: true}

	rec := doRequest(t, testRouter(h), http.MethodGet, "/health", nil)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 for degraded", rec.Code)
	}
	var resp map[string]any
	_ = json.Unmarshal(rec.Body.Bytes(), &resp)
	if resp["status"] != "degraded" {
		t.Fatalf("health = %v, want degraded", resp["status"])
	}
	if resp["scoring"] != "tripped" {
		t.Fatalf("scoring = %v, want tripped", resp["scoring"])
	}
}

func TestHealthUnhealthyWhenDatabaseDown(t *testing.T) {
	h, _, _, _, _ := defaultHandlers()
	h.Store = &fakePinger{err: errors.New("connection refused")}

	rec := doRequest(t, testRouter(h), http.MethodGet, "/health", nil)

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rec.Code)
	}
}

func TestCreateDocumentAccepted(t *testing.T) {
	h, ing, _, _, _ := defaultHandlers()
	ing.uploadRes = &service.UploadResult{
		Document:   &document.Document{ID: "doc-1", Status: document.StatusPending},
		WorkflowID: "doc-review-doc-1",
	}

	rec := doRequest(t, testRouter(h), http.MethodPost, "/api/v1/documents", map[string]string{
		"topic_id":  "topic-1",
		"file_path": "docs/guide.md",
	})

	if rec.Code != http.StatusAccepted {
		t.Fatalf("status = %d, want 202: %s", rec.Code, rec.Body.String())
	}
	var res service.UploadResult
	if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if res.WorkflowID != "doc-review-doc-1" {
		t.Fatalf("workflow id = %q", res.WorkflowID)
	}
}

func TestCreateDocumentValidation(t *testing.T) {
	h, _, _, _, _ := defaultHandlers()

	rec := doRequest(t, testRouter(h), http.MethodPost, "/api/v1/documents", map[string]string{
		"file_path": "docs/guide.md",
	})

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestCreateDocumentBadBody(t *testing.T) {
	h, _, _, _, _ := defaultHandlers()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/documents", bytes.NewBufferString("{nope"))
	rec := httptest.NewRecorder()
	testRouter(h).ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestRetryPendingReportsCount(t *testing.T) {
	h, ing, _, _, _ := defaultHandlers()
	ing.started = 3

	rec := doRequest(t, testRouter(h), http.MethodPost, "/api/v1/documents/retry-pending", nil)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var resp map[string]int
	_ = json.Unmarshal(rec.Body.Bytes(), &resp)
	if resp["started"] != 3 {
		t.Fatalf("started = %d, want 3", resp["started"])
	}
}

func TestListDocumentAssessments(t *testing.T) {
	h, ing, _, _, _ := defaultHandlers()
	ing.assessments = []assessment.RelevanceAssessment{
		{ID: "asm-1", DocumentID: "doc-1", Score: 7.5},
		{ID: "asm-2", DocumentID: "doc-1", Score: 8.1},
	}

	rec := doRequest(t, testRouter(h), http.MethodGet, "/api/v1/documents/doc-1/assessments", nil)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var items []assessment.RelevanceAssessment
	if err := json.Unmarshal(rec.Body.Bytes(), &items); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(items) != 2 || items[1].Score != 8.1 {
		t.Fatalf("items = %+v, want both attempts", items)
	}
}

func TestListDocumentAssessmentsEmptyIsArray(t *testing.T) {
	h, _, _, _, _ := defaultHandlers()

	rec := doRequest(t, testRouter(h), http.MethodGet, "/api/v1/documents/doc-1/assessments", nil)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if got := rec.Body.String(); got != "[]\n" {
		t.Fatalf("body = %q, want empty JSON array", got)
	}
}

func TestSubmitReviewAccepted(t *testing.T) {
	h, _, rev, _, _ := defaultHandlers()

	rec := doRequest(t, testRouter(h), http.MethodPost, "/api/v1/reviews/doc-review-doc-1", map[string]any{
		"approved": true,
		"feedback": "well sourced",
	})

	if rec.Code != http.StatusAccepted {
		t.Fatalf("status = %d, want 202: %s", rec.Code, rec.Body.String())
	}
	if len(rev.submitted) != 1 || !rev.submitted[0].Approved {
		t.Fatalf("submitted = %+v", rev.submitted)
	}
}

func TestSubmitReviewNotFound(t *testing.T) {
	h, _, rev, _, _ := defaultHandlers()
	rev.submitErr = fmt.Errorf("workflow gone: %w", domain.ErrNotFound)

	rec := doRequest(t, testRouter(h), http.MethodPost, "/api/v1/reviews/doc-review-gone", map[string]any{
		"approved": true,
	})

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestSubmitReviewEngineDown(t *testing.T) {
	h, _, rev, _, _ := defaultHandlers()
	rev.submitErr = fmt.Errorf("%w: signal failed", engine.ErrUnavailable)

	rec := doRequest(t, testRouter(h), http.MethodPost, "/api/v1/reviews/doc-review-doc-1", map[string]any{
		"approved": false,
	})

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rec.Code)
	}
}

func TestListInboxRequiresUser(t *testing.T) {
	h, _, _, _, _ := defaultHandlers()

	rec := doRequest(t, testRouter(h), http.MethodGet, "/api/v1/inbox", nil)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestListInboxEmptyIsArray(t *testing.T) {
	h, _, _, _, _ := defaultHandlers()

	rec := doRequest(t, testRouter(h), http.MethodGet, "/api/v1/inbox?user_id=user-1", nil)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if got := rec.Body.String(); got != "[]\n" {
		t.Fatalf("body = %q, want empty JSON array", got)
	}
}

func TestMarkInboxRead(t *testing.T) {
	h, _, _, inb, _ := defaultHandlers()

	rec := doRequest(t, testRouter(h), http.MethodPost, "/api/v1/inbox/s1/read", map[string]string{
		"user_id": "user-1",
	})

	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want 204", rec.Code)
	}
	if len(inb.readIDs) != 1 || inb.readIDs[0] != "s1" {
		t.Fatalf("read ids = %v", inb.readIDs)
	}
}

func TestResetEngine(t *testing.T) {
	h, _, _, _, eng := defaultHandlers()

	rec := doRequest(t, testRouter(h), http.MethodPost, "/api/v1/engine/reset", nil)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if eng.resets != 1 {
		t.Fatalf("resets = %d, want 1", eng.resets)
	}
}
