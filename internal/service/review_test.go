package service

import (
	"context"
	"errors"
	"testing"

	"go.temporal.io/api/serviceerror"

	"github.com/kbforge/kbforge/internal/adapter/engine"
	"github.com/kbforge/kbforge/internal/domain"
	"github.com/kbforge/kbforge/internal/domain/review"
	"github.com/kbforge/kbforge/internal/domain/run"
	"github.com/kbforge/kbforge/internal/orchestration"
)

func TestSubmitDeliversSignal(t *testing.T) {
	var gotWorkflow, gotSignal string
	var gotPayload orchestration.ReviewSubmission
	c := &fakeEngineClient{
		signalFn: func(workflowID, signalName string, arg interface{}) error {
			gotWorkflow = workflowID
			gotSignal = signalName
			gotPayload = arg.(orchestration.ReviewSubmission)
			return nil
		},
	}
	svc := NewReviewService(newMemStore(), &fakeEngine{c: c})

	err := svc.Submit(context.Background(), "doc-review-doc-1", review.SubmitRequest{
		Approved: true,
		Feedback: "good coverage",
	})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if gotWorkflow != "doc-review-doc-1" {
		t.Fatalf("workflow id = %q", gotWorkflow)
	}
	if gotSignal != orchestration.SignalSubmitReview {
		t.Fatalf("signal name = %q, want %q", gotSignal, orchestration.SignalSubmitReview)
	}
	if gotPayload.ReviewerKind != review.ReviewerHuman {
		t.Fatalf("reviewer = %q, want human default", gotPayload.ReviewerKind)
	}
	if !gotPayload.Approved || gotPayload.Feedback != "good coverage" {
		t.Fatalf("payload = %+v", gotPayload)
	}
}

func TestSubmitRejectsUnknownReviewerKind(t *testing.T) {
	svc := NewReviewService(newMemStore(), &fakeEngine{})

	err := svc.Submit(context.Background(), "wf-1", review.SubmitRequest{
		ReviewerKind: "robot",
	})
	if !errors.Is(err, review.ErrInvalidReviewerKind) {
		t.Fatalf("err = %v, want invalid reviewer kind", err)
	}
}

func TestSubmitRequiresWorkflowID(t *testing.T) {
	svc := NewReviewService(newMemStore(), &fakeEngine{})

	if err := svc.Submit(context.Background(), "", review.SubmitRequest{}); err == nil {
		t.Fatal("expected error for empty workflow id")
	}
}

func TestSubmitMissingWorkflowIsNotFound(t *testing.T) {
	c := &fakeEngineClient{
		signalFn: func(string, string, interface{}) error {
			return serviceerror.NewNotFound("no such execution")
		},
	}
	svc := NewReviewService(newMemStore(), &fakeEngine{c: c})

	err := svc.Submit(context.Background(), "doc-review-gone", review.SubmitRequest{Approved: true})
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("err = %v, want not found", err)
	}
}

func TestSubmitTransportErrorMarksDown(t *testing.T) {
	c := &fakeEngineClient{
		signalFn: func(string, string, interface{}) error {
			return serviceerror.NewUnavailable("frontend gone")
		},
	}
	eng := &fakeEngine{c: c}
	svc := NewReviewService(newMemStore(), eng)

	err := svc.Submit(context.Background(), "doc-review-doc-1", review.SubmitRequest{Approved: false})
	if !errors.Is(err, engine.ErrUnavailable) {
		t.Fatalf("err = %v, want unavailable", err)
	}
	if !eng.marked {
		t.Fatal("engine not marked down")
	}
}

func TestDecisionsListsHistory(t *testing.T) {
	store := newMemStore()
	store.decisions = []review.Decision{
		{ID: "d1", WorkflowID: "wf-1", Approved: true, ReviewerKind: review.ReviewerHuman},
	}
	svc := NewReviewService(store, &fakeEngine{})

	out, err := svc.Decisions(context.Background(), "wf-1")
	if err != nil {
		t.Fatalf("decisions: %v", err)
	}
	if len(out) != 1 || out[0].ID != "d1" {
		t.Fatalf("decisions = %+v", out)
	}
}

func TestStatusFallsBackToStoredInstance(t *testing.T) {
	store := newMemStore()
	store.instances["doc-review-doc-1"] = &run.Instance{
		ID:         "doc-review-doc-1",
		Kind:       run.KindDocumentReview,
		State:      run.StateCompleted,
		DocumentID: "doc-1",
		Result:     map[string]any{"status": "approved", "score": 9.2},
	}
	svc := NewReviewService(store, &fakeEngine{err: engine.ErrUnavailable})

	status, err := svc.Status(context.Background(), "doc-review-doc-1")
	if err != nil {
		t.Fatalf("status with a down engine: %v", err)
	}
	if status["phase"] != string(run.StateCompleted) {
		t.Fatalf("phase = %v, want completed", status["phase"])
	}
	if status["status"] != "approved" || status["score"] != 9.2 {
		t.Fatalf("stored result missing from status: %v", status)
	}
	if status["live"] != false {
		t.Fatal("fallback status not marked as stored")
	}
}

func TestStatusFallbackUnknownWorkflow(t *testing.T) {
	svc := NewReviewService(newMemStore(), &fakeEngine{err: engine.ErrUnavailable})

	_, err := svc.Status(context.Background(), "doc-review-ghost")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("err = %v, want not found", err)
	}
}

func TestStatusFallbackRejectsForeignID(t *testing.T) {
	svc := NewReviewService(newMemStore(), &fakeEngine{err: engine.ErrUnavailable})

	_, err := svc.Status(context.Background(), "batch-import-7")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("err = %v, want not found", err)
	}
}
