package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"go.temporal.io/api/serviceerror"

	"github.com/kbforge/kbforge/internal/adapter/engine"
	"github.com/kbforge/kbforge/internal/domain"
	"github.com/kbforge/kbforge/internal/domain/review"
	"github.com/kbforge/kbforge/internal/domain/run"
	"github.com/kbforge/kbforge/internal/orchestration"
	"github.com/kbforge/kbforge/internal/port/database"
)

// ReviewService delivers reviewer verdicts to waiting workflows.
type ReviewService struct {
	store  database.Store
	engine EngineSource
}

// NewReviewService creates a ReviewService.
func NewReviewService(store database.Store, eng EngineSource) *ReviewService {
	return &ReviewService{store: store, engine: eng}
}

// Submit signals a waiting workflow with a reviewer's verdict. The workflow
// records the decision itself; this service only validates and delivers.
// A workflow that no longer exists maps to domain.ErrNotFound.
func (s *ReviewService) Submit(ctx context.Context, workflowID string, req review.SubmitRequest) error {
	if workflowID == "" {
		return errors.New("workflow id is required")
	}
	if err := req.Validate(); err != nil {
		return fmt.Errorf("validate review: %w", err)
	}

	c, err := s.engine.EnsureConnected(ctx)
	if err != nil {
		return err
	}

	err = c.SignalWorkflow(ctx, workflowID, "", orchestration.SignalSubmitReview, orchestration.ReviewSubmission{
		Approved:     req.Approved,
		Feedback:     req.Feedback,
		ReviewerKind: req.ReviewerKind,
	})
	if err != nil {
		var notFound *serviceerror.NotFound
		if errors.As(err, &notFound) {
			return fmt.Errorf("workflow %s: %w", workflowID, domain.ErrNotFound)
		}
		if s.engine.MarkDown(err) {
			return fmt.Errorf("%w: signal %s: %v", engine.ErrUnavailable, workflowID, err)
		}
		return fmt.Errorf("signal workflow %s: %w", workflowID, err)
	}

	slog.Info("review submitted",
		"workflow_id", workflowID,
		"approved", req.Approved,
		"reviewer", req.ReviewerKind,
	)
	return nil
}

// Status queries a workflow's live status. When the engine is unreachable
// or the run has left the engine's history, it falls back to the stored
// instance row so the endpoint keeps answering in degraded mode.
func (s *ReviewService) Status(ctx context.Context, workflowID string) (map[string]any, error) {
	c, err := s.engine.EnsureConnected(ctx)
	if err != nil {
		return s.storedStatus(ctx, workflowID)
	}

	resp, err := c.QueryWorkflow(ctx, workflowID, "", orchestration.QueryStatus)
	if err != nil {
		var notFound *serviceerror.NotFound
		if errors.As(err, &notFound) || s.engine.MarkDown(err) {
			return s.storedStatus(ctx, workflowID)
		}
		return nil, fmt.Errorf("query workflow %s: %w", workflowID, err)
	}

	var status map[string]any
	if err := resp.Get(&status); err != nil {
		return nil, fmt.Errorf("decode status for %s: %w", workflowID, err)
	}
	return status, nil
}

// storedStatus serves the last persisted instance state for a review run.
func (s *ReviewService) storedStatus(ctx context.Context, workflowID string) (map[string]any, error) {
	docID, ok := run.DocumentID(workflowID)
	if !ok {
		return nil, fmt.Errorf("workflow %s: %w", workflowID, domain.ErrNotFound)
	}
	inst, err := s.store.GetInstanceByDocument(ctx, docID)
	if err != nil {
		return nil, fmt.Errorf("instance for %s: %w", workflowID, err)
	}

	status := map[string]any{
		"document_id": inst.DocumentID,
		"phase":       string(inst.State),
		"live":        false,
	}
	for k, v := range inst.Result {
		status[k] = v
	}
	return status, nil
}

// Decisions returns the recorded verdict history for a workflow.
func (s *ReviewService) Decisions(ctx context.Context, workflowID string) ([]review.Decision, error) {
	return s.store.ListReviewDecisionsByWorkflow(ctx, workflowID)
}
