// Package service contains application services.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.temporal.io/api/serviceerror"
	"go.temporal.io/sdk/client"

	"github.com/kbforge/kbforge/internal/adapter/engine"
	"github.com/kbforge/kbforge/internal/config"
	"github.com/kbforge/kbforge/internal/domain/assessment"
	"github.com/kbforge/kbforge/internal/domain/document"
	"github.com/kbforge/kbforge/internal/domain/run"
	"github.com/kbforge/kbforge/internal/orchestration"
	"github.com/kbforge/kbforge/internal/port/database"
	"github.com/kbforge/kbforge/internal/routing"
)

// EngineSource yields a live engine handle or an unavailability error.
type EngineSource interface {
	EnsureConnected(ctx context.Context) (client.Client, error)
	MarkDown(err error) bool
}

// IngestService registers documents and launches their review workflows.
// When the engine is unreachable the document is accepted anyway and parked
// in pending; RetryPending relaunches parked documents later.
type IngestService struct {
	store  database.Store
	engine EngineSource
	cfg    config.Review
}

// NewIngestService creates an IngestService.
func NewIngestService(store database.Store, eng EngineSource, cfg config.Review) *IngestService {
	return &IngestService{store: store, engine: eng, cfg: cfg}
}

// UploadResult reports what happened to an accepted document.
type UploadResult struct {
	Document *document.Document `json:"document"`
	// WorkflowID is set when a review workflow is running for the document.
	WorkflowID string `json:"workflow_id,omitempty"`
	// Deferred is true when the engine was unreachable and the document
	// stayed pending for a later retry.
	Deferred bool `json:"deferred"`
}

// Upload validates and stores a new document, then starts its review
// workflow. Engine unavailability is not an upload failure: the document is
// persisted in pending and reported as deferred.
func (s *IngestService) Upload(ctx context.Context, req document.CreateRequest) (*UploadResult, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("validate document: %w", err)
	}
	if _, err := s.store.GetTopic(ctx, req.TopicID); err != nil {
		return nil, fmt.Errorf("topic %s: %w", req.TopicID, err)
	}

	now := time.Now().UTC()
	doc := &document.Document{
		ID:        uuid.NewString(),
		TopicID:   req.TopicID,
		UserID:    req.UserID,
		FilePath:  req.FilePath,
		Status:    document.StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.store.CreateDocument(ctx, doc); err != nil {
		return nil, fmt.Errorf("create document: %w", err)
	}

	workflowID, err := s.startReview(ctx, doc)
	if err != nil {
		if errors.Is(err, engine.ErrUnavailable) {
			slog.Warn("engine unavailable, document parked pending",
				"document_id", doc.ID, "error", err)
			return &UploadResult{Document: doc, Deferred: true}, nil
		}
		return nil, err
	}
	return &UploadResult{Document: doc, WorkflowID: workflowID}, nil
}

// RetryPending relaunches review workflows for documents parked in pending.
// It stops at the first engine unavailability; remaining documents stay
// parked for the next sweep.
func (s *IngestService) RetryPending(ctx context.Context) (int, error) {
	docs, err := s.store.ListDocumentsByStatus(ctx, document.StatusPending)
	if err != nil {
		return 0, fmt.Errorf("list pending documents: %w", err)
	}

	started := 0
	for i := range docs {
		doc := &docs[i]
		if _, err := s.startReview(ctx, doc); err != nil {
			if errors.Is(err, engine.ErrUnavailable) {
				slog.Warn("engine unavailable, retry sweep stopped",
					"started", started, "remaining", len(docs)-started)
				return started, nil
			}
			return started, fmt.Errorf("restart review for %s: %w", doc.ID, err)
		}
		started++
	}
	if started > 0 {
		slog.Info("pending documents relaunched", "count", started)
	}
	return started, nil
}

// startReview launches the document review workflow under the document's
// deterministic workflow ID and records the engine-side instance. A start
// that collides with an open run is treated as already-running, not an
// error, which makes Upload retries and RetryPending sweeps idempotent.
func (s *IngestService) startReview(ctx context.Context, doc *document.Document) (string, error) {
	c, err := s.engine.EnsureConnected(ctx)
	if err != nil {
		return "", err
	}

	workflowID := run.WorkflowID(doc.ID)
	wr, err := c.ExecuteWorkflow(ctx, client.StartWorkflowOptions{
		ID:        workflowID,
		TaskQueue: routing.QueueFor(routing.KindEmitSignal),
	}, orchestration.DocumentReviewWorkflow, orchestration.ReviewInput{
		DocumentID: doc.ID,
		TopicID:    doc.TopicID,
		UserID:     doc.UserID,
		FilePath:   doc.FilePath,
		Policy: assessment.Policy{
			AutoApprove: s.cfg.AutoApproveThreshold,
			AutoReject:  s.cfg.AutoRejectThreshold,
		},
		AssessmentTimeout: s.cfg.AssessmentTimeout,
		ReviewWaitTimeout: s.cfg.WaitTimeout,
	})
	if err != nil {
		var already *serviceerror.WorkflowExecutionAlreadyStarted
		if errors.As(err, &already) {
			slog.Debug("review already running", "workflow_id", workflowID)
			return workflowID, nil
		}
		if s.engine.MarkDown(err) {
			return "", fmt.Errorf("%w: start review for %s: %v", engine.ErrUnavailable, doc.ID, err)
		}
		return "", fmt.Errorf("start review for %s: %w", doc.ID, err)
	}

	now := time.Now().UTC()
	inst := &run.Instance{
		ID:         wr.GetID(),
		RunID:      wr.GetRunID(),
		Kind:       run.KindDocumentReview,
		State:      run.StateRunning,
		DocumentID: doc.ID,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.store.CreateInstance(ctx, inst); err != nil {
		// The workflow is running; a failed bookkeeping row must not fail
		// the upload. The workflow's own persistence catches it up.
		slog.Warn("instance record failed", "workflow_id", workflowID, "error", err)
	}

	slog.Info("review workflow started", "workflow_id", workflowID, "document_id", doc.ID)
	return workflowID, nil
}

// GetDocument returns one document by ID.
func (s *IngestService) GetDocument(ctx context.Context, id string) (*document.Document, error) {
	doc, err := s.store.GetDocument(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get document %s: %w", id, err)
	}
	return doc, nil
}

// ListByStatus returns documents currently in the given status.
func (s *IngestService) ListByStatus(ctx context.Context, status document.Status) ([]document.Document, error) {
	if !status.Valid() {
		return nil, fmt.Errorf("unknown status %q", status)
	}
	return s.store.ListDocumentsByStatus(ctx, status)
}

// Assessments returns every recorded assessment attempt for a document.
func (s *IngestService) Assessments(ctx context.Context, documentID string) ([]assessment.RelevanceAssessment, error) {
	if documentID == "" {
		return nil, errors.New("document id is required")
	}
	return s.store.ListAssessmentsByDocument(ctx, documentID)
}
