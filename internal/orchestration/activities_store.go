package orchestration

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.temporal.io/sdk/activity"

	"github.com/kbforge/kbforge/internal/domain"
	"github.com/kbforge/kbforge/internal/domain/assessment"
	"github.com/kbforge/kbforge/internal/domain/document"
	"github.com/kbforge/kbforge/internal/domain/review"
	"github.com/kbforge/kbforge/internal/domain/run"
	"github.com/kbforge/kbforge/internal/port/database"
	"github.com/kbforge/kbforge/internal/port/messagequeue"
)

// StoreActivities runs on the storage-io tier and owns every database write
// the workflow performs.
type StoreActivities struct {
	store database.Store
	queue messagequeue.Queue
}

// NewStoreActivities creates the storage activity set. queue may be nil;
// index events are then only recorded in the database.
func NewStoreActivities(store database.Store, queue messagequeue.Queue) *StoreActivities {
	return &StoreActivities{store: store, queue: queue}
}

// PersistStatusInput drives one document/instance state transition.
type PersistStatusInput struct {
	DocumentID    string          `json:"document_id"`
	WorkflowID    string          `json:"workflow_id,omitempty"`
	Status        document.Status `json:"status"`
	InstanceState run.State       `json:"instance_state,omitempty"`
	Result        map[string]any  `json:"result,omitempty"`
}

// PersistStatus writes the document status and, when an instance state is
// given, the last observed workflow state. Idempotent: rewriting the same
// status is a no-op update, so activity retries are safe.
func (s *StoreActivities) PersistStatus(ctx context.Context, in PersistStatusInput) error {
	if err := s.store.UpdateDocumentStatus(ctx, in.DocumentID, in.Status); err != nil {
		return fmt.Errorf("persist document %s status %s: %w", in.DocumentID, in.Status, err)
	}
	if in.InstanceState != "" && in.WorkflowID != "" {
		err := s.store.UpdateInstanceState(ctx, in.WorkflowID, in.InstanceState, in.Result)
		if errors.Is(err, domain.ErrNotFound) {
			// The start-side bookkeeping row can be missing when it failed
			// after the workflow launched. Recreate it from workflow state.
			now := time.Now().UTC()
			err = s.store.CreateInstance(ctx, &run.Instance{
				ID:         in.WorkflowID,
				Kind:       run.KindDocumentReview,
				State:      in.InstanceState,
				DocumentID: in.DocumentID,
				Result:     in.Result,
				CreatedAt:  now,
				UpdatedAt:  now,
			})
		}
		if err != nil {
			return fmt.Errorf("persist instance %s state %s: %w", in.WorkflowID, in.InstanceState, err)
		}
	}
	return nil
}

// RecordAssessment appends one assessment attempt and mirrors the score
// onto the document row.
func (s *StoreActivities) RecordAssessment(ctx context.Context, a assessment.RelevanceAssessment) error {
	if err := s.store.CreateAssessment(ctx, &a); err != nil {
		return fmt.Errorf("record assessment for %s: %w", a.DocumentID, err)
	}
	if err := s.store.UpdateDocumentAssessment(ctx, a.DocumentID, a.Score, a.QualityIndicators); err != nil {
		return fmt.Errorf("mirror assessment onto document %s: %w", a.DocumentID, err)
	}
	return nil
}

// RecordReviewDecisionInput carries one reviewer verdict.
type RecordReviewDecisionInput struct {
	WorkflowID   string              `json:"workflow_id"`
	DocumentID   string              `json:"document_id"`
	ReviewerKind review.ReviewerKind `json:"reviewer_kind"`
	Approved     bool                `json:"approved"`
	Feedback     string              `json:"feedback,omitempty"`
}

// RecordReviewDecision appends a reviewer verdict to the workflow's history.
func (s *StoreActivities) RecordReviewDecision(ctx context.Context, in RecordReviewDecisionInput) error {
	d := &review.Decision{
		ID:           uuid.NewString(),
		WorkflowID:   in.WorkflowID,
		DocumentID:   in.DocumentID,
		ReviewerKind: in.ReviewerKind,
		Approved:     in.Approved,
		Feedback:     in.Feedback,
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.store.CreateReviewDecision(ctx, d); err != nil {
		return fmt.Errorf("record review decision for %s: %w", in.WorkflowID, err)
	}
	return nil
}

// IndexInput identifies the approved document to hand to the indexing surface.
type IndexInput struct {
	DocumentID string  `json:"document_id"`
	TopicID    string  `json:"topic_id"`
	FilePath   string  `json:"file_path"`
	Score      float64 `json:"score"`
}

// IndexDocument announces an approved document to the external indexing
// pipeline over the queue. The graph/vector engines consume the event; this
// core only emits it.
func (s *StoreActivities) IndexDocument(ctx context.Context, in IndexInput) error {
	if s.queue == nil {
		activity.GetLogger(ctx).Warn("no queue configured, skipping index event",
			"document_id", in.DocumentID)
		return nil
	}
	data, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("marshal index event: %w", err)
	}
	if err := s.queue.Publish(ctx, messagequeue.SubjectDocumentIndexed+"."+in.TopicID, data); err != nil {
		return fmt.Errorf("publish index event for %s: %w", in.DocumentID, err)
	}
	return nil
}
