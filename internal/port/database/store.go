// Package database defines the database store port (interface).
package database

import (
	"context"

	"github.com/kbforge/kbforge/internal/domain/assessment"
	"github.com/kbforge/kbforge/internal/domain/document"
	"github.com/kbforge/kbforge/internal/domain/review"
	"github.com/kbforge/kbforge/internal/domain/run"
	"github.com/kbforge/kbforge/internal/domain/signal"
	"github.com/kbforge/kbforge/internal/domain/topic"
)

// Store is the port interface for database operations.
type Store interface {
	// Documents
	CreateDocument(ctx context.Context, doc *document.Document) error
	GetDocument(ctx context.Context, id string) (*document.Document, error)
	UpdateDocumentStatus(ctx context.Context, id string, status document.Status) error
	UpdateDocumentAssessment(ctx context.Context, id string, score float64, indicators map[string]float64) error
	ListDocumentsByStatus(ctx context.Context, status document.Status) ([]document.Document, error)

	// Relevance assessments (append-only, one row per attempt)
	CreateAssessment(ctx context.Context, a *assessment.RelevanceAssessment) error
	ListAssessmentsByDocument(ctx context.Context, documentID string) ([]assessment.RelevanceAssessment, error)

	// Review decisions (append-only history per workflow)
	CreateReviewDecision(ctx context.Context, d *review.Decision) error
	ListReviewDecisionsByWorkflow(ctx context.Context, workflowID string) ([]review.Decision, error)

	// Workflow instances
	CreateInstance(ctx context.Context, inst *run.Instance) error
	GetInstanceByDocument(ctx context.Context, documentID string) (*run.Instance, error)
	UpdateInstanceState(ctx context.Context, id string, state run.State, result map[string]any) error

	// Signals (inbox)
	CreateSignal(ctx context.Context, s *signal.Signal) error
	ListSignalsByUser(ctx context.Context, userID string, limit int) ([]signal.Signal, error)
	MarkSignalRead(ctx context.Context, id, userID string) error

	// Topics
	GetTopic(ctx context.Context, id string) (*topic.Topic, error)

	// Ping reports primary store reachability for health checks.
	Ping(ctx context.Context) error
}
