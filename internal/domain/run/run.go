// Package run defines the workflow instance record this system keeps about
// executions it has started on the orchestration engine. The engine owns the
// execution; these rows only observe it.
package run

import (
	"strings"
	"time"
)

// Kind identifies which workflow definition an instance executes.
type Kind string

const (
	KindDocumentReview  Kind = "document_review"
	KindDomainBootstrap Kind = "domain_bootstrap"
)

// State mirrors the engine-side lifecycle as last observed.
type State string

const (
	StateRunning        State = "running"
	StateAwaitingReview State = "awaiting_review"
	StateCompleted      State = "completed"
	StateFailed         State = "failed"
)

// Terminal reports whether the state is terminal.
func (s State) Terminal() bool {
	return s == StateCompleted || s == StateFailed
}

// Instance is one started workflow execution. ID is the caller-assigned
// workflow ID, globally unique per logical unit of work.
type Instance struct {
	ID         string         `json:"id"`
	RunID      string         `json:"run_id,omitempty"`
	Kind       Kind           `json:"kind"`
	State      State          `json:"state"`
	DocumentID string         `json:"document_id,omitempty"`
	Result     map[string]any `json:"result,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
}

const reviewIDPrefix = "doc-review-"

// WorkflowID returns the deterministic workflow ID for a document review.
// Reusing the document ID keys the idempotent-start guarantee: the engine
// rejects a second start while a run with this ID is still open.
func WorkflowID(documentID string) string {
	return reviewIDPrefix + documentID
}

// DocumentID inverts WorkflowID. The second return is false for IDs that
// do not belong to a document review.
func DocumentID(workflowID string) (string, bool) {
	id, ok := strings.CutPrefix(workflowID, reviewIDPrefix)
	if !ok || id == "" {
		return "", false
	}
	return id, true
}
