// Package review defines the human/AI review decision domain types.
package review

import (
	"errors"
	"time"
)

// ReviewerKind is a closed set: reviews come from a human or from an
// AI controller acting on a human's behalf. No other variants exist.
type ReviewerKind string

const (
	ReviewerHuman        ReviewerKind = "human"
	ReviewerAIController ReviewerKind = "ai_controller"
)

// Valid reports whether k is a known reviewer kind.
func (k ReviewerKind) Valid() bool {
	return k == ReviewerHuman || k == ReviewerAIController
}

// Decision records one reviewer's verdict on a waiting workflow.
// Decisions are append-only history; a workflow acts on the first one only.
type Decision struct {
	ID           string       `json:"id"`
	WorkflowID   string       `json:"workflow_id"`
	DocumentID   string       `json:"document_id"`
	ReviewerKind ReviewerKind `json:"reviewer_kind"`
	Approved     bool         `json:"approved"`
	Feedback     string       `json:"feedback,omitempty"`
	CreatedAt    time.Time    `json:"created_at"`
}

// SubmitRequest holds the fields of an incoming review submission.
type SubmitRequest struct {
	Approved     bool         `json:"approved"`
	Feedback     string       `json:"feedback,omitempty"`
	ReviewerKind ReviewerKind `json:"reviewer_kind,omitempty"`
}

var ErrInvalidReviewerKind = errors.New("invalid reviewer kind")

// Validate checks the request; an empty reviewer kind defaults to human.
func (r *SubmitRequest) Validate() error {
	if r.ReviewerKind == "" {
		r.ReviewerKind = ReviewerHuman
	}
	if !r.ReviewerKind.Valid() {
		return ErrInvalidReviewerKind
	}
	return nil
}
