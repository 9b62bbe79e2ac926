// Package orchestration hosts the document review workflow and its
// activities on the durable execution engine.
package orchestration

import "github.com/kbforge/kbforge/internal/domain/review"

// Signal and query names exposed by the document review workflow. The server
// layer references these when signalling or querying a running instance.
const (
	SignalSubmitReview = "submit_review"
	QueryStatus        = "status"
)

// ReviewSubmission is the payload of the submit_review signal.
type ReviewSubmission struct {
	Approved     bool                `json:"approved"`
	Feedback     string              `json:"feedback,omitempty"`
	ReviewerKind review.ReviewerKind `json:"reviewer_kind,omitempty"`
}
