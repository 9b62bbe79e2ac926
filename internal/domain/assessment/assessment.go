// Package assessment defines relevance assessment types and the decision policy.
package assessment

import "time"

// Decision is the outcome of applying the decision policy to a relevance score.
type Decision string

const (
	DecisionAutoApprove      Decision = "auto_approve"
	DecisionAutoReject       Decision = "auto_reject"
	DecisionNeedsHumanReview Decision = "needs_human_review"
)

// RelevanceAssessment is the normalized result of one scoring attempt.
// It is immutable once produced; a retry produces a new instance.
type RelevanceAssessment struct {
	ID                string             `json:"id"`
	DocumentID        string             `json:"document_id"`
	Score             float64            `json:"score"`
	Decision          Decision           `json:"decision"`
	QualityIndicators map[string]float64 `json:"quality_indicators,omitempty"`
	Rationale         string             `json:"rationale,omitempty"`
	CreatedAt         time.Time          `json:"created_at"`
}

// Criteria is the bundle handed to the scoring collaborator for one topic.
type Criteria struct {
	TopicID          string             `json:"topic_id"`
	Keywords         []string           `json:"keywords,omitempty"`
	MinLength        int                `json:"min_length,omitempty"`
	RequiredSections []string           `json:"required_sections,omitempty"`
	SubScoreWeights  map[string]float64 `json:"sub_score_weights,omitempty"`
}

// DefaultSubScores are the sub-score dimensions the collaborator is asked to
// rate. A missing dimension in its output is defaulted to 0 and flagged.
var DefaultSubScores = []string{
	"topic_relevance",
	"technical_accuracy",
	"safety_focus",
	"practical_value",
	"completeness",
}
