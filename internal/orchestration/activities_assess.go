package orchestration

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/temporal"

	"github.com/kbforge/kbforge/internal/adapter/scoring"
	"github.com/kbforge/kbforge/internal/domain/assessment"
)

// Scorer is the slice of the scoring client the assessment activity needs.
type Scorer interface {
	Score(ctx context.Context, req scoring.Request) (*scoring.Response, error)
}

// CriteriaProvider resolves per-topic assessment criteria.
type CriteriaProvider interface {
	CriteriaFor(ctx context.Context, topicID string) (assessment.Criteria, error)
}

// AssessActivities runs on the heavy-compute tier; its only activity drives
// the external scoring collaborator.
type AssessActivities struct {
	scorer   Scorer
	criteria CriteriaProvider
}

// NewAssessActivities creates the heavy-compute activity set.
func NewAssessActivities(scorer Scorer, criteria CriteriaProvider) *AssessActivities {
	return &AssessActivities{scorer: scorer, criteria: criteria}
}

// AssessInput is the input of the AssessRelevance activity.
type AssessInput struct {
	DocumentID string            `json:"document_id"`
	TopicID    string            `json:"topic_id"`
	FilePath   string            `json:"file_path"`
	Policy     assessment.Policy `json:"policy"`
}

// AssessRelevance calls the scoring collaborator and normalizes its output
// into a RelevanceAssessment with the decision policy applied. Each attempt
// produces a fresh assessment; the activity is safe to retry.
func (a *AssessActivities) AssessRelevance(ctx context.Context, in AssessInput) (*assessment.RelevanceAssessment, error) {
	logger := activity.GetLogger(ctx)

	criteria, err := a.criteria.CriteriaFor(ctx, in.TopicID)
	if err != nil {
		return nil, fmt.Errorf("criteria for topic %s: %w", in.TopicID, err)
	}

	raw, err := a.scorer.Score(ctx, scoring.Request{
		DocumentRef: in.FilePath,
		Criteria:    criteria,
	})
	if err != nil {
		return nil, fmt.Errorf("score document %s: %w", in.DocumentID, err)
	}

	result, err := normalize(in, raw)
	if err != nil {
		return nil, err
	}

	logger.Info("document assessed",
		"document_id", in.DocumentID,
		"score", result.Score,
		"decision", result.Decision,
	)
	return result, nil
}

// normalize converts the collaborator's raw output into the fixed
// RelevanceAssessment shape. Missing sub-scores default to 0 and are
// flagged; a score outside any sane range is a non-retryable error.
func normalize(in AssessInput, raw *scoring.Response) (*assessment.RelevanceAssessment, error) {
	if math.IsNaN(raw.Score) || math.IsInf(raw.Score, 0) {
		return nil, temporal.NewNonRetryableApplicationError(
			fmt.Sprintf("scoring collaborator returned unusable score for %s", in.DocumentID),
			ErrTypeValidation, nil,
		)
	}

	score := raw.Score
	if score < 0 {
		score = 0
	}
	if score > 10 {
		score = 10
	}

	indicators := make(map[string]float64, len(assessment.DefaultSubScores))
	for _, dim := range assessment.DefaultSubScores {
		v, ok := raw.SubScores[dim]
		if !ok {
			indicators[dim] = 0
			indicators[dim+"_missing"] = 1
			continue
		}
		indicators[dim] = v
	}

	return &assessment.RelevanceAssessment{
		ID:                uuid.NewString(),
		DocumentID:        in.DocumentID,
		Score:             score,
		Decision:          in.Policy.Decide(score),
		QualityIndicators: indicators,
		Rationale:         raw.Rationale,
		CreatedAt:         time.Now().UTC(),
	}, nil
}
