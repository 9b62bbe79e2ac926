package postgres

import (
	"context"

	"github.com/kbforge/kbforge/internal/domain/review"
)

// CreateReviewDecision appends one reviewer verdict to a workflow's history.
func (s *Store) CreateReviewDecision(ctx context.Context, d *review.Decision) error {
	const q = `INSERT INTO review_decisions
		(id, workflow_id, document_id, reviewer_kind, approved, feedback, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7)`
	_, err := s.pool.Exec(ctx, q,
		d.ID, d.WorkflowID, d.DocumentID, string(d.ReviewerKind),
		d.Approved, d.Feedback, d.CreatedAt,
	)
	return err
}

// ListReviewDecisionsByWorkflow returns a workflow's decisions, oldest first.
func (s *Store) ListReviewDecisionsByWorkflow(ctx context.Context, workflowID string) ([]review.Decision, error) {
	const q = `SELECT id, workflow_id, document_id, reviewer_kind, approved, feedback, created_at
		FROM review_decisions WHERE workflow_id = $1 ORDER BY created_at ASC`
	rows, err := s.pool.Query(ctx, q, workflowID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []review.Decision
	for rows.Next() {
		var d review.Decision
		if err := rows.Scan(
			&d.ID, &d.WorkflowID, &d.DocumentID, &d.ReviewerKind,
			&d.Approved, &d.Feedback, &d.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, d)
	}
	return result, rows.Err()
}
