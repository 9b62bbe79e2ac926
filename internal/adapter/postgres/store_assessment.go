package postgres

import (
	"context"

	"github.com/kbforge/kbforge/internal/domain/assessment"
)

// CreateAssessment inserts one relevance assessment attempt. Assessments are
// append-only; retries create new rows.
func (s *Store) CreateAssessment(ctx context.Context, a *assessment.RelevanceAssessment) error {
	const q = `INSERT INTO relevance_assessments
		(id, document_id, score, decision, quality_indicators, rationale, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7)`
	_, err := s.pool.Exec(ctx, q,
		a.ID, a.DocumentID, a.Score, string(a.Decision),
		emptyIndicators(a.QualityIndicators), a.Rationale, a.CreatedAt,
	)
	return err
}

// ListAssessmentsByDocument returns all assessment attempts for a document,
// newest first.
func (s *Store) ListAssessmentsByDocument(ctx context.Context, documentID string) ([]assessment.RelevanceAssessment, error) {
	const q = `SELECT id, document_id, score, decision, quality_indicators, rationale, created_at
		FROM relevance_assessments WHERE document_id = $1 ORDER BY created_at DESC`
	rows, err := s.pool.Query(ctx, q, documentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []assessment.RelevanceAssessment
	for rows.Next() {
		var a assessment.RelevanceAssessment
		if err := rows.Scan(
			&a.ID, &a.DocumentID, &a.Score, &a.Decision,
			&a.QualityIndicators, &a.Rationale, &a.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, a)
	}
	return result, rows.Err()
}
