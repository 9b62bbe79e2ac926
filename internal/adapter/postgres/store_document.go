package postgres

import (
	"context"
	"time"

	"github.com/kbforge/kbforge/internal/domain/document"
)

// CreateDocument inserts a new document row.
func (s *Store) CreateDocument(ctx context.Context, doc *document.Document) error {
	const q = `INSERT INTO documents
		(id, topic_id, user_id, file_path, status, relevance_score, quality_indicators, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`
	_, err := s.pool.Exec(ctx, q,
		doc.ID, doc.TopicID, doc.UserID, doc.FilePath, string(doc.Status),
		doc.RelevanceScore, emptyIndicators(doc.QualityIndicators),
		doc.CreatedAt, doc.UpdatedAt,
	)
	return err
}

// GetDocument retrieves a document by ID.
func (s *Store) GetDocument(ctx context.Context, id string) (*document.Document, error) {
	const q = `SELECT id, topic_id, user_id, file_path, status, relevance_score,
		quality_indicators, created_at, updated_at
		FROM documents WHERE id = $1`
	doc := &document.Document{}
	err := s.pool.QueryRow(ctx, q, id).Scan(
		&doc.ID, &doc.TopicID, &doc.UserID, &doc.FilePath, &doc.Status,
		&doc.RelevanceScore, &doc.QualityIndicators, &doc.CreatedAt, &doc.UpdatedAt,
	)
	if err != nil {
		return nil, notFoundWrap(err, "get document %s", id)
	}
	return doc, nil
}

// UpdateDocumentStatus sets the status of a document.
func (s *Store) UpdateDocumentStatus(ctx context.Context, id string, status document.Status) error {
	const q = `UPDATE documents SET status = $2, updated_at = $3 WHERE id = $1`
	tag, err := s.pool.Exec(ctx, q, id, string(status), time.Now().UTC())
	return execExpectOne(tag, err, "update document %s status", id)
}

// UpdateDocumentAssessment records the latest relevance score and indicators.
func (s *Store) UpdateDocumentAssessment(ctx context.Context, id string, score float64, indicators map[string]float64) error {
	const q = `UPDATE documents SET relevance_score = $2, quality_indicators = $3, updated_at = $4
		WHERE id = $1`
	tag, err := s.pool.Exec(ctx, q, id, score, emptyIndicators(indicators), time.Now().UTC())
	return execExpectOne(tag, err, "update document %s assessment", id)
}

// ListDocumentsByStatus returns all documents in the given status, oldest first.
func (s *Store) ListDocumentsByStatus(ctx context.Context, status document.Status) ([]document.Document, error) {
	const q = `SELECT id, topic_id, user_id, file_path, status, relevance_score,
		quality_indicators, created_at, updated_at
		FROM documents WHERE status = $1 ORDER BY created_at ASC`
	rows, err := s.pool.Query(ctx, q, string(status))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []document.Document
	for rows.Next() {
		var doc document.Document
		if err := rows.Scan(
			&doc.ID, &doc.TopicID, &doc.UserID, &doc.FilePath, &doc.Status,
			&doc.RelevanceScore, &doc.QualityIndicators, &doc.CreatedAt, &doc.UpdatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, doc)
	}
	return result, rows.Err()
}
