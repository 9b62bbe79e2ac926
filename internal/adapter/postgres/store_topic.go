package postgres

import (
	"context"

	"github.com/kbforge/kbforge/internal/domain/topic"
)

// GetTopic retrieves a topic with its assessment criteria.
func (s *Store) GetTopic(ctx context.Context, id string) (*topic.Topic, error) {
	const q = `SELECT id, name, criteria, created_at, updated_at FROM topics WHERE id = $1`
	t := &topic.Topic{}
	err := s.pool.QueryRow(ctx, q, id).Scan(
		&t.ID, &t.Name, &t.Criteria, &t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		return nil, notFoundWrap(err, "get topic %s", id)
	}
	return t, nil
}
