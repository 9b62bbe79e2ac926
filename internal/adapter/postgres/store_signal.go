package postgres

import (
	"context"
	"time"

	"github.com/kbforge/kbforge/internal/domain/signal"
)

// CreateSignal appends one notification row to the inbox store.
func (s *Store) CreateSignal(ctx context.Context, sig *signal.Signal) error {
	const q = `INSERT INTO signals
		(id, user_id, workflow_id, signal_type, data, read, read_at, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`
	_, err := s.pool.Exec(ctx, q,
		sig.ID, sig.UserID, sig.WorkflowID, string(sig.Type),
		sig.Data, sig.Read, nullTime(sig.ReadAt), sig.CreatedAt,
	)
	return err
}

// ListSignalsByUser returns a user's signals, newest first.
func (s *Store) ListSignalsByUser(ctx context.Context, userID string, limit int) ([]signal.Signal, error) {
	if limit <= 0 {
		limit = 50
	}
	const q = `SELECT id, user_id, workflow_id, signal_type, data, read, read_at, created_at
		FROM signals WHERE user_id = $1 ORDER BY created_at DESC LIMIT $2`
	rows, err := s.pool.Query(ctx, q, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []signal.Signal
	for rows.Next() {
		var sig signal.Signal
		if err := rows.Scan(
			&sig.ID, &sig.UserID, &sig.WorkflowID, &sig.Type,
			&sig.Data, &sig.Read, &sig.ReadAt, &sig.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, sig)
	}
	return result, rows.Err()
}

// MarkSignalRead flips the read flag for one signal owned by the user.
func (s *Store) MarkSignalRead(ctx context.Context, id, userID string) error {
	const q = `UPDATE signals SET read = TRUE, read_at = $3 WHERE id = $1 AND user_id = $2 AND read = FALSE`
	tag, err := s.pool.Exec(ctx, q, id, userID, time.Now().UTC())
	return execExpectOne(tag, err, "mark signal %s read", id)
}
