package postgres

import (
	"context"
	"time"

	"github.com/kbforge/kbforge/internal/domain/run"
)

// CreateInstance records a workflow execution this process started.
func (s *Store) CreateInstance(ctx context.Context, inst *run.Instance) error {
	const q = `INSERT INTO workflow_instances
		(id, run_id, kind, state, document_id, result, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		ON CONFLICT (id) DO UPDATE SET run_id = EXCLUDED.run_id, state = EXCLUDED.state,
			updated_at = EXCLUDED.updated_at`
	_, err := s.pool.Exec(ctx, q,
		inst.ID, inst.RunID, string(inst.Kind), string(inst.State),
		inst.DocumentID, inst.Result, inst.CreatedAt, inst.UpdatedAt,
	)
	return err
}

// GetInstanceByDocument returns the workflow instance for a document, if any.
func (s *Store) GetInstanceByDocument(ctx context.Context, documentID string) (*run.Instance, error) {
	const q = `SELECT id, run_id, kind, state, document_id, result, created_at, updated_at
		FROM workflow_instances WHERE document_id = $1`
	inst := &run.Instance{}
	err := s.pool.QueryRow(ctx, q, documentID).Scan(
		&inst.ID, &inst.RunID, &inst.Kind, &inst.State,
		&inst.DocumentID, &inst.Result, &inst.CreatedAt, &inst.UpdatedAt,
	)
	if err != nil {
		return nil, notFoundWrap(err, "get instance for document %s", documentID)
	}
	return inst, nil
}

// UpdateInstanceState records the last observed engine-side state.
func (s *Store) UpdateInstanceState(ctx context.Context, id string, state run.State, result map[string]any) error {
	const q = `UPDATE workflow_instances SET state = $2, result = $3, updated_at = $4 WHERE id = $1`
	tag, err := s.pool.Exec(ctx, q, id, string(state), result, time.Now().UTC())
	return execExpectOne(tag, err, "update instance %s state", id)
}
