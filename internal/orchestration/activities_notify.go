package orchestration

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.temporal.io/sdk/activity"

	"github.com/kbforge/kbforge/internal/domain/signal"
	"github.com/kbforge/kbforge/internal/port/database"
	"github.com/kbforge/kbforge/internal/port/messagequeue"
)

// NotifyActivities runs on the general-coordination tier and writes the
// outbound signal rows the inbox surface renders.
type NotifyActivities struct {
	store database.Store
	queue messagequeue.Queue
}

// NewNotifyActivities creates the coordination activity set. queue may be
// nil; signals are then only durable, not pushed live.
func NewNotifyActivities(store database.Store, queue messagequeue.Queue) *NotifyActivities {
	return &NotifyActivities{store: store, queue: queue}
}

// EmitSignalInput describes one notification row.
type EmitSignalInput struct {
	UserID     string         `json:"user_id"`
	WorkflowID string         `json:"workflow_id"`
	Type       signal.Type    `json:"type"`
	Data       map[string]any `json:"data,omitempty"`
}

// EmitSignal appends a signal row and publishes a best-effort live copy to
// the queue. The row is the source of truth; a failed publish is logged,
// never surfaced, so notification delivery can't block a decided workflow.
func (n *NotifyActivities) EmitSignal(ctx context.Context, in EmitSignalInput) error {
	if in.UserID == "" {
		activity.GetLogger(ctx).Debug("signal without recipient dropped",
			"workflow_id", in.WorkflowID, "type", in.Type)
		return nil
	}

	sig := &signal.Signal{
		ID:         uuid.NewString(),
		UserID:     in.UserID,
		WorkflowID: in.WorkflowID,
		Type:       in.Type,
		Data:       in.Data,
		CreatedAt:  time.Now().UTC(),
	}
	if err := n.store.CreateSignal(ctx, sig); err != nil {
		return fmt.Errorf("create signal for %s: %w", in.WorkflowID, err)
	}

	if n.queue != nil {
		data, err := json.Marshal(sig)
		if err == nil {
			err = n.queue.Publish(ctx, messagequeue.SubjectForUser(in.UserID), data)
		}
		if err != nil {
			activity.GetLogger(ctx).Warn("live signal publish failed",
				"signal_id", sig.ID, "error", err)
		}
	}
	return nil
}
