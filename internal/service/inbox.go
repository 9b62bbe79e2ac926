package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/kbforge/kbforge/internal/domain/signal"
	"github.com/kbforge/kbforge/internal/port/database"
)

const defaultInboxLimit = 50

// InboxService exposes the per-user signal inbox.
type InboxService struct {
	store database.Store
}

// NewInboxService creates an InboxService.
func NewInboxService(store database.Store) *InboxService {
	return &InboxService{store: store}
}

// List returns the newest signals for a user, unread first by creation
// time. limit <= 0 applies the default page size.
func (s *InboxService) List(ctx context.Context, userID string, limit int) ([]signal.Signal, error) {
	if userID == "" {
		return nil, errors.New("user id is required")
	}
	if limit <= 0 {
		limit = defaultInboxLimit
	}
	signals, err := s.store.ListSignalsByUser(ctx, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("list signals for %s: %w", userID, err)
	}
	return signals, nil
}

// MarkRead marks one signal read. Scoped to the owning user so one user
// cannot clear another's inbox; rereading an already-read signal is a
// domain.ErrNotFound, matching the store's read=FALSE guard.
func (s *InboxService) MarkRead(ctx context.Context, id, userID string) error {
	if id == "" || userID == "" {
		return errors.New("signal id and user id are required")
	}
	if err := s.store.MarkSignalRead(ctx, id, userID); err != nil {
		return fmt.Errorf("mark signal %s read: %w", id, err)
	}
	return nil
}
