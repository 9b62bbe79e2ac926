package service

import (
	"context"
	"testing"

	"github.com/kbforge/kbforge/internal/domain/signal"
)

func TestInboxListScopesToUser(t *testing.T) {
	store := newMemStore()
	store.signals = []signal.Signal{
		{ID: "s1", UserID: "user-1", Type: signal.TypeCompletion},
		{ID: "s2", UserID: "user-2", Type: signal.TypeError},
		{ID: "s3", UserID: "user-1", Type: signal.TypeStatusUpdate},
	}
	svc := NewInboxService(store)

	out, err := svc.List(context.Background(), "user-1", 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("signals = %d, want 2", len(out))
	}
	for _, s := range out {
		if s.UserID != "user-1" {
			t.Fatalf("leaked signal %s for %s", s.ID, s.UserID)
		}
	}
}

func TestInboxListRequiresUser(t *testing.T) {
	svc := NewInboxService(newMemStore())

	if _, err := svc.List(context.Background(), "", 10); err == nil {
		t.Fatal("expected error for empty user id")
	}
}

func TestInboxMarkRead(t *testing.T) {
	store := newMemStore()
	store.signals = []signal.Signal{{ID: "s1", UserID: "user-1"}}
	svc := NewInboxService(store)

	if err := svc.MarkRead(context.Background(), "s1", "user-1"); err != nil {
		t.Fatalf("mark read: %v", err)
	}
	if !store.signals[0].Read || store.signals[0].ReadAt == nil {
		t.Fatal("signal not marked read")
	}
}

func TestInboxMarkReadWrongUser(t *testing.T) {
	store := newMemStore()
	store.signals = []signal.Signal{{ID: "s1", UserID: "user-1"}}
	svc := NewInboxService(store)

	if err := svc.MarkRead(context.Background(), "s1", "user-2"); err == nil {
		t.Fatal("expected error for another user's signal")
	}
	if store.signals[0].Read {
		t.Fatal("signal wrongly marked read")
	}
}

func TestInboxMarkReadValidation(t *testing.T) {
	svc := NewInboxService(newMemStore())

	if err := svc.MarkRead(context.Background(), "", "user-1"); err == nil {
		t.Fatal("expected error for empty signal id")
	}
	if err := svc.MarkRead(context.Background(), "s1", ""); err == nil {
		t.Fatal("expected error for empty user id")
	}
}
