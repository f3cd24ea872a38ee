package repo

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/climetry/go-notify-backend/internal/domain"
)

func TestEnqueueOutbox_PendingAndAnnounced(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	rec := &domain.OutboxRecord{
		Token:            "tok1",
		Notification:     domain.PushNotification{Title: "Nova solicitação de amizade", Body: "Ana quer ser seu amigo"},
		Data:             map[string]string{"type": "friend_request"},
		DeliveryState:    domain.DeliverySent, // overwritten
		SourceCollection: domain.CollectionFriendRequests,
		SourceID:         "fr1",
	}
	if err := EnqueueOutbox(ctx, db, rec); err != nil {
		t.Fatalf("EnqueueOutbox: %v", err)
	}
	if rec.ID == "" || rec.CreatedAt.IsZero() || rec.DeliveryState != domain.DeliveryPending {
		t.Fatalf("unexpected record after enqueue: %+v", rec)
	}

	got, err := GetOutbox(ctx, db, rec.ID)
	if err != nil {
		t.Fatalf("GetOutbox: %v", err)
	}
	if got.Notification.Title != rec.Notification.Title || got.Data["type"] != "friend_request" || got.DeliveryState != domain.DeliveryPending {
		t.Fatalf("readback mismatch: %+v", got)
	}

	changes := allChanges(t, db)
	if len(changes) != 1 || changes[0].Collection != domain.CollectionOutbox || changes[0].DocumentID != rec.ID || changes[0].Op != domain.OpCreate {
		t.Fatalf("expected one outbox create change, got %+v", changes)
	}
}

func TestEnqueueOutbox_NilDataStoredAsEmpty(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	rec := &domain.OutboxRecord{Token: "tok"}
	if err := EnqueueOutbox(ctx, db, rec); err != nil {
		t.Fatalf("EnqueueOutbox: %v", err)
	}
	got, _ := GetOutbox(ctx, db, rec.ID)
	if got.Data == nil || len(got.Data) != 0 {
		t.Fatalf("expected empty data map, got %#v", got.Data)
	}
}

func TestOutboxTransitions_Monotonic(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	sent := &domain.OutboxRecord{Token: "a"}
	failed := &domain.OutboxRecord{Token: "b"}
	_ = EnqueueOutbox(ctx, db, sent)
	_ = EnqueueOutbox(ctx, db, failed)

	at := time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC)
	if err := MarkOutboxSent(ctx, db, sent.ID, "projects/p/messages/1", at); err != nil {
		t.Fatalf("MarkOutboxSent: %v", err)
	}
	if err := MarkOutboxFailed(ctx, db, failed.ID, "invalid token"); err != nil {
		t.Fatalf("MarkOutboxFailed: %v", err)
	}

	gotSent, _ := GetOutbox(ctx, db, sent.ID)
	if gotSent.DeliveryState != domain.DeliverySent || gotSent.SentAt == nil || !gotSent.SentAt.Equal(at) || gotSent.GatewayMessageID != "projects/p/messages/1" {
		t.Fatalf("sent record unexpected: %+v", gotSent)
	}
	gotFailed, _ := GetOutbox(ctx, db, failed.ID)
	if gotFailed.DeliveryState != domain.DeliveryFailed || gotFailed.Error != "invalid token" || gotFailed.SentAt != nil {
		t.Fatalf("failed record unexpected: %+v", gotFailed)
	}

	// terminal states never move again
	if err := MarkOutboxFailed(ctx, db, sent.ID, "late"); !errors.Is(err, ErrStateConflict) {
		t.Fatalf("expected ErrStateConflict for sent->failed, got %v", err)
	}
	if err := MarkOutboxSent(ctx, db, failed.ID, "x", at); !errors.Is(err, ErrStateConflict) {
		t.Fatalf("expected ErrStateConflict for failed->sent, got %v", err)
	}
	again, _ := GetOutbox(ctx, db, sent.ID)
	if again.DeliveryState != domain.DeliverySent || again.Error != "" {
		t.Fatalf("sent record changed: %+v", again)
	}

	if err := MarkOutboxSent(ctx, db, "missing", "x", at); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestListOutboxPage_FilterAndCount(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		rec := &domain.OutboxRecord{Token: "t", SourceCollection: domain.CollectionActivities, SourceID: "a1"}
		if err := EnqueueOutbox(ctx, db, rec); err != nil {
			t.Fatalf("enqueue: %v", err)
		}
		if i == 0 {
			_ = MarkOutboxFailed(ctx, db, rec.ID, "x")
		}
	}

	all, err := CountOutbox(ctx, db, "")
	if err != nil || all != 3 {
		t.Fatalf("CountOutbox all = %d, %v", all, err)
	}
	pending, _ := CountOutbox(ctx, db, domain.DeliveryPending)
	failed, _ := CountOutbox(ctx, db, domain.DeliveryFailed)
	if pending != 2 || failed != 1 {
		t.Fatalf("unexpected counts pending=%d failed=%d", pending, failed)
	}

	page, err := ListOutboxPage(ctx, db, domain.DeliveryPending, 0, 1)
	if err != nil || len(page) != 1 || page[0].DeliveryState != domain.DeliveryPending {
		t.Fatalf("unexpected page: %+v, %v", page, err)
	}

	bySource, err := ListOutboxBySource(ctx, db, domain.CollectionActivities, "a1")
	if err != nil || len(bySource) != 3 {
		t.Fatalf("ListOutboxBySource = %d, %v", len(bySource), err)
	}
}

func TestTransitionOutbox_RejectsUnreachableTarget(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	rec := &domain.OutboxRecord{Token: "a"}
	if err := EnqueueOutbox(ctx, db, rec); err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	for _, next := range []domain.DeliveryState{domain.DeliveryPending, "archived"} {
		err := transitionOutbox(ctx, db, rec.ID, next, map[string]any{"error": "x"})
		if !errors.Is(err, ErrInvalidTransition) {
			t.Fatalf("target %q: expected ErrInvalidTransition, got %v", next, err)
		}
	}
	got, _ := GetOutbox(ctx, db, rec.ID)
	if got.DeliveryState != domain.DeliveryPending || got.Error != "" {
		t.Fatalf("record must be untouched, got %+v", got)
	}
}
