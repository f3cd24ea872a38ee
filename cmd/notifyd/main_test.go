package main

import (
	"context"
	"fmt"
	"testing"

	sqlite "github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/climetry/go-notify-backend/internal/domain"
	"github.com/climetry/go-notify-backend/internal/payload"
	"github.com/climetry/go-notify-backend/internal/push"
	"github.com/climetry/go-notify-backend/internal/repo"
	"github.com/climetry/go-notify-backend/internal/services"
	"github.com/climetry/go-notify-backend/internal/trigger"
)

func newPipeline(t *testing.T) (*gorm.DB, *trigger.Runner) {
	t.Helper()
	dsn := fmt.Sprintf("file:notifyd_%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	if err := repo.AutoMigrate(db); err != nil {
		t.Fatalf("automigrate: %v", err)
	}

	builder, err := payload.NewBuilder("pt-BR")
	if err != nil {
		t.Fatalf("builder: %v", err)
	}
	r := trigger.NewRunner(db, trigger.Options{})
	registerHandlers(r,
		services.NewWatchers(db, builder, true),
		services.NewDispatcher(db, push.NewLogGateway(), "test_channel"),
	)
	return db, r
}

// drain runs the feed until nothing is left to claim.
func drain(t *testing.T, r *trigger.Runner) {
	t.Helper()
	for i := 0; i < 10; i++ {
		n, err := r.RunOnce(context.Background())
		if err != nil {
			t.Fatalf("RunOnce: %v", err)
		}
		if n == 0 {
			return
		}
	}
	t.Fatalf("change feed did not drain")
}

func seedProfile(t *testing.T, db *gorm.DB, id, token string) {
	t.Helper()
	if err := repo.UpsertProfile(context.Background(), db, &domain.UserProfile{ID: id, FCMToken: token}); err != nil {
		t.Fatalf("upsert profile: %v", err)
	}
}

func TestPipeline_FriendRequestIsSent(t *testing.T) {
	ctx := context.Background()
	db, r := newPipeline(t)
	seedProfile(t, db, "u1", "tok-u1")

	fr := &domain.FriendRequest{FromUserID: "u2", FromUserName: "Ana", ToUserID: "u1"}
	if err := repo.CreateFriendRequest(ctx, db, fr); err != nil {
		t.Fatalf("create: %v", err)
	}
	drain(t, r)

	recs, err := repo.ListOutboxBySource(ctx, db, domain.CollectionFriendRequests, fr.ID)
	if err != nil || len(recs) != 1 {
		t.Fatalf("expected one outbox record, got %d (%v)", len(recs), err)
	}
	if recs[0].Token != "tok-u1" || recs[0].DeliveryState != domain.DeliverySent || recs[0].GatewayMessageID == "" {
		t.Fatalf("unexpected record: %+v", recs[0])
	}

	got, err := repo.GetFriendRequest(ctx, db, fr.ID)
	if err != nil || !got.Marker().IsTerminal() {
		t.Fatalf("friend request should be marked processed: %+v %v", got, err)
	}
}

func TestPipeline_ActivityDeletionFansOut(t *testing.T) {
	ctx := context.Background()
	db, r := newPipeline(t)
	seedProfile(t, db, "p1", "tok-p1")
	seedProfile(t, db, "p2", "tok-p2")

	a := &domain.Activity{Title: "Praia", OwnerID: "owner", ParticipantIDs: []string{"owner", "p1", "p2", "p3"}}
	if err := repo.CreateActivity(ctx, db, a); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := repo.DeleteActivity(ctx, db, a.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	drain(t, r)

	recs, err := repo.ListOutboxBySource(ctx, db, domain.CollectionActivities, a.ID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(recs) != 2 {
		t.Fatalf("expected pushes for p1 and p2 only, got %d", len(recs))
	}
	for _, rec := range recs {
		if rec.DeliveryState != domain.DeliverySent {
			t.Fatalf("record %s not sent: %s", rec.ID, rec.DeliveryState)
		}
	}
	if dead, _ := repo.CountChanges(ctx, db, domain.ChangeDead); dead != 0 {
		t.Fatalf("no change should have died, got %d", dead)
	}
}
