package services

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/climetry/go-notify-backend/internal/domain"
	"github.com/climetry/go-notify-backend/internal/payload"
	"github.com/climetry/go-notify-backend/internal/push"
	"github.com/climetry/go-notify-backend/internal/repo"
)

// ---------- test helpers ----------

var fixedNow = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func newSvcDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:svc_%s?mode=memory&cache=shared", uuid.NewString())

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
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
	return db
}

func newTestWatchers(t *testing.T, db *gorm.DB, friendRequestMarker bool) *Watchers {
	t.Helper()
	b, err := payload.NewBuilder("pt-BR")
	if err != nil {
		t.Fatalf("builder: %v", err)
	}
	w := NewWatchers(db, b, friendRequestMarker)
	w.Now = func() time.Time { return fixedNow }
	return w
}

func seedProfile(t *testing.T, db *gorm.DB, id, token string) {
	t.Helper()
	if err := repo.UpsertProfile(context.Background(), db, &domain.UserProfile{ID: id, FCMToken: token}); err != nil {
		t.Fatalf("seed profile %s: %v", id, err)
	}
}

func outboxFor(t *testing.T, db *gorm.DB, collection, id string) []domain.OutboxRecord {
	t.Helper()
	recs, err := repo.ListOutboxBySource(context.Background(), db, collection, id)
	if err != nil {
		t.Fatalf("list outbox: %v", err)
	}
	return recs
}

func countOutbox(t *testing.T, db *gorm.DB) int64 {
	t.Helper()
	n, err := repo.CountOutbox(context.Background(), db, "")
	if err != nil {
		t.Fatalf("count outbox: %v", err)
	}
	return n
}

// fakeGateway records every message and answers with id or err.
type fakeGateway struct {
	mu   sync.Mutex
	sent []push.Message
	id   string
	err  error
}

func (g *fakeGateway) Send(_ context.Context, msg push.Message) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.sent = append(g.sent, msg)
	if g.err != nil {
		return "", g.err
	}
	return g.id, nil
}

func (g *fakeGateway) Close() error { return nil }

func (g *fakeGateway) calls() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.sent)
}
