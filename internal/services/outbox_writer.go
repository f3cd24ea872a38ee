package services

import (
	"context"

	"gorm.io/gorm"

	"github.com/climetry/go-notify-backend/internal/domain"
	"github.com/climetry/go-notify-backend/internal/payload"
	"github.com/climetry/go-notify-backend/internal/repo"
)

// Source identifies the record an outbox entry was produced for.
type Source struct {
	Collection string
	ID         string
}

// OutboxWriter appends pending push requests. It never mutates existing
// records and does not deduplicate; callers guard against re-observation.
type OutboxWriter struct{}

// Enqueue appends one pending record for token and returns its id. Pass the
// caller's transaction to commit it together with the caller's marker.
func (OutboxWriter) Enqueue(ctx context.Context, db *gorm.DB, token string, p payload.Payload, src Source) (string, error) {
	rec := &domain.OutboxRecord{
		Token:            token,
		Notification:     domain.PushNotification{Title: p.Title, Body: p.Body},
		Data:             p.Data,
		SourceCollection: src.Collection,
		SourceID:         src.ID,
	}
	if err := repo.EnqueueOutbox(ctx, db, rec); err != nil {
		return "", err
	}
	return rec.ID, nil
}
