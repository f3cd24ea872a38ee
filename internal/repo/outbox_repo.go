// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the push
// outbox (fcm_messages).
//
// Functions:
//
//   - EnqueueOutbox(ctx, db, rec) -> error
//     Appends a pending record and the change row announcing it.
//
//   - GetOutbox(ctx, db, id) -> *domain.OutboxRecord, error
//     Fetches a record by id, or ErrNotFound.
//
//   - CountOutbox / ListOutboxPage
//     Paginated inspection, optionally filtered by delivery state.
//
//   - MarkOutboxSent / MarkOutboxFailed
//     The two delivery transitions. Both only apply to a pending record and
//     return ErrStateConflict when the record already left pending.
package repo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/climetry/go-notify-backend/internal/domain"
)

// ErrStateConflict is returned when a delivery transition is attempted on a
// record that is no longer pending.
var ErrStateConflict = errors.New("delivery state already terminal")

// ErrInvalidTransition is returned for a target state a pending record can
// never move to.
var ErrInvalidTransition = errors.New("invalid delivery state transition")

// EnqueueOutbox appends rec as a pending record. ID and CreatedAt are
// assigned here; any DeliveryState set by the caller is overwritten.
//
// Pass a transaction handle to make the enqueue atomic with other writes.
func EnqueueOutbox(ctx context.Context, db *gorm.DB, rec *domain.OutboxRecord) error {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	rec.CreatedAt = time.Now().UTC()
	rec.DeliveryState = domain.DeliveryPending
	rec.SentAt = nil
	rec.Error = ""
	rec.GatewayMessageID = ""
	if rec.Data == nil {
		rec.Data = map[string]string{}
	}

	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(rec).Error; err != nil {
			return err
		}
		return recordChange(tx, domain.CollectionOutbox, rec.ID, domain.OpCreate, nil)
	})
}

// GetOutbox fetches a single outbox record by id.
func GetOutbox(ctx context.Context, db *gorm.DB, id string) (*domain.OutboxRecord, error) {
	var rec domain.OutboxRecord
	if err := db.WithContext(ctx).Where("id = ?", id).First(&rec).Error; err != nil {
		return nil, err
	}
	return &rec, nil
}

// CountOutbox returns the number of outbox records, optionally restricted to
// one delivery state (empty state means all).
func CountOutbox(ctx context.Context, db *gorm.DB, state domain.DeliveryState) (int64, error) {
	var total int64
	err := outboxScope(db.WithContext(ctx), state).
		Model(&domain.OutboxRecord{}).
		Count(&total).Error
	return total, err
}

// ListOutboxPage returns a page of outbox records, newest first.
func ListOutboxPage(ctx context.Context, db *gorm.DB, state domain.DeliveryState, offset, limit int) ([]domain.OutboxRecord, error) {
	var out []domain.OutboxRecord
	err := outboxScope(db.WithContext(ctx), state).
		Order("created_at desc").
		Offset(offset).
		Limit(limit).
		Find(&out).Error
	return out, err
}

// ListOutboxBySource returns every record produced by one source record.
func ListOutboxBySource(ctx context.Context, db *gorm.DB, collection, sourceID string) ([]domain.OutboxRecord, error) {
	var out []domain.OutboxRecord
	err := db.WithContext(ctx).
		Where("source_collection = ? AND source_id = ?", collection, sourceID).
		Order("created_at asc").
		Find(&out).Error
	return out, err
}

// MarkOutboxSent transitions a pending record to sent.
func MarkOutboxSent(ctx context.Context, db *gorm.DB, id, gatewayMessageID string, at time.Time) error {
	at = at.UTC()
	return transitionOutbox(ctx, db, id, domain.DeliverySent, map[string]any{
		"sent_at":            &at,
		"gateway_message_id": gatewayMessageID,
	})
}

// MarkOutboxFailed transitions a pending record to failed with a reason.
func MarkOutboxFailed(ctx context.Context, db *gorm.DB, id, reason string) error {
	return transitionOutbox(ctx, db, id, domain.DeliveryFailed, map[string]any{
		"error": reason,
	})
}

// transitionOutbox moves a pending record to next and applies updates with
// it. It returns ErrInvalidTransition when next is not reachable from
// pending, ErrNotFound for a missing record and ErrStateConflict when the
// record already reached a terminal state.
func transitionOutbox(ctx context.Context, db *gorm.DB, id string, next domain.DeliveryState, updates map[string]any) error {
	if !domain.DeliveryPending.CanTransition(next) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, domain.DeliveryPending, next)
	}
	updates["delivery_state"] = next
	res := db.WithContext(ctx).
		Model(&domain.OutboxRecord{}).
		Where("id = ? AND delivery_state = ?", id, domain.DeliveryPending).
		Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 1 {
		return nil
	}
	if _, err := GetOutbox(ctx, db, id); err != nil {
		return err
	}
	return ErrStateConflict
}

func outboxScope(db *gorm.DB, state domain.DeliveryState) *gorm.DB {
	if state == "" {
		return db
	}
	return db.Where("delivery_state = ?", state)
}
