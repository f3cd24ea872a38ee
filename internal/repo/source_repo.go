// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the source
// records upstream writers create: friend requests, event invitations,
// activity updates, generic notifications and activities.
//
// Every create on a watched collection writes its change-feed row in the
// same transaction. Activities only announce deletions, and the deletion
// row carries a JSON snapshot of the record since the record itself is gone
// by the time a watcher looks at it.
//
// Marker columns differ per kind:
//   - friend_requests, event_invitations, activity_updates:
//     processed / processed_at / error
//   - notifications: status / sent_at / updated_at / error
//
// MarkTerminal is the only place that spelling is known.
package repo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/climetry/go-notify-backend/internal/domain"
)

// ErrAlreadyTerminal is returned by MarkTerminal when the record's marker
// was already terminal (another delivery of the same change won).
var ErrAlreadyTerminal = errors.New("marker already terminal")

// ErrUnknownCollection is returned for a collection without a marker.
var ErrUnknownCollection = errors.New("unknown collection")

// CreateFriendRequest inserts a friend request and announces it.
func CreateFriendRequest(ctx context.Context, db *gorm.DB, r *domain.FriendRequest) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	r.CreatedAt = time.Now().UTC()
	return createAnnounced(ctx, db, domain.CollectionFriendRequests, r.ID, r)
}

// CreateEventInvitation inserts an event invitation and announces it.
func CreateEventInvitation(ctx context.Context, db *gorm.DB, r *domain.EventInvitation) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	r.CreatedAt = time.Now().UTC()
	return createAnnounced(ctx, db, domain.CollectionEventInvitations, r.ID, r)
}

// CreateActivityUpdate inserts an activity update and announces it.
func CreateActivityUpdate(ctx context.Context, db *gorm.DB, r *domain.ActivityUpdate) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	r.CreatedAt = time.Now().UTC()
	return createAnnounced(ctx, db, domain.CollectionActivityUpdates, r.ID, r)
}

// CreateNotification inserts a generic notification and announces it. An
// empty status is stored as pending.
func CreateNotification(ctx context.Context, db *gorm.DB, n *domain.Notification) error {
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	if n.Status == "" {
		n.Status = domain.NotificationPending
	}
	now := time.Now().UTC()
	n.CreatedAt, n.UpdatedAt = now, now
	return createAnnounced(ctx, db, domain.CollectionNotifications, n.ID, n)
}

// CreateActivity inserts an activity. Creation is not announced.
func CreateActivity(ctx context.Context, db *gorm.DB, a *domain.Activity) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	if a.ParticipantIDs == nil {
		a.ParticipantIDs = []string{}
	}
	a.CreatedAt = time.Now().UTC()
	return db.WithContext(ctx).Create(a).Error
}

// DeleteActivity removes an activity and announces the deletion with a JSON
// snapshot of the removed record. It returns the removed record, or
// ErrNotFound when there was nothing to delete.
func DeleteActivity(ctx context.Context, db *gorm.DB, id string) (*domain.Activity, error) {
	var removed domain.Activity
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ?", id).First(&removed).Error; err != nil {
			return err
		}
		snapshot, err := json.Marshal(removed)
		if err != nil {
			return fmt.Errorf("snapshot activity %s: %w", id, err)
		}
		res := tx.Where("id = ?", id).Delete(&domain.Activity{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return recordChange(tx, domain.CollectionActivities, id, domain.OpDelete, snapshot)
	})
	if err != nil {
		return nil, err
	}
	return &removed, nil
}

// GetFriendRequest fetches a friend request by id, or ErrNotFound.
func GetFriendRequest(ctx context.Context, db *gorm.DB, id string) (*domain.FriendRequest, error) {
	return getByID[domain.FriendRequest](ctx, db, id)
}

// GetEventInvitation fetches an event invitation by id, or ErrNotFound.
func GetEventInvitation(ctx context.Context, db *gorm.DB, id string) (*domain.EventInvitation, error) {
	return getByID[domain.EventInvitation](ctx, db, id)
}

// GetActivityUpdate fetches an activity update by id, or ErrNotFound.
func GetActivityUpdate(ctx context.Context, db *gorm.DB, id string) (*domain.ActivityUpdate, error) {
	return getByID[domain.ActivityUpdate](ctx, db, id)
}

// GetNotification fetches a generic notification by id, or ErrNotFound.
func GetNotification(ctx context.Context, db *gorm.DB, id string) (*domain.Notification, error) {
	return getByID[domain.Notification](ctx, db, id)
}

// MarkTerminal writes the terminal marker for the record (collection, id).
//
// The write is conditional on the marker not being terminal yet. When it is,
// ErrAlreadyTerminal is returned and nothing changes; a missing record yields
// ErrNotFound. Pass the watcher's transaction so the marker commits together
// with the outbox enqueue.
func MarkTerminal(ctx context.Context, db *gorm.DB, collection, id string, outcome domain.Outcome, at time.Time) error {
	at = at.UTC()
	var (
		model   any
		guard   string
		updates map[string]any
	)
	switch collection {
	case domain.CollectionFriendRequests, domain.CollectionEventInvitations, domain.CollectionActivityUpdates:
		guard = "processed = ?"
		updates = map[string]any{
			"processed":    true,
			"processed_at": &at,
		}
		if outcome.Failed {
			updates["error"] = outcome.Reason
		}
		switch collection {
		case domain.CollectionFriendRequests:
			model = &domain.FriendRequest{}
		case domain.CollectionEventInvitations:
			model = &domain.EventInvitation{}
		default:
			model = &domain.ActivityUpdate{}
		}
		return applyMarker(ctx, db, model, id, guard, false, updates)

	case domain.CollectionNotifications:
		if outcome.Failed {
			updates = map[string]any{
				"status":     domain.NotificationFailed,
				"error":      outcome.Reason,
				"updated_at": at,
			}
		} else {
			updates = map[string]any{
				"status":     domain.NotificationSent,
				"sent_at":    &at,
				"updated_at": at,
			}
		}
		return applyMarker(ctx, db, &domain.Notification{}, id, "status = ?", domain.NotificationPending, updates)
	}
	return fmt.Errorf("%w: %s", ErrUnknownCollection, collection)
}

func applyMarker(ctx context.Context, db *gorm.DB, model any, id, guard string, guardArg any, updates map[string]any) error {
	res := db.WithContext(ctx).
		Model(model).
		Where("id = ?", id).
		Where(guard, guardArg).
		Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 1 {
		return nil
	}
	var n int64
	if err := db.WithContext(ctx).Model(model).Where("id = ?", id).Count(&n).Error; err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return ErrAlreadyTerminal
}

func createAnnounced(ctx context.Context, db *gorm.DB, collection, id string, rec any) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(rec).Error; err != nil {
			return err
		}
		return recordChange(tx, collection, id, domain.OpCreate, nil)
	})
}

func getByID[T any](ctx context.Context, db *gorm.DB, id string) (*T, error) {
	var out T
	if err := db.WithContext(ctx).Where("id = ?", id).First(&out).Error; err != nil {
		return nil, err
	}
	return &out, nil
}
