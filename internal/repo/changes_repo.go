// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides the change feed: the rows that announce
// creates and deletes on watched collections, and the lease/ack/fail cycle
// the trigger runner drives them through.
//
// A change row is always written inside the transaction that performs the
// change itself, so a committed record is never missing its announcement.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/climetry/go-notify-backend/internal/domain"
)

// recordChange appends a pending change row. tx must be the transaction that
// performs the announced change.
func recordChange(tx *gorm.DB, collection, documentID string, op domain.ChangeOp, snapshot []byte) error {
	now := time.Now().UTC()
	return tx.Create(&domain.DocumentChange{
		Collection: collection,
		DocumentID: documentID,
		Op:         op,
		Snapshot:   snapshot,
		Status:     domain.ChangePending,
		LeaseUntil: now,
		CreatedAt:  now,
	}).Error
}

// ClaimChanges leases up to limit pending changes whose previous lease (if
// any) has expired, oldest first. Every returned change has its Attempts
// already incremented and stays invisible to other pollers until now+lease.
//
// Each row is claimed with a conditional update so two pollers racing on the
// same row never both win it.
func ClaimChanges(ctx context.Context, db *gorm.DB, now time.Time, lease time.Duration, limit int) ([]domain.DocumentChange, error) {
	now = now.UTC()
	until := now.Add(lease)
	var claimed []domain.DocumentChange

	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var candidates []domain.DocumentChange
		if err := tx.
			Where("status = ? AND lease_until <= ?", domain.ChangePending, now).
			Order("id asc").
			Limit(limit).
			Find(&candidates).Error; err != nil {
			return err
		}

		claimed = make([]domain.DocumentChange, 0, len(candidates))
		for _, c := range candidates {
			res := tx.Model(&domain.DocumentChange{}).
				Where("id = ? AND status = ? AND lease_until <= ?", c.ID, domain.ChangePending, now).
				Updates(map[string]any{
					"lease_until": until,
					"attempts":    gorm.Expr("attempts + 1"),
				})
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				continue
			}
			c.LeaseUntil = until
			c.Attempts++
			claimed = append(claimed, c)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return claimed, nil
}

// AckChange removes a change that its handler processed successfully.
func AckChange(ctx context.Context, db *gorm.DB, id uint64) error {
	return db.WithContext(ctx).Delete(&domain.DocumentChange{}, id).Error
}

// FailChange records a handler failure. When the change has used up
// maxAttempts it is parked as dead and FailChange reports true; otherwise it
// becomes visible again at retryAt.
func FailChange(ctx context.Context, db *gorm.DB, c domain.DocumentChange, cause error, maxAttempts int, retryAt time.Time) (bool, error) {
	msg := ""
	if cause != nil {
		msg = cause.Error()
	}
	updates := map[string]any{"last_error": msg}
	dead := c.Attempts >= maxAttempts
	if dead {
		updates["status"] = domain.ChangeDead
	} else {
		updates["lease_until"] = retryAt.UTC()
	}
	err := db.WithContext(ctx).
		Model(&domain.DocumentChange{}).
		Where("id = ?", c.ID).
		Updates(updates).Error
	return dead, err
}

// CountChanges returns how many change rows are in the given status.
func CountChanges(ctx context.Context, db *gorm.DB, status string) (int64, error) {
	var n int64
	err := db.WithContext(ctx).
		Model(&domain.DocumentChange{}).
		Where("status = ?", status).
		Count(&n).Error
	return n, err
}
