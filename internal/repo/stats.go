// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides small aggregate queries over the outbox
// and the change feed used by the inspection endpoint and the readiness
// check. Each function is context-aware and safe to call from services or
// handlers.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/climetry/go-notify-backend/internal/domain"
)

// OutboxStats summarizes the outbox.
//
// Fields:
//   - ByState:      number of records per delivery state (every state present)
//   - LastEnqueued: greatest CreatedAt, or nil when the outbox is empty
//   - PendingChanges / DeadChanges: change-feed backlog
type OutboxStats struct {
	ByState        map[domain.DeliveryState]int64 `json:"by_state"`
	LastEnqueued   *time.Time                     `json:"last_enqueued,omitempty"`
	PendingChanges int64                          `json:"pending_changes"`
	DeadChanges    int64                          `json:"dead_changes"`
}

// GetOutboxStats computes OutboxStats with a handful of lightweight queries.
func GetOutboxStats(ctx context.Context, db *gorm.DB) (*OutboxStats, error) {
	st := &OutboxStats{ByState: map[domain.DeliveryState]int64{
		domain.DeliveryPending: 0,
		domain.DeliverySent:    0,
		domain.DeliveryFailed:  0,
	}}

	var rows []struct {
		DeliveryState domain.DeliveryState
		N             int64
	}
	if err := db.WithContext(ctx).
		Model(&domain.OutboxRecord{}).
		Select("delivery_state, COUNT(*) AS n").
		Group("delivery_state").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	total := int64(0)
	for _, r := range rows {
		st.ByState[r.DeliveryState] = r.N
		total += r.N
	}

	if total > 0 {
		// Get latest created_at (avoid MAX() -> TEXT in SQLite)
		var row struct {
			CreatedAt time.Time
		}
		if err := db.WithContext(ctx).
			Model(&domain.OutboxRecord{}).
			Select("created_at").
			Order("created_at DESC").
			Limit(1).
			Scan(&row).Error; err != nil {
			return nil, err
		}
		st.LastEnqueued = &row.CreatedAt
	}

	var err error
	if st.PendingChanges, err = CountChanges(ctx, db, domain.ChangePending); err != nil {
		return nil, err
	}
	if st.DeadChanges, err = CountChanges(ctx, db, domain.ChangeDead); err != nil {
		return nil, err
	}
	return st, nil
}
