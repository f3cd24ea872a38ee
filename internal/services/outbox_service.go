// Package services – OutboxService
//
// Read-only inspection of the push outbox. Delivery failures are recorded as
// data on the records, so this is how operators see them.
package services

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/climetry/go-notify-backend/internal/domain"
	"github.com/climetry/go-notify-backend/internal/repo"
	"github.com/climetry/go-notify-backend/internal/utils"
)

// OutboxService lists and fetches outbox records.
type OutboxService struct {
	DB *gorm.DB
}

// NewOutboxService constructs an OutboxService.
func NewOutboxService(db *gorm.DB) *OutboxService {
	return &OutboxService{DB: db}
}

// ListPage returns a page of records, newest first, optionally filtered by
// delivery state, together with the total matching count.
func (s *OutboxService) ListPage(ctx context.Context, state domain.DeliveryState, page, pageSize int) ([]domain.OutboxRecord, int64, error) {
	tr := otel.Tracer("services/OutboxService")
	ctx, span := tr.Start(ctx, "ListPage",
		trace.WithAttributes(
			attribute.String("state", string(state)),
			attribute.Int("page", page),
			attribute.Int("page_size", pageSize),
		),
	)
	defer span.End()

	switch state {
	case "", domain.DeliveryPending, domain.DeliverySent, domain.DeliveryFailed:
	default:
		return nil, 0, ErrInvalidState
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	p := utils.NewPage(page, pageSize, 0)

	total, err := repo.CountOutbox(ctx, s.DB, state)
	if err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []domain.OutboxRecord{}, 0, nil
	}
	items, err := repo.ListOutboxPage(ctx, s.DB, state, p.Offset(), p.Size)
	return items, total, err
}

// Get returns one record or ErrRecordNotFound.
func (s *OutboxService) Get(ctx context.Context, id string) (*domain.OutboxRecord, error) {
	tr := otel.Tracer("services/OutboxService")
	ctx, span := tr.Start(ctx, "Get",
		trace.WithAttributes(attribute.String("outbox.id", id)),
	)
	defer span.End()

	rec, err := repo.GetOutbox(ctx, s.DB, id)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrRecordNotFound
	}
	return rec, err
}

// Stats returns per-state counts and change-feed backlog.
func (s *OutboxService) Stats(ctx context.Context) (*repo.OutboxStats, error) {
	tr := otel.Tracer("services/OutboxService")
	ctx, span := tr.Start(ctx, "Stats")
	defer span.End()

	return repo.GetOutboxStats(ctx, s.DB)
}
