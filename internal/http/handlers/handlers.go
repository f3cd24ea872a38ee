package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/climetry/go-notify-backend/internal/domain"
	"github.com/climetry/go-notify-backend/internal/repo"
	"github.com/climetry/go-notify-backend/internal/services"
	"github.com/climetry/go-notify-backend/internal/utils"
)

//
// Service contracts (context-aware)
//

// IngestService is the write side used by upstream producers.
type IngestService interface {
	UpsertProfile(ctx context.Context, id, displayName, token string) (*domain.UserProfile, error)
	CreateFriendRequest(ctx context.Context, r *domain.FriendRequest) error
	CreateEventInvitation(ctx context.Context, r *domain.EventInvitation) error
	CreateActivityUpdate(ctx context.Context, r *domain.ActivityUpdate) error
	CreateNotification(ctx context.Context, n *domain.Notification) error
	CreateActivity(ctx context.Context, a *domain.Activity) error
	DeleteActivity(ctx context.Context, id string) (*domain.Activity, error)

	// Replayed returns the document created by an earlier request with the
	// same idempotency key.
	Replayed(ctx context.Context, userID, collection, key string) (string, bool)
	// Remember stores the document created for an idempotency key.
	Remember(ctx context.Context, userID, collection, key, documentID string, status int) error
}

// OutboxService is the read side of the push outbox.
type OutboxService interface {
	ListPage(ctx context.Context, state domain.DeliveryState, page, pageSize int) ([]domain.OutboxRecord, int64, error)
	Get(ctx context.Context, id string) (*domain.OutboxRecord, error)
	Stats(ctx context.Context) (*repo.OutboxStats, error)
}

// Handlers groups the ingestion and outbox endpoints.
type Handlers struct {
	ingest IngestService
	outbox OutboxService
}

// New constructs Handlers bound to the given services.
func New(ingest IngestService, outbox OutboxService) *Handlers {
	return &Handlers{ingest: ingest, outbox: outbox}
}

// Pagination describes a page of results.
type Pagination struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
	HasNext    bool  `json:"has_next"`
}

func newPagination(page, pageSize int, total int64) Pagination {
	p := utils.Page{Number: page, Size: pageSize}
	return Pagination{
		Page:       page,
		PageSize:   pageSize,
		Total:      total,
		TotalPages: p.TotalPages(total),
		HasNext:    p.HasNext(total),
	}
}

// clampPagination parses page/page_size, applying defaults and caps.
func clampPagination(c *gin.Context) (page, pageSize int) {
	const (
		defaultPage     = 1
		defaultPageSize = 20
		maxPageSize     = 100
	)
	p := utils.NewPage(
		utils.AtoiDefault(c.Query("page"), defaultPage),
		utils.AtoiDefault(c.Query("page_size"), defaultPageSize),
		maxPageSize,
	)
	return p.Number, p.Size
}

// failService maps service errors onto the envelope; anything unknown is a
// 5xx with fallbackCode.
func failService(c *gin.Context, err error, fallbackCode string) {
	switch {
	case errors.Is(err, services.ErrInvalidEvent):
		fail(c, http.StatusBadRequest, ErrCodeInvalidEvent, "missing required fields")
	case errors.Is(err, services.ErrInvalidState):
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "state must be one of pending, sent, failed")
	case errors.Is(err, services.ErrRecordNotFound):
		fail(c, http.StatusNotFound, ErrCodeNotFound, "record not found")
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		fail(c, http.StatusServiceUnavailable, ErrCodeUnavailable, "request timed out")
	default:
		fail(c, http.StatusInternalServerError, fallbackCode, err.Error())
	}
}
