// Package services – IngestService
//
// IngestService is the write side used by upstream producers: it registers
// profiles and tokens and creates the records the watchers react to. Every
// create goes through the repo layer, which records the change-feed row in
// the same transaction, so nothing written here is ever missed by a watcher.
//
// It also owns the Idempotency-Key bookkeeping for ingestion POSTs: a retried
// POST with the same key returns the id of the record created the first time.
package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/climetry/go-notify-backend/internal/domain"
	"github.com/climetry/go-notify-backend/internal/repo"
)

// IngestService creates profiles and source records.
type IngestService struct {
	// DB is the GORM handle used for persistence.
	DB *gorm.DB
	// IdempotencyTTL bounds how long an Idempotency-Key replays its result.
	IdempotencyTTL time.Duration
}

// NewIngestService constructs an IngestService.
func NewIngestService(db *gorm.DB, idemTTL time.Duration) *IngestService {
	if idemTTL <= 0 {
		idemTTL = 24 * time.Hour
	}
	return &IngestService{DB: db, IdempotencyTTL: idemTTL}
}

// UpsertProfile creates or replaces a user's profile and push token. An empty
// token clears it.
func (s *IngestService) UpsertProfile(ctx context.Context, id, displayName, token string) (*domain.UserProfile, error) {
	tr := otel.Tracer("services/IngestService")
	ctx, span := tr.Start(ctx, "UpsertProfile",
		trace.WithAttributes(attribute.String("user.id", id)),
	)
	defer span.End()

	id = strings.TrimSpace(id)
	if id == "" {
		return nil, ErrInvalidEvent
	}
	p := &domain.UserProfile{
		ID:          id,
		DisplayName: strings.TrimSpace(displayName),
		FCMToken:    strings.TrimSpace(token),
	}
	if err := repo.UpsertProfile(ctx, s.DB, p); err != nil {
		span.RecordError(err)
		return nil, err
	}
	return repo.GetProfile(ctx, s.DB, id)
}

// CreateFriendRequest stores a friend request. ToUserID is required.
func (s *IngestService) CreateFriendRequest(ctx context.Context, r *domain.FriendRequest) error {
	ctx, span := s.start(ctx, "CreateFriendRequest")
	defer span.End()

	if strings.TrimSpace(r.ToUserID) == "" || strings.TrimSpace(r.FromUserID) == "" {
		return ErrInvalidEvent
	}
	return repo.CreateFriendRequest(ctx, s.DB, r)
}

// CreateEventInvitation stores an invitation. ParticipantUserID is required.
func (s *IngestService) CreateEventInvitation(ctx context.Context, r *domain.EventInvitation) error {
	ctx, span := s.start(ctx, "CreateEventInvitation")
	defer span.End()

	if strings.TrimSpace(r.ParticipantUserID) == "" {
		return ErrInvalidEvent
	}
	return repo.CreateEventInvitation(ctx, s.DB, r)
}

// CreateActivityUpdate stores an activity update. ParticipantUserID is required.
func (s *IngestService) CreateActivityUpdate(ctx context.Context, r *domain.ActivityUpdate) error {
	ctx, span := s.start(ctx, "CreateActivityUpdate")
	defer span.End()

	if strings.TrimSpace(r.ParticipantUserID) == "" {
		return ErrInvalidEvent
	}
	return repo.CreateActivityUpdate(ctx, s.DB, r)
}

// CreateNotification stores a generic notification. Either a recipient or a
// token must be given.
func (s *IngestService) CreateNotification(ctx context.Context, n *domain.Notification) error {
	ctx, span := s.start(ctx, "CreateNotification")
	defer span.End()

	if strings.TrimSpace(n.RecipientID) == "" && strings.TrimSpace(n.FCMToken) == "" {
		return ErrInvalidEvent
	}
	n.Status = domain.NotificationPending
	n.Error = ""
	n.SentAt = nil
	return repo.CreateNotification(ctx, s.DB, n)
}

// CreateActivity stores an activity. OwnerID is required.
func (s *IngestService) CreateActivity(ctx context.Context, a *domain.Activity) error {
	ctx, span := s.start(ctx, "CreateActivity")
	defer span.End()

	if strings.TrimSpace(a.OwnerID) == "" {
		return ErrInvalidEvent
	}
	return repo.CreateActivity(ctx, s.DB, a)
}

// DeleteActivity removes an activity; its participants are notified by the
// deletion watcher.
func (s *IngestService) DeleteActivity(ctx context.Context, id string) (*domain.Activity, error) {
	ctx, span := s.start(ctx, "DeleteActivity")
	defer span.End()
	span.SetAttributes(attribute.String("activity.id", id))

	a, err := repo.DeleteActivity(ctx, s.DB, id)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrRecordNotFound
	}
	return a, err
}

// Replayed returns the document id stored for a previous request with the
// same (userID, collection, key), if it is still within its TTL.
func (s *IngestService) Replayed(ctx context.Context, userID, collection, key string) (string, bool) {
	rec, err := repo.GetIdempotency(ctx, s.DB, userID, collection, key, time.Now().UTC())
	if err != nil || rec == nil {
		return "", false
	}
	return rec.DocumentID, true
}

// Remember records documentID as the result of (userID, collection, key).
// A concurrent request that already recorded the key wins; the duplicate is
// ignored.
func (s *IngestService) Remember(ctx context.Context, userID, collection, key, documentID string, status int) error {
	if strings.TrimSpace(key) == "" {
		return nil
	}
	_, err := repo.CreateIdempotency(ctx, s.DB, userID, collection, key, documentID, status, s.IdempotencyTTL)
	if errors.Is(err, repo.ErrDuplicate) {
		return nil
	}
	return err
}

func (s *IngestService) start(ctx context.Context, name string) (context.Context, trace.Span) {
	return otel.Tracer("services/IngestService").Start(ctx, name)
}
