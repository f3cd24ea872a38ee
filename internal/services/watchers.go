// Package services – Watchers
//
// One watcher per observed record kind. A watcher reads the triggering record,
// checks its idempotency marker, resolves the recipient's token, builds the
// payload and appends it to the outbox, then marks the record terminal.
//
// Enqueue and marker write share a transaction, and the marker write is
// conditional on the marker still being open. A duplicate delivery that lost
// the race rolls back its enqueue and counts as skipped.
//
// Observability: every handler opens a span and reports its outcome on
// notify_watcher_events_total.
package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/climetry/go-notify-backend/internal/domain"
	"github.com/climetry/go-notify-backend/internal/payload"
	"github.com/climetry/go-notify-backend/internal/repo"
)

// Reasons recorded on the marker when the recipient has no token.
const (
	ReasonNoToken             = "No FCM token found"
	ReasonNotificationNoToken = "No FCM token"
)

// Watchers holds the process-wide dependencies shared by every watcher.
type Watchers struct {
	DB      *gorm.DB
	Tokens  TokenSource
	Builder *payload.Builder
	Outbox  OutboxWriter

	// FriendRequestMarker enables the processed marker on friend requests.
	// When false the friend request watcher neither checks nor writes it.
	FriendRequestMarker bool

	// Now stamps markers; defaults to time.Now.
	Now func() time.Time
}

// NewWatchers constructs Watchers reading tokens from user profiles.
func NewWatchers(db *gorm.DB, builder *payload.Builder, friendRequestMarker bool) *Watchers {
	return &Watchers{
		DB:                  db,
		Tokens:              TokenResolver{},
		Builder:             builder,
		FriendRequestMarker: friendRequestMarker,
		Now:                 time.Now,
	}
}

// delivery describes one single-recipient watcher run.
type delivery struct {
	event      domain.Event
	collection string
	recipient  string
	// token carried on the record itself; resolved from the profile when empty.
	token    string
	marked   bool
	terminal bool
	noToken  string
}

// OnFriendRequestCreated handles "friend_requests created".
func (w *Watchers) OnFriendRequestCreated(ctx context.Context, id string) error {
	ctx, span := w.start(ctx, "OnFriendRequestCreated", domain.CollectionFriendRequests, id)
	defer span.End()

	r, err := repo.GetFriendRequest(ctx, w.DB, id)
	if err != nil {
		return w.loadFailed(span, domain.KindFriendRequestCreated, domain.CollectionFriendRequests, id, err)
	}
	ev := r.Event()
	return w.deliver(ctx, span, delivery{
		event:      ev,
		collection: domain.CollectionFriendRequests,
		recipient:  ev.ToUserID,
		marked:     w.FriendRequestMarker,
		terminal:   r.Marker().IsTerminal(),
		noToken:    ReasonNoToken,
	})
}

// OnEventInvitationCreated handles "event_invitations created".
func (w *Watchers) OnEventInvitationCreated(ctx context.Context, id string) error {
	ctx, span := w.start(ctx, "OnEventInvitationCreated", domain.CollectionEventInvitations, id)
	defer span.End()

	r, err := repo.GetEventInvitation(ctx, w.DB, id)
	if err != nil {
		return w.loadFailed(span, domain.KindEventInvitationCreated, domain.CollectionEventInvitations, id, err)
	}
	ev := r.Event()
	return w.deliver(ctx, span, delivery{
		event:      ev,
		collection: domain.CollectionEventInvitations,
		recipient:  ev.ParticipantUserID,
		marked:     true,
		terminal:   r.Marker().IsTerminal(),
		noToken:    ReasonNoToken,
	})
}

// OnActivityUpdateCreated handles "activity_updates created".
func (w *Watchers) OnActivityUpdateCreated(ctx context.Context, id string) error {
	ctx, span := w.start(ctx, "OnActivityUpdateCreated", domain.CollectionActivityUpdates, id)
	defer span.End()

	r, err := repo.GetActivityUpdate(ctx, w.DB, id)
	if err != nil {
		return w.loadFailed(span, domain.KindActivityUpdateCreated, domain.CollectionActivityUpdates, id, err)
	}
	ev := r.Event()
	return w.deliver(ctx, span, delivery{
		event:      ev,
		collection: domain.CollectionActivityUpdates,
		recipient:  ev.ParticipantUserID,
		marked:     true,
		terminal:   r.Marker().IsTerminal(),
		noToken:    ReasonNoToken,
	})
}

// OnNotificationCreated handles "notifications created". The record may carry
// its own token; otherwise the recipient's profile token is used.
func (w *Watchers) OnNotificationCreated(ctx context.Context, id string) error {
	ctx, span := w.start(ctx, "OnNotificationCreated", domain.CollectionNotifications, id)
	defer span.End()

	r, err := repo.GetNotification(ctx, w.DB, id)
	if err != nil {
		return w.loadFailed(span, domain.KindGenericNotificationRequested, domain.CollectionNotifications, id, err)
	}
	ev := r.Event()
	return w.deliver(ctx, span, delivery{
		event:      ev,
		collection: domain.CollectionNotifications,
		recipient:  ev.RecipientID,
		token:      ev.Token,
		marked:     true,
		terminal:   r.Marker().IsTerminal(),
		noToken:    ReasonNotificationNoToken,
	})
}

// OnActivityDeleted handles "activities deleted". snapshot is the JSON of the
// record at deletion time.
//
// Every participant except the owner gets its own outbox record. A missing
// token or a failed enqueue for one participant does not stop the others;
// store failures are joined and returned so the change is redelivered.
// Tokens already enqueued for this activity are skipped, which keeps the
// redelivery from notifying anyone twice.
func (w *Watchers) OnActivityDeleted(ctx context.Context, id string, snapshot []byte) error {
	ctx, span := w.start(ctx, "OnActivityDeleted", domain.CollectionActivities, id)
	defer span.End()
	kind := string(domain.KindActivityDeleted)

	ev, err := domain.DecodeActivitySnapshot(id, snapshot)
	if err != nil {
		watcherEvents.WithLabelValues(kind, outcomeError).Inc()
		span.RecordError(err)
		log.Error().Err(err).Str("document_id", id).Msg("undecodable activity snapshot")
		// Redelivering the same bytes cannot help.
		return nil
	}
	recipients := ev.Recipients()
	span.SetAttributes(attribute.Int("recipients", len(recipients)))
	if len(recipients) == 0 {
		watcherEvents.WithLabelValues(kind, outcomeSkipped).Inc()
		return nil
	}

	prior, err := repo.ListOutboxBySource(ctx, w.DB, domain.CollectionActivities, id)
	if err != nil {
		return w.storeFailure(span, kind, id, "list prior outbox records", err)
	}
	sent := make(map[string]struct{}, len(prior))
	for _, rec := range prior {
		sent[rec.Token] = struct{}{}
	}

	p := w.Builder.Build(ev)
	src := Source{Collection: domain.CollectionActivities, ID: id}
	var errs []error
	for _, userID := range recipients {
		token, found, err := w.Tokens.Resolve(ctx, w.DB, userID)
		if err != nil {
			watcherEvents.WithLabelValues(kind, outcomeError).Inc()
			log.Error().Err(err).Str("document_id", id).Str("user_id", userID).Msg("resolve token")
			errs = append(errs, fmt.Errorf("resolve %s: %w", userID, err))
			continue
		}
		if !found {
			watcherEvents.WithLabelValues(kind, outcomeNoToken).Inc()
			log.Info().Str("document_id", id).Str("user_id", userID).Msg("participant has no push token")
			continue
		}
		if _, dup := sent[token]; dup {
			watcherEvents.WithLabelValues(kind, outcomeSkipped).Inc()
			continue
		}
		outboxID, err := w.Outbox.Enqueue(ctx, w.DB, token, p, src)
		if err != nil {
			watcherEvents.WithLabelValues(kind, outcomeError).Inc()
			log.Error().Err(err).Str("document_id", id).Str("user_id", userID).Msg("enqueue deletion notice")
			errs = append(errs, fmt.Errorf("enqueue %s: %w", userID, err))
			continue
		}
		sent[token] = struct{}{}
		watcherEvents.WithLabelValues(kind, outcomeQueued).Inc()
		outboxEnqueued.WithLabelValues(kind).Inc()
		log.Info().Str("document_id", id).Str("user_id", userID).Str("outbox_id", outboxID).Msg("deletion notice queued")
	}
	if err := errors.Join(errs...); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "partial fan-out")
		return err
	}
	return nil
}

// deliver runs guard → resolve → build → enqueue → mark for one recipient.
func (w *Watchers) deliver(ctx context.Context, span trace.Span, d delivery) error {
	kind := string(d.event.Kind())
	id := d.event.SourceID()

	if d.marked && d.terminal {
		watcherEvents.WithLabelValues(kind, outcomeSkipped).Inc()
		log.Debug().Str("collection", d.collection).Str("document_id", id).Msg("already processed")
		return nil
	}

	token := d.token
	if token == "" {
		t, found, err := w.Tokens.Resolve(ctx, w.DB, d.recipient)
		if err != nil {
			return w.storeFailure(span, kind, id, "resolve token", err)
		}
		if found {
			token = t
		}
	}

	if token == "" {
		if d.marked {
			err := repo.MarkTerminal(ctx, w.DB, d.collection, id, domain.OutcomeFailed(d.noToken), w.now())
			if done, outcome := w.markRace(err); done {
				watcherEvents.WithLabelValues(kind, outcome).Inc()
				return nil
			}
			if err != nil {
				return w.storeFailure(span, kind, id, "mark no token", err)
			}
		}
		watcherEvents.WithLabelValues(kind, outcomeNoToken).Inc()
		log.Info().
			Str("collection", d.collection).
			Str("document_id", id).
			Str("user_id", d.recipient).
			Msg(d.noToken)
		return nil
	}

	p := w.Builder.Build(d.event)
	var outboxID string
	err := w.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		outboxID, err = w.Outbox.Enqueue(ctx, tx, token, p, Source{Collection: d.collection, ID: id})
		if err != nil {
			return err
		}
		if !d.marked {
			return nil
		}
		return repo.MarkTerminal(ctx, tx, d.collection, id, domain.OutcomeQueued, w.now())
	})
	if done, outcome := w.markRace(err); done {
		watcherEvents.WithLabelValues(kind, outcome).Inc()
		return nil
	}
	if err != nil {
		return w.storeFailure(span, kind, id, "enqueue", err)
	}

	watcherEvents.WithLabelValues(kind, outcomeQueued).Inc()
	outboxEnqueued.WithLabelValues(kind).Inc()
	span.SetAttributes(attribute.String("outbox.id", outboxID))
	log.Info().
		Str("collection", d.collection).
		Str("document_id", id).
		Str("outbox_id", outboxID).
		Msg("push queued")
	return nil
}

// markRace maps the conditional marker write's benign failures to an outcome.
func (w *Watchers) markRace(err error) (bool, string) {
	switch {
	case errors.Is(err, repo.ErrAlreadyTerminal):
		return true, outcomeSkipped
	case errors.Is(err, repo.ErrNotFound):
		return true, outcomeMissing
	}
	return false, ""
}

// loadFailed handles the read of the triggering record. A record deleted
// before its watcher ran is not an error.
func (w *Watchers) loadFailed(span trace.Span, kind domain.Kind, collection, id string, err error) error {
	if errors.Is(err, repo.ErrNotFound) {
		watcherEvents.WithLabelValues(string(kind), outcomeMissing).Inc()
		log.Warn().Str("collection", collection).Str("document_id", id).Msg("record vanished before watcher ran")
		return nil
	}
	return w.storeFailure(span, string(kind), id, "load record", err)
}

func (w *Watchers) storeFailure(span trace.Span, kind, id, op string, err error) error {
	watcherEvents.WithLabelValues(kind, outcomeError).Inc()
	span.RecordError(err)
	span.SetStatus(codes.Error, op)
	log.Error().Err(err).Str("kind", kind).Str("document_id", id).Msg(op)
	return fmt.Errorf("%s %s: %w", op, id, err)
}

func (w *Watchers) start(ctx context.Context, name, collection, id string) (context.Context, trace.Span) {
	return otel.Tracer("services/Watchers").Start(ctx, name,
		trace.WithAttributes(
			attribute.String("collection", collection),
			attribute.String("document.id", id),
		),
	)
}

func (w *Watchers) now() time.Time {
	if w.Now != nil {
		return w.Now()
	}
	return time.Now()
}
