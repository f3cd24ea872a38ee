// Package services – Dispatcher
//
// The Dispatcher reacts to new outbox records. It is the only component that
// changes a record's delivery state, and it does so at most once:
// pending → sent or pending → failed. A gateway rejection is data, recorded
// on the record; it is not an error of the handler and is never retried.
package services

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/climetry/go-notify-backend/internal/domain"
	"github.com/climetry/go-notify-backend/internal/push"
	"github.com/climetry/go-notify-backend/internal/repo"
)

// Dispatcher delivers outbox records through a push gateway.
type Dispatcher struct {
	// DB is the GORM handle used for persistence.
	DB *gorm.DB
	// Gateway performs the actual send.
	Gateway push.Gateway
	// AndroidChannel is the notification channel put in the Android hints.
	AndroidChannel string
	// Now is the clock used for sentAt; defaults to time.Now.
	Now func() time.Time
}

// NewDispatcher constructs a Dispatcher.
func NewDispatcher(db *gorm.DB, gw push.Gateway, androidChannel string) *Dispatcher {
	return &Dispatcher{DB: db, Gateway: gw, AndroidChannel: androidChannel, Now: time.Now}
}

// Dispatch handles "outbox record created" for outboxID.
//
// Semantics:
//   - missing record or a record no longer pending: no-op
//   - gateway success: sent + sentAt + gateway message id
//   - gateway failure: failed + the gateway's error description
//
// Only store failures are returned; the trigger runner then redelivers.
func (d *Dispatcher) Dispatch(ctx context.Context, outboxID string) error {
	tr := otel.Tracer("services/Dispatcher")
	ctx, span := tr.Start(ctx, "Dispatch",
		trace.WithAttributes(attribute.String("outbox.id", outboxID)),
	)
	defer span.End()

	rec, err := repo.GetOutbox(ctx, d.DB, outboxID)
	if errors.Is(err, repo.ErrNotFound) {
		dispatches.WithLabelValues(dispatchSkipped).Inc()
		log.Warn().Str("outbox_id", outboxID).Msg("outbox record vanished before dispatch")
		return nil
	}
	if err != nil {
		return d.storeFailure(span, outboxID, "load outbox record", err)
	}
	if rec.DeliveryState != domain.DeliveryPending {
		dispatches.WithLabelValues(dispatchSkipped).Inc()
		log.Debug().Str("outbox_id", outboxID).Str("state", string(rec.DeliveryState)).Msg("outbox record already delivered")
		return nil
	}

	msg := push.Envelope(*rec, d.AndroidChannel)
	start := time.Now()
	msgID, sendErr := d.Gateway.Send(ctx, msg)
	code := "ok"
	if sendErr != nil {
		code = push.CodeOf(sendErr)
	}
	gatewayLatency.WithLabelValues(code).Observe(time.Since(start).Seconds())

	if sendErr != nil {
		var gerr *push.GatewayError
		invalidToken := errors.As(sendErr, &gerr) && gerr.InvalidToken()
		span.SetStatus(codes.Error, "gateway rejected push")
		span.SetAttributes(
			attribute.String("gateway.code", code),
			attribute.Bool("gateway.invalid_token", invalidToken),
		)
		reason := push.Describe(sendErr)
		err = repo.MarkOutboxFailed(ctx, d.DB, rec.ID, reason)
		if errors.Is(err, repo.ErrStateConflict) {
			dispatches.WithLabelValues(dispatchSkipped).Inc()
			return nil
		}
		if err != nil {
			return d.storeFailure(span, outboxID, "mark outbox failed", err)
		}
		dispatches.WithLabelValues(dispatchFailed).Inc()
		log.Warn().
			Str("outbox_id", rec.ID).
			Str("token", push.MaskToken(rec.Token)).
			Str("code", code).
			Bool("invalid_token", invalidToken).
			Str("error", reason).
			Msg("push rejected by gateway")
		return nil
	}

	err = repo.MarkOutboxSent(ctx, d.DB, rec.ID, msgID, d.now())
	if errors.Is(err, repo.ErrStateConflict) {
		dispatches.WithLabelValues(dispatchSkipped).Inc()
		return nil
	}
	if err != nil {
		return d.storeFailure(span, outboxID, "mark outbox sent", err)
	}
	dispatches.WithLabelValues(dispatchSent).Inc()
	log.Info().Str("outbox_id", rec.ID).Str("message_id", msgID).Msg("push sent")
	return nil
}

func (d *Dispatcher) storeFailure(span trace.Span, outboxID, op string, err error) error {
	dispatches.WithLabelValues(dispatchError).Inc()
	span.RecordError(err)
	span.SetStatus(codes.Error, op)
	log.Error().Err(err).Str("outbox_id", outboxID).Msg(op)
	return err
}

func (d *Dispatcher) now() time.Time {
	if d.Now != nil {
		return d.Now()
	}
	return time.Now()
}
