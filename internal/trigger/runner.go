// Package trigger delivers change-feed rows to the handlers registered for
// them. It is the at-least-once substrate the watchers and the dispatcher run
// on: a change is deleted only after its handler returned nil, a failing
// change becomes visible again after the poll interval, and a change that
// keeps failing is parked as dead once it used up its attempts.
//
// Handlers for different changes run concurrently (bounded by Workers). The
// same change may be handled more than once, e.g. after a crash between the
// handler finishing and the ack; handlers guard against that themselves.
package trigger

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/climetry/go-notify-backend/internal/config"
	"github.com/climetry/go-notify-backend/internal/domain"
	"github.com/climetry/go-notify-backend/internal/repo"
)

// Handler processes one change. A non-nil error leaves the change for
// redelivery.
type Handler func(ctx context.Context, c domain.DocumentChange) error

// ByID adapts a handler that only needs the document id.
func ByID(fn func(ctx context.Context, id string) error) Handler {
	return func(ctx context.Context, c domain.DocumentChange) error {
		return fn(ctx, c.DocumentID)
	}
}

// WithSnapshot adapts a handler that needs the record captured at change
// time (deletions).
func WithSnapshot(fn func(ctx context.Context, id string, snapshot []byte) error) Handler {
	return func(ctx context.Context, c domain.DocumentChange) error {
		return fn(ctx, c.DocumentID, c.Snapshot)
	}
}

// Options tunes the runner.
type Options struct {
	PollInterval time.Duration
	LeaseTTL     time.Duration
	BatchSize    int
	Workers      int
	MaxAttempts  int
}

// OptionsFrom maps the trigger section of the config.
func OptionsFrom(cfg config.TriggerConfig) Options {
	return Options{
		PollInterval: cfg.PollInterval,
		LeaseTTL:     cfg.LeaseTTL,
		BatchSize:    cfg.BatchSize,
		Workers:      cfg.Workers,
		MaxAttempts:  cfg.MaxAttempts,
	}
}

type route struct {
	collection string
	op         domain.ChangeOp
}

// Runner polls the change feed and invokes handlers.
type Runner struct {
	db   *gorm.DB
	opts Options

	mu     sync.RWMutex
	routes map[route]Handler

	// now is overridable in tests.
	now func() time.Time
}

// NewRunner returns a Runner with defaults applied to zero options.
func NewRunner(db *gorm.DB, opts Options) *Runner {
	if opts.PollInterval <= 0 {
		opts.PollInterval = 500 * time.Millisecond
	}
	if opts.LeaseTTL <= 0 {
		opts.LeaseTTL = 30 * time.Second
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = 50
	}
	if opts.Workers <= 0 {
		opts.Workers = 8
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = 5
	}
	return &Runner{
		db:     db,
		opts:   opts,
		routes: make(map[route]Handler),
		now:    time.Now,
	}
}

// Register binds h to changes of op on collection, replacing any previous
// handler for the same pair.
func (r *Runner) Register(collection string, op domain.ChangeOp, h Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.routes[route{collection, op}] = h
}

func (r *Runner) handler(c domain.DocumentChange) (Handler, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.routes[route{c.Collection, c.Op}]
	return h, ok
}

// Run polls until ctx is cancelled. A full batch is followed immediately by
// the next poll; otherwise the runner waits PollInterval.
func (r *Runner) Run(ctx context.Context) error {
	log.Info().
		Dur("poll_interval", r.opts.PollInterval).
		Int("workers", r.opts.Workers).
		Int("batch_size", r.opts.BatchSize).
		Msg("trigger runner started")

	timer := time.NewTimer(0)
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("trigger runner stopped")
			return nil
		case <-timer.C:
		}

		n, err := r.RunOnce(ctx)
		if err != nil && ctx.Err() == nil {
			log.Error().Err(err).Msg("trigger poll failed")
		}
		wait := r.opts.PollInterval
		if err == nil && n >= r.opts.BatchSize {
			wait = 0
		}
		timer.Reset(wait)
	}
}

// RunOnce claims one batch, handles it and returns how many changes it
// claimed.
func (r *Runner) RunOnce(ctx context.Context) (int, error) {
	batch, err := repo.ClaimChanges(ctx, r.db, r.now(), r.opts.LeaseTTL, r.opts.BatchSize)
	if err != nil {
		return 0, fmt.Errorf("claim changes: %w", err)
	}
	if len(batch) == 0 {
		return 0, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.opts.Workers)
	for _, c := range batch {
		g.Go(func() error {
			r.deliver(gctx, c)
			return nil
		})
	}
	_ = g.Wait()
	return len(batch), nil
}

// deliver runs the handler for c and settles the change.
func (r *Runner) deliver(ctx context.Context, c domain.DocumentChange) {
	tr := otel.Tracer("trigger/Runner")
	ctx, span := tr.Start(ctx, "deliver",
		trace.WithAttributes(
			attribute.String("collection", c.Collection),
			attribute.String("op", string(c.Op)),
			attribute.String("document.id", c.DocumentID),
			attribute.Int("attempt", c.Attempts),
		),
	)
	defer span.End()

	// Settling must survive shutdown so finished work is not redone.
	settle := context.WithoutCancel(ctx)
	lg := log.With().
		Str("collection", c.Collection).
		Str("op", string(c.Op)).
		Str("document_id", c.DocumentID).
		Uint64("change_id", c.ID).
		Logger()

	h, ok := r.handler(c)
	if !ok {
		deliveries.WithLabelValues(c.Collection, string(c.Op), outcomeUnrouted).Inc()
		lg.Warn().Msg("no handler registered; dropping change")
		if err := repo.AckChange(settle, r.db, c.ID); err != nil {
			lg.Error().Err(err).Msg("ack change")
		}
		return
	}

	hctx, cancel := context.WithTimeout(ctx, r.opts.LeaseTTL)
	start := time.Now()
	err := safeCall(hctx, h, c)
	cancel()
	handlerLatency.WithLabelValues(c.Collection, string(c.Op)).Observe(time.Since(start).Seconds())

	if err == nil {
		if aerr := repo.AckChange(settle, r.db, c.ID); aerr != nil {
			lg.Error().Err(aerr).Msg("ack change")
		}
		deliveries.WithLabelValues(c.Collection, string(c.Op), outcomeAcked).Inc()
		return
	}

	span.RecordError(err)
	span.SetStatus(codes.Error, "handler failed")
	dead, ferr := repo.FailChange(settle, r.db, c, err, r.opts.MaxAttempts, r.now().Add(r.opts.PollInterval))
	if ferr != nil {
		lg.Error().Err(ferr).Msg("record change failure")
	}
	if dead {
		deliveries.WithLabelValues(c.Collection, string(c.Op), outcomeDead).Inc()
		lg.Error().Err(err).Int("attempts", c.Attempts).Msg("change parked as dead")
		return
	}
	deliveries.WithLabelValues(c.Collection, string(c.Op), outcomeRetry).Inc()
	lg.Warn().Err(err).Int("attempts", c.Attempts).Msg("handler failed; change will be redelivered")
}

// safeCall converts a handler panic into an error so one bad change cannot
// take the runner down.
func safeCall(ctx context.Context, h Handler, c domain.DocumentChange) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("handler panic: %v", rec)
		}
	}()
	return h(ctx, c)
}
