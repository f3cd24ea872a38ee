// Command notifyd runs the push notification pipeline: the ingestion API,
// the change-feed runner that drives the watchers and the dispatcher, and the
// push gateway selected in the configuration.
//
// @title       Notify API
// @version     1.0
// @description Ingestion and outbox inspection for the push notification pipeline.
// @BasePath    /api/v1
package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	"github.com/climetry/go-notify-backend/internal/config"
	"github.com/climetry/go-notify-backend/internal/domain"
	httpapi "github.com/climetry/go-notify-backend/internal/http"
	"github.com/climetry/go-notify-backend/internal/observability"
	"github.com/climetry/go-notify-backend/internal/payload"
	"github.com/climetry/go-notify-backend/internal/push"
	"github.com/climetry/go-notify-backend/internal/repo"
	"github.com/climetry/go-notify-backend/internal/services"
	"github.com/climetry/go-notify-backend/internal/sysutil"
	"github.com/climetry/go-notify-backend/internal/trigger"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	// A missing .env is fine; the environment wins either way.
	_ = godotenv.Load()

	cfg := config.MustLoad()
	ver := sysutil.FirstNonEmpty(os.Getenv("APP_VERSION"), version)
	sysutil.ConfigureLogger(os.Stdout, cfg.LogLevel, cfg.LogPretty, cfg.OTEL.ServiceName, ver)
	gin.SetMode(cfg.GinMode)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, ver); err != nil {
		log.Fatal().Err(err).Msg("notifyd exited")
	}
	log.Info().Msg("notifyd stopped")
}

// run wires the pipeline and blocks until ctx is cancelled or a component
// fails.
func run(ctx context.Context, cfg config.Config, ver string) error {
	shutdownOTel, err := observability.SetupOTel(ctx, cfg.OTEL, ver,
		attribute.String("notify.push.driver", cfg.Push.Driver))
	if err != nil {
		return fmt.Errorf("setup tracing: %w", err)
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := shutdownOTel(sctx); err != nil {
			log.Warn().Err(err).Msg("flush traces")
		}
	}()

	db, err := repo.OpenSQLite(cfg.DBPath,
		repo.WithTracing(cfg.OTEL.Enabled),
		repo.WithMaxOpenConns(cfg.DBMaxOpenConns),
	)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	if sqlDB, err := db.DB(); err == nil {
		defer sqlDB.Close()
	}
	if err := repo.AutoMigrate(db); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	gw, err := push.New(cfg.Push)
	if err != nil {
		return fmt.Errorf("push gateway: %w", err)
	}
	defer gw.Close()

	builder, err := payload.NewBuilder(cfg.Push.Locale)
	if err != nil {
		return fmt.Errorf("payload builder: %w", err)
	}

	runner := trigger.NewRunner(db, trigger.OptionsFrom(cfg.Trigger))
	registerHandlers(runner,
		services.NewWatchers(db, builder, cfg.FriendRequestMarker),
		services.NewDispatcher(db, gw, cfg.Push.AndroidChannel),
	)

	engine := gin.New()
	httpapi.RegisterRoutes(engine, db, cfg)

	srv := &http.Server{
		Addr:              net.JoinHostPort("", cfg.Port),
		Handler:           engine,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		MaxHeaderBytes:    cfg.MaxHeaderBytes,
	}

	log.Info().
		Str("version", ver).
		Str("addr", srv.Addr).
		Str("push_driver", cfg.Push.Driver).
		Str("locale", builder.Locale().String()).
		Msg("notifyd starting")

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return runner.Run(gctx) })
	g.Go(func() error {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		sctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		start := time.Now()
		err := srv.Shutdown(sctx)
		log.Info().Dur("took", time.Since(start)).Msg("http server drained")
		return err
	})
	return g.Wait()
}

// registerHandlers binds the watchers and the dispatcher to the change feed.
func registerHandlers(r *trigger.Runner, w *services.Watchers, d *services.Dispatcher) {
	r.Register(domain.CollectionOutbox, domain.OpCreate, trigger.ByID(d.Dispatch))

	r.Register(domain.CollectionFriendRequests, domain.OpCreate, trigger.ByID(w.OnFriendRequestCreated))
	r.Register(domain.CollectionEventInvitations, domain.OpCreate, trigger.ByID(w.OnEventInvitationCreated))
	r.Register(domain.CollectionActivityUpdates, domain.OpCreate, trigger.ByID(w.OnActivityUpdateCreated))
	r.Register(domain.CollectionNotifications, domain.OpCreate, trigger.ByID(w.OnNotificationCreated))
	r.Register(domain.CollectionActivities, domain.OpDelete, trigger.WithSnapshot(w.OnActivityDeleted))
}
