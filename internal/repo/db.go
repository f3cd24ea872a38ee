// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file contains database bootstrapping helpers for
// SQLite (pure Go driver) and schema migrations.
package repo

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	sqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/plugin/opentelemetry/tracing"

	"github.com/climetry/go-notify-backend/internal/domain"
)

// Option customizes OpenSQLite.
type Option func(*options)

type options struct {
	tracing  bool
	config   *gorm.Config
	maxConns int
}

// WithTracing installs the GORM OpenTelemetry plugin so every query becomes
// a child span of the calling request or handler.
func WithTracing(enabled bool) Option {
	return func(o *options) { o.tracing = enabled }
}

// WithGormConfig overrides the gorm.Config (e.g. a silent logger in tests).
func WithGormConfig(cfg *gorm.Config) Option {
	return func(o *options) { o.config = cfg }
}

// WithMaxOpenConns bounds the connection pool. The trigger runner's workers
// and the HTTP handlers share it.
func WithMaxOpenConns(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.maxConns = n
		}
	}
}

// pragmas tune SQLite for one writer and many concurrent readers. They go
// into the DSN so the driver applies them to every pooled connection; the
// busy timeout then lets any worker queue on the write lock instead of
// failing with SQLITE_BUSY.
var pragmas = []string{
	"journal_mode(WAL)",
	"synchronous(NORMAL)",
	"foreign_keys(1)",
	"busy_timeout(5000)",
}

// pragmaDSN appends the pragmas to path as _pragma query parameters.
func pragmaDSN(path string) string {
	q := url.Values{"_pragma": pragmas}
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + q.Encode()
}

// OpenSQLite opens (or creates) a SQLite database with the pragmas set on
// every connection and sizes the pool.
func OpenSQLite(path string, opts ...Option) (*gorm.DB, error) {
	o := options{config: &gorm.Config{}, maxConns: 10}
	for _, fn := range opts {
		fn(&o)
	}

	// Fail early on a missing parent directory; SQLite reports it as
	// "out of memory (14)" on some platforms.
	file, _, _ := strings.Cut(path, "?")
	if dir := filepath.Dir(file); dir != "." {
		if _, err := os.Stat(dir); err != nil {
			return nil, err
		}
	}

	db, err := gorm.Open(sqlite.Open(pragmaDSN(path)), o.config)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", file, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(o.maxConns)
	sqlDB.SetMaxIdleConns(o.maxConns)
	sqlDB.SetConnMaxIdleTime(5 * time.Minute)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)

	if o.tracing {
		if err := db.Use(tracing.NewPlugin()); err != nil {
			return nil, err
		}
	}
	return db, nil
}

// AutoMigrate creates or updates every table the pipeline uses.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&domain.UserProfile{},
		&domain.FriendRequest{},
		&domain.EventInvitation{},
		&domain.ActivityUpdate{},
		&domain.Notification{},
		&domain.Activity{},
		&domain.OutboxRecord{},
		&domain.DocumentChange{},
		&domain.Idempotency{},
	)
}
