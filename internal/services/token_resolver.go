package services

import (
	"context"
	"errors"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/climetry/go-notify-backend/internal/repo"
)

// TokenSource resolves a user's current push token.
type TokenSource interface {
	// Resolve returns the token and true, or "" and false when the user has
	// no profile or no token. Only store failures are errors.
	Resolve(ctx context.Context, db *gorm.DB, userID string) (string, bool, error)
}

// TokenResolver reads tokens from user profiles. It never caches: a stale
// token only costs a later delivery failure, while a cached missing token
// would silently drop pushes.
type TokenResolver struct{}

// Resolve implements TokenSource.
func (TokenResolver) Resolve(ctx context.Context, db *gorm.DB, userID string) (string, bool, error) {
	tr := otel.Tracer("services/TokenResolver")
	ctx, span := tr.Start(ctx, "Resolve",
		trace.WithAttributes(attribute.String("user.id", userID)),
	)
	defer span.End()

	userID = strings.TrimSpace(userID)
	if userID == "" {
		return "", false, nil
	}
	p, err := repo.GetProfile(ctx, db, userID)
	if errors.Is(err, repo.ErrNotFound) {
		return "", false, nil
	}
	if err != nil {
		span.RecordError(err)
		return "", false, err
	}
	found := p.HasToken()
	span.SetAttributes(attribute.Bool("token.found", found))
	if !found {
		return "", false, nil
	}
	return strings.TrimSpace(p.FCMToken), true, nil
}
