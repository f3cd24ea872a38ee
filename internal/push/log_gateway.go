package push

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// LogGateway logs every push instead of delivering it.
type LogGateway struct{}

// NewLogGateway returns the development driver.
func NewLogGateway() *LogGateway { return &LogGateway{} }

// Send logs the envelope and returns a synthetic message id.
func (LogGateway) Send(ctx context.Context, msg Message) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", &GatewayError{Code: CodeUnavailable, Description: err.Error()}
	}
	if msg.Token == "" {
		return "", &GatewayError{Code: CodeInvalidArgument, Description: "empty token"}
	}
	id := "log/" + uuid.NewString()
	log.Info().
		Str("gateway", "log").
		Str("message_id", id).
		Str("token", MaskToken(msg.Token)).
		Str("title", msg.Notification.Title).
		Str("body", msg.Notification.Body).
		Interface("data", msg.Data).
		Msg("push sent")
	return id, nil
}

// Close is a no-op.
func (LogGateway) Close() error { return nil }

// MaskToken keeps only the last characters of a device token for logs.
func MaskToken(token string) string {
	const keep = 6
	if len(token) <= keep {
		return "***"
	}
	return "***" + token[len(token)-keep:]
}
