// Package push talks to the push-messaging gateway. A Gateway accepts one
// token-addressed Message and returns the gateway's message id or a typed
// *GatewayError.
//
// Drivers:
//   - log:   development driver, logs the envelope and returns a synthetic id
//   - http:  FCM HTTP v1 style endpoint ({"message": ...}, bearer token)
//   - kafka: publishes the envelope as a push command for a downstream sender
package push

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/climetry/go-notify-backend/internal/config"
	"github.com/climetry/go-notify-backend/internal/domain"
)

// Gateway delivers a single push. Implementations must be safe for
// concurrent use.
type Gateway interface {
	Send(ctx context.Context, msg Message) (string, error)
	io.Closer
}

// Message is the gateway envelope: the user-visible notification, string
// data for client-side routing, and per-platform delivery hints.
type Message struct {
	Token        string            `json:"token"`
	Notification Notification      `json:"notification"`
	Data         map[string]string `json:"data,omitempty"`
	APNS         *APNSConfig       `json:"apns,omitempty"`
	Android      *AndroidConfig    `json:"android,omitempty"`
}

// Notification is the title/body pair shown by the device.
type Notification struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

// APNSConfig carries the iOS hints.
type APNSConfig struct {
	Payload APNSPayload `json:"payload"`
}

// APNSPayload wraps the aps dictionary.
type APNSPayload struct {
	Aps Aps `json:"aps"`
}

// Aps is the Apple push dictionary subset the pipeline sets.
type Aps struct {
	Sound string `json:"sound,omitempty"`
	Badge *int   `json:"badge,omitempty"`
}

// AndroidConfig carries the Android hints.
type AndroidConfig struct {
	Priority     string              `json:"priority,omitempty"`
	Notification AndroidNotification `json:"notification"`
}

// AndroidNotification selects sound and notification channel.
type AndroidNotification struct {
	Sound     string `json:"sound,omitempty"`
	ChannelID string `json:"channel_id,omitempty"`
}

// Static delivery policy.
const (
	DefaultSound    = "default"
	DefaultBadge    = 1
	AndroidPriority = "high"
)

// Envelope builds the gateway message for an outbox record. The platform
// hints are static policy and never depend on the record's content.
func Envelope(rec domain.OutboxRecord, androidChannel string) Message {
	badge := DefaultBadge
	data := make(map[string]string, len(rec.Data))
	for k, v := range rec.Data {
		data[k] = v
	}
	return Message{
		Token: rec.Token,
		Notification: Notification{
			Title: rec.Notification.Title,
			Body:  rec.Notification.Body,
		},
		Data: data,
		APNS: &APNSConfig{Payload: APNSPayload{Aps: Aps{
			Sound: DefaultSound,
			Badge: &badge,
		}}},
		Android: &AndroidConfig{
			Priority: AndroidPriority,
			Notification: AndroidNotification{
				Sound:     DefaultSound,
				ChannelID: androidChannel,
			},
		},
	}
}

// Gateway error codes. Remote codes are passed through as reported; the
// ones below are also produced locally.
const (
	CodeUnregistered    = "UNREGISTERED"
	CodeInvalidArgument = "INVALID_ARGUMENT"
	CodeUnavailable     = "UNAVAILABLE"
	CodeInternal        = "INTERNAL"
	CodeUnknown         = "UNKNOWN"
)

// GatewayError is a rejected send.
type GatewayError struct {
	Code        string
	Description string
	Status      int
}

func (e *GatewayError) Error() string {
	if e.Description == "" {
		return e.Code
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Description)
}

// InvalidToken reports whether the gateway rejected the device token itself.
func (e *GatewayError) InvalidToken() bool {
	return e.Code == CodeUnregistered || e.Code == CodeInvalidArgument
}

// Describe returns the text stored on a failed outbox record.
func Describe(err error) string {
	if err == nil {
		return ""
	}
	var gerr *GatewayError
	if errors.As(err, &gerr) && gerr.Description != "" {
		return gerr.Description
	}
	return err.Error()
}

// CodeOf returns the gateway code of err, or CodeUnknown.
func CodeOf(err error) string {
	var gerr *GatewayError
	if errors.As(err, &gerr) && gerr.Code != "" {
		return gerr.Code
	}
	return CodeUnknown
}

// New returns the driver selected by cfg.Driver.
func New(cfg config.PushConfig) (Gateway, error) {
	switch cfg.Driver {
	case config.PushDriverLog, "":
		return NewLogGateway(), nil
	case config.PushDriverHTTP:
		return NewHTTPGateway(cfg.Endpoint, cfg.ProjectID, cfg.AccessToken, cfg.Timeout), nil
	case config.PushDriverKafka:
		return NewKafkaGateway(cfg.KafkaBrokers, cfg.KafkaTopic)
	}
	return nil, fmt.Errorf("unknown push driver %q", cfg.Driver)
}
