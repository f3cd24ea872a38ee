package domain

import "time"

// DeliveryState is the lifecycle of one outbox record. It only ever moves
// forward: pending → sent or pending → failed.
type DeliveryState string

const (
	DeliveryPending DeliveryState = "pending"
	DeliverySent    DeliveryState = "sent"
	DeliveryFailed  DeliveryState = "failed"
)

// IsTerminal reports whether no further transition is allowed.
func (s DeliveryState) IsTerminal() bool {
	return s == DeliverySent || s == DeliveryFailed
}

// CanTransition reports whether s may move to next.
func (s DeliveryState) CanTransition(next DeliveryState) bool {
	return s == DeliveryPending && next.IsTerminal()
}

// PushNotification is the user-visible part of a push.
type PushNotification struct {
	Title string `json:"title" gorm:"type:text;not null;default:''"`
	Body  string `json:"body"  gorm:"type:text;not null;default:''"`
}

// OutboxRecord is one queued push addressed to a single device token.
//
// Records are appended by the outbox writer and afterwards owned by the
// dispatcher, which is the only component allowed to change DeliveryState.
// SourceCollection/SourceID point back at the record that produced it.
type OutboxRecord struct {
	ID               string            `json:"id"                           gorm:"type:char(36);primaryKey"`
	Token            string            `json:"token"                        gorm:"type:text;not null"`
	Notification     PushNotification  `json:"notification"                 gorm:"embedded;embeddedPrefix:notification_"`
	Data             map[string]string `json:"data"                         gorm:"serializer:json"`
	DeliveryState    DeliveryState     `json:"delivery_state"               gorm:"type:varchar(16);not null;default:'pending';index"`
	SourceCollection string            `json:"source_collection,omitempty"  gorm:"type:varchar(64);index:idx_outbox_source,priority:1"`
	SourceID         string            `json:"source_id,omitempty"          gorm:"type:varchar(64);index:idx_outbox_source,priority:2"`
	GatewayMessageID string            `json:"gateway_message_id,omitempty" gorm:"type:text"`
	Error            string            `json:"error,omitempty"              gorm:"type:text"`
	CreatedAt        time.Time         `json:"created_at"                   gorm:"index"`
	SentAt           *time.Time        `json:"sent_at,omitempty"`
}

// TableName returns the database table name for OutboxRecord.
func (OutboxRecord) TableName() string { return CollectionOutbox }
