// Package domain defines the persistence models for user profiles, the
// source records that upstream writers create (friend requests, event
// invitations, activity updates, generic notifications, activities) and the
// push outbox. These types are mapped with GORM and form the core data layer
// of the dispatch pipeline.
package domain

import (
	"strings"
	"time"
)

// Collection names. They double as table names and as the routing keys the
// change feed uses to find the watcher for a record.
const (
	CollectionUsers            = "users"
	CollectionOutbox           = "fcm_messages"
	CollectionFriendRequests   = "friend_requests"
	CollectionEventInvitations = "event_invitations"
	CollectionActivityUpdates  = "activity_updates"
	CollectionNotifications    = "notifications"
	CollectionActivities       = "activities"
)

// UserProfile is the recipient side of a push. The pipeline only reads it;
// the token is registered by the mobile client through the ingestion API.
//
// Fields:
//   - ID: user identifier chosen upstream.
//   - DisplayName: optional human-readable name.
//   - FCMToken: current push-delivery token; empty means "absent".
type UserProfile struct {
	ID          string    `json:"id"                  gorm:"type:varchar(64);primaryKey"`
	DisplayName string    `json:"display_name"        gorm:"type:varchar(255)"`
	FCMToken    string    `json:"fcm_token,omitempty" gorm:"column:fcm_token;type:text"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// TableName returns the database table name for UserProfile.
func (UserProfile) TableName() string { return CollectionUsers }

// HasToken reports whether the profile carries a usable push token.
func (u UserProfile) HasToken() bool { return strings.TrimSpace(u.FCMToken) != "" }

// FriendRequest is created when one user asks another to connect.
//
// Processed/ProcessedAt/Error form the idempotency marker written by the
// friend request watcher.
type FriendRequest struct {
	ID           string     `json:"id"                     gorm:"type:char(36);primaryKey"`
	FromUserID   string     `json:"from_user_id"           gorm:"type:varchar(64);not null;index"`
	FromUserName string     `json:"from_user_name"         gorm:"type:varchar(255)"`
	ToUserID     string     `json:"to_user_id"             gorm:"type:varchar(64);not null;index"`
	Processed    bool       `json:"processed"              gorm:"not null;default:false"`
	ProcessedAt  *time.Time `json:"processed_at,omitempty"`
	Error        string     `json:"error,omitempty"        gorm:"type:text"`
	CreatedAt    time.Time  `json:"created_at"`
}

// TableName returns the database table name for FriendRequest.
func (FriendRequest) TableName() string { return CollectionFriendRequests }

// EventInvitation invites a participant into an activity with a role.
type EventInvitation struct {
	ID                string     `json:"id"                     gorm:"type:char(36);primaryKey"`
	ActivityID        string     `json:"activity_id"            gorm:"type:varchar(64);index"`
	ActivityTitle     string     `json:"activity_title"         gorm:"type:varchar(255)"`
	ActivityType      string     `json:"activity_type"          gorm:"type:varchar(32)"`
	ParticipantUserID string     `json:"participant_user_id"    gorm:"type:varchar(64);not null;index"`
	ParticipantRole   string     `json:"participant_role"       gorm:"type:varchar(32)"`
	Processed         bool       `json:"processed"              gorm:"not null;default:false"`
	ProcessedAt       *time.Time `json:"processed_at,omitempty"`
	Error             string     `json:"error,omitempty"        gorm:"type:text"`
	CreatedAt         time.Time  `json:"created_at"`
}

// TableName returns the database table name for EventInvitation.
func (EventInvitation) TableName() string { return CollectionEventInvitations }

// ActivityUpdate carries a free-text update for one participant of an activity.
type ActivityUpdate struct {
	ID                string     `json:"id"                     gorm:"type:char(36);primaryKey"`
	ActivityID        string     `json:"activity_id"            gorm:"type:varchar(64);index"`
	ActivityTitle     string     `json:"activity_title"         gorm:"type:varchar(255)"`
	ParticipantUserID string     `json:"participant_user_id"    gorm:"type:varchar(64);not null;index"`
	UpdateMessage     string     `json:"update_message"         gorm:"type:text"`
	Processed         bool       `json:"processed"              gorm:"not null;default:false"`
	ProcessedAt       *time.Time `json:"processed_at,omitempty"`
	Error             string     `json:"error,omitempty"        gorm:"type:text"`
	CreatedAt         time.Time  `json:"created_at"`
}

// TableName returns the database table name for ActivityUpdate.
func (ActivityUpdate) TableName() string { return CollectionActivityUpdates }

// Notification status values. A notification is only picked up while pending.
const (
	NotificationPending = "pending"
	NotificationSent    = "sent"
	NotificationFailed  = "failed"
)

// Notification is a generic, caller-composed push request. Unlike the other
// kinds it may carry the destination token itself.
//
// Data holds arbitrary JSON values; they are stringified before the push.
type Notification struct {
	ID          string         `json:"id"                  gorm:"type:char(36);primaryKey"`
	Type        string         `json:"type"                gorm:"type:varchar(64)"`
	RecipientID string         `json:"recipient_id"        gorm:"type:varchar(64);index"`
	FCMToken    string         `json:"fcm_token,omitempty" gorm:"column:fcm_token;type:text"`
	Title       string         `json:"title"               gorm:"type:varchar(255)"`
	Body        string         `json:"body"                gorm:"type:text"`
	Data        map[string]any `json:"data,omitempty"      gorm:"serializer:json"`
	Status      string         `json:"status"              gorm:"type:varchar(16);not null;default:'pending';index"`
	Error       string         `json:"error,omitempty"     gorm:"type:text"`
	SentAt      *time.Time     `json:"sent_at,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

// TableName returns the database table name for Notification.
func (Notification) TableName() string { return CollectionNotifications }

// Activity is an organized event with an owner and participants. Deleting it
// notifies every participant except the owner.
type Activity struct {
	ID             string    `json:"id"              gorm:"type:char(36);primaryKey"`
	Title          string    `json:"title"           gorm:"type:varchar(255)"`
	ActivityType   string    `json:"activity_type"   gorm:"type:varchar(32)"`
	OwnerID        string    `json:"owner_id"        gorm:"type:varchar(64);not null;index"`
	ParticipantIDs []string  `json:"participant_ids" gorm:"serializer:json"`
	CreatedAt      time.Time `json:"created_at"`
}

// TableName returns the database table name for Activity.
func (Activity) TableName() string { return CollectionActivities }
