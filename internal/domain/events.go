package domain

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Kind names one variant of Event.
type Kind string

const (
	KindFriendRequestCreated         Kind = "friend_request_created"
	KindEventInvitationCreated       Kind = "event_invitation_created"
	KindActivityUpdateCreated        Kind = "activity_update_created"
	KindActivityDeleted              Kind = "activity_deleted"
	KindGenericNotificationRequested Kind = "generic_notification_requested"
)

// Event is the closed set of domain events the pipeline reacts to. The
// unexported method keeps other packages from adding variants.
//
// Optional fields are plain strings; an empty value means "missing" and the
// payload builder substitutes its documented default.
type Event interface {
	Kind() Kind
	SourceID() string
	isEvent()
}

// FriendRequestCreated is observed when a friend request record appears.
type FriendRequestCreated struct {
	RequestID    string
	FromUserID   string
	FromUserName string
	ToUserID     string
}

// EventInvitationCreated is observed when an invitation record appears.
type EventInvitationCreated struct {
	InvitationID      string
	ActivityID        string
	ActivityTitle     string
	ActivityType      string
	ParticipantUserID string
	ParticipantRole   string
}

// ActivityUpdateCreated is observed when an activity update record appears.
type ActivityUpdateCreated struct {
	UpdateID          string
	ActivityID        string
	ActivityTitle     string
	ParticipantUserID string
	UpdateMessage     string
}

// ActivityDeleted is observed when an activity record disappears. It is
// decoded from the snapshot captured at deletion time.
type ActivityDeleted struct {
	ActivityID     string
	Title          string
	OwnerID        string
	ParticipantIDs []string
}

// GenericNotificationRequested is observed when a notification record appears.
type GenericNotificationRequested struct {
	NotificationID string
	Type           string
	RecipientID    string
	Token          string
	Title          string
	Body           string
	Data           map[string]any
}

func (FriendRequestCreated) Kind() Kind         { return KindFriendRequestCreated }
func (EventInvitationCreated) Kind() Kind       { return KindEventInvitationCreated }
func (ActivityUpdateCreated) Kind() Kind        { return KindActivityUpdateCreated }
func (ActivityDeleted) Kind() Kind              { return KindActivityDeleted }
func (GenericNotificationRequested) Kind() Kind { return KindGenericNotificationRequested }

func (e FriendRequestCreated) SourceID() string         { return e.RequestID }
func (e EventInvitationCreated) SourceID() string       { return e.InvitationID }
func (e ActivityUpdateCreated) SourceID() string        { return e.UpdateID }
func (e ActivityDeleted) SourceID() string              { return e.ActivityID }
func (e GenericNotificationRequested) SourceID() string { return e.NotificationID }

func (FriendRequestCreated) isEvent()         {}
func (EventInvitationCreated) isEvent()       {}
func (ActivityUpdateCreated) isEvent()        {}
func (ActivityDeleted) isEvent()              {}
func (GenericNotificationRequested) isEvent() {}

// Recipients returns the participants to notify about the deletion: every
// distinct, non-empty participant id except the owner, in list order.
func (e ActivityDeleted) Recipients() []string {
	owner := strings.TrimSpace(e.OwnerID)
	seen := make(map[string]struct{}, len(e.ParticipantIDs))
	out := make([]string, 0, len(e.ParticipantIDs))
	for _, raw := range e.ParticipantIDs {
		id := strings.TrimSpace(raw)
		if id == "" || id == owner {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// Event decodes the record into its domain event.
func (r FriendRequest) Event() FriendRequestCreated {
	return FriendRequestCreated{
		RequestID:    r.ID,
		FromUserID:   strings.TrimSpace(r.FromUserID),
		FromUserName: strings.TrimSpace(r.FromUserName),
		ToUserID:     strings.TrimSpace(r.ToUserID),
	}
}

// Event decodes the record into its domain event.
func (r EventInvitation) Event() EventInvitationCreated {
	return EventInvitationCreated{
		InvitationID:      r.ID,
		ActivityID:        strings.TrimSpace(r.ActivityID),
		ActivityTitle:     strings.TrimSpace(r.ActivityTitle),
		ActivityType:      r.ActivityType,
		ParticipantUserID: strings.TrimSpace(r.ParticipantUserID),
		ParticipantRole:   r.ParticipantRole,
	}
}

// Event decodes the record into its domain event.
func (r ActivityUpdate) Event() ActivityUpdateCreated {
	return ActivityUpdateCreated{
		UpdateID:          r.ID,
		ActivityID:        strings.TrimSpace(r.ActivityID),
		ActivityTitle:     strings.TrimSpace(r.ActivityTitle),
		ParticipantUserID: strings.TrimSpace(r.ParticipantUserID),
		UpdateMessage:     strings.TrimSpace(r.UpdateMessage),
	}
}

// Event decodes the record into its domain event.
func (r Notification) Event() GenericNotificationRequested {
	return GenericNotificationRequested{
		NotificationID: r.ID,
		Type:           strings.TrimSpace(r.Type),
		RecipientID:    strings.TrimSpace(r.RecipientID),
		Token:          strings.TrimSpace(r.FCMToken),
		Title:          strings.TrimSpace(r.Title),
		Body:           strings.TrimSpace(r.Body),
		Data:           r.Data,
	}
}

// Event decodes the record into its domain event.
func (r Activity) Event() ActivityDeleted {
	ids := make([]string, len(r.ParticipantIDs))
	copy(ids, r.ParticipantIDs)
	return ActivityDeleted{
		ActivityID:     r.ID,
		Title:          strings.TrimSpace(r.Title),
		OwnerID:        strings.TrimSpace(r.OwnerID),
		ParticipantIDs: ids,
	}
}

// DecodeActivitySnapshot decodes the JSON snapshot of a deleted activity.
// The document id from the change feed wins over any id in the snapshot.
func DecodeActivitySnapshot(documentID string, snapshot []byte) (ActivityDeleted, error) {
	var a Activity
	if len(snapshot) > 0 {
		if err := json.Unmarshal(snapshot, &a); err != nil {
			return ActivityDeleted{}, fmt.Errorf("decode activity snapshot %s: %w", documentID, err)
		}
	}
	a.ID = documentID
	return a.Event(), nil
}
