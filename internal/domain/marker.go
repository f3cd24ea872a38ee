package domain

import "time"

// Marker is the idempotency marker stored on a source record. Once terminal,
// observing the same record again must not produce any side effect.
//
// Each record kind spells the marker differently on the wire
// (processed/processedAt for most kinds, status/sentAt for notifications);
// those spellings are kept inside the repo layer.
type Marker struct {
	Terminal bool
	At       *time.Time
	Error    string
}

// IsTerminal reports whether the owning record was already handled.
func (m Marker) IsTerminal() bool { return m.Terminal }

// Outcome is what a watcher records when it marks a record terminal.
// The zero value means the push request was queued.
type Outcome struct {
	Failed bool
	Reason string
}

// OutcomeQueued marks a record whose notification was written to the outbox.
var OutcomeQueued = Outcome{}

// OutcomeFailed marks a record that will never be queued, with a reason.
func OutcomeFailed(reason string) Outcome {
	return Outcome{Failed: true, Reason: reason}
}

// Marker returns the friend request's idempotency marker.
func (r FriendRequest) Marker() Marker {
	return Marker{Terminal: r.Processed, At: r.ProcessedAt, Error: r.Error}
}

// Marker returns the invitation's idempotency marker.
func (r EventInvitation) Marker() Marker {
	return Marker{Terminal: r.Processed, At: r.ProcessedAt, Error: r.Error}
}

// Marker returns the activity update's idempotency marker.
func (r ActivityUpdate) Marker() Marker {
	return Marker{Terminal: r.Processed, At: r.ProcessedAt, Error: r.Error}
}

// Marker returns the notification's idempotency marker. Anything other than
// "pending" counts as terminal, including an unset status.
func (r Notification) Marker() Marker {
	at := r.SentAt
	if at == nil && r.Status == NotificationFailed {
		at = &r.UpdatedAt
	}
	return Marker{Terminal: r.Status != NotificationPending, At: at, Error: r.Error}
}
