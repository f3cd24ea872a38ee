// Package payload turns domain events into push notification payloads.
//
// Building is a pure function of the event plus two fixed lookup tables
// (activity type to icon, participant role to label). Unknown or missing
// categorical values fall back to the default bucket instead of failing:
// a wrong icon must never block the message itself. Missing interpolated
// fields are replaced by per-kind defaults.
//
// Strings come from an x/text message catalog. Brazilian Portuguese is the
// default locale; English is also available.
package payload

import (
	"encoding/json"
	"strconv"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/climetry/go-notify-backend/internal/domain"
)

// Payload is what gets written to the outbox: the user-visible notification
// and the string-only data map the client uses for routing.
type Payload struct {
	Title string
	Body  string
	Data  map[string]string
}

// Data "type" values.
const (
	TypeFriendRequest   = "friend_request"
	TypeEventInvitation = "event_invitation"
	TypeActivityUpdate  = "activity_update"
	TypeActivityDeleted = "activity_deleted"
)

// Activity types and participant roles with a dedicated entry.
const (
	ActivityOther    = "other"
	RoleParticipant  = "participant"
	defaultTypeIcon  = "📅"
	defaultRoleLabel = keyRoleParticipant
)

var activityIcons = map[string]string{
	"beach":       "🏖️",
	"hiking":      "🥾",
	"camping":     "⛺",
	"sports":      "⚽",
	"picnic":      "🧺",
	"party":       "🎉",
	"concert":     "🎵",
	ActivityOther: defaultTypeIcon,
}

var roleLabels = map[string]string{
	"owner":         keyRoleOwner,
	"admin":         keyRoleAdmin,
	"moderator":     keyRoleModerator,
	RoleParticipant: keyRoleParticipant,
}

// Builder renders payloads in one locale. It is immutable after
// construction and safe for concurrent use.
type Builder struct {
	tag     language.Tag
	printer *message.Printer
}

// NewBuilder returns a Builder for the closest supported match of locale
// (a BCP 47 tag such as "pt-BR" or "en"); anything unsupported uses
// DefaultLocale.
func NewBuilder(locale string) (*Builder, error) {
	cat, err := newCatalog()
	if err != nil {
		return nil, err
	}
	tag := matchLocale(locale)
	return &Builder{
		tag:     tag,
		printer: message.NewPrinter(tag, message.Catalog(cat)),
	}, nil
}

// Locale returns the tag the builder renders in.
func (b *Builder) Locale() language.Tag { return b.tag }

// Build produces the payload for ev. It never fails and performs no I/O.
func (b *Builder) Build(ev domain.Event) Payload {
	switch e := ev.(type) {
	case domain.FriendRequestCreated:
		return b.friendRequest(e)
	case domain.EventInvitationCreated:
		return b.eventInvitation(e)
	case domain.ActivityUpdateCreated:
		return b.activityUpdate(e)
	case domain.ActivityDeleted:
		return b.activityDeleted(e)
	case domain.GenericNotificationRequested:
		return b.generic(e)
	}
	// unreachable for the closed set; keep the generic defaults
	return Payload{
		Title: b.printer.Sprintf(keyDefaultTitle),
		Body:  b.printer.Sprintf(keyDefaultBody),
		Data:  map[string]string{},
	}
}

func (b *Builder) friendRequest(e domain.FriendRequestCreated) Payload {
	sender := orDefault(e.FromUserName, b.printer.Sprintf(keyDefaultSender))
	return Payload{
		Title: b.printer.Sprintf(keyFriendRequestTitle),
		Body:  b.printer.Sprintf(keyFriendRequestBody, sender),
		Data: map[string]string{
			"type":         TypeFriendRequest,
			"requestId":    e.RequestID,
			"fromUserId":   e.FromUserID,
			"fromUserName": e.FromUserName,
		},
	}
}

func (b *Builder) eventInvitation(e domain.EventInvitationCreated) Payload {
	title := orDefault(e.ActivityTitle, b.printer.Sprintf(keyDefaultActivityTitle))
	role := e.ParticipantRole
	if role == "" {
		role = RoleParticipant
	}
	return Payload{
		Title: b.printer.Sprintf(keyInvitationTitle, Icon(e.ActivityType)),
		Body:  b.printer.Sprintf(keyInvitationBody, b.RoleLabel(e.ParticipantRole), title),
		Data: map[string]string{
			"type":          TypeEventInvitation,
			"activityId":    e.ActivityID,
			"activityTitle": e.ActivityTitle,
			"role":          role,
		},
	}
}

func (b *Builder) activityUpdate(e domain.ActivityUpdateCreated) Payload {
	title := orDefault(e.ActivityTitle, b.printer.Sprintf(keyDefaultActivityTitle))
	return Payload{
		Title: b.printer.Sprintf(keyUpdateTitle, title),
		Body:  orDefault(e.UpdateMessage, b.printer.Sprintf(keyDefaultUpdateMessage)),
		Data: map[string]string{
			"type":       TypeActivityUpdate,
			"activityId": e.ActivityID,
		},
	}
}

func (b *Builder) activityDeleted(e domain.ActivityDeleted) Payload {
	title := orDefault(e.Title, b.printer.Sprintf(keyDefaultActivityTitle))
	return Payload{
		Title: b.printer.Sprintf(keyDeletedTitle),
		Body:  b.printer.Sprintf(keyDeletedBody, title),
		Data: map[string]string{
			"type":          TypeActivityDeleted,
			"activityId":    e.ActivityID,
			"activityTitle": e.Title,
		},
	}
}

func (b *Builder) generic(e domain.GenericNotificationRequested) Payload {
	return Payload{
		Title: orDefault(e.Title, b.printer.Sprintf(keyDefaultTitle)),
		Body:  orDefault(e.Body, b.printer.Sprintf(keyDefaultBody)),
		Data:  StringifyData(e.Data),
	}
}

// Icon returns the icon for an activity type. Unknown and missing types get
// the "other" icon. Keys match exactly, so "Beach" is unknown.
func Icon(activityType string) string {
	if icon, ok := activityIcons[activityType]; ok {
		return icon
	}
	return defaultTypeIcon
}

// RoleLabel returns the localized label for a participant role. Unknown and
// missing roles get the "participant" label.
func (b *Builder) RoleLabel(role string) string {
	key, ok := roleLabels[role]
	if !ok {
		key = defaultRoleLabel
	}
	return b.printer.Sprintf(key)
}

// StringifyData converts arbitrary JSON values into the string-only map the
// gateway requires: strings pass through, numbers and booleans are
// formatted, null becomes "", and objects/arrays are JSON-encoded.
func StringifyData(in map[string]any) map[string]string {
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = stringify(v)
	}
	return out
}

func stringify(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case bool:
		return strconv.FormatBool(x)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(x), 'f', -1, 32)
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case json.Number:
		return x.String()
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(raw)
}

func orDefault(v, def string) string {
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}
