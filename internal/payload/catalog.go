package payload

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message/catalog"
)

// Message keys. Templates use positional verbs only; every argument is a
// string that already had its default applied.
const (
	keyFriendRequestTitle = "friend_request.title"
	keyFriendRequestBody  = "friend_request.body"
	keyInvitationTitle    = "event_invitation.title"
	keyInvitationBody     = "event_invitation.body"
	keyUpdateTitle        = "activity_update.title"
	keyDeletedTitle       = "activity_deleted.title"
	keyDeletedBody        = "activity_deleted.body"

	keyDefaultSender        = "default.sender"
	keyDefaultActivityTitle = "default.activity_title"
	keyDefaultUpdateMessage = "default.update_message"
	keyDefaultTitle         = "default.notification_title"
	keyDefaultBody          = "default.notification_body"

	keyRoleOwner       = "role.owner"
	keyRoleAdmin       = "role.admin"
	keyRoleModerator   = "role.moderator"
	keyRoleParticipant = "role.participant"
)

// DefaultLocale is used when no locale, or an unsupported one, is configured.
var DefaultLocale = language.BrazilianPortuguese

var supported = []language.Tag{language.BrazilianPortuguese, language.English}

var translations = map[language.Tag]map[string]string{
	language.BrazilianPortuguese: {
		keyFriendRequestTitle: "Nova solicitação de amizade",
		keyFriendRequestBody:  "%s quer ser seu amigo",
		keyInvitationTitle:    "%s Convite para Evento",
		keyInvitationBody:     "Você foi convidado como %s para \"%s\"",
		keyUpdateTitle:        "📝 Atualização: %s",
		keyDeletedTitle:       "❌ Evento Cancelado",
		keyDeletedBody:        "O evento \"%s\" foi cancelado pelo organizador",

		keyDefaultSender:        "Alguém",
		keyDefaultActivityTitle: "Evento",
		keyDefaultUpdateMessage: "A atividade foi atualizada.",
		keyDefaultTitle:         "Notificação",
		keyDefaultBody:          "Você tem uma nova notificação.",

		keyRoleOwner:       "dono",
		keyRoleAdmin:       "administrador",
		keyRoleModerator:   "moderador",
		keyRoleParticipant: "participante",
	},
	language.English: {
		keyFriendRequestTitle: "New friend request",
		keyFriendRequestBody:  "%s wants to be your friend",
		keyInvitationTitle:    "%s Event Invitation",
		keyInvitationBody:     "You were invited as %s to \"%s\"",
		keyUpdateTitle:        "📝 Update: %s",
		keyDeletedTitle:       "❌ Event Cancelled",
		keyDeletedBody:        "The event \"%s\" was cancelled by the organizer",

		keyDefaultSender:        "Someone",
		keyDefaultActivityTitle: "Event",
		keyDefaultUpdateMessage: "The activity was updated.",
		keyDefaultTitle:         "Notification",
		keyDefaultBody:          "You have a new notification.",

		keyRoleOwner:       "owner",
		keyRoleAdmin:       "administrator",
		keyRoleModerator:   "moderator",
		keyRoleParticipant: "participant",
	},
}

// newCatalog builds the message catalog for every supported locale, falling
// back to DefaultLocale for missing keys.
func newCatalog() (catalog.Catalog, error) {
	b := catalog.NewBuilder(catalog.Fallback(DefaultLocale))
	for tag, msgs := range translations {
		for key, msg := range msgs {
			if err := b.SetString(tag, key, msg); err != nil {
				return nil, err
			}
		}
	}
	return b, nil
}

// matchLocale resolves a BCP 47 string to the closest supported tag.
func matchLocale(locale string) language.Tag {
	if locale == "" {
		return DefaultLocale
	}
	desired, _, err := language.ParseAcceptLanguage(locale)
	if err != nil || len(desired) == 0 {
		return DefaultLocale
	}
	_, idx, conf := language.NewMatcher(supported).Match(desired...)
	if conf == language.No {
		return DefaultLocale
	}
	return supported[idx]
}
