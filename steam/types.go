package steam

import (
	"strings"
)

// ID is the stable identifier of a remote user, e.g. "76561198000000000".
type ID string

// String returns the identifier as a plain string.
func (id ID) String() string {
	return string(id)
}

// PersonaState mirrors the remote presence of a contact.
type PersonaState uint8

const (
	PersonaOffline PersonaState = iota
	PersonaOnline
	PersonaBusy
	PersonaAway
	PersonaSnooze
	PersonaLookingToTrade
	PersonaLookingToPlay
)

var personaNames = [...]string{
	PersonaOffline:        "Offline",
	PersonaOnline:         "Online",
	PersonaBusy:           "Busy",
	PersonaAway:           "Away",
	PersonaSnooze:         "Snooze",
	PersonaLookingToTrade: "Looking to Trade",
	PersonaLookingToPlay:  "Looking to Play",
}

// String returns the human readable status label.
func (s PersonaState) String() string {
	if int(s) < len(personaNames) {
		return personaNames[s]
	}
	return personaNames[PersonaOffline]
}

// IsOnline reports whether the state is anything but offline.
func (s PersonaState) IsOnline() bool {
	return s != PersonaOffline && int(s) < len(personaNames)
}

// IsAway reports whether the contact is connected but not plainly online.
func (s PersonaState) IsAway() bool {
	return s.IsOnline() && s != PersonaOnline
}

// PersonaStateFromCode converts the numeric personastate used by the Web API.
// Out of range codes map to PersonaOffline.
func PersonaStateFromCode(code int) PersonaState {
	if code < 0 || code >= len(personaNames) {
		return PersonaOffline
	}
	return PersonaState(code)
}

// ParsePersonaState parses a status label case-insensitively. Unknown labels
// map to PersonaOffline.
func ParsePersonaState(label string) PersonaState {
	label = strings.TrimSpace(label)
	for i, name := range personaNames {
		if strings.EqualFold(name, label) {
			return PersonaState(i)
		}
	}
	return PersonaOffline
}

// Relationship is the friendship state between the account and a contact.
type Relationship uint8

const (
	RelationshipNone Relationship = iota
	RelationshipRequestReceived
	RelationshipRequestSent
	RelationshipAdded
	RelationshipRemoved
	RelationshipIgnored
)

func (r Relationship) String() string {
	switch r {
	case RelationshipRequestReceived:
		return "request_received"
	case RelationshipRequestSent:
		return "request_sent"
	case RelationshipAdded:
		return "added"
	case RelationshipRemoved:
		return "removed"
	case RelationshipIgnored:
		return "ignored"
	default:
		return "none"
	}
}

// ParseRelationship maps the relationship names used by the remote service
// (and our own String form) onto Relationship. Unknown names map to
// RelationshipNone, which the relationship handler ignores.
func ParseRelationship(name string) Relationship {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "requestrecipient", "request", "request_received":
		return RelationshipRequestReceived
	case "requestinitiator", "requested", "request_sent":
		return RelationshipRequestSent
	case "friend", "add", "added":
		return RelationshipAdded
	case "remove", "removed":
		return RelationshipRemoved
	case "ignore", "ignored", "blocked", "ignoredfriend":
		return RelationshipIgnored
	default:
		return RelationshipNone
	}
}

// EventKind tags a poll event.
type EventKind uint8

const (
	EventUnknown EventKind = iota
	EventChatText
	EventChatEmote
	EventConversationEnd
	EventRelationshipChanged
	EventPresenceChanged
	EventTypingNotice
)

func (k EventKind) String() string {
	switch k {
	case EventChatText:
		return "saytext"
	case EventChatEmote:
		return "emote"
	case EventConversationEnd:
		return "leftconversation"
	case EventRelationshipChanged:
		return "personarelationship"
	case EventPresenceChanged:
		return "personastate"
	case EventTypingNotice:
		return "typing"
	default:
		return "unknown"
	}
}

// ParseEventKind maps a poll message type onto EventKind. Types added by the
// remote service later come back as EventUnknown and are dropped by the
// dispatcher.
func ParseEventKind(name string) EventKind {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "saytext":
		return EventChatText
	case "emote":
		return EventChatEmote
	case "leftconversation":
		return EventConversationEnd
	case "personarelationship":
		return EventRelationshipChanged
	case "personastate":
		return EventPresenceChanged
	case "typing":
		return EventTypingNotice
	default:
		return EventUnknown
	}
}

// Event is a single notification returned by a poll.
type Event struct {
	Kind EventKind
	From ID
	// Text is set for chat events.
	Text string
	// Relationship is set for EventRelationshipChanged.
	Relationship Relationship
}

// Summary is a resolved snapshot of a contact. Game and Server are nil when
// the contact is not in an activity; nil is distinct from the empty string.
type Summary struct {
	ID         ID
	Nick       string
	FullName   string
	State      PersonaState
	Game       *string
	Server     *string
	ProfileURL string
}

// MessageKind selects how an outbound message is delivered.
type MessageKind uint8

const (
	MessageText MessageKind = iota
	MessageEmote
	MessageTyping
)

func (k MessageKind) String() string {
	switch k {
	case MessageEmote:
		return "emote"
	case MessageTyping:
		return "typing"
	default:
		return "saytext"
	}
}

// DisplayMode is the channel privilege applied to contacts that are playing.
type DisplayMode uint8

const (
	DisplayNone DisplayMode = iota
	DisplayOp
	DisplayHalfop
	DisplayVoice
)

// String returns the setting form: "@", "%", "+" or "".
func (m DisplayMode) String() string {
	switch m {
	case DisplayOp:
		return "@"
	case DisplayHalfop:
		return "%"
	case DisplayVoice:
		return "+"
	default:
		return ""
	}
}

// ParseDisplayMode looks at the first character only, so "@", "@op" and
// "@ " are all DisplayOp. Anything else is DisplayNone.
func ParseDisplayMode(value string) DisplayMode {
	if value == "" {
		return DisplayNone
	}
	switch value[0] {
	case '@':
		return DisplayOp
	case '%':
		return DisplayHalfop
	case '+':
		return DisplayVoice
	default:
		return DisplayNone
	}
}

// NoticeKind classifies a relationship notice shown to the user.
type NoticeKind uint8

const (
	NoticeInviteReceived NoticeKind = iota
	NoticeAdded
	NoticeInviteSent
	NoticeRemoved
	NoticeInviteIgnored
)

func (k NoticeKind) String() string {
	switch k {
	case NoticeAdded:
		return "added"
	case NoticeInviteSent:
		return "invite_sent"
	case NoticeRemoved:
		return "removed"
	case NoticeInviteIgnored:
		return "invite_ignored"
	default:
		return "invite_received"
	}
}

// Text renders the notice the way it is logged to the user.
func (k NoticeKind) Text(nick string) string {
	switch k {
	case NoticeAdded:
		return "Added `" + nick + "' to friends list"
	case NoticeInviteSent:
		return "Friendship invitation sent to `" + nick + "'"
	case NoticeRemoved:
		return "Removed `" + nick + "' from friends list"
	case NoticeInviteIgnored:
		return "Friendship invite from `" + nick + "' ignored"
	default:
		return "Friendship invite from `" + nick + "'"
	}
}

// Logon is the result of resuming a session with a token.
type Logon struct {
	SteamID ID
	UMQID   string
}

// Credentials is the result of a successful authentication.
type Credentials struct {
	Token   string
	SteamID ID
}

// ChallengeAnswers carries the inputs a previous challenge asked for, along
// with the challenge context the remote service handed back.
type ChallengeAnswers struct {
	AuthCode     string
	Captcha      string
	EmailSteamID string
	CaptchaGID   string
}

// StringPtr returns a pointer to s, for building optional Summary fields.
func StringPtr(s string) *string {
	return &s
}

// SameOptional compares two optional strings. nil only equals nil.
func SameOptional(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
