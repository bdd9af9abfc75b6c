package host

import (
	"encoding/json"

	"github.com/sirupsen/logrus"

	"github.com/opd-ai/steamsync/steam"
)

// Publisher is the publish half of *nats.Conn.
type Publisher interface {
	Publish(subj string, data []byte) error
}

// Notification kinds, used as the last subject token.
const (
	KindPresence     = "presence"
	KindTyping       = "typing"
	KindMessage      = "message"
	KindRelationship = "relationship"
	KindMode         = "mode"
	KindChannel      = "channel"
	KindBuddy        = "buddy"
	KindLogin        = "login"
	KindFatal        = "fatal"
	KindInfo         = "info"
	KindLog          = "log"
)

// Event is the JSON payload published for every notification. Only the
// members relevant to Kind are set.
type Event struct {
	Kind     string   `json:"kind"`
	Account  string   `json:"account"`
	SteamID  string   `json:"steamid,omitempty"`
	Action   string   `json:"action,omitempty"`
	Online   *bool    `json:"online,omitempty"`
	Status   string   `json:"status,omitempty"`
	Activity string   `json:"activity,omitempty"`
	Typing   *bool    `json:"typing,omitempty"`
	Text     string   `json:"text,omitempty"`
	Nick     string   `json:"nick,omitempty"`
	FullName string   `json:"full_name,omitempty"`
	Notice   string   `json:"notice,omitempty"`
	Mode     string   `json:"mode,omitempty"`
	Lines    []string `json:"lines,omitempty"`
}

// NATSHost publishes notifications on {prefix}.{account}.{kind}. Publishing
// is fire-and-forget: failures are logged and never reach the session.
type NATSHost struct {
	pub     Publisher
	prefix  string
	account string
	log     *logrus.Entry
}

// NewNATSHost creates a host publishing for account.
func NewNATSHost(pub Publisher, prefix, account string, entry *logrus.Entry) *NATSHost {
	if entry == nil {
		entry = logrus.NewEntry(logrus.StandardLogger())
	}
	return &NATSHost{
		pub:     pub,
		prefix:  prefix,
		account: account,
		log:     entry.WithField("account", account),
	}
}

// Subject returns the subject notifications of kind are published on.
func (h *NATSHost) Subject(kind string) string {
	return h.prefix + "." + h.account + "." + kind
}

func (h *NATSHost) publish(ev Event) {
	ev.Account = h.account
	data, err := json.Marshal(ev)
	if err != nil {
		h.log.WithFields(logrus.Fields{
			"function": "publish",
			"kind":     ev.Kind,
			"error":    err.Error(),
		}).Error("Failed to marshal notification")
		return
	}

	if err := h.pub.Publish(h.Subject(ev.Kind), data); err != nil {
		h.log.WithFields(logrus.Fields{
			"function": "publish",
			"kind":     ev.Kind,
			"error":    err.Error(),
		}).Warn("Failed to publish notification")
	}
}

func boolPtr(b bool) *bool { return &b }

func (h *NATSHost) PresenceChanged(id steam.ID, online bool, status, activity string) {
	h.publish(Event{Kind: KindPresence, SteamID: id.String(), Online: boolPtr(online), Status: status, Activity: activity})
}

func (h *NATSHost) TypingChanged(id steam.ID, typing bool) {
	h.publish(Event{Kind: KindTyping, SteamID: id.String(), Typing: boolPtr(typing)})
}

func (h *NATSHost) MessageReceived(id steam.ID, text string) {
	h.publish(Event{Kind: KindMessage, SteamID: id.String(), Text: text})
}

func (h *NATSHost) RelationshipNotice(id steam.ID, nick string, kind steam.NoticeKind) {
	h.publish(Event{Kind: KindRelationship, SteamID: id.String(), Nick: nick, Notice: kind.String(), Text: kind.Text(nick)})
}

func (h *NATSHost) ApplyActivityDisplayMode(id steam.ID, mode steam.DisplayMode) {
	h.publish(Event{Kind: KindMode, SteamID: id.String(), Mode: mode.String()})
}

func (h *NATSHost) ChannelMessage(id steam.ID, text string) {
	h.publish(Event{Kind: KindChannel, SteamID: id.String(), Text: text})
}

func (h *NATSHost) BuddyAdded(id steam.ID) {
	h.publish(Event{Kind: KindBuddy, SteamID: id.String(), Action: "added"})
}

func (h *NATSHost) BuddyRemoved(id steam.ID) {
	h.publish(Event{Kind: KindBuddy, SteamID: id.String(), Action: "removed"})
}

func (h *NATSHost) BuddyRenamed(id steam.ID, nick, fullName string) {
	h.publish(Event{Kind: KindBuddy, SteamID: id.String(), Action: "renamed", Nick: nick, FullName: fullName})
}

func (h *NATSHost) LoginComplete() {
	h.publish(Event{Kind: KindLogin})
}

func (h *NATSHost) FatalError(message string) {
	h.publish(Event{Kind: KindFatal, Text: message})
}

func (h *NATSHost) InfoLines(id steam.ID, lines []string) {
	h.publish(Event{Kind: KindInfo, SteamID: id.String(), Lines: lines})
}

func (h *NATSHost) Log(message string) {
	h.publish(Event{Kind: KindLog, Text: message})
}
