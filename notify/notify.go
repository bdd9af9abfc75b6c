// Package notify holds the normalized notifications produced by reconciling
// remote state, and delivers them to an interfaces.IHost.
//
// The reconciler, relationship handler and dispatcher return notifications
// as values instead of calling the host directly, which keeps them free of
// side effects and lets a session deliver them in order from its loop.
package notify

import (
	"github.com/opd-ai/steamsync/interfaces"
	"github.com/opd-ai/steamsync/steam"
)

// Notification is one of the concrete types in this package.
type Notification interface {
	isNotification()
}

// PresenceChange updates a buddy's status. Activity is empty when the
// contact is not playing.
type PresenceChange struct {
	ID       steam.ID
	Online   bool
	Status   string
	Activity string
}

// TypingChange toggles the typing indicator.
type TypingChange struct {
	ID     steam.ID
	Typing bool
}

// MessageReceived is an incoming chat line. Emotes carry a "/me " prefix.
type MessageReceived struct {
	ID   steam.ID
	Text string
}

// RelationshipNotice tells the user about a friendship change.
type RelationshipNotice struct {
	ID   steam.ID
	Nick string
	Kind steam.NoticeKind
}

// ActivityModeChange applies the display mode to channels shared with ID.
type ActivityModeChange struct {
	ID   steam.ID
	Mode steam.DisplayMode
}

// ChannelMessage is a broadcast line for channels shared with ID.
type ChannelMessage struct {
	ID   steam.ID
	Text string
}

// BuddyAdded registers a buddy with the host.
type BuddyAdded struct {
	ID steam.ID
}

// BuddyRemoved drops a buddy from the host.
type BuddyRemoved struct {
	ID steam.ID
}

// BuddyRenamed carries the latest nick and real name of a buddy.
type BuddyRenamed struct {
	ID       steam.ID
	Nick     string
	FullName string
}

// LoginComplete is emitted once per session.
type LoginComplete struct{}

// FatalError precedes session termination.
type FatalError struct {
	Message string
}

// InfoLines answers a profile lookup.
type InfoLines struct {
	ID    steam.ID
	Lines []string
}

// Log is an informational notice.
type Log struct {
	Message string
}

func (PresenceChange) isNotification()     {}
func (TypingChange) isNotification()       {}
func (MessageReceived) isNotification()    {}
func (RelationshipNotice) isNotification() {}
func (ActivityModeChange) isNotification() {}
func (ChannelMessage) isNotification()     {}
func (BuddyAdded) isNotification()         {}
func (BuddyRemoved) isNotification()       {}
func (BuddyRenamed) isNotification()       {}
func (LoginComplete) isNotification()      {}
func (FatalError) isNotification()         {}
func (InfoLines) isNotification()          {}
func (Log) isNotification()                {}

// Deliver invokes the host method matching each notification, in order.
// A nil host drops everything.
func Deliver(host interfaces.IHost, notes ...Notification) {
	if host == nil {
		return
	}
	for _, n := range notes {
		switch n := n.(type) {
		case PresenceChange:
			host.PresenceChanged(n.ID, n.Online, n.Status, n.Activity)
		case TypingChange:
			host.TypingChanged(n.ID, n.Typing)
		case MessageReceived:
			host.MessageReceived(n.ID, n.Text)
		case RelationshipNotice:
			host.RelationshipNotice(n.ID, n.Nick, n.Kind)
		case ActivityModeChange:
			host.ApplyActivityDisplayMode(n.ID, n.Mode)
		case ChannelMessage:
			host.ChannelMessage(n.ID, n.Text)
		case BuddyAdded:
			host.BuddyAdded(n.ID)
		case BuddyRemoved:
			host.BuddyRemoved(n.ID)
		case BuddyRenamed:
			host.BuddyRenamed(n.ID, n.Nick, n.FullName)
		case LoginComplete:
			host.LoginComplete()
		case FatalError:
			host.FatalError(n.Message)
		case InfoLines:
			host.InfoLines(n.ID, n.Lines)
		case Log:
			host.Log(n.Message)
		}
	}
}
