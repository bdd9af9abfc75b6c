package host

import (
	"github.com/opd-ai/steamsync/interfaces"
	"github.com/opd-ai/steamsync/steam"
)

// Multi fans every notification out to several hosts, in order.
type Multi []interfaces.IHost

func (m Multi) PresenceChanged(id steam.ID, online bool, status, activity string) {
	for _, h := range m {
		h.PresenceChanged(id, online, status, activity)
	}
}

func (m Multi) TypingChanged(id steam.ID, typing bool) {
	for _, h := range m {
		h.TypingChanged(id, typing)
	}
}

func (m Multi) MessageReceived(id steam.ID, text string) {
	for _, h := range m {
		h.MessageReceived(id, text)
	}
}

func (m Multi) RelationshipNotice(id steam.ID, nick string, kind steam.NoticeKind) {
	for _, h := range m {
		h.RelationshipNotice(id, nick, kind)
	}
}

func (m Multi) ApplyActivityDisplayMode(id steam.ID, mode steam.DisplayMode) {
	for _, h := range m {
		h.ApplyActivityDisplayMode(id, mode)
	}
}

func (m Multi) ChannelMessage(id steam.ID, text string) {
	for _, h := range m {
		h.ChannelMessage(id, text)
	}
}

func (m Multi) BuddyAdded(id steam.ID) {
	for _, h := range m {
		h.BuddyAdded(id)
	}
}

func (m Multi) BuddyRemoved(id steam.ID) {
	for _, h := range m {
		h.BuddyRemoved(id)
	}
}

func (m Multi) BuddyRenamed(id steam.ID, nick, fullName string) {
	for _, h := range m {
		h.BuddyRenamed(id, nick, fullName)
	}
}

func (m Multi) LoginComplete() {
	for _, h := range m {
		h.LoginComplete()
	}
}

func (m Multi) FatalError(message string) {
	for _, h := range m {
		h.FatalError(message)
	}
}

func (m Multi) InfoLines(id steam.ID, lines []string) {
	for _, h := range m {
		h.InfoLines(id, lines)
	}
}

func (m Multi) Log(message string) {
	for _, h := range m {
		h.Log(message)
	}
}
