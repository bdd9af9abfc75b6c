package notify_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/opd-ai/steamsync/notify"
	"github.com/opd-ai/steamsync/steam"
	simtest "github.com/opd-ai/steamsync/testing"
)

func TestDeliver_EveryKindInOrder(t *testing.T) {
	notes := []notify.Notification{
		notify.BuddyAdded{ID: "a"},
		notify.BuddyRenamed{ID: "a", Nick: "gordon", FullName: "Gordon Freeman"},
		notify.PresenceChange{ID: "a", Online: true, Status: "Online", Activity: "Portal"},
		notify.ActivityModeChange{ID: "a", Mode: steam.DisplayVoice},
		notify.ChannelMessage{ID: "a", Text: "/me is now playing: Portal"},
		notify.TypingChange{ID: "a", Typing: true},
		notify.MessageReceived{ID: "a", Text: "hi"},
		notify.RelationshipNotice{ID: "a", Nick: "gordon", Kind: steam.NoticeRemoved},
		notify.BuddyRemoved{ID: "a"},
		notify.LoginComplete{},
		notify.InfoLines{ID: "a", Lines: []string{"Name:      gordon"}},
		notify.Log{Message: "Connecting"},
		notify.FatalError{Message: "boom"},
	}
	host := simtest.NewRecordingHost()

	notify.Deliver(host, notes...)

	assert.Equal(t, notes, host.Notifications())
}

func TestDeliver_NilHost(t *testing.T) {
	assert.NotPanics(t, func() {
		notify.Deliver(nil, notify.LoginComplete{})
	})
}
