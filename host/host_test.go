package host

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opd-ai/steamsync/notify"
	"github.com/opd-ai/steamsync/steam"
	simtest "github.com/opd-ai/steamsync/testing"
)

type published struct {
	subject string
	event   Event
}

type fakePublisher struct {
	msgs []published
	raw  [][]byte
	err  error
}

func (p *fakePublisher) Publish(subj string, data []byte) error {
	if p.err != nil {
		return p.err
	}
	p.raw = append(p.raw, data)
	var ev Event
	if err := json.Unmarshal(data, &ev); err != nil {
		return err
	}
	p.msgs = append(p.msgs, published{subj, ev})
	return nil
}

func TestNATSHost_Subjects(t *testing.T) {
	pub := &fakePublisher{}
	h := NewNATSHost(pub, "steamsync.host", "alice", nil)

	h.PresenceChanged("a", true, "Online", "Portal")
	h.RelationshipNotice("a", "gordon", steam.NoticeAdded)
	h.BuddyRenamed("a", "gordon", "Gordon Freeman")
	h.LoginComplete()

	require.Len(t, pub.msgs, 4)
	assert.Equal(t, "steamsync.host.alice.presence", pub.msgs[0].subject)
	assert.Equal(t, "steamsync.host.alice.relationship", pub.msgs[1].subject)
	assert.Equal(t, "steamsync.host.alice.buddy", pub.msgs[2].subject)
	assert.Equal(t, "steamsync.host.alice.login", pub.msgs[3].subject)

	presence := pub.msgs[0].event
	require.NotNil(t, presence.Online)
	assert.True(t, *presence.Online)
	assert.Equal(t, "Portal", presence.Activity)
	assert.Equal(t, "alice", presence.Account)

	assert.Equal(t, "Added `gordon' to friends list", pub.msgs[1].event.Text)
	assert.Equal(t, "renamed", pub.msgs[2].event.Action)
}

func TestNATSHost_OfflineAndTypingFalseAreExplicit(t *testing.T) {
	pub := &fakePublisher{}
	h := NewNATSHost(pub, "p", "alice", nil)

	h.PresenceChanged("a", false, "Offline", "")
	h.TypingChanged("a", false)

	require.Len(t, pub.msgs, 2)
	require.NotNil(t, pub.msgs[0].event.Online)
	assert.False(t, *pub.msgs[0].event.Online)
	require.NotNil(t, pub.msgs[1].event.Typing)
	assert.False(t, *pub.msgs[1].event.Typing)
}

func TestNATSHost_PublishErrorIsLogged(t *testing.T) {
	logger, hook := logtest.NewNullLogger()
	h := NewNATSHost(&fakePublisher{err: errors.New("closed")}, "p", "alice", logrus.NewEntry(logger))

	assert.NotPanics(t, func() { h.FatalError("boom") })
	require.NotNil(t, hook.LastEntry())
	assert.Equal(t, logrus.WarnLevel, hook.LastEntry().Level)
}

func TestLogHost(t *testing.T) {
	logger, hook := logtest.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)
	h := NewLogHost(logrus.NewEntry(logger))

	h.RelationshipNotice("a", "gordon", steam.NoticeInviteReceived)
	assert.Equal(t, "Friendship invite from `gordon'", hook.LastEntry().Message)

	h.InfoLines("a", []string{"Name:      gordon", "Steam ID:  a"})
	assert.Len(t, hook.AllEntries(), 3)

	h.FatalError("boom")
	assert.Equal(t, logrus.ErrorLevel, hook.LastEntry().Level)
}

func TestMulti(t *testing.T) {
	a, b := simtest.NewRecordingHost(), simtest.NewRecordingHost()
	notes := []notify.Notification{
		notify.BuddyAdded{ID: "x"},
		notify.TypingChange{ID: "x", Typing: true},
		notify.Log{Message: "Connecting"},
	}

	notify.Deliver(Multi{a, b}, notes...)

	assert.Equal(t, notes, a.Notifications())
	assert.Equal(t, notes, b.Notifications())
}
