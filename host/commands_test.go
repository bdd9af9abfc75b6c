package host

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opd-ai/steamsync/steam"
)

type fakeSubscriber struct {
	subject string
	handler nats.MsgHandler
	err     error
}

func (s *fakeSubscriber) Subscribe(subj string, cb nats.MsgHandler) (*nats.Subscription, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.subject = subj
	s.handler = cb
	return nil, nil
}

type recordingSession struct {
	calls []string
	err   error

	field  steam.ChallengeField
	answer string
	to     steam.ID
	text   string
	on     bool
	mode   steam.DisplayMode
	pass   string
}

func (s *recordingSession) SubmitChallenge(field steam.ChallengeField, answer string) error {
	s.calls = append(s.calls, "challenge")
	s.field, s.answer = field, answer
	return s.err
}

func (s *recordingSession) SendMessage(to steam.ID, text string) error {
	s.calls = append(s.calls, "send")
	s.to, s.text = to, text
	return s.err
}

func (s *recordingSession) SendTyping(to steam.ID) error {
	s.calls = append(s.calls, "typing")
	s.to = to
	return s.err
}

func (s *recordingSession) GetInfo(id steam.ID) error {
	s.calls = append(s.calls, "info")
	s.to = id
	return s.err
}

func (s *recordingSession) SetAnnounceGameActivity(_ context.Context, on bool) error {
	s.calls = append(s.calls, "game_status")
	s.on = on
	return s.err
}

func (s *recordingSession) SetDisplayMode(_ context.Context, mode steam.DisplayMode) error {
	s.calls = append(s.calls, "show_playing")
	s.mode = mode
	return s.err
}

func (s *recordingSession) SetPassword(_ context.Context, password string) error {
	s.calls = append(s.calls, "password")
	s.pass = password
	return s.err
}

func deliver(t *testing.T, sub *fakeSubscriber, name, reply string, cmd any) {
	t.Helper()
	data, err := json.Marshal(cmd)
	require.NoError(t, err)
	sub.handler(&nats.Msg{Subject: "steamsync.host.alice.cmd." + name, Reply: reply, Data: data})
}

func newRouter(t *testing.T) (*CommandRouter, *recordingSession, *fakeSubscriber, *fakePublisher) {
	t.Helper()
	sess := &recordingSession{}
	pub := &fakePublisher{}
	sub := &fakeSubscriber{}
	r := NewCommandRouter(pub, sess, "steamsync.host", "alice", nil)
	require.NoError(t, r.Start(sub))
	return r, sess, sub, pub
}

func TestCommandRouter_Subscribes(t *testing.T) {
	r, _, sub, _ := newRouter(t)

	assert.Equal(t, "steamsync.host.alice.cmd.*", sub.subject)
	assert.Equal(t, "steamsync.host.alice.cmd.send", r.Subject(CmdSend))
	r.Stop()
}

func TestCommandRouter_SubscribeError(t *testing.T) {
	r := NewCommandRouter(&fakePublisher{}, &recordingSession{}, "p", "alice", nil)

	err := r.Start(&fakeSubscriber{err: nats.ErrConnectionClosed})

	assert.ErrorIs(t, err, nats.ErrConnectionClosed)
}

func TestCommandRouter_Routes(t *testing.T) {
	_, sess, sub, _ := newRouter(t)

	deliver(t, sub, CmdChallenge, "", Command{Field: "authcode", Answer: "ABCDE"})
	assert.Equal(t, steam.ChallengeAuthCode, sess.field)
	assert.Equal(t, "ABCDE", sess.answer)

	deliver(t, sub, CmdSend, "", Command{SteamID: "76561198000000000", Text: "hi"})
	assert.Equal(t, steam.ID("76561198000000000"), sess.to)
	assert.Equal(t, "hi", sess.text)

	deliver(t, sub, CmdTyping, "", Command{SteamID: "1"})
	deliver(t, sub, CmdInfo, "", Command{SteamID: "2"})
	assert.Equal(t, steam.ID("2"), sess.to)

	deliver(t, sub, CmdSet, "", Command{Key: SetGameStatus, Value: "true"})
	assert.True(t, sess.on)
	deliver(t, sub, CmdSet, "", Command{Key: SetShowPlaying, Value: "@"})
	assert.Equal(t, steam.DisplayOp, sess.mode)
	deliver(t, sub, CmdSet, "", Command{Key: SetPassword, Value: "lambda"})
	assert.Equal(t, "lambda", sess.pass)

	assert.Equal(t, []string{"challenge", "send", "typing", "info", "game_status", "show_playing", "password"}, sess.calls)
}

func TestCommandRouter_Replies(t *testing.T) {
	_, sess, sub, pub := newRouter(t)

	deliver(t, sub, CmdSend, "_INBOX.1", Command{SteamID: "1", Text: "hi"})
	sess.err = errors.New("not logged in")
	deliver(t, sub, CmdSend, "_INBOX.2", Command{SteamID: "1", Text: "hi"})
	deliver(t, sub, CmdTyping, "", Command{SteamID: "1"})

	require.Len(t, pub.msgs, 2, "no reply subject, no reply")
	assert.Equal(t, "_INBOX.1", pub.msgs[0].subject)
	assert.Equal(t, "_INBOX.2", pub.msgs[1].subject)

	var ok, failed CommandReply
	require.NoError(t, json.Unmarshal(pub.raw[0], &ok))
	require.NoError(t, json.Unmarshal(pub.raw[1], &failed))
	assert.Equal(t, CommandReply{OK: true}, ok)
	assert.Equal(t, CommandReply{Error: "not logged in"}, failed)
}

func TestCommandRouter_Invalid(t *testing.T) {
	r, sess, sub, pub := newRouter(t)

	assert.ErrorIs(t, r.Dispatch("reboot", Command{}), ErrUnknownCommand)
	assert.ErrorIs(t, r.Dispatch(CmdSet, Command{Key: "volume"}), ErrUnknownCommand)
	assert.Error(t, r.Dispatch(CmdSet, Command{Key: SetGameStatus, Value: "sometimes"}))

	sub.handler(&nats.Msg{Subject: "steamsync.host.alice.cmd.send", Reply: "_INBOX.3", Data: []byte("{")})
	require.Len(t, pub.raw, 1)
	var reply CommandReply
	require.NoError(t, json.Unmarshal(pub.raw[0], &reply))
	assert.False(t, reply.OK)
	assert.Contains(t, reply.Error, "invalid command payload")

	assert.Empty(t, sess.calls)
}
