package transport

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opd-ai/steamsync/steam"
)

// fakeBus answers requests from per-subject handlers and records every
// request it saw.
type fakeBus struct {
	mu       sync.Mutex
	handlers map[string]func(Request) (string, error)
	seen     []Request
	subjects []string
}

func newFakeBus() *fakeBus {
	return &fakeBus{handlers: make(map[string]func(Request) (string, error))}
}

func (b *fakeBus) handle(subject, reply string) {
	b.handlers[subject] = func(Request) (string, error) { return reply, nil }
}

func (b *fakeBus) RequestWithContext(ctx context.Context, subj string, data []byte) (*nats.Msg, error) {
	var req Request
	if err := json.Unmarshal(data, &req); err != nil {
		return nil, err
	}

	b.mu.Lock()
	b.seen = append(b.seen, req)
	b.subjects = append(b.subjects, subj)
	h, ok := b.handlers[subj]
	b.mu.Unlock()

	if !ok {
		return nil, nats.ErrNoResponders
	}
	reply, err := h(req)
	if err != nil {
		return nil, err
	}
	return &nats.Msg{Subject: subj, Data: []byte(reply)}, nil
}

func (b *fakeBus) last() Request {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.seen[len(b.seen)-1]
}

func newTestTransport(bus *fakeBus) *NATSTransport {
	return NewNATSTransport(bus, Options{Account: "alice", Prefix: "test"})
}

func TestAuthenticate(t *testing.T) {
	bus := newFakeBus()
	bus.handle("test.auth", `{"data":{"token":"tok","steamid":"76561198000000000"}}`)
	tr := newTestTransport(bus)

	creds, err := tr.Authenticate(context.Background(), "alice", "pw", steam.ChallengeAnswers{
		AuthCode:     "GUARD",
		EmailSteamID: "esid",
	})
	require.NoError(t, err)

	assert.Equal(t, steam.Credentials{Token: "tok", SteamID: "76561198000000000"}, creds)

	var sent authRequest
	require.NoError(t, json.Unmarshal(bus.last().Data, &sent))
	assert.Equal(t, authRequest{Username: "alice", Password: "pw", EmailAuth: "GUARD", EmailSteamID: "esid"}, sent)
	assert.Equal(t, "alice", bus.last().Account)
}

func TestAuthenticate_Challenge(t *testing.T) {
	bus := newFakeBus()
	bus.handle("test.auth", `{"error":{"code":"challenge","field":"captcha","url":"https://example.invalid/c.png","message":"Captcha required","captchagid":"123"}}`)

	_, err := newTestTransport(bus).Authenticate(context.Background(), "alice", "pw", steam.ChallengeAnswers{})

	ce, ok := steam.AsChallenge(err)
	require.True(t, ok, "got %v", err)
	assert.Equal(t, steam.ChallengeCaptcha, ce.Field)
	assert.Equal(t, "https://example.invalid/c.png", ce.URL)
	assert.Equal(t, "123", ce.CaptchaGID)
	assert.Equal(t, "Captcha required", ce.Error())
}

func TestAuthenticate_MissingToken(t *testing.T) {
	bus := newFakeBus()
	bus.handle("test.auth", `{"data":{}}`)

	_, err := newTestTransport(bus).Authenticate(context.Background(), "alice", "pw", steam.ChallengeAnswers{})
	assert.ErrorIs(t, err, ErrMalformedReply)
}

func TestResumeSession_AttachesCredentials(t *testing.T) {
	bus := newFakeBus()
	bus.handle("test.resume", `{"data":{"steamid":"1","umqid":"9"}}`)
	bus.handle("test.roster", `{"data":{"friends":[]}}`)
	tr := newTestTransport(bus)

	logon, err := tr.ResumeSession(context.Background(), "tok")
	require.NoError(t, err)
	assert.Equal(t, steam.Logon{SteamID: "1", UMQID: "9"}, logon)

	_, err = tr.FetchRoster(context.Background())
	require.NoError(t, err)

	last := bus.last()
	assert.Equal(t, "tok", last.Token)
	assert.Equal(t, "1", last.SteamID)
	assert.Equal(t, "9", last.UMQID)
}

func TestResumeSession_Expired(t *testing.T) {
	bus := newFakeBus()
	bus.handle("test.resume", `{"error":{"code":"session_expired","message":"Not logged on"}}`)

	_, err := newTestTransport(bus).ResumeSession(context.Background(), "old")
	assert.ErrorIs(t, err, steam.ErrSessionExpired)
}

func TestFetchRoster_OnlyFriends(t *testing.T) {
	bus := newFakeBus()
	bus.handle("test.roster", `{"data":{"friends":[
		{"steamid":"a","relationship":"friend"},
		{"steamid":"b","relationship":"requestrecipient"},
		{"steamid":"c"},
		{"steamid":""}
	]}}`)

	ids, err := newTestTransport(bus).FetchRoster(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []steam.ID{"a", "c"}, ids)
}

func TestFetchSummaries(t *testing.T) {
	bus := newFakeBus()
	bus.handle("test.summaries", `{"data":{"players":[
		{"steamid":"a","personaname":"gordon","realname":"Gordon Freeman","personastate":1,
		 "gameextrainfo":"Half-Life 2","gameserverip":"1.2.3.4:27015","profileurl":"https://example.invalid/a"},
		{"steamid":"b","personaname":"alyx","personastate":42}
	]}}`)
	tr := newTestTransport(bus)

	summaries, err := tr.FetchSummaries(context.Background(), []steam.ID{"a", "b"})
	require.NoError(t, err)
	require.Len(t, summaries, 2)

	assert.Equal(t, steam.Summary{
		ID:         "a",
		Nick:       "gordon",
		FullName:   "Gordon Freeman",
		State:      steam.PersonaOnline,
		Game:       steam.StringPtr("Half-Life 2"),
		Server:     steam.StringPtr("1.2.3.4:27015"),
		ProfileURL: "https://example.invalid/a",
	}, summaries[0])
	assert.Equal(t, steam.PersonaOffline, summaries[1].State, "unknown codes are offline")
	assert.Nil(t, summaries[1].Game)

	var sent summariesRequest
	require.NoError(t, json.Unmarshal(bus.last().Data, &sent))
	assert.Equal(t, []string{"a", "b"}, sent.SteamIDs)
}

func TestFetchSummaries_EmptySkipsRequest(t *testing.T) {
	bus := newFakeBus()

	summaries, err := newTestTransport(bus).FetchSummaries(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, summaries)
	assert.Empty(t, bus.subjects)
}

func TestPoll(t *testing.T) {
	bus := newFakeBus()
	bus.handle("test.poll", `{"data":{"messages":[
		{"type":"saytext","steamid_from":"a","text":"hi"},
		{"type":"personarelationship","steamid_from":"b","relationship":"requestrecipient"},
		{"type":"personastate","steamid_from":"c"},
		{"type":"mystery","steamid_from":"d"}
	]}}`)

	events, err := newTestTransport(bus).Poll(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []steam.Event{
		{Kind: steam.EventChatText, From: "a", Text: "hi"},
		{Kind: steam.EventRelationshipChanged, From: "b", Relationship: steam.RelationshipRequestReceived},
		{Kind: steam.EventPresenceChanged, From: "c"},
		{Kind: steam.EventUnknown, From: "d"},
	}, events)
}

func TestPoll_LocalTimeoutIsEmpty(t *testing.T) {
	bus := newFakeBus()
	bus.handlers["test.poll"] = func(Request) (string, error) {
		return "", context.DeadlineExceeded
	}

	events, err := newTestTransport(bus).Poll(context.Background())
	assert.NoError(t, err)
	assert.Empty(t, events)
}

func TestPoll_CallerCancelled(t *testing.T) {
	bus := newFakeBus()
	bus.handlers["test.poll"] = func(Request) (string, error) {
		return "", context.Canceled
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newTestTransport(bus).Poll(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSendMessage(t *testing.T) {
	bus := newFakeBus()
	bus.handle("test.send", `{}`)

	require.NoError(t, newTestTransport(bus).SendMessage(context.Background(), "a", "", steam.MessageTyping))

	var sent sendRequest
	require.NoError(t, json.Unmarshal(bus.last().Data, &sent))
	assert.Equal(t, sendRequest{SteamID: "a", Type: "typing"}, sent)
}

func TestSendMessage_RemoteError(t *testing.T) {
	bus := newFakeBus()
	bus.handle("test.send", `{"error":{"code":"error","message":"Rate limited"}}`)

	err := newTestTransport(bus).SendMessage(context.Background(), "a", "hi", steam.MessageText)
	assert.ErrorIs(t, err, ErrRemote)
	assert.Contains(t, err.Error(), "Rate limited")
}

func TestLogoff_ForgetsCredentials(t *testing.T) {
	bus := newFakeBus()
	bus.handle("test.resume", `{"data":{"steamid":"1","umqid":"9"}}`)
	bus.handle("test.logoff", `{}`)
	tr := newTestTransport(bus)

	_, err := tr.ResumeSession(context.Background(), "tok")
	require.NoError(t, err)
	require.NoError(t, tr.Logoff(context.Background()))
	assert.Equal(t, "tok", bus.last().Token)

	// Nobody answers now; the request still shows the cleared envelope.
	_, err = tr.FetchRoster(context.Background())
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.Empty(t, bus.last().Token)
}

func TestRequest_Timeout(t *testing.T) {
	bus := newFakeBus()
	bus.handlers["test.roster"] = func(Request) (string, error) {
		return "", nats.ErrTimeout
	}

	_, err := newTestTransport(bus).FetchRoster(context.Background())
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestRequest_DeadlineApplied(t *testing.T) {
	var deadline time.Time
	bus := &deadlineBus{record: func(d time.Time) { deadline = d }}
	tr := NewNATSTransport(bus, Options{RequestTimeout: time.Minute})

	start := time.Now()
	_, _ = tr.FetchRoster(context.Background())

	assert.WithinDuration(t, start.Add(time.Minute), deadline, 5*time.Second)
}

type deadlineBus struct{ record func(time.Time) }

func (d *deadlineBus) RequestWithContext(ctx context.Context, _ string, _ []byte) (*nats.Msg, error) {
	dl, _ := ctx.Deadline()
	d.record(dl)
	return &nats.Msg{Data: []byte(`{"data":{"friends":[]}}`)}, nil
}

func TestDefaults(t *testing.T) {
	tr := NewNATSTransport(newFakeBus(), Options{})

	assert.Equal(t, DefaultPrefix, tr.opts.Prefix)
	assert.Equal(t, DefaultRequestTimeout, tr.opts.RequestTimeout)
	assert.Equal(t, DefaultPollTimeout, tr.opts.PollTimeout)
}

func TestParseReply(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		wantErr error
	}{
		{"empty", "", ErrMalformedReply},
		{"not json", "nope", ErrMalformedReply},
		{"ok without data", "{}", nil},
		{"expired", `{"error":{"code":"session_expired"}}`, steam.ErrSessionExpired},
		{"remote", `{"error":{"code":"busy"}}`, ErrRemote},
		{"bad data", `{"data":{"friends":"x"}}`, ErrMalformedReply},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out rosterReply
			err := ParseReply([]byte(tt.data), &out)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
		})
	}
}

func TestRequestType(t *testing.T) {
	assert.Equal(t, "steamsync.steam.poll", RequestPoll.Subject(DefaultPrefix))
	assert.Equal(t, "unknown", RequestType(0).String())
}
