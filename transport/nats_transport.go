package transport

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/sirupsen/logrus"

	"github.com/opd-ai/steamsync/steam"
)

const (
	// DefaultPrefix is the subject prefix used when none is configured.
	DefaultPrefix = "steamsync.steam"
	// DefaultRequestTimeout bounds every request except Poll.
	DefaultRequestTimeout = 15 * time.Second
	// DefaultPollTimeout bounds Poll; the poller holds a poll open for up to
	// 30 seconds before answering with an empty batch.
	DefaultPollTimeout = 35 * time.Second
)

// Requester is the request/reply half of *nats.Conn.
type Requester interface {
	RequestWithContext(ctx context.Context, subj string, data []byte) (*nats.Msg, error)
}

// Options configures a NATSTransport.
type Options struct {
	// Account names the account on every request.
	Account string
	// Prefix is the subject prefix; DefaultPrefix when empty.
	Prefix string
	// RequestTimeout and PollTimeout default to DefaultRequestTimeout and
	// DefaultPollTimeout.
	RequestTimeout time.Duration
	PollTimeout    time.Duration
	Logger         *logrus.Entry
}

// NATSTransport implements interfaces.ITransport by exchanging JSON requests
// with a poller service over NATS. The poller owns the HTTP side of the
// remote API; this type only knows decoded values.
//
// It is safe for concurrent use. Session credentials learned from Authenticate
// and ResumeSession are attached to every later request.
type NATSTransport struct {
	conn Requester
	opts Options
	log  *logrus.Entry

	mu      sync.RWMutex
	token   string
	steamID string
	umqid   string
}

// NewNATSTransport creates a transport sending requests on conn.
func NewNATSTransport(conn Requester, opts Options) *NATSTransport {
	if opts.Prefix == "" {
		opts.Prefix = DefaultPrefix
	}
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = DefaultRequestTimeout
	}
	if opts.PollTimeout <= 0 {
		opts.PollTimeout = DefaultPollTimeout
	}
	log := opts.Logger
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &NATSTransport{
		conn: conn,
		opts: opts,
		log:  log.WithField("account", opts.Account),
	}
}

// Authenticate exchanges credentials for a session token.
func (t *NATSTransport) Authenticate(ctx context.Context, user, pass string, answers steam.ChallengeAnswers) (steam.Credentials, error) {
	var out authReply
	err := t.request(ctx, RequestAuth, t.opts.RequestTimeout, authRequest{
		Username:     user,
		Password:     pass,
		EmailAuth:    answers.AuthCode,
		CaptchaText:  answers.Captcha,
		EmailSteamID: answers.EmailSteamID,
		CaptchaGID:   answers.CaptchaGID,
	}, &out)
	if err != nil {
		return steam.Credentials{}, err
	}
	if out.Token == "" {
		return steam.Credentials{}, fmt.Errorf("%w: auth reply without token", ErrMalformedReply)
	}

	t.mu.Lock()
	t.token = out.Token
	t.steamID = out.SteamID
	t.mu.Unlock()

	return steam.Credentials{Token: out.Token, SteamID: steam.ID(out.SteamID)}, nil
}

// ResumeSession logs on with token.
func (t *NATSTransport) ResumeSession(ctx context.Context, token string) (steam.Logon, error) {
	t.mu.Lock()
	t.token = token
	t.mu.Unlock()

	var out resumeReply
	if err := t.request(ctx, RequestResume, t.opts.RequestTimeout, resumeRequest{Token: token}, &out); err != nil {
		return steam.Logon{}, err
	}

	t.mu.Lock()
	t.steamID = out.SteamID
	t.umqid = out.UMQID
	t.mu.Unlock()

	return steam.Logon{SteamID: steam.ID(out.SteamID), UMQID: out.UMQID}, nil
}

// FetchRoster returns the identities on the friends list. Pending requests
// are not part of the roster; they arrive as relationship events.
func (t *NATSTransport) FetchRoster(ctx context.Context) ([]steam.ID, error) {
	var out rosterReply
	if err := t.request(ctx, RequestRoster, t.opts.RequestTimeout, nil, &out); err != nil {
		return nil, err
	}

	ids := make([]steam.ID, 0, len(out.Friends))
	for _, f := range out.Friends {
		if f.SteamID == "" {
			continue
		}
		if f.Relationship != "" && steam.ParseRelationship(f.Relationship) != steam.RelationshipAdded {
			continue
		}
		ids = append(ids, steam.ID(f.SteamID))
	}
	return ids, nil
}

// FetchSummaries resolves ids into summaries.
func (t *NATSTransport) FetchSummaries(ctx context.Context, ids []steam.ID) ([]steam.Summary, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	req := summariesRequest{SteamIDs: make([]string, len(ids))}
	for i, id := range ids {
		req.SteamIDs[i] = id.String()
	}

	var out summariesReply
	if err := t.request(ctx, RequestSummaries, t.opts.RequestTimeout, req, &out); err != nil {
		return nil, err
	}

	summaries := make([]steam.Summary, 0, len(out.Players))
	for _, p := range out.Players {
		summaries = append(summaries, p.toSummary())
	}
	return summaries, nil
}

// Poll waits for the next batch of events. A poll that times out on our side
// is an empty batch, not an error.
func (t *NATSTransport) Poll(ctx context.Context) ([]steam.Event, error) {
	var out pollReply
	err := t.request(ctx, RequestPoll, t.opts.PollTimeout, nil, &out)
	if err != nil {
		if ctx.Err() == nil && errors.Is(err, context.DeadlineExceeded) {
			t.log.WithField("function", "Poll").Debug("Poll timed out with no events")
			return nil, nil
		}
		return nil, err
	}

	events := make([]steam.Event, 0, len(out.Messages))
	for _, m := range out.Messages {
		events = append(events, m.toEvent())
	}
	return events, nil
}

// SendMessage delivers a chat message, emote or typing ping.
func (t *NATSTransport) SendMessage(ctx context.Context, to steam.ID, text string, kind steam.MessageKind) error {
	return t.request(ctx, RequestSend, t.opts.RequestTimeout, sendRequest{
		SteamID: to.String(),
		Type:    kind.String(),
		Text:    text,
	}, nil)
}

// Logoff ends the remote session and forgets the local credentials.
func (t *NATSTransport) Logoff(ctx context.Context) error {
	err := t.request(ctx, RequestLogoff, t.opts.RequestTimeout, nil, nil)

	t.mu.Lock()
	t.token, t.steamID, t.umqid = "", "", ""
	t.mu.Unlock()

	return err
}

func (t *NATSTransport) request(ctx context.Context, typ RequestType, timeout time.Duration, data, out any) error {
	log := t.log.WithFields(logrus.Fields{
		"function": "request",
		"request":  typ.String(),
	})

	req, err := NewRequest(t.opts.Account, data)
	if err != nil {
		return err
	}
	t.mu.RLock()
	req.Token, req.SteamID, req.UMQID = t.token, t.steamID, t.umqid
	t.mu.RUnlock()

	payload, err := req.Serialize()
	if err != nil {
		return fmt.Errorf("failed to encode %s request: %w", typ, err)
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	msg, err := t.conn.RequestWithContext(ctx, typ.Subject(t.opts.Prefix), payload)
	if err != nil {
		if errors.Is(err, nats.ErrNoResponders) {
			log.Warn("No poller is listening")
			return fmt.Errorf("%w: %s: %v", ErrUnavailable, typ, err)
		}
		if errors.Is(err, nats.ErrTimeout) {
			return fmt.Errorf("%s request: %w", typ, context.DeadlineExceeded)
		}
		return fmt.Errorf("%s request: %w", typ, err)
	}

	if err := ParseReply(msg.Data, out); err != nil {
		log.WithError(err).Debug("Request failed")
		return err
	}
	return nil
}
