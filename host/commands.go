package host

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/sirupsen/logrus"

	"github.com/opd-ai/steamsync/interfaces"
	"github.com/opd-ai/steamsync/steam"
)

// Subscriber is the subscribe half of *nats.Conn.
type Subscriber interface {
	Subscribe(subj string, cb nats.MsgHandler) (*nats.Subscription, error)
}

// Command names, used as the last subject token below {prefix}.{account}.cmd.
const (
	CmdChallenge = "challenge"
	CmdSend      = "send"
	CmdTyping    = "typing"
	CmdInfo      = "info"
	CmdSet       = "set"
)

// Setting keys accepted by CmdSet.
const (
	SetGameStatus  = "game_status"
	SetShowPlaying = "show_playing"
	SetPassword    = "password"
)

// ErrUnknownCommand is replied for commands the router does not know.
var ErrUnknownCommand = errors.New("unknown command")

// settingTimeout bounds the store write behind a CmdSet.
const settingTimeout = 10 * time.Second

// Command is the JSON payload of a command. Only the members relevant to the
// command are read.
type Command struct {
	SteamID string `json:"steamid,omitempty"`
	Text    string `json:"text,omitempty"`
	Field   string `json:"field,omitempty"`
	Answer  string `json:"answer,omitempty"`
	Key     string `json:"key,omitempty"`
	Value   string `json:"value,omitempty"`
}

// CommandReply is published on the reply subject of a command, when the
// sender asked for one.
type CommandReply struct {
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}

// CommandRouter subscribes to {prefix}.{account}.cmd.* and drives a session
// with what it receives.
type CommandRouter struct {
	pub     Publisher
	session interfaces.ISession
	prefix  string
	account string
	log     *logrus.Entry

	sub *nats.Subscription
}

// NewCommandRouter creates a router for account. Replies are published on
// pub.
func NewCommandRouter(pub Publisher, session interfaces.ISession, prefix, account string, entry *logrus.Entry) *CommandRouter {
	if entry == nil {
		entry = logrus.NewEntry(logrus.StandardLogger())
	}
	return &CommandRouter{
		pub:     pub,
		session: session,
		prefix:  prefix,
		account: account,
		log:     entry.WithField("account", account),
	}
}

// Subject returns the subject command name is received on.
func (r *CommandRouter) Subject(name string) string {
	return r.prefix + "." + r.account + ".cmd." + name
}

// Start subscribes on sub.
func (r *CommandRouter) Start(sub Subscriber) error {
	s, err := sub.Subscribe(r.Subject("*"), r.handle)
	if err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", r.Subject("*"), err)
	}
	r.sub = s

	r.log.WithFields(logrus.Fields{
		"function": "Start",
		"subject":  r.Subject("*"),
	}).Info("Listening for commands")
	return nil
}

// Stop drops the subscription.
func (r *CommandRouter) Stop() {
	if r.sub == nil {
		return
	}
	if err := r.sub.Unsubscribe(); err != nil {
		r.log.WithError(err).Debug("Failed to unsubscribe from commands")
	}
	r.sub = nil
}

func (r *CommandRouter) handle(msg *nats.Msg) {
	name := msg.Subject[strings.LastIndexByte(msg.Subject, '.')+1:]

	var cmd Command
	err := json.Unmarshal(msg.Data, &cmd)
	if err != nil {
		err = fmt.Errorf("invalid command payload: %w", err)
	} else {
		err = r.Dispatch(name, cmd)
	}

	log := r.log.WithFields(logrus.Fields{
		"function": "handle",
		"command":  name,
	})
	if err != nil {
		log.WithError(err).Warn("Command failed")
	} else {
		log.Debug("Command handled")
	}

	if msg.Reply != "" {
		r.reply(msg.Reply, err)
	}
}

// Dispatch runs one command against the session.
func (r *CommandRouter) Dispatch(name string, cmd Command) error {
	id := steam.ID(cmd.SteamID)

	switch name {
	case CmdChallenge:
		return r.session.SubmitChallenge(steam.ChallengeField(cmd.Field), cmd.Answer)
	case CmdSend:
		return r.session.SendMessage(id, cmd.Text)
	case CmdTyping:
		return r.session.SendTyping(id)
	case CmdInfo:
		return r.session.GetInfo(id)
	case CmdSet:
		return r.set(cmd.Key, cmd.Value)
	}
	return fmt.Errorf("%w: %q", ErrUnknownCommand, name)
}

func (r *CommandRouter) set(key, value string) error {
	ctx, cancel := context.WithTimeout(context.Background(), settingTimeout)
	defer cancel()

	switch key {
	case SetGameStatus:
		on, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid %s value %q: %w", key, value, err)
		}
		return r.session.SetAnnounceGameActivity(ctx, on)
	case SetShowPlaying:
		return r.session.SetDisplayMode(ctx, steam.ParseDisplayMode(value))
	case SetPassword:
		return r.session.SetPassword(ctx, value)
	}
	return fmt.Errorf("%w: setting %q", ErrUnknownCommand, key)
}

func (r *CommandRouter) reply(subject string, err error) {
	out := CommandReply{OK: err == nil}
	if err != nil {
		out.Error = err.Error()
	}
	data, merr := json.Marshal(out)
	if merr != nil {
		r.log.WithError(merr).Error("Failed to marshal command reply")
		return
	}
	if perr := r.pub.Publish(subject, data); perr != nil {
		r.log.WithFields(logrus.Fields{
			"function": "reply",
			"subject":  subject,
		}).WithError(perr).Warn("Failed to publish command reply")
	}
}
