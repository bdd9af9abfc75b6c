package messaging

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/opd-ai/steamsync/limits"
	"github.com/opd-ai/steamsync/steam"
)

// EmotePrefix marks an action message in host text.
const EmotePrefix = "/me "

// ErrUnknownMessage is returned when completing a message the manager does
// not track.
var ErrUnknownMessage = errors.New("unknown message")

// MessageState represents the delivery state of an outbound message.
type MessageState uint8

const (
	// MessageStatePending means the message is waiting to be sent.
	MessageStatePending MessageState = iota
	// MessageStateSending means the message has been handed to the transport.
	MessageStateSending
	// MessageStateSent means the transport accepted the message.
	MessageStateSent
	// MessageStateFailed means the transport rejected the message.
	MessageStateFailed
	// MessageStateCancelled means the session went away before the send
	// completed.
	MessageStateCancelled
)

// String returns a human-readable name for the state.
func (s MessageState) String() string {
	switch s {
	case MessageStatePending:
		return "pending"
	case MessageStateSending:
		return "sending"
	case MessageStateSent:
		return "sent"
	case MessageStateFailed:
		return "failed"
	case MessageStateCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// TimeProvider abstracts time for deterministic tests.
type TimeProvider interface {
	Now() time.Time
}

// DefaultTimeProvider uses the system clock.
type DefaultTimeProvider struct{}

// Now returns the current system time.
func (DefaultTimeProvider) Now() time.Time { return time.Now() }

// Message is one outbound chat message or typing notice.
type Message struct {
	ID        uint32
	To        steam.ID
	Kind      steam.MessageKind
	Text      string
	Timestamp time.Time
	State     MessageState
	Err       error

	cancel context.CancelFunc
}

// Manager tracks outbound messages from preparation to completion.
type Manager struct {
	mu           sync.Mutex
	messages     map[uint32]*Message
	nextID       uint32
	allowEmote   bool
	timeProvider TimeProvider
	log          *logrus.Entry
}

// NewManager creates a manager. With allowEmote set, text starting with
// "/me " is sent as an emote; otherwise it is sent verbatim.
func NewManager(allowEmote bool, entry *logrus.Entry) *Manager {
	if entry == nil {
		entry = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Manager{
		messages:     make(map[uint32]*Message),
		nextID:       1,
		allowEmote:   allowEmote,
		timeProvider: DefaultTimeProvider{},
		log:          entry,
	}
}

// SetTimeProvider replaces the clock used to stamp messages.
func (mm *Manager) SetTimeProvider(tp TimeProvider) {
	mm.mu.Lock()
	defer mm.mu.Unlock()
	mm.timeProvider = tp
}

// Prepare validates text and registers a pending message to to.
func (mm *Manager) Prepare(to steam.ID, text string) (*Message, error) {
	kind := steam.MessageText
	if mm.allowEmote && strings.HasPrefix(text, EmotePrefix) {
		kind = steam.MessageEmote
		text = strings.TrimPrefix(text, EmotePrefix)
	}

	if err := limits.ValidateChatMessage(text); err != nil {
		mm.log.WithFields(logrus.Fields{
			"function": "Prepare",
			"to":       to,
			"error":    err.Error(),
		}).Warn("Rejected outbound message")
		return nil, err
	}

	return mm.register(to, kind, text), nil
}

// PrepareTyping registers a typing notice to to.
func (mm *Manager) PrepareTyping(to steam.ID) *Message {
	return mm.register(to, steam.MessageTyping, "")
}

func (mm *Manager) register(to steam.ID, kind steam.MessageKind, text string) *Message {
	mm.mu.Lock()
	defer mm.mu.Unlock()

	msg := &Message{
		ID:        mm.nextID,
		To:        to,
		Kind:      kind,
		Text:      text,
		Timestamp: mm.timeProvider.Now(),
		State:     MessageStatePending,
	}
	mm.nextID++
	mm.messages[msg.ID] = msg
	return msg
}

// Begin marks msg as sending and returns a context that CancelAll cancels.
func (mm *Manager) Begin(ctx context.Context, msg *Message) context.Context {
	ctx, cancel := context.WithCancel(ctx)

	mm.mu.Lock()
	defer mm.mu.Unlock()

	msg.State = MessageStateSending
	msg.cancel = cancel
	return ctx
}

// Complete records the transport's verdict for message id and stops tracking
// it.
func (mm *Manager) Complete(id uint32, err error) (*Message, error) {
	mm.mu.Lock()
	defer mm.mu.Unlock()

	msg, ok := mm.messages[id]
	if !ok {
		return nil, ErrUnknownMessage
	}
	delete(mm.messages, id)

	if msg.cancel != nil {
		msg.cancel()
		msg.cancel = nil
	}

	switch {
	case err == nil:
		msg.State = MessageStateSent
	case errors.Is(err, context.Canceled):
		msg.State = MessageStateCancelled
		msg.Err = err
	default:
		msg.State = MessageStateFailed
		msg.Err = err
	}
	return msg, nil
}

// Requeue abandons the in-flight send of message id and marks it pending
// again so it can be sent once more.
func (mm *Manager) Requeue(id uint32) error {
	mm.mu.Lock()
	defer mm.mu.Unlock()

	msg, ok := mm.messages[id]
	if !ok {
		return ErrUnknownMessage
	}
	if msg.cancel != nil {
		msg.cancel()
		msg.cancel = nil
	}
	msg.State = MessageStatePending
	msg.Err = nil

	mm.log.WithFields(logrus.Fields{
		"function": "Requeue",
		"id":       id,
		"to":       msg.To,
	}).Debug("Requeued outbound message")
	return nil
}

// Pending returns the tracked messages ordered by ID.
func (mm *Manager) Pending() []*Message {
	mm.mu.Lock()
	defer mm.mu.Unlock()

	out := make([]*Message, 0, len(mm.messages))
	for _, msg := range mm.messages {
		out = append(out, msg)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// CancelAll cancels every tracked message and returns how many there were.
func (mm *Manager) CancelAll() int {
	mm.mu.Lock()
	defer mm.mu.Unlock()

	n := len(mm.messages)
	for id, msg := range mm.messages {
		if msg.cancel != nil {
			msg.cancel()
			msg.cancel = nil
		}
		msg.State = MessageStateCancelled
		delete(mm.messages, id)
	}

	if n > 0 {
		mm.log.WithFields(logrus.Fields{
			"function":  "CancelAll",
			"cancelled": n,
		}).Info("Cancelled pending outbound messages")
	}
	return n
}

// FormatIncoming renders received chat text for the host. Emotes get the
// "/me " prefix.
func FormatIncoming(kind steam.EventKind, text string) string {
	if kind == steam.EventChatEmote {
		return EmotePrefix + text
	}
	return text
}
