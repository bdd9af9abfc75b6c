package steamsync

import (
	"github.com/sirupsen/logrus"

	"github.com/opd-ai/steamsync/friend"
	"github.com/opd-ai/steamsync/messaging"
	"github.com/opd-ai/steamsync/notify"
	"github.com/opd-ai/steamsync/steam"
)

// Dispatch is the outcome of handling polled events: notifications to deliver
// now, and contacts whose summary must be fetched and reconciled.
type Dispatch struct {
	Notifications []notify.Notification
	Fetch         []steam.ID
}

// Dispatcher routes polled events to the session's components. It owns the
// per-contact typing flags.
type Dispatcher struct {
	store         *friend.Store
	relationships *friend.RelationshipHandler
	typing        map[steam.ID]bool
	log           *logrus.Entry
}

// NewDispatcher creates a dispatcher over store. A nil entry uses the standard
// logrus logger.
func NewDispatcher(store *friend.Store, relationships *friend.RelationshipHandler, entry *logrus.Entry) *Dispatcher {
	if entry == nil {
		entry = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Dispatcher{
		store:         store,
		relationships: relationships,
		typing:        make(map[steam.ID]bool),
		log:           entry,
	}
}

// Handle routes a single event.
func (d *Dispatcher) Handle(ev steam.Event) Dispatch {
	log := d.log.WithFields(logrus.Fields{
		"function": "Handle",
		"kind":     ev.Kind.String(),
		"from":     ev.From,
	})

	var out Dispatch

	switch ev.Kind {
	case steam.EventChatText, steam.EventChatEmote:
		d.typing[ev.From] = false
		out.Notifications = append(out.Notifications,
			notify.MessageReceived{ID: ev.From, Text: messaging.FormatIncoming(ev.Kind, ev.Text)},
			notify.TypingChange{ID: ev.From, Typing: false},
		)

	case steam.EventConversationEnd:
		d.typing[ev.From] = false
		out.Notifications = append(out.Notifications, notify.TypingChange{ID: ev.From, Typing: false})

	case steam.EventTypingNotice:
		if _, ok := d.store.Get(ev.From); !ok {
			log.Debug("Ignoring typing notice from unknown contact")
			break
		}
		typing := !d.typing[ev.From]
		d.typing[ev.From] = typing
		out.Notifications = append(out.Notifications, notify.TypingChange{ID: ev.From, Typing: typing})

	case steam.EventRelationshipChanged:
		t := d.relationships.Apply(ev.From, ev.Relationship)
		out.Notifications = append(out.Notifications, t.Notifications...)
		if t.Fetch {
			out.Fetch = append(out.Fetch, ev.From)
		}
		if _, ok := d.store.Get(ev.From); !ok {
			delete(d.typing, ev.From)
		}

	case steam.EventPresenceChanged:
		if _, ok := d.store.Get(ev.From); !ok {
			log.Debug("Ignoring presence change of unknown contact")
			break
		}
		out.Fetch = append(out.Fetch, ev.From)

	default:
		log.Debug("Dropping unknown event")
	}

	return out
}

// HandleBatch routes events in order. Each contact appears at most once in
// the combined Fetch list, in first-seen order.
func (d *Dispatcher) HandleBatch(events []steam.Event) Dispatch {
	var out Dispatch
	seen := make(map[steam.ID]bool)

	for _, ev := range events {
		one := d.Handle(ev)
		out.Notifications = append(out.Notifications, one.Notifications...)
		for _, id := range one.Fetch {
			if seen[id] {
				continue
			}
			seen[id] = true
			out.Fetch = append(out.Fetch, id)
		}
	}

	if len(events) > 0 {
		d.log.WithFields(logrus.Fields{
			"function":      "HandleBatch",
			"events":        len(events),
			"notifications": len(out.Notifications),
			"fetch":         len(out.Fetch),
		}).Debug("Dispatched event batch")
	}
	return out
}

// Reset forgets every typing flag.
func (d *Dispatcher) Reset() {
	d.typing = make(map[steam.ID]bool)
}
