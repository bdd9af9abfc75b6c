package friend

import (
	"github.com/sirupsen/logrus"

	"github.com/opd-ai/steamsync/notify"
	"github.com/opd-ai/steamsync/steam"
)

// Transition is the outcome of applying a relationship event.
type Transition struct {
	Notifications []notify.Notification
	// Fetch asks the caller to resolve a fresh summary for the contact. The
	// deferred notice is produced by the reconciler once it arrives.
	Fetch bool
}

// RelationshipHandler drives the per-contact relationship state machine.
type RelationshipHandler struct {
	store *Store
}

// NewRelationshipHandler creates a handler operating on store.
func NewRelationshipHandler(store *Store) *RelationshipHandler {
	return &RelationshipHandler{store: store}
}

// Register adds a roster contact as a provisional friend. Contacts already
// known are left alone.
func (h *RelationshipHandler) Register(id steam.ID) []notify.Notification {
	r, created := h.store.GetOrCreate(id)
	if !created {
		return nil
	}
	r.Provisional = true
	r.SetRelationship(steam.RelationshipAdded, false)
	return []notify.Notification{notify.BuddyAdded{ID: id}}
}

// Apply moves the contact through a relationship event.
func (h *RelationshipHandler) Apply(id steam.ID, event steam.Relationship) Transition {
	log := logrus.WithFields(logrus.Fields{
		"function": "RelationshipHandler.Apply",
		"steam_id": id,
		"event":    event,
	})

	switch event {
	case steam.RelationshipRemoved, steam.RelationshipIgnored:
		return h.remove(id, event, log)
	case steam.RelationshipRequestReceived, steam.RelationshipRequestSent, steam.RelationshipAdded:
		return h.deferNotice(id, event, log)
	default:
		log.Debug("Ignoring relationship event without a transition")
		return Transition{}
	}
}

func (h *RelationshipHandler) remove(id steam.ID, event steam.Relationship, log *logrus.Entry) Transition {
	r, ok := h.store.Get(id)
	if !ok {
		log.Debug("Relationship removal for unknown contact, nothing to do")
		return Transition{}
	}

	kind := steam.NoticeRemoved
	if event == steam.RelationshipIgnored {
		kind = steam.NoticeInviteIgnored
	}
	nick := r.DisplayName()

	r.SetRelationship(steam.RelationshipRemoved, false)
	h.store.Remove(id)

	log.WithField("nick", nick).Info("Friend removed")

	return Transition{Notifications: []notify.Notification{
		notify.RelationshipNotice{ID: id, Nick: nick, Kind: kind},
		notify.BuddyRemoved{ID: id},
	}}
}

func (h *RelationshipHandler) deferNotice(id steam.ID, event steam.Relationship, log *logrus.Entry) Transition {
	var t Transition

	r, created := h.store.GetOrCreate(id)
	if created {
		r.Provisional = true
		t.Notifications = append(t.Notifications, notify.BuddyAdded{ID: id})
	}

	if r.Relationship == event {
		if r.Pending {
			// Still waiting for the summary; ask again.
			t.Fetch = true
		}
		log.WithField("pending", r.Pending).Debug("Repeated relationship event")
		return t
	}

	if !allowed(r.Relationship, event) {
		log.WithField("current", r.Relationship).Warn("Dropping out-of-order relationship event")
		return t
	}

	r.SetRelationship(event, true)
	t.Fetch = true
	return t
}

// allowed lists the accepted deferred transitions. Removed and Ignored are
// terminal for a record, so a fresh record always starts from None.
func allowed(current, event steam.Relationship) bool {
	switch event {
	case steam.RelationshipRequestReceived:
		return current == steam.RelationshipNone || current == steam.RelationshipRemoved
	case steam.RelationshipRequestSent:
		return current == steam.RelationshipNone
	case steam.RelationshipAdded:
		return current == steam.RelationshipNone ||
			current == steam.RelationshipRequestReceived ||
			current == steam.RelationshipRequestSent
	default:
		return false
	}
}
