// Package presence reconciles remote summaries against cached friend
// records and decides which notifications a change deserves.
//
// A single summary yields at most one presence notification and at most one
// activity broadcast. Offline transitions are always announced; a summary
// that changes nothing is only surfaced when the contact has no recorded
// game, which keeps repeated "now playing" updates quiet.
package presence

import (
	"github.com/sirupsen/logrus"

	"github.com/opd-ai/steamsync/friend"
	"github.com/opd-ai/steamsync/notify"
	"github.com/opd-ai/steamsync/steam"
)

// Settings is the snapshot of account settings a reconciliation cycle uses.
type Settings struct {
	// AnnounceGameActivity broadcasts "/me is now playing: ..." to shared
	// channels when a contact's activity changes.
	AnnounceGameActivity bool
	// DisplayMode is applied to shared channels when a contact starts
	// playing.
	DisplayMode steam.DisplayMode
}

// Reconciler applies summaries to records.
type Reconciler struct {
	log *logrus.Entry
}

// NewReconciler creates a reconciler logging through entry. A nil entry uses
// the standard logrus logger.
func NewReconciler(entry *logrus.Entry) *Reconciler {
	if entry == nil {
		entry = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Reconciler{log: entry}
}

// Reconcile diffs s against rec, mutates rec and returns the notifications to
// deliver. s must describe rec.ID.
func (r *Reconciler) Reconcile(rec *friend.Record, s steam.Summary, cfg Settings) []notify.Notification {
	log := r.log.WithFields(logrus.Fields{
		"function": "Reconcile",
		"steam_id": rec.ID,
		"state":    s.State,
	})

	var notes []notify.Notification

	rec.Confirm()
	if rec.SetNames(s.Nick, s.FullName) {
		notes = append(notes, notify.BuddyRenamed{ID: rec.ID, Nick: s.Nick, FullName: s.FullName})
	}

	if rec.Pending {
		rec.ClearPending()
		nick := s.Nick
		if nick == "" {
			nick = rec.DisplayName()
		}

		switch rec.Relationship {
		case steam.RelationshipRequestReceived:
			// Not a buddy yet: no presence for this cycle.
			log.Info("Friendship invite received")
			return append(notes, notify.RelationshipNotice{ID: rec.ID, Nick: nick, Kind: steam.NoticeInviteReceived})
		case steam.RelationshipRequestSent:
			log.Info("Friendship invite sent")
			return append(notes, notify.RelationshipNotice{ID: rec.ID, Nick: nick, Kind: steam.NoticeInviteSent})
		case steam.RelationshipAdded:
			log.Info("Friend added")
			notes = append(notes, notify.RelationshipNotice{ID: rec.ID, Nick: nick, Kind: steam.NoticeAdded})
		}
	}

	if s.State == steam.PersonaOffline {
		rec.SetPresence(steam.PersonaOffline)
		return append(notes, notify.PresenceChange{ID: rec.ID, Online: false, Status: s.State.String()})
	}

	status := s.State.String()
	gameChanged := !steam.SameOptional(s.Game, rec.Game)
	serverChanged := !steam.SameOptional(s.Server, rec.Server)
	rec.SetPresence(s.State)

	if !gameChanged && !serverChanged {
		if rec.Game == nil {
			notes = append(notes, notify.PresenceChange{ID: rec.ID, Online: true, Status: status})
		}
		return notes
	}

	label := ActivityLabel(s.Game, s.Server)

	if gameChanged {
		notes = append(notes, notify.PresenceChange{ID: rec.ID, Online: true, Status: status, Activity: label})
		if rec.Game == nil && s.Game != nil {
			notes = append(notes, notify.ActivityModeChange{ID: rec.ID, Mode: cfg.DisplayMode})
		}
		rec.SetGame(s.Game)
	}

	if serverChanged {
		rec.SetServer(s.Server)
	}

	if label != "" && cfg.AnnounceGameActivity {
		notes = append(notes, notify.ChannelMessage{ID: rec.ID, Text: "/me is now playing: " + label})
	}

	log.WithFields(logrus.Fields{
		"game_changed":   gameChanged,
		"server_changed": serverChanged,
		"activity":       label,
	}).Debug("Friend activity changed")

	return notes
}

// Rescan re-applies the display mode to every online record that is playing,
// for use after the mode setting changed.
func (r *Reconciler) Rescan(store *friend.Store, cfg Settings) []notify.Notification {
	var notes []notify.Notification
	for _, rec := range store.All() {
		if !rec.IsOnline() || rec.Game == nil {
			continue
		}
		notes = append(notes, notify.ActivityModeChange{ID: rec.ID, Mode: cfg.DisplayMode})
	}

	r.log.WithFields(logrus.Fields{
		"function": "Rescan",
		"mode":     cfg.DisplayMode.String(),
		"affected": len(notes),
	}).Info("Re-applied activity display mode")

	return notes
}

// ActivityLabel renders the activity shown next to a buddy: the game, or
// "game (server)" when a server is known. Without a game there is no label.
func ActivityLabel(game, server *string) string {
	if game == nil {
		return ""
	}
	if server != nil {
		return *game + " (" + *server + ")"
	}
	return *game
}
