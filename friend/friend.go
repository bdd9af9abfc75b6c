package friend

import (
	"github.com/sirupsen/logrus"

	"github.com/opd-ai/steamsync/steam"
)

// Record is the cached state of one contact.
//
// Presence fields (Nick, FullName, State, Game, Server, Provisional) are
// written by the presence reconciler; Relationship and Pending are written by
// the RelationshipHandler, except that the reconciler clears Pending once it
// has fired the deferred notice. Readers may use the fields directly.
type Record struct {
	ID       steam.ID
	Nick     string
	FullName string

	State  steam.PersonaState
	Game   *string
	Server *string

	Relationship steam.Relationship
	// Pending is set while a relationship change waits for a summary to
	// resolve the contact's display name.
	Pending bool
	// Provisional is set until the first summary for the contact arrives.
	Provisional bool
	// Generation is assigned by the Store on creation. A record removed and
	// created again gets a new one.
	Generation uint64
}

// New creates a record with all-default fields: offline, no activity, no
// relationship.
func New(id steam.ID) *Record {
	logrus.WithFields(logrus.Fields{
		"function": "New",
		"steam_id": id,
	}).Debug("Creating friend record")

	return &Record{
		ID:    id,
		State: steam.PersonaOffline,
	}
}

// DisplayName returns the nick, falling back to the identity.
func (r *Record) DisplayName() string {
	if r.Nick != "" {
		return r.Nick
	}
	return string(r.ID)
}

// IsOnline reports whether the cached state is anything but offline.
func (r *Record) IsOnline() bool {
	return r.State.IsOnline()
}

// SetNames stores the nick and real name and reports whether either changed.
func (r *Record) SetNames(nick, fullName string) bool {
	if r.Nick == nick && r.FullName == fullName {
		return false
	}

	logrus.WithFields(logrus.Fields{
		"function": "SetNames",
		"steam_id": r.ID,
		"old_nick": r.Nick,
		"new_nick": nick,
	}).Debug("Updating friend names")

	r.Nick = nick
	r.FullName = fullName
	return true
}

// SetPresence stores the persona state. Going offline also clears the
// activity fields.
func (r *Record) SetPresence(state steam.PersonaState) {
	if r.State != state {
		logrus.WithFields(logrus.Fields{
			"function":  "SetPresence",
			"steam_id":  r.ID,
			"old_state": r.State,
			"new_state": state,
		}).Debug("Updating friend presence")
	}

	r.State = state
	if state == steam.PersonaOffline {
		r.ClearActivity()
	}
}

// SetGame stores the current game. The pointer is copied.
func (r *Record) SetGame(game *string) {
	r.Game = copyOptional(game)
}

// SetServer stores the current server endpoint. The pointer is copied.
func (r *Record) SetServer(server *string) {
	r.Server = copyOptional(server)
}

// ClearActivity drops both game and server.
func (r *Record) ClearActivity() {
	r.Game = nil
	r.Server = nil
}

// Confirm marks the record as resolved by a summary.
func (r *Record) Confirm() {
	r.Provisional = false
}

// SetRelationship moves the record to state and marks the change pending.
func (r *Record) SetRelationship(state steam.Relationship, pending bool) {
	logrus.WithFields(logrus.Fields{
		"function":         "SetRelationship",
		"steam_id":         r.ID,
		"old_relationship": r.Relationship,
		"new_relationship": state,
		"pending":          pending,
	}).Debug("Updating friend relationship")

	r.Relationship = state
	r.Pending = pending
}

// ClearPending marks the deferred relationship notice as delivered.
func (r *Record) ClearPending() {
	r.Pending = false
}

func copyOptional(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}
