// Package friend implements the per-contact cache of a session and the
// relationship lifecycle of each contact.
//
// # Overview
//
// The friend package provides three components:
//
//   - Record: cached state of one contact (persona state, current game and
//     server, relationship, pending flag)
//   - Store: the map from steam.ID to *Record owned by one session
//   - RelationshipHandler: applies request/add/remove/ignore events
//
// # Store
//
// A Store is the only owner of records. Hosts refer to buddies by identity
// and never hold a *Record:
//
//	store := friend.NewStore()
//	r, created := store.GetOrCreate("76561198000000000")
//	if r, ok := store.Get(id); ok {
//	    fmt.Println(r.DisplayName(), r.State)
//	}
//	store.Remove(id)
//
// # Relationship Lifecycle
//
// Requests, sent invites and additions are deferred: the handler creates a
// provisional record if needed, marks it pending and asks the caller to
// fetch a summary. The presence reconciler emits the notice once the summary
// resolves the display name:
//
//	h := friend.NewRelationshipHandler(store)
//	t := h.Apply(id, steam.RelationshipRequestReceived)
//	notify.Deliver(host, t.Notifications...)
//	if t.Fetch {
//	    // fetch the summary, then reconcile it
//	}
//
// Removals and ignores take effect immediately and are no-ops for unknown
// contacts, so duplicate events are harmless.
//
// # Thread Safety
//
// Nothing in this package locks. Records and the store must only be touched
// from the owning session's loop.
package friend
