// Package steam defines the decoded vocabulary exchanged with the remote
// buddy-list service: contact identities, persona and relationship states,
// player summaries, poll events and the errors a transport may report.
//
// Values in this package are plain data. They are produced by a transport
// (see the interfaces package) after wire-level decoding and are consumed by
// the friend, presence and session layers. Unrecognized remote strings are
// normalized to safe defaults instead of being propagated:
//
//	steam.ParsePersonaState("Looking to Play") // PersonaLookingToPlay
//	steam.ParsePersonaState("bogus")           // PersonaOffline
//	steam.ParseRelationship("requestrecipient") // RelationshipRequestReceived
//	steam.ParseEventKind("saytext")            // EventChatText
//
// # Errors
//
// Transports report an expired session with ErrSessionExpired and a pending
// captcha or guard challenge with *ChallengeError. Anything else is treated as
// fatal by the session controller.
package steam
