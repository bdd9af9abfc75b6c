// Package interfaces defines the collaborator abstractions a steamsync
// session is wired to.
//
// # Core Interfaces
//
// [ITransport] is the remote buddy-list service. Implementations do the
// wire-level work (HTTP, long-poll, a message bus) and hand back decoded
// values from the steam package. Timeouts and retries belong to the
// implementation; the session only reacts to the (value, error) results:
//
//	logon, err := transport.ResumeSession(ctx, token)
//	if errors.Is(err, steam.ErrSessionExpired) {
//	    // re-authenticate
//	}
//
// [IKeyValueStore] persists per-account settings such as the cached token.
// The account package provides memory, YAML file, Redis and PostgreSQL
// implementations.
//
// [IHost] is the chat layer that renders the buddy list. A session invokes
// its methods from a single goroutine, in the order notifications were
// produced.
//
// # Implementation Selection
//
//   - transport.NATSTransport: events and summaries arrive over NATS from an
//     external poller
//   - testing.SimulatedTransport: scripted responses for tests
//   - host.LogHost, host.NATSHost, host.Multi: notification sinks
//   - testing.RecordingHost: records notifications for assertions
//
// # Thread Safety
//
// ITransport and IKeyValueStore implementations must be safe for concurrent
// use; a session may have a poll, a summary fetch and a message send in
// flight together. IHost implementations are only called from one goroutine
// per session but may be shared between sessions.
package interfaces
