// Package testing provides in-memory collaborators for deterministic tests
// of sessions: a scripted transport and a recording host.
//
// # SimulatedTransport
//
// SimulatedTransport implements interfaces.ITransport without any network.
// Each method can be scripted, and polls block until a batch is pushed:
//
//	sim := testing.NewSimulatedTransport()
//	sim.SetRoster([]steam.ID{"76561198000000000"}, nil)
//	sim.SetSummary(steam.Summary{ID: "76561198000000000", State: steam.PersonaOnline})
//	// ... start a session ...
//	sim.PushEvents(steam.Event{Kind: steam.EventChatText, From: id, Text: "hi"})
//
// Every call is counted (Calls, WaitCalls) and the largest number of
// concurrent polls is tracked (MaxConcurrentPolls).
//
// # RecordingHost
//
// RecordingHost implements interfaces.IHost by recording each call as the
// matching notify value:
//
//	host := testing.NewRecordingHost()
//	// ... run ...
//	presence := testing.Filter[notify.PresenceChange](host)
//
// # Naming
//
// The package shares its name with the standard library testing package.
// Import it under an alias in test files:
//
//	import simtest "github.com/opd-ai/steamsync/testing"
package testing
