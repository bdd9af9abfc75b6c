// Package steamsync keeps a chat host's buddy list in step with a Steam
// friends list.
//
// A Session logs one account in through a transport, loads its friends,
// and then long-polls for events. Summaries of friends are reconciled against
// cached records, and every visible change is delivered to the host as a
// single notification: presence, typing, messages, relationship notices,
// channel modes and broadcasts.
//
// # Getting Started
//
// Create a session with options and connect it:
//
//	options := steamsync.NewOptions()
//	options.Username = "gordon"
//	options.Password = "crowbar"
//	options.Transport = transport.NewNATSTransport(nc, transport.Options{Account: "gordon"})
//	options.Host = myHost
//
//	session, err := steamsync.New(options)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := session.Connect(); err != nil {
//	    log.Fatal(err)
//	}
//	defer session.Close(context.Background())
//
// Connect returns at once. The host sees "Connecting", then LoginComplete
// once the friends list and its summaries are loaded, or one FatalError.
//
// # Core Types
//
//   - [Session]: one account, its friend records and its lifecycle
//   - [Options]: collaborators and credentials of a session
//   - [State]: lifecycle state of a session
//   - [Dispatcher]: routes polled events to notifications and fetches
//
// # Authentication Challenges
//
// When Steam asks for a guard code or a captcha, the host receives notices
// naming the input and the session waits:
//
//	session.SubmitChallenge(steam.ChallengeAuthCode, "ABCDE")
//
// Answers are kept in memory only. A successful authentication caches the
// session token in the account store, so the next connect skips this step.
//
// # Settings
//
// Game activity broadcasts and the channel display mode are per-account
// settings that take effect immediately:
//
//	session.SetAnnounceGameActivity(ctx, true)
//	session.SetDisplayMode(ctx, steam.DisplayVoice)
//
// # Concurrency
//
// Each session runs its own loop. Transport calls never block it, results
// are applied one at a time, and only one poll is ever in flight. Sessions
// share nothing, so one process can run many accounts.
package steamsync
