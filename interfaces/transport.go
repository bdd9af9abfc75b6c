package interfaces

import (
	"context"

	"github.com/opd-ai/steamsync/steam"
)

// ITransport is the remote service as seen by a session. Every method blocks
// until the remote side answers or ctx is done; the session runs them off its
// serialized loop and feeds the (value, error) result back onto it.
type ITransport interface {
	// Authenticate exchanges credentials for a session token. A pending
	// captcha or guard check is reported as *steam.ChallengeError.
	Authenticate(ctx context.Context, user, pass string, answers steam.ChallengeAnswers) (steam.Credentials, error)

	// ResumeSession logs on with a token obtained earlier. An expired token
	// is reported as steam.ErrSessionExpired.
	ResumeSession(ctx context.Context, token string) (steam.Logon, error)

	// FetchRoster returns the identities on the account's friends list.
	FetchRoster(ctx context.Context) ([]steam.ID, error)

	// FetchSummaries resolves identities into summaries. Identities the
	// remote side does not know are omitted from the result.
	FetchSummaries(ctx context.Context, ids []steam.ID) ([]steam.Summary, error)

	// Poll waits for the next batch of events. Only one Poll is in flight
	// per session at any time.
	Poll(ctx context.Context) ([]steam.Event, error)

	// SendMessage delivers a chat message, emote or typing ping.
	SendMessage(ctx context.Context, to steam.ID, text string, kind steam.MessageKind) error

	// Logoff ends the remote session.
	Logoff(ctx context.Context) error
}

// IKeyValueStore persists per-account settings.
type IKeyValueStore interface {
	// Get returns the stored value and whether the key was present.
	Get(ctx context.Context, key string) (string, bool, error)

	// Set stores value under key, replacing any previous value.
	Set(ctx context.Context, key, value string) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
}

// IHost receives normalized notifications from a session. All methods are
// invoked from the session's serialized loop, one at a time, and must not
// block on calls back into the same session that wait for a result.
type IHost interface {
	PresenceChanged(id steam.ID, online bool, status, activity string)
	TypingChanged(id steam.ID, typing bool)
	MessageReceived(id steam.ID, text string)
	RelationshipNotice(id steam.ID, nick string, kind steam.NoticeKind)

	// ApplyActivityDisplayMode is invoked when a contact starts playing.
	ApplyActivityDisplayMode(id steam.ID, mode steam.DisplayMode)

	// ChannelMessage is a broadcast line for channels shared with id.
	ChannelMessage(id steam.ID, text string)

	BuddyAdded(id steam.ID)
	BuddyRemoved(id steam.ID)
	BuddyRenamed(id steam.ID, nick, fullName string)

	LoginComplete()
	FatalError(message string)
	InfoLines(id steam.ID, lines []string)

	// Log carries informational notices such as login progress.
	Log(message string)
}

// ISession is the command surface of a running session, driven by the host
// side of the bus.
type ISession interface {
	SubmitChallenge(field steam.ChallengeField, answer string) error
	SendMessage(to steam.ID, text string) error
	SendTyping(to steam.ID) error
	GetInfo(id steam.ID) error
	SetAnnounceGameActivity(ctx context.Context, on bool) error
	SetDisplayMode(ctx context.Context, mode steam.DisplayMode) error
	SetPassword(ctx context.Context, password string) error
}
