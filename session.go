package steamsync

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/opd-ai/steamsync/account"
	"github.com/opd-ai/steamsync/async"
	"github.com/opd-ai/steamsync/friend"
	"github.com/opd-ai/steamsync/host"
	"github.com/opd-ai/steamsync/messaging"
	"github.com/opd-ai/steamsync/notify"
	"github.com/opd-ai/steamsync/presence"
	"github.com/opd-ai/steamsync/steam"
)

// Session is one logged-in account. It owns the friend records of that
// account and drives them from transport results to host notifications.
//
// Every piece of session state is touched only from the session's loop.
// Transport calls run on their own goroutines and post their results back to
// the loop, so at most one result is being applied at any time. The exported
// methods are safe for concurrent use; host callbacks run on the loop and
// must not call back into the session synchronously.
type Session struct {
	id   string
	opts Options
	log  *logrus.Entry

	loop   *async.Loop
	writer *async.Loop
	ctx    context.Context
	cancel context.CancelFunc

	state       atomic.Int32
	done        chan struct{}
	releaseOnce sync.Once

	mu       sync.Mutex
	password string

	settings *account.Settings
	messages *messaging.Manager

	// Loop-owned.
	snapshot      account.Snapshot
	store         *friend.Store
	relationships *friend.RelationshipHandler
	reconciler    *presence.Reconciler
	dispatcher    *Dispatcher
	loggedIn      bool
	cachedLogon   bool
	authPending   bool
	polling       bool // until the batch is reconciled
	resuming      bool
	resend        []*messaging.Message
}

// New creates a session from options. The session does nothing until
// Connect is called.
func New(options *Options) (*Session, error) {
	if options == nil {
		options = NewOptions()
	}
	if err := options.validate(); err != nil {
		return nil, err
	}

	opts := *options
	if opts.Account == "" {
		opts.Account = opts.Username
	}

	id := uuid.NewString()
	base := opts.Logger
	if base == nil {
		base = logrus.NewEntry(logrus.StandardLogger())
	}
	log := base.WithFields(logrus.Fields{
		"session_id": id,
		"account":    opts.Account,
	})

	if opts.Store == nil {
		opts.Store = account.NewMemoryStore(nil)
	}
	if opts.Host == nil {
		opts.Host = host.NewLogHost(log)
	}

	password := opts.Password
	opts.Password = ""

	ctx, cancel := context.WithCancel(context.Background())
	store := friend.NewStore()
	relationships := friend.NewRelationshipHandler(store)

	s := &Session{
		id:            id,
		opts:          opts,
		log:           log,
		loop:          async.NewLoop(log.WithField("component", "loop")),
		writer:        async.NewLoop(log.WithField("component", "writer")),
		ctx:           ctx,
		cancel:        cancel,
		done:          make(chan struct{}),
		password:      password,
		settings:      account.NewSettings(opts.Store, opts.Sealer, log),
		messages:      messaging.NewManager(opts.AllowEmote, log),
		store:         store,
		relationships: relationships,
		reconciler:    presence.NewReconciler(log),
		dispatcher:    NewDispatcher(store, relationships, log),
	}

	log.WithFields(logrus.Fields{
		"function": "New",
		"username": opts.Username,
	}).Info("Created session")

	return s, nil
}

// ID returns the unique id of this session.
func (s *Session) ID() string {
	return s.id
}

// Account returns the account label of this session.
func (s *Session) Account() string {
	return s.opts.Account
}

// State returns the current lifecycle state.
func (s *Session) State() State {
	return State(s.state.Load())
}

// Done is closed once the session has been released and its settings
// writes have been flushed.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// Connect starts the session. Progress and failures are reported through
// the host; Connect itself only fails if the session was already started.
func (s *Session) Connect() error {
	if !s.state.CompareAndSwap(int32(StateNew), int32(StateConnecting)) {
		if s.State().Closing() {
			return ErrSessionClosed
		}
		return ErrAlreadyConnected
	}

	s.log.WithFields(logrus.Fields{
		"function": "Connect",
	}).Info("Connecting session")

	s.loop.Start()
	s.writer.Start()
	s.loop.Post(s.connect)
	return nil
}

// Disconnect logs the session off and releases it. It returns immediately;
// wait on Done for completion.
func (s *Session) Disconnect() {
	if s.state.CompareAndSwap(int32(StateNew), int32(StateDisconnected)) {
		s.log.WithFields(logrus.Fields{
			"function": "Disconnect",
		}).Info("Released session that never connected")
		s.cancel()
		s.loop.Stop()
		s.writer.Stop()
		s.releaseOnce.Do(func() { close(s.done) })
		return
	}
	s.loop.Post(s.disconnect)
}

// Close disconnects and waits until the session is released or ctx is done.
func (s *Session) Close(ctx context.Context) error {
	s.Disconnect()
	select {
	case <-s.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Wait blocks until the session is released and every goroutine it started
// has returned.
func (s *Session) Wait() {
	<-s.done
	s.loop.Wait()
	s.writer.Wait()
}

// SubmitChallenge records the answer to an authentication challenge. A
// session waiting on a challenge retries authentication right away; otherwise
// the answer is used by the next attempt.
func (s *Session) SubmitChallenge(field steam.ChallengeField, answer string) error {
	if err := s.settings.SetChallengeAnswer(field, answer); err != nil {
		return err
	}

	s.log.WithFields(logrus.Fields{
		"function": "SubmitChallenge",
		"field":    field,
	}).Info("Challenge answer submitted")

	if s.State() != StateAuthenticating {
		return nil
	}
	s.loop.Post(func() {
		if s.State() == StateAuthenticating {
			s.authenticate()
		}
	})
	return nil
}

// SendMessage sends text to a contact. With emotes enabled, text starting
// with "/me " is sent as an emote.
func (s *Session) SendMessage(to steam.ID, text string) error {
	if s.State() != StatePolling {
		return ErrNotLoggedIn
	}
	msg, err := s.messages.Prepare(to, text)
	if err != nil {
		return err
	}
	return s.enqueue(msg)
}

// SendTyping tells a contact that the user is typing.
func (s *Session) SendTyping(to steam.ID) error {
	if s.State() != StatePolling {
		return ErrNotLoggedIn
	}
	return s.enqueue(s.messages.PrepareTyping(to))
}

// GetInfo looks up a profile and reports it through the host as InfoLines.
func (s *Session) GetInfo(id steam.ID) error {
	if s.State() != StatePolling {
		return ErrNotLoggedIn
	}
	if !s.loop.Post(func() { s.fetchInfo(id) }) {
		return ErrSessionClosed
	}
	return nil
}

// Contacts returns a copy of every friend record, ordered by identity.
func (s *Session) Contacts(ctx context.Context) ([]friend.Record, error) {
	result := make(chan []friend.Record, 1)
	err := s.onLoop(ctx, func() {
		var out []friend.Record
		for _, rec := range s.store.All() {
			out = append(out, *rec)
		}
		result <- out
	})
	if err != nil {
		return nil, err
	}
	select {
	case out := <-result:
		return out, nil
	default:
		return nil, ErrSessionClosed
	}
}

// SetAnnounceGameActivity turns "/me is now playing" channel broadcasts on or
// off.
func (s *Session) SetAnnounceGameActivity(ctx context.Context, on bool) error {
	if err := s.settings.SetAnnounceGameActivity(ctx, on); err != nil {
		return err
	}
	return s.onLoop(ctx, func() {
		s.snapshot.AnnounceGameActivity = on
	})
}

// SetDisplayMode changes the channel mode given to playing contacts and
// re-applies it to every contact currently playing.
func (s *Session) SetDisplayMode(ctx context.Context, mode steam.DisplayMode) error {
	if err := s.settings.SetDisplayMode(ctx, mode); err != nil {
		return err
	}
	return s.onLoop(ctx, func() {
		if s.snapshot.DisplayMode == mode {
			return
		}
		s.snapshot.DisplayMode = mode
		if s.loggedIn {
			s.notify(s.reconciler.Rescan(s.store, s.presenceSettings())...)
		}
	})
}

// SetPassword replaces the password and forgets the cached session token, so
// the next connect authenticates from scratch.
func (s *Session) SetPassword(ctx context.Context, password string) error {
	s.mu.Lock()
	s.password = password
	s.mu.Unlock()

	if err := s.settings.ResetToken(ctx); err != nil {
		return err
	}
	return s.onLoop(ctx, func() {
		s.snapshot.Token = ""
		s.snapshot.UMQID = ""
	})
}

func (s *Session) getPassword() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.password
}

// onLoop runs fn on the loop of a live session. Before Connect and after
// release there is no loop state to update, so fn is skipped.
func (s *Session) onLoop(ctx context.Context, fn func()) error {
	if st := s.State(); st == StateNew || st.Closing() {
		return nil
	}
	err := s.loop.Do(ctx, fn)
	if errors.Is(err, async.ErrLoopStopped) {
		return nil
	}
	return err
}

func (s *Session) enqueue(msg *messaging.Message) error {
	if !s.loop.Post(func() { s.send(msg) }) {
		s.messages.Complete(msg.ID, ErrSessionClosed)
		return ErrSessionClosed
	}
	return nil
}

func (s *Session) setState(st State) {
	prev := State(s.state.Swap(int32(st)))
	if prev == st {
		return
	}
	s.log.WithFields(logrus.Fields{
		"function": "setState",
		"from":     prev.String(),
		"to":       st.String(),
	}).Info("Session state changed")
}

func (s *Session) notify(notes ...notify.Notification) {
	notify.Deliver(s.opts.Host, notes...)
}

func (s *Session) notice(message string) {
	s.notify(notify.Log{Message: message})
}

func (s *Session) presenceSettings() presence.Settings {
	return presence.Settings{
		AnnounceGameActivity: s.snapshot.AnnounceGameActivity,
		DisplayMode:          s.snapshot.DisplayMode,
	}
}

// dropLate reports whether a result arrived after the session started
// closing.
func (s *Session) dropLate(what string) bool {
	if !s.State().Closing() {
		return false
	}
	s.log.WithFields(logrus.Fields{
		"function": "dropLate",
		"result":   what,
		"state":    s.State().String(),
	}).Debug("Dropping late result")
	return true
}

// persist queues a settings write. Writes run in order on the writer loop so
// they never block the session loop.
func (s *Session) persist(what string, fn func(context.Context) error) {
	log := s.log.WithFields(logrus.Fields{
		"function": "persist",
		"write":    what,
	})
	ok := s.writer.Post(func() {
		if err := fn(context.Background()); err != nil {
			log.WithError(err).Warn("Failed to persist account settings")
		}
	})
	if !ok {
		log.Warn("Dropped settings write after release")
	}
}

func (s *Session) disconnect() {
	if s.State().Closing() {
		return
	}
	s.log.WithFields(logrus.Fields{
		"function":  "disconnect",
		"logged_in": s.loggedIn,
	}).Info("Disconnecting")
	s.teardown(StateDisconnected)
}

// fail reports message as the one fatal error of this session and tears it
// down.
func (s *Session) fail(message string) {
	if s.State().Closing() {
		return
	}
	s.log.WithFields(logrus.Fields{
		"function": "fail",
		"state":    s.State().String(),
	}).Error(message)

	s.notify(notify.FatalError{Message: message})
	s.teardown(StateFailed)
}

func (s *Session) teardown(final State) {
	if final == StateFailed {
		s.setState(StateFailed)
	} else {
		s.setState(StateDisconnecting)
	}

	wasLoggedIn := s.loggedIn
	s.loggedIn = false
	s.resend = nil
	s.messages.CancelAll()
	s.dispatcher.Reset()
	s.cancel()

	if !wasLoggedIn {
		s.release(final)
		return
	}

	ctx := context.WithoutCancel(s.ctx)
	async.Call(ctx, s.loop, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, s.opts.Transport.Logoff(ctx)
	}, func(_ struct{}, err error) {
		if err != nil {
			s.log.WithFields(logrus.Fields{
				"function": "teardown",
			}).WithError(err).Warn("Logoff failed")
		}
		s.release(final)
	})
}

func (s *Session) release(final State) {
	s.setState(final)
	s.loop.Stop()

	closeDone := func() { s.releaseOnce.Do(func() { close(s.done) }) }
	if !s.writer.Post(func() {
		s.writer.Stop()
		closeDone()
	}) {
		closeDone()
	}

	s.log.WithFields(logrus.Fields{
		"function": "release",
		"state":    final.String(),
	}).Info("Session released")
}
