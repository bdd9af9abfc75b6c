package steamsync

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/opd-ai/steamsync/account"
	"github.com/opd-ai/steamsync/async"
	"github.com/opd-ai/steamsync/messaging"
	"github.com/opd-ai/steamsync/notify"
	"github.com/opd-ai/steamsync/steam"
)

// The functions in this file run on the session loop.

func (s *Session) connect() {
	s.notice("Connecting")

	async.Call(s.ctx, s.loop, s.settings.Load, func(snap account.Snapshot, err error) {
		if s.dropLate("Load") {
			return
		}
		if err != nil {
			s.fail(fmt.Sprintf("Failed to load account settings: %v", err))
			return
		}

		s.snapshot = snap
		if snap.Token != "" {
			s.cachedLogon = true
			s.logon()
			return
		}
		s.authenticate()
	})
}

func (s *Session) authenticate() {
	if s.authPending {
		return
	}
	s.authPending = true
	s.setState(StateAuthenticating)
	s.notice("Requesting authentication token")

	user, pass := s.opts.Username, s.getPassword()
	answers := s.settings.Answers(s.snapshot)

	async.Call(s.ctx, s.loop, func(ctx context.Context) (steam.Credentials, error) {
		return s.opts.Transport.Authenticate(ctx, user, pass, answers)
	}, s.onAuthenticated)
}

func (s *Session) onAuthenticated(creds steam.Credentials, err error) {
	s.authPending = false
	if s.dropLate("Authenticate") {
		return
	}
	if ce, ok := steam.AsChallenge(err); ok {
		s.challenge(ce)
		return
	}
	if err != nil {
		s.fail(fmt.Sprintf("Authentication failed: %v", err))
		return
	}

	s.settings.ClearChallengeAnswers()
	s.snapshot.Token = creds.Token
	s.snapshot.SteamID = creds.SteamID
	s.snapshot.EmailSteamID = ""
	s.snapshot.CaptchaGID = ""
	s.persist("SaveCredentials", func(ctx context.Context) error {
		return s.settings.SaveCredentials(ctx, creds)
	})

	s.notice("Authentication finished")
	s.cachedLogon = false
	s.logon()
}

// challenge surfaces what the user must answer and waits in Authenticating.
func (s *Session) challenge(ce *steam.ChallengeError) {
	s.log.WithFields(logrus.Fields{
		"function": "challenge",
		"field":    ce.Field,
	}).Warn("Authentication needs user input")

	s.settings.ClearChallengeAnswers()
	s.snapshot.EmailSteamID = ce.EmailSteamID
	s.snapshot.CaptchaGID = ce.CaptchaGID
	s.persist("SaveChallenge", func(ctx context.Context) error {
		return s.settings.SaveChallenge(ctx, ce)
	})

	s.notice(ce.Error())
	if ce.URL != "" {
		s.notice("View: " + ce.URL)
	}
	s.notice(fmt.Sprintf("Submit the %s to continue", ce.Field))
}

func (s *Session) logon() {
	s.notice("Sending logon request")
	s.resumeSession()
}

// resume re-establishes an expired session without telling the host. Polling
// stays paused until it completes.
func (s *Session) resume() {
	if s.resuming {
		return
	}
	s.resuming = true
	s.log.WithFields(logrus.Fields{
		"function": "resume",
	}).Info("Session expired, resuming")
	s.resumeSession()
}

func (s *Session) resumeSession() {
	token := s.snapshot.Token
	async.Call(s.ctx, s.loop, func(ctx context.Context) (steam.Logon, error) {
		return s.opts.Transport.ResumeSession(ctx, token)
	}, s.onLogon)
}

func (s *Session) onLogon(logon steam.Logon, err error) {
	if s.dropLate("ResumeSession") {
		return
	}

	switch {
	case err == nil:
	case errors.Is(err, steam.ErrSessionExpired) && s.cachedLogon && !s.resuming:
		s.log.WithFields(logrus.Fields{
			"function": "onLogon",
		}).Info("Cached session token expired")
		s.cachedLogon = false
		s.snapshot.Token = ""
		s.snapshot.UMQID = ""
		s.persist("ClearToken", s.settings.ClearToken)
		s.authenticate()
		return
	default:
		s.fail(fmt.Sprintf("Logon failed: %v", err))
		return
	}

	s.cachedLogon = false
	if logon.SteamID != "" {
		s.snapshot.SteamID = logon.SteamID
	}
	s.snapshot.UMQID = logon.UMQID
	s.persist("SaveLogon", func(ctx context.Context) error {
		return s.settings.SaveLogon(ctx, logon)
	})

	if s.resuming {
		s.resuming = false
		s.log.WithFields(logrus.Fields{
			"function": "onLogon",
			"resend":   len(s.resend),
		}).Info("Session resumed")
		pending := s.resend
		s.resend = nil
		for _, msg := range pending {
			s.send(msg)
		}
		s.poll()
		return
	}

	s.loadRoster()
}

func (s *Session) loadRoster() {
	s.setState(StateRosterLoading)
	s.notice("Requesting friends list")

	async.Call(s.ctx, s.loop, s.opts.Transport.FetchRoster, func(ids []steam.ID, err error) {
		if s.dropLate("FetchRoster") {
			return
		}
		if err != nil {
			s.fail(fmt.Sprintf("Failed to load friends list: %v", err))
			return
		}

		for _, id := range ids {
			s.notify(s.relationships.Register(id)...)
		}
		s.log.WithFields(logrus.Fields{
			"function": "loadRoster",
			"friends":  len(ids),
		}).Info("Friends list loaded")

		if len(ids) == 0 {
			s.loginComplete()
			return
		}

		s.fetchSummaries(ids, s.loginComplete)
	})
}

func (s *Session) loginComplete() {
	s.loggedIn = true
	s.setState(StatePolling)
	s.notify(notify.LoginComplete{})
	s.poll()
}

// reconcile applies sums to the records they were requested for. gens holds
// the record generations captured when the fetch was issued; a summary whose
// record was removed, or removed and created again, is dropped.
func (s *Session) reconcile(sums []steam.Summary, gens map[steam.ID]uint64) {
	cfg := s.presenceSettings()
	for _, sum := range sums {
		gen, requested := gens[sum.ID]
		rec, ok := s.store.Current(sum.ID, gen)
		if !requested || !ok {
			s.log.WithFields(logrus.Fields{
				"function":  "reconcile",
				"steam_id":  sum.ID,
				"requested": requested,
			}).Debug("Dropping summary of unknown contact")
			continue
		}
		s.notify(s.reconciler.Reconcile(rec, sum, cfg)...)
	}
}

func (s *Session) poll() {
	if s.polling || s.resuming || s.State() != StatePolling {
		return
	}
	s.polling = true
	async.Call(s.ctx, s.loop, s.opts.Transport.Poll, s.onPoll)
}

func (s *Session) onPoll(events []steam.Event, err error) {
	s.polling = false
	if s.dropLate("Poll") {
		return
	}
	if errors.Is(err, steam.ErrSessionExpired) {
		s.resume()
		return
	}
	if err != nil {
		s.fail(fmt.Sprintf("Polling failed: %v", err))
		return
	}

	d := s.dispatcher.HandleBatch(events)
	s.notify(d.Notifications...)
	if len(d.Fetch) == 0 {
		s.poll()
		return
	}
	// The next poll waits until this batch is reconciled.
	s.polling = true
	s.fetchSummaries(d.Fetch, func() {
		s.polling = false
		s.poll()
	})
}

// fetchSummaries requests the summaries of ids, reconciles them and then runs
// next. Failures are fatal.
func (s *Session) fetchSummaries(ids []steam.ID, next func()) {
	gens := s.store.Generations(ids)
	async.Call(s.ctx, s.loop, func(ctx context.Context) ([]steam.Summary, error) {
		return s.opts.Transport.FetchSummaries(ctx, ids)
	}, func(sums []steam.Summary, err error) {
		if s.dropLate("FetchSummaries") {
			return
		}
		if err != nil {
			s.fail(fmt.Sprintf("Failed to load friend summaries: %v", err))
			return
		}
		s.reconcile(sums, gens)
		next()
	})
}

func (s *Session) send(msg *messaging.Message) {
	if s.State() != StatePolling {
		s.messages.Complete(msg.ID, context.Canceled)
		return
	}
	if s.resuming {
		s.resend = append(s.resend, msg)
		return
	}

	ctx := s.messages.Begin(s.ctx, msg)
	async.Call(ctx, s.loop, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, s.opts.Transport.SendMessage(ctx, msg.To, msg.Text, msg.Kind)
	}, func(_ struct{}, err error) {
		s.onSent(msg, err)
	})
}

func (s *Session) onSent(msg *messaging.Message, err error) {
	if s.dropLate("SendMessage") {
		s.messages.Complete(msg.ID, context.Canceled)
		return
	}

	if errors.Is(err, steam.ErrSessionExpired) {
		if rerr := s.messages.Requeue(msg.ID); rerr == nil {
			s.resend = append(s.resend, msg)
		}
		s.resume()
		return
	}

	s.messages.Complete(msg.ID, err)
	if err != nil {
		s.fail(fmt.Sprintf("Failed to send message to %s: %v", msg.To, err))
		return
	}

	s.log.WithFields(logrus.Fields{
		"function": "onSent",
		"to":       msg.To,
		"kind":     msg.Kind.String(),
	}).Debug("Message sent")
}

// fetchInfo looks up one profile for GetInfo. Lookup failures are reported to
// the host but do not end the session.
func (s *Session) fetchInfo(id steam.ID) {
	async.Call(s.ctx, s.loop, func(ctx context.Context) ([]steam.Summary, error) {
		return s.opts.Transport.FetchSummaries(ctx, []steam.ID{id})
	}, func(sums []steam.Summary, err error) {
		if s.dropLate("GetInfo") {
			return
		}
		if err != nil {
			s.log.WithFields(logrus.Fields{
				"function": "fetchInfo",
				"steam_id": id,
			}).WithError(err).Warn("Profile lookup failed")
			s.notice(fmt.Sprintf("Failed to get info for %s: %v", id, err))
			return
		}
		for _, sum := range sums {
			if sum.ID == id {
				s.notify(notify.InfoLines{ID: id, Lines: InfoLines(sum)})
				return
			}
		}
		s.notice(fmt.Sprintf("No profile found for %s", id))
	})
}
