package account

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/opd-ai/steamsync/crypto"
	"github.com/opd-ai/steamsync/interfaces"
	"github.com/opd-ai/steamsync/limits"
	"github.com/opd-ai/steamsync/steam"
)

// Setting keys.
const (
	KeyToken       = "token"
	KeySteamID     = "steamid"
	KeyUMQID       = "umqid"
	KeyEmailID     = "esid"
	KeyCaptchaGID  = "cgid"
	KeyGameStatus  = "game_status"
	KeyShowPlaying = "show_playing"
)

// DefaultShowPlaying is the display mode used when none is stored.
const DefaultShowPlaying = "%"

// ErrUnknownChallenge is returned when an answer names neither the captcha
// nor the guard code.
var ErrUnknownChallenge = errors.New("unknown challenge field")

// Snapshot is the persisted state of an account at one point in time.
type Snapshot struct {
	Token                string
	SteamID              steam.ID
	UMQID                string
	EmailSteamID         string
	CaptchaGID           string
	AnnounceGameActivity bool
	DisplayMode          steam.DisplayMode
}

// Settings gives typed access to an account's key/value store. The guard
// code and captcha answers are held in memory only.
type Settings struct {
	store  interfaces.IKeyValueStore
	sealer *crypto.Sealer
	log    *logrus.Entry

	mu       sync.Mutex
	authCode string
	captcha  string
}

// NewSettings wraps store. When sealer is non-nil the session token is sealed
// before it is written.
func NewSettings(store interfaces.IKeyValueStore, sealer *crypto.Sealer, entry *logrus.Entry) *Settings {
	if entry == nil {
		entry = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Settings{store: store, sealer: sealer, log: entry}
}

// Load reads every persisted setting.
func (s *Settings) Load(ctx context.Context) (Snapshot, error) {
	var snap Snapshot

	token, err := s.get(ctx, KeyToken)
	if err != nil {
		return snap, err
	}
	if s.sealer != nil {
		opened, err := s.sealer.Open(token)
		if err != nil {
			// A token we can no longer read is as good as none.
			s.log.WithFields(logrus.Fields{
				"function": "Load",
				"error":    err.Error(),
			}).Warn("Discarding unreadable session token")
			opened = ""
		}
		token = opened
	}
	snap.Token = token

	steamID, err := s.get(ctx, KeySteamID)
	if err != nil {
		return snap, err
	}
	snap.SteamID = steam.ID(steamID)

	if snap.UMQID, err = s.get(ctx, KeyUMQID); err != nil {
		return snap, err
	}
	if snap.EmailSteamID, err = s.get(ctx, KeyEmailID); err != nil {
		return snap, err
	}
	if snap.CaptchaGID, err = s.get(ctx, KeyCaptchaGID); err != nil {
		return snap, err
	}

	gameStatus, err := s.get(ctx, KeyGameStatus)
	if err != nil {
		return snap, err
	}
	snap.AnnounceGameActivity = parseBool(gameStatus)

	showPlaying, ok, err := s.store.Get(ctx, KeyShowPlaying)
	if err != nil {
		return snap, fmt.Errorf("failed to read %s: %w", KeyShowPlaying, err)
	}
	if !ok {
		showPlaying = DefaultShowPlaying
	}
	snap.DisplayMode = steam.ParseDisplayMode(showPlaying)

	return snap, nil
}

// Answers returns the challenge answers to send with the next
// authentication attempt.
func (s *Settings) Answers(snap Snapshot) steam.ChallengeAnswers {
	s.mu.Lock()
	defer s.mu.Unlock()

	return steam.ChallengeAnswers{
		AuthCode:     s.authCode,
		Captcha:      s.captcha,
		EmailSteamID: snap.EmailSteamID,
		CaptchaGID:   snap.CaptchaGID,
	}
}

// SetChallengeAnswer records the user's answer for field.
func (s *Settings) SetChallengeAnswer(field steam.ChallengeField, answer string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch field {
	case steam.ChallengeAuthCode:
		s.authCode = strings.TrimSpace(answer)
	case steam.ChallengeCaptcha:
		s.captcha = strings.TrimSpace(answer)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownChallenge, field)
	}
	return nil
}

// ClearChallengeAnswers forgets answers once authentication succeeded.
func (s *Settings) ClearChallengeAnswers() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.authCode = ""
	s.captcha = ""
}

// SaveCredentials persists the result of a successful authentication.
func (s *Settings) SaveCredentials(ctx context.Context, creds steam.Credentials) error {
	token := creds.Token
	if s.sealer != nil {
		sealed, err := s.sealer.Seal(token)
		if err != nil {
			return fmt.Errorf("failed to seal token: %w", err)
		}
		token = sealed
	}

	if err := s.set(ctx, KeyToken, token); err != nil {
		return err
	}
	if err := s.set(ctx, KeySteamID, creds.SteamID.String()); err != nil {
		return err
	}
	// The challenge context is single-use.
	if err := s.set(ctx, KeyEmailID, ""); err != nil {
		return err
	}
	return s.set(ctx, KeyCaptchaGID, "")
}

// SaveLogon persists the identifiers returned by a logon.
func (s *Settings) SaveLogon(ctx context.Context, logon steam.Logon) error {
	if err := s.set(ctx, KeySteamID, logon.SteamID.String()); err != nil {
		return err
	}
	return s.set(ctx, KeyUMQID, logon.UMQID)
}

// SaveChallenge persists the context the next authentication attempt must
// send back.
func (s *Settings) SaveChallenge(ctx context.Context, ce *steam.ChallengeError) error {
	if err := s.set(ctx, KeyEmailID, ce.EmailSteamID); err != nil {
		return err
	}
	return s.set(ctx, KeyCaptchaGID, ce.CaptchaGID)
}

// ClearToken forgets the session token, forcing a full authentication on the
// next connect.
func (s *Settings) ClearToken(ctx context.Context) error {
	return s.set(ctx, KeyToken, "")
}

// ResetToken is ClearToken plus the message queue id; used when the password
// changes.
func (s *Settings) ResetToken(ctx context.Context) error {
	if err := s.ClearToken(ctx); err != nil {
		return err
	}
	return s.set(ctx, KeyUMQID, "")
}

// SetAnnounceGameActivity stores the game_status flag.
func (s *Settings) SetAnnounceGameActivity(ctx context.Context, on bool) error {
	return s.set(ctx, KeyGameStatus, strconv.FormatBool(on))
}

// SetDisplayMode stores the show_playing mode. DisplayNone is stored as an
// explicit empty value so the default does not come back.
func (s *Settings) SetDisplayMode(ctx context.Context, mode steam.DisplayMode) error {
	if err := s.store.Set(ctx, KeyShowPlaying, mode.String()); err != nil {
		return fmt.Errorf("failed to write %s: %w", KeyShowPlaying, err)
	}
	return nil
}

func (s *Settings) get(ctx context.Context, key string) (string, error) {
	v, _, err := s.store.Get(ctx, key)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", key, err)
	}
	return v, nil
}

// set writes value, or deletes the key when value is empty.
func (s *Settings) set(ctx context.Context, key, value string) error {
	if value == "" {
		if err := s.store.Delete(ctx, key); err != nil {
			return fmt.Errorf("failed to delete %s: %w", key, err)
		}
		return nil
	}
	if err := limits.ValidateSettingValue(value); err != nil {
		return fmt.Errorf("refusing to write %s: %w", key, err)
	}
	if err := s.store.Set(ctx, key, value); err != nil {
		return fmt.Errorf("failed to write %s: %w", key, err)
	}
	return nil
}

func parseBool(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "yes", "on":
		return true
	}
	b, _ := strconv.ParseBool(strings.TrimSpace(v))
	return b
}
