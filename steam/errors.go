package steam

import (
	"errors"
	"fmt"
)

// ErrSessionExpired is returned by a transport when the remote side no longer
// accepts the session token. It is the only recoverable transport error.
var ErrSessionExpired = errors.New("steam: session expired")

// ChallengeField names the input a challenge requires.
type ChallengeField string

const (
	ChallengeCaptcha  ChallengeField = "captcha"
	ChallengeAuthCode ChallengeField = "authcode"
)

// ChallengeError reports that authentication needs an extra answer from the
// user before it can proceed.
type ChallengeError struct {
	Field   ChallengeField
	Message string
	// URL points at the captcha image when Field is ChallengeCaptcha.
	URL string
	// EmailSteamID and CaptchaGID must be sent back with the answer.
	EmailSteamID string
	CaptchaGID   string
}

func (e *ChallengeError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("steam: %s required", e.Field)
}

// AsChallenge unwraps err into a *ChallengeError.
func AsChallenge(err error) (*ChallengeError, bool) {
	var ce *ChallengeError
	if errors.As(err, &ce) {
		return ce, true
	}
	return nil, false
}
