package steamsync

import (
	"errors"

	"github.com/sirupsen/logrus"

	"github.com/opd-ai/steamsync/account"
	"github.com/opd-ai/steamsync/crypto"
	"github.com/opd-ai/steamsync/host"
	"github.com/opd-ai/steamsync/interfaces"
)

// Errors returned by New and the Session methods.
var (
	ErrNoTransport      = errors.New("steamsync: transport is required")
	ErrNoUsername       = errors.New("steamsync: username is required")
	ErrAlreadyConnected = errors.New("steamsync: session already connected")
	ErrSessionClosed    = errors.New("steamsync: session closed")
	ErrNotLoggedIn      = errors.New("steamsync: not logged in")
)

// Options configures a Session.
type Options struct {
	// Account labels the session in logs and host notifications. Defaults
	// to Username.
	Account  string
	Username string
	Password string

	Transport interfaces.ITransport
	Store     interfaces.IKeyValueStore
	Host      interfaces.IHost
	// Sealer seals the cached session token at rest. Nil stores it as-is.
	Sealer *crypto.Sealer

	// AllowEmote sends outbound text starting with "/me " as an emote.
	AllowEmote bool

	Logger *logrus.Entry
}

// NewOptions returns options with an in-memory store and a logging host.
// Username, Password and Transport must still be set.
func NewOptions() *Options {
	return &Options{
		Store: account.NewMemoryStore(nil),
		Host:  host.NewLogHost(nil),
	}
}

func (o *Options) validate() error {
	if o.Transport == nil {
		return ErrNoTransport
	}
	if o.Username == "" {
		return ErrNoUsername
	}
	return nil
}

var _ interfaces.ISession = (*Session)(nil)
