package factory

import (
	"errors"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/opd-ai/steamsync/interfaces"
	simtest "github.com/opd-ai/steamsync/testing"
	"github.com/opd-ai/steamsync/transport"
)

// Timeout bounds accepted from the environment.
const (
	MinTimeout = time.Second
	MaxTimeout = 10 * time.Minute
)

// Environment overrides.
const (
	EnvUseSimulation  = "STEAMSYNC_USE_SIMULATION"
	EnvRequestTimeout = "STEAMSYNC_REQUEST_TIMEOUT"
	EnvPollTimeout    = "STEAMSYNC_POLL_TIMEOUT"
)

// ErrNoConnection is returned when a NATS transport is requested without a
// bus connection.
var ErrNoConnection = errors.New("bus connection is required for the NATS transport")

// Config selects and tunes the transport implementation.
type Config struct {
	Simulate       bool
	Prefix         string
	RequestTimeout time.Duration
	PollTimeout    time.Duration
}

// TransportFactory creates transports from a shared configuration. It is safe
// for concurrent use.
type TransportFactory struct {
	mu  sync.RWMutex
	cfg Config
}

// New creates a factory from cfg with environment overrides applied.
func New(cfg Config) *TransportFactory {
	applyEnvironmentOverrides(&cfg)

	logrus.WithFields(logrus.Fields{
		"function":        "New",
		"simulate":        cfg.Simulate,
		"prefix":          cfg.Prefix,
		"request_timeout": cfg.RequestTimeout,
		"poll_timeout":    cfg.PollTimeout,
	}).Info("Created transport factory")

	return &TransportFactory{cfg: cfg}
}

func applyEnvironmentOverrides(cfg *Config) {
	if v := os.Getenv(EnvUseSimulation); v != "" {
		sim, err := strconv.ParseBool(v)
		if err != nil {
			logrus.WithFields(logrus.Fields{
				"function":    "applyEnvironmentOverrides",
				"env_var":     EnvUseSimulation,
				"value":       v,
				"using_value": cfg.Simulate,
			}).WithError(err).Warn("Failed to parse environment variable, using configured value")
		} else {
			cfg.Simulate = sim
		}
	}
	parseTimeout(EnvRequestTimeout, &cfg.RequestTimeout)
	parseTimeout(EnvPollTimeout, &cfg.PollTimeout)
}

func parseTimeout(name string, dst *time.Duration) {
	v := os.Getenv(name)
	if v == "" {
		return
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"function":    "parseTimeout",
			"env_var":     name,
			"value":       v,
			"using_value": *dst,
		}).WithError(err).Warn("Failed to parse environment variable, using configured value")
		return
	}
	if d < MinTimeout || d > MaxTimeout {
		logrus.WithFields(logrus.Fields{
			"function":    "parseTimeout",
			"env_var":     name,
			"value":       d,
			"min":         MinTimeout,
			"max":         MaxTimeout,
			"using_value": *dst,
		}).Warn("Timeout out of bounds, using configured value")
		return
	}
	*dst = d
}

// Create returns the transport of one account. conn may be nil in simulation
// mode.
func (f *TransportFactory) Create(conn transport.Requester, account string, entry *logrus.Entry) (interfaces.ITransport, error) {
	cfg := f.Config()

	if entry == nil {
		entry = logrus.NewEntry(logrus.StandardLogger())
	}

	if cfg.Simulate {
		entry.WithFields(logrus.Fields{
			"function": "Create",
			"type":     "simulation",
		}).Info("Creating simulated transport")
		return simtest.NewSimulatedTransport(), nil
	}

	if conn == nil {
		return nil, ErrNoConnection
	}

	entry.WithFields(logrus.Fields{
		"function": "Create",
		"type":     "nats",
		"prefix":   cfg.Prefix,
	}).Debug("Creating NATS transport")

	return transport.NewNATSTransport(conn, transport.Options{
		Account:        account,
		Prefix:         cfg.Prefix,
		RequestTimeout: cfg.RequestTimeout,
		PollTimeout:    cfg.PollTimeout,
		Logger:         entry,
	}), nil
}

// Simulating reports whether Create hands out simulated transports.
func (f *TransportFactory) Simulating() bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.cfg.Simulate
}

// SetSimulate switches the mode of later Create calls.
func (f *TransportFactory) SetSimulate(on bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	logrus.WithFields(logrus.Fields{
		"function": "SetSimulate",
		"previous": f.cfg.Simulate,
		"current":  on,
	}).Info("Switching transport mode")

	f.cfg.Simulate = on
}

// Config returns a copy of the current configuration.
func (f *TransportFactory) Config() Config {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.cfg
}
