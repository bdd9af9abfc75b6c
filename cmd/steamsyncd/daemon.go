package main

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/opd-ai/steamsync"
	"github.com/opd-ai/steamsync/account"
	"github.com/opd-ai/steamsync/crypto"
	"github.com/opd-ai/steamsync/factory"
	"github.com/opd-ai/steamsync/host"
	"github.com/opd-ai/steamsync/interfaces"
	"github.com/opd-ai/steamsync/transport"
)

// newLogger builds the process logger from cfg.
func newLogger(cfg LogConfig) (*logrus.Logger, error) {
	logger := logrus.New()

	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level: %w", err)
	}
	logger.SetLevel(level)

	switch cfg.Format {
	case "", "text":
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	case "json":
		logger.SetFormatter(&logrus.JSONFormatter{})
	default:
		return nil, fmt.Errorf("invalid log format %q", cfg.Format)
	}
	return logger, nil
}

// daemon runs one session per configured account over a shared bus
// connection and shared store clients.
type daemon struct {
	cfg *Config
	log *logrus.Entry

	nc     *nats.Conn
	rdb    *redis.Client
	pool   *pgxpool.Pool
	sealer *crypto.Sealer
	tf     *factory.TransportFactory

	sessions []*steamsync.Session
	routers  []*host.CommandRouter
}

func newDaemon(cfg *Config, logger *logrus.Logger) *daemon {
	tf := factory.New(factory.Config{
		Simulate:       cfg.Transport.Simulate,
		Prefix:         cfg.Transport.Prefix,
		RequestTimeout: cfg.Transport.RequestTimeout,
		PollTimeout:    cfg.Transport.PollTimeout,
	})
	return &daemon{
		cfg: cfg,
		log: logrus.NewEntry(logger).WithField("component", "steamsyncd"),
		tf:  tf,
	}
}

// openStore returns the settings store of acct, connecting the shared
// backend client on first use.
func (d *daemon) openStore(ctx context.Context, acct AccountConfig) (interfaces.IKeyValueStore, error) {
	switch d.cfg.Store.Backend {
	case BackendMemory:
		return account.NewMemoryStore(nil), nil

	case BackendFile:
		return account.NewFileStore(filepath.Join(d.cfg.Store.Dir, acct.Name+".yaml")), nil

	case BackendRedis:
		if d.rdb == nil {
			rc := d.cfg.Store.Redis
			rdb, err := account.NewRedisClient(ctx, rc.Addr, rc.Password, rc.DB)
			if err != nil {
				return nil, err
			}
			d.rdb = rdb
		}
		return account.NewRedisStore(d.rdb, acct.Name), nil

	case BackendPostgres:
		if d.pool == nil {
			pool, err := account.NewPostgresPool(ctx, d.cfg.Store.Postgres.URL)
			if err != nil {
				return nil, err
			}
			d.pool = pool
		}
		return account.NewPostgresStore(d.pool, acct.Name), nil
	}
	return nil, fmt.Errorf("%w: %q", errUnknownBackend, d.cfg.Store.Backend)
}

// hostFor returns the notification sink of one account.
func (d *daemon) hostFor(acct AccountConfig, entry *logrus.Entry) interfaces.IHost {
	hosts := host.Multi{host.NewLogHost(entry)}
	if d.nc != nil && d.cfg.Host.Prefix != "" {
		hosts = append(hosts, host.NewNATSHost(d.nc, d.cfg.Host.Prefix, acct.Name, entry))
	}
	return hosts
}

// Start connects the bus and every account.
func (d *daemon) Start(ctx context.Context) error {
	if !d.tf.Simulating() {
		nc, err := transport.DialNATS(transport.NATSConfig{
			URL:           d.cfg.NATS.URL,
			Name:          d.cfg.NATS.Name,
			MaxReconnects: d.cfg.NATS.MaxReconnects,
			ReconnectWait: d.cfg.NATS.ReconnectWait,
		})
		if err != nil {
			return err
		}
		d.nc = nc
	}

	if d.cfg.Secret.Passphrase != "" {
		sealer, err := crypto.NewSealer(d.cfg.Secret.Passphrase)
		if err != nil {
			return err
		}
		d.sealer = sealer
	}

	for _, acct := range d.cfg.Accounts {
		if err := d.startAccount(ctx, acct); err != nil {
			return fmt.Errorf("account %s: %w", acct.Name, err)
		}
	}

	d.log.WithFields(logrus.Fields{
		"function": "Start",
		"accounts": len(d.sessions),
		"backend":  d.cfg.Store.Backend,
		"simulate": d.tf.Simulating(),
	}).Info("Daemon started")
	return nil
}

func (d *daemon) startAccount(ctx context.Context, acct AccountConfig) error {
	entry := d.log.WithField("account", acct.Name)

	store, err := d.openStore(ctx, acct)
	if err != nil {
		return err
	}

	var conn transport.Requester
	if d.nc != nil {
		conn = d.nc
	}
	tr, err := d.tf.Create(conn, acct.Name, entry)
	if err != nil {
		return err
	}

	opts := steamsync.NewOptions()
	opts.Account = acct.Name
	opts.Username = acct.Username
	opts.Password = acct.Password
	opts.AllowEmote = acct.AllowEmote
	opts.Store = store
	opts.Sealer = d.sealer
	opts.Logger = entry
	opts.Host = d.hostFor(acct, entry)
	opts.Transport = tr

	session, err := steamsync.New(opts)
	if err != nil {
		return err
	}
	if err := d.listen(session, acct, entry); err != nil {
		return err
	}
	if err := session.Connect(); err != nil {
		return err
	}
	d.sessions = append(d.sessions, session)
	return nil
}

// listen routes commands published for acct to session. Without a bus or a
// host prefix the session only runs on its configuration.
func (d *daemon) listen(session interfaces.ISession, acct AccountConfig, entry *logrus.Entry) error {
	if d.nc == nil || d.cfg.Host.Prefix == "" {
		return nil
	}
	router := host.NewCommandRouter(d.nc, session, d.cfg.Host.Prefix, acct.Name, entry)
	if err := router.Start(d.nc); err != nil {
		return err
	}
	d.routers = append(d.routers, router)
	return nil
}

// Finished is closed once every session has ended on its own.
func (d *daemon) Finished() <-chan struct{} {
	finished := make(chan struct{})
	var wg sync.WaitGroup
	for _, s := range d.sessions {
		wg.Add(1)
		go func(s *steamsync.Session) {
			defer wg.Done()
			<-s.Done()
			d.log.WithFields(logrus.Fields{
				"account": s.Account(),
				"state":   s.State().String(),
			}).Info("Session ended")
		}(s)
	}
	go func() {
		wg.Wait()
		close(finished)
	}()
	return finished
}

// Stop disconnects every session and closes the shared clients.
func (d *daemon) Stop(ctx context.Context) {
	for _, r := range d.routers {
		r.Stop()
	}

	var wg sync.WaitGroup
	for _, s := range d.sessions {
		wg.Add(1)
		go func(s *steamsync.Session) {
			defer wg.Done()
			if err := s.Close(ctx); err != nil {
				d.log.WithFields(logrus.Fields{
					"function": "Stop",
					"account":  s.Account(),
				}).WithError(err).Warn("Session did not close in time")
			}
		}(s)
	}
	wg.Wait()

	if d.nc != nil {
		if err := d.nc.Drain(); err != nil {
			d.log.WithError(err).Warn("Failed to drain NATS connection")
		}
	}
	if d.rdb != nil {
		d.rdb.Close()
	}
	if d.pool != nil {
		d.pool.Close()
	}
	if d.sealer != nil {
		d.sealer.Wipe()
	}

	d.log.WithField("function", "Stop").Info("Daemon stopped")
}
