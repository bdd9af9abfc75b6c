package main

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Config is the daemon configuration. Every key can be overridden from the
// environment with the STEAMSYNC_ prefix, e.g. STEAMSYNC_NATS_URL.
type Config struct {
	Log       LogConfig       `mapstructure:"log"`
	NATS      NATSConfig      `mapstructure:"nats"`
	Transport TransportConfig `mapstructure:"transport"`
	Host      HostConfig      `mapstructure:"host"`
	Store     StoreConfig     `mapstructure:"store"`
	Secret    SecretConfig    `mapstructure:"secret"`
	Accounts  []AccountConfig `mapstructure:"accounts"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type NATSConfig struct {
	URL           string        `mapstructure:"url"`
	Name          string        `mapstructure:"name"`
	MaxReconnects int           `mapstructure:"max_reconnects"`
	ReconnectWait time.Duration `mapstructure:"reconnect_wait"`
}

type TransportConfig struct {
	// Simulate runs every account against an in-memory transport without
	// a bus connection.
	Simulate       bool          `mapstructure:"simulate"`
	Prefix         string        `mapstructure:"prefix"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	PollTimeout    time.Duration `mapstructure:"poll_timeout"`
}

type HostConfig struct {
	// Prefix of the subjects notifications are published on. Empty disables
	// publishing; notifications are still logged.
	Prefix string `mapstructure:"prefix"`
}

// Store backends.
const (
	BackendMemory   = "memory"
	BackendFile     = "file"
	BackendRedis    = "redis"
	BackendPostgres = "postgres"
)

type StoreConfig struct {
	Backend  string              `mapstructure:"backend"`
	Dir      string              `mapstructure:"dir"`
	Redis    RedisStoreConfig    `mapstructure:"redis"`
	Postgres PostgresStoreConfig `mapstructure:"postgres"`
}

type RedisStoreConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type PostgresStoreConfig struct {
	URL string `mapstructure:"url"`
}

type SecretConfig struct {
	// Passphrase seals cached session tokens at rest. Empty stores them
	// as-is.
	Passphrase string `mapstructure:"passphrase"`
}

type AccountConfig struct {
	Name       string `mapstructure:"name"`
	Username   string `mapstructure:"username"`
	Password   string `mapstructure:"password"`
	AllowEmote bool   `mapstructure:"allow_emote"`
}

var (
	errNoAccounts     = errors.New("no accounts configured")
	errUnknownBackend = errors.New("unknown store backend")
)

func setDefaults(v *viper.Viper) {
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("nats.url", "nats://127.0.0.1:4222")
	v.SetDefault("nats.name", "steamsyncd")
	v.SetDefault("nats.max_reconnects", -1)
	v.SetDefault("nats.reconnect_wait", 2*time.Second)
	v.SetDefault("transport.simulate", false)
	v.SetDefault("transport.prefix", "steamsync.steam")
	v.SetDefault("transport.request_timeout", 15*time.Second)
	v.SetDefault("transport.poll_timeout", 35*time.Second)
	v.SetDefault("host.prefix", "steamsync.host")
	v.SetDefault("store.backend", BackendFile)
	v.SetDefault("store.dir", "accounts")
	v.SetDefault("store.redis.addr", "127.0.0.1:6379")
	v.SetDefault("store.redis.password", "")
	v.SetDefault("store.redis.db", 0)
	v.SetDefault("store.postgres.url", "")
	v.SetDefault("secret.passphrase", "")
}

// LoadConfig reads the YAML file at path, if any, applies environment
// overrides and the flags in fs that were set.
func LoadConfig(path string, fs *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("STEAMSYNC")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if fs != nil {
		for key, name := range map[string]string{
			"log.level":  "log-level",
			"log.format": "log-format",
			"nats.url":   "nats-url",
		} {
			if f := fs.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("failed to bind flag %s: %w", name, err)
				}
			}
		}
	}

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the configuration and fills in account names.
func (c *Config) Validate() error {
	switch c.Store.Backend {
	case BackendMemory, BackendFile, BackendRedis, BackendPostgres:
	default:
		return fmt.Errorf("%w: %q", errUnknownBackend, c.Store.Backend)
	}

	if len(c.Accounts) == 0 {
		return errNoAccounts
	}

	seen := make(map[string]bool, len(c.Accounts))
	for i := range c.Accounts {
		acct := &c.Accounts[i]
		if acct.Username == "" {
			return fmt.Errorf("account %d: username is required", i)
		}
		if acct.Name == "" {
			acct.Name = acct.Username
		}
		if seen[acct.Name] {
			return fmt.Errorf("account %q configured twice", acct.Name)
		}
		seen[acct.Name] = true
	}
	return nil
}
