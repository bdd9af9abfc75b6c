// Command steamsyncd keeps the buddy lists of one or more Steam accounts in
// sync, talking to a Steam poller and to chat hosts over NATS.
//
// Usage:
//
//	steamsyncd --config steamsyncd.yaml [--env-file .env] [--log-level debug]
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/pflag"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := run(os.Args[1:]); err != nil {
		logrus.WithError(err).Fatal("steamsyncd failed")
	}
}

func run(args []string) error {
	fs := pflag.NewFlagSet("steamsyncd", pflag.ContinueOnError)
	configPath := fs.StringP("config", "c", "steamsyncd.yaml", "path to the YAML configuration")
	envFile := fs.String("env-file", ".env", "environment file loaded before the configuration")
	fs.String("log-level", "info", "log level (trace, debug, info, warn, error)")
	fs.String("log-format", "text", "log format (text, json)")
	fs.String("nats-url", "", "NATS server URL")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}

	if err := godotenv.Load(*envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to load %s: %w", *envFile, err)
	}

	cfg, err := LoadConfig(*configPath, fs)
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.Log)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	d := newDaemon(cfg, logger)
	if err := d.Start(ctx); err != nil {
		shutdown(d)
		return err
	}

	select {
	case <-ctx.Done():
		d.log.Info("Shutting down")
	case <-d.Finished():
		d.log.Info("All sessions ended")
	}
	shutdown(d)
	return nil
}

func shutdown(d *daemon) {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	d.Stop(ctx)
}
