// Command ftpd starts the FTP server configured by a YAML file and a
// two-column CSV credential file.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/pflag"

	"goftpd/internal/config"
	"goftpd/internal/credentials"
	"goftpd/server"
)

func main() {
	var configPath string
	pflag.StringVar(&configPath, "config", "ftpd.yaml", "path to the YAML configuration file")
	pflag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	if err := run(configPath); err != nil {
		logger.Error("ftpd exiting", "error", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return errors.Wrap(err, "load configuration")
	}

	store, err := credentials.Load(cfg.Credentials)
	if err != nil {
		return errors.Wrap(err, "load credentials")
	}

	if err := os.MkdirAll(cfg.Root, 0755); err != nil {
		return errors.Wrapf(err, "create root directory %s", cfg.Root)
	}

	driver, err := server.NewFSDriver(cfg.Root, store)
	if err != nil {
		return errors.Wrap(err, "initialize driver")
	}

	s, err := server.NewServer(cfg.ListenAddr,
		server.WithDriver(driver),
		server.WithDataAddr(cfg.DataAddr),
		server.WithMaxSessions(int64(cfg.MaxSessions)),
	)
	if err != nil {
		return errors.Wrap(err, "configure server")
	}

	slog.Info("starting ftpd",
		"listen_addr", cfg.ListenAddr,
		"data_addr", cfg.DataAddr,
		"root", cfg.Root,
		"max_sessions", cfg.MaxSessions,
	)

	if err := s.ListenAndServe(); err != nil && err != server.ErrServerClosed {
		return fmt.Errorf("serve: %w", err)
	}
	return nil
}
