// Copyright 2026 The Reelstore Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/pflag"

	"github.com/reelstore/reelstore/cmd/reelstore/cli"
	"github.com/reelstore/reelstore/lib/backup"
	"github.com/reelstore/reelstore/lib/catalog"
	"github.com/reelstore/reelstore/lib/clock"
	"github.com/reelstore/reelstore/lib/config"
	"github.com/reelstore/reelstore/lib/identity"
	"github.com/reelstore/reelstore/lib/media"
	"github.com/reelstore/reelstore/lib/session"
)

// globalOptions are accepted by every command that opens the catalog.
type globalOptions struct {
	ConfigPath string
	Ephemeral  bool
	LogLevel   string
	Creator    string
}

func (o *globalOptions) register(flagSet *pflag.FlagSet) {
	flagSet.StringVar(&o.ConfigPath, "config", "", "config file (default: $"+config.EnvironmentVariable+", then built-in defaults)")
	flagSet.BoolVar(&o.Ephemeral, "ephemeral", false, "keep the catalog in memory for this run only")
	flagSet.StringVar(&o.LogLevel, "log-level", "", "override log.level (debug, info, warn, error)")
	flagSet.StringVar(&o.Creator, "creator", "", "override identity.creator_id")
}

// app is the set of collaborators one command runs against.
type app struct {
	config   *config.Config
	logger   *slog.Logger
	store    *catalog.Store
	provider *session.Simulated
	session  *session.Session
	service  *media.Service
	closers  []io.Closer
}

func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFile(path)
	}
	if os.Getenv(config.EnvironmentVariable) != "" {
		return config.Load()
	}
	cfg := config.Default()
	cfg.ExpandVariables()
	return cfg, nil
}

func openApp(options *globalOptions, stderr io.Writer) (*app, error) {
	cfg, err := loadConfig(options.ConfigPath)
	if err != nil {
		return nil, err
	}
	if options.Ephemeral {
		cfg.Catalog.Medium = config.MediumMemory
		cfg.Backup.Enabled = false
	}
	if options.LogLevel != "" {
		cfg.Log.Level = options.LogLevel
	}
	if options.Creator != "" {
		cfg.Identity.CreatorID = options.Creator
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	if cfg.Identity.CreatorID != "" {
		if err := identity.ValidateAccount(cfg.Identity.CreatorID); err != nil {
			return nil, fmt.Errorf("invalid configuration: identity.creator_id: %w", err)
		}
	}
	if cfg.Catalog.Medium != config.MediumMemory {
		if err := cfg.EnsurePaths(); err != nil {
			return nil, err
		}
	}

	logger, err := cli.NewCommandLogger(stderr, cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return nil, err
	}

	a := &app{config: cfg, logger: logger}
	success := false
	defer func() {
		if !success {
			a.Close()
		}
	}()

	medium, err := a.openMedium()
	if err != nil {
		return nil, err
	}
	a.store = catalog.New(medium, catalog.Options{
		Key:              cfg.Catalog.Key,
		MaxDocumentBytes: cfg.Catalog.MaxDocumentBytes,
		Logger:           logger.With("component", "catalog"),
	})

	var latency session.Latency
	if cfg.Session.SimulateLatency {
		latency = session.DefaultLatency()
	}
	a.provider, err = session.NewSimulated(session.SimulatedOptions{
		Latency: latency,
		Balance: cfg.Session.OpeningBalance,
		Logger:  logger.With("component", "provider"),
	})
	if err != nil {
		return nil, err
	}
	a.session = session.New(a.provider, logger.With("component", "session"))

	mediaOptions := media.Options{
		Session:                a.session,
		Catalog:                a.store,
		DownloadWithoutSession: !cfg.Session.DownloadRequiresSession,
		Logger:                 logger.With("component", "media"),
	}
	if cfg.Identity.CreatorID != "" {
		mediaOptions.Identity = identity.Static(cfg.Identity.CreatorID)
	}
	if cfg.Backup.Enabled {
		compression, err := backup.ParseCompression(cfg.Backup.Compression)
		if err != nil {
			return nil, err
		}
		writer, err := backup.NewWriter(backup.WriterOptions{
			Dir:         cfg.Paths.Backups,
			Compression: compression,
			Recipients:  cfg.Backup.Recipients,
			Logger:      logger.With("component", "backup"),
		})
		if err != nil {
			return nil, err
		}
		mediaOptions.Backup = writer
	}
	a.service, err = media.New(mediaOptions)
	if err != nil {
		return nil, err
	}

	success = true
	return a, nil
}

func (a *app) openMedium() (catalog.Medium, error) {
	switch a.config.Catalog.Medium {
	case config.MediumFile:
		return catalog.NewFileMedium(a.config.Paths.Catalog)
	case config.MediumSQLite:
		medium, err := catalog.OpenSQLiteMedium(a.config.Paths.Database, clock.Real(),
			a.logger.With("component", "sqlite"))
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, medium)
		return medium, nil
	case config.MediumMemory:
		return catalog.NewMemoryMedium(), nil
	default:
		return nil, fmt.Errorf("unknown catalog medium %q", a.config.Catalog.Medium)
	}
}

// Close releases the catalog medium.
func (a *app) Close() error {
	var errs []error
	for _, closer := range a.closers {
		errs = append(errs, closer.Close())
	}
	a.closers = nil
	return errors.Join(errs...)
}
