package main

import (
	"fmt"
	"io"
	"os"

	"songdeck/internal/catalog"
	"songdeck/internal/config"
	"songdeck/internal/logging"
	"songdeck/internal/media"
	"songdeck/internal/metadata"
	"songdeck/internal/player"

	"github.com/sirupsen/logrus"
)

// deck holds the components every subcommand is wired from
type deck struct {
	cfg       *config.Config
	logger    *logrus.Logger
	logCloser io.Closer
	catalog   catalog.Catalog
	cached    *catalog.CachedCatalog
	extractor *metadata.Extractor
	handle    media.Handle
}

// openDeck loads configuration and builds the logger and catalog
func openDeck(opts *options) (*deck, error) {
	cfg, err := config.LoadConfig(opts.configPath)
	if err != nil {
		return nil, fmt.Errorf("error loading configuration: %w", err)
	}
	if opts.output != "" {
		cfg.Player.Output = opts.output
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
	}

	logger, closer, err := logging.New(cfg.Logging)
	if err != nil {
		return nil, err
	}

	d := &deck{
		cfg:       cfg,
		logger:    logger,
		logCloser: closer,
		extractor: metadata.NewExtractor(cfg.Library.AudioExtensions, logger),
	}

	if cfg.Catalog.Source == "fs" {
		if _, err := os.Stat(cfg.SongsPath()); os.IsNotExist(err) {
			logger.WithField("songs_path", cfg.SongsPath()).Warn("Songs directory does not exist. Create it and add album folders.")
		}
	}

	if err := d.buildCatalog(); err != nil {
		d.Close()
		return nil, err
	}
	return d, nil
}

// buildCatalog picks the listing source and wraps it in a cache when a TTL
// is configured
func (d *deck) buildCatalog() error {
	var source catalog.Source
	var direct catalog.Catalog

	switch d.cfg.Catalog.Source {
	case "http":
		c, err := catalog.NewHTTPCatalog(d.cfg.Catalog.BaseURL, d.cfg.Library.SongsDir, d.cfg.Library.AudioExtensions, d.cfg.CatalogTimeout(), d.logger)
		if err != nil {
			return fmt.Errorf("error creating http catalog: %w", err)
		}
		source, direct = c, c
	default:
		c := catalog.NewFSCatalog(d.cfg.Library.Path, d.cfg.Library.SongsDir, d.cfg.Library.AudioExtensions, d.logger)
		source, direct = c, c
	}

	if ttl := d.cfg.CacheTTL(); ttl > 0 {
		d.cached = catalog.NewCachedCatalog(source, ttl, d.logger)
		d.catalog = d.cached
		return nil
	}
	d.catalog = direct
	return nil
}

// newSession builds the media handle for the configured output and an
// empty playback session driving it
func (d *deck) newSession() (*player.Session, error) {
	handle, err := d.buildHandle()
	if err != nil {
		return nil, err
	}
	d.handle = handle

	return player.NewSession(handle, player.NewNotifier(), d.logger, player.SessionOptions{
		Volume:            d.cfg.Player.DefaultVolume,
		MuteRestoreVolume: d.cfg.Player.MuteRestoreVolume,
	}), nil
}

func (d *deck) buildHandle() (media.Handle, error) {
	if d.cfg.Player.Output == "speaker" {
		if media.AudioAvailable {
			return media.NewSpeaker(d.cfg.Library.Path, d.cfg.TickInterval(), d.logger)
		}
		d.logger.Warn("Audio output is not available in this build, falling back to the virtual clock")
	}
	return media.NewClock(d.cfg.Library.Path, d.extractor.ProbeDuration, d.cfg.TickInterval(), d.logger), nil
}

// Close releases the media handle, the catalog cache and the log file
func (d *deck) Close() {
	if d.handle != nil {
		if err := d.handle.Close(); err != nil {
			d.logger.WithError(err).Warn("Failed to close media handle")
		}
	}
	if d.cached != nil {
		d.cached.Close()
	}
	if d.logCloser != nil {
		d.logCloser.Close()
	}
}
