package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/log"

	"github.com/guilhermewolf/spotify-slsk/internal/config"
	"github.com/guilhermewolf/spotify-slsk/internal/download"
	"github.com/guilhermewolf/spotify-slsk/internal/notify"
	"github.com/guilhermewolf/spotify-slsk/internal/slskd"
	"github.com/guilhermewolf/spotify-slsk/internal/spotify"
	"github.com/guilhermewolf/spotify-slsk/internal/store"
	"github.com/guilhermewolf/spotify-slsk/internal/syncer"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		Level:           parseLevel(cfg.Log.Level),
	})

	st, err := store.Open(cfg.Sync.DatabasePath)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer st.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	catalog, err := spotify.NewClient(ctx, cfg.Spotify.ClientID, cfg.Spotify.ClientSecret)
	if err != nil {
		return err
	}

	client := slskd.NewClient(cfg.Slskd.URL, cfg.Slskd.APIKey)
	orchestrator := download.New(client, downloadOptions(cfg), logger)

	s, err := syncer.New(cfg, st, catalog, client, orchestrator, notify.New(cfg.Notify.URL), logger)
	if err != nil {
		return err
	}

	if err := s.Run(ctx); err != nil {
		return err
	}
	logger.Info("shutting down")
	return nil
}

func downloadOptions(cfg *config.Config) download.Options {
	return download.Options{
		Select: download.SelectOptions{
			PreferredFormats: cfg.Slskd.PreferredFormats,
			MinBitRate:       cfg.Slskd.MinBitrate,
			MinTitleScore:    cfg.Match.MinTitleScore,
			MinArtistScore:   cfg.Match.MinArtistScore,
		},
		DownloadsDir:     cfg.Slskd.DownloadsDir,
		IncompleteDir:    cfg.Slskd.IncompleteDir,
		SearchTimeout:    cfg.Slskd.SearchTimeoutDuration(),
		TransferTimeout:  cfg.Slskd.TransferTimeoutDuration(),
		StabilityTimeout: cfg.Slskd.StabilityTimeoutDuration(),
	}
}

func parseLevel(level string) log.Level {
	switch level {
	case "debug":
		return log.DebugLevel
	case "warn":
		return log.WarnLevel
	case "error":
		return log.ErrorLevel
	default:
		return log.InfoLevel
	}
}
