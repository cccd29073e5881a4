// Package config loads and validates the daemon configuration from TOML.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

type Config struct {
	Spotify SpotifyConfig `koanf:"spotify"`
	Slskd   SlskdConfig   `koanf:"slskd"`
	Match   MatchConfig   `koanf:"match"`
	Retry   RetryConfig   `koanf:"retry"`
	Sync    SyncConfig    `koanf:"sync"`
	Notify  NotifyConfig  `koanf:"notify"`
	Log     LogConfig     `koanf:"log"`
}

// SpotifyConfig holds catalog API credentials and the playlists to mirror.
type SpotifyConfig struct {
	ClientID     string   `koanf:"client_id"`
	ClientSecret string   `koanf:"client_secret"`
	Playlists    []string `koanf:"playlists"` // IDs, spotify: URIs or open.spotify.com URLs
}

// SlskdConfig holds all slskd-related configuration.
type SlskdConfig struct {
	URL              string   `koanf:"url"`    // e.g., "http://localhost:5030"
	APIKey           string   `koanf:"apikey"` // API key from slskd settings
	DownloadsDir     string   `koanf:"downloads_dir"`
	IncompleteDir    string   `koanf:"incomplete_dir"` // staging area still being written by slskd
	PreferredFormats []string `koanf:"preferred_formats"`
	MinBitrate       int      `koanf:"min_bitrate"`       // kbps floor for MP3s with a known bitrate
	SearchTimeout    int      `koanf:"search_timeout"`    // seconds
	TransferTimeout  int      `koanf:"transfer_timeout"`  // seconds
	StabilityTimeout int      `koanf:"stability_timeout"` // seconds to wait out external file movers
	StartupTimeout   int      `koanf:"startup_timeout"`   // seconds to wait for the daemon at boot
}

// MatchConfig holds fuzzy-matching thresholds.
type MatchConfig struct {
	MinTitleScore         float64 `koanf:"min_title_score"`         // 0-100, candidate filename vs title
	MinArtistScore        float64 `koanf:"min_artist_score"`        // 0-100, candidate filename vs artist
	AdoptThreshold        float64 `koanf:"adopt_threshold"`         // 0-1, minimum score to adopt a file during reconciliation
	VerifyThreshold       float64 `koanf:"verify_threshold"`        // 0-1, minimum score to keep an existing path
	PermissiveSingleToken bool    `koanf:"permissive_single_token"` // accept single-token title matches with no artist corroboration
}

// RetryConfig bounds wasted traffic on tracks the network cannot provide.
type RetryConfig struct {
	MaxAttempts   int     `koanf:"max_attempts"`
	CooldownHours int     `koanf:"cooldown_hours"`
	BackoffBase   int     `koanf:"backoff_base"` // seconds
	JitterMin     float64 `koanf:"jitter_min"`
	JitterMax     float64 `koanf:"jitter_max"`
}

// SyncConfig drives the top-level loop.
type SyncConfig struct {
	Interval       int    `koanf:"interval"` // seconds between cycles
	LibraryDir     string `koanf:"library_dir"`
	CleanupOrphans bool   `koanf:"cleanup_orphans"`
	CleanupDryRun  *bool  `koanf:"cleanup_dry_run"` // default true
	DatabasePath   string `koanf:"database_path"`   // empty = xdg data dir
}

// NotifyConfig enables optional push notifications when a URL is set.
type NotifyConfig struct {
	URL string `koanf:"url"` // ntfy-style topic endpoint
}

type LogConfig struct {
	Level string `koanf:"level"` // debug, info, warn, error
}

func Load() (*Config, error) {
	k := koanf.New(".")

	// Try config files in order of priority (last wins)
	for _, path := range getConfigPaths() {
		if _, err := os.Stat(path); err == nil {
			if err := k.Load(file.Provider(path), toml.Parser()); err != nil {
				return nil, fmt.Errorf("load %s: %w", path, err)
			}
		}
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, err
	}

	cfg.applyDefaults()

	cfg.Slskd.URL = strings.TrimSuffix(cfg.Slskd.URL, "/")
	cfg.Slskd.DownloadsDir = expandPath(cfg.Slskd.DownloadsDir)
	cfg.Slskd.IncompleteDir = expandPath(cfg.Slskd.IncompleteDir)
	cfg.Sync.LibraryDir = expandPath(cfg.Sync.LibraryDir)
	cfg.Sync.DatabasePath = expandPath(cfg.Sync.DatabasePath)

	return cfg, nil
}

func (c *Config) applyDefaults() {
	if len(c.Slskd.PreferredFormats) == 0 {
		c.Slskd.PreferredFormats = []string{".flac", ".mp3", ".aiff", ".wav"}
	}
	for i, ext := range c.Slskd.PreferredFormats {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		c.Slskd.PreferredFormats[i] = ext
	}
	if c.Slskd.MinBitrate == 0 {
		c.Slskd.MinBitrate = 320
	}
	if c.Slskd.SearchTimeout <= 0 {
		c.Slskd.SearchTimeout = 300
	}
	if c.Slskd.TransferTimeout <= 0 {
		c.Slskd.TransferTimeout = 300
	}
	if c.Slskd.StabilityTimeout <= 0 {
		c.Slskd.StabilityTimeout = 60
	}
	if c.Slskd.StartupTimeout <= 0 {
		c.Slskd.StartupTimeout = 120
	}

	if c.Match.MinTitleScore <= 0 {
		c.Match.MinTitleScore = 80
	}
	if c.Match.MinArtistScore <= 0 {
		c.Match.MinArtistScore = 70
	}
	if c.Match.AdoptThreshold <= 0 {
		c.Match.AdoptThreshold = 0.80
	}
	if c.Match.VerifyThreshold <= 0 {
		c.Match.VerifyThreshold = 0.60
	}

	if c.Retry.MaxAttempts <= 0 {
		c.Retry.MaxAttempts = 3
	}
	if c.Retry.CooldownHours <= 0 {
		c.Retry.CooldownHours = 48
	}
	if c.Retry.BackoffBase <= 0 {
		c.Retry.BackoffBase = 5
	}
	if c.Retry.JitterMin <= 0 {
		c.Retry.JitterMin = 1.0
	}
	if c.Retry.JitterMax <= 0 {
		c.Retry.JitterMax = 1.5
	}

	if c.Sync.Interval <= 0 {
		c.Sync.Interval = 300
	}
	if c.Sync.CleanupDryRun == nil {
		dryRun := true
		c.Sync.CleanupDryRun = &dryRun
	}

	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
}

// Validate checks everything needed before any network traffic. Errors here
// are fatal at startup.
func (c *Config) Validate() error {
	if c.Spotify.ClientID == "" || c.Spotify.ClientSecret == "" {
		return fmt.Errorf("spotify client_id and client_secret are required")
	}
	if len(c.Spotify.Playlists) == 0 {
		return fmt.Errorf("at least one spotify playlist is required")
	}
	if c.Slskd.URL == "" {
		return fmt.Errorf("slskd url is required")
	}
	if c.Slskd.APIKey == "" {
		return fmt.Errorf("slskd apikey is required")
	}
	if c.Slskd.DownloadsDir == "" {
		return fmt.Errorf("slskd downloads_dir is required")
	}
	if c.Match.MinTitleScore > 100 || c.Match.MinArtistScore > 100 {
		return fmt.Errorf("match scores are on a 0-100 scale")
	}
	if c.Match.AdoptThreshold > 1 || c.Match.VerifyThreshold > 1 {
		return fmt.Errorf("match thresholds are on a 0-1 scale")
	}
	if c.Retry.JitterMax < c.Retry.JitterMin {
		return fmt.Errorf("retry jitter_max must be >= jitter_min")
	}
	return nil
}

// Cooldown returns the suspension window applied once the attempt ceiling is
// reached.
func (c *RetryConfig) Cooldown() time.Duration {
	return time.Duration(c.CooldownHours) * time.Hour
}

// BackoffBaseDuration returns the base unit of the exponential backoff.
func (c *RetryConfig) BackoffBaseDuration() time.Duration {
	return time.Duration(c.BackoffBase) * time.Second
}

func (c *SlskdConfig) SearchTimeoutDuration() time.Duration {
	return time.Duration(c.SearchTimeout) * time.Second
}

func (c *SlskdConfig) TransferTimeoutDuration() time.Duration {
	return time.Duration(c.TransferTimeout) * time.Second
}

func (c *SlskdConfig) StabilityTimeoutDuration() time.Duration {
	return time.Duration(c.StabilityTimeout) * time.Second
}

func getConfigPaths() []string {
	paths := []string{}

	// 1. ~/.config/spotify-slsk/config.toml
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", "spotify-slsk", "config.toml"))
	}

	// 2. ./config.toml (pwd, highest priority)
	paths = append(paths, "config.toml")

	return paths
}

func expandPath(path string) string {
	if path != "" && path[0] == '~' {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[1:])
		}
	}
	return path
}
