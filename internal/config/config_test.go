package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skipf("Could not get home dir: %v", err)
	}

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "tilde expands to home",
			input:    "~/music",
			expected: filepath.Join(home, "music"),
		},
		{
			name:     "absolute path unchanged",
			input:    "/srv/music",
			expected: "/srv/music",
		},
		{
			name:     "relative path unchanged",
			input:    "music/albums",
			expected: "music/albums",
		},
		{
			name:     "empty string unchanged",
			input:    "",
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := expandPath(tt.input)
			if result != tt.expected {
				t.Errorf("expandPath(%q) = %q, want %q", tt.input, result, tt.expected)
			}
		})
	}
}

func TestGetConfigPaths(t *testing.T) {
	paths := getConfigPaths()

	if len(paths) == 0 {
		t.Fatal("getConfigPaths() returned empty slice")
	}

	// Last path should be local config.toml
	lastPath := paths[len(paths)-1]
	if lastPath != "config.toml" {
		t.Errorf("last config path = %q, want %q", lastPath, "config.toml")
	}

	if home, err := os.UserHomeDir(); err == nil {
		expectedFirst := filepath.Join(home, ".config", "spotify-slsk", "config.toml")
		if paths[0] != expectedFirst {
			t.Errorf("first config path = %q, want %q", paths[0], expectedFirst)
		}
	}
}

func TestApplyDefaults(t *testing.T) {
	cfg := Config{}
	cfg.applyDefaults()

	if got := cfg.Slskd.PreferredFormats; len(got) != 4 || got[0] != ".flac" || got[1] != ".mp3" {
		t.Errorf("PreferredFormats = %v, want flac-first default order", got)
	}
	if cfg.Slskd.MinBitrate != 320 {
		t.Errorf("MinBitrate = %d, want 320", cfg.Slskd.MinBitrate)
	}
	if cfg.Match.MinTitleScore != 80 || cfg.Match.MinArtistScore != 70 {
		t.Errorf("match thresholds = %.0f/%.0f, want 80/70", cfg.Match.MinTitleScore, cfg.Match.MinArtistScore)
	}
	if cfg.Retry.MaxAttempts != 3 {
		t.Errorf("MaxAttempts = %d, want 3", cfg.Retry.MaxAttempts)
	}
	if cfg.Retry.Cooldown() != 48*time.Hour {
		t.Errorf("Cooldown = %v, want 48h", cfg.Retry.Cooldown())
	}
	if cfg.Retry.JitterMin != 1.0 || cfg.Retry.JitterMax != 1.5 {
		t.Errorf("jitter = [%.1f,%.1f], want [1.0,1.5]", cfg.Retry.JitterMin, cfg.Retry.JitterMax)
	}
	if cfg.Sync.CleanupDryRun == nil || !*cfg.Sync.CleanupDryRun {
		t.Error("CleanupDryRun should default to true")
	}
	if cfg.Log.Level != "info" {
		t.Errorf("Log.Level = %q, want info", cfg.Log.Level)
	}
}

func TestApplyDefaultsNormalizesFormats(t *testing.T) {
	cfg := Config{}
	cfg.Slskd.PreferredFormats = []string{"FLAC", " .Mp3 "}
	cfg.applyDefaults()

	want := []string{".flac", ".mp3"}
	for i, ext := range want {
		if cfg.Slskd.PreferredFormats[i] != ext {
			t.Errorf("PreferredFormats[%d] = %q, want %q", i, cfg.Slskd.PreferredFormats[i], ext)
		}
	}
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		cfg := Config{}
		cfg.Spotify = SpotifyConfig{
			ClientID:     "id",
			ClientSecret: "secret",
			Playlists:    []string{"37i9dQZF1DXcBWIGoYBM5M"},
		}
		cfg.Slskd.URL = "http://localhost:5030"
		cfg.Slskd.APIKey = "key"
		cfg.Slskd.DownloadsDir = "/downloads"
		cfg.applyDefaults()
		return cfg
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"valid", func(*Config) {}, false},
		{"missing credentials", func(c *Config) { c.Spotify.ClientSecret = "" }, true},
		{"no playlists", func(c *Config) { c.Spotify.Playlists = nil }, true},
		{"missing slskd url", func(c *Config) { c.Slskd.URL = "" }, true},
		{"missing api key", func(c *Config) { c.Slskd.APIKey = "" }, true},
		{"missing downloads dir", func(c *Config) { c.Slskd.DownloadsDir = "" }, true},
		{"title score out of scale", func(c *Config) { c.Match.MinTitleScore = 150 }, true},
		{"adopt threshold out of scale", func(c *Config) { c.Match.AdoptThreshold = 80 }, true},
		{"inverted jitter", func(c *Config) { c.Retry.JitterMin = 2.0; c.Retry.JitterMax = 1.0 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestLoadBasicConfig(t *testing.T) {
	tmpDir := t.TempDir()
	originalWd, err := os.Getwd()
	if err != nil {
		t.Fatalf("could not get working directory: %v", err)
	}

	if err := os.Chdir(tmpDir); err != nil {
		t.Fatalf("could not change to temp directory: %v", err)
	}
	defer func() {
		_ = os.Chdir(originalWd)
	}()

	configContent := `
[spotify]
client_id = "abc"
client_secret = "def"
playlists = ["https://open.spotify.com/playlist/37i9dQZF1DXcBWIGoYBM5M?si=x"]

[slskd]
url = "http://localhost:5030/"
apikey = "test-key"
downloads_dir = "~/downloads"

[retry]
max_attempts = 2
cooldown_hours = 24
`
	if err := os.WriteFile("config.toml", []byte(configContent), 0o600); err != nil {
		t.Fatalf("could not write config file: %v", err)
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	// Trailing slash removed
	if cfg.Slskd.URL != "http://localhost:5030" {
		t.Errorf("Slskd.URL = %q, want %q", cfg.Slskd.URL, "http://localhost:5030")
	}

	home, _ := os.UserHomeDir()
	if want := filepath.Join(home, "downloads"); cfg.Slskd.DownloadsDir != want {
		t.Errorf("DownloadsDir = %q, want %q", cfg.Slskd.DownloadsDir, want)
	}

	// Explicit retry settings survive default application
	if cfg.Retry.MaxAttempts != 2 {
		t.Errorf("MaxAttempts = %d, want 2", cfg.Retry.MaxAttempts)
	}
	if cfg.Retry.Cooldown() != 24*time.Hour {
		t.Errorf("Cooldown = %v, want 24h", cfg.Retry.Cooldown())
	}

	// Defaults fill the rest
	if cfg.Slskd.MinBitrate != 320 {
		t.Errorf("MinBitrate = %d, want 320", cfg.Slskd.MinBitrate)
	}
}

func TestLoadInvalidToml(t *testing.T) {
	tmpDir := t.TempDir()
	originalWd, err := os.Getwd()
	if err != nil {
		t.Fatalf("could not get working directory: %v", err)
	}

	if err := os.Chdir(tmpDir); err != nil {
		t.Fatalf("could not change to temp directory: %v", err)
	}
	defer func() {
		_ = os.Chdir(originalWd)
	}()

	if err := os.WriteFile("config.toml", []byte("invalid = [[["), 0o600); err != nil {
		t.Fatalf("could not write config file: %v", err)
	}

	_, err = Load()
	if err == nil {
		t.Error("Load() expected error for invalid TOML, got nil")
	}
}
