package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoadConfigCreatesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}

	if _, err := os.Stat(path); err != nil {
		t.Fatalf("default config file was not written: %v", err)
	}
	if cfg.Library.DefaultFolder != "songs/ncs" {
		t.Errorf("DefaultFolder = %q, want songs/ncs", cfg.Library.DefaultFolder)
	}
	if cfg.Player.MuteRestoreVolume != 0.1 {
		t.Errorf("MuteRestoreVolume = %v, want 0.1", cfg.Player.MuteRestoreVolume)
	}

	// The written file must load back to the same values
	again, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("reloading written defaults: %v", err)
	}
	if again.GetAddress() != cfg.GetAddress() {
		t.Errorf("address changed across reload: %s vs %s", again.GetAddress(), cfg.GetAddress())
	}
}

func TestLoadConfigFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
[library]
path = "/srv/music"
audio_extensions = [".mp3", ".flac"]

[player]
output = "clock"
tick_interval_ms = 500

[logging]
level = "debug"
format = "json"
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}

	if cfg.Library.Path != "/srv/music" {
		t.Errorf("Library.Path = %q", cfg.Library.Path)
	}
	if len(cfg.Library.AudioExtensions) != 2 {
		t.Errorf("AudioExtensions = %v", cfg.Library.AudioExtensions)
	}
	if cfg.TickInterval() != 500*time.Millisecond {
		t.Errorf("TickInterval() = %v", cfg.TickInterval())
	}
	// Unset values keep their defaults
	if cfg.Server.Port != "8080" {
		t.Errorf("Server.Port = %q, want default 8080", cfg.Server.Port)
	}
	if cfg.SongsPath() != filepath.Join("/srv/music", "songs") {
		t.Errorf("SongsPath() = %q", cfg.SongsPath())
	}
}

func TestLoadConfigRejectsGarbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("[library\npath ="), 0644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}
	if _, err := LoadConfig(path); err == nil {
		t.Error("expected a parse error")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"defaults are valid", func(*Config) {}, ""},
		{"empty port", func(c *Config) { c.Server.Port = "" }, "port"},
		{"extension without dot", func(c *Config) { c.Library.AudioExtensions = []string{"mp3"} }, "dot"},
		{"unknown catalog source", func(c *Config) { c.Catalog.Source = "ftp" }, "catalog source"},
		{"http catalog without url", func(c *Config) { c.Catalog.Source = "http"; c.Catalog.BaseURL = "" }, "base_url"},
		{"unknown output", func(c *Config) { c.Player.Output = "radio" }, "player output"},
		{"volume above one", func(c *Config) { c.Player.DefaultVolume = 1.5 }, "default_volume"},
		{"zero mute restore", func(c *Config) { c.Player.MuteRestoreVolume = 0 }, "mute_restore_volume"},
		{"bad log level", func(c *Config) { c.Logging.Level = "loud" }, "log level"},
		{"bad log format", func(c *Config) { c.Logging.Format = "xml" }, "log format"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() = %v, want error containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		"SONGDECK_PORT":             "9090",
		"SONGDECK_CATALOG_SOURCE":   "http",
		"SONGDECK_CATALOG_BASE_URL": "http://music.local",
		"SONGDECK_DEFAULT_VOLUME":   "0.5",
		"SONGDECK_AUDIO_EXTENSIONS": ".mp3,.wav",
	}
	cfg := DefaultConfig()
	if err := cfg.applyEnv(func(k string) string { return env[k] }); err != nil {
		t.Fatalf("applyEnv: %v", err)
	}

	if cfg.Server.Port != "9090" || cfg.Catalog.Source != "http" || cfg.Catalog.BaseURL != "http://music.local" {
		t.Errorf("string overrides not applied: %+v %+v", cfg.Server, cfg.Catalog)
	}
	if cfg.Player.DefaultVolume != 0.5 {
		t.Errorf("DefaultVolume = %v, want 0.5", cfg.Player.DefaultVolume)
	}
	if len(cfg.Library.AudioExtensions) != 2 || cfg.Library.AudioExtensions[1] != ".wav" {
		t.Errorf("AudioExtensions = %v", cfg.Library.AudioExtensions)
	}

	bad := DefaultConfig()
	if err := bad.applyEnv(func(k string) string {
		if k == "SONGDECK_DEFAULT_VOLUME" {
			return "loud"
		}
		return ""
	}); err == nil {
		t.Error("expected error for a non-numeric volume")
	}
}
