package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Config represents the application configuration
type Config struct {
	Server  ServerConfig  `toml:"server"`
	Library LibraryConfig `toml:"library"`
	Catalog CatalogConfig `toml:"catalog"`
	Player  PlayerConfig  `toml:"player"`
	Logging LoggingConfig `toml:"logging"`
}

// ServerConfig contains server-related configuration
type ServerConfig struct {
	Port        string `toml:"port"`
	Host        string `toml:"host"`
	StaticDir   string `toml:"static_dir"`
	EnableCORS  bool   `toml:"enable_cors"`
	ReadTimeout int    `toml:"read_timeout_seconds"`
}

// LibraryConfig describes the folder tree audio is served from
type LibraryConfig struct {
	Path            string   `toml:"path"`
	SongsDir        string   `toml:"songs_dir"`
	DefaultFolder   string   `toml:"default_folder"`
	AudioExtensions []string `toml:"audio_extensions"`
	WatchForChanges bool     `toml:"watch_for_changes"`
}

// CatalogConfig selects where folder listings and album metadata come from
type CatalogConfig struct {
	Source   string `toml:"source"` // "fs" or "http"
	BaseURL  string `toml:"base_url"`
	Timeout  int    `toml:"timeout_seconds"`
	CacheTTL int    `toml:"cache_ttl_seconds"`
}

// PlayerConfig contains playback session configuration
type PlayerConfig struct {
	Output            string  `toml:"output"` // "clock" or "speaker"
	DefaultVolume     float64 `toml:"default_volume"`
	MuteRestoreVolume float64 `toml:"mute_restore_volume"`
	TickInterval      int     `toml:"tick_interval_ms"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level          string `toml:"level"`
	Format         string `toml:"format"`
	File           string `toml:"file"`
	RequestLogging bool   `toml:"request_logging"`
}

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:        "8080",
			Host:        "0.0.0.0",
			StaticDir:   "./static",
			EnableCORS:  true,
			ReadTimeout: 30,
		},
		Library: LibraryConfig{
			Path:            "./library",
			SongsDir:        "songs",
			DefaultFolder:   "songs/ncs",
			AudioExtensions: []string{".mp3"},
			WatchForChanges: true,
		},
		Catalog: CatalogConfig{
			Source:   "fs",
			BaseURL:  "http://localhost:8080",
			Timeout:  10,
			CacheTTL: 300,
		},
		Player: PlayerConfig{
			Output:            "clock",
			DefaultVolume:     1.0,
			MuteRestoreVolume: 0.1,
			TickInterval:      250,
		},
		Logging: LoggingConfig{
			Level:          "info",
			Format:         "text",
			File:           "",
			RequestLogging: true,
		},
	}
}

// LoadConfig loads configuration from a TOML file, then applies SONGDECK_*
// environment overrides (a .env file in the working directory is honoured).
func LoadConfig(configPath string) (*Config, error) {
	// Start with defaults
	cfg := DefaultConfig()

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		// Config file doesn't exist, create it with defaults
		if err := cfg.SaveToFile(configPath); err != nil {
			return nil, fmt.Errorf("failed to create default config file: %w", err)
		}
	} else if _, err := toml.DecodeFile(configPath, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(".env"); err != nil {
			return nil, fmt.Errorf("failed to load .env file: %w", err)
		}
	}
	if err := cfg.applyEnv(os.Getenv); err != nil {
		return nil, fmt.Errorf("invalid environment override: %w", err)
	}

	// Validate the configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// applyEnv overrides selected fields from SONGDECK_* variables
func (c *Config) applyEnv(getenv func(string) string) error {
	strs := map[string]*string{
		"SONGDECK_PORT":             &c.Server.Port,
		"SONGDECK_HOST":             &c.Server.Host,
		"SONGDECK_STATIC_DIR":       &c.Server.StaticDir,
		"SONGDECK_LIBRARY_PATH":     &c.Library.Path,
		"SONGDECK_DEFAULT_FOLDER":   &c.Library.DefaultFolder,
		"SONGDECK_CATALOG_SOURCE":   &c.Catalog.Source,
		"SONGDECK_CATALOG_BASE_URL": &c.Catalog.BaseURL,
		"SONGDECK_PLAYER_OUTPUT":    &c.Player.Output,
		"SONGDECK_LOG_LEVEL":        &c.Logging.Level,
		"SONGDECK_LOG_FORMAT":       &c.Logging.Format,
		"SONGDECK_LOG_FILE":         &c.Logging.File,
	}
	for key, field := range strs {
		if v := getenv(key); v != "" {
			*field = v
		}
	}

	if v := getenv("SONGDECK_DEFAULT_VOLUME"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("SONGDECK_DEFAULT_VOLUME: %w", err)
		}
		c.Player.DefaultVolume = f
	}
	if v := getenv("SONGDECK_AUDIO_EXTENSIONS"); v != "" {
		c.Library.AudioExtensions = strings.Split(v, ",")
	}
	return nil
}

// SaveToFile saves the configuration to a TOML file
func (c *Config) SaveToFile(configPath string) error {
	// Create directory if it doesn't exist
	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	file, err := os.Create(configPath)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer file.Close()

	header := `# songdeck configuration
# [library] points at a directory containing songs/<album>/ folders.
# [catalog] source "fs" reads that directory, "http" reads listings from base_url.
# [player] output "clock" keeps time virtually, "speaker" plays through the sound card.

`
	if _, err := file.WriteString(header); err != nil {
		return fmt.Errorf("failed to write config header: %w", err)
	}

	encoder := toml.NewEncoder(file)
	if err := encoder.Encode(c); err != nil {
		return fmt.Errorf("failed to encode config to TOML: %w", err)
	}

	return nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("server port cannot be empty")
	}
	if c.Server.Host == "" {
		return fmt.Errorf("server host cannot be empty")
	}
	if c.Server.ReadTimeout < 0 {
		return fmt.Errorf("server read timeout must be positive")
	}

	if c.Library.Path == "" {
		return fmt.Errorf("library path cannot be empty")
	}
	if c.Library.SongsDir == "" {
		return fmt.Errorf("library songs_dir cannot be empty")
	}
	if len(c.Library.AudioExtensions) == 0 {
		return fmt.Errorf("at least one audio extension must be specified")
	}
	for _, ext := range c.Library.AudioExtensions {
		if !strings.HasPrefix(ext, ".") {
			return fmt.Errorf("audio extension %q must start with a dot", ext)
		}
	}

	switch c.Catalog.Source {
	case "fs":
	case "http":
		if c.Catalog.BaseURL == "" {
			return fmt.Errorf("catalog base_url is required for the http source")
		}
	default:
		return fmt.Errorf("invalid catalog source: %s (must be fs or http)", c.Catalog.Source)
	}
	if c.Catalog.Timeout < 0 || c.Catalog.CacheTTL < 0 {
		return fmt.Errorf("catalog timeout and cache ttl must not be negative")
	}

	switch c.Player.Output {
	case "clock", "speaker":
	default:
		return fmt.Errorf("invalid player output: %s (must be clock or speaker)", c.Player.Output)
	}
	if c.Player.DefaultVolume < 0 || c.Player.DefaultVolume > 1 {
		return fmt.Errorf("player default_volume must be within [0,1]")
	}
	if c.Player.MuteRestoreVolume <= 0 || c.Player.MuteRestoreVolume > 1 {
		return fmt.Errorf("player mute_restore_volume must be within (0,1]")
	}
	if c.Player.TickInterval <= 0 {
		return fmt.Errorf("player tick_interval_ms must be positive")
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLogLevels[c.Logging.Level] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.Logging.Level)
	}

	validLogFormats := map[string]bool{
		"text": true, "json": true,
	}
	if !validLogFormats[c.Logging.Format] {
		return fmt.Errorf("invalid log format: %s (must be text or json)", c.Logging.Format)
	}

	return nil
}

// GetAddress returns the full server address
func (c *Config) GetAddress() string {
	return c.Server.Host + ":" + c.Server.Port
}

// SongsPath returns the directory album folders live in
func (c *Config) SongsPath() string {
	return filepath.Join(c.Library.Path, c.Library.SongsDir)
}

// TickInterval returns the media clock reporting interval
func (c *Config) TickInterval() time.Duration {
	return time.Duration(c.Player.TickInterval) * time.Millisecond
}

// CatalogTimeout returns the per-request timeout of the http catalog
func (c *Config) CatalogTimeout() time.Duration {
	return time.Duration(c.Catalog.Timeout) * time.Second
}

// CacheTTL returns how long catalog results are cached; zero disables caching
func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.Catalog.CacheTTL) * time.Second
}
