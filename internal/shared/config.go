package shared

import (
	_ "embed"
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

//go:embed config.example.toml
var exampleConf []byte

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Credentials CredentialsConfig `toml:"credentials"`
	YouTube     YouTubeConfig     `toml:"youtube"`
	Database    DatabaseConfig    `toml:"database"`
	Sync        SyncConfig        `toml:"sync"`
}

// CredentialsConfig locates the OAuth client descriptor and the persisted token descriptor.
type CredentialsConfig struct {
	ClientSecretPath string `toml:"client_secret_path"`
	TokenPath        string `toml:"token_path"`
	RedirectURL      string `toml:"redirect_url"`
}

// YouTubeConfig describes the channel being watched and the playlist being managed.
type YouTubeConfig struct {
	ChannelID     string `toml:"channel_id"`
	PlaylistTitle string `toml:"playlist_title"`
	Privacy       string `toml:"privacy"`
	WindowHours   int    `toml:"window_hours"`
}

// DatabaseConfig contains database connection settings.
type DatabaseConfig struct {
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// SyncConfig tunes request pacing, retry bounds, and run reports.
type SyncConfig struct {
	RateLimit    float64 `toml:"rate_limit"`
	MaxAttempts  int     `toml:"max_attempts"`
	ReportFormat string  `toml:"report_format"`
	ReportDir    string  `toml:"report_dir"`
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := toml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return &config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	// Check if file already exists
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	// Write the embedded example config to the file
	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate checks the fields a scheduled sync run cannot proceed without.
func (c *Config) Validate() error {
	if c.Credentials.ClientSecretPath == "" {
		return fmt.Errorf("%w: credentials.client_secret_path is required", ErrInvalidConfig)
	}
	if c.Credentials.TokenPath == "" {
		return fmt.Errorf("%w: credentials.token_path is required", ErrInvalidConfig)
	}
	if c.YouTube.ChannelID == "" {
		return fmt.Errorf("%w: youtube.channel_id is required", ErrInvalidConfig)
	}
	if c.YouTube.PlaylistTitle == "" {
		return fmt.Errorf("%w: youtube.playlist_title is required", ErrInvalidConfig)
	}
	if c.YouTube.WindowHours <= 0 {
		return fmt.Errorf("%w: youtube.window_hours must be positive", ErrInvalidConfig)
	}
	return nil
}
