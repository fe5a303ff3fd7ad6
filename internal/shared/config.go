package shared

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/adrg/xdg"
	"github.com/joho/godotenv"
)

//go:embed config.example.toml
var exampleConf []byte

// AppName is used for the config and cache directory names.
const AppName = "music-playlists"

// Environment variables that override secrets from the config file.
const (
	EnvLastFMAPIKey        = "MPL_LAST_FM_API_KEY"
	EnvSpotifyClientID     = "MPL_SPOTIFY_CLIENT_ID"
	EnvSpotifyClientSecret = "MPL_SPOTIFY_CLIENT_SECRET"
	EnvSpotifyRedirectURI  = "MPL_SPOTIFY_REDIRECT_URI"
	EnvSpotifyRefreshToken = "MPL_SPOTIFY_REFRESH_TOKEN"
	EnvYouTubeProxyURL     = "MPL_YOUTUBE_MUSIC_PROXY_URL"
	EnvYouTubeAuthFile     = "MPL_YOUTUBE_MUSIC_AUTH_FILE"
)

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	General   GeneralConfig    `toml:"general"`
	Database  DatabaseConfig   `toml:"database"`
	Server    ServerConfig     `toml:"server"`
	Secrets   SecretsConfig    `toml:"secrets"`
	Playlists []PlaylistConfig `toml:"playlists"`
}

// GeneralConfig holds settings shared by the sources, services and the update run.
type GeneralConfig struct {
	TimeZone           string  `toml:"time_zone"`
	BasePath           string  `toml:"base_path"`
	CacheExpireDays    float64 `toml:"cache_expire_days"`
	HTTPTimeoutSeconds int     `toml:"http_timeout_seconds"`
	RequestsPerSecond  float64 `toml:"requests_per_second"`
	MatchWindow        int     `toml:"match_window"`
}

// SecretsConfig contains service-specific credentials.
type SecretsConfig struct {
	LastFM       LastFMConfig  `toml:"last-fm"`
	Spotify      SpotifyConfig `toml:"spotify"`
	YouTubeMusic YouTubeConfig `toml:"youtube-music"`
}

// LastFMConfig contains the Last.fm API key.
type LastFMConfig struct {
	APIKey string `toml:"api_key"`
}

// SpotifyConfig contains Spotify API credentials.
type SpotifyConfig struct {
	ClientID     string `toml:"client_id"`
	ClientSecret string `toml:"client_secret"`
	RedirectURI  string `toml:"redirect_uri"`
	RefreshToken string `toml:"refresh_token"`
}

// YouTubeConfig points at the ytmusicapi proxy and the browser auth file it should use.
type YouTubeConfig struct {
	ProxyURL string `toml:"proxy_url"`
	AuthFile string `toml:"auth_file"`
}

// DatabaseConfig contains database connection settings.
type DatabaseConfig struct {
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// ServerConfig contains settings for the local OAuth callback server.
type ServerConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// PlaylistConfig links a source track list to a playlist on a streaming service.
type PlaylistConfig struct {
	Source     string `toml:"source"`
	Code       string `toml:"code"`
	Service    string `toml:"service"`
	Title      string `toml:"title"`
	PlaylistID string `toml:"playlist_id"`
}

// SourceName is the name used on the command line, "<source>-<code>".
func (p PlaylistConfig) SourceName() string {
	return p.Source + "-" + p.Code
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrMissingConfig, path)
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	config.Playlists = nil
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("%w: failed to parse config: %v", ErrInvalidConfig, err)
	}
	return config, nil
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
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(path, exampleConf, 0o600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// SaveConfig writes config to path, replacing any existing file.
func SaveConfig(path string, config *Config) error {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(config); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// DefaultConfigPath returns the config file location under the user's XDG config directory.
func DefaultConfigPath() string {
	path, err := xdg.ConfigFile(filepath.Join(AppName, "config.toml"))
	if err != nil {
		return filepath.Join(xdg.ConfigHome, AppName, "config.toml")
	}
	return path
}

// LoadEnv loads environment variables from the given .env files, or ./.env when none are given.
// Missing files are ignored.
func LoadEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("failed to load %s: %w", f, err)
		}
	}
	return nil
}

// ApplyEnv overrides secrets with any MPL_* environment variables that are set.
func (c *Config) ApplyEnv() {
	overrides := []struct {
		env    string
		target *string
	}{
		{EnvLastFMAPIKey, &c.Secrets.LastFM.APIKey},
		{EnvSpotifyClientID, &c.Secrets.Spotify.ClientID},
		{EnvSpotifyClientSecret, &c.Secrets.Spotify.ClientSecret},
		{EnvSpotifyRedirectURI, &c.Secrets.Spotify.RedirectURI},
		{EnvSpotifyRefreshToken, &c.Secrets.Spotify.RefreshToken},
		{EnvYouTubeProxyURL, &c.Secrets.YouTubeMusic.ProxyURL},
		{EnvYouTubeAuthFile, &c.Secrets.YouTubeMusic.AuthFile},
	}
	for _, o := range overrides {
		if v, ok := os.LookupEnv(o.env); ok && v != "" {
			*o.target = v
		}
	}
}

// Validate checks the settings that cannot be defaulted.
func (c *Config) Validate() error {
	if _, err := c.Location(); err != nil {
		return err
	}
	if c.General.MatchWindow < 1 {
		return fmt.Errorf("%w: match_window must be at least 1", ErrInvalidConfig)
	}
	if c.General.RequestsPerSecond < 0 {
		return fmt.Errorf("%w: requests_per_second cannot be negative", ErrInvalidConfig)
	}
	for i, p := range c.Playlists {
		if p.Source == "" || p.Code == "" || p.Service == "" {
			return fmt.Errorf("%w: playlists[%d] needs source, code and service", ErrInvalidConfig, i)
		}
	}
	return nil
}

// Location loads the configured time zone. An empty time zone is the local zone.
func (c *Config) Location() (*time.Location, error) {
	if c.General.TimeZone == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.General.TimeZone)
	if err != nil {
		return nil, fmt.Errorf("%w: time_zone %q: %v", ErrInvalidConfig, c.General.TimeZone, err)
	}
	return loc, nil
}

// BasePath returns the directory for cache and lock files, defaulting to the XDG cache directory.
func (c *Config) BasePath() string {
	if c.General.BasePath != "" {
		return c.General.BasePath
	}
	return filepath.Join(xdg.CacheHome, AppName)
}

// DatabasePath returns the SQLite path for the HTTP cache.
func (c *Config) DatabasePath() string {
	if c.Database.Path != "" {
		return c.Database.Path
	}
	return filepath.Join(c.BasePath(), "http_cache.sqlite")
}

// HTTPTimeout returns the request timeout, 30 seconds when unset.
func (c *Config) HTTPTimeout() time.Duration {
	if c.General.HTTPTimeoutSeconds <= 0 {
		return 30 * time.Second
	}
	return time.Duration(c.General.HTTPTimeoutSeconds) * time.Second
}

// CacheExpiry returns how long cached responses stay fresh. Zero means they never expire.
func (c *Config) CacheExpiry() time.Duration {
	return time.Duration(c.General.CacheExpireDays * float64(24*time.Hour))
}
