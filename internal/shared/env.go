package shared

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// EnvOverrides are environment variables that take precedence over config.toml.
type EnvOverrides struct {
	SpotifyClientID     string `envconfig:"SPOTIFY_CLIENT_ID"`
	SpotifyClientSecret string `envconfig:"SPOTIFY_CLIENT_SECRET"`
	SpotifyRedirectURI  string `envconfig:"SPOTIFY_REDIRECT_URI"`
	DatabasePath        string `envconfig:"SPM_DATABASE_PATH"`
	ServerPort          int    `envconfig:"SPM_SERVER_PORT"`
	LogLevel            string `envconfig:"SPM_LOG_LEVEL"`
}

// LoadEnv loads dotenv files (a missing file is not an error) and decodes [EnvOverrides].
func LoadEnv(files ...string) (*EnvOverrides, error) {
	if err := godotenv.Load(files...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load env file: %w", err)
	}

	var env EnvOverrides
	if err := envconfig.Process("", &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return &env, nil
}

// Apply copies every non-empty override into config.
func (e *EnvOverrides) Apply(config *Config) {
	if e == nil || config == nil {
		return
	}
	if e.SpotifyClientID != "" {
		config.Credentials.Spotify.ClientID = e.SpotifyClientID
	}
	if e.SpotifyClientSecret != "" {
		config.Credentials.Spotify.ClientSecret = e.SpotifyClientSecret
	}
	if e.SpotifyRedirectURI != "" {
		config.Credentials.Spotify.RedirectURI = e.SpotifyRedirectURI
	}
	if e.DatabasePath != "" {
		config.Database.Path = e.DatabasePath
	}
	if e.ServerPort > 0 {
		config.Server.Port = e.ServerPort
	}
	if e.LogLevel != "" {
		config.Log.Level = e.LogLevel
	}
}
