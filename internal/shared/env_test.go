package shared

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadEnv(t *testing.T) {
	t.Run("applies overrides", func(t *testing.T) {
		t.Setenv("SPOTIFY_CLIENT_ID", "env-id")
		t.Setenv("SPOTIFY_CLIENT_SECRET", "env-secret")
		t.Setenv("SPM_SERVER_PORT", "9999")
		t.Setenv("SPM_DATABASE_PATH", "/tmp/env.db")

		env, err := LoadEnv(filepath.Join(t.TempDir(), "missing.env"))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		config := DefaultConfig()
		env.Apply(config)

		if config.Credentials.Spotify.ClientID != "env-id" {
			t.Errorf("expected env client id, got %s", config.Credentials.Spotify.ClientID)
		}
		if config.Credentials.Spotify.ClientSecret != "env-secret" {
			t.Errorf("expected env client secret, got %s", config.Credentials.Spotify.ClientSecret)
		}
		if config.Server.Port != 9999 {
			t.Errorf("expected port 9999, got %d", config.Server.Port)
		}
		if config.Database.Path != "/tmp/env.db" {
			t.Errorf("expected db path override, got %s", config.Database.Path)
		}
		if config.Credentials.Spotify.RedirectURI != "http://localhost:8888/callback" {
			t.Errorf("unset overrides should keep config value, got %s", config.Credentials.Spotify.RedirectURI)
		}
	})

	t.Run("reads dotenv file", func(t *testing.T) {
		t.Setenv("SPM_LOG_LEVEL", "")
		os.Unsetenv("SPM_LOG_LEVEL")

		path := filepath.Join(t.TempDir(), ".env")
		if err := os.WriteFile(path, []byte("SPM_LOG_LEVEL=debug\n"), 0644); err != nil {
			t.Fatalf("failed to write env file: %v", err)
		}

		env, err := LoadEnv(path)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if env.LogLevel != "debug" {
			t.Errorf("expected log level from dotenv, got %q", env.LogLevel)
		}
	})

	t.Run("invalid port", func(t *testing.T) {
		t.Setenv("SPM_SERVER_PORT", "not-a-number")
		if _, err := LoadEnv(filepath.Join(t.TempDir(), "missing.env")); err == nil {
			t.Error("expected error for invalid port")
		}
	})
}
