package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alexanderalber/spotify-playlist-manager/internal/models"
	"github.com/alexanderalber/spotify-playlist-manager/internal/repositories"
	"github.com/alexanderalber/spotify-playlist-manager/internal/services"
	"github.com/alexanderalber/spotify-playlist-manager/internal/shared"
	tu "github.com/alexanderalber/spotify-playlist-manager/internal/testing"
	"github.com/urfave/cli/v3"
	"golang.org/x/oauth2"
)

var fixedTime = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

// newTestRunner returns a runner over a fake library and an in-memory cache, writing to the returned buffer.
func newTestRunner(t *testing.T) (*Runner, *tu.FakeSpotify, *bytes.Buffer) {
	t.Helper()

	fake := tu.NewFakeSpotify("me")
	fake.Songs = []models.Song{
		{ID: "s2", Name: "Second", Artist: "B", AddedAt: "2024-02-02T00:00:00Z"},
		{ID: "s1", Name: "First", Artist: "A", AddedAt: "2024-01-01T00:00:00Z"},
	}
	fake.AddPlaylist(models.Playlist{ID: "p1", Name: "Mine", OwnerID: "me"},
		services.Track{ID: "s1", Name: "First", Artist: "A"},
	)
	fake.AddPlaylist(models.Playlist{ID: "p2", Name: "Followed", OwnerID: "someone"},
		services.Track{ID: "s2", Name: "Second", Artist: "B"},
	)
	fake.DeviceSet = []models.Device{{ID: "d1", Name: "Desk", Type: "Computer"}}

	output := &bytes.Buffer{}
	runner := NewRunner(RunnerOpts{
		ConfigPath: filepath.Join(t.TempDir(), "config.toml"),
		Config:     shared.DefaultConfig(),
		Service:    fake,
		Player:     fake,
		Store:      repositories.NewStore(tu.NewTestDB(t)),
		Logger:     shared.NewLogger(io.Discard),
		Output:     output,
	})
	return runner, fake, output
}

// run executes the CLI with args and returns what was written.
func run(t *testing.T, r *Runner, args ...string) (string, error) {
	t.Helper()
	output := r.output.(*bytes.Buffer)
	output.Reset()
	err := r.app().Run(context.Background(), append([]string{"spm"}, args...))
	return output.String(), err
}

func TestRunner(t *testing.T) {
	t.Run("NewRunner", func(t *testing.T) {
		t.Run("with all dependencies provided", func(t *testing.T) {
			config := shared.DefaultConfig()
			logger := shared.NewLogger(nil)
			output := &bytes.Buffer{}
			fake := tu.NewFakeSpotify("me")

			runner := NewRunner(RunnerOpts{
				ConfigPath: "/test/path/config.toml",
				Config:     config,
				Logger:     logger,
				Output:     output,
				Service:    fake,
				Player:     fake,
			})

			if runner.config != config {
				t.Error("expected config to be set")
			}
			if runner.logger != logger {
				t.Error("expected logger to be set")
			}
			if runner.output != output {
				t.Error("expected output to be set")
			}
			if runner.service != fake || runner.player != fake {
				t.Error("expected service and player to be set")
			}
			if runner.configPath != "/test/path/config.toml" {
				t.Errorf("expected configPath to be set, got %s", runner.configPath)
			}
		})

		t.Run("with nil output uses stdout", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: nil})

			if runner.output != os.Stdout {
				t.Error("expected output to default to os.Stdout")
			}
		})

		t.Run("Close without database", func(t *testing.T) {
			if err := NewRunner(RunnerOpts{}).Close(); err != nil {
				t.Errorf("expected no error, got %v", err)
			}
		})
	})

	t.Run("writeJSON", func(t *testing.T) {
		t.Run("writes formatted JSON successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			if err := runner.writeJSON(map[string]string{"key": "value"}, true); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			result := output.String()
			if !strings.Contains(result, `"key": "value"`) {
				t.Errorf("expected formatted JSON, got %s", result)
			}
			if !strings.HasSuffix(result, "\n") {
				t.Error("expected output to end with newline")
			}
		})

		t.Run("writes compact JSON successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			if err := runner.writeJSON(map[string]string{"key": "value"}, false); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			expected := `{"key":"value"}` + "\n"
			if result := output.String(); result != expected {
				t.Errorf("expected %q, got %q", expected, result)
			}
		})

		t.Run("handles marshal error with non-serializable data", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &bytes.Buffer{}})

			err := runner.writeJSON(make(chan int), false)
			if err == nil {
				t.Fatal("expected error for non-serializable data")
			}
			if !strings.Contains(err.Error(), "failed to marshal JSON") {
				t.Errorf("expected marshal error, got %v", err)
			}
		})

		t.Run("handles write failure", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &tu.FWriter{}})

			err := runner.writeJSON(map[string]string{"key": "value"}, false)
			if err == nil {
				t.Fatal("expected error from failing writer")
			}
			if !strings.Contains(err.Error(), "failed to write output") {
				t.Errorf("expected write error, got %v", err)
			}
		})

		t.Run("handles newline write failure", func(t *testing.T) {
			limitedWriter := tu.NewLimitedWriter(1, 0, &bytes.Buffer{})
			runner := NewRunner(RunnerOpts{Output: &limitedWriter})

			err := runner.writeJSON(map[string]string{"key": "value"}, false)
			if err == nil {
				t.Fatal("expected error writing newline")
			}
			if !strings.Contains(err.Error(), "failed to write newline") {
				t.Errorf("expected newline write error, got %v", err)
			}
		})
	})

	t.Run("writePlain", func(t *testing.T) {
		t.Run("writes plain text successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			if err := runner.writePlain("hello %s", "world"); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if result := output.String(); result != "hello world" {
				t.Errorf("expected 'hello world', got %q", result)
			}
		})

		t.Run("handles write failure", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &tu.FWriter{}})

			err := runner.writePlain("test")
			if err == nil {
				t.Fatal("expected error from failing writer")
			}
			if !strings.Contains(err.Error(), "failed to write output") {
				t.Errorf("expected write error, got %v", err)
			}
		})
	})

	t.Run("register", func(t *testing.T) {
		commands := NewRunner(RunnerOpts{}).register()

		names := map[string]bool{}
		for i, cmd := range commands {
			if cmd == nil {
				t.Fatalf("command at index %d is nil", i)
			}
			names[cmd.Name] = true
		}

		for _, name := range []string{"setup", "db", "auth", "serve", "sync", "backup", "analyze", "library", "player", "tui"} {
			if !names[name] {
				t.Errorf("expected command %q to be registered", name)
			}
		}
	})

	t.Run("saveToken", func(t *testing.T) {
		t.Run("saves tokens successfully", func(t *testing.T) {
			runner, _, _ := newTestRunner(t)
			token := &oauth2.Token{AccessToken: "access", RefreshToken: "refresh", TokenType: "Bearer"}

			if err := runner.saveToken(token); err != nil {
				t.Fatalf("saveToken failed: %v", err)
			}

			loaded, err := shared.LoadConfig(runner.configPath)
			if err != nil {
				t.Fatalf("failed to reload config: %v", err)
			}
			if loaded.Credentials.Spotify.AccessToken != "access" || loaded.Credentials.Spotify.RefreshToken != "refresh" {
				t.Errorf("tokens not persisted: %+v", loaded.Credentials.Spotify)
			}
		})

		t.Run("handles Update error", func(t *testing.T) {
			runner, _, _ := newTestRunner(t)

			err := runner.saveToken(&oauth2.Token{})
			if !errors.Is(err, shared.ErrInvalidInput) {
				t.Errorf("expected ErrInvalidInput, got %v", err)
			}
			if _, statErr := os.Stat(runner.configPath); !os.IsNotExist(statErr) {
				t.Error("config should not be written after a failed update")
			}
		})

		t.Run("handles SaveConfig failure", func(t *testing.T) {
			runner, _, _ := newTestRunner(t)
			runner.configPath = filepath.Join(t.TempDir(), "missing", "config.toml")

			err := runner.saveToken(&oauth2.Token{AccessToken: "access"})
			if err == nil || !strings.Contains(err.Error(), "failed to save config") {
				t.Errorf("expected save error, got %v", err)
			}
		})

		t.Run("keeps environment overrides out of the file", func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.toml")
			if err := shared.CreateConfigFile(path); err != nil {
				t.Fatalf("failed to create config: %v", err)
			}
			t.Setenv("SPOTIFY_CLIENT_SECRET", "env-only-secret")
			t.Setenv("SPM_DATABASE_PATH", "env-only.db")

			runner := NewRunner(RunnerOpts{ConfigPath: path, Logger: shared.NewLogger(io.Discard), Output: &bytes.Buffer{}})
			if err := runner.load(&cli.Command{}); err != nil {
				t.Fatalf("load failed: %v", err)
			}
			if runner.config.Credentials.Spotify.ClientSecret != "env-only-secret" {
				t.Fatalf("environment override not applied: %q", runner.config.Credentials.Spotify.ClientSecret)
			}

			if err := runner.saveToken(&oauth2.Token{AccessToken: "access", RefreshToken: "refresh"}); err != nil {
				t.Fatalf("saveToken failed: %v", err)
			}

			content := tu.MustReadFile(t, path)
			for _, leaked := range []string{"env-only-secret", "env-only.db"} {
				if strings.Contains(content, leaked) {
					t.Errorf("config file should not contain %q", leaked)
				}
			}

			loaded, err := shared.LoadConfig(path)
			if err != nil {
				t.Fatalf("failed to reload config: %v", err)
			}
			if loaded.Credentials.Spotify.AccessToken != "access" {
				t.Errorf("token not persisted: %+v", loaded.Credentials.Spotify)
			}
			if loaded.Credentials.Spotify.ClientSecret != "your_spotify_client_secret" {
				t.Errorf("file secret changed to %q", loaded.Credentials.Spotify.ClientSecret)
			}
			if runner.config.Credentials.Spotify.AccessToken != "access" {
				t.Error("in-memory config should carry the new token")
			}
		})

		t.Run("concurrent saves leave a readable file", func(t *testing.T) {
			runner, _, _ := newTestRunner(t)

			var wg sync.WaitGroup
			errs := make(chan error, 8)
			for i := range 8 {
				wg.Add(1)
				go func() {
					defer wg.Done()
					errs <- runner.saveToken(&oauth2.Token{AccessToken: fmt.Sprintf("access-%d", i)})
				}()
			}
			wg.Wait()
			close(errs)

			for err := range errs {
				if err != nil {
					t.Errorf("saveToken failed: %v", err)
				}
			}

			loaded, err := shared.LoadConfig(runner.configPath)
			if err != nil {
				t.Fatalf("failed to reload config: %v", err)
			}
			if loaded.Credentials.Spotify.AccessToken != runner.config.Credentials.Spotify.AccessToken {
				t.Errorf("file token %q differs from memory %q",
					loaded.Credentials.Spotify.AccessToken, runner.config.Credentials.Spotify.AccessToken)
			}
		})
	})

	t.Run("connect", func(t *testing.T) {
		t.Run("requires a saved token", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Config: shared.DefaultConfig(), Output: &bytes.Buffer{}})

			if err := runner.connect(context.Background()); !errors.Is(err, shared.ErrNotAuthenticated) {
				t.Errorf("expected ErrNotAuthenticated, got %v", err)
			}
		})

		t.Run("requires client credentials", func(t *testing.T) {
			config := shared.DefaultConfig()
			config.Credentials.Spotify.ClientID = ""
			config.Credentials.Spotify.AccessToken = "access"
			runner := NewRunner(RunnerOpts{Config: config, Output: &bytes.Buffer{}})

			if err := runner.connect(context.Background()); !errors.Is(err, shared.ErrMissingCredentials) {
				t.Errorf("expected ErrMissingCredentials, got %v", err)
			}
		})

		t.Run("accepts a saved refresh token without an access token", func(t *testing.T) {
			config := shared.DefaultConfig()
			config.Credentials.Spotify.RefreshToken = "refresh"
			runner := NewRunner(RunnerOpts{Config: config, Logger: shared.NewLogger(io.Discard), Output: &bytes.Buffer{}})

			if err := runner.connect(context.Background()); err != nil {
				t.Fatalf("connect failed: %v", err)
			}
			if runner.service == nil || runner.player == nil {
				t.Error("service and player should be set")
			}
		})

		t.Run("keeps a provided service", func(t *testing.T) {
			runner, fake, _ := newTestRunner(t)

			if err := runner.connect(context.Background()); err != nil {
				t.Fatalf("connect failed: %v", err)
			}
			if runner.service != fake {
				t.Error("provided service should be kept")
			}
		})
	})

	t.Run("withReauth", func(t *testing.T) {
		runner, _, _ := newTestRunner(t)

		calls := 0
		err := runner.withReauth(context.Background(), func() error {
			calls++
			return shared.ErrTokenExpired
		})
		if !errors.Is(err, shared.ErrTokenExpired) {
			t.Errorf("expected ErrTokenExpired, got %v", err)
		}
		if calls != 1 {
			t.Errorf("a service without OAuth should not be retried, got %d calls", calls)
		}
	})
}

func TestSyncCommands(t *testing.T) {
	t.Run("refresh", func(t *testing.T) {
		runner, _, _ := newTestRunner(t)

		out, err := run(t, runner, "sync", "refresh")
		if err != nil {
			t.Fatalf("sync refresh failed: %v", err)
		}
		for _, want := range []string{"Refresh", "→ Fetched 2 liked songs", "✓ refresh completed", "Liked songs: 2"} {
			if !strings.Contains(out, want) {
				t.Errorf("output missing %q:\n%s", want, out)
			}
		}
		if n, _ := runner.store.Songs.Count(); n != 2 {
			t.Errorf("expected 2 cached songs, got %d", n)
		}
	})

	t.Run("refresh JSON", func(t *testing.T) {
		runner, _, _ := newTestRunner(t)

		out, err := run(t, runner, "sync", "refresh", "--json")
		if err != nil {
			t.Fatalf("sync refresh failed: %v", err)
		}

		start := strings.Index(out, "{")
		if start < 0 {
			t.Fatalf("no JSON in output:\n%s", out)
		}
		var syncRun models.SyncRun
		if err := json.Unmarshal([]byte(out[start:]), &syncRun); err != nil {
			t.Fatalf("invalid JSON: %v\n%s", err, out)
		}
		if syncRun.Kind != models.SyncRefresh || syncRun.LikedCount != 2 {
			t.Errorf("unexpected run %+v", syncRun)
		}
	})

	t.Run("remote failure", func(t *testing.T) {
		runner, fake, _ := newTestRunner(t)
		fake.Fail("LikedSongs", shared.ErrAPIRequest)

		_, err := run(t, runner, "sync", "liked")
		if !errors.Is(err, shared.ErrAPIRequest) {
			t.Errorf("expected ErrAPIRequest, got %v", err)
		}
	})

	t.Run("runs", func(t *testing.T) {
		runner, _, _ := newTestRunner(t)

		out, err := run(t, runner, "sync", "runs")
		if err != nil {
			t.Fatalf("sync runs failed: %v", err)
		}
		if !strings.Contains(out, "No sync runs") {
			t.Errorf("expected empty message, got %q", out)
		}

		if _, err := run(t, runner, "sync", "playlists"); err != nil {
			t.Fatalf("sync playlists failed: %v", err)
		}
		if _, err := run(t, runner, "sync", "cleanup"); err != nil {
			t.Fatalf("sync cleanup failed: %v", err)
		}

		out, err = run(t, runner, "sync", "runs")
		if err != nil {
			t.Fatalf("sync runs failed: %v", err)
		}
		if !strings.Contains(out, "Found 2 sync runs") || !strings.Contains(out, "cleanup") {
			t.Errorf("unexpected output:\n%s", out)
		}
	})
}

func TestLibraryCommands(t *testing.T) {
	runner, _, _ := newTestRunner(t)
	if _, err := run(t, runner, "sync", "refresh"); err != nil {
		t.Fatalf("sync refresh failed: %v", err)
	}

	t.Run("songs", func(t *testing.T) {
		out, err := run(t, runner, "library", "songs")
		if err != nil {
			t.Fatalf("library songs failed: %v", err)
		}
		if !strings.Contains(out, "1. B - Second") || !strings.Contains(out, "2. A - First") {
			t.Errorf("songs should be listed newest first:\n%s", out)
		}
	})

	t.Run("playlists JSON", func(t *testing.T) {
		out, err := run(t, runner, "library", "playlists", "--json")
		if err != nil {
			t.Fatalf("library playlists failed: %v", err)
		}

		var playlists []models.Playlist
		if err := json.Unmarshal([]byte(out), &playlists); err != nil {
			t.Fatalf("invalid JSON: %v\n%s", err, out)
		}
		if len(playlists) != 2 {
			t.Errorf("expected 2 playlists, got %d", len(playlists))
		}
	})

	t.Run("played", func(t *testing.T) {
		if _, err := runner.store.Played.Record("s1", fixedTime); err != nil {
			t.Fatalf("Record failed: %v", err)
		}

		out, err := run(t, runner, "library", "played")
		if err != nil {
			t.Fatalf("library played failed: %v", err)
		}
		if !strings.Contains(out, "A - First") {
			t.Errorf("played entry should show the song:\n%s", out)
		}
	})
}

func TestPlayerCommands(t *testing.T) {
	t.Run("play, seek, status and stop", func(t *testing.T) {
		runner, fake, _ := newTestRunner(t)

		out, err := run(t, runner, "player", "play", "s1")
		if err != nil {
			t.Fatalf("player play failed: %v", err)
		}
		if !strings.Contains(out, "on Desk") || fake.DeviceID != "d1" {
			t.Errorf("unexpected output %q", out)
		}

		out, err = run(t, runner, "player", "seek", "5000")
		if err != nil {
			t.Fatalf("player seek failed: %v", err)
		}
		if !strings.Contains(out, "0:05") {
			t.Errorf("unexpected output %q", out)
		}

		out, err = run(t, runner, "player", "status")
		if err != nil {
			t.Fatalf("player status failed: %v", err)
		}
		if !strings.Contains(out, "Playing: s1") || !strings.Contains(out, "0:05 / 3:00") {
			t.Errorf("unexpected output %q", out)
		}

		if _, err := run(t, runner, "player", "stop"); err != nil {
			t.Fatalf("player stop failed: %v", err)
		}
		if fake.Calls("Pause") != 1 {
			t.Error("stop should pause playback")
		}
	})

	t.Run("argument errors", func(t *testing.T) {
		runner, _, _ := newTestRunner(t)

		if _, err := run(t, runner, "player", "play"); !errors.Is(err, shared.ErrMissingArgument) {
			t.Errorf("expected ErrMissingArgument, got %v", err)
		}
		if _, err := run(t, runner, "player", "seek", "soon"); !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
	})

	t.Run("no devices", func(t *testing.T) {
		runner, fake, _ := newTestRunner(t)
		fake.DeviceSet = nil

		if _, err := run(t, runner, "player", "play", "s1"); !errors.Is(err, shared.ErrNoDevices) {
			t.Errorf("expected ErrNoDevices, got %v", err)
		}
	})

	t.Run("idle status", func(t *testing.T) {
		runner, _, _ := newTestRunner(t)

		out, err := run(t, runner, "player", "status")
		if err != nil {
			t.Fatalf("player status failed: %v", err)
		}
		if !strings.Contains(out, "Nothing is playing") {
			t.Errorf("unexpected output %q", out)
		}
	})
}

func TestExportCommands(t *testing.T) {
	t.Run("backup", func(t *testing.T) {
		runner, _, _ := newTestRunner(t)
		dir := filepath.Join(t.TempDir(), "out")

		out, err := run(t, runner, "backup", "--dir", dir, "--workers", "2", "--rate", "100")
		if err != nil {
			t.Fatalf("backup failed: %v", err)
		}
		if !strings.Contains(out, "Backed up 2 playlists (2 tracks)") {
			t.Errorf("unexpected output:\n%s", out)
		}
		if !strings.Contains(out, "Mine: 1 tracks") {
			t.Errorf("summary missing:\n%s", out)
		}
		tu.AssertDirExists(t, dir)
	})

	t.Run("analyze CSV", func(t *testing.T) {
		runner, _, _ := newTestRunner(t)
		if _, err := run(t, runner, "sync", "refresh"); err != nil {
			t.Fatalf("sync refresh failed: %v", err)
		}
		path := filepath.Join(t.TempDir(), "analysis.csv")

		out, err := run(t, runner, "analyze", "--output", path)
		if err != nil {
			t.Fatalf("analyze failed: %v", err)
		}
		if !strings.Contains(out, "Analysis written to "+path) {
			t.Errorf("unexpected output:\n%s", out)
		}

		content := tu.MustReadFile(t, path)
		if !strings.HasPrefix(content, "id,name,artist,added_at,Mine") {
			t.Errorf("unexpected CSV header:\n%s", content)
		}
	})

	t.Run("analyze XLSX", func(t *testing.T) {
		runner, _, _ := newTestRunner(t)
		path := filepath.Join(t.TempDir(), "analysis.xlsx")

		if _, err := run(t, runner, "analyze", "--format", "xlsx", "--output", path, "--preview", "0"); err != nil {
			t.Fatalf("analyze failed: %v", err)
		}
		tu.AssertFileExists(t, path)
	})

	t.Run("analyze unknown format", func(t *testing.T) {
		runner, _, _ := newTestRunner(t)

		_, err := run(t, runner, "analyze", "--format", "pdf", "--output", filepath.Join(t.TempDir(), "a.pdf"))
		if !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
	})
}

func TestDatabaseCommands(t *testing.T) {
	t.Run("setup creates config and database", func(t *testing.T) {
		dir := t.TempDir()
		t.Setenv("SPM_DATABASE_PATH", filepath.Join(dir, "cache.db"))

		output := &bytes.Buffer{}
		runner := NewRunner(RunnerOpts{
			ConfigPath: filepath.Join(dir, "config.toml"),
			Logger:     shared.NewLogger(io.Discard),
			Output:     output,
		})
		defer runner.Close()

		out, err := run(t, runner, "setup")
		if err != nil {
			t.Fatalf("setup failed: %v", err)
		}
		if !strings.Contains(out, "Config file created") || !strings.Contains(out, "Database ready") {
			t.Errorf("unexpected output:\n%s", out)
		}
		tu.AssertFileExists(t, filepath.Join(dir, "config.toml"))
		tu.AssertFileExists(t, filepath.Join(dir, "cache.db"))
	})

	t.Run("status and rollback", func(t *testing.T) {
		runner, _, _ := newTestRunner(t)

		out, err := run(t, runner, "db", "status")
		if err != nil {
			t.Fatalf("db status failed: %v", err)
		}
		if !strings.Contains(out, "✓ 0001") {
			t.Errorf("migrations should be applied:\n%s", out)
		}

		if _, err := run(t, runner, "db", "rollback"); err != nil {
			t.Fatalf("db rollback failed: %v", err)
		}

		out, err = run(t, runner, "db", "status")
		if err != nil {
			t.Fatalf("db status failed: %v", err)
		}
		if !strings.Contains(out, "(pending)") {
			t.Errorf("latest migration should be pending:\n%s", out)
		}
	})
}

func TestHelpers(t *testing.T) {
	t.Run("callbackPath", func(t *testing.T) {
		tc := []struct {
			uri  string
			want string
		}{
			{"http://localhost:8888/callback", "/callback"},
			{"http://127.0.0.1:9000/auth/done", "/auth/done"},
			{"http://localhost:8888", "/callback"},
			{"http://localhost:8888/", "/callback"},
			{"", "/callback"},
		}
		for _, tt := range tc {
			if got := callbackPath(tt.uri); got != tt.want {
				t.Errorf("callbackPath(%q) = %q, want %q", tt.uri, got, tt.want)
			}
		}
	})

	t.Run("analysisPath", func(t *testing.T) {
		tc := []struct {
			configured string
			format     string
			want       string
		}{
			{"spotify_analysis.csv", "csv", "spotify_analysis.csv"},
			{"spotify_analysis.csv", "xlsx", "spotify_analysis.xlsx"},
			{"report.XLSX", "xlsx", "report.XLSX"},
			{"", "csv", "spotify_analysis.csv"},
		}
		for _, tt := range tc {
			if got := analysisPath(tt.configured, tt.format); got != tt.want {
				t.Errorf("analysisPath(%q, %q) = %q, want %q", tt.configured, tt.format, got, tt.want)
			}
		}
	})

	t.Run("formatMs", func(t *testing.T) {
		tc := map[int]string{0: "0:00", 5000: "0:05", 65000: "1:05", 180000: "3:00"}
		for ms, want := range tc {
			if got := formatMs(ms); got != want {
				t.Errorf("formatMs(%d) = %q, want %q", ms, got, want)
			}
		}
	})
}
