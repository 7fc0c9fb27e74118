// package testing contains shared fakes and assertions for spm tests
package testing

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"slices"
	"sync"
	"testing"

	"github.com/alexanderalber/spotify-playlist-manager/internal/models"
	"github.com/alexanderalber/spotify-playlist-manager/internal/services"
	"github.com/alexanderalber/spotify-playlist-manager/internal/shared"
)

// FakeSpotify is an in-memory test double for [services.Service] and [services.Player].
//
// Mutations change the fake's state so a later fetch observes them, like the real API.
type FakeSpotify struct {
	mu sync.Mutex

	UserID    string
	Songs     []models.Song
	Lists     []models.Playlist
	Tracks    map[string][]services.Track
	DeviceSet []models.Device
	Playing   *models.Playback
	DeviceID  string // device passed to the last Play call

	errs  map[string]error
	calls map[string]int
}

// NewFakeSpotify returns a fake for userID with no library.
func NewFakeSpotify(userID string) *FakeSpotify {
	return &FakeSpotify{
		UserID: userID,
		Tracks: make(map[string][]services.Track),
		errs:   make(map[string]error),
		calls:  make(map[string]int),
	}
}

// Fail makes every later call to method return err. A nil err clears the failure.
func (f *FakeSpotify) Fail(method string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err == nil {
		delete(f.errs, method)
		return
	}
	f.errs[method] = err
}

// Calls returns how many times method was invoked.
func (f *FakeSpotify) Calls(method string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[method]
}

// AddPlaylist registers a playlist and its tracks.
func (f *FakeSpotify) AddPlaylist(p models.Playlist, tracks ...services.Track) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p.TrackCount = len(tracks)
	f.Lists = append(f.Lists, p)
	f.Tracks[p.ID] = tracks
}

// call records the invocation and returns the configured failure. Callers hold f.mu.
func (f *FakeSpotify) call(method string) error {
	f.calls[method]++
	return f.errs[method]
}

func (f *FakeSpotify) Name() string { return "fake" }

func (f *FakeSpotify) Authenticate(ctx context.Context, credentials map[string]string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.call("Authenticate")
}

func (f *FakeSpotify) CurrentUserID(ctx context.Context) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.call("CurrentUserID"); err != nil {
		return "", err
	}
	return f.UserID, nil
}

func (f *FakeSpotify) LikedSongs(ctx context.Context) ([]models.Song, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.call("LikedSongs"); err != nil {
		return nil, err
	}
	return slices.Clone(f.Songs), nil
}

func (f *FakeSpotify) Playlists(ctx context.Context) ([]models.Playlist, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.call("Playlists"); err != nil {
		return nil, err
	}
	return slices.Clone(f.Lists), nil
}

func (f *FakeSpotify) PlaylistTracks(ctx context.Context, playlistID string) ([]services.Track, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.call("PlaylistTracks"); err != nil {
		return nil, err
	}
	tracks, ok := f.Tracks[playlistID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", shared.ErrPlaylistNotFound, playlistID)
	}
	return slices.Clone(tracks), nil
}

func (f *FakeSpotify) AddToPlaylist(ctx context.Context, playlistID, songID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.call("AddToPlaylist"); err != nil {
		return err
	}
	f.Tracks[playlistID] = append(f.Tracks[playlistID], services.Track{ID: songID})
	return nil
}

func (f *FakeSpotify) RemoveFromPlaylist(ctx context.Context, playlistID, songID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.call("RemoveFromPlaylist"); err != nil {
		return err
	}
	f.Tracks[playlistID] = slices.DeleteFunc(f.Tracks[playlistID], func(t services.Track) bool {
		return t.ID == songID
	})
	return nil
}

func (f *FakeSpotify) Like(ctx context.Context, songID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.call("Like"); err != nil {
		return err
	}
	if !slices.ContainsFunc(f.Songs, func(s models.Song) bool { return s.ID == songID }) {
		f.Songs = append([]models.Song{{ID: songID, Artist: models.UnknownArtist}}, f.Songs...)
	}
	return nil
}

func (f *FakeSpotify) Unlike(ctx context.Context, songID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.call("Unlike"); err != nil {
		return err
	}
	f.Songs = slices.DeleteFunc(f.Songs, func(s models.Song) bool { return s.ID == songID })
	return nil
}

func (f *FakeSpotify) Devices(ctx context.Context) ([]models.Device, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.call("Devices"); err != nil {
		return nil, err
	}
	return slices.Clone(f.DeviceSet), nil
}

func (f *FakeSpotify) Play(ctx context.Context, deviceID, songID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.call("Play"); err != nil {
		return err
	}
	f.DeviceID = deviceID
	f.Playing = &models.Playback{IsPlaying: true, SongID: songID, DurationMs: 180000}
	return nil
}

func (f *FakeSpotify) Pause(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.call("Pause"); err != nil {
		return err
	}
	if f.Playing != nil {
		f.Playing.IsPlaying = false
	}
	return nil
}

func (f *FakeSpotify) CurrentPlayback(ctx context.Context) (*models.Playback, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.call("CurrentPlayback"); err != nil {
		return nil, err
	}
	if f.Playing == nil {
		return nil, nil
	}
	playback := *f.Playing
	return &playback, nil
}

func (f *FakeSpotify) Seek(ctx context.Context, positionMs int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.call("Seek"); err != nil {
		return err
	}
	if f.Playing != nil {
		f.Playing.ProgressMs = positionMs
	}
	return nil
}

// NewTestDB opens an in-memory database with every migration applied.
func NewTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := shared.NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	if err := shared.RunMigrations(db); err != nil {
		db.Close()
		t.Fatalf("failed to run migrations: %v", err)
	}

	t.Cleanup(func() { db.Close() })
	return db
}

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// LimitedWriter fails after a certain number of writes
type LimitedWriter struct {
	maxWrites int
	written   int
	target    io.Writer
}

func (l *LimitedWriter) Write(p []byte) (n int, err error) {
	if l.written >= l.maxWrites {
		return 0, errors.New("write limit exceeded")
	}
	l.written++
	return l.target.Write(p)
}

func NewLimitedWriter(maxWrites, written int, target io.Writer) LimitedWriter {
	return LimitedWriter{maxWrites: maxWrites, written: written, target: target}
}

// MockRoundTripper allows custom HTTP responses for testing
type MockRoundTripper struct {
	response *http.Response
	err      error
}

func NewMockRoundTripper(r *http.Response, e error) *MockRoundTripper {
	return &MockRoundTripper{response: r, err: e}
}

func (m *MockRoundTripper) RoundTrip(*http.Request) (*http.Response, error) {
	return m.response, m.err
}

// FCloser simulates a failure when reading response body
type FCloser struct{}

func (f *FCloser) Read(p []byte) (n int, err error) {
	return 0, errors.New("read failed")
}

func (f *FCloser) Close() error {
	return nil
}

func MustGetwd(t *testing.T) string {
	t.Helper()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Failed to get working directory: %v", err)
	}
	return wd
}

func MustChdir(t *testing.T, dir string) {
	t.Helper()
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("Failed to change directory to %s: %v", dir, err)
	}
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func AssertDirExists(t *testing.T, path string) {
	t.Helper()
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		t.Errorf("Directory does not exist: %s", path)
		return
	}
	if !info.IsDir() {
		t.Errorf("Path is not a directory: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}
