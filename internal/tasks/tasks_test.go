package tasks

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/alexanderalber/spotify-playlist-manager/internal/models"
	"github.com/alexanderalber/spotify-playlist-manager/internal/repositories"
	"github.com/alexanderalber/spotify-playlist-manager/internal/services"
	"github.com/alexanderalber/spotify-playlist-manager/internal/shared"
	th "github.com/alexanderalber/spotify-playlist-manager/internal/testing"
)

const user = "user-1"

var fixedNow = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

// newFixture returns an engine over a fake library with two liked songs, one owned and one followed playlist.
func newFixture(t *testing.T) (*LibraryEngine, *th.FakeSpotify) {
	t.Helper()

	fake := th.NewFakeSpotify(user)
	fake.Songs = []models.Song{
		{ID: "s2", Name: "Second", Artist: "B", AddedAt: "2024-02-02T00:00:00Z"},
		{ID: "s1", Name: "First", Artist: "A", AddedAt: "2024-01-01T00:00:00Z"},
	}
	fake.AddPlaylist(models.Playlist{ID: "p1", Name: "Mine", OwnerID: user},
		services.Track{ID: "s1", Name: "First", Artist: "A"},
		services.Track{ID: "x9", Name: "Not Liked", Artist: "C"},
	)
	fake.AddPlaylist(models.Playlist{ID: "p2", Name: "Followed", OwnerID: "someone"},
		services.Track{ID: "s2", Name: "Second", Artist: "B"},
	)

	store := repositories.NewStore(th.NewTestDB(t))
	engine := NewLibraryEngine(fake, fake, store, shared.NewLogger(io.Discard))
	engine.now = func() time.Time { return fixedNow }
	return engine, fake
}

func drain(progress chan ProgressUpdate) []ProgressUpdate {
	close(progress)
	var updates []ProgressUpdate
	for u := range progress {
		updates = append(updates, u)
	}
	return updates
}

func TestRefresh(t *testing.T) {
	ctx := context.Background()

	t.Run("Populates Cache", func(t *testing.T) {
		engine, _ := newFixture(t)
		progress := make(chan ProgressUpdate, 32)

		run, err := engine.Refresh(ctx, progress)
		if err != nil {
			t.Fatalf("Refresh failed: %v", err)
		}

		if run.Status != models.SyncCompleted || run.Kind != models.SyncRefresh {
			t.Errorf("unexpected run %+v", run)
		}
		if run.LikedCount != 2 || run.PlaylistCount != 2 || run.MembershipCount != 2 {
			t.Errorf("unexpected counters %+v", run)
		}

		store := engine.Store()
		if n, _ := store.Songs.Count(); n != 2 {
			t.Errorf("expected 2 cached songs, got %d", n)
		}
		if n, _ := store.Playlists.Count(); n != 2 {
			t.Errorf("expected 2 cached playlists, got %d", n)
		}
		if ok, _ := store.Memberships.Exists("p1", "x9"); !ok {
			t.Error("owned playlist should keep tracks that are not liked")
		}
		if ok, _ := store.Memberships.Exists("p2", "s2"); ok {
			t.Error("followed playlist memberships should not be cached")
		}

		saved, err := store.Runs.Latest(models.SyncRefresh)
		if err != nil {
			t.Fatalf("Latest failed: %v", err)
		}
		if saved.ID != run.ID || saved.Status != models.SyncCompleted {
			t.Errorf("run was not persisted: %+v", saved)
		}

		phases := map[Phase]bool{}
		for _, u := range drain(progress) {
			phases[u.Phase] = true
		}
		for _, p := range []Phase{FetchUser, FetchLiked, FetchPlaylists, FetchTracks, Reconcile, Persist} {
			if !phases[p] {
				t.Errorf("missing progress phase %s", p)
			}
		}
	})

	t.Run("Removes Remote Deletions", func(t *testing.T) {
		engine, fake := newFixture(t)
		if _, err := engine.Refresh(ctx, nil); err != nil {
			t.Fatalf("first Refresh failed: %v", err)
		}

		fake.Songs = fake.Songs[:1]
		fake.Lists = fake.Lists[:1]
		fake.Tracks["p1"] = fake.Tracks["p1"][:1]

		run, err := engine.Refresh(ctx, nil)
		if err != nil {
			t.Fatalf("second Refresh failed: %v", err)
		}
		if run.RemovedCount != 3 {
			t.Errorf("expected 3 removals (song, playlist, membership), got %d", run.RemovedCount)
		}

		store := engine.Store()
		if _, err := store.Songs.Get("s1"); !errors.Is(err, shared.ErrNotFound) {
			t.Errorf("s1 should be removed, got %v", err)
		}
		if _, err := store.Playlists.Get("p2"); !errors.Is(err, shared.ErrNotFound) {
			t.Errorf("p2 should be removed, got %v", err)
		}
		if ok, _ := store.Memberships.Exists("p1", "x9"); ok {
			t.Error("x9 should be removed from p1")
		}
		if ok, _ := store.Memberships.Exists("p1", "s1"); !ok {
			t.Error("s1 should stay in p1")
		}
	})

	t.Run("Remote Failure Leaves Cache Untouched", func(t *testing.T) {
		engine, fake := newFixture(t)
		if _, err := engine.Refresh(ctx, nil); err != nil {
			t.Fatalf("first Refresh failed: %v", err)
		}

		fake.Songs = nil
		fake.Fail("PlaylistTracks", shared.ErrAPIRequest)

		if _, err := engine.Refresh(ctx, nil); !errors.Is(err, shared.ErrAPIRequest) {
			t.Fatalf("expected ErrAPIRequest, got %v", err)
		}
		if n, _ := engine.Store().Songs.Count(); n != 2 {
			t.Errorf("cache should be untouched, got %d songs", n)
		}
	})

	t.Run("Ownership Change Drops Memberships", func(t *testing.T) {
		for _, op := range []struct {
			name string
			fn   func(*LibraryEngine) (*models.SyncRun, error)
		}{
			{"Refresh", func(e *LibraryEngine) (*models.SyncRun, error) { return e.Refresh(ctx, nil) }},
			{"Cleanup", func(e *LibraryEngine) (*models.SyncRun, error) { return e.Cleanup(ctx, nil) }},
		} {
			for _, owner := range []string{"someone", ""} {
				t.Run(op.name+" owner="+owner, func(t *testing.T) {
					engine, fake := newFixture(t)
					if _, err := engine.Refresh(ctx, nil); err != nil {
						t.Fatalf("first Refresh failed: %v", err)
					}
					if n, _ := engine.Store().Memberships.Count(); n != 2 {
						t.Fatalf("expected 2 memberships before the change, got %d", n)
					}

					fake.Lists[0].OwnerID = owner

					run, err := op.fn(engine)
					if err != nil {
						t.Fatalf("%s failed: %v", op.name, err)
					}
					if run.RemovedCount != 2 {
						t.Errorf("expected 2 removals, got %d", run.RemovedCount)
					}

					store := engine.Store()
					if n, _ := store.Memberships.Count(); n != 0 {
						t.Errorf("memberships of a playlist no longer owned should be pruned, %d left", n)
					}
					if _, err := store.Playlists.Get("p1"); err != nil {
						t.Errorf("p1 still exists remotely and should stay cached: %v", err)
					}
				})
			}
		}
	})

	t.Run("Cleanup Only Deletes", func(t *testing.T) {
		engine, fake := newFixture(t)
		if _, err := engine.FetchLikedSongs(ctx, nil); err != nil {
			t.Fatalf("FetchLikedSongs failed: %v", err)
		}

		fake.Songs = append(fake.Songs[:1], models.Song{ID: "s3", Name: "New"})

		run, err := engine.Cleanup(ctx, nil)
		if err != nil {
			t.Fatalf("Cleanup failed: %v", err)
		}
		if run.Kind != models.SyncCleanup || run.RemovedCount != 1 {
			t.Errorf("unexpected run %+v", run)
		}
		if _, err := engine.Store().Songs.Get("s3"); !errors.Is(err, shared.ErrNotFound) {
			t.Error("cleanup must not add new songs")
		}
	})

	t.Run("FetchPlaylists", func(t *testing.T) {
		engine, _ := newFixture(t)

		run, err := engine.FetchPlaylists(ctx, nil)
		if err != nil {
			t.Fatalf("FetchPlaylists failed: %v", err)
		}
		if run.Kind != models.SyncLists || run.PlaylistCount != 2 || run.MembershipCount != 2 {
			t.Errorf("unexpected run %+v", run)
		}
		if n, _ := engine.Store().Songs.Count(); n != 0 {
			t.Errorf("FetchPlaylists should not touch liked songs, got %d", n)
		}
	})

	t.Run("Without Service", func(t *testing.T) {
		engine := NewLibraryEngine(nil, nil, nil, nil)
		if _, err := engine.Refresh(ctx, nil); !errors.Is(err, shared.ErrServiceUnavailable) {
			t.Errorf("expected ErrServiceUnavailable, got %v", err)
		}
	})
}

func TestToggleMembership(t *testing.T) {
	ctx := context.Background()

	t.Run("Adds Then Removes", func(t *testing.T) {
		engine, fake := newFixture(t)
		if _, err := engine.Refresh(ctx, nil); err != nil {
			t.Fatalf("Refresh failed: %v", err)
		}

		in, err := engine.ToggleMembership(ctx, "s2", "p1")
		if err != nil {
			t.Fatalf("ToggleMembership failed: %v", err)
		}
		if !in {
			t.Error("expected song to be added")
		}
		if fake.Calls("AddToPlaylist") != 1 {
			t.Error("expected one remote add")
		}
		if ok, _ := engine.Store().Memberships.Exists("p1", "s2"); !ok {
			t.Error("cache should contain the new membership")
		}

		in, err = engine.ToggleMembership(ctx, "s2", "p1")
		if err != nil {
			t.Fatalf("ToggleMembership failed: %v", err)
		}
		if in {
			t.Error("expected song to be removed")
		}
		if ok, _ := engine.Store().Memberships.Exists("p1", "s2"); ok {
			t.Error("cache should no longer contain the membership")
		}
	})

	t.Run("Remote Failure Keeps Cache", func(t *testing.T) {
		engine, fake := newFixture(t)
		fake.Fail("AddToPlaylist", shared.ErrAPIRequest)

		if _, err := engine.ToggleMembership(ctx, "s2", "p1"); !errors.Is(err, shared.ErrAPIRequest) {
			t.Fatalf("expected ErrAPIRequest, got %v", err)
		}
		if ok, _ := engine.Store().Memberships.Exists("p1", "s2"); ok {
			t.Error("cache must not change when the remote call fails")
		}
	})

	t.Run("Rejects Invalid Arguments", func(t *testing.T) {
		engine, _ := newFixture(t)

		tc := []struct {
			name       string
			song, list string
			want       error
		}{
			{"missing song", "", "p1", shared.ErrMissingArgument},
			{"missing playlist", "s1", "", shared.ErrMissingArgument},
			{"liked songs", "s1", models.LikedSongsPlaylistID, shared.ErrInvalidArgument},
		}

		for _, tt := range tc {
			t.Run(tt.name, func(t *testing.T) {
				if _, err := engine.ToggleMembership(ctx, tt.song, tt.list); !errors.Is(err, tt.want) {
					t.Errorf("expected %v, got %v", tt.want, err)
				}
			})
		}
	})
}

func TestLikeAndPlayed(t *testing.T) {
	ctx := context.Background()
	engine, fake := newFixture(t)

	t.Run("Like And Unlike", func(t *testing.T) {
		if err := engine.Like(ctx, "s9"); err != nil {
			t.Fatalf("Like failed: %v", err)
		}
		if fake.Songs[0].ID != "s9" {
			t.Errorf("expected s9 to be liked first, got %+v", fake.Songs)
		}
		if err := engine.Unlike(ctx, "s9"); err != nil {
			t.Fatalf("Unlike failed: %v", err)
		}
		if len(fake.Songs) != 2 {
			t.Errorf("expected 2 liked songs, got %d", len(fake.Songs))
		}
		if err := engine.Like(ctx, ""); !errors.Is(err, shared.ErrMissingArgument) {
			t.Errorf("expected ErrMissingArgument, got %v", err)
		}
	})

	t.Run("MarkPlayed", func(t *testing.T) {
		entry, err := engine.MarkPlayed("s1")
		if err != nil {
			t.Fatalf("MarkPlayed failed: %v", err)
		}
		if entry.SongID != "s1" || !entry.PlayedAt.Equal(fixedNow) {
			t.Errorf("unexpected entry %+v", entry)
		}
		if _, err := engine.MarkPlayed(""); !errors.Is(err, shared.ErrMissingArgument) {
			t.Errorf("expected ErrMissingArgument, got %v", err)
		}
	})
}

func TestIndexData(t *testing.T) {
	ctx := context.Background()
	engine, _ := newFixture(t)

	if _, err := engine.Refresh(ctx, nil); err != nil {
		t.Fatalf("Refresh failed: %v", err)
	}
	if _, err := engine.MarkPlayed("s1"); err != nil {
		t.Fatalf("MarkPlayed failed: %v", err)
	}

	index, err := engine.IndexData(ctx)
	if err != nil {
		t.Fatalf("IndexData failed: %v", err)
	}

	if len(index.Playlists) != 2 {
		t.Fatalf("expected pseudo-playlist and one owned playlist, got %+v", index.Playlists)
	}
	if index.Playlists[0].ID != models.LikedSongsPlaylistID || index.Playlists[1].ID != "p1" {
		t.Errorf("unexpected playlist order %+v", index.Playlists)
	}
	if len(index.Songs) != 2 || index.Songs[0].ID != "s2" {
		t.Errorf("songs should be newest first, got %+v", index.Songs)
	}
	if !index.InPlaylist("s1", "p1") || index.InPlaylist("s2", "p1") {
		t.Error("unexpected memberships")
	}
	if !index.InPlaylist("s2", models.LikedSongsPlaylistID) {
		t.Error("every song belongs to liked songs")
	}
	if !index.IsPlayed("s1") || index.IsPlayed("s2") {
		t.Error("unexpected played markers")
	}
}

func TestAnalyze(t *testing.T) {
	ctx := context.Background()
	engine, fake := newFixture(t)
	fake.AddPlaylist(models.Playlist{ID: "p3", Name: "another", OwnerID: user}, services.Track{ID: "s2"})

	if _, err := engine.Refresh(ctx, nil); err != nil {
		t.Fatalf("Refresh failed: %v", err)
	}

	progress := make(chan ProgressUpdate, 4)
	analysis, err := engine.Analyze(ctx, progress)
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}

	header := analysis.Header()
	want := []string{"id", "name", "artist", "added_at", "another", "Mine"}
	if len(header) != len(want) {
		t.Fatalf("unexpected header %v", header)
	}
	for i := range want {
		if header[i] != want[i] {
			t.Errorf("header[%d] = %q, want %q", i, header[i], want[i])
		}
	}

	if len(analysis.Rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(analysis.Rows))
	}
	s2, s1 := analysis.Rows[0], analysis.Rows[1]
	if s2.Song.ID != "s2" || !s2.InLists[0] || s2.InLists[1] {
		t.Errorf("unexpected row %+v", s2)
	}
	if s1.Song.ID != "s1" || s1.InLists[0] || !s1.InLists[1] {
		t.Errorf("unexpected row %+v", s1)
	}

	updates := drain(progress)
	if len(updates) != 1 || updates[0].Phase != Analyze {
		t.Errorf("expected one analyze update, got %+v", updates)
	}
}
