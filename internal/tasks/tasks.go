// package tasks implements the synchronization between the Spotify library and the local cache.
//
// The core abstraction is LibraryEngine, which reconciles the cache, mutates memberships and drives playback.
// Operations emit progress updates via channels for non-blocking status reporting to CLI/UI layers.
package tasks

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/alexanderalber/spotify-playlist-manager/internal/models"
	"github.com/alexanderalber/spotify-playlist-manager/internal/repositories"
	"github.com/alexanderalber/spotify-playlist-manager/internal/services"
	"github.com/alexanderalber/spotify-playlist-manager/internal/shared"
	"github.com/charmbracelet/log"
)

// Snapshot is a complete read of the remote library taken before any cache write.
type Snapshot struct {
	UserID    string
	Liked     []models.Song
	Playlists []models.Playlist
	Members   map[string][]string // owned playlist ID -> track IDs
}

// Owned returns the snapshot's playlists owned by the current user.
func (s *Snapshot) Owned() []models.Playlist {
	var owned []models.Playlist
	for _, p := range s.Playlists {
		if p.OwnedBy(s.UserID) {
			owned = append(owned, p)
		}
	}
	return owned
}

// LikedIDs returns the IDs of the liked songs.
func (s *Snapshot) LikedIDs() map[string]struct{} {
	ids := make(map[string]struct{}, len(s.Liked))
	for _, song := range s.Liked {
		ids[song.ID] = struct{}{}
	}
	return ids
}

// PlaylistIDs returns the IDs of every playlist, owned or followed.
func (s *Snapshot) PlaylistIDs() map[string]struct{} {
	ids := make(map[string]struct{}, len(s.Playlists))
	for _, p := range s.Playlists {
		ids[p.ID] = struct{}{}
	}
	return ids
}

// OwnedIDs returns the IDs of the owned playlists.
func (s *Snapshot) OwnedIDs() map[string]struct{} {
	ids := make(map[string]struct{})
	for _, p := range s.Owned() {
		ids[p.ID] = struct{}{}
	}
	return ids
}

// Index is everything the dashboard renders.
type Index struct {
	UserID      string
	Songs       []*models.Song
	Playlists   []models.Playlist // liked songs pseudo-playlist first, then owned playlists
	Memberships models.MembershipSet
	Played      map[string]struct{}
}

// InPlaylist reports whether songID is a member of playlistID.
func (i *Index) InPlaylist(songID, playlistID string) bool {
	return i.Memberships.Has(songID, playlistID)
}

// IsPlayed reports whether songID was marked as played.
func (i *Index) IsPlayed(songID string) bool {
	_, ok := i.Played[songID]
	return ok
}

// LibraryEngine reconciles the cache with the remote library and drives playback.
type LibraryEngine struct {
	service services.Service
	player  services.Player
	store   *repositories.Store
	logger  *log.Logger
	now     func() time.Time

	mu     sync.Mutex
	userID string
}

// NewLibraryEngine creates a new LibraryEngine. player may be nil when playback is not needed.
func NewLibraryEngine(service services.Service, player services.Player, store *repositories.Store, logger *log.Logger) *LibraryEngine {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &LibraryEngine{
		service: service,
		player:  player,
		store:   store,
		logger:  logger,
		now:     time.Now,
	}
}

// Store returns the cache the engine writes to.
func (e *LibraryEngine) Store() *repositories.Store {
	return e.store
}

// sendProgress sends a progress update through the channel without blocking.
// Uses select with default to ensure progress reporting never blocks execution.
func (e *LibraryEngine) sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
		// Sent successfully
	default:
		// Channel full or closed, skip this update
	}
}

func (e *LibraryEngine) ready() error {
	if e.service == nil {
		return fmt.Errorf("%w: Spotify service not initialized", shared.ErrServiceUnavailable)
	}
	if e.store == nil {
		return fmt.Errorf("%w: cache not initialized", shared.ErrServiceUnavailable)
	}
	return nil
}

// CurrentUserID returns the authenticated user's ID, fetching it once.
func (e *LibraryEngine) CurrentUserID(ctx context.Context) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.userID != "" {
		return e.userID, nil
	}

	id, err := e.service.CurrentUserID(ctx)
	if err != nil {
		return "", err
	}
	e.userID = id
	return id, nil
}

type snapshotParts int

const (
	partLiked snapshotParts = 1 << iota
	partPlaylists
	partTracks
)

// Snapshot fetches the whole remote library. Owned playlist tracks are only fetched when withTracks is set.
func (e *LibraryEngine) Snapshot(ctx context.Context, withTracks bool, progress chan<- ProgressUpdate) (*Snapshot, error) {
	parts := partLiked | partPlaylists
	if withTracks {
		parts |= partTracks
	}
	return e.snapshot(ctx, parts, progress)
}

func (e *LibraryEngine) snapshot(ctx context.Context, parts snapshotParts, progress chan<- ProgressUpdate) (*Snapshot, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}

	e.sendProgress(progress, fetchUserUpdate())
	userID, err := e.CurrentUserID(ctx)
	if err != nil {
		return nil, err
	}

	snap := &Snapshot{UserID: userID, Members: make(map[string][]string)}

	if parts&partLiked != 0 {
		e.sendProgress(progress, fetchLikedUpdate(-1))
		if snap.Liked, err = e.service.LikedSongs(ctx); err != nil {
			return nil, fmt.Errorf("failed to fetch liked songs: %w", err)
		}
		e.sendProgress(progress, fetchLikedUpdate(len(snap.Liked)))
	}

	if parts&(partPlaylists|partTracks) != 0 {
		e.sendProgress(progress, fetchPlaylistsUpdate(-1))
		if snap.Playlists, err = e.service.Playlists(ctx); err != nil {
			return nil, fmt.Errorf("failed to fetch playlists: %w", err)
		}
		e.sendProgress(progress, fetchPlaylistsUpdate(len(snap.Playlists)))
	}

	if parts&partTracks != 0 {
		owned := snap.Owned()
		for i, p := range owned {
			e.sendProgress(progress, fetchTracksUpdate(i+1, len(owned), p))

			tracks, err := e.service.PlaylistTracks(ctx, p.ID)
			if err != nil {
				return nil, fmt.Errorf("failed to fetch tracks of %s: %w", p.Name, err)
			}
			snap.Members[p.ID] = trackIDs(tracks)
		}
	}

	e.logger.Debug("fetched snapshot",
		"user", userID, "liked", len(snap.Liked), "playlists", len(snap.Playlists), "owned_with_tracks", len(snap.Members))
	return snap, nil
}

// trackIDs returns the distinct track IDs in playlist order.
func trackIDs(tracks []services.Track) []string {
	seen := make(map[string]struct{}, len(tracks))
	ids := make([]string, 0, len(tracks))
	for _, t := range tracks {
		if _, ok := seen[t.ID]; ok {
			continue
		}
		seen[t.ID] = struct{}{}
		ids = append(ids, t.ID)
	}
	return ids
}

func toSet(ids []string) map[string]struct{} {
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}

// record creates a sync run, runs fn and stores the outcome.
func (e *LibraryEngine) record(kind models.SyncKind, fn func(run *models.SyncRun) error) (*models.SyncRun, error) {
	run := &models.SyncRun{Kind: kind, StartedAt: e.now()}
	if err := e.store.Runs.Create(run); err != nil {
		return nil, fmt.Errorf("failed to record %s run: %w", kind, err)
	}

	err := fn(run)
	run.Finish(err, e.now())

	if uerr := e.store.Runs.Update(run); uerr != nil {
		e.logger.Warn("failed to finish sync run", "id", run.ID, "error", uerr)
	}

	if err != nil {
		e.logger.Error("sync run failed", "kind", kind, "error", err)
		return run, err
	}

	e.logger.Info("sync run completed",
		"kind", kind,
		"liked", run.LikedCount,
		"playlists", run.PlaylistCount,
		"memberships", run.MembershipCount,
		"removed", run.RemovedCount,
		"duration", run.Duration())
	return run, nil
}

// applyCleanup deletes every cached row that the snapshot no longer contains.
func applyCleanup(tx *repositories.Store, snap *Snapshot) (int, error) {
	removedSongs, err := tx.Songs.Reconcile(snap.LikedIDs())
	if err != nil {
		return 0, err
	}

	removedLists, err := tx.Playlists.Reconcile(snap.PlaylistIDs())
	if err != nil {
		return 0, err
	}

	removed := len(removedSongs) + len(removedLists)
	for playlistID, members := range snap.Members {
		gone, err := tx.Memberships.ReconcilePlaylist(playlistID, toSet(members))
		if err != nil {
			return 0, err
		}
		removed += len(gone)
	}

	pruned, err := tx.Memberships.PruneExcept(snap.OwnedIDs())
	if err != nil {
		return 0, err
	}
	return removed + pruned, nil
}

// applyPlaylists upserts every playlist and adds the memberships of owned playlists.
func applyPlaylists(tx *repositories.Store, snap *Snapshot) (playlists, memberships int, err error) {
	if playlists, err = tx.Playlists.UpsertMany(snap.Playlists); err != nil {
		return 0, 0, err
	}

	for _, p := range snap.Owned() {
		members := make([]models.Membership, 0, len(snap.Members[p.ID]))
		for _, songID := range snap.Members[p.ID] {
			members = append(members, models.Membership{PlaylistID: p.ID, SongID: songID})
		}

		n, err := tx.Memberships.AddMany(members)
		if err != nil {
			return 0, 0, err
		}
		memberships += n
	}
	return playlists, memberships, nil
}

// Cleanup deletes cached liked songs, playlists and memberships that no longer exist remotely.
func (e *LibraryEngine) Cleanup(ctx context.Context, progress chan<- ProgressUpdate) (*models.SyncRun, error) {
	snap, err := e.Snapshot(ctx, true, progress)
	if err != nil {
		return nil, err
	}

	return e.record(models.SyncCleanup, func(run *models.SyncRun) error {
		return e.store.Tx(func(tx *repositories.Store) error {
			removed, err := applyCleanup(tx, snap)
			if err != nil {
				return err
			}
			run.RemovedCount = removed
			e.sendProgress(progress, reconcileUpdate(removed))
			return nil
		})
	})
}

// FetchLikedSongs upserts every remote liked song into the cache.
func (e *LibraryEngine) FetchLikedSongs(ctx context.Context, progress chan<- ProgressUpdate) (*models.SyncRun, error) {
	snap, err := e.snapshot(ctx, partLiked, progress)
	if err != nil {
		return nil, err
	}

	return e.record(models.SyncLiked, func(run *models.SyncRun) error {
		return e.store.Tx(func(tx *repositories.Store) error {
			n, err := tx.Songs.UpsertMany(snap.Liked)
			if err != nil {
				return err
			}
			run.LikedCount = n
			e.sendProgress(progress, persistUpdate(run))
			return nil
		})
	})
}

// FetchPlaylists upserts every remote playlist and the memberships of owned playlists.
func (e *LibraryEngine) FetchPlaylists(ctx context.Context, progress chan<- ProgressUpdate) (*models.SyncRun, error) {
	snap, err := e.snapshot(ctx, partPlaylists|partTracks, progress)
	if err != nil {
		return nil, err
	}

	return e.record(models.SyncLists, func(run *models.SyncRun) error {
		return e.store.Tx(func(tx *repositories.Store) error {
			playlists, memberships, err := applyPlaylists(tx, snap)
			if err != nil {
				return err
			}
			run.PlaylistCount, run.MembershipCount = playlists, memberships
			e.sendProgress(progress, persistUpdate(run))
			return nil
		})
	})
}

// Refresh performs cleanup, liked song and playlist fetches from one snapshot inside one transaction.
func (e *LibraryEngine) Refresh(ctx context.Context, progress chan<- ProgressUpdate) (*models.SyncRun, error) {
	snap, err := e.Snapshot(ctx, true, progress)
	if err != nil {
		return nil, err
	}

	return e.record(models.SyncRefresh, func(run *models.SyncRun) error {
		return e.store.Tx(func(tx *repositories.Store) error {
			removed, err := applyCleanup(tx, snap)
			if err != nil {
				return err
			}
			e.sendProgress(progress, reconcileUpdate(removed))

			liked, err := tx.Songs.UpsertMany(snap.Liked)
			if err != nil {
				return err
			}

			playlists, memberships, err := applyPlaylists(tx, snap)
			if err != nil {
				return err
			}

			orphans, err := tx.Memberships.PruneOrphans(snap.UserID)
			if err != nil {
				return err
			}

			run.LikedCount = liked
			run.PlaylistCount = playlists
			run.MembershipCount = memberships
			run.RemovedCount = removed + orphans
			e.sendProgress(progress, persistUpdate(run))
			return nil
		})
	})
}

// ToggleMembership adds songID to playlistID when the cache has no such pair, removes it otherwise,
// and reports whether the song is now in the playlist.
func (e *LibraryEngine) ToggleMembership(ctx context.Context, songID, playlistID string) (bool, error) {
	if err := e.ready(); err != nil {
		return false, err
	}
	if songID == "" || playlistID == "" {
		return false, fmt.Errorf("%w: song_id and playlist_id", shared.ErrMissingArgument)
	}
	if playlistID == models.LikedSongsPlaylistID {
		return false, fmt.Errorf("%w: use like or unlike for %s", shared.ErrInvalidArgument, models.LikedSongsPlaylistName)
	}

	exists, err := e.store.Memberships.Exists(playlistID, songID)
	if err != nil {
		return false, err
	}

	if exists {
		if err := e.service.RemoveFromPlaylist(ctx, playlistID, songID); err != nil {
			return true, err
		}
		if _, err := e.store.Memberships.Remove(playlistID, songID); err != nil {
			return false, err
		}
		e.logger.Info("removed song from playlist", "song", songID, "playlist", playlistID)
		return false, nil
	}

	if err := e.service.AddToPlaylist(ctx, playlistID, songID); err != nil {
		return false, err
	}
	if err := e.store.Memberships.Add(playlistID, songID); err != nil {
		return true, err
	}
	e.logger.Info("added song to playlist", "song", songID, "playlist", playlistID)
	return true, nil
}

// Like saves songID to the remote library. The cache follows on the next refresh.
func (e *LibraryEngine) Like(ctx context.Context, songID string) error {
	if err := e.ready(); err != nil {
		return err
	}
	if songID == "" {
		return fmt.Errorf("%w: song_id", shared.ErrMissingArgument)
	}
	return e.service.Like(ctx, songID)
}

// Unlike removes songID from the remote library. The cache follows on the next refresh.
func (e *LibraryEngine) Unlike(ctx context.Context, songID string) error {
	if err := e.ready(); err != nil {
		return err
	}
	if songID == "" {
		return fmt.Errorf("%w: song_id", shared.ErrMissingArgument)
	}
	return e.service.Unlike(ctx, songID)
}

// MarkPlayed appends songID to the local play history.
func (e *LibraryEngine) MarkPlayed(songID string) (*models.PlayedEntry, error) {
	if e.store == nil {
		return nil, fmt.Errorf("%w: cache not initialized", shared.ErrServiceUnavailable)
	}
	if songID == "" {
		return nil, fmt.Errorf("%w: song_id", shared.ErrMissingArgument)
	}
	return e.store.Played.Record(songID, e.now())
}

// IndexData loads the dashboard data. The remote playlist list is upserted into the cache on every call.
func (e *LibraryEngine) IndexData(ctx context.Context) (*Index, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}

	userID, err := e.CurrentUserID(ctx)
	if err != nil {
		return nil, err
	}

	remote, err := e.service.Playlists(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch playlists: %w", err)
	}
	if _, err := e.store.Playlists.UpsertMany(remote); err != nil {
		return nil, err
	}

	index := &Index{
		UserID:    userID,
		Playlists: []models.Playlist{{ID: models.LikedSongsPlaylistID, Name: models.LikedSongsPlaylistName, OwnerID: userID}},
	}
	for _, p := range remote {
		if p.OwnedBy(userID) {
			index.Playlists = append(index.Playlists, p)
		}
	}

	if index.Songs, err = e.store.Songs.List(); err != nil {
		return nil, err
	}
	if index.Memberships, err = e.store.Memberships.Set(userID); err != nil {
		return nil, err
	}
	if index.Played, err = e.store.Played.PlayedSet(); err != nil {
		return nil, err
	}
	return index, nil
}
