package tasks

import (
	"context"
	"fmt"
	"sync"

	"github.com/alexanderalber/spotify-playlist-manager/internal/formatter"
	"github.com/alexanderalber/spotify-playlist-manager/internal/models"
	"github.com/alexanderalber/spotify-playlist-manager/internal/services"
	"github.com/alexanderalber/spotify-playlist-manager/internal/shared"
	"golang.org/x/time/rate"
)

// BackupOpts contains configuration for playlist backups.
type BackupOpts struct {
	Dir        string  // Output directory (default: backups)
	NumWorkers int     // Concurrent workers (default: 5, max: 10)
	RateLimit  float64 // Requests per second (default: 5)
}

func (o *BackupOpts) defaults() {
	if o.Dir == "" {
		o.Dir = "backups"
	}
	if o.NumWorkers <= 0 {
		o.NumWorkers = 5
	}
	if o.NumWorkers > 10 {
		o.NumWorkers = 10
	}
	if o.RateLimit <= 0 {
		o.RateLimit = 5.0
	}
}

// BackupResult describes a written backup.
type BackupResult struct {
	Backup    models.Backup
	Path      string
	Playlists int
	Tracks    int
	Run       *models.SyncRun
}

// Summary returns one "name: N tracks" line per backed-up playlist.
func (r *BackupResult) Summary() []string {
	return formatter.BackupSummary(r.Backup)
}

type backupJob struct {
	index    int
	playlist models.Playlist
}

type backupResult struct {
	index  int
	tracks []models.BackupTrack
	err    error
}

// Backup writes every playlist the user can see, owned and followed, with its tracks to a timestamped JSON file.
//
// Tracks are fetched by a rate-limited worker pool. Any failed playlist fails the whole backup and no file is written.
// Playlists sharing a name collapse to one entry: the later one in the remote list wins.
func (e *LibraryEngine) Backup(ctx context.Context, opts BackupOpts, progress chan<- ProgressUpdate) (*BackupResult, error) {
	if e.service == nil {
		return nil, fmt.Errorf("%w: Spotify service not initialized", shared.ErrServiceUnavailable)
	}
	opts.defaults()

	e.sendProgress(progress, fetchPlaylistsUpdate(-1))
	playlists, err := e.service.Playlists(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch playlists: %w", err)
	}
	e.sendProgress(progress, fetchPlaylistsUpdate(len(playlists)))

	result := &BackupResult{Backup: make(models.Backup, len(playlists))}

	write := func(run *models.SyncRun) error {
		tracks, err := e.fetchBackupTracks(ctx, playlists, opts, progress)
		if err != nil {
			return err
		}

		for i, p := range playlists {
			result.Backup[p.Name] = models.BackupPlaylist{ID: p.ID, Tracks: tracks[i]}
		}
		for _, p := range result.Backup {
			result.Tracks += len(p.Tracks)
		}
		result.Playlists = len(result.Backup)

		path, err := formatter.WriteBackupJSON(result.Backup, opts.Dir, e.now())
		if err != nil {
			return err
		}
		result.Path = path
		e.sendProgress(progress, writeBackupUpdate(path))

		if run != nil {
			run.PlaylistCount = result.Playlists
			run.MembershipCount = result.Tracks
		}
		return nil
	}

	if e.store == nil {
		return result, write(nil)
	}

	result.Run, err = e.record(models.SyncBackup, write)
	return result, err
}

// fetchBackupTracks returns the tracks of every playlist, indexed like playlists.
func (e *LibraryEngine) fetchBackupTracks(
	ctx context.Context,
	playlists []models.Playlist,
	opts BackupOpts,
	progress chan<- ProgressUpdate,
) ([][]models.BackupTrack, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	limiter := rate.NewLimiter(rate.Limit(opts.RateLimit), 1)

	jobs := make(chan backupJob, len(playlists))
	results := make(chan backupResult, len(playlists))

	var wg sync.WaitGroup
	for i := 0; i < opts.NumWorkers; i++ {
		wg.Add(1)
		go e.backupWorker(ctx, &wg, limiter, jobs, results)
	}

	for i, p := range playlists {
		jobs <- backupJob{index: i, playlist: p}
	}
	close(jobs)

	go func() {
		wg.Wait()
		close(results)
	}()

	out := make([][]models.BackupTrack, len(playlists))
	var firstErr error
	completed := 0
	for res := range results {
		completed++
		name := playlists[res.index].Name

		if res.err != nil {
			if firstErr == nil {
				firstErr = fmt.Errorf("failed to back up %s: %w", name, res.err)
			}
			e.sendProgress(progress, backupFailedUpdate(completed, len(playlists), name, res.err))
			cancel()
			continue
		}

		out[res.index] = res.tracks
		e.sendProgress(progress, backupCompletedUpdate(completed, len(playlists), name, len(res.tracks)))
	}

	if firstErr != nil {
		return nil, firstErr
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// backupWorker fetches the tracks of each playlist from the jobs channel.
func (e *LibraryEngine) backupWorker(
	ctx context.Context,
	wg *sync.WaitGroup,
	limiter *rate.Limiter,
	jobs <-chan backupJob,
	results chan<- backupResult,
) {
	defer wg.Done()

	for job := range jobs {
		if err := limiter.Wait(ctx); err != nil {
			results <- backupResult{index: job.index, err: err}
			continue
		}

		tracks, err := e.service.PlaylistTracks(ctx, job.playlist.ID)
		if err != nil {
			results <- backupResult{index: job.index, err: err}
			continue
		}
		results <- backupResult{index: job.index, tracks: backupTracks(tracks)}
	}
}

// backupTracks converts remote tracks, skipping entries without an ID.
func backupTracks(tracks []services.Track) []models.BackupTrack {
	out := make([]models.BackupTrack, 0, len(tracks))
	for _, t := range tracks {
		if t.ID == "" {
			continue
		}
		artist := t.Artist
		if artist == "" {
			artist = models.UnknownArtist
		}
		out = append(out, models.BackupTrack{ID: t.ID, Name: t.Name, Artist: artist, AddedAt: t.AddedAt})
	}
	return out
}
