package tasks

import (
	"fmt"

	"github.com/alexanderalber/spotify-playlist-manager/internal/models"
)

// ProgressUpdate represents a progress event during a long-running operation.
//
// Used to send real-time updates to the CLI or UI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data for advanced UIs
}

// Operation phase enumeration
type Phase int

const (
	FetchUser Phase = iota
	FetchLiked
	FetchPlaylists
	FetchTracks
	Reconcile
	Persist
	BackupPlaylist
	WriteBackup
	Analyze
)

func (p Phase) String() string {
	switch p {
	case FetchUser:
		return "fetch_user"
	case FetchLiked:
		return "fetch_liked"
	case FetchPlaylists:
		return "fetch_playlists"
	case FetchTracks:
		return "fetch_tracks"
	case Reconcile:
		return "reconcile"
	case Persist:
		return "persist"
	case BackupPlaylist:
		return "backup_playlist"
	case WriteBackup:
		return "write_backup"
	case Analyze:
		return "analyze"
	default:
		return ""
	}
}

func fetchUserUpdate() ProgressUpdate {
	return ProgressUpdate{Phase: FetchUser, Step: 1, Total: 1, Message: "Fetching current user..."}
}

func fetchLikedUpdate(count int) ProgressUpdate {
	if count < 0 {
		return ProgressUpdate{Phase: FetchLiked, Message: "Fetching liked songs..."}
	}
	return ProgressUpdate{
		Phase:   FetchLiked,
		Step:    count,
		Total:   count,
		Message: fmt.Sprintf("Fetched %d liked songs", count),
	}
}

func fetchPlaylistsUpdate(count int) ProgressUpdate {
	if count < 0 {
		return ProgressUpdate{Phase: FetchPlaylists, Message: "Fetching playlists..."}
	}
	return ProgressUpdate{
		Phase:   FetchPlaylists,
		Step:    count,
		Total:   count,
		Message: fmt.Sprintf("Fetched %d playlists", count),
	}
}

func fetchTracksUpdate(step, total int, pl models.Playlist) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchTracks,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] Fetching tracks of %s...", step, total, pl.Name),
		Data:    pl,
	}
}

func reconcileUpdate(removed int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Reconcile,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Removed %d stale cache entries", removed),
	}
}

func persistUpdate(run *models.SyncRun) ProgressUpdate {
	return ProgressUpdate{
		Phase: Persist,
		Step:  1,
		Total: 1,
		Message: fmt.Sprintf("Saved %d liked songs, %d playlists, %d memberships",
			run.LikedCount, run.PlaylistCount, run.MembershipCount),
		Data: run,
	}
}

func backupCompletedUpdate(step, total int, name string, tracks int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   BackupPlaylist,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✓ %s (%d tracks)", step, total, name, tracks),
	}
}

func backupFailedUpdate(step, total int, name string, err error) ProgressUpdate {
	return ProgressUpdate{
		Phase:   BackupPlaylist,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✗ %s: %v", step, total, name, err),
	}
}

func writeBackupUpdate(path string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   WriteBackup,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Backup written to %s", path),
		Data:    path,
	}
}

func analyzeUpdate(songs, playlists int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Analyze,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Analyzed %d songs across %d playlists", songs, playlists),
	}
}
