package models

import (
	"errors"
	"fmt"
	"time"
)

// LikedSongsPlaylistID identifies the pseudo-playlist that holds every liked song on the dashboard.
const (
	LikedSongsPlaylistID   = "liked_songs"
	LikedSongsPlaylistName = "❤️ Liked Songs"
	UnknownArtist          = "Unknown"
)

var ErrInvalidModel = errors.New("invalid model")

// Model is implemented by every cached entity.
type Model interface {
	Key() string     // Key returns the primary key of the row
	Validate() error // Validate checks if the model's data is valid and returns an error if not
}

// Repository defines the cache operations shared by keyed entities.
type Repository[T Model] interface {
	Upsert(model T) error      // Upsert inserts or replaces a row
	Get(key string) (T, error) // Get retrieves a row by key
	Delete(key string) error   // Delete removes a row by key
	List() ([]T, error)        // List returns every row
}

// Song is a liked song.
type Song struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Artist  string `json:"artist"`
	AddedAt string `json:"added_at"`
}

func (s *Song) Key() string { return s.ID }

func (s *Song) Validate() error {
	if s.ID == "" {
		return fmt.Errorf("%w: song id is required", ErrInvalidModel)
	}
	return nil
}

// Playlist is a playlist visible to the user.
type Playlist struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	OwnerID    string `json:"owner_id"`
	TrackCount int    `json:"track_count,omitempty"`
}

func (p *Playlist) Key() string { return p.ID }

func (p *Playlist) Validate() error {
	if p.ID == "" {
		return fmt.Errorf("%w: playlist id is required", ErrInvalidModel)
	}
	return nil
}

// OwnedBy reports whether userID owns the playlist.
func (p *Playlist) OwnedBy(userID string) bool {
	return userID != "" && p.OwnerID == userID
}

// Membership links a song to a playlist.
type Membership struct {
	PlaylistID string `json:"playlist_id"`
	SongID     string `json:"song_id"`
}

func (m Membership) Key() string { return m.PlaylistID + "/" + m.SongID }

func (m Membership) Validate() error {
	if m.PlaylistID == "" || m.SongID == "" {
		return fmt.Errorf("%w: membership needs playlist and song ids", ErrInvalidModel)
	}
	return nil
}

// MembershipSet answers "is song in playlist" lookups for the dashboard.
type MembershipSet map[Membership]struct{}

// Has reports whether songID is a member of playlistID. Every song belongs to the liked songs pseudo-playlist.
func (s MembershipSet) Has(songID, playlistID string) bool {
	if playlistID == LikedSongsPlaylistID {
		return true
	}
	_, ok := s[Membership{PlaylistID: playlistID, SongID: songID}]
	return ok
}

// PlayedEntry records one play of a song from the dashboard.
type PlayedEntry struct {
	ID       string    `json:"id"`
	SongID   string    `json:"song_id"`
	PlayedAt time.Time `json:"played_at"`
}

func (p *PlayedEntry) Key() string { return p.ID }

func (p *PlayedEntry) Validate() error {
	if p.SongID == "" {
		return fmt.Errorf("%w: played entry needs a song id", ErrInvalidModel)
	}
	return nil
}

// SyncKind names the operation a [SyncRun] recorded.
type SyncKind string

const (
	SyncRefresh SyncKind = "refresh"
	SyncCleanup SyncKind = "cleanup"
	SyncLiked   SyncKind = "liked"
	SyncLists   SyncKind = "playlists"
	SyncBackup  SyncKind = "backup"
)

// SyncStatus is the lifecycle state of a [SyncRun].
type SyncStatus string

const (
	SyncRunning   SyncStatus = "running"
	SyncCompleted SyncStatus = "completed"
	SyncFailed    SyncStatus = "failed"
)

// SyncRun is the audit record of one synchronization run.
type SyncRun struct {
	ID              string     `json:"id"`
	Kind            SyncKind   `json:"kind"`
	Status          SyncStatus `json:"status"`
	LikedCount      int        `json:"liked_count"`
	PlaylistCount   int        `json:"playlist_count"`
	MembershipCount int        `json:"membership_count"`
	RemovedCount    int        `json:"removed_count"`
	ErrorMessage    string     `json:"error,omitempty"`
	StartedAt       time.Time  `json:"started_at"`
	FinishedAt      *time.Time `json:"finished_at,omitempty"`
}

func (r *SyncRun) Key() string { return r.ID }

func (r *SyncRun) Validate() error {
	if r.Kind == "" {
		return fmt.Errorf("%w: sync run kind is required", ErrInvalidModel)
	}
	switch r.Status {
	case SyncRunning, SyncCompleted, SyncFailed:
	default:
		return fmt.Errorf("%w: unknown sync status %q", ErrInvalidModel, r.Status)
	}
	return nil
}

// Finish marks the run completed, or failed when err is non-nil.
func (r *SyncRun) Finish(err error, at time.Time) {
	r.FinishedAt = &at
	if err != nil {
		r.Status = SyncFailed
		r.ErrorMessage = err.Error()
		return
	}
	r.Status = SyncCompleted
}

// Duration is the wall time of a finished run, or zero while running.
func (r *SyncRun) Duration() time.Duration {
	if r.FinishedAt == nil {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// Device is a Spotify Connect playback device.
type Device struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Type   string `json:"type"`
	Active bool   `json:"is_active"`
}

// Playback is the state of the user's player.
type Playback struct {
	IsPlaying  bool   `json:"is_playing"`
	ProgressMs int    `json:"progress_ms"`
	DurationMs int    `json:"duration_ms"`
	SongID     string `json:"song_id,omitempty"`
}

// BackupTrack is one track of a backed-up playlist.
type BackupTrack struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Artist  string `json:"artist"`
	AddedAt string `json:"added_at"`
}

// BackupPlaylist is one playlist of a [Backup].
type BackupPlaylist struct {
	ID     string        `json:"id"`
	Tracks []BackupTrack `json:"tracks"`
}

// Backup maps playlist names to their id and tracks.
type Backup map[string]BackupPlaylist

// AnalysisRow is one liked song and its membership flag per analysed playlist.
type AnalysisRow struct {
	Song    Song
	InLists []bool
}

// Analysis is the songs × owned playlists membership matrix.
type Analysis struct {
	Playlists []Playlist
	Rows      []AnalysisRow
}

// Header returns the column names of the matrix: song fields, then playlist names.
func (a *Analysis) Header() []string {
	header := []string{"id", "name", "artist", "added_at"}
	for _, p := range a.Playlists {
		header = append(header, p.Name)
	}
	return header
}
