package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"sort"

	"github.com/alexanderalber/spotify-playlist-manager/internal/models"
	"github.com/alexanderalber/spotify-playlist-manager/internal/shared"
)

var _ models.Repository[*models.Song] = (*SongRepository)(nil)

// SongRepository caches liked songs.
type SongRepository struct {
	db Querier
}

// NewSongRepository creates a new SongRepository with the given connection or transaction
func NewSongRepository(db Querier) *SongRepository {
	return &SongRepository{db: db}
}

const upsertSong = `
	INSERT INTO liked_songs (id, name, artist, added_at)
	VALUES (?, ?, ?, ?)
	ON CONFLICT(id) DO UPDATE SET
		name = excluded.name,
		artist = excluded.artist,
		added_at = excluded.added_at
`

// Upsert inserts a liked song or overwrites the cached copy
func (r *SongRepository) Upsert(song *models.Song) error {
	if err := song.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	if _, err := r.db.Exec(upsertSong, song.ID, song.Name, song.Artist, song.AddedAt); err != nil {
		return fmt.Errorf("failed to upsert song %s: %w", song.ID, err)
	}
	return nil
}

// UpsertMany upserts every song and returns how many were written.
func (r *SongRepository) UpsertMany(songs []models.Song) (int, error) {
	for i := range songs {
		if err := r.Upsert(&songs[i]); err != nil {
			return i, err
		}
	}
	return len(songs), nil
}

// Get retrieves a liked song by ID
func (r *SongRepository) Get(id string) (*models.Song, error) {
	row := r.db.QueryRow(`SELECT id, name, artist, added_at FROM liked_songs WHERE id = ?`, id)

	var song models.Song
	err := row.Scan(&song.ID, &song.Name, &song.Artist, &song.AddedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: song %s", shared.ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan song: %w", err)
	}
	return &song, nil
}

// Delete removes a liked song by ID
func (r *SongRepository) Delete(id string) error {
	result, err := r.db.Exec(`DELETE FROM liked_songs WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete song: %w", err)
	}

	n, err := affected(result)
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: song %s", shared.ErrNotFound, id)
	}
	return nil
}

// List returns every liked song, most recently added first
func (r *SongRepository) List() ([]*models.Song, error) {
	rows, err := r.db.Query(`SELECT id, name, artist, added_at FROM liked_songs ORDER BY added_at DESC, id ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query songs: %w", err)
	}
	defer rows.Close()

	var songs []*models.Song
	for rows.Next() {
		var song models.Song
		if err := rows.Scan(&song.ID, &song.Name, &song.Artist, &song.AddedAt); err != nil {
			return nil, fmt.Errorf("failed to scan song: %w", err)
		}
		songs = append(songs, &song)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return songs, nil
}

// IDs returns the set of cached song IDs.
func (r *SongRepository) IDs() (map[string]struct{}, error) {
	return keySet(r.db, `SELECT id FROM liked_songs`)
}

// Count returns the number of cached liked songs.
func (r *SongRepository) Count() (int, error) {
	return countRows(r.db, `SELECT COUNT(*) FROM liked_songs`)
}

// Reconcile deletes every cached song whose ID is not in keep and returns the removed IDs, sorted.
func (r *SongRepository) Reconcile(keep map[string]struct{}) ([]string, error) {
	have, err := r.IDs()
	if err != nil {
		return nil, err
	}

	removed := missing(have, keep)
	sort.Strings(removed)
	for _, id := range removed {
		if _, err := r.db.Exec(`DELETE FROM liked_songs WHERE id = ?`, id); err != nil {
			return nil, fmt.Errorf("failed to delete song %s: %w", id, err)
		}
	}
	return removed, nil
}
