package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"sort"

	"github.com/alexanderalber/spotify-playlist-manager/internal/models"
	"github.com/alexanderalber/spotify-playlist-manager/internal/shared"
)

var _ models.Repository[*models.Playlist] = (*PlaylistRepository)(nil)

// PlaylistRepository caches every playlist visible to the user, owned or followed.
type PlaylistRepository struct {
	db Querier
}

// NewPlaylistRepository creates a new PlaylistRepository with the given connection or transaction
func NewPlaylistRepository(db Querier) *PlaylistRepository {
	return &PlaylistRepository{db: db}
}

// Upsert inserts a playlist or overwrites its name and owner
func (r *PlaylistRepository) Upsert(playlist *models.Playlist) error {
	if err := playlist.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	query := `
		INSERT INTO playlists (id, name, owner_id)
		VALUES (?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			owner_id = excluded.owner_id
	`

	if _, err := r.db.Exec(query, playlist.ID, playlist.Name, playlist.OwnerID); err != nil {
		return fmt.Errorf("failed to upsert playlist %s: %w", playlist.ID, err)
	}
	return nil
}

// UpsertMany upserts every playlist and returns how many were written.
func (r *PlaylistRepository) UpsertMany(playlists []models.Playlist) (int, error) {
	for i := range playlists {
		if err := r.Upsert(&playlists[i]); err != nil {
			return i, err
		}
	}
	return len(playlists), nil
}

// Get retrieves a playlist by ID
func (r *PlaylistRepository) Get(id string) (*models.Playlist, error) {
	return r.scanOne(r.db.QueryRow(`SELECT id, name, owner_id FROM playlists WHERE id = ?`, id))
}

// Delete removes a playlist and its memberships
func (r *PlaylistRepository) Delete(id string) error {
	result, err := r.db.Exec(`DELETE FROM playlists WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete playlist: %w", err)
	}

	n, err := affected(result)
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: playlist %s", shared.ErrNotFound, id)
	}

	if _, err := r.db.Exec(`DELETE FROM playlist_songs WHERE playlist_id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete memberships of playlist %s: %w", id, err)
	}
	return nil
}

// List returns every cached playlist ordered by name
func (r *PlaylistRepository) List() ([]*models.Playlist, error) {
	return r.query(`SELECT id, name, owner_id FROM playlists ORDER BY name COLLATE NOCASE, id`)
}

// ListOwned returns the playlists owned by ownerID ordered by name
func (r *PlaylistRepository) ListOwned(ownerID string) ([]*models.Playlist, error) {
	return r.query(`SELECT id, name, owner_id FROM playlists WHERE owner_id = ? ORDER BY name COLLATE NOCASE, id`, ownerID)
}

// IDs returns the set of cached playlist IDs.
func (r *PlaylistRepository) IDs() (map[string]struct{}, error) {
	return keySet(r.db, `SELECT id FROM playlists`)
}

// Count returns the number of cached playlists.
func (r *PlaylistRepository) Count() (int, error) {
	return countRows(r.db, `SELECT COUNT(*) FROM playlists`)
}

// Reconcile deletes every cached playlist (and its memberships) whose ID is not in keep.
func (r *PlaylistRepository) Reconcile(keep map[string]struct{}) ([]string, error) {
	have, err := r.IDs()
	if err != nil {
		return nil, err
	}

	removed := missing(have, keep)
	sort.Strings(removed)
	for _, id := range removed {
		if err := r.Delete(id); err != nil {
			return nil, err
		}
	}
	return removed, nil
}

func (r *PlaylistRepository) query(query string, args ...any) ([]*models.Playlist, error) {
	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query playlists: %w", err)
	}
	defer rows.Close()

	var playlists []*models.Playlist
	for rows.Next() {
		playlist, err := r.scanRow(rows)
		if err != nil {
			return nil, err
		}
		playlists = append(playlists, playlist)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return playlists, nil
}

// scanOne scans a single row into a [models.Playlist]
func (r *PlaylistRepository) scanOne(row *sql.Row) (*models.Playlist, error) {
	var p models.Playlist
	err := row.Scan(&p.ID, &p.Name, &p.OwnerID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: playlist", shared.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan playlist: %w", err)
	}
	return &p, nil
}

// scanRow scans a row from [sql.Rows] into a [models.Playlist]
func (r *PlaylistRepository) scanRow(rows *sql.Rows) (*models.Playlist, error) {
	var p models.Playlist
	if err := rows.Scan(&p.ID, &p.Name, &p.OwnerID); err != nil {
		return nil, fmt.Errorf("failed to scan playlist: %w", err)
	}
	return &p, nil
}
