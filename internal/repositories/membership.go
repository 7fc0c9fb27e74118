package repositories

import (
	"fmt"
	"sort"

	"github.com/alexanderalber/spotify-playlist-manager/internal/models"
)

// MembershipRepository caches (playlist, song) pairs for playlists the user owns.
type MembershipRepository struct {
	db Querier
}

// NewMembershipRepository creates a new MembershipRepository with the given connection or transaction
func NewMembershipRepository(db Querier) *MembershipRepository {
	return &MembershipRepository{db: db}
}

// Add records that songID belongs to playlistID. Adding an existing pair is a no-op.
func (r *MembershipRepository) Add(playlistID, songID string) error {
	m := models.Membership{PlaylistID: playlistID, SongID: songID}
	if err := m.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	query := `INSERT OR IGNORE INTO playlist_songs (playlist_id, song_id) VALUES (?, ?)`
	if _, err := r.db.Exec(query, playlistID, songID); err != nil {
		return fmt.Errorf("failed to add song %s to playlist %s: %w", songID, playlistID, err)
	}
	return nil
}

// AddMany records every membership and returns how many pairs were given.
func (r *MembershipRepository) AddMany(memberships []models.Membership) (int, error) {
	for i, m := range memberships {
		if err := r.Add(m.PlaylistID, m.SongID); err != nil {
			return i, err
		}
	}
	return len(memberships), nil
}

// Remove deletes a membership and reports whether a row was removed.
func (r *MembershipRepository) Remove(playlistID, songID string) (bool, error) {
	result, err := r.db.Exec(`DELETE FROM playlist_songs WHERE playlist_id = ? AND song_id = ?`, playlistID, songID)
	if err != nil {
		return false, fmt.Errorf("failed to remove song %s from playlist %s: %w", songID, playlistID, err)
	}

	n, err := affected(result)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Exists reports whether songID is cached as a member of playlistID.
func (r *MembershipRepository) Exists(playlistID, songID string) (bool, error) {
	n, err := countRows(r.db, `SELECT COUNT(*) FROM playlist_songs WHERE playlist_id = ? AND song_id = ?`, playlistID, songID)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// List returns every cached membership ordered by playlist then song.
func (r *MembershipRepository) List() ([]models.Membership, error) {
	return r.query(`SELECT playlist_id, song_id FROM playlist_songs ORDER BY playlist_id, song_id`)
}

// ListForPlaylists returns the memberships of the given playlists.
func (r *MembershipRepository) ListForPlaylists(playlistIDs []string) ([]models.Membership, error) {
	if len(playlistIDs) == 0 {
		return nil, nil
	}

	query := fmt.Sprintf(
		`SELECT playlist_id, song_id FROM playlist_songs WHERE playlist_id IN (%s) ORDER BY playlist_id, song_id`,
		placeholders(len(playlistIDs)),
	)
	return r.query(query, toArgs(playlistIDs)...)
}

// Set loads the memberships of every playlist owned by ownerID into a lookup set.
func (r *MembershipRepository) Set(ownerID string) (models.MembershipSet, error) {
	memberships, err := r.query(`
		SELECT ps.playlist_id, ps.song_id
		FROM playlist_songs ps
		JOIN playlists p ON p.id = ps.playlist_id
		WHERE p.owner_id = ?
	`, ownerID)
	if err != nil {
		return nil, err
	}

	set := make(models.MembershipSet, len(memberships))
	for _, m := range memberships {
		set[m] = struct{}{}
	}
	return set, nil
}

// SongIDs returns the cached song IDs of one playlist.
func (r *MembershipRepository) SongIDs(playlistID string) (map[string]struct{}, error) {
	return keySet(r.db, `SELECT song_id FROM playlist_songs WHERE playlist_id = ?`, playlistID)
}

// ReconcilePlaylist deletes the cached members of playlistID that are absent from keep and returns them, sorted.
func (r *MembershipRepository) ReconcilePlaylist(playlistID string, keep map[string]struct{}) ([]string, error) {
	have, err := r.SongIDs(playlistID)
	if err != nil {
		return nil, err
	}

	removed := missing(have, keep)
	sort.Strings(removed)
	for _, songID := range removed {
		if _, err := r.Remove(playlistID, songID); err != nil {
			return nil, err
		}
	}
	return removed, nil
}

// PruneExcept deletes the memberships of every playlist not in keep and returns the row count removed.
func (r *MembershipRepository) PruneExcept(keep map[string]struct{}) (int, error) {
	have, err := keySet(r.db, `SELECT DISTINCT playlist_id FROM playlist_songs`)
	if err != nil {
		return 0, err
	}

	stale := missing(have, keep)
	sort.Strings(stale)
	return r.DeleteForPlaylists(stale)
}

// DeleteForPlaylists drops every membership of the given playlists and returns the row count removed.
func (r *MembershipRepository) DeleteForPlaylists(playlistIDs []string) (int, error) {
	if len(playlistIDs) == 0 {
		return 0, nil
	}

	query := fmt.Sprintf(`DELETE FROM playlist_songs WHERE playlist_id IN (%s)`, placeholders(len(playlistIDs)))
	result, err := r.db.Exec(query, toArgs(playlistIDs)...)
	if err != nil {
		return 0, fmt.Errorf("failed to delete memberships: %w", err)
	}
	return affected(result)
}

// PruneOrphans removes memberships whose playlist is no longer cached or is not owned by ownerID.
func (r *MembershipRepository) PruneOrphans(ownerID string) (int, error) {
	result, err := r.db.Exec(`
		DELETE FROM playlist_songs
		WHERE playlist_id NOT IN (SELECT id FROM playlists WHERE owner_id = ?)
	`, ownerID)
	if err != nil {
		return 0, fmt.Errorf("failed to prune memberships: %w", err)
	}
	return affected(result)
}

// Count returns the number of cached memberships.
func (r *MembershipRepository) Count() (int, error) {
	return countRows(r.db, `SELECT COUNT(*) FROM playlist_songs`)
}

func (r *MembershipRepository) query(query string, args ...any) ([]models.Membership, error) {
	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query memberships: %w", err)
	}
	defer rows.Close()

	var memberships []models.Membership
	for rows.Next() {
		var m models.Membership
		if err := rows.Scan(&m.PlaylistID, &m.SongID); err != nil {
			return nil, fmt.Errorf("failed to scan membership: %w", err)
		}
		memberships = append(memberships, m)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return memberships, nil
}
