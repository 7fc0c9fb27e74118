package repositories

import (
	"fmt"
	"time"

	"github.com/alexanderalber/spotify-playlist-manager/internal/models"
	"github.com/alexanderalber/spotify-playlist-manager/internal/shared"
)

// PlayedRepository stores the local play history. Entries are never reconciled against Spotify.
type PlayedRepository struct {
	db Querier
}

// NewPlayedRepository creates a new PlayedRepository with the given connection or transaction
func NewPlayedRepository(db Querier) *PlayedRepository {
	return &PlayedRepository{db: db}
}

// Record appends a play of songID at the given time.
func (r *PlayedRepository) Record(songID string, at time.Time) (*models.PlayedEntry, error) {
	entry := &models.PlayedEntry{ID: shared.GenerateID(), SongID: songID, PlayedAt: at.UTC()}
	if err := entry.Validate(); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	query := `INSERT INTO played_history (id, song_id, played_at) VALUES (?, ?, ?)`
	if _, err := r.db.Exec(query, entry.ID, entry.SongID, entry.PlayedAt); err != nil {
		return nil, fmt.Errorf("failed to record play of %s: %w", songID, err)
	}
	return entry, nil
}

// PlayedSet returns the IDs of every song played at least once.
func (r *PlayedRepository) PlayedSet() (map[string]struct{}, error) {
	return keySet(r.db, `SELECT DISTINCT song_id FROM played_history`)
}

// List returns the most recent plays first. A limit of zero or less returns every entry.
func (r *PlayedRepository) List(limit int) ([]*models.PlayedEntry, error) {
	query := `SELECT id, song_id, played_at FROM played_history ORDER BY played_at DESC, id`
	var args []any
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query played history: %w", err)
	}
	defer rows.Close()

	var entries []*models.PlayedEntry
	for rows.Next() {
		var e models.PlayedEntry
		if err := rows.Scan(&e.ID, &e.SongID, &e.PlayedAt); err != nil {
			return nil, fmt.Errorf("failed to scan played entry: %w", err)
		}
		entries = append(entries, &e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return entries, nil
}

// Count returns the number of recorded plays.
func (r *PlayedRepository) Count() (int, error) {
	return countRows(r.db, `SELECT COUNT(*) FROM played_history`)
}
