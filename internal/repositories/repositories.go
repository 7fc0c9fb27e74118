package repositories

import (
	"database/sql"
	"fmt"
	"strings"
)

// Querier is the subset of [sql.DB] and [sql.Tx] used by repositories.
type Querier interface {
	Exec(query string, args ...any) (sql.Result, error)
	Query(query string, args ...any) (*sql.Rows, error)
	QueryRow(query string, args ...any) *sql.Row
}

// Store groups every cache repository over one [Querier].
type Store struct {
	db *sql.DB

	Songs       *SongRepository
	Playlists   *PlaylistRepository
	Memberships *MembershipRepository
	Played      *PlayedRepository
	Runs        *SyncRunRepository
}

// NewStore creates a Store backed by db.
func NewStore(db *sql.DB) *Store {
	s := newStore(db)
	s.db = db
	return s
}

func newStore(q Querier) *Store {
	return &Store{
		Songs:       NewSongRepository(q),
		Playlists:   NewPlaylistRepository(q),
		Memberships: NewMembershipRepository(q),
		Played:      NewPlayedRepository(q),
		Runs:        NewSyncRunRepository(q),
	}
}

// DB returns the underlying database, or nil for a Store bound to a transaction.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Tx runs fn with a Store bound to a single transaction, committing when fn returns nil.
//
// Calling Tx on a transaction-bound Store runs fn inside the existing transaction.
func (s *Store) Tx(fn func(tx *Store) error) error {
	if s.db == nil {
		return fn(s)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(newStore(tx)); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// placeholders returns "?, ?, ?" for n arguments.
func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

func toArgs(ids []string) []any {
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	return args
}

// keySet runs a single-column query and collects the values into a set.
func keySet(q Querier, query string, args ...any) (map[string]struct{}, error) {
	rows, err := q.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query keys: %w", err)
	}
	defer rows.Close()

	keys := make(map[string]struct{})
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, fmt.Errorf("failed to scan key: %w", err)
		}
		keys[key] = struct{}{}
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return keys, nil
}

// missing returns the keys of have that are absent from keep.
func missing(have, keep map[string]struct{}) []string {
	var out []string
	for key := range have {
		if _, ok := keep[key]; !ok {
			out = append(out, key)
		}
	}
	return out
}

func countRows(q Querier, query string, args ...any) (int, error) {
	var n int
	if err := q.QueryRow(query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count rows: %w", err)
	}
	return n, nil
}

func affected(result sql.Result) (int, error) {
	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get affected rows: %w", err)
	}
	return int(rows), nil
}
