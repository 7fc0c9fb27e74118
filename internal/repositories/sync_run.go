package repositories

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/alexanderalber/spotify-playlist-manager/internal/models"
	"github.com/alexanderalber/spotify-playlist-manager/internal/shared"
)

// SyncRunRepository tracks refresh, cleanup and backup runs.
//
// Runs are created in [models.SyncRunning] and updated once when they finish.
type SyncRunRepository struct {
	db Querier
}

// NewSyncRunRepository creates a new SyncRunRepository with the given connection or transaction
func NewSyncRunRepository(db Querier) *SyncRunRepository {
	return &SyncRunRepository{db: db}
}

const syncRunColumns = `id, kind, status, liked_count, playlist_count, membership_count,
	removed_count, error_message, started_at, finished_at`

// Create inserts a new run, generating its ID when empty
func (r *SyncRunRepository) Create(run *models.SyncRun) error {
	if run.ID == "" {
		run.ID = shared.GenerateID()
	}
	if run.Status == "" {
		run.Status = models.SyncRunning
	}

	if err := run.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	query := `
		INSERT INTO sync_runs (` + syncRunColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.Exec(query,
		run.ID,
		string(run.Kind),
		string(run.Status),
		run.LikedCount,
		run.PlaylistCount,
		run.MembershipCount,
		run.RemovedCount,
		nullString(run.ErrorMessage),
		run.StartedAt.UTC(),
		nullTime(run),
	)
	if err != nil {
		return fmt.Errorf("failed to insert sync run: %w", err)
	}
	return nil
}

// Update writes the status, counters and finish time of an existing run
func (r *SyncRunRepository) Update(run *models.SyncRun) error {
	if err := run.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	query := `
		UPDATE sync_runs
		SET status = ?, liked_count = ?, playlist_count = ?, membership_count = ?,
			removed_count = ?, error_message = ?, finished_at = ?
		WHERE id = ?
	`

	result, err := r.db.Exec(query,
		string(run.Status),
		run.LikedCount,
		run.PlaylistCount,
		run.MembershipCount,
		run.RemovedCount,
		nullString(run.ErrorMessage),
		nullTime(run),
		run.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update sync run: %w", err)
	}

	n, err := affected(result)
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: sync run %s", shared.ErrNotFound, run.ID)
	}
	return nil
}

// Get retrieves a run by ID
func (r *SyncRunRepository) Get(id string) (*models.SyncRun, error) {
	row := r.db.QueryRow(`SELECT `+syncRunColumns+` FROM sync_runs WHERE id = ?`, id)
	return r.scanOne(row)
}

// Latest returns the most recently started run of the given kind
func (r *SyncRunRepository) Latest(kind models.SyncKind) (*models.SyncRun, error) {
	row := r.db.QueryRow(
		`SELECT `+syncRunColumns+` FROM sync_runs WHERE kind = ? ORDER BY started_at DESC LIMIT 1`,
		string(kind),
	)
	return r.scanOne(row)
}

// List returns runs newest first. A limit of zero or less returns every run.
func (r *SyncRunRepository) List(limit int) ([]*models.SyncRun, error) {
	query := `SELECT ` + syncRunColumns + ` FROM sync_runs ORDER BY started_at DESC`
	var args []any
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query sync runs: %w", err)
	}
	defer rows.Close()

	var runs []*models.SyncRun
	for rows.Next() {
		run, err := r.scanRow(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return runs, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func (r *SyncRunRepository) scan(s scanner) (*models.SyncRun, error) {
	var run models.SyncRun
	var kind, status string
	var errorMessage sql.NullString
	var finishedAt sql.NullTime

	err := s.Scan(
		&run.ID,
		&kind,
		&status,
		&run.LikedCount,
		&run.PlaylistCount,
		&run.MembershipCount,
		&run.RemovedCount,
		&errorMessage,
		&run.StartedAt,
		&finishedAt,
	)
	if err != nil {
		return nil, err
	}

	run.Kind = models.SyncKind(kind)
	run.Status = models.SyncStatus(status)
	if errorMessage.Valid {
		run.ErrorMessage = errorMessage.String
	}
	if finishedAt.Valid {
		t := finishedAt.Time
		run.FinishedAt = &t
	}
	return &run, nil
}

// scanOne scans a single row into a [models.SyncRun]
func (r *SyncRunRepository) scanOne(row *sql.Row) (*models.SyncRun, error) {
	run, err := r.scan(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: sync run", shared.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan sync run: %w", err)
	}
	return run, nil
}

// scanRow scans a row from [sql.Rows] into a [models.SyncRun]
func (r *SyncRunRepository) scanRow(rows *sql.Rows) (*models.SyncRun, error) {
	run, err := r.scan(rows)
	if err != nil {
		return nil, fmt.Errorf("failed to scan sync run: %w", err)
	}
	return run, nil
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func nullTime(run *models.SyncRun) any {
	if run.FinishedAt == nil {
		return nil
	}
	return run.FinishedAt.UTC()
}
