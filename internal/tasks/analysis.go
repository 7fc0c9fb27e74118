package tasks

import (
	"context"

	"github.com/alexanderalber/spotify-playlist-manager/internal/models"
)

// Analyze pivots the cached liked songs against the owned playlists into a membership matrix.
//
// Songs are ordered by added_at descending and playlists by name. Nothing is fetched besides the user ID,
// so the matrix reflects the last sync.
func (e *LibraryEngine) Analyze(ctx context.Context, progress chan<- ProgressUpdate) (*models.Analysis, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}

	userID, err := e.CurrentUserID(ctx)
	if err != nil {
		return nil, err
	}

	songs, err := e.store.Songs.List()
	if err != nil {
		return nil, err
	}

	playlists, err := e.store.Playlists.ListOwned(userID)
	if err != nil {
		return nil, err
	}

	members, err := e.store.Memberships.Set(userID)
	if err != nil {
		return nil, err
	}

	analysis := &models.Analysis{Rows: make([]models.AnalysisRow, 0, len(songs))}
	for _, p := range playlists {
		analysis.Playlists = append(analysis.Playlists, *p)
	}

	for _, song := range songs {
		row := models.AnalysisRow{Song: *song, InLists: make([]bool, len(analysis.Playlists))}
		for i, p := range analysis.Playlists {
			row.InLists[i] = members.Has(song.ID, p.ID)
		}
		analysis.Rows = append(analysis.Rows, row)
	}

	e.sendProgress(progress, analyzeUpdate(len(analysis.Rows), len(analysis.Playlists)))
	return analysis, nil
}
