package main

import (
	"context"

	"github.com/urfave/cli/v3"
)

// LibrarySongs lists cached liked songs, newest first.
func (r *Runner) LibrarySongs(ctx context.Context, cmd *cli.Command) error {
	if err := r.load(cmd); err != nil {
		return err
	}
	store, err := r.openStore()
	if err != nil {
		return err
	}

	songs, err := store.Songs.List()
	if err != nil {
		return err
	}
	if cmd.Bool("json") {
		return r.writeJSON(songs, cmd.Bool("pretty"))
	}

	r.writePlain("Found %d liked songs:\n\n", len(songs))
	for i, s := range songs {
		r.writePlain("%d. %s - %s\n", i+1, s.Artist, s.Name)
		r.writePlain("   ID: %s  Added: %s\n", s.ID, s.AddedAt)
	}
	return nil
}

// LibraryPlaylists lists cached playlists.
func (r *Runner) LibraryPlaylists(ctx context.Context, cmd *cli.Command) error {
	if err := r.load(cmd); err != nil {
		return err
	}
	store, err := r.openStore()
	if err != nil {
		return err
	}

	playlists, err := store.Playlists.List()
	if err != nil {
		return err
	}
	if cmd.Bool("json") {
		return r.writeJSON(playlists, cmd.Bool("pretty"))
	}

	r.writePlain("Found %d playlists:\n\n", len(playlists))
	for i, p := range playlists {
		r.writePlain("%d. %s\n", i+1, p.Name)
		r.writePlain("   ID: %s\n", p.ID)
		r.writePlain("   Owner: %s\n", p.OwnerID)
		r.writePlain("   Tracks: %d\n\n", p.TrackCount)
	}
	return nil
}

// LibraryPlayed lists the most recent play history entries.
func (r *Runner) LibraryPlayed(ctx context.Context, cmd *cli.Command) error {
	if err := r.load(cmd); err != nil {
		return err
	}
	store, err := r.openStore()
	if err != nil {
		return err
	}

	entries, err := store.Played.List(cmd.Int("limit"))
	if err != nil {
		return err
	}
	if cmd.Bool("json") {
		return r.writeJSON(entries, cmd.Bool("pretty"))
	}

	r.writePlain("Found %d played entries:\n\n", len(entries))
	for _, e := range entries {
		name := e.SongID
		if song, err := store.Songs.Get(e.SongID); err == nil && song != nil {
			name = song.Artist + " - " + song.Name
		}
		r.writePlain("%s  %s\n", e.PlayedAt.Local().Format("2006-01-02 15:04:05"), name)
	}
	return nil
}
