package main

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/alexanderalber/spotify-playlist-manager/internal/shared"
	"github.com/urfave/cli/v3"
)

// PlayerPlay plays a song on the active device, or the first available one.
func (r *Runner) PlayerPlay(ctx context.Context, cmd *cli.Command) error {
	songID := cmd.StringArg("id")
	if songID == "" {
		return fmt.Errorf("%w: song id", shared.ErrMissingArgument)
	}

	engine, err := r.engine(ctx, cmd)
	if err != nil {
		return err
	}

	device, err := engine.Play(ctx, songID)
	if err != nil {
		return err
	}

	name := songID
	if song, err := engine.Store().Songs.Get(songID); err == nil {
		name = song.Artist + " - " + song.Name
	}
	return r.writePlain("▶ Playing %s on %s (%s)\n", name, device.Name, device.Type)
}

// PlayerStop pauses playback.
func (r *Runner) PlayerStop(ctx context.Context, cmd *cli.Command) error {
	engine, err := r.engine(ctx, cmd)
	if err != nil {
		return err
	}
	if err := engine.Stop(ctx); err != nil {
		return err
	}
	return r.writePlain("■ Playback stopped\n")
}

// PlayerSeek moves the playhead by a relative offset in milliseconds.
func (r *Runner) PlayerSeek(ctx context.Context, cmd *cli.Command) error {
	arg := cmd.StringArg("offset")
	if arg == "" {
		return fmt.Errorf("%w: offset in milliseconds", shared.ErrMissingArgument)
	}
	offset, err := strconv.Atoi(arg)
	if err != nil {
		return fmt.Errorf("%w: offset %q is not a number", shared.ErrInvalidArgument, arg)
	}

	engine, err := r.engine(ctx, cmd)
	if err != nil {
		return err
	}

	position, err := engine.Seek(ctx, offset)
	if err != nil {
		return err
	}
	return r.writePlain("⏩ Position %s\n", formatMs(position))
}

// PlayerStatus prints the current playback state.
func (r *Runner) PlayerStatus(ctx context.Context, cmd *cli.Command) error {
	engine, err := r.engine(ctx, cmd)
	if err != nil {
		return err
	}

	playback, err := engine.PlaybackStatus(ctx)
	if err != nil {
		return err
	}
	if cmd.Bool("json") {
		return r.writeJSON(playback, false)
	}

	if playback.SongID == "" {
		return r.writePlain("Nothing is playing\n")
	}

	state := "Paused"
	if playback.IsPlaying {
		state = "Playing"
	}
	r.writePlain("%s: %s\n", state, playback.SongID)
	return r.writePlain("  %s / %s\n", formatMs(playback.ProgressMs), formatMs(playback.DurationMs))
}

// formatMs renders milliseconds as m:ss.
func formatMs(ms int) string {
	d := time.Duration(ms) * time.Millisecond
	return fmt.Sprintf("%d:%02d", int(d.Minutes()), int(d.Seconds())%60)
}
