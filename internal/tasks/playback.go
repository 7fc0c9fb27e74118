package tasks

import (
	"context"
	"fmt"

	"github.com/alexanderalber/spotify-playlist-manager/internal/models"
	"github.com/alexanderalber/spotify-playlist-manager/internal/shared"
)

func (e *LibraryEngine) playerReady() error {
	if e.player == nil {
		return fmt.Errorf("%w: player not initialized", shared.ErrServiceUnavailable)
	}
	return nil
}

// pickDevice returns the active device, otherwise the first one.
func pickDevice(devices []models.Device) (models.Device, bool) {
	if len(devices) == 0 {
		return models.Device{}, false
	}
	for _, d := range devices {
		if d.Active {
			return d, true
		}
	}
	return devices[0], true
}

// Play starts songID on the active device, falling back to the first available device.
func (e *LibraryEngine) Play(ctx context.Context, songID string) (*models.Device, error) {
	if err := e.playerReady(); err != nil {
		return nil, err
	}
	if songID == "" {
		return nil, fmt.Errorf("%w: song_id", shared.ErrMissingArgument)
	}

	devices, err := e.player.Devices(ctx)
	if err != nil {
		return nil, err
	}

	device, ok := pickDevice(devices)
	if !ok {
		return nil, shared.ErrNoDevices
	}

	if err := e.player.Play(ctx, device.ID, songID); err != nil {
		return nil, err
	}

	e.logger.Info("playing song", "song", songID, "device", device.Name)
	return &device, nil
}

// Stop pauses playback.
func (e *LibraryEngine) Stop(ctx context.Context) error {
	if err := e.playerReady(); err != nil {
		return err
	}
	return e.player.Pause(ctx)
}

// Seek moves the playhead by offsetMs relative to the current position, clamped to the track bounds,
// and returns the new position.
func (e *LibraryEngine) Seek(ctx context.Context, offsetMs int) (int, error) {
	if err := e.playerReady(); err != nil {
		return 0, err
	}

	current, err := e.player.CurrentPlayback(ctx)
	if err != nil {
		return 0, err
	}
	if current == nil {
		return 0, shared.ErrNoActivePlayback
	}

	position := max(0, min(current.ProgressMs+offsetMs, current.DurationMs))
	if err := e.player.Seek(ctx, position); err != nil {
		return 0, err
	}
	return position, nil
}

// PlaybackStatus returns the player state; the zero value when nothing is playing.
func (e *LibraryEngine) PlaybackStatus(ctx context.Context) (models.Playback, error) {
	if err := e.playerReady(); err != nil {
		return models.Playback{}, err
	}

	current, err := e.player.CurrentPlayback(ctx)
	if err != nil {
		return models.Playback{}, err
	}
	if current == nil {
		return models.Playback{}, nil
	}
	return *current, nil
}
