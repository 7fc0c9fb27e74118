package ui

import (
	"fmt"

	"github.com/alexanderalber/spotify-playlist-manager/internal/models"
	"github.com/charmbracelet/bubbles/list"
)

var (
	_ list.Item = songItem{}
	_ list.Item = membershipItem{}
)

// songItem wraps [models.Song] to implement [list.Item].
type songItem struct {
	song   models.Song
	played bool
}

func (i songItem) FilterValue() string { return i.song.Name + " " + i.song.Artist }
func (i songItem) Title() string {
	if i.played {
		return styles.played.Render("● " + i.song.Name)
	}
	return i.song.Name
}
func (i songItem) Description() string {
	if len(i.song.AddedAt) >= 10 {
		return fmt.Sprintf("%s • %s", i.song.Artist, i.song.AddedAt[:10])
	}
	return i.song.Artist
}

// membershipItem wraps an owned [models.Playlist] and whether the selected song is in it.
type membershipItem struct {
	playlist models.Playlist
	in       bool
}

func (i membershipItem) FilterValue() string { return i.playlist.Name }
func (i membershipItem) Title() string {
	if i.in {
		return "[✓] " + i.playlist.Name
	}
	return "[ ] " + i.playlist.Name
}
func (i membershipItem) Description() string { return i.playlist.ID }
