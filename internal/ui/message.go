package ui

import (
	"github.com/alexanderalber/spotify-playlist-manager/internal/models"
	"github.com/alexanderalber/spotify-playlist-manager/internal/tasks"
	tea "github.com/charmbracelet/bubbletea"
)

// MsgKind enumerates all message types in the application.
type MsgKind int

// Msg represents all possible messages in the TUI (Elm-style message union).
type Msg struct {
	kind MsgKind
	data any
	err  error
}

var (
	_ tea.Msg = Msg{}
)

const (
	MsgIndexLoaded MsgKind = iota
	MsgToggled
	MsgPlayed
	MsgStopped
	MsgMarked
	MsgProgressUpdate
	MsgRefreshed
)

type toggled struct {
	songID     string
	playlistID string
	in         bool
}

// indexLoadedMsg is the constructor for [MsgIndexLoaded]
func indexLoadedMsg(index *tasks.Index, err error) Msg {
	return Msg{kind: MsgIndexLoaded, data: index, err: err}
}

// toggledMsg is the constructor for [MsgToggled]
func toggledMsg(songID, playlistID string, in bool, err error) Msg {
	return Msg{kind: MsgToggled, data: toggled{songID, playlistID, in}, err: err}
}

// playedMsg is the constructor for [MsgPlayed]
func playedMsg(song models.Song, device *models.Device, err error) Msg {
	return Msg{kind: MsgPlayed, data: struct {
		song   models.Song
		device *models.Device
	}{song, device}, err: err}
}

// stoppedMsg is the constructor for [MsgStopped]
func stoppedMsg(err error) Msg {
	return Msg{kind: MsgStopped, err: err}
}

// markedMsg is the constructor for [MsgMarked]
func markedMsg(songID string, err error) Msg {
	return Msg{kind: MsgMarked, data: songID, err: err}
}

// progressUpdateMsg is the constructor for [MsgProgressUpdate]
func progressUpdateMsg(update tasks.ProgressUpdate) Msg {
	return Msg{kind: MsgProgressUpdate, data: update}
}

// refreshedMsg is the constructor for [MsgRefreshed]
func refreshedMsg(run *models.SyncRun, err error) Msg {
	return Msg{kind: MsgRefreshed, data: run, err: err}
}
