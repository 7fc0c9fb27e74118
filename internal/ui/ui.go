package ui

import (
	"context"
	"fmt"
	"strings"

	"github.com/alexanderalber/spotify-playlist-manager/internal/models"
	"github.com/alexanderalber/spotify-playlist-manager/internal/tasks"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	SongListView ViewState = iota
	MembershipView
)

// Model represents the TUI application state.
type Model struct {
	ctx          context.Context
	view         ViewState
	engine       *tasks.LibraryEngine
	width        int
	height       int
	index        *tasks.Index
	songList     list.Model
	memberList   list.Model
	selected     *models.Song
	playing      string
	progressChan chan tasks.ProgressUpdate
	progress     tasks.ProgressUpdate
	status       string
	err          error
	fatal        error
	help         help.Model
	keys         keyMap
}

// NewModel creates a new TUI model around engine.
func NewModel(ctx context.Context, engine *tasks.LibraryEngine) *Model {
	return &Model{
		ctx:        ctx,
		view:       SongListView,
		engine:     engine,
		songList:   newList("Liked Songs", nil),
		memberList: newList("Playlists", nil),
		help:       help.New(),
		keys:       newKeyMap(),
	}
}

// Run starts the TUI in the alternate screen and blocks until it quits.
func Run(ctx context.Context, engine *tasks.LibraryEngine) error {
	m := NewModel(ctx, engine)
	if _, err := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx)).Run(); err != nil {
		return err
	}
	return m.fatal
}

func newList(title string, items []list.Item) list.Model {
	l := list.New(items, list.NewDefaultDelegate(), 0, 0)
	l.Title = title
	l.SetShowHelp(false)
	l.KeyMap.Quit.SetEnabled(false)
	return l
}

// Init initializes the TUI by loading the dashboard index.
func (m *Model) Init() tea.Cmd {
	return m.loadIndex()
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.songList.SetSize(msg.Width-4, msg.Height-8)
		m.memberList.SetSize(msg.Width-4, msg.Height-8)
		return m, nil

	case tea.KeyMsg:
		return m.handleKeys(msg)

	case Msg:
		return m.handleMsg(msg)
	}

	return m.updateLists(msg)
}

func (m *Model) handleMsg(msg Msg) (tea.Model, tea.Cmd) {
	switch msg.kind {
	case MsgIndexLoaded:
		if msg.err != nil {
			m.fatal = msg.err
			return m, tea.Quit
		}
		m.index = msg.data.(*tasks.Index)
		m.rebuildSongs()
		if m.view == MembershipView && m.selected != nil {
			m.rebuildMemberships()
		}
		return m, nil

	case MsgToggled:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		t := msg.data.(toggled)
		member := models.Membership{PlaylistID: t.playlistID, SongID: t.songID}
		if t.in {
			m.index.Memberships[member] = struct{}{}
			m.status = "Added to playlist"
		} else {
			delete(m.index.Memberships, member)
			m.status = "Removed from playlist"
		}
		m.err = nil
		m.rebuildMemberships()
		return m, nil

	case MsgPlayed:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		data := msg.data.(struct {
			song   models.Song
			device *models.Device
		})
		m.playing = data.song.ID
		m.err = nil
		m.status = fmt.Sprintf("▶ %s on %s", data.song.Name, data.device.Name)
		return m, nil

	case MsgStopped:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.playing = ""
		m.err = nil
		m.status = "■ Stopped"
		return m, nil

	case MsgMarked:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.index.Played[msg.data.(string)] = struct{}{}
		m.err = nil
		m.status = "Marked as played"
		m.rebuildSongs()
		return m, nil

	case MsgProgressUpdate:
		m.progress = msg.data.(tasks.ProgressUpdate)
		m.status = m.progress.Message
		return m, waitForProgress(m.progressChan)

	case MsgRefreshed:
		if m.progressChan != nil {
			close(m.progressChan)
			m.progressChan = nil
		}
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		run := msg.data.(*models.SyncRun)
		m.err = nil
		m.status = fmt.Sprintf("Refreshed: %d songs, %d playlists, %d removed",
			run.LikedCount, run.PlaylistCount, run.RemovedCount)
		return m, m.loadIndex()
	}
	return m, nil
}

func (m *Model) handleKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.activeList().FilterState() == list.Filtering {
		return m.updateLists(msg)
	}

	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.refresh):
		if m.progressChan != nil {
			return m, nil
		}
		m.status = "Refreshing..."
		return m, m.refresh()
	case key.Matches(msg, m.keys.stop):
		return m, m.stop()
	}

	song := m.currentSong()
	switch m.view {
	case SongListView:
		switch {
		case key.Matches(msg, m.keys.enter):
			if song == nil {
				return m, nil
			}
			m.selected = song
			m.rebuildMemberships()
			m.view = MembershipView
			return m, nil
		case key.Matches(msg, m.keys.play):
			return m, m.play(song)
		case key.Matches(msg, m.keys.played):
			return m, m.markPlayed(song)
		}

	case MembershipView:
		switch {
		case key.Matches(msg, m.keys.back):
			m.view = SongListView
			m.selected = nil
			return m, nil
		case key.Matches(msg, m.keys.toggle):
			item, ok := m.memberList.SelectedItem().(membershipItem)
			if !ok || m.selected == nil {
				return m, nil
			}
			return m, m.toggle(m.selected.ID, item.playlist.ID)
		case key.Matches(msg, m.keys.play):
			return m, m.play(m.selected)
		case key.Matches(msg, m.keys.played):
			return m, m.markPlayed(m.selected)
		}
	}

	return m.updateLists(msg)
}

func (m *Model) activeList() *list.Model {
	if m.view == MembershipView {
		return &m.memberList
	}
	return &m.songList
}

func (m *Model) updateLists(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	if m.view == MembershipView {
		m.memberList, cmd = m.memberList.Update(msg)
	} else {
		m.songList, cmd = m.songList.Update(msg)
	}
	return m, cmd
}

// currentSong returns the song under the cursor of the song list.
func (m *Model) currentSong() *models.Song {
	item, ok := m.songList.SelectedItem().(songItem)
	if !ok {
		return nil
	}
	return &item.song
}

func (m *Model) rebuildSongs() {
	if m.index == nil {
		return
	}
	items := make([]list.Item, len(m.index.Songs))
	for i, s := range m.index.Songs {
		items[i] = songItem{song: *s, played: m.index.IsPlayed(s.ID)}
	}
	m.songList.SetItems(items)
	m.songList.Title = fmt.Sprintf("Liked Songs (%d)", len(items))
}

// rebuildMemberships lists the owned playlists, skipping the liked songs pseudo-playlist.
func (m *Model) rebuildMemberships() {
	if m.index == nil || m.selected == nil {
		return
	}
	var items []list.Item
	for _, p := range m.index.Playlists {
		if p.ID == models.LikedSongsPlaylistID {
			continue
		}
		items = append(items, membershipItem{playlist: p, in: m.index.InPlaylist(m.selected.ID, p.ID)})
	}
	m.memberList.SetItems(items)
	m.memberList.Title = fmt.Sprintf("Playlists of %s", m.selected.Name)
}

func (m *Model) loadIndex() tea.Cmd {
	return func() tea.Msg {
		index, err := m.engine.IndexData(m.ctx)
		return indexLoadedMsg(index, err)
	}
}

func (m *Model) toggle(songID, playlistID string) tea.Cmd {
	return func() tea.Msg {
		in, err := m.engine.ToggleMembership(m.ctx, songID, playlistID)
		return toggledMsg(songID, playlistID, in, err)
	}
}

func (m *Model) play(song *models.Song) tea.Cmd {
	if song == nil {
		return nil
	}
	s := *song
	return func() tea.Msg {
		device, err := m.engine.Play(m.ctx, s.ID)
		return playedMsg(s, device, err)
	}
}

func (m *Model) stop() tea.Cmd {
	return func() tea.Msg {
		return stoppedMsg(m.engine.Stop(m.ctx))
	}
}

func (m *Model) markPlayed(song *models.Song) tea.Cmd {
	if song == nil {
		return nil
	}
	id := song.ID
	return func() tea.Msg {
		_, err := m.engine.MarkPlayed(id)
		return markedMsg(id, err)
	}
}

func (m *Model) refresh() tea.Cmd {
	m.progressChan = make(chan tasks.ProgressUpdate, 32)
	ch := m.progressChan
	return tea.Batch(
		func() tea.Msg {
			run, err := m.engine.Refresh(m.ctx, ch)
			return refreshedMsg(run, err)
		},
		waitForProgress(ch),
	)
}

// waitForProgress receives the next update; it yields nothing once the channel is closed.
func waitForProgress(ch <-chan tasks.ProgressUpdate) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		update, ok := <-ch
		if !ok {
			return nil
		}
		return progressUpdateMsg(update)
	}
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	if m.fatal != nil {
		return styles.err.Render(fmt.Sprintf("Error: %v\n\nPress q to quit", m.fatal))
	}
	if m.index == nil {
		return styles.help.Render("Loading library...")
	}

	var b strings.Builder
	switch m.view {
	case MembershipView:
		b.WriteString(m.memberList.View())
	default:
		b.WriteString(m.songList.View())
	}
	b.WriteString("\n")
	b.WriteString(m.renderStatus())
	b.WriteString("\n")
	b.WriteString(m.help.View(m.keys))
	return b.String()
}

func (m *Model) renderStatus() string {
	if m.err != nil {
		return styles.err.Render("✗ " + m.err.Error())
	}
	if m.status == "" {
		return ""
	}
	if m.progressChan != nil {
		return styles.warn.Render(m.status)
	}
	return styles.ok.Render(m.status)
}
