// Package ui implements an interactive terminal browser for the cached library using bubbletea's Elm architecture.
//
// The TUI has two views:
//  1. [SongListView] : liked songs from the cache, newest first, with played songs marked
//  2. [MembershipView] : the owned playlists of the selected song, each with a check mark when the song is in it
//
// The (view) [Model] implements bubbletea/Elm's standard Init/Update/View pattern, receiving messages via the Msg union type.
// Every engine call runs as a [tea.Cmd] and reports back with a Msg, so the interface never blocks on the network.
// Refresh progress flows through a channel from the LibraryEngine.
//
// Keyboard: j/k or arrows move, enter opens the membership view, space toggles a membership, p plays, s stops,
// m marks played, r refreshes, esc goes back and q quits. Contextual help is displayed via charmbracelet/bubbles/help.
package ui
