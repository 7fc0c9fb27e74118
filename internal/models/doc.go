// Package models defines the entities mirrored from the user's Spotify library and the persistence interfaces used
// by the SQLite cache.
//
// Cached entities:
//   - [Song] : a liked song (id, name, first artist, added timestamp)
//   - [Playlist] : a playlist visible to the user with its owner id
//   - [Membership] : a (playlist, song) pair, kept only for playlists the user owns
//   - [PlayedEntry] : an append-only local note that a song was played from the dashboard
//   - [SyncRun] : the outcome of a refresh, cleanup or backup run
//
// Remote-only values:
//   - [Device] and [Playback] : player state
//   - [Backup] and [Analysis] : export documents built from the remote library or the cache
//
// Cached entities implement [Model]; repositories implement [Repository].
package models
