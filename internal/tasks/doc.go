// Package tasks orchestrates the local cache and the remote Spotify library with real-time progress reporting.
//
// # Core Operations
//
// [LibraryEngine] owns every operation that touches both sides:
//
//  1. [LibraryEngine.Refresh] : full synchronization
//     - Fetches a complete [Snapshot] (user, liked songs, playlists, owned playlist tracks)
//     - Deletes cached rows absent remotely, then upserts liked songs, playlists and memberships
//     - Commits everything in one transaction and records a sync run
//
//  2. [LibraryEngine.ToggleMembership] : add or remove a song from an owned playlist
//     - The cache decides the direction; the remote call happens first
//     - A remote failure leaves the cache untouched
//
//  3. [LibraryEngine.Backup] : JSON backup of every playlist
//     - Tracks are fetched by a rate limited worker pool
//
//  4. [LibraryEngine.Analyze] : liked songs × owned playlists membership matrix
//
// # Snapshots
//
// Remote data is fetched in full before any write. A failure while paging leaves the cache as it was.
//
// # Progress Reporting
//
// # All operations use non-blocking channels for progress updates
//
// The [ProgressUpdate] struct contains phase, step counters, messages, and optional data for advanced UI rendering.
// Updates use select with default to prevent blocking.
package tasks
