// Package repositories implements the SQLite cache of the user's Spotify library.
//
// Key Implementations:
//   - [SongRepository] : liked songs, ordered newest first
//   - [PlaylistRepository] : every visible playlist with its owner
//   - [MembershipRepository] : (playlist, song) pairs of owned playlists
//   - [PlayedRepository] : append-only local play history
//   - [SyncRunRepository] : refresh, cleanup and backup run records
//
// Repositories accept a [Querier], so the same code runs against a [*sql.DB] or inside a transaction.
// [Store] bundles every repository and exposes [Store.Tx] for multi-table writes such as a full refresh.
//
// Reconciliation is a full set difference: rows whose key is absent from the freshly fetched remote set are deleted.
// Membership rows are not guarded by foreign keys; [MembershipRepository.PruneOrphans] keeps them consistent.
package repositories
