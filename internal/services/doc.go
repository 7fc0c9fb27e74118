// Package services defines the remote catalog and player interfaces and implements them for Spotify.
//
// # Service Interface
//
// [Service] covers the library: the current user, liked songs, playlists and their tracks, and the
// membership mutations (add, remove, like, unlike). [Player] covers Spotify Connect playback.
//
// # Spotify Implementation
//
// [SpotifyService] wraps the zmb3/spotify client. Every listing follows pagination to the last page.
// Tracks that are unavailable or that are podcast episodes come back without a track object and are skipped.
//
// # OAuth Service Extension
//
// [OAuthService] extends Service for the server-side authorization code flow used by the CLI and the dashboard.
// Tokens are refreshed by [oauth2]; a callback registered with SetTokenRefreshCallback receives every new token
// so it can be written back to the config file.
//
// # Error Handling
//
// Services use typed errors from shared package:
//   - [shared.ErrNotAuthenticated] : no token has been supplied yet
//   - [shared.ErrTokenExpired] : Spotify answered 401 or the refresh failed, reauthorization needed
//   - [shared.ErrPlaylistNotFound] : Spotify answered 404 for a playlist
//   - [shared.ErrAPIRequest] : any other remote failure
package services
