// Package web serves the spm dashboard: a songs × playlists grid with membership toggles, playback controls and
// a JSON API used by the page's script.
//
// # Authentication
//
// The dashboard is single-user. GET /login redirects to the Spotify authorization URL with a fresh state, and the
// callback exchanges the code, authenticates the service and hands the token to [Options.SaveToken] so it
// survives restarts. Every API route answers 401 {"error":"Not authenticated"} while no token is available.
//
// # Routes
//
//	GET  /                      → library grid, or redirect to /login
//	GET  /login                 → authorization redirect
//	GET  /callback              → token exchange, redirect to /
//	POST /api/toggle_playlist   → {song_id, playlist_id} → {status, in_playlist}
//	POST /api/stop              → pause playback
//	POST /api/play              → {song_id}
//	POST /api/mark_played       → {song_id}
//	POST /api/refresh           → full refresh
//	POST /api/seek              → {position_ms} relative → {status, new_position}
//	POST /api/like_song         → {song_id}
//	POST /api/unlike_song       → {song_id}
//	GET  /api/playback_status   → {is_playing, progress_ms, duration_ms}
//	POST /api/backup            → {status, file, summary}
//	GET  /api/analysis.csv      → CSV download
//	GET  /api/analysis.xlsx     → Excel download
//
// # Errors
//
// Handlers return errors and [statusFor] maps the shared sentinels to HTTP statuses, so the mapping lives in one
// place. Malformed JSON bodies answer 400.
package web
