package services

import (
	"context"

	"github.com/alexanderalber/spotify-playlist-manager/internal/models"
	"golang.org/x/oauth2"
)

// Service defines the remote library operations of a music provider.
type Service interface {
	// Authenticate supplies credentials, either an "access_token" (optionally with "refresh_token") or an "auth_code".
	Authenticate(ctx context.Context, credentials map[string]string) error

	// CurrentUserID returns the ID of the authenticated user.
	CurrentUserID(ctx context.Context) (string, error)

	// LikedSongs returns every saved track, in the order the API returns them.
	LikedSongs(ctx context.Context) ([]models.Song, error)

	// Playlists returns every playlist the user owns or follows.
	Playlists(ctx context.Context) ([]models.Playlist, error)

	// PlaylistTracks returns every available track of a playlist.
	PlaylistTracks(ctx context.Context, playlistID string) ([]Track, error)

	// AddToPlaylist appends a track to a playlist.
	AddToPlaylist(ctx context.Context, playlistID, songID string) error

	// RemoveFromPlaylist removes every occurrence of a track from a playlist.
	RemoveFromPlaylist(ctx context.Context, playlistID, songID string) error

	// Like saves a track to the user's library.
	Like(ctx context.Context, songID string) error

	// Unlike removes a track from the user's library.
	Unlike(ctx context.Context, songID string) error

	// Name returns the name of the service
	Name() string
}

// Player controls playback on the user's Spotify Connect devices.
type Player interface {
	Devices(ctx context.Context) ([]models.Device, error)
	Play(ctx context.Context, deviceID, songID string) error
	Pause(ctx context.Context) error
	// CurrentPlayback returns nil when nothing is loaded in the player.
	CurrentPlayback(ctx context.Context) (*models.Playback, error)
	Seek(ctx context.Context, positionMs int) error
}

// OAuthService is a [Service] that authenticates with the OAuth2 authorization code flow.
type OAuthService interface {
	Service

	GetAuthURL(state string) string
	GetOAuthConfig() *oauth2.Config
	Exchange(ctx context.Context, code string) (*oauth2.Token, error)
	OAuthenticate(ctx context.Context, token *oauth2.Token) error
	Token() (*oauth2.Token, error)
	SetTokenRefreshCallback(fn func(*oauth2.Token))
}

// Track is a playlist entry as returned by the provider.
type Track struct {
	ID         string
	Name       string
	Artist     string
	AddedAt    string
	DurationMs int
}
