// Spotify Web API implementation of [Service] and [Player]
package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"github.com/alexanderalber/spotify-playlist-manager/internal/models"
	"github.com/alexanderalber/spotify-playlist-manager/internal/shared"
	"github.com/zmb3/spotify/v2"
	spotifyauth "github.com/zmb3/spotify/v2/auth"
	"golang.org/x/oauth2"
)

const (
	defaultRedirectURI = "http://localhost:8888/callback"
	pageLimit          = 50
)

// Scopes requested during authorization.
var Scopes = []string{
	spotifyauth.ScopeUserLibraryRead,
	spotifyauth.ScopeUserLibraryModify,
	spotifyauth.ScopePlaylistReadPrivate,
	spotifyauth.ScopePlaylistReadCollaborative,
	spotifyauth.ScopePlaylistModifyPublic,
	spotifyauth.ScopePlaylistModifyPrivate,
	spotifyauth.ScopeStreaming,
	spotifyauth.ScopeUserReadPlaybackState,
	spotifyauth.ScopeUserModifyPlaybackState,
}

var (
	_ OAuthService = (*SpotifyService)(nil)
	_ Player       = (*SpotifyService)(nil)
)

// SpotifyService implements [Service], [Player] and [OAuthService] on top of the zmb3/spotify client.
type SpotifyService struct {
	config         *oauth2.Config
	opts           []spotify.ClientOption
	credentials    map[string]string
	onTokenRefresh func(*oauth2.Token)

	mu     sync.RWMutex
	token  *oauth2.Token
	source *refreshableTokenSource
	client *spotify.Client
}

// NewSpotifyService creates a new Spotify service with the given OAuth2 credentials.
//
// Client options are passed to [spotify.New] when the service authenticates.
func NewSpotifyService(credentials map[string]string, opts ...spotify.ClientOption) (*SpotifyService, error) {
	clientID, ok := credentials["client_id"]
	if !ok || clientID == "" {
		return nil, fmt.Errorf("%w: missing client_id", shared.ErrMissingCredentials)
	}

	clientSecret, ok := credentials["client_secret"]
	if !ok || clientSecret == "" {
		return nil, fmt.Errorf("%w: missing client_secret", shared.ErrMissingCredentials)
	}

	redirectURI, ok := credentials["redirect_uri"]
	if !ok || redirectURI == "" {
		redirectURI = defaultRedirectURI
	}

	config := &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  redirectURI,
		Scopes:       Scopes,
		Endpoint: oauth2.Endpoint{
			AuthURL:  spotifyauth.AuthURL,
			TokenURL: spotifyauth.TokenURL,
		},
	}

	return &SpotifyService{
		config:      config,
		opts:        append([]spotify.ClientOption{spotify.WithRetry(true)}, opts...),
		credentials: credentials,
	}, nil
}

func (s *SpotifyService) Name() string {
	return "Spotify"
}

// Authenticate accepts either an "access_token" (with an optional "refresh_token") or an "auth_code".
func (s *SpotifyService) Authenticate(ctx context.Context, credentials map[string]string) error {
	if accessToken, ok := credentials["access_token"]; ok && accessToken != "" {
		return s.OAuthenticate(ctx, &oauth2.Token{
			AccessToken:  accessToken,
			RefreshToken: credentials["refresh_token"],
			TokenType:    "Bearer",
		})
	}

	if authCode, ok := credentials["auth_code"]; ok && authCode != "" {
		token, err := s.Exchange(ctx, authCode)
		if err != nil {
			return err
		}
		return s.OAuthenticate(ctx, token)
	}

	return fmt.Errorf("%w: missing access_token or auth_code", shared.ErrMissingCredentials)
}

// GetAuthURL returns the OAuth2 authorization URL for user login, requesting a refresh token.
func (s *SpotifyService) GetAuthURL(state string) string {
	return s.config.AuthCodeURL(state, oauth2.AccessTypeOffline)
}

// GetOAuthConfig returns the OAuth2 configuration used for the authorization code flow.
func (s *SpotifyService) GetOAuthConfig() *oauth2.Config {
	return s.config
}

// Exchange trades an authorization code for a token.
func (s *SpotifyService) Exchange(ctx context.Context, code string) (*oauth2.Token, error) {
	if code == "" {
		return nil, fmt.Errorf("%w: empty authorization code", shared.ErrInvalidInput)
	}

	token, err := s.config.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to exchange auth code: %v", shared.ErrAuthFailed, err)
	}
	return token, nil
}

// OAuthenticate builds the API client around token. Refreshed tokens are reported to the refresh callback.
// A token holding only a refresh token is exchanged for an access token on first use.
//
// The token source outlives ctx's cancellation so a request-scoped context can be passed.
func (s *SpotifyService) OAuthenticate(ctx context.Context, token *oauth2.Token) error {
	if token == nil || (token.AccessToken == "" && token.RefreshToken == "") {
		return fmt.Errorf("%w: empty token", shared.ErrInvalidInput)
	}

	ctx = context.WithoutCancel(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()

	s.token = token
	s.source = &refreshableTokenSource{
		source:   s.config.TokenSource(ctx, token),
		callback: s.onTokenRefresh,
		last:     token.AccessToken,
	}
	s.client = spotify.New(oauth2.NewClient(ctx, s.source), s.opts...)
	return nil
}

// Token returns the current token, refreshing it when expired.
func (s *SpotifyService) Token() (*oauth2.Token, error) {
	s.mu.RLock()
	source := s.source
	s.mu.RUnlock()

	if source == nil {
		return nil, shared.ErrNotAuthenticated
	}

	token, err := source.Token()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrTokenExpired, err)
	}
	return token, nil
}

// SetTokenRefreshCallback registers fn to receive every newly issued token.
func (s *SpotifyService) SetTokenRefreshCallback(fn func(*oauth2.Token)) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.onTokenRefresh = fn
	if s.source != nil {
		s.source.setCallback(fn)
	}
}

func (s *SpotifyService) api() (*spotify.Client, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.client == nil {
		return nil, shared.ErrNotAuthenticated
	}
	return s.client, nil
}

// CurrentUserID returns the Spotify user ID of the authenticated user.
func (s *SpotifyService) CurrentUserID(ctx context.Context) (string, error) {
	client, err := s.api()
	if err != nil {
		return "", err
	}

	user, err := client.CurrentUser(ctx)
	if err != nil {
		return "", apiError("get current user", err)
	}
	return user.ID, nil
}

// LikedSongs pages through the user's saved tracks.
func (s *SpotifyService) LikedSongs(ctx context.Context) ([]models.Song, error) {
	client, err := s.api()
	if err != nil {
		return nil, err
	}

	page, err := client.CurrentUsersTracks(ctx, spotify.Limit(pageLimit))
	if err != nil {
		return nil, apiError("get saved tracks", err)
	}

	var songs []models.Song
	for {
		for _, saved := range page.Tracks {
			if saved.ID == "" {
				continue
			}
			songs = append(songs, models.Song{
				ID:      string(saved.ID),
				Name:    saved.Name,
				Artist:  firstArtist(saved.Artists),
				AddedAt: saved.AddedAt,
			})
		}

		err := client.NextPage(ctx, page)
		if errors.Is(err, spotify.ErrNoMorePages) {
			break
		}
		if err != nil {
			return nil, apiError("get saved tracks", err)
		}
	}
	return songs, nil
}

// Playlists pages through every playlist the user owns or follows.
func (s *SpotifyService) Playlists(ctx context.Context) ([]models.Playlist, error) {
	client, err := s.api()
	if err != nil {
		return nil, err
	}

	page, err := client.CurrentUsersPlaylists(ctx, spotify.Limit(pageLimit))
	if err != nil {
		return nil, apiError("get playlists", err)
	}

	var playlists []models.Playlist
	for {
		for _, sp := range page.Playlists {
			playlists = append(playlists, models.Playlist{
				ID:         string(sp.ID),
				Name:       sp.Name,
				OwnerID:    sp.Owner.ID,
				TrackCount: int(sp.Tracks.Total),
			})
		}

		err := client.NextPage(ctx, page)
		if errors.Is(err, spotify.ErrNoMorePages) {
			break
		}
		if err != nil {
			return nil, apiError("get playlists", err)
		}
	}
	return playlists, nil
}

// PlaylistTracks pages through a playlist, skipping local files, episodes and unavailable tracks.
func (s *SpotifyService) PlaylistTracks(ctx context.Context, playlistID string) ([]Track, error) {
	client, err := s.api()
	if err != nil {
		return nil, err
	}

	page, err := client.GetPlaylistItems(ctx, spotify.ID(playlistID), spotify.Limit(pageLimit))
	if err != nil {
		return nil, playlistError(playlistID, err)
	}

	var tracks []Track
	for {
		for _, item := range page.Items {
			full := item.Track.Track
			if full == nil || full.ID == "" {
				continue
			}
			tracks = append(tracks, Track{
				ID:         string(full.ID),
				Name:       full.Name,
				Artist:     firstArtist(full.Artists),
				AddedAt:    item.AddedAt,
				DurationMs: int(full.Duration),
			})
		}

		err := client.NextPage(ctx, page)
		if errors.Is(err, spotify.ErrNoMorePages) {
			break
		}
		if err != nil {
			return nil, playlistError(playlistID, err)
		}
	}
	return tracks, nil
}

// AddToPlaylist appends songID to playlistID.
func (s *SpotifyService) AddToPlaylist(ctx context.Context, playlistID, songID string) error {
	client, err := s.api()
	if err != nil {
		return err
	}

	if _, err := client.AddTracksToPlaylist(ctx, spotify.ID(playlistID), spotify.ID(songID)); err != nil {
		return playlistError(playlistID, err)
	}
	return nil
}

// RemoveFromPlaylist removes every occurrence of songID from playlistID.
func (s *SpotifyService) RemoveFromPlaylist(ctx context.Context, playlistID, songID string) error {
	client, err := s.api()
	if err != nil {
		return err
	}

	if _, err := client.RemoveTracksFromPlaylist(ctx, spotify.ID(playlistID), spotify.ID(songID)); err != nil {
		return playlistError(playlistID, err)
	}
	return nil
}

// Like saves songID to the user's library.
func (s *SpotifyService) Like(ctx context.Context, songID string) error {
	client, err := s.api()
	if err != nil {
		return err
	}

	if err := client.AddTracksToLibrary(ctx, spotify.ID(songID)); err != nil {
		return apiError("like track", err)
	}
	return nil
}

// Unlike removes songID from the user's library.
func (s *SpotifyService) Unlike(ctx context.Context, songID string) error {
	client, err := s.api()
	if err != nil {
		return err
	}

	if err := client.RemoveTracksFromLibrary(ctx, spotify.ID(songID)); err != nil {
		return apiError("unlike track", err)
	}
	return nil
}

// Devices lists the user's Spotify Connect devices.
func (s *SpotifyService) Devices(ctx context.Context) ([]models.Device, error) {
	client, err := s.api()
	if err != nil {
		return nil, err
	}

	devices, err := client.PlayerDevices(ctx)
	if err != nil {
		return nil, apiError("get devices", err)
	}

	out := make([]models.Device, 0, len(devices))
	for _, d := range devices {
		out = append(out, models.Device{
			ID:     string(d.ID),
			Name:   d.Name,
			Type:   d.Type,
			Active: d.Active,
		})
	}
	return out, nil
}

// Play starts songID on deviceID.
func (s *SpotifyService) Play(ctx context.Context, deviceID, songID string) error {
	client, err := s.api()
	if err != nil {
		return err
	}

	opts := &spotify.PlayOptions{
		URIs: []spotify.URI{spotify.URI("spotify:track:" + songID)},
	}
	if deviceID != "" {
		id := spotify.ID(deviceID)
		opts.DeviceID = &id
	}

	if err := client.PlayOpt(ctx, opts); err != nil {
		return apiError("start playback", err)
	}
	return nil
}

// Pause pauses playback on the active device.
func (s *SpotifyService) Pause(ctx context.Context) error {
	client, err := s.api()
	if err != nil {
		return err
	}

	if err := client.Pause(ctx); err != nil {
		return apiError("pause playback", err)
	}
	return nil
}

// CurrentPlayback returns the player state, or nil when no track is loaded.
func (s *SpotifyService) CurrentPlayback(ctx context.Context) (*models.Playback, error) {
	client, err := s.api()
	if err != nil {
		return nil, err
	}

	current, err := client.PlayerCurrentlyPlaying(ctx)
	if err != nil {
		return nil, apiError("get playback", err)
	}
	if current == nil || current.Item == nil {
		return nil, nil
	}

	return &models.Playback{
		IsPlaying:  current.Playing,
		ProgressMs: int(current.Progress),
		DurationMs: int(current.Item.Duration),
		SongID:     string(current.Item.ID),
	}, nil
}

// Seek moves the playhead of the active device to positionMs.
func (s *SpotifyService) Seek(ctx context.Context, positionMs int) error {
	client, err := s.api()
	if err != nil {
		return err
	}

	if err := client.Seek(ctx, positionMs); err != nil {
		return apiError("seek", err)
	}
	return nil
}

func firstArtist(artists []spotify.SimpleArtist) string {
	if len(artists) == 0 || artists[0].Name == "" {
		return models.UnknownArtist
	}
	return artists[0].Name
}

// statusOf extracts the HTTP status of a Spotify API error, or 0.
func statusOf(err error) int {
	var value spotify.Error
	if errors.As(err, &value) {
		return value.Status
	}

	var ptr *spotify.Error
	if errors.As(err, &ptr) && ptr != nil {
		return ptr.Status
	}
	return 0
}

func apiError(op string, err error) error {
	if statusOf(err) == http.StatusUnauthorized {
		return fmt.Errorf("%w: %s: %v", shared.ErrTokenExpired, op, err)
	}

	var retrieve *oauth2.RetrieveError
	if errors.As(err, &retrieve) {
		return fmt.Errorf("%w: %s: %v", shared.ErrTokenExpired, op, err)
	}

	return fmt.Errorf("%w: %s: %v", shared.ErrAPIRequest, op, err)
}

func playlistError(playlistID string, err error) error {
	if statusOf(err) == http.StatusNotFound {
		return fmt.Errorf("%w: %s", shared.ErrPlaylistNotFound, playlistID)
	}
	return apiError("playlist "+playlistID, err)
}

// refreshableTokenSource wraps an [oauth2.TokenSource] and reports every new access token to callback.
type refreshableTokenSource struct {
	source   oauth2.TokenSource
	callback func(*oauth2.Token)

	mu   sync.Mutex
	last string
}

// Token implements [oauth2.TokenSource]
func (r *refreshableTokenSource) Token() (*oauth2.Token, error) {
	token, err := r.source.Token()
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	changed := token.AccessToken != r.last
	if changed {
		r.last = token.AccessToken
	}
	callback := r.callback
	r.mu.Unlock()

	if changed && callback != nil {
		callback(token)
	}
	return token, nil
}

func (r *refreshableTokenSource) setCallback(fn func(*oauth2.Token)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.callback = fn
}
