package shared

import "errors"

// Sentinel errors. Wrap them with context via fmt.Errorf("...: %w", err) and test with [errors.Is].
var (
	ErrNotImplemented = errors.New("not implemented")

	// config.toml and environment
	ErrInvalidConfig      = errors.New("invalid configuration")
	ErrMissingCredentials = errors.New("missing Spotify client credentials")

	// OAuth
	ErrAuthFailed       = errors.New("authorization failed")
	ErrNotAuthenticated = errors.New("not authenticated with Spotify")
	ErrTokenExpired     = errors.New("access token expired or revoked")
	ErrInvalidState     = errors.New("invalid oauth state")
	ErrTimeout          = errors.New("timed out waiting for authorization")

	// Spotify Web API
	ErrAPIRequest         = errors.New("request to Spotify failed")
	ErrServiceUnavailable = errors.New("service unavailable")
	ErrPlaylistNotFound   = errors.New("playlist not found")

	// Player
	ErrNoDevices        = errors.New("no active devices found")
	ErrNoActivePlayback = errors.New("no active playback")

	// Cache
	ErrNotFound = errors.New("not found in library cache")

	// Input
	ErrInvalidInput    = errors.New("invalid input")
	ErrMissingArgument = errors.New("missing required argument")
	ErrInvalidArgument = errors.New("invalid argument")
)
