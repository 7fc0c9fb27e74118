package main

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/alexanderalber/spotify-playlist-manager/internal/server"
	"github.com/alexanderalber/spotify-playlist-manager/internal/services"
	"github.com/alexanderalber/spotify-playlist-manager/internal/shared"
	"github.com/urfave/cli/v3"
	"golang.org/x/oauth2"
)

const authTimeout = 2 * time.Minute

// Auth performs OAuth2 authentication flow for Spotify.
//
// Starts a local HTTP server, opens browser for user authorization, and exchanges auth code for tokens.
func (r *Runner) Auth(ctx context.Context, cmd *cli.Command) error {
	if err := r.load(cmd); err != nil {
		return err
	}

	svc, err := r.spotifyService(ctx)
	if err != nil {
		return err
	}

	token, err := r.doOAuth(ctx, svc, "authorization")
	if err != nil {
		return err
	}

	if err := r.saveToken(token); err != nil {
		return err
	}
	if err := svc.OAuthenticate(ctx, token); err != nil {
		return err
	}

	r.writePlainln("✓ Authorization successful")
	r.writePlain("✓ Tokens saved to %s\n\n", r.configPath)
	r.writePlain("You can now use: spm sync refresh\n")
	return nil
}

// callbackPath extracts the path of the registered redirect URI.
func callbackPath(redirectURI string) string {
	u, err := url.Parse(redirectURI)
	if err != nil || u.Path == "" || u.Path == "/" {
		return server.DefaultCallbackPath
	}
	return u.Path
}

// doOAuth executes the OAuth2 authorization flow with a local HTTP server
func (r *Runner) doOAuth(ctx context.Context, svc services.OAuthService, prefix string) (*oauth2.Token, error) {
	state, err := shared.GenerateState()
	if err != nil {
		return nil, fmt.Errorf("failed to generate state token: %w", err)
	}

	authURL := svc.GetAuthURL(state)
	oauthHandler := server.NewOAuthHandler(svc, state, callbackPath(r.config.Credentials.Spotify.RedirectURI))
	router := server.NewBasicRouter()
	router.Handler(oauthHandler)

	srvCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	serverErrors := make(chan error, 1)
	go func() {
		r.logger.Infof("starting OAuth server for %s at %v", prefix, r.config.Server.Addr())
		serverErrors <- server.Run(srvCtx, server.New(r.config.Server.Addr(), router), r.logger)
	}()

	r.writePlain("→ Opening browser for Spotify %s...\n", prefix)
	if err := shared.OpenBrowser(authURL); err != nil {
		r.logger.Warnf("failed to open browser automatically %v", err)
		r.writePlainln("⚠ Could not open browser automatically.")
		r.writePlain("Please open this URL in your browser:\n%s\n\n", authURL)
	}

	r.writePlain("→ Waiting for authorization (2 minute timeout)...\n")

	timeout := time.NewTimer(authTimeout)
	defer timeout.Stop()

	var result server.OAuthResult
	select {
	case result = <-oauthHandler.Result():
	case err := <-serverErrors:
		return nil, fmt.Errorf("server error: %w", err)
	case <-timeout.C:
		return nil, fmt.Errorf("%w after 2 minutes", shared.ErrTimeout)
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	cancel()
	if err := <-serverErrors; err != nil {
		r.logger.Warn("error shutting down server", "error", err)
	}

	if result.Error() != nil {
		return nil, fmt.Errorf("authorization failed: %w", result.Error())
	}
	if result.Token == nil {
		return nil, fmt.Errorf("%w: no token received", shared.ErrAuthFailed)
	}
	return result.Token, nil
}

// withReauth runs fn and, when it fails with an expired token that cannot be refreshed, reauthorizes and retries once.
func (r *Runner) withReauth(ctx context.Context, fn func() error) error {
	err := fn()
	if !errors.Is(err, shared.ErrTokenExpired) {
		return err
	}

	svc, ok := r.service.(services.OAuthService)
	if !ok {
		return err
	}

	r.writePlainln("⚠ Authentication token expired. Starting reauthorization...")

	token, authErr := r.doOAuth(ctx, svc, "reauthorization")
	if authErr != nil {
		return fmt.Errorf("reauthorization failed: %w", authErr)
	}
	if err := r.saveToken(token); err != nil {
		return err
	}
	if err := svc.OAuthenticate(ctx, token); err != nil {
		return fmt.Errorf("failed to authenticate with new tokens: %w", err)
	}

	r.writePlainln("✓ Successfully reauthenticated. Retrying operation...")
	return fn()
}
