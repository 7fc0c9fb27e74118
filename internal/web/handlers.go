package web

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/alexanderalber/spotify-playlist-manager/internal/formatter"
	"github.com/alexanderalber/spotify-playlist-manager/internal/models"
	"github.com/alexanderalber/spotify-playlist-manager/internal/shared"
	"github.com/alexanderalber/spotify-playlist-manager/internal/tasks"
)

const maxBodyBytes = 1 << 20

// errMalformedBody marks request bodies that are not valid JSON.
var errMalformedBody = errors.New("malformed request body")

type songRequest struct {
	SongID string `json:"song_id"`
}

type toggleRequest struct {
	SongID     string `json:"song_id"`
	PlaylistID string `json:"playlist_id"`
}

type seekRequest struct {
	PositionMs *int `json:"position_ms"`
}

type status map[string]any

func success(kv ...any) status {
	s := status{"status": "success"}
	for i := 0; i+1 < len(kv); i += 2 {
		s[kv[i].(string)] = kv[i+1]
	}
	return s
}

// indexPage is the data of templates/index.html.
type indexPage struct {
	*tasks.Index
	Token string
}

func (a *App) index(w http.ResponseWriter, r *http.Request) {
	token, ok := a.authenticated()
	if !ok {
		http.Redirect(w, r, "/login", http.StatusFound)
		return
	}

	index, err := a.engine.IndexData(r.Context())
	if err != nil {
		if statusFor(err) == http.StatusUnauthorized {
			http.Redirect(w, r, "/login", http.StatusFound)
			return
		}
		a.logger.Error("failed to load dashboard", "error", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	a.logger.Debug("loaded dashboard", "songs", len(index.Songs), "playlists", len(index.Playlists)-1)

	var buf bytes.Buffer
	if err := a.tmpl.ExecuteTemplate(&buf, "index.html", indexPage{Index: index, Token: token.AccessToken}); err != nil {
		a.logger.Error("failed to render dashboard", "error", err)
		http.Error(w, "failed to render page", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	buf.WriteTo(w)
}

func (a *App) login(w http.ResponseWriter, r *http.Request) {
	state, err := a.issueState()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	http.Redirect(w, r, a.auth.GetAuthURL(state), http.StatusFound)
}

func (a *App) callback(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	if !a.consumeState(query.Get("state")) {
		http.Error(w, "Invalid state parameter", http.StatusBadRequest)
		return
	}

	code := query.Get("code")
	if code == "" {
		a.logger.Warn("authorization denied", "error", query.Get("error"))
		http.Error(w, "Authorization failed", http.StatusBadRequest)
		return
	}

	token, err := a.auth.Exchange(r.Context(), code)
	if err != nil {
		a.logger.Error("token exchange failed", "error", err)
		http.Error(w, "Token exchange failed", http.StatusInternalServerError)
		return
	}

	if err := a.auth.OAuthenticate(r.Context(), token); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	if a.opts.SaveToken != nil {
		if err := a.opts.SaveToken(token); err != nil {
			a.logger.Warn("failed to persist token", "error", err)
		}
	}

	a.logger.Info("authenticated with Spotify")
	http.Redirect(w, r, "/", http.StatusFound)
}

// api adapts fn to a JSON endpoint that requires authentication.
func (a *App) api(fn func(r *http.Request) (any, error)) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := a.authenticated(); !ok {
			writeJSON(w, http.StatusUnauthorized, status{"error": "Not authenticated"})
			return
		}

		body, err := fn(r)
		if err != nil {
			code := statusFor(err)
			if code >= http.StatusInternalServerError {
				a.logger.Error("API request failed", "path", r.URL.Path, "error", err)
			}
			writeJSON(w, code, status{"error": errorMessage(err)})
			return
		}
		writeJSON(w, http.StatusOK, body)
	})
}

// download adapts fn to an authenticated file download.
func (a *App) download(fn func(w http.ResponseWriter, r *http.Request) error) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := a.authenticated(); !ok {
			writeJSON(w, http.StatusUnauthorized, status{"error": "Not authenticated"})
			return
		}
		if err := fn(w, r); err != nil {
			a.logger.Error("download failed", "path", r.URL.Path, "error", err)
			writeJSON(w, statusFor(err), status{"error": errorMessage(err)})
		}
	})
}

func (a *App) togglePlaylist(r *http.Request) (any, error) {
	var req toggleRequest
	if err := decode(r, &req); err != nil {
		return nil, err
	}

	in, err := a.engine.ToggleMembership(r.Context(), req.SongID, req.PlaylistID)
	if err != nil {
		return nil, err
	}
	return success("in_playlist", in), nil
}

func (a *App) stop(r *http.Request) (any, error) {
	if err := a.engine.Stop(r.Context()); err != nil {
		return nil, err
	}
	return success(), nil
}

func (a *App) play(r *http.Request) (any, error) {
	var req songRequest
	if err := decode(r, &req); err != nil {
		return nil, err
	}

	device, err := a.engine.Play(r.Context(), req.SongID)
	if err != nil {
		return nil, err
	}
	return success("device", device.Name), nil
}

func (a *App) markPlayed(r *http.Request) (any, error) {
	var req songRequest
	if err := decode(r, &req); err != nil {
		return nil, err
	}

	entry, err := a.engine.MarkPlayed(req.SongID)
	if err != nil {
		return nil, err
	}
	return success("id", entry.ID), nil
}

func (a *App) refresh(r *http.Request) (any, error) {
	run, err := a.engine.Refresh(r.Context(), nil)
	if err != nil {
		return nil, err
	}
	return success("run", run), nil
}

func (a *App) seek(r *http.Request) (any, error) {
	var req seekRequest
	if err := decode(r, &req); err != nil {
		return nil, err
	}
	if req.PositionMs == nil {
		return nil, fmt.Errorf("%w: position_ms", shared.ErrMissingArgument)
	}

	position, err := a.engine.Seek(r.Context(), *req.PositionMs)
	if err != nil {
		return nil, err
	}
	return success("new_position", position), nil
}

func (a *App) like(r *http.Request) (any, error) {
	var req songRequest
	if err := decode(r, &req); err != nil {
		return nil, err
	}
	if err := a.engine.Like(r.Context(), req.SongID); err != nil {
		return nil, err
	}
	return success(), nil
}

func (a *App) unlike(r *http.Request) (any, error) {
	var req songRequest
	if err := decode(r, &req); err != nil {
		return nil, err
	}
	if err := a.engine.Unlike(r.Context(), req.SongID); err != nil {
		return nil, err
	}
	return success(), nil
}

// playbackStatus reports zeros unless a track is actively playing.
func (a *App) playbackStatus(r *http.Request) (any, error) {
	playback, err := a.engine.PlaybackStatus(r.Context())
	if err != nil {
		return nil, err
	}
	if !playback.IsPlaying {
		playback = models.Playback{}
	}
	return status{
		"is_playing":  playback.IsPlaying,
		"progress_ms": playback.ProgressMs,
		"duration_ms": playback.DurationMs,
	}, nil
}

func (a *App) backup(r *http.Request) (any, error) {
	result, err := a.engine.Backup(r.Context(), a.opts.Backup, nil)
	if err != nil {
		return nil, err
	}
	return success("file", result.Path, "summary", result.Summary()), nil
}

func (a *App) analysisCSV(w http.ResponseWriter, r *http.Request) error {
	analysis, err := a.engine.Analyze(r.Context(), nil)
	if err != nil {
		return err
	}

	data, err := formatter.AnalysisToCSV(analysis)
	if err != nil {
		return err
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", attachment(formatter.DefaultAnalysisCSV))
	_, err = w.Write(data)
	return err
}

func (a *App) analysisXLSX(w http.ResponseWriter, r *http.Request) error {
	analysis, err := a.engine.Analyze(r.Context(), nil)
	if err != nil {
		return err
	}

	f, err := formatter.AnalysisToXLSX(analysis)
	if err != nil {
		return err
	}
	defer f.Close()

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return fmt.Errorf("failed to encode workbook: %w", err)
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", attachment(formatter.DefaultAnalysisXLSX))
	_, err = buf.WriteTo(w)
	return err
}

func attachment(name string) string {
	return fmt.Sprintf("attachment; filename=%q", name)
}

// decode reads a JSON body into v. An empty body leaves v untouched.
func decode(r *http.Request, v any) error {
	data, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		return fmt.Errorf("%w: %v", errMalformedBody, err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("%w: %v", errMalformedBody, err)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	data, err := shared.MarshalJSON(v, false)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(data)
}

// statusFor maps an error to the HTTP status the API answers with.
func statusFor(err error) int {
	switch {
	case errors.Is(err, shared.ErrNotAuthenticated), errors.Is(err, shared.ErrTokenExpired):
		return http.StatusUnauthorized
	case errors.Is(err, errMalformedBody),
		errors.Is(err, shared.ErrNoDevices),
		errors.Is(err, shared.ErrNoActivePlayback),
		errors.Is(err, shared.ErrInvalidArgument),
		errors.Is(err, shared.ErrMissingArgument):
		return http.StatusBadRequest
	case errors.Is(err, shared.ErrPlaylistNotFound), errors.Is(err, shared.ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// errorMessage returns the text of the "error" field. Player sentinels keep the dashboard's wording.
func errorMessage(err error) string {
	switch {
	case errors.Is(err, shared.ErrNoDevices):
		return "No active devices found"
	case errors.Is(err, shared.ErrNoActivePlayback):
		return "No active playback"
	case errors.Is(err, shared.ErrNotAuthenticated):
		return "Not authenticated"
	}
	return strings.TrimSpace(err.Error())
}
