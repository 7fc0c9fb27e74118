package web

import (
	"context"
	"embed"
	"fmt"
	"html/template"
	"net/http"
	"sync"
	"time"

	"github.com/alexanderalber/spotify-playlist-manager/internal/server"
	"github.com/alexanderalber/spotify-playlist-manager/internal/shared"
	"github.com/alexanderalber/spotify-playlist-manager/internal/tasks"
	"github.com/charmbracelet/log"
	"golang.org/x/oauth2"
)

//go:embed templates/*.html
var templateFiles embed.FS

// stateTTL bounds how long a login redirect stays valid.
const stateTTL = 10 * time.Minute

// Authenticator is the OAuth side of the Spotify service used by the dashboard.
type Authenticator interface {
	GetAuthURL(state string) string
	Exchange(ctx context.Context, code string) (*oauth2.Token, error)
	OAuthenticate(ctx context.Context, token *oauth2.Token) error
	Token() (*oauth2.Token, error)
}

// Options configures an [App].
type Options struct {
	CallbackPath string                    // Redirect path registered with Spotify (default: /callback)
	Backup       tasks.BackupOpts          // Used by POST /api/backup
	SaveToken    func(*oauth2.Token) error // Persists the token obtained by the callback; may be nil
}

// App is the web dashboard.
type App struct {
	engine *tasks.LibraryEngine
	auth   Authenticator
	logger *log.Logger
	opts   Options
	tmpl   *template.Template
	now    func() time.Time

	mu     sync.Mutex
	states map[string]time.Time // pending login state -> issue time
}

// New builds the dashboard around engine.
func New(engine *tasks.LibraryEngine, auth Authenticator, logger *log.Logger, opts Options) (*App, error) {
	if engine == nil || auth == nil {
		return nil, fmt.Errorf("%w: web dashboard needs an engine and an authenticator", shared.ErrServiceUnavailable)
	}
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	if opts.CallbackPath == "" {
		opts.CallbackPath = server.DefaultCallbackPath
	}

	tmpl, err := template.New("").Funcs(templateFuncs).ParseFS(templateFiles, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}

	return &App{
		engine: engine,
		auth:   auth,
		logger: shared.WithLogger(logger, "component", "web"),
		opts:   opts,
		tmpl:   tmpl,
		now:    time.Now,
		states: make(map[string]time.Time),
	}, nil
}

// Router returns the dashboard routes wrapped in recovery and request logging.
func (a *App) Router() *server.BasicRouter {
	r := server.NewBasicRouter()
	r.Use(server.Recover(a.logger), server.Logging(a.logger))

	r.HandleFunc(http.MethodGet, "/{$}", a.index)
	r.HandleFunc(http.MethodGet, "/login", a.login)
	r.HandleFunc(http.MethodGet, a.opts.CallbackPath, a.callback)

	r.Handle(http.MethodPost, "/api/toggle_playlist", a.api(a.togglePlaylist))
	r.Handle(http.MethodPost, "/api/stop", a.api(a.stop))
	r.Handle(http.MethodPost, "/api/play", a.api(a.play))
	r.Handle(http.MethodPost, "/api/mark_played", a.api(a.markPlayed))
	r.Handle(http.MethodPost, "/api/refresh", a.api(a.refresh))
	r.Handle(http.MethodPost, "/api/seek", a.api(a.seek))
	r.Handle(http.MethodPost, "/api/like_song", a.api(a.like))
	r.Handle(http.MethodPost, "/api/unlike_song", a.api(a.unlike))
	r.Handle(http.MethodGet, "/api/playback_status", a.api(a.playbackStatus))
	r.Handle(http.MethodPost, "/api/backup", a.api(a.backup))
	r.Handle(http.MethodGet, "/api/analysis.csv", a.download(a.analysisCSV))
	r.Handle(http.MethodGet, "/api/analysis.xlsx", a.download(a.analysisXLSX))

	return r
}

// authenticated reports whether a usable token is available, refreshing it when needed.
func (a *App) authenticated() (*oauth2.Token, bool) {
	token, err := a.auth.Token()
	if err != nil || token == nil {
		return nil, false
	}
	return token, true
}

// issueState records a new login state and drops expired ones.
func (a *App) issueState() (string, error) {
	state, err := shared.GenerateState()
	if err != nil {
		return "", err
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	now := a.now()
	for s, at := range a.states {
		if now.Sub(at) > stateTTL {
			delete(a.states, s)
		}
	}
	a.states[state] = now
	return state, nil
}

// consumeState reports whether state was issued and is still valid. A state is usable once.
func (a *App) consumeState(state string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()

	at, ok := a.states[state]
	if !ok {
		return false
	}
	delete(a.states, state)
	return a.now().Sub(at) <= stateTTL
}
