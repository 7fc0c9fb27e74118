package server

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alexanderalber/spotify-playlist-manager/internal/shared"
	"golang.org/x/oauth2"
)

type fakeExchanger struct {
	token *oauth2.Token
	err   error
	codes []string
}

func (f *fakeExchanger) Exchange(ctx context.Context, code string) (*oauth2.Token, error) {
	f.codes = append(f.codes, code)
	return f.token, f.err
}

func ok(body string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) { io.WriteString(w, body) }
}

func TestBasicRouter(t *testing.T) {
	t.Run("Dispatches On Method", func(t *testing.T) {
		router := NewBasicRouter()
		router.HandleFunc(http.MethodGet, "/item", ok("get"))
		router.HandleFunc(http.MethodPost, "/item", ok("post"))

		tc := []struct {
			method string
			status int
			body   string
		}{
			{http.MethodGet, http.StatusOK, "get"},
			{http.MethodPost, http.StatusOK, "post"},
			{http.MethodHead, http.StatusOK, ""},
			{http.MethodDelete, http.StatusMethodNotAllowed, "Method not allowed\n"},
		}

		for _, tt := range tc {
			t.Run(tt.method, func(t *testing.T) {
				rec := httptest.NewRecorder()
				router.ServeHTTP(rec, httptest.NewRequest(tt.method, "/item", nil))

				if rec.Code != tt.status {
					t.Errorf("expected %d, got %d", tt.status, rec.Code)
				}
				if tt.method != http.MethodHead && rec.Body.String() != tt.body {
					t.Errorf("expected body %q, got %q", tt.body, rec.Body.String())
				}
				if tt.status == http.StatusMethodNotAllowed && rec.Header().Get("Allow") != "GET, POST" {
					t.Errorf("unexpected Allow header %q", rec.Header().Get("Allow"))
				}
			})
		}
	})

	t.Run("Middleware Order", func(t *testing.T) {
		var order []string
		mark := func(name string) Middleware {
			return func(next http.Handler) http.Handler {
				return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
					order = append(order, name)
					next.ServeHTTP(w, r)
				})
			}
		}

		router := NewBasicRouter()
		router.Use(mark("first"), mark("second"))
		router.HandleFunc(http.MethodGet, "/", ok("root"))

		router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

		if strings.Join(order, ",") != "first,second" {
			t.Errorf("unexpected middleware order %v", order)
		}
	})

	t.Run("Custom Handler", func(t *testing.T) {
		router := NewBasicRouter()
		router.Handler(NewOAuthHandler(&fakeExchanger{}, "state", "/cb"))

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/cb?state=wrong", nil))
		if rec.Code != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", rec.Code)
		}
	})
}

func TestMiddleware(t *testing.T) {
	t.Run("Recover", func(t *testing.T) {
		var buf bytes.Buffer
		logger := shared.NewLogger(&buf)

		handler := Recover(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			panic("boom")
		}))

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/panic", nil))

		if rec.Code != http.StatusInternalServerError {
			t.Errorf("expected 500, got %d", rec.Code)
		}
		if !strings.Contains(buf.String(), "panic recovered") {
			t.Errorf("expected panic to be logged, got %q", buf.String())
		}
	})

	t.Run("Logging", func(t *testing.T) {
		var buf bytes.Buffer
		logger := shared.NewLogger(&buf)

		handler := Logging(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "bad", http.StatusServiceUnavailable)
		}))

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/refresh", nil))

		out := buf.String()
		if !strings.Contains(out, "request failed") || !strings.Contains(out, "/api/refresh") || !strings.Contains(out, "503") {
			t.Errorf("unexpected log output %q", out)
		}
	})

	t.Run("statusRecorder Defaults To 200", func(t *testing.T) {
		rec := &statusRecorder{ResponseWriter: httptest.NewRecorder()}
		rec.Write([]byte("x"))
		rec.WriteHeader(http.StatusTeapot)
		if rec.status != http.StatusOK {
			t.Errorf("expected first status to win, got %d", rec.status)
		}
	})
}

func TestOAuthHandler(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		exchanger := &fakeExchanger{token: &oauth2.Token{AccessToken: "access"}}
		handler := NewOAuthHandler(exchanger, "xyz", "")

		if routes := handler.Routes(); len(routes) != 1 || routes[0] != DefaultCallbackPath {
			t.Errorf("unexpected routes %v", routes)
		}

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/callback?state=xyz&code=abc", nil))

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		if len(exchanger.codes) != 1 || exchanger.codes[0] != "abc" {
			t.Errorf("unexpected exchanged codes %v", exchanger.codes)
		}

		result := <-handler.Result()
		if result.Error() != nil || result.Token.AccessToken != "access" {
			t.Errorf("unexpected result %+v", result)
		}
	})

	t.Run("Invalid State", func(t *testing.T) {
		handler := NewOAuthHandler(&fakeExchanger{}, "xyz", "")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/callback?state=nope&code=abc", nil))

		if rec.Code != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", rec.Code)
		}
		result := <-handler.Result()
		if !errors.Is(result.Error(), shared.ErrInvalidState) {
			t.Errorf("expected ErrInvalidState, got %v", result.Error())
		}
	})

	t.Run("Denied", func(t *testing.T) {
		handler := NewOAuthHandler(&fakeExchanger{}, "xyz", "")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/callback?state=xyz&error=access_denied", nil))

		result := <-handler.Result()
		if !errors.Is(result.Error(), shared.ErrAuthFailed) {
			t.Errorf("expected ErrAuthFailed, got %v", result.Error())
		}
	})

	t.Run("Exchange Failure", func(t *testing.T) {
		handler := NewOAuthHandler(&fakeExchanger{err: shared.ErrAuthFailed}, "xyz", "")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/callback?state=xyz&code=abc", nil))

		if rec.Code != http.StatusInternalServerError {
			t.Errorf("expected 500, got %d", rec.Code)
		}
	})

	t.Run("Second Callback Rejected", func(t *testing.T) {
		handler := NewOAuthHandler(&fakeExchanger{token: &oauth2.Token{AccessToken: "a"}}, "xyz", "")
		handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/callback?state=xyz&code=abc", nil))

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/callback?state=xyz&code=abc", nil))
		if rec.Code != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", rec.Code)
		}
	})
}

func TestRun(t *testing.T) {
	t.Run("Stops On Cancel", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		srv := New("127.0.0.1:0", http.NotFoundHandler())

		done := make(chan error, 1)
		go func() { done <- Run(ctx, srv, shared.NewLogger(io.Discard)) }()

		time.Sleep(50 * time.Millisecond)
		cancel()

		select {
		case err := <-done:
			if err != nil {
				t.Errorf("expected clean shutdown, got %v", err)
			}
		case <-time.After(5 * time.Second):
			t.Fatal("server did not stop")
		}
	})

	t.Run("Listen Failure", func(t *testing.T) {
		srv := New("256.0.0.1:-1", http.NotFoundHandler())
		if err := Run(context.Background(), srv, shared.NewLogger(io.Discard)); err == nil {
			t.Error("expected listen error")
		}
	})
}
