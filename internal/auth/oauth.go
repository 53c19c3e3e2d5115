// Package auth runs the MoneyForward OAuth 2.0 authorization code flow and hands out HTTP
// clients that refresh and persist the token.
package auth

import (
	"context"
	"errors"
	"fmt"
	"html"
	"net"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/oauth2"
	"notion2mf/internal/logger"
)

// DefaultTimeout is how long Authenticate waits for the browser redirect.
const DefaultTimeout = 5 * time.Minute

var (
	ErrAuthTimeout   = errors.New("auth: authorization timed out")
	ErrStateMismatch = errors.New("auth: state parameter does not match")

	// ErrAuthorizationDenied is returned when the user or the server rejects the request.
	ErrAuthorizationDenied = errors.New("auth: authorization denied")
)

// Config holds the OAuth client settings.
type Config struct {
	ClientID     string
	ClientSecret string
	RedirectURI  string
	AuthURL      string
	TokenURL     string
	Scope        string
	TokenFile    string
}

// Authenticator obtains and refreshes MoneyForward tokens.
type Authenticator struct {
	oauth   *oauth2.Config
	store   *TokenStore
	timeout time.Duration
	log     zerolog.Logger

	// OpenBrowser is called with the authorization URL.
	OpenBrowser func(url string) error
}

// NewAuthenticator creates an authenticator storing its token in cfg.TokenFile.
func NewAuthenticator(cfg Config) *Authenticator {
	var scopes []string
	if cfg.Scope != "" {
		scopes = strings.Fields(cfg.Scope)
	}

	return &Authenticator{
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURI,
			Scopes:       scopes,
			Endpoint: oauth2.Endpoint{
				AuthURL:  cfg.AuthURL,
				TokenURL: cfg.TokenURL,
			},
		},
		store:       NewTokenStore(cfg.TokenFile),
		timeout:     DefaultTimeout,
		log:         logger.WithComponent("auth"),
		OpenBrowser: OpenBrowser,
	}
}

// SetTimeout changes how long Authenticate waits for the redirect.
func (a *Authenticator) SetTimeout(d time.Duration) {
	a.timeout = d
}

// Store returns the token store.
func (a *Authenticator) Store() *TokenStore {
	return a.store
}

type callbackResult struct {
	code string
	err  error
}

// Authenticate opens the authorization page, waits for the redirect on the local callback
// address, exchanges the code and saves the token.
func (a *Authenticator) Authenticate(ctx context.Context) (*oauth2.Token, error) {
	const op = "Authenticate"

	redirect, err := url.Parse(a.oauth.RedirectURL)
	if err != nil {
		return nil, fmt.Errorf("%s: invalid redirect URI %q: %w", op, a.oauth.RedirectURL, err)
	}
	callbackPath := redirect.Path
	if callbackPath == "" {
		callbackPath = "/"
	}

	listener, err := net.Listen("tcp", redirect.Host)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to listen on %s: %w", op, redirect.Host, err)
	}

	state := uuid.NewString()
	results := make(chan callbackResult, 1)

	router := chi.NewRouter()
	router.Use(middleware.Recoverer)
	router.Get(callbackPath, callbackHandler(state, results))

	server := &http.Server{
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	go func() {
		if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			deliver(results, callbackResult{err: fmt.Errorf("callback server: %w", err)})
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	authURL := a.oauth.AuthCodeURL(state)
	a.log.Info().Str("url", authURL).Msg("Opening authorization page")
	if err := a.OpenBrowser(authURL); err != nil {
		a.log.Warn().Err(err).Msg("Could not open browser, open the URL manually")
	}

	timer := time.NewTimer(a.timeout)
	defer timer.Stop()

	var res callbackResult
	select {
	case res = <-results:
	case <-timer.C:
		return nil, fmt.Errorf("%s: %w after %s", op, ErrAuthTimeout, a.timeout)
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	}
	if res.err != nil {
		return nil, fmt.Errorf("%s: %w", op, res.err)
	}

	tok, err := a.oauth.Exchange(ctx, res.code)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to exchange code: %w", op, err)
	}
	if err := a.store.Save(tok); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	a.log.Info().Str("token_file", a.store.Path()).Msg("Authentication completed")
	return tok, nil
}

// deliver sends without blocking; only the first result counts.
func deliver(ch chan<- callbackResult, res callbackResult) {
	select {
	case ch <- res:
	default:
	}
}

func callbackHandler(state string, results chan<- callbackResult) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		w.Header().Set("Content-Type", "text/html; charset=utf-8")

		if e := q.Get("error"); e != "" {
			w.WriteHeader(http.StatusBadRequest)
			fmt.Fprintf(w, "<html><body><h1>認証に失敗しました</h1><p>エラー: %s</p></body></html>", html.EscapeString(e))
			deliver(results, callbackResult{err: fmt.Errorf("%w: %s", ErrAuthorizationDenied, e)})
			return
		}
		if q.Get("state") != state {
			w.WriteHeader(http.StatusBadRequest)
			fmt.Fprint(w, "<html><body><h1>認証に失敗しました</h1></body></html>")
			deliver(results, callbackResult{err: ErrStateMismatch})
			return
		}
		code := q.Get("code")
		if code == "" {
			http.Error(w, "authorization code not found", http.StatusBadRequest)
			deliver(results, callbackResult{err: errors.New("authorization code not found in redirect")})
			return
		}

		fmt.Fprint(w, "<html><body><h1>認証が完了しました</h1><p>このウィンドウを閉じて、ターミナルに戻ってください。</p></body></html>")
		deliver(results, callbackResult{code: code})
	}
}

// HTTPClient returns a client that authorizes requests with the saved token, refreshing it
// when it expires and writing refreshed tokens back to the store.
func (a *Authenticator) HTTPClient(ctx context.Context) (*http.Client, error) {
	tok, err := a.store.Load()
	if err != nil {
		return nil, err
	}

	src := &persistingSource{
		src:   a.oauth.TokenSource(ctx, tok),
		store: a.store,
		last:  tok.AccessToken,
		log:   a.log,
	}
	return oauth2.NewClient(ctx, src), nil
}

// Logout removes the saved token.
func (a *Authenticator) Logout() error {
	if err := a.store.Delete(); err != nil {
		return err
	}
	a.log.Info().Str("token_file", a.store.Path()).Msg("Token removed")
	return nil
}

// persistingSource saves every token that differs from the last one it saw.
type persistingSource struct {
	mu    sync.Mutex
	src   oauth2.TokenSource
	store *TokenStore
	last  string
	log   zerolog.Logger
}

func (s *persistingSource) Token() (*oauth2.Token, error) {
	tok, err := s.src.Token()
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if tok.AccessToken != s.last {
		if err := s.store.Save(tok); err != nil {
			s.log.Warn().Err(err).Msg("Failed to save refreshed token")
		} else {
			s.log.Debug().Msg("Saved refreshed token")
		}
		s.last = tok.AccessToken
	}
	return tok, nil
}
