package auth

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os/exec"
	"runtime"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/kuil09/youtube-subscriptions-backup/storage"
)

const (
	callbackPath = "/oauth2callback"

	// grantTimeout bounds how long a consent screen may stay unanswered.
	grantTimeout = 5 * time.Minute
)

// redirectMismatchHint is surfaced when the provider reports a redirect URI
// mismatch; it is by far the most common setup failure.
const redirectMismatchHint = "The OAuth client's authorized redirect URIs must contain the local callback URI exactly. " +
	"Create the client as a \"Web application\" and add the redirect URI shown above."

// BrowserGranterConfig configures the interactive grant flow.
type BrowserGranterConfig struct {
	// ClientID is the OAuth client identifier. Required.
	ClientID string
	// ClientSecret may be empty for clients that do not use one.
	ClientSecret string
	// ListenAddr is the loopback address for the callback server
	// (default "127.0.0.1:8765").
	ListenAddr string
	// Endpoint overrides the provider endpoints (default Google).
	Endpoint oauth2.Endpoint
	// OpenBrowser opens the consent URL for the user. Defaults to the
	// platform browser; tests inject their own.
	OpenBrowser func(url string) error
	// HTTPClient is used for the code exchange (default http.DefaultClient).
	HTTPClient *http.Client
}

// BrowserGranter performs the authorization-code grant through the user's
// browser with a single-use state nonce, checked on the callback.
type BrowserGranter struct {
	cfg BrowserGranterConfig
	log zerolog.Logger
	now func() time.Time
}

// NewBrowserGranter creates a granter for interactive browser flows.
func NewBrowserGranter(cfg BrowserGranterConfig, log zerolog.Logger) *BrowserGranter {
	if cfg.ListenAddr == "" {
		cfg.ListenAddr = "127.0.0.1:8765"
	}
	if cfg.Endpoint.AuthURL == "" {
		cfg.Endpoint = google.Endpoint
	}
	if cfg.OpenBrowser == nil {
		cfg.OpenBrowser = openBrowser
	}
	return &BrowserGranter{cfg: cfg, log: log, now: time.Now}
}

type callbackResult struct {
	code string
	err  error
}

// Grant opens the provider consent screen for exactly the requested scopes
// and waits for the loopback callback. A callback whose state does not
// match the nonce generated for this flow is rejected as a CSRF failure.
func (g *BrowserGranter) Grant(ctx context.Context, scopes []string) (*storage.Credential, error) {
	if strings.TrimSpace(g.cfg.ClientID) == "" {
		return nil, &AuthError{
			Reason: "missing OAuth client ID",
			Hint:   "Set the client ID in settings before authorizing.",
		}
	}

	ln, err := net.Listen("tcp", g.cfg.ListenAddr)
	if err != nil {
		return nil, &AuthError{Reason: "start callback listener", Err: err, ClientID: g.cfg.ClientID}
	}
	redirectURI := fmt.Sprintf("http://%s%s", ln.Addr().String(), callbackPath)

	conf := &oauth2.Config{
		ClientID:     g.cfg.ClientID,
		ClientSecret: g.cfg.ClientSecret,
		RedirectURL:  redirectURI,
		Scopes:       scopes,
		Endpoint:     g.cfg.Endpoint,
	}

	// Single-use state nonce for this flow.
	state := uuid.NewString()
	results := make(chan callbackResult, 1)

	mux := http.NewServeMux()
	mux.HandleFunc(callbackPath, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		switch {
		case q.Get("state") != state:
			http.Error(w, "state mismatch", http.StatusBadRequest)
			results <- callbackResult{err: &AuthError{
				Reason:      "state mismatch on callback (possible CSRF)",
				ClientID:    g.cfg.ClientID,
				RedirectURI: redirectURI,
			}}
		case q.Get("error") != "":
			msg := q.Get("error")
			http.Error(w, "authorization failed", http.StatusBadRequest)
			results <- callbackResult{err: g.callbackError(msg, redirectURI)}
		case q.Get("code") == "":
			http.Error(w, "missing code", http.StatusBadRequest)
			results <- callbackResult{err: &AuthError{
				Reason:      "callback returned no authorization code",
				ClientID:    g.cfg.ClientID,
				RedirectURI: redirectURI,
			}}
		default:
			fmt.Fprintln(w, "Authorization complete. You can close this tab.")
			results <- callbackResult{code: q.Get("code")}
		}
	})

	srv := &http.Server{Handler: mux}
	go srv.Serve(ln)
	defer srv.Close()

	authURL := conf.AuthCodeURL(state, oauth2.SetAuthURLParam("prompt", "consent"))
	g.log.Info().Str("redirect_uri", redirectURI).Msg("opening consent screen")
	if err := g.cfg.OpenBrowser(authURL); err != nil {
		return nil, &AuthError{Reason: "open browser", Err: err, ClientID: g.cfg.ClientID, RedirectURI: redirectURI}
	}

	ctx, cancel := context.WithTimeout(ctx, grantTimeout)
	defer cancel()

	var res callbackResult
	select {
	case res = <-results:
	case <-ctx.Done():
		return nil, &AuthError{Reason: "authorization not completed", Err: ctx.Err(), ClientID: g.cfg.ClientID, RedirectURI: redirectURI}
	}
	if res.err != nil {
		return nil, res.err
	}

	exchangeCtx := ctx
	if g.cfg.HTTPClient != nil {
		exchangeCtx = context.WithValue(ctx, oauth2.HTTPClient, g.cfg.HTTPClient)
	}
	token, err := conf.Exchange(exchangeCtx, res.code)
	if err != nil {
		return nil, &AuthError{Reason: "code exchange failed", Err: err, ClientID: g.cfg.ClientID, RedirectURI: redirectURI}
	}
	if token.AccessToken == "" {
		return nil, &AuthError{Reason: "token response had no access token", ClientID: g.cfg.ClientID, RedirectURI: redirectURI}
	}

	return &storage.Credential{
		AccessToken: token.AccessToken,
		Expiry:      g.tokenExpiry(token),
		Scopes:      grantedScopes(token, scopes),
	}, nil
}

func (g *BrowserGranter) callbackError(msg, redirectURI string) *AuthError {
	authErr := &AuthError{
		Reason:      "authorization UI reported: " + msg,
		ClientID:    g.cfg.ClientID,
		RedirectURI: redirectURI,
	}
	if strings.Contains(strings.ToLower(msg), "redirect_uri_mismatch") {
		authErr.Hint = redirectMismatchHint
	}
	return authErr
}

func (g *BrowserGranter) tokenExpiry(token *oauth2.Token) time.Time {
	if !token.Expiry.IsZero() {
		return token.Expiry
	}
	return g.now().Add(time.Hour)
}

// grantedScopes extracts the scopes the provider actually granted, which
// may exceed the request; falls back to the requested set.
func grantedScopes(token *oauth2.Token, requested []string) []string {
	if raw, ok := token.Extra("scope").(string); ok && raw != "" {
		return strings.Fields(raw)
	}
	return append([]string(nil), requested...)
}

// openBrowser opens url in the platform's default browser.
func openBrowser(url string) error {
	switch runtime.GOOS {
	case "darwin":
		return exec.Command("open", url).Start()
	case "windows":
		return exec.Command("rundll32", "url.dll,FileProtocolHandler", url).Start()
	default:
		return exec.Command("xdg-open", url).Start()
	}
}
