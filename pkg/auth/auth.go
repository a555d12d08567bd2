// Package auth acquires a backend credential, either through the
// GitHub OAuth redirect flow with a loopback callback listener, or
// through direct manual token entry.
package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/github"
	"golang.org/x/sync/errgroup"

	"github.com/ANIMANxd/devpath-cli/pkg/devpath"
)

const (
	stateBytes      = 16
	callbackPath    = "/auth/callback"
	shutdownTimeout = 5 * time.Second
)

// FlowState is the controller's position in the login state machine.
type FlowState string

const (
	StateIdle             FlowState = "idle"
	StateAwaitingCallback FlowState = "awaiting_callback"
	StateManualEntry      FlowState = "manual_entry"
	StateAuthenticated    FlowState = "authenticated"
	StateFailed           FlowState = "failed"
	StateRejected         FlowState = "rejected"
)

var (
	// ErrOAuthNotConfigured means no GitHub client ID is configured.
	// Callers must fall back to manual token entry instead of
	// attempting a doomed redirect.
	ErrOAuthNotConfigured = errors.New("github oauth is not configured")

	// ErrMissingCredential means the callback exchange succeeded but
	// the response carried no access token.
	ErrMissingCredential = errors.New("no access token received")

	// ErrAlreadyAuthenticated means the controller reached its
	// terminal state; a fresh controller is needed to log in again.
	ErrAlreadyAuthenticated = errors.New("already authenticated")
)

// Exchanger is the slice of the backend client the flow needs.
type Exchanger interface {
	ExchangeCode(ctx context.Context, code string) (string, error)
}

// CredentialSink receives the acquired credential.
type CredentialSink interface {
	SetCredential(ctx context.Context, value string) error
}

// Config holds the OAuth settings for the browser flow.
type Config struct {
	// ClientID of the registered GitHub OAuth app. Empty disables the
	// browser flow.
	ClientID string

	// CallbackListen is the loopback address the callback listener
	// binds to, e.g. "127.0.0.1:8123". The matching redirect URL must
	// be registered with the OAuth app.
	CallbackListen string
}

// Controller runs one login flow. Reaching StateAuthenticated is
// terminal: subsequent login calls fail.
type Controller struct {
	log       logrus.FieldLogger
	cfg       Config
	exchanger Exchanger
	sink      CredentialSink

	// Notify is called with the authorize URL once the listener is up.
	// The default logs the URL for the user to open.
	Notify func(authorizeURL string)

	mu    sync.Mutex
	state FlowState
}

// NewController creates a login controller in StateIdle.
func NewController(
	log logrus.FieldLogger,
	cfg Config,
	exchanger Exchanger,
	sink CredentialSink,
) *Controller {
	return &Controller{
		log:       log.WithField("component", "auth"),
		cfg:       cfg,
		exchanger: exchanger,
		sink:      sink,
		state:     StateIdle,
	}
}

// State returns the controller's current flow state.
func (c *Controller) State() FlowState {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.state
}

func (c *Controller) setState(s FlowState) {
	c.mu.Lock()
	c.state = s
	c.mu.Unlock()
}

// LoginWithBrowser runs the OAuth redirect flow: serve a loopback
// callback listener, hand the user the GitHub authorize URL, wait for
// the redirect to deliver an authorization code, and exchange it at
// the backend. On any failure the caller should offer manual entry.
func (c *Controller) LoginWithBrowser(ctx context.Context) error {
	if c.State() == StateAuthenticated {
		return ErrAlreadyAuthenticated
	}

	if c.cfg.ClientID == "" {
		c.setState(StateManualEntry)

		return ErrOAuthNotConfigured
	}

	c.setState(StateAwaitingCallback)

	code, err := c.awaitCallback(ctx)
	if err != nil {
		c.setState(StateFailed)

		return err
	}

	token, err := c.exchanger.ExchangeCode(ctx, code)
	if err != nil {
		c.setState(StateFailed)

		return fmt.Errorf("exchanging authorization code: %w", err)
	}

	if token == "" {
		c.setState(StateFailed)

		return ErrMissingCredential
	}

	if err := c.sink.SetCredential(ctx, token); err != nil {
		c.setState(StateFailed)

		return fmt.Errorf("storing credential: %w", err)
	}

	c.setState(StateAuthenticated)
	c.log.Info("Authenticated via GitHub OAuth")

	return nil
}

// LoginWithToken runs the manual-entry path. An empty token is a local
// validation failure; no network call is made.
func (c *Controller) LoginWithToken(ctx context.Context, token string) error {
	if c.State() == StateAuthenticated {
		return ErrAlreadyAuthenticated
	}

	c.setState(StateManualEntry)

	token = strings.TrimSpace(token)
	if token == "" {
		c.setState(StateRejected)

		return devpath.Validation("token must not be empty")
	}

	if err := c.sink.SetCredential(ctx, token); err != nil {
		c.setState(StateFailed)

		return fmt.Errorf("storing credential: %w", err)
	}

	c.setState(StateAuthenticated)
	c.log.Info("Authenticated with manually entered token")

	return nil
}

// authorizeURL builds the GitHub authorize URL for this flow.
func (c *Controller) authorizeURL(state string) string {
	oauthCfg := &oauth2.Config{
		ClientID:    c.cfg.ClientID,
		RedirectURL: "http://" + c.cfg.CallbackListen + callbackPath,
		Scopes:      []string{"repo", "user"},
		Endpoint:    github.Endpoint,
	}

	return oauthCfg.AuthCodeURL(state, oauth2.AccessTypeOnline)
}

// awaitCallback serves the loopback listener until the redirect
// delivers a code, the context is canceled, or the server fails.
func (c *Controller) awaitCallback(ctx context.Context) (string, error) {
	state, err := generateState()
	if err != nil {
		return "", err
	}

	type callbackResult struct {
		code string
		err  error
	}

	results := make(chan callbackResult, 1)

	r := chi.NewRouter()
	r.Use(chimw.Recoverer)
	r.Get(callbackPath, func(w http.ResponseWriter, req *http.Request) {
		q := req.URL.Query()

		if q.Get("state") != state {
			http.Error(w, "invalid oauth state", http.StatusBadRequest)
			results <- callbackResult{err: errors.New("oauth state mismatch")}

			return
		}

		if errCode := q.Get("error"); errCode != "" {
			http.Error(w, "authorization failed", http.StatusBadRequest)
			results <- callbackResult{
				err: fmt.Errorf("github authorization failed: %s", errCode),
			}

			return
		}

		code := q.Get("code")
		if code == "" {
			http.Error(w, "missing code", http.StatusBadRequest)
			results <- callbackResult{err: errors.New("callback carried no code")}

			return
		}

		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(
			"<html><body>Authentication received. You can close this tab " +
				"and return to the terminal.</body></html>",
		))

		results <- callbackResult{code: code}
	})

	srv := &http.Server{
		Addr:              c.cfg.CallbackListen,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	url := c.authorizeURL(state)
	if c.Notify != nil {
		c.Notify(url)
	} else {
		c.log.WithField("url", url).Info("Open this URL in your browser to authorize")
	}

	var result callbackResult

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("callback listener: %w", err)
		}

		return nil
	})

	g.Go(func() error {
		select {
		case result = <-results:
		case <-gctx.Done():
			result = callbackResult{err: gctx.Err()}
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		return "", err
	}

	if result.err != nil {
		return "", result.err
	}

	return result.code, nil
}

// generateState creates the random anti-forgery state parameter.
func generateState() (string, error) {
	b := make([]byte, stateBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generating random state: %w", err)
	}

	return hex.EncodeToString(b), nil
}
