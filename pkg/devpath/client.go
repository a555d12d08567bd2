package devpath

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

const defaultTimeout = 60 * time.Second

// CredentialSource provides the bearer credential attached to requests.
// The session store satisfies this. ClearCredential is invoked on 401 —
// the one place a read-path component mutates shared session state; the
// caller additionally receives KindSessionExpired and is contractually
// required to route the user back to authentication.
type CredentialSource interface {
	Credential() string
	ClearCredential(ctx context.Context) error
}

// Client is the single chokepoint for DevPath AI backend calls.
type Client interface {
	// ExchangeCode trades an OAuth authorization code for a credential.
	ExchangeCode(ctx context.Context, code string) (string, error)

	// Analyze runs a fresh full-profile analysis.
	Analyze(ctx context.Context) (*FullReport, error)

	// GenerateTrack requests a career track for the given skills/domain.
	GenerateTrack(ctx context.Context, req CareerTrackRequest) (*CareerTrack, error)

	// MarketMatch requests a gap analysis for the given skills/job title.
	MarketMatch(ctx context.Context, req MarketMatchRequest) (*GapAnalysis, error)

	// ListReports fetches the bounded report history, most recent first.
	ListReports(ctx context.Context) ([]ReportHistoryItem, error)

	// GetReport fetches a persisted report by id.
	GetReport(ctx context.Context, id int) (*FullReport, error)

	// DeleteReport removes a persisted report. Success is a bodyless 204.
	DeleteReport(ctx context.Context, id int) error
}

// Compile-time interface check.
var _ Client = (*client)(nil)

type client struct {
	log        logrus.FieldLogger
	baseURL    string
	httpClient *http.Client
	creds      CredentialSource
	limiter    *rate.Limiter
}

// Options configures optional client behavior.
type Options struct {
	// Timeout bounds a single request. Zero means the default.
	Timeout time.Duration

	// RequestsPerMinute enables a client-side rate limiter when
	// positive. Zero disables limiting.
	RequestsPerMinute int
}

// NewClient creates a backend client. baseURL must not have a trailing
// slash ("http://localhost:8000").
func NewClient(
	log logrus.FieldLogger,
	baseURL string,
	creds CredentialSource,
	opts Options,
) Client {
	timeout := opts.Timeout
	if timeout == 0 {
		timeout = defaultTimeout
	}

	var limiter *rate.Limiter
	if opts.RequestsPerMinute > 0 {
		limiter = rate.NewLimiter(
			rate.Every(time.Minute/time.Duration(opts.RequestsPerMinute)),
			1,
		)
	}

	return &client{
		log:        log.WithField("component", "client"),
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		creds:      creds,
		limiter:    limiter,
	}
}

func (c *client) ExchangeCode(ctx context.Context, code string) (string, error) {
	path := "/auth/github/callback?code=" + url.QueryEscape(code)

	// The exchange endpoint is unauthenticated. A stale stored
	// credential must not ride along here, and a rejected exchange must
	// not clear it mid-login.
	var resp tokenResponse
	if err := c.send(ctx, http.MethodGet, path, nil, &resp, false); err != nil {
		return "", err
	}

	return resp.AccessToken, nil
}

func (c *client) Analyze(ctx context.Context) (*FullReport, error) {
	var report FullReport
	if err := c.do(ctx, http.MethodPost, "/analyze", nil, &report); err != nil {
		return nil, err
	}

	return &report, nil
}

func (c *client) GenerateTrack(
	ctx context.Context, req CareerTrackRequest,
) (*CareerTrack, error) {
	var track CareerTrack
	if err := c.do(ctx, http.MethodPost, "/generate-track", req, &track); err != nil {
		return nil, err
	}

	return &track, nil
}

func (c *client) MarketMatch(
	ctx context.Context, req MarketMatchRequest,
) (*GapAnalysis, error) {
	var analysis GapAnalysis
	if err := c.do(ctx, http.MethodPost, "/market-match", req, &analysis); err != nil {
		return nil, err
	}

	return &analysis, nil
}

func (c *client) ListReports(ctx context.Context) ([]ReportHistoryItem, error) {
	var items []ReportHistoryItem
	if err := c.do(ctx, http.MethodGet, "/reports/", nil, &items); err != nil {
		return nil, err
	}

	return items, nil
}

func (c *client) GetReport(ctx context.Context, id int) (*FullReport, error) {
	var report FullReport

	path := fmt.Sprintf("/reports/%d", id)
	if err := c.do(ctx, http.MethodGet, path, nil, &report); err != nil {
		return nil, err
	}

	return &report, nil
}

func (c *client) DeleteReport(ctx context.Context, id int) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/reports/%d", id), nil, nil)
}

// do performs one logical authenticated request.
func (c *client) do(
	ctx context.Context,
	method, path string,
	body, out any,
) error {
	return c.send(ctx, method, path, body, out, true)
}

// send performs one logical request: attach credential when authed,
// call, normalize the outcome. No retries; retrying is a caller
// decision.
func (c *client) send(
	ctx context.Context,
	method, path string,
	body, out any,
	authed bool,
) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("waiting for rate limiter: %w", err)
		}
	}

	var reqBody io.Reader

	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding request body: %w", err)
		}

		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")

	if authed {
		if token := c.creds.Credential(); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		// No response at all: DNS, refused connection, or timeout.
		return transportUnavailable(c.baseURL, err)
	}
	defer resp.Body.Close()

	c.log.WithField("method", method).
		WithField("path", req.URL.Path).
		WithField("status", resp.StatusCode).
		Debug("Request completed")

	switch {
	case resp.StatusCode == http.StatusUnauthorized && authed:
		if err := c.creds.ClearCredential(ctx); err != nil {
			c.log.WithError(err).Warn("Failed to clear expired credential")
		}

		return sessionExpired()

	case resp.StatusCode == http.StatusNoContent:
		return nil

	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return c.normalizeError(resp)
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)

		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return malformedSuccessBody(err)
	}

	return nil
}

// normalizeError maps a non-success response to an Error. Structured
// bodies surface their own message; opaque bodies (proxy error pages
// and the like) get a canned message so raw markup never leaks to the
// user.
func (c *client) normalizeError(resp *http.Response) *Error {
	data, readErr := io.ReadAll(io.LimitReader(resp.Body, 64*1024))

	contentType := resp.Header.Get("Content-Type")
	if readErr == nil && strings.Contains(contentType, "application/json") {
		var body apiErrorBody
		if err := json.Unmarshal(data, &body); err != nil {
			return malformedErrorBody(resp.StatusCode)
		}

		message := body.Detail
		if message == "" {
			message = body.Message
		}

		if message == "" {
			return malformedErrorBody(resp.StatusCode)
		}

		return apiError(resp.StatusCode, message)
	}

	return apiError(resp.StatusCode, opaqueStatusMessage(resp.StatusCode))
}

// opaqueStatusMessage maps well-known statuses of unstructured error
// responses to canned messages.
func opaqueStatusMessage(status int) string {
	switch status {
	case http.StatusNotFound:
		return "endpoint not found"
	case http.StatusBadGateway, http.StatusServiceUnavailable:
		return "service unavailable"
	case http.StatusInternalServerError:
		return "internal error"
	default:
		return fmt.Sprintf("server error (status %d)", status)
	}
}
