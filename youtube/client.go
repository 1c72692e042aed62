// Package youtube is a thin client for the YouTube Data API v3, covering
// the subscription and playlist surface this tool needs. Requests carry a
// bearer token from a TokenSource and are retried on transient failures.
package youtube

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/kuil09/youtube-subscriptions-backup/retry"
)

// OAuth scopes used by the client. Read operations request the readonly
// scope; mutations require full manage access.
const (
	ScopeReadonly = "https://www.googleapis.com/auth/youtube.readonly"
	ScopeManage   = "https://www.googleapis.com/auth/youtube"
)

const (
	defaultBaseURL = "https://www.googleapis.com/youtube/v3"

	// pageSize is the page size used for all list calls, the API maximum.
	pageSize = 50

	// WatchLaterPlaylistID is the well-known ID of the Watch Later playlist.
	WatchLaterPlaylistID = "WL"
)

// TokenSource supplies an access token valid for the given scopes.
// *auth.Manager satisfies this.
type TokenSource interface {
	Token(ctx context.Context, scopes []string) (string, error)
}

// RemoteAPIError is an error response from the YouTube Data API.
type RemoteAPIError struct {
	// Status is the HTTP status code.
	Status int
	// Reason is the first machine-readable reason in the error payload,
	// e.g. "quotaExceeded" or "accessNotConfigured".
	Reason string
	// Message is the human-readable message from the payload.
	Message string
	// Hint carries remediation guidance for known setup failures.
	Hint string
}

// Error returns a string representation of the API error.
func (e *RemoteAPIError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("youtube api: status %d (%s): %s", e.Status, e.Reason, e.Message)
	}
	return fmt.Sprintf("youtube api: status %d: %s", e.Status, e.Message)
}

// Transient reports whether the request may succeed if repeated.
func (e *RemoteAPIError) Transient() bool {
	return e.Status == http.StatusTooManyRequests || e.Status >= 500
}

// Client calls the YouTube Data API v3 over plain HTTP.
type Client struct {
	base    *http.Client
	tokens  TokenSource
	baseURL string
	retry   retry.Config
	breaker *Breaker
	log     zerolog.Logger

	breakerCfg *BreakerConfig
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets the underlying HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.base = h }
}

// WithBaseURL overrides the API base URL. Used by tests.
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = strings.TrimRight(u, "/") }
}

// WithRetryConfig overrides the retry policy for API calls.
func WithRetryConfig(cfg retry.Config) Option {
	return func(c *Client) { c.retry = cfg }
}

// WithLogger sets the client logger.
func WithLogger(log zerolog.Logger) Option {
	return func(c *Client) { c.log = log }
}

// WithBreaker enables a circuit breaker on API calls so repeated
// transient failures fail fast instead of burning the retry budget.
func WithBreaker(cfg BreakerConfig) Option {
	return func(c *Client) { c.breakerCfg = &cfg }
}

// NewClient creates a Data API client that authenticates via tokens.
func NewClient(tokens TokenSource, opts ...Option) *Client {
	c := &Client{
		base:    &http.Client{Timeout: 30 * time.Second},
		tokens:  tokens,
		baseURL: defaultBaseURL,
		retry:   retry.DefaultConfig(),
		log:     zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.breakerCfg != nil {
		c.breaker = newBreaker(*c.breakerCfg, c.log)
	}
	return c
}

// transient is the retry classifier for API calls: retry rate limiting and
// server errors, give up immediately on client errors.
func transient(err error) bool {
	var apiErr *RemoteAPIError
	if errors.As(err, &apiErr) {
		return apiErr.Transient()
	}
	return retry.RetryTransient(err)
}

// call performs one authenticated request with retries and decodes the
// response body into out (ignored when out is nil or the body is empty).
func (c *Client) call(ctx context.Context, scope, method, path string, params url.Values, body, out any) error {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
	}

	return retry.Do(ctx, c.retry, transient, func(ctx context.Context) error {
		if err := c.breaker.Allow(); err != nil {
			return retry.Permanent(err)
		}
		token, err := c.tokens.Token(ctx, []string{scope})
		if err != nil {
			return retry.Permanent(err)
		}
		err = c.roundTrip(ctx, token, method, path, params, payload, out)
		c.breaker.Record(err)
		return err
	})
}

func (c *Client) roundTrip(ctx context.Context, token, method, path string, params url.Values, payload []byte, out any) error {
	u := c.baseURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	var reqBody io.Reader
	if payload != nil {
		reqBody = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, u, reqBody)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.base.Do(req)
	if err != nil {
		return fmt.Errorf("youtube api request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := decodeAPIError(resp.StatusCode, raw)
		c.log.Debug().Int("status", apiErr.Status).Str("reason", apiErr.Reason).
			Str("path", path).Msg("api error")
		return apiErr
	}

	if out == nil || len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// errorEnvelope mirrors the Data API error payload.
type errorEnvelope struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Errors  []struct {
			Reason  string `json:"reason"`
			Message string `json:"message"`
		} `json:"errors"`
		Details []struct {
			Reason   string            `json:"reason"`
			Metadata map[string]string `json:"metadata"`
		} `json:"details"`
	} `json:"error"`
}

func decodeAPIError(status int, body []byte) *RemoteAPIError {
	apiErr := &RemoteAPIError{Status: status, Message: strings.TrimSpace(string(body))}

	var env errorEnvelope
	if err := json.Unmarshal(body, &env); err != nil || env.Error.Code == 0 {
		return apiErr
	}
	apiErr.Message = env.Error.Message
	if len(env.Error.Errors) > 0 {
		apiErr.Reason = env.Error.Errors[0].Reason
	}

	// A disabled API is the most common first-run failure. Surface the
	// console activation link when the payload carries one.
	for _, d := range env.Error.Details {
		if d.Reason == "SERVICE_DISABLED" {
			apiErr.Reason = d.Reason
			apiErr.Hint = serviceDisabledHint(d.Metadata["activationUrl"])
		}
	}
	if apiErr.Hint == "" && apiErr.Reason == "accessNotConfigured" {
		apiErr.Hint = serviceDisabledHint("")
	}
	return apiErr
}

func serviceDisabledHint(activationURL string) string {
	hint := "The YouTube Data API v3 is not enabled for this project. Enable it in the Google Cloud console, then retry after a few minutes."
	if activationURL != "" {
		hint += " Activation: " + activationURL
	}
	return hint
}

// listEnvelope is the common shape of Data API list responses.
type listEnvelope struct {
	NextPageToken string `json:"nextPageToken"`
	PageInfo      struct {
		TotalResults int `json:"totalResults"`
	} `json:"pageInfo"`
	Items []json.RawMessage `json:"items"`
}

// paginate walks every page of a list endpoint, invoking each per item.
func (c *Client) paginate(ctx context.Context, scope, path string, params url.Values, each func(json.RawMessage) error) error {
	pageToken := ""
	for {
		q := url.Values{}
		for k, v := range params {
			q[k] = v
		}
		q.Set("maxResults", fmt.Sprint(pageSize))
		if pageToken != "" {
			q.Set("pageToken", pageToken)
		}

		var page listEnvelope
		if err := c.call(ctx, scope, http.MethodGet, path, q, nil, &page); err != nil {
			return err
		}
		for _, item := range page.Items {
			if err := each(item); err != nil {
				return err
			}
		}
		if page.NextPageToken == "" {
			return nil
		}
		pageToken = page.NextPageToken
	}
}
