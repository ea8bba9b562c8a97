package twitter

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/dghubble/oauth1"
	"golang.org/x/time/rate"
)

const (
	defaultAPIBaseURL    = "https://api.twitter.com"
	defaultUploadBaseURL = "https://upload.twitter.com"
)

// Credentials is the credential set used to build sessions.
type Credentials struct {
	BearerToken       string
	AccessToken       string
	AccessTokenSecret string
	ConsumerKey       string
	ConsumerSecret    string
}

// Config holds configuration for the Twitter client.
type Config struct {
	Credentials Credentials

	APIBaseURL    string // Default: https://api.twitter.com
	UploadBaseURL string // Default: https://upload.twitter.com

	// WaitOnRateLimit makes a 429 wait for the window reset and retry
	// instead of failing with ErrRateLimited.
	WaitOnRateLimit bool

	RequestInterval      time.Duration // Minimum spacing between requests
	MaxRetries           int           // 0 means 3; negative disables retries
	RetryInitialInterval time.Duration

	// HTTPClient is the base client; its transport is wrapped for signing.
	HTTPClient *http.Client
}

func (c *Config) setDefaults() {
	if c.APIBaseURL == "" {
		c.APIBaseURL = defaultAPIBaseURL
	}
	if c.UploadBaseURL == "" {
		c.UploadBaseURL = defaultUploadBaseURL
	}
	if c.RequestInterval <= 0 {
		c.RequestInterval = 100 * time.Millisecond
	}
	if c.MaxRetries < 0 {
		c.MaxRetries = 0
	} else if c.MaxRetries == 0 {
		c.MaxRetries = 3
	}
	if c.RetryInitialInterval <= 0 {
		c.RetryInitialInterval = time.Second
	}
	if c.HTTPClient == nil {
		c.HTTPClient = &http.Client{Timeout: 30 * time.Second}
	}
}

type authMode int

const (
	// authUser signs the request with the OAuth 1.0a user context.
	authUser authMode = iota
	// authApp uses the bearer token when one is configured.
	authApp
)

// client carries the request machinery shared by Session and Uploader.
type client struct {
	cfg     Config
	user    *http.Client
	limiter *rate.Limiter
}

func newClient(ctx context.Context, cfg Config, limiter *rate.Limiter) (*client, error) {
	creds := cfg.Credentials
	if creds.ConsumerKey == "" || creds.ConsumerSecret == "" {
		return nil, ErrMissingAppCredentials
	}
	if creds.AccessToken == "" || creds.AccessTokenSecret == "" {
		return nil, ErrMissingAccessCredentials
	}

	ctx = context.WithValue(ctx, oauth1.HTTPClient, cfg.HTTPClient)
	user := oauth1.NewConfig(creds.ConsumerKey, creds.ConsumerSecret).
		Client(ctx, oauth1.NewToken(creds.AccessToken, creds.AccessTokenSecret))
	user.Timeout = cfg.HTTPClient.Timeout

	return &client{
		cfg:     cfg,
		user:    user,
		limiter: limiter,
	}, nil
}

// send performs one API call and decodes a 2xx body into out.
func (c *client) send(ctx context.Context, auth authMode, method, url string, body []byte, contentType string, out any) error {
	httpClient := c.user
	bearer := ""
	if auth == authApp && c.cfg.Credentials.BearerToken != "" {
		httpClient = c.cfg.HTTPClient
		bearer = c.cfg.Credentials.BearerToken
	}
	idempotent := method == http.MethodGet

	var respBody []byte
	operation := func() error {
		if err := c.limiter.Wait(ctx); err != nil {
			return backoff.Permanent(fmt.Errorf("wait for rate limiter: %w", err))
		}

		var reader io.Reader
		if body != nil {
			reader = bytes.NewReader(body)
		}
		req, err := http.NewRequestWithContext(ctx, method, url, reader)
		if err != nil {
			return backoff.Permanent(fmt.Errorf("create request: %w", err))
		}
		if contentType != "" {
			req.Header.Set("Content-Type", contentType)
		}
		if bearer != "" {
			req.Header.Set("Authorization", "Bearer "+bearer)
		}

		resp, err := httpClient.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return backoff.Permanent(ctx.Err())
			}
			if idempotent {
				return fmt.Errorf("send request: %w", err)
			}
			return backoff.Permanent(fmt.Errorf("send request: %w", err))
		}
		defer resp.Body.Close()

		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return backoff.Permanent(fmt.Errorf("read response: %w", err))
		}

		switch {
		case resp.StatusCode >= 200 && resp.StatusCode < 300:
			respBody = data
			return nil
		case resp.StatusCode == http.StatusTooManyRequests:
			apiErr := parseAPIError(resp.StatusCode, data)
			if !c.cfg.WaitOnRateLimit {
				return backoff.Permanent(fmt.Errorf("%w: %w", ErrRateLimited, apiErr))
			}
			if err := c.waitForReset(ctx, resp.Header.Get("x-rate-limit-reset")); err != nil {
				return backoff.Permanent(err)
			}
			return apiErr
		case resp.StatusCode >= 500 && idempotent:
			return parseAPIError(resp.StatusCode, data)
		default:
			return backoff.Permanent(parseAPIError(resp.StatusCode, data))
		}
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.cfg.RetryInitialInterval
	policy := backoff.WithContext(backoff.WithMaxRetries(b, uint64(c.cfg.MaxRetries)), ctx)

	err := backoff.RetryNotify(operation, policy, func(err error, d time.Duration) {
		slog.Warn("retrying twitter request",
			"method", method,
			"url", url,
			"error", err,
			"backoff", d,
		)
	})
	if err != nil {
		return err
	}

	if out != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, out); err != nil {
			return fmt.Errorf("parse response: %w", err)
		}
	}
	return nil
}

// waitForReset blocks until the unix time in the x-rate-limit-reset header.
// A missing or past reset returns at once and leaves pacing to the backoff.
func (c *client) waitForReset(ctx context.Context, header string) error {
	reset, err := strconv.ParseInt(header, 10, 64)
	if err != nil {
		return nil
	}
	wait := time.Until(time.Unix(reset, 0))
	if wait <= 0 {
		return nil
	}

	slog.Warn("rate limit reached, waiting for reset", "wait", wait.Round(time.Second))

	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (c *client) getJSON(ctx context.Context, auth authMode, url string, out any) error {
	return c.send(ctx, auth, http.MethodGet, url, nil, "", out)
}

func (c *client) postJSON(ctx context.Context, url string, in, out any) error {
	body, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}
	return c.send(ctx, authUser, http.MethodPost, url, body, "application/json", out)
}
