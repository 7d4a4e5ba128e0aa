// Copyright (c) 2025-2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

// Package plex implements the catalog lookups against a Plex Media Server.
package plex

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/avast/retry-go"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/autobrr/plexorphans/internal/domain"
	"github.com/autobrr/plexorphans/pkg/httphelpers"
	"github.com/autobrr/plexorphans/pkg/redact"
)

const (
	defaultTimeout    = 30 * time.Second
	defaultRetryDelay = 500 * time.Millisecond
	tokenParam        = "X-Plex-Token"
	maxErrorBody      = 256
)

// Request outcomes reported to a RequestObserver.
const (
	OutcomeOK           = "ok"
	OutcomeUnauthorized = "unauthorized"
	OutcomeNotFound     = "not_found"
	OutcomeTransient    = "transient"
	OutcomeError        = "error"
	OutcomeCanceled     = "canceled"
)

// RequestObserver receives one call per HTTP attempt.
type RequestObserver interface {
	ObserveRequest(outcome string, elapsed time.Duration)
}

// Config holds the options for constructing a Client.
type Config struct {
	BaseURL string
	Token   string
	// Timeout bounds a single HTTP attempt. Zero uses the default.
	Timeout time.Duration
	// RetryAttempts is the number of retries after the first attempt for transient failures.
	RetryAttempts int
	RetryDelay    time.Duration
	// RequestsPerSecond limits the request rate. Zero disables limiting.
	RequestsPerSecond float64
	HTTPClient        *http.Client
	UserAgent         string
	Version           string
	Observer          RequestObserver
}

// Client lists library sections and catalog entries over the Plex HTTP API.
type Client struct {
	baseURL    *url.URL
	token      string
	httpClient *http.Client
	timeout    time.Duration
	attempts   uint
	retryDelay time.Duration
	limiter    *rate.Limiter
	userAgent  string
	observer   RequestObserver
}

var _ domain.Catalog = (*Client)(nil)

// transientError marks failures worth retrying: network errors, per-request
// timeouts, 429 and 5xx responses.
type transientError struct {
	err error
}

func (e *transientError) Error() string { return e.err.Error() }

func (e *transientError) Unwrap() error { return e.err }

// NewClient constructs a new Client using the provided configuration.
func NewClient(cfg Config) (*Client, error) {
	base, err := url.Parse(strings.TrimSpace(cfg.BaseURL))
	if err != nil {
		return nil, fmt.Errorf("invalid base url: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("invalid base url %q: scheme must be http or https", cfg.BaseURL)
	}
	if strings.TrimSpace(cfg.Token) == "" {
		return nil, errors.New("plex token is required")
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	retryDelay := cfg.RetryDelay
	if retryDelay <= 0 {
		retryDelay = defaultRetryDelay
	}
	attempts := cfg.RetryAttempts
	if attempts < 0 {
		attempts = 0
	}

	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{}
	}

	ua := strings.TrimSpace(cfg.UserAgent)
	if ua == "" {
		ua = "plexorphans"
	}
	version := strings.TrimSpace(cfg.Version)
	if version != "" && !strings.Contains(ua, version) {
		ua = fmt.Sprintf("%s/%s", ua, version)
	}

	var limiter *rate.Limiter
	if cfg.RequestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1)
	}

	return &Client{
		baseURL:    base,
		token:      cfg.Token,
		httpClient: client,
		timeout:    timeout,
		attempts:   uint(attempts) + 1,
		retryDelay: retryDelay,
		limiter:    limiter,
		userAgent:  ua,
		observer:   cfg.Observer,
	}, nil
}

// ListSections returns every library section with its storage locations, in server order.
func (c *Client) ListSections(ctx context.Context) ([]domain.LibrarySection, error) {
	var resp response[sectionList]
	if err := c.get(ctx, "/library/sections", &resp); err != nil {
		return nil, err
	}

	sections := make([]domain.LibrarySection, 0, len(resp.MediaContainer.Directory))
	for _, dir := range resp.MediaContainer.Directory {
		locations := make([]string, 0, len(dir.Location))
		for _, loc := range dir.Location {
			locations = append(locations, loc.Path)
		}
		sections = append(sections, domain.LibrarySection{
			Key:       dir.Key,
			Title:     dir.Title,
			Locations: locations,
		})
	}
	return sections, nil
}

// ListEntries returns the catalog entries under ref, a server path such as
// /library/sections/1/all or a metadata key like /library/metadata/7/children.
func (c *Client) ListEntries(ctx context.Context, ref string) ([]domain.CatalogEntry, error) {
	var resp response[metadataList]
	if err := c.get(ctx, ref, &resp); err != nil {
		return nil, err
	}

	entries := make([]domain.CatalogEntry, 0, len(resp.MediaContainer.Metadata))
	for _, m := range resp.MediaContainer.Metadata {
		entry := domain.CatalogEntry{Reference: m.Key}
		if m.Media != nil {
			entry.Parts = make([]string, 0, len(m.Media))
			for _, md := range m.Media {
				for _, p := range md.Part {
					entry.Parts = append(entry.Parts, p.File)
				}
			}
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

func (c *Client) endpoint(ref string) (*url.URL, error) {
	refURL, err := url.Parse(ref)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid reference %q: %v", domain.ErrCatalogMalformed, ref, err)
	}
	if refURL.IsAbs() || refURL.Host != "" {
		return nil, fmt.Errorf("%w: reference %q must be a server path", domain.ErrCatalogMalformed, ref)
	}

	rawPath := httphelpers.JoinBasePath(c.baseURL.EscapedPath(), refURL.EscapedPath())
	path, err := url.PathUnescape(rawPath)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid reference %q: %v", domain.ErrCatalogMalformed, ref, err)
	}

	u := *c.baseURL
	u.Path = path
	u.RawPath = rawPath
	query := refURL.Query()
	query.Set(tokenParam, c.token)
	u.RawQuery = query.Encode()
	return &u, nil
}

func (c *Client) get(ctx context.Context, ref string, v any) error {
	u, err := c.endpoint(ref)
	if err != nil {
		return err
	}

	return retry.Do(
		func() error {
			if c.limiter != nil {
				if err := c.limiter.Wait(ctx); err != nil {
					return err
				}
			}
			return c.do(ctx, ref, u, v)
		},
		retry.Context(ctx),
		retry.Attempts(c.attempts),
		retry.Delay(c.retryDelay),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
		retry.RetryIf(func(err error) bool {
			var transient *transientError
			return errors.As(err, &transient) && ctx.Err() == nil
		}),
		retry.OnRetry(func(n uint, err error) {
			log.Debug().Err(err).Uint("attempt", n+1).Str("ref", ref).Msg("plex: retrying request")
		}),
	)
}

func (c *Client) do(ctx context.Context, ref string, u *url.URL, v any) error {
	reqCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, u.String(), nil)
	if err != nil {
		return errors.Wrap(redact.URLError(err), "failed to build plex request")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			c.observe(OutcomeCanceled, start)
			return ctx.Err()
		}
		c.observe(OutcomeTransient, start)
		return &transientError{err: fmt.Errorf("plex request failed: %w", redact.URLError(err))}
	}
	defer httphelpers.DrainAndClose(resp)

	log.Trace().
		Str("method", req.Method).
		Str("url", redact.URLString(u.String())).
		Int("status", resp.StatusCode).
		Dur("elapsed", time.Since(start)).
		Msg("plex: request")

	switch code := resp.StatusCode; {
	case code == http.StatusUnauthorized || code == http.StatusForbidden:
		c.observe(OutcomeUnauthorized, start)
		return fmt.Errorf("%w: %s returned %d", domain.ErrCatalogUnauthorized, ref, code)
	case code == http.StatusNotFound:
		c.observe(OutcomeNotFound, start)
		return fmt.Errorf("%w: %s", domain.ErrCatalogNotFound, ref)
	case code == http.StatusTooManyRequests || code >= http.StatusInternalServerError:
		c.observe(OutcomeTransient, start)
		return &transientError{err: fmt.Errorf("plex returned status %d for %s%s", code, ref, statusDetail(resp))}
	case code < http.StatusOK || code >= http.StatusMultipleChoices:
		c.observe(OutcomeError, start)
		return fmt.Errorf("plex returned status %d for %s%s", code, ref, statusDetail(resp))
	}

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		if ctx.Err() != nil {
			c.observe(OutcomeCanceled, start)
			return ctx.Err()
		}
		if reqCtx.Err() != nil {
			c.observe(OutcomeTransient, start)
			return &transientError{err: errors.Wrapf(err, "read plex response for %s", ref)}
		}
		c.observe(OutcomeError, start)
		return fmt.Errorf("%w: decode %s: %v", domain.ErrCatalogMalformed, ref, err)
	}

	c.observe(OutcomeOK, start)
	return nil
}

// statusDetail quotes the start of an error body, if any.
func statusDetail(resp *http.Response) string {
	snippet := httphelpers.BodySnippet(resp, maxErrorBody)
	if snippet == "" {
		return ""
	}
	return ": " + redact.URLString(snippet)
}

func (c *Client) observe(outcome string, start time.Time) {
	if c.observer != nil {
		c.observer.ObserveRequest(outcome, time.Since(start))
	}
}
