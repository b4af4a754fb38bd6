// Package jenkins provides a client for the Jenkins build feed and job APIs.
package jenkins

import (
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
	"unicode"

	"golang.org/x/time/rate"

	"jenkins-notify-bot/src/contracts"
	"jenkins-notify-bot/src/logger"
)

var (
	ErrAuthFailed  = errors.New("authentication failed")
	ErrJobNotFound = errors.New("job not found")
)

// DefaultTimeout bounds every request made by the client.
const DefaultTimeout = 30 * time.Second

// Client is a Jenkins API client.
type Client struct {
	baseURL    string
	user       string
	apiToken   string
	httpClient *http.Client
	limiter    *rate.Limiter
	log        logger.Logger
	now        func() time.Time
}

// Option configures a Client.
type Option func(*Client)

// WithBasicAuth authenticates requests with a Jenkins user and API token.
func WithBasicAuth(user, apiToken string) Option {
	return func(c *Client) {
		c.user = user
		c.apiToken = apiToken
	}
}

// WithLogger sets the logger used to report skipped feed entries.
func WithLogger(l logger.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.log = l
		}
	}
}

// WithTimeout overrides the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.httpClient.Timeout = d
		}
	}
}

// WithRateLimit caps outgoing requests per second. Zero disables the limit.
func WithRateLimit(perSecond float64) Option {
	return func(c *Client) {
		if perSecond > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(perSecond), 1)
		}
	}
}

// NewClient creates a new Jenkins client for the server at baseURL.
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
		log: logger.NewSilentLogger(),
		now: time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// LatestBuilds fetches /rssLatest and returns one entry per job in feed order.
// Entries without an <updated> token are skipped, since the token is what
// the status store compares between cycles.
func (c *Client) LatestBuilds(ctx context.Context) ([]contracts.FeedEntry, error) {
	body, err := c.get(ctx, "/rssLatest")
	if err != nil {
		return nil, err
	}

	var feed atomFeed
	if err := xml.Unmarshal(body, &feed); err != nil {
		return nil, fmt.Errorf("failed to decode latest builds feed: %w", err)
	}

	entries := make([]contracts.FeedEntry, 0, len(feed.Entries))
	seen := make(map[string]bool, len(feed.Entries))
	for _, e := range feed.Entries {
		name := JobNameFromTitle(e.Title)
		if name == "" || seen[name] {
			continue
		}
		updated := strings.TrimSpace(e.Updated)
		if updated == "" || strings.IndexFunc(updated, unicode.IsSpace) >= 0 {
			c.log.Error("[Jenkins] Skipping %s: feed entry has no usable <updated> token (%q)", name, e.Updated)
			continue
		}
		seen[name] = true
		entries = append(entries, contracts.FeedEntry{
			JobName: name,
			Updated: updated,
		})
	}

	return entries, nil
}

// LastBuild fetches the last build of a job.
// Unknown result strings are rejected here rather than passed downstream.
func (c *Client) LastBuild(ctx context.Context, jobName string) (*contracts.BuildDetail, error) {
	body, err := c.get(ctx, "/job/"+url.PathEscape(jobName)+"/lastBuild/api/xml")
	if err != nil {
		return nil, err
	}

	var lb lastBuild
	if err := xml.Unmarshal(body, &lb); err != nil {
		return nil, fmt.Errorf("failed to decode last build of %s: %w", jobName, err)
	}

	detail := &contracts.BuildDetail{
		FullDisplayName: lb.FullDisplayName,
		URL:             lb.URL,
		Building:        lb.Building,
		Result:          contracts.ResultBuilding,
	}
	if !lb.Building {
		result, err := contracts.ParseBuildResult(strings.TrimSpace(lb.Result))
		if err == nil && result == contracts.ResultUnknown {
			err = fmt.Errorf("%w: finished build has no result", contracts.ErrUnknownResult)
		}
		if err != nil {
			return nil, fmt.Errorf("last build of %s: %w", jobName, err)
		}
		detail.Result = result
	}

	return detail, nil
}

// JobNameFromTitle returns the first whitespace-delimited token of a feed title.
func JobNameFromTitle(title string) string {
	fields := strings.Fields(title)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}

// get performs a GET against the server with a cache-busting t= parameter.
func (c *Client) get(ctx context.Context, path string) ([]byte, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	u := c.baseURL + path + "?t=" + strconv.FormatInt(c.now().Unix(), 10)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Accept", "application/xml")
	if c.user != "" {
		req.SetBasicAuth(c.user, c.apiToken)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusUnauthorized, http.StatusForbidden:
		return nil, fmt.Errorf("%w: %s", ErrAuthFailed, resp.Status)
	case http.StatusNotFound:
		return nil, fmt.Errorf("%w: %s", ErrJobNotFound, path)
	default:
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("API request failed with status %d: %s", resp.StatusCode, string(body))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	return body, nil
}
