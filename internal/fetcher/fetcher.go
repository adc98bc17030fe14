// Package fetcher implements the rate-limited, retrying, anti-bot-resilient
// HTTP client every extractor is built on top of (spec §4.1). Its retry
// combinator and jittered backoff are generalized from the teacher's
// storage-layer reconnect logic (internal/storage/pool.go's reconnectNotify,
// internal/storage/retry.go's WithRetry) rather than reinvented.
package fetcher

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jura-stack/jura/internal/errkind"
)

// Response is the contract result every Get/Post call returns on success.
type Response struct {
	StatusCode int
	FinalURL   string
	Body       []byte
	Cookies    []*http.Cookie
}

// CookieHarvester solves a JavaScript challenge for a protected host and
// returns session cookies (spec §4.1). Browser automation itself is an
// external collaborator; the fetcher only depends on this interface.
type CookieHarvester interface {
	Harvest(ctx context.Context, seedURL string) (map[string]string, error)
}

// Config configures one Client (spec §4.1, §5).
type Config struct {
	RequestDelay   time.Duration // minimum interval between outbound requests
	RequestTimeout time.Duration
	MaxRetries     int // default 3
	PoWDifficulty  int // leading zero bits, default 16
	PoWEncrypt     bool
	CookieCacheTTL time.Duration
}

// Client is a session-scoped HTTP client: one per extractor (spec §5 "Outbound
// HTTP sessions are per-extractor, never shared").
type Client struct {
	cfg       Config
	http      *http.Client
	harvester CookieHarvester
	cache     *CookieCache
	logger    *slog.Logger

	rateMu       sync.Mutex
	lastRequest  time.Time

	jar          map[string]string // cookies accumulated across the session
	jarMu        sync.Mutex
	powRequired  atomic.Bool // set once pow.php is actually observed (original-source supplement 5)
	powOnce      sync.Once
}

// New builds a Client for one host session.
func New(cfg Config, harvester CookieHarvester, cache *CookieCache, logger *slog.Logger) *Client {
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	if cfg.PoWDifficulty <= 0 {
		cfg.PoWDifficulty = 16
	}
	return &Client{
		cfg:       cfg,
		http:      &http.Client{Timeout: cfg.RequestTimeout, CheckRedirect: noFollow},
		harvester: harvester,
		cache:     cache,
		logger:    logger,
		jar:       map[string]string{},
	}
}

// noFollow stops net/http from auto-following redirects so the fetcher can
// inspect a redirect's target (e.g. a pow.php path) before deciding whether
// to follow it itself.
func noFollow(req *http.Request, via []*http.Request) error {
	return http.ErrUseLastResponse
}

// Get issues a GET request honoring rate limiting, retries, and challenge
// recovery (spec §4.1).
func (c *Client) Get(ctx context.Context, rawURL string, headers map[string]string) (*Response, error) {
	return c.do(ctx, http.MethodGet, rawURL, headers, nil)
}

// Post issues a POST request with the given body.
func (c *Client) Post(ctx context.Context, rawURL string, headers map[string]string, body []byte) (*Response, error) {
	return c.do(ctx, http.MethodPost, rawURL, headers, body)
}

func (c *Client) do(ctx context.Context, method, rawURL string, headers map[string]string, body []byte) (*Response, error) {
	c.gate(ctx)

	var lastErr error
	backoff := 500 * time.Millisecond
	for attempt := 0; attempt < c.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			if err := sleepWithJitter(ctx, backoff); err != nil {
				return nil, errkind.New(errkind.Timeout, err)
			}
			backoff *= 2
		}

		resp, err := c.attempt(ctx, method, rawURL, headers, body)
		if err == nil {
			return resp, nil
		}

		var ek *errkind.Error
		if asErrkind(err, &ek) && (!ek.Kind.Retriable() ||
			(ek.Kind == errkind.HTTPStatus && ek.Code != http.StatusTooManyRequests && ek.Code < 500)) {
			return nil, err
		}
		lastErr = err
		c.logger.Warn("fetcher: attempt failed", "url", rawURL, "attempt", attempt+1, "error", err)
	}
	return nil, fmt.Errorf("fetcher: exhausted %d retries: %w", c.cfg.MaxRetries, lastErr)
}

func asErrkind(err error, target **errkind.Error) bool {
	e, ok := err.(*errkind.Error)
	if ok {
		*target = e
	}
	return ok
}

func (c *Client) attempt(ctx context.Context, method, rawURL string, headers map[string]string, body []byte) (*Response, error) {
	reqCtx := ctx
	var cancel context.CancelFunc
	if c.cfg.RequestTimeout > 0 {
		reqCtx, cancel = context.WithTimeout(ctx, c.cfg.RequestTimeout)
		defer cancel()
	}

	var bodyReader io.Reader
	if body != nil {
		bodyReader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(reqCtx, method, rawURL, bodyReader)
	if err != nil {
		return nil, errkind.New(errkind.Network, err)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	c.applyCookies(req)

	resp, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, errkind.New(errkind.Timeout, err)
		}
		return nil, errkind.New(errkind.Network, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errkind.New(errkind.Network, err)
	}

	c.rememberCookies(resp.Cookies())

	// Redirect handling: a pow.php redirect triggers PoW mining (spec §4.1).
	if loc := resp.Header.Get("Location"); loc != "" && isRedirect(resp.StatusCode) {
		finalURL := resolveURL(rawURL, loc)
		if isPoWRedirect(finalURL) {
			c.powOnce.Do(func() { c.powRequired.Store(true) })
			if err := c.minePoWAndSetCookies(finalURL); err != nil {
				return nil, errkind.New(errkind.Blocked, err)
			}
			return c.attempt(ctx, method, rawURL, headers, body)
		}
		return c.attempt(ctx, method, finalURL, headers, body)
	}

	if isChallengePage(data) {
		if err := c.refreshCookies(ctx, rawURL); err != nil {
			return nil, errkind.New(errkind.Blocked, err)
		}
		// One retry after a cookie refresh; caller's outer retry loop covers
		// further attempts via the Blocked->retriable classification in errkind.
		return nil, errkind.New(errkind.Blocked, fmt.Errorf("challenge page detected, cookies refreshed"))
	}

	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
		return nil, errkind.Status(resp.StatusCode, fmt.Errorf("retriable status %d", resp.StatusCode))
	}
	if resp.StatusCode >= 400 {
		return nil, errkind.Status(resp.StatusCode, fmt.Errorf("non-retriable status %d", resp.StatusCode))
	}

	return &Response{
		StatusCode: resp.StatusCode,
		FinalURL:   rawURL,
		Body:       data,
		Cookies:    resp.Cookies(),
	}, nil
}

func isRedirect(code int) bool {
	return code >= 300 && code < 400
}

func resolveURL(base, loc string) string {
	b, err1 := url.Parse(base)
	l, err2 := url.Parse(loc)
	if err1 != nil || err2 != nil {
		return loc
	}
	return b.ResolveReference(l).String()
}

// gate blocks until the configured minimum interval since the last request
// has elapsed (spec §4.1 rate limiting, §5 "every rate-limit gate blocks for
// up to (request_delay − elapsed_since_last)").
func (c *Client) gate(ctx context.Context) {
	if c.cfg.RequestDelay <= 0 {
		return
	}
	c.rateMu.Lock()
	defer c.rateMu.Unlock()
	elapsed := time.Since(c.lastRequest)
	if wait := c.cfg.RequestDelay - elapsed; wait > 0 {
		timer := time.NewTimer(wait)
		defer timer.Stop()
		select {
		case <-ctx.Done():
		case <-timer.C:
		}
	}
	c.lastRequest = time.Now()
}

// sleepWithJitter mirrors the teacher's reconnectNotify jitter idiom
// (internal/storage/pool.go), generalized from Postgres reconnects to any
// retriable HTTP call.
func sleepWithJitter(ctx context.Context, backoff time.Duration) error {
	timer := time.NewTimer(backoff + jitter(backoff/2))
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (c *Client) applyCookies(req *http.Request) {
	c.jarMu.Lock()
	defer c.jarMu.Unlock()
	for name, value := range c.jar {
		req.AddCookie(&http.Cookie{Name: name, Value: value})
	}
}

func (c *Client) rememberCookies(cookies []*http.Cookie) {
	c.jarMu.Lock()
	defer c.jarMu.Unlock()
	for _, ck := range cookies {
		c.jar[ck.Name] = ck.Value
	}
}
