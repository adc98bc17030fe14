package fetcher

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand/v2"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"time"
)

// jitter returns a random duration in [0, max), mirroring the teacher's
// reconnectNotify jitter (internal/storage/pool.go). Returns 0 for max<=0.
func jitter(max time.Duration) time.Duration {
	if max <= 0 {
		return 0
	}
	return time.Duration(rand.Int64N(int64(max)))
}

// challengeMarkers are the substrings that identify an Incapsula/Imperva
// challenge page (spec §4.1; original_source/incapsula_bypass.py's
// is_incapsula_blocked uses the identical len<500-plus-marker rule).
var challengeMarkers = []string{"_Incapsula_Resource", "Incapsula", "robots"}

// isChallengePage reports whether a response body looks like a JS-challenge
// page: shorter than 500 bytes and containing one of the known markers.
func isChallengePage(body []byte) bool {
	if len(body) >= 500 {
		return false
	}
	s := string(body)
	for _, m := range challengeMarkers {
		if strings.Contains(s, m) {
			return true
		}
	}
	return false
}

// incapsulaCookiePrefixes are the cookie-name prefixes that indicate a
// harvest actually produced a working Incapsula session (original-source
// supplement 6, incapsula_bypass.py's _has_incapsula_cookies).
var incapsulaCookiePrefixes = []string{"visid_incap", "incap_ses"}

func hasIncapsulaCookies(cookies map[string]string) bool {
	for name := range cookies {
		for _, prefix := range incapsulaCookiePrefixes {
			if strings.HasPrefix(name, prefix) {
				return true
			}
		}
	}
	return false
}

var safeHostPattern = regexp.MustCompile(`[^a-zA-Z0-9.-]+`)

func safeHost(host string) string {
	return safeHostPattern.ReplaceAllString(host, "_")
}

// cookieCacheEntry is the on-disk shape at state/incapsula_{safe_host}.json
// (spec §6 persisted state layout; original-source supplement 6).
type cookieCacheEntry struct {
	Domain    string            `json:"domain"`
	Timestamp int64             `json:"timestamp"`
	Cookies   map[string]string `json:"cookies"`
}

// CookieCache persists harvested cookies per host, shared across extractors
// targeting the same host (spec §5 "shared-resource policy").
type CookieCache struct {
	stateDir string
	ttl      time.Duration
	mu       sync.Mutex
}

// NewCookieCache builds a disk-backed cache rooted at stateDir (state/).
func NewCookieCache(stateDir string, ttl time.Duration) *CookieCache {
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	return &CookieCache{stateDir: stateDir, ttl: ttl}
}

func (cc *CookieCache) path(host string) string {
	return filepath.Join(cc.stateDir, fmt.Sprintf("incapsula_%s.json", safeHost(host)))
}

// Load returns cached cookies for host if present and within TTL.
func (cc *CookieCache) Load(host string) (map[string]string, bool) {
	cc.mu.Lock()
	defer cc.mu.Unlock()

	data, err := os.ReadFile(cc.path(host))
	if err != nil {
		return nil, false
	}
	var entry cookieCacheEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil, false
	}
	if time.Since(time.Unix(entry.Timestamp, 0)) > cc.ttl {
		return nil, false
	}
	return entry.Cookies, true
}

// Store atomically persists freshly harvested cookies for host (spec §5
// "writes are atomic file rewrites"): write to a .tmp file, then rename.
func (cc *CookieCache) Store(host string, cookies map[string]string) error {
	cc.mu.Lock()
	defer cc.mu.Unlock()

	if err := os.MkdirAll(cc.stateDir, 0o755); err != nil {
		return fmt.Errorf("fetcher: create state dir: %w", err)
	}
	entry := cookieCacheEntry{Domain: host, Timestamp: time.Now().Unix(), Cookies: cookies}
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("fetcher: marshal cookie cache: %w", err)
	}
	target := cc.path(host)
	tmp := target + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("fetcher: write cookie cache tmp: %w", err)
	}
	return os.Rename(tmp, target)
}

// refreshCookies re-harvests cookies for the host behind rawURL, preferring
// a fresh cache entry, falling back to the harvester on miss or stale.
func (c *Client) refreshCookies(ctx context.Context, rawURL string) error {
	host := hostOf(rawURL)
	if c.cache != nil {
		if cookies, ok := c.cache.Load(host); ok && hasIncapsulaCookies(cookies) {
			c.rememberStringCookies(cookies)
			return nil
		}
	}
	if c.harvester == nil {
		return fmt.Errorf("fetcher: no cookie harvester configured for %s", host)
	}

	harvestCtx, cancel := context.WithTimeout(ctx, 60*time.Second)
	defer cancel()
	cookies, err := c.harvester.Harvest(harvestCtx, rawURL)
	if err != nil {
		return fmt.Errorf("fetcher: harvest cookies: %w", err)
	}
	c.rememberStringCookies(cookies)
	if c.cache != nil {
		_ = c.cache.Store(host, cookies)
	}
	return nil
}

func (c *Client) rememberStringCookies(cookies map[string]string) {
	c.jarMu.Lock()
	defer c.jarMu.Unlock()
	for name, value := range cookies {
		c.jar[name] = value
	}
}

func hostOf(rawURL string) string {
	if i := strings.Index(rawURL, "://"); i >= 0 {
		rest := rawURL[i+3:]
		if j := strings.IndexAny(rest, "/?#"); j >= 0 {
			return rest[:j]
		}
		return rest
	}
	return rawURL
}
