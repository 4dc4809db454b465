// Package versioncheck polls the npm registry for the package's latest
// published version, caches the result for 12 hours under the store
// base dir, and classifies the connecting MCP client so the RPC layer
// can append an update notice to its tool descriptions.
package versioncheck

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"

	"github.com/agentmux/agentmux/internal/store"
)

const (
	cacheFileName = "cache.json"
	cacheTTL      = 12 * time.Hour
	fetchTimeout  = 3 * time.Second

	// minFetchInterval bounds how often fetch is allowed to actually hit
	// the registry, independent of cacheTTL: a corrupted or unwritable
	// cache.json would otherwise make every Latest() call (e.g. one per
	// tools/list request) re-fetch, hammering the registry instead of
	// degrading to "don't know".
	minFetchInterval = time.Minute
)

// cacheFile is cache.json's shape: {"version": {"latest": "...", "checkedAt": "..."}}.
type cacheFile struct {
	Version cacheEntry `json:"version"`
}

type cacheEntry struct {
	Latest    string    `json:"latest"`
	CheckedAt time.Time `json:"checkedAt"`
}

// Checker polls npm and caches the result, collapsing concurrent
// callers (e.g. two simultaneous tools/list requests during startup)
// into a single in-flight fetch via singleflight.
type Checker struct {
	baseDir     string
	packageName string
	registryURL string
	httpClient  *http.Client

	group   singleflight.Group
	limiter *rate.Limiter
}

// New creates a Checker for packageName, caching under baseDir.
// registryURL defaults to https://registry.npmjs.org when empty.
func New(baseDir, packageName, registryURL string) *Checker {
	if registryURL == "" {
		registryURL = "https://registry.npmjs.org"
	}
	return &Checker{
		baseDir:     baseDir,
		packageName: packageName,
		registryURL: registryURL,
		httpClient:  &http.Client{Timeout: fetchTimeout},
		limiter:     rate.NewLimiter(rate.Every(minFetchInterval), 1),
	}
}

func (c *Checker) cachePath() string {
	return filepath.Join(c.baseDir, cacheFileName)
}

// Latest returns the latest known version, from cache if fresh,
// otherwise by fetching the registry (with a 3s timeout) and refreshing
// the cache. A fetch failure never errors out to the caller; it falls
// back to whatever is cached (possibly empty), since a failed version
// check must never affect a tool call.
func (c *Checker) Latest(ctx context.Context) string {
	if entry, ok := c.readCache(); ok && time.Since(entry.CheckedAt) < cacheTTL {
		return entry.Latest
	}

	v, err, _ := c.group.Do("fetch", func() (any, error) {
		return c.fetchAndCache(ctx)
	})
	if err != nil {
		if entry, ok := c.readCache(); ok {
			return entry.Latest
		}
		return ""
	}
	return v.(string)
}

func (c *Checker) fetchAndCache(ctx context.Context) (string, error) {
	if !c.limiter.Allow() {
		return "", fmt.Errorf("versioncheck: rate limited, too soon since last registry fetch")
	}
	latest, err := c.fetch(ctx)
	if err != nil {
		return "", err
	}
	_ = store.WriteJSONAtomic(c.cachePath(), cacheFile{Version: cacheEntry{Latest: latest, CheckedAt: time.Now().UTC()}})
	return latest, nil
}

func (c *Checker) fetch(ctx context.Context) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, fetchTimeout)
	defer cancel()

	url := c.registryURL + "/" + c.packageName + "/latest"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("versioncheck: build request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("versioncheck: fetch %s: %w", c.packageName, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("versioncheck: registry returned %d", resp.StatusCode)
	}

	var body struct {
		Version string `json:"version"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("versioncheck: decode response: %w", err)
	}
	return body.Version, nil
}

func (c *Checker) readCache() (cacheEntry, bool) {
	data, err := os.ReadFile(c.cachePath())
	if err != nil {
		return cacheEntry{}, false
	}
	var cf cacheFile
	if err := json.Unmarshal(data, &cf); err != nil {
		return cacheEntry{}, false
	}
	return cf.Version, cf.Version.Latest != ""
}

// Compare does a lexicographic triple comparison of dotted integer
// version components ("1.2.10" > "1.2.9"). Returns -1, 0, or 1 as
// current compares to latest; malformed components compare as 0.
func Compare(current, latest string) int {
	c := parseTriple(current)
	l := parseTriple(latest)
	for i := 0; i < 3; i++ {
		if c[i] != l[i] {
			if c[i] < l[i] {
				return -1
			}
			return 1
		}
	}
	return 0
}

// Outdated reports whether current is behind latest. A blank latest
// (fetch never succeeded, or still within a fresh-but-errored cache
// window) means "don't know", never outdated.
func Outdated(current, latest string) bool {
	if latest == "" {
		return false
	}
	return Compare(current, latest) < 0
}

func parseTriple(v string) [3]int {
	v = strings.TrimPrefix(v, "v")
	parts := strings.SplitN(v, ".", 3)
	var out [3]int
	for i := 0; i < 3 && i < len(parts); i++ {
		n, _ := strconv.Atoi(strings.TrimSpace(parts[i]))
		out[i] = n
	}
	return out
}

// ClientKind classifies a connecting MCP client by clientInfo.name.
type ClientKind string

const (
	ClientClaude  ClientKind = "claude"
	ClientCodex   ClientKind = "codex"
	ClientGemini  ClientKind = "gemini"
	ClientUnknown ClientKind = "unknown"
)

// ClassifyClient maps an MCP initialize clientInfo.name to a ClientKind
// by case-insensitive substring match.
func ClassifyClient(name string) ClientKind {
	lower := strings.ToLower(name)
	switch {
	case strings.Contains(lower, "claude"):
		return ClientClaude
	case strings.Contains(lower, "codex"):
		return ClientCodex
	case strings.Contains(lower, "gemini"):
		return ClientGemini
	default:
		return ClientUnknown
	}
}

// UpdateCommand returns the client-specific command the notice text
// recommends for upgrading.
func UpdateCommand(kind ClientKind, packageName string) string {
	switch kind {
	case ClientClaude:
		return fmt.Sprintf("claude mcp update %s", packageName)
	case ClientCodex:
		return fmt.Sprintf("npm install -g %s@latest", packageName)
	case ClientGemini:
		return fmt.Sprintf("npm install -g %s@latest", packageName)
	default:
		return fmt.Sprintf("npm install -g %s@latest", packageName)
	}
}

// UpdateNotice renders the text appended to a tool description when
// current is outdated relative to latest, or "" when it isn't.
func UpdateNotice(kind ClientKind, packageName, current, latest string) string {
	if !Outdated(current, latest) {
		return ""
	}
	return fmt.Sprintf(" [update available: %s -> %s; run `%s`]", current, latest, UpdateCommand(kind, packageName))
}
