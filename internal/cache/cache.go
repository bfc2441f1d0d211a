// Package cache stores fetched page content on the local filesystem so that
// repeated runs can revalidate pages instead of downloading them again.
//
// Only raw responses are kept. Nothing about a search is cached.
package cache

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// Cache stores responses under Dir, one body file plus a ".meta" sidecar per
// (host, path).
type Cache struct {
	Dir string
}

// Entry is a cached response with the validators needed to revalidate it.
type Entry struct {
	Status       string
	ETag         string
	LastModified string
	Body         []byte
	CachedAt     time.Time
}

// meta is the TOML-serializable cache metadata.
type meta struct {
	URL          string    `toml:"url"`
	Status       string    `toml:"status"`
	ETag         string    `toml:"etag,omitempty"`
	LastModified string    `toml:"last_modified,omitempty"`
	CachedAt     time.Time `toml:"cached_at"`
}

// New creates a cache rooted at the given directory.
func New(dir string) *Cache {
	return &Cache{Dir: dir}
}

// DefaultDir returns ~/.wikirace/cache.
func DefaultDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolving home directory: %w", err)
	}
	return filepath.Join(home, ".wikirace", "cache"), nil
}

// Put writes an entry to the cache. CachedAt is set to the current time.
func (c *Cache) Put(host, path string, e Entry) error {
	filePath := c.filePath(host, path)

	if err := os.MkdirAll(filepath.Dir(filePath), 0o755); err != nil {
		return err
	}
	if err := os.WriteFile(filePath, e.Body, 0o644); err != nil {
		return err
	}

	m := meta{
		URL:          host + path,
		Status:       e.Status,
		ETag:         e.ETag,
		LastModified: e.LastModified,
		CachedAt:     time.Now().UTC(),
	}
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(m); err != nil {
		return err
	}
	return os.WriteFile(filePath+".meta", buf.Bytes(), 0o644)
}

// Get reads a cached entry. It returns nil, nil on a miss, including when the
// metadata sidecar is missing or unreadable.
func (c *Cache) Get(host, path string) (*Entry, error) {
	filePath := c.filePath(host, path)

	body, err := os.ReadFile(filePath)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var m meta
	if _, err := toml.DecodeFile(filePath+".meta", &m); err != nil {
		return nil, nil
	}

	return &Entry{
		Status:       m.Status,
		ETag:         m.ETag,
		LastModified: m.LastModified,
		Body:         body,
		CachedAt:     m.CachedAt,
	}, nil
}

// filePath maps a host and request path to a file below Dir. Traversal
// segments in either part cannot escape the cache directory.
func (c *Cache) filePath(host, reqPath string) string {
	safeHost := strings.ReplaceAll(host, "..", "_")
	safeHost = strings.ReplaceAll(safeHost, string(filepath.Separator), "_")
	safeHost = strings.ReplaceAll(safeHost, ":", "_")

	cleaned := filepath.Clean("/" + reqPath)
	cleaned = strings.TrimLeft(cleaned, "/")
	if cleaned == "" {
		cleaned = ".index"
	}

	return filepath.Join(c.Dir, safeHost, cleaned)
}
