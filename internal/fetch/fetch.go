// Package fetch provides the transports the content sources share: a pooled
// HTTP client and a Mark Protocol client over QUIC. Both retry transient
// failures, throttle per host and can revalidate against a local cache.
package fetch

import (
	"fmt"
	"net/url"

	"github.com/latebit/wikirace/internal/protocol"
)

// Result holds a fetched document and how it was served.
type Result struct {
	URL       string
	Body      []byte
	FromCache bool
}

// StatusError reports a response that arrived but was not a success.
// Code is the HTTP status code and is zero for Mark responses.
type StatusError struct {
	URL    string
	Status string
	Code   int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: unexpected status %s", e.URL, e.Status)
}

// Temporary reports whether the server may succeed on a later attempt.
func (e *StatusError) Temporary() bool {
	return e.Code == 429 || e.Code >= 500
}

// ParseMarkURL parses a mark:// URL and returns the host (with default port)
// and path.
func ParseMarkURL(raw string) (host, path string, err error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", "", fmt.Errorf("invalid URL: %w", err)
	}
	if u.Scheme != "mark" {
		return "", "", fmt.Errorf("unsupported scheme: %s (expected mark://)", u.Scheme)
	}
	host = u.Host
	if u.Port() == "" {
		host = fmt.Sprintf("%s:%d", u.Hostname(), protocol.DefaultPort)
	}
	path = u.Path
	if path == "" {
		path = "/"
	}
	return host, path, nil
}
